package providers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

const defaultOllamaURL = "http://localhost:11434"

// OpenAIProvider implements the Reviewer interface for OpenAI and for
// OpenAI-compatible servers such as Ollama and LM Studio.
type OpenAIProvider struct {
	client openai.Client
	model  string
	name   string
}

// NewOpenAI creates a new OpenAI provider from OPENAI_API_KEY.
func NewOpenAI(model string, opts ...option.RequestOption) (*OpenAIProvider, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, &authError{message: "OPENAI_API_KEY environment variable is not set"}
	}
	return newOpenAI(OpenAI, key, model, opts...), nil
}

// NewOllama creates a provider for a local OpenAI-compatible server at
// OLLAMA_HOST. No API key is required; MREVIEW_OLLAMA_API_KEY is sent when
// set.
func NewOllama(model string, opts ...option.RequestOption) (*OpenAIProvider, error) {
	key := os.Getenv("MREVIEW_OLLAMA_API_KEY")
	if key == "" {
		key = "ollama"
	}
	base := option.WithBaseURL(ollamaBaseURL(os.Getenv("OLLAMA_HOST")))
	return newOpenAI(Ollama, key, model, append([]option.RequestOption{base}, opts...)...), nil
}

// ollamaBaseURL normalizes a host setting to the OpenAI-compatible API root.
func ollamaBaseURL(host string) string {
	if host == "" {
		host = defaultOllamaURL
	}
	host = strings.TrimRight(host, "/")
	host = strings.TrimSuffix(host, "/v1/chat/completions")
	host = strings.TrimSuffix(host, "/v1")
	return host + "/v1/"
}

func newOpenAI(name, key, model string, opts ...option.RequestOption) *OpenAIProvider {
	// Retries are handled by retryWithBackoff.
	all := append([]option.RequestOption{option.WithAPIKey(key), option.WithMaxRetries(0)}, opts...)
	return &OpenAIProvider{
		client: openai.NewClient(all...),
		model:  model,
		name:   name,
	}
}

func (o *OpenAIProvider) Name() string  { return o.name }
func (o *OpenAIProvider) Model() string { return o.model }

func (o *OpenAIProvider) Review(ctx context.Context, req ReviewRequest) (ReviewResponse, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessageParamUnion{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: openai.String(req.SystemPrompt),
				},
			},
		})
	}
	messages = append(messages, openai.ChatCompletionMessageParamUnion{
		OfUser: &openai.ChatCompletionUserMessageParam{
			Content: openai.ChatCompletionUserMessageParamContentUnion{
				OfString: openai.String(req.UserPrompt),
			},
		},
	})

	params := openai.ChatCompletionNewParams{
		Model:     shared.ChatModel(o.model),
		Messages:  messages,
		MaxTokens: openai.Int(int64(maxTokens)),
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	var resp ReviewResponse
	err := retryWithBackoff(ctx, 3, func() error {
		completion, err := o.client.Chat.Completions.New(ctx, params)
		if err != nil {
			var apiErr *openai.Error
			if errors.As(err, &apiErr) {
				return fromStatus(apiErr.StatusCode, err)
			}
			return fmt.Errorf("sending request: %w", err)
		}
		if len(completion.Choices) == 0 {
			return fmt.Errorf("no choices in %s response", o.name)
		}
		resp = ReviewResponse{
			Content:    strings.TrimSpace(completion.Choices[0].Message.Content),
			TokensUsed: int(completion.Usage.TotalTokens),
		}
		return nil
	})

	return resp, err
}
