package providers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider implements the Reviewer interface for Anthropic's API.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
}

// NewAnthropic creates a new Anthropic provider from ANTHROPIC_API_KEY.
func NewAnthropic(model string, opts ...option.RequestOption) (*AnthropicProvider, error) {
	key := os.Getenv("ANTHROPIC_API_KEY")
	if key == "" {
		return nil, &authError{message: "ANTHROPIC_API_KEY environment variable is not set"}
	}
	return newAnthropic(key, model, opts...), nil
}

func newAnthropic(key, model string, opts ...option.RequestOption) *AnthropicProvider {
	// Retries are handled by retryWithBackoff.
	all := append([]option.RequestOption{option.WithAPIKey(key), option.WithMaxRetries(0)}, opts...)
	return &AnthropicProvider{
		client: anthropic.NewClient(all...),
		model:  model,
	}
}

func (a *AnthropicProvider) Name() string  { return Anthropic }
func (a *AnthropicProvider) Model() string { return a.model }

func (a *AnthropicProvider) Review(ctx context.Context, req ReviewRequest) (ReviewResponse, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: int64(maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserPrompt)),
		},
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	var resp ReviewResponse
	err := retryWithBackoff(ctx, 3, func() error {
		msg, err := a.client.Messages.New(ctx, params)
		if err != nil {
			var apiErr *anthropic.Error
			if errors.As(err, &apiErr) {
				return fromStatus(apiErr.StatusCode, err)
			}
			return fmt.Errorf("sending request: %w", err)
		}

		var b strings.Builder
		for _, block := range msg.Content {
			if block.Type == "text" {
				b.WriteString(block.Text)
			}
		}
		resp = ReviewResponse{
			Content:    b.String(),
			TokensUsed: int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		}
		return nil
	})

	return resp, err
}
