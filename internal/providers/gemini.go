package providers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// GeminiProvider implements the Reviewer interface for Google's Gemini API.
type GeminiProvider struct {
	apiKey string
	model  string
	opts   []option.ClientOption
}

// NewGemini creates a new Gemini provider from GEMINI_API_KEY or
// GOOGLE_API_KEY.
func NewGemini(model string, opts ...option.ClientOption) (*GeminiProvider, error) {
	key := geminiKey(os.Getenv)
	if key == "" {
		return nil, &authError{message: "GEMINI_API_KEY (or GOOGLE_API_KEY) environment variable is not set"}
	}
	return &GeminiProvider{apiKey: key, model: model, opts: opts}, nil
}

func (g *GeminiProvider) Name() string  { return Gemini }
func (g *GeminiProvider) Model() string { return g.model }

func (g *GeminiProvider) Review(ctx context.Context, req ReviewRequest) (ReviewResponse, error) {
	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(g.apiKey)}, g.opts...)...)
	if err != nil {
		return ReviewResponse{}, fmt.Errorf("creating gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.model)
	if req.SystemPrompt != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.SystemPrompt)}}
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}
	model.SetMaxOutputTokens(int32(maxTokens))
	if req.Temperature > 0 {
		model.SetTemperature(float32(req.Temperature))
	}

	var resp ReviewResponse
	err = retryWithBackoff(ctx, 3, func() error {
		out, err := model.GenerateContent(ctx, genai.Text(req.UserPrompt))
		if err != nil {
			var apiErr *googleapi.Error
			if errors.As(err, &apiErr) {
				return fromStatus(apiErr.Code, err)
			}
			return fmt.Errorf("sending request: %w", err)
		}
		resp, err = geminiResponse(out)
		return err
	})

	return resp, err
}

func geminiResponse(out *genai.GenerateContentResponse) (ReviewResponse, error) {
	if out == nil || len(out.Candidates) == 0 || out.Candidates[0].Content == nil {
		return ReviewResponse{}, fmt.Errorf("no candidates in gemini response")
	}
	var b strings.Builder
	for _, part := range out.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	resp := ReviewResponse{Content: b.String()}
	if out.UsageMetadata != nil {
		resp.TokensUsed = int(out.UsageMetadata.TotalTokenCount)
	}
	return resp, nil
}
