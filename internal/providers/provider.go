package providers

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Provider names accepted by New.
const (
	Auto      = "auto"
	Anthropic = "anthropic"
	OpenAI    = "openai"
	Gemini    = "gemini"
	Ollama    = "ollama"
)

// DefaultModels is the model used for each provider when none is configured.
var DefaultModels = map[string]string{
	OpenAI:    "gpt-4o",
	Anthropic: "claude-sonnet-4-20250514",
	Gemini:    "gemini-2.0-flash",
	Ollama:    "llama3.1",
}

// ReviewRequest contains the data sent to an LLM for review.
type ReviewRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

// ReviewResponse contains the raw response from an LLM.
type ReviewResponse struct {
	Content    string
	TokensUsed int
}

// Reviewer is the provider abstraction interface.
type Reviewer interface {
	Review(ctx context.Context, req ReviewRequest) (ReviewResponse, error)
	Name() string
	Model() string
}

// Detect resolves a provider preference to a concrete provider name.
// "auto" picks the first provider whose credential is present, in the order
// OpenAI, Anthropic, Gemini.
func Detect(provider string, getenv func(string) string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "", Auto:
		switch {
		case getenv("OPENAI_API_KEY") != "":
			return OpenAI, nil
		case getenv("ANTHROPIC_API_KEY") != "":
			return Anthropic, nil
		case geminiKey(getenv) != "":
			return Gemini, nil
		}
		return "", &authError{message: "no API key set (OPENAI_API_KEY, ANTHROPIC_API_KEY or GEMINI_API_KEY)"}
	case Anthropic:
		return Anthropic, nil
	case OpenAI:
		return OpenAI, nil
	case Gemini, "google":
		return Gemini, nil
	case Ollama, "lmstudio":
		return Ollama, nil
	default:
		return "", fmt.Errorf("unknown provider: %s", provider)
	}
}

// New creates a provider by name. An empty model selects the provider's
// default.
func New(provider, model string) (Reviewer, error) {
	name, err := Detect(provider, os.Getenv)
	if err != nil {
		return nil, err
	}
	if model == "" {
		model = DefaultModels[name]
	}
	switch name {
	case Anthropic:
		return NewAnthropic(model)
	case OpenAI:
		return NewOpenAI(model)
	case Gemini:
		return NewGemini(model)
	default:
		return NewOllama(model)
	}
}

func geminiKey(getenv func(string) string) string {
	if key := getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return getenv("GOOGLE_API_KEY")
}
