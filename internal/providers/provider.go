package providers

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/kevinrhaas/glossary/internal/config"
)

// Request contains the data sent to an LLM for one completion.
type Request struct {
	SystemPrompt     string
	Prompt           string
	MaxTokens        int
	Temperature      float64
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
}

// Response contains the raw text returned by an LLM.
type Response struct {
	Content    string
	TokensUsed int
}

// Completer is the provider abstraction interface. Each call is a single
// attempt; callers decide whether to retry.
type Completer interface {
	Complete(ctx context.Context, req Request) (Response, error)
	Name() string
}

// Settings selects and configures a provider.
type Settings struct {
	Provider     string
	Model        string
	BaseURL      string
	APIKey       string
	DeploymentID string
	APIVersion   string
	Timeout      time.Duration
	// RateLimit is requests per second; zero means unlimited.
	RateLimit float64
}

// SettingsFrom converts the API section of the service config.
func SettingsFrom(api config.APIConfig) Settings {
	return Settings{
		Provider:     api.Provider,
		Model:        api.Model,
		BaseURL:      api.BaseURL,
		APIKey:       api.APIKey,
		DeploymentID: api.DeploymentID,
		APIVersion:   api.APIVersion,
		Timeout:      time.Duration(api.Timeout * float64(time.Second)),
		RateLimit:    api.RateLimit,
	}
}

// New creates a provider by name.
func New(ctx context.Context, s Settings) (Completer, error) {
	switch s.Provider {
	case "azure", "":
		return NewAzure(s)
	case "openai":
		return NewOpenAI(s)
	case "anthropic":
		return NewAnthropic(s)
	case "gemini", "google":
		return NewGemini(ctx, s)
	case "ollama", "lmstudio":
		return NewOllama(s)
	default:
		return nil, fmt.Errorf("unknown provider: %s", s.Provider)
	}
}

func (s Settings) timeout(def time.Duration) time.Duration {
	if s.Timeout > 0 {
		return s.Timeout
	}
	return def
}

// limiter builds a token bucket allowing RateLimit requests per second with a
// burst of one, or nil when unlimited.
func (s Settings) limiter() *rate.Limiter {
	if s.RateLimit <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(s.RateLimit), 1)
}

func wait(ctx context.Context, l *rate.Limiter) error {
	if l == nil {
		return nil
	}
	return l.Wait(ctx)
}
