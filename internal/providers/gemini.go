package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// Gemini implements the Completer interface through the Google GenAI SDK.
type Gemini struct {
	client  *genai.Client
	model   string
	limiter *rate.Limiter
}

// NewGemini creates a new Gemini provider. The key falls back to
// GEMINI_API_KEY, then GOOGLE_API_KEY.
func NewGemini(ctx context.Context, s Settings) (*Gemini, error) {
	key := s.APIKey
	if key == "" {
		key = os.Getenv("GEMINI_API_KEY")
	}
	if key == "" {
		key = os.Getenv("GOOGLE_API_KEY")
	}
	if key == "" {
		return nil, fmt.Errorf("API_KEY (or GEMINI_API_KEY) is not set")
	}

	cfg := &genai.ClientConfig{
		APIKey:     key,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: s.timeout(0)},
	}
	if s.BaseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: s.BaseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Gemini{client: client, model: s.Model, limiter: s.limiter()}, nil
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Complete(ctx context.Context, req Request) (Response, error) {
	if err := wait(ctx, g.limiter); err != nil {
		return Response{}, err
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}
	cfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(maxTokens),
	}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.TopP > 0 {
		cfg.TopP = genai.Ptr(float32(req.TopP))
	}
	if req.SystemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemPrompt, genai.RoleUser)
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return Response{}, classifyGenAIError(err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return Response{}, fmt.Errorf("no content in response")
	}

	var b strings.Builder
	for _, part := range result.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}
	resp := Response{Content: b.String()}
	if result.UsageMetadata != nil {
		resp.TokensUsed = int(result.UsageMetadata.TotalTokenCount)
	}
	return resp, nil
}

func classifyGenAIError(err error) error {
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErrPtr):
		apiErr = *apiErrPtr
	case errors.As(err, &apiErr):
	default:
		return fmt.Errorf("generating content: %w", err)
	}
	switch {
	case apiErr.Code == http.StatusTooManyRequests:
		return &rateLimitError{}
	case apiErr.Code == http.StatusUnauthorized || apiErr.Code == http.StatusForbidden:
		return &authError{message: apiErr.Message}
	case apiErr.Code >= 500:
		return &serverError{statusCode: apiErr.Code, body: apiErr.Message}
	default:
		return fmt.Errorf("generating content: %w", err)
	}
}
