package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	defaultDeployment = "model-router"
	defaultAPIVersion = "2025-01-01-preview"
)

// Azure implements Completer for deployment-scoped chat completion endpoints
// (Azure OpenAI and compatible gateways). The key travels in the api-key
// header.
type Azure struct {
	apiKey     string
	model      string
	baseURL    string
	deployment string
	apiVersion string
	client     *http.Client
	limiter    *rate.Limiter
}

// NewAzure creates a deployment endpoint provider. A base URL without a
// scheme is reached over plain http.
func NewAzure(s Settings) (*Azure, error) {
	if s.BaseURL == "" {
		return nil, fmt.Errorf("API_BASE_URL is not set")
	}
	if s.APIKey == "" {
		return nil, fmt.Errorf("API_KEY is not set")
	}
	a := &Azure{
		apiKey:     s.APIKey,
		model:      s.Model,
		baseURL:    s.BaseURL,
		deployment: s.DeploymentID,
		apiVersion: s.APIVersion,
		client:     &http.Client{Timeout: s.timeout(60 * time.Second)},
		limiter:    s.limiter(),
	}
	if a.deployment == "" {
		a.deployment = defaultDeployment
	}
	if a.apiVersion == "" {
		a.apiVersion = defaultAPIVersion
	}
	if a.model == "" {
		a.model = a.deployment
	}
	return a, nil
}

func (a *Azure) Name() string { return "azure" }

// Endpoint returns the chat completions URL for the configured deployment.
func (a *Azure) Endpoint() string {
	base := strings.TrimRight(a.baseURL, "/")
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return fmt.Sprintf("%s/deployments/%s/chat/completions?api-version=%s",
		base, url.PathEscape(a.deployment), url.QueryEscape(a.apiVersion))
}

func (a *Azure) Complete(ctx context.Context, req Request) (Response, error) {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 8192
	}

	var messages []openaiMessage
	if req.SystemPrompt != "" {
		messages = append(messages, openaiMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, openaiMessage{Role: "user", Content: req.Prompt})

	body := azureRequest{
		Messages:         messages,
		MaxTokens:        maxTokens,
		Temperature:      req.Temperature,
		TopP:             req.TopP,
		FrequencyPenalty: req.FrequencyPenalty,
		PresencePenalty:  req.PresencePenalty,
		Model:            a.model,
	}

	respBody, err := postJSON(ctx, a.client, a.limiter, a.Endpoint(), map[string]string{"api-key": a.apiKey}, body)
	if err != nil {
		return Response{}, err
	}

	var result openaiResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return Response{}, fmt.Errorf("parsing response: %w", err)
	}
	if len(result.Choices) == 0 {
		return Response{}, fmt.Errorf("no choices in response")
	}
	return Response{
		Content:    result.Choices[0].Message.Content,
		TokensUsed: result.Usage.TotalTokens,
	}, nil
}

type azureRequest struct {
	Messages         []openaiMessage `json:"messages"`
	MaxTokens        int             `json:"max_tokens"`
	Temperature      float64         `json:"temperature"`
	TopP             float64         `json:"top_p"`
	FrequencyPenalty float64         `json:"frequency_penalty"`
	PresencePenalty  float64         `json:"presence_penalty"`
	Model            string          `json:"model"`
}
