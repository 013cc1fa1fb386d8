package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGemini_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"candidates": [{"content": {"role": "model", "parts": [{"text": "{\"G\":"}, {"text": "[\"a\"]}"}]}}],
			"usageMetadata": {"totalTokenCount": 12}
		}`))
	}))
	defer server.Close()

	g, err := NewGemini(context.Background(), Settings{APIKey: "k", Model: "gemini-2.0-flash", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("NewGemini error: %v", err)
	}

	resp, err := g.Complete(context.Background(), Request{Prompt: "x", SystemPrompt: "sys", Temperature: 0.5})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if resp.Content != `{"G":["a"]}` {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.TokensUsed != 12 {
		t.Errorf("TokensUsed = %d, want 12", resp.TokensUsed)
	}
}

func TestNewGemini_MissingKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")
	if _, err := NewGemini(context.Background(), Settings{Model: "gemini"}); err == nil {
		t.Error("expected error without key")
	}
}
