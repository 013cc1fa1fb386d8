package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kevinrhaas/glossary/internal/config"
)

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(context.Background(), Settings{Provider: "unknown"})
	if err == nil {
		t.Error("Expected error for unknown provider")
	}
}

func TestNew_DefaultsToAzure(t *testing.T) {
	p, err := New(context.Background(), Settings{BaseURL: "host", APIKey: "k"})
	if err != nil {
		t.Fatalf("New error: %v", err)
	}
	if p.Name() != "azure" {
		t.Errorf("Name() = %q, want azure", p.Name())
	}
}

func TestNew_OllamaAliases(t *testing.T) {
	for _, name := range []string{"ollama", "lmstudio"} {
		p, err := New(context.Background(), Settings{Provider: name, Model: "llama3"})
		if err != nil {
			t.Fatalf("New(%q) error: %v", name, err)
		}
		if p.Name() != "ollama" {
			t.Errorf("New(%q).Name() = %q", name, p.Name())
		}
	}
}

func TestSettingsFrom(t *testing.T) {
	api := config.Default().API
	api.Timeout = 1.5
	api.RateLimit = 2
	s := SettingsFrom(api)
	if s.Timeout != 1500*time.Millisecond {
		t.Errorf("Timeout = %v", s.Timeout)
	}
	if s.DeploymentID != "model-router" || s.APIVersion != "2025-01-01-preview" {
		t.Errorf("s = %+v", s)
	}
	if s.limiter() == nil {
		t.Error("expected limiter for positive rate")
	}
	if (Settings{}).limiter() != nil {
		t.Error("expected no limiter for zero rate")
	}
}

func TestIsAuthError(t *testing.T) {
	if !IsAuthError(&authError{message: "bad"}) {
		t.Error("authError not detected")
	}
	if !IsAuthError(errors.Join(errors.New("ctx"), &authError{})) {
		t.Error("wrapped authError not detected")
	}
	if IsAuthError(errors.New("other")) {
		t.Error("plain error reported as auth")
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(&rateLimitError{}) || !IsRetryable(&serverError{statusCode: 502}) {
		t.Error("transient errors should be retryable")
	}
	if IsRetryable(&authError{}) || IsRetryable(errors.New("x")) {
		t.Error("non-transient errors should not be retryable")
	}
}

func TestRetry_Success(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, func(attempt int) error {
		calls++
		if attempt < 2 {
			return errors.New("flaky")
		}
		return nil
	})
	if err != nil || calls != 2 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}
}

func TestRetry_Exhausted(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, func(int) error {
		calls++
		return errors.New("always")
	})
	if err == nil || err.Error() != "always" || calls != 3 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}
}

func TestRetry_StopsOnAuth(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 5, func(int) error {
		calls++
		return &authError{message: "denied"}
	})
	if !IsAuthError(err) || calls != 1 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}
}

func TestRetry_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, 5, func(int) error {
		calls++
		cancel()
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) || calls != 1 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}
}

func TestRetry_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	Retry(context.Background(), 0, func(int) error { calls++; return nil })
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestErrorMessages(t *testing.T) {
	if (&rateLimitError{}).Error() != "rate limited" {
		t.Error("rateLimitError message")
	}
	if (&authError{message: "x"}).Error() != "authentication error: x" {
		t.Error("authError message")
	}
	if (&serverError{statusCode: 500, body: "b"}).Error() != "server error (status 500): b" {
		t.Error("serverError message")
	}
}
