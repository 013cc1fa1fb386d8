package analyze

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/kevinrhaas/glossary/internal/cache"
	"github.com/kevinrhaas/glossary/internal/config"
	"github.com/kevinrhaas/glossary/internal/hierarchy"
	"github.com/kevinrhaas/glossary/internal/logging"
	"github.com/kevinrhaas/glossary/internal/providers"
	"github.com/kevinrhaas/glossary/internal/redact"
	"github.com/kevinrhaas/glossary/internal/schema"
)

// ErrAttemptsExhausted is returned when no attempt produced a valid glossary.
var ErrAttemptsExhausted = errors.New("AI analysis failed after all retry attempts")

const (
	promptPreviewLen   = 300
	responsePreviewLen = 200
)

// Database sources reported in Metadata.
const (
	SourceRequest     = "request_override"
	SourceEnvironment = "environment_config"
)

// Engine generates glossaries from schema summaries.
type Engine struct {
	provider   providers.Completer
	api        config.APIConfig
	cache      *cache.Cache
	logger     *logging.Logger
	maxColumns int
	now        func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithCache enables response caching.
func WithCache(c *cache.Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithMaxColumns sets how many column names each table lists in the summary.
func WithMaxColumns(n int) Option {
	return func(e *Engine) { e.maxColumns = n }
}

// NewEngine returns an Engine calling p with the request parameters in api.
func NewEngine(p providers.Completer, api config.APIConfig, opts ...Option) *Engine {
	e := &Engine{
		provider:   p,
		api:        api,
		logger:     logging.NewSilent(),
		maxColumns: schema.DefaultMaxColumns,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result is the outcome of Generate.
type Result struct {
	Data     json.RawMessage
	Attempts int
	Cached   bool
}

// Generate asks the model for a glossary of summary. It makes up to
// MaxRetries attempts with no delay between them; after a response that is
// not valid JSON the retry prompt carries RetrySuffix.
func (e *Engine) Generate(ctx context.Context, summary string) (Result, error) {
	prompt := BuildPrompt(e.api.PromptTemplate, summary)
	e.logger.Info().
		Int("chars", len(prompt)).
		Str("preview", logging.Truncate(redact.Secrets(prompt), promptPreviewLen)).
		Msg("Generated prompt")

	key := cache.Key{
		Provider:   e.provider.Name(),
		Model:      e.api.Model,
		Deployment: e.api.DeploymentID,
		Prompt:     prompt,
	}
	if e.cache != nil {
		if data, ok := e.cache.Get(key); ok {
			e.logger.Info().Msg("Using cached glossary")
			return Result{Data: data, Cached: true}, nil
		}
	}

	attempts := e.api.MaxRetries
	if attempts < 1 {
		attempts = 1
	}

	var res Result
	current := prompt
	err := providers.Retry(ctx, attempts, func(attempt int) error {
		res.Attempts = attempt
		e.logger.Info().
			Int("attempt", attempt).
			Int("max", attempts).
			Str("provider", e.provider.Name()).
			Msg("Making API call")

		resp, err := e.provider.Complete(ctx, e.request(current))
		if err != nil {
			e.logger.Error().
				Err(err).
				Int("attempt", attempt).
				Bool("transient", providers.IsRetryable(err)).
				Msg("API call failed")
			return err
		}
		e.logger.Info().
			Int("chars", len(resp.Content)).
			Str("preview", logging.Truncate(redact.Secrets(resp.Content), responsePreviewLen)).
			Msg("AI response received")

		data, err := CleanJSON(resp.Content)
		if err != nil {
			e.logger.Warn().Err(err).Int("attempt", attempt).Msg("Invalid JSON received")
			current = prompt + RetrySuffix
			return err
		}
		e.logger.Info().Int("attempt", attempt).Msg("Valid JSON parsed")
		res.Data = data
		return nil
	})
	if err != nil {
		e.logger.Error().Int("attempts", res.Attempts).Msg("All API call attempts failed")
		return res, fmt.Errorf("%w: %w", ErrAttemptsExhausted, err)
	}

	if e.cache != nil {
		if err := e.cache.Put(key, res.Data); err != nil {
			e.logger.Warn().Err(err).Msg("Failed to cache glossary")
		}
	}
	return res, nil
}

func (e *Engine) request(prompt string) providers.Request {
	return providers.Request{
		Prompt:           prompt,
		MaxTokens:        e.api.MaxTokens,
		Temperature:      e.api.Temperature,
		TopP:             e.api.TopP,
		FrequencyPenalty: e.api.FrequencyPenalty,
		PresencePenalty:  e.api.PresencePenalty,
	}
}

// Analyze summarizes src and generates a glossary for it. On generation
// failure the returned report carries the metadata gathered so far along
// with the error.
func (e *Engine) Analyze(ctx context.Context, src schema.Source, schemaName string) (*Report, error) {
	start := e.now()

	summary, err := schema.Summarize(ctx, src, schemaName, e.maxColumns)
	if err != nil {
		return nil, err
	}
	e.logger.Info().
		Int("tables", summary.TableCount()).
		Str("preview", logging.Truncate(summary.Text, 500)).
		Msg("Schema summary created")

	res, genErr := e.Generate(ctx, summary.Text)

	report := &Report{
		Success: genErr == nil,
		Data:    res.Data,
		Metadata: Metadata{
			TablesAnalyzed: summary.TableCount(),
			SchemaName:     schemaNameOrDefault(schemaName),
			ProcessingTime: roundSeconds(e.now().Sub(start)),
			AIModelUsed:    e.api.Model,
			Attempts:       res.Attempts,
			Cached:         res.Cached,
		},
	}
	if genErr != nil {
		return report, genErr
	}
	return report, nil
}

func schemaNameOrDefault(name string) string {
	if name == "" {
		return "default"
	}
	return name
}

// roundSeconds reports d in seconds with two decimals.
func roundSeconds(d time.Duration) float64 {
	return math.Round(d.Seconds()*100) / 100
}

// Records flattens the report's glossary with f.
func (r *Report) Records(f hierarchy.Flattener) ([]hierarchy.Record, error) {
	if r == nil || len(r.Data) == 0 {
		return nil, nil
	}
	root, err := hierarchy.ParseJSON(r.Data)
	if err != nil {
		return nil, err
	}
	return f.Flatten(root)
}
