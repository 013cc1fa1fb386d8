package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/kevinrhaas/glossary/internal/analyze"
	"github.com/kevinrhaas/glossary/internal/cache"
	"github.com/kevinrhaas/glossary/internal/hierarchy"
	"github.com/kevinrhaas/glossary/internal/output"
	"github.com/kevinrhaas/glossary/internal/providers"
	"github.com/kevinrhaas/glossary/internal/schema"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Generate a glossary for the configured database",
	Long: "analyze summarizes the database schema, asks the configured model for a " +
		"hierarchical glossary and writes it as text, json, markdown or csv.",
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		fail(ExitUsageError, "DATABASE_URL is not set (use --database-url)")
		return nil
	}
	if _, err := output.GetWriter(flagFormat, output.Options{}); err != nil {
		fail(ExitUsageError, "%v", err)
		return nil
	}
	logger := newLogger(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, err := schema.Open(ctx, cfg.Database.URL)
	if err != nil {
		fail(ExitRuntimeError, "database connection failed: %v", err)
		return nil
	}
	defer schema.Close(db)

	p, err := providers.New(ctx, providers.SettingsFrom(cfg.API))
	if err != nil {
		fail(ExitAuthError, "%v", err)
		return nil
	}
	c, err := cache.New(cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
	if err != nil {
		fail(ExitRuntimeError, "opening cache: %v", err)
		return nil
	}

	engine := analyze.NewEngine(p, cfg.API,
		analyze.WithCache(c),
		analyze.WithLogger(logger),
		analyze.WithMaxColumns(cfg.Summary.MaxColumns),
	)
	report, err := engine.Analyze(ctx, schema.NewInspector(db, cfg.Database.Schema), cfg.Database.Schema)
	if report == nil {
		fail(ExitRuntimeError, "schema analysis failed: %v", err)
		return nil
	}
	report.Metadata.DatabaseSource = analyze.SourceEnvironment
	if err != nil {
		code := ExitRuntimeError
		if providers.IsAuthError(err) {
			code = ExitAuthError
		}
		fail(code, "%v", err)
		return nil
	}

	opts := output.Options{Actor: cfg.Export.Actor}
	if err := output.WriteReport(report, flagFormat, flagOut, opts); err != nil {
		if errors.Is(err, hierarchy.ErrInvalidShape) {
			fail(ExitInvalidShape, "%v", err)
			return nil
		}
		fail(ExitRuntimeError, "writing output: %v", err)
		return nil
	}
	return nil
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&flagDatabaseURL, "database-url", "", "Database URL (overrides DATABASE_URL)")
	f.StringVar(&flagSchema, "schema", "", "Database schema to analyze")
	f.StringVar(&flagProvider, "provider", "", "LLM provider: azure, openai, anthropic, gemini, ollama")
	f.StringVar(&flagModel, "model", "", "Model name")
	f.IntVar(&flagMaxRetries, "max-retries", 0, "Generation attempts before giving up")
	f.StringVar(&flagTemperature, "temperature", "", "Sampling temperature")
	f.StringVar(&flagActor, "actor", "", "createdBy/updatedBy value for csv output")
	f.StringVar(&flagFormat, "format", "text", "Output format: text, json, markdown, csv")
	f.StringVar(&flagOut, "out", "", "Output file (default stdout)")
}
