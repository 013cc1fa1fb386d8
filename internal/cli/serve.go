package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/ternarybob/banner"

	"github.com/kevinrhaas/glossary/internal/cache"
	"github.com/kevinrhaas/glossary/internal/config"
	"github.com/kevinrhaas/glossary/internal/logging"
	"github.com/kevinrhaas/glossary/internal/redact"
	"github.com/kevinrhaas/glossary/internal/server"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the glossary HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	if err := cfg.Validate(); err != nil {
		logger.Warn().Err(err).Msg("Configuration incomplete, see GET /config")
	}

	c, err := cache.New(cfg.Cache.Enabled, cfg.Cache.Dir, cfg.Cache.TTLSeconds)
	if err != nil {
		fail(ExitRuntimeError, "opening cache: %v", err)
		return nil
	}

	srv := server.New(cfg, logger,
		server.WithCache(c),
		server.WithVersion(Version),
	)
	printBanner(os.Stderr, cfg, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("Server failed")
			fail(ExitRuntimeError, "server: %v", err)
		}
		return nil
	case <-quit:
	}

	printShutdownBanner(os.Stderr, logger)
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
		exitCode = ExitRuntimeError
	}
	return nil
}

// printBanner writes the startup banner to w and logs the same facts.
func printBanner(w io.Writer, cfg config.Config, logger *logging.Logger) {
	serviceURL := fmt.Sprintf("http://%s:%d", cfg.Server.Host, cfg.Server.Port)
	database := redact.MaskURL(cfg.Database.URL)
	schemaName := cfg.Database.Schema
	if schemaName == "" {
		schemaName = "default"
	}
	cacheState := "disabled"
	if cfg.Cache.Enabled {
		cacheState = fmt.Sprintf("enabled (ttl %ds)", cfg.Cache.TTLSeconds)
	}

	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	hr := lineColor + strings.Repeat("═", 70) + banner.ColorReset

	fmt.Fprintf(w, "\n%s\n\n", hr)
	fmt.Fprintf(w, "%s  %s%s\n", textColor, strings.ToUpper(server.ServiceName), banner.ColorReset)
	fmt.Fprintf(w, "\n%s\n\n", hr)

	kvPad := 16
	kvLines := [][2]string{
		{"Version", Version},
		{"Service URL", serviceURL},
		{"Docs", serviceURL + "/docs"},
		{"Database", database},
		{"Schema", schemaName},
		{"Provider", cfg.API.Provider},
		{"Model", cfg.API.Model},
		{"Cache", cacheState},
	}
	for _, kv := range kvLines {
		fmt.Fprintf(w, "%s  %-*s %s%s\n", textColor, kvPad, kv[0], kv[1], banner.ColorReset)
	}
	fmt.Fprintf(w, "\n%s\n\n", hr)

	logger.Info().
		Str("version", Version).
		Str("service_url", serviceURL).
		Str("database", database).
		Str("schema", schemaName).
		Str("provider", cfg.API.Provider).
		Str("model", cfg.API.Model).
		Bool("cache_enabled", cfg.Cache.Enabled).
		Msg("Application started")
}

func printShutdownBanner(w io.Writer, logger *logging.Logger) {
	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	hr := lineColor + strings.Repeat("═", 42) + banner.ColorReset

	fmt.Fprintf(w, "\n%s\n", hr)
	fmt.Fprintf(w, "%s  GLOSSARY: SHUTTING DOWN%s\n", textColor, banner.ColorReset)
	fmt.Fprintf(w, "%s\n\n", hr)

	logger.Info().Msg("Application shutting down")
}
