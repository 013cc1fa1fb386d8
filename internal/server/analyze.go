package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kevinrhaas/glossary/internal/analyze"
	"github.com/kevinrhaas/glossary/internal/config"
	"github.com/kevinrhaas/glossary/internal/hierarchy"
	"github.com/kevinrhaas/glossary/internal/output"
	"github.com/kevinrhaas/glossary/internal/providers"
	"github.com/kevinrhaas/glossary/internal/schema"
)

const maxBodyBytes = 1 << 20

// analyzeRequest is the optional body of POST /analyze.
type analyzeRequest struct {
	Database *config.DatabaseOverride `json:"database"`
	API      *config.APIOverride      `json:"api"`
}

func (r analyzeRequest) hasDatabase() bool {
	return r.Database != nil && (r.Database.URL != "" || r.Database.Schema != "")
}

func (s *Server) handleAnalyze(c *gin.Context) {
	report, ok := s.runAnalysis(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleAnalyzeExport(c *gin.Context) {
	report, ok := s.runAnalysis(c)
	if !ok {
		return
	}
	records, err := report.Records(hierarchy.Flattener{})
	if err != nil {
		writeError(c, http.StatusUnprocessableEntity, "Generated glossary has an invalid shape", err.Error())
		return
	}
	s.writeRecords(c, records, report.Metadata)
}

// runAnalysis performs the shared part of the analyze endpoints. It writes
// the error response itself and reports false when the handler should stop.
func (s *Server) runAnalysis(c *gin.Context) (*analyze.Report, bool) {
	ctx := c.Request.Context()
	log := loggerFrom(c, s.logger)

	req, err := readAnalyzeRequest(c)
	if err != nil {
		writeBodyError(c, err)
		return nil, false
	}
	log.Info().Msg("Starting database schema analysis for glossary generation")

	var (
		src        schema.Source
		schemaName string
		dbSource   = analyze.SourceEnvironment
	)
	if req.hasDatabase() {
		if req.Database.URL == "" {
			writeError(c, http.StatusBadRequest,
				"Database URL is required when providing database configuration",
				"Include 'url' in the database configuration object")
			return nil, false
		}
		log.Info().Msg("Using database configuration from request")
		db, err := schema.Open(ctx, req.Database.URL)
		if err != nil {
			log.Error().Err(err).Msg("Database connection failed with request config")
			writeError(c, http.StatusServiceUnavailable, "Database connection failed",
				"Could not connect to database with provided configuration: "+err.Error())
			return nil, false
		}
		defer schema.Close(db)
		src = schema.NewInspector(db, req.Database.Schema)
		schemaName = req.Database.Schema
		dbSource = analyze.SourceRequest
	} else {
		inspector, err := s.manager.Inspector(ctx)
		if err != nil {
			log.Error().Err(err).Msg("Default database connection unavailable")
			writeError(c, http.StatusServiceUnavailable, "Database connection not available",
				"Could not establish database connection. Check your DATABASE_URL configuration or provide database config in request.")
			return nil, false
		}
		src = inspector
		schemaName = s.manager.SchemaName()
	}

	api := s.cfg.API.Apply(req.API)
	provider, err := s.newProvider(ctx, api)
	if err != nil {
		log.Error().Err(err).Msg("AI provider configuration invalid")
		writeError(c, http.StatusInternalServerError, "AI provider configuration invalid", err.Error())
		return nil, false
	}

	engine := analyze.NewEngine(provider, api,
		analyze.WithCache(s.cache),
		analyze.WithLogger(log),
		analyze.WithMaxColumns(s.cfg.Summary.MaxColumns),
	)
	report, err := engine.Analyze(ctx, src, schemaName)
	if report == nil {
		log.Error().Err(err).Msg("Error in schema analysis")
		writeError(c, http.StatusInternalServerError, "Internal server error during analysis", err.Error())
		return nil, false
	}
	report.Metadata.DatabaseSource = dbSource
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{
			Error:   analyze.ErrAttemptsExhausted.Error(),
			Details: "The AI service could not generate a valid glossary. Check your API configuration and try again.",
			Metadata: gin.H{
				"tables_analyzed": report.Metadata.TablesAnalyzed,
				"schema_name":     report.Metadata.SchemaName,
				"processing_time": report.Metadata.ProcessingTime,
				"attempts":        report.Metadata.Attempts,
			},
		})
		return nil, false
	}
	log.Info().Msg("AI-powered glossary generation completed successfully")
	return report, true
}

func (s *Server) newProvider(ctx context.Context, api config.APIConfig) (providers.Completer, error) {
	factory := s.providers
	if factory == nil {
		factory = providers.New
	}
	return factory(ctx, providers.SettingsFrom(api))
}

func readAnalyzeRequest(c *gin.Context) (analyzeRequest, error) {
	var req analyzeRequest
	body, err := readBody(c)
	if err != nil {
		return req, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return req, nil
	}
	if err := json.Unmarshal(body, &req); err != nil {
		return req, err
	}
	return req, nil
}

// readBody reads at most maxBodyBytes of the request body.
func readBody(c *gin.Context) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
}

// writeBodyError answers 413 for oversized bodies and 400 otherwise.
func writeBodyError(c *gin.Context, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(c, http.StatusRequestEntityTooLarge, "Request body too large",
			fmt.Sprintf("Request bodies are limited to %d bytes", tooLarge.Limit))
		return
	}
	writeError(c, http.StatusBadRequest, "Invalid request body", err.Error())
}

func (s *Server) handleFlatten(c *gin.Context) {
	body, err := readBody(c)
	if err != nil {
		writeBodyError(c, err)
		return
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		writeError(c, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	records, err := hierarchy.FlattenValue(analyze.Unwrap(v))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, hierarchy.ErrInvalidShape) {
			status = http.StatusUnprocessableEntity
		}
		writeError(c, status, "Invalid glossary hierarchy", err.Error())
		return
	}
	s.writeRecords(c, records, nil)
}

// writeRecords responds with CSV unless ?format=json is requested.
func (s *Server) writeRecords(c *gin.Context, records []hierarchy.Record, metadata any) {
	actor := s.cfg.Export.Actor
	if c.Query("format") == "json" {
		resp := gin.H{
			"success": true,
			"count":   len(records),
			"records": output.Rows(records, actor),
		}
		if metadata != nil {
			resp["metadata"] = metadata
		}
		c.JSON(http.StatusOK, resp)
		return
	}

	var buf bytes.Buffer
	if err := output.WriteRecordsCSV(&buf, records, actor); err != nil {
		writeError(c, http.StatusInternalServerError, "Failed to write CSV", err.Error())
		return
	}
	c.Header("Content-Disposition", `attachment; filename="glossary.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
