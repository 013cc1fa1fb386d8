package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kevinrhaas/glossary/internal/config"
	"github.com/kevinrhaas/glossary/internal/schema"
)

func (s *Server) handleHome(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":             ServiceName,
		"status":              "running",
		"version":             s.version,
		"endpoints":           endpoints,
		"database_configured": s.cfg.Database.URL != "",
		"api_configured":      len(s.cfg.API.Missing()) == 0,
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	status := "healthy"
	dbCheck := "ok"

	inspector, err := s.manager.Inspector(c.Request.Context())
	switch {
	case err != nil:
		dbCheck = "unavailable"
		status = "degraded"
	default:
		if err := inspector.Ping(c.Request.Context()); err != nil {
			dbCheck = "error: " + truncate(err.Error(), 100)
			status = "degraded"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"message":   "Service is running",
		"timestamp": time.Now().UTC().Format("2006-01-02T15:04:05.000000Z"),
		"checks": gin.H{
			"service":  "ok",
			"database": dbCheck,
		},
	})
}

func (s *Server) handleConfig(c *gin.Context) {
	if err := s.cfg.Validate(); err != nil {
		var missing *config.MissingError
		resp := gin.H{
			"error":             "Configuration not loaded",
			"message":           "Please check your environment variables or .env file",
			"required_env_vars": config.RequiredEnvVars(),
			"help":              "Copy .env.example to .env and fill in your values",
		}
		if errors.As(err, &missing) {
			resp["missing"] = missing.EnvVars
		}
		c.JSON(http.StatusInternalServerError, resp)
		return
	}

	settings := config.Describe(s.cfg)
	configuration := make(gin.H, len(settings))
	counts := map[config.Source]int{}
	for _, st := range settings {
		configuration[st.Key] = gin.H{
			"value":   st.Value,
			"source":  st.Source,
			"env_var": st.EnvVar,
		}
		counts[st.Source]++
	}

	c.JSON(http.StatusOK, gin.H{
		"service":       ServiceName,
		"version":       s.version,
		"configuration": configuration,
		"summary": gin.H{
			"total_settings":   len(settings),
			"from_environment": counts[config.SourceEnv],
			"from_config_file": counts[config.SourceFile],
			"using_defaults":   counts[config.SourceDefault],
		},
		"setup_help": gin.H{
			"required_env_vars": config.RequiredEnvVars(),
			"optional_env_vars": config.OptionalEnvVars(),
			"local_development": "Copy .env.example to .env and edit with your values",
			"production":        "Set environment variables in your deployment platform",
		},
		"note": "Sensitive data (passwords, API keys) are masked with *** for security",
	})
}

func (s *Server) handleTables(c *gin.Context) {
	inspector, err := s.manager.Inspector(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusServiceUnavailable, "Database connection not available", err.Error())
		return
	}
	tables, err := inspector.Tables(c.Request.Context())
	if err != nil {
		loggerFrom(c, s.logger).Error().Err(err).Msg("Error listing tables")
		writeError(c, http.StatusInternalServerError, "Failed to list tables", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"schema": inspector.SchemaName(),
		"tables": tables,
		"count":  len(tables),
	})
}

func (s *Server) handleTableSchema(c *gin.Context) {
	table := c.Param("table")
	inspector, err := s.manager.Inspector(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusServiceUnavailable, "Database connection not available", err.Error())
		return
	}
	detail, err := inspector.Describe(c.Request.Context(), table)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, schema.ErrTableNotFound) {
			status = http.StatusNotFound
		}
		loggerFrom(c, s.logger).Error().Err(err).Str("table", table).Msg("Error getting table schema")
		writeError(c, status, "Failed to get schema for table '"+table+"'", err.Error())
		return
	}
	c.JSON(http.StatusOK, detail)
}
