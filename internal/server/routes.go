package server

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// endpoints is the listing returned by GET /.
var endpoints = []string{
	"/health - Health check with database connectivity",
	"/config - Complete configuration with sources (env vars vs defaults)",
	"/database/tables - List tables in the configured schema",
	"/database/schema/<table> - Columns, keys and indexes of one table",
	"/analyze - POST: Generate AI-powered business glossary from database schema",
	"/analyze/export - POST: Generate a glossary and download it as flattened CSV",
	"/flatten - POST: Flatten a glossary JSON document into CSV records",
	"/docs - API documentation",
}

func (s *Server) newRouter() *gin.Engine {
	r := gin.New()

	r.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", requestIDHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Disposition", requestIDHeader},
		MaxAge:        12 * time.Hour,
	}))
	r.Use(s.requestID())
	r.Use(s.requestLogger())
	r.Use(s.recovery())

	r.GET("/", s.handleHome)
	r.GET("/health", s.handleHealth)
	r.GET("/config", s.handleConfig)
	r.GET("/docs", s.handleDocs)

	db := r.Group("/database")
	db.GET("/tables", s.handleTables)
	db.GET("/schema/:table", s.handleTableSchema)

	r.POST("/analyze", s.handleAnalyze)
	r.POST("/analyze/export", s.handleAnalyzeExport)
	r.POST("/flatten", s.handleFlatten)

	r.NoRoute(func(c *gin.Context) {
		writeError(c, 404, "Not found", c.Request.URL.Path)
	})
	return r
}
