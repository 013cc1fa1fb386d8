package server

import (
	"bytes"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kevinrhaas/glossary/internal/config"
	"github.com/kevinrhaas/glossary/internal/redact"
)

const notConfigured = "NOT_CONFIGURED"

type docsData struct {
	Service        string
	Version        string
	DatabaseURL    string
	Schema         string
	BaseURL        string
	APIKey         string
	Provider       string
	DeploymentID   string
	APIVersion     string
	MaxTokens      int
	Temperature    float64
	Timeout        float64
	MaxRetries     int
	ExportActor    string
	RequiredEnv    []string
	OptionalEnv    []string
	ExampleRequest string
}

var docsTemplate = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>{{.Service}} - API Documentation</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; line-height: 1.6; }
        .endpoint { background: #f4f4f4; padding: 15px; margin: 10px 0; border-radius: 5px; }
        .method { color: #fff; padding: 3px 8px; border-radius: 3px; font-weight: bold; }
        .post { background: #28a745; }
        .get { background: #007bff; }
        pre { background: #f8f9fa; padding: 15px; border-radius: 5px; overflow-x: auto; }
        .optional { color: #6c757d; }
    </style>
</head>
<body>
    <h1>{{.Service}} API</h1>
    <p>Generate AI-powered business glossaries from database schemas. Version {{.Version}}.</p>

    <div class="endpoint">
        <h3><span class="method post">POST</span> /analyze</h3>
        <p>Analyzes a database schema and generates a hierarchical business glossary.</p>
        <p><strong>Note:</strong> All parameters are optional. Configuration provides defaults and request parameters override them.</p>
        <h4>Request Body (JSON) - Optional overrides:</h4>
        <pre>{
  "database": {
    "url": "<span class="optional">string</span> - Override database URL (current: {{.DatabaseURL}})",
    "schema": "<span class="optional">string</span> - Override schema name (current: {{.Schema}})"
  },
  "api": {
    "provider": "<span class="optional">string</span> - azure, openai, anthropic, gemini or ollama (current: {{.Provider}})",
    "base_url": "<span class="optional">string</span> - Override API base URL (current: {{.BaseURL}})",
    "api_key": "<span class="optional">string</span> - Override API key (current: {{.APIKey}})",
    "deployment_id": "<span class="optional">string</span> - Deployment ID (current: {{.DeploymentID}})",
    "api_version": "<span class="optional">string</span> - API version (current: {{.APIVersion}})",
    "max_tokens": "<span class="optional">number</span> - Max response tokens (current: {{.MaxTokens}})",
    "temperature": "<span class="optional">number</span> - Temperature 0-1 (current: {{.Temperature}})",
    "timeout": "<span class="optional">number</span> - Request timeout in seconds (current: {{.Timeout}})",
    "max_retries": "<span class="optional">number</span> - Max attempts (current: {{.MaxRetries}})"
  }
}</pre>
        <h4>Example Request:</h4>
        <pre>{{.ExampleRequest}}</pre>
    </div>

    <div class="endpoint">
        <h3><span class="method post">POST</span> /analyze/export</h3>
        <p>Same body as /analyze. Responds with the flattened glossary as CSV (createdBy: {{.ExportActor}}). Add <code>?format=json</code> for JSON records.</p>
    </div>

    <div class="endpoint">
        <h3><span class="method post">POST</span> /flatten</h3>
        <p>Body is a glossary JSON document, or a complete /analyze response. Responds with CSV records, or JSON with <code>?format=json</code>. Invalid shapes return 422.</p>
    </div>

    <div class="endpoint">
        <h3><span class="method get">GET</span> /database/tables</h3>
        <p>Lists tables in the configured schema.</p>
    </div>

    <div class="endpoint">
        <h3><span class="method get">GET</span> /database/schema/&lt;table&gt;</h3>
        <p>Columns, primary keys, foreign keys and indexes of one table.</p>
    </div>

    <div class="endpoint">
        <h3><span class="method get">GET</span> /config</h3>
        <p>View current configuration status (sensitive data masked).</p>
    </div>

    <div class="endpoint">
        <h3><span class="method get">GET</span> /health</h3>
        <p>Check service health with database connectivity test.</p>
    </div>

    <h3>Configuration</h3>
    <p>Required environment variables:</p>
    <ul>{{range .RequiredEnv}}
        <li><strong>{{.}}</strong></li>{{end}}
    </ul>
    <p>Optional environment variables:</p>
    <ul>{{range .OptionalEnv}}
        <li>{{.}}</li>{{end}}
    </ul>

    <h3>Error Responses</h3>
    <pre>{
  "success": false,
  "error": "Error description",
  "details": "Additional error details (optional)"
}</pre>
</body>
</html>
`))

func (s *Server) handleDocs(c *gin.Context) {
	api := s.cfg.API
	data := docsData{
		Service:        ServiceName,
		Version:        s.version,
		DatabaseURL:    notConfigured,
		Schema:         s.cfg.Database.Schema,
		BaseURL:        orNotConfigured(api.BaseURL),
		APIKey:         notConfigured,
		Provider:       api.Provider,
		DeploymentID:   api.DeploymentID,
		APIVersion:     api.APIVersion,
		MaxTokens:      api.MaxTokens,
		Temperature:    api.Temperature,
		Timeout:        api.Timeout,
		MaxRetries:     api.MaxRetries,
		ExportActor:    s.cfg.Export.Actor,
		RequiredEnv:    config.RequiredEnvVars(),
		OptionalEnv:    config.OptionalEnvVars(),
		ExampleRequest: "POST /analyze\nContent-Type: application/json\n\n{}",
	}
	if data.Schema == "" {
		data.Schema = "default"
	}
	if s.cfg.Database.URL != "" {
		data.DatabaseURL = redact.MaskURL(s.cfg.Database.URL)
	}
	if api.APIKey != "" {
		data.APIKey = redact.MaskSecret(api.APIKey)
	}

	var buf bytes.Buffer
	if err := docsTemplate.Execute(&buf, data); err != nil {
		writeError(c, http.StatusInternalServerError, "Failed to render documentation", err.Error())
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func orNotConfigured(v string) string {
	if v == "" {
		return notConfigured
	}
	return v
}
