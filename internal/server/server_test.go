package server

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kevinrhaas/glossary/internal/config"
	"github.com/kevinrhaas/glossary/internal/logging"
	"github.com/kevinrhaas/glossary/internal/providers"
	"github.com/kevinrhaas/glossary/internal/schema"
)

const glossaryJSON = `{"Business Glossary":[{"Sales":["Order","Customer"]}]}`

func init() {
	gin.SetMode(gin.TestMode)
}

type stubCompleter struct {
	mu      sync.Mutex
	replies []string
	calls   int
}

func (s *stubCompleter) Complete(context.Context, providers.Request) (providers.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	if i >= len(s.replies) {
		return providers.Response{}, errors.New("no more replies")
	}
	return providers.Response{Content: s.replies[i]}, nil
}

func (s *stubCompleter) Name() string { return "stub" }

func stubFactory(c providers.Completer) ProviderFactory {
	return func(context.Context, providers.Settings) (providers.Completer, error) {
		return c, nil
	}
}

// seedDatabase creates a small sqlite database file and returns its URL.
func seedDatabase(t *testing.T) string {
	t.Helper()
	url := "sqlite:///" + filepath.Join(t.TempDir(), "shop.db")
	db, err := schema.Open(context.Background(), url)
	require.NoError(t, err)
	defer schema.Close(db)

	for _, stmt := range []string{
		`CREATE TABLE customers (id INTEGER PRIMARY KEY, name TEXT NOT NULL, email TEXT)`,
		`CREATE TABLE orders (
			id INTEGER PRIMARY KEY,
			customer_id INTEGER NOT NULL REFERENCES customers(id),
			total NUMERIC DEFAULT 0
		)`,
		`CREATE INDEX idx_orders_customer ON orders (customer_id)`,
	} {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return url
}

func testConfig(dbURL string) config.Config {
	cfg := config.Default()
	cfg.Database.URL = dbURL
	cfg.API.BaseURL = "llm.example.com/openai"
	cfg.API.APIKey = "sk-test-1234567890"
	cfg.API.MaxRetries = 2
	return cfg
}

func newTestServer(t *testing.T, cfg config.Config, opts ...Option) *Server {
	t.Helper()
	s := New(cfg, logging.NewSilent(), opts...)
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &m), rr.Body.String())
	return m
}

func TestHome(t *testing.T) {
	s := newTestServer(t, testConfig("sqlite://"), WithVersion("1.2.3"))
	rr := do(t, s, http.MethodGet, "/", "")

	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, ServiceName, body["service"])
	assert.Equal(t, "1.2.3", body["version"])
	assert.Equal(t, true, body["database_configured"])
	assert.Equal(t, true, body["api_configured"])
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestRequestIDPropagated(t *testing.T) {
	s := newTestServer(t, testConfig(""))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	assert.Equal(t, "abc-123", rr.Header().Get("X-Request-ID"))
}

func TestHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		s := newTestServer(t, testConfig(seedDatabase(t)))
		body := decode(t, do(t, s, http.MethodGet, "/health", ""))
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, map[string]any{"service": "ok", "database": "ok"}, body["checks"])
	})
	t.Run("no database", func(t *testing.T) {
		s := newTestServer(t, testConfig(""))
		rr := do(t, s, http.MethodGet, "/health", "")
		require.Equal(t, http.StatusOK, rr.Code)
		body := decode(t, rr)
		assert.Equal(t, "degraded", body["status"])
		assert.Equal(t, "unavailable", body["checks"].(map[string]any)["database"])
	})
}

func TestConfigEndpoint(t *testing.T) {
	t.Run("missing required", func(t *testing.T) {
		cfg := config.Default()
		s := newTestServer(t, cfg)
		rr := do(t, s, http.MethodGet, "/config", "")
		require.Equal(t, http.StatusInternalServerError, rr.Code)
		body := decode(t, rr)
		assert.Equal(t, "Configuration not loaded", body["error"])
		assert.ElementsMatch(t, []any{"DATABASE_URL", "API_BASE_URL", "API_KEY"}, body["missing"])
	})
	t.Run("masked", func(t *testing.T) {
		s := newTestServer(t, testConfig("postgresql://app:hunter2@db:5432/shop"))
		rr := do(t, s, http.MethodGet, "/config", "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.NotContains(t, rr.Body.String(), "hunter2")
		assert.NotContains(t, rr.Body.String(), "sk-test-1234567890")

		body := decode(t, rr)
		settings := body["configuration"].(map[string]any)
		apiKey := settings["api_key"].(map[string]any)
		assert.Equal(t, "sk-t***7890", apiKey["value"])
		assert.Equal(t, "API_KEY", apiKey["env_var"])
		dbURL := settings["database_url"].(map[string]any)
		assert.Equal(t, "postgresql://app:***@db:5432/shop", dbURL["value"])

		summary := body["summary"].(map[string]any)
		assert.Equal(t, float64(len(settings)), summary["total_settings"])
		help := body["setup_help"].(map[string]any)
		assert.Equal(t, []any{"DATABASE_URL", "API_BASE_URL", "API_KEY"}, help["required_env_vars"])
	})
}

func TestTables(t *testing.T) {
	s := newTestServer(t, testConfig(seedDatabase(t)))
	rr := do(t, s, http.MethodGet, "/database/tables", "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, "default", body["schema"])
	assert.Equal(t, []any{"customers", "orders"}, body["tables"])
	assert.Equal(t, float64(2), body["count"])
}

func TestTables_NoDatabase(t *testing.T) {
	s := newTestServer(t, testConfig(""))
	rr := do(t, s, http.MethodGet, "/database/tables", "")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, false, decode(t, rr)["success"])
}

func TestTableSchema(t *testing.T) {
	s := newTestServer(t, testConfig(seedDatabase(t)))
	rr := do(t, s, http.MethodGet, "/database/schema/orders", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var detail schema.TableDetail
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &detail))
	assert.Equal(t, "orders", detail.Table)
	assert.Equal(t, 3, detail.ColumnCount)
	assert.Equal(t, []string{"id"}, detail.PrimaryKeys)
	require.Len(t, detail.ForeignKeys, 1)
	assert.Equal(t, "customers", detail.ForeignKeys[0].ReferredTable)
	assert.Equal(t, []string{"customer_id"}, detail.ForeignKeys[0].ConstrainedColumns)
	require.Len(t, detail.Indexes, 1)
	assert.Equal(t, "idx_orders_customer", detail.Indexes[0].Name)

	rr = do(t, s, http.MethodGet, "/database/schema/missing", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAnalyze_Success(t *testing.T) {
	stub := &stubCompleter{replies: []string{"```json\n" + glossaryJSON + "\n```"}}
	s := newTestServer(t, testConfig(seedDatabase(t)), WithProviderFactory(stubFactory(stub)))

	rr := do(t, s, http.MethodPost, "/analyze", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	body := decode(t, rr)
	assert.Equal(t, true, body["success"])
	assert.Contains(t, body["data"], "Business Glossary")

	md := body["metadata"].(map[string]any)
	assert.Equal(t, float64(2), md["tables_analyzed"])
	assert.Equal(t, "default", md["schema_name"])
	assert.Equal(t, "model-router", md["ai_model_used"])
	assert.Equal(t, "environment_config", md["database_source"])
}

func TestAnalyze_DatabaseOverride(t *testing.T) {
	stub := &stubCompleter{replies: []string{glossaryJSON}}
	s := newTestServer(t, testConfig(""), WithProviderFactory(stubFactory(stub)))

	t.Run("missing url", func(t *testing.T) {
		rr := do(t, s, http.MethodPost, "/analyze", `{"database":{"schema":"x"}}`)
		require.Equal(t, http.StatusBadRequest, rr.Code)
		body := decode(t, rr)
		assert.Equal(t, "Database URL is required when providing database configuration", body["error"])
	})
	t.Run("connection failure", func(t *testing.T) {
		rr := do(t, s, http.MethodPost, "/analyze", `{"database":{"url":"mysql://nope"}}`)
		require.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.Equal(t, "Database connection failed", decode(t, rr)["error"])
	})
	t.Run("request database", func(t *testing.T) {
		url := seedDatabase(t)
		rr := do(t, s, http.MethodPost, "/analyze", `{"database":{"url":"`+url+`"},"api":{"model":"gpt-x"}}`)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		md := decode(t, rr)["metadata"].(map[string]any)
		assert.Equal(t, "request_override", md["database_source"])
		assert.Equal(t, "gpt-x", md["ai_model_used"])
	})
}

func TestAnalyze_NoDefaultDatabase(t *testing.T) {
	s := newTestServer(t, testConfig(""), WithProviderFactory(stubFactory(&stubCompleter{})))
	rr := do(t, s, http.MethodPost, "/analyze", `{}`)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "Database connection not available", decode(t, rr)["error"])
}

func TestAnalyze_InvalidBody(t *testing.T) {
	s := newTestServer(t, testConfig(""))
	rr := do(t, s, http.MethodPost, "/analyze", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAnalyze_GenerationFails(t *testing.T) {
	stub := &stubCompleter{replies: []string{"sorry", "still not json"}}
	s := newTestServer(t, testConfig(seedDatabase(t)), WithProviderFactory(stubFactory(stub)))

	rr := do(t, s, http.MethodPost, "/analyze", "")
	require.Equal(t, http.StatusInternalServerError, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "AI analysis failed after all retry attempts", body["error"])
	md := body["metadata"].(map[string]any)
	assert.Equal(t, float64(2), md["tables_analyzed"])
	assert.Equal(t, float64(2), md["attempts"])
	assert.Equal(t, 2, stub.calls)
}

func TestAnalyze_ProviderConfigInvalid(t *testing.T) {
	cfg := testConfig(seedDatabase(t))
	cfg.API.APIKey = ""
	s := newTestServer(t, cfg)

	rr := do(t, s, http.MethodPost, "/analyze", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "AI provider configuration invalid", decode(t, rr)["error"])
}

func TestAnalyze_AzureEndpoint(t *testing.T) {
	var gotPath, gotKey string
	llm := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		gotKey = r.Header.Get("api-key")
		content, _ := json.Marshal(glossaryJSON)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":` + string(content) + `}}],"usage":{"total_tokens":42}}`))
	}))
	defer llm.Close()

	s := newTestServer(t, testConfig(seedDatabase(t)))
	rr := do(t, s, http.MethodPost, "/analyze", `{"api":{"base_url":"`+llm.URL+`","api_key":"override-key"}}`)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "/deployments/model-router/chat/completions?api-version=2025-01-01-preview", gotPath)
	assert.Equal(t, "override-key", gotKey)
}

func TestAnalyzeExport(t *testing.T) {
	stub := &stubCompleter{replies: []string{glossaryJSON, glossaryJSON}}
	cfg := testConfig(seedDatabase(t))
	cfg.Export.Actor = "steward"
	s := newTestServer(t, cfg, WithProviderFactory(stubFactory(stub)))

	rr := do(t, s, http.MethodPost, "/analyze/export", "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), "glossary.csv")

	rows, err := csv.NewReader(rr.Body).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "id", rows[0][0])
	assert.Equal(t, "Business Glossary", rows[1][1])
	assert.Equal(t, "glossary", rows[1][2])
	assert.Equal(t, "steward", rows[1][9])

	rr = do(t, s, http.MethodPost, "/analyze/export?format=json", "")
	require.Equal(t, http.StatusOK, rr.Code)
	body := decode(t, rr)
	assert.Equal(t, float64(4), body["count"])
	assert.NotNil(t, body["metadata"])
}

func TestFlatten(t *testing.T) {
	s := newTestServer(t, testConfig(""))

	t.Run("csv", func(t *testing.T) {
		rr := do(t, s, http.MethodPost, "/flatten", glossaryJSON)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		rows, err := csv.NewReader(rr.Body).ReadAll()
		require.NoError(t, err)
		require.Len(t, rows, 5)
		assert.Equal(t, "Business Glossary/Sales/Customer", rows[4][3])
		assert.Equal(t, "admin", rows[4][10])
	})
	t.Run("json", func(t *testing.T) {
		rr := do(t, s, http.MethodPost, "/flatten?format=json", `["Customer"]`)
		require.Equal(t, http.StatusOK, rr.Code)
		body := decode(t, rr)
		records := body["records"].([]any)
		require.Len(t, records, 1)
		rec := records[0].(map[string]any)
		assert.Equal(t, "term", rec["kind"])
		assert.Equal(t, "", rec["parentId"])
		assert.Equal(t, rec["id"], rec["rootId"])
	})
	t.Run("analyze envelope", func(t *testing.T) {
		rr := do(t, s, http.MethodPost, "/flatten?format=json", `{"success":true,"data":`+glossaryJSON+`}`)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, float64(4), decode(t, rr)["count"])
	})
	t.Run("invalid shape", func(t *testing.T) {
		rr := do(t, s, http.MethodPost, "/flatten", `{"G":[1]}`)
		require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Contains(t, decode(t, rr)["details"], "$.G[0]")
	})
	t.Run("invalid json", func(t *testing.T) {
		rr := do(t, s, http.MethodPost, "/flatten", `{"G":`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestDocs(t *testing.T) {
	s := newTestServer(t, testConfig("postgresql://app:hunter2@db/shop"))
	rr := do(t, s, http.MethodGet, "/docs", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")
	out := rr.Body.String()
	assert.Contains(t, out, "postgresql://app:***@db/shop")
	assert.Contains(t, out, "sk-t***7890")
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, "/analyze/export")
}

func TestRecovery(t *testing.T) {
	s := newTestServer(t, testConfig(""))
	s.router.GET("/boom", func(*gin.Context) { panic("boom") })

	rr := do(t, s, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Equal(t, "Internal server error", decode(t, rr)["error"])
}

func TestNotFound(t *testing.T) {
	s := newTestServer(t, testConfig(""))
	rr := do(t, s, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, testConfig(""))
	req := httptest.NewRequest(http.MethodOptions, "/analyze", bytes.NewReader(nil))
	req.Header.Set("Origin", "http://example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestOversizedBody(t *testing.T) {
	s := newTestServer(t, testConfig(""))
	big := `["` + strings.Repeat("x", maxBodyBytes) + `"]`

	for _, path := range []string{"/flatten", "/analyze"} {
		rr := do(t, s, http.MethodPost, path, big)
		require.Equal(t, http.StatusRequestEntityTooLarge, rr.Code, path)
		body := decode(t, rr)
		assert.Equal(t, false, body["success"])
		assert.Equal(t, "Request body too large", body["error"])
	}
}
