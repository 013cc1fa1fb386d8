package analyze

import "encoding/json"

// Report is the result of one analysis.
type Report struct {
	Success  bool            `json:"success"`
	Data     json.RawMessage `json:"data,omitempty"`
	Metadata Metadata        `json:"metadata"`
}

// Metadata describes how a report was produced.
type Metadata struct {
	TablesAnalyzed int     `json:"tables_analyzed"`
	SchemaName     string  `json:"schema_name"`
	ProcessingTime float64 `json:"processing_time"`
	AIModelUsed    string  `json:"ai_model_used,omitempty"`
	DatabaseSource string  `json:"database_source,omitempty"`
	Attempts       int     `json:"attempts,omitempty"`
	Cached         bool    `json:"cached,omitempty"`
}

// Unwrap returns the data member of a decoded analyze response so a saved
// response can be flattened directly. Any other value is returned unchanged.
func Unwrap(v any) any {
	m, ok := v.(map[string]any)
	if !ok {
		return v
	}
	_, hasSuccess := m["success"]
	data, hasData := m["data"]
	if hasSuccess && hasData {
		return data
	}
	return v
}
