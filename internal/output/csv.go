package output

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/kevinrhaas/glossary/internal/analyze"
	"github.com/kevinrhaas/glossary/internal/hierarchy"
)

// Header is the export column order.
var Header = []string{
	"id", "name", "kind", "fullyQualifiedPath", "parentId", "rootId", "resourceId",
	"createdAt", "updatedAt", "createdBy", "updatedBy", "attributes",
}

// Row is one exported record, including the constant placeholder columns.
type Row struct {
	ID                 string         `json:"id"`
	Name               string         `json:"name"`
	Kind               hierarchy.Kind `json:"kind"`
	FullyQualifiedPath string         `json:"fullyQualifiedPath"`
	ParentID           string         `json:"parentId"`
	RootID             string         `json:"rootId"`
	ResourceID         string         `json:"resourceId"`
	CreatedAt          string         `json:"createdAt"`
	UpdatedAt          string         `json:"updatedAt"`
	CreatedBy          string         `json:"createdBy"`
	UpdatedBy          string         `json:"updatedBy"`
	Attributes         string         `json:"attributes"`
}

// Rows converts records to export rows attributed to actor.
func Rows(records []hierarchy.Record, actor string) []Row {
	if actor == "" {
		actor = DefaultActor
	}
	rows := make([]Row, len(records))
	for i, r := range records {
		rows[i] = Row{
			ID:                 r.ID,
			Name:               r.Name,
			Kind:               r.Kind,
			FullyQualifiedPath: r.FullyQualifiedPath,
			ParentID:           r.ParentID,
			RootID:             r.RootID,
			CreatedAt:          r.CreatedAt,
			UpdatedAt:          r.UpdatedAt,
			CreatedBy:          actor,
			UpdatedBy:          actor,
			Attributes:         r.Attributes,
		}
	}
	return rows
}

func (r Row) fields() []string {
	return []string{
		r.ID, r.Name, string(r.Kind), r.FullyQualifiedPath, r.ParentID, r.RootID, r.ResourceID,
		r.CreatedAt, r.UpdatedAt, r.CreatedBy, r.UpdatedBy, r.Attributes,
	}
}

// CSVWriter outputs the flattened glossary of a report.
type CSVWriter struct {
	Actor     string
	Flattener hierarchy.Flattener
}

func (c *CSVWriter) Write(w io.Writer, report *analyze.Report) error {
	if !report.Success {
		return errors.New("report has no glossary to export")
	}
	records, err := report.Records(c.Flattener)
	if err != nil {
		return err
	}
	return WriteRecordsCSV(w, records, c.Actor)
}

// WriteRecordsCSV writes a header line and one row per record.
func WriteRecordsCSV(w io.Writer, records []hierarchy.Record, actor string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, row := range Rows(records, actor) {
		if err := cw.Write(row.fields()); err != nil {
			return fmt.Errorf("writing CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRecords writes records as "csv" or "json".
func WriteRecords(w io.Writer, records []hierarchy.Record, format, actor string) error {
	switch format {
	case "csv", "":
		return WriteRecordsCSV(w, records, actor)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(Rows(records, actor))
	default:
		return fmt.Errorf("unsupported record format: %s", format)
	}
}
