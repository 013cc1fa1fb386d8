package schema

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// DefaultMaxColumns is the number of column names listed per table before
// the summary switches to a count.
const DefaultMaxColumns = 10

// columnFetchLimit bounds concurrent column lookups.
const columnFetchLimit = 4

// TableSummary is a table name with its column names in order.
type TableSummary struct {
	Name    string
	Columns []string
}

// Summary is the compact schema description sent to the model.
type Summary struct {
	SchemaName string
	Tables     []TableSummary
	Text       string
}

// TableCount returns the number of tables summarized.
func (s *Summary) TableCount() int { return len(s.Tables) }

// Summarize lists every table of src with its columns. Column lookups run
// concurrently; the result keeps the order returned by src.Tables.
func Summarize(ctx context.Context, src Source, schemaName string, maxColumns int) (*Summary, error) {
	if maxColumns <= 0 {
		maxColumns = DefaultMaxColumns
	}
	names, err := src.Tables(ctx)
	if err != nil {
		return nil, err
	}

	tables := make([]TableSummary, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(columnFetchLimit)
	for idx, name := range names {
		g.Go(func() error {
			cols, err := src.Columns(gctx, name)
			if err != nil {
				return err
			}
			colNames := make([]string, len(cols))
			for j, c := range cols {
				colNames[j] = c.Name
			}
			tables[idx] = TableSummary{Name: name, Columns: colNames}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("summarizing schema: %w", err)
	}

	return &Summary{
		SchemaName: schemaName,
		Tables:     tables,
		Text:       FormatSummary(schemaName, tables, maxColumns),
	}, nil
}

// FormatSummary renders tables as:
//
//	Schema 'sales': 2 tables
//	Table customers: id, name
//	Table orders: c1, ..., c10... (14 total columns)
//
// The header reads "Database: N tables" when schemaName is empty.
func FormatSummary(schemaName string, tables []TableSummary, maxColumns int) string {
	var b strings.Builder
	if schemaName != "" {
		fmt.Fprintf(&b, "Schema '%s': %d tables", schemaName, len(tables))
	} else {
		fmt.Fprintf(&b, "Database: %d tables", len(tables))
	}
	for _, t := range tables {
		b.WriteString("\nTable ")
		b.WriteString(t.Name)
		b.WriteString(": ")
		if len(t.Columns) > maxColumns {
			fmt.Fprintf(&b, "%s... (%d total columns)", strings.Join(t.Columns[:maxColumns], ", "), len(t.Columns))
		} else {
			b.WriteString(strings.Join(t.Columns, ", "))
		}
	}
	return b.String()
}
