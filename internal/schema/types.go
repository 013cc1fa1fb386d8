package schema

import "context"

// Column describes one table column.
type Column struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"`
	Nullable   bool    `json:"nullable"`
	Default    *string `json:"default"`
	Comment    *string `json:"comment"`
	PrimaryKey bool    `json:"-"`
}

// ForeignKey describes a foreign key constraint.
type ForeignKey struct {
	Name               string   `json:"name"`
	ConstrainedColumns []string `json:"constrained_columns"`
	ReferredSchema     *string  `json:"referred_schema"`
	ReferredTable      string   `json:"referred_table"`
	ReferredColumns    []string `json:"referred_columns"`
}

// Index describes a secondary index.
type Index struct {
	Name        string   `json:"name"`
	ColumnNames []string `json:"column_names"`
	Unique      bool     `json:"unique"`
}

// TableDetail is the full description of one table.
type TableDetail struct {
	Table       string       `json:"table_name"`
	Schema      string       `json:"schema"`
	Columns     []Column     `json:"columns"`
	PrimaryKeys []string     `json:"primary_keys"`
	ForeignKeys []ForeignKey `json:"foreign_keys"`
	Indexes     []Index      `json:"indexes"`
	ColumnCount int          `json:"column_count"`
}

// Source lists tables and their columns.
type Source interface {
	Tables(ctx context.Context) ([]string, error)
	Columns(ctx context.Context, table string) ([]Column, error)
}
