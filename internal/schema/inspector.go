package schema

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"
)

// ErrTableNotFound is returned by Describe for unknown tables.
var ErrTableNotFound = errors.New("table not found")

// Inspector reads table metadata through gorm's migrator plus a few
// dialect-specific catalog queries.
type Inspector struct {
	db     *gorm.DB
	schema string
}

// NewInspector returns an Inspector scoped to schemaName. An empty name means
// the connection's default schema.
func NewInspector(db *gorm.DB, schemaName string) *Inspector {
	return &Inspector{db: db, schema: schemaName}
}

// SchemaName returns the configured schema, or "default".
func (i *Inspector) SchemaName() string {
	if i.schema == "" {
		return "default"
	}
	return i.schema
}

func (i *Inspector) dialect() Dialect {
	if i.db.Dialector.Name() == "postgres" {
		return DialectPostgres
	}
	return DialectSQLite
}

// qualified prefixes table with the schema for dialects that understand it.
func (i *Inspector) qualified(table string) string {
	if i.schema != "" && i.dialect() == DialectPostgres {
		return i.schema + "." + table
	}
	return table
}

// Ping verifies the connection with a trivial query.
func (i *Inspector) Ping(ctx context.Context) error {
	var one int
	return i.db.WithContext(ctx).Raw("SELECT 1").Scan(&one).Error
}

// Tables returns the base table names, sorted.
func (i *Inspector) Tables(ctx context.Context) ([]string, error) {
	db := i.db.WithContext(ctx)
	var (
		names []string
		err   error
	)
	if i.schema != "" && i.dialect() == DialectPostgres {
		err = db.Raw(`SELECT table_name FROM information_schema.tables
			WHERE table_schema = ? AND table_type = 'BASE TABLE'`, i.schema).Scan(&names).Error
	} else {
		names, err = db.Migrator().GetTables()
	}
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}

	out := names[:0]
	for _, n := range names {
		if strings.HasPrefix(n, "sqlite_") {
			continue
		}
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

// Columns returns the columns of table in declaration order.
func (i *Inspector) Columns(ctx context.Context, table string) ([]Column, error) {
	types, err := i.db.WithContext(ctx).Migrator().ColumnTypes(i.qualified(table))
	if err != nil {
		return nil, fmt.Errorf("reading columns of %s: %w", table, err)
	}
	cols := make([]Column, 0, len(types))
	for _, ct := range types {
		col := Column{Name: ct.Name(), Type: ct.DatabaseTypeName(), Nullable: true}
		if full, ok := ct.ColumnType(); ok && full != "" {
			col.Type = full
		}
		if nullable, ok := ct.Nullable(); ok {
			col.Nullable = nullable
		}
		if v, ok := ct.DefaultValue(); ok && v != "" {
			col.Default = &v
		}
		if v, ok := ct.Comment(); ok && v != "" {
			col.Comment = &v
		}
		if pk, ok := ct.PrimaryKey(); ok {
			col.PrimaryKey = pk
		}
		cols = append(cols, col)
	}
	return cols, nil
}

// Describe returns columns, keys and indexes of table.
func (i *Inspector) Describe(ctx context.Context, table string) (*TableDetail, error) {
	tables, err := i.Tables(ctx)
	if err != nil {
		return nil, err
	}
	if idx := sort.SearchStrings(tables, table); idx == len(tables) || tables[idx] != table {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}

	cols, err := i.Columns(ctx, table)
	if err != nil {
		return nil, err
	}
	pks, err := i.primaryKeys(ctx, table)
	if err != nil {
		return nil, err
	}
	fks, err := i.foreignKeys(ctx, table)
	if err != nil {
		return nil, err
	}
	indexes, err := i.indexes(ctx, table)
	if err != nil {
		return nil, err
	}
	return &TableDetail{
		Table:       table,
		Schema:      i.SchemaName(),
		Columns:     cols,
		PrimaryKeys: pks,
		ForeignKeys: fks,
		Indexes:     indexes,
		ColumnCount: len(cols),
	}, nil
}

func (i *Inspector) primaryKeys(ctx context.Context, table string) ([]string, error) {
	db := i.db.WithContext(ctx)
	pks := []string{}
	var err error
	if i.dialect() == DialectPostgres {
		err = db.Raw(`SELECT kcu.column_name
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu
			  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
			WHERE tc.constraint_type = 'PRIMARY KEY' AND tc.table_name = ?
			  AND tc.table_schema = COALESCE(NULLIF(?, ''), current_schema())
			ORDER BY kcu.ordinal_position`, table, i.schema).Scan(&pks).Error
	} else {
		err = db.Raw(`SELECT name FROM pragma_table_info(?) WHERE pk > 0 ORDER BY pk`, table).Scan(&pks).Error
	}
	if err != nil {
		return nil, fmt.Errorf("reading primary key of %s: %w", table, err)
	}
	return pks, nil
}

type fkRow struct {
	Name           string `gorm:"column:name"`
	Column         string `gorm:"column:column_name"`
	ReferredSchema string `gorm:"column:referred_schema"`
	ReferredTable  string `gorm:"column:referred_table"`
	ReferredColumn string `gorm:"column:referred_column"`
}

func (i *Inspector) foreignKeys(ctx context.Context, table string) ([]ForeignKey, error) {
	db := i.db.WithContext(ctx)
	var rows []fkRow
	var err error
	if i.dialect() == DialectPostgres {
		err = db.Raw(`SELECT tc.constraint_name AS name, kcu.column_name AS column_name,
			  ccu.table_schema AS referred_schema, ccu.table_name AS referred_table,
			  ccu.column_name AS referred_column
			FROM information_schema.table_constraints tc
			JOIN information_schema.key_column_usage kcu
			  ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema
			JOIN information_schema.constraint_column_usage ccu
			  ON ccu.constraint_name = tc.constraint_name AND ccu.constraint_schema = tc.table_schema
			WHERE tc.constraint_type = 'FOREIGN KEY' AND tc.table_name = ?
			  AND tc.table_schema = COALESCE(NULLIF(?, ''), current_schema())
			ORDER BY tc.constraint_name, kcu.ordinal_position`, table, i.schema).Scan(&rows).Error
	} else {
		err = db.Raw(`SELECT CAST(id AS TEXT) AS name, "from" AS column_name, '' AS referred_schema,
			  "table" AS referred_table, "to" AS referred_column
			FROM pragma_foreign_key_list(?) ORDER BY id, seq`, table).Scan(&rows).Error
	}
	if err != nil {
		return nil, fmt.Errorf("reading foreign keys of %s: %w", table, err)
	}

	fks := []ForeignKey{}
	pos := map[string]int{}
	for _, r := range rows {
		n, ok := pos[r.Name]
		if !ok {
			fk := ForeignKey{ReferredTable: r.ReferredTable, ConstrainedColumns: []string{}, ReferredColumns: []string{}}
			if i.dialect() == DialectPostgres {
				fk.Name = r.Name
			}
			if r.ReferredSchema != "" && r.ReferredSchema != i.schema {
				s := r.ReferredSchema
				fk.ReferredSchema = &s
			}
			fks = append(fks, fk)
			n = len(fks) - 1
			pos[r.Name] = n
		}
		fks[n].ConstrainedColumns = append(fks[n].ConstrainedColumns, r.Column)
		fks[n].ReferredColumns = append(fks[n].ReferredColumns, r.ReferredColumn)
	}
	return fks, nil
}

type indexRow struct {
	Name   string `gorm:"column:index_name"`
	Column string `gorm:"column:column_name"`
	Unique bool   `gorm:"column:is_unique"`
}

func (i *Inspector) indexes(ctx context.Context, table string) ([]Index, error) {
	db := i.db.WithContext(ctx)
	var rows []indexRow
	var err error
	if i.dialect() == DialectPostgres {
		err = db.Raw(`SELECT ic.relname AS index_name, a.attname AS column_name, ix.indisunique AS is_unique
			FROM pg_class t
			JOIN pg_namespace n ON n.oid = t.relnamespace
			JOIN pg_index ix ON ix.indrelid = t.oid
			JOIN pg_class ic ON ic.oid = ix.indexrelid
			JOIN LATERAL unnest(ix.indkey) WITH ORDINALITY AS k(attnum, ord) ON true
			JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
			WHERE t.relname = ? AND n.nspname = COALESCE(NULLIF(?, ''), current_schema())
			  AND NOT ix.indisprimary
			ORDER BY ic.relname, k.ord`, table, i.schema).Scan(&rows).Error
	} else {
		err = db.Raw(`SELECT il.name AS index_name, ii.name AS column_name, il."unique" AS is_unique
			FROM pragma_index_list(?) AS il, pragma_index_info(il.name) AS ii
			WHERE il.origin <> 'pk'
			ORDER BY il.name, ii.seqno`, table).Scan(&rows).Error
	}
	if err != nil {
		return nil, fmt.Errorf("reading indexes of %s: %w", table, err)
	}

	out := []Index{}
	pos := map[string]int{}
	for _, r := range rows {
		n, ok := pos[r.Name]
		if !ok {
			out = append(out, Index{Name: r.Name, Unique: r.Unique, ColumnNames: []string{}})
			n = len(out) - 1
			pos[r.Name] = n
		}
		out[n].ColumnNames = append(out[n].ColumnNames, r.Column)
	}
	return out, nil
}
