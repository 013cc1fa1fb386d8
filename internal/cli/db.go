package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/kevinrhaas/glossary/internal/schema"
)

const dbTimeout = 30 * time.Second

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Inspect the configured database",
}

var dbTablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List the tables of the configured schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withInspector(func(ctx context.Context, in *schema.Inspector) error {
			tables, err := in.Tables(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"schema": in.SchemaName(),
				"tables": tables,
				"count":  len(tables),
			})
		})
	},
}

var dbDescribeCmd = &cobra.Command{
	Use:   "describe <table>",
	Short: "Show columns, keys and indexes of a table",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withInspector(func(ctx context.Context, in *schema.Inspector) error {
			detail, err := in.Describe(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), detail)
		})
	},
}

// withInspector connects to the configured database and runs fn. Failures
// are reported through exitCode.
func withInspector(fn func(context.Context, *schema.Inspector) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Database.URL == "" {
		fail(ExitUsageError, "DATABASE_URL is not set (use --database-url)")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	db, err := schema.Open(ctx, cfg.Database.URL)
	if err != nil {
		fail(ExitRuntimeError, "database connection failed: %v", err)
		return nil
	}
	defer schema.Close(db)

	if err := fn(ctx, schema.NewInspector(db, cfg.Database.Schema)); err != nil {
		code := ExitRuntimeError
		if errors.Is(err, schema.ErrTableNotFound) {
			code = ExitUsageError
		}
		fail(code, "%v", err)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func init() {
	dbCmd.PersistentFlags().StringVar(&flagDatabaseURL, "database-url", "", "Database URL (overrides DATABASE_URL)")
	dbCmd.PersistentFlags().StringVar(&flagSchema, "schema", "", "Database schema")
	dbCmd.AddCommand(dbTablesCmd)
	dbCmd.AddCommand(dbDescribeCmd)
}
