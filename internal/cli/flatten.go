package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kevinrhaas/glossary/internal/analyze"
	"github.com/kevinrhaas/glossary/internal/hierarchy"
	"github.com/kevinrhaas/glossary/internal/output"
)

var flagRecordFormat string

var flattenCmd = &cobra.Command{
	Use:   "flatten [file]",
	Short: "Flatten a glossary JSON document into records",
	Long: "flatten reads a glossary hierarchy (or a saved analyze response) from a " +
		"file or stdin and writes one record per group and term.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		path := "-"
		if len(args) == 1 {
			path = args[0]
		}
		data, err := readInput(cmd.InOrStdin(), path)
		if err != nil {
			fail(ExitUsageError, "%v", err)
			return nil
		}

		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			fail(ExitInvalidShape, "input is not valid JSON: %v", err)
			return nil
		}
		records, err := hierarchy.FlattenValue(analyze.Unwrap(v))
		if err != nil {
			code := ExitRuntimeError
			if errors.Is(err, hierarchy.ErrInvalidShape) {
				code = ExitInvalidShape
			}
			fail(code, "%v", err)
			return nil
		}

		if err := output.WriteRecordsTo(records, flagRecordFormat, flagOut, cfg.Export.Actor); err != nil {
			fail(ExitRuntimeError, "writing output: %v", err)
		}
		return nil
	},
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return data, nil
}

func init() {
	f := flattenCmd.Flags()
	f.StringVar(&flagRecordFormat, "format", "csv", "Output format: csv, json")
	f.StringVar(&flagOut, "out", "", "Output file (default stdout)")
	f.StringVar(&flagActor, "actor", "", "createdBy/updatedBy value")
}
