package output

import (
	"fmt"
	"io"
	"os"

	"github.com/kevinrhaas/glossary/internal/analyze"
	"github.com/kevinrhaas/glossary/internal/hierarchy"
)

// DefaultActor is written to createdBy and updatedBy when none is configured.
const DefaultActor = "admin"

// Writer writes a report in a specific format.
type Writer interface {
	Write(w io.Writer, report *analyze.Report) error
}

// Options carries settings for the record-based formats.
type Options struct {
	Actor     string
	Flattener hierarchy.Flattener
}

func (o Options) actor() string {
	if o.Actor == "" {
		return DefaultActor
	}
	return o.Actor
}

// GetWriter returns a writer for the specified format.
func GetWriter(format string, opts Options) (Writer, error) {
	switch format {
	case "text", "":
		return &TextWriter{}, nil
	case "json":
		return &JSONWriter{}, nil
	case "csv":
		return &CSVWriter{Actor: opts.actor(), Flattener: opts.Flattener}, nil
	case "markdown", "md":
		return &MarkdownWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteReport writes the report to the specified output (file path or stdout).
func WriteReport(report *analyze.Report, format, outPath string, opts Options) error {
	writer, err := GetWriter(format, opts)
	if err != nil {
		return err
	}
	return toDestination(outPath, func(w io.Writer) error {
		return writer.Write(w, report)
	})
}

// WriteRecordsTo writes flattened records to outPath, or stdout for "" and "-".
func WriteRecordsTo(records []hierarchy.Record, format, outPath, actor string) error {
	return toDestination(outPath, func(w io.Writer) error {
		return WriteRecords(w, records, format, actor)
	})
}

func toDestination(outPath string, write func(io.Writer) error) error {
	if outPath == "" || outPath == "-" {
		return write(os.Stdout)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
