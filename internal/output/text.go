package output

import (
	"io"
	"strings"

	"github.com/kevinrhaas/glossary/internal/analyze"
)

// TextWriter outputs a human-readable outline of the glossary.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, report *analyze.Report) error {
	ew := &errWriter{w: w}
	md := report.Metadata

	ew.printf("Business Glossary: schema %s\n", md.SchemaName)
	ew.printf("Tables analyzed: %d", md.TablesAnalyzed)
	if md.AIModelUsed != "" {
		ew.printf(" | Model: %s", md.AIModelUsed)
	}
	ew.println("")
	ew.println(strings.Repeat("─", 60))

	if !report.Success {
		ew.println("\nGlossary generation failed.")
		return ew.err
	}

	lines, err := outline(report)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		ew.println("\nNo terms returned.")
	}
	var groups, terms int
	for _, l := range lines {
		marker := "-"
		if l.group {
			marker = "+"
			groups++
		} else {
			terms++
		}
		ew.printf("%s%s %s\n", strings.Repeat("  ", l.depth), marker, l.label)
	}

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	ew.printf("%d groups, %d terms. Completed in %.2fs", groups, terms, md.ProcessingTime)
	if md.Attempts > 1 {
		ew.printf(" after %d attempts", md.Attempts)
	}
	if md.Cached {
		ew.printf(" (cached)")
	}
	ew.println("")
	return ew.err
}
