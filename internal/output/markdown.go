package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/kevinrhaas/glossary/internal/analyze"
)

// MarkdownWriter outputs the glossary as a nested bullet list.
type MarkdownWriter struct{}

func (m *MarkdownWriter) Write(w io.Writer, report *analyze.Report) error {
	ew := &errWriter{w: w}
	md := report.Metadata

	ew.printf("## Business Glossary\n\n")
	ew.printf("| Schema | Tables | Model |\n")
	ew.printf("|--------|--------|-------|\n")
	ew.printf("| %s | %d | %s |\n\n", md.SchemaName, md.TablesAnalyzed, md.AIModelUsed)

	if !report.Success {
		ew.println("Glossary generation failed. :x:")
		return ew.err
	}

	lines, err := outline(report)
	if err != nil {
		return err
	}
	for _, l := range lines {
		label := l.label
		if l.group {
			label = "**" + label + "**"
		}
		ew.printf("%s- %s\n", strings.Repeat("  ", l.depth), label)
	}

	ew.printf("\n*Generated in %.2fs*\n", md.ProcessingTime)
	return ew.err
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}
