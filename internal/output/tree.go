package output

import (
	"github.com/kevinrhaas/glossary/internal/analyze"
	"github.com/kevinrhaas/glossary/internal/hierarchy"
)

// treeLine is one node of a rendered glossary outline.
type treeLine struct {
	depth int
	label string
	group bool
}

func outline(report *analyze.Report) ([]treeLine, error) {
	if len(report.Data) == 0 {
		return nil, nil
	}
	root, err := hierarchy.ParseJSON(report.Data)
	if err != nil {
		return nil, err
	}
	var lines []treeLine
	var walk func(n hierarchy.Node, depth int)
	walk = func(n hierarchy.Node, depth int) {
		switch t := n.(type) {
		case hierarchy.Group:
			lines = append(lines, treeLine{depth: depth, label: t.Label, group: len(t.Children) > 0})
			for _, c := range t.Children {
				walk(c, depth+1)
			}
		case hierarchy.List:
			for _, c := range t {
				walk(c, depth)
			}
		case hierarchy.Leaf:
			lines = append(lines, treeLine{depth: depth, label: string(t)})
		}
	}
	walk(root, 0)
	return lines, nil
}
