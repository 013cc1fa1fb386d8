package hierarchy

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidShape is matched by every ShapeError.
var ErrInvalidShape = errors.New("invalid hierarchy shape")

// ShapeError reports a value that is not a Group, List or Leaf.
type ShapeError struct {
	Path   string
	Reason string
}

func (e *ShapeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("invalid hierarchy shape: %s", e.Reason)
	}
	return fmt.Sprintf("invalid hierarchy shape at %s: %s", e.Path, e.Reason)
}

// Is lets errors.Is match ErrInvalidShape.
func (e *ShapeError) Is(target error) bool { return target == ErrInvalidShape }

// Node is one of Group, List or Leaf.
type Node interface {
	node()
}

// Group is a labelled node with ordered children.
type Group struct {
	Label    string
	Children List
}

// List is an ordered sequence of sibling nodes.
type List []Node

// Leaf is a terminal term.
type Leaf string

func (Group) node() {}
func (List) node()  {}
func (Leaf) node()  {}

// HasSubgroup reports whether any direct child is a Group.
func (g Group) HasSubgroup() bool {
	for _, c := range g.Children {
		if _, ok := c.(Group); ok {
			return true
		}
	}
	return false
}

// ParseJSON decodes data and converts it to a Node.
func ParseJSON(data []byte) (Node, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decoding glossary JSON: %w", err)
	}
	return Parse(v)
}

// Parse converts a decoded JSON value into a Node. Maps must have exactly one
// key. A group value that is not a list is treated as a one-element list.
func Parse(v any) (Node, error) {
	return parseAt(v, "$")
}

func parseAt(v any, path string) (Node, error) {
	switch t := v.(type) {
	case string:
		return Leaf(t), nil
	case []any:
		return parseList(t, path)
	case map[string]any:
		if len(t) != 1 {
			return nil, &ShapeError{Path: path, Reason: fmt.Sprintf("object must have exactly one key, got %d (%s)", len(t), keyList(t))}
		}
		for label, raw := range t {
			childPath := path + "." + label
			var children List
			if items, ok := raw.([]any); ok {
				l, err := parseList(items, childPath)
				if err != nil {
					return nil, err
				}
				children = l
			} else {
				n, err := parseAt(raw, childPath)
				if err != nil {
					return nil, err
				}
				children = List{n}
			}
			return Group{Label: label, Children: children}, nil
		}
	case nil:
		return nil, &ShapeError{Path: path, Reason: "null is not a glossary node"}
	}
	return nil, &ShapeError{Path: path, Reason: fmt.Sprintf("unsupported value of type %T", v)}
}

func parseList(items []any, path string) (List, error) {
	out := make(List, 0, len(items))
	for i, item := range items {
		n, err := parseAt(item, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

func keyList(m map[string]any) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return strings.Join(keys, ", ")
}

// value converts a Node back into the JSON-shaped value Parse accepts.
func value(n Node) any {
	switch t := n.(type) {
	case Leaf:
		return string(t)
	case List:
		out := make([]any, 0, len(t))
		for _, c := range t {
			out = append(out, value(c))
		}
		return out
	case Group:
		return map[string]any{t.Label: value(t.Children)}
	}
	return nil
}
