package hierarchy

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a flattened record.
type Kind string

const (
	KindGlossary Kind = "glossary"
	KindCategory Kind = "category"
	KindTerm     Kind = "term"
)

// TimestampLayout is the millisecond-precision UTC layout used for record timestamps.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// DefaultAttributes is attached to every record.
const DefaultAttributes = `{"info":{"status":"Draft"}}`

// Record is one flattened glossary entry.
type Record struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Kind               Kind   `json:"kind"`
	FullyQualifiedPath string `json:"fullyQualifiedPath"`
	ParentID           string `json:"parentId"`
	RootID             string `json:"rootId"`
	CreatedAt          string `json:"createdAt"`
	UpdatedAt          string `json:"updatedAt"`
	Attributes         string `json:"attributes"`
}

// Flattener turns a glossary tree into records. The zero value uses random
// UUIDs and the wall clock.
type Flattener struct {
	NewID func() string
	Now   func() time.Time
}

// Flatten flattens root with the default Flattener.
func Flatten(root Node) ([]Record, error) {
	var f Flattener
	return f.Flatten(root)
}

// FlattenValue parses a decoded JSON value and flattens it.
func FlattenValue(v any) ([]Record, error) {
	root, err := Parse(v)
	if err != nil {
		return nil, err
	}
	return Flatten(root)
}

type walkContext struct {
	parentID   string
	rootID     string
	parentPath string
}

// Flatten emits records for root in pre-order. All records share one timestamp.
func (f Flattener) Flatten(root Node) ([]Record, error) {
	if err := validate(root, "$"); err != nil {
		return nil, err
	}
	newID := f.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	now := f.Now
	if now == nil {
		now = time.Now
	}
	stamp := now().UTC().Format(TimestampLayout)

	w := &walker{newID: newID, stamp: stamp}
	w.walk(root, walkContext{})
	return w.out, nil
}

type walker struct {
	newID func() string
	stamp string
	out   []Record
}

func (w *walker) walk(n Node, ctx walkContext) {
	switch t := n.(type) {
	case Group:
		rec := w.emit(t.Label, classify(t, ctx.parentID == ""), ctx)
		child := walkContext{parentID: rec.ID, rootID: rec.RootID, parentPath: rec.FullyQualifiedPath}
		for _, c := range t.Children {
			w.walk(c, child)
		}
	case List:
		for _, c := range t {
			w.walk(c, ctx)
		}
	case Leaf:
		w.emit(string(t), KindTerm, ctx)
	}
}

func (w *walker) emit(name string, kind Kind, ctx walkContext) Record {
	path := name
	if ctx.parentID != "" {
		path = ctx.parentPath + "/" + name
	}
	id := w.newID()
	rootID := ctx.rootID
	if rootID == "" {
		rootID = id
	}
	rec := Record{
		ID:                 id,
		Name:               name,
		Kind:               kind,
		FullyQualifiedPath: path,
		ParentID:           ctx.parentID,
		RootID:             rootID,
		CreatedAt:          w.stamp,
		UpdatedAt:          w.stamp,
		Attributes:         DefaultAttributes,
	}
	w.out = append(w.out, rec)
	return rec
}

// classify applies the glossary/category/term rule. A group with no children
// is a term.
func classify(g Group, isRoot bool) Kind {
	switch {
	case isRoot:
		return KindGlossary
	case g.HasSubgroup():
		return KindCategory
	default:
		return KindTerm
	}
}

func validate(n Node, path string) error {
	switch t := n.(type) {
	case Group:
		for i, c := range t.Children {
			if err := validate(c, childPath(path+"."+t.Label, i)); err != nil {
				return err
			}
		}
		return nil
	case List:
		for i, c := range t {
			if err := validate(c, childPath(path, i)); err != nil {
				return err
			}
		}
		return nil
	case Leaf:
		return nil
	}
	return &ShapeError{Path: path, Reason: "nil node"}
}

func childPath(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}
