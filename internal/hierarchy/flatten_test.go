package hierarchy

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedFlattener() Flattener {
	n := 0
	return Flattener{
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
		Now: func() time.Time {
			return time.Date(2025, 3, 4, 5, 6, 7, 890_000_000, time.FixedZone("X", 3600))
		},
	}
}

func mustParse(t *testing.T, raw string) Node {
	t.Helper()
	n, err := ParseJSON([]byte(raw))
	require.NoError(t, err)
	return n
}

func TestFlatten_Example(t *testing.T) {
	root := mustParse(t, `{"Business Glossary":[{"Customer":["Customer ID","Segment"]},"Revenue"]}`)

	recs, err := fixedFlattener().Flatten(root)
	require.NoError(t, err)
	require.Len(t, recs, 5)

	want := []struct {
		name, kind, path, parent, root string
	}{
		{"Business Glossary", "glossary", "Business Glossary", "", "id-1"},
		{"Customer", "term", "Business Glossary/Customer", "id-1", "id-1"},
		{"Customer ID", "term", "Business Glossary/Customer/Customer ID", "id-2", "id-1"},
		{"Segment", "term", "Business Glossary/Customer/Segment", "id-2", "id-1"},
		{"Revenue", "term", "Business Glossary/Revenue", "id-1", "id-1"},
	}
	for i, w := range want {
		r := recs[i]
		assert.Equal(t, w.name, r.Name, "record %d name", i)
		assert.Equal(t, Kind(w.kind), r.Kind, "record %d kind", i)
		assert.Equal(t, w.path, r.FullyQualifiedPath, "record %d path", i)
		assert.Equal(t, w.parent, r.ParentID, "record %d parent", i)
		assert.Equal(t, w.root, r.RootID, "record %d root", i)
		assert.Equal(t, "2025-03-04T04:06:07.890Z", r.CreatedAt)
		assert.Equal(t, r.CreatedAt, r.UpdatedAt)
		assert.Equal(t, DefaultAttributes, r.Attributes)
	}
}

func TestFlatten_CategoryWhenChildGroupPresent(t *testing.T) {
	root := mustParse(t, `{"G":[{"Sales":["Order",{"Pricing":["Discount"]}]}]}`)

	recs, err := fixedFlattener().Flatten(root)
	require.NoError(t, err)

	kinds := map[string]Kind{}
	for _, r := range recs {
		kinds[r.Name] = r.Kind
	}
	assert.Equal(t, KindGlossary, kinds["G"])
	assert.Equal(t, KindCategory, kinds["Sales"])
	assert.Equal(t, KindTerm, kinds["Order"])
	assert.Equal(t, KindTerm, kinds["Pricing"])
	assert.Equal(t, KindTerm, kinds["Discount"])
}

func TestFlatten_LeafAtRoot(t *testing.T) {
	recs, err := fixedFlattener().Flatten(Leaf("Standalone"))
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, KindTerm, recs[0].Kind)
	assert.Equal(t, "Standalone", recs[0].FullyQualifiedPath)
	assert.Empty(t, recs[0].ParentID)
	assert.Equal(t, recs[0].ID, recs[0].RootID)
}

func TestFlatten_RootListYieldsIndependentRoots(t *testing.T) {
	root := mustParse(t, `[{"A":["a1"]},{"B":["b1"]}]`)

	recs, err := fixedFlattener().Flatten(root)
	require.NoError(t, err)
	require.Len(t, recs, 4)
	assert.Equal(t, KindGlossary, recs[0].Kind)
	assert.Equal(t, KindGlossary, recs[2].Kind)
	assert.Equal(t, recs[0].ID, recs[0].RootID)
	assert.Equal(t, recs[0].ID, recs[1].RootID)
	assert.Equal(t, recs[2].ID, recs[2].RootID)
	assert.Equal(t, recs[2].ID, recs[3].RootID)
}

func TestFlatten_EmptyChildrenGroupIsTerm(t *testing.T) {
	root := mustParse(t, `{"G":[{"Empty":[]}]}`)

	recs, err := fixedFlattener().Flatten(root)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, KindTerm, recs[1].Kind)
	assert.Equal(t, "G/Empty", recs[1].FullyQualifiedPath)
}

func TestFlatten_NilNodeProducesNoRecords(t *testing.T) {
	root := Group{Label: "G", Children: List{Leaf("ok"), nil}}

	recs, err := fixedFlattener().Flatten(root)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidShape))
	assert.Nil(t, recs)
}

func TestFlatten_DefaultsUseUUIDs(t *testing.T) {
	recs, err := Flatten(mustParse(t, `{"G":["a","b","c"]}`))
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, r := range recs {
		u, err := uuid.Parse(r.ID)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(4), u.Version())
		assert.False(t, seen[r.ID], "duplicate id %s", r.ID)
		seen[r.ID] = true
	}
}

func TestFlatten_FreshIDsPerInvocation(t *testing.T) {
	root := mustParse(t, `{"G":["a"]}`)
	first, err := Flatten(root)
	require.NoError(t, err)
	second, err := Flatten(root)
	require.NoError(t, err)

	for i := range first {
		assert.NotEqual(t, first[i].ID, second[i].ID)
	}
}

func TestFlatten_ParentLinksAndOrder(t *testing.T) {
	inputs := []string{
		`{"Business Glossary":[{"Customer & Demographics":["Customer","Customer Segment","Demographics",{"Customer Lifecycle":["Customer Acquisition","Customer Retention"]}]},{"Campaign & Marketing":["Campaign","Channel","Campaign Performance"]}]}`,
		`[{"A":[{"B":[{"C":["d"]}]}]},"loose",{"E":"single"}]`,
		`{"Solo":{"Nested":["x","y"]}}`,
		`{"":["a"]}`,
		`{"Top":[{"":["b"]}]}`,
	}

	for _, in := range inputs {
		recs, err := Flatten(mustParse(t, in))
		require.NoError(t, err)

		byID := map[string]Record{}
		for i, r := range recs {
			if r.ParentID != "" {
				parent, ok := byID[r.ParentID]
				require.True(t, ok, "record %d parent must precede it", i)
				assert.Equal(t, parent.FullyQualifiedPath+"/"+r.Name, r.FullyQualifiedPath)

				// Following parent links must end at the root id.
				cur := r
				for cur.ParentID != "" {
					cur = byID[cur.ParentID]
				}
				assert.Equal(t, cur.ID, r.RootID)
			} else {
				assert.Equal(t, r.Name, r.FullyQualifiedPath)
				assert.Equal(t, r.ID, r.RootID)
			}
			byID[r.ID] = r
		}
	}
}

func TestFlatten_EmptyRootLabel(t *testing.T) {
	recs, err := fixedFlattener().Flatten(mustParse(t, `{"":["a"]}`))
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, "", recs[0].FullyQualifiedPath)
	assert.Equal(t, KindGlossary, recs[0].Kind)
	assert.Equal(t, "/a", recs[1].FullyQualifiedPath)
	assert.Equal(t, recs[0].ID, recs[1].ParentID)
}

// A group whose children are all leaves is a term, even directly under the root.
func TestFlatten_TwoLevelGlossary(t *testing.T) {
	root := mustParse(t, `{"Business Glossary":[{"Customer & Demographics":["Customer","Segment"]}]}`)

	recs, err := fixedFlattener().Flatten(root)
	require.NoError(t, err)
	require.Len(t, recs, 4)

	want := []struct {
		name, kind, path, parent string
	}{
		{"Business Glossary", "glossary", "Business Glossary", ""},
		{"Customer & Demographics", "term", "Business Glossary/Customer & Demographics", "id-1"},
		{"Customer", "term", "Business Glossary/Customer & Demographics/Customer", "id-2"},
		{"Segment", "term", "Business Glossary/Customer & Demographics/Segment", "id-2"},
	}
	for i, w := range want {
		r := recs[i]
		assert.Equal(t, w.name, r.Name, "record %d name", i)
		assert.Equal(t, Kind(w.kind), r.Kind, "record %d kind", i)
		assert.Equal(t, w.path, r.FullyQualifiedPath, "record %d path", i)
		assert.Equal(t, w.parent, r.ParentID, "record %d parent", i)
		assert.Equal(t, "id-1", r.RootID, "record %d root", i)
	}
}

func TestFlatten_RecordCountMatchesGroupsAndLeaves(t *testing.T) {
	root := mustParse(t, `{"G":[["nested","list"],{"H":["x"]},"y"]}`)
	recs, err := Flatten(root)
	require.NoError(t, err)
	assert.Equal(t, countNodes(root), len(recs))
}

func countNodes(n Node) int {
	switch t := n.(type) {
	case Group:
		return 1 + countNodes(t.Children)
	case List:
		total := 0
		for _, c := range t {
			total += countNodes(c)
		}
		return total
	case Leaf:
		return 1
	}
	return 0
}

func TestFlattenValue_RejectsBadShape(t *testing.T) {
	recs, err := FlattenValue(map[string]any{"a": []any{"x"}, "b": []any{"y"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidShape)
	assert.Nil(t, recs)
}

func TestFlatten_ConcurrentUse(t *testing.T) {
	root := mustParse(t, `{"G":[{"A":["a1","a2"]},"b"]}`)
	var f Flattener

	done := make(chan []Record, 8)
	for i := 0; i < 8; i++ {
		go func() {
			recs, err := f.Flatten(root)
			if err != nil {
				done <- nil
				return
			}
			done <- recs
		}()
	}
	for i := 0; i < 8; i++ {
		recs := <-done
		require.Len(t, recs, 5)
	}
}
