package scene

import (
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entity(id, name string) EntityRecord {
	return EntityRecord{AnchorID: id, DisplayName: name}
}

func transform(id, owner, parent string) TransformRecord {
	return TransformRecord{AnchorID: id, OwningEntityID: owner, ParentTransformID: parent}
}

type line struct {
	Name  string
	Depth int
}

func walk(f *Forest) []line {
	var out []line
	f.Walk(func(n *Node, depth int) {
		out = append(out, line{n.Name, depth})
	})
	return out
}

func TestBuildForest_ParentChild(t *testing.T) {
	f := BuildForest(
		[]TransformRecord{transform("TA", "A", ""), transform("TB", "B", "TA")},
		[]EntityRecord{entity("A", "A"), entity("B", "B")},
	)
	require.NoError(t, f.Validate())

	want := []line{{"A", 0}, {"B", 1}}
	if diff := cmp.Diff(want, walk(f)); diff != "" {
		t.Errorf("walk mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"A"}, f.Roots())
	assert.Equal(t, 0, f.Depth("A"))
	assert.Equal(t, 1, f.Depth("B"))
	assert.Equal(t, -1, f.Depth("missing"))
}

func TestBuildForest_ChildOrderIsFirstEncountered(t *testing.T) {
	// Children appear before their parent in the stream and out of name order.
	f := BuildForest(
		[]TransformRecord{
			transform("T3", "C", "T1"),
			transform("T2", "B", "T1"),
			transform("T4", "D", "T2"),
			transform("T1", "A", ""),
			transform("T5", "E", ""),
		},
		[]EntityRecord{entity("A", "A"), entity("B", "B"), entity("C", "C"), entity("D", "D"), entity("E", "E")},
	)
	require.NoError(t, f.Validate())

	want := []line{{"C", 1}, {"B", 1}, {"D", 2}}
	got := walk(f)
	require.Len(t, got, 5)
	// Roots follow creation order: A (from T1) was created before E.
	assert.Equal(t, line{"A", 0}, got[0])
	if diff := cmp.Diff(want, got[1:4]); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, line{"E", 0}, got[4])
	assert.Equal(t, []string{"C", "B"}, f.Nodes["A"].Children)
}

func TestBuildForest_DanglingReferences(t *testing.T) {
	tests := []struct {
		name         string
		transforms   []TransformRecord
		entities     []EntityRecord
		wantRoots    []string
		wantNodes    int
		wantDangling int
	}{
		{
			name:         "unknown parent transform",
			transforms:   []TransformRecord{transform("T1", "A", "missing")},
			entities:     []EntityRecord{entity("A", "A")},
			wantRoots:    []string{"A"},
			wantNodes:    1,
			wantDangling: 1,
		},
		{
			name:         "parent transform with unknown entity",
			transforms:   []TransformRecord{transform("T0", "ghost", ""), transform("T1", "A", "T0")},
			entities:     []EntityRecord{entity("A", "A")},
			wantRoots:    []string{"A"},
			wantNodes:    1,
			wantDangling: 1,
		},
		{
			name:       "transform with unknown owner is skipped",
			transforms: []TransformRecord{transform("T1", "ghost", ""), transform("T2", "A", "")},
			entities:   []EntityRecord{entity("A", "A")},
			wantRoots:  []string{"A"},
			wantNodes:  1,
		},
		{
			name: "second transform for the same entity is ignored",
			transforms: []TransformRecord{
				transform("T1", "A", ""),
				transform("T2", "B", "T1"),
				transform("T3", "B", ""),
			},
			entities:  []EntityRecord{entity("A", "A"), entity("B", "B")},
			wantRoots: []string{"A"},
			wantNodes: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := BuildForest(tt.transforms, tt.entities)
			require.NoError(t, f.Validate())
			assert.Equal(t, tt.wantRoots, f.Roots())
			assert.Equal(t, tt.wantNodes, f.Len())
			assert.Equal(t, tt.wantDangling, f.Dangling)
		})
	}
}

func TestBuildForest_BreaksCycles(t *testing.T) {
	tests := []struct {
		name       string
		transforms []TransformRecord
		entities   []string
	}{
		{
			name:       "self parent",
			transforms: []TransformRecord{transform("T1", "A", "T1")},
			entities:   []string{"A"},
		},
		{
			name:       "two node loop",
			transforms: []TransformRecord{transform("T1", "A", "T2"), transform("T2", "B", "T1")},
			entities:   []string{"A", "B"},
		},
		{
			name: "loop below a tail",
			transforms: []TransformRecord{
				transform("T0", "X", "T1"),
				transform("T1", "A", "T3"),
				transform("T2", "B", "T1"),
				transform("T3", "C", "T2"),
			},
			entities: []string{"X", "A", "B", "C"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var entities []EntityRecord
			for _, id := range tt.entities {
				entities = append(entities, entity(id, id))
			}

			f := BuildForest(tt.transforms, entities)
			require.NoError(t, f.Validate())
			assert.Equal(t, 1, f.CyclesBroken)
			assert.NotEmpty(t, f.Roots())
			assert.Len(t, walk(f), len(entities), "every node reachable from a root")
		})
	}
}

func TestBuildForest_LargeChain(t *testing.T) {
	const depth = 5000
	var transforms []TransformRecord
	var entities []EntityRecord
	for i := 0; i < depth; i++ {
		parent := ""
		if i > 0 {
			parent = fmt.Sprintf("T%d", i-1)
		}
		transforms = append(transforms, transform(fmt.Sprintf("T%d", i), fmt.Sprintf("E%d", i), parent))
		entities = append(entities, entity(fmt.Sprintf("E%d", i), fmt.Sprintf("E%d", i)))
	}

	f := BuildForest(transforms, entities)
	require.NoError(t, f.Validate())
	got := walk(f)
	require.Len(t, got, depth)
	assert.Equal(t, depth-1, got[depth-1].Depth)
}
