package ontology

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// diamond builds root <- {left, right} <- leaf.
func diamond(t *testing.T) *Graph {
	t.Helper()
	g := NewGraph()
	for _, id := range []string{"root", "left", "right", "leaf"} {
		require.NoError(t, g.AddTerm(Term{ID: id, Namespace: "bp"}))
	}
	require.NoError(t, g.AddEdge("left", "root"))
	require.NoError(t, g.AddEdge("right", "root"))
	require.NoError(t, g.AddEdge("leaf", "left"))
	require.NoError(t, g.AddEdge("leaf", "right"))
	require.NoError(t, g.SetRoot("bp", "root"))
	return g
}

func TestGraph_AddTerm(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddTerm(Term{ID: "GO:1", Namespace: "bp"}))

	err := g.AddTerm(Term{ID: "GO:1", Namespace: "bp"})
	assert.ErrorIs(t, err, ErrDuplicateTerm)

	assert.Error(t, g.AddTerm(Term{}))
	assert.Equal(t, 1, g.Len())
	assert.True(t, g.Has("GO:1"))
	assert.Nil(t, g.Term("GO:2"))
}

func TestGraph_AddEdge(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddTerm(Term{ID: "a", Namespace: "bp"}))
	require.NoError(t, g.AddTerm(Term{ID: "b", Namespace: "bp"}))
	require.NoError(t, g.AddTerm(Term{ID: "c", Namespace: "cc"}))

	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("a", "b"), "repeated edge is ignored")
	assert.Equal(t, []string{"b"}, g.Parents("a"))
	assert.Equal(t, []string{"a"}, g.Children("b"))
	assert.Equal(t, 1, g.EdgeCount())

	assert.ErrorIs(t, g.AddEdge("a", "missing"), ErrUnknownTerm)
	assert.ErrorIs(t, g.AddEdge("missing", "a"), ErrUnknownTerm)
	assert.ErrorIs(t, g.AddEdge("a", "c"), ErrCrossEdge)
	assert.ErrorIs(t, g.AddEdge("a", "a"), ErrCycle)
}

func TestGraph_SetRoot(t *testing.T) {
	g := diamond(t)

	root, ok := g.Root("bp")
	require.True(t, ok)
	assert.Equal(t, "root", root)

	_, ok = g.Root("mf")
	assert.False(t, ok)

	assert.ErrorIs(t, g.SetRoot("bp", "nope"), ErrUnknownTerm)
	assert.Error(t, g.SetRoot("mf", "root"))
	assert.Equal(t, map[string]string{"bp": "root"}, g.Roots())
}

func TestGraph_ReverseTopological(t *testing.T) {
	g := diamond(t)

	order, err := g.ReverseTopological()
	require.NoError(t, err)
	require.Len(t, order, 4)

	pos := make(map[string]int)
	for i, id := range order {
		pos[id] = i
	}
	for _, id := range g.IDs() {
		for _, p := range g.Parents(id) {
			assert.Less(t, pos[id], pos[p], "%s must precede parent %s", id, p)
		}
	}
	assert.Equal(t, "leaf", order[0])
	assert.Equal(t, "root", order[3])
}

func TestGraph_ReverseTopologicalCycle(t *testing.T) {
	g := NewGraph()
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, g.AddTerm(Term{ID: id, Namespace: "bp"}))
	}
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("b", "c"))
	require.NoError(t, g.AddEdge("c", "a"))

	_, err := g.ReverseTopological()
	assert.ErrorIs(t, err, ErrCycle)
}

func TestGraph_InferRoots(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.AddTerm(Term{ID: "bp", Namespace: "biological_process"}))
	require.NoError(t, g.AddTerm(Term{ID: "bp1", Namespace: "biological_process"}))
	require.NoError(t, g.AddTerm(Term{ID: "cc1", Namespace: "cellular_component"}))
	require.NoError(t, g.AddTerm(Term{ID: "cc2", Namespace: "cellular_component"}))
	require.NoError(t, g.AddEdge("bp1", "bp"))

	unresolved := g.InferRoots()
	assert.Equal(t, []string{"cellular_component"}, unresolved)

	root, ok := g.Root("biological_process")
	require.True(t, ok)
	assert.Equal(t, "bp", root)
}
