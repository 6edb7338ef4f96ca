package enrich

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-enrich/internal/annotation"
	"github.com/inodb/vibe-enrich/internal/ontology"
)

// diamondGraph builds root <- {left, right} <- leaf in namespace "bp".
func diamondGraph(t *testing.T) *ontology.Graph {
	t.Helper()
	g := ontology.NewGraph()
	for _, id := range []string{"root", "left", "right", "leaf"} {
		require.NoError(t, g.AddTerm(ontology.Term{ID: id, Name: id + " term", Namespace: "bp"}))
	}
	require.NoError(t, g.AddEdge("left", "root"))
	require.NoError(t, g.AddEdge("right", "root"))
	require.NoError(t, g.AddEdge("leaf", "left"))
	require.NoError(t, g.AddEdge("leaf", "right"))
	require.NoError(t, g.SetRoot("bp", "root"))
	return g
}

func records(pairs ...string) annotation.Table {
	var t annotation.Table
	for i := 0; i+1 < len(pairs); i += 2 {
		t = append(t, annotation.Record{EntryID: pairs[i], CategoryID: pairs[i+1]})
	}
	return t
}

// referencePropagate unions every category into each node of every simple
// path to its namespace root. Exponential on converging DAGs; tests only.
func referencePropagate(g *ontology.Graph, table annotation.Table) map[string][]string {
	sets := make(map[string]map[string]struct{})
	var walk func(id, root string, path []string, entries []string)
	walk = func(id, root string, path []string, entries []string) {
		path = append(path, id)
		if id == root {
			for _, n := range path {
				if sets[n] == nil {
					sets[n] = make(map[string]struct{})
				}
				for _, e := range entries {
					sets[n][e] = struct{}{}
				}
			}
			return
		}
		for _, p := range g.Parents(id) {
			walk(p, root, path, entries)
		}
	}
	for cat, entries := range table.ByCategory() {
		root, _ := g.Root(g.Term(cat).Namespace)
		walk(cat, root, nil, entries)
	}
	return snapshotSets(sets)
}

func snapshotSets(sets map[string]map[string]struct{}) map[string][]string {
	out := make(map[string][]string)
	for id, s := range sets {
		if len(s) == 0 {
			continue
		}
		b := &Background{sets: map[string]map[string]struct{}{id: s}}
		out[id] = b.Entries(id)
	}
	return out
}

func snapshot(b *Background) map[string][]string {
	return snapshotSets(b.sets)
}

// randomDAG builds a single-namespace DAG where node i>0 has one or two
// parents chosen among lower-numbered nodes, so every node reaches t0.
func randomDAG(t *testing.T, r *rand.Rand, size int) *ontology.Graph {
	t.Helper()
	g := ontology.NewGraph()
	for i := range size {
		require.NoError(t, g.AddTerm(ontology.Term{ID: fmt.Sprintf("t%d", i), Namespace: "ns"}))
	}
	for i := 1; i < size; i++ {
		for range 1 + r.IntN(2) {
			require.NoError(t, g.AddEdge(fmt.Sprintf("t%d", i), fmt.Sprintf("t%d", r.IntN(i))))
		}
	}
	require.NoError(t, g.SetRoot("ns", "t0"))
	return g
}

func randomTable(r *rand.Rand, terms, entries, rows int) annotation.Table {
	table := make(annotation.Table, rows)
	for i := range table {
		table[i] = annotation.Record{
			EntryID:    fmt.Sprintf("e%d", r.IntN(entries)),
			CategoryID: fmt.Sprintf("t%d", r.IntN(terms)),
		}
	}
	return table
}

func TestPropagate_Diamond(t *testing.T) {
	g := diamondGraph(t)
	table := records(
		"a", "leaf", "b", "leaf",
		"c", "left",
		"d", "right", "a", "right",
	)

	bg, err := Propagate(g, table)
	require.NoError(t, err)

	assert.Equal(t, 4, bg.PopulationSize())
	assert.Equal(t, []string{"a", "b"}, bg.Entries("leaf"))
	assert.Equal(t, []string{"a", "b", "c"}, bg.Entries("left"))
	assert.Equal(t, []string{"a", "b", "d"}, bg.Entries("right"))
	assert.Equal(t, []string{"a", "b", "c", "d"}, bg.Entries("root"))
	assert.Equal(t, 4, bg.Size("root"))
	assert.True(t, bg.Contains("root", "c"))
	assert.False(t, bg.Contains("leaf", "c"))
	assert.Equal(t, 4, bg.AnnotatedTerms())
	assert.Same(t, g, bg.Graph())
}

func TestPropagate_MatchesPathEnumeration(t *testing.T) {
	r := rand.New(rand.NewPCG(7, 11))
	for round := range 5 {
		g := randomDAG(t, r, 14)
		table := randomTable(r, 14, 30, 60)

		bg, err := Propagate(g, table)
		require.NoError(t, err)

		if diff := cmp.Diff(referencePropagate(g, table), snapshot(bg)); diff != "" {
			t.Errorf("round %d: propagation mismatch (-reference +got):\n%s", round, diff)
		}
	}
}

func TestPropagate_OrderIndependent(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 5))
	g := randomDAG(t, r, 25)
	table := randomTable(r, 25, 30, 80)

	want, err := Propagate(g, table)
	require.NoError(t, err)

	for range 5 {
		shuffled := append(annotation.Table(nil), table...)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got, err := Propagate(g, shuffled)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(snapshot(want), snapshot(got)))
	}
}

func TestPropagate_ParentContainsChild(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	g := randomDAG(t, r, 40)
	bg, err := Propagate(g, randomTable(r, 40, 50, 150))
	require.NoError(t, err)

	for _, id := range g.IDs() {
		for _, p := range g.Parents(id) {
			for _, e := range bg.Entries(id) {
				assert.True(t, bg.Contains(p, e), "%s missing %s from child %s", p, e, id)
			}
		}
	}
}

func TestPropagate_Idempotent(t *testing.T) {
	g := diamondGraph(t)
	table := records("a", "leaf", "b", "left", "c", "right")

	first, err := Propagate(g, table)
	require.NoError(t, err)
	second, err := Propagate(g, table)
	require.NoError(t, err)

	assert.Equal(t, snapshot(first), snapshot(second))
	assert.Equal(t, first.PopulationSize(), second.PopulationSize())
}

func TestPropagate_Errors(t *testing.T) {
	g := diamondGraph(t)

	_, err := Propagate(g, records("a", "GO:unknown"))
	assert.ErrorIs(t, err, ErrInvalidCategory)

	require.NoError(t, g.AddTerm(ontology.Term{ID: "orphan", Namespace: "mf"}))
	_, err = Propagate(g, records("a", "orphan"))
	assert.ErrorIs(t, err, ErrMissingRoot)
}

func TestPropagate_Cycle(t *testing.T) {
	g := ontology.NewGraph()
	require.NoError(t, g.AddTerm(ontology.Term{ID: "a", Namespace: "ns"}))
	require.NoError(t, g.AddTerm(ontology.Term{ID: "b", Namespace: "ns"}))
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("b", "a"))
	require.NoError(t, g.SetRoot("ns", "a"))

	_, err := Propagate(g, records("x", "a"))
	assert.ErrorIs(t, err, ontology.ErrCycle)
}

func TestPropagate_EmptyTable(t *testing.T) {
	bg, err := Propagate(diamondGraph(t), nil)
	require.NoError(t, err)
	assert.Zero(t, bg.PopulationSize())
	assert.Zero(t, bg.Size("root"))
	assert.Empty(t, bg.Entries("root"))
}
