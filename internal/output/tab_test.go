package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-enrich/internal/annotation"
	"github.com/inodb/vibe-enrich/internal/enrich"
	"github.com/inodb/vibe-enrich/internal/ontology"
)

func TestTabWriter_WriteHeader(t *testing.T) {
	var buf bytes.Buffer
	w := NewTabWriter(&buf)

	require.NoError(t, w.WriteHeader())
	require.NoError(t, w.Flush())

	header := buf.String()
	for _, col := range []string{"#query", "term", "namespace", "p", "q", "significant", "hits"} {
		assert.Contains(t, header, col)
	}
	assert.Equal(t, 12, len(strings.Split(strings.TrimSpace(header), "\t")))
}

func TestTabWriter_Write(t *testing.T) {
	var buf bytes.Buffer
	w := NewTabWriter(&buf)

	r := &enrich.TermResult{
		ID:             "GO:0007165",
		Name:           "signal transduction",
		Namespace:      "biological_process",
		CategorySize:   10,
		QuerySize:      20,
		PopulationSize: 100,
		HitCount:       5,
		Hits:           []string{"HRAS", "KRAS", "NRAS", "RAF1", "BRAF"},
		P:              0.025464546427043124,
		Q:              0.0509290928540862,
	}

	require.NoError(t, w.Write("ras.txt", r))
	require.NoError(t, w.Flush())

	fields := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\t")
	assert.Equal(t, []string{
		"ras.txt", "GO:0007165", "signal transduction", "biological_process",
		"10", "20", "100", "5", "0.0254645", "0.0509291", "-",
		"HRAS,KRAS,NRAS,RAF1,BRAF",
	}, fields)
}

func TestTabWriter_WriteSignificantWithoutName(t *testing.T) {
	var buf bytes.Buffer
	w := NewTabWriter(&buf)

	require.NoError(t, w.Write("q", &enrich.TermResult{ID: "X", Namespace: "ns", P: 1e-9, Q: 2e-9, Significant: true}))
	require.NoError(t, w.Flush())

	fields := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\t")
	assert.Equal(t, "-", fields[2])
	assert.Equal(t, "1e-09", fields[8])
	assert.Equal(t, "YES", fields[10])
	assert.Equal(t, "-", fields[11])
}

func TestTabWriter_WriteAnalysis(t *testing.T) {
	g := ontology.NewGraph()
	require.NoError(t, g.AddTerm(ontology.Term{ID: "root", Namespace: "bp"}))
	require.NoError(t, g.SetRoot("bp", "root"))
	var table annotation.Table
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, g.AddTerm(ontology.Term{ID: id, Namespace: "bp"}))
		require.NoError(t, g.AddEdge(id, "root"))
	}
	for i, e := range []string{"e1", "e2", "e3", "e4", "e5", "e6", "e7", "e8", "e9", "e10"} {
		table = append(table, annotation.Record{EntryID: e, CategoryID: "root"})
		if i < 3 {
			table = append(table, annotation.Record{EntryID: e, CategoryID: "a"})
		}
		if i < 5 {
			table = append(table, annotation.Record{EntryID: e, CategoryID: "b"})
		}
		if i >= 5 {
			table = append(table, annotation.Record{EntryID: e, CategoryID: "c"})
		}
	}

	e := enrich.New(g)
	require.NoError(t, e.SetBackground(table))
	opts := enrich.DefaultOptions()
	opts.MinCategorySize = 0
	a, err := e.Analyze([]string{"e1", "e2", "e3", "e6"}, opts)
	require.NoError(t, err)
	require.Equal(t, 3, a.Len(), "root, a and b have at least two hits")

	var buf bytes.Buffer
	w := NewTabWriter(&buf)
	require.NoError(t, w.WriteAnalysis("q", a, Selection{Top: 2}))
	require.NoError(t, w.Flush())
	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "q\ta\t"), "smallest q first: %s", lines[0])

	buf.Reset()
	w = NewTabWriter(&buf)
	require.NoError(t, w.WriteAnalysis("q", a, Selection{SignificantOnly: true}))
	require.NoError(t, w.Flush())
	assert.Equal(t, len(a.Significant()), strings.Count(buf.String(), "\n"))
}
