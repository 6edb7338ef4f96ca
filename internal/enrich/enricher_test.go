package enrich

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestEnricher_Lifecycle(t *testing.T) {
	g, table := starGraph(t)
	e := New(g)
	assert.Same(t, g, e.Graph())
	assert.Equal(t, StateIdle, e.State())
	assert.Nil(t, e.Background())

	require.NoError(t, e.SetBackground(table))
	assert.Equal(t, StateBackgroundSet, e.State())
	require.NotNil(t, e.Background())

	a, err := e.Analyze([]string{"e0", "e1", "e2", "e3"}, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, StateCorrected, a.State())
	assert.Equal(t, BenjaminiHochberg, a.Method())
	assert.Equal(t, 0.05, a.Alpha())
	for _, r := range a.Results() {
		assert.GreaterOrEqual(t, r.Q, r.P)
	}
}

func TestEnricher_AnalyzeWithoutBackground(t *testing.T) {
	g, _ := starGraph(t)
	e := New(g)

	a, err := e.Analyze([]string{"e0", "e1"}, DefaultOptions())
	require.NoError(t, err)
	assert.Zero(t, a.Len())
}

func TestEnricher_AnalyzeValidatesOptions(t *testing.T) {
	g, table := starGraph(t)
	e := New(g)
	require.NoError(t, e.SetBackground(table))

	opts := DefaultOptions()
	opts.Method = "holm"
	a, err := e.Analyze([]string{"e0", "e1"}, opts)
	assert.ErrorIs(t, err, ErrUnknownMethod)
	assert.Nil(t, a)

	opts = DefaultOptions()
	opts.MaxCategorySize = 1
	_, err = e.Analyze([]string{"e0", "e1"}, opts)
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestEnricher_SwitchBackground(t *testing.T) {
	g := diamondGraph(t)
	e := New(g)

	require.NoError(t, e.SetBackground(records("a", "leaf", "b", "leaf", "c", "left")))
	assert.Equal(t, []string{"a", "b", "c"}, e.Background().Entries("root"))

	require.NoError(t, e.SetBackground(records("x", "right")))
	assert.Equal(t, []string{"x"}, e.Background().Entries("root"))
	assert.Equal(t, 1, e.Background().PopulationSize())
	assert.Zero(t, e.Background().Size("leaf"))
}

func TestEnricher_SetBackgroundErrorResets(t *testing.T) {
	g := diamondGraph(t)
	e := New(g)
	require.NoError(t, e.SetBackground(records("a", "leaf")))

	err := e.SetBackground(records("a", "GO:missing"))
	assert.ErrorIs(t, err, ErrInvalidCategory)
	assert.Equal(t, StateIdle, e.State())
	assert.Nil(t, e.Background())
}

func TestEnricher_Logging(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	g, table := starGraph(t)
	e := New(g)
	e.SetLogger(zap.New(core))

	_, err := e.Analyze([]string{"e0"}, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("no background set, nothing will be tested").Len())

	require.NoError(t, e.SetBackground(table))
	entries := logs.FilterMessage("background propagated").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(100), entries[0].ContextMap()["population"])

	_, err = e.Analyze([]string{"e0", "e1", "e2"}, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("query analyzed").Len())
}
