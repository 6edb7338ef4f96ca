package enrich

import (
	"time"

	"go.uber.org/zap"

	"github.com/inodb/vibe-enrich/internal/annotation"
	"github.com/inodb/vibe-enrich/internal/ontology"
)

// Enricher runs enrichment analyses against one ontology and its current
// background. SetBackground must not run concurrently with Analyze; any
// number of Analyze calls may run concurrently once the background is set.
type Enricher struct {
	graph      *ontology.Graph
	background *Background
	logger     *zap.Logger
}

// New creates an enricher over the given ontology.
func New(g *ontology.Graph) *Enricher {
	return &Enricher{
		graph:  g,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for progress and diagnostic messages.
func (e *Enricher) SetLogger(l *zap.Logger) {
	e.logger = l
}

// Graph returns the ontology.
func (e *Enricher) Graph() *ontology.Graph {
	return e.graph
}

// Background returns the current background, or nil if none is set.
func (e *Enricher) Background() *Background {
	return e.background
}

// State returns StateIdle until a background has been set.
func (e *Enricher) State() State {
	if e.background == nil {
		return StateIdle
	}
	return StateBackgroundSet
}

// SetBackground propagates a background table through the ontology,
// replacing any previous background. On error the enricher returns to
// StateIdle.
func (e *Enricher) SetBackground(table annotation.Table) error {
	e.background = nil

	start := time.Now()
	bg, err := Propagate(e.graph, table)
	if err != nil {
		return err
	}
	e.background = bg

	e.logger.Info("background propagated",
		zap.Int("rows", len(table)),
		zap.Int("population", bg.PopulationSize()),
		zap.Int("annotated_terms", bg.AnnotatedTerms()),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// Analyze validates opts, tests every term against the query and corrects
// the p-values. No partial result is returned on error.
func (e *Enricher) Analyze(query []string, opts Options) (*Analysis, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if e.background == nil {
		e.logger.Warn("no background set, nothing will be tested")
	}

	a, err := CalculatePValues(e.background, query, opts)
	if err != nil {
		return nil, err
	}
	if err := Correct(a, opts.Alpha, opts.Method); err != nil {
		return nil, err
	}

	e.logger.Debug("query analyzed",
		zap.Int("query_size", a.QuerySize()),
		zap.Int("tested", a.Len()),
		zap.Int("significant", len(a.Significant())),
		zap.String("method", string(a.Method())),
		zap.Float64("alpha", a.Alpha()))
	return a, nil
}
