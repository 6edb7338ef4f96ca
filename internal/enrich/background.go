// Package enrich implements ontology enrichment analysis: background
// propagation over the ontology DAG, one-sided hypergeometric testing and
// multiple testing correction.
package enrich

import (
	"fmt"
	"sort"

	"github.com/inodb/vibe-enrich/internal/annotation"
	"github.com/inodb/vibe-enrich/internal/ontology"
)

// Background holds the propagated entry set of every term together with the
// population size M. It is read-only once built and may be shared between
// concurrent analyses.
type Background struct {
	graph *ontology.Graph
	m     int
	sets  map[string]map[string]struct{}
}

// Graph returns the ontology the background was propagated over.
func (b *Background) Graph() *ontology.Graph {
	return b.graph
}

// PopulationSize returns M, the number of distinct entries in the
// background table.
func (b *Background) PopulationSize() int {
	return b.m
}

// Size returns the number of entries annotated to a term after propagation.
func (b *Background) Size(id string) int {
	return len(b.sets[id])
}

// Contains reports whether entry is in the background of a term.
func (b *Background) Contains(id, entry string) bool {
	_, ok := b.sets[id][entry]
	return ok
}

// Entries returns the sorted background of a term.
func (b *Background) Entries(id string) []string {
	s := b.sets[id]
	out := make([]string, 0, len(s))
	for e := range s {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}

// AnnotatedTerms returns the number of terms with a non-empty background.
func (b *Background) AnnotatedTerms() int {
	n := 0
	for _, s := range b.sets {
		if len(s) > 0 {
			n++
		}
	}
	return n
}

// Propagate builds the background of every term in g from a background
// table. Each category's entries are unioned into the category itself and
// every ancestor up to its namespace root. Terms are visited children
// first, so every node pushes its accumulated set to its direct parents
// exactly once.
func Propagate(g *ontology.Graph, table annotation.Table) (*Background, error) {
	b := &Background{
		graph: g,
		m:     table.EntryCount(),
		sets:  make(map[string]map[string]struct{}, g.Len()),
	}

	for category, entries := range table.ByCategory() {
		term := g.Term(category)
		if term == nil {
			return nil, fmt.Errorf("%w: %s is not in the ontology", ErrInvalidCategory, category)
		}
		if _, ok := g.Root(term.Namespace); !ok {
			return nil, fmt.Errorf("%w: namespace %q of %s", ErrMissingRoot, term.Namespace, category)
		}
		s := make(map[string]struct{}, len(entries))
		for _, e := range entries {
			s[e] = struct{}{}
		}
		b.sets[category] = s
	}

	order, err := g.ReverseTopological()
	if err != nil {
		return nil, err
	}

	for _, id := range order {
		s := b.sets[id]
		if len(s) == 0 {
			continue
		}
		for _, p := range g.Parents(id) {
			ps, ok := b.sets[p]
			if !ok {
				ps = make(map[string]struct{}, len(s))
				b.sets[p] = ps
			}
			for e := range s {
				ps[e] = struct{}{}
			}
		}
	}

	return b, nil
}
