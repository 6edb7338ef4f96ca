// Package ontology provides the category DAG used for enrichment analysis.
package ontology

import (
	"errors"
	"fmt"
	"sort"
)

// Errors returned while building or traversing a Graph.
var (
	ErrUnknownTerm   = errors.New("unknown term")
	ErrDuplicateTerm = errors.New("duplicate term")
	ErrCrossEdge     = errors.New("edge crosses namespaces")
	ErrCycle         = errors.New("ontology contains a cycle")
)

// Term is a single ontology category.
type Term struct {
	ID        string
	Name      string
	Namespace string
	Obsolete  bool
}

// Graph is a directed acyclic graph of terms with edges pointing from a
// child term to its parents. Each namespace has one root term.
type Graph struct {
	terms    map[string]*Term
	parents  map[string][]string
	children map[string][]string
	roots    map[string]string
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		terms:    make(map[string]*Term),
		parents:  make(map[string][]string),
		children: make(map[string][]string),
		roots:    make(map[string]string),
	}
}

// AddTerm adds a term to the graph.
func (g *Graph) AddTerm(t Term) error {
	if t.ID == "" {
		return fmt.Errorf("add term: empty id")
	}
	if _, ok := g.terms[t.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTerm, t.ID)
	}
	tt := t
	g.terms[t.ID] = &tt
	return nil
}

// AddEdge adds a child→parent edge. Both terms must exist and share a
// namespace. Repeated edges are ignored.
func (g *Graph) AddEdge(child, parent string) error {
	c, ok := g.terms[child]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTerm, child)
	}
	p, ok := g.terms[parent]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTerm, parent)
	}
	if child == parent {
		return fmt.Errorf("%w: self edge on %s", ErrCycle, child)
	}
	if c.Namespace != p.Namespace {
		return fmt.Errorf("%w: %s (%s) -> %s (%s)", ErrCrossEdge, child, c.Namespace, parent, p.Namespace)
	}
	for _, existing := range g.parents[child] {
		if existing == parent {
			return nil
		}
	}
	g.parents[child] = append(g.parents[child], parent)
	g.children[parent] = append(g.children[parent], child)
	return nil
}

// SetRoot configures the root term of a namespace.
func (g *Graph) SetRoot(namespace, id string) error {
	t, ok := g.terms[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTerm, id)
	}
	if t.Namespace != namespace {
		return fmt.Errorf("root %s belongs to namespace %q, not %q", id, t.Namespace, namespace)
	}
	g.roots[namespace] = id
	return nil
}

// Root returns the root term id for a namespace.
func (g *Graph) Root(namespace string) (string, bool) {
	id, ok := g.roots[namespace]
	return id, ok
}

// Roots returns a copy of the namespace→root mapping.
func (g *Graph) Roots() map[string]string {
	out := make(map[string]string, len(g.roots))
	for ns, id := range g.roots {
		out[ns] = id
	}
	return out
}

// Term returns the term with the given id, or nil.
func (g *Graph) Term(id string) *Term {
	return g.terms[id]
}

// Has reports whether the graph contains a term.
func (g *Graph) Has(id string) bool {
	_, ok := g.terms[id]
	return ok
}

// Len returns the number of terms.
func (g *Graph) Len() int {
	return len(g.terms)
}

// IDs returns all term ids in sorted order.
func (g *Graph) IDs() []string {
	ids := make([]string, 0, len(g.terms))
	for id := range g.terms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Parents returns the direct parents of a term.
func (g *Graph) Parents(id string) []string {
	return g.parents[id]
}

// Children returns the direct children of a term.
func (g *Graph) Children(id string) []string {
	return g.children[id]
}

// EdgeCount returns the number of child→parent edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, ps := range g.parents {
		n += len(ps)
	}
	return n
}

// ReverseTopological returns every term id ordered so that each term comes
// after all of its children. Ties are broken by id for a stable order.
func (g *Graph) ReverseTopological() ([]string, error) {
	pending := make(map[string]int, len(g.terms))
	var ready []string
	for id := range g.terms {
		pending[id] = len(g.children[id])
		if pending[id] == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(g.terms))
	for len(ready) > 0 {
		id := ready[0]
		ready = ready[1:]
		order = append(order, id)

		for _, p := range g.parents[id] {
			pending[p]--
			if pending[p] == 0 {
				ready = append(ready, p)
			}
		}
	}

	if len(order) != len(g.terms) {
		return nil, fmt.Errorf("%w: %d of %d terms unresolved", ErrCycle, len(g.terms)-len(order), len(g.terms))
	}
	return order, nil
}

// InferRoots sets the root of every namespace that has exactly one
// parentless, non-obsolete term. Namespaces with zero or several candidates
// are left unset and returned.
func (g *Graph) InferRoots() []string {
	candidates := make(map[string][]string)
	namespaces := make(map[string]bool)
	for id, t := range g.terms {
		if t.Obsolete {
			continue
		}
		namespaces[t.Namespace] = true
		if len(g.parents[id]) == 0 {
			candidates[t.Namespace] = append(candidates[t.Namespace], id)
		}
	}

	var unresolved []string
	for ns := range namespaces {
		if _, ok := g.roots[ns]; ok {
			continue
		}
		if c := candidates[ns]; len(c) == 1 {
			g.roots[ns] = c[0]
		} else {
			unresolved = append(unresolved, ns)
		}
	}
	sort.Strings(unresolved)
	return unresolved
}
