package ontology

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

// OBOLoader builds a Graph from an OBO 1.2/1.4 flat file.
type OBOLoader struct {
	path         string
	partOf       bool
	skippedEdges int
	unresolved   []string
}

// NewOBOLoader creates a new OBO loader.
func NewOBOLoader(path string) *OBOLoader {
	return &OBOLoader{path: path}
}

// SetPartOf configures whether part_of relationships become graph edges in
// addition to is_a.
func (l *OBOLoader) SetPartOf(partOf bool) {
	l.partOf = partOf
}

// SkippedEdges returns how many edges the last Load dropped because they
// pointed at an unknown or obsolete term, or crossed namespaces.
func (l *OBOLoader) SkippedEdges() int {
	return l.skippedEdges
}

// UnresolvedNamespaces returns the namespaces the last Load could not
// assign a root to, because they have zero or several parentless terms.
// Annotations to terms in these namespaces fail propagation.
func (l *OBOLoader) UnresolvedNamespaces() []string {
	return l.unresolved
}

// Load reads the OBO file and returns the graph with per-namespace roots set.
func (l *OBOLoader) Load() (*Graph, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open OBO file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f

	if strings.HasSuffix(l.path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("open gzip reader: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	return l.Parse(reader)
}

// oboStanza is a parsed [Term] block.
type oboStanza struct {
	term   Term
	isA    []string
	partOf []string
	line   int
}

// Parse reads OBO content from r.
func (l *OBOLoader) Parse(r io.Reader) (*Graph, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var (
		stanzas          []*oboStanza
		current          *oboStanza
		defaultNamespace string
		inHeader         = true
		lineNum          int
	)

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "!") {
			continue
		}

		if strings.HasPrefix(line, "[") {
			inHeader = false
			current = nil
			if line == "[Term]" {
				current = &oboStanza{line: lineNum}
				stanzas = append(stanzas, current)
			}
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			return nil, &ParseError{Line: lineNum, Message: fmt.Sprintf("expected tag-value pair, got %q", line)}
		}
		value = stripComment(strings.TrimSpace(value))

		if inHeader {
			if key == "default-namespace" {
				defaultNamespace = value
			}
			continue
		}
		if current == nil {
			continue // [Typedef] and other stanza types
		}

		switch key {
		case "id":
			current.term.ID = value
		case "name":
			current.term.Name = value
		case "namespace":
			current.term.Namespace = value
		case "is_obsolete":
			current.term.Obsolete = value == "true"
		case "is_a":
			current.isA = append(current.isA, firstField(value))
		case "relationship":
			fields := strings.Fields(value)
			if len(fields) >= 2 && fields[0] == "part_of" {
				current.partOf = append(current.partOf, fields[1])
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read OBO: %w", err)
	}

	g := NewGraph()
	for _, s := range stanzas {
		if s.term.ID == "" {
			return nil, &ParseError{Line: s.line, Message: "term stanza without id"}
		}
		if s.term.Obsolete {
			continue
		}
		if s.term.Namespace == "" {
			s.term.Namespace = defaultNamespace
		}
		if err := g.AddTerm(s.term); err != nil {
			return nil, &ParseError{Line: s.line, Message: err.Error()}
		}
	}

	l.skippedEdges = 0
	for _, s := range stanzas {
		if s.term.Obsolete {
			continue
		}
		parents := s.isA
		if l.partOf {
			parents = append(parents, s.partOf...)
		}
		for _, p := range parents {
			if err := g.AddEdge(s.term.ID, p); err != nil {
				l.skippedEdges++
			}
		}
	}

	l.unresolved = g.InferRoots()

	return g, nil
}

// stripComment removes a trailing "! comment" from an OBO value.
func stripComment(v string) string {
	if i := strings.Index(v, " !"); i >= 0 {
		return strings.TrimSpace(v[:i])
	}
	return v
}

func firstField(v string) string {
	if i := strings.IndexAny(v, " \t{"); i >= 0 {
		return v[:i]
	}
	return v
}

// ParseError represents an error encountered while parsing an OBO file.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("obo parse error at line %d: %s", e.Line, e.Message)
}
