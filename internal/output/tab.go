// Package output provides enrichment result formatters.
package output

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-enrich/internal/enrich"
)

// Selection restricts which results of an analysis are written.
type Selection struct {
	SignificantOnly bool
	Top             int // 0 writes all
}

// TabWriter writes enrichment results in tab-delimited format.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{
		w: bufio.NewWriter(w),
		columns: []string{
			"#query",
			"term",
			"name",
			"namespace",
			"n",
			"N",
			"M",
			"x",
			"p",
			"q",
			"significant",
			"hits",
		},
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes a single term result.
func (tw *TabWriter) Write(query string, r *enrich.TermResult) error {
	name := r.Name
	if name == "" {
		name = "-"
	}
	hits := "-"
	if len(r.Hits) > 0 {
		hits = strings.Join(r.Hits, ",")
	}
	significant := "-"
	if r.Significant {
		significant = "YES"
	}

	values := []string{
		query,
		r.ID,
		name,
		r.Namespace,
		strconv.Itoa(r.CategorySize),
		strconv.Itoa(r.QuerySize),
		strconv.Itoa(r.PopulationSize),
		strconv.Itoa(r.HitCount),
		formatFloat(r.P),
		formatFloat(r.Q),
		significant,
		hits,
	}

	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// WriteAnalysis writes the selected results of an analysis in q-value
// order.
func (tw *TabWriter) WriteAnalysis(query string, a *enrich.Analysis, sel Selection) error {
	results := a.Results()
	if sel.SignificantOnly {
		results = a.Significant()
	}
	if sel.Top > 0 && sel.Top < len(results) {
		results = results[:sel.Top]
	}
	for _, r := range results {
		if err := tw.Write(query, r); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
