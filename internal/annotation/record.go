// Package annotation reads background tables that map entries (genes or
// proteins) to ontology categories.
package annotation

import "sort"

// Record is one (entry, category) row of a background table.
type Record struct {
	EntryID    string
	CategoryID string
}

// Table is a background table.
type Table []Record

// EntryCount returns the number of distinct entry ids.
func (t Table) EntryCount() int {
	seen := make(map[string]struct{}, len(t))
	for _, r := range t {
		seen[r.EntryID] = struct{}{}
	}
	return len(seen)
}

// ByCategory groups entry ids by category. Each entry list is sorted and
// free of duplicates.
func (t Table) ByCategory() map[string][]string {
	sets := make(map[string]map[string]struct{})
	for _, r := range t {
		s, ok := sets[r.CategoryID]
		if !ok {
			s = make(map[string]struct{})
			sets[r.CategoryID] = s
		}
		s[r.EntryID] = struct{}{}
	}

	out := make(map[string][]string, len(sets))
	for cat, s := range sets {
		entries := make([]string, 0, len(s))
		for e := range s {
			entries = append(entries, e)
		}
		sort.Strings(entries)
		out[cat] = entries
	}
	return out
}

// Filter returns the rows whose category satisfies keep, and the number of
// rows dropped.
func (t Table) Filter(keep func(categoryID string) bool) (Table, int) {
	out := make(Table, 0, len(t))
	for _, r := range t {
		if keep(r.CategoryID) {
			out = append(out, r)
		}
	}
	return out, len(t) - len(out)
}
