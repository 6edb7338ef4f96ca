package enrich

import (
	"runtime"
	"sync"
	"time"
)

// QueryItem is one query submitted for parallel analysis.
type QueryItem struct {
	Seq   int
	Name  string
	Query []string
}

// QueryResult holds the analysis of a single query.
type QueryResult struct {
	Seq      int
	Name     string
	Analysis *Analysis
	Elapsed  time.Duration
	Err      error
}

// ParallelAnalyze runs Analyze for every submitted query on a pool of
// workers that share the current background, each query getting its own
// Analysis. Analyses are emitted as they finish; OrderedCollect restores
// submission order. workers <= 0 means one worker per CPU.
func (e *Enricher) ParallelAnalyze(items <-chan QueryItem, opts Options, workers int) <-chan QueryResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan QueryResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for item := range items {
				start := time.Now()
				a, err := e.Analyze(item.Query, opts)
				results <- QueryResult{
					Seq:      item.Seq,
					Name:     item.Name,
					Analysis: a,
					Elapsed:  time.Since(start),
					Err:      err,
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect hands each finished query analysis to fn in submission
// (Seq) order, holding back analyses that finish early. If fn fails, the
// remaining analyses are discarded so the workers can exit, and the error
// is returned.
func OrderedCollect(results <-chan QueryResult, fn func(QueryResult) error) error {
	held := make(map[int]QueryResult)
	want := 0

	for r := range results {
		held[r.Seq] = r
		for next, ok := held[want]; ok; next, ok = held[want] {
			delete(held, want)
			want++
			if err := fn(next); err != nil {
				for range results {
				}
				return err
			}
		}
	}

	return nil
}
