package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/vibe-enrich/internal/annotation"
	"github.com/inodb/vibe-enrich/internal/duckdb"
	"github.com/inodb/vibe-enrich/internal/enrich"
	"github.com/inodb/vibe-enrich/internal/metrics"
	"github.com/inodb/vibe-enrich/internal/ontology"
	"github.com/inodb/vibe-enrich/internal/output"
)

// Background formats
const (
	formatGAF    = "gaf"
	formatTable  = "table"
	formatDuckDB = "duckdb"
)

const (
	defaultTableEntryColumn    = "entry"
	defaultTableCategoryColumn = "category"
)

// analysisKeys maps viper keys to the analyze flags that override them.
var analysisKeys = map[string]string{
	"analysis.min_hit_size":      "min-hit-size",
	"analysis.min_category_size": "min-category-size",
	"analysis.max_category_size": "max-category-size",
	"analysis.alpha":             "alpha",
	"analysis.method":            "method",
	"ontology.part_of":           "part-of",
}

type analyzeOptions struct {
	ontologyPath     string
	backgroundPath   string
	backgroundFormat string
	entryColumn      string
	categoryColumn   string
	outputPath       string
	top              int
	significantOnly  bool
	dropUnknown      bool
	metricsFile      string
	workers          int
}

func newAnalyzeCmd() *cobra.Command {
	var o analyzeOptions
	defaults := enrich.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "analyze [flags] <query-file>...",
		Short: "Test query lists for over-represented ontology terms",
		Long: `Propagate the background annotations through the ontology, then test every
term against each query list. Query files hold whitespace-separated entry
ids; text after '#' is ignored. Use '-' to read a query from stdin.

Results of all queries are written as one tab-delimited table, in the order
the query files were given.`,
		Example: `  vibe-enrich analyze --ontology go-basic.obo --background goa_human.gaf.gz genes.txt
  vibe-enrich analyze --ontology go.obo --background bg.duckdb --method bonferroni --alpha 0.01 a.txt b.txt
  vibe-enrich analyze --ontology go.obo --background bg.tsv --entry-column gene --category-column go_id --top 20 -`,
		Args: minimumArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			for key, flag := range analysisKeys {
				if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
					return err
				}
			}
			if o.ontologyPath == "" || o.backgroundPath == "" {
				return usageError{fmt.Errorf("--ontology and --background are required")}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd.Context(), cmd.OutOrStdout(), o, args)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.ontologyPath, "ontology", "", "Ontology in OBO format (.obo or .obo.gz)")
	f.StringVar(&o.backgroundPath, "background", "", "Background annotations (GAF, tab-delimited table or DuckDB file)")
	f.StringVar(&o.backgroundFormat, "background-format", "", "Background format: gaf, table, duckdb (auto-detected if not specified)")
	f.StringVar(&o.entryColumn, "entry-column", "", "Entry id column (default: db_object_symbol for GAF, entry for tables)")
	f.StringVar(&o.categoryColumn, "category-column", defaultTableCategoryColumn, "Category id column of a tab-delimited background")
	f.Bool("part-of", false, "Also propagate along part_of relationships")
	f.Int("min-hit-size", defaults.MinHitSize, "Minimum number of query entries annotated to a term")
	f.Int("min-category-size", defaults.MinCategorySize, "Minimum propagated background size of a tested term")
	f.Int("max-category-size", defaults.MaxCategorySize, "Maximum propagated background size of a tested term")
	f.Float64("alpha", defaults.Alpha, "Significance level")
	f.String("method", string(defaults.Method), "Multiple testing correction: bonferroni, benjamini-hochberg")
	f.StringVarP(&o.outputPath, "output", "o", "", "Output file (default: stdout)")
	f.IntVar(&o.top, "top", 0, "Only report the N terms with the smallest q-values per query")
	f.BoolVar(&o.significantOnly, "significant-only", false, "Only report significant terms")
	f.BoolVar(&o.dropUnknown, "drop-unknown-categories", false, "Drop annotations to categories missing from the ontology instead of failing")
	f.StringVar(&o.metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile")
	f.IntVar(&o.workers, "workers", 0, "Number of queries analyzed in parallel (default: number of CPUs)")

	return cmd
}

// optionsFromConfig builds analysis options from viper, where flags,
// environment and config file have already been merged.
func optionsFromConfig() (enrich.Options, error) {
	method, err := enrich.ParseMethod(viper.GetString("analysis.method"))
	if err != nil {
		return enrich.Options{}, usageError{err}
	}
	opts := enrich.Options{
		MinHitSize:      viper.GetInt("analysis.min_hit_size"),
		MinCategorySize: viper.GetInt("analysis.min_category_size"),
		MaxCategorySize: viper.GetInt("analysis.max_category_size"),
		Alpha:           viper.GetFloat64("analysis.alpha"),
		Method:          method,
	}
	if err := opts.Validate(); err != nil {
		return enrich.Options{}, usageError{err}
	}
	return opts, nil
}

func runAnalyze(ctx context.Context, stdout io.Writer, o analyzeOptions, queryPaths []string) error {
	opts, err := optionsFromConfig()
	if err != nil {
		return err
	}

	format := o.backgroundFormat
	if format == "" {
		format = detectBackgroundFormat(o.backgroundPath)
	}
	entryColumn := resolveEntryColumn(format, o.entryColumn)

	var (
		graph   *ontology.Graph
		table   annotation.Table
		queries = make([][]string, len(queryPaths))
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		loader := ontology.NewOBOLoader(o.ontologyPath)
		loader.SetPartOf(viper.GetBool("ontology.part_of"))
		var err error
		graph, err = loader.Load()
		if err != nil {
			return fmt.Errorf("loading ontology: %w", err)
		}
		logger.Info("ontology loaded",
			zap.String("path", o.ontologyPath),
			zap.Int("terms", graph.Len()),
			zap.Int("edges", graph.EdgeCount()),
			zap.Int("skipped_edges", loader.SkippedEdges()),
			zap.Int("namespaces", len(graph.Roots())))
		if unresolved := loader.UnresolvedNamespaces(); len(unresolved) > 0 {
			logger.Warn("namespaces without a unique root, their terms cannot be annotated",
				zap.Strings("namespaces", unresolved))
		}
		return nil
	})
	g.Go(func() error {
		var err error
		table, err = loadBackground(gctx, format, o.backgroundPath, entryColumn, o.categoryColumn)
		if err != nil {
			return fmt.Errorf("loading background: %w", err)
		}
		logger.Info("background loaded",
			zap.String("path", o.backgroundPath),
			zap.String("format", format),
			zap.Int("rows", len(table)),
			zap.Int("entries", table.EntryCount()))
		return nil
	})
	for i, path := range queryPaths {
		g.Go(func() error {
			ids, err := annotation.LoadQuery(path)
			if err != nil {
				return fmt.Errorf("loading query %s: %w", path, err)
			}
			queries[i] = ids
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if o.dropUnknown {
		var dropped int
		table, dropped = table.Filter(graph.Has)
		if dropped > 0 {
			logger.Warn("dropped annotations to categories missing from the ontology",
				zap.Int("rows", dropped))
		}
	}

	rec := metrics.NewRecorder()
	e := enrich.New(graph)
	e.SetLogger(logger)

	start := time.Now()
	if err := e.SetBackground(table); err != nil {
		return err
	}
	bg := e.Background()
	rec.ObserveBackground(time.Since(start), bg.PopulationSize(), bg.AnnotatedTerms())

	out := stdout
	if o.outputPath != "" {
		f, err := os.Create(o.outputPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	tw := output.NewTabWriter(out)
	if err := tw.WriteHeader(); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	items := make(chan enrich.QueryItem)
	go func() {
		defer close(items)
		for i, path := range queryPaths {
			items <- enrich.QueryItem{Seq: i, Name: queryName(path), Query: queries[i]}
		}
	}()

	sel := output.Selection{SignificantOnly: o.significantOnly, Top: o.top}
	err = enrich.OrderedCollect(e.ParallelAnalyze(items, opts, o.workers), func(r enrich.QueryResult) error {
		if r.Err != nil {
			rec.ObserveFailure()
			return fmt.Errorf("analyzing %s: %w", r.Name, r.Err)
		}
		s := r.Analysis.Summarize()
		rec.ObserveAnalysis(r.Elapsed, s.Tested, s.Significant)
		logger.Info("query analyzed",
			zap.String("query", r.Name),
			zap.Int("query_size", r.Analysis.QuerySize()),
			zap.Int("tested", s.Tested),
			zap.Int("significant", s.Significant),
			zap.Float64("min_p", s.MinP),
			zap.Float64("min_q", s.MinQ),
			zap.Float64("median_hits", s.MedianHitCount))
		return tw.WriteAnalysis(r.Name, r.Analysis, sel)
	})
	if err != nil {
		return err
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("flushing output: %w", err)
	}

	if o.metricsFile != "" {
		if err := rec.WriteTextfile(o.metricsFile); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}
	return nil
}

// loadBackground reads the background table in the given format.
func loadBackground(ctx context.Context, format, path, entryColumn, categoryColumn string) (annotation.Table, error) {
	switch format {
	case formatGAF:
		return annotation.LoadGAF(path, entryColumn)
	case formatTable:
		return annotation.LoadTable(path, entryColumn, categoryColumn)
	case formatDuckDB:
		// Open would create a missing database.
		if _, err := os.Stat(path); err != nil {
			return nil, err
		}
		store, err := duckdb.Open(path)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		sources, err := store.Sources(ctx)
		if err != nil {
			return nil, err
		}
		for _, src := range sources {
			logger.Debug("background source",
				zap.String("path", src.Path),
				zap.String("format", src.Format),
				zap.Int64("rows", src.Rows),
				zap.Time("imported_at", src.ImportedAt))
		}
		return store.Records(ctx)
	default:
		return nil, usageError{fmt.Errorf("unknown background format %q", format)}
	}
}

// resolveEntryColumn returns the entry column to read, defaulting by format.
func resolveEntryColumn(format, column string) string {
	if column != "" {
		return column
	}
	if format == formatGAF {
		return annotation.ColDBObjectSymbol
	}
	return defaultTableEntryColumn
}

// detectBackgroundFormat detects the background format based on extension
// or content.
func detectBackgroundFormat(path string) string {
	lowerPath := strings.ToLower(path)
	lowerPath = strings.TrimSuffix(lowerPath, ".gz")

	switch filepath.Ext(lowerPath) {
	case ".gaf":
		return formatGAF
	case ".duckdb", ".ddb":
		return formatDuckDB
	}

	if path == "-" || strings.HasSuffix(strings.ToLower(path), ".gz") {
		return formatTable
	}

	file, err := os.Open(path)
	if err != nil {
		return formatTable
	}
	defer file.Close()

	// DuckDB database files carry "DUCK" at byte offset 8.
	head, _ := bufio.NewReader(file).Peek(512)
	if len(head) >= 12 && string(head[8:12]) == "DUCK" {
		return formatDuckDB
	}
	if strings.HasPrefix(string(head), "!gaf-version") {
		return formatGAF
	}
	return formatTable
}

func queryName(path string) string {
	if path == "-" {
		return "stdin"
	}
	return filepath.Base(path)
}
