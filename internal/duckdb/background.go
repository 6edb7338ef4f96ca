package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-enrich/internal/annotation"
)

// WriteRecords batch-inserts background rows using the Appender API.
// Duplicate (entry, category) pairs are dropped before writing.
func (s *Store) WriteRecords(ctx context.Context, table annotation.Table) error {
	if len(table) == 0 {
		return nil
	}

	seen := make(map[annotation.Record]bool, len(table))
	deduped := make(annotation.Table, 0, len(table))
	for _, r := range table {
		if !seen[r] {
			seen[r] = true
			deduped = append(deduped, r)
		}
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "background")
		return err
	}); err != nil {
		return fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, r := range deduped {
		if err := appender.AppendRow(r.EntryID, r.CategoryID); err != nil {
			return fmt.Errorf("append background row: %w", err)
		}
	}

	return appender.Flush()
}

// ImportFile loads background rows from a delimited file (CSV, TSV,
// optionally gzipped) using DuckDB's CSV reader. entryColumn and
// categoryColumn name header columns. Fields are trimmed and rows with an
// empty entry or category are skipped, as annotation.ReadTable does.
// Returns the number of rows inserted.
func (s *Store) ImportFile(ctx context.Context, path, entryColumn, categoryColumn string) (int64, error) {
	query := fmt.Sprintf(`INSERT INTO background
		SELECT DISTINCT entry_id, category_id FROM (
			SELECT %s AS entry_id, %s AS category_id
			FROM read_csv_auto(%s, header = true, all_varchar = true)
		)
		WHERE entry_id IS NOT NULL AND category_id IS NOT NULL`,
		trimmedField(entryColumn), trimmedField(categoryColumn), quoteLiteral(path))

	res, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("import %s: %w", path, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("import %s: %w", path, err)
	}
	return n, nil
}

// Records returns the distinct background rows ordered by category, then
// entry.
func (s *Store) Records(ctx context.Context) (annotation.Table, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT entry_id, category_id
		FROM background
		ORDER BY category_id, entry_id`)
	if err != nil {
		return nil, fmt.Errorf("query background: %w", err)
	}
	defer rows.Close()

	var table annotation.Table
	for rows.Next() {
		var r annotation.Record
		if err := rows.Scan(&r.EntryID, &r.CategoryID); err != nil {
			return nil, fmt.Errorf("scan background row: %w", err)
		}
		table = append(table, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate background: %w", err)
	}
	return table, nil
}

// Stats holds counts over the stored background.
type Stats struct {
	Rows       int64
	Entries    int64
	Categories int64
}

// Stats returns distinct row, entry and category counts.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.db.QueryRowContext(ctx, `SELECT
		(SELECT COUNT(*) FROM (SELECT DISTINCT entry_id, category_id FROM background)),
		COUNT(DISTINCT entry_id),
		COUNT(DISTINCT category_id)
		FROM background`).Scan(&st.Rows, &st.Entries, &st.Categories)
	if err != nil {
		return Stats{}, fmt.Errorf("background stats: %w", err)
	}
	return st, nil
}

// Clear removes all stored background rows and their import sources.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM background"); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, "DELETE FROM sources")
	return err
}

// trimmedField selects a column with surrounding whitespace removed, NULL
// when nothing remains.
func trimmedField(column string) string {
	return fmt.Sprintf(`NULLIF(TRIM(CAST(%s AS VARCHAR), ' ' || chr(9) || chr(10) || chr(11) || chr(12) || chr(13)), '')`,
		quoteIdent(column))
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return `'` + strings.ReplaceAll(s, `'`, `''`) + `'`
}
