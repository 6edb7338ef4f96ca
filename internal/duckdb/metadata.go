package duckdb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileFingerprint holds stat-based identity for a file.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile creates a FileFingerprint from an on-disk file. The path is made
// absolute so fingerprints compare equal across working directories.
func StatFile(path string) (FileFingerprint, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{
		Path:    abs,
		Size:    info.Size(),
		ModTime: info.ModTime().UTC(),
	}, nil
}

// Source describes one file imported into the background.
type Source struct {
	FileFingerprint
	Format     string
	Rows       int64
	ImportedAt time.Time
}

// RecordSource notes that the fingerprinted file was imported.
func (s *Store) RecordSource(ctx context.Context, fp FileFingerprint, format string, rows int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sources VALUES (?, ?, ?, ?, ?, ?)`,
		fp.Path, fp.Size, formatTime(fp.ModTime), format, rows, formatTime(time.Now()))
	if err != nil {
		return fmt.Errorf("record source: %w", err)
	}
	return nil
}

// Imported reports whether a file with the same path, size and modification
// time has already been imported.
func (s *Store) Imported(ctx context.Context, fp FileFingerprint) (bool, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sources WHERE path = ? AND size = ? AND mod_time = ?`,
		fp.Path, fp.Size, formatTime(fp.ModTime)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("query sources: %w", err)
	}
	return n > 0, nil
}

// Sources returns the import history, oldest first.
func (s *Store) Sources(ctx context.Context) ([]Source, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, size, mod_time, file_format, row_count, imported_at FROM sources ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	var sources []Source
	for rows.Next() {
		var (
			src                 Source
			modTime, importedAt string
		)
		if err := rows.Scan(&src.Path, &src.Size, &modTime, &src.Format, &src.Rows, &importedAt); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		if src.ModTime, err = time.Parse(time.RFC3339Nano, modTime); err != nil {
			return nil, fmt.Errorf("parse source mod_time: %w", err)
		}
		if src.ImportedAt, err = time.Parse(time.RFC3339Nano, importedAt); err != nil {
			return nil, fmt.Errorf("parse source imported_at: %w", err)
		}
		sources = append(sources, src)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sources: %w", err)
	}
	return sources, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
