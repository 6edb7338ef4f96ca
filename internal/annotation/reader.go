package annotation

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"
)

// GAF 2.x column names usable as the entry column.
const (
	ColDBObjectID     = "db_object_id"
	ColDBObjectSymbol = "db_object_symbol"
	ColGOID           = "go_id"
)

// gafColumns maps the GAF column names to their 0-based positions.
var gafColumns = map[string]int{
	"db":              0,
	ColDBObjectID:     1,
	ColDBObjectSymbol: 2,
	"qualifier":       3,
	ColGOID:           4,
	"db_reference":    5,
	"evidence_code":   6,
	"aspect":          8,
	"db_object_type":  11,
	"taxon":           12,
}

const gafMinColumns = 15

// openFile opens path for reading, transparently decompressing gzip
// content. "-" reads stdin.
func openFile(path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open annotation file: %w", err)
	}

	br := bufio.NewReader(file)
	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		return &gzipFile{Reader: gz, file: file}, nil
	}

	return &plainFile{Reader: br, file: file}, nil
}

type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	g.Reader.Close()
	return g.file.Close()
}

type plainFile struct {
	io.Reader
	file *os.File
}

func (p *plainFile) Close() error {
	return p.file.Close()
}

// LoadGAF reads a GO annotation file from disk. See ReadGAF.
func LoadGAF(path, entryColumn string) (Table, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadGAF(f, entryColumn)
}

// ReadGAF parses GAF 2.x content. entryColumn selects which column
// identifies the entry (ColDBObjectID or ColDBObjectSymbol). Rows carrying
// a NOT qualifier are skipped.
func ReadGAF(r io.Reader, entryColumn string) (Table, error) {
	entryIdx, ok := gafColumns[entryColumn]
	if !ok {
		return nil, fmt.Errorf("unknown GAF column %q", entryColumn)
	}
	qualifierIdx := gafColumns["qualifier"]
	goIdx := gafColumns[ColGOID]

	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var table Table
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		if line == "" || strings.HasPrefix(line, "!") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < gafMinColumns {
			return nil, &ParseError{
				Line:    lineNum,
				Message: fmt.Sprintf("expected at least %d columns, got %d", gafMinColumns, len(fields)),
			}
		}

		if hasNotQualifier(fields[qualifierIdx]) {
			continue
		}

		entry := strings.TrimSpace(fields[entryIdx])
		category := strings.TrimSpace(fields[goIdx])
		if entry == "" || category == "" {
			continue
		}
		table = append(table, Record{EntryID: entry, CategoryID: category})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read GAF: %w", err)
	}

	return table, nil
}

func hasNotQualifier(q string) bool {
	for _, part := range strings.Split(q, "|") {
		if strings.EqualFold(part, "NOT") {
			return true
		}
	}
	return false
}

// LoadTable reads a tab-delimited file with a header line from disk. See
// ReadTable.
func LoadTable(path, entryColumn, categoryColumn string) (Table, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTable(f, entryColumn, categoryColumn)
}

// ReadTable parses tab-delimited content whose first non-comment line is a
// header naming the columns. Lines starting with "#" before the header are
// skipped.
func ReadTable(r io.Reader, entryColumn, categoryColumn string) (Table, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	entryIdx, categoryIdx := -1, -1
	headerSeen := false
	lineNum := 0
	var table Table

	for scanner.Scan() {
		lineNum++
		line := strings.TrimRight(scanner.Text(), "\r")

		if !headerSeen {
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			for i, col := range strings.Split(line, "\t") {
				switch strings.TrimSpace(col) {
				case entryColumn:
					entryIdx = i
				case categoryColumn:
					categoryIdx = i
				}
			}
			if entryIdx < 0 || categoryIdx < 0 {
				return nil, &ParseError{
					Line:    lineNum,
					Message: fmt.Sprintf("header lacks columns %q and %q", entryColumn, categoryColumn),
				}
			}
			headerSeen = true
			continue
		}

		if line == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) <= entryIdx || len(fields) <= categoryIdx {
			return nil, &ParseError{
				Line:    lineNum,
				Message: fmt.Sprintf("expected at least %d columns, got %d", max(entryIdx, categoryIdx)+1, len(fields)),
			}
		}

		entry := strings.TrimSpace(fields[entryIdx])
		category := strings.TrimSpace(fields[categoryIdx])
		if entry == "" || category == "" {
			continue
		}
		table = append(table, Record{EntryID: entry, CategoryID: category})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}
	if !headerSeen {
		return nil, &ParseError{Line: lineNum, Message: "no header line found"}
	}

	return table, nil
}

// ParseError represents an error encountered while parsing a background table.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("annotation parse error at line %d: %s", e.Line, e.Message)
}
