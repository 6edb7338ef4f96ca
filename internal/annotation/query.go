package annotation

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// LoadQuery reads a query entry list from disk. See ReadQuery.
func LoadQuery(path string) ([]string, error) {
	f, err := openFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadQuery(f)
}

// ReadQuery reads whitespace-separated entry ids. Text after "#" on a line
// is ignored. Ids are returned in first-seen order with duplicates removed.
func ReadQuery(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	// Whole gene lists are often written on a single line.
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 16*1024*1024)

	seen := make(map[string]struct{})
	var ids []string
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		for _, id := range strings.Fields(line) {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read query: %w", err)
	}
	return ids, nil
}
