
package ioformats

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// urlKeys are the column names (CSV) or object keys (NDJSON) that hold a URL.
// title_link lets the ndjson written by "list" be fed straight back in.
var urlKeys = []string{"url", "title_link"}

// ReadURLs reads article URLs from a CSV file (header with a "url" or
// "title_link" column) or an NDJSON file (raw URLs or objects carrying one
// of those keys). Unknown extensions try CSV first, then NDJSON.
func ReadURLs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(f)
	case ".ndjson", ".jsonl":
		return readNDJSON(f)
	default:
		if urls, err := readCSV(f); err == nil && len(urls) > 0 {
			return urls, nil
		}
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		return readNDJSON(f)
	}
}

func readCSV(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("empty csv")
	}
	col := -1
	for i, h := range rows[0] {
		if isURLKey(strings.TrimSpace(h)) {
			col = i
			break
		}
	}
	if col == -1 {
		return nil, errors.New("csv must contain a 'url' or 'title_link' header column")
	}
	var out []string
	for _, row := range rows[1:] {
		if col < len(row) {
			if u := strings.TrimSpace(row[col]); u != "" {
				out = append(out, u)
			}
		}
	}
	return out, nil
}

func readNDJSON(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	// listing records with embedded details can exceed the default token size
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "{") {
			var obj map[string]any
			if err := json.Unmarshal([]byte(line), &obj); err == nil {
				if u := urlFromObject(obj); u != "" {
					out = append(out, u)
				}
				continue
			}
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read ndjson: %w", err)
	}
	if len(out) == 0 {
		return nil, errors.New("no urls found in ndjson")
	}
	return out, nil
}

func urlFromObject(obj map[string]any) string {
	for _, k := range urlKeys {
		if s, ok := obj[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

func isURLKey(name string) bool {
	for _, k := range urlKeys {
		if strings.EqualFold(name, k) {
			return true
		}
	}
	return false
}
