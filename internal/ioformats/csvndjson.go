// Package ioformats reads batch inputs (page URLs or headlines) from CSV or
// NDJSON files and writes NDJSON output.
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

var ErrNoValues = errors.New("no values found")

// ReadURLs reads URLs from a CSV file with a "url" header column or from
// NDJSON lines that are raw URLs or {"url": "..."} objects.
func ReadURLs(path string) ([]string, error) { return ReadColumn(path, "url") }

// ReadHeadlines is ReadURLs for the "headline" column.
func ReadHeadlines(path string) ([]string, error) { return ReadColumn(path, "headline") }

// ReadColumn picks the format from the file extension. Unknown extensions
// are tried as CSV first, then as NDJSON.
func ReadColumn(path, key string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSV(f, key)
	case ".ndjson", ".jsonl":
		return ReadNDJSON(f, key)
	}
	if vals, err := ReadCSV(f, key); err == nil && len(vals) > 0 {
		return vals, nil
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}
	return ReadNDJSON(f, key)
}

func ReadCSV(r io.Reader, key string) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: empty csv", ErrNoValues)
	}
	col := -1
	for i, h := range rows[0] {
		if strings.EqualFold(strings.TrimSpace(h), key) {
			col = i
			break
		}
	}
	if col == -1 {
		return nil, fmt.Errorf("csv must contain a %q header column", key)
	}
	var out []string
	for _, row := range rows[1:] {
		if col < len(row) {
			if v := strings.TrimSpace(row[col]); v != "" {
				out = append(out, v)
			}
		}
	}
	return out, nil
}

// ReadNDJSON accepts a raw value per line or an object carrying key.
func ReadNDJSON(r io.Reader, key string) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "{") {
			var obj map[string]any
			if err := json.Unmarshal([]byte(line), &obj); err == nil {
				if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
					out = append(out, strings.TrimSpace(s))
				}
				continue
			}
		}
		out = append(out, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w in ndjson", ErrNoValues)
	}
	return out, nil
}

// WriteNDJSON writes items to w, one JSON document per line.
func WriteNDJSON[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	for _, it := range items {
		if err := enc.Encode(it); err != nil {
			return err
		}
	}
	return nil
}
