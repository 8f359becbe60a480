package store

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// utf8BOM matches the utf-8-sig encoding the store files were created with
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// LoadError is a fatal input problem: the canonical store cannot be trusted,
// so the run aborts before anything is written.
type LoadError struct {
	Path     string
	Problems []string
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %s", e.Path, strings.Join(e.Problems, "; "))
}

// Record is one row of the canonical store. Every cell is kept by column
// name so columns the reconciliation logic does not understand round-trip
// verbatim.
type Record struct {
	key    string
	fields map[string]string
}

// Key returns the record's canonical name (the value of the key column)
func (r *Record) Key() string { return r.key }

// Get returns the raw cell value for a column
func (r *Record) Get(column string) string { return r.fields[column] }

// Set replaces the cell value for a column
func (r *Record) Set(column, value string) { r.fields[column] = value }

// Empty reports whether a cell is absent or blank
func (r *Record) Empty(column string) bool {
	return strings.TrimSpace(r.fields[column]) == ""
}

// Dataset is the in-memory canonical store: an ordered record collection
// plus the column order needed to reproduce the file layout.
type Dataset struct {
	Path      string
	KeyColumn string
	Columns   []string
	Records   []*Record

	byKey map[string]*Record
}

// Lookup returns the record for an exact canonical key
func (d *Dataset) Lookup(key string) (*Record, bool) {
	r, ok := d.byKey[key]
	return r, ok
}

// Keys returns every canonical key in row order
func (d *Dataset) Keys() []string {
	keys := make([]string, 0, len(d.Records))
	for _, r := range d.Records {
		keys = append(keys, r.key)
	}
	return keys
}

// Load reads a CSV store into an ordered Dataset. Row and column order are
// preserved. Fails with a LoadError if the key column is missing, any row is
// ragged, or keys are duplicated — duplicates are listed, never merged.
func Load(path, keyColumn string) (*Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Problems: []string{err.Error()}}
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(raw))
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &LoadError{Path: path, Problems: []string{err.Error()}}
	}
	if len(rows) == 0 {
		return nil, &LoadError{Path: path, Problems: []string{"empty file, no header row"}}
	}

	header := rows[0]
	keyIdx := -1
	for i, col := range header {
		if col == keyColumn {
			keyIdx = i
			break
		}
	}
	if keyIdx < 0 {
		return nil, &LoadError{Path: path, Problems: []string{
			fmt.Sprintf("key column %q not found in header", keyColumn),
		}}
	}

	ds := &Dataset{
		Path:      path,
		KeyColumn: keyColumn,
		Columns:   header,
		byKey:     make(map[string]*Record, len(rows)-1),
	}

	var problems []string
	seen := make(map[string]int)
	for n, row := range rows[1:] {
		key := strings.TrimSpace(row[keyIdx])
		if key == "" {
			problems = append(problems, fmt.Sprintf("row %d: empty key", n+2))
			continue
		}
		seen[key]++

		rec := &Record{key: key, fields: make(map[string]string, len(header))}
		for i, col := range header {
			rec.fields[col] = row[i]
		}
		ds.Records = append(ds.Records, rec)
		ds.byKey[key] = rec
	}

	for key, count := range seen {
		if count > 1 {
			problems = append(problems, fmt.Sprintf("duplicate key %q (%d rows)", key, count))
		}
	}
	if len(problems) > 0 {
		return nil, &LoadError{Path: path, Problems: problems}
	}

	return ds, nil
}

// Write re-serializes the dataset to path. Output is deterministic (same
// column order, same row order, BOM, LF line endings), so writing an
// unchanged dataset is byte-stable across runs. The file is written to a
// temp sibling and renamed, never truncated in place.
func (d *Dataset) Write(path string) error {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	if err := w.Write(d.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	row := make([]string, len(d.Columns))
	for _, rec := range d.Records {
		for i, col := range d.Columns {
			row[i] = rec.fields[col]
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write row %q: %w", rec.key, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".hrec-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}

// SplitCitations splits a Citation URLs cell into individual URLs
func SplitCitations(cell string) []string {
	var urls []string
	for _, part := range strings.Split(cell, ";") {
		if url := strings.TrimSpace(part); url != "" {
			urls = append(urls, url)
		}
	}
	return urls
}

// JoinCitations renders a URL list back into cell form
func JoinCitations(urls []string) string {
	return strings.Join(urls, "; ")
}
