// Package parser turns tabular files into datasets.
package parser

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/salesloom-cli/internal/dataset"
)

// Options tunes how a file is read.
type Options struct {
	// Filename is used for format detection; ParseFile sets it.
	Filename string
	// Name overrides the dataset name (default: file base name).
	Name string
	// Delimiter forces the CSV separator; 0 sniffs it.
	Delimiter rune
	// SheetName selects an XLSX sheet; otherwise SheetIndex (1-based) is used.
	SheetName  string
	SheetIndex int
	// MaxRows stops reading after N data rows when positive.
	MaxRows int
	// External reads a JSON array of arrays as values exported from an
	// external spreadsheet and tags the dataset SourceExternal.
	External bool
	Ingest   []dataset.IngestOption
}

// Table is a parsed header plus rows, before type inference.
type Table struct {
	Header []string
	Rows   []dataset.Row
}

// Parser reads one tabular format.
type Parser interface {
	CanParse(filename string) bool
	Parse(r io.Reader, opt Options) (*Table, error)
}

var registry []Parser

// Register adds a parser implementation to the registry.
func Register(p Parser) {
	registry = append(registry, p)
}

// ErrUnsupported indicates a format is not supported.
var ErrUnsupported = errors.New("unsupported file format")

// For returns the registered parser for filename.
func For(filename string) (Parser, error) {
	for _, p := range registry {
		if p.CanParse(filename) {
			return p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupported, filepath.Ext(filename))
}

// ReadTable reads path with the matching parser without ingesting it.
func ReadTable(path string, opt Options) (*Table, error) {
	p, err := For(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	opt.Filename = path
	tbl, err := p.Parse(f, opt)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return tbl, nil
}

// ParseFile reads path with the matching parser and ingests it as an upload,
// or as an external sheet when opt.External is set.
func ParseFile(path string, opt Options) (*dataset.Dataset, error) {
	name := opt.Name
	if name == "" {
		name = filepath.Base(path)
	}
	if opt.External {
		return parseSheetFile(path, name, opt)
	}
	tbl, err := ReadTable(path, opt)
	if err != nil {
		return nil, err
	}
	return dataset.Ingest(tbl.Header, tbl.Rows, name, dataset.SourceUpload, opt.Ingest...)
}

// parseSheetFile decodes a JSON dump of spreadsheet values and hands it to
// ParseSheetValues.
func parseSheetFile(path, name string, opt Options) (*dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.UseNumber()
	var values [][]any
	if err := dec.Decode(&values); err != nil {
		return nil, fmt.Errorf("parse %s: sheet values must be a JSON array of arrays: %w", filepath.Base(path), err)
	}
	if opt.MaxRows > 0 && len(values) > opt.MaxRows+1 {
		values = values[:opt.MaxRows+1]
	}
	return ParseSheetValues(values, name, opt.Ingest...)
}

// ParseSheetValues builds an external dataset from spreadsheet values: the
// first row is the header, the rest are data rows.
func ParseSheetValues(values [][]any, name string, opts ...dataset.IngestOption) (*dataset.Dataset, error) {
	if len(values) == 0 {
		return nil, &dataset.MalformedInputError{Reason: "sheet has no header row"}
	}
	header := make([]string, len(values[0]))
	for i, v := range values[0] {
		header[i] = dataset.Text(v)
	}
	tbl := buildTable(header, values[1:], 0)
	return dataset.Ingest(tbl.Header, tbl.Rows, name, dataset.SourceExternal, opts...)
}

// buildTable normalizes header names and turns records into rows. Blank
// headers become column_N, repeated ones get a numeric suffix. Short records
// are padded with missing cells, surplus cells are dropped and fully blank
// records are skipped.
func buildTable(rawHeader []string, records [][]any, maxRows int) *Table {
	header := normalizeHeader(rawHeader)
	tbl := &Table{Header: header}
	for _, rec := range records {
		if maxRows > 0 && len(tbl.Rows) >= maxRows {
			break
		}
		row := make(dataset.Row, len(header))
		blank := true
		for i, name := range header {
			var v any
			if i < len(rec) {
				v = cell(rec[i])
			}
			if v != nil {
				blank = false
			}
			row[name] = v
		}
		if !blank {
			tbl.Rows = append(tbl.Rows, row)
		}
	}
	return tbl
}

func cell(v any) any {
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		return s
	}
	return v
}

func normalizeHeader(raw []string) []string {
	out := make([]string, len(raw))
	seen := make(map[string]int, len(raw))
	for i, h := range raw {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		base := name
		for seen[name] > 0 {
			seen[base]++
			name = fmt.Sprintf("%s_%d", base, seen[base])
		}
		seen[name]++
		out[i] = name
	}
	return out
}

func stringRecords(rows [][]string) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		rec := make([]any, len(r))
		for j, v := range r {
			rec[j] = v
		}
		out[i] = rec
	}
	return out
}

func init() {
	Register(csvParser{})
	Register(xlsxParser{})
	Register(jsonParser{})
}
