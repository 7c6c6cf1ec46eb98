package dataset

import (
	"fmt"
	"time"
)

// ColumnType is the semantic type inferred for a column.
type ColumnType string

const (
	TypeNumber  ColumnType = "number"
	TypeDate    ColumnType = "date"
	TypeBoolean ColumnType = "boolean"
	TypeString  ColumnType = "string"
)

// Source records where a dataset came from.
type Source string

const (
	SourceUpload   Source = "upload"
	SourceExternal Source = "external"
)

// Row maps column names to scalar cell values. A key may be absent or hold nil
// when the cell is missing.
type Row map[string]any

// Column describes one dataset column. Type is derived from a sample and is
// advisory: consumers must tolerate values that do not match it.
type Column struct {
	Name     string     `json:"name"`
	Type     ColumnType `json:"type"`
	Nullable bool       `json:"nullable"`
}

// Dataset is a typed, in-memory table. It is never mutated after ingestion;
// Revise produces a new value with a fresh UpdatedAt.
type Dataset struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Source    Source    `json:"source"`
	Columns   []Column  `json:"columns"`
	Rows      []Row     `json:"rows"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ColumnNames returns the column names in dataset order.
func (d *Dataset) ColumnNames() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column descriptor by exact name.
func (d *Dataset) Column(name string) (Column, bool) {
	for _, c := range d.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.Rows) }

// Validate checks the structural invariants a dataset built outside Ingest
// must still satisfy: at least one column and unique, non-empty names.
func (d *Dataset) Validate() error {
	if d == nil {
		return &MalformedInputError{Reason: "dataset is nil"}
	}
	if len(d.Columns) == 0 {
		return &MalformedInputError{Reason: "dataset has no columns"}
	}
	seen := make(map[string]struct{}, len(d.Columns))
	for i, c := range d.Columns {
		if c.Name == "" {
			return &MalformedInputError{Reason: fmt.Sprintf("column %d has an empty name", i+1)}
		}
		if _, dup := seen[c.Name]; dup {
			return &MalformedInputError{Reason: fmt.Sprintf("duplicate column %q", c.Name)}
		}
		seen[c.Name] = struct{}{}
	}
	return nil
}

// Revise builds a new dataset from rows while keeping the identity (ID, name,
// source, creation time) of d. Columns are re-inferred; a nil header keeps
// the column names of d.
func (d *Dataset) Revise(header []string, rows []Row, opts ...IngestOption) (*Dataset, error) {
	if header == nil {
		header = d.ColumnNames()
	}
	next, err := Ingest(header, rows, d.Name, d.Source, opts...)
	if err != nil {
		return nil, err
	}
	next.ID = d.ID
	next.CreatedAt = d.CreatedAt
	return next, nil
}
