package dataset

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// IngestOption customizes Ingest.
type IngestOption func(*ingestConfig)

type ingestConfig struct {
	now   func() time.Time
	newID func() string
}

// WithClock overrides the clock used for CreatedAt/UpdatedAt.
func WithClock(now func() time.Time) IngestOption {
	return func(c *ingestConfig) { c.now = now }
}

// WithIDGenerator overrides how dataset ids are minted.
func WithIDGenerator(fn func() string) IngestOption {
	return func(c *ingestConfig) { c.newID = fn }
}

// Ingest builds a Dataset from raw rows. Columns are the header names present
// in the first row, in header order; with a nil header the first row's keys
// are used in sorted order. Keys outside the column set are dropped from the
// copied rows.
func Ingest(header []string, rows []Row, name string, src Source, opts ...IngestOption) (*Dataset, error) {
	cfg := ingestConfig{now: time.Now, newID: uuid.NewString}
	for _, o := range opts {
		o(&cfg)
	}
	if len(rows) == 0 {
		return nil, &MalformedInputError{Reason: "no rows to ingest"}
	}

	first := rows[0]
	if header == nil {
		for k := range first {
			header = append(header, k)
		}
		sort.Strings(header)
	}
	names := make([]string, 0, len(header))
	seen := make(map[string]struct{}, len(header))
	for i, h := range header {
		if h == "" {
			return nil, &MalformedInputError{Reason: fmt.Sprintf("column %d has an empty name", i+1)}
		}
		if _, dup := seen[h]; dup {
			return nil, &MalformedInputError{Reason: fmt.Sprintf("duplicate column %q", h)}
		}
		seen[h] = struct{}{}
		if _, ok := first[h]; ok {
			names = append(names, h)
		}
	}
	if len(names) == 0 {
		return nil, &MalformedInputError{Reason: "first row has no recognizable columns"}
	}

	copied := make([]Row, len(rows))
	for i, r := range rows {
		row := make(Row, len(names))
		for _, n := range names {
			if v, ok := r[n]; ok {
				row[n] = v
			}
		}
		copied[i] = row
	}

	sample := copied
	if len(sample) > SampleSize {
		sample = sample[:SampleSize]
	}
	cols := make([]Column, len(names))
	for i, n := range names {
		present := 0
		for _, r := range sample {
			if !IsMissing(r[n]) {
				present++
			}
		}
		cols[i] = Column{
			Name:     n,
			Type:     InferType(sample, n),
			Nullable: present < len(sample),
		}
	}

	now := cfg.now()
	return &Dataset{
		ID:        cfg.newID(),
		Name:      name,
		Source:    src,
		Columns:   cols,
		Rows:      copied,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
