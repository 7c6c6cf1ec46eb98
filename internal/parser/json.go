package parser

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/KaramelBytes/salesloom-cli/internal/dataset"
)

type jsonParser struct{}

func (jsonParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".json")
}

// Parse accepts either sheet values (an array of arrays whose first element
// is the header) or an array of objects. Numbers stay json.Number so no
// precision is lost before aggregation.
func (jsonParser) Parse(r io.Reader, opt Options) (*Table, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var raw []json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if len(raw) == 0 {
		return nil, &dataset.MalformedInputError{Reason: "json array is empty"}
	}
	if first := strings.TrimSpace(string(raw[0])); strings.HasPrefix(first, "[") {
		return parseValues(raw, opt)
	}
	return parseObjects(raw, opt)
}

func decodeNumber(b []byte, v any) error {
	d := json.NewDecoder(strings.NewReader(string(b)))
	d.UseNumber()
	return d.Decode(v)
}

func parseValues(raw []json.RawMessage, opt Options) (*Table, error) {
	records := make([][]any, 0, len(raw))
	for i, m := range raw {
		var rec []any
		if err := decodeNumber(m, &rec); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		records = append(records, rec)
	}
	header := make([]string, len(records[0]))
	for i, v := range records[0] {
		header[i] = dataset.Text(v)
	}
	return buildTable(header, records[1:], opt.MaxRows), nil
}

// parseObjects uses the sorted union of object keys as the header.
func parseObjects(raw []json.RawMessage, opt Options) (*Table, error) {
	objs := make([]map[string]any, 0, len(raw))
	keys := make(map[string]struct{})
	for i, m := range raw {
		var obj map[string]any
		if err := decodeNumber(m, &obj); err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		for k := range obj {
			keys[k] = struct{}{}
		}
		objs = append(objs, obj)
	}
	header := make([]string, 0, len(keys))
	for k := range keys {
		header = append(header, k)
	}
	sort.Strings(header)

	records := make([][]any, len(objs))
	for i, obj := range objs {
		rec := make([]any, len(header))
		for j, k := range header {
			rec[j] = obj[k]
		}
		records[i] = rec
	}
	return buildTable(header, records, opt.MaxRows), nil
}
