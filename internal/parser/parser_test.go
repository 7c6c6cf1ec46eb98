package parser_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/salesloom-cli/internal/dataset"
	"github.com/KaramelBytes/salesloom-cli/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return p
}

func TestParseFileUnsupported(t *testing.T) {
	p := writeFile(t, "notes.docx", "x")
	_, err := parser.ParseFile(p, parser.Options{})
	if !errors.Is(err, parser.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}

func TestParseFileJSONObjects(t *testing.T) {
	p := writeFile(t, "orders.json", `[
		{"order_date": "2024-01-01", "sales": 10.50, "customer": "a"},
		{"order_date": "2024-01-02", "sales": 20, "customer": "b", "note": "gift"}
	]`)
	ds, err := parser.ParseFile(p, parser.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"customer", "note", "order_date", "sales"}, ds.ColumnNames())
	assert.Equal(t, json.Number("10.50"), ds.Rows[0]["sales"])
	assert.Nil(t, ds.Rows[0]["note"])

	col, ok := ds.Column("sales")
	require.True(t, ok)
	assert.Equal(t, dataset.TypeNumber, col.Type)
	col, _ = ds.Column("note")
	assert.True(t, col.Nullable)
}

func TestParseFileJSONSheetValues(t *testing.T) {
	p := writeFile(t, "sheet.json", `[["date","revenue"],["2024-01-01", 5],["2024-01-02", 7]]`)
	ds, err := parser.ParseFile(p, parser.Options{Name: "sheet"})
	require.NoError(t, err)
	assert.Equal(t, "sheet", ds.Name)
	assert.Equal(t, 2, ds.Len())
	col, _ := ds.Column("date")
	assert.Equal(t, dataset.TypeDate, col.Type)
}

func TestParseFileJSONEmpty(t *testing.T) {
	p := writeFile(t, "empty.json", `[]`)
	_, err := parser.ParseFile(p, parser.Options{})
	var mie *dataset.MalformedInputError
	assert.True(t, errors.As(err, &mie))
}

func TestParseSheetValues(t *testing.T) {
	ds, err := parser.ParseSheetValues([][]any{
		{"Date", "Sales", ""},
		{"2024-01-01", 100.0, "x"},
		{"2024-01-02", 120.5},
		{nil, "", "  "},
	}, "Synced sheet")
	require.NoError(t, err)
	assert.Equal(t, dataset.SourceExternal, ds.Source)
	assert.Equal(t, []string{"Date", "Sales", "column_3"}, ds.ColumnNames())
	require.Equal(t, 2, ds.Len(), "blank rows are skipped")
	assert.Nil(t, ds.Rows[1]["column_3"])

	_, err = parser.ParseSheetValues(nil, "none")
	var mie *dataset.MalformedInputError
	assert.True(t, errors.As(err, &mie))
}

func TestParseFileExternalSheet(t *testing.T) {
	p := writeFile(t, "sheet.json", `[["Date","Sales"],["2024-01-01",100],["2024-01-02",120.5],["2024-01-03",90]]`)
	ds, err := parser.ParseFile(p, parser.Options{External: true, MaxRows: 2, Name: "Synced sheet"})
	require.NoError(t, err)
	assert.Equal(t, dataset.SourceExternal, ds.Source)
	assert.Equal(t, "Synced sheet", ds.Name)
	assert.Equal(t, 2, ds.Len())
	assert.Equal(t, json.Number("120.5"), ds.Rows[1]["Sales"])

	objects := writeFile(t, "objects.json", `[{"a":1}]`)
	_, err = parser.ParseFile(objects, parser.Options{External: true})
	assert.Error(t, err, "objects are not sheet values")
}
