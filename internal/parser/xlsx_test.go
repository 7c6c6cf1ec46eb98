package parser_test

import (
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/salesloom-cli/internal/dataset"
	"github.com/KaramelBytes/salesloom-cli/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// writeWorkbook saves a two-sheet workbook: "Summary" first, then "Orders".
func writeWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetSheetName("Sheet1", "Summary"))
	require.NoError(t, f.SetSheetRow("Summary", "A1", &[]any{"note"}))
	require.NoError(t, f.SetSheetRow("Summary", "A2", &[]any{"hello"}))

	_, err := f.NewSheet("Orders")
	require.NoError(t, err)
	rows := [][]any{
		{"order_date", "product", "sales"},
		{"2024-01-01", "Widget", 10.5},
		{"2024-01-02", "Gadget", 20},
	}
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Orders", cell, &r))
	}
	path := filepath.Join(t.TempDir(), "book.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestParseFileXLSXBySheetName(t *testing.T) {
	path := writeWorkbook(t)
	ds, err := parser.ParseFile(path, parser.Options{SheetName: "orders"})
	require.NoError(t, err)
	assert.Equal(t, []string{"order_date", "product", "sales"}, ds.ColumnNames())
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, "Widget", ds.Rows[0]["product"])
	col, _ := ds.Column("sales")
	assert.Equal(t, dataset.TypeNumber, col.Type)
}

func TestParseFileXLSXByIndex(t *testing.T) {
	path := writeWorkbook(t)
	ds, err := parser.ParseFile(path, parser.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"note"}, ds.ColumnNames())

	ds, err = parser.ParseFile(path, parser.Options{SheetIndex: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())
}

func TestParseFileXLSXMissingSheet(t *testing.T) {
	path := writeWorkbook(t)
	_, err := parser.ParseFile(path, parser.Options{SheetName: "Nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Available sheets: Summary, Orders")

	_, err = parser.ParseFile(path, parser.Options{SheetIndex: 5})
	assert.Error(t, err)
}
