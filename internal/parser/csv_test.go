package parser_test

import (
	"errors"
	"testing"

	"github.com/KaramelBytes/salesloom-cli/internal/dataset"
	"github.com/KaramelBytes/salesloom-cli/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFileCSV(t *testing.T) {
	p := writeFile(t, "orders.csv", "order_date,customer_id,product_name,order_amount\n"+
		"2024-08-10,c1,Widget,12.50\n"+
		"2024-08-12,c2,Gadget,11.80\n"+
		"2024-08-15,c1,,10.20\n")
	ds, err := parser.ParseFile(p, parser.Options{})
	require.NoError(t, err)
	assert.Equal(t, "orders.csv", ds.Name)
	assert.Equal(t, dataset.SourceUpload, ds.Source)
	assert.Equal(t, 3, ds.Len())

	types := map[string]dataset.ColumnType{}
	for _, c := range ds.Columns {
		types[c.Name] = c.Type
	}
	assert.Equal(t, dataset.TypeDate, types["order_date"])
	assert.Equal(t, dataset.TypeString, types["customer_id"])
	assert.Equal(t, dataset.TypeNumber, types["order_amount"])
	col, _ := ds.Column("product_name")
	assert.True(t, col.Nullable)
	assert.Equal(t, "12.50", ds.Rows[0]["order_amount"])
}

func TestParseFileCSVSniffsSemicolonAndStripsBOM(t *testing.T) {
	p := writeFile(t, "eu.csv", "\ufeffdate;sales\n2024-01-01;1\n2024-01-02;2\n")
	ds, err := parser.ParseFile(p, parser.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "sales"}, ds.ColumnNames())
}

func TestParseFileTSV(t *testing.T) {
	p := writeFile(t, "data.tsv", "a\tb\n1\t2\n")
	ds, err := parser.ParseFile(p, parser.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ds.ColumnNames())
}

func TestParseFileCSVRaggedRowsAndDuplicateHeaders(t *testing.T) {
	p := writeFile(t, "ragged.csv", "sales,sales,\n1,2,3,4\n5\n")
	ds, err := parser.ParseFile(p, parser.Options{MaxRows: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"sales", "sales_2", "column_3"}, ds.ColumnNames())
	require.Equal(t, 2, ds.Len())
	assert.Equal(t, "3", ds.Rows[0]["column_3"])
	assert.Nil(t, ds.Rows[1]["sales_2"])
}

func TestParseFileCSVMaxRows(t *testing.T) {
	p := writeFile(t, "many.csv", "x\n1\n2\n3\n")
	ds, err := parser.ParseFile(p, parser.Options{MaxRows: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Len())
}

func TestParseFileCSVHeaderOnly(t *testing.T) {
	p := writeFile(t, "header.csv", "a,b\n")
	_, err := parser.ParseFile(p, parser.Options{})
	var mie *dataset.MalformedInputError
	assert.True(t, errors.As(err, &mie), "no rows to ingest")

	p = writeFile(t, "empty.csv", "")
	_, err = parser.ParseFile(p, parser.Options{})
	assert.True(t, errors.As(err, &mie))
}
