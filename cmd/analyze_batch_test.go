package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnalyzeBatch_OutDirWithCollisions(t *testing.T) {
	home := tempHome(t)

	// Two inputs with the same basename in different directories
	writeOrders(t, filepath.Join(home, "d1", "orders.csv"))
	writeOrders(t, filepath.Join(home, "d2", "orders.csv"))

	outDir := filepath.Join(home, "reports")
	runCmd(t, "analyze-batch", filepath.Join(home, "d*", "orders.csv"), "--tz", "UTC", "--concurrency", "2", "--out-dir", outDir, "--quiet")

	first := filepath.Join(outDir, "orders.analysis.md")
	second := filepath.Join(outDir, "orders__2.analysis.md")
	require.FileExists(t, first)
	require.FileExists(t, second)

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	require.Contains(t, string(a), "- Total sales: $2100.00")
	require.Equal(t, string(a), string(b))
}

func TestAnalyzeBatch_ReportsEveryFailure(t *testing.T) {
	home := tempHome(t)
	good := filepath.Join(home, "good.csv")
	writeOrders(t, good)
	empty := filepath.Join(home, "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	bogus := filepath.Join(home, "notes.docx")
	require.NoError(t, os.WriteFile(bogus, []byte("x"), 0o644))

	outDir := filepath.Join(home, "reports")
	err := execCmd("analyze-batch", good, empty, bogus, "--out-dir", outDir, "--json", "--quiet")
	require.Error(t, err)
	require.Contains(t, err.Error(), "2 of 3 files failed")
	require.FileExists(t, filepath.Join(outDir, "good.analysis.json"))
}

func TestAnalyzeBatch_NoMatches(t *testing.T) {
	home := tempHome(t)
	require.Error(t, execCmd("analyze-batch", filepath.Join(home, "*.csv")))
}

func TestBatchOutputNames(t *testing.T) {
	got := batchOutputNames("out", []string{"a/x.csv", "b/x.csv", "c/y.xlsx", "d/x.tsv"}, true)
	require.Equal(t, []string{
		filepath.Join("out", "x.analysis.json"),
		filepath.Join("out", "x__2.analysis.json"),
		filepath.Join("out", "y.analysis.json"),
		filepath.Join("out", "x__3.analysis.json"),
	}, got)
}
