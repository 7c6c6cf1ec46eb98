package workspace_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/KaramelBytes/salesloom-cli/internal/dataset"
	"github.com/KaramelBytes/salesloom-cli/internal/parser"
	"github.com/KaramelBytes/salesloom-cli/internal/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func clockAt(ts time.Time) parser.Options {
	return parser.Options{Ingest: []dataset.IngestOption{dataset.WithClock(func() time.Time { return ts })}}
}

func TestInitLoadRoundTrip(t *testing.T) {
	root := filepath.Join(t.TempDir(), "ws")
	w, err := workspace.Init("sales", "Q1 exports", root)
	require.NoError(t, err)
	assert.Equal(t, root, w.RootDir())

	_, err = workspace.Init("sales", "", root)
	assert.Error(t, err, "init refuses to overwrite")

	loaded, err := workspace.Load(root)
	require.NoError(t, err)
	assert.Equal(t, "sales", loaded.Name)
	assert.Equal(t, "Q1 exports", loaded.Description)
	assert.Empty(t, loaded.Datasets)
}

func TestLoadMissing(t *testing.T) {
	_, err := workspace.Load(t.TempDir())
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestImportAndReadBack(t *testing.T) {
	tdir := t.TempDir()
	src := writeCSV(t, tdir, "orders.csv", "date,sales\n2024-01-01,10.25\n2024-01-02,20\n")

	w, err := workspace.Init("ws", "", filepath.Join(tdir, "ws"))
	require.NoError(t, err)
	ds, err := w.Import(src, "January", parser.Options{})
	require.NoError(t, err)
	require.NoError(t, w.Save())

	w2, err := workspace.Load(w.RootDir())
	require.NoError(t, err)
	refs := w2.List()
	require.Len(t, refs, 1)
	assert.Equal(t, ds.ID, refs[0].ID)
	assert.Equal(t, "January", refs[0].Description)
	assert.Equal(t, 2, refs[0].Rows)

	for _, key := range []string{ds.ID, "orders.csv", ds.ID[:8]} {
		got, err := w2.Dataset(key)
		require.NoError(t, err, key)
		assert.Equal(t, ds.ColumnNames(), got.ColumnNames())
		assert.Equal(t, "10.25", got.Rows[0]["sales"])
		assert.Equal(t, ds.UpdatedAt.UnixNano(), got.UpdatedAt.UnixNano())
	}

	_, err = w2.Dataset("missing")
	assert.True(t, errors.Is(err, workspace.ErrDatasetNotFound))
}

func TestRefreshKeepsIdentity(t *testing.T) {
	tdir := t.TempDir()
	src := writeCSV(t, tdir, "orders.csv", "date,sales\n2024-01-01,10\n")
	w, err := workspace.Init("ws", "", filepath.Join(tdir, "ws"))
	require.NoError(t, err)

	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ds, err := w.Import(src, "", clockAt(t0))
	require.NoError(t, err)

	writeCSV(t, tdir, "orders.csv", "date,sales\n2024-01-01,10\n2024-01-02,30\n")
	next, err := w.Refresh(ds.ID, clockAt(t0.Add(time.Hour)))
	require.NoError(t, err)

	assert.Equal(t, ds.ID, next.ID)
	assert.Equal(t, t0, next.CreatedAt)
	assert.Equal(t, t0.Add(time.Hour), next.UpdatedAt)
	assert.Equal(t, 2, next.Len())
	assert.Equal(t, 2, w.Datasets[ds.ID].Rows)
}

func TestRemove(t *testing.T) {
	tdir := t.TempDir()
	src := writeCSV(t, tdir, "a.csv", "x\n1\n")
	w, err := workspace.Init("ws", "", filepath.Join(tdir, "ws"))
	require.NoError(t, err)
	ds, err := w.Import(src, "", parser.Options{})
	require.NoError(t, err)

	ref, err := w.Remove(ds.ID)
	require.NoError(t, err)
	assert.Equal(t, "a.csv", ref.Name)
	assert.Empty(t, w.List())
	_, err = os.Stat(filepath.Join(w.RootDir(), "datasets", ds.ID+".json"))
	assert.True(t, os.IsNotExist(err))
}

func TestImportExternalSheetAndRefresh(t *testing.T) {
	tdir := t.TempDir()
	src := writeCSV(t, tdir, "sheet.json", `[["date","sales"],["2024-01-01",10],["2024-01-02",20],["2024-01-03",30]]`)
	w, err := workspace.Init("ws", "", filepath.Join(tdir, "ws"))
	require.NoError(t, err)

	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	opt := clockAt(t0)
	opt.External = true
	opt.MaxRows = 2
	ds, err := w.Import(src, "synced", opt)
	require.NoError(t, err)
	assert.Equal(t, dataset.SourceExternal, ds.Source)
	assert.Equal(t, 2, ds.Len())

	next, err := w.Refresh(ds.ID, clockAt(t0.Add(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, ds.ID, next.ID)
	assert.Equal(t, dataset.SourceExternal, next.Source, "refresh keeps the source")
	assert.Equal(t, 3, next.Len())
	assert.Equal(t, dataset.SourceExternal, w.Datasets[ds.ID].Source)
}
