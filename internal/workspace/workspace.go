// Package workspace persists imported datasets on disk.
package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/KaramelBytes/salesloom-cli/internal/dataset"
	"github.com/KaramelBytes/salesloom-cli/internal/parser"
	"github.com/KaramelBytes/salesloom-cli/internal/utils"
)

const datasetsDir = "datasets"

// ErrDatasetNotFound is returned when no dataset matches an id or name.
var ErrDatasetNotFound = errors.New("dataset not found")

// Workspace is a directory of imported datasets described by workspace.json.
type Workspace struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Datasets    map[string]*DatasetRef `json:"datasets"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`

	// Not serialized: on-disk location of the workspace.json
	rootDir string `json:"-"`
}

// DatasetRef is the workspace metadata of one stored dataset.
type DatasetRef struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Path        string         `json:"path"`
	Description string         `json:"description,omitempty"`
	Source      dataset.Source `json:"source"`
	Rows        int            `json:"rows"`
	Columns     int            `json:"columns"`
	ImportedAt  time.Time      `json:"imported_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// New constructs an in-memory workspace. Call Save() to persist.
func New(name, description, rootDir string) *Workspace {
	now := time.Now()
	return &Workspace{
		Name:        name,
		Description: description,
		Datasets:    make(map[string]*DatasetRef),
		CreatedAt:   now,
		UpdatedAt:   now,
		rootDir:     rootDir,
	}
}

// Init creates and saves a workspace, refusing to overwrite an existing one.
func Init(name, description, rootDir string) (*Workspace, error) {
	if _, err := os.Stat(filepath.Join(rootDir, utils.WorkspaceFile)); err == nil {
		return nil, fmt.Errorf("workspace already exists at %s", rootDir)
	}
	w := New(name, description, rootDir)
	if err := w.Save(); err != nil {
		return nil, err
	}
	return w, nil
}

// Load loads a workspace.json from the provided directory.
func Load(dir string) (*Workspace, error) {
	path := filepath.Join(dir, utils.WorkspaceFile)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("workspace not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read workspace: %w", err)
	}
	var w Workspace
	if err := json.Unmarshal(b, &w); err != nil {
		return nil, fmt.Errorf("parse workspace: %w", err)
	}
	if w.Datasets == nil {
		w.Datasets = make(map[string]*DatasetRef)
	}
	w.rootDir = dir
	return &w, nil
}

// RootDir returns the on-disk workspace directory path.
func (w *Workspace) RootDir() string { return w.rootDir }

// Save writes workspace.json using atomic write.
func (w *Workspace) Save() error {
	if w.rootDir == "" {
		return errors.New("workspace root directory not set")
	}
	if err := utils.EnsureDir(filepath.Join(w.rootDir, datasetsDir)); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	w.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(w)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(w.rootDir, utils.WorkspaceFile), data)
}

func (w *Workspace) datasetPath(id string) string {
	return filepath.Join(w.rootDir, datasetsDir, id+".json")
}

// Import parses a file and stores it as a new dataset. The workspace
// metadata is updated in memory; call Save() to persist it.
func (w *Workspace) Import(path, description string, opt parser.Options) (*dataset.Dataset, error) {
	ds, err := parser.ParseFile(path, opt)
	if err != nil {
		return nil, fmt.Errorf("import: %w", err)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	if err := w.Put(ds, abs, description); err != nil {
		return nil, err
	}
	return ds, nil
}

// Put stores ds and records it under its id.
func (w *Workspace) Put(ds *dataset.Dataset, path, description string) error {
	data, err := utils.PrettyJSON(ds)
	if err != nil {
		return err
	}
	if err := utils.SafeWriteFile(w.datasetPath(ds.ID), data); err != nil {
		return fmt.Errorf("store dataset: %w", err)
	}
	if w.Datasets == nil {
		w.Datasets = make(map[string]*DatasetRef)
	}
	ref, ok := w.Datasets[ds.ID]
	if !ok {
		ref = &DatasetRef{ID: ds.ID, ImportedAt: ds.CreatedAt}
		w.Datasets[ds.ID] = ref
	}
	ref.Name = ds.Name
	ref.Path = path
	if description != "" {
		ref.Description = description
	}
	ref.Source = ds.Source
	ref.Rows = ds.Len()
	ref.Columns = len(ds.Columns)
	ref.UpdatedAt = ds.UpdatedAt
	w.UpdatedAt = time.Now()
	return nil
}

// Lookup finds a dataset reference by id, unique id prefix or name.
func (w *Workspace) Lookup(idOrName string) (*DatasetRef, error) {
	if ref, ok := w.Datasets[idOrName]; ok {
		return ref, nil
	}
	var matches []*DatasetRef
	for _, ref := range w.Datasets {
		if strings.EqualFold(ref.Name, idOrName) || strings.HasPrefix(ref.ID, idOrName) {
			matches = append(matches, ref)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, idOrName)
	case 1:
		return matches[0], nil
	}
	return nil, fmt.Errorf("%q matches %d datasets; use the full id", idOrName, len(matches))
}

// Dataset loads the stored dataset matching idOrName.
func (w *Workspace) Dataset(idOrName string) (*dataset.Dataset, error) {
	ref, err := w.Lookup(idOrName)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(w.datasetPath(ref.ID))
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", ref.ID, err)
	}
	var ds dataset.Dataset
	dec := json.NewDecoder(strings.NewReader(string(b)))
	dec.UseNumber()
	if err := dec.Decode(&ds); err != nil {
		return nil, fmt.Errorf("parse dataset %s: %w", ref.ID, err)
	}
	return &ds, nil
}

// Refresh re-imports a dataset from its original path. The result keeps the
// id, source and creation time and carries a fresh UpdatedAt.
func (w *Workspace) Refresh(idOrName string, opt parser.Options) (*dataset.Dataset, error) {
	ref, err := w.Lookup(idOrName)
	if err != nil {
		return nil, err
	}
	prev := &dataset.Dataset{ID: ref.ID, Name: ref.Name, Source: ref.Source, CreatedAt: ref.ImportedAt}
	if opt.Name != "" {
		prev.Name = opt.Name
	}
	tbl, err := parser.ReadTable(ref.Path, opt)
	if err != nil {
		return nil, fmt.Errorf("refresh %s: %w", ref.ID, err)
	}
	next, err := prev.Revise(tbl.Header, tbl.Rows, opt.Ingest...)
	if err != nil {
		return nil, fmt.Errorf("refresh %s: %w", ref.ID, err)
	}
	if err := w.Put(next, ref.Path, ""); err != nil {
		return nil, err
	}
	return next, nil
}

// Remove deletes a stored dataset.
func (w *Workspace) Remove(idOrName string) (*DatasetRef, error) {
	ref, err := w.Lookup(idOrName)
	if err != nil {
		return nil, err
	}
	if err := os.Remove(w.datasetPath(ref.ID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("remove dataset: %w", err)
	}
	delete(w.Datasets, ref.ID)
	w.UpdatedAt = time.Now()
	return ref, nil
}

// List returns dataset references ordered by import time, then name.
func (w *Workspace) List() []*DatasetRef {
	out := make([]*DatasetRef, 0, len(w.Datasets))
	for _, ref := range w.Datasets {
		out = append(out, ref)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].ImportedAt.Equal(out[j].ImportedAt) {
			return out[i].ImportedAt.Before(out[j].ImportedAt)
		}
		return out[i].Name < out[j].Name
	})
	return out
}
