package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/KaramelBytes/salesloom-cli/internal/utils"
)

// FileStore persists all entries in one JSON document, rewritten atomically
// on every change. It suits the single-user CLI cache.
type FileStore struct {
	mu   sync.Mutex
	path string
	opts options
}

type fileDoc struct {
	Entries map[string]Entry `json:"entries"`
}

// NewFileStore opens or creates the store document at path.
func NewFileStore(path string, opts ...Option) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("file store: empty path")
	}
	fs := &FileStore{path: path, opts: buildOptions(opts)}
	if _, err := fs.load(); err != nil {
		return nil, err
	}
	return fs, nil
}

func (f *FileStore) load() (fileDoc, error) {
	doc := fileDoc{Entries: map[string]Entry{}}
	b, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("read store: %w", err)
	}
	if len(b) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return doc, fmt.Errorf("parse store %s: %w", f.path, err)
	}
	if doc.Entries == nil {
		doc.Entries = map[string]Entry{}
	}
	return doc, nil
}

func (f *FileStore) save(doc fileDoc) error {
	b, err := utils.PrettyJSON(doc)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(f.path, b)
}

func (f *FileStore) Get(key string) (Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.load()
	if err != nil {
		return Entry{}, err
	}
	e, ok := doc.Entries[key]
	if !ok || e.Expired(f.opts.now()) {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func (f *FileStore) Set(e Entry) error {
	return f.update(func(doc *fileDoc) { doc.Entries[e.Key] = e })
}

func (f *FileStore) Delete(key string) error {
	return f.update(func(doc *fileDoc) { delete(doc.Entries, key) })
}

func (f *FileStore) ScanIndex(index, value string) ([]Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.load()
	if err != nil {
		return nil, err
	}
	now := f.opts.now()
	var out []Entry
	for _, e := range doc.Entries {
		if e.Indexes[index] == value && !e.Expired(now) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (f *FileStore) PurgeExpired() (int, error) {
	now := f.opts.now()
	n := 0
	err := f.update(func(doc *fileDoc) {
		for k, e := range doc.Entries {
			if e.Expired(now) {
				delete(doc.Entries, k)
				n++
			}
		}
	})
	return n, err
}

func (f *FileStore) Clear() error {
	return f.update(func(doc *fileDoc) { doc.Entries = map[string]Entry{} })
}

func (f *FileStore) Close() error { return nil }

func (f *FileStore) update(fn func(*fileDoc)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.load()
	if err != nil {
		return err
	}
	fn(&doc)
	return f.save(doc)
}
