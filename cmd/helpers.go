package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/salesloom-cli/internal/analysis"
	cfgpkg "github.com/KaramelBytes/salesloom-cli/internal/config"
	"github.com/KaramelBytes/salesloom-cli/internal/dataset"
	"github.com/KaramelBytes/salesloom-cli/internal/parser"
	"github.com/KaramelBytes/salesloom-cli/internal/store"
	"github.com/KaramelBytes/salesloom-cli/internal/timeseries"
	"github.com/KaramelBytes/salesloom-cli/internal/utils"
	"github.com/KaramelBytes/salesloom-cli/internal/workspace"
)

const defaultWorkspace = "default"

// workspacesDir returns the configured directory holding all workspaces.
func workspacesDir() (string, error) {
	c, err := settings()
	if err != nil {
		return "", err
	}
	dir, err := utils.ExpandHome(c.WorkspaceDir)
	if err != nil {
		return "", err
	}
	dir = filepath.Clean(dir)
	if err := utils.EnsureDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

func resolveWorkspaceDirByName(name string) (string, error) {
	if name == "" {
		return "", errors.New("workspace name is required")
	}
	root, err := workspacesDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, name), nil
}

// openWorkspace loads the named workspace. Without a name it uses the
// workspace enclosing the current directory, then the default workspace,
// which is created on first use. Any other name must have been created with init.
func openWorkspace(name string) (*workspace.Workspace, error) {
	if name == "" {
		if root, err := utils.FindWorkspaceRoot(""); err == nil {
			return workspace.Load(root)
		}
		name = defaultWorkspace
	}
	dir, err := resolveWorkspaceDirByName(name)
	if err != nil {
		return nil, err
	}
	w, err := workspace.Load(dir)
	if err == nil {
		return w, nil
	}
	if name != defaultWorkspace || !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return workspace.Init(name, "Default workspace", dir)
}

// parseDelimiter maps the --delimiter flag onto a rune; 0 means sniff.
func parseDelimiter(s string) (rune, error) {
	switch s {
	case "":
		return 0, nil
	case ",":
		return ',', nil
	case "\t", "tab":
		return '\t', nil
	case ";":
		return ';', nil
	case "|", "pipe":
		return '|', nil
	}
	return 0, fmt.Errorf("unsupported --delimiter: %s", s)
}

// sourceFlags are the parsing flags shared by every command that accepts a
// file or a stored dataset.
type sourceFlags struct {
	workspace  string
	delimiter  string
	sheetName  string
	sheetIndex int
	maxRows    int
}

func (f sourceFlags) parserOptions() (parser.Options, error) {
	delim, err := parseDelimiter(f.delimiter)
	if err != nil {
		return parser.Options{}, err
	}
	return parser.Options{Delimiter: delim, SheetName: f.sheetName, SheetIndex: f.sheetIndex, MaxRows: f.maxRows}, nil
}

// loadDataset parses arg when it names an existing file and otherwise looks
// it up as a dataset id or name in the workspace.
func loadDataset(arg string, f sourceFlags) (*dataset.Dataset, error) {
	if info, err := os.Stat(arg); err == nil && !info.IsDir() {
		opt, err := f.parserOptions()
		if err != nil {
			return nil, err
		}
		return parser.ParseFile(arg, opt)
	}
	w, err := openWorkspace(f.workspace)
	if err != nil {
		return nil, err
	}
	ds, err := w.Dataset(arg)
	if err != nil {
		if errors.Is(err, workspace.ErrDatasetNotFound) {
			return nil, fmt.Errorf("%q is neither a readable file nor a dataset in workspace %q", arg, w.Name)
		}
		return nil, err
	}
	return ds, nil
}

// analysisFlags are per-command overrides of the configured analysis options.
type analysisFlags struct {
	period      string
	anomalyMode string
	strictRoles bool
}

func analyzerOptions(c *cfgpkg.Global, f analysisFlags) (analysis.Options, error) {
	opt := analysis.DefaultOptions()
	opt.Roles = opt.Roles.Merge(c.Roles)
	loc, err := c.Location()
	if err != nil {
		return opt, err
	}
	opt.Location = loc
	mode := c.AnomalyMode
	if f.anomalyMode != "" {
		mode = f.anomalyMode
	}
	if opt.AnomalyMode, err = analysis.ParseAnomalyMode(mode); err != nil {
		return opt, err
	}
	if f.period != "" {
		if opt.Period, err = timeseries.ParsePeriod(f.period); err != nil {
			return opt, err
		}
	}
	opt.AnomalyLimit = c.AnomalyLimit
	opt.TopN = c.TopN
	opt.InsightLimit = c.InsightLimit
	opt.SuggestionLimit = c.SuggestionLimit
	opt.Currency = c.CurrencySymbol
	opt.StrictRoles = c.StrictRoles || f.strictRoles
	return opt, nil
}

// openCache builds the result cache for the configured backend. A nil cache
// means caching is disabled.
func openCache(c *cfgpkg.Global) (*store.Cache, error) {
	var s store.Store
	switch strings.ToLower(c.CacheBackend) {
	case "", "none":
		return nil, nil
	case "memory":
		s = store.NewMemoryStore()
	case "file":
		dir, err := cfgpkg.Dir()
		if err != nil {
			return nil, err
		}
		fs, err := store.NewFileStore(filepath.Join(dir, "cache.json"))
		if err != nil {
			return nil, err
		}
		s = fs
	case "redis":
		rs, err := store.NewRedisStore(store.RedisConfig{
			Addr:     c.RedisAddr,
			Password: c.RedisPassword,
			DB:       c.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		s = rs
	default:
		return nil, fmt.Errorf("unsupported cache_backend %q", c.CacheBackend)
	}
	return store.NewCache(s, c.CacheTTL()), nil
}

// newService wires an analyzer and the configured cache. An unreachable
// cache backend degrades to no caching.
func newService(f analysisFlags) (*analysis.Service, func(), error) {
	c, err := settings()
	if err != nil {
		return nil, nil, err
	}
	opt, err := analyzerOptions(c, f)
	if err != nil {
		return nil, nil, err
	}
	cache, err := openCache(c)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: cache disabled: %v\n", err)
		cache = nil
	}
	closeFn := func() {}
	if cache != nil {
		closeFn = func() { _ = cache.Store().Close() }
	}
	svc := analysis.NewService(analysis.NewAnalyzer(logger, opt), cache, c.ForecastCacheTTL(), logger)
	return svc, closeFn, nil
}

// emit writes out to path, or prints it when path is empty.
func emit(path string, out []byte, what string) error {
	if path == "" {
		fmt.Println(string(out))
		return nil
	}
	if err := utils.SafeWriteFile(path, out); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Printf("✓ Wrote %s to %s\n", what, path)
	return nil
}
