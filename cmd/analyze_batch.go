package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KaramelBytes/salesloom-cli/internal/analysis"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var (
	abSource      sourceFlags
	abFlags       analysisFlags
	abOutDir      string
	abJSON        bool
	abConcurrency int
	abQuiet       bool
)

var analyzeBatchCmd = &cobra.Command{
	Use:   "analyze-batch <files...>",
	Short: "Analyze multiple CSV/TSV/JSON/XLSX files concurrently",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files := expandInputs(args)
		if len(files) == 0 {
			return fmt.Errorf("no input files matched")
		}
		if abConcurrency < 1 {
			return fmt.Errorf("--concurrency must be at least 1")
		}
		svc, closeFn, err := newService(abFlags)
		if err != nil {
			return err
		}
		defer closeFn()

		var outputs []string
		if abOutDir != "" {
			outputs = batchOutputNames(abOutDir, files, abJSON)
		}

		total := len(files)
		results := make([]*analysis.Result, total)
		errs := make([]error, total)
		var g errgroup.Group
		g.SetLimit(abConcurrency)
		for i, path := range files {
			if !abQuiet {
				fmt.Printf("[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			g.Go(func() error {
				ds, err := loadDataset(path, abSource)
				if err != nil {
					errs[i] = fmt.Errorf("%s: %w", path, err)
					return nil
				}
				res, _, err := svc.Analyze(ds)
				if err != nil {
					errs[i] = fmt.Errorf("%s: %w", path, err)
					return nil
				}
				results[i] = res
				return nil
			})
		}
		_ = g.Wait()

		// Emit in input order so output is stable regardless of scheduling.
		var failed error
		for i, path := range files {
			if errs[i] != nil {
				logger.Warn("batch item failed", zap.String("file", path), zap.Error(errs[i]))
				failed = multierr.Append(failed, errs[i])
				continue
			}
			out, err := renderResult(results[i], abJSON)
			if err != nil {
				failed = multierr.Append(failed, err)
				continue
			}
			if outputs == nil {
				if !abQuiet {
					fmt.Println(string(out))
				}
				continue
			}
			if err := emit(outputs[i], out, "analysis"); err != nil {
				failed = multierr.Append(failed, err)
			}
		}
		if failed != nil {
			n := len(multierr.Errors(failed))
			return fmt.Errorf("%d of %d files failed: %w", n, total, failed)
		}
		return nil
	},
}

// expandInputs resolves glob patterns and literal paths, dropping duplicates,
// and returns them sorted.
func expandInputs(args []string) []string {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files
}

// batchOutputNames maps each input to <out-dir>/<base>.analysis.<ext>,
// suffixing __2, __3... when two inputs share a base name.
func batchOutputNames(dir string, files []string, asJSON bool) []string {
	ext := ".analysis.md"
	if asJSON {
		ext = ".analysis.json"
	}
	used := map[string]int{}
	out := make([]string, len(files))
	for i, path := range files {
		base := filepath.Base(path)
		safe := strings.TrimSuffix(base, filepath.Ext(base))
		used[safe]++
		if n := used[safe]; n > 1 {
			safe = fmt.Sprintf("%s__%d", safe, n)
		}
		out[i] = filepath.Join(dir, safe+ext)
	}
	return out
}

func init() {
	rootCmd.AddCommand(analyzeBatchCmd)
	addSourceFlags(analyzeBatchCmd, &abSource)
	addAnalysisFlags(analyzeBatchCmd, &abFlags)
	analyzeBatchCmd.Flags().StringVar(&abOutDir, "out-dir", "", "directory to write one report per input (default prints to stdout)")
	analyzeBatchCmd.Flags().BoolVar(&abJSON, "json", false, "emit JSON instead of Markdown")
	analyzeBatchCmd.Flags().IntVar(&abConcurrency, "concurrency", 4, "maximum files analyzed at once")
	analyzeBatchCmd.Flags().BoolVar(&abQuiet, "quiet", false, "suppress progress and non-essential output")
}
