package cmd

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/salesloom-cli/internal/store"
	"github.com/KaramelBytes/salesloom-cli/internal/workspace"
	"github.com/spf13/cobra"
)

var (
	cacheDataset   string
	cacheWorkspace string
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage cached analyses and forecasts",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Drop expired entries, or every entry of one dataset with --dataset",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, closeFn, err := newService(analysisFlags{})
		if err != nil {
			return err
		}
		defer closeFn()
		if cacheDataset != "" {
			id, err := resolveDatasetID(cacheDataset)
			if err != nil {
				return err
			}
			n, err := svc.Invalidate(id)
			if err != nil {
				return err
			}
			fmt.Printf("✓ Removed %d cached entries for dataset %s\n", n, id)
			return nil
		}
		c, err := requireCache()
		if err != nil {
			return err
		}
		defer func() { _ = c.Store().Close() }()
		n, err := c.Purge()
		if err != nil {
			return err
		}
		fmt.Printf("✓ Purged %d expired entries\n", n)
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached entry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cacheDataset != "" {
			return cachePurgeCmd.RunE(cmd, args)
		}
		c, err := requireCache()
		if err != nil {
			return err
		}
		defer func() { _ = c.Store().Close() }()
		if err := c.Clear(); err != nil {
			return err
		}
		fmt.Println("✓ Cache cleared")
		return nil
	},
}

// resolveDatasetID maps a dataset name or id prefix to its id. Values that
// match nothing in the workspace are used as-is so stale entries of removed
// datasets can still be dropped.
func resolveDatasetID(idOrName string) (string, error) {
	w, err := openWorkspace(cacheWorkspace)
	if err != nil {
		return "", err
	}
	ref, err := w.Lookup(idOrName)
	if errors.Is(err, workspace.ErrDatasetNotFound) {
		return idOrName, nil
	}
	if err != nil {
		return "", err
	}
	return ref.ID, nil
}

// requireCache opens the configured cache, failing when caching is off.
func requireCache() (*store.Cache, error) {
	c, err := settings()
	if err != nil {
		return nil, err
	}
	cache, err := openCache(c)
	if err != nil {
		return nil, err
	}
	if cache == nil {
		return nil, errors.New("cache_backend is none; nothing to manage")
	}
	return cache, nil
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cachePurgeCmd, cacheClearCmd)
	cacheCmd.PersistentFlags().StringVar(&cacheDataset, "dataset", "", "limit to one dataset (id or name)")
	cacheCmd.PersistentFlags().StringVarP(&cacheWorkspace, "workspace", "w", "", "workspace used to resolve --dataset")
}
