package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	importFlags sourceFlags
	importDesc     string
	importName     string
	importExternal bool
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Parse a CSV/TSV/JSON/XLSX file and store it as a dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := openWorkspace(importFlags.workspace)
		if err != nil {
			return err
		}
		opt, err := importFlags.parserOptions()
		if err != nil {
			return err
		}
		opt.Name = importName
		opt.External = importExternal
		ds, err := w.Import(args[0], importDesc, opt)
		if err != nil {
			return err
		}
		if err := w.Save(); err != nil {
			return err
		}
		logger.Debug("dataset imported", zap.String("id", ds.ID), zap.String("workspace", w.Name), zap.String("path", args[0]))
		fmt.Printf("✓ Dataset imported: %s (%s, %d rows, %d columns)\n", ds.Name, ds.ID, ds.Len(), len(ds.Columns))
		return nil
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh <dataset>",
	Short: "Re-import a dataset from its original file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := openWorkspace(importFlags.workspace)
		if err != nil {
			return err
		}
		opt, err := importFlags.parserOptions()
		if err != nil {
			return err
		}
		ds, err := w.Refresh(args[0], opt)
		if err != nil {
			return err
		}
		if err := w.Save(); err != nil {
			return err
		}
		fmt.Printf("✓ Dataset refreshed: %s (%d rows)\n", ds.Name, ds.Len())
		return nil
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <dataset>",
	Short: "Delete a stored dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := openWorkspace(importFlags.workspace)
		if err != nil {
			return err
		}
		ref, err := w.Remove(args[0])
		if err != nil {
			return err
		}
		if err := w.Save(); err != nil {
			return err
		}
		fmt.Printf("✓ Dataset removed: %s\n", ref.Name)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd, refreshCmd, removeCmd)
	for _, c := range []*cobra.Command{importCmd, refreshCmd, removeCmd} {
		c.Flags().StringVarP(&importFlags.workspace, "workspace", "w", "", "workspace name (default: the enclosing workspace, else \"default\")")
	}
	for _, c := range []*cobra.Command{importCmd, refreshCmd} {
		c.Flags().StringVar(&importFlags.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | '|' (sniffed if omitted)")
		c.Flags().StringVar(&importFlags.sheetName, "sheet-name", "", "XLSX: sheet name to import")
		c.Flags().IntVar(&importFlags.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
		c.Flags().IntVar(&importFlags.maxRows, "max-rows", 0, "read at most N data rows (0 = all)")
	}
	importCmd.Flags().StringVar(&importDesc, "desc", "", "dataset description")
	importCmd.Flags().StringVar(&importName, "name", "", "dataset name (default is the file name)")
	importCmd.Flags().BoolVar(&importExternal, "external", false, "treat a JSON array of arrays as values synced from an external spreadsheet")
}
