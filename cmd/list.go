package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/KaramelBytes/salesloom-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	listWorkspaces bool
	listWorkspace  string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List datasets in a workspace, or all workspaces",
	RunE: func(cmd *cobra.Command, args []string) error {
		if listWorkspaces {
			return listAllWorkspaces()
		}
		w, err := openWorkspace(listWorkspace)
		if err != nil {
			return err
		}
		refs := w.List()
		if len(refs) == 0 {
			fmt.Println("(no datasets)")
			return nil
		}
		for _, ref := range refs {
			line := fmt.Sprintf("- %s: %s (%d rows, %d columns, %s)", ref.ID, ref.Name, ref.Rows, ref.Columns, ref.Source)
			if ref.Description != "" {
				line += " " + ref.Description
			}
			fmt.Println(line)
		}
		return nil
	},
}

func listAllWorkspaces() error {
	root, err := workspacesDir()
	if err != nil {
		return err
	}
	dirs, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	found := false
	for _, e := range dirs {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, e.Name(), utils.WorkspaceFile)); err == nil {
			fmt.Printf("- %s\n", e.Name())
			found = true
		}
	}
	if !found {
		fmt.Println("(no workspaces)")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listWorkspaces, "workspaces", false, "list workspaces instead of datasets")
	listCmd.Flags().StringVarP(&listWorkspace, "workspace", "w", "", "workspace name (default: the enclosing workspace, else \"default\")")
}
