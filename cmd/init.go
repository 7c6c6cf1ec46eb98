package cmd

import (
	"fmt"
	"os"

	"github.com/KaramelBytes/salesloom-cli/internal/workspace"
	"github.com/spf13/cobra"
)

var (
	initDescription string
)

var initCmd = &cobra.Command{
	Use:   "init <workspace-name>",
	Short: "Initialize a new SalesLoom workspace",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := resolveWorkspaceDirByName(args[0])
		if err != nil {
			return err
		}
		// Refuse to initialize over unrelated files.
		if entries, err := os.ReadDir(dir); err == nil && len(entries) > 0 {
			if _, lerr := workspace.Load(dir); lerr == nil {
				return fmt.Errorf("workspace already exists at %s", dir)
			}
			return fmt.Errorf("directory %s already exists and is not empty; refusing to initialize workspace", dir)
		} else if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("inspect workspace directory: %w", err)
		}
		w, err := workspace.Init(args[0], initDescription, dir)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Workspace initialized: %s\n", w.RootDir())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVarP(&initDescription, "desc", "d", "", "workspace description")
}
