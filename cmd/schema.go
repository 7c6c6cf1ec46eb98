package cmd

import (
	"fmt"

	"github.com/KaramelBytes/salesloom-cli/internal/analysis"
	"github.com/KaramelBytes/salesloom-cli/internal/dataset"
	"github.com/KaramelBytes/salesloom-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	schemaFlags sourceFlags
	schemaJSON  bool
)

type schemaOutput struct {
	Dataset string           `json:"dataset"`
	Rows    int              `json:"rows"`
	Columns []dataset.Column `json:"columns"`
	Roles   analysis.RoleMap `json:"roles"`
}

var schemaCmd = &cobra.Command{
	Use:   "schema <file|dataset>",
	Short: "Print inferred column types and resolved column roles",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(args[0], schemaFlags)
		if err != nil {
			return err
		}
		svc, closeFn, err := newService(analysisFlags{})
		if err != nil {
			return err
		}
		defer closeFn()
		roles, _, err := svc.Analyzer().Roles(ds)
		if err != nil {
			return err
		}
		if schemaJSON {
			b, err := utils.PrettyJSON(schemaOutput{Dataset: ds.Name, Rows: ds.Len(), Columns: ds.Columns, Roles: roles})
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			return nil
		}
		fmt.Printf("%s (%d rows)\n", ds.Name, ds.Len())
		for _, c := range ds.Columns {
			nullable := ""
			if c.Nullable {
				nullable = ", nullable"
			}
			fmt.Printf("- %s: %s%s\n", c.Name, c.Type, nullable)
		}
		fmt.Println("Roles:")
		for _, r := range analysis.Roles {
			res := roles[r]
			if res.Column == "" {
				continue
			}
			mark := ""
			if !res.Matched {
				mark = " (fallback)"
			}
			fmt.Printf("- %s → %s%s\n", r, res.Column, mark)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemaCmd)
	addSourceFlags(schemaCmd, &schemaFlags)
	schemaCmd.Flags().BoolVar(&schemaJSON, "json", false, "emit JSON")
}
