package cmd

import (
	"github.com/KaramelBytes/salesloom-cli/internal/analysis"
	"github.com/KaramelBytes/salesloom-cli/internal/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	anaSource     sourceFlags
	anaFlags      analysisFlags
	anaOutputPath string
	anaJSON       bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file|dataset>",
	Short: "Compute KPIs, time series, anomalies and insights for a dataset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(args[0], anaSource)
		if err != nil {
			return err
		}
		svc, closeFn, err := newService(anaFlags)
		if err != nil {
			return err
		}
		defer closeFn()
		res, cached, err := svc.Analyze(ds)
		if err != nil {
			return err
		}
		logger.Debug("analysis complete", zap.String("dataset", ds.ID), zap.Bool("cached", cached))
		out, err := renderResult(res, anaJSON)
		if err != nil {
			return err
		}
		return emit(anaOutputPath, out, "analysis")
	},
}

func renderResult(res *analysis.Result, asJSON bool) ([]byte, error) {
	if asJSON {
		return utils.PrettyJSON(res)
	}
	return []byte(res.Markdown()), nil
}

// addAnalysisFlags registers the analysis overrides shared by analyze,
// analyze-batch and alerts.
func addAnalysisFlags(c *cobra.Command, f *analysisFlags) {
	c.Flags().StringVar(&f.period, "period", "", "anomaly detection granularity: day|week|month (default day)")
	c.Flags().StringVar(&f.anomalyMode, "anomaly-mode", "", "anomaly detector: auto|simple|combined (overrides config)")
	c.Flags().BoolVar(&f.strictRoles, "strict-roles", false, "fail instead of falling back to the first column when a role is unmatched")
}

func addSourceFlags(c *cobra.Command, f *sourceFlags) {
	c.Flags().StringVarP(&f.workspace, "workspace", "w", "", "workspace holding the dataset")
	c.Flags().StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | '|' (sniffed if omitted)")
	c.Flags().StringVar(&f.sheetName, "sheet-name", "", "XLSX: sheet name")
	c.Flags().IntVar(&f.sheetIndex, "sheet-index", 1, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	c.Flags().IntVar(&f.maxRows, "max-rows", 0, "read at most N data rows from a file (0 = all)")
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	addSourceFlags(analyzeCmd, &anaSource)
	addAnalysisFlags(analyzeCmd, &anaFlags)
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the analysis")
	analyzeCmd.Flags().BoolVar(&anaJSON, "json", false, "emit JSON instead of Markdown")
}
