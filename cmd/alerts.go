package cmd

import (
	"fmt"
	"os"

	"github.com/KaramelBytes/salesloom-cli/internal/analysis"
	"github.com/KaramelBytes/salesloom-cli/internal/utils"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	alSource     sourceFlags
	alFlags      analysisFlags
	alThresholds string
	alJSON       bool
	alOutputPath string
)

var alertsCmd = &cobra.Command{
	Use:   "alerts <file|dataset>",
	Short: "Print smart alerts, threshold alerts, the health score and recommendations",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		thresholds, err := loadThresholds(alThresholds)
		if err != nil {
			return err
		}
		ds, err := loadDataset(args[0], alSource)
		if err != nil {
			return err
		}
		svc, closeFn, err := newService(alFlags)
		if err != nil {
			return err
		}
		defer closeFn()
		res, _, err := svc.Analyze(ds)
		if err != nil {
			return err
		}
		al := svc.Analyzer().Alerts(ds, res, thresholds, analysis.Stamper{})

		var out []byte
		if alJSON {
			if out, err = utils.PrettyJSON(al); err != nil {
				return err
			}
		} else {
			out = []byte(al.Markdown())
		}
		return emit(alOutputPath, out, "alerts")
	},
}

// loadThresholds reads a YAML map of metric → {min, max, level} and lays it
// over the defaults. An empty path returns the defaults.
func loadThresholds(path string) (map[string]analysis.Bounds, error) {
	out := analysis.DefaultThresholds()
	if path == "" {
		return out, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read thresholds: %w", err)
	}
	var custom map[string]analysis.Bounds
	if err := yaml.Unmarshal(b, &custom); err != nil {
		return nil, fmt.Errorf("parse thresholds: %w", err)
	}
	for metric, bounds := range custom {
		out[metric] = bounds
	}
	return out, nil
}

func init() {
	rootCmd.AddCommand(alertsCmd)
	addSourceFlags(alertsCmd, &alSource)
	addAnalysisFlags(alertsCmd, &alFlags)
	alertsCmd.Flags().StringVar(&alThresholds, "thresholds", "", "YAML file of metric thresholds (merged over defaults)")
	alertsCmd.Flags().BoolVar(&alJSON, "json", false, "emit JSON instead of Markdown")
	alertsCmd.Flags().StringVarP(&alOutputPath, "output", "o", "", "optional path to write the alerts")
}
