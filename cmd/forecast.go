package cmd

import (
	"fmt"

	"github.com/KaramelBytes/salesloom-cli/internal/forecast"
	"github.com/KaramelBytes/salesloom-cli/internal/timeseries"
	"github.com/KaramelBytes/salesloom-cli/internal/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	fcSource     sourceFlags
	fcDays       int
	fcMode       string
	fcPeriod     string
	fcWindow     int
	fcSeed       uint64
	fcJitter     bool
	fcJSON       bool
	fcOutputPath string
)

var forecastCmd = &cobra.Command{
	Use:   "forecast <file|dataset>",
	Short: "Project future revenue from the dataset's time series",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := settings()
		if err != nil {
			return err
		}
		opt := forecast.Options{Horizon: c.ForecastHorizon, Jitter: forecast.NoJitter{}}
		if cmd.Flags().Changed("days") {
			opt.Horizon = fcDays
		}
		mode := c.ForecastMode
		if fcMode != "" {
			mode = fcMode
		}
		if opt.Mode, err = forecast.ParseMode(mode); err != nil {
			return err
		}
		if fcPeriod != "" {
			if opt.Period, err = timeseries.ParsePeriod(fcPeriod); err != nil {
				return err
			}
		}
		if fcWindow < 0 {
			return fmt.Errorf("--linear-window must not be negative")
		}
		opt.LinearWindow = fcWindow
		if fcJitter || c.ForecastJitter {
			seed := c.ForecastSeed
			if cmd.Flags().Changed("seed") {
				seed = fcSeed
			}
			opt.Jitter = forecast.NewSeededJitter(seed)
		}

		ds, err := loadDataset(args[0], fcSource)
		if err != nil {
			return err
		}
		svc, closeFn, err := newService(analysisFlags{})
		if err != nil {
			return err
		}
		defer closeFn()
		fc, cached, err := svc.Forecast(ds, opt)
		if err != nil {
			return err
		}
		logger.Debug("forecast complete", zap.String("dataset", ds.ID), zap.Int("horizon", fc.Horizon), zap.Bool("cached", cached))

		var out []byte
		if fcJSON {
			if out, err = utils.PrettyJSON(fc); err != nil {
				return err
			}
		} else {
			out = []byte(fc.Markdown())
		}
		return emit(fcOutputPath, out, "forecast")
	},
}

func init() {
	rootCmd.AddCommand(forecastCmd)
	addSourceFlags(forecastCmd, &fcSource)
	forecastCmd.Flags().IntVar(&fcDays, "days", 7, "number of periods to forecast (overrides config)")
	forecastCmd.Flags().StringVar(&fcMode, "mode", "", "forecast model: short|ensemble (overrides config)")
	forecastCmd.Flags().StringVar(&fcPeriod, "period", "", "bucket granularity: day|week|month (default day)")
	forecastCmd.Flags().IntVar(&fcWindow, "linear-window", 0, "ensemble: fit the linear model on the last N periods only (0 = all)")
	forecastCmd.Flags().Uint64Var(&fcSeed, "seed", 0, "seed for --jitter")
	forecastCmd.Flags().BoolVar(&fcJitter, "jitter", false, "apply seeded cosmetic noise to predictions")
	forecastCmd.Flags().BoolVar(&fcJSON, "json", false, "emit JSON instead of Markdown")
	forecastCmd.Flags().StringVarP(&fcOutputPath, "output", "o", "", "optional path to write the forecast")
}
