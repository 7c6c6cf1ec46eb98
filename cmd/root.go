package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/KaramelBytes/salesloom-cli/internal/config"
	"github.com/KaramelBytes/salesloom-cli/internal/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags (override config when set)
	cfgFile      string
	debug        bool
	flagTimezone string
	flagLogLevel string

	// Loaded configuration and the logger built from it
	cfg    *cfgpkg.Global
	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "salesloom",
	Short: "SalesLoom CLI: sales analytics for tabular order data",
	Long: `SalesLoom imports CSV, TSV, JSON and Excel order exports into a local workspace
and computes KPIs, time series, anomalies, insights, alerts and forecasts.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	defer func() { _ = logger.Sync() }()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.salesloom/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagTimezone, "tz", "", "IANA timezone for date bucketing (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
}

func loadConfig() {
	cfg = nil
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: commands fall back to defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("tz") && flagTimezone != "" {
		cfg.Timezone = flagTimezone
	}
	if f.Changed("log-level") && flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if debug {
		cfg.LogLevel = "debug"
	}

	l, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "⚠ Warning: %v; logging disabled\n", err)
		return
	}
	logger = l
}

// settings returns the loaded configuration, or defaults when loading failed.
func settings() (*cfgpkg.Global, error) {
	if cfg != nil {
		return cfg, nil
	}
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg = c
	return cfg, nil
}
