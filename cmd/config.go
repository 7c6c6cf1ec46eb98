package cmd

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	cfgpkg "github.com/KaramelBytes/salesloom-cli/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set SalesLoom configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := settings()
		if err != nil {
			return err
		}
		fmt.Printf("workspace_dir: %s\n", c.WorkspaceDir)
		fmt.Printf("timezone: %s\n", c.Timezone)
		fmt.Printf("log_level: %s\n", c.LogLevel)
		fmt.Printf("log_format: %s\n", c.LogFormat)
		fmt.Printf("anomaly_mode: %s\n", c.AnomalyMode)
		fmt.Printf("anomaly_limit: %d\n", c.AnomalyLimit)
		fmt.Printf("insight_limit: %d\n", c.InsightLimit)
		fmt.Printf("suggestion_limit: %d\n", c.SuggestionLimit)
		fmt.Printf("top_n: %d\n", c.TopN)
		fmt.Printf("strict_roles: %t\n", c.StrictRoles)
		fmt.Printf("currency_symbol: %s\n", c.CurrencySymbol)
		if len(c.Roles) > 0 {
			roles := make([]string, 0, len(c.Roles))
			for r := range c.Roles {
				roles = append(roles, r)
			}
			sort.Strings(roles)
			for _, r := range roles {
				fmt.Printf("roles.%s: %s\n", r, strings.Join(c.Roles[r], ","))
			}
		}
		fmt.Printf("forecast_horizon: %d\n", c.ForecastHorizon)
		fmt.Printf("forecast_mode: %s\n", c.ForecastMode)
		fmt.Printf("forecast_jitter: %t\n", c.ForecastJitter)
		fmt.Printf("forecast_seed: %d\n", c.ForecastSeed)
		fmt.Printf("cache_backend: %s\n", c.CacheBackend)
		fmt.Printf("cache_ttl_sec: %d\n", c.CacheTTLSec)
		fmt.Printf("forecast_cache_ttl_sec: %d\n", c.ForecastCacheTTLSec)
		if c.CacheBackend == "redis" {
			fmt.Printf("redis_addr: %s\n", c.RedisAddr)
			fmt.Printf("redis_password: %s\n", mask(c.RedisPassword))
			fmt.Printf("redis_db: %d\n", c.RedisDB)
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		c, err := settings()
		if err != nil {
			return err
		}
		if err := applySetting(c, key, val); err != nil {
			return err
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Println("✓ Saved config")
		return nil
	},
}

func applySetting(c *cfgpkg.Global, key, val string) error {
	atoi := func() (int, error) {
		i, err := strconv.Atoi(val)
		if err != nil {
			return 0, fmt.Errorf("invalid int %q", val)
		}
		return i, nil
	}
	var err error
	switch key {
	case "workspace_dir":
		c.WorkspaceDir = val
	case "timezone":
		c.Timezone = val
	case "log_level":
		c.LogLevel = strings.ToLower(val)
	case "log_format":
		c.LogFormat = strings.ToLower(val)
	case "anomaly_mode":
		c.AnomalyMode = strings.ToLower(val)
	case "anomaly_limit":
		c.AnomalyLimit, err = atoi()
	case "insight_limit":
		c.InsightLimit, err = atoi()
	case "suggestion_limit":
		c.SuggestionLimit, err = atoi()
	case "top_n":
		c.TopN, err = atoi()
	case "strict_roles":
		c.StrictRoles, err = strconv.ParseBool(val)
	case "currency_symbol":
		c.CurrencySymbol = val
	case "forecast_horizon":
		c.ForecastHorizon, err = atoi()
	case "forecast_mode":
		c.ForecastMode = strings.ToLower(val)
	case "forecast_jitter":
		c.ForecastJitter, err = strconv.ParseBool(val)
	case "forecast_seed":
		c.ForecastSeed, err = strconv.ParseUint(val, 10, 64)
	case "cache_backend":
		c.CacheBackend = strings.ToLower(val)
	case "cache_ttl_sec":
		c.CacheTTLSec, err = atoi()
	case "forecast_cache_ttl_sec":
		c.ForecastCacheTTLSec, err = atoi()
	case "redis_addr":
		c.RedisAddr = val
	case "redis_password":
		c.RedisPassword = val
	case "redis_db":
		c.RedisDB, err = atoi()
	default:
		role, ok := strings.CutPrefix(key, "roles.")
		if !ok || role == "" {
			return fmt.Errorf("unknown key: %s", key)
		}
		if c.Roles == nil {
			c.Roles = map[string][]string{}
		}
		var cands []string
		for _, s := range strings.Split(val, ",") {
			if s = strings.TrimSpace(s); s != "" {
				cands = append(cands, s)
			}
		}
		c.Roles[strings.ToLower(role)] = cands
	}
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 6 {
		return "******"
	}
	return s[:3] + "****" + s[len(s)-3:]
}
