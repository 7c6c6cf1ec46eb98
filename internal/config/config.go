package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Global configuration structure.
type Global struct {
	WorkspaceDir string `mapstructure:"workspace_dir" yaml:"workspace_dir"`
	Timezone     string `mapstructure:"timezone" yaml:"timezone"`
	LogLevel     string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat    string `mapstructure:"log_format" yaml:"log_format"`

	// Analysis
	AnomalyMode     string              `mapstructure:"anomaly_mode" yaml:"anomaly_mode"`
	AnomalyLimit    int                 `mapstructure:"anomaly_limit" yaml:"anomaly_limit"`
	InsightLimit    int                 `mapstructure:"insight_limit" yaml:"insight_limit"`
	SuggestionLimit int                 `mapstructure:"suggestion_limit" yaml:"suggestion_limit"`
	TopN            int                 `mapstructure:"top_n" yaml:"top_n"`
	StrictRoles     bool                `mapstructure:"strict_roles" yaml:"strict_roles"`
	CurrencySymbol  string              `mapstructure:"currency_symbol" yaml:"currency_symbol"`
	Roles           map[string][]string `mapstructure:"roles" yaml:"roles,omitempty"`

	// Forecasting
	ForecastHorizon int    `mapstructure:"forecast_horizon" yaml:"forecast_horizon"`
	ForecastMode    string `mapstructure:"forecast_mode" yaml:"forecast_mode"`
	ForecastJitter  bool   `mapstructure:"forecast_jitter" yaml:"forecast_jitter"`
	ForecastSeed    uint64 `mapstructure:"forecast_seed" yaml:"forecast_seed"`

	// Result cache
	CacheBackend        string `mapstructure:"cache_backend" yaml:"cache_backend"`
	CacheTTLSec         int    `mapstructure:"cache_ttl_sec" yaml:"cache_ttl_sec"`
	ForecastCacheTTLSec int    `mapstructure:"forecast_cache_ttl_sec" yaml:"forecast_cache_ttl_sec"`
	RedisAddr           string `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword       string `mapstructure:"redis_password" yaml:"redis_password,omitempty"`
	RedisDB             int    `mapstructure:"redis_db" yaml:"redis_db"`
}

// Dir returns ~/.salesloom.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".salesloom"), nil
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.salesloom/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	path := cfgFile
	if path == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, "config.yaml")
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("timezone", "Local")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	// Analysis defaults
	v.SetDefault("anomaly_mode", "auto")
	v.SetDefault("anomaly_limit", 5)
	v.SetDefault("insight_limit", 5)
	v.SetDefault("suggestion_limit", 3)
	v.SetDefault("top_n", 5)
	v.SetDefault("strict_roles", false)
	v.SetDefault("currency_symbol", "$")
	// Forecast defaults
	v.SetDefault("forecast_horizon", 7)
	v.SetDefault("forecast_mode", "ensemble")
	v.SetDefault("forecast_jitter", false)
	v.SetDefault("forecast_seed", 0)
	// Cache defaults
	v.SetDefault("cache_backend", "memory")
	v.SetDefault("cache_ttl_sec", 3600)
	v.SetDefault("forecast_cache_ttl_sec", 1800)
	v.SetDefault("redis_addr", "127.0.0.1:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("SALESLOOM")
	v.AutomaticEnv()
	setDefaults(v)

	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if c.WorkspaceDir == "" {
		c.WorkspaceDir = filepath.Join(dir, "workspace")
	}
	return &c, nil
}

// Location resolves Timezone; "" and "Local" mean the process zone.
func (c *Global) Location() (*time.Location, error) {
	switch c.Timezone {
	case "", "Local", "local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// CacheTTL returns the analysis cache TTL.
func (c *Global) CacheTTL() time.Duration { return time.Duration(c.CacheTTLSec) * time.Second }

// ForecastCacheTTL returns the forecast cache TTL.
func (c *Global) ForecastCacheTTL() time.Duration {
	return time.Duration(c.ForecastCacheTTLSec) * time.Second
}

func oneOf(key, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s: %q is not one of %v", key, value, allowed)
}

func positive(key string, n int) error {
	if n <= 0 {
		return fmt.Errorf("%s: must be positive, got %d", key, n)
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c *Global) Validate() error {
	var err error
	if _, lerr := c.Location(); lerr != nil {
		err = multierr.Append(err, lerr)
	}
	err = multierr.Combine(err,
		oneOf("log_level", c.LogLevel, "debug", "info", "warn", "error"),
		oneOf("log_format", c.LogFormat, "json", "console"),
		oneOf("anomaly_mode", c.AnomalyMode, "auto", "simple", "combined"),
		oneOf("forecast_mode", c.ForecastMode, "short", "ensemble"),
		oneOf("cache_backend", c.CacheBackend, "none", "memory", "file", "redis"),
		positive("anomaly_limit", c.AnomalyLimit),
		positive("insight_limit", c.InsightLimit),
		positive("suggestion_limit", c.SuggestionLimit),
		positive("top_n", c.TopN),
		positive("forecast_horizon", c.ForecastHorizon),
	)
	if c.CacheTTLSec < 0 {
		err = multierr.Append(err, fmt.Errorf("cache_ttl_sec: must not be negative"))
	}
	if c.ForecastCacheTTLSec < 0 {
		err = multierr.Append(err, fmt.Errorf("forecast_cache_ttl_sec: must not be negative"))
	}
	if c.CacheBackend == "redis" && c.RedisAddr == "" {
		err = multierr.Append(err, fmt.Errorf("redis_addr: required when cache_backend is redis"))
	}
	return err
}
