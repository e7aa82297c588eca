package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file and environment variables.
// Priority (highest to lowest): env vars > config file > defaults.
// No CLI flags are bound here.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	// Set defaults from struct
	setDefaults(v, cfg)

	// Environment variable support
	v.SetEnvPrefix("PRIMEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Search default locations
		v.SetConfigName("primewatch")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".primewatch"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	return Load(path)
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("service.base_url", cfg.Service.BaseURL)
	v.SetDefault("service.prp_results_per_page", cfg.Service.PrpResultsPerPage)
	v.SetDefault("service.min_digits_in_prp", cfg.Service.MinDigitsInPrp)
	v.SetDefault("service.min_digits_in_u", cfg.Service.MinDigitsInU)
	v.SetDefault("service.u_results_per_page", cfg.Service.UResultsPerPage)
	v.SetDefault("service.max_start_index", cfg.Service.MaxStartIndex)

	v.SetDefault("limits.requests_per_hour", cfg.Limits.RequestsPerHour)
	v.SetDefault("limits.rate_limiter_burn_in", cfg.Limits.RateLimiterBurnIn)
	v.SetDefault("limits.max_concurrent_requests", cfg.Limits.MaxConcurrentRequests)
	v.SetDefault("limits.max_cpu_budget_tenths", cfg.Limits.MaxCPUBudgetTenths)
	v.SetDefault("limits.max_bases_between_resource_checks", cfg.Limits.MaxBasesBetweenResourceChecks)
	v.SetDefault("limits.cpu_tenths_to_throttle_unknown_search", cfg.Limits.CPUTenthsToThrottleUnknownSearch)
	v.SetDefault("limits.unknown_status_check_backoff", cfg.Limits.UnknownStatusCheckBackoff)
	v.SetDefault("limits.network_timeout", cfg.Limits.NetworkTimeout)
	v.SetDefault("limits.retry_delay", cfg.Limits.RetryDelay)
	v.SetDefault("limits.min_time_per_restart", cfg.Limits.MinTimePerRestart)
	v.SetDefault("limits.stack_traces_interval", cfg.Limits.StackTracesInterval)
	v.SetDefault("limits.max_retries", cfg.Limits.MaxRetries)
	v.SetDefault("limits.max_retries_with_fallback", cfg.Limits.MaxRetriesWithFallback)
	v.SetDefault("limits.max_short_url_len", cfg.Limits.MaxShortURLLen)
	v.SetDefault("limits.exit_time", cfg.Limits.ExitTime)

	v.SetDefault("dump.dir", cfg.Dump.Dir)
	v.SetDefault("dump.file_prefix", cfg.Dump.FilePrefix)
	v.SetDefault("dump.start_index", cfg.Dump.StartIndex)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.output", cfg.Logging.Output)

	v.SetDefault("metrics.enabled", cfg.Metrics.Enabled)
	v.SetDefault("metrics.addr", cfg.Metrics.Addr)
	v.SetDefault("metrics.path", cfg.Metrics.Path)
}
