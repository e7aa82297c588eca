package config

import "time"

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for primewatch.
type Config struct {
	Service ServiceConfig `mapstructure:"service" yaml:"service"`
	Limits  LimitsConfig  `mapstructure:"limits"  yaml:"limits"`
	Dump    DumpConfig    `mapstructure:"dump"    yaml:"dump"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// ServiceConfig points at the remote factoring database and its pagination shape.
type ServiceConfig struct {
	BaseURL           string `mapstructure:"base_url"             yaml:"base_url"`
	PrpResultsPerPage int    `mapstructure:"prp_results_per_page" yaml:"prp_results_per_page"`
	MinDigitsInPrp    uint64 `mapstructure:"min_digits_in_prp"    yaml:"min_digits_in_prp"`
	MinDigitsInU      uint64 `mapstructure:"min_digits_in_u"      yaml:"min_digits_in_u"`
	UResultsPerPage   int    `mapstructure:"u_results_per_page"   yaml:"u_results_per_page"`
	MaxStartIndex     int    `mapstructure:"max_start_index"      yaml:"max_start_index"`
}

// LimitsConfig controls pacing: request/hour budget, concurrency, CPU budget.
type LimitsConfig struct {
	RequestsPerHour                  int           `mapstructure:"requests_per_hour"                     yaml:"requests_per_hour"`
	RateLimiterBurnIn                 int          `mapstructure:"rate_limiter_burn_in"                  yaml:"rate_limiter_burn_in"`
	MaxConcurrentRequests            int           `mapstructure:"max_concurrent_requests"               yaml:"max_concurrent_requests"`
	MaxCPUBudgetTenths               uint64        `mapstructure:"max_cpu_budget_tenths"                 yaml:"max_cpu_budget_tenths"`
	MaxBasesBetweenResourceChecks    uint64        `mapstructure:"max_bases_between_resource_checks"     yaml:"max_bases_between_resource_checks"`
	CPUTenthsToThrottleUnknownSearch uint64        `mapstructure:"cpu_tenths_to_throttle_unknown_search" yaml:"cpu_tenths_to_throttle_unknown_search"`
	UnknownStatusCheckBackoff        time.Duration `mapstructure:"unknown_status_check_backoff"          yaml:"unknown_status_check_backoff"`
	NetworkTimeout                   time.Duration `mapstructure:"network_timeout"                       yaml:"network_timeout"`
	RetryDelay                       time.Duration `mapstructure:"retry_delay"                           yaml:"retry_delay"`
	MinTimePerRestart                time.Duration `mapstructure:"min_time_per_restart"                  yaml:"min_time_per_restart"`
	StackTracesInterval              time.Duration `mapstructure:"stack_traces_interval"                 yaml:"stack_traces_interval"`
	MaxRetries                       int           `mapstructure:"max_retries"                           yaml:"max_retries"`
	MaxRetriesWithFallback           int           `mapstructure:"max_retries_with_fallback"             yaml:"max_retries_with_fallback"`
	MaxShortURLLen                   int           `mapstructure:"max_short_url_len"                     yaml:"max_short_url_len"`
	// ExitTime, if set (RFC3339), causes a clean exit once the service's
	// reported reset time would fall on or after it.
	ExitTime string `mapstructure:"exit_time" yaml:"exit_time"`
}

// DumpConfig controls the on-disk fallback source for unknown-status ids.
type DumpConfig struct {
	Dir        string `mapstructure:"dir"         yaml:"dir"`
	FilePrefix string `mapstructure:"file_prefix" yaml:"file_prefix"`
	StartIndex int    `mapstructure:"start_index" yaml:"start_index"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// MetricsConfig controls the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Addr    string `mapstructure:"addr"    yaml:"addr"`
	Path    string `mapstructure:"path"    yaml:"path"`
}

// DefaultConfig returns a Config with the service's documented default constants.
func DefaultConfig() *Config {
	return &Config{
		Service: ServiceConfig{
			BaseURL:           "https://factordb.com",
			PrpResultsPerPage: 64,
			MinDigitsInPrp:    300,
			MinDigitsInU:      2001,
			UResultsPerPage:   6,
			MaxStartIndex:     100_000,
		},
		Limits: LimitsConfig{
			RequestsPerHour:                  6000,
			RateLimiterBurnIn:                5800,
			MaxConcurrentRequests:            8,
			MaxCPUBudgetTenths:               5900,
			MaxBasesBetweenResourceChecks:    127,
			CPUTenthsToThrottleUnknownSearch: 4000,
			UnknownStatusCheckBackoff:        30 * time.Second,
			NetworkTimeout:                   15 * time.Second,
			RetryDelay:                       1 * time.Second,
			MinTimePerRestart:                1 * time.Hour,
			StackTracesInterval:              5 * time.Minute,
			MaxRetries:                       40,
			MaxRetriesWithFallback:           10,
			MaxShortURLLen:                   65534,
		},
		Dump: DumpConfig{
			Dir:        ".",
			FilePrefix: "U",
			StartIndex: 3,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    ":9090",
			Path:    "/metrics",
		},
	}
}

// TaskBufferSize is B = 4 * PrpResultsPerPage, the bounded queue capacity.
func (c *Config) TaskBufferSize() int {
	return 4 * c.Service.PrpResultsPerPage
}

// MinCapacityAtRestart is B - P/2, the slot reservation made before a restart floods the queue.
func (c *Config) MinCapacityAtRestart() int {
	return c.TaskBufferSize() - c.Service.PrpResultsPerPage/2
}
