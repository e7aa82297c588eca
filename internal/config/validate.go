package config

import (
	"fmt"
	"net/url"
	"time"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	if err := ValidateURL(cfg.Service.BaseURL); err != nil {
		return fmt.Errorf("service.base_url: %w", err)
	}
	if cfg.Service.PrpResultsPerPage < 1 {
		return fmt.Errorf("service.prp_results_per_page must be >= 1, got %d", cfg.Service.PrpResultsPerPage)
	}
	if cfg.Service.MinDigitsInPrp < 1 {
		return fmt.Errorf("service.min_digits_in_prp must be >= 1, got %d", cfg.Service.MinDigitsInPrp)
	}
	if cfg.Service.MinDigitsInU < 1 {
		return fmt.Errorf("service.min_digits_in_u must be >= 1, got %d", cfg.Service.MinDigitsInU)
	}
	if cfg.Service.UResultsPerPage < 1 {
		return fmt.Errorf("service.u_results_per_page must be >= 1, got %d", cfg.Service.UResultsPerPage)
	}
	if cfg.Service.MaxStartIndex < 0 {
		return fmt.Errorf("service.max_start_index must be >= 0, got %d", cfg.Service.MaxStartIndex)
	}

	if cfg.Limits.RequestsPerHour < 1 {
		return fmt.Errorf("limits.requests_per_hour must be >= 1, got %d", cfg.Limits.RequestsPerHour)
	}
	if cfg.Limits.RateLimiterBurnIn < 0 || cfg.Limits.RateLimiterBurnIn > cfg.Limits.RequestsPerHour {
		return fmt.Errorf("limits.rate_limiter_burn_in must be within [0, requests_per_hour], got %d", cfg.Limits.RateLimiterBurnIn)
	}
	if cfg.Limits.MaxConcurrentRequests < 1 {
		return fmt.Errorf("limits.max_concurrent_requests must be >= 1, got %d", cfg.Limits.MaxConcurrentRequests)
	}
	if cfg.Limits.MaxBasesBetweenResourceChecks < 1 {
		return fmt.Errorf("limits.max_bases_between_resource_checks must be >= 1, got %d", cfg.Limits.MaxBasesBetweenResourceChecks)
	}
	if cfg.Limits.UnknownStatusCheckBackoff <= 0 {
		return fmt.Errorf("limits.unknown_status_check_backoff must be > 0")
	}
	if cfg.Limits.NetworkTimeout <= 0 {
		return fmt.Errorf("limits.network_timeout must be > 0")
	}
	if cfg.Limits.RetryDelay < 0 {
		return fmt.Errorf("limits.retry_delay must be >= 0")
	}
	if cfg.Limits.MinTimePerRestart <= 0 {
		return fmt.Errorf("limits.min_time_per_restart must be > 0")
	}
	if cfg.Limits.StackTracesInterval <= 0 {
		return fmt.Errorf("limits.stack_traces_interval must be > 0")
	}
	if cfg.Limits.MaxRetries < 0 {
		return fmt.Errorf("limits.max_retries must be >= 0, got %d", cfg.Limits.MaxRetries)
	}
	if cfg.Limits.MaxRetriesWithFallback < 0 || cfg.Limits.MaxRetriesWithFallback > cfg.Limits.MaxRetries {
		return fmt.Errorf("limits.max_retries_with_fallback must be within [0, max_retries], got %d", cfg.Limits.MaxRetriesWithFallback)
	}
	if cfg.Limits.MaxShortURLLen < 1 {
		return fmt.Errorf("limits.max_short_url_len must be >= 1, got %d", cfg.Limits.MaxShortURLLen)
	}
	if cfg.Limits.ExitTime != "" {
		if _, err := time.Parse(time.RFC3339, cfg.Limits.ExitTime); err != nil {
			return fmt.Errorf("limits.exit_time must be RFC3339, got %q: %w", cfg.Limits.ExitTime, err)
		}
	}

	if cfg.Dump.Dir == "" {
		return fmt.Errorf("dump.dir must not be empty")
	}
	if cfg.Dump.StartIndex < 0 {
		return fmt.Errorf("dump.start_index must be >= 0, got %d", cfg.Dump.StartIndex)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	if cfg.Metrics.Enabled {
		if cfg.Metrics.Addr == "" {
			return fmt.Errorf("metrics.addr must not be empty when metrics.enabled is true")
		}
	}

	return nil
}

// ValidateURL checks if a URL string is valid as a service base URL.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}
