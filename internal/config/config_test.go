package config

import "testing"

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := Validate(cfg); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
}

func TestDefaultConfigMatchesSpecConstants(t *testing.T) {
	cfg := DefaultConfig()

	cases := []struct {
		name string
		got  any
		want any
	}{
		{"requests_per_hour", cfg.Limits.RequestsPerHour, 6000},
		{"prp_results_per_page", cfg.Service.PrpResultsPerPage, 64},
		{"u_results_per_page", cfg.Service.UResultsPerPage, 6},
		{"min_digits_in_prp", cfg.Service.MinDigitsInPrp, uint64(300)},
		{"min_digits_in_u", cfg.Service.MinDigitsInU, uint64(2001)},
		{"max_start_index", cfg.Service.MaxStartIndex, 100_000},
		{"max_cpu_budget_tenths", cfg.Limits.MaxCPUBudgetTenths, uint64(5900)},
		{"max_bases_between_resource_checks", cfg.Limits.MaxBasesBetweenResourceChecks, uint64(127)},
		{"cpu_tenths_to_throttle_unknown_search", cfg.Limits.CPUTenthsToThrottleUnknownSearch, uint64(4000)},
		{"max_retries", cfg.Limits.MaxRetries, 40},
		{"max_retries_with_fallback", cfg.Limits.MaxRetriesWithFallback, 10},
		{"max_short_url_len", cfg.Limits.MaxShortURLLen, 65534},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestTaskBufferSize(t *testing.T) {
	cfg := DefaultConfig()
	if got, want := cfg.TaskBufferSize(), 256; got != want {
		t.Errorf("TaskBufferSize() = %d, want %d", got, want)
	}
	if got, want := cfg.MinCapacityAtRestart(), 256-32; got != want {
		t.Errorf("MinCapacityAtRestart() = %d, want %d", got, want)
	}
}

func TestValidateRejectsBadExitTime(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Limits.ExitTime = "not-a-time"
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for malformed exit_time")
	}
}

func TestValidateRejectsBurnInAboveRequestsPerHour(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Limits.RateLimiterBurnIn = cfg.Limits.RequestsPerHour + 1
	if err := Validate(cfg); err == nil {
		t.Fatal("expected error for burn-in above requests_per_hour")
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr bool
	}{
		{"https://factordb.com", false},
		{"http://localhost:8080", false},
		{"ftp://factordb.com", true},
		{"not a url", true},
		{"https://", true},
	}
	for _, tt := range tests {
		err := ValidateURL(tt.url)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
		}
	}
}
