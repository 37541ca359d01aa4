package ratelimit

import "time"

// Rule limits one group of endpoints. Paths ending in "/" match by prefix.
type Rule struct {
	Path   string        `koanf:"path"`
	Method string        `koanf:"method"`
	Limit  int           `koanf:"limit"`  // requests per window; 0 means unlimited
	Window time.Duration `koanf:"window"` // refill period for Limit tokens
	Burst  int           `koanf:"burst"`  // bucket capacity, defaults to Limit
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool          `koanf:"enabled"`
	DefaultLimit    int           `koanf:"default_limit"`
	DefaultWindow   time.Duration `koanf:"default_window"`
	CleanupInterval time.Duration `koanf:"cleanup_interval"`
	IdleTTL         time.Duration `koanf:"idle_ttl"`
	Rules           []Rule        `koanf:"rules"`
}

// DefaultConfig returns the limits used when none are configured.
func DefaultConfig() *Config {
	return &Config{
		Enabled:         true,
		DefaultLimit:    600,
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		Rules:           DefaultRules(),
	}
}

// DefaultRules returns the endpoint-specific limits.
func DefaultRules() []Rule {
	return []Rule{
		// Admin fan-out triggers
		{Path: "/admin/", Method: "POST", Limit: 6, Window: time.Minute, Burst: 1},
		{Path: "/weights", Method: "POST", Limit: 10, Window: time.Minute, Burst: 2},

		// Application submission
		{Path: "/jobs/", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},

		// Factor mutations
		{Path: "/candidates/", Method: "POST", Limit: 120, Window: time.Minute, Burst: 20},
		{Path: "/candidates/", Method: "PUT", Limit: 120, Window: time.Minute, Burst: 20},
		{Path: "/candidates/", Method: "DELETE", Limit: 120, Window: time.Minute, Burst: 20},
	}
}
