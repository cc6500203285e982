package discovery

import "time"

// Config holds the configuration for the catalog cache.
// It is loaded from environment variables or a config file.
type Config struct {
	// Cache settings
	CacheLoadTimeout   time.Duration `mapstructure:"cache_load_timeout" env:"DISCOVERY_CACHE_LOAD_TIMEOUT" default:"30s"`
	CacheTTL           time.Duration `mapstructure:"cache_ttl" env:"DISCOVERY_CACHE_TTL" default:"1h"`
	CacheRefreshJitter time.Duration `mapstructure:"cache_refresh_jitter" env:"DISCOVERY_CACHE_REFRESH_JITTER" default:"5m"`

	// Warmup settings
	WarmupConcurrency int `mapstructure:"warmup_concurrency" env:"DISCOVERY_WARMUP_CONCURRENCY" default:"3"`

	// Query limits
	MaxRadiusKm float64 `mapstructure:"max_radius_km" env:"DISCOVERY_MAX_RADIUS_KM" default:"50.0"`
	MaxResults  int     `mapstructure:"max_results" env:"DISCOVERY_MAX_RESULTS" default:"100"`
}

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		CacheLoadTimeout:   30 * time.Second,
		CacheTTL:           1 * time.Hour,
		CacheRefreshJitter: 5 * time.Minute,
		WarmupConcurrency:  3,
		MaxRadiusKm:        50.0,
		MaxResults:         100,
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.CacheLoadTimeout <= 0 {
		return ErrInvalidConfig{Field: "cache_load_timeout", Reason: "must be positive"}
	}
	if c.CacheTTL <= 0 {
		return ErrInvalidConfig{Field: "cache_ttl", Reason: "must be positive"}
	}
	if c.WarmupConcurrency < 1 {
		return ErrInvalidConfig{Field: "warmup_concurrency", Reason: "must be at least 1"}
	}
	if c.MaxRadiusKm <= 0 {
		return ErrInvalidConfig{Field: "max_radius_km", Reason: "must be positive"}
	}
	if c.MaxResults < 1 {
		return ErrInvalidConfig{Field: "max_results", Reason: "must be at least 1"}
	}
	return nil
}

// ErrInvalidConfig is returned when the configuration is invalid.
type ErrInvalidConfig struct {
	Field  string
	Reason string
}

func (e ErrInvalidConfig) Error() string {
	return e.Field + ": " + e.Reason
}
