package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/roamly/trip-service/internal/adapters/places"
	"github.com/roamly/trip-service/internal/adapters/weather"
	"github.com/roamly/trip-service/internal/discovery"
	"github.com/roamly/trip-service/internal/jobs"
	"github.com/roamly/trip-service/internal/planner"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig     `mapstructure:"server"`
	Database  DatabaseConfig   `mapstructure:"database"`
	RateLimit RateLimitConfig  `mapstructure:"rate_limit"`
	Planner   planner.Config   `mapstructure:"planner"`
	Discovery discovery.Config `mapstructure:"discovery"`
	Weather   weather.Config   `mapstructure:"weather"`
	Places    places.Config    `mapstructure:"places"`
	Cleanup   jobs.CleanupConfig `mapstructure:"cleanup"`
	Logging   LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MinConnections  int           `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// RateLimitConfig holds outbound HTTP rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond int `mapstructure:"requests_per_second"`
	MaxRetries        int `mapstructure:"max_retries"`
	InitialBackoffMs  int `mapstructure:"initial_backoff_ms"`
	MaxBackoffMs      int `mapstructure:"max_backoff_ms"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

var globalConfig *Config

// Load loads the configuration from file, .env, and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// Load .env file
	if err := loadEnvFile(v); err != nil {
		// .env is optional, log but don't fail
		log.Warn().Err(err).Msg("Warning: .env file not loaded")
	}

	// Enable environment variable override
	v.AutomaticEnv()
	v.SetEnvPrefix("TRIP_SERVICE")

	// Bind env keys for nested config
	bindEnvVars(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Planner.Validate(); err != nil {
		return nil, fmt.Errorf("invalid planner config: %w", err)
	}
	if err := cfg.Discovery.Validate(); err != nil {
		return nil, fmt.Errorf("invalid discovery config: %w", err)
	}

	globalConfig = &cfg
	return &cfg, nil
}

// loadEnvFile loads a .env file by parsing KEY=VALUE lines and setting them as environment variables
func loadEnvFile(v *viper.Viper) error {
	envPaths := []string{
		".",
		"./config",
	}

	for _, path := range envPaths {
		envFile := fmt.Sprintf("%s/.env", path)
		if _, err := os.Stat(envFile); err == nil {
			if err := loadDotEnvFile(envFile); err == nil {
				return nil
			}
		}
	}
	return fmt.Errorf("no .env file found")
}

// loadDotEnvFile reads a .env file and sets environment variables
func loadDotEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) == 2 {
			key := strings.TrimSpace(parts[0])
			value := strings.TrimSpace(parts[1])
			// Remove quotes if present
			value = strings.Trim(value, "\"'")
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

// bindEnvVars binds environment variables to config keys
func bindEnvVars(v *viper.Viper) {
	// Database
	v.BindEnv("database.url", "DATABASE_URL")

	// Server
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.host", "HOST")

	// Logging
	v.BindEnv("logging.level", "LOG_LEVEL")

	// Planner
	v.BindEnv("planner.exact_threshold", "PLANNER_EXACT_THRESHOLD")
	v.BindEnv("planner.travel_speed_kmh", "PLANNER_TRAVEL_SPEED_KMH")

	// Discovery cache
	v.BindEnv("discovery.cache_ttl", "DISCOVERY_CACHE_TTL")

	// External adapters
	v.BindEnv("weather.base_url", "WEATHER_BASE_URL")
	v.BindEnv("weather.enabled", "WEATHER_ENABLED")
	v.BindEnv("places.base_url", "PLACES_BASE_URL")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	// Database defaults
	v.SetDefault("database.max_connections", 25)
	v.SetDefault("database.min_connections", 5)
	v.SetDefault("database.max_conn_lifetime", 1*time.Hour)
	v.SetDefault("database.max_conn_idle_time", 30*time.Minute)

	// Rate limit defaults for outbound portal fetches
	v.SetDefault("rate_limit.requests_per_second", 4)
	v.SetDefault("rate_limit.max_retries", 3)
	v.SetDefault("rate_limit.initial_backoff_ms", 100)
	v.SetDefault("rate_limit.max_backoff_ms", 30000)

	// Planner defaults
	plannerDefaults := planner.DefaultConfig()
	v.SetDefault("planner.exact_threshold", plannerDefaults.ExactThreshold)
	v.SetDefault("planner.travel_speed_kmh", plannerDefaults.TravelSpeedKmh)
	v.SetDefault("planner.distance_norm_km", plannerDefaults.DistanceNormKm)
	v.SetDefault("planner.initial_temp", plannerDefaults.InitialTemp)
	v.SetDefault("planner.cooling_rate", plannerDefaults.CoolingRate)
	v.SetDefault("planner.iterations", plannerDefaults.Iterations)
	v.SetDefault("planner.max_stops", plannerDefaults.MaxStops)
	v.SetDefault("planner.max_candidates", plannerDefaults.MaxCandidates)

	// Discovery cache defaults
	discoveryDefaults := discovery.Defaults()
	v.SetDefault("discovery.cache_load_timeout", discoveryDefaults.CacheLoadTimeout)
	v.SetDefault("discovery.cache_ttl", discoveryDefaults.CacheTTL)
	v.SetDefault("discovery.cache_refresh_jitter", discoveryDefaults.CacheRefreshJitter)
	v.SetDefault("discovery.warmup_concurrency", discoveryDefaults.WarmupConcurrency)
	v.SetDefault("discovery.max_radius_km", discoveryDefaults.MaxRadiusKm)
	v.SetDefault("discovery.max_results", discoveryDefaults.MaxResults)

	// External adapter defaults
	v.SetDefault("weather.base_url", "https://api.open-meteo.com/v1/forecast")
	v.SetDefault("weather.enabled", true)
	v.SetDefault("places.base_url", "https://nominatim.openstreetmap.org/search")
	v.SetDefault("places.max_results", 10)

	// Cleanup job defaults
	cleanupDefaults := jobs.DefaultCleanupConfig()
	v.SetDefault("cleanup.run_cleanup_interval", cleanupDefaults.RunCleanupInterval)
	v.SetDefault("cleanup.run_retention", cleanupDefaults.RunRetention)
	v.SetDefault("cleanup.stale_poi_age", cleanupDefaults.StalePOIAge)
	v.SetDefault("cleanup.enabled", cleanupDefaults.Enabled)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.no_color", false)
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// GetDatabaseURL returns the database URL from config or environment
func GetDatabaseURL() string {
	if cfg := Get(); cfg != nil && cfg.Database.URL != "" {
		return cfg.Database.URL
	}
	return os.Getenv("DATABASE_URL")
}
