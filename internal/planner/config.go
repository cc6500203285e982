package planner

// Config contains the tuning settings for the planning engine.
// It is loaded from environment variables or a config file.
type Config struct {
	// Solver selection
	ExactThreshold int `mapstructure:"exact_threshold" env:"EXACT_THRESHOLD" default:"8"`

	// Travel model: straight-line distance at a constant speed
	TravelSpeedKmh float64 `mapstructure:"travel_speed_kmh" env:"TRAVEL_SPEED_KMH" default:"30.0"`

	// Distance normalization for the scoring penalty (distances at or
	// beyond this saturate the penalty at 1)
	DistanceNormKm float64 `mapstructure:"distance_norm_km" env:"DISTANCE_NORM_KM" default:"50.0"`

	// Simulated annealing tuning. These are conservative values tuned for
	// typical trip sizes (10-60 stops): a starting temperature around the
	// scale of a single objective term, geometric cooling, and an
	// iteration budget that keeps a call under ~50ms.
	InitialTemp float64 `mapstructure:"initial_temp" env:"INITIAL_TEMP" default:"2.0"`
	CoolingRate float64 `mapstructure:"cooling_rate" env:"COOLING_RATE" default:"0.995"`
	Iterations  int     `mapstructure:"iterations" env:"ITERATIONS" default:"20000"`

	// Validation limits
	MaxStops      int `mapstructure:"max_stops" env:"MAX_STOPS" default:"200"`
	MaxCandidates int `mapstructure:"max_candidates" env:"MAX_CANDIDATES" default:"500"`
}

// DefaultConfig returns the default configuration for the planner.
func DefaultConfig() *Config {
	return &Config{
		ExactThreshold: 8,
		TravelSpeedKmh: 30.0,
		DistanceNormKm: 50.0,
		InitialTemp:    2.0,
		CoolingRate:    0.995,
		Iterations:     20000,
		MaxStops:       200,
		MaxCandidates:  500,
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.ExactThreshold < 1 {
		return ErrInvalidConfig{Field: "exact_threshold", Reason: "must be at least 1"}
	}
	if c.ExactThreshold > 10 {
		return ErrInvalidConfig{Field: "exact_threshold", Reason: "factorial search above 10 stops is intractable"}
	}
	if c.TravelSpeedKmh <= 0 {
		return ErrInvalidConfig{Field: "travel_speed_kmh", Reason: "must be positive"}
	}
	if c.DistanceNormKm <= 0 {
		return ErrInvalidConfig{Field: "distance_norm_km", Reason: "must be positive"}
	}
	if c.InitialTemp <= 0 {
		return ErrInvalidConfig{Field: "initial_temp", Reason: "must be positive"}
	}
	if c.CoolingRate <= 0 || c.CoolingRate >= 1 {
		return ErrInvalidConfig{Field: "cooling_rate", Reason: "must be in (0, 1)"}
	}
	if c.Iterations < 1 {
		return ErrInvalidConfig{Field: "iterations", Reason: "must be at least 1"}
	}
	if c.MaxStops < c.ExactThreshold {
		return ErrInvalidConfig{Field: "max_stops", Reason: "must be >= exact_threshold"}
	}
	if c.MaxCandidates < 1 {
		return ErrInvalidConfig{Field: "max_candidates", Reason: "must be at least 1"}
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
