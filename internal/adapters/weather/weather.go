package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/roamly/trip-service/internal/httpclient"
	"github.com/roamly/trip-service/internal/httpclient/ratelimit"
)

// Config holds the weather adapter configuration.
type Config struct {
	BaseURL string `mapstructure:"base_url" env:"WEATHER_BASE_URL" default:"https://api.open-meteo.com/v1/forecast"`
	Enabled bool   `mapstructure:"enabled" env:"WEATHER_ENABLED" default:"true"`
}

// DefaultConfig returns the default weather adapter configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL: "https://api.open-meteo.com/v1/forecast",
		Enabled: true,
	}
}

// Observation is the current-weather slice of the forecast response.
type Observation struct {
	TemperatureC  float64 `json:"temperature_2m"`
	Precipitation float64 `json:"precipitation"`
	WindSpeedKmh  float64 `json:"wind_speed_10m"`
	WeatherCode   int     `json:"weather_code"`
}

type forecastResponse struct {
	Current Observation `json:"current"`
}

// Client fetches current weather and condenses it into a single penalty
// signal the planner can weigh. The planner itself never performs I/O.
type Client struct {
	http   *httpclient.Client
	config *Config
	logger *zerolog.Logger
}

// NewClient creates a weather adapter using the shared retrying HTTP client.
func NewClient(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	logger := log.With().Str("component", "weather_adapter").Logger()

	return &Client{
		http: httpclient.NewClient(ratelimit.WithOverrides(ratelimit.PartialConfig{
			RequestsPerSecond: intPtr(1),
		})),
		config: config,
		logger: &logger,
	}
}

// CurrentPenalty returns a weather-penalty signal in [0, 1] for a location.
// 0 means fine outdoor weather, 1 means conditions that should strongly
// depress outdoor stops. When the adapter is disabled it reports 0.
func (c *Client) CurrentPenalty(ctx context.Context, lat, lng float64) (float64, error) {
	if !c.config.Enabled {
		return 0, nil
	}

	obs, err := c.Current(ctx, lat, lng)
	if err != nil {
		return 0, err
	}
	return PenaltyFromObservation(obs), nil
}

// Current fetches the current observation for a location.
func (c *Client) Current(ctx context.Context, lat, lng float64) (Observation, error) {
	q := url.Values{}
	q.Set("latitude", fmt.Sprintf("%.4f", lat))
	q.Set("longitude", fmt.Sprintf("%.4f", lng))
	q.Set("current", "temperature_2m,precipitation,wind_speed_10m,weather_code")

	body, err := c.http.GetBytes(ctx, c.config.BaseURL+"?"+q.Encode())
	if err != nil {
		return Observation{}, fmt.Errorf("failed to fetch weather: %w", err)
	}

	var resp forecastResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Observation{}, fmt.Errorf("failed to decode weather response: %w", err)
	}

	c.logger.Debug().
		Float64("lat", lat).
		Float64("lng", lng).
		Float64("precipitation", resp.Current.Precipitation).
		Float64("wind_kmh", resp.Current.WindSpeedKmh).
		Msg("Fetched current weather")

	return resp.Current, nil
}

// PenaltyFromObservation maps an observation to a signal in [0, 1].
// Precipitation dominates, wind and temperature extremes add smaller terms.
func PenaltyFromObservation(obs Observation) float64 {
	penalty := 0.0

	// Precipitation in mm/h: 5 mm/h or more counts as a washout
	if obs.Precipitation > 0 {
		p := obs.Precipitation / 5.0
		if p > 1 {
			p = 1
		}
		penalty += 0.6 * p
	}

	// Wind above 20 km/h starts to matter, 60 km/h caps the term
	if obs.WindSpeedKmh > 20 {
		w := (obs.WindSpeedKmh - 20) / 40.0
		if w > 1 {
			w = 1
		}
		penalty += 0.25 * w
	}

	// Temperature outside the 5..32 C band
	if obs.TemperatureC < 5 {
		t := (5 - obs.TemperatureC) / 15.0
		if t > 1 {
			t = 1
		}
		penalty += 0.15 * t
	} else if obs.TemperatureC > 32 {
		t := (obs.TemperatureC - 32) / 10.0
		if t > 1 {
			t = 1
		}
		penalty += 0.15 * t
	}

	if penalty > 1 {
		penalty = 1
	}
	return penalty
}

func intPtr(i int) *int {
	return &i
}
