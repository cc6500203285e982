package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/roamly/trip-service/internal/httpclient"
	"github.com/roamly/trip-service/internal/httpclient/ratelimit"
	"github.com/roamly/trip-service/internal/planner"
)

// Config holds the place search adapter configuration.
type Config struct {
	BaseURL    string `mapstructure:"base_url" env:"PLACES_BASE_URL" default:"https://nominatim.openstreetmap.org/search"`
	MaxResults int    `mapstructure:"max_results" env:"PLACES_MAX_RESULTS" default:"10"`
}

// DefaultConfig returns the default place search configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:    "https://nominatim.openstreetmap.org/search",
		MaxResults: 10,
	}
}

// Place is a remote search result reduced to the fields the planner needs.
type Place struct {
	Name     string
	Lat      float64
	Lng      float64
	Category string
}

// nominatimResult mirrors the provider's JSON. Coordinates arrive as strings.
type nominatimResult struct {
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	Class       string `json:"class"`
	Type        string `json:"type"`
}

// Client searches a remote geocoding service for places. Results come back
// as plain values; callers decide whether to feed them to the planner or
// persist them.
type Client struct {
	http   *httpclient.Client
	config *Config
	logger *zerolog.Logger
}

// NewClient creates a place search adapter. The provider enforces an
// absolute limit of one request per second, so the rate limiter is pinned
// there regardless of the shared default.
func NewClient(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	logger := log.With().Str("component", "places_adapter").Logger()

	return &Client{
		http: httpclient.NewClient(ratelimit.WithOverrides(ratelimit.PartialConfig{
			RequestsPerSecond: intPtr(1),
		})),
		config: config,
		logger: &logger,
	}
}

// Search looks up places matching a free-text query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Place, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query must not be empty")
	}
	if limit <= 0 || limit > c.config.MaxResults {
		limit = c.config.MaxResults
	}

	q := url.Values{}
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("limit", strconv.Itoa(limit))

	body, err := c.http.GetBytes(ctx, c.config.BaseURL+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to search places: %w", err)
	}

	var raw []nominatimResult
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode place results: %w", err)
	}

	places := make([]Place, 0, len(raw))
	for _, r := range raw {
		lat, latErr := strconv.ParseFloat(r.Lat, 64)
		lng, lngErr := strconv.ParseFloat(r.Lon, 64)
		if latErr != nil || lngErr != nil {
			c.logger.Warn().
				Str("name", r.DisplayName).
				Str("lat", r.Lat).
				Str("lon", r.Lon).
				Msg("Skipping place with unparseable coordinates")
			continue
		}

		places = append(places, Place{
			Name:     shortName(r.DisplayName),
			Lat:      lat,
			Lng:      lng,
			Category: r.Type,
		})
	}

	c.logger.Debug().Str("query", query).Int("results", len(places)).Msg("Searched places")
	return places, nil
}

// ToCandidate converts a search result into a planner candidate. The category
// becomes the single category label; everything else keeps planner defaults.
func ToCandidate(p Place) planner.CandidateStop {
	var categories []string
	if p.Category != "" {
		categories = []string{p.Category}
	}
	return planner.CandidateStop{
		ID:         p.Name,
		Name:       p.Name,
		Lat:        p.Lat,
		Lng:        p.Lng,
		Categories: categories,
	}
}

// shortName trims a display name to its first comma-separated segment.
func shortName(displayName string) string {
	if idx := strings.Index(displayName, ","); idx > 0 {
		return strings.TrimSpace(displayName[:idx])
	}
	return strings.TrimSpace(displayName)
}

func intPtr(i int) *int {
	return &i
}
