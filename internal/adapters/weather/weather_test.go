package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPenaltyFromObservation(t *testing.T) {
	tests := []struct {
		name string
		obs  Observation
		want float64
	}{
		{
			name: "mild day carries no penalty",
			obs:  Observation{TemperatureC: 22, Precipitation: 0, WindSpeedKmh: 10},
			want: 0,
		},
		{
			name: "heavy rain saturates the precipitation term",
			obs:  Observation{TemperatureC: 18, Precipitation: 8, WindSpeedKmh: 5},
			want: 0.6,
		},
		{
			name: "light drizzle is proportional",
			obs:  Observation{TemperatureC: 18, Precipitation: 2.5, WindSpeedKmh: 5},
			want: 0.3,
		},
		{
			name: "storm wind adds on top of rain",
			obs:  Observation{TemperatureC: 18, Precipitation: 5, WindSpeedKmh: 60},
			want: 0.85,
		},
		{
			name: "freezing calm day",
			obs:  Observation{TemperatureC: -10, Precipitation: 0, WindSpeedKmh: 0},
			want: 0.15,
		},
		{
			name: "heat above the comfort band",
			obs:  Observation{TemperatureC: 37, Precipitation: 0, WindSpeedKmh: 0},
			want: 0.075,
		},
		{
			name: "everything at once clamps to one",
			obs:  Observation{TemperatureC: -30, Precipitation: 20, WindSpeedKmh: 120},
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PenaltyFromObservation(tt.obs), 1e-9)
		})
	}
}

func TestCurrentPenaltyFetchesAndMaps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "45.8131", r.URL.Query().Get("latitude"))
		assert.Equal(t, "15.9775", r.URL.Query().Get("longitude"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"current":{"temperature_2m":18.0,"precipitation":2.5,"wind_speed_10m":5.0,"weather_code":61}}`))
	}))
	defer srv.Close()

	client := NewClient(&Config{BaseURL: srv.URL, Enabled: true})

	penalty, err := client.CurrentPenalty(context.Background(), 45.8131, 15.9775)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, penalty, 1e-9)
}

func TestCurrentPenaltyDisabled(t *testing.T) {
	client := NewClient(&Config{BaseURL: "http://unreachable.invalid", Enabled: false})

	penalty, err := client.CurrentPenalty(context.Background(), 45.0, 15.0)
	require.NoError(t, err)
	assert.Zero(t, penalty)
}

func TestCurrentDecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	client := NewClient(&Config{BaseURL: srv.URL, Enabled: true})

	_, err := client.Current(context.Background(), 45.0, 15.0)
	assert.Error(t, err)
}
