package planner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKm(t *testing.T) {
	// Los Angeles to San Francisco, roughly 559 km great-circle
	la := [2]float64{34.0522, -118.2437}
	sf := [2]float64{37.7749, -122.4194}

	d := HaversineKm(la[0], la[1], sf[0], sf[1])
	assert.InDelta(t, 559, d, 5)

	// symmetric
	assert.InDelta(t, d, HaversineKm(sf[0], sf[1], la[0], la[1]), 1e-9)

	// identical points
	assert.Zero(t, HaversineKm(la[0], la[1], la[0], la[1]))
}

func TestTravelTime(t *testing.T) {
	assert.Equal(t, time.Hour, travelTime(30, 30))
	assert.Equal(t, 30*time.Minute, travelTime(15, 30))
	assert.Equal(t, time.Duration(0), travelTime(0, 30))
}
