package geo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dmcalde/sitework/internal/geo"
)

// Bangalore city center, used as the reference site in the fixtures below.
const (
	siteLat = 12.9716
	siteLon = 77.5946
)

func TestDistance(t *testing.T) {
	type testCase struct {
		name       string
		lat, lon   float64
		wantMeters float64
		tolerance  float64
	}

	tests := []testCase{
		{
			name:       "SamePoint",
			lat:        siteLat,
			lon:        siteLon,
			wantMeters: 0,
			tolerance:  0.001,
		},
		{
			// 0.00045 degrees of latitude is roughly 50 m.
			name:       "FiftyMetersNorth",
			lat:        siteLat + 0.00045,
			lon:        siteLon,
			wantMeters: 50,
			tolerance:  1,
		},
		{
			// 0.0045 degrees of latitude is roughly 500 m.
			name:       "FiveHundredMetersNorth",
			lat:        siteLat + 0.0045,
			lon:        siteLon,
			wantMeters: 500,
			tolerance:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := geo.Distance(siteLat, siteLon, tt.lat, tt.lon)
			assert.InDelta(t, tt.wantMeters, got, tt.tolerance)
		})
	}
}

func TestFence_Contains(t *testing.T) {
	type testCase struct {
		name     string
		fence    geo.Fence
		lat, lon float64
		want     bool
	}

	tests := []testCase{
		{
			name:  "WithinRadius",
			fence: geo.Fence{Lat: siteLat, Lon: siteLon, RadiusMeters: 100},
			lat:   siteLat + 0.00045, // ~50 m
			lon:   siteLon,
			want:  true,
		},
		{
			name:  "OutsideRadius",
			fence: geo.Fence{Lat: siteLat, Lon: siteLon, RadiusMeters: 100},
			lat:   siteLat + 0.0045, // ~500 m
			lon:   siteLon,
			want:  false,
		},
		{
			name:  "DefaultRadiusWhenUnset",
			fence: geo.Fence{Lat: siteLat, Lon: siteLon},
			lat:   siteLat + 0.00045, // ~50 m, inside the 100 m default
			lon:   siteLon,
			want:  true,
		},
		{
			name:  "OnSiteExactly",
			fence: geo.Fence{Lat: siteLat, Lon: siteLon, RadiusMeters: 1},
			lat:   siteLat,
			lon:   siteLon,
			want:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.fence.Contains(tt.lat, tt.lon))
		})
	}
}
