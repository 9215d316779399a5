package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name                   string
		lat1, lng1, lat2, lng2 float64
		want                   float64
		tolerance              float64
	}{
		{
			name: "identical points",
			lat1: 41.8781, lng1: -87.6298,
			lat2: 41.8781, lng2: -87.6298,
			want:      0,
			tolerance: 0,
		},
		{
			name: "chicago to new york",
			lat1: 41.8781, lng1: -87.6298,
			lat2: 40.7128, lng2: -74.0060,
			want:      711,
			tolerance: 5,
		},
		{
			name: "short hop within a city",
			lat1: 41.8781, lng1: -87.6298,
			lat2: 41.8919, lng2: -87.6278,
			want:      0.95,
			tolerance: 0.05,
		},
		{
			name: "near-antipodal points stay finite",
			lat1: 0, lng1: 0,
			lat2: 0, lng2: 180,
			want:      12436,
			tolerance: 10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.lat1, tt.lng1, tt.lat2, tt.lng2)
			assert.InDelta(t, tt.want, got, tt.tolerance)
		})
	}
}

func TestDistanceSymmetric(t *testing.T) {
	pairs := [][4]float64{
		{41.8781, -87.6298, 40.7128, -74.0060},
		{34.0522, -118.2437, 37.7749, -122.4194},
		{-33.8688, 151.2093, 51.5074, -0.1278},
	}

	for _, p := range pairs {
		forward := Distance(p[0], p[1], p[2], p[3])
		backward := Distance(p[2], p[3], p[0], p[1])
		assert.InDelta(t, forward, backward, 1e-9)
	}
}
