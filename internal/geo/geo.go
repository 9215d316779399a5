// Package geo provides great-circle distance math for merchant lookups.
package geo

import "math"

// earthRadiusMiles is the Earth's mean radius in miles.
const earthRadiusMiles = 3959

// Distance returns the haversine great-circle distance in miles between two
// coordinates given in degrees.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLng := (lng2 - lng1) * math.Pi / 180

	sinLat := math.Sin(deltaLat / 2)
	sinLng := math.Sin(deltaLng / 2)
	a := sinLat*sinLat + math.Cos(lat1Rad)*math.Cos(lat2Rad)*sinLng*sinLng

	// Defensive guard: floating error can push the asin argument just
	// outside [-1,1] near antipodal points.
	arg := math.Sqrt(a)
	if arg > 1 {
		arg = 1
	}

	return earthRadiusMiles * 2 * math.Asin(arg)
}
