// Package geo verifies reported site locations against a project's
// registered geofence.
package geo

import "math"

const (
	earthRadiusMeters = 6371000

	// DefaultRadiusMeters is used when a project has no radius configured.
	DefaultRadiusMeters = 100
)

// Distance returns the great-circle distance in meters between two
// coordinates, computed with the haversine formula.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := radians(lat2 - lat1)
	dLon := radians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(lat1))*math.Cos(radians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// Fence is a circular allowed zone around a registered site.
type Fence struct {
	Lat          float64
	Lon          float64
	RadiusMeters float64
}

// Contains reports whether the given coordinate lies within the fence.
// A zero or negative radius falls back to DefaultRadiusMeters.
func (f Fence) Contains(lat, lon float64) bool {
	radius := f.RadiusMeters
	if radius <= 0 {
		radius = DefaultRadiusMeters
	}

	return Distance(f.Lat, f.Lon, lat, lon) <= radius
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
