// Package matching implements the parcel-trip matching engine: geographic
// scoring, candidate discovery, match persistence, and score invalidation
// when either side's data changes.
package matching

import "math"

const earthRadiusKm = 6371.0

// DistanceKm returns the great-circle (haversine) distance in kilometres
// between two points specified in decimal degrees. Symmetric; zero iff the
// points are equal.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLon := degreesToRadians(lon2 - lon1)

	rLat1 := degreesToRadians(lat1)
	rLat2 := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// ProximityScore maps a distance onto a 0-100 closeness score: 100 at zero
// distance, decaying linearly to 0 at maxKm and beyond.
func ProximityScore(distanceKm, maxKm float64) float64 {
	if maxKm <= 0 {
		return 0
	}
	if distanceKm <= 0 {
		return 100
	}
	if distanceKm >= maxKm {
		return 0
	}
	return 100 * (1 - distanceKm/maxKm)
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
