package matching

import "strings"

// Fixed fallback scores used when coordinates are unavailable and only the
// textual city heuristic can be applied. Addresses without coordinates
// cannot be confidently rejected, so even a full miss stays nonzero.
const (
	textScoreBothCitiesMatch = 75
	textScoreOneCityMatch    = 60
	textScoreNoCityMatch     = 55
)

// Point is a geographic coordinate. Nil pointers upstream collapse into the
// Valid flag so the scoring code has a single presence check.
type Point struct {
	Lat   float64
	Lon   float64
	Valid bool
}

// Endpoint pairs an address string with its optional coordinates.
type Endpoint struct {
	Address string
	Coord   Point
}

// AlignmentScore rates how well the parcel's pickup->delivery path lies along
// the trip's origin->destination path, 0-100. With full coordinates both legs
// are scored against their radius and averaged; otherwise it degrades to the
// city token heuristic.
func AlignmentScore(pickup, delivery, origin, destination Endpoint, maxPickupKm, maxDeliveryKm float64) float64 {
	if pickup.Coord.Valid && delivery.Coord.Valid && origin.Coord.Valid && destination.Coord.Valid {
		pickupLeg := ProximityScore(
			DistanceKm(pickup.Coord.Lat, pickup.Coord.Lon, origin.Coord.Lat, origin.Coord.Lon),
			maxPickupKm,
		)
		deliveryLeg := ProximityScore(
			DistanceKm(delivery.Coord.Lat, delivery.Coord.Lon, destination.Coord.Lat, destination.Coord.Lon),
			maxDeliveryKm,
		)
		return (pickupLeg + deliveryLeg) / 2
	}
	return textualAlignmentScore(pickup.Address, delivery.Address, origin.Address, destination.Address)
}

// textualAlignmentScore compares approximate cities on both ends of the route.
func textualAlignmentScore(pickupAddr, deliveryAddr, originAddr, destinationAddr string) float64 {
	pickupMatches := citiesMatch(pickupAddr, originAddr)
	deliveryMatches := citiesMatch(deliveryAddr, destinationAddr)

	switch {
	case pickupMatches && deliveryMatches:
		return textScoreBothCitiesMatch
	case pickupMatches || deliveryMatches:
		return textScoreOneCityMatch
	default:
		return textScoreNoCityMatch
	}
}

func citiesMatch(a, b string) bool {
	cityA := cityToken(a)
	cityB := cityToken(b)
	return cityA != "" && cityA == cityB
}

// cityToken approximates the city as the second-to-last comma-separated token
// of an address. Known fragility: addresses without a trailing country, or
// with commas inside a street name, mislead it. Kept as-is because changing
// the parse changes matching outcomes.
func cityToken(address string) string {
	parts := strings.Split(address, ",")
	if len(parts) < 2 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(parts[len(parts)-2]))
}

// countryToken approximates the country as the last comma-separated token.
// Same fragility caveat as cityToken.
func countryToken(address string) string {
	parts := strings.Split(address, ",")
	if len(parts) == 0 {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(parts[len(parts)-1]))
}
