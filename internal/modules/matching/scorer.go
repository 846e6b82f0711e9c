package matching

import (
	"math"
	"time"

	"parcel-relay/internal/config"
	"parcel-relay/internal/models"
)

// Sub-score weights of the hand-tuned heuristic. They must sum to 1.
const (
	weightAlignment = 0.40
	weightProximity = 0.30
	weightTime      = 0.20
	weightCapacity  = 0.10
)

// maxPlausibleLegKm is the raw-geography ceiling on either leg. It catches
// country-token false negatives (ambiguous spellings) that slip through the
// textual country gate.
const maxPlausibleLegKm = 3000.0

// Scorer computes the 0-100 compatibility score for a parcel/trip pair.
// It is pure and stateless apart from its injected clock; safe for
// concurrent use across many pairs.
type Scorer struct {
	cfg config.MatchingConfig
	now func() time.Time
}

// NewScorer creates a scorer with the given tuning. Configuration is passed
// in explicitly; nothing is read from ambient state.
func NewScorer(cfg config.MatchingConfig) *Scorer {
	return &Scorer{cfg: cfg, now: time.Now}
}

// Score rates the pair 0-100, rounded to two decimals. Gates short-circuit
// to 0: cross-country pairings and implausible leg distances are never
// viable regardless of the other factors.
func (s *Scorer) Score(parcel *models.Parcel, trip *models.Trip) float64 {
	pickup := parcelPickup(parcel)
	delivery := parcelDelivery(parcel)
	origin := tripOrigin(trip)
	destination := tripDestination(trip)

	if countryToken(pickup.Address) != countryToken(origin.Address) ||
		countryToken(delivery.Address) != countryToken(destination.Address) {
		return 0
	}

	if legExceeds(pickup.Coord, origin.Coord, maxPlausibleLegKm) ||
		legExceeds(delivery.Coord, destination.Coord, maxPlausibleLegKm) {
		return 0
	}

	alignment := AlignmentScore(pickup, delivery, origin, destination,
		s.cfg.MaxPickupRadiusKm, s.cfg.MaxDeliveryRadiusKm)
	proximity := s.proximityScore(pickup, delivery, origin, destination)
	timeScore := s.timeCompatibility(parcel.PreferredPickupTime, trip.DepartureTime)
	capacity := capacityCompatibility(parcel.WeightKg, trip.AvailableCapacity)

	total := weightAlignment*alignment +
		weightProximity*proximity +
		weightTime*timeScore +
		weightCapacity*capacity

	return math.Round(total*100) / 100
}

// IsViable reports whether a score clears the configured acceptance threshold.
func (s *Scorer) IsViable(score float64) bool {
	return IsMatchValid(score, s.cfg.MinScore)
}

// IsMatchValid is the bare threshold check.
func IsMatchValid(score, threshold float64) bool {
	return score >= threshold
}

// proximityScore averages endpoint closeness over both legs, degrading to
// the city heuristic when any coordinate is missing.
func (s *Scorer) proximityScore(pickup, delivery, origin, destination Endpoint) float64 {
	if pickup.Coord.Valid && delivery.Coord.Valid && origin.Coord.Valid && destination.Coord.Valid {
		pickupLeg := ProximityScore(
			DistanceKm(pickup.Coord.Lat, pickup.Coord.Lon, origin.Coord.Lat, origin.Coord.Lon),
			s.cfg.ProximityRadiusKm,
		)
		deliveryLeg := ProximityScore(
			DistanceKm(delivery.Coord.Lat, delivery.Coord.Lon, destination.Coord.Lat, destination.Coord.Lon),
			s.cfg.ProximityRadiusKm,
		)
		return (pickupLeg + deliveryLeg) / 2
	}
	return textualAlignmentScore(pickup.Address, delivery.Address, origin.Address, destination.Address)
}

// timeCompatibility rates how well the parcel's preferred pickup time lines
// up with the trip's departure.
func (s *Scorer) timeCompatibility(preferred *time.Time, departure time.Time) float64 {
	now := s.now()

	if preferred != nil && preferred.Before(now) {
		return 0
	}
	if !departure.IsZero() && departure.Before(now) {
		return 0
	}

	if preferred != nil && !departure.IsZero() {
		gap := preferred.Sub(departure)
		if gap < 0 {
			gap = -gap
		}
		switch {
		case gap <= time.Hour:
			return 100
		case gap <= 3*time.Hour:
			return 80
		case gap <= 6*time.Hour:
			return 60
		case gap <= 12*time.Hour:
			return 40
		default:
			return 20
		}
	}

	if preferred == nil && !departure.IsZero() {
		until := departure.Sub(now)
		switch {
		case until < time.Hour:
			// Departing almost immediately leaves little room to hand over.
			return 30
		case until < 24*time.Hour:
			return 70
		default:
			return 90
		}
	}

	// Neither side pinned a time; assume loose compatibility.
	return 70
}

// Parcel size classes derived from weight.
const (
	sizeSmall = iota
	sizeMedium
	sizeLarge
)

// capacityCompatibility rates whether the parcel fits the trip's declared
// capacity class. A trip with no declared capacity is assumed flexible.
func capacityCompatibility(weightKg *float64, capacity models.TripCapacity) float64 {
	if capacity == models.CapacityUnset {
		return 70
	}
	if weightKg == nil {
		return 60
	}

	parcelClass := sizeLarge
	switch {
	case *weightKg <= 2:
		parcelClass = sizeSmall
	case *weightKg <= 10:
		parcelClass = sizeMedium
	}

	tripClass := sizeLarge
	switch capacity {
	case models.CapacitySmall:
		tripClass = sizeSmall
	case models.CapacityMedium:
		tripClass = sizeMedium
	}

	switch tripClass - parcelClass {
	case 0:
		return 100
	case 1:
		return 80
	case 2:
		return 60
	default:
		// Trip capacity smaller than the parcel needs.
		return 0
	}
}

func legExceeds(a, b Point, ceilingKm float64) bool {
	if !a.Valid || !b.Valid {
		return false
	}
	return DistanceKm(a.Lat, a.Lon, b.Lat, b.Lon) > ceilingKm
}

func parcelPickup(p *models.Parcel) Endpoint {
	return Endpoint{Address: p.PickupAddress, Coord: pointFrom(p.PickupLat, p.PickupLon)}
}

func parcelDelivery(p *models.Parcel) Endpoint {
	return Endpoint{Address: p.DeliveryAddress, Coord: pointFrom(p.DeliveryLat, p.DeliveryLon)}
}

func tripOrigin(t *models.Trip) Endpoint {
	return Endpoint{Address: t.OriginAddress, Coord: pointFrom(t.OriginLat, t.OriginLon)}
}

func tripDestination(t *models.Trip) Endpoint {
	return Endpoint{Address: t.DestinationAddress, Coord: pointFrom(t.DestinationLat, t.DestinationLon)}
}

func pointFrom(lat, lon *float64) Point {
	if lat == nil || lon == nil {
		return Point{}
	}
	return Point{Lat: *lat, Lon: *lon, Valid: true}
}
