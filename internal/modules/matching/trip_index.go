package matching

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const tripOriginGeoKey = "matching:trips:origins"

// TripIndex keeps trip origins in a Redis GEO set so candidate discovery can
// prefilter by distance instead of scanning every schedulable trip. Only
// trips with origin coordinates are indexed; coordinate-less trips are
// enumerated from Postgres and unioned in by the orchestrator.
type TripIndex struct {
	redis *redis.Client
}

// NewTripIndex creates an index backed by the given Redis client.
func NewTripIndex(rdb *redis.Client) *TripIndex {
	return &TripIndex{redis: rdb}
}

// Add records or updates a trip's origin position.
func (ix *TripIndex) Add(ctx context.Context, tripID string, lat, lon float64) error {
	return ix.redis.GeoAdd(ctx, tripOriginGeoKey, &redis.GeoLocation{
		Name:      tripID,
		Latitude:  lat,
		Longitude: lon,
	}).Err()
}

// Remove drops a trip from the index, typically on cancel or completion.
func (ix *TripIndex) Remove(ctx context.Context, tripID string) error {
	return ix.redis.ZRem(ctx, tripOriginGeoKey, tripID).Err()
}

// NearbyTripIDs returns trips whose origin lies within radiusKm of the given
// point, closest first.
func (ix *TripIndex) NearbyTripIDs(ctx context.Context, lat, lon, radiusKm float64) ([]string, error) {
	results, err := ix.redis.GeoSearch(ctx, tripOriginGeoKey, &redis.GeoSearchQuery{
		Latitude:   lat,
		Longitude:  lon,
		Radius:     radiusKm,
		RadiusUnit: "km",
		Sort:       "ASC",
	}).Result()
	if err != nil {
		return nil, err
	}
	return results, nil
}
