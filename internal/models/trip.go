package models

import "time"

// TripStatus enumerates the lifecycle states of a trip.
type TripStatus string

const (
	TripStatusScheduled  TripStatus = "scheduled"
	TripStatusInProgress TripStatus = "in_progress"
	TripStatusCompleted  TripStatus = "completed"
	TripStatusCancelled  TripStatus = "cancelled"
)

// TripCapacity is the coarse size class of parcel a courier is willing to carry.
// An empty value means the courier declared no limit.
type TripCapacity string

const (
	CapacityUnset  TripCapacity = ""
	CapacitySmall  TripCapacity = "small"
	CapacityMedium TripCapacity = "medium"
	CapacityLarge  TripCapacity = "large"
)

// Trip represents a courier-owned transport offer along a planned route.
type Trip struct {
	ID                 string       `json:"id"`
	CourierID          string       `json:"courier_id"`
	OriginAddress      string       `json:"origin_address"`
	DestinationAddress string       `json:"destination_address"`
	OriginLat          *float64     `json:"origin_lat,omitempty"`
	OriginLon          *float64     `json:"origin_lon,omitempty"`
	DestinationLat     *float64     `json:"destination_lat,omitempty"`
	DestinationLon     *float64     `json:"destination_lon,omitempty"`
	DepartureTime      time.Time    `json:"departure_time"`
	EstimatedArrival   time.Time    `json:"estimated_arrival"`
	AvailableCapacity  TripCapacity `json:"available_capacity,omitempty"`
	Status             TripStatus   `json:"status"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}

// CreateTripRequest represents the data needed to publish a new trip.
type CreateTripRequest struct {
	OriginAddress      string    `json:"origin_address" validate:"required,min=3"`
	DestinationAddress string    `json:"destination_address" validate:"required,min=3"`
	OriginLat          *float64  `json:"origin_lat,omitempty" validate:"omitempty,min=-90,max=90"`
	OriginLon          *float64  `json:"origin_lon,omitempty" validate:"omitempty,min=-180,max=180"`
	DestinationLat     *float64  `json:"destination_lat,omitempty" validate:"omitempty,min=-90,max=90"`
	DestinationLon     *float64  `json:"destination_lon,omitempty" validate:"omitempty,min=-180,max=180"`
	DepartureTime      time.Time `json:"departure_time" validate:"required"`
	EstimatedArrival   time.Time `json:"estimated_arrival" validate:"required"`
	AvailableCapacity  string    `json:"available_capacity,omitempty" validate:"omitempty,oneof=small medium large"`
}

// UpdateTripRequest represents a partial edit of a scheduled trip.
type UpdateTripRequest struct {
	OriginAddress      *string    `json:"origin_address,omitempty" validate:"omitempty,min=3"`
	DestinationAddress *string    `json:"destination_address,omitempty" validate:"omitempty,min=3"`
	OriginLat          *float64   `json:"origin_lat,omitempty" validate:"omitempty,min=-90,max=90"`
	OriginLon          *float64   `json:"origin_lon,omitempty" validate:"omitempty,min=-180,max=180"`
	DestinationLat     *float64   `json:"destination_lat,omitempty" validate:"omitempty,min=-90,max=90"`
	DestinationLon     *float64   `json:"destination_lon,omitempty" validate:"omitempty,min=-180,max=180"`
	DepartureTime      *time.Time `json:"departure_time,omitempty"`
	EstimatedArrival   *time.Time `json:"estimated_arrival,omitempty"`
	AvailableCapacity  *string    `json:"available_capacity,omitempty" validate:"omitempty,oneof=small medium large"`
}
