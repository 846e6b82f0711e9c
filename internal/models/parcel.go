package models

import "time"

// ParcelStatus enumerates the lifecycle states of a parcel.
type ParcelStatus string

const (
	ParcelStatusPending   ParcelStatus = "pending"
	ParcelStatusMatched   ParcelStatus = "matched"
	ParcelStatusPickedUp  ParcelStatus = "picked_up"
	ParcelStatusInTransit ParcelStatus = "in_transit"
	ParcelStatusDelivered ParcelStatus = "delivered"
	ParcelStatusCancelled ParcelStatus = "cancelled"
)

// Parcel represents a sender-owned shipment request looking for a courier.
// Coordinates are optional: they are filled in by the upstream geocoding
// collaborator when the address resolves, and the matching engine degrades
// to textual heuristics when they are absent.
type Parcel struct {
	ID                  string       `json:"id"`
	SenderID            string       `json:"sender_id"`
	PickupAddress       string       `json:"pickup_address"`
	DeliveryAddress     string       `json:"delivery_address"`
	PickupLat           *float64     `json:"pickup_lat,omitempty"`
	PickupLon           *float64     `json:"pickup_lon,omitempty"`
	DeliveryLat         *float64     `json:"delivery_lat,omitempty"`
	DeliveryLon         *float64     `json:"delivery_lon,omitempty"`
	WeightKg            *float64     `json:"weight_kg,omitempty"`
	Dimensions          string       `json:"dimensions"`
	EstimatedValue      float64      `json:"estimated_value"`
	Currency            string       `json:"currency"`
	PreferredPickupTime *time.Time   `json:"preferred_pickup_time,omitempty"`
	Status              ParcelStatus `json:"status"`
	MatchedTripID       *string      `json:"matched_trip_id,omitempty"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

// CreateParcelRequest represents the data needed to register a new parcel.
type CreateParcelRequest struct {
	PickupAddress       string     `json:"pickup_address" validate:"required,min=3"`
	DeliveryAddress     string     `json:"delivery_address" validate:"required,min=3"`
	PickupLat           *float64   `json:"pickup_lat,omitempty" validate:"omitempty,min=-90,max=90"`
	PickupLon           *float64   `json:"pickup_lon,omitempty" validate:"omitempty,min=-180,max=180"`
	DeliveryLat         *float64   `json:"delivery_lat,omitempty" validate:"omitempty,min=-90,max=90"`
	DeliveryLon         *float64   `json:"delivery_lon,omitempty" validate:"omitempty,min=-180,max=180"`
	WeightKg            *float64   `json:"weight_kg,omitempty" validate:"omitempty,gt=0"`
	Dimensions          string     `json:"dimensions" validate:"required"`
	EstimatedValue      float64    `json:"estimated_value" validate:"required,gt=0,lte=2000"`
	Currency            string     `json:"currency" validate:"required,len=3"`
	PreferredPickupTime *time.Time `json:"preferred_pickup_time,omitempty"`
}

// UpdateParcelRequest represents a partial edit of a pending parcel.
// Pointer fields distinguish "leave unchanged" from "set to zero value".
type UpdateParcelRequest struct {
	PickupAddress       *string    `json:"pickup_address,omitempty" validate:"omitempty,min=3"`
	DeliveryAddress     *string    `json:"delivery_address,omitempty" validate:"omitempty,min=3"`
	PickupLat           *float64   `json:"pickup_lat,omitempty" validate:"omitempty,min=-90,max=90"`
	PickupLon           *float64   `json:"pickup_lon,omitempty" validate:"omitempty,min=-180,max=180"`
	DeliveryLat         *float64   `json:"delivery_lat,omitempty" validate:"omitempty,min=-90,max=90"`
	DeliveryLon         *float64   `json:"delivery_lon,omitempty" validate:"omitempty,min=-180,max=180"`
	WeightKg            *float64   `json:"weight_kg,omitempty" validate:"omitempty,gt=0"`
	Dimensions          *string    `json:"dimensions,omitempty" validate:"omitempty,min=1"`
	EstimatedValue      *float64   `json:"estimated_value,omitempty" validate:"omitempty,gt=0,lte=2000"`
	Currency            *string    `json:"currency,omitempty" validate:"omitempty,len=3"`
	PreferredPickupTime *time.Time `json:"preferred_pickup_time,omitempty"`
}
