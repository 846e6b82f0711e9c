package models

import "time"

// MatchStatus enumerates the lifecycle states of a match.
//
// pending  -> accepted  (courier accepts)
// pending  -> rejected  (courier rejects)
// pending  -> deleted   (parcel edited; stale candidates are removed, not kept)
// accepted -> expired   (parcel edited and the re-score fell below threshold)
type MatchStatus string

const (
	MatchStatusPending  MatchStatus = "pending"
	MatchStatusAccepted MatchStatus = "accepted"
	MatchStatusRejected MatchStatus = "rejected"
	MatchStatusExpired  MatchStatus = "expired"
)

// Match is a scored candidate pairing of one parcel with one trip.
// At most one accepted match may exist per parcel at any time; the parcel's
// matched_trip_id mirrors that row.
type Match struct {
	ID                          string      `json:"id"`
	ParcelID                    string      `json:"parcel_id"`
	TripID                      string      `json:"trip_id"`
	MatchScore                  float64     `json:"match_score"`
	Status                      MatchStatus `json:"status"`
	MatchedAt                   time.Time   `json:"matched_at"`
	DeliveryFee                 *float64    `json:"delivery_fee,omitempty"`
	Currency                    *string     `json:"currency,omitempty"`
	PaymentStatus               *string     `json:"payment_status,omitempty"`
	DeliveryConfirmedBySenderAt *time.Time  `json:"delivery_confirmed_by_sender_at,omitempty"`
}

// AcceptMatchRequest carries the commercial terms the courier commits to
// when accepting a match.
type AcceptMatchRequest struct {
	DeliveryFee float64 `json:"delivery_fee" validate:"required,gt=0"`
	Currency    string  `json:"currency" validate:"required,len=3"`
}
