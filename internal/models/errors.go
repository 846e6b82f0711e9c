package models

import "errors"

var (
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("resource not found")

	// ErrNotOwner is returned when an actor tries to act on a resource
	// they do not own.
	ErrNotOwner = errors.New("resource does not belong to the requesting actor")

	// ErrParcelNotEditable is returned when a parcel edit is attempted
	// after a courier has picked the parcel up.
	ErrParcelNotEditable = errors.New("parcel can only be edited while pending or matched")

	// ErrParcelNotDeletable is returned when a delete is attempted on a
	// parcel that is matched or already moving.
	ErrParcelNotDeletable = errors.New("parcel can only be deleted while pending and unmatched")

	// ErrTripNotEditable is returned when a trip edit is attempted while
	// the trip is no longer in 'scheduled' state.
	ErrTripNotEditable = errors.New("trip can only be edited while scheduled")

	// ErrTripSchedule is returned when a trip's departure or arrival times
	// are in the past or out of order.
	ErrTripSchedule = errors.New("trip arrival must be after departure and neither may be in the past")

	// ErrMatchNotActionable is returned when an accept or reject is
	// attempted on a match that is not pending.
	ErrMatchNotActionable = errors.New("match is not in a state that can be accepted or rejected")

	// ErrParcelAlreadyMatched is returned when accepting a match for a
	// parcel that already has an accepted match.
	ErrParcelAlreadyMatched = errors.New("parcel already has an accepted match")

	// ErrDeliveryNotConfirmable is returned when a sender confirms delivery
	// on a match that has not been accepted.
	ErrDeliveryNotConfirmable = errors.New("delivery can only be confirmed on an accepted match")
)

// ErrorResponse is the JSON shape of every error payload returned by the API.
type ErrorResponse struct {
	Message string `json:"message"`
}
