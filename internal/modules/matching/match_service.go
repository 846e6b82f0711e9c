package matching

import (
	"context"
	"fmt"
	"time"

	"parcel-relay/internal/models"

	"go.uber.org/zap"
)

// MatchServiceInterface defines the match-facing API surface: courier
// accept/reject, sender delivery confirmation, and listings for both sides.
type MatchServiceInterface interface {
	ListForTrip(ctx context.Context, tripID, courierID string) ([]*models.Match, error)
	ListForParcel(ctx context.Context, parcelID, senderID string) ([]*models.Match, error)
	Accept(ctx context.Context, matchID, courierID string, req models.AcceptMatchRequest) (*models.Match, error)
	Reject(ctx context.Context, matchID, courierID string) error
	ConfirmDelivery(ctx context.Context, matchID, senderID string) (*models.Match, error)
}

// MatchService implements MatchServiceInterface on top of the repository,
// adding ownership checks against the parcel and trip stores.
type MatchService struct {
	matches  MatchRepositoryInterface
	parcels  ParcelStore
	trips    TripStore
	notifier Notifier // nil when notifications are disabled
	log      *zap.Logger
}

// NewMatchService creates a new match service.
func NewMatchService(matches MatchRepositoryInterface, parcels ParcelStore, trips TripStore, notifier Notifier, log *zap.Logger) *MatchService {
	return &MatchService{
		matches:  matches,
		parcels:  parcels,
		trips:    trips,
		notifier: notifier,
		log:      log,
	}
}

func (s *MatchService) ListForTrip(ctx context.Context, tripID, courierID string) ([]*models.Match, error) {
	trip, err := s.trips.FindByID(ctx, tripID)
	if err != nil {
		return nil, fmt.Errorf("service.ListForTrip: %w", err)
	}
	if trip.CourierID != courierID {
		return nil, models.ErrNotOwner
	}
	return s.matches.ListByTrip(ctx, tripID)
}

func (s *MatchService) ListForParcel(ctx context.Context, parcelID, senderID string) ([]*models.Match, error) {
	parcel, err := s.parcels.FindByID(ctx, parcelID)
	if err != nil {
		return nil, fmt.Errorf("service.ListForParcel: %w", err)
	}
	if parcel.SenderID != senderID {
		return nil, models.ErrNotOwner
	}
	return s.matches.ListByParcel(ctx, parcelID)
}

// Accept commits the courier to the match. The repository transaction
// enforces the one-accepted-match-per-parcel invariant.
func (s *MatchService) Accept(ctx context.Context, matchID, courierID string, req models.AcceptMatchRequest) (*models.Match, error) {
	match, err := s.matches.FindByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("service.AcceptMatch: %w", err)
	}

	trip, err := s.trips.FindByID(ctx, match.TripID)
	if err != nil {
		return nil, fmt.Errorf("service.AcceptMatch: %w", err)
	}
	if trip.CourierID != courierID {
		return nil, models.ErrNotOwner
	}

	accepted, err := s.matches.Accept(ctx, matchID, req.DeliveryFee, req.Currency)
	if err != nil {
		return nil, err
	}

	s.log.Info("match accepted",
		zap.String("match_id", matchID),
		zap.String("parcel_id", accepted.ParcelID),
		zap.String("trip_id", accepted.TripID),
	)

	if s.notifier != nil {
		if parcel, err := s.parcels.FindByID(ctx, accepted.ParcelID); err == nil {
			s.notifier.MatchAccepted(ctx, parcel, trip)
		}
	}
	return accepted, nil
}

func (s *MatchService) Reject(ctx context.Context, matchID, courierID string) error {
	match, err := s.matches.FindByID(ctx, matchID)
	if err != nil {
		return fmt.Errorf("service.RejectMatch: %w", err)
	}

	trip, err := s.trips.FindByID(ctx, match.TripID)
	if err != nil {
		return fmt.Errorf("service.RejectMatch: %w", err)
	}
	if trip.CourierID != courierID {
		return models.ErrNotOwner
	}

	return s.matches.Reject(ctx, matchID)
}

func (s *MatchService) ConfirmDelivery(ctx context.Context, matchID, senderID string) (*models.Match, error) {
	match, err := s.matches.FindByID(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("service.ConfirmDelivery: %w", err)
	}

	parcel, err := s.parcels.FindByID(ctx, match.ParcelID)
	if err != nil {
		return nil, fmt.Errorf("service.ConfirmDelivery: %w", err)
	}
	if parcel.SenderID != senderID {
		return nil, models.ErrNotOwner
	}

	if err := s.matches.ConfirmDelivery(ctx, matchID, time.Now().UTC()); err != nil {
		return nil, err
	}
	return s.matches.FindByID(ctx, matchID)
}
