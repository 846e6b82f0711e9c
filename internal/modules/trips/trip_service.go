package trips

import (
	"context"
	"fmt"
	"time"

	"parcel-relay/internal/models"

	"go.uber.org/zap"
)

// MatchTrigger is the slice of the matching engine the trip service drives.
type MatchTrigger interface {
	OnTripCreated(ctx context.Context, tripID string) (int, error)
}

// OriginIndex maintains the geo prefilter over trip origins. Nil-safe at the
// service level: a deployment without Redis simply skips indexing.
type OriginIndex interface {
	Add(ctx context.Context, tripID string, lat, lon float64) error
	Remove(ctx context.Context, tripID string) error
}

// ServiceInterface defines the contract for the trip service.
type ServiceInterface interface {
	Create(ctx context.Context, courierID string, req models.CreateTripRequest) (*models.Trip, int, error)
	Get(ctx context.Context, tripID string) (*models.Trip, error)
	ListMine(ctx context.Context, courierID string, page, limit int) ([]*models.Trip, int, error)
	Update(ctx context.Context, tripID, courierID string, req models.UpdateTripRequest) (*models.Trip, error)
	Cancel(ctx context.Context, tripID, courierID string) error
}

// Service implements the trip business rules.
type Service struct {
	repo    RepositoryInterface
	matcher MatchTrigger
	index   OriginIndex // nil when the geo index is disabled
	log     *zap.Logger
}

// NewService creates a new trip service. index may be nil.
func NewService(repo RepositoryInterface, matcher MatchTrigger, index OriginIndex, log *zap.Logger) *Service {
	return &Service{repo: repo, matcher: matcher, index: index, log: log}
}

// Create publishes a trip and immediately looks for matchable parcels.
func (s *Service) Create(ctx context.Context, courierID string, req models.CreateTripRequest) (*models.Trip, int, error) {
	now := time.Now()
	if req.DepartureTime.Before(now) || req.EstimatedArrival.Before(now) ||
		!req.EstimatedArrival.After(req.DepartureTime) {
		return nil, 0, models.ErrTripSchedule
	}

	trip, err := s.repo.Create(ctx, courierID, req)
	if err != nil {
		return nil, 0, fmt.Errorf("service.CreateTrip: %w", err)
	}

	s.indexOrigin(ctx, trip)

	created, err := s.matcher.OnTripCreated(ctx, trip.ID)
	if err != nil {
		s.log.Error("matching after trip creation failed",
			zap.String("trip_id", trip.ID),
			zap.Error(err),
		)
		return trip, 0, nil
	}
	return trip, created, nil
}

func (s *Service) Get(ctx context.Context, tripID string) (*models.Trip, error) {
	return s.repo.FindByID(ctx, tripID)
}

func (s *Service) ListMine(ctx context.Context, courierID string, page, limit int) ([]*models.Trip, int, error) {
	return s.repo.ListByCourier(ctx, courierID, page, limit)
}

// Update edits a trip while it is still scheduled and keeps the geo index
// in sync with the origin.
func (s *Service) Update(ctx context.Context, tripID, courierID string, req models.UpdateTripRequest) (*models.Trip, error) {
	trip, err := s.repo.FindByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.CourierID != courierID {
		return nil, models.ErrNotOwner
	}
	if trip.Status != models.TripStatusScheduled {
		return nil, models.ErrTripNotEditable
	}

	departure := trip.DepartureTime
	arrival := trip.EstimatedArrival
	if req.DepartureTime != nil {
		departure = *req.DepartureTime
	}
	if req.EstimatedArrival != nil {
		arrival = *req.EstimatedArrival
	}
	if !arrival.After(departure) {
		return nil, models.ErrTripSchedule
	}

	updated, err := s.repo.Update(ctx, tripID, req)
	if err != nil {
		return nil, fmt.Errorf("service.UpdateTrip: %w", err)
	}

	s.indexOrigin(ctx, updated)

	return updated, nil
}

// Cancel withdraws a scheduled trip and removes it from the geo index.
func (s *Service) Cancel(ctx context.Context, tripID, courierID string) error {
	trip, err := s.repo.FindByID(ctx, tripID)
	if err != nil {
		return err
	}
	if trip.CourierID != courierID {
		return models.ErrNotOwner
	}
	if trip.Status != models.TripStatusScheduled {
		return models.ErrTripNotEditable
	}

	if err := s.repo.UpdateStatus(ctx, tripID, models.TripStatusCancelled); err != nil {
		return err
	}

	if s.index != nil {
		if err := s.index.Remove(ctx, tripID); err != nil {
			s.log.Warn("failed to remove trip from geo index",
				zap.String("trip_id", tripID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// indexOrigin upserts the trip's origin into the geo index when coordinates
// are present. Index failures are logged, not surfaced: the index is an
// optimization and the orchestrator falls back to a full scan.
func (s *Service) indexOrigin(ctx context.Context, trip *models.Trip) {
	if s.index == nil || trip.OriginLat == nil || trip.OriginLon == nil {
		return
	}
	if err := s.index.Add(ctx, trip.ID, *trip.OriginLat, *trip.OriginLon); err != nil {
		s.log.Warn("failed to index trip origin",
			zap.String("trip_id", trip.ID),
			zap.Error(err),
		)
	}
}
