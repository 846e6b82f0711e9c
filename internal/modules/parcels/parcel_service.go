package parcels

import (
	"context"
	"fmt"

	"parcel-relay/internal/models"

	"go.uber.org/zap"
)

// MatchTrigger is the slice of the matching engine the parcel service
// drives. Creation matching is synchronous; update matching is
// fire-and-forget on the engine's side.
type MatchTrigger interface {
	OnParcelCreated(ctx context.Context, parcelID string) (int, error)
	OnParcelUpdated(parcelID string)
}

// ServiceInterface defines the contract for the parcel service.
type ServiceInterface interface {
	Create(ctx context.Context, senderID string, req models.CreateParcelRequest) (*models.Parcel, int, error)
	Get(ctx context.Context, parcelID, senderID string) (*models.Parcel, error)
	ListMine(ctx context.Context, senderID string, page, limit int) ([]*models.Parcel, int, error)
	Update(ctx context.Context, parcelID, senderID string, req models.UpdateParcelRequest) (*models.Parcel, error)
	Delete(ctx context.Context, parcelID, senderID string) error
}

// Service implements the parcel business rules.
type Service struct {
	repo    RepositoryInterface
	matcher MatchTrigger
	log     *zap.Logger
}

// NewService creates a new parcel service.
func NewService(repo RepositoryInterface, matcher MatchTrigger, log *zap.Logger) *Service {
	return &Service{repo: repo, matcher: matcher, log: log}
}

// Create registers a parcel and immediately looks for candidate trips.
// The match count is returned so the response can tell the sender whether
// couriers are already available. A matching failure here does not undo the
// creation; the background trigger path will retry on the next edit.
func (s *Service) Create(ctx context.Context, senderID string, req models.CreateParcelRequest) (*models.Parcel, int, error) {
	parcel, err := s.repo.Create(ctx, senderID, req)
	if err != nil {
		return nil, 0, fmt.Errorf("service.CreateParcel: %w", err)
	}

	created, err := s.matcher.OnParcelCreated(ctx, parcel.ID)
	if err != nil {
		s.log.Error("matching after parcel creation failed",
			zap.String("parcel_id", parcel.ID),
			zap.Error(err),
		)
		return parcel, 0, nil
	}
	return parcel, created, nil
}

func (s *Service) Get(ctx context.Context, parcelID, senderID string) (*models.Parcel, error) {
	parcel, err := s.repo.FindByID(ctx, parcelID)
	if err != nil {
		return nil, err
	}
	if parcel.SenderID != senderID {
		return nil, models.ErrNotOwner
	}
	return parcel, nil
}

func (s *Service) ListMine(ctx context.Context, senderID string, page, limit int) ([]*models.Parcel, int, error) {
	return s.repo.ListBySender(ctx, senderID, page, limit)
}

// Update edits a parcel and schedules re-matching. Edits are allowed while
// the parcel is pending or matched; once a courier has picked it up the
// route is committed. Editing a matched parcel may expire its accepted
// match if the new data no longer fits the trip.
func (s *Service) Update(ctx context.Context, parcelID, senderID string, req models.UpdateParcelRequest) (*models.Parcel, error) {
	parcel, err := s.repo.FindByID(ctx, parcelID)
	if err != nil {
		return nil, err
	}
	if parcel.SenderID != senderID {
		return nil, models.ErrNotOwner
	}
	if parcel.Status != models.ParcelStatusPending && parcel.Status != models.ParcelStatusMatched {
		return nil, models.ErrParcelNotEditable
	}

	updated, err := s.repo.Update(ctx, parcelID, req)
	if err != nil {
		return nil, fmt.Errorf("service.UpdateParcel: %w", err)
	}

	// Fire-and-forget: the response does not wait for re-matching.
	s.matcher.OnParcelUpdated(parcelID)

	return updated, nil
}

// Delete removes a parcel, allowed only while it is pending and unmatched.
func (s *Service) Delete(ctx context.Context, parcelID, senderID string) error {
	parcel, err := s.repo.FindByID(ctx, parcelID)
	if err != nil {
		return err
	}
	if parcel.SenderID != senderID {
		return models.ErrNotOwner
	}
	if parcel.Status != models.ParcelStatusPending || parcel.MatchedTripID != nil {
		return models.ErrParcelNotDeletable
	}
	return s.repo.Delete(ctx, parcelID)
}
