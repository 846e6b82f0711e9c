package matching

import (
	"context"
	"sync"
	"time"

	"parcel-relay/internal/models"

	"github.com/google/uuid"
)

// In-memory fakes for the store interfaces, mirroring the database
// guarantees the real repositories lean on (notably the (parcel, trip)
// uniqueness that makes CreateIfAbsent idempotent).

type fakeParcelStore struct {
	mu      sync.Mutex
	parcels map[string]*models.Parcel
}

func newFakeParcelStore(ps ...*models.Parcel) *fakeParcelStore {
	s := &fakeParcelStore{parcels: make(map[string]*models.Parcel)}
	for _, p := range ps {
		s.parcels[p.ID] = p
	}
	return s
}

func (s *fakeParcelStore) FindByID(_ context.Context, parcelID string) (*models.Parcel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.parcels[parcelID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakeParcelStore) ListMatchable(_ context.Context) ([]*models.Parcel, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Parcel
	for _, p := range s.parcels {
		if p.Status == models.ParcelStatusPending && p.MatchedTripID == nil {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakeParcelStore) unlink(parcelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.parcels[parcelID]; ok {
		p.MatchedTripID = nil
		p.Status = models.ParcelStatusPending
	}
}

func (s *fakeParcelStore) link(parcelID, tripID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.parcels[parcelID]
	if !ok || p.MatchedTripID != nil || p.Status != models.ParcelStatusPending {
		return false
	}
	p.MatchedTripID = &tripID
	p.Status = models.ParcelStatusMatched
	return true
}

type fakeTripStore struct {
	mu    sync.Mutex
	trips map[string]*models.Trip
	now   func() time.Time
}

func newFakeTripStore(now func() time.Time, ts ...*models.Trip) *fakeTripStore {
	s := &fakeTripStore{trips: make(map[string]*models.Trip), now: now}
	for _, t := range ts {
		s.trips[t.ID] = t
	}
	return s
}

func (s *fakeTripStore) FindByID(_ context.Context, tripID string) (*models.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trips[tripID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (s *fakeTripStore) schedulable(t *models.Trip) bool {
	return t.Status == models.TripStatusScheduled && t.DepartureTime.After(s.now())
}

func (s *fakeTripStore) ListSchedulable(_ context.Context) ([]*models.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Trip
	for _, t := range s.trips {
		if s.schedulable(t) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakeTripStore) ListSchedulableWithoutCoords(_ context.Context) ([]*models.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Trip
	for _, t := range s.trips {
		if s.schedulable(t) && (t.OriginLat == nil || t.OriginLon == nil) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *fakeTripStore) ListSchedulableByIDs(_ context.Context, tripIDs []string) ([]*models.Trip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Trip
	for _, id := range tripIDs {
		if t, ok := s.trips[id]; ok && s.schedulable(t) {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeMatchRepo struct {
	mu      sync.Mutex
	rows    map[string]*models.Match // keyed parcelID+"|"+tripID
	parcels *fakeParcelStore
}

func newFakeMatchRepo(parcels *fakeParcelStore) *fakeMatchRepo {
	return &fakeMatchRepo{rows: make(map[string]*models.Match), parcels: parcels}
}

func pairKey(parcelID, tripID string) string { return parcelID + "|" + tripID }

func (r *fakeMatchRepo) CreateIfAbsent(_ context.Context, parcelID, tripID string, score float64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pairKey(parcelID, tripID)
	if _, exists := r.rows[key]; exists {
		return false, nil
	}
	r.rows[key] = &models.Match{
		ID:         uuid.New().String(),
		ParcelID:   parcelID,
		TripID:     tripID,
		MatchScore: score,
		Status:     models.MatchStatusPending,
		MatchedAt:  time.Now(),
	}
	return true, nil
}

func (r *fakeMatchRepo) FindByID(_ context.Context, matchID string) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.rows {
		if m.ID == matchID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *fakeMatchRepo) ListByParcel(_ context.Context, parcelID string) ([]*models.Match, error) {
	return r.filter(func(m *models.Match) bool { return m.ParcelID == parcelID }), nil
}

func (r *fakeMatchRepo) ListByTrip(_ context.Context, tripID string) ([]*models.Match, error) {
	return r.filter(func(m *models.Match) bool { return m.TripID == tripID }), nil
}

func (r *fakeMatchRepo) ListAcceptedByParcel(_ context.Context, parcelID string) ([]*models.Match, error) {
	return r.filter(func(m *models.Match) bool {
		return m.ParcelID == parcelID && m.Status == models.MatchStatusAccepted
	}), nil
}

func (r *fakeMatchRepo) filter(keep func(*models.Match) bool) []*models.Match {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Match
	for _, m := range r.rows {
		if keep(m) {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out
}

func (r *fakeMatchRepo) InvalidatePending(_ context.Context, parcelID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var deleted int64
	for key, m := range r.rows {
		if m.ParcelID == parcelID && m.Status == models.MatchStatusPending {
			delete(r.rows, key)
			deleted++
		}
	}
	return deleted, nil
}

func (r *fakeMatchRepo) UpdateScore(_ context.Context, matchID string, score float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.rows {
		if m.ID == matchID {
			m.MatchScore = score
			return nil
		}
	}
	return models.ErrNotFound
}

func (r *fakeMatchRepo) ExpireAndUnlink(_ context.Context, matchID, parcelID string) error {
	r.mu.Lock()
	for _, m := range r.rows {
		if m.ID == matchID && m.Status == models.MatchStatusAccepted {
			m.Status = models.MatchStatusExpired
			r.mu.Unlock()
			r.parcels.unlink(parcelID)
			return nil
		}
	}
	r.mu.Unlock()
	return nil
}

func (r *fakeMatchRepo) Accept(_ context.Context, matchID string, fee float64, currency string) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.rows {
		if m.ID != matchID {
			continue
		}
		if m.Status != models.MatchStatusPending {
			return nil, models.ErrMatchNotActionable
		}
		if !r.parcels.link(m.ParcelID, m.TripID) {
			return nil, models.ErrParcelAlreadyMatched
		}
		m.Status = models.MatchStatusAccepted
		m.DeliveryFee = &fee
		m.Currency = &currency
		ps := "pending"
		m.PaymentStatus = &ps
		cp := *m
		return &cp, nil
	}
	return nil, models.ErrNotFound
}

func (r *fakeMatchRepo) Reject(_ context.Context, matchID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.rows {
		if m.ID == matchID {
			if m.Status != models.MatchStatusPending {
				return models.ErrMatchNotActionable
			}
			m.Status = models.MatchStatusRejected
			return nil
		}
	}
	return models.ErrMatchNotActionable
}

func (r *fakeMatchRepo) ConfirmDelivery(_ context.Context, matchID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.rows {
		if m.ID == matchID {
			if m.Status != models.MatchStatusAccepted {
				return models.ErrDeliveryNotConfirmable
			}
			m.DeliveryConfirmedBySenderAt = &at
			return nil
		}
	}
	return models.ErrDeliveryNotConfirmable
}

func (r *fakeMatchRepo) rowCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows)
}

func (r *fakeMatchRepo) get(parcelID, tripID string) *models.Match {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.rows[pairKey(parcelID, tripID)]; ok {
		cp := *m
		return &cp
	}
	return nil
}

type fakeIndex struct {
	ids []string
	err error
}

func (ix *fakeIndex) NearbyTripIDs(context.Context, float64, float64, float64) ([]string, error) {
	return ix.ids, ix.err
}
