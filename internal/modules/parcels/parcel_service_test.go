package parcels

import (
	"context"
	"testing"
	"time"

	"parcel-relay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRepo struct {
	parcels map[string]*models.Parcel
	nextID  int
}

func newFakeRepo(ps ...*models.Parcel) *fakeRepo {
	r := &fakeRepo{parcels: make(map[string]*models.Parcel)}
	for _, p := range ps {
		r.parcels[p.ID] = p
	}
	return r
}

func (r *fakeRepo) Create(_ context.Context, senderID string, req models.CreateParcelRequest) (*models.Parcel, error) {
	r.nextID++
	p := &models.Parcel{
		ID:              "p" + string(rune('0'+r.nextID)),
		SenderID:        senderID,
		PickupAddress:   req.PickupAddress,
		DeliveryAddress: req.DeliveryAddress,
		WeightKg:        req.WeightKg,
		Dimensions:      req.Dimensions,
		EstimatedValue:  req.EstimatedValue,
		Currency:        req.Currency,
		Status:          models.ParcelStatusPending,
		CreatedAt:       time.Now(),
	}
	r.parcels[p.ID] = p
	return p, nil
}

func (r *fakeRepo) FindByID(_ context.Context, parcelID string) (*models.Parcel, error) {
	p, ok := r.parcels[parcelID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeRepo) ListBySender(_ context.Context, senderID string, _, _ int) ([]*models.Parcel, int, error) {
	var out []*models.Parcel
	for _, p := range r.parcels {
		if p.SenderID == senderID {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

func (r *fakeRepo) ListMatchable(_ context.Context) ([]*models.Parcel, error) {
	return nil, nil
}

func (r *fakeRepo) Update(_ context.Context, parcelID string, req models.UpdateParcelRequest) (*models.Parcel, error) {
	p, ok := r.parcels[parcelID]
	if !ok {
		return nil, models.ErrNotFound
	}
	if req.PickupAddress != nil {
		p.PickupAddress = *req.PickupAddress
	}
	if req.WeightKg != nil {
		p.WeightKg = req.WeightKg
	}
	cp := *p
	return &cp, nil
}

func (r *fakeRepo) Delete(_ context.Context, parcelID string) error {
	if _, ok := r.parcels[parcelID]; !ok {
		return models.ErrNotFound
	}
	delete(r.parcels, parcelID)
	return nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, parcelID string, status models.ParcelStatus) error {
	p, ok := r.parcels[parcelID]
	if !ok {
		return models.ErrNotFound
	}
	p.Status = status
	return nil
}

type fakeTrigger struct {
	createdCalls int
	updatedCalls int
	createErr    error
}

func (t *fakeTrigger) OnParcelCreated(context.Context, string) (int, error) {
	t.createdCalls++
	if t.createErr != nil {
		return 0, t.createErr
	}
	return 2, nil
}

func (t *fakeTrigger) OnParcelUpdated(string) {
	t.updatedCalls++
}

func strp(s string) *string { return &s }

func pendingParcel(id, senderID string) *models.Parcel {
	return &models.Parcel{
		ID:              id,
		SenderID:        senderID,
		PickupAddress:   "New York, USA",
		DeliveryAddress: "Los Angeles, USA",
		Status:          models.ParcelStatusPending,
	}
}

func TestCreate_TriggersMatching(t *testing.T) {
	repo := newFakeRepo()
	trigger := &fakeTrigger{}
	svc := NewService(repo, trigger, zap.NewNop())

	parcel, matches, err := svc.Create(context.Background(), "sender-1", models.CreateParcelRequest{
		PickupAddress:   "New York, USA",
		DeliveryAddress: "Los Angeles, USA",
		Dimensions:      "30x20x10",
		EstimatedValue:  150,
		Currency:        "USD",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ParcelStatusPending, parcel.Status)
	assert.Equal(t, 2, matches)
	assert.Equal(t, 1, trigger.createdCalls)
}

func TestCreate_MatchingFailureDoesNotFailCreation(t *testing.T) {
	repo := newFakeRepo()
	trigger := &fakeTrigger{createErr: assert.AnError}
	svc := NewService(repo, trigger, zap.NewNop())

	parcel, matches, err := svc.Create(context.Background(), "sender-1", models.CreateParcelRequest{
		PickupAddress:   "New York, USA",
		DeliveryAddress: "Los Angeles, USA",
		Dimensions:      "30x20x10",
		EstimatedValue:  150,
		Currency:        "USD",
	})
	require.NoError(t, err)
	require.NotNil(t, parcel)
	assert.Zero(t, matches)
}

func TestUpdate_AllowedWhilePendingOrMatched(t *testing.T) {
	tripID := "t1"
	pending := pendingParcel("p1", "sender-1")
	matched := pendingParcel("p2", "sender-1")
	matched.Status = models.ParcelStatusMatched
	matched.MatchedTripID = &tripID
	picked := pendingParcel("p3", "sender-1")
	picked.Status = models.ParcelStatusPickedUp

	repo := newFakeRepo(pending, matched, picked)
	trigger := &fakeTrigger{}
	svc := NewService(repo, trigger, zap.NewNop())
	req := models.UpdateParcelRequest{PickupAddress: strp("Boston, USA")}

	_, err := svc.Update(context.Background(), "p1", "sender-1", req)
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), "p2", "sender-1", req)
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), "p3", "sender-1", req)
	assert.ErrorIs(t, err, models.ErrParcelNotEditable)

	assert.Equal(t, 2, trigger.updatedCalls)
}

func TestUpdate_OwnershipEnforced(t *testing.T) {
	repo := newFakeRepo(pendingParcel("p1", "sender-1"))
	svc := NewService(repo, &fakeTrigger{}, zap.NewNop())

	_, err := svc.Update(context.Background(), "p1", "someone-else", models.UpdateParcelRequest{
		PickupAddress: strp("Boston, USA"),
	})
	assert.ErrorIs(t, err, models.ErrNotOwner)
}

func TestDelete_OnlyPendingAndUnmatched(t *testing.T) {
	tripID := "t1"
	pending := pendingParcel("p1", "sender-1")
	matched := pendingParcel("p2", "sender-1")
	matched.Status = models.ParcelStatusMatched
	matched.MatchedTripID = &tripID

	repo := newFakeRepo(pending, matched)
	svc := NewService(repo, &fakeTrigger{}, zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "p1", "sender-1"))
	assert.ErrorIs(t, svc.Delete(context.Background(), "p2", "sender-1"), models.ErrParcelNotDeletable)
	assert.ErrorIs(t, svc.Delete(context.Background(), "missing", "sender-1"), models.ErrNotFound)
}

func TestGet_OwnershipEnforced(t *testing.T) {
	repo := newFakeRepo(pendingParcel("p1", "sender-1"))
	svc := NewService(repo, &fakeTrigger{}, zap.NewNop())

	parcel, err := svc.Get(context.Background(), "p1", "sender-1")
	require.NoError(t, err)
	assert.Equal(t, "p1", parcel.ID)

	_, err = svc.Get(context.Background(), "p1", "someone-else")
	assert.ErrorIs(t, err, models.ErrNotOwner)
}
