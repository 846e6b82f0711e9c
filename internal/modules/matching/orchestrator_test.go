package matching

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"parcel-relay/internal/config"
	"parcel-relay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeNotifier struct {
	mu       sync.Mutex
	created  int
	accepted int
	expired  int
}

func (n *fakeNotifier) MatchCreated(_ context.Context, _ *models.Parcel, _ *models.Trip, _ float64) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.created++
}

func (n *fakeNotifier) MatchAccepted(_ context.Context, _ *models.Parcel, _ *models.Trip) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.accepted++
}

func (n *fakeNotifier) MatchExpired(_ context.Context, _ *models.Parcel, _ *models.Trip) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.expired++
}

func (n *fakeNotifier) counts() (created, accepted, expired int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.created, n.accepted, n.expired
}

func newTestOrchestrator(
	now time.Time,
	parcels *fakeParcelStore,
	trips *fakeTripStore,
	matches *fakeMatchRepo,
	index CandidateIndex,
	notifier Notifier,
) *Orchestrator {
	return NewOrchestrator(
		parcels, trips, matches, testScorer(now), index, notifier,
		config.DefaultMatchingConfig(), zap.NewNop(),
	)
}

func TestFindAndCreateMatchesForParcel(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	parcel, goodTrip := crossCountryParcel(now)

	// A foreign trip never clears the country gate.
	foreignTrip := &models.Trip{
		ID:            "t2",
		OriginAddress: "London, UK", DestinationAddress: "Manchester, UK",
		DepartureTime:    now.Add(24 * time.Hour),
		EstimatedArrival: now.Add(36 * time.Hour),
		Status:           models.TripStatusScheduled,
	}

	parcels := newFakeParcelStore(parcel)
	trips := newFakeTripStore(func() time.Time { return now }, goodTrip, foreignTrip)
	matches := newFakeMatchRepo(parcels)
	notifier := &fakeNotifier{}
	orch := newTestOrchestrator(now, parcels, trips, matches, nil, notifier)

	created, err := orch.FindAndCreateMatchesForParcel(context.Background(), parcel.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, matches.rowCount())

	row := matches.get(parcel.ID, goodTrip.ID)
	require.NotNil(t, row)
	assert.Equal(t, models.MatchStatusPending, row.Status)
	assert.True(t, row.MatchScore >= 60)

	notified, _, _ := notifier.counts()
	assert.Equal(t, 1, notified)
}

func TestFindAndCreateMatchesForParcel_NotMatchable(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	parcel, trip := crossCountryParcel(now)

	linked := *parcel
	linked.ID = "p-linked"
	linked.Status = models.ParcelStatusMatched
	linked.MatchedTripID = &trip.ID

	delivered := *parcel
	delivered.ID = "p-delivered"
	delivered.Status = models.ParcelStatusDelivered

	parcels := newFakeParcelStore(&linked, &delivered)
	trips := newFakeTripStore(func() time.Time { return now }, trip)
	matches := newFakeMatchRepo(parcels)
	orch := newTestOrchestrator(now, parcels, trips, matches, nil, nil)

	for _, id := range []string{"p-linked", "p-delivered"} {
		created, err := orch.FindAndCreateMatchesForParcel(context.Background(), id)
		require.NoError(t, err)
		assert.Zero(t, created)
	}
	assert.Zero(t, matches.rowCount())
}

func TestFindAndCreateMatchesForParcel_ConcurrentRunsCreateOneRow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	parcel, trip := crossCountryParcel(now)

	parcels := newFakeParcelStore(parcel)
	trips := newFakeTripStore(func() time.Time { return now }, trip)
	matches := newFakeMatchRepo(parcels)
	orch := newTestOrchestrator(now, parcels, trips, matches, nil, nil)

	const runs = 8
	results := make(chan int, runs)
	var wg sync.WaitGroup
	for i := 0; i < runs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			created, err := orch.FindAndCreateMatchesForParcel(context.Background(), parcel.ID)
			assert.NoError(t, err)
			results <- created
		}()
	}
	wg.Wait()
	close(results)

	total := 0
	for c := range results {
		total += c
	}
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, matches.rowCount())
}

func TestFindAndCreateMatchesForTrip(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	parcel, trip := crossCountryParcel(now)

	// Already-linked parcels are not matchable and must stay untouched.
	linked := *parcel
	linked.ID = "p-linked"
	linked.Status = models.ParcelStatusMatched
	other := "t-other"
	linked.MatchedTripID = &other

	parcels := newFakeParcelStore(parcel, &linked)
	trips := newFakeTripStore(func() time.Time { return now }, trip)
	matches := newFakeMatchRepo(parcels)
	orch := newTestOrchestrator(now, parcels, trips, matches, nil, nil)

	created, err := orch.FindAndCreateMatchesForTrip(context.Background(), trip.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.NotNil(t, matches.get(parcel.ID, trip.ID))
	assert.Nil(t, matches.get(linked.ID, trip.ID))
}

func TestFindAndCreateMatchesForTrip_NonScheduled(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	parcel, trip := crossCountryParcel(now)
	trip.Status = models.TripStatusCancelled

	parcels := newFakeParcelStore(parcel)
	trips := newFakeTripStore(func() time.Time { return now }, trip)
	matches := newFakeMatchRepo(parcels)
	orch := newTestOrchestrator(now, parcels, trips, matches, nil, nil)

	created, err := orch.FindAndCreateMatchesForTrip(context.Background(), trip.ID)
	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestRescoreAccepted_ExpiresDegradedMatch(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	parcel, trip := crossCountryParcel(now)
	// Departure inside 24h rates time compatibility at 70.
	trip.DepartureTime = now.Add(12 * time.Hour)
	trip.EstimatedArrival = now.Add(36 * time.Hour)

	parcels := newFakeParcelStore(parcel)
	trips := newFakeTripStore(func() time.Time { return now }, trip)
	matches := newFakeMatchRepo(parcels)
	notifier := &fakeNotifier{}
	orch := newTestOrchestrator(now, parcels, trips, matches, nil, notifier)

	_, err := matches.CreateIfAbsent(context.Background(), parcel.ID, trip.ID, 96)
	require.NoError(t, err)
	row := matches.get(parcel.ID, trip.ID)
	_, err = matches.Accept(context.Background(), row.ID, 25, "USD")
	require.NoError(t, err)

	// Move the pickup roughly two degrees north, about 220km from the trip
	// origin. The pickup leg of both alignment and proximity drops to 0 and
	// the total lands under threshold.
	parcels.parcels[parcel.ID].PickupLat = f64(42.0)

	require.NoError(t, orch.RescoreAccepted(context.Background(), parcel.ID))

	row = matches.get(parcel.ID, trip.ID)
	assert.Equal(t, models.MatchStatusExpired, row.Status)

	fresh, err := parcels.FindByID(context.Background(), parcel.ID)
	require.NoError(t, err)
	assert.Nil(t, fresh.MatchedTripID)
	assert.Equal(t, models.ParcelStatusPending, fresh.Status)

	_, _, expired := notifier.counts()
	assert.Equal(t, 1, expired)

	// A second pass finds no accepted match and changes nothing.
	require.NoError(t, orch.RescoreAccepted(context.Background(), parcel.ID))
	assert.Equal(t, models.MatchStatusExpired, matches.get(parcel.ID, trip.ID).Status)
}

func TestRescoreAccepted_KeepsViableMatch(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	parcel, trip := crossCountryParcel(now)

	parcels := newFakeParcelStore(parcel)
	trips := newFakeTripStore(func() time.Time { return now }, trip)
	matches := newFakeMatchRepo(parcels)
	orch := newTestOrchestrator(now, parcels, trips, matches, nil, nil)

	_, err := matches.CreateIfAbsent(context.Background(), parcel.ID, trip.ID, 70)
	require.NoError(t, err)
	row := matches.get(parcel.ID, trip.ID)
	_, err = matches.Accept(context.Background(), row.ID, 25, "USD")
	require.NoError(t, err)

	require.NoError(t, orch.RescoreAccepted(context.Background(), parcel.ID))

	row = matches.get(parcel.ID, trip.ID)
	assert.Equal(t, models.MatchStatusAccepted, row.Status)
	want := testScorer(now).Score(parcel, trip)
	assert.Equal(t, want, row.MatchScore)

	// Running again with unchanged data is a no-op transition-wise.
	require.NoError(t, orch.RescoreAccepted(context.Background(), parcel.ID))
	again := matches.get(parcel.ID, trip.ID)
	assert.Equal(t, models.MatchStatusAccepted, again.Status)
	assert.Equal(t, want, again.MatchScore)

	fresh, err := parcels.FindByID(context.Background(), parcel.ID)
	require.NoError(t, err)
	require.NotNil(t, fresh.MatchedTripID)
	assert.Equal(t, trip.ID, *fresh.MatchedTripID)
}

func TestCandidateTrips_IndexUnionsUnindexed(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	parcel, nearTrip := crossCountryParcel(now)

	farTrip := *nearTrip
	farTrip.ID = "t-far"
	farTrip.OriginLat = f64(25.0)
	farTrip.OriginLon = f64(-80.0)

	textTrip := &models.Trip{
		ID:            "t-text",
		OriginAddress: "New York, USA", DestinationAddress: "Los Angeles, USA",
		DepartureTime:    now.Add(24 * time.Hour),
		EstimatedArrival: now.Add(96 * time.Hour),
		Status:           models.TripStatusScheduled,
	}

	parcels := newFakeParcelStore(parcel)
	trips := newFakeTripStore(func() time.Time { return now }, nearTrip, &farTrip, textTrip)
	matches := newFakeMatchRepo(parcels)
	index := &fakeIndex{ids: []string{nearTrip.ID}}
	orch := newTestOrchestrator(now, parcels, trips, matches, index, nil)

	got, err := orch.candidateTrips(context.Background(), parcel)
	require.NoError(t, err)

	ids := make([]string, 0, len(got))
	for _, tr := range got {
		ids = append(ids, tr.ID)
	}
	assert.ElementsMatch(t, []string{nearTrip.ID, textTrip.ID}, ids)
}

func TestCandidateTrips_IndexFailureFallsBackToFullScan(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	parcel, trip := crossCountryParcel(now)

	parcels := newFakeParcelStore(parcel)
	trips := newFakeTripStore(func() time.Time { return now }, trip)
	matches := newFakeMatchRepo(parcels)
	index := &fakeIndex{err: errors.New("redis down")}
	orch := newTestOrchestrator(now, parcels, trips, matches, index, nil)

	got, err := orch.candidateTrips(context.Background(), parcel)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, trip.ID, got[0].ID)
}

func TestCandidateTrips_NoPickupCoordsSkipsIndex(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	parcel, trip := crossCountryParcel(now)
	parcel.PickupLat = nil
	parcel.PickupLon = nil

	parcels := newFakeParcelStore(parcel)
	trips := newFakeTripStore(func() time.Time { return now }, trip)
	matches := newFakeMatchRepo(parcels)
	index := &fakeIndex{err: errors.New("must not be consulted")}
	orch := newTestOrchestrator(now, parcels, trips, matches, index, nil)

	got, err := orch.candidateTrips(context.Background(), parcel)
	require.NoError(t, err)
	require.Len(t, got, 1)
}
