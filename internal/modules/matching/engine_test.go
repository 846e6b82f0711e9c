package matching

import (
	"context"
	"testing"
	"time"

	"parcel-relay/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEngine_OnParcelUpdated_RematchSequence(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	parcel, trip := crossCountryParcel(now)

	// A second viable trip so the rediscovery step has something to find
	// after the stale pending candidate is dropped.
	trip2 := *trip
	trip2.ID = "t2"
	trip2.OriginLat = f64(40.05)
	trip2.OriginLon = f64(-73.05)

	parcels := newFakeParcelStore(parcel)
	trips := newFakeTripStore(func() time.Time { return now }, trip, &trip2)
	matches := newFakeMatchRepo(parcels)
	orch := newTestOrchestrator(now, parcels, trips, matches, nil, nil)
	dispatcher := NewDispatcher(4, zap.NewNop())
	dispatcher.Start(context.Background(), 1)
	engine := NewEngine(orch, matches, dispatcher, zap.NewNop())

	// Seed a stale pending candidate against the first trip.
	_, err := matches.CreateIfAbsent(context.Background(), parcel.ID, trip.ID, 96)
	require.NoError(t, err)

	engine.OnParcelUpdated(parcel.ID)
	dispatcher.Stop()

	// The old pending row was deleted and both trips rediscovered fresh.
	rows, err := matches.ListByParcel(context.Background(), parcel.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, m := range rows {
		assert.Equal(t, models.MatchStatusPending, m.Status)
	}
	want := testScorer(now).Score(parcel, trip)
	require.NotNil(t, matches.get(parcel.ID, trip.ID))
	assert.Equal(t, want, matches.get(parcel.ID, trip.ID).MatchScore)
}

func TestEngine_CreationTriggersAreSynchronous(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	parcel, trip := crossCountryParcel(now)

	parcels := newFakeParcelStore(parcel)
	trips := newFakeTripStore(func() time.Time { return now }, trip)
	matches := newFakeMatchRepo(parcels)
	orch := newTestOrchestrator(now, parcels, trips, matches, nil, nil)
	engine := NewEngine(orch, matches, NewDispatcher(1, zap.NewNop()), zap.NewNop())

	created, err := engine.OnParcelCreated(context.Background(), parcel.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	// The pair already exists, so the trip trigger finds nothing new.
	created, err = engine.OnTripCreated(context.Background(), trip.ID)
	require.NoError(t, err)
	assert.Zero(t, created)
}
