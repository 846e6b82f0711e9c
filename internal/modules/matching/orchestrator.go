package matching

import (
	"context"
	"fmt"
	"sync/atomic"

	"parcel-relay/internal/config"
	"parcel-relay/internal/metrics"
	"parcel-relay/internal/models"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ParcelStore is the read surface the orchestrator needs from the parcel
// module.
type ParcelStore interface {
	FindByID(ctx context.Context, parcelID string) (*models.Parcel, error)
	// ListMatchable returns parcels in pending state with no linked trip.
	ListMatchable(ctx context.Context) ([]*models.Parcel, error)
}

// TripStore is the read surface the orchestrator needs from the trip module.
type TripStore interface {
	FindByID(ctx context.Context, tripID string) (*models.Trip, error)
	// ListSchedulable returns scheduled trips whose departure is in the future.
	ListSchedulable(ctx context.Context) ([]*models.Trip, error)
	// ListSchedulableWithoutCoords returns the schedulable subset that has
	// no origin coordinates and therefore never appears in the geo index.
	ListSchedulableWithoutCoords(ctx context.Context) ([]*models.Trip, error)
	// ListSchedulableByIDs returns the schedulable subset of the given ids.
	ListSchedulableByIDs(ctx context.Context, tripIDs []string) ([]*models.Trip, error)
}

// CandidateIndex is an optional geo prefilter over trip origins.
type CandidateIndex interface {
	NearbyTripIDs(ctx context.Context, lat, lon, radiusKm float64) ([]string, error)
}

// Notifier observes match lifecycle events. Implementations handle their own
// failures; matching never blocks or fails on notification delivery.
type Notifier interface {
	MatchCreated(ctx context.Context, parcel *models.Parcel, trip *models.Trip, score float64)
	MatchAccepted(ctx context.Context, parcel *models.Parcel, trip *models.Trip)
	MatchExpired(ctx context.Context, parcel *models.Parcel, trip *models.Trip)
}

// Orchestrator drives candidate discovery, scoring, and match persistence.
type Orchestrator struct {
	parcels  ParcelStore
	trips    TripStore
	matches  MatchRepositoryInterface
	scorer   *Scorer
	index    CandidateIndex // nil when Redis is not configured
	notifier Notifier       // nil when notifications are disabled
	cfg      config.MatchingConfig
	log      *zap.Logger
}

// NewOrchestrator wires the matching pipeline. index and notifier may be nil.
func NewOrchestrator(
	parcels ParcelStore,
	trips TripStore,
	matches MatchRepositoryInterface,
	scorer *Scorer,
	index CandidateIndex,
	notifier Notifier,
	cfg config.MatchingConfig,
	log *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		parcels:  parcels,
		trips:    trips,
		matches:  matches,
		scorer:   scorer,
		index:    index,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
	}
}

// FindAndCreateMatchesForParcel scores every schedulable candidate trip
// against the parcel and persists the pairs that clear the threshold.
// Returns the number of matches created. A parcel that is not matchable
// (not pending, or already linked to a trip) yields zero without error.
func (o *Orchestrator) FindAndCreateMatchesForParcel(ctx context.Context, parcelID string) (int, error) {
	parcel, err := o.parcels.FindByID(ctx, parcelID)
	if err != nil {
		return 0, fmt.Errorf("orchestrator: load parcel: %w", err)
	}
	if parcel.Status != models.ParcelStatusPending || parcel.MatchedTripID != nil {
		return 0, nil
	}

	candidates, err := o.candidateTrips(ctx, parcel)
	if err != nil {
		return 0, fmt.Errorf("orchestrator: list candidate trips: %w", err)
	}

	var created atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers())

	for _, trip := range candidates {
		g.Go(func() error {
			score := o.scorer.Score(parcel, trip)
			metrics.CandidatesScoredTotal.Inc()
			if !o.scorer.IsViable(score) {
				return nil
			}
			inserted, err := o.matches.CreateIfAbsent(gctx, parcel.ID, trip.ID, score)
			if err != nil {
				return err
			}
			if inserted {
				created.Add(1)
				metrics.MatchesCreatedTotal.Inc()
				o.log.Info("match created",
					zap.String("parcel_id", parcel.ID),
					zap.String("trip_id", trip.ID),
					zap.Float64("score", score),
				)
				if o.notifier != nil {
					o.notifier.MatchCreated(gctx, parcel, trip, score)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(created.Load()), fmt.Errorf("orchestrator: score candidates: %w", err)
	}
	return int(created.Load()), nil
}

// FindAndCreateMatchesForTrip is the reversed enumeration: a new trip is
// scored against every matchable parcel.
func (o *Orchestrator) FindAndCreateMatchesForTrip(ctx context.Context, tripID string) (int, error) {
	trip, err := o.trips.FindByID(ctx, tripID)
	if err != nil {
		return 0, fmt.Errorf("orchestrator: load trip: %w", err)
	}
	if trip.Status != models.TripStatusScheduled {
		return 0, nil
	}

	parcels, err := o.parcels.ListMatchable(ctx)
	if err != nil {
		return 0, fmt.Errorf("orchestrator: list matchable parcels: %w", err)
	}

	var created atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers())

	for _, parcel := range parcels {
		g.Go(func() error {
			score := o.scorer.Score(parcel, trip)
			metrics.CandidatesScoredTotal.Inc()
			if !o.scorer.IsViable(score) {
				return nil
			}
			inserted, err := o.matches.CreateIfAbsent(gctx, parcel.ID, trip.ID, score)
			if err != nil {
				return err
			}
			if inserted {
				created.Add(1)
				metrics.MatchesCreatedTotal.Inc()
				o.log.Info("match created",
					zap.String("parcel_id", parcel.ID),
					zap.String("trip_id", trip.ID),
					zap.Float64("score", score),
				)
				if o.notifier != nil {
					o.notifier.MatchCreated(gctx, parcel, trip, score)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return int(created.Load()), fmt.Errorf("orchestrator: score candidates: %w", err)
	}
	return int(created.Load()), nil
}

// RescoreAccepted re-evaluates every accepted match of a parcel against its
// current data. A match whose fresh score falls below threshold is expired
// and the parcel unlinked; otherwise the stored score is updated in place.
// Idempotent: unchanged parcel data yields the same score and no transition.
func (o *Orchestrator) RescoreAccepted(ctx context.Context, parcelID string) error {
	parcel, err := o.parcels.FindByID(ctx, parcelID)
	if err != nil {
		return fmt.Errorf("orchestrator: load parcel: %w", err)
	}

	accepted, err := o.matches.ListAcceptedByParcel(ctx, parcelID)
	if err != nil {
		return fmt.Errorf("orchestrator: list accepted matches: %w", err)
	}

	for _, match := range accepted {
		trip, err := o.trips.FindByID(ctx, match.TripID)
		if err != nil {
			return fmt.Errorf("orchestrator: load trip %s: %w", match.TripID, err)
		}

		score := o.scorer.Score(parcel, trip)
		if o.scorer.IsViable(score) {
			if err := o.matches.UpdateScore(ctx, match.ID, score); err != nil {
				return fmt.Errorf("orchestrator: update score: %w", err)
			}
			continue
		}

		// Acceptance is a commitment, but a fit this degraded voids it
		// rather than leaving a bad match silently active.
		if err := o.matches.ExpireAndUnlink(ctx, match.ID, parcelID); err != nil {
			return fmt.Errorf("orchestrator: expire match: %w", err)
		}
		metrics.MatchesExpiredTotal.Inc()
		o.log.Warn("accepted match expired by re-score",
			zap.String("parcel_id", parcelID),
			zap.String("trip_id", match.TripID),
			zap.Float64("score", score),
		)
		if o.notifier != nil {
			o.notifier.MatchExpired(ctx, parcel, trip)
		}
	}
	return nil
}

// candidateTrips enumerates schedulable trips for a parcel. With a geo index
// and pickup coordinates available, index hits are unioned with the
// coordinate-less trips Postgres knows about, so text-only trips are never
// lost to the prefilter. Otherwise every schedulable trip is considered.
func (o *Orchestrator) candidateTrips(ctx context.Context, parcel *models.Parcel) ([]*models.Trip, error) {
	if o.index == nil || parcel.PickupLat == nil || parcel.PickupLon == nil {
		return o.trips.ListSchedulable(ctx)
	}

	ids, err := o.index.NearbyTripIDs(ctx, *parcel.PickupLat, *parcel.PickupLon, o.cfg.IndexRadiusKm)
	if err != nil {
		// The index is an optimization; fall back to the full scan.
		o.log.Warn("trip index lookup failed, falling back to full scan", zap.Error(err))
		return o.trips.ListSchedulable(ctx)
	}

	var nearby []*models.Trip
	if len(ids) > 0 {
		nearby, err = o.trips.ListSchedulableByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
	}

	unindexed, err := o.trips.ListSchedulableWithoutCoords(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(nearby))
	for _, t := range nearby {
		seen[t.ID] = struct{}{}
	}
	for _, t := range unindexed {
		if _, dup := seen[t.ID]; !dup {
			nearby = append(nearby, t)
		}
	}
	return nearby, nil
}

func (o *Orchestrator) workers() int {
	if o.cfg.Workers > 0 {
		return o.cfg.Workers
	}
	return 1
}
