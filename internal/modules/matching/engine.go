package matching

import (
	"context"

	"parcel-relay/internal/metrics"

	"go.uber.org/zap"
)

// Engine is the surface the rest of the application triggers matching
// through. Creation triggers run synchronously so the caller's response can
// report how many candidates were found; update triggers are dispatched to
// the background queue so the edit endpoint never blocks on re-matching.
type Engine struct {
	orch       *Orchestrator
	matches    MatchRepositoryInterface
	dispatcher *Dispatcher
	log        *zap.Logger
}

// NewEngine assembles the trigger surface.
func NewEngine(orch *Orchestrator, matches MatchRepositoryInterface, dispatcher *Dispatcher, log *zap.Logger) *Engine {
	return &Engine{
		orch:       orch,
		matches:    matches,
		dispatcher: dispatcher,
		log:        log,
	}
}

// OnParcelCreated runs candidate discovery for a new parcel synchronously.
func (e *Engine) OnParcelCreated(ctx context.Context, parcelID string) (int, error) {
	return e.orch.FindAndCreateMatchesForParcel(ctx, parcelID)
}

// OnParcelUpdated schedules the full re-match sequence for an edited parcel:
// re-score any accepted match against the fresh data, delete stale pending
// candidates, then rediscover. Fire-and-forget; failures are logged by the
// dispatcher, and a later edit re-triggers the run.
func (e *Engine) OnParcelUpdated(parcelID string) {
	e.dispatcher.Submit("parcel_update_rematch", func(ctx context.Context) error {
		if err := e.orch.RescoreAccepted(ctx, parcelID); err != nil {
			return err
		}

		deleted, err := e.matches.InvalidatePending(ctx, parcelID)
		if err != nil {
			return err
		}
		if deleted > 0 {
			metrics.MatchesInvalidatedTotal.Add(float64(deleted))
			e.log.Info("stale pending matches invalidated",
				zap.String("parcel_id", parcelID),
				zap.Int64("deleted", deleted),
			)
		}

		_, err = e.orch.FindAndCreateMatchesForParcel(ctx, parcelID)
		return err
	})
}

// OnTripCreated runs the reversed discovery for a new trip synchronously.
func (e *Engine) OnTripCreated(ctx context.Context, tripID string) (int, error) {
	return e.orch.FindAndCreateMatchesForTrip(ctx, tripID)
}
