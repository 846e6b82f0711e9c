package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	MatchesCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parcelrelay_matches_created_total",
		Help: "Total number of candidate matches persisted above threshold.",
	})

	MatchesExpiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parcelrelay_matches_expired_total",
		Help: "Total number of accepted matches voided by a re-score below threshold.",
	})

	MatchesInvalidatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parcelrelay_matches_invalidated_total",
		Help: "Total number of pending matches deleted after a parcel edit.",
	})

	CandidatesScoredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parcelrelay_candidates_scored_total",
		Help: "Total number of parcel/trip pairs scored.",
	})

	BackgroundTaskFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parcelrelay_background_task_failures_total",
		Help: "Total number of background matching tasks that failed.",
	},
		[]string{"task"},
	)

	BackgroundTasksDroppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parcelrelay_background_tasks_dropped_total",
		Help: "Total number of background tasks dropped because the queue was full.",
	})
)
