// Package metrics exposes the Prometheus instrumentation shared by the
// services and the HTTP layer.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	GamesRecorded         prometheus.Counter
	GamesAggregated       prometheus.Counter
	AggregationReplays    prometheus.Counter
	MatchesCompleted      *prometheus.CounterVec
	LeaderboardRefreshes  prometheus.Counter
	VerifierDiscrepancies prometheus.Gauge
}

// New registers the instrument set on the given registerer. Pass
// prometheus.DefaultRegisterer in production; tests use a fresh registry
// so parallel suites do not collide.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		GamesRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "darts_games_recorded_total",
			Help: "Completed games accepted by the ingest endpoint.",
		}),
		GamesAggregated: factory.NewCounter(prometheus.CounterOpts{
			Name: "darts_games_aggregated_total",
			Help: "Games folded into lifetime player aggregates.",
		}),
		AggregationReplays: factory.NewCounter(prometheus.CounterOpts{
			Name: "darts_aggregation_replays_total",
			Help: "Aggregation calls that found the game already applied.",
		}),
		MatchesCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "darts_matches_completed_total",
			Help: "Completed competition matches by kind.",
		}, []string{"kind"}),
		LeaderboardRefreshes: factory.NewCounter(prometheus.CounterOpts{
			Name: "darts_leaderboard_refreshes_total",
			Help: "Full and incremental leaderboard rebuilds.",
		}),
		VerifierDiscrepancies: factory.NewGauge(prometheus.GaugeOpts{
			Name: "darts_verifier_discrepancies",
			Help: "Discrepancies found by the most recent verification run.",
		}),
	}
}
