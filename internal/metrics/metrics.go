package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "pychallenge"

// Metrics holds the Prometheus collectors of the service.
type Metrics struct {
	ChallengesCreated prometheus.Counter
	ChallengesDeleted prometheus.Counter
	AttemptsScored    prometheus.Counter
	AttemptsRecorded  *prometheus.CounterVec
	LeaderboardReads  prometheus.Counter
	RequestDuration   *prometheus.HistogramVec
}

// New registers the collectors on reg. Tests pass a fresh prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ChallengesCreated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "challenges_created_total",
			Help:      "Challenges successfully created",
		}),
		ChallengesDeleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "challenges_deleted_total",
			Help:      "Challenges deleted by their authors",
		}),
		AttemptsScored: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_scored_total",
			Help:      "Attempts scored, whether or not they were persisted",
		}),
		AttemptsRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "attempts_recorded_total",
				Help:      "Attempt record writes by outcome",
			},
			[]string{"outcome"}, // ok | error
		),
		LeaderboardReads: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "leaderboard_reads_total",
			Help:      "Leaderboard windows fetched and ranked",
		}),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
	}
}
