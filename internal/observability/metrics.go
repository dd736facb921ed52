package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VisibilityDecisions counts post visibility checks by result (visible, hidden, own).
	VisibilityDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circle_visibility_decisions_total",
		Help: "Total number of post visibility decisions by result",
	}, []string{"result"})

	// CascadeDeletes counts post cascade deletions by outcome.
	CascadeDeletes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circle_cascade_deletes_total",
		Help: "Total number of post cascade deletions by outcome",
	}, []string{"outcome"})

	// RedisErrors counts Redis errors by operation type.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circle_redis_errors_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// FriendshipTransitions counts friendship state changes by resulting status.
	FriendshipTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "circle_friendship_transitions_total",
		Help: "Total number of friendship state transitions",
	}, []string{"to"})
)
