// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Admission outcomes.
const (
	OutcomeAccepted    = "accepted"
	OutcomeInvalid     = "invalid"
	OutcomeBadSig      = "bad_signature"
	OutcomeStoreFailed = "store_failed"
)

// Write path
var (
	Admissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "torlist_admissions_total",
			Help: "Listing submissions by outcome",
		},
		[]string{"outcome"},
	)

	StoreAppendDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "torlist_store_append_duration_seconds",
		Help:    "Time taken to append a listing to the log",
		Buckets: prometheus.DefBuckets,
	})
)

// Read path and moderation
var (
	ListingsRedacted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "torlist_listings_redacted_total",
		Help: "Listings hidden from responses by the denylist",
	})

	DenylistMutations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "torlist_denylist_mutations_total",
			Help: "Denylist changes by operation",
		},
		[]string{"op"},
	)
)
