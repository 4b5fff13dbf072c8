package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeRecorded        = "recorded"
	OutcomeAlreadyRecorded = "already_recorded"
	OutcomeUnpaid          = "unpaid"
	OutcomeNotFound        = "not_found"
	OutcomeGatewayError    = "gateway_error"
	OutcomeStoreError      = "store_error"
	OutcomeInvalid         = "invalid"
)

var (
	ReconcileOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "garmentix",
			Name:      "payment_reconcile_total",
			Help:      "Payment-success callbacks by outcome",
		},
		[]string{"outcome"},
	)

	ReconcileLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "garmentix",
			Name:      "payment_reconcile_duration_seconds",
			Help:      "End-to-end reconciliation latency including the provider call",
			Buckets:   prometheus.DefBuckets,
		},
	)

	CheckoutSessions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "garmentix",
			Name:      "checkout_sessions_total",
			Help:      "Checkout session creation attempts by result",
		},
		[]string{"result"},
	)

	UnmatchedOrders = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "garmentix",
			Name:      "payment_unmatched_orders_total",
			Help:      "Recorded payments whose order id matched no order",
		},
	)
)
