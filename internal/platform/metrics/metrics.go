package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	SwapsSubmitted         prometheus.Counter
	SwapsCompleted         prometheus.Counter
	SwapsFailed            prometheus.Counter
	SwapsAwaitingApproval  prometheus.Counter
	ReconciliationRequired prometheus.Counter
	PolicyDenied           prometheus.Counter
	IdempotentHits         prometheus.Counter
	RequestLatency         *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return &Metrics{
		SwapsSubmitted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fedbridge_swaps_submitted_total",
			Help: "Total number of swap requests accepted past validation",
		}),
		SwapsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fedbridge_swaps_completed_total",
			Help: "Total number of swaps that reached confirmation",
		}),
		SwapsFailed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fedbridge_swaps_failed_total",
			Help: "Total number of swaps that terminated in failure",
		}),
		SwapsAwaitingApproval: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fedbridge_swaps_awaiting_approval_total",
			Help: "Total number of swaps parked in validation pending approval",
		}),
		ReconciliationRequired: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fedbridge_swaps_reconciliation_required_total",
			Help: "Total number of failed swaps flagged for fund reconciliation",
		}),
		PolicyDenied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fedbridge_policy_denied_total",
			Help: "Total number of swap requests denied by the sovereignty policy",
		}),
		IdempotentHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "fedbridge_swaps_idempotent_hits_total",
			Help: "Total number of submissions answered by an existing in-flight swap",
		}),
		RequestLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fedbridge_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}
}
