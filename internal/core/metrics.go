// AngelaMos | 2026
// metrics.go

package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medprep",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "medprep",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	UsageUnitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medprep",
			Name:      "usage_units_total",
			Help:      "Usage units charged to accounts by activity category.",
		},
		[]string{"category"},
	)

	QuotaRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medprep",
			Name:      "quota_rejections_total",
			Help:      "Requests rejected because the account quota was exhausted.",
		},
		[]string{"category"},
	)

	GenerationFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medprep",
			Name:      "generation_failures_total",
			Help:      "Failed completion calls by category and reason.",
		},
		[]string{"category", "reason"},
	)

	GenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "medprep",
			Name:      "generation_duration_seconds",
			Help:      "Latency of completion provider calls.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		},
		[]string{"category"},
	)
)
