package analytics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	queryDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "taxi_insights_query_duration_seconds",
		Help:    "Duration of a query family against the trip store.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1.0, 2.5, 5.0, 15.0},
	}, []string{"family"})
	queryFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taxi_insights_query_failures_total",
		Help: "Total number of failed query families.",
	}, []string{"family"})
	predictionTiers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "taxi_insights_predictions_total",
		Help: "Total number of fare predictions by resolving tier.",
	}, []string{"tier"})
)
