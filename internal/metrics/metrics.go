package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// APILatency measures API request latency
	APILatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spider_api_request_latency_seconds",
			Help:    "API request latency in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		},
		[]string{"endpoint", "method", "status"},
	)

	// APIRequests counts API requests
	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "spider_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"endpoint", "method", "status"},
	)

	// DatasetLoadLatency measures how long reading and parsing the CSV takes
	DatasetLoadLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "spider_dataset_load_latency_seconds",
			Help:    "Dataset load latency in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
		[]string{"status"},
	)

	// RowsReturned tracks result sizes after filtering
	RowsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "spider_rows_returned",
			Help:    "Number of rows returned per query",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)
)
