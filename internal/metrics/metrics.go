// Package metrics registers the Prometheus collectors exported by bookdesk.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RemoteRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookdesk_remote_requests_total",
		Help: "Total number of requests sent to the remote books collection",
	}, []string{"op", "status"})

	RemoteRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bookdesk_remote_request_duration_seconds",
		Help:    "Duration of requests to the remote books collection in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bookdesk_http_requests_total",
		Help: "Total number of HTTP requests served by the desk API",
	}, []string{"method", "route", "status"})

	StoreRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bookdesk_store_records",
		Help: "Number of records in the current store snapshot",
	})

	StreamClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bookdesk_stream_clients",
		Help: "Number of connected event stream clients",
	})
)
