/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package telemetry exposes Prometheus metrics for the serving layer.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts requests by method, route pattern, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiocast_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "endpoint", "status"},
	)

	// HTTPRequestDuration tracks request latency by method, route pattern,
	// and status.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audiocast_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	// HTTPActiveConnections gauges in-flight requests.
	HTTPActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "audiocast_http_active_connections",
			Help: "Number of HTTP requests currently being served.",
		},
	)

	// FeedRendersTotal counts feed renders by outcome.
	FeedRendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiocast_feed_renders_total",
			Help: "Total number of RSS feed renders.",
		},
		[]string{"status"},
	)

	// TranscodeJobsTotal counts transcode jobs by outcome.
	TranscodeJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audiocast_transcode_jobs_total",
			Help: "Total number of transcode jobs.",
		},
		[]string{"status"},
	)
)

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
