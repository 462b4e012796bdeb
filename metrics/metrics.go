// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Vote outcomes
const (
	OutcomeRecorded     = "recorded"
	OutcomeSwitched     = "switched"
	OutcomeAlreadyVoted = "already_voted"
	OutcomeRateLimited  = "rate_limited"
	OutcomeInvalid      = "invalid"
	OutcomeNotFound     = "not_found"
	OutcomeError        = "error"
)

// Metrics holds the server's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry        *prometheus.Registry
	votesTotal      *prometheus.CounterVec
	rateLimitPruned prometheus.Counter
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	realtimeClients prometheus.Gauge
}

// New creates a registry with Go runtime collectors and the calmunity metrics
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := &Metrics{registry: registry}
	m.init(registry)
	return m
}

func (m *Metrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.votesTotal = promautoFactory.NewCounterVec(prometheus.CounterOpts{
		Name: "calmunity_votes_total",
		Help: "vote attempts by outcome",
	}, []string{"outcome"})
	m.rateLimitPruned = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "calmunity_rate_limit_entries_pruned_total",
		Help: "expired rate limit entries removed by the sweeper",
	})
	m.requestsTotal = promautoFactory.NewCounterVec(prometheus.CounterOpts{
		Name: "calmunity_http_requests_total",
		Help: "HTTP requests by route and status",
	}, []string{"method", "route", "status"})
	m.requestDuration = promautoFactory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "calmunity_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
	}, []string{"method", "route"})
	m.realtimeClients = promautoFactory.NewGauge(prometheus.GaugeOpts{
		Name: "calmunity_realtime_clients",
		Help: "connected realtime websocket clients",
	})
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveVote(outcome string) {
	if m == nil {
		return
	}
	m.votesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObservePruned(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.rateLimitPruned.Add(float64(n))
}

func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

func (m *Metrics) RealtimeClientConnected() {
	if m == nil {
		return
	}
	m.realtimeClients.Inc()
}

func (m *Metrics) RealtimeClientDisconnected() {
	if m == nil {
		return
	}
	m.realtimeClients.Dec()
}
