// Copyright (C) 2025, ADXYZ Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the auction service.
type Metrics struct {
	registry *prometheus.Registry

	// Auction metrics
	AuctionsTotal     *prometheus.CounterVec
	BidsCollected     prometheus.Counter
	DSPWins           *prometheus.CounterVec
	RuleParseFailures *prometheus.CounterVec

	// Performance metrics
	AuctionDuration prometheus.Histogram
}

// New creates a metrics instance backed by its own registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{registry: registry}

	m.AuctionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ssp",
		Name:      "auctions_total",
		Help:      "Total number of auctions processed by outcome",
	}, []string{"outcome"})

	m.BidsCollected = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "ssp",
		Name:      "bids_collected_total",
		Help:      "Total number of eligible bids collected",
	})

	m.DSPWins = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ssp",
		Name:      "dsp_wins_total",
		Help:      "Total number of auctions won by DSP",
	}, []string{"dsp"})

	m.RuleParseFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ssp",
		Name:      "targeting_rule_parse_failures_total",
		Help:      "Total number of malformed targeting rules skipped by DSP",
	}, []string{"dsp"})

	m.AuctionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ssp",
		Name:      "auction_duration_seconds",
		Help:      "Time to run one auction end to end",
		Buckets:   prometheus.DefBuckets,
	})

	registry.MustRegister(
		m.AuctionsTotal,
		m.BidsCollected,
		m.DSPWins,
		m.RuleParseFailures,
		m.AuctionDuration,
	)

	return m
}

// Handler returns the HTTP handler exposing the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
