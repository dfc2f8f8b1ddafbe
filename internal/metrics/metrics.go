package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Submissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tw_submissions_total",
			Help: "Threat report submissions by predicted severity",
		},
		[]string{"severity"},
	)

	Scans = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tw_scans_total",
			Help: "Risk scans by kind and resulting level",
		},
		[]string{"kind", "risk_level"},
	)

	ScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tw_scan_duration_seconds",
			Help:    "Time spent scoring a scan request",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"kind"},
	)

	LedgerCommits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tw_ledger_commits_total",
			Help: "Integrity commitments by source tier",
		},
		[]string{"source"},
	)

	HubConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tw_hub_connections",
			Help: "Currently registered realtime subscribers",
		},
	)

	HubSendFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tw_hub_send_failures_total",
			Help: "Failed deliveries that deregistered a subscriber",
		},
		[]string{"op"},
	)
)
