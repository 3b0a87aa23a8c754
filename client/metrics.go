package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redicli_commands_total",
			Help: "Commands executed, partitioned by command name and outcome",
		},
		[]string{"command", "status"},
	)

	commandLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "redicli_command_latency_seconds",
			Help:    "Round-trip latency per command",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"command"},
	)

	poolConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "redicli_pool_connections",
			Help: "Open connections per pool, partitioned by state",
		},
		[]string{"address", "state"},
	)

	dialsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redicli_dials_total",
			Help: "Connection attempts, partitioned by outcome",
		},
		[]string{"address", "status"},
	)

	discardsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redicli_discarded_connections_total",
			Help: "Connections discarded instead of returned to the pool",
		},
		[]string{"address"},
	)
)

const (
	statusOK           = "ok"
	statusCommandError = "command_error"
	statusFailed       = "failed"
)
