package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTPRequestDuration tracks HTTP request latency for the single POST /
// pipeline endpoint, labeled by the dispatched query type and outcome.
var HTTPRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "voxov",
		Subsystem: "api",
		Name:      "request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"type", "status"},
)

// CreditsDebitedTotal counts credits debited from user balances, labeled by
// budget dimension (time/space/traffic/tip).
var CreditsDebitedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "voxov",
		Subsystem: "credit",
		Name:      "debited_total",
		Help:      "Total credits debited from user balances, by dimension.",
	},
	[]string{"dimension"},
)

// CreditsRefundedTotal counts credits refunded back to user balances.
var CreditsRefundedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "voxov",
		Subsystem: "credit",
		Name:      "refunded_total",
		Help:      "Total credits refunded to user balances, by dimension.",
	},
	[]string{"dimension"},
)

// GeneCallsTotal counts gene invocations by gene id and outcome.
var GeneCallsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "voxov",
		Subsystem: "gene",
		Name:      "calls_total",
		Help:      "Total gene invocations, by gene id and outcome.",
	},
	[]string{"gene", "outcome"},
)

// RipperSweepsTotal counts ripper sweep passes by target collection and
// outcome.
var RipperSweepsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "voxov",
		Subsystem: "ripper",
		Name:      "sweeps_total",
		Help:      "Total ripper sweep passes, by collection and outcome.",
	},
	[]string{"collection", "outcome"},
)

// RipperReapedTotal counts rows/objects actually reaped by the ripper.
var RipperReapedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "voxov",
		Subsystem: "ripper",
		Name:      "reaped_total",
		Help:      "Total rows or objects reaped, by collection.",
	},
	[]string{"collection"},
)

// NewMetricsRegistry creates a Prometheus registry with Go/process
// collectors, the shared HTTP duration metric, and the gateway's own
// metrics registered alongside any additional collectors passed in.
func NewMetricsRegistry(extra ...prometheus.Collector) *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		HTTPRequestDuration,
		CreditsDebitedTotal,
		CreditsRefundedTotal,
		GeneCallsTotal,
		RipperSweepsTotal,
		RipperReapedTotal,
	)
	for _, c := range extra {
		reg.MustRegister(c)
	}
	return reg
}
