// Package metrics declares the Prometheus collectors exposed by cmd/tecp-logd,
// grounded on the teacher's internal/api/server.go (promhttp.Handler()
// mounted conditionally on config) generalized from "mount the handler"
// to "also register domain-specific counters/histograms" for issuance,
// verification, and log append/proof latency.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	ReceiptsIssued = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tecp_receipts_issued_total",
		Help: "Total receipts issued by profile.",
	}, []string{"profile"})

	ReceiptsVerified = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tecp_receipts_verified_total",
		Help: "Total verification attempts by outcome.",
	}, []string{"valid"})

	LogAppendLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tecp_log_append_duration_seconds",
		Help:    "Latency of transparency log append operations.",
		Buckets: prometheus.DefBuckets,
	})

	LogProofLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "tecp_log_proof_duration_seconds",
		Help:    "Latency of transparency log inclusion-proof lookups.",
		Buckets: prometheus.DefBuckets,
	})

	LogTreeSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "tecp_log_tree_size",
		Help: "Current number of leaves in the transparency log.",
	})
)

func init() {
	prometheus.MustRegister(ReceiptsIssued, ReceiptsVerified, LogAppendLatency, LogProofLatency, LogTreeSize)
}

// ObserveAppend records the duration of a completed append call.
func ObserveAppend(start time.Time) {
	LogAppendLatency.Observe(time.Since(start).Seconds())
}

// ObserveProof records the duration of a completed proof lookup.
func ObserveProof(start time.Time) {
	LogProofLatency.Observe(time.Since(start).Seconds())
}
