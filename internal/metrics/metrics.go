// Package metrics exposes the dealer's operational Prometheus metrics:
// hands dealt, invalid actions, per-seat response latency, and
// process-level CPU/RSS gauges sourced from /proc via procfs.
//
// New in this expansion: the reference poker engine's server package
// does not actually wire prometheus/client_golang despite listing it
// conceptually in the broader example pack (pronitdas-poker-platform-b2b
// carries a comparable per-table gRPC metrics surface); here the same
// counter/histogram shapes are repointed at the dealer's own hot path.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/procfs"
)

// Registry owns every collector the dealer updates during a match.
type Registry struct {
	HandsDealt      prometheus.Counter
	InvalidActions  *prometheus.CounterVec
	ResponseLatency *prometheus.HistogramVec
	ProcessCPUSecs  prometheus.Gauge
	ProcessRSSBytes prometheus.Gauge

	proc *procfs.Proc
}

// NewRegistry builds and registers every collector against reg.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		HandsDealt: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "acpcdealer_hands_dealt_total",
			Help: "Number of hands dealt so far in the current match.",
		}),
		InvalidActions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "acpcdealer_invalid_actions_total",
			Help: "Number of invalid or unparseable actions received per seat.",
		}, []string{"seat"}),
		ResponseLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "acpcdealer_response_latency_seconds",
			Help:    "Per-seat time to respond to a turn request.",
			Buckets: prometheus.DefBuckets,
		}, []string{"seat"}),
		ProcessCPUSecs: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "acpcdealer_process_cpu_seconds_total",
			Help: "Dealer process CPU time, sampled from /proc.",
		}),
		ProcessRSSBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "acpcdealer_process_resident_memory_bytes",
			Help: "Dealer process resident set size, sampled from /proc.",
		}),
	}
	reg.MustRegister(r.HandsDealt, r.InvalidActions, r.ResponseLatency, r.ProcessCPUSecs, r.ProcessRSSBytes)

	if p, err := procfs.Self(); err == nil {
		r.proc = &p
	}
	return r
}

// SampleProcess refreshes the process-level gauges from /proc. It is a
// no-op (not an error) when procfs is unavailable, e.g. non-Linux hosts.
func (r *Registry) SampleProcess() {
	if r.proc == nil {
		return
	}
	if stat, err := r.proc.Stat(); err == nil {
		r.ProcessCPUSecs.Set(stat.CPUTime())
		r.ProcessRSSBytes.Set(float64(stat.ResidentMemory()))
	}
}

// ObserveResponse records one seat's turn-response latency.
func (r *Registry) ObserveResponse(seat int, elapsed time.Duration) {
	r.ResponseLatency.WithLabelValues(seatLabel(seat)).Observe(elapsed.Seconds())
}

// IncInvalidAction increments a seat's invalid-action counter.
func (r *Registry) IncInvalidAction(seat int) {
	r.InvalidActions.WithLabelValues(seatLabel(seat)).Inc()
}

func seatLabel(seat int) string {
	const digits = "0123456789"
	if seat >= 0 && seat < len(digits) {
		return string(digits[seat])
	}
	return "n"
}
