// Package metrics provides observability for the simulation.
// Counters are exported in Prometheus format and summarised by the stress runner.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ghosthunt"

// Collector gathers simulation metrics on its own registry.
type Collector struct {
	registry *prometheus.Registry

	HunterMoves       prometheus.Counter
	GhostMoves        prometheus.Counter
	EvidenceDropped   *prometheus.CounterVec // by evidence type
	EvidenceCollected *prometheus.CounterVec // by evidence type
	HunterExits       *prometheus.CounterVec // by reason
	Runs              *prometheus.CounterVec // by verdict
	RunDuration       prometheus.Histogram

	EventsPersisted    prometheus.Counter
	EventPersistErrors prometheus.Counter

	WSConnections prometheus.Gauge
	WSMessagesOut prometheus.Counter
}

// New creates a collector with a fresh registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	f := func(c prometheus.Collector) { reg.MustRegister(c) }

	c := &Collector{
		registry: reg,
		HunterMoves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "hunter_moves_total",
			Help: "Rooms entered by hunters, including retreats along the breadcrumb trail.",
		}),
		GhostMoves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "ghost_moves_total",
			Help: "Rooms entered by the ghost.",
		}),
		EvidenceDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "evidence_dropped_total",
			Help: "Evidence left behind by the ghost.",
		}, []string{"evidence"}),
		EvidenceCollected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "evidence_collected_total",
			Help: "Evidence bits picked up by hunters.",
		}, []string{"evidence"}),
		HunterExits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "hunter_exits_total",
			Help: "Hunters that left the house, by reason.",
		}, []string{"reason"}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "runs_total",
			Help: "Completed simulations, by verdict.",
		}, []string{"verdict"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Name: "run_duration_seconds",
			Help:    "Wall time from actor start to the last join.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 12),
		}),
		EventsPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "events_persisted_total",
			Help: "Events written to the archive.",
		}),
		EventPersistErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "event_persist_errors_total",
			Help: "Events the archive failed to store.",
		}),
		WSConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Name: "ws_connections",
			Help: "Active spectator connections.",
		}),
		WSMessagesOut: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "ws_messages_out_total",
			Help: "Events pushed to spectators.",
		}),
	}

	f(c.HunterMoves)
	f(c.GhostMoves)
	f(c.EvidenceDropped)
	f(c.EvidenceCollected)
	f(c.HunterExits)
	f(c.Runs)
	f(c.RunDuration)
	f(c.EventsPersisted)
	f(c.EventPersistErrors)
	f(c.WSConnections)
	f(c.WSMessagesOut)
	return c
}

// Global collector instance
var collector = New()

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// RecordRun records a completed simulation.
func (c *Collector) RecordRun(huntersWon bool, elapsed time.Duration) {
	verdict := "ghost"
	if huntersWon {
		verdict = "hunters"
	}
	c.Runs.WithLabelValues(verdict).Inc()
	c.RunDuration.Observe(elapsed.Seconds())
}

// RecordEventWrite records an archive write.
func (c *Collector) RecordEventWrite(err error) {
	if err != nil {
		c.EventPersistErrors.Inc()
		return
	}
	c.EventsPersisted.Inc()
}

// Registry exposes the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Snapshot flattens every sample into name{labels} -> value, for summaries.
func (c *Collector) Snapshot() (map[string]float64, error) {
	families, err := c.registry.Gather()
	if err != nil {
		return nil, err
	}

	out := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := mf.GetName()
			for _, lp := range m.GetLabel() {
				key += "{" + lp.GetName() + "=" + lp.GetValue() + "}"
			}
			switch {
			case m.GetCounter() != nil:
				out[key] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				out[key] = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				out[key+"_count"] = float64(m.GetHistogram().GetSampleCount())
				out[key+"_sum"] = m.GetHistogram().GetSampleSum()
			}
		}
	}
	return out, nil
}

// Handler returns an HTTP handler for the /metrics endpoint.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
