// Package metrics provides a Prometheus-backed implementation of
// intersect.Recorder. Unlike vechain-thor's metrics package, which wraps
// every metric behind a lazily-registered noop/prom facade so instruments
// declared at package scope are cheap even when metrics are disabled, this
// package registers its instruments eagerly with promauto when a
// PrometheusRecorder is constructed. Disabling metrics means not constructing
// one: intersect.Engine runs without a Recorder unless one is attached.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/quinlan-lab/bedder-rs/source"
)

// PrometheusRecorder implements intersect.Recorder by exporting counters and
// a gauge vector through a dedicated registry.
type PrometheusRecorder struct {
	registry       *prometheus.Registry
	queriesTotal   prometheus.Counter
	overlapsTotal  prometheus.Counter
	queueDepth     *prometheus.GaugeVec
	sourceNameByID func(source.SourceID) string
}

// NewPrometheusRecorder builds a recorder registered against a fresh
// registry. nameFor resolves a database SourceID to a label value for the
// per-source queue depth gauge; pass nil to label by numeric source id.
func NewPrometheusRecorder(nameFor func(source.SourceID) string) *PrometheusRecorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &PrometheusRecorder{
		registry: reg,
		queriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "bedder",
			Name:      "queries_processed_total",
			Help:      "Number of query intervals processed.",
		}),
		overlapsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "bedder",
			Name:      "overlaps_emitted_total",
			Help:      "Number of database intervals emitted as overlaps, across all queries.",
		}),
		queueDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "bedder",
			Name:      "source_queue_depth",
			Help:      "Live intervals currently buffered per database source.",
		}, []string{"source"}),
		sourceNameByID: nameFor,
	}
}

// Registry returns the registry metrics were registered against, for wiring
// into an HTTP handler via promhttp.HandlerFor.
func (r *PrometheusRecorder) Registry() *prometheus.Registry { return r.registry }

func (r *PrometheusRecorder) QueryProcessed() { r.queriesTotal.Inc() }

func (r *PrometheusRecorder) OverlapsEmitted(n int) { r.overlapsTotal.Add(float64(n)) }

func (r *PrometheusRecorder) QueueDepth(src source.SourceID, depth int) {
	r.queueDepth.WithLabelValues(r.label(src)).Set(float64(depth))
}

func (r *PrometheusRecorder) label(src source.SourceID) string {
	if r.sourceNameByID != nil {
		return r.sourceNameByID(src)
	}
	return strconv.FormatUint(uint64(src), 10)
}
