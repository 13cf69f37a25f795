// Package metrics exposes service measurements in Prometheus format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/felixgeelhaar/teampulse/pkg/application"
)

const namespace = "teampulse"

// Recorder implements application.Recorder on a private registry so tests
// and multiple servers in one process never collide on the global one.
type Recorder struct {
	registry      *prom.Registry
	fetchFailures *prom.CounterVec
	aggregations  *prom.HistogramVec
	taskCount     *prom.GaugeVec
	reassignments *prom.CounterVec
	reassigned    prom.Counter
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prom.NewRegistry(),
		fetchFailures: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Dashboard loads that failed to fetch from the task source.",
		}, []string{"variant"}),
		aggregations: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "aggregation_duration_seconds",
			Help:      "Time spent turning a task list into a dashboard report.",
			Buckets:   prom.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"variant"}),
		taskCount: prom.NewGaugeVec(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "aggregated_tasks",
			Help:      "Number of tasks in the last aggregated report.",
		}, []string{"variant"}),
		reassignments: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "reassignments_total",
			Help:      "Bulk reassignment attempts by outcome.",
		}, []string{"success"}),
		reassigned: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "reassigned_tasks_total",
			Help:      "Tasks moved by successful bulk reassignments.",
		}),
	}
	r.registry.MustRegister(
		r.fetchFailures,
		r.aggregations,
		r.taskCount,
		r.reassignments,
		r.reassigned,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) FetchFailed(variant string) {
	r.fetchFailures.WithLabelValues(variant).Inc()
}

func (r *Recorder) Aggregated(variant string, elapsed time.Duration, taskCount int) {
	r.aggregations.WithLabelValues(variant).Observe(elapsed.Seconds())
	r.taskCount.WithLabelValues(variant).Set(float64(taskCount))
}

func (r *Recorder) Reassigned(success bool, count int) {
	r.reassignments.WithLabelValues(strconv.FormatBool(success)).Inc()
	if success {
		r.reassigned.Add(float64(count))
	}
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prom.Registry {
	return r.registry
}

// Handler serves the /metrics endpoint.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

var _ application.Recorder = (*Recorder)(nil)
