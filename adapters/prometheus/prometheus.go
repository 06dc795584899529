// Package prometheus provides the Prometheus implementation of the
// scheduler's metrics interface.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/posts-go/core/metrics"
	"github.com/codewandler/posts-go/core/posts"
)

// timer wraps a Prometheus observer to implement the Timer interface.
type timer struct {
	h     prometheus.Observer
	start time.Time
}

func newTimer(h prometheus.Observer) metrics.Timer {
	return &timer{h: h, start: time.Now()}
}

func (t *timer) ObserveDuration() {
	t.h.Observe(time.Since(t.start).Seconds())
}

// Default histogram buckets for job latency (in seconds). Fan casts are
// cheap; the upper buckets only matter for pathological caster backends.
var defaultBuckets = []float64{
	.0001, .00025, .0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1,
}

// postsMetrics implements posts.Metrics using Prometheus.
type postsMetrics struct {
	queueDepth      prometheus.Gauge
	droppedTotal    *prometheus.CounterVec
	dispatchedTotal prometheus.Counter
	jobDuration     prometheus.Histogram
	workersRunning  prometheus.Gauge
	harvestedTotal  prometheus.Counter
}

// NewMetrics creates a Prometheus implementation of posts.Metrics and
// registers its collectors with reg.
func NewMetrics(reg prometheus.Registerer) posts.Metrics {
	m := &postsMetrics{
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "posts_queue_depth",
			Help: "Current command queue depth",
		}),

		droppedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "posts_commands_dropped_total",
			Help: "Total number of dropped commands",
		}, []string{"reason"}),

		dispatchedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "posts_jobs_dispatched_total",
			Help: "Total number of dispatched fan casts",
		}),

		jobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "posts_job_duration_seconds",
			Help:    "Fan cast time from dispatch to harvest in seconds",
			Buckets: defaultBuckets,
		}),

		workersRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "posts_workers_running",
			Help: "Number of in-flight fan cast jobs",
		}),

		harvestedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "posts_harvested_total",
			Help: "Total number of harvested post positions",
		}),
	}

	reg.MustRegister(
		m.queueDepth,
		m.droppedTotal,
		m.dispatchedTotal,
		m.jobDuration,
		m.workersRunning,
		m.harvestedTotal,
	)

	return m
}

func (m *postsMetrics) QueueDepth(depth int) {
	m.queueDepth.Set(float64(depth))
}

func (m *postsMetrics) CommandDropped(reason string) {
	m.droppedTotal.WithLabelValues(reason).Inc()
}

func (m *postsMetrics) JobDispatched() {
	m.dispatchedTotal.Inc()
}

func (m *postsMetrics) JobDuration() metrics.Timer {
	return newTimer(m.jobDuration)
}

func (m *postsMetrics) WorkersRunning(count int) {
	m.workersRunning.Set(float64(count))
}

func (m *postsMetrics) PostsHarvested(count int) {
	m.harvestedTotal.Add(float64(count))
}

var _ posts.Metrics = (*postsMetrics)(nil)
