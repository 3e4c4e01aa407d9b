// Package metrics exports per-run counters. A batch job has no scrape endpoint, so values
// are pushed to a Prometheus Pushgateway at the end of each run.
package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
)

const jobName = "reviewbot"

// PlatformCounts mirrors the runner's per-platform report without importing it.
type PlatformCounts struct {
	Platform   string
	Fetched    int
	Notified   int
	Suppressed int
	Failed     int
	Errors     int
}

type Recorder struct {
	registry    *prometheus.Registry
	fetched     *prometheus.CounterVec
	notified    *prometheus.CounterVec
	suppressed  *prometheus.CounterVec
	failed      *prometheus.CounterVec
	fetchErrors *prometheus.CounterVec
	lastRun     prometheus.Gauge
	duration    prometheus.Gauge
	pusher      *push.Pusher
}

// NewRecorder registers the collectors. pushURL may be empty, in which case Push is a no-op.
func NewRecorder(pushURL string) *Recorder {
	reg := prometheus.NewRegistry()
	newCounter := func(name, help string) *prometheus.CounterVec {
		c := prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "reviewbot",
			Name:      name,
			Help:      help,
		}, []string{"platform"})
		reg.MustRegister(c)
		return c
	}
	r := &Recorder{
		registry:    reg,
		fetched:     newCounter("reviews_fetched_total", "Reviews returned by the review sources."),
		notified:    newCounter("reviews_notified_total", "Reviews delivered to the webhook."),
		suppressed:  newCounter("reviews_suppressed_total", "New reviews rejected by the review filter."),
		failed:      newCounter("reviews_failed_total", "New reviews whose delivery or persistence failed."),
		fetchErrors: newCounter("fetch_errors_total", "Source fetch errors (per platform or locale)."),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "reviewbot",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time the last run completed.",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "reviewbot",
			Name:      "last_run_duration_seconds",
			Help:      "Wall time of the last run.",
		}),
	}
	reg.MustRegister(r.lastRun, r.duration)
	if url := strings.TrimSpace(pushURL); url != "" {
		r.pusher = push.New(url, jobName).Gatherer(reg)
	}
	return r
}

func (r *Recorder) Observe(counts []PlatformCounts, completedAt time.Time, took time.Duration) {
	for _, c := range counts {
		r.fetched.WithLabelValues(c.Platform).Add(float64(c.Fetched))
		r.notified.WithLabelValues(c.Platform).Add(float64(c.Notified))
		r.suppressed.WithLabelValues(c.Platform).Add(float64(c.Suppressed))
		r.failed.WithLabelValues(c.Platform).Add(float64(c.Failed))
		r.fetchErrors.WithLabelValues(c.Platform).Add(float64(c.Errors))
	}
	r.lastRun.Set(float64(completedAt.Unix()))
	r.duration.Set(took.Seconds())
}

func (r *Recorder) Push(ctx context.Context) error {
	if r.pusher == nil {
		return nil
	}
	if err := r.pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}

// Gatherer exposes the registry, mainly for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}
