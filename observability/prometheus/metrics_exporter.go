package prometheus

import (
	"errors"
	"fmt"
	"time"

	"github.com/CyfforPro/timeslice/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DurationBuckets []float64
}

// MetricsExporter adapts core.Metrics to Prometheus collectors.
type MetricsExporter struct {
	callbackDurationSeconds *prom.HistogramVec
	flushDurationSeconds    *prom.HistogramVec
	callbackPanicTotal      *prom.CounterVec
	callbackCancelledTotal  *prom.CounterVec
	queueDepth              prom.Gauge
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for
// core.Metrics. Collectors already registered on reg are reused, so two
// exporters over one registry share series.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "timeslice"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	callbackDurationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "callback_duration_seconds",
		Help:      "Single callback invocation duration in seconds.",
		Buckets:   buckets,
	}, []string{"priority"})
	flushDurationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "flush_duration_seconds",
		Help:      "Flush pass duration in seconds.",
		Buckets:   buckets,
	}, []string{"timed_out"})
	panicVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "callback_panic_total",
		Help:      "Total number of callback panics.",
	}, []string{"priority"})
	cancelledVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "callback_cancelled_total",
		Help:      "Total number of callbacks cancelled before running.",
	}, []string{"priority"})
	queueDepthGauge := prom.NewGauge(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "queue_depth",
		Help:      "Current number of queued callbacks.",
	})

	var err error
	if callbackDurationVec, err = registerCollector(reg, callbackDurationVec); err != nil {
		return nil, err
	}
	if flushDurationVec, err = registerCollector(reg, flushDurationVec); err != nil {
		return nil, err
	}
	if panicVec, err = registerCollector(reg, panicVec); err != nil {
		return nil, err
	}
	if cancelledVec, err = registerCollector(reg, cancelledVec); err != nil {
		return nil, err
	}
	if queueDepthGauge, err = registerCollector(reg, queueDepthGauge); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		callbackDurationSeconds: callbackDurationVec,
		flushDurationSeconds:    flushDurationVec,
		callbackPanicTotal:      panicVec,
		callbackCancelledTotal:  cancelledVec,
		queueDepth:              queueDepthGauge,
	}, nil
}

// RecordCallbackDuration records a callback invocation duration.
func (m *MetricsExporter) RecordCallbackDuration(level core.PriorityLevel, duration time.Duration) {
	if m == nil {
		return
	}
	m.callbackDurationSeconds.WithLabelValues(level.String()).Observe(duration.Seconds())
}

// RecordCallbackPanic records a callback panic.
func (m *MetricsExporter) RecordCallbackPanic(level core.PriorityLevel, panicInfo any) {
	if m == nil {
		return
	}
	m.callbackPanicTotal.WithLabelValues(level.String()).Inc()
}

// RecordFlushDuration records a flush pass duration.
func (m *MetricsExporter) RecordFlushDuration(didTimeout bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.flushDurationSeconds.WithLabelValues(boolLabel(didTimeout)).Observe(duration.Seconds())
}

// RecordQueueDepth records the current queue depth.
func (m *MetricsExporter) RecordQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(depth))
}

// RecordCancelled records a pre-run cancellation.
func (m *MetricsExporter) RecordCancelled(level core.PriorityLevel) {
	if m == nil {
		return
	}
	m.callbackCancelledTotal.WithLabelValues(level.String()).Inc()
}

func boolLabel(v bool) string {
	if v {
		return "true"
	}
	return "false"
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
