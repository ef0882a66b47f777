package telemetry

import (
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName = "github.com/wolfeidau/orgstore"
)

// Metrics holds all the OpenTelemetry metric instruments
type Metrics struct {
	// Write metrics
	WritesTotal   metric.Int64Counter
	WriteDuration metric.Float64Histogram

	// Validation metrics
	InvariantViolationsTotal metric.Int64Counter

	// Consistency-aware read metrics
	ReadAttempts             metric.Int64Histogram
	ConsistencyTimeoutsTotal metric.Int64Counter
}

var (
	once    sync.Once
	metrics *Metrics
)

// GetMetrics returns the singleton Metrics instance, initializing it if necessary
func GetMetrics() *Metrics {
	once.Do(func() {
		metrics = initMetrics()
	})
	return metrics
}

// initMetrics creates and registers all metric instruments
func initMetrics() *Metrics {
	meter := otel.GetMeterProvider().Meter(meterName)

	m := &Metrics{}

	m.WritesTotal, _ = meter.Int64Counter(
		"orgstore.repository.writes.total",
		metric.WithDescription("Total number of repository writes by operation and outcome"),
		metric.WithUnit("{write}"),
	)

	m.WriteDuration, _ = meter.Float64Histogram(
		"orgstore.repository.write.duration",
		metric.WithDescription("Duration of repository writes"),
		metric.WithUnit("ms"),
	)

	m.InvariantViolationsTotal, _ = meter.Int64Counter(
		"orgstore.repository.invariant_violations.total",
		metric.WithDescription("Total number of writes rejected by approval invariants"),
		metric.WithUnit("{write}"),
	)

	m.ReadAttempts, _ = meter.Int64Histogram(
		"orgstore.repository.read.attempts",
		metric.WithDescription("Replica reads needed to satisfy a minimum version"),
		metric.WithUnit("{attempt}"),
	)

	m.ConsistencyTimeoutsTotal, _ = meter.Int64Counter(
		"orgstore.repository.consistency_timeouts.total",
		metric.WithDescription("Total number of reads that never observed their minimum version"),
		metric.WithUnit("{read}"),
	)

	return m
}
