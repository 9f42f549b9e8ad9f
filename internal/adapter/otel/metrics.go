package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Strob0t/fieldtoggle/internal/domain/toggle"
)

const meterName = "fieldtoggle"

// Metrics holds the toggle metric instruments.
type Metrics struct {
	TogglesStarted   metric.Int64Counter
	TogglesConfirmed metric.Int64Counter
	TogglesRejected  metric.Int64Counter
	TogglesFailed    metric.Int64Counter
	ToggleDuration   metric.Float64Histogram
}

// NewMetrics creates all metric instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	return NewMetricsFrom(otel.GetMeterProvider())
}

// NewMetricsFrom creates all metric instruments on mp.
func NewMetricsFrom(mp metric.MeterProvider) (*Metrics, error) {
	meter := mp.Meter(meterName)
	m := &Metrics{}
	var err error

	m.TogglesStarted, err = meter.Int64Counter("fieldtoggle.toggles.started",
		metric.WithDescription("Number of field updates sent"))
	if err != nil {
		return nil, err
	}

	m.TogglesConfirmed, err = meter.Int64Counter("fieldtoggle.toggles.confirmed",
		metric.WithDescription("Number of field updates confirmed by the endpoint"))
	if err != nil {
		return nil, err
	}

	m.TogglesRejected, err = meter.Int64Counter("fieldtoggle.toggles.rejected",
		metric.WithDescription("Number of field updates the endpoint answered with success=false"))
	if err != nil {
		return nil, err
	}

	m.TogglesFailed, err = meter.Int64Counter("fieldtoggle.toggles.failed",
		metric.WithDescription("Number of field updates lost to transport failures"))
	if err != nil {
		return nil, err
	}

	m.ToggleDuration, err = meter.Float64Histogram("fieldtoggle.toggle.duration_seconds",
		metric.WithDescription("Time from change to resolution in seconds"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordStart counts a toggle that reached the endpoint call.
func (m *Metrics) RecordStart(ctx context.Context, key toggle.Key) {
	if m == nil {
		return
	}
	m.TogglesStarted.Add(ctx, 1, metric.WithAttributes(fieldAttr(key)))
}

// RecordOutcome counts o under its kind and records how long it took.
func (m *Metrics) RecordOutcome(ctx context.Context, o toggle.Outcome, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(fieldAttr(o.Key))
	switch o.Kind {
	case toggle.OutcomeConfirmed:
		m.TogglesConfirmed.Add(ctx, 1, attrs)
	case toggle.OutcomeRejected:
		m.TogglesRejected.Add(ctx, 1, attrs)
	default:
		m.TogglesFailed.Add(ctx, 1, attrs)
	}
	m.ToggleDuration.Record(ctx, elapsed.Seconds(),
		metric.WithAttributes(fieldAttr(o.Key), attribute.String("toggle.outcome", string(o.Kind))))
}

// fieldAttr keeps cardinality bounded: record ids are not metric attributes.
func fieldAttr(key toggle.Key) attribute.KeyValue {
	return attribute.String("toggle.field", key.Field)
}
