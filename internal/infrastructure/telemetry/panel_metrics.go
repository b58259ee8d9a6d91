package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Operation outcomes
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeReplay  = "replay"
)

// PanelMetrics counts and times operations performed through the admin panel.
// A nil *PanelMetrics records nothing.
type PanelMetrics struct {
	operations *Counter
	duration   *Histogram
}

// NewPanelMetrics registers the panel instruments on meter.
func NewPanelMetrics(meter metric.Meter) (*PanelMetrics, error) {
	operations, err := NewCounter(meter,
		"panel_operations_total",
		"Admin panel operations by resource, operation and outcome",
		"{operation}",
	)
	if err != nil {
		return nil, err
	}

	duration, err := NewHistogram(meter, HistogramOpts{
		Name:        "panel_operation_duration_seconds",
		Description: "Admin panel operation latency",
		Unit:        "s",
		Boundaries:  OperationDurationBuckets,
	})
	if err != nil {
		return nil, err
	}

	return &PanelMetrics{operations: operations, duration: duration}, nil
}

// RecordOperation records one finished operation.
func (m *PanelMetrics) RecordOperation(ctx context.Context, resource, operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	m.operations.Inc(ctx, AttrResource.String(resource), AttrOperation.String(operation), AttrOutcome.String(outcome))
	m.duration.RecordDuration(ctx, time.Since(started), AttrResource.String(resource), AttrOperation.String(operation))
}

// RecordReplay records a submission answered from the idempotency store.
func (m *PanelMetrics) RecordReplay(ctx context.Context, resource string) {
	if m == nil {
		return
	}
	m.operations.Inc(ctx, AttrResource.String(resource), AttrOperation.String("create"), AttrOutcome.String(OutcomeReplay))
}
