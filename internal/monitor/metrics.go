package monitor

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/sitewatch/sitewatch/internal/website"
)

const meterName = "github.com/sitewatch/sitewatch/internal/monitor"

// CheckMetrics holds the OpenTelemetry instruments for check outcomes and
// cycles. A nil *CheckMetrics is valid and records nothing.
type CheckMetrics struct {
	checksTotal   metric.Int64Counter
	loadTime      metric.Float64Histogram
	responseTime  metric.Float64Histogram
	cycleDuration metric.Float64Histogram
}

// NewCheckMetrics creates a CheckMetrics instance with initialized instruments.
func NewCheckMetrics() (*CheckMetrics, error) {
	meter := otel.Meter(meterName)

	checksTotal, err := meter.Int64Counter(
		"sitewatch.checks.total",
		metric.WithDescription("Total number of website checks by classification"),
		metric.WithUnit("{check}"),
	)
	if err != nil {
		return nil, err
	}

	loadTime, err := meter.Float64Histogram(
		"sitewatch.check.load_time",
		metric.WithDescription("Render probe load time in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	responseTime, err := meter.Float64Histogram(
		"sitewatch.check.response_time",
		metric.WithDescription("Network probe response time in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	cycleDuration, err := meter.Float64Histogram(
		"sitewatch.cycle.duration",
		metric.WithDescription("Duration of a full check cycle in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &CheckMetrics{
		checksTotal:   checksTotal,
		loadTime:      loadTime,
		responseTime:  responseTime,
		cycleDuration: cycleDuration,
	}, nil
}

// RecordOutcome records one classified check outcome.
func (m *CheckMetrics) RecordOutcome(ctx context.Context, outcome website.CheckOutcome) {
	if m == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String("status", string(outcome.Status)))
	m.checksTotal.Add(ctx, 1, attrs)
	if outcome.LoadTime > 0 {
		m.loadTime.Record(ctx, outcome.LoadTime, attrs)
	}
	if outcome.ResponseTime > 0 {
		m.responseTime.Record(ctx, outcome.ResponseTime, attrs)
	}
}

// RecordCycle records the duration of a completed cycle.
func (m *CheckMetrics) RecordCycle(ctx context.Context, duration time.Duration, processed int) {
	if m == nil {
		return
	}
	m.cycleDuration.Record(ctx, duration.Seconds(),
		metric.WithAttributes(attribute.Int("websites", processed)))
}
