// Package otel wires the OpenTelemetry metric instruments used by the
// analysis stages.
package otel

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Config holds OTel configuration
type Config struct {
	Enabled     bool
	ServiceName string
}

// Provider hands out the meter for the process. When disabled it is backed by
// a no-op meter provider so instruments can always be created.
type Provider struct {
	meter  metric.Meter
	config Config
}

// New creates a new OTel provider with the given configuration.
// If OTel is disabled, returns a no-op provider.
func New(cfg Config) *Provider {
	p := &Provider{config: cfg}
	if !cfg.Enabled {
		p.meter = noop.NewMeterProvider().Meter(cfg.ServiceName)
		return p
	}
	// The global provider is whatever the embedding process installed.
	p.meter = otel.Meter(cfg.ServiceName)
	return p
}

// Meter returns the meter for creating instruments.
func (p *Provider) Meter() metric.Meter {
	return p.meter
}

// Metrics are the counters recorded by the pipeline. A nil *Metrics records nothing.
type Metrics struct {
	windowsEvaluated metric.Int64Counter
	windowsSkipped   metric.Int64Counter
	framesFilled     metric.Int64Counter
	rowsExported     metric.Int64Counter
}

// NewMetrics creates every instrument on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	m.windowsEvaluated, err = meter.Int64Counter("trackstats.kinematics.windows_evaluated",
		metric.WithDescription("Windows that produced a speed sample"))
	if err != nil {
		return nil, fmt.Errorf("failed to create windows_evaluated counter: %w", err)
	}
	m.windowsSkipped, err = meter.Int64Counter("trackstats.kinematics.windows_skipped",
		metric.WithDescription("Per-id windows skipped, by reason"))
	if err != nil {
		return nil, fmt.Errorf("failed to create windows_skipped counter: %w", err)
	}
	m.framesFilled, err = meter.Int64Counter("trackstats.gapfill.frames_filled",
		metric.WithDescription("Frames whose box was produced by gap filling"))
	if err != nil {
		return nil, fmt.Errorf("failed to create frames_filled counter: %w", err)
	}
	m.rowsExported, err = meter.Int64Counter("trackstats.report.rows_exported",
		metric.WithDescription("Rows written to reports, by report"))
	if err != nil {
		return nil, fmt.Errorf("failed to create rows_exported counter: %w", err)
	}
	return &m, nil
}

// WindowEvaluated counts one evaluated (class, id, window).
func (m *Metrics) WindowEvaluated(ctx context.Context, class string) {
	if m == nil {
		return
	}
	m.windowsEvaluated.Add(ctx, 1, metric.WithAttributes(attribute.String("class", class)))
}

// WindowSkipped counts one skipped (class, id, window).
func (m *Metrics) WindowSkipped(ctx context.Context, class, reason string) {
	if m == nil {
		return
	}
	m.windowsSkipped.Add(ctx, 1, metric.WithAttributes(
		attribute.String("class", class),
		attribute.String("reason", reason),
	))
}

// FramesFilled counts frames completed by the gap filler.
func (m *Metrics) FramesFilled(ctx context.Context, class string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.framesFilled.Add(ctx, int64(n), metric.WithAttributes(attribute.String("class", class)))
}

// RowsExported counts rows written to a report.
func (m *Metrics) RowsExported(ctx context.Context, report string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.rowsExported.Add(ctx, int64(n), metric.WithAttributes(attribute.String("report", report)))
}
