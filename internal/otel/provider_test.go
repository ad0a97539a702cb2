package otel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DisabledUsesNoop(t *testing.T) {
	p := New(Config{Enabled: false, ServiceName: "trackstats"})
	require.NotNil(t, p.Meter())

	m, err := NewMetrics(p.Meter())
	require.NoError(t, err)

	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.WindowEvaluated(ctx, "player")
		m.WindowSkipped(ctx, "player", "zero_elapsed")
		m.FramesFilled(ctx, "ball", 3)
		m.RowsExported(ctx, "summary", 2)
	})
}

func TestNew_EnabledUsesGlobalMeter(t *testing.T) {
	p := New(Config{Enabled: true, ServiceName: "trackstats"})
	_, err := NewMetrics(p.Meter())
	require.NoError(t, err)
}

func TestNilMetricsRecordNothing(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.WindowEvaluated(ctx, "player")
		m.WindowSkipped(ctx, "player", "missing_end")
		m.FramesFilled(ctx, "ball", 1)
		m.RowsExported(ctx, "full", 1)
	})
}
