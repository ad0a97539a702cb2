package logging

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextHandler_InjectsDynamicAttrs(t *testing.T) {
	var buf bytes.Buffer
	stage := "ingest"
	h := NewContextHandler(slog.NewTextHandler(&buf, nil), func() []slog.Attr {
		return []slog.Attr{slog.String("stage", stage)}
	})
	logger := slog.New(h)

	logger.Info("first")
	stage = "kinematics"
	logger.With("segment", "h1").Info("second")

	out := buf.String()
	assert.Contains(t, out, "stage=ingest")
	assert.Contains(t, out, "stage=kinematics")
	assert.Contains(t, out, "segment=h1")
}

func TestContextHandler_NilProvider(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewContextHandler(slog.NewTextHandler(&buf, nil), nil))
	logger.WithGroup("g").Info("plain", "k", "v")

	assert.Contains(t, buf.String(), "g.k=v")
}

func TestContextHandler_RecordAttrsWin(t *testing.T) {
	var buf bytes.Buffer
	h := NewContextHandler(slog.NewTextHandler(&buf, nil), func() []slog.Attr {
		return []slog.Attr{slog.String("segment", "current"), slog.String("runId", "r1")}
	})
	slog.New(h).Info("rebuilt", "segment", "h2")

	out := buf.String()
	assert.Contains(t, out, "segment=h2")
	assert.NotContains(t, out, "segment=current")
	assert.Contains(t, out, "runId=r1")
}

func TestContextHandler_EmptyProvider(t *testing.T) {
	var buf bytes.Buffer
	h := NewContextHandler(slog.NewTextHandler(&buf, nil), func() []slog.Attr { return nil })
	slog.New(h).Info("idle", "k", "v")

	assert.Contains(t, buf.String(), "k=v")
}
