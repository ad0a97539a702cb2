package influx

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fieldtrace/trackstats/internal/bands"
	"github.com/fieldtrace/trackstats/internal/config"
	"github.com/fieldtrace/trackstats/internal/summary"
	"github.com/fieldtrace/trackstats/pkg/core"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSeg = core.Segment{
	ID:        "run-1",
	Name:      "h1",
	StartTime: time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC),
}

func lineOf(p *influxdb2_write.Point) string {
	return influxdb2_write.PointToLineProtocol(p, time.Nanosecond)
}

func TestSummaryPoint(t *testing.T) {
	p := SummaryPoint(testSeg, summary.Row{
		Class: core.Player, TrackID: 7, FinalDistanceM: 15, AvgSpeedKmh: 27, MaxSpeedKmh: 36,
	})

	assert.Equal(t, MeasurementSummary, p.Name())
	assert.Equal(t, testSeg.StartTime, p.Time())

	line := lineOf(p)
	for _, want := range []string{"run_id=run-1", "segment=h1", "track_id=7", "object_type=player",
		"final_distance_m=15", "avg_speed_kmh=27", "max_speed_kmh=36"} {
		assert.Contains(t, line, want)
	}
}

func TestBandPoint(t *testing.T) {
	seg := testSeg
	seg.Name = ""
	p := BandPoint(seg, bands.Row{TrackID: 9, LowM: 1.5, HSRM: 0.25, SprintM: 0})

	line := lineOf(p)
	assert.True(t, strings.HasPrefix(line, MeasurementBands+","))
	assert.Contains(t, line, "track_id=9")
	assert.Contains(t, line, "low_speed_distance_m=1.5")
	assert.Contains(t, line, "hsr_distance_m=0.25")
	assert.NotContains(t, line, "segment=")
}

func TestConnect_Disabled(t *testing.T) {
	m := NewManager(config.InfluxConfig{}, zerolog.Nop(), "")
	assert.ErrorIs(t, m.Connect(context.Background()), ErrDisabled)
	assert.False(t, m.IsValid)
}

func TestWritePoint_NoWriter(t *testing.T) {
	m := NewManager(config.InfluxConfig{}, zerolog.Nop(), "")
	assert.Error(t, m.WritePoint(BandPoint(testSeg, bands.Row{TrackID: 1})))
}

func TestWritePoint_Backup(t *testing.T) {
	var buf bytes.Buffer
	m := NewManager(config.InfluxConfig{}, zerolog.Nop(), "")
	m.BackupWriter = gzip.NewWriter(&buf)

	n, err := m.WriteRun(testSeg,
		[]summary.Row{{Class: core.Player, TrackID: 7, FinalDistanceM: 15}},
		[]bands.Row{{TrackID: 7, LowM: 2}, {TrackID: 8, LowM: 3}},
	)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.NoError(t, m.Close())

	gz, err := gzip.NewReader(&buf)
	require.NoError(t, err)
	data, err := io.ReadAll(gz)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "\n\n")
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], MeasurementSummary))
	assert.True(t, strings.HasPrefix(lines[2], MeasurementBands))
	assert.Contains(t, lines[2], "track_id=8")
}

func TestConnect_UnreachableUsesBackup(t *testing.T) {
	backup := filepath.Join(t.TempDir(), "influx_backup.lp.gz")
	cfg := config.InfluxConfig{
		Enabled:  true,
		Protocol: "http",
		Host:     "127.0.0.1",
		Port:     "1",
		Org:      "trackstats",
		Bucket:   "kinematics",
	}
	m := NewManager(cfg, zerolog.Nop(), backup)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Connect(ctx))
	assert.False(t, m.IsValid)
	require.NotNil(t, m.BackupWriter)

	require.NoError(t, m.WritePoint(BandPoint(testSeg, bands.Row{TrackID: 7})))
	require.NoError(t, m.Close())

	f, err := os.Open(backup)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	data, err := io.ReadAll(gz)
	require.NoError(t, err)
	assert.Contains(t, string(data), "track_id=7")
}
