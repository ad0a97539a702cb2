package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fieldtrace/trackstats/internal/bands"
	"github.com/fieldtrace/trackstats/internal/summary"
	"github.com/fieldtrace/trackstats/internal/trackstore"
	"github.com/fieldtrace/trackstats/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestFullRows(t *testing.T) {
	s := trackstore.New(3)
	require.NoError(t, s.Put(0, core.Player, 9, core.Record{SpeedKmh: ptr(12.5), DistanceM: ptr(1)}))
	require.NoError(t, s.Put(0, core.Player, 4, core.Record{SpeedKmh: ptr(10), DistanceM: ptr(2)}))
	require.NoError(t, s.Put(1, core.Player, 4, core.Record{}))
	require.NoError(t, s.Put(2, core.Player, 4, core.Record{SpeedKmh: ptr(11), DistanceM: ptr(3)}))
	require.NoError(t, s.Put(2, core.Referee, 1, core.Record{SpeedKmh: ptr(11), DistanceM: ptr(3)}))

	rows := FullRows(s, []core.EntityClass{core.Player})
	assert.Equal(t, []FrameRow{
		{Class: core.Player, TrackID: 4, Frame: 0, SpeedKmh: 10, TotalDistanceM: 2},
		{Class: core.Player, TrackID: 9, Frame: 0, SpeedKmh: 12.5, TotalDistanceM: 1},
		{Class: core.Player, TrackID: 4, Frame: 2, SpeedKmh: 11, TotalDistanceM: 3},
	}, rows)

	samples := BandSamples(rows)
	assert.Equal(t, bands.Sample{TrackID: 9, SpeedKmh: 12.5}, samples[1])
}

func TestWriteFull_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFull(&buf, []FrameRow{
		{Class: core.Player, TrackID: 7, Frame: 3, SpeedKmh: 180, TotalDistanceM: 10.25},
	}))
	assert.Equal(t,
		"object_type,track_id,frame_num,speed_kmh,total_distance_m\nplayer,7,3,180,10.25\n",
		buf.String())
}

func TestWriteSummaryAndBands_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, []summary.Row{
		{Class: core.Player, TrackID: 3, FinalDistanceM: 4},
	}))
	assert.Equal(t,
		"object_type,track_id,final_distance_m,avg_speed_kmh,max_speed_kmh\nplayer,3,4,0,0\n",
		buf.String())

	buf.Reset()
	require.NoError(t, WriteBands(&buf, []bands.Row{
		{TrackID: 3, LowM: 0.4, HSRM: 0.24, Segment: "h1"},
	}))
	assert.Equal(t,
		"track_id,low_speed_distance_m,hsr_distance_m,sprint_distance_m,segment\n3,0.4,0.24,0,h1\n",
		buf.String())
}

func TestReadFull(t *testing.T) {
	in := "object_type,track_id,frame_num,speed_kmh,total_distance_m\n" +
		"players,7.0,3,18.5,2\n" +
		"player,8,4,0,0\n"
	rows, err := ReadFull(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []FrameRow{
		{Class: core.Player, TrackID: 7, Frame: 3, SpeedKmh: 18.5, TotalDistanceM: 2},
		{Class: core.Player, TrackID: 8, Frame: 4},
	}, rows)
}

func TestReadFull_OptionalColumns(t *testing.T) {
	rows, err := ReadFull(strings.NewReader("frame_num,track_id,speed_kmh\n1,2,3\n"))
	require.NoError(t, err)
	assert.Equal(t, []FrameRow{{Class: core.Player, TrackID: 2, Frame: 1, SpeedKmh: 3}}, rows)
}

func TestReadFull_MissingColumns(t *testing.T) {
	_, err := ReadFull(strings.NewReader("track_id,speed\n1,2\n"))
	require.ErrorIs(t, err, ErrMissingColumns)
	assert.Contains(t, err.Error(), "frame_num, speed_kmh")

	_, err = ReadFull(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrMissingColumns)
}

func TestReadFull_BadValue(t *testing.T) {
	_, err := ReadFull(strings.NewReader("track_id,frame_num,speed_kmh\n1,2,fast\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2 column speed_kmh")
}

func TestReadFull_NonIntegerKeys(t *testing.T) {
	tests := []struct {
		name, row, column string
	}{
		{"fractional id", "7.9,2,10", "track_id"},
		{"fractional frame", "7,2.6,10", "frame_num"},
		{"NaN id", "NaN,1,10", "track_id"},
		{"infinite frame", "7,+Inf,10", "frame_num"},
		{"negative id", "-3,1,10", "track_id"},
		{"huge id", "1e20,1,10", "track_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadFull(strings.NewReader("track_id,frame_num,speed_kmh\n" + tt.row + "\n"))
			require.ErrorIs(t, err, ErrNotInteger)
			assert.Contains(t, err.Error(), "row 2 column "+tt.column)
		})
	}
}

func TestReadBands_FractionalID(t *testing.T) {
	_, err := ReadBands(strings.NewReader(
		"track_id,low_speed_distance_m,hsr_distance_m,sprint_distance_m\n4.5,1,2,3\n"))
	assert.ErrorIs(t, err, ErrNotInteger)
}

func TestFullTable_RoundTripThroughBands(t *testing.T) {
	rows := []FrameRow{
		{Class: core.Player, TrackID: 1, Frame: 0, SpeedKmh: 36, TotalDistanceM: 2},
		{Class: core.Player, TrackID: 1, Frame: 1, SpeedKmh: 18, TotalDistanceM: 2},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteFull(&buf, rows))

	read, err := ReadFull(&buf)
	require.NoError(t, err)

	got, err := bands.Aggregate(BandSamples(read), bands.DefaultThresholds(), 25, "seg")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.InDelta(t, 0.2, got[0].LowM, 1e-12)
	assert.InDelta(t, 0.4, got[0].SprintM, 1e-12)
}

func TestExporter_WritesFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	e := &Exporter{Dir: dir}

	path, err := e.ExportFull([]FrameRow{{Class: core.Player, TrackID: 1, SpeedKmh: 1, TotalDistanceM: 1}})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, FullFile), path)

	rows, err := LoadFull(dir)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestExporter_EmptyTablesSkipped(t *testing.T) {
	dir := t.TempDir()
	e := &Exporter{Dir: dir}

	path, err := e.ExportFull(nil)
	require.NoError(t, err)
	assert.Empty(t, path)

	path, err = e.ExportSummary(nil)
	require.NoError(t, err)
	assert.Empty(t, path)

	path, err = e.ExportBands(nil)
	require.NoError(t, err)
	assert.Empty(t, path)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExporter_Compressed(t *testing.T) {
	dir := t.TempDir()
	e := &Exporter{Dir: dir, Compress: true}

	path, err := e.ExportBands([]bands.Row{{TrackID: 2, LowM: 1, Segment: "a"}})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, BandsFile+".gz"), path)

	rows, err := LoadBands(dir)
	require.NoError(t, err)
	assert.Equal(t, []bands.Row{{TrackID: 2, LowM: 1, Segment: "a"}}, rows)
}

func TestLoadFull_MissingFile(t *testing.T) {
	_, err := LoadFull(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing "+FullFile)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestConcatBands(t *testing.T) {
	root := t.TempDir()
	first := filepath.Join(root, "first")
	second := filepath.Join(root, "second")

	_, err := (&Exporter{Dir: first}).ExportBands([]bands.Row{{TrackID: 1, LowM: 1, Segment: "h1"}})
	require.NoError(t, err)
	_, err = (&Exporter{Dir: second}).ExportBands([]bands.Row{{TrackID: 1, HSRM: 2}, {TrackID: 4, SprintM: 3}})
	require.NoError(t, err)

	rows, err := ConcatBands([]string{first, second})
	require.NoError(t, err)
	assert.Equal(t, []bands.Row{
		{TrackID: 1, LowM: 1, Segment: "h1"},
		{TrackID: 1, HSRM: 2, Segment: "second"},
		{TrackID: 4, SprintM: 3, Segment: "second"},
	}, rows)

	_, err = ConcatBands([]string{first, filepath.Join(root, "missing")})
	assert.Error(t, err)
}
