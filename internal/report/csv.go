package report

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/fieldtrace/trackstats/internal/bands"
	"github.com/fieldtrace/trackstats/internal/summary"
	"github.com/fieldtrace/trackstats/pkg/core"
)

// Report file names.
const (
	FullFile     = "full_speed_distance.csv"
	SummaryFile  = "player_summary_stats.csv"
	BandsFile    = "player_speed_bands.csv"
	AllBandsFile = "all_segments_speed_bands.csv"
)

var (
	// ErrMissingColumns is returned when a table lacks a required column.
	ErrMissingColumns = errors.New("missing required columns")
	// ErrNotInteger is returned for a track id or frame number that is not a
	// whole non-negative number.
	ErrNotInteger = errors.New("not a non-negative integer")
)

var (
	fullHeader    = []string{"object_type", "track_id", "frame_num", "speed_kmh", "total_distance_m"}
	summaryHeader = []string{"object_type", "track_id", "final_distance_m", "avg_speed_kmh", "max_speed_kmh"}
	bandsHeader   = []string{"track_id", "low_speed_distance_m", "hsr_distance_m", "sprint_distance_m", "segment"}

	fullRequired  = []string{"track_id", "frame_num", "speed_kmh"}
	bandsRequired = []string{"track_id", "low_speed_distance_m", "hsr_distance_m", "sprint_distance_m"}
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatID(id core.TrackID) string {
	return strconv.Itoa(int(id))
}

// WriteFull writes the per-frame table.
func WriteFull(w io.Writer, rows []FrameRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(fullHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{
			r.Class.String(),
			formatID(r.TrackID),
			strconv.Itoa(r.Frame),
			formatFloat(r.SpeedKmh),
			formatFloat(r.TotalDistanceM),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummary writes one row per entity.
func WriteSummary(w io.Writer, rows []summary.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(summaryHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{
			r.Class.String(),
			formatID(r.TrackID),
			formatFloat(r.FinalDistanceM),
			formatFloat(r.AvgSpeedKmh),
			formatFloat(r.MaxSpeedKmh),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteBands writes the speed-band table.
func WriteBands(w io.Writer, rows []bands.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(bandsHeader); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{
			formatID(r.TrackID),
			formatFloat(r.LowM),
			formatFloat(r.HSRM),
			formatFloat(r.SprintM),
			r.Segment,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// columnIndex maps header names to positions and checks required columns.
func columnIndex(header, required []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	var missing []string
	for _, name := range required {
		if _, ok := idx[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return nil, fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
	}
	return idx, nil
}

type table struct {
	idx     map[string]int
	records [][]string
}

func readTable(r io.Reader, required []string) (*table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty table", ErrMissingColumns)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx, err := columnIndex(header, required)
	if err != nil {
		return nil, err
	}
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	return &table{idx: idx, records: records}, nil
}

func (t *table) field(rec []string, name string) (string, bool) {
	i, ok := t.idx[name]
	if !ok || i >= len(rec) {
		return "", false
	}
	return strings.TrimSpace(rec[i]), true
}

func (t *table) float(rec []string, line int, name string) (float64, error) {
	s, _ := t.field(rec, name)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("row %d column %s: %w", line, name, err)
	}
	return v, nil
}

// integer parses a whole non-negative number. Tracker ids are sometimes
// written as floats ("7.0"); fractional, non-finite and out-of-range values
// are rejected.
func (t *table) integer(rec []string, line int, name string) (int, error) {
	s, _ := t.field(rec, name)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("row %d column %s: %w", line, name, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) || v < 0 || v > math.MaxInt32 {
		return 0, fmt.Errorf("row %d column %s: %q: %w", line, name, s, ErrNotInteger)
	}
	return int(v), nil
}

func (t *table) trackID(rec []string, line int) (core.TrackID, error) {
	v, err := t.integer(rec, line, "track_id")
	return core.TrackID(v), err
}

// ReadFull parses a per-frame table. The track_id, frame_num and speed_kmh
// columns are required; object_type defaults to player and total_distance_m
// to zero when absent.
func ReadFull(r io.Reader) ([]FrameRow, error) {
	t, err := readTable(r, fullRequired)
	if err != nil {
		return nil, err
	}

	rows := make([]FrameRow, 0, len(t.records))
	for i, rec := range t.records {
		line := i + 2
		id, err := t.trackID(rec, line)
		if err != nil {
			return nil, err
		}
		frame, err := t.integer(rec, line, "frame_num")
		if err != nil {
			return nil, err
		}
		speed, err := t.float(rec, line, "speed_kmh")
		if err != nil {
			return nil, err
		}
		row := FrameRow{Class: core.Player, TrackID: id, Frame: frame, SpeedKmh: speed}
		if s, ok := t.field(rec, "object_type"); ok && s != "" {
			class, err := core.ParseEntityClass(s)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", line, err)
			}
			row.Class = class
		}
		if _, ok := t.idx["total_distance_m"]; ok {
			if row.TotalDistanceM, err = t.float(rec, line, "total_distance_m"); err != nil {
				return nil, err
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadBands parses a speed-band table.
func ReadBands(r io.Reader) ([]bands.Row, error) {
	t, err := readTable(r, bandsRequired)
	if err != nil {
		return nil, err
	}

	rows := make([]bands.Row, 0, len(t.records))
	for i, rec := range t.records {
		line := i + 2
		id, err := t.trackID(rec, line)
		if err != nil {
			return nil, err
		}
		row := bands.Row{TrackID: id}
		if row.LowM, err = t.float(rec, line, "low_speed_distance_m"); err != nil {
			return nil, err
		}
		if row.HSRM, err = t.float(rec, line, "hsr_distance_m"); err != nil {
			return nil, err
		}
		if row.SprintM, err = t.float(rec, line, "sprint_distance_m"); err != nil {
			return nil, err
		}
		row.Segment, _ = t.field(rec, "segment")
		rows = append(rows, row)
	}
	return rows, nil
}
