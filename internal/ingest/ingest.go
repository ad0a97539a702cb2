// Package ingest loads tracker output into a track store.
package ingest

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/fieldtrace/trackstats/internal/geo"
	"github.com/fieldtrace/trackstats/internal/trackstore"
	"github.com/fieldtrace/trackstats/pkg/core"
)

// ErrMissingInput is returned when the track file is absent or unusable.
var ErrMissingInput = errors.New("missing or invalid track input")

// rawRecord is one detection as written by the tracker.
type rawRecord struct {
	BBox                []float64       `json:"bbox"`
	PositionWorld       json.RawMessage `json:"position_world"`
	PositionTransformed json.RawMessage `json:"position_transformed"`
}

// Result describes a loaded track file.
type Result struct {
	Store   *trackstore.Store
	Frames  int
	Records map[core.EntityClass]int
}

// LoadFile reads a .json or .json.gz track file.
func LoadFile(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrMissingInput, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		zr, err := gzip.NewReader(f)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %s: %v", ErrMissingInput, path, err)
		}
		defer zr.Close()
		r = zr
	}

	res, err := Load(r)
	if err != nil {
		return Result{}, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

// Load decodes a track document: an object keyed by class, each holding one
// object per frame that maps track ids to detections. Aliased classes
// (goalkeepers, players) are merged into their canonical class; an id seen
// twice in one frame of the merged class is an error.
func Load(r io.Reader) (Result, error) {
	var doc map[string][]map[string]rawRecord
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return Result{}, fmt.Errorf("%w: decode: %v", ErrMissingInput, err)
	}
	names := slices.Sorted(maps.Keys(doc))

	frames := -1
	for _, name := range names {
		list := doc[name]
		if frames >= 0 && len(list) != frames {
			return Result{}, fmt.Errorf("%w: class %q has %d frames, expected %d", ErrMissingInput, name, len(list), frames)
		}
		frames = len(list)
	}
	if frames <= 0 {
		return Result{}, fmt.Errorf("%w: no frames", ErrMissingInput)
	}

	store := trackstore.New(frames)
	res := Result{Store: store, Frames: frames, Records: make(map[core.EntityClass]int)}

	for _, name := range names {
		class, err := core.ParseEntityClass(name)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrMissingInput, err)
		}
		for frame, tracks := range doc[name] {
			for key, raw := range tracks {
				id, err := parseTrackID(key)
				if err != nil {
					return Result{}, fmt.Errorf("%w: frame %d class %s: %v", ErrMissingInput, frame, class, err)
				}
				if _, dup := store.Lookup(frame, class, id); dup {
					return Result{}, fmt.Errorf("%w: frame %d %s %d listed twice (via %q)", ErrMissingInput, frame, class, id, name)
				}
				rec, err := raw.record()
				if err != nil {
					return Result{}, fmt.Errorf("%w: frame %d %s %d: %v", ErrMissingInput, frame, class, id, err)
				}
				if err := store.Put(frame, class, id, rec); err != nil {
					return Result{}, err
				}
				res.Records[class]++
			}
		}
	}
	return res, nil
}

func parseTrackID(key string) (core.TrackID, error) {
	id, err := strconv.Atoi(strings.TrimSpace(key))
	if err != nil {
		return 0, fmt.Errorf("invalid track id %q", key)
	}
	return core.TrackID(id), nil
}

func (raw rawRecord) record() (core.Record, error) {
	var rec core.Record
	if len(raw.BBox) != 4 {
		return rec, fmt.Errorf("bbox needs 4 values, got %d", len(raw.BBox))
	}
	copy(rec.BBox[:], raw.BBox)

	pos := raw.PositionWorld
	if isNull(pos) {
		pos = raw.PositionTransformed
	}
	p, err := parsePosition(pos)
	if err != nil {
		return rec, err
	}
	rec.PositionWorld = p
	return rec, nil
}

func isNull(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null"
}

// parsePosition accepts null, [x, y] or "x,y".
func parsePosition(raw json.RawMessage) (*core.Position2D, error) {
	if isNull(raw) {
		return nil, nil
	}
	s := strings.TrimSpace(string(raw))

	var pair []float64
	if err := json.Unmarshal(raw, &pair); err == nil {
		if len(pair) != 2 {
			return nil, fmt.Errorf("position needs 2 values, got %d", len(pair))
		}
		return &core.Position2D{X: pair[0], Y: pair[1]}, nil
	}

	var str string
	if err := json.Unmarshal(raw, &str); err != nil {
		return nil, fmt.Errorf("unreadable position %s", s)
	}
	p, err := geo.PositionFromString(str)
	if err != nil {
		return nil, fmt.Errorf("position %q: %w", str, err)
	}
	return &p, nil
}
