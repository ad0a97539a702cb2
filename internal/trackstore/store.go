// Package trackstore holds the frame-indexed, class-keyed, id-keyed attribute
// table that every analysis stage reads and writes.
package trackstore

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/fieldtrace/trackstats/pkg/core"
)

var (
	// ErrFrozen is returned by every mutation once the store has been exported.
	ErrFrozen = errors.New("track store is frozen")
	// ErrFrameRange is returned when a frame index or frame count does not fit the store.
	ErrFrameRange = errors.New("frame out of range")
)

// Store is an in-memory table of per-frame entity records.
// Stages run sequentially with a single writer; the lock only keeps readers
// such as exporters consistent.
type Store struct {
	frames []core.Frame
	frozen bool
	mu     sync.RWMutex
}

// New creates a store with numFrames empty frames.
func New(numFrames int) *Store {
	frames := make([]core.Frame, numFrames)
	for i := range frames {
		frames[i] = make(core.Frame)
	}
	return &Store{frames: frames}
}

// Len returns the number of frames.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.frames)
}

// Put stores rec for (frame, class, id). It is used when loading tracker output.
func (s *Store) Put(frame int, class core.EntityClass, id core.TrackID, rec core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen {
		return ErrFrozen
	}
	if frame < 0 || frame >= len(s.frames) {
		return fmt.Errorf("put frame %d of %d: %w", frame, len(s.frames), ErrFrameRange)
	}
	tracks, ok := s.frames[frame][class]
	if !ok {
		tracks = make(core.Tracks)
		s.frames[frame][class] = tracks
	}
	tracks[id] = rec.Clone()
	return nil
}

// Lookup returns the record for (frame, class, id). The boolean is false when
// the frame does not exist or the id was not seen in it.
func (s *Store) Lookup(frame int, class core.EntityClass, id core.TrackID) (core.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.lookup(frame, class, id)
	if !ok {
		return core.Record{}, false
	}
	return rec.Clone(), true
}

func (s *Store) lookup(frame int, class core.EntityClass, id core.TrackID) (core.Record, bool) {
	if frame < 0 || frame >= len(s.frames) {
		return core.Record{}, false
	}
	rec, ok := s.frames[frame][class][id]
	return rec, ok
}

// History returns a copy of the full per-frame history of one class.
// Frames where the class has no tracks hold an empty map.
func (s *Store) History(class core.EntityClass) []core.Tracks {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Tracks, len(s.frames))
	for i, frame := range s.frames {
		tracks := make(core.Tracks, len(frame[class]))
		for id, rec := range frame[class] {
			tracks[id] = rec.Clone()
		}
		out[i] = tracks
	}
	return out
}

// IDs returns the ids of class present in frame, ascending.
func (s *Store) IDs(frame int, class core.EntityClass) []core.TrackID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if frame < 0 || frame >= len(s.frames) {
		return nil
	}
	return sortedIDs(s.frames[frame][class])
}

// SetKinematics sets speed and cumulative distance on an existing record.
// A missing (frame, id) pair is skipped and reported as false: trackers drop
// ids for a few frames and that is not an error.
func (s *Store) SetKinematics(frame int, class core.EntityClass, id core.TrackID, speedKmh, distanceM float64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen {
		return false, ErrFrozen
	}
	return s.setKinematics(frame, class, id, speedKmh, distanceM), nil
}

func (s *Store) setKinematics(frame int, class core.EntityClass, id core.TrackID, speedKmh, distanceM float64) bool {
	rec, ok := s.lookup(frame, class, id)
	if !ok {
		return false
	}
	speed, dist := speedKmh, distanceM
	rec.SpeedKmh = &speed
	rec.DistanceM = &dist
	s.frames[frame][class][id] = rec
	return true
}

// WriteRange writes the same speed and cumulative distance into every frame of
// the inclusive range [from, to] that contains id, and returns how many frames
// were written. Speed is deliberately piecewise-constant over the range.
func (s *Store) WriteRange(class core.EntityClass, id core.TrackID, from, to int, speedKmh, distanceM float64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen {
		return 0, ErrFrozen
	}
	written := 0
	for f := from; f <= to; f++ {
		if s.setKinematics(f, class, id, speedKmh, distanceM) {
			written++
		}
	}
	return written, nil
}

// ReplaceClass swaps the whole frame list of one class. The replacement must
// have exactly one entry per frame.
func (s *Store) ReplaceClass(class core.EntityClass, frames []core.Tracks) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.frozen {
		return ErrFrozen
	}
	if len(frames) != len(s.frames) {
		return fmt.Errorf("replace %s: got %d frames, store has %d: %w", class, len(frames), len(s.frames), ErrFrameRange)
	}
	for i, tracks := range frames {
		replacement := make(core.Tracks, len(tracks))
		for id, rec := range tracks {
			replacement[id] = rec.Clone()
		}
		s.frames[i][class] = replacement
	}
	return nil
}

// Classes returns every class that has at least one record, in report order.
func (s *Store) Classes() []core.EntityClass {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[core.EntityClass]bool)
	for _, frame := range s.frames {
		for class, tracks := range frame {
			if len(tracks) > 0 {
				seen[class] = true
			}
		}
	}
	out := make([]core.EntityClass, 0, len(seen))
	for _, class := range core.EntityClasses {
		if seen[class] {
			out = append(out, class)
			delete(seen, class)
		}
	}
	rest := make([]core.EntityClass, 0, len(seen))
	for class := range seen {
		rest = append(rest, class)
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	return append(out, rest...)
}

// Freeze makes the store read-only. Reports are exported from a frozen store.
func (s *Store) Freeze() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frozen = true
}

// Frozen reports whether Freeze has been called.
func (s *Store) Frozen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.frozen
}

func sortedIDs(tracks core.Tracks) []core.TrackID {
	ids := make([]core.TrackID, 0, len(tracks))
	for id := range tracks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
