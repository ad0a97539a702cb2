package trackstore

import (
	"errors"
	"testing"

	"github.com/fieldtrace/trackstats/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pos(x, y float64) *core.Position2D {
	return &core.Position2D{X: x, Y: y}
}

func TestNew(t *testing.T) {
	s := New(3)
	assert.Equal(t, 3, s.Len())
	assert.Empty(t, s.Classes())
	assert.False(t, s.Frozen())
}

func TestPutAndLookup(t *testing.T) {
	s := New(2)
	rec := core.Record{BBox: core.BBox{1, 2, 3, 4}, PositionWorld: pos(5, 6)}
	require.NoError(t, s.Put(1, core.Player, 7, rec))

	got, ok := s.Lookup(1, core.Player, 7)
	require.True(t, ok)
	assert.Equal(t, core.BBox{1, 2, 3, 4}, got.BBox)
	world, ok := got.World()
	require.True(t, ok)
	assert.Equal(t, core.Position2D{X: 5, Y: 6}, world)

	// Stored records do not alias the caller's pointers.
	rec.PositionWorld.X = 99
	got, _ = s.Lookup(1, core.Player, 7)
	assert.Equal(t, 5.0, got.PositionWorld.X)
}

func TestLookup_Absent(t *testing.T) {
	s := New(2)
	require.NoError(t, s.Put(0, core.Player, 7, core.Record{}))

	_, ok := s.Lookup(1, core.Player, 7)
	assert.False(t, ok, "id missing from frame")
	_, ok = s.Lookup(0, core.Referee, 7)
	assert.False(t, ok, "class missing from frame")
	_, ok = s.Lookup(5, core.Player, 7)
	assert.False(t, ok, "frame out of range")
	_, ok = s.Lookup(-1, core.Player, 7)
	assert.False(t, ok, "negative frame")
}

func TestPut_OutOfRange(t *testing.T) {
	s := New(1)
	err := s.Put(1, core.Player, 1, core.Record{})
	assert.True(t, errors.Is(err, ErrFrameRange))
}

func TestSetKinematics_MissingIsNoop(t *testing.T) {
	s := New(2)
	require.NoError(t, s.Put(0, core.Player, 3, core.Record{}))

	ok, err := s.SetKinematics(1, core.Player, 3, 10, 2)
	require.NoError(t, err)
	assert.False(t, ok)
	_, present := s.Lookup(1, core.Player, 3)
	assert.False(t, present, "no record may be created by a kinematics write")

	ok, err = s.SetKinematics(0, core.Player, 3, 10, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	rec, _ := s.Lookup(0, core.Player, 3)
	speed, _ := rec.Speed()
	dist, _ := rec.Distance()
	assert.Equal(t, 10.0, speed)
	assert.Equal(t, 2.0, dist)
}

func TestWriteRange(t *testing.T) {
	s := New(6)
	for f := 0; f < 6; f++ {
		if f == 3 {
			continue // id vanishes for one frame
		}
		require.NoError(t, s.Put(f, core.Player, 9, core.Record{}))
	}

	n, err := s.WriteRange(core.Player, 9, 0, 5, 18, 4)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	for f := 0; f < 6; f++ {
		rec, ok := s.Lookup(f, core.Player, 9)
		if f == 3 {
			assert.False(t, ok)
			continue
		}
		speed, ok := rec.Speed()
		require.True(t, ok, "frame %d", f)
		assert.Equal(t, 18.0, speed)
	}
}

func TestHistory_IsCopy(t *testing.T) {
	s := New(2)
	require.NoError(t, s.Put(0, core.Ball, 1, core.Record{BBox: core.BBox{0, 0, 1, 1}}))

	hist := s.History(core.Ball)
	require.Len(t, hist, 2)
	assert.Len(t, hist[0], 1)
	assert.Empty(t, hist[1])

	hist[0][1] = core.Record{BBox: core.BBox{9, 9, 9, 9}}
	rec, _ := s.Lookup(0, core.Ball, 1)
	assert.Equal(t, core.BBox{0, 0, 1, 1}, rec.BBox)
}

func TestReplaceClass(t *testing.T) {
	s := New(2)
	require.NoError(t, s.Put(0, core.Ball, 1, core.Record{}))
	require.NoError(t, s.Put(0, core.Player, 4, core.Record{}))

	err := s.ReplaceClass(core.Ball, []core.Tracks{{}})
	assert.True(t, errors.Is(err, ErrFrameRange))

	err = s.ReplaceClass(core.Ball, []core.Tracks{
		{1: {BBox: core.BBox{1, 1, 2, 2}}},
		{1: {BBox: core.BBox{3, 3, 4, 4}}},
	})
	require.NoError(t, err)

	rec, ok := s.Lookup(1, core.Ball, 1)
	require.True(t, ok)
	assert.Equal(t, core.BBox{3, 3, 4, 4}, rec.BBox)
	_, ok = s.Lookup(0, core.Player, 4)
	assert.True(t, ok, "other classes are untouched")
}

func TestIDsAndClasses(t *testing.T) {
	s := New(1)
	for _, id := range []core.TrackID{12, 3, 7} {
		require.NoError(t, s.Put(0, core.Player, id, core.Record{}))
	}
	require.NoError(t, s.Put(0, core.Ball, 1, core.Record{}))

	assert.Equal(t, []core.TrackID{3, 7, 12}, s.IDs(0, core.Player))
	assert.Nil(t, s.IDs(4, core.Player))
	assert.Equal(t, []core.EntityClass{core.Player, core.Ball}, s.Classes())
}

func TestFreeze(t *testing.T) {
	s := New(1)
	require.NoError(t, s.Put(0, core.Player, 1, core.Record{}))
	s.Freeze()
	assert.True(t, s.Frozen())

	assert.ErrorIs(t, s.Put(0, core.Player, 2, core.Record{}), ErrFrozen)
	_, err := s.SetKinematics(0, core.Player, 1, 1, 1)
	assert.ErrorIs(t, err, ErrFrozen)
	_, err = s.WriteRange(core.Player, 1, 0, 0, 1, 1)
	assert.ErrorIs(t, err, ErrFrozen)
	assert.ErrorIs(t, s.ReplaceClass(core.Player, []core.Tracks{{}}), ErrFrozen)

	_, ok := s.Lookup(0, core.Player, 1)
	assert.True(t, ok, "reads still work")
}
