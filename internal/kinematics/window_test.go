package kinematics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindows_Boundaries(t *testing.T) {
	tests := []struct {
		n, size int
		want    [][2]int
	}{
		{n: 6, size: 5, want: [][2]int{{0, 5}, {5, 5}}},
		{n: 12, size: 5, want: [][2]int{{0, 5}, {5, 10}, {10, 11}}},
		{n: 3, size: 5, want: [][2]int{{0, 2}}},
		{n: 1, size: 5, want: [][2]int{{0, 0}}},
		{n: 4, size: 1, want: [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 3}}},
	}
	for _, tt := range tests {
		got := Windows(tt.n, tt.size)
		require.Len(t, got, len(tt.want), "n=%d size=%d", tt.n, tt.size)
		for i, w := range got {
			assert.Equal(t, tt.want[i], [2]int{w.Start, w.End}, "n=%d size=%d window %d", tt.n, tt.size, i)
		}
	}
}

func TestWindows_Degenerate(t *testing.T) {
	assert.Nil(t, Windows(0, 5))
	assert.Nil(t, Windows(5, 0))
}

// owns reports whether frame f is in the partition of w, [Start, min(Start+size, n)).
// Owned ranges never overlap; evaluated ranges share their boundary frame.
func owns(w Window, size, n, f int) bool {
	return f >= w.Start && f < min(w.Start+size, n)
}

func TestWindows_Coverage(t *testing.T) {
	for n := 1; n <= 40; n++ {
		for size := 1; size <= 9; size++ {
			windows := Windows(n, size)
			require.NotEmpty(t, windows)
			assert.Equal(t, n-1, windows[len(windows)-1].End, "n=%d size=%d", n, size)

			for f := 0; f < n; f++ {
				owners, covering := 0, 0
				for _, w := range windows {
					if owns(w, size, n, f) {
						owners++
					}
					if f >= w.Start && f <= w.End {
						covering++
					}
				}
				assert.Equal(t, 1, owners, "n=%d size=%d frame %d", n, size, f)
				assert.GreaterOrEqual(t, covering, 1, "n=%d size=%d frame %d", n, size, f)
			}
		}
	}
}
