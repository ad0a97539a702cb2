package kinematics

// Window is one evaluation span of the frame range. Start and End are both
// inclusive; speed is measured between these two frames.
type Window struct {
	Start int
	End   int
}

// Elapsed returns the number of frames between the window endpoints.
func (w Window) Elapsed() int {
	return w.End - w.Start
}

// Windows partitions [0, n) into windows of size size. Window k spans
// [k*size, min(k*size+size, n-1)], so the final window may be shorter than
// size (or a single frame) and its End is always n-1.
func Windows(n, size int) []Window {
	if n <= 0 || size <= 0 {
		return nil
	}
	out := make([]Window, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		out = append(out, Window{Start: start, End: min(start+size, n-1)})
	}
	return out
}
