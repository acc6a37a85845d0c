package video

const (
	// DefaultFocusStart puts the sampling window in the last 30% of the
	// clip, where dashcam overlay text is operationally relevant.
	DefaultFocusStart = 0.70
	DefaultSampleCount = 5
)

// SampleIndices picks count frame indices from the focus window:
// start = floor(total*focusStart), step = max(1, floor((total-start)/count)).
// Sampling late frames trades full coverage for cheap, targeted evidence.
func SampleIndices(totalFrames int, focusStart float64, count int) []int {
	if totalFrames <= 0 || count <= 0 {
		return nil
	}

	start := int(float64(totalFrames) * focusStart)
	step := (totalFrames - start) / count
	if step < 1 {
		step = 1
	}

	indices := make([]int, 0, count)
	for i := 0; i < count; i++ {
		indices = append(indices, start+i*step)
	}
	return indices
}
