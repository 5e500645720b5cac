// synth_test_helpers_test.go - Shared audio assertions for the test suite

package isynth

import (
	"math"
	"testing"
)

// calculateRMS returns the root mean square of a buffer.
func calculateRMS(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sumSq float64
	for _, s := range samples {
		sumSq += float64(s) * float64(s)
	}
	return math.Sqrt(sumSq / float64(len(samples)))
}

// isBufferSilent reports whether every sample sits below the audibility
// floor.
func isBufferSilent(samples []float32) bool {
	for _, s := range samples {
		if s > SILENCE_FLOOR || s < -SILENCE_FLOOR {
			return false
		}
	}
	return true
}

// countZeroCrossings counts sign changes across a buffer.
func countZeroCrossings(samples []float32) int {
	crossings := 0
	for i := 1; i < len(samples); i++ {
		if (samples[i] >= 0) != (samples[i-1] >= 0) {
			crossings++
		}
	}
	return crossings
}

// assertAllFinite fails the test if the buffer contains NaN or Inf.
func assertAllFinite(t *testing.T, samples []float32, context string) {
	t.Helper()
	for i, s := range samples {
		f := float64(s)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			t.Fatalf("%s: non-finite sample %v at index %d", context, s, i)
		}
	}
}

// renderFrames pulls frames samples from any stereo source and returns both
// channels.
func renderFrames(src StereoRenderer, frames int) ([]float32, []float32) {
	left := make([]float32, frames)
	right := make([]float32, frames)
	src.Render(left, right)
	return left, right
}
