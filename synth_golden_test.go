// synth_golden_test.go - Statistical golden output tests

/*
Golden output tests capture expected audio behavior for regression testing.

The tests use deterministic engine setups and check statistical properties
of the rendered blocks (RMS, peak, DC offset, zero crossings) rather than
exact bit-for-bit matching, since floating-point changes may introduce
minor numerical differences that are inaudible.
*/

package isynth

import (
	"math"
	"testing"
)

// goldenStats captures statistical properties of audio output
type goldenStats struct {
	rms           float64
	peak          float64
	dcOffset      float64
	zeroCrossings int
}

func computeStats(samples []float32) goldenStats {
	if len(samples) == 0 {
		return goldenStats{}
	}
	var sum float64
	var peak float64
	for _, s := range samples {
		v := float64(s)
		sum += v
		if math.Abs(v) > peak {
			peak = math.Abs(v)
		}
	}
	return goldenStats{
		rms:           calculateRMS(samples),
		peak:          peak,
		dcOffset:      sum / float64(len(samples)),
		zeroCrossings: countZeroCrossings(samples),
	}
}

// createGoldenEngine builds an engine with a fixed, deterministic patch.
func createGoldenEngine() *VoiceEngine {
	e := NewVoiceEngine(44100, 4)
	p := DefaultVoiceParams()
	p.Waveform = WAVE_SAW
	p.Cutoff = 5000
	p.Attack = 0.005
	p.Decay = 0.05
	p.Sustain = 0.7
	p.Release = 0.1
	e.SetParams(p)
	return e
}

func TestGolden_SawA440(t *testing.T) {
	e := createGoldenEngine()
	e.NoteOn(69, 1.0, 0) // A4 = 440 Hz

	left, right := renderFrames(e, 44100)

	// Skip the attack so the statistics reflect steady state.
	stats := computeStats(left[4410:])

	if stats.rms < 0.08 || stats.rms > 0.45 {
		t.Errorf("rms = %v, outside golden band [0.08, 0.45]", stats.rms)
	}
	if stats.peak > 1.0 {
		t.Errorf("peak = %v, soft clip must keep output inside [-1, 1]", stats.peak)
	}
	if stats.peak < 0.15 {
		t.Errorf("peak = %v, suspiciously quiet for full velocity", stats.peak)
	}
	if math.Abs(stats.dcOffset) > 0.05 {
		t.Errorf("dc offset = %v, want ~0", stats.dcOffset)
	}

	// A 440 Hz saw crosses zero roughly 880 times per second. The filter
	// ring widens the band a little.
	perSecond := float64(stats.zeroCrossings) / (float64(len(left)-4410) / 44100.0)
	if perSecond < 650 || perSecond > 1200 {
		t.Errorf("zero crossings/sec = %v, outside golden band [650, 1200]", perSecond)
	}

	// Mono source: both channels identical.
	for i := range left {
		if left[i] != right[i] {
			t.Fatalf("stereo channels diverge at %d", i)
		}
	}
}

func TestGolden_RenderIsDeterministic(t *testing.T) {
	a := createGoldenEngine()
	a.NoteOn(60, 0.8, 0)
	outA, _ := renderFrames(a, 22050)

	b := createGoldenEngine()
	b.NoteOn(60, 0.8, 0)
	outB, _ := renderFrames(b, 22050)

	for i := range outA {
		if outA[i] != outB[i] {
			t.Fatalf("renders diverge at sample %d: %v vs %v", i, outA[i], outB[i])
		}
	}
}

func TestGolden_ChordStaysBounded(t *testing.T) {
	e := createGoldenEngine()
	for _, n := range []int{48, 60, 64, 67} {
		e.NoteOn(n, 1.0, 0)
	}

	left, _ := renderFrames(e, 44100)
	stats := computeStats(left)

	if stats.peak > 1.0 {
		t.Errorf("four-voice chord peak = %v, soft clip failed", stats.peak)
	}
	if stats.rms < 0.1 {
		t.Errorf("four-voice chord rms = %v, too quiet", stats.rms)
	}
	assertAllFinite(t, left, "chord render")
}

func TestGolden_SilenceWhenIdle(t *testing.T) {
	e := createGoldenEngine()
	left, right := renderFrames(e, 4096)
	if !isBufferSilent(left) || !isBufferSilent(right) {
		t.Error("idle engine produced output")
	}
}
