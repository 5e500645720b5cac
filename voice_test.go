// voice_test.go - Single-voice lifecycle, glide and modulation routing tests

package isynth

import (
	"math"
	"testing"
)

func newTestVoice() *Voice {
	return NewVoice(44100)
}

func renderVoice(v *Voice, frames int) ([]float32, []float32) {
	left := make([]float32, frames)
	right := make([]float32, frames)
	for off := 0; off < frames; off += RENDER_BLOCK_SIZE {
		n := frames - off
		if n > RENDER_BLOCK_SIZE {
			n = RENDER_BLOCK_SIZE
		}
		v.Render(left[off:off+n], right[off:off+n], n)
	}
	return left, right
}

func TestVoice_NoteOnProducesAudio(t *testing.T) {
	v := newTestVoice()
	v.NoteOn(60, 1.0, false)

	if !v.IsActive() {
		t.Fatal("voice inactive after NoteOn")
	}
	left, right := renderVoice(v, 512)
	if isBufferSilent(left) || isBufferSilent(right) {
		t.Error("voice rendered silence after NoteOn")
	}

	// Attack must be audible inside the first blocks, not delayed.
	if isBufferSilent(left[:256]) {
		t.Error("first 256 samples silent; attack onset delayed")
	}
}

func TestVoice_EqualPowerBothChannels(t *testing.T) {
	v := newTestVoice()
	v.NoteOn(69, 1.0, false)
	left, right := renderVoice(v, 4096)

	for i := range left {
		if left[i] != right[i] {
			t.Fatalf("channels diverge at sample %d: %v vs %v", i, left[i], right[i])
		}
	}
}

func TestVoice_VelocityScalesOutput(t *testing.T) {
	loud := newTestVoice()
	loud.NoteOn(60, 1.0, false)
	loudL, _ := renderVoice(loud, 8192)

	quiet := newTestVoice()
	quiet.NoteOn(60, 0.25, false)
	quietL, _ := renderVoice(quiet, 8192)

	lr, qr := calculateRMS(loudL), calculateRMS(quietL)
	if qr >= lr {
		t.Errorf("velocity 0.25 louder than 1.0: %v vs %v", qr, lr)
	}
	ratio := qr / lr
	if ratio < 0.15 || ratio > 0.4 {
		t.Errorf("velocity scaling off: rms ratio %v, want ~0.25", ratio)
	}
}

func TestVoice_ReleaseRunsToSilence(t *testing.T) {
	v := newTestVoice()
	p := DefaultVoiceParams()
	p.Release = 0.01
	v.ApplyParams(p)
	v.NoteOn(60, 1.0, false)
	renderVoice(v, 2048)

	v.NoteOff()
	if !v.IsReleasing() {
		t.Fatal("voice not releasing after NoteOff")
	}

	// 10 ms release: well within 50 ms of audio.
	renderVoice(v, 2205)
	if v.IsActive() {
		t.Error("voice still active long after release completed")
	}
}

func TestVoice_KillIsImmediate(t *testing.T) {
	v := newTestVoice()
	v.NoteOn(60, 1.0, false)
	renderVoice(v, 1024)

	v.Kill()
	if v.IsActive() {
		t.Fatal("voice active after Kill")
	}
	if v.Note() != -1 {
		t.Errorf("killed voice still reports note %d", v.Note())
	}

	left, right := renderVoice(v, 512)
	if !isBufferSilent(left) || !isBufferSilent(right) {
		t.Error("killed voice produced output")
	}
}

func TestVoice_AgeCountsRenderCalls(t *testing.T) {
	v := newTestVoice()
	v.NoteOn(60, 1.0, false)
	if v.Age() != 0 {
		t.Fatalf("fresh voice age = %d", v.Age())
	}

	left := make([]float32, RENDER_BLOCK_SIZE)
	right := make([]float32, RENDER_BLOCK_SIZE)
	for i := 0; i < 5; i++ {
		v.Render(left, right, RENDER_BLOCK_SIZE)
	}
	if v.Age() != 5 {
		t.Errorf("age = %d after 5 renders, want 5", v.Age())
	}
}

func TestVoice_LegatoKeepsEnvelopeRunning(t *testing.T) {
	v := newTestVoice()
	p := DefaultVoiceParams()
	p.MonoMode = true
	v.ApplyParams(p)

	v.NoteOn(60, 1.0, false)
	renderVoice(v, 8192) // settle into sustain
	levelBefore := v.env.Level()

	v.NoteOn(72, 1.0, true)
	if v.env.Level() != levelBefore {
		t.Errorf("legato note changed envelope level: %v -> %v", levelBefore, v.env.Level())
	}
	if v.Note() != 72 {
		t.Errorf("legato note not adopted: note=%d", v.Note())
	}
}

func TestVoice_GlideSweepsPitch(t *testing.T) {
	v := newTestVoice()
	p := DefaultVoiceParams()
	p.MonoMode = true
	p.GlideTime = 0.1
	v.ApplyParams(p)

	v.NoteOn(48, 1.0, false)
	renderVoice(v, 1024)

	v.NoteOn(72, 1.0, true)
	startFreq := v.currentFreq
	target := noteToFreq(72)

	// Mid-glide: pitch must sit strictly between the notes.
	renderVoice(v, 2205) // 50 ms of a 100 ms glide
	mid := v.currentFreq
	if mid <= startFreq || mid >= float32(target) {
		t.Errorf("mid-glide frequency %v not between %v and %v", mid, startFreq, target)
	}

	// After the full glide time the target is reached.
	renderVoice(v, 4410)
	if math.Abs(float64(v.currentFreq)-target) > 1.0 {
		t.Errorf("glide never reached target: %v, want %v", v.currentFreq, target)
	}

	// Exponential glide: at the halfway point the pitch is near the
	// geometric mean of the endpoints, not the arithmetic one.
	geoMean := float32(math.Sqrt(float64(startFreq) * target))
	if math.Abs(float64(mid-geoMean)) > float64(geoMean)*0.15 {
		t.Errorf("glide not exponential: midpoint %v, geometric mean %v", mid, geoMean)
	}
}

func TestVoice_SawAndPulseDiffer(t *testing.T) {
	saw := newTestVoice()
	ps := DefaultVoiceParams()
	ps.Waveform = WAVE_SAW
	saw.ApplyParams(ps)
	saw.NoteOn(60, 1.0, false)
	sawL, _ := renderVoice(saw, 512)

	pulse := newTestVoice()
	pp := DefaultVoiceParams()
	pp.Waveform = WAVE_PULSE
	pulse.ApplyParams(pp)
	pulse.NoteOn(60, 1.0, false)
	pulseL, _ := renderVoice(pulse, 512)

	var differs bool
	for i := range sawL {
		if sawL[i] != pulseL[i] {
			differs = true
			break
		}
	}
	if !differs {
		t.Error("saw and pulse rendered identical blocks")
	}
}

func TestVoice_PitchBendRaisesPitch(t *testing.T) {
	plain := newTestVoice()
	plain.NoteOn(69, 1.0, false)
	plainL, _ := renderVoice(plain, 44100)

	bent := newTestVoice()
	bent.NoteOn(69, 1.0, false)
	bent.SetPitchBend(12)
	bentL, _ := renderVoice(bent, 44100)

	// An octave up doubles the fundamental, which shows in zero crossings.
	pc := countZeroCrossings(plainL)
	bc := countZeroCrossings(bentL)
	if bc < pc*3/2 {
		t.Errorf("octave bend did not raise pitch: %d vs %d crossings", pc, bc)
	}
}

func TestVoice_TremoloModulatesAmplitude(t *testing.T) {
	v := newTestVoice()
	p := DefaultVoiceParams()
	p.VCASource = MOD_LFO // LFO1 tremolo
	p.LFO1Waveform = LFO_TRIANGLE
	p.LFO1Range = LFO_RANGE_MED
	p.LFO1Rate = 0.1 // ~5.45 Hz
	v.ApplyParams(p)
	v.NoteOn(60, 1.0, false)

	left, _ := renderVoice(v, 44100)

	// Tremolo output: compare RMS of the loudest and quietest 10 ms windows.
	window := 441
	minRMS, maxRMS := math.Inf(1), 0.0
	for off := 4410; off+window <= len(left); off += window {
		r := calculateRMS(left[off : off+window])
		if r < minRMS {
			minRMS = r
		}
		if r > maxRMS {
			maxRMS = r
		}
	}
	if maxRMS < minRMS*2 {
		t.Errorf("no tremolo depth: min rms %v, max rms %v", minRMS, maxRMS)
	}
}

func TestVoice_BitCrushQuantizes(t *testing.T) {
	v := newTestVoice()
	p := DefaultVoiceParams()
	p.Waveform = WAVE_SINE
	p.CrushBits = 3
	p.FilterModSource = MOD_OFF
	p.Cutoff = MAX_FILTER_CUTOFF
	v.ApplyParams(p)
	v.NoteOn(60, 1.0, false)

	left, _ := renderVoice(v, 8192)

	// 3-bit quantization leaves at most a handful of distinct post-VCA step
	// plateaus; count runs of identical neighboring samples as evidence.
	runs := 0
	for i := 1; i < len(left); i++ {
		if left[i] == left[i-1] && left[i] != 0 {
			runs++
		}
	}
	if runs < 100 {
		t.Errorf("expected heavy stepping from 3-bit crush, got %d repeated neighbors", runs)
	}
}

func TestVoice_DefaultParamsStayFinite(t *testing.T) {
	// The power-on patch routes the envelope into the filter cutoff, which
	// sweeps the effective cutoff well past the static 5 kHz setting. The
	// sweep must never push the filter out of its stable region.
	v := newTestVoice()
	v.ApplyParams(DefaultVoiceParams())
	v.NoteOn(69, 1.0, false)

	left, right := renderVoice(v, 44100)
	assertAllFinite(t, left, "default patch left")
	assertAllFinite(t, right, "default patch right")

	if isBufferSilent(left) {
		t.Fatal("default patch rendered silence")
	}
	// A stuck filter reads as a DC rail: oscillation must survive.
	if countZeroCrossings(left[:8192]) == 0 {
		t.Error("default patch output pinned at DC, no zero crossings")
	}
}
