// lfo.go - Free-running low-frequency oscillator

package isynth

// LFOWaveform selects the LFO shape. Off mutes the output without stopping
// the phase accumulator.
type LFOWaveform int

const (
	LFO_TRIANGLE LFOWaveform = iota
	LFO_PULSE
	LFO_OFF
)

// LFORange selects which frequency span the normalized rate control maps to.
// The high range reaches audio rate, so the same knob covers slow sweeps and
// FM-style modulation.
type LFORange int

const (
	LFO_RANGE_LOW  LFORange = iota // 0.05 - 5 Hz
	LFO_RANGE_MED                  // 0.5 - 50 Hz
	LFO_RANGE_HIGH                 // 5 - 5000 Hz
)

// LFO is a free-running modulation source. Note events never touch its
// phase; only a hard engine reset does. Output is bipolar [-1,1].
type LFO struct {
	sampleRate float32
	rate       float32 // Normalized 0-1 within the selected range
	phase      float32
	waveform   LFOWaveform
	rangeSel   LFORange
}

// NewLFO returns a triangle LFO on the low range at mid rate.
func NewLFO(sampleRate float32) LFO {
	return LFO{sampleRate: sampleRate, rate: 0.5}
}

// SetRate sets the normalized rate control, clamped to [0,1].
func (l *LFO) SetRate(norm float32) { l.rate = clamp32(norm, 0, 1) }

// SetWaveform selects the LFO shape.
func (l *LFO) SetWaveform(wf LFOWaveform) { l.waveform = wf }

// SetRange selects the frequency range.
func (l *LFO) SetRange(r LFORange) { l.rangeSel = r }

// Frequency returns the effective frequency in Hz for the current rate and
// range settings.
func (l *LFO) Frequency() float32 {
	var min, max float32
	switch l.rangeSel {
	case LFO_RANGE_MED:
		min, max = LFO_MED_MIN, LFO_MED_MAX
	case LFO_RANGE_HIGH:
		min, max = LFO_HIGH_MIN, LFO_HIGH_MAX
	default:
		min, max = LFO_LOW_MIN, LFO_LOW_MAX
	}
	return min + l.rate*(max-min)
}

// Process advances one sample and returns the output. Off returns zero but
// still advances phase so re-enabling picks up mid-cycle.
func (l *LFO) Process() float32 {
	var out float32
	switch l.waveform {
	case LFO_TRIANGLE:
		out = 4.0*abs32(l.phase-0.5) - 1.0
	case LFO_PULSE:
		if l.phase < 0.5 {
			out = 1.0
		} else {
			out = -1.0
		}
	case LFO_OFF:
		out = 0
	}

	l.phase += l.Frequency() / l.sampleRate
	if l.phase >= 1.0 {
		l.phase -= 1.0
	}
	return out
}

// Reset zeroes the phase. Used only on hard resets, never on note-on.
func (l *LFO) Reset() { l.phase = 0 }
