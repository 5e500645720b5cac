// filter_svf.go - Chamberlin state-variable filter (12dB/octave)

package isynth

import "math"

// SVFMode selects which state-variable output the voice taps.
type SVFMode int

const (
	SVF_LOWPASS SVFMode = iota
	SVF_BANDPASS
	SVF_HIGHPASS
)

// SVFilter is a two-pole Chamberlin state-variable filter. Coefficients are
// recomputed only in the setters; the voice calls those once per sub-block.
type SVFilter struct {
	sampleRate float32
	cutoff     float32
	resonance  float32

	f float32 // 2*sin(pi*fc/sr), clamped [0,1]
	q float32 // 1/Q, Q in [0.5,20]

	low  float32
	band float32
}

// NewSVFilter returns a lowpass-ready filter at the given rate.
func NewSVFilter(sampleRate float32) SVFilter {
	s := SVFilter{sampleRate: sampleRate}
	s.SetCutoff(5000)
	s.SetResonance(0)
	return s
}

// SetCutoff sets the cutoff in Hz, clamped to [20, 20000].
func (s *SVFilter) SetCutoff(hz float32) {
	s.cutoff = clamp32(hz, MIN_FILTER_CUTOFF, MAX_FILTER_CUTOFF)
	s.updateCoefficients()
}

// SetResonance sets resonance 0-1, mapped to Q 0.5-20. The stability bound
// on f depends on q, so this recomputes f as well.
func (s *SVFilter) SetResonance(res float32) {
	s.resonance = clamp32(res, 0, 1)
	s.q = 1.0 / (0.5 + s.resonance*19.5)
	s.updateCoefficients()
}

// updateCoefficients derives f from the cutoff and caps it inside the
// stable region of the Chamberlin recursion, f*f + 2*f*q < 4. Without the
// cap an envelope sweep toward 20 kHz sends f past 1 and the integrators
// diverge. 90% of the bound leaves headroom for float32 rounding.
func (s *SVFilter) updateCoefficients() {
	f := 2.0 * float32(math.Sin(math.Pi*float64(s.cutoff)/float64(s.sampleRate)))
	limit := 0.9 * (float32(math.Sqrt(float64(s.q*s.q+4.0))) - s.q)
	s.f = clamp32(f, 0, limit)
}

// Process advances the filter by one sample and returns the requested tap.
func (s *SVFilter) Process(in float32, mode SVFMode) float32 {
	hp := in - s.low - s.q*s.band
	s.band += s.f * hp
	s.low += s.f * s.band

	// Flush denormals out of the recursive state.
	if abs32(s.band) < DENORMAL_LIMIT {
		s.band = 0
	}
	if abs32(s.low) < DENORMAL_LIMIT {
		s.low = 0
	}

	// A coefficient jump mid-note can still kick the state out of range.
	// Flush instead of letting Inf/NaN reach the mix; the comparison is
	// written so NaN (which fails every compare) also trips it.
	if !(abs32(s.band) < 1e6) || !(abs32(s.low) < 1e6) {
		s.band, s.low, hp = 0, 0, 0
	}

	switch mode {
	case SVF_BANDPASS:
		return s.band
	case SVF_HIGHPASS:
		return hp
	default:
		return s.low
	}
}

// Reset clears the integrator states.
func (s *SVFilter) Reset() {
	s.low = 0
	s.band = 0
}
