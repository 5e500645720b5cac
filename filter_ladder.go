// filter_ladder.go - Moog-style 4-pole transistor ladder filter (24dB/octave)

package isynth

// LadderFilter approximates the classic transistor ladder: four cascaded
// one-pole lowpass stages with inverted feedback from the fourth. The
// feedback injection point is soft-clipped with tanh so high resonance
// self-oscillates instead of diverging.
type LadderFilter struct {
	sampleRate float32
	cutoff     float32
	resonance  float32

	g float32 // One-pole coefficient from the wc polynomial fit
	k float32 // Feedback amount, 0-4; self-oscillation near 3.8

	stage [4]float32
}

// NewLadderFilter returns a ladder filter at the given rate.
func NewLadderFilter(sampleRate float32) LadderFilter {
	l := LadderFilter{sampleRate: sampleRate}
	l.SetCutoff(5000)
	l.SetResonance(0)
	return l
}

// SetCutoff sets the cutoff in Hz, clamped to [20, 0.45*sampleRate]. The
// coefficient uses a quartic polynomial fit of tan(wc/2) for stability.
func (l *LadderFilter) SetCutoff(hz float32) {
	l.cutoff = clamp32(hz, MIN_FILTER_CUTOFF, l.sampleRate*0.45)
	wc := TWO_PI * l.cutoff / l.sampleRate
	g := 0.9892*wc - 0.4342*wc*wc + 0.1381*wc*wc*wc - 0.0202*wc*wc*wc*wc
	l.g = clamp32(g, 0, 1)
}

// SetResonance sets resonance 0-1, mapped to feedback 0-4.
func (l *LadderFilter) SetResonance(res float32) {
	l.resonance = clamp32(res, 0, 1)
	l.k = 4.0 * l.resonance
}

// Process advances the filter by one sample.
func (l *LadderFilter) Process(in float32) float32 {
	u := fastTanh(in - l.k*l.stage[3])

	// Four cascaded one-pole stages, trapezoidal integration.
	for i := 0; i < 4; i++ {
		v := (u - l.stage[i]) * l.g
		y := v + l.stage[i]
		l.stage[i] = y + v
		if abs32(l.stage[i]) < DENORMAL_LIMIT {
			l.stage[i] = 0
		}
		u = y
	}

	return l.stage[3]
}

// Reset clears all four stage states.
func (l *LadderFilter) Reset() {
	for i := range l.stage {
		l.stage[i] = 0
	}
}
