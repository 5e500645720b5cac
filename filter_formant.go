// filter_formant.go - Vowel formant filter bank (three parallel bandpasses)

package isynth

import "math"

// formantData holds the three formant center frequencies for one vowel.
type formantData struct {
	f1, f2, f3 float32
}

// formantTable gives classic vowel formants A/E/I/O/U in Hz. A fractional
// vowel position interpolates between adjacent rows (wrapping U back to A).
var formantTable = [5]formantData{
	{800, 1200, 2500},  // A
	{400, 2000, 2600},  // E
	{300, 2300, 3000},  // I
	{500, 800, 2300},   // O
	{350, 700, 2500},   // U
}

// Fixed Q and mix gain per formant band, typical for vocal filtering.
var formantQ = [3]float32{8.0, 10.0, 12.0}
var formantGain = [3]float32{1.0, 0.7, 0.4}

// cytomicBandpass is a 2-pole Cytomic-topology SVF tapped at its bandpass
// output. One instance per formant band.
type cytomicBandpass struct {
	ic1eq, ic2eq float32
	a1, a2, a3   float32
}

func (f *cytomicBandpass) setCoefficients(frequency, q, sampleRate float32) {
	frequency = clamp32(frequency, MIN_FILTER_CUTOFF, sampleRate*0.49)
	g := float32(math.Tan(math.Pi * float64(frequency) / float64(sampleRate)))
	k := 1.0 / q
	f.a1 = 1.0 / (1.0 + g*(g+k))
	f.a2 = g * f.a1
	f.a3 = g * f.a2
}

func (f *cytomicBandpass) process(in float32) float32 {
	v3 := in - f.ic2eq
	v1 := f.a1*f.ic1eq + f.a2*v3
	v2 := f.ic2eq + f.a2*f.ic1eq + f.a3*v3
	f.ic1eq = 2.0*v1 - f.ic1eq
	f.ic2eq = 2.0*v2 - f.ic2eq
	if abs32(f.ic1eq) < DENORMAL_LIMIT {
		f.ic1eq = 0
	}
	if abs32(f.ic2eq) < DENORMAL_LIMIT {
		f.ic2eq = 0
	}
	return v1
}

func (f *cytomicBandpass) reset() {
	f.ic1eq = 0
	f.ic2eq = 0
}

// FormantFilter runs three cytomic bandpasses in parallel at interpolated
// vowel formant frequencies. SetVowel/SetShift are cheap; the expensive
// coefficient update happens in UpdateCoefficients, which the voice calls
// once per sub-block.
type FormantFilter struct {
	sampleRate float32
	vowel      float32 // Position 0-5, fractional interpolates, wraps
	shift      float32 // Formant shift in semitones

	bands [3]cytomicBandpass
}

// NewFormantFilter returns a formant bank set to vowel A.
func NewFormantFilter(sampleRate float32) FormantFilter {
	f := FormantFilter{sampleRate: sampleRate}
	f.UpdateCoefficients()
	return f
}

// SetVowel sets the fractional vowel position. Values wrap modulo 5.
func (f *FormantFilter) SetVowel(pos float32) {
	f.vowel = float32(math.Mod(float64(pos)+100.0, 5.0))
}

// SetShift sets the formant shift in semitones, clamped to [-24, 24].
func (f *FormantFilter) SetShift(semitones float32) {
	f.shift = clamp32(semitones, -24, 24)
}

// interpolated returns the formant set for the current vowel position and
// shift.
func (f *FormantFilter) interpolated() formantData {
	v1 := int(f.vowel)
	v2 := (v1 + 1) % 5
	frac := f.vowel - float32(v1)

	var out formantData
	out.f1 = formantTable[v1].f1*(1.0-frac) + formantTable[v2].f1*frac
	out.f2 = formantTable[v1].f2*(1.0-frac) + formantTable[v2].f2*frac
	out.f3 = formantTable[v1].f3*(1.0-frac) + formantTable[v2].f3*frac

	ratio := float32(math.Pow(2, float64(f.shift)/12.0))
	out.f1 *= ratio
	out.f2 *= ratio
	out.f3 *= ratio
	return out
}

// UpdateCoefficients retunes all three bands. Once per sub-block.
func (f *FormantFilter) UpdateCoefficients() {
	fd := f.interpolated()
	f.bands[0].setCoefficients(fd.f1, formantQ[0], f.sampleRate)
	f.bands[1].setCoefficients(fd.f2, formantQ[1], f.sampleRate)
	f.bands[2].setCoefficients(fd.f3, formantQ[2], f.sampleRate)
}

// Process runs the input through the parallel bank and mixes the bands.
func (f *FormantFilter) Process(in float32) float32 {
	return f.bands[0].process(in)*formantGain[0] +
		f.bands[1].process(in)*formantGain[1] +
		f.bands[2].process(in)*formantGain[2]
}

// Reset clears all band states.
func (f *FormantFilter) Reset() {
	for i := range f.bands {
		f.bands[i].reset()
	}
}
