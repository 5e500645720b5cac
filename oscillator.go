// oscillator.go - Band-limited voice oscillator with sub, noise, sync, ring and FM

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionSynth
License: GPLv3 or later
*/

package isynth

// OscWaveform selects the main oscillator shape.
type OscWaveform int

const (
	WAVE_SINE OscWaveform = iota
	WAVE_TRIANGLE
	WAVE_SAW
	WAVE_PULSE
	WAVE_NOISE
)

// Oscillator is the per-voice tone source. It owns the main phase
// accumulator plus three auxiliary generators: a square sub oscillator one
// octave below, a sine FM/ring modulator running at a ratio of the main
// frequency, and a 23-bit LFSR noise register. All phases live in [0,1).
//
// Saw and pulse apply a PolyBLEP residual (polyBLEP32 in audio_lut.go) at
// each discontinuity so the waveforms stay band-limited without oversampling.
type Oscillator struct {
	phase    float32 // Main phase accumulator
	subPhase float32 // Sub oscillator phase, advances at half rate
	modPhase float32 // FM/ring modulator phase
	noiseSR  uint32  // SID-style LFSR state, taps 22/17

	waveform   OscWaveform
	pulseWidth float32 // Effective (possibly modulated) width, [0.05,0.95]
	subLevel   float32
	syncEnable bool    // Sub wrap re-zeroes the main phase
	fmAmount   float32 // Phase modulation depth from the internal modulator
	fmRatio    float32 // Modulator frequency as a multiple of the main frequency
	ringMod    float32 // Dry/ring blend, 0 = dry
}

// NewOscillator returns an oscillator in its power-on state.
func NewOscillator() Oscillator {
	return Oscillator{
		waveform:   WAVE_SAW,
		pulseWidth: 0.5,
		fmRatio:    1.0,
		noiseSR:    NOISE_LFSR_SEED,
	}
}

// Reset re-zeroes every phase accumulator and reseeds the noise register.
// Called on fresh (non-legato) note starts and hard resets.
func (o *Oscillator) Reset() {
	o.phase = 0
	o.subPhase = 0
	o.modPhase = 0
	o.noiseSR = NOISE_LFSR_SEED
}

// clockNoise advances the shift register one step and returns the new
// output in [-1,1]. Taps 22 and 17, 8-bit output path, per the SID layout.
func (o *Oscillator) clockNoise() float32 {
	bit := ((o.noiseSR >> 22) ^ (o.noiseSR >> 17)) & 1
	o.noiseSR = ((o.noiseSR << 1) | bit) & 0x7FFFFF
	return float32(o.noiseSR&0xFF)/127.5 - 1.0
}

// Process produces one sample of the full oscillator stack given the main
// phase increment for this sample. The sub runs at half the increment; the
// modulator at fmRatio times it. Returns main (post FM/ring/sync) plus the
// scaled sub.
func (o *Oscillator) Process(phaseInc float32) float32 {
	// FM/ring modulator, needed before the carrier when either is active.
	var mod float32
	if o.fmAmount > 0 || o.ringMod > 0 {
		mod = fastSinTurns(float64(o.modPhase))
		o.modPhase += phaseInc * o.fmRatio
		if o.modPhase >= 1.0 {
			o.modPhase -= 1.0
		}
	}

	// Carrier phase, optionally bent by the modulator (phase modulation).
	carrierPhase := o.phase
	if o.fmAmount > 0 {
		carrierPhase += mod * o.fmAmount
		carrierPhase -= float32(int(carrierPhase)) // wrap into [0,1)
		if carrierPhase < 0 {
			carrierPhase += 1.0
		}
	}

	var out float32
	switch o.waveform {
	case WAVE_SINE:
		out = fastSinTurns(float64(carrierPhase))
	case WAVE_TRIANGLE:
		out = 4.0*abs32(carrierPhase-0.5) - 1.0
	case WAVE_SAW:
		out = 2.0*carrierPhase - 1.0
		out -= polyBLEP32(carrierPhase, phaseInc)
	case WAVE_PULSE:
		if carrierPhase < o.pulseWidth {
			out = 1.0
		} else {
			out = -1.0
		}
		out += polyBLEP32(carrierPhase, phaseInc)
		t := carrierPhase + 1.0 - o.pulseWidth
		if t >= 1.0 {
			t -= 1.0
		}
		out -= polyBLEP32(t, phaseInc)
	case WAVE_NOISE:
		out = o.clockNoise()
	}

	// Ring modulation blends the dry carrier against carrier*modulator.
	if o.ringMod > 0 {
		out = out*(1.0-o.ringMod) + (out*mod)*o.ringMod
	}

	o.phase += phaseInc
	if o.phase >= 1.0 {
		o.phase -= 1.0
	}

	// Sub oscillator: square one octave down. Its wrap is also the hard
	// sync master edge for the main phase.
	subInc := phaseInc * 0.5
	var sub float32
	if o.subPhase < 0.5 {
		sub = 1.0
	} else {
		sub = -1.0
	}
	o.subPhase += subInc
	if o.subPhase >= 1.0 {
		o.subPhase -= 1.0
		if o.syncEnable {
			o.phase = 0
		}
	}

	return out + sub*o.subLevel
}

func abs32(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

func clamp32(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
