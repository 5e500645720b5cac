// drum_voice.go - One-shot FM percussion voices and the four-slot drum kit

package isynth

import (
	"math"
	"sync"
)

// General MIDI note assignments for the drum slots.
const (
	DRUM_NOTE_KICK       = 36
	DRUM_NOTE_SNARE      = 38
	DRUM_NOTE_HAT_CLOSED = 42
	DRUM_NOTE_HAT_OPEN   = 46
	DRUM_NOTE_PERC       = 49
)

// DrumVoice is a single one-shot FM percussion generator: a sine modulator
// feeding a sine carrier, with exponential pitch and amplitude decays and an
// optional noise mix. Triggering always restarts from the top; there is no
// note-off and no stealing.
type DrumVoice struct {
	sampleRate    float32
	sampleRateInv float32

	active   bool
	velocity float32

	phase    float32
	modPhase float32
	noiseSR  uint32

	pitchEnv       float32
	ampEnv         float32
	pitchDecayCoef float32
	ampDecayCoef   float32

	// Parameters
	carrierFreq    float32 // Hz
	modRatio       float32
	modDepth       float32 // 0-1, scaled to FM index 0-6
	pitchDecayTime float32 // seconds
	pitchAmount    float32 // 0-1, up to 4x frequency at trigger
	ampDecayTime   float32 // seconds
	noiseAmount    float32 // 0-1
	level          float32
}

// NewDrumVoice returns a drum voice with neutral tom-like defaults.
func NewDrumVoice(sampleRate float32) *DrumVoice {
	return &DrumVoice{
		sampleRate:     sampleRate,
		sampleRateInv:  1.0 / sampleRate,
		noiseSR:        NOISE_LFSR_SEED,
		carrierFreq:    60,
		modRatio:       1,
		modDepth:       0.5,
		pitchDecayTime: 0.05,
		pitchAmount:    0.8,
		ampDecayTime:   0.4,
		level:          0.8,
	}
}

// Trigger starts (or restarts) the voice at the given velocity.
func (d *DrumVoice) Trigger(velocity float32) {
	d.velocity = velocity
	d.active = true
	d.phase = 0
	d.modPhase = 0
	d.pitchEnv = 1
	d.ampEnv = 1
	d.pitchDecayCoef = float32(math.Exp(-1.0 / float64(d.pitchDecayTime*d.sampleRate)))
	d.ampDecayCoef = float32(math.Exp(-1.0 / float64(d.ampDecayTime*d.sampleRate)))
}

func (d *DrumVoice) IsActive() bool { return d.active }

// clockNoise steps the 23-bit LFSR and maps the low byte to [-1, 1].
func (d *DrumVoice) clockNoise() float32 {
	bit := ((d.noiseSR >> 22) ^ (d.noiseSR >> 17)) & 1
	d.noiseSR = ((d.noiseSR << 1) | bit) & 0x7FFFFF
	return float32(d.noiseSR&0xFF)/127.5 - 1.0
}

// Render accumulates the voice into both channels until it finishes or the
// block ends.
func (d *DrumVoice) Render(outL, outR []float32, numSamples int) {
	if !d.active {
		return
	}

	for i := 0; i < numSamples; i++ {
		d.pitchEnv *= d.pitchDecayCoef
		d.ampEnv *= d.ampDecayCoef

		if d.ampEnv < DRUM_AMP_FLOOR {
			d.active = false
			return
		}

		// Pitch envelope sweeps the carrier down toward its base frequency.
		pitchMod := 1.0 + d.pitchAmount*d.pitchEnv*4.0
		currentFreq := d.carrierFreq * pitchMod
		phaseInc := currentFreq * d.sampleRateInv
		modPhaseInc := currentFreq * d.modRatio * d.sampleRateInv

		modulator := fastSinTurns(float64(d.modPhase))
		d.modPhase += modPhaseInc
		if d.modPhase >= 1.0 {
			d.modPhase -= 1.0
		}

		// Phase modulation in radians: the index scales the modulator
		// directly, and fastSin wraps the negative excursions.
		fmIndex := d.modDepth * 6.0
		carrier := fastSin(d.phase*TWO_PI + modulator*fmIndex)
		d.phase += phaseInc
		if d.phase >= 1.0 {
			d.phase -= 1.0
		}

		var noise float32
		if d.noiseAmount > 0 {
			noise = d.clockNoise() * d.noiseAmount
		}

		out := (carrier*(1.0-d.noiseAmount) + noise) * d.ampEnv * d.velocity * d.level
		out = fastTanh(out * 1.5)

		outL[i] += out
		outR[i] += out
	}
}

// Parameter setters. Decay times arrive in milliseconds to match the usual
// drum-machine control surface.

func (d *DrumVoice) SetCarrierFreq(hz float32) { d.carrierFreq = clamp32(hz, 20, 2000) }
func (d *DrumVoice) SetModRatio(ratio float32) { d.modRatio = clamp32(ratio, 0.1, 16) }
func (d *DrumVoice) SetModDepth(depth float32) { d.modDepth = clamp32(depth, 0, 1) }
func (d *DrumVoice) SetPitchDecay(ms float32)  { d.pitchDecayTime = clamp32(ms, 1, 1000) * 0.001 }
func (d *DrumVoice) SetPitchAmount(amt float32) {
	d.pitchAmount = clamp32(amt, 0, 1)
}
func (d *DrumVoice) SetAmpDecay(ms float32)      { d.ampDecayTime = clamp32(ms, 1, 4000) * 0.001 }
func (d *DrumVoice) SetNoiseAmount(amt float32)  { d.noiseAmount = clamp32(amt, 0, 1) }
func (d *DrumVoice) SetLevel(level float32)      { d.level = clamp32(level, 0, 1) }

// DrumKit maps notes onto four drum voices. Kick, snare and hats have
// dedicated slots; every other note lands on the percussion slot. The kit
// renders standalone through the same output stack as the voice engine.
type DrumKit struct {
	mutex sync.Mutex

	kick  *DrumVoice
	snare *DrumVoice
	hat   *DrumVoice
	perc  *DrumVoice

	masterLevel float32
}

// NewDrumKit builds a kit at the given sample rate with each slot tuned to
// its role.
func NewDrumKit(sampleRate int) *DrumKit {
	if sampleRate < MIN_SAMPLE_RATE {
		sampleRate = MIN_SAMPLE_RATE
	} else if sampleRate > MAX_SAMPLE_RATE {
		sampleRate = MAX_SAMPLE_RATE
	}
	sr := float32(sampleRate)

	k := &DrumKit{
		kick:        NewDrumVoice(sr),
		snare:       NewDrumVoice(sr),
		hat:         NewDrumVoice(sr),
		perc:        NewDrumVoice(sr),
		masterLevel: DEFAULT_MASTER_LEVEL,
	}

	// Kick: low sine thump, deep pitch sweep, no noise.
	k.kick.SetCarrierFreq(55)
	k.kick.SetModDepth(0.3)
	k.kick.SetPitchDecay(60)
	k.kick.SetPitchAmount(0.9)
	k.kick.SetAmpDecay(400)

	// Snare: mid tone with a strong noise body.
	k.snare.SetCarrierFreq(180)
	k.snare.SetModRatio(1.5)
	k.snare.SetModDepth(0.4)
	k.snare.SetPitchDecay(40)
	k.snare.SetPitchAmount(0.5)
	k.snare.SetAmpDecay(180)
	k.snare.SetNoiseAmount(0.6)

	// Hat: inharmonic FM ring, mostly noise, short.
	k.hat.SetCarrierFreq(800)
	k.hat.SetModRatio(5.3)
	k.hat.SetModDepth(0.8)
	k.hat.SetPitchAmount(0)
	k.hat.SetAmpDecay(80)
	k.hat.SetNoiseAmount(0.8)

	// Perc: clicky mid-range FM hit.
	k.perc.SetCarrierFreq(220)
	k.perc.SetModRatio(2)
	k.perc.SetModDepth(0.6)
	k.perc.SetPitchDecay(30)
	k.perc.SetPitchAmount(0.6)
	k.perc.SetAmpDecay(250)

	return k
}

// NoteOn triggers the drum slot mapped to the note. Drums are one-shot;
// there is no matching NoteOff.
func (k *DrumKit) NoteOn(note int, velocity float32, sampleOffset int) {
	_ = sampleOffset
	if velocity <= 0 {
		return
	}

	k.mutex.Lock()
	defer k.mutex.Unlock()

	switch note {
	case DRUM_NOTE_KICK:
		k.kick.Trigger(velocity)
	case DRUM_NOTE_SNARE:
		k.snare.Trigger(velocity)
	case DRUM_NOTE_HAT_CLOSED, DRUM_NOTE_HAT_OPEN:
		k.hat.Trigger(velocity)
	default:
		k.perc.Trigger(velocity)
	}
}

// SetMasterLevel sets the kit output gain.
func (k *DrumKit) SetMasterLevel(level float32) {
	k.mutex.Lock()
	k.masterLevel = clamp32(level, 0, 2)
	k.mutex.Unlock()
}

// Per-slot access for preset editing.
func (k *DrumKit) Kick() *DrumVoice  { return k.kick }
func (k *DrumKit) Snare() *DrumVoice { return k.snare }
func (k *DrumKit) Hat() *DrumVoice   { return k.hat }
func (k *DrumKit) Perc() *DrumVoice  { return k.perc }

// ActiveVoiceCount returns the number of drum slots still decaying.
func (k *DrumKit) ActiveVoiceCount() int {
	k.mutex.Lock()
	defer k.mutex.Unlock()

	count := 0
	for _, d := range []*DrumVoice{k.kick, k.snare, k.hat, k.perc} {
		if d.IsActive() {
			count++
		}
	}
	return count
}

// Render clears the region and mixes all four slots into it.
func (k *DrumKit) Render(left, right []float32) {
	n := len(left)
	if len(right) < n {
		n = len(right)
	}

	k.mutex.Lock()
	defer k.mutex.Unlock()

	for i := 0; i < n; i++ {
		left[i] = 0
		right[i] = 0
	}

	k.kick.Render(left, right, n)
	k.snare.Render(left, right, n)
	k.hat.Render(left, right, n)
	k.perc.Render(left, right, n)

	for i := 0; i < n; i++ {
		left[i] *= k.masterLevel
		right[i] *= k.masterLevel
	}
}
