// voice.go - Single synthesizer voice: VCO -> VCF -> VCA with mod routing

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionSynth
License: GPLv3 or later
*/

package isynth

import "math"

// FilterType selects the voice filter topology. The voice dispatches on this
// tag once per sub-block and runs a tight per-sample loop; there is no
// interface call in the hot path.
type FilterType int

const (
	FILTER_SVF_LP FilterType = iota
	FILTER_SVF_BP
	FILTER_SVF_HP
	FILTER_LADDER
	FILTER_FORMANT
)

// ModSource selects what drives a modulation target. Which LFO MOD_LFO means
// is fixed per target: LFO1 for oscillator FM and the VCA, LFO2 for pulse
// width and the filter.
type ModSource int

const (
	MOD_OFF ModSource = iota
	MOD_LFO
	MOD_ENV
)

// TrackingMode selects filter keyboard tracking.
type TrackingMode int

const (
	TRACK_OFF TrackingMode = iota
	TRACK_HALF
	TRACK_FULL
)

// VoiceParams is one immutable snapshot of every voice control. The engine
// publishes a fresh copy from the control thread and pushes it into a voice
// right before noteOn and before each rendered chunk, so a block renders
// with exactly one parameter version and no hidden shared state.
type VoiceParams struct {
	// VCO
	Waveform   OscWaveform
	Tune       float32 // semitones, [-24, 24]
	Fine       float32 // cents, [-100, 100]
	PulseWidth float32 // [0.05, 0.95]
	SubLevel   float32 // [0, 1]
	SyncEnable bool
	FMAmount   float32 // [0, 1]
	FMRatio    float32 // [0.25, 8]
	RingMod    float32 // [0, 1]
	GlideTime  float32 // seconds, 0 disables
	MonoMode   bool

	// VCO modulation
	OscFMSource ModSource // LFO1 or ADSR
	OscFMAmount float32   // [0, 1], scaled to +/-24 semitones
	PWMSource   ModSource // LFO2 or ADSR
	PWMAmount   float32   // [0, 1], scaled by PWM_MOD_RANGE

	// VCF
	FilterType      FilterType
	Cutoff          float32 // Hz
	Resonance       float32 // [0, 1]
	Tracking        TrackingMode
	FilterModSource ModSource // LFO2 or ADSR
	FilterModAmount float32   // [-1, 1]; negative ADSR amount inverts the sweep
	Vowel           float32   // formant filter vowel position, 0-5
	FormantShift    float32   // semitones

	// VCA
	VCASource       ModSource // LFO1 tremolo or ADSR
	VCAInitialLevel float32   // drone level when the source is Off

	// ADSR
	Attack  float32
	Decay   float32
	Sustain float32
	Release float32

	// LFOs
	LFO1Rate     float32
	LFO1Waveform LFOWaveform
	LFO1Range    LFORange
	LFO2Rate     float32
	LFO2Waveform LFOWaveform
	LFO2Range    LFORange

	// Lo-fi stage (post filter)
	CrushBits  int     // 1-16, 16 disables
	RateReduce float32 // [0, 1], 0 disables

	// Output
	MasterLevel float32 // linear gain applied by the engine
}

// DefaultVoiceParams returns the power-on patch: plain saw into a half-open
// SVF lowpass with the ADSR on both filter and VCA.
func DefaultVoiceParams() VoiceParams {
	return VoiceParams{
		Waveform:        WAVE_SAW,
		PulseWidth:      0.5,
		FMRatio:         1.0,
		FilterType:      FILTER_SVF_LP,
		Cutoff:          5000,
		FilterModSource: MOD_ENV,
		FilterModAmount: 0.5,
		VCASource:       MOD_ENV,
		Attack:          0.01,
		Decay:           0.1,
		Sustain:         0.7,
		Release:         0.3,
		LFO1Rate:        0.5,
		LFO2Rate:        0.5,
		CrushBits:       16,
		MasterLevel:     DEFAULT_MASTER_LEVEL,
	}
}

// Voice is one playable note: oscillator stack, ADSR, two free-running LFOs,
// a selectable filter and the VCA, wired per the modulation routing in the
// applied VoiceParams. Voices are pool-owned; the engine is the only caller.
type Voice struct {
	// Lifecycle
	active    bool
	releasing bool
	note      int
	velocity  float32
	age       int

	sampleRate float32

	// Components
	osc     Oscillator
	env     Envelope
	lfo1    LFO
	lfo2    LFO
	svf     SVFilter
	ladder  LadderFilter
	formant FormantFilter

	// Applied parameter snapshot (routing and scalars the render loop reads)
	waveform        OscWaveform
	tune            float32
	fine            float32
	basePulseWidth  float32
	glideTime       float32
	monoMode        bool
	oscFMSource     ModSource
	oscFMAmount     float32
	pwmSource       ModSource
	pwmAmount       float32
	filterType      FilterType
	cutoff          float32
	resonance       float32
	tracking        TrackingMode
	filterModSource ModSource
	filterModAmount float32
	vcaSource       ModSource
	vcaInitialLevel float32

	// Pitch state
	baseFreq      float32
	currentFreq   float32
	glideStart    float32
	glideTarget   float32
	glideProgress float32
	bendRatio     float32

	// Modulation state carried across samples so the sub-block boundary can
	// compute filter coefficients from the latest source values.
	lastLFO2 float32

	// Lo-fi stage
	crushBits         int
	crushHalfLevels   float32
	sampleHoldPeriod  int
	sampleHoldCounter int
	heldSample        float32
}

// NewVoice returns an idle voice prepared for the given sample rate.
func NewVoice(sampleRate float32) *Voice {
	v := &Voice{
		note:       -1,
		sampleRate: sampleRate,
		osc:        NewOscillator(),
		env:        NewEnvelope(sampleRate),
		lfo1:       NewLFO(sampleRate),
		lfo2:       NewLFO(sampleRate),
		svf:        NewSVFilter(sampleRate),
		ladder:     NewLadderFilter(sampleRate),
		formant:    NewFormantFilter(sampleRate),
		bendRatio:  1.0,
	}
	v.ApplyParams(DefaultVoiceParams())
	return v
}

// ApplyParams pushes a parameter snapshot into the voice. Called by the
// engine before noteOn and before each rendered chunk.
func (v *Voice) ApplyParams(p VoiceParams) {
	v.waveform = p.Waveform
	v.osc.waveform = p.Waveform
	v.tune = p.Tune
	v.fine = p.Fine
	v.basePulseWidth = clamp32(p.PulseWidth, MIN_PULSE_WIDTH, MAX_PULSE_WIDTH)
	v.osc.subLevel = clamp32(p.SubLevel, 0, 1)
	v.osc.syncEnable = p.SyncEnable
	v.osc.fmAmount = clamp32(p.FMAmount, 0, 1)
	v.osc.fmRatio = clamp32(p.FMRatio, MIN_FM_RATIO, MAX_FM_RATIO)
	v.osc.ringMod = clamp32(p.RingMod, 0, 1)
	v.glideTime = p.GlideTime
	v.monoMode = p.MonoMode

	v.oscFMSource = p.OscFMSource
	v.oscFMAmount = clamp32(p.OscFMAmount, 0, 1)
	v.pwmSource = p.PWMSource
	v.pwmAmount = clamp32(p.PWMAmount, 0, 1)

	v.filterType = p.FilterType
	v.cutoff = clamp32(p.Cutoff, MIN_FILTER_CUTOFF, MAX_FILTER_CUTOFF)
	v.resonance = clamp32(p.Resonance, 0, 1)
	v.tracking = p.Tracking
	v.filterModSource = p.FilterModSource
	v.filterModAmount = clamp32(p.FilterModAmount, -1, 1)
	v.formant.SetVowel(p.Vowel)
	v.formant.SetShift(p.FormantShift)

	v.vcaSource = p.VCASource
	v.vcaInitialLevel = clamp32(p.VCAInitialLevel, 0, 1)

	v.env.SetAttack(p.Attack)
	v.env.SetDecay(p.Decay)
	v.env.SetSustain(p.Sustain)
	v.env.SetRelease(p.Release)

	v.lfo1.SetRate(p.LFO1Rate)
	v.lfo1.SetWaveform(p.LFO1Waveform)
	v.lfo1.SetRange(p.LFO1Range)
	v.lfo2.SetRate(p.LFO2Rate)
	v.lfo2.SetWaveform(p.LFO2Waveform)
	v.lfo2.SetRange(p.LFO2Range)

	v.setCrushBits(p.CrushBits)
	v.setRateReduce(p.RateReduce)
}

func (v *Voice) setCrushBits(bits int) {
	if bits < 1 {
		bits = 1
	} else if bits > 16 {
		bits = 16
	}
	v.crushBits = bits
	v.crushHalfLevels = float32(math.Pow(2, float64(bits))) / 2.0
}

func (v *Voice) setRateReduce(red float32) {
	red = clamp32(red, 0, 1)
	if red <= 0 {
		v.sampleHoldPeriod = 1
		return
	}
	targetRate := 4000.0 + (1.0-red)*(v.sampleRate-4000.0)
	period := int(v.sampleRate / targetRate)
	if period < 1 {
		period = 1
	}
	v.sampleHoldPeriod = period
}

// NoteOn starts or re-articulates a note. Legato (mono-mode re-articulation
// on an already sounding voice) changes pitch only: no envelope retrigger,
// no phase or filter reset. A fresh start resets oscillator phase and filter
// state but lets the envelope attack from its current level, which is the
// anti-click invariant the whole engine leans on.
func (v *Voice) NoteOn(note int, velocity float32, legato bool) {
	v.note = note
	v.velocity = clamp32(velocity, 0, 1)
	v.releasing = false
	v.age = 0

	target := float32(noteToFreq(note))

	if v.glideTime > MIN_ENV_TIME && v.baseFreq > 0 {
		if v.currentFreq > 0 {
			v.glideStart = v.currentFreq
		} else {
			v.glideStart = target
		}
		v.glideTarget = target
		v.glideProgress = 0
	} else {
		v.glideStart = target
		v.glideTarget = target
		v.glideProgress = 1.0
		v.currentFreq = target
	}
	v.baseFreq = target

	if legato && v.monoMode && v.active {
		stage := v.env.Stage()
		if stage != ENV_RELEASE && stage != ENV_IDLE {
			// Pitch change only.
			return
		}
		// Re-attack from the current level, nothing else resets.
		v.env.Trigger()
		v.releasing = false
		return
	}

	v.active = true
	v.osc.Reset()
	v.env.Trigger()
	v.resetFilter()
	v.sampleHoldCounter = 0
	v.heldSample = 0
}

// NoteOff starts the release phase.
func (v *Voice) NoteOff() {
	v.releasing = true
	v.env.Release()
}

// Kill hard-stops the voice regardless of envelope stage. Idempotent.
func (v *Voice) Kill() {
	v.active = false
	v.releasing = false
	v.note = -1
	v.env.Kill()
}

// SetPitchBend retunes the voice by the given semitone offset.
func (v *Voice) SetPitchBend(semitones float32) {
	v.bendRatio = float32(math.Pow(2, float64(semitones)/12.0))
}

// IsActive reports whether the voice is sounding.
func (v *Voice) IsActive() bool { return v.active }

// IsReleasing reports whether the voice is in its release tail.
func (v *Voice) IsReleasing() bool { return v.releasing }

// Note returns the current MIDI note, -1 when idle.
func (v *Voice) Note() int { return v.note }

// Velocity returns the note-on velocity.
func (v *Voice) Velocity() float32 { return v.velocity }

// Age returns the steal-ordering counter. It increments once per Render.
func (v *Voice) Age() int { return v.age }

func (v *Voice) resetFilter() {
	v.svf.Reset()
	v.ladder.Reset()
	v.formant.Reset()
}

// Render accumulates numSamples of the voice into both channels, processing
// in VOICE_BLOCK_SIZE sub-blocks so filter coefficients are recomputed at
// control rate rather than per sample. If the envelope hits Idle mid-block
// the voice deactivates and stops writing.
func (v *Voice) Render(outL, outR []float32, numSamples int) {
	if !v.active {
		return
	}
	v.age++

	offset := 0
	for remaining := numSamples; remaining > 0; {
		n := remaining
		if n > VOICE_BLOCK_SIZE {
			n = VOICE_BLOCK_SIZE
		}
		if !v.renderSubBlock(outL[offset:offset+n], outR[offset:offset+n]) {
			return
		}
		offset += n
		remaining -= n
	}
}

// renderSubBlock renders one control-rate block. Returns false when the
// voice went inactive.
func (v *Voice) renderSubBlock(outL, outR []float32) bool {
	// Control-rate work: resolve the filter's modulated cutoff from the
	// most recent source values and recompute coefficients once.
	var trackingMod float32
	switch v.tracking {
	case TRACK_HALF:
		trackingMod = float32(v.note-KEY_TRACK_CENTER) * KEY_TRACK_HALF_HZ
	case TRACK_FULL:
		trackingMod = float32(v.note-KEY_TRACK_CENTER) * KEY_TRACK_FULL_HZ
	}

	var filterMod float32
	switch v.filterModSource {
	case MOD_LFO:
		filterMod = v.lastLFO2 * v.filterModAmount * FILTER_LFO_RANGE_HZ
	case MOD_ENV:
		if v.filterModAmount >= 0 {
			filterMod = v.env.Level() * v.filterModAmount * FILTER_ENV_RANGE_HZ
		} else {
			// Negative amount inverts the sweep.
			filterMod = abs32(v.filterModAmount) * (1.0 - v.env.Level()) * FILTER_ENV_RANGE_HZ
		}
	}

	finalCutoff := clamp32(v.cutoff+trackingMod+filterMod, MIN_FILTER_CUTOFF, MAX_FILTER_CUTOFF)

	switch v.filterType {
	case FILTER_LADDER:
		v.ladder.SetCutoff(finalCutoff)
		v.ladder.SetResonance(v.resonance)
	case FILTER_FORMANT:
		v.formant.UpdateCoefficients()
	default:
		v.svf.SetCutoff(finalCutoff)
		v.svf.SetResonance(v.resonance)
	}

	glideInc := float32(0)
	if v.glideTime > MIN_ENV_TIME {
		glideInc = 1.0 / (v.glideTime * v.sampleRate)
	}

	for i := range outL {
		lfo1Out := v.lfo1.Process()
		lfo2Out := v.lfo2.Process()
		v.lastLFO2 = lfo2Out

		envOut := v.env.Process()
		if envOut <= 0 && v.env.Stage() == ENV_IDLE {
			v.active = false
			v.note = -1
			return false
		}

		// Glide: exponential sweep from the previous pitch.
		if v.glideProgress < 1.0 && glideInc > 0 {
			v.glideProgress += glideInc
			if v.glideProgress > 1.0 {
				v.glideProgress = 1.0
			}
			v.currentFreq = v.glideStart * float32(math.Pow(float64(v.glideTarget/v.glideStart), float64(v.glideProgress)))
		} else {
			v.currentFreq = v.glideTarget
		}

		// Oscillator frequency modulation, +/-24 semitones at full amount.
		var fmMod float32
		switch v.oscFMSource {
		case MOD_LFO:
			fmMod = lfo1Out * v.oscFMAmount
		case MOD_ENV:
			fmMod = envOut * v.oscFMAmount
		}

		semis := v.tune + v.fine/100.0 + fmMod*OSC_FM_RANGE_SEMIS
		tunedFreq := v.currentFreq * v.bendRatio * float32(math.Pow(2, float64(semis)/12.0))
		phaseInc := tunedFreq / v.sampleRate

		// Pulse width modulation.
		pw := v.basePulseWidth
		switch v.pwmSource {
		case MOD_LFO:
			pw += lfo2Out * v.pwmAmount * PWM_MOD_RANGE
		case MOD_ENV:
			pw += envOut * v.pwmAmount * PWM_MOD_RANGE
		}
		v.osc.pulseWidth = clamp32(pw, MIN_PULSE_WIDTH, MAX_PULSE_WIDTH)

		mix := v.osc.Process(phaseInc)

		var filtered float32
		switch v.filterType {
		case FILTER_SVF_LP:
			filtered = v.svf.Process(mix, SVF_LOWPASS)
		case FILTER_SVF_BP:
			filtered = v.svf.Process(mix, SVF_BANDPASS)
		case FILTER_SVF_HP:
			filtered = v.svf.Process(mix, SVF_HIGHPASS)
		case FILTER_LADDER:
			filtered = v.ladder.Process(mix)
		case FILTER_FORMANT:
			filtered = v.formant.Process(mix)
		}

		// Lo-fi stage: sample-and-hold rate reduction, then bit crush.
		if v.sampleHoldPeriod > 1 {
			v.sampleHoldCounter++
			if v.sampleHoldCounter >= v.sampleHoldPeriod {
				v.sampleHoldCounter = 0
				v.heldSample = filtered
			}
			filtered = v.heldSample
		}
		if v.crushBits < 16 {
			q := float32(math.Round(float64((filtered+1.0)*v.crushHalfLevels))) / v.crushHalfLevels
			filtered = clamp32(q-1.0, MIN_SAMPLE, MAX_SAMPLE)
		}

		// VCA.
		vcaGain := v.vcaInitialLevel
		switch v.vcaSource {
		case MOD_LFO:
			// Tremolo: LFO scaled to unipolar.
			vcaGain = 0.5 + 0.5*lfo1Out
		case MOD_ENV:
			vcaGain = envOut
		}

		out := filtered * vcaGain * v.velocity
		outL[i] += out
		outR[i] += out
	}
	return true
}

// Reset returns the voice to its power-on state: killed, phases zeroed,
// filter state cleared, pitch bend neutral. The only path that re-zeroes
// LFO phase.
func (v *Voice) Reset() {
	v.Kill()
	v.osc.Reset()
	v.lfo1.Reset()
	v.lfo2.Reset()
	v.resetFilter()
	v.baseFreq = 0
	v.currentFreq = 0
	v.glideProgress = 1.0
	v.bendRatio = 1.0
	v.lastLFO2 = 0
	v.sampleHoldCounter = 0
	v.heldSample = 0
	v.age = 0
}
