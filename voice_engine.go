// voice_engine.go - Polyphonic voice pool: allocation, stealing, block render

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

import (
	"math"
	"sync"
	"sync/atomic"
)

// VoiceEngine owns a fixed pool of voices and turns note events into voice
// assignments. Parameter changes arrive from a control thread through an
// atomic snapshot pointer; the render path loads the snapshot once per
// RENDER_BLOCK_SIZE chunk and never takes the control-side lock.
//
// Note events and Render are audio-side calls. They are additionally
// serialized by the engine mutex so pull-model backends running on their
// own goroutine stay safe alongside a host thread posting events.
type VoiceEngine struct {
	mutex sync.Mutex // Serializes note events and Render

	sampleRate int
	voices     []*Voice

	// Control-side parameter staging. Setters edit pending under pmu and
	// publish an immutable copy; the audio side only ever loads params.
	pmu     sync.Mutex
	pending VoiceParams
	params  atomic.Pointer[VoiceParams]

	// Mix scratch, sized once, never grown in the render path.
	mixL [RENDER_BLOCK_SIZE]float32
	mixR [RENDER_BLOCK_SIZE]float32

	bendSemis float32

	// Mono-mode held-note memory. The write index wraps at the stack cap.
	heldNotes [MONO_STACK_MAX]int
	numHeld   int
}

// NewVoiceEngine constructs an engine with numVoices polyphony (clamped to
// [1, MAX_VOICES]) at the given sample rate (clamped to the supported
// range). All buffers and voices are allocated here; the render path never
// allocates.
func NewVoiceEngine(sampleRate, numVoices int) *VoiceEngine {
	if sampleRate < MIN_SAMPLE_RATE {
		sampleRate = MIN_SAMPLE_RATE
	} else if sampleRate > MAX_SAMPLE_RATE {
		sampleRate = MAX_SAMPLE_RATE
	}
	if numVoices < 1 {
		numVoices = 1
	} else if numVoices > MAX_VOICES {
		numVoices = MAX_VOICES
	}

	e := &VoiceEngine{sampleRate: sampleRate}
	e.voices = make([]*Voice, numVoices)
	for i := range e.voices {
		e.voices[i] = NewVoice(float32(sampleRate))
	}
	e.pending = DefaultVoiceParams()
	e.publishLocked()
	return e
}

// SampleRate returns the operating sample rate.
func (e *VoiceEngine) SampleRate() int { return e.sampleRate }

// NumVoices returns the pool size.
func (e *VoiceEngine) NumVoices() int { return len(e.voices) }

// publishLocked stores a fresh snapshot of pending. Callers hold pmu (or
// are the constructor, before the engine escapes).
func (e *VoiceEngine) publishLocked() {
	snap := e.pending
	e.params.Store(&snap)
}

// SetParams replaces the whole parameter set at once.
func (e *VoiceEngine) SetParams(p VoiceParams) {
	e.pmu.Lock()
	monoChanged := p.MonoMode != e.pending.MonoMode
	e.pending = p
	e.publishLocked()
	e.pmu.Unlock()
	if monoChanged {
		e.AllSoundOff()
	}
}

// Params returns the currently published snapshot.
func (e *VoiceEngine) Params() VoiceParams {
	return *e.params.Load()
}

// edit runs one mutation on the pending parameter set and publishes.
func (e *VoiceEngine) edit(f func(p *VoiceParams)) {
	e.pmu.Lock()
	f(&e.pending)
	e.publishLocked()
	e.pmu.Unlock()
}

// VCO setters

func (e *VoiceEngine) SetWaveform(wf OscWaveform) {
	if wf < WAVE_SINE || wf > WAVE_NOISE {
		wf = WAVE_SAW
	}
	e.edit(func(p *VoiceParams) { p.Waveform = wf })
}

func (e *VoiceEngine) SetTune(semitones float32) {
	e.edit(func(p *VoiceParams) { p.Tune = clamp32(semitones, -24, 24) })
}

func (e *VoiceEngine) SetFine(cents float32) {
	e.edit(func(p *VoiceParams) { p.Fine = clamp32(cents, -100, 100) })
}

func (e *VoiceEngine) SetPulseWidth(pw float32) {
	e.edit(func(p *VoiceParams) { p.PulseWidth = clamp32(pw, MIN_PULSE_WIDTH, MAX_PULSE_WIDTH) })
}

func (e *VoiceEngine) SetSubLevel(level float32) {
	e.edit(func(p *VoiceParams) { p.SubLevel = clamp32(level, 0, 1) })
}

func (e *VoiceEngine) SetSyncEnable(on bool) {
	e.edit(func(p *VoiceParams) { p.SyncEnable = on })
}

func (e *VoiceEngine) SetFMAmount(amt float32) {
	e.edit(func(p *VoiceParams) { p.FMAmount = clamp32(amt, 0, 1) })
}

func (e *VoiceEngine) SetFMRatio(ratio float32) {
	e.edit(func(p *VoiceParams) { p.FMRatio = clamp32(ratio, MIN_FM_RATIO, MAX_FM_RATIO) })
}

func (e *VoiceEngine) SetRingMod(amt float32) {
	e.edit(func(p *VoiceParams) { p.RingMod = clamp32(amt, 0, 1) })
}

func (e *VoiceEngine) SetGlideTime(seconds float32) {
	if seconds < 0 {
		seconds = 0
	}
	e.edit(func(p *VoiceParams) { p.GlideTime = seconds })
}

// SetMonoMode switches between poly and mono. The switch itself kills every
// voice and clears the held-note stack so no legato state leaks across.
func (e *VoiceEngine) SetMonoMode(mono bool) {
	var changed bool
	e.pmu.Lock()
	if e.pending.MonoMode != mono {
		e.pending.MonoMode = mono
		e.publishLocked()
		changed = true
	}
	e.pmu.Unlock()
	if changed {
		e.AllSoundOff()
	}
}

func (e *VoiceEngine) SetOscFMSource(src ModSource) {
	e.edit(func(p *VoiceParams) { p.OscFMSource = src })
}

func (e *VoiceEngine) SetOscFMAmount(amt float32) {
	e.edit(func(p *VoiceParams) { p.OscFMAmount = clamp32(amt, 0, 1) })
}

func (e *VoiceEngine) SetPWMSource(src ModSource) {
	e.edit(func(p *VoiceParams) { p.PWMSource = src })
}

func (e *VoiceEngine) SetPWMAmount(amt float32) {
	e.edit(func(p *VoiceParams) { p.PWMAmount = clamp32(amt, 0, 1) })
}

// VCF setters

func (e *VoiceEngine) SetFilterType(ft FilterType) {
	if ft < FILTER_SVF_LP || ft > FILTER_FORMANT {
		ft = FILTER_SVF_LP
	}
	e.edit(func(p *VoiceParams) { p.FilterType = ft })
}

func (e *VoiceEngine) SetFilterCutoff(hz float32) {
	e.edit(func(p *VoiceParams) { p.Cutoff = clamp32(hz, MIN_FILTER_CUTOFF, MAX_FILTER_CUTOFF) })
}

func (e *VoiceEngine) SetFilterResonance(res float32) {
	e.edit(func(p *VoiceParams) { p.Resonance = clamp32(res, 0, 1) })
}

func (e *VoiceEngine) SetFilterTracking(mode TrackingMode) {
	e.edit(func(p *VoiceParams) { p.Tracking = mode })
}

func (e *VoiceEngine) SetFilterModSource(src ModSource) {
	e.edit(func(p *VoiceParams) { p.FilterModSource = src })
}

// SetFilterModAmount accepts negative amounts: with the ADSR as source a
// negative amount inverts the sweep.
func (e *VoiceEngine) SetFilterModAmount(amt float32) {
	e.edit(func(p *VoiceParams) { p.FilterModAmount = clamp32(amt, -1, 1) })
}

func (e *VoiceEngine) SetVowel(pos float32) {
	e.edit(func(p *VoiceParams) { p.Vowel = pos })
}

func (e *VoiceEngine) SetFormantShift(semitones float32) {
	e.edit(func(p *VoiceParams) { p.FormantShift = clamp32(semitones, -24, 24) })
}

// VCA setters

func (e *VoiceEngine) SetVCASource(src ModSource) {
	e.edit(func(p *VoiceParams) { p.VCASource = src })
}

func (e *VoiceEngine) SetVCAInitialLevel(level float32) {
	e.edit(func(p *VoiceParams) { p.VCAInitialLevel = clamp32(level, 0, 1) })
}

// ADSR setters

func (e *VoiceEngine) SetAttack(seconds float32) {
	e.edit(func(p *VoiceParams) { p.Attack = clamp32(seconds, MIN_ENV_TIME, MAX_ENV_TIME) })
}

func (e *VoiceEngine) SetDecay(seconds float32) {
	e.edit(func(p *VoiceParams) { p.Decay = clamp32(seconds, MIN_ENV_TIME, MAX_ENV_TIME) })
}

func (e *VoiceEngine) SetSustain(level float32) {
	e.edit(func(p *VoiceParams) { p.Sustain = clamp32(level, 0, 1) })
}

func (e *VoiceEngine) SetRelease(seconds float32) {
	e.edit(func(p *VoiceParams) { p.Release = clamp32(seconds, MIN_ENV_TIME, MAX_ENV_TIME) })
}

// LFO setters

func (e *VoiceEngine) SetLFO1Rate(norm float32) {
	e.edit(func(p *VoiceParams) { p.LFO1Rate = clamp32(norm, 0, 1) })
}

func (e *VoiceEngine) SetLFO1Waveform(wf LFOWaveform) {
	e.edit(func(p *VoiceParams) { p.LFO1Waveform = wf })
}

func (e *VoiceEngine) SetLFO1Range(r LFORange) {
	e.edit(func(p *VoiceParams) { p.LFO1Range = r })
}

func (e *VoiceEngine) SetLFO2Rate(norm float32) {
	e.edit(func(p *VoiceParams) { p.LFO2Rate = clamp32(norm, 0, 1) })
}

func (e *VoiceEngine) SetLFO2Waveform(wf LFOWaveform) {
	e.edit(func(p *VoiceParams) { p.LFO2Waveform = wf })
}

func (e *VoiceEngine) SetLFO2Range(r LFORange) {
	e.edit(func(p *VoiceParams) { p.LFO2Range = r })
}

// Lo-fi setters

func (e *VoiceEngine) SetCrushBits(bits int) {
	if bits < 1 {
		bits = 1
	} else if bits > 16 {
		bits = 16
	}
	e.edit(func(p *VoiceParams) { p.CrushBits = bits })
}

func (e *VoiceEngine) SetRateReduce(red float32) {
	e.edit(func(p *VoiceParams) { p.RateReduce = clamp32(red, 0, 1) })
}

// Output setters

// SetMasterLevel sets the output gain as a plain linear factor.
func (e *VoiceEngine) SetMasterLevel(linear float32) {
	e.edit(func(p *VoiceParams) { p.MasterLevel = clamp32(linear, 0, 2) })
}

// SetMasterVolumeDB sets the output gain in decibels, clamped to
// [MIN_MASTER_DB, MAX_MASTER_DB].
func (e *VoiceEngine) SetMasterVolumeDB(db float32) {
	db = clamp32(db, MIN_MASTER_DB, MAX_MASTER_DB)
	gain := float32(math.Pow(10, float64(db)/20.0))
	e.edit(func(p *VoiceParams) { p.MasterLevel = gain })
}

// NoteOn dispatches a note-on event. sampleOffset is accepted for interface
// compatibility but events take effect at the start of the next rendered
// block. Velocity at or below zero is treated as a note-off.
func (e *VoiceEngine) NoteOn(note int, velocity float32, sampleOffset int) {
	_ = sampleOffset

	if velocity <= 0 {
		e.NoteOff(note)
		return
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()

	p := e.params.Load()

	if p.MonoMode {
		// Mono: always voice 0, legato whenever a note is already held.
		isLegato := e.numHeld > 0
		e.heldNotes[e.numHeld%MONO_STACK_MAX] = note
		e.numHeld++
		v := e.voices[0]
		v.ApplyParams(*p)
		v.SetPitchBend(e.bendSemis)
		v.NoteOn(note, velocity, isLegato)
		return
	}

	v := e.findFreeVoice()
	v.ApplyParams(*p)
	v.SetPitchBend(e.bendSemis)
	v.NoteOn(note, velocity, false)
}

// findFreeVoice implements the three-tier steal policy: first inactive
// voice, else the oldest releasing voice, else the oldest playing voice.
// Age ties break on the lowest index. Callers hold the engine mutex.
func (e *VoiceEngine) findFreeVoice() *Voice {
	for _, v := range e.voices {
		if !v.IsActive() {
			return v
		}
	}

	var oldest *Voice
	oldestAge := -1
	for _, v := range e.voices {
		if v.IsReleasing() && v.Age() > oldestAge {
			oldest = v
			oldestAge = v.Age()
		}
	}
	if oldest != nil {
		oldest.Kill()
		return oldest
	}

	for _, v := range e.voices {
		if v.Age() > oldestAge {
			oldest = v
			oldestAge = v.Age()
		}
	}
	oldest.Kill()
	return oldest
}

// NoteOff dispatches a note-off. In poly mode every active, not yet
// releasing voice holding the note is released; a note retriggered onto
// several voices releases them all. In mono mode the note is popped from the
// held-note stack and the previous held note re-articulates legato.
func (e *VoiceEngine) NoteOff(note int) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	p := e.params.Load()

	if p.MonoMode {
		held := e.numHeld
		if held > MONO_STACK_MAX {
			held = MONO_STACK_MAX
		}
		for i := 0; i < held; i++ {
			if e.heldNotes[i] == note {
				copy(e.heldNotes[i:held-1], e.heldNotes[i+1:held])
				e.numHeld = held - 1
				held--
				break
			}
		}
		if held > 0 {
			v := e.voices[0]
			last := e.heldNotes[held-1]
			v.ApplyParams(*p)
			v.NoteOn(last, v.Velocity(), true)
		} else {
			e.voices[0].NoteOff()
		}
		return
	}

	for _, v := range e.voices {
		if v.IsActive() && v.Note() == note && !v.IsReleasing() {
			v.NoteOff()
		}
	}
}

// AllNotesOff releases every sounding voice; tails ring out.
func (e *VoiceEngine) AllNotesOff() {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.numHeld = 0
	for _, v := range e.voices {
		if v.IsActive() && !v.IsReleasing() {
			v.NoteOff()
		}
	}
}

// AllSoundOff hard-kills every voice immediately.
func (e *VoiceEngine) AllSoundOff() {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.numHeld = 0
	for _, v := range e.voices {
		v.Kill()
	}
}

// SetPitchBend retunes all sounding voices by the given semitone offset and
// applies to voices allocated afterwards.
func (e *VoiceEngine) SetPitchBend(semitones float32) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.bendSemis = clamp32(semitones, -24, 24)
	for _, v := range e.voices {
		v.SetPitchBend(e.bendSemis)
	}
}

// Render fills the host buffers with the mixed voice output. Both slices
// must be the same length; any length is accepted and chunked internally at
// RENDER_BLOCK_SIZE. Each chunk renders against exactly one parameter
// snapshot. The engine zeroes the region it renders, accumulates every
// active voice into it, applies master gain and a tanh soft-clip stage, and
// writes the result out.
func (e *VoiceEngine) Render(left, right []float32) {
	n := len(left)
	if len(right) < n {
		n = len(right)
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()

	offset := 0
	for offset < n {
		chunk := n - offset
		if chunk > RENDER_BLOCK_SIZE {
			chunk = RENDER_BLOCK_SIZE
		}

		p := e.params.Load()

		mixL := e.mixL[:chunk]
		mixR := e.mixR[:chunk]
		for i := range mixL {
			mixL[i] = 0
			mixR[i] = 0
		}

		for _, v := range e.voices {
			if v.IsActive() {
				v.ApplyParams(*p)
				v.Render(mixL, mixR, chunk)
			}
		}

		gain := p.MasterLevel
		for i := 0; i < chunk; i++ {
			left[offset+i] = fastTanh(mixL[i] * gain)
			right[offset+i] = fastTanh(mixR[i] * gain)
		}
		offset += chunk
	}
}

// ActiveVoiceCount returns the number of sounding voices.
func (e *VoiceEngine) ActiveVoiceCount() int {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	count := 0
	for _, v := range e.voices {
		if v.IsActive() {
			count++
		}
	}
	return count
}

// IsSilent reports whether no voice is sounding.
func (e *VoiceEngine) IsSilent() bool {
	return e.ActiveVoiceCount() == 0
}
