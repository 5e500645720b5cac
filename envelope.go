// envelope.go - Exponential ADSR envelope generator

package isynth

import "math"

// EnvStage enumerates the ADSR state machine.
type EnvStage int

const (
	ENV_IDLE EnvStage = iota
	ENV_ATTACK
	ENV_DECAY
	ENV_SUSTAIN
	ENV_RELEASE
)

// Envelope is the per-voice amplitude/modulation contour. All three timed
// stages use one-pole exponential curves; the coefficients are recomputed in
// the setters, never in Process.
//
// Trigger never touches the current level: a re-attack always climbs from
// wherever the level is, which is what keeps fast retriggering click-free.
type Envelope struct {
	stage EnvStage
	level float32

	sampleRate float32

	attackCoef  float32 // 1 - exp(-4/(t*sr)), applied as level += c*(1-level)
	decayCoef   float32 // exp(-4/(t*sr)), applied toward the sustain level
	releaseCoef float32 // exp(-4/(t*sr)), applied toward zero
	sustain     float32

	attackTime  float32
	decayTime   float32
	releaseTime float32
}

// NewEnvelope returns an idle envelope with default contour times.
func NewEnvelope(sampleRate float32) Envelope {
	e := Envelope{sampleRate: sampleRate, sustain: 0.7}
	e.SetAttack(0.01)
	e.SetDecay(0.1)
	e.SetRelease(0.3)
	return e
}

// SetAttack sets the attack time in seconds, clamped to at least 1 ms.
func (e *Envelope) SetAttack(seconds float32) {
	e.attackTime = clamp32(seconds, MIN_ENV_TIME, MAX_ENV_TIME)
	e.attackCoef = 1.0 - float32(math.Exp(float64(-4.0/(e.attackTime*e.sampleRate))))
}

// SetDecay sets the decay time in seconds, clamped to at least 1 ms.
func (e *Envelope) SetDecay(seconds float32) {
	e.decayTime = clamp32(seconds, MIN_ENV_TIME, MAX_ENV_TIME)
	e.decayCoef = float32(math.Exp(float64(-4.0 / (e.decayTime * e.sampleRate))))
}

// SetSustain sets the sustain level, clamped to [0,1].
func (e *Envelope) SetSustain(level float32) {
	e.sustain = clamp32(level, 0.0, 1.0)
}

// SetRelease sets the release time in seconds, clamped to at least 1 ms.
func (e *Envelope) SetRelease(seconds float32) {
	e.releaseTime = clamp32(seconds, MIN_ENV_TIME, MAX_ENV_TIME)
	e.releaseCoef = float32(math.Exp(float64(-4.0 / (e.releaseTime * e.sampleRate))))
}

// Trigger starts a new attack phase from the current level.
func (e *Envelope) Trigger() {
	e.stage = ENV_ATTACK
}

// Release moves to the release stage. No-op when already idle.
func (e *Envelope) Release() {
	if e.stage == ENV_IDLE {
		return
	}
	e.stage = ENV_RELEASE
}

// Kill hard-stops the envelope: level zero, idle, no tail.
func (e *Envelope) Kill() {
	e.stage = ENV_IDLE
	e.level = 0
}

// Process advances the envelope by one sample and returns the new level.
func (e *Envelope) Process() float32 {
	switch e.stage {
	case ENV_ATTACK:
		e.level += e.attackCoef * (1.0 - e.level)
		if e.level >= 0.999 {
			e.level = 1.0
			e.stage = ENV_DECAY
		}
	case ENV_DECAY:
		e.level = e.sustain + (e.level-e.sustain)*e.decayCoef
		if e.level <= e.sustain+0.001 {
			e.level = e.sustain
			e.stage = ENV_SUSTAIN
		}
	case ENV_SUSTAIN:
		e.level = e.sustain
	case ENV_RELEASE:
		e.level *= e.releaseCoef
		if e.level <= SILENCE_FLOOR {
			e.level = 0
			e.stage = ENV_IDLE
		}
	case ENV_IDLE:
		e.level = 0
	}
	return e.level
}

// Stage returns the current stage.
func (e *Envelope) Stage() EnvStage { return e.stage }

// Level returns the current level without advancing.
func (e *Envelope) Level() float32 { return e.level }
