// envelope_test.go - ADSR stage transition and anti-click tests

package isynth

import (
	"math"
	"testing"
)

const envTestRate = float32(44100)

func TestEnvelope_FullCycle(t *testing.T) {
	e := NewEnvelope(envTestRate)
	e.SetAttack(0.01)
	e.SetDecay(0.05)
	e.SetSustain(0.6)
	e.SetRelease(0.05)

	e.Trigger()
	if e.Stage() != ENV_ATTACK {
		t.Fatalf("expected attack after trigger, got %v", e.Stage())
	}

	// Attack must complete within a few time constants.
	for i := 0; i < 44100 && e.Stage() == ENV_ATTACK; i++ {
		e.Process()
	}
	if e.Stage() != ENV_DECAY {
		t.Fatalf("attack never completed, stage=%v level=%v", e.Stage(), e.Level())
	}

	for i := 0; i < 44100 && e.Stage() == ENV_DECAY; i++ {
		e.Process()
	}
	if e.Stage() != ENV_SUSTAIN {
		t.Fatalf("decay never reached sustain, stage=%v level=%v", e.Stage(), e.Level())
	}
	if math.Abs(float64(e.Level()-0.6)) > 0.01 {
		t.Errorf("sustain level = %v, want ~0.6", e.Level())
	}

	e.Release()
	if e.Stage() != ENV_RELEASE {
		t.Fatalf("expected release stage, got %v", e.Stage())
	}
	for i := 0; i < 44100 && e.Stage() == ENV_RELEASE; i++ {
		e.Process()
	}
	if e.Stage() != ENV_IDLE {
		t.Fatalf("release never finished, stage=%v level=%v", e.Stage(), e.Level())
	}
	if e.Level() != 0 {
		t.Errorf("idle level = %v, want 0", e.Level())
	}
}

func TestEnvelope_RetriggerKeepsLevel(t *testing.T) {
	e := NewEnvelope(envTestRate)
	e.SetAttack(0.001)
	e.SetDecay(0.2)
	e.SetSustain(0.1)
	e.SetRelease(0.1)

	e.Trigger()
	// Run into the decay so the level sits well above sustain.
	for i := 0; i < 2000; i++ {
		e.Process()
	}
	levelBefore := e.Level()
	if levelBefore <= 0.1 || levelBefore >= 0.999 {
		t.Fatalf("test setup: expected mid-decay level, got %v", levelBefore)
	}

	// Retrigger must restart the attack from the current level, never from
	// zero. Any downward jump is an audible click.
	e.Trigger()
	if e.Level() != levelBefore {
		t.Fatalf("Trigger changed the level: %v -> %v", levelBefore, e.Level())
	}
	next := e.Process()
	if next < levelBefore {
		t.Errorf("level fell after retrigger: %v -> %v", levelBefore, next)
	}
}

func TestEnvelope_ReleaseFromAttack(t *testing.T) {
	e := NewEnvelope(envTestRate)
	e.SetAttack(1.0)
	e.SetRelease(0.01)

	e.Trigger()
	for i := 0; i < 500; i++ {
		e.Process()
	}
	e.Release()

	// Release must ramp down from wherever the attack got to.
	prev := e.Level()
	for i := 0; i < 44100 && e.Stage() == ENV_RELEASE; i++ {
		cur := e.Process()
		if cur > prev {
			t.Fatalf("level rose during release: %v -> %v", prev, cur)
		}
		prev = cur
	}
	if e.Stage() != ENV_IDLE {
		t.Errorf("release from attack never reached idle, stage=%v", e.Stage())
	}
}

func TestEnvelope_KillIsImmediateAndIdempotent(t *testing.T) {
	e := NewEnvelope(envTestRate)
	e.Trigger()
	for i := 0; i < 100; i++ {
		e.Process()
	}

	e.Kill()
	if e.Stage() != ENV_IDLE || e.Level() != 0 {
		t.Fatalf("Kill: stage=%v level=%v, want idle/0", e.Stage(), e.Level())
	}
	e.Kill()
	if e.Stage() != ENV_IDLE || e.Level() != 0 {
		t.Error("second Kill changed state")
	}

	// Release on an idle envelope is a no-op.
	e.Release()
	if e.Stage() != ENV_IDLE {
		t.Errorf("Release on idle envelope moved to %v", e.Stage())
	}
}

func TestEnvelope_TimesClampedToMinimum(t *testing.T) {
	e := NewEnvelope(envTestRate)
	e.SetAttack(0)
	e.SetDecay(-1)
	e.SetRelease(0)
	e.SetSustain(0.5)

	e.Trigger()
	for i := 0; i < 44100; i++ {
		v := e.Process()
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			t.Fatalf("non-finite envelope level at sample %d", i)
		}
	}
	if e.Stage() != ENV_SUSTAIN {
		t.Errorf("fast envelope should have settled at sustain, got %v", e.Stage())
	}
}
