// engine_reset.go - Reset() support for the voice engine (hard reset to constructor defaults)

package isynth

// Reset restores the engine to constructor defaults: every voice is killed
// and fully re-initialised (the only path that rewinds LFO phase, voice age
// and pitch bend), the held-note stack is cleared, and the parameter set
// returns to DefaultVoiceParams. The voice pool itself survives; no
// reallocation happens.
func (e *VoiceEngine) Reset() {
	e.pmu.Lock()
	e.pending = DefaultVoiceParams()
	e.publishLocked()
	e.pmu.Unlock()

	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.numHeld = 0
	e.bendSemis = 0
	for _, v := range e.voices {
		v.Reset()
	}
}
