// audio_output.go - Audio output abstraction and backend factory

package isynth

import "fmt"

// AudioOutput is the control surface every playback backend implements.
// Backends pull samples from a StereoRenderer; the renderer never knows
// which backend is driving it.
type AudioOutput interface {
	Start() error
	Stop()
	Close()
	IsStarted() bool
}

// Backend selectors for NewAudioOutput.
const (
	AUDIO_BACKEND_NULL      = "null"
	AUDIO_BACKEND_OTO       = "oto"
	AUDIO_BACKEND_PORTAUDIO = "portaudio"
)

// NewAudioOutput constructs the named backend wired to src. The null
// backend consumes nothing and is safe everywhere; oto and portaudio need a
// real audio device and are unavailable under the headless build tag.
func NewAudioOutput(backend string, sampleRate int, src StereoRenderer) (AudioOutput, error) {
	switch backend {
	case AUDIO_BACKEND_NULL:
		return NewNullOutput(), nil
	case AUDIO_BACKEND_OTO:
		return NewOtoOutput(sampleRate, src)
	case AUDIO_BACKEND_PORTAUDIO:
		return NewPortAudioOutput(sampleRate, src)
	default:
		return nil, fmt.Errorf("unknown audio backend %q", backend)
	}
}

// NullOutput is a backend that never pulls. Offline rendering (WAV bounce,
// tests) drives the renderer directly instead.
type NullOutput struct {
	started bool
}

func NewNullOutput() *NullOutput { return &NullOutput{} }

func (n *NullOutput) Start() error {
	n.started = true
	return nil
}

func (n *NullOutput) Stop()           { n.started = false }
func (n *NullOutput) Close()          { n.started = false }
func (n *NullOutput) IsStarted() bool { return n.started }
