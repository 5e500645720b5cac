//go:build headless

// audio_backend_headless.go - Stub device backends for builds without audio hardware

package isynth

type OtoOutput struct {
	started bool
	src     StereoRenderer
}

func NewOtoOutput(sampleRate int, src StereoRenderer) (*OtoOutput, error) {
	return &OtoOutput{src: src}, nil
}

func (out *OtoOutput) SetSource(src StereoRenderer) { out.src = src }

func (out *OtoOutput) Start() error {
	out.started = true
	return nil
}

func (out *OtoOutput) Stop()           { out.started = false }
func (out *OtoOutput) Close()          { out.started = false }
func (out *OtoOutput) IsStarted() bool { return out.started }

type PortAudioOutput struct {
	started bool
	src     StereoRenderer
}

func NewPortAudioOutput(sampleRate int, src StereoRenderer) (*PortAudioOutput, error) {
	return &PortAudioOutput{src: src}, nil
}

func (out *PortAudioOutput) Start() error {
	out.started = true
	return nil
}

func (out *PortAudioOutput) Stop()           { out.started = false }
func (out *PortAudioOutput) Close()          { out.started = false }
func (out *PortAudioOutput) IsStarted() bool { return out.started }
