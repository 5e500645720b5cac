//go:build !headless

// audio_backend_portaudio.go - PortAudio callback output implementation

package isynth

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// PortAudioOutput drives a StereoRenderer from the PortAudio callback. The
// callback hands us non-interleaved channel slices, which matches the
// renderer contract directly.
type PortAudioOutput struct {
	stream *portaudio.Stream
	src    StereoRenderer

	started bool
	mutex   sync.Mutex
}

func NewPortAudioOutput(sampleRate int, src StereoRenderer) (*PortAudioOutput, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("portaudio init: %w", err)
	}

	out := &PortAudioOutput{src: src}
	stream, err := portaudio.OpenDefaultStream(0, 2, float64(sampleRate),
		portaudio.FramesPerBufferUnspecified, out.callback)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("portaudio open stream: %w", err)
	}
	out.stream = stream
	return out, nil
}

func (out *PortAudioOutput) callback(buf [][]float32) {
	out.src.Render(buf[0], buf[1])
}

func (out *PortAudioOutput) Start() error {
	out.mutex.Lock()
	defer out.mutex.Unlock()

	if out.started || out.stream == nil {
		return nil
	}
	if err := out.stream.Start(); err != nil {
		return fmt.Errorf("portaudio start: %w", err)
	}
	out.started = true
	return nil
}

func (out *PortAudioOutput) Stop() {
	out.mutex.Lock()
	defer out.mutex.Unlock()

	if out.started && out.stream != nil {
		out.stream.Stop()
		out.started = false
	}
}

func (out *PortAudioOutput) Close() {
	out.Stop()
	out.mutex.Lock()
	defer out.mutex.Unlock()

	if out.stream != nil {
		out.stream.Close()
		out.stream = nil
		portaudio.Terminate()
	}
}

func (out *PortAudioOutput) IsStarted() bool {
	out.mutex.Lock()
	defer out.mutex.Unlock()
	return out.started
}
