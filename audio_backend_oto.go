//go:build !headless

// audio_backend_oto.go - OTO v3 audio output implementation

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

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ebitengine/oto/v3"
)

// rendererBox exists so the source can sit behind an atomic.Pointer even
// when StereoRenderer is an interface value.
type rendererBox struct {
	src StereoRenderer
}

// OtoOutput pulls stereo float32 samples from a StereoRenderer through the
// oto mixer. Read runs on oto's own goroutine; the source pointer is loaded
// atomically so the hot path never takes the control mutex.
type OtoOutput struct {
	ctx    *oto.Context
	player *oto.Player
	src    atomic.Pointer[rendererBox]

	left  []float32
	right []float32
	inter []float32 // interleaved scratch, 2 * block

	started bool
	mutex   sync.Mutex // Only for setup/control operations
}

func NewOtoOutput(sampleRate int, src StereoRenderer) (*OtoOutput, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   4,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	out := &OtoOutput{
		ctx:   ctx,
		left:  make([]float32, 2048),
		right: make([]float32, 2048),
		inter: make([]float32, 4096),
	}
	out.src.Store(&rendererBox{src: src})
	out.player = ctx.NewPlayer(out)
	return out, nil
}

// SetSource swaps the renderer being pulled from. Safe while playing.
func (out *OtoOutput) SetSource(src StereoRenderer) {
	out.src.Store(&rendererBox{src: src})
}

func (out *OtoOutput) Read(p []byte) (n int, err error) {
	box := out.src.Load()
	if box == nil || box.src == nil {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}

	// 8 bytes per frame: two float32 channels.
	numFrames := len(p) / 8

	if len(out.left) < numFrames {
		out.left = make([]float32, numFrames)
		out.right = make([]float32, numFrames)
		out.inter = make([]float32, numFrames*2)
	}
	left := out.left[:numFrames]
	right := out.right[:numFrames]
	inter := out.inter[:numFrames*2]

	box.src.Render(left, right)

	for i := 0; i < numFrames; i++ {
		inter[2*i] = left[i]
		inter[2*i+1] = right[i]
	}

	nBytes := numFrames * 8
	copy(p[:nBytes], (*[1 << 30]byte)(unsafe.Pointer(&inter[0]))[:nBytes])
	return nBytes, nil
}

func (out *OtoOutput) Start() error {
	out.mutex.Lock()
	defer out.mutex.Unlock()

	if !out.started && out.player != nil {
		out.player.Play()
		out.started = true
	}
	return nil
}

func (out *OtoOutput) Stop() {
	out.mutex.Lock()
	defer out.mutex.Unlock()

	if out.started && out.player != nil {
		out.player.Pause()
		out.started = false
	}
}

func (out *OtoOutput) Close() {
	out.Stop()
	out.mutex.Lock()
	defer out.mutex.Unlock()

	if out.player != nil {
		out.player.Close()
		out.player = nil
	}
}

func (out *OtoOutput) IsStarted() bool {
	out.mutex.Lock()
	defer out.mutex.Unlock()
	return out.started
}
