// engine_race_test.go - Concurrent parameter/note/render race tests

package isynth

import (
	"sync"
	"testing"
	"time"
)

// TestVoiceEngine_ConcurrentParamsAndRender stresses the control-side
// setters against the audio-side render loop. The test itself has no
// assertions - the race detector is the oracle.
// Run with: go test -race -run TestVoiceEngine_ConcurrentParamsAndRender -count=1
func TestVoiceEngine_ConcurrentParamsAndRender(t *testing.T) {
	e := NewVoiceEngine(44100, 8)
	e.NoteOn(60, 1.0, 0)
	e.NoteOn(64, 1.0, 0)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	// Goroutine 1: control thread hammering individual setters.
	wg.Add(1)
	go func() {
		defer wg.Done()
		iter := 0
		for {
			select {
			case <-stop:
				return
			default:
			}
			iter++
			e.SetFilterCutoff(float32(100 + iter%15000))
			e.SetFilterResonance(float32(iter%100) / 100.0)
			e.SetWaveform(OscWaveform(iter % 5))
			e.SetAttack(float32(iter%100)/1000.0 + 0.001)
			e.SetMasterVolumeDB(float32(iter%24) - 24)
		}
	}()

	// Goroutine 2: wholesale snapshot replacement plus note traffic.
	wg.Add(1)
	go func() {
		defer wg.Done()
		iter := 0
		for {
			select {
			case <-stop:
				return
			default:
			}
			iter++
			p := DefaultVoiceParams()
			p.Cutoff = float32(200 + iter%8000)
			e.SetParams(p)
			e.NoteOn(36+iter%48, 0.8, 0)
			if iter%3 == 0 {
				e.NoteOff(36 + iter%48)
			}
			e.SetPitchBend(float32(iter%25) - 12)
		}
	}()

	// Goroutine 3: audio thread pulling blocks.
	wg.Add(1)
	go func() {
		defer wg.Done()
		left := make([]float32, 512)
		right := make([]float32, 512)
		for {
			select {
			case <-stop:
				return
			default:
			}
			e.Render(left, right)
		}
	}()

	time.Sleep(200 * time.Millisecond)
	close(stop)
	wg.Wait()
}

// TestSMFPlayer_ConcurrentControlAndRender races Play/Stop against the
// render path the way a UI thread and an audio callback would.
func TestSMFPlayer_ConcurrentControlAndRender(t *testing.T) {
	e := NewVoiceEngine(44100, 4)
	p := NewSMFPlayer(e)
	if err := p.LoadData(buildTestSMF(t, 120)); err != nil {
		t.Fatalf("LoadData: %v", err)
	}

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			p.Play()
			p.IsPlaying()
			p.Stop()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		left := make([]float32, 256)
		right := make([]float32, 256)
		for {
			select {
			case <-stop:
				return
			default:
			}
			p.Render(left, right)
		}
	}()

	time.Sleep(100 * time.Millisecond)
	close(stop)
	wg.Wait()
}
