// main.go - iskeys: computer-keyboard piano driving the engine live

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"

	isynth "github.com/intuitionamiga/IntuitionSynth"
)

// noteKeys lays a piano octave across the home row: white keys on
// a s d f g h j k, black keys on w e t y u.
var noteKeys = map[byte]int{
	'a': 0, 'w': 1, 's': 2, 'e': 3, 'd': 4, 'f': 5,
	't': 6, 'g': 7, 'y': 8, 'h': 9, 'u': 10, 'j': 11,
	'k': 12,
}

const gateTime = 250 * time.Millisecond

func main() {
	var (
		patchPath = flag.String("patch", "", "CUE/JSON patch file to apply")
		backend   = flag.String("backend", isynth.AUDIO_BACKEND_OTO, "audio backend: oto, portaudio")
		voicesN   = flag.Int("voices", isynth.DEFAULT_VOICES, "polyphony (1-16)")
		rate      = flag.Int("rate", 44100, "sample rate in Hz")
	)
	flag.Parse()

	engine := isynth.NewVoiceEngine(*rate, *voicesN)

	if *patchPath != "" {
		patch, err := isynth.LoadPatch(*patchPath)
		if err != nil {
			log.Fatalf("iskeys: %v", err)
		}
		patch.Apply(engine)
		fmt.Printf("patch: %s\r\n", patch.Name)
	}

	out, err := isynth.NewAudioOutput(*backend, *rate, engine)
	if err != nil {
		log.Fatalf("iskeys: %v", err)
	}
	defer out.Close()
	if err := out.Start(); err != nil {
		log.Fatalf("iskeys: %v", err)
	}

	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		log.Fatalf("iskeys: failed to set raw mode: %v", err)
	}
	defer term.Restore(fd, oldState)

	if err := syscall.SetNonblock(fd, true); err != nil {
		log.Fatalf("iskeys: failed to set nonblocking stdin: %v", err)
	}
	defer syscall.SetNonblock(fd, false)

	fmt.Print("keys: a-k play notes, z/x octave, 1-5 waveform, space silence, q quits\r\n")

	octave := 5 // key 'a' = C4 (note 60)
	var gateMu sync.Mutex
	gates := map[int]*time.Timer{}

	// Terminals report presses only, so every note gets a fixed gate. A
	// repeat press retriggers and extends it.
	playNote := func(note int) {
		engine.NoteOn(note, 1.0, 0)
		gateMu.Lock()
		if t, ok := gates[note]; ok {
			t.Stop()
		}
		gates[note] = time.AfterFunc(gateTime, func() {
			engine.NoteOff(note)
			gateMu.Lock()
			delete(gates, note)
			gateMu.Unlock()
		})
		gateMu.Unlock()
	}

	buf := make([]byte, 1)
	for {
		n, err := syscall.Read(fd, buf)
		if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
			time.Sleep(5 * time.Millisecond)
			continue
		}
		if err != nil || (n > 0 && (buf[0] == 'q' || buf[0] == 3)) {
			engine.AllSoundOff()
			return
		}
		if n == 0 {
			time.Sleep(5 * time.Millisecond)
			continue
		}

		key := buf[0]
		switch {
		case key >= '1' && key <= '5':
			engine.SetWaveform(isynth.OscWaveform(key - '1'))
		case key == 'z':
			if octave > 1 {
				octave--
			}
		case key == 'x':
			if octave < 8 {
				octave++
			}
		case key == ' ':
			engine.AllNotesOff()
		default:
			if offset, ok := noteKeys[key]; ok {
				note := octave*12 + offset
				if note <= 127 {
					playNote(note)
				}
			}
		}
	}
}
