// main.go - isplay: play an SMF or Lua-scripted sequence, live or bounced to WAV

package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	isynth "github.com/intuitionamiga/IntuitionSynth"
)

func main() {
	var (
		patchPath  = flag.String("patch", "", "CUE/JSON patch file to apply")
		watchPatch = flag.Bool("watch", false, "hot-reload the patch file on save")
		smfPath    = flag.String("smf", "", "Standard MIDI File to play")
		scriptPath = flag.String("script", "", "Lua sequence script to play")
		wavPath    = flag.String("wav", "", "bounce to WAV file instead of playing live")
		backend    = flag.String("backend", isynth.AUDIO_BACKEND_OTO, "audio backend: oto, portaudio, null")
		seconds    = flag.Float64("seconds", 0, "bounce length in seconds (default: song length + 2s tail)")
		voices     = flag.Int("voices", isynth.DEFAULT_VOICES, "polyphony (1-16)")
		rate       = flag.Int("rate", 44100, "sample rate in Hz")
	)
	flag.Parse()

	if *smfPath == "" && *scriptPath == "" {
		fmt.Fprintln(os.Stderr, "isplay: need -smf or -script")
		flag.Usage()
		os.Exit(2)
	}

	engine := isynth.NewVoiceEngine(*rate, *voices)
	drums := isynth.NewDrumKit(*rate)

	if *patchPath != "" {
		patch, err := isynth.LoadPatch(*patchPath)
		if err != nil {
			log.Fatalf("isplay: %v", err)
		}
		patch.Apply(engine)
		fmt.Printf("patch: %s\n", patch.Name)

		if *watchPatch {
			patches := make(chan *isynth.Patch, 1)
			errs := make(chan error, 1)
			done := make(chan struct{})
			defer close(done)
			if err := isynth.WatchPatch(*patchPath, patches, errs, done); err != nil {
				log.Fatalf("isplay: watch: %v", err)
			}
			go func() {
				for {
					select {
					case p := <-patches:
						p.Apply(engine)
						fmt.Printf("patch reloaded: %s\n", p.Name)
					case err := <-errs:
						fmt.Fprintf(os.Stderr, "isplay: patch reload: %v\n", err)
					case <-done:
						return
					}
				}
			}()
		}
	}

	var player isynth.MusicPlayer
	var source isynth.StereoRenderer

	if *smfPath != "" {
		smf := isynth.NewSMFPlayer(engine)
		smf.SetDrumKit(drums)
		if err := smf.Load(*smfPath); err != nil {
			log.Fatalf("isplay: %v", err)
		}
		player = smf
		source = smf
	} else {
		script := NewScriptPlayer(engine, drums)
		if err := script.Load(*scriptPath); err != nil {
			log.Fatalf("isplay: %v", err)
		}
		player = script
		source = script
	}

	fmt.Printf("duration: %s\n", player.DurationText())

	if *wavPath != "" {
		length := *seconds
		if length <= 0 {
			length = player.DurationSeconds() + 2
		}
		player.Play()
		if err := isynth.BounceWAV(*wavPath, source, *rate, length); err != nil {
			log.Fatalf("isplay: %v", err)
		}
		fmt.Printf("wrote %s (%.1fs)\n", *wavPath, length)
		return
	}

	out, err := isynth.NewAudioOutput(*backend, *rate, source)
	if err != nil {
		log.Fatalf("isplay: %v", err)
	}
	defer out.Close()

	if err := out.Start(); err != nil {
		log.Fatalf("isplay: %v", err)
	}
	player.Play()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	for player.IsPlaying() {
		select {
		case <-sig:
			player.Stop()
			return
		case <-time.After(50 * time.Millisecond):
		}
	}
}
