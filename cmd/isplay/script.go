// script.go - Lua-scripted note sequences for isplay

package main

import (
	"fmt"
	"sync"

	lua "github.com/yuin/gopher-lua"

	isynth "github.com/intuitionamiga/IntuitionSynth"
)

type scriptEventKind int

const (
	evNoteOn scriptEventKind = iota
	evNoteOff
	evDrum
	evPatch
)

type scriptEvent struct {
	sample   int
	kind     scriptEventKind
	note     int
	velocity float32
	patch    *isynth.Patch
}

// ScriptPlayer runs a Lua script once at load time to build a sample-timed
// event list, then plays it back through the engine exactly like the SMF
// player. The script drives a time cursor:
//
//	note_on(60, 0.8)   -- velocity optional, defaults to 1
//	wait(0.5)          -- seconds
//	note_off(60)
//	drum(36)           -- trigger a drum slot
//	patch("lead.cue")  -- apply a patch from this point on
type ScriptPlayer struct {
	mutex sync.Mutex

	engine *isynth.VoiceEngine
	drums  *isynth.DrumKit

	events  []scriptEvent
	cursor  int
	nowSmp  int
	playing bool

	durationSamples int

	drumL [isynth.RENDER_BLOCK_SIZE]float32
	drumR [isynth.RENDER_BLOCK_SIZE]float32
}

func NewScriptPlayer(engine *isynth.VoiceEngine, drums *isynth.DrumKit) *ScriptPlayer {
	return &ScriptPlayer{engine: engine, drums: drums}
}

// Load executes the script and captures its event list.
func (p *ScriptPlayer) Load(path string) error {
	return p.load(func(L *lua.LState) error { return L.DoFile(path) })
}

// LoadData executes script source from a byte slice.
func (p *ScriptPlayer) LoadData(data []byte) error {
	return p.load(func(L *lua.LState) error { return L.DoString(string(data)) })
}

func (p *ScriptPlayer) load(run func(*lua.LState) error) error {
	sampleRate := float64(p.engine.SampleRate())

	var events []scriptEvent
	var clock float64 // seconds
	var loadErr error

	at := func() int { return int(clock * sampleRate) }

	L := lua.NewState()
	defer L.Close()

	L.SetGlobal("note_on", L.NewFunction(func(L *lua.LState) int {
		note := L.CheckInt(1)
		vel := float32(L.OptNumber(2, 1.0))
		events = append(events, scriptEvent{sample: at(), kind: evNoteOn, note: note, velocity: vel})
		return 0
	}))
	L.SetGlobal("note_off", L.NewFunction(func(L *lua.LState) int {
		note := L.CheckInt(1)
		events = append(events, scriptEvent{sample: at(), kind: evNoteOff, note: note})
		return 0
	}))
	L.SetGlobal("drum", L.NewFunction(func(L *lua.LState) int {
		note := L.CheckInt(1)
		vel := float32(L.OptNumber(2, 1.0))
		events = append(events, scriptEvent{sample: at(), kind: evDrum, note: note, velocity: vel})
		return 0
	}))
	L.SetGlobal("wait", L.NewFunction(func(L *lua.LState) int {
		secs := float64(L.CheckNumber(1))
		if secs > 0 {
			clock += secs
		}
		return 0
	}))
	L.SetGlobal("patch", L.NewFunction(func(L *lua.LState) int {
		path := L.CheckString(1)
		patch, err := isynth.LoadPatch(path)
		if err != nil {
			loadErr = err
			L.RaiseError("patch: %v", err)
			return 0
		}
		events = append(events, scriptEvent{sample: at(), kind: evPatch, patch: patch})
		return 0
	}))

	if err := run(L); err != nil {
		if loadErr != nil {
			return loadErr
		}
		return fmt.Errorf("script: %w", err)
	}

	p.mutex.Lock()
	p.events = events
	p.cursor = 0
	p.nowSmp = 0
	p.playing = false
	p.durationSamples = at()
	if len(events) > 0 && events[len(events)-1].sample > p.durationSamples {
		p.durationSamples = events[len(events)-1].sample
	}
	p.mutex.Unlock()
	return nil
}

func (p *ScriptPlayer) Play() {
	p.mutex.Lock()
	p.cursor = 0
	p.nowSmp = 0
	p.playing = true
	p.mutex.Unlock()
}

func (p *ScriptPlayer) Stop() {
	p.mutex.Lock()
	p.playing = false
	p.mutex.Unlock()
	p.engine.AllSoundOff()
}

func (p *ScriptPlayer) IsPlaying() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.playing
}

func (p *ScriptPlayer) DurationSeconds() float64 {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return float64(p.durationSamples) / float64(p.engine.SampleRate())
}

func (p *ScriptPlayer) DurationText() string {
	secs := int(p.DurationSeconds() + 0.5)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// Render dispatches due script events, then renders engine and drums.
func (p *ScriptPlayer) Render(left, right []float32) {
	n := len(left)
	if len(right) < n {
		n = len(right)
	}

	p.mutex.Lock()
	playing := p.playing
	if playing {
		end := p.nowSmp + n
		for p.cursor < len(p.events) && p.events[p.cursor].sample < end {
			ev := p.events[p.cursor]
			p.cursor++
			switch ev.kind {
			case evNoteOn:
				p.engine.NoteOn(ev.note, ev.velocity, 0)
			case evNoteOff:
				p.engine.NoteOff(ev.note)
			case evDrum:
				if p.drums != nil {
					p.drums.NoteOn(ev.note, ev.velocity, 0)
				}
			case evPatch:
				ev.patch.Apply(p.engine)
			}
		}
		p.nowSmp = end

		if p.cursor >= len(p.events) && p.nowSmp >= p.durationSamples &&
			p.engine.IsSilent() &&
			(p.drums == nil || p.drums.ActiveVoiceCount() == 0) {
			p.playing = false
		}
	}
	drums := p.drums
	p.mutex.Unlock()

	p.engine.Render(left[:n], right[:n])

	if playing && drums != nil {
		offset := 0
		for offset < n {
			chunk := n - offset
			if chunk > isynth.RENDER_BLOCK_SIZE {
				chunk = isynth.RENDER_BLOCK_SIZE
			}
			dl := p.drumL[:chunk]
			dr := p.drumR[:chunk]
			drums.Render(dl, dr)
			for i := 0; i < chunk; i++ {
				left[offset+i] += dl[i]
				right[offset+i] += dr[i]
			}
			offset += chunk
		}
	}
}
