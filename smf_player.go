// smf_player.go - Standard MIDI File playback through the voice engine

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
	"bytes"
	"fmt"
	"os"
	"sort"
	"sync"

	"gitlab.com/gomidi/midi/v2/smf"
)

// smfEvent is a note event resolved to an absolute sample position.
type smfEvent struct {
	sample   int
	note     int
	velocity float32
	noteOn   bool
	drums    bool // channel 10 routes to the drum kit when attached
}

// SMFPlayer plays a Standard MIDI File through a VoiceEngine, optionally
// routing channel 10 to a DrumKit. Tempo changes are honoured at load time:
// every event is converted to an absolute sample position once, so playback
// is a single cursor walk. Events dispatch at block granularity.
type SMFPlayer struct {
	mutex sync.Mutex

	engine *VoiceEngine
	drums  *DrumKit

	events  []smfEvent
	cursor  int // next event index
	nowSmp  int // playback position in samples
	playing bool

	durationSamples int

	drumL [RENDER_BLOCK_SIZE]float32
	drumR [RENDER_BLOCK_SIZE]float32
}

// NewSMFPlayer wraps an engine for file playback.
func NewSMFPlayer(engine *VoiceEngine) *SMFPlayer {
	return &SMFPlayer{engine: engine}
}

// SetDrumKit attaches a kit; channel 10 events then trigger drums instead
// of melodic voices. Pass nil to detach.
func (p *SMFPlayer) SetDrumKit(kit *DrumKit) {
	p.mutex.Lock()
	p.drums = kit
	p.mutex.Unlock()
}

// Load reads and parses an SMF file from disk.
func (p *SMFPlayer) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := p.LoadData(data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// tickEvent is an event at its absolute tick, before tempo resolution.
type tickEvent struct {
	tick     uint64
	tempoBPM float64 // > 0 for tempo changes
	note     int
	velocity float32
	noteOn   bool
	isNote   bool
	channel  uint8
}

// LoadData parses SMF data and flattens all tracks into one sample-stamped
// event list. Only metric time division is supported.
func (p *SMFPlayer) LoadData(data []byte) error {
	song, err := smf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parse smf: %w", err)
	}

	metric, ok := song.TimeFormat.(smf.MetricTicks)
	if !ok {
		return fmt.Errorf("unsupported smf time format %v", song.TimeFormat)
	}
	ticksPerQuarter := float64(metric.Resolution())

	var raw []tickEvent
	for _, track := range song.Tracks {
		var tick uint64
		for _, ev := range track {
			tick += uint64(ev.Delta)

			var bpm float64
			if ev.Message.GetMetaTempo(&bpm) {
				raw = append(raw, tickEvent{tick: tick, tempoBPM: bpm})
				continue
			}

			var channel, key, velocity uint8
			if ev.Message.GetNoteStart(&channel, &key, &velocity) {
				raw = append(raw, tickEvent{
					tick:     tick,
					note:     int(key),
					velocity: float32(velocity) / 127.0,
					noteOn:   true,
					isNote:   true,
					channel:  channel,
				})
			} else if ev.Message.GetNoteEnd(&channel, &key) {
				raw = append(raw, tickEvent{
					tick:    tick,
					note:    int(key),
					isNote:  true,
					channel: channel,
				})
			}
		}
	}

	// Stable sort keeps same-tick ordering from the file; tempo changes at
	// a tick apply before notes on that tick.
	sort.SliceStable(raw, func(i, j int) bool {
		if raw[i].tick != raw[j].tick {
			return raw[i].tick < raw[j].tick
		}
		return raw[i].tempoBPM > 0 && raw[j].tempoBPM == 0
	})

	sampleRate := float64(p.engine.SampleRate())
	bpm := 120.0
	samplesPerTick := sampleRate * 60.0 / (bpm * ticksPerQuarter)

	events := make([]smfEvent, 0, len(raw))
	var prevTick uint64
	var position float64
	for _, ev := range raw {
		position += float64(ev.tick-prevTick) * samplesPerTick
		prevTick = ev.tick

		if ev.tempoBPM > 0 {
			bpm = ev.tempoBPM
			samplesPerTick = sampleRate * 60.0 / (bpm * ticksPerQuarter)
			continue
		}
		events = append(events, smfEvent{
			sample:   int(position),
			note:     ev.note,
			velocity: ev.velocity,
			noteOn:   ev.noteOn,
			drums:    ev.channel == 9,
		})
	}

	p.mutex.Lock()
	p.events = events
	p.cursor = 0
	p.nowSmp = 0
	p.playing = false
	if len(events) > 0 {
		p.durationSamples = events[len(events)-1].sample
	} else {
		p.durationSamples = 0
	}
	p.mutex.Unlock()
	return nil
}

// Play starts playback from the beginning.
func (p *SMFPlayer) Play() {
	p.mutex.Lock()
	p.cursor = 0
	p.nowSmp = 0
	p.playing = true
	p.mutex.Unlock()
}

// Stop halts playback and silences the engine.
func (p *SMFPlayer) Stop() {
	p.mutex.Lock()
	p.playing = false
	p.mutex.Unlock()
	p.engine.AllSoundOff()
}

// IsPlaying reports whether the song cursor is still advancing or voices
// are still ringing out past the final event.
func (p *SMFPlayer) IsPlaying() bool {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return p.playing
}

// DurationSeconds returns the time of the last event.
func (p *SMFPlayer) DurationSeconds() float64 {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	return float64(p.durationSamples) / float64(p.engine.SampleRate())
}

// DurationText formats the duration as m:ss.
func (p *SMFPlayer) DurationText() string {
	secs := int(p.DurationSeconds() + 0.5)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// Render dispatches due events, then renders the engine (and drums, when
// attached) into the host buffers. The player is itself a StereoRenderer so
// any backend can drive it directly.
func (p *SMFPlayer) Render(left, right []float32) {
	n := len(left)
	if len(right) < n {
		n = len(right)
	}

	p.mutex.Lock()
	playing := p.playing
	var drums *DrumKit
	if playing {
		end := p.nowSmp + n
		for p.cursor < len(p.events) && p.events[p.cursor].sample < end {
			ev := p.events[p.cursor]
			p.cursor++
			if ev.drums && p.drums != nil {
				if ev.noteOn {
					p.drums.NoteOn(ev.note, ev.velocity, 0)
				}
				continue
			}
			if ev.noteOn {
				p.engine.NoteOn(ev.note, ev.velocity, 0)
			} else {
				p.engine.NoteOff(ev.note)
			}
		}
		p.nowSmp = end

		// Past the final event the song keeps "playing" until the tails
		// decay.
		if p.cursor >= len(p.events) && p.engine.IsSilent() &&
			(p.drums == nil || p.drums.ActiveVoiceCount() == 0) {
			p.playing = false
		}
	}
	drums = p.drums
	p.mutex.Unlock()

	p.engine.Render(left[:n], right[:n])

	if playing && drums != nil {
		offset := 0
		for offset < n {
			chunk := n - offset
			if chunk > RENDER_BLOCK_SIZE {
				chunk = RENDER_BLOCK_SIZE
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
