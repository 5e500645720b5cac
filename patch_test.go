// patch_test.go - CUE patch validation, defaults and hot-reload tests

package isynth

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParsePatch_DefaultsFill(t *testing.T) {
	p, err := ParsePatch([]byte(`name: "bare"`))
	if err != nil {
		t.Fatalf("ParsePatch: %v", err)
	}

	if p.Name != "bare" {
		t.Errorf("name = %q", p.Name)
	}
	if p.Waveform != "saw" {
		t.Errorf("default waveform = %q, want saw", p.Waveform)
	}
	if p.Cutoff != 5000 {
		t.Errorf("default cutoff = %v, want 5000", p.Cutoff)
	}
	if p.Attack != 0.01 || p.Decay != 0.1 || p.Sustain != 0.7 || p.Release != 0.3 {
		t.Errorf("default ADSR = %v/%v/%v/%v", p.Attack, p.Decay, p.Sustain, p.Release)
	}
	if p.CrushBits != 16 {
		t.Errorf("default crush bits = %d, want 16", p.CrushBits)
	}
	if p.MasterLevel != 0.8 {
		t.Errorf("default master level = %v, want 0.8", p.MasterLevel)
	}
}

func TestParsePatch_OverridesApply(t *testing.T) {
	src := `
name:      "acid"
waveform:  "pulse"
filter:    "ladder"
cutoff:    800.0
resonance: 0.85
glide:     0.06
mono:      true
`
	p, err := ParsePatch([]byte(src))
	if err != nil {
		t.Fatalf("ParsePatch: %v", err)
	}

	vp := p.Params()
	if vp.Waveform != WAVE_PULSE {
		t.Errorf("waveform = %v, want pulse", vp.Waveform)
	}
	if vp.FilterType != FILTER_LADDER {
		t.Errorf("filter = %v, want ladder", vp.FilterType)
	}
	if vp.Cutoff != 800 {
		t.Errorf("cutoff = %v", vp.Cutoff)
	}
	if vp.Resonance != 0.85 {
		t.Errorf("resonance = %v", vp.Resonance)
	}
	if !vp.MonoMode {
		t.Error("mono not set")
	}
	if vp.GlideTime != 0.06 {
		t.Errorf("glide = %v", vp.GlideTime)
	}
}

func TestParsePatch_JSONIsAccepted(t *testing.T) {
	src := `{"name": "from-json", "waveform": "sine", "cutoff": 1200.0}`
	p, err := ParsePatch([]byte(src))
	if err != nil {
		t.Fatalf("ParsePatch(json): %v", err)
	}
	if p.Waveform != "sine" || p.Cutoff != 1200 {
		t.Errorf("json patch decoded as %+v", p)
	}
}

func TestParsePatch_RangeViolationsError(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"cutoff too high", `cutoff: 99999.0`},
		{"negative attack", `attack: -0.5`},
		{"sustain above one", `sustain: 1.5`},
		{"unknown waveform", `waveform: "wobble"`},
		{"crush bits zero", `crush_bits: 0`},
		{"vowel out of range", `vowel: 7.0`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParsePatch([]byte(tc.src)); err == nil {
				t.Errorf("expected validation error for %q", tc.src)
			}
		})
	}
}

func TestPatch_ApplyReachesEngine(t *testing.T) {
	p, err := ParsePatch([]byte("waveform: \"noise\"\ncutoff: 333.0\nmono: true"))
	if err != nil {
		t.Fatalf("ParsePatch: %v", err)
	}

	e := NewVoiceEngine(44100, 4)
	p.Apply(e)

	got := e.Params()
	if got.Waveform != WAVE_NOISE || got.Cutoff != 333 || !got.MonoMode {
		t.Errorf("engine params after Apply: %+v", got)
	}
}

func TestLoadPatch_MissingFile(t *testing.T) {
	if _, err := LoadPatch(filepath.Join(t.TempDir(), "nope.cue")); err == nil {
		t.Error("expected error for missing patch file")
	}
}

func TestWatchPatch_DeliversOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.cue")
	if err := os.WriteFile(path, []byte(`name: "v1"`), 0o644); err != nil {
		t.Fatal(err)
	}

	patches := make(chan *Patch, 4)
	errs := make(chan error, 4)
	done := make(chan struct{})
	defer close(done)

	if err := WatchPatch(path, patches, errs, done); err != nil {
		t.Fatalf("WatchPatch: %v", err)
	}

	if err := os.WriteFile(path, []byte("name: \"v2\"\ncutoff: 900.0"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case p := <-patches:
		if p.Name != "v2" || p.Cutoff != 900 {
			t.Errorf("reloaded patch = %+v", p)
		}
	case err := <-errs:
		t.Fatalf("watch error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("no patch delivered after write")
	}
}

func TestWatchPatch_InvalidEditReportsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.cue")
	if err := os.WriteFile(path, []byte(`name: "ok"`), 0o644); err != nil {
		t.Fatal(err)
	}

	patches := make(chan *Patch, 4)
	errs := make(chan error, 4)
	done := make(chan struct{})
	defer close(done)

	if err := WatchPatch(path, patches, errs, done); err != nil {
		t.Fatalf("WatchPatch: %v", err)
	}

	if err := os.WriteFile(path, []byte(`cutoff: 99999.0`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-errs:
		if err == nil {
			t.Error("nil error delivered")
		}
	case p := <-patches:
		t.Fatalf("invalid patch delivered: %+v", p)
	case <-time.After(5 * time.Second):
		t.Fatal("no error delivered after invalid write")
	}
}

func TestPatchSchema_BoundsMatchEngineClamps(t *testing.T) {
	// The schema repeats the engine's clamp ranges as CUE literals. Probe
	// each boundary from both sides so a drift between patch.go and
	// synth_constants.go fails here instead of silently desynchronizing
	// validation from clamping.
	accept := []struct {
		name string
		src  string
	}{
		{"cutoff max", fmt.Sprintf("cutoff: %.4f", float64(MAX_FILTER_CUTOFF))},
		{"cutoff min", fmt.Sprintf("cutoff: %.4f", float64(MIN_FILTER_CUTOFF))},
		{"attack min", fmt.Sprintf("attack: %.4f", float64(MIN_ENV_TIME))},
		{"release max", fmt.Sprintf("release: %.4f", float64(MAX_ENV_TIME))},
		{"pulse width min", fmt.Sprintf("pulse_width: %.4f", float64(MIN_PULSE_WIDTH))},
		{"pulse width max", fmt.Sprintf("pulse_width: %.4f", float64(MAX_PULSE_WIDTH))},
		{"fm ratio min", fmt.Sprintf("fm_ratio: %.4f", float64(MIN_FM_RATIO))},
		{"fm ratio max", fmt.Sprintf("fm_ratio: %.4f", float64(MAX_FM_RATIO))},
	}
	reject := []struct {
		name string
		src  string
	}{
		{"cutoff above max", fmt.Sprintf("cutoff: %.4f", float64(MAX_FILTER_CUTOFF)+1)},
		{"cutoff below min", fmt.Sprintf("cutoff: %.4f", float64(MIN_FILTER_CUTOFF)-1)},
		{"attack below min", fmt.Sprintf("attack: %.4f", float64(MIN_ENV_TIME)/2)},
		{"release above max", fmt.Sprintf("release: %.4f", float64(MAX_ENV_TIME)+1)},
		{"pulse width below min", fmt.Sprintf("pulse_width: %.4f", float64(MIN_PULSE_WIDTH)/2)},
		{"fm ratio above max", fmt.Sprintf("fm_ratio: %.4f", float64(MAX_FM_RATIO)+1)},
	}

	for _, tc := range accept {
		t.Run("accept "+tc.name, func(t *testing.T) {
			if _, err := ParsePatch([]byte(tc.src)); err != nil {
				t.Errorf("boundary value rejected: %q: %v", tc.src, err)
			}
		})
	}
	for _, tc := range reject {
		t.Run("reject "+tc.name, func(t *testing.T) {
			if _, err := ParsePatch([]byte(tc.src)); err == nil {
				t.Errorf("out-of-range value accepted: %q", tc.src)
			}
		})
	}
}
