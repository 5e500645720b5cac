// patch.go - CUE-validated synth patch files

package isynth

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// patchSchema constrains every field to its legal range and fills defaults
// for anything a patch omits. CUE is a JSON superset, so plain .json patches
// load through the same path.
const patchSchema = `
#Patch: {
	name: string | *"init"

	// VCO
	waveform:    "sine" | "triangle" | "saw" | "pulse" | "noise" | *"saw"
	tune:        float & >=-24 & <=24 | *0.0
	fine:        float & >=-100 & <=100 | *0.0
	pulse_width: float & >=0.05 & <=0.95 | *0.5
	sub_level:   float & >=0 & <=1 | *0.0
	sync:        bool | *false
	fm_amount:   float & >=0 & <=1 | *0.0
	fm_ratio:    float & >=0.25 & <=8 | *1.0
	ring_mod:    float & >=0 & <=1 | *0.0
	glide:       float & >=0 & <=10 | *0.0
	mono:        bool | *false

	// VCO modulation
	osc_fm_source: "off" | "lfo" | "env" | *"off"
	osc_fm_amount: float & >=0 & <=1 | *0.0
	pwm_source:    "off" | "lfo" | "env" | *"off"
	pwm_amount:    float & >=0 & <=1 | *0.0

	// VCF
	filter:            "svf_lp" | "svf_bp" | "svf_hp" | "ladder" | "formant" | *"svf_lp"
	cutoff:            float & >=20 & <=20000 | *5000.0
	resonance:         float & >=0 & <=1 | *0.0
	tracking:          "off" | "half" | "full" | *"off"
	filter_mod_source: "off" | "lfo" | "env" | *"env"
	filter_mod_amount: float & >=-1 & <=1 | *0.5
	vowel:             float & >=0 & <=5 | *0.0
	formant_shift:     float & >=-24 & <=24 | *0.0

	// VCA
	vca_source:        "off" | "lfo" | "env" | *"env"
	vca_initial_level: float & >=0 & <=1 | *1.0

	// ADSR
	attack:  float & >=0.001 & <=10 | *0.01
	decay:   float & >=0.001 & <=10 | *0.1
	sustain: float & >=0 & <=1 | *0.7
	release: float & >=0.001 & <=10 | *0.3

	// LFOs
	lfo1_rate:     float & >=0 & <=1 | *0.5
	lfo1_waveform: "triangle" | "pulse" | "off" | *"triangle"
	lfo1_range:    "low" | "med" | "high" | *"low"
	lfo2_rate:     float & >=0 & <=1 | *0.5
	lfo2_waveform: "triangle" | "pulse" | "off" | *"triangle"
	lfo2_range:    "low" | "med" | "high" | *"low"

	// Lo-fi
	crush_bits:  int & >=1 & <=16 | *16
	rate_reduce: float & >=0 & <=1 | *0.0

	// Output
	master_level: float & >=0 & <=2 | *0.8
}
`

// Patch is a validated parameter set as decoded from a patch file.
type Patch struct {
	Name string `json:"name"`

	Waveform   string  `json:"waveform"`
	Tune       float64 `json:"tune"`
	Fine       float64 `json:"fine"`
	PulseWidth float64 `json:"pulse_width"`
	SubLevel   float64 `json:"sub_level"`
	Sync       bool    `json:"sync"`
	FMAmount   float64 `json:"fm_amount"`
	FMRatio    float64 `json:"fm_ratio"`
	RingMod    float64 `json:"ring_mod"`
	Glide      float64 `json:"glide"`
	Mono       bool    `json:"mono"`

	OscFMSource string  `json:"osc_fm_source"`
	OscFMAmount float64 `json:"osc_fm_amount"`
	PWMSource   string  `json:"pwm_source"`
	PWMAmount   float64 `json:"pwm_amount"`

	Filter          string  `json:"filter"`
	Cutoff          float64 `json:"cutoff"`
	Resonance       float64 `json:"resonance"`
	Tracking        string  `json:"tracking"`
	FilterModSource string  `json:"filter_mod_source"`
	FilterModAmount float64 `json:"filter_mod_amount"`
	Vowel           float64 `json:"vowel"`
	FormantShift    float64 `json:"formant_shift"`

	VCASource       string  `json:"vca_source"`
	VCAInitialLevel float64 `json:"vca_initial_level"`

	Attack  float64 `json:"attack"`
	Decay   float64 `json:"decay"`
	Sustain float64 `json:"sustain"`
	Release float64 `json:"release"`

	LFO1Rate     float64 `json:"lfo1_rate"`
	LFO1Waveform string  `json:"lfo1_waveform"`
	LFO1Range    string  `json:"lfo1_range"`
	LFO2Rate     float64 `json:"lfo2_rate"`
	LFO2Waveform string  `json:"lfo2_waveform"`
	LFO2Range    string  `json:"lfo2_range"`

	CrushBits  int     `json:"crush_bits"`
	RateReduce float64 `json:"rate_reduce"`

	MasterLevel float64 `json:"master_level"`
}

// LoadPatch reads, validates and decodes a patch file. Any value outside
// its legal range fails validation with a CUE error naming the field.
func LoadPatch(path string) (*Patch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read patch %s: %w", path, err)
	}
	p, err := ParsePatch(data)
	if err != nil {
		return nil, fmt.Errorf("patch %s: %w", path, err)
	}
	return p, nil
}

// ParsePatch validates patch source against the schema and decodes it.
func ParsePatch(data []byte) (*Patch, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(patchSchema)
	if schema.Err() != nil {
		return nil, fmt.Errorf("compile schema: %w", schema.Err())
	}
	def := schema.LookupPath(cue.ParsePath("#Patch"))

	val := ctx.CompileString(string(data))
	if val.Err() != nil {
		return nil, fmt.Errorf("parse: %w", val.Err())
	}

	unified := def.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validate: %w", err)
	}

	var p Patch
	if err := unified.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return &p, nil
}

func patchWaveform(s string) OscWaveform {
	switch s {
	case "sine":
		return WAVE_SINE
	case "triangle":
		return WAVE_TRIANGLE
	case "pulse":
		return WAVE_PULSE
	case "noise":
		return WAVE_NOISE
	default:
		return WAVE_SAW
	}
}

func patchModSource(s string) ModSource {
	switch s {
	case "lfo":
		return MOD_LFO
	case "env":
		return MOD_ENV
	default:
		return MOD_OFF
	}
}

func patchFilterType(s string) FilterType {
	switch s {
	case "svf_bp":
		return FILTER_SVF_BP
	case "svf_hp":
		return FILTER_SVF_HP
	case "ladder":
		return FILTER_LADDER
	case "formant":
		return FILTER_FORMANT
	default:
		return FILTER_SVF_LP
	}
}

func patchLFOWaveform(s string) LFOWaveform {
	switch s {
	case "triangle":
		return LFO_TRIANGLE
	case "pulse":
		return LFO_PULSE
	default:
		return LFO_OFF
	}
}

func patchLFORange(s string) LFORange {
	switch s {
	case "med":
		return LFO_RANGE_MED
	case "high":
		return LFO_RANGE_HIGH
	default:
		return LFO_RANGE_LOW
	}
}

func patchTracking(s string) TrackingMode {
	switch s {
	case "half":
		return TRACK_HALF
	case "full":
		return TRACK_FULL
	default:
		return TRACK_OFF
	}
}

// Params converts the patch to an engine parameter set.
func (p *Patch) Params() VoiceParams {
	vp := DefaultVoiceParams()

	vp.Waveform = patchWaveform(p.Waveform)
	vp.Tune = float32(p.Tune)
	vp.Fine = float32(p.Fine)
	vp.PulseWidth = float32(p.PulseWidth)
	vp.SubLevel = float32(p.SubLevel)
	vp.SyncEnable = p.Sync
	vp.FMAmount = float32(p.FMAmount)
	vp.FMRatio = float32(p.FMRatio)
	vp.RingMod = float32(p.RingMod)
	vp.GlideTime = float32(p.Glide)
	vp.MonoMode = p.Mono

	vp.OscFMSource = patchModSource(p.OscFMSource)
	vp.OscFMAmount = float32(p.OscFMAmount)
	vp.PWMSource = patchModSource(p.PWMSource)
	vp.PWMAmount = float32(p.PWMAmount)

	vp.FilterType = patchFilterType(p.Filter)
	vp.Cutoff = float32(p.Cutoff)
	vp.Resonance = float32(p.Resonance)
	vp.Tracking = patchTracking(p.Tracking)
	vp.FilterModSource = patchModSource(p.FilterModSource)
	vp.FilterModAmount = float32(p.FilterModAmount)
	vp.Vowel = float32(p.Vowel)
	vp.FormantShift = float32(p.FormantShift)

	vp.VCASource = patchModSource(p.VCASource)
	vp.VCAInitialLevel = float32(p.VCAInitialLevel)

	vp.Attack = float32(p.Attack)
	vp.Decay = float32(p.Decay)
	vp.Sustain = float32(p.Sustain)
	vp.Release = float32(p.Release)

	vp.LFO1Rate = float32(p.LFO1Rate)
	vp.LFO1Waveform = patchLFOWaveform(p.LFO1Waveform)
	vp.LFO1Range = patchLFORange(p.LFO1Range)
	vp.LFO2Rate = float32(p.LFO2Rate)
	vp.LFO2Waveform = patchLFOWaveform(p.LFO2Waveform)
	vp.LFO2Range = patchLFORange(p.LFO2Range)

	vp.CrushBits = p.CrushBits
	vp.RateReduce = float32(p.RateReduce)
	vp.MasterLevel = float32(p.MasterLevel)

	return vp
}

// Apply pushes the patch onto an engine as one atomic parameter snapshot.
func (p *Patch) Apply(engine *VoiceEngine) {
	engine.SetParams(p.Params())
}
