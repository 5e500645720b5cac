// synth_constants.go - Voice engine constants and parameter ranges

package isynth

import "math"

// Block sizes. The engine renders host buffers in RENDER_BLOCK_SIZE chunks
// (note events and parameter snapshots apply at these boundaries) and each
// voice runs its control-rate work once per VOICE_BLOCK_SIZE samples.
const (
	RENDER_BLOCK_SIZE = 64
	VOICE_BLOCK_SIZE  = 32
)

// Voice pool limits
const (
	MAX_VOICES     = 16 // Hard cap on pool size
	DEFAULT_VOICES = 4  // A-111-5 module count
	MONO_STACK_MAX = 16 // Held-note memory in mono mode
)

// Sample rate bounds
const (
	DEFAULT_SAMPLE_RATE = 44100
	MIN_SAMPLE_RATE     = 8000
	MAX_SAMPLE_RATE     = 192000
)

// Tuning
const (
	A4_FREQ = 440.0
	A4_NOTE = 69
)

// Envelope ranges (seconds)
const (
	MIN_ENV_TIME = 0.001
	MAX_ENV_TIME = 10.0
)

// Filter ranges (Hz)
const (
	MIN_FILTER_CUTOFF = 20.0
	MAX_FILTER_CUTOFF = 20000.0
)

// LFO rate ranges (Hz) per range switch position
const (
	LFO_LOW_MIN  = 0.05
	LFO_LOW_MAX  = 5.0
	LFO_MED_MIN  = 0.5
	LFO_MED_MAX  = 50.0
	LFO_HIGH_MIN = 5.0
	LFO_HIGH_MAX = 5000.0
)

// Oscillator ranges
const (
	MIN_PULSE_WIDTH = 0.05
	MAX_PULSE_WIDTH = 0.95
	MIN_FM_RATIO    = 0.25
	MAX_FM_RATIO    = 8.0
	NOISE_LFSR_SEED = 0x7FFFF8 // 23-bit LFSR initial state
)

// Modulation depths
const (
	OSC_FM_RANGE_SEMIS  = 24.0    // Osc frequency mod sweep, +/- semitones
	PWM_MOD_RANGE       = 0.4     // Pulse width mod sweep
	FILTER_LFO_RANGE_HZ = 5000.0  // Filter cutoff sweep from LFO
	FILTER_ENV_RANGE_HZ = 10000.0 // Filter cutoff sweep from envelope
	KEY_TRACK_HALF_HZ   = 50.0    // Cutoff per semitone from middle C, half tracking
	KEY_TRACK_FULL_HZ   = 100.0   // Cutoff per semitone from middle C, full tracking
	KEY_TRACK_CENTER    = 60      // Middle C
)

// Output stage
const (
	DEFAULT_MASTER_LEVEL = 0.8
	MIN_MASTER_DB        = -60.0
	MAX_MASTER_DB        = 6.0
)

// Sample bounds
const (
	MAX_SAMPLE = 1.0
	MIN_SAMPLE = -1.0
)

// Numeric guards
const (
	DENORMAL_LIMIT = 1e-15  // Recursive filter state below this flushes to zero
	SILENCE_FLOOR  = 0.001  // Envelope level treated as silence
	DRUM_AMP_FLOOR = 0.0001 // One-shot drum voice end-of-life level
)

const TWO_PI = float32(2 * math.Pi)
