// music_interfaces.go - Common interfaces for renderable sources and song players

package isynth

// StereoRenderer is implemented by anything that can fill a stereo block:
// the voice engine, the drum kit, and the song players. Audio backends pull
// from a StereoRenderer on their own schedule.
type StereoRenderer interface {
	// Render fills both channels with the next len(left) samples.
	Render(left, right []float32)
}

// MusicPlayer is implemented by song players (SMF, Lua scripts). Provides a
// common interface for playback control.
type MusicPlayer interface {
	// Load loads a song from the given path
	Load(path string) error
	// LoadData loads song data from a byte slice
	LoadData(data []byte) error
	// Play starts playback
	Play()
	// Stop stops playback and silences the engine
	Stop()
	// IsPlaying returns true if currently playing
	IsPlaying() bool
	// DurationSeconds returns the duration in seconds (0 if unknown)
	DurationSeconds() float64
	// DurationText returns a formatted duration string (e.g., "3:45")
	DurationText() string
}
