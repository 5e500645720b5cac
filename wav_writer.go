// wav_writer.go - Offline bounce of any stereo source to a 16-bit WAV file

package isynth

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// BounceWAV renders seconds of audio from src into a 16-bit stereo WAV file
// at path. The source is pulled in RENDER_BLOCK_SIZE chunks exactly as a
// live backend would, so the bounce is sample-identical to realtime output.
func BounceWAV(path string, src StereoRenderer, sampleRate int, seconds float64) error {
	if seconds <= 0 {
		return fmt.Errorf("bounce length must be positive, got %v", seconds)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 2, 1)

	totalFrames := int(seconds * float64(sampleRate))
	left := make([]float32, RENDER_BLOCK_SIZE)
	right := make([]float32, RENDER_BLOCK_SIZE)

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: sampleRate},
		SourceBitDepth: 16,
		Data:           make([]int, RENDER_BLOCK_SIZE*2),
	}

	written := 0
	for written < totalFrames {
		frames := totalFrames - written
		if frames > RENDER_BLOCK_SIZE {
			frames = RENDER_BLOCK_SIZE
		}

		src.Render(left[:frames], right[:frames])

		data := buf.Data[:frames*2]
		for i := 0; i < frames; i++ {
			data[2*i] = pcm16(left[i])
			data[2*i+1] = pcm16(right[i])
		}
		buf.Data = data

		if err := enc.Write(buf); err != nil {
			return fmt.Errorf("write wav: %w", err)
		}
		written += frames
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize wav: %w", err)
	}
	return nil
}

// pcm16 converts a float sample to a clamped signed 16-bit value.
func pcm16(s float32) int {
	if s > MAX_SAMPLE {
		s = MAX_SAMPLE
	} else if s < MIN_SAMPLE {
		s = MIN_SAMPLE
	}
	return int(s * 32767.0)
}
