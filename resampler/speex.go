package resampler

import (
	"fmt"

	oov "github.com/oov/audio/resampler"
)

// DefaultSpeexQuality is used when the quality is out of range.
const DefaultSpeexQuality = 4

// SpeexEngine is a pure Go port of the speex resampler. Quality ranges
// from 0 (fastest) to 10 (best).
type SpeexEngine struct {
	Quality int
}

// NewSpeexEngine returns a SpeexEngine with the given quality.
func NewSpeexEngine(quality int) *SpeexEngine {
	if quality < 0 || quality > 10 {
		quality = DefaultSpeexQuality
	}
	return &SpeexEngine{Quality: quality}
}

// Name implements Engine.
func (e *SpeexEngine) Name() string {
	return fmt.Sprintf("speex-%d", e.Quality)
}

// Resample implements Engine. The channels are converted one after the
// other; the result holds the frames which were produced for every channel.
func (e *SpeexEngine) Resample(in []float32, channels, fromRate, toRate, capacity int) ([]float32, error) {
	if channels <= 0 {
		return nil, fmt.Errorf("invalid channel count %d", channels)
	}

	frames := len(in) / channels
	outFrames := capacity / channels

	r := oov.New(channels, fromRate, toRate, e.Quality)

	src := make([]float32, frames)
	dst := make([]float32, outFrames)
	res := make([]float32, outFrames*channels)

	written := -1
	for ch := 0; ch < channels; ch++ {
		for i := 0; i < frames; i++ {
			src[i] = in[i*channels+ch]
		}

		n := 0
		for read := 0; read < frames && n < outFrames; {
			rd, wr := r.ProcessFloat32(ch, src[read:], dst[n:])
			if rd == 0 && wr == 0 {
				break
			}
			read += rd
			n += wr
		}

		for i := 0; i < n; i++ {
			res[i*channels+ch] = dst[i]
		}
		if written < 0 || n < written {
			written = n
		}
	}

	return res[:written*channels], nil
}
