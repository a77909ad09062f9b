// Package audio contains helpers for 16 bit linear PCM buffers as they are
// exchanged with the codecs: conversions between byte, int16 and float32
// representations, channel adjustment, level measurement and WAV file IO.
package audio

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/chewxy/math32"
)

// PCM is a buffer of interleaved 16 bit signed little endian samples.
type PCM struct {
	Data       []byte
	Samplerate int
	Channels   int
}

// Frames returns the number of frames (samples per channel) in the buffer.
func (p PCM) Frames() int {
	if p.Channels <= 0 {
		return 0
	}
	return len(p.Data) / (2 * p.Channels)
}

// Int16s converts little endian PCM bytes into samples. A trailing odd
// byte is ignored.
func Int16s(b []byte) []int16 {
	s := make([]int16, len(b)/2)
	for i := range s {
		s[i] = int16(binary.LittleEndian.Uint16(b[i*2:]))
	}
	return s
}

// Bytes converts samples into little endian PCM bytes.
func Bytes(s []int16) []byte {
	b := make([]byte, len(s)*2)
	for i, v := range s {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(v))
	}
	return b
}

// Float32s converts little endian PCM bytes into float samples with the
// same scale as the integer samples (-32768 ... 32767).
func Float32s(b []byte) []float32 {
	f := make([]float32, len(b)/2)
	for i := range f {
		f[i] = float32(int16(binary.LittleEndian.Uint16(b[i*2:])))
	}
	return f
}

// FromFloat32s rounds float samples (-32768 ... 32767 scale) to the
// nearest integer and clamps them to the int16 range.
func FromFloat32s(f []float32) []byte {
	b := make([]byte, len(f)*2)
	for i, v := range f {
		binary.LittleEndian.PutUint16(b[i*2:], uint16(clamp16(v)))
	}
	return b
}

func clamp16(v float32) int16 {
	r := math.Floor(float64(v) + 0.5)
	switch {
	case r > math.MaxInt16:
		return math.MaxInt16
	case r < math.MinInt16:
		return math.MinInt16
	}
	return int16(r)
}

// AdjustChannels converts interleaved samples between mono and stereo.
// Other channel counts are returned unchanged.
func AdjustChannels(iChs, oChs int, frames []int16) []int16 {
	// mono -> stereo
	if iChs == 1 && oChs == 2 {
		res := make([]int16, 0, len(frames)*2)
		// left channel = right channel
		for _, frame := range frames {
			res = append(res, frame, frame)
		}
		return res
	}

	// stereo -> mono
	if iChs == 2 && oChs == 1 {
		res := make([]int16, 0, len(frames)/2)
		for i := 0; i+1 < len(frames); i += 2 {
			res = append(res, int16((int32(frames[i])+int32(frames[i+1]))/2))
		}
		return res
	}

	return frames
}

// RMS returns the root mean square of the samples, normalized to 1.0 for
// a full scale signal.
func RMS(samples []int16) (float32, error) {
	if len(samples) == 0 {
		return 0, fmt.Errorf("empty slice provided")
	}

	var sum float32
	for _, s := range samples {
		v := float32(s) / 32768
		sum = sum + v*v
	}
	sum = sum / float32(len(samples))

	return math32.Sqrt(sum), nil
}

// SNR returns the signal to noise ratio in dB of a degraded signal
// compared to its reference. Both slices are compared up to the length
// of the shorter one, after shifting the degraded signal by delay samples.
func SNR(ref, degraded []int16, delay int) (float32, error) {
	if delay < 0 || delay >= len(degraded) {
		return 0, fmt.Errorf("invalid delay %d", delay)
	}
	degraded = degraded[delay:]

	n := len(ref)
	if len(degraded) < n {
		n = len(degraded)
	}
	if n == 0 {
		return 0, fmt.Errorf("empty slice provided")
	}

	var sig, noise float32
	for i := 0; i < n; i++ {
		r := float32(ref[i]) / 32768
		d := float32(degraded[i]) / 32768
		sig += r * r
		noise += (r - d) * (r - d)
	}
	if noise == 0 {
		return math32.Inf(1), nil
	}
	if sig == 0 {
		return math32.Inf(-1), nil
	}

	return 10 * math32.Log10(sig/noise), nil
}
