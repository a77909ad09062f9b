package codectest

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dh1tw/remoteCodec/audio"
	"github.com/dh1tw/remoteCodec/audiocodec"
	"github.com/dh1tw/remoteCodec/native"
)

// Tone returns a 440 Hz sine of the given number of samples at 8 kHz.
func Tone(samples int) []byte {
	s := make([]int16, samples)
	for i := range s {
		s[i] = int16(8000 * math.Sin(2*math.Pi*440*float64(i)/8000))
	}
	return audio.Bytes(s)
}

// New creates a codec with f and skips the test if the shared library of
// the backend is not installed.
func New(t *testing.T, f audiocodec.Factory, opts ...audiocodec.Option) audiocodec.Codec {
	t.Helper()
	c, err := f(opts...)
	if errors.Is(err, native.ErrNotFound) {
		t.Skipf("codec library not installed: %v", err)
	}
	require.NoError(t, err)
	return c
}

// Contract checks that a codec produces the output lengths its descriptor
// predicts for every frame mode and that Close can be called twice.
func Contract(t *testing.T, kind audiocodec.Kind, c audiocodec.Codec) {
	t.Helper()

	d, err := audiocodec.Lookup(kind)
	require.NoError(t, err)

	for _, m := range d.Modes {
		samples := m.Samples
		if d.Framing == audiocodec.FramingMultiple || d.Framing == audiocodec.FramingStream {
			// a few whole frames
			samples = m.Samples * 3
			if m.Samples == 1 {
				samples = 160
			}
		}
		pcm := Tone(samples)
		require.NoError(t, d.ValidateEncode(len(pcm)))

		data, err := c.Encode(pcm)
		require.NoError(t, err, "encode %d bytes", len(pcm))
		if l, ok := d.EncodedLen(len(pcm)); ok {
			assert.Len(t, data, l, "encode %d bytes", len(pcm))
		} else {
			assert.NotEmpty(t, data)
			assert.LessOrEqual(t, len(data), d.MaxEncodedLen(len(pcm)))
		}

		require.NoError(t, d.ValidateDecode(len(data)))
		out, err := c.Decode(data)
		require.NoError(t, err, "decode %d bytes", len(data))
		if l, ok := d.DecodedLen(len(data)); ok {
			assert.Len(t, out, l, "decode %d bytes", len(data))
		} else {
			assert.NotEmpty(t, out)
			assert.LessOrEqual(t, len(out), d.MaxDecodedLen(len(data)))
		}
	}

	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}
