package ilbc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ac "github.com/dh1tw/remoteCodec/audiocodec"
	"github.com/dh1tw/remoteCodec/audiocodec/codectest"
)

func TestContract(t *testing.T) {
	codectest.Contract(t, ac.ILBC, codectest.New(t, New))
}

func TestInterleavedFrameModes(t *testing.T) {
	c := codectest.New(t, New)
	defer c.Close()

	for i := 0; i < 5; i++ {
		d20, err := c.Encode(codectest.Tone(160))
		require.NoError(t, err)
		assert.Len(t, d20, 38)

		d30, err := c.Encode(codectest.Tone(240))
		require.NoError(t, err)
		assert.Len(t, d30, 50)

		p30, err := c.Decode(d30)
		require.NoError(t, err)
		assert.Len(t, p30, 480)

		p20, err := c.Decode(d20)
		require.NoError(t, err)
		assert.Len(t, p20, 320)
	}
}

func TestInvalidLengths(t *testing.T) {
	c := codectest.New(t, New)
	defer c.Close()

	_, err := c.Encode(make([]byte, 400))
	assert.ErrorIs(t, err, ac.ErrInvalidLength)
	_, err = c.Decode(make([]byte, 40))
	assert.ErrorIs(t, err, ac.ErrInvalidLength)
}
