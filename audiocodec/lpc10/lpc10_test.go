package lpc10

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ac "github.com/dh1tw/remoteCodec/audiocodec"
	"github.com/dh1tw/remoteCodec/audiocodec/codectest"
)

func TestContract(t *testing.T) {
	codectest.Contract(t, ac.LPC10, codectest.New(t, New))
}

func TestErrorCorrection(t *testing.T) {
	codectest.Contract(t, ac.LPC10, codectest.New(t, New, ac.ErrorCorrection(true)))
}

func TestPartialFrameDropped(t *testing.T) {
	c := codectest.New(t, New)
	defer c.Close()

	data, err := c.Encode(codectest.Tone(2*180 + 50))
	require.NoError(t, err)
	assert.Len(t, data, 14)

	pcm, err := c.Decode(append(data, 1, 2, 3))
	require.NoError(t, err)
	assert.Len(t, pcm, 720)

	_, err = c.Encode(codectest.Tone(179))
	assert.ErrorIs(t, err, ac.ErrInvalidLength)
}
