package gsm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	ac "github.com/dh1tw/remoteCodec/audiocodec"
	"github.com/dh1tw/remoteCodec/audiocodec/codectest"
)

func TestContract(t *testing.T) {
	c := codectest.New(t, New)
	codectest.Contract(t, ac.GSM0610, c)
}

func TestRejectsPartialFrames(t *testing.T) {
	c := codectest.New(t, New)
	defer c.Close()

	_, err := c.Encode(make([]byte, 318))
	assert.ErrorIs(t, err, ac.ErrInvalidLength)

	_, err = c.Decode(make([]byte, 32))
	assert.ErrorIs(t, err, ac.ErrInvalidLength)
}

func TestUseAfterClose(t *testing.T) {
	c := codectest.New(t, New)
	c.Close()

	_, err := c.Encode(codectest.Tone(160))
	assert.Error(t, err)
}
