package audiocodec

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorIs(t *testing.T) {
	err := NewError(CodeInvalidLength, "encode", "gsm expects 320 bytes of PCM, got %d", 12)

	assert.ErrorIs(t, err, ErrInvalidLength)
	assert.False(t, errors.Is(err, ErrBackendFailure))
	assert.Equal(t, "encode: invalid payload length: gsm expects 320 bytes of PCM, got 12", err.Error())

	wrapped := fmt.Errorf("session abc: %w", err)
	assert.ErrorIs(t, wrapped, ErrInvalidLength)
	assert.Equal(t, CodeInvalidLength, CodeOf(wrapped))
}

func TestBackendError(t *testing.T) {
	assert.NoError(t, BackendError("encode", nil))

	cause := errors.New("g726_init returned NULL")
	err := BackendError("setup", cause)
	assert.ErrorIs(t, err, ErrBackendFailure)
	assert.ErrorIs(t, err, cause)
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, CodeOK, CodeOf(nil))
	assert.Equal(t, CodeBackendFailure, CodeOf(errors.New("boom")))
	assert.Equal(t, CodeSessionBusy, CodeOf(ErrSessionBusy))
}

func TestFromCode(t *testing.T) {
	assert.NoError(t, FromCode(CodeOK, "ignored"))

	err := FromCode(CodeUnsupportedRate, "resample: unsupported sample rate: code 7")
	assert.ErrorIs(t, err, ErrUnsupportedRate)
	assert.Equal(t, "resample: unsupported sample rate: code 7", err.Error())

	err = FromCode(CodeSessionNotFound, "")
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.Equal(t, "session not found", err.Error())
}

func TestCodeNames(t *testing.T) {
	for c := CodeOK; c <= CodeTooManySessions; c++ {
		parsed, ok := ParseCode(c.String())
		assert.True(t, ok, c.String())
		assert.Equal(t, c, parsed)
	}
	assert.Equal(t, "Code(99)", Code(99).String())
}
