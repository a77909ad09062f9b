// Package lpc10 is the LPC-10 2400 bit/s vocoder backend, based on
// libspandsp. Every 180 samples (22.5 ms) are coded into 7 bytes; samples
// which do not fill a whole frame are dropped.
package lpc10

import (
	"sync"

	"github.com/dh1tw/remoteCodec/audio"
	ac "github.com/dh1tw/remoteCodec/audiocodec"
	"github.com/dh1tw/remoteCodec/native"
)

// Codec holds an LPC-10 encoder and decoder state.
type Codec struct {
	sync.Mutex
	lib  *native.SpanDSP
	desc *ac.Descriptor
	enc  uintptr
	dec  uintptr
}

// New creates an LPC-10 codec. The ErrorCorrection option enables the
// Hamming protection of the bit stream. It satisfies audiocodec.Factory.
func New(opts ...ac.Option) (ac.Codec, error) {
	o := ac.Options{}
	for _, option := range opts {
		option(&o)
	}

	lib, err := native.LoadSpanDSP()
	if err != nil {
		return nil, ac.BackendError("lpc10 init", err)
	}
	desc, err := ac.Lookup(ac.LPC10)
	if err != nil {
		return nil, err
	}

	enc := lib.LPC10EncodeInit(0, o.ErrorCorrection)
	if enc == 0 {
		return nil, ac.NewError(ac.CodeBackendFailure, "lpc10 init", "lpc10_encode_init failed")
	}
	dec := lib.LPC10DecodeInit(0, o.ErrorCorrection)
	if dec == 0 {
		lib.LPC10EncodeFree(enc)
		return nil, ac.NewError(ac.CodeBackendFailure, "lpc10 init", "lpc10_decode_init failed")
	}

	return &Codec{
		lib:  lib,
		desc: desc,
		enc:  enc,
		dec:  dec,
	}, nil
}

// Name returns the name of the audio codec
func (c *Codec) Name() string {
	return c.desc.Name
}

// Encode all whole frames of the PCM buffer.
func (c *Codec) Encode(pcm []byte) ([]byte, error) {
	if err := c.desc.ValidateEncode(len(pcm)); err != nil {
		return nil, err
	}

	c.Lock()
	defer c.Unlock()
	if c.enc == 0 {
		return nil, ac.NewError(ac.CodeUninitializedSession, "encode", "lpc10 codec closed")
	}

	frame := c.desc.Modes[0]
	frames := len(pcm) / frame.PCMBytes()
	amp := audio.Int16s(pcm[:frames*frame.PCMBytes()])
	out := make([]byte, c.desc.MaxEncodedLen(len(pcm)))

	n := c.lib.LPC10Encode(c.enc, &out[0], &amp[0], int32(len(amp)))
	if int(n) != len(out) {
		return nil, ac.NewError(ac.CodeBackendFailure, "encode",
			"lpc10_encode returned %d bytes, expected %d", n, len(out))
	}
	return out, nil
}

// Decode all whole 7 byte frames of the buffer.
func (c *Codec) Decode(data []byte) ([]byte, error) {
	if err := c.desc.ValidateDecode(len(data)); err != nil {
		return nil, err
	}

	c.Lock()
	defer c.Unlock()
	if c.dec == 0 {
		return nil, ac.NewError(ac.CodeUninitializedSession, "decode", "lpc10 codec closed")
	}

	frame := c.desc.Modes[0]
	frames := len(data) / frame.EncodedBytes
	amp := make([]int16, c.desc.MaxDecodedLen(len(data))/ac.BytesPerSample)

	n := c.lib.LPC10Decode(c.dec, &amp[0], &data[0], int32(frames*frame.EncodedBytes))
	if int(n) != len(amp) {
		return nil, ac.NewError(ac.CodeBackendFailure, "decode",
			"lpc10_decode returned %d samples, expected %d", n, len(amp))
	}
	return audio.Bytes(amp), nil
}

// Close frees the session's own encoder and decoder state.
func (c *Codec) Close() error {
	c.Lock()
	defer c.Unlock()
	if c.enc != 0 {
		c.lib.LPC10EncodeFree(c.enc)
		c.enc = 0
	}
	if c.dec != 0 {
		c.lib.LPC10DecodeFree(c.dec)
		c.dec = 0
	}
	return nil
}
