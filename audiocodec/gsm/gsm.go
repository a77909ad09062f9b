// Package gsm is the GSM 06.10 full rate backend, based on libspandsp.
// Frames are packed in the 33 byte VoIP (RFC 3551) format.
package gsm

import (
	"sync"

	"github.com/dh1tw/remoteCodec/audio"
	ac "github.com/dh1tw/remoteCodec/audiocodec"
	"github.com/dh1tw/remoteCodec/native"
)

// Codec holds a GSM 06.10 encoder and decoder state.
type Codec struct {
	sync.Mutex
	lib  *native.SpanDSP
	desc *ac.Descriptor
	enc  uintptr
	dec  uintptr
}

// New creates a GSM 06.10 codec. It satisfies audiocodec.Factory.
func New(opts ...ac.Option) (ac.Codec, error) {
	lib, err := native.LoadSpanDSP()
	if err != nil {
		return nil, ac.BackendError("gsm init", err)
	}
	desc, err := ac.Lookup(ac.GSM0610)
	if err != nil {
		return nil, err
	}

	enc := lib.GSM0610Init(0, native.GSM0610PackingVoIP)
	if enc == 0 {
		return nil, ac.NewError(ac.CodeBackendFailure, "gsm init", "gsm0610_init (encoder) failed")
	}
	dec := lib.GSM0610Init(0, native.GSM0610PackingVoIP)
	if dec == 0 {
		lib.GSM0610Free(enc)
		return nil, ac.NewError(ac.CodeBackendFailure, "gsm init", "gsm0610_init (decoder) failed")
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

// Encode one 20 ms frame.
func (c *Codec) Encode(pcm []byte) ([]byte, error) {
	if err := c.desc.ValidateEncode(len(pcm)); err != nil {
		return nil, err
	}

	c.Lock()
	defer c.Unlock()
	if c.enc == 0 {
		return nil, ac.NewError(ac.CodeUninitializedSession, "encode", "gsm codec closed")
	}

	samples := audio.Int16s(pcm)
	out := make([]byte, c.desc.MaxEncodedLen(len(pcm)))

	n := c.lib.GSM0610Encode(c.enc, &out[0], &samples[0], int32(len(samples)))
	if int(n) != len(out) {
		return nil, ac.NewError(ac.CodeBackendFailure, "encode",
			"gsm0610_encode returned %d bytes, expected %d", n, len(out))
	}
	return out, nil
}

// Decode one 33 byte frame.
func (c *Codec) Decode(data []byte) ([]byte, error) {
	if err := c.desc.ValidateDecode(len(data)); err != nil {
		return nil, err
	}

	c.Lock()
	defer c.Unlock()
	if c.dec == 0 {
		return nil, ac.NewError(ac.CodeUninitializedSession, "decode", "gsm codec closed")
	}

	amp := make([]int16, c.desc.MaxDecodedLen(len(data))/ac.BytesPerSample)

	n := c.lib.GSM0610Decode(c.dec, &amp[0], &data[0], int32(len(data)))
	if int(n) != len(amp) {
		return nil, ac.NewError(ac.CodeBackendFailure, "decode",
			"gsm0610_decode returned %d samples, expected %d", n, len(amp))
	}
	return audio.Bytes(amp), nil
}

// Close frees the encoder and decoder state.
func (c *Codec) Close() error {
	c.Lock()
	defer c.Unlock()
	if c.enc != 0 {
		c.lib.GSM0610Free(c.enc)
		c.enc = 0
	}
	if c.dec != 0 {
		c.lib.GSM0610Free(c.dec)
		c.dec = 0
	}
	return nil
}
