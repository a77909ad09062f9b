// Package ilbc is the iLBC backend, based on libilbc. A codec holds a 20 ms
// and a 30 ms encoder/decoder pair at the same time; the frame mode of a
// call is selected by the length of its payload.
package ilbc

import (
	"fmt"
	"sync"

	"github.com/dh1tw/remoteCodec/audio"
	ac "github.com/dh1tw/remoteCodec/audiocodec"
	"github.com/dh1tw/remoteCodec/native"
)

// instance is the encoder and decoder of one frame mode.
type instance struct {
	ms  int16
	enc uintptr
	dec uintptr
}

// Codec holds the iLBC instances of both frame modes.
type Codec struct {
	sync.Mutex
	lib  *native.ILBC
	desc *ac.Descriptor
	// keyed by the frame length in samples
	instances map[int]*instance
}

// New creates an iLBC codec. It satisfies audiocodec.Factory.
func New(opts ...ac.Option) (ac.Codec, error) {
	lib, err := native.LoadILBC()
	if err != nil {
		return nil, ac.BackendError("ilbc init", err)
	}
	desc, err := ac.Lookup(ac.ILBC)
	if err != nil {
		return nil, err
	}

	c := &Codec{
		lib:       lib,
		desc:      desc,
		instances: make(map[int]*instance),
	}

	for _, m := range desc.Modes {
		ms := int16(m.Duration(desc.Samplerate).Milliseconds())
		inst, err := c.newInstance(ms)
		if err != nil {
			c.Close()
			return nil, ac.BackendError("ilbc init", err)
		}
		c.instances[m.Samples] = inst
	}

	return c, nil
}

func (c *Codec) newInstance(ms int16) (*instance, error) {
	inst := &instance{ms: ms}

	if ret := c.lib.EncoderCreate(&inst.enc); ret != 0 || inst.enc == 0 {
		return nil, fmt.Errorf("WebRtcIlbcfix_EncoderCreate (%d ms) returned %d", ms, ret)
	}
	if ret := c.lib.EncoderInit(inst.enc, ms); ret != 0 {
		c.lib.EncoderFree(inst.enc)
		return nil, fmt.Errorf("WebRtcIlbcfix_EncoderInit (%d ms) returned %d", ms, ret)
	}

	if ret := c.lib.DecoderCreate(&inst.dec); ret != 0 || inst.dec == 0 {
		c.lib.EncoderFree(inst.enc)
		return nil, fmt.Errorf("WebRtcIlbcfix_DecoderCreate (%d ms) returned %d", ms, ret)
	}
	if ret := c.lib.DecoderInit(inst.dec, ms); ret != 0 {
		c.lib.EncoderFree(inst.enc)
		c.lib.DecoderFree(inst.dec)
		return nil, fmt.Errorf("WebRtcIlbcfix_DecoderInit (%d ms) returned %d", ms, ret)
	}

	return inst, nil
}

// Name returns the name of the audio codec
func (c *Codec) Name() string {
	return c.desc.Name
}

// Encode one 20 ms (320 bytes) or 30 ms (480 bytes) frame.
func (c *Codec) Encode(pcm []byte) ([]byte, error) {
	if err := c.desc.ValidateEncode(len(pcm)); err != nil {
		return nil, err
	}

	c.Lock()
	defer c.Unlock()

	amp := audio.Int16s(pcm)
	inst, ok := c.instances[len(amp)]
	if !ok {
		return nil, ac.NewError(ac.CodeUninitializedSession, "encode", "ilbc codec closed")
	}

	out := make([]byte, c.desc.MaxEncodedLen(len(pcm)))
	n := c.lib.Encode(inst.enc, &amp[0], uintptr(len(amp)), &out[0])
	if int(n) != len(out) {
		return nil, ac.NewError(ac.CodeBackendFailure, "encode",
			"WebRtcIlbcfix_Encode (%d ms) returned %d, expected %d", inst.ms, n, len(out))
	}
	return out, nil
}

// Decode one 38 byte (20 ms) or 50 byte (30 ms) frame.
func (c *Codec) Decode(data []byte) ([]byte, error) {
	if err := c.desc.ValidateDecode(len(data)); err != nil {
		return nil, err
	}

	c.Lock()
	defer c.Unlock()

	samples := c.desc.MaxDecodedLen(len(data)) / ac.BytesPerSample
	inst, ok := c.instances[samples]
	if !ok {
		return nil, ac.NewError(ac.CodeUninitializedSession, "decode", "ilbc codec closed")
	}

	amp := make([]int16, samples)
	var speechType int16
	n := c.lib.Decode(inst.dec, &data[0], uintptr(len(data)), &amp[0], &speechType)
	if int(n) != samples {
		return nil, ac.NewError(ac.CodeBackendFailure, "decode",
			"WebRtcIlbcfix_Decode (%d ms) returned %d, expected %d", inst.ms, n, samples)
	}
	return audio.Bytes(amp), nil
}

// Close frees the encoders and decoders of both frame modes.
func (c *Codec) Close() error {
	c.Lock()
	defer c.Unlock()
	for k, inst := range c.instances {
		c.lib.EncoderFree(inst.enc)
		c.lib.DecoderFree(inst.dec)
		delete(c.instances, k)
	}
	return nil
}
