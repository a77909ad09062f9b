// Package g729 is the G.729 Annex A backend, based on libbcg729. Input is
// split into 10 ms frames of 80 samples, each coded into 10 bytes.
package g729

import (
	"sync"

	"github.com/dh1tw/remoteCodec/audio"
	ac "github.com/dh1tw/remoteCodec/audiocodec"
	"github.com/dh1tw/remoteCodec/native"
)

// Codec holds a G.729 encoder and decoder channel.
type Codec struct {
	sync.Mutex
	lib  *native.BCG729
	desc *ac.Descriptor
	vad  bool
	enc  uintptr
	dec  uintptr
}

// New creates a G.729 codec. With the VAD option the encoder emits 2 byte
// SID frames or nothing during silence. Such a stream carries no frame
// boundaries, so Decode only accepts whole 10 byte frames and VAD output
// has to be split by the caller. It satisfies audiocodec.Factory.
func New(opts ...ac.Option) (ac.Codec, error) {
	o := ac.Options{}
	for _, option := range opts {
		option(&o)
	}

	lib, err := native.LoadBCG729()
	if err != nil {
		return nil, ac.BackendError("g729 init", err)
	}
	desc, err := ac.Lookup(ac.G729)
	if err != nil {
		return nil, err
	}

	var vad uint8
	if o.VAD {
		vad = 1
	}

	enc := lib.InitEncoder(vad)
	if enc == 0 {
		return nil, ac.NewError(ac.CodeBackendFailure, "g729 init", "initBcg729EncoderChannel failed")
	}
	dec := lib.InitDecoder()
	if dec == 0 {
		lib.CloseEncoder(enc)
		return nil, ac.NewError(ac.CodeBackendFailure, "g729 init", "initBcg729DecoderChannel failed")
	}

	return &Codec{
		lib:  lib,
		desc: desc,
		vad:  o.VAD,
		enc:  enc,
		dec:  dec,
	}, nil
}

// Name returns the name of the audio codec
func (c *Codec) Name() string {
	return c.desc.Name
}

// VariableOutput implements audiocodec.VariableOutput.
func (c *Codec) VariableOutput() bool {
	return c.vad
}

// Encode a whole number of 10 ms frames.
func (c *Codec) Encode(pcm []byte) ([]byte, error) {
	if err := c.desc.ValidateEncode(len(pcm)); err != nil {
		return nil, err
	}

	c.Lock()
	defer c.Unlock()
	if c.enc == 0 {
		return nil, ac.NewError(ac.CodeUninitializedSession, "encode", "g729 codec closed")
	}

	frame := c.desc.Modes[0]
	amp := audio.Int16s(pcm)
	out := make([]byte, c.desc.MaxEncodedLen(len(pcm)))

	pos := 0
	for i := 0; i < len(amp); i += frame.Samples {
		var l uint8
		c.lib.Encode(c.enc, &amp[i], &out[pos], &l)
		if int(l) > frame.EncodedBytes {
			return nil, ac.NewError(ac.CodeBackendFailure, "encode",
				"bcg729Encoder returned %d bytes", l)
		}
		if !c.vad && int(l) != frame.EncodedBytes {
			return nil, ac.NewError(ac.CodeBackendFailure, "encode",
				"bcg729Encoder returned %d bytes, expected %d", l, frame.EncodedBytes)
		}
		pos += int(l)
	}
	return out[:pos], nil
}

// Decode a whole number of 10 byte frames. Each frame is passed to the
// decoder with its own length.
func (c *Codec) Decode(data []byte) ([]byte, error) {
	if err := c.desc.ValidateDecode(len(data)); err != nil {
		return nil, err
	}

	c.Lock()
	defer c.Unlock()
	if c.dec == 0 {
		return nil, ac.NewError(ac.CodeUninitializedSession, "decode", "g729 codec closed")
	}

	frame := c.desc.Modes[0]
	amp := make([]int16, c.desc.MaxDecodedLen(len(data))/ac.BytesPerSample)

	for i, j := 0, 0; i < len(data); i, j = i+frame.EncodedBytes, j+frame.Samples {
		c.lib.Decode(c.dec, &data[i], uint8(frame.EncodedBytes), 0, 0, 0, &amp[j])
	}
	return audio.Bytes(amp), nil
}

// Close releases the encoder and decoder channels.
func (c *Codec) Close() error {
	c.Lock()
	defer c.Unlock()
	if c.enc != 0 {
		c.lib.CloseEncoder(c.enc)
		c.enc = 0
	}
	if c.dec != 0 {
		c.lib.CloseDecoder(c.dec)
		c.dec = 0
	}
	return nil
}
