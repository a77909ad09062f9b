// Package opus is the Opus backend. It encodes 8 kHz mono speech in the
// VoIP application mode of libopus.
package opus

import (
	"sync"

	"github.com/dh1tw/remoteCodec/audio"
	ac "github.com/dh1tw/remoteCodec/audiocodec"
)

// maxPacket is the largest opus packet of a single frame.
const maxPacket = 1275

// Codec combines an opus encoder and decoder.
type Codec struct {
	sync.Mutex
	options Options
	enc     *Encoder
	dec     *Decoder
}

// New creates an Opus codec. It satisfies audiocodec.Factory.
func New(opts ...ac.Option) (ac.Codec, error) {
	o := applyOptions(opts...)

	enc, err := NewEncoder(o)
	if err != nil {
		return nil, ac.BackendError("opus encoder init", err)
	}

	dec, err := NewDecoder(o)
	if err != nil {
		return nil, ac.BackendError("opus decoder init", err)
	}

	return &Codec{
		options: o,
		enc:     enc,
		dec:     dec,
	}, nil
}

// Name returns the name of the audio codec
func (c *Codec) Name() string {
	return "opus"
}

// Options returns a copy of the codec's options
func (c *Codec) Options() Options {
	return c.options
}

// Encode one 10, 20, 40 or 60 ms frame of PCM.
func (c *Codec) Encode(pcm []byte) ([]byte, error) {
	c.Lock()
	defer c.Unlock()

	if c.enc == nil {
		return nil, ac.NewError(ac.CodeUninitializedSession, "encode", "opus codec closed")
	}

	data, err := c.enc.Encode(audio.Int16s(pcm))
	if err != nil {
		return nil, ac.BackendError("opus encode", err)
	}

	res := make([]byte, len(data))
	copy(res, data)
	return res, nil
}

// Decode one opus packet into PCM.
func (c *Codec) Decode(data []byte) ([]byte, error) {
	c.Lock()
	defer c.Unlock()

	if c.dec == nil {
		return nil, ac.NewError(ac.CodeUninitializedSession, "decode", "opus codec closed")
	}

	pcm, err := c.dec.Decode(data)
	if err != nil {
		return nil, ac.BackendError("opus decode", err)
	}
	return audio.Bytes(pcm), nil
}

// Close releases the encoder and decoder. The memory of libopus is owned
// by the Go runtime, so dropping the references is sufficient.
func (c *Codec) Close() error {
	c.Lock()
	defer c.Unlock()
	c.enc = nil
	c.dec = nil
	return nil
}
