// Package g726 is the G.726 ADPCM backend, based on libspandsp. The
// encoder takes linear PCM and emits one unpacked code word per byte, so
// one byte is produced per input sample independent of the bitrate.
package g726

import (
	"sync"

	"github.com/dh1tw/remoteCodec/audio"
	ac "github.com/dh1tw/remoteCodec/audiocodec"
	"github.com/dh1tw/remoteCodec/native"
)

// Codec holds a G.726 encoder and decoder state for one bitrate.
type Codec struct {
	sync.Mutex
	lib     *native.SpanDSP
	desc    *ac.Descriptor
	bitrate int
	enc     uintptr
	dec     uintptr
}

// New creates a G.726 codec. The bitrate option is mandatory and must be
// one of 16000, 24000, 32000 or 40000 bit/s. It satisfies
// audiocodec.Factory.
func New(opts ...ac.Option) (ac.Codec, error) {
	desc, err := ac.Lookup(ac.G726)
	if err != nil {
		return nil, err
	}

	o := ac.Options{}
	for _, option := range opts {
		option(&o)
	}
	if !desc.SupportsBitrate(o.Bitrate) {
		return nil, ac.NewError(ac.CodeInvalidParameter, "g726 init",
			"unsupported bitrate %d bit/s", o.Bitrate)
	}

	lib, err := native.LoadSpanDSP()
	if err != nil {
		return nil, ac.BackendError("g726 init", err)
	}

	enc := lib.G726Init(0, int32(o.Bitrate), native.G726EncodingLinear, native.G726PackingNone)
	if enc == 0 {
		return nil, ac.NewError(ac.CodeBackendFailure, "g726 init", "g726_init (encoder) failed")
	}
	dec := lib.G726Init(0, int32(o.Bitrate), native.G726EncodingLinear, native.G726PackingNone)
	if dec == 0 {
		lib.G726Free(enc)
		return nil, ac.NewError(ac.CodeBackendFailure, "g726 init", "g726_init (decoder) failed")
	}

	return &Codec{
		lib:     lib,
		desc:    desc,
		bitrate: o.Bitrate,
		enc:     enc,
		dec:     dec,
	}, nil
}

// Name returns the name of the audio codec
func (c *Codec) Name() string {
	return c.desc.Name
}

// Bitrate returns the configured bitrate in bit/s.
func (c *Codec) Bitrate() int {
	return c.bitrate
}

// Encode any number of samples.
func (c *Codec) Encode(pcm []byte) ([]byte, error) {
	if err := c.desc.ValidateEncode(len(pcm)); err != nil {
		return nil, err
	}

	c.Lock()
	defer c.Unlock()
	if c.enc == 0 {
		return nil, ac.NewError(ac.CodeUninitializedSession, "encode", "g726 codec closed")
	}

	amp := audio.Int16s(pcm)
	out := make([]byte, c.desc.MaxEncodedLen(len(pcm)))

	n := c.lib.G726Encode(c.enc, &out[0], &amp[0], int32(len(amp)))
	if n < 0 || int(n) > len(out) {
		return nil, ac.NewError(ac.CodeBackendFailure, "encode", "g726_encode returned %d", n)
	}
	return out[:n], nil
}

// Decode any number of code words.
func (c *Codec) Decode(data []byte) ([]byte, error) {
	if err := c.desc.ValidateDecode(len(data)); err != nil {
		return nil, err
	}

	c.Lock()
	defer c.Unlock()
	if c.dec == 0 {
		return nil, ac.NewError(ac.CodeUninitializedSession, "decode", "g726 codec closed")
	}

	amp := make([]int16, c.desc.MaxDecodedLen(len(data))/ac.BytesPerSample)

	n := c.lib.G726Decode(c.dec, &amp[0], &data[0], int32(len(data)))
	if n < 0 || int(n) > len(amp) {
		return nil, ac.NewError(ac.CodeBackendFailure, "decode", "g726_decode returned %d", n)
	}
	return audio.Bytes(amp[:n]), nil
}

// Close frees the encoder and decoder state.
func (c *Codec) Close() error {
	c.Lock()
	defer c.Unlock()
	if c.enc != 0 {
		c.lib.G726Free(c.enc)
		c.enc = 0
	}
	if c.dec != 0 {
		c.lib.G726Free(c.dec)
		c.dec = 0
	}
	return nil
}
