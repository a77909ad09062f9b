// Package speex is the Speex narrowband backend, based on libspeex. The
// encoder takes one 20 ms frame and emits a bit packed frame of variable
// size; the decoder always returns one 20 ms frame.
package speex

import (
	"sync"

	"github.com/dh1tw/remoteCodec/audio"
	ac "github.com/dh1tw/remoteCodec/audiocodec"
	"github.com/dh1tw/remoteCodec/native"
)

// Defaults of the encoder and decoder.
const (
	DefaultComplexity  = 3
	DefaultQuality     = 8
	DefaultEnhancement = true
)

// Codec holds a Speex encoder and decoder state with their bit buffers.
type Codec struct {
	sync.Mutex
	lib     *native.Speex
	desc    *ac.Descriptor
	options ac.Options
	enc     uintptr
	dec     uintptr
	encBits []byte
	decBits []byte
}

// New creates a Speex codec. Complexity (1-10), Quality (0-10),
// Enhancement and VAD are evaluated. It satisfies audiocodec.Factory.
func New(opts ...ac.Option) (ac.Codec, error) {
	o := ac.Options{
		Complexity:  DefaultComplexity,
		Quality:     DefaultQuality,
		Enhancement: DefaultEnhancement,
	}
	for _, option := range opts {
		option(&o)
	}
	if o.Complexity < 1 || o.Complexity > 10 {
		return nil, ac.NewError(ac.CodeInvalidParameter, "speex init", "complexity %d out of range", o.Complexity)
	}
	if o.Quality < 0 || o.Quality > 10 {
		return nil, ac.NewError(ac.CodeInvalidParameter, "speex init", "quality %d out of range", o.Quality)
	}

	lib, err := native.LoadSpeex()
	if err != nil {
		return nil, ac.BackendError("speex init", err)
	}
	desc, err := ac.Lookup(ac.Speex)
	if err != nil {
		return nil, err
	}

	mode := lib.LibGetMode(native.SpeexModeNB)
	if mode == 0 {
		return nil, ac.NewError(ac.CodeBackendFailure, "speex init", "speex_lib_get_mode failed")
	}

	c := &Codec{
		lib:     lib,
		desc:    desc,
		options: o,
		encBits: make([]byte, native.SpeexBitsSize),
		decBits: make([]byte, native.SpeexBitsSize),
	}

	c.enc = lib.EncoderInit(mode)
	if c.enc == 0 {
		return nil, ac.NewError(ac.CodeBackendFailure, "speex init", "speex_encoder_init failed")
	}
	c.dec = lib.DecoderInit(mode)
	if c.dec == 0 {
		lib.EncoderDestroy(c.enc)
		return nil, ac.NewError(ac.CodeBackendFailure, "speex init", "speex_decoder_init failed")
	}
	lib.BitsInit(&c.encBits[0])
	lib.BitsInit(&c.decBits[0])

	if err := c.configure(); err != nil {
		c.Close()
		return nil, err
	}

	return c, nil
}

func (c *Codec) configure() error {
	ctl := func(name string, f func(uintptr, int32, *int32) int32, state uintptr, req int32, val int32) error {
		if ret := f(state, req, &val); ret != 0 {
			return ac.NewError(ac.CodeBackendFailure, "speex init", "%s returned %d", name, ret)
		}
		return nil
	}

	b := func(on bool) int32 {
		if on {
			return 1
		}
		return 0
	}

	if err := ctl("SPEEX_SET_QUALITY", c.lib.EncoderCtl, c.enc, native.SpeexSetQuality, int32(c.options.Quality)); err != nil {
		return err
	}
	if err := ctl("SPEEX_SET_COMPLEXITY", c.lib.EncoderCtl, c.enc, native.SpeexSetComplexity, int32(c.options.Complexity)); err != nil {
		return err
	}
	if err := ctl("SPEEX_SET_VAD", c.lib.EncoderCtl, c.enc, native.SpeexSetVAD, b(c.options.VAD)); err != nil {
		return err
	}
	if err := ctl("SPEEX_SET_ENH", c.lib.DecoderCtl, c.dec, native.SpeexSetEnh, b(c.options.Enhancement)); err != nil {
		return err
	}

	var frameSize int32
	if ret := c.lib.EncoderCtl(c.enc, native.SpeexGetFrameSize, &frameSize); ret != 0 {
		return ac.NewError(ac.CodeBackendFailure, "speex init", "SPEEX_GET_FRAME_SIZE returned %d", ret)
	}
	if int(frameSize) != c.desc.Modes[0].Samples {
		return ac.NewError(ac.CodeBackendFailure, "speex init",
			"unexpected frame size %d, expected %d", frameSize, c.desc.Modes[0].Samples)
	}
	return nil
}

// Name returns the name of the audio codec
func (c *Codec) Name() string {
	return c.desc.Name
}

// Options returns a copy of the codec's options
func (c *Codec) Options() ac.Options {
	return c.options
}

// Encode one 20 ms frame.
func (c *Codec) Encode(pcm []byte) ([]byte, error) {
	if err := c.desc.ValidateEncode(len(pcm)); err != nil {
		return nil, err
	}

	c.Lock()
	defer c.Unlock()
	if c.enc == 0 {
		return nil, ac.NewError(ac.CodeUninitializedSession, "encode", "speex codec closed")
	}

	amp := audio.Int16s(pcm)
	out := make([]byte, c.desc.MaxEncodedLen(len(pcm)))

	c.lib.BitsReset(&c.encBits[0])
	c.lib.EncodeInt(c.enc, &amp[0], &c.encBits[0])
	n := c.lib.BitsWrite(&c.encBits[0], &out[0], int32(len(out)))
	if n <= 0 || int(n) > len(out) {
		return nil, ac.NewError(ac.CodeBackendFailure, "encode", "speex_bits_write returned %d", n)
	}
	return out[:n], nil
}

// Decode one bit packed frame into 20 ms of PCM.
func (c *Codec) Decode(data []byte) ([]byte, error) {
	if err := c.desc.ValidateDecode(len(data)); err != nil {
		return nil, err
	}

	c.Lock()
	defer c.Unlock()
	if c.dec == 0 {
		return nil, ac.NewError(ac.CodeUninitializedSession, "decode", "speex codec closed")
	}

	amp := make([]int16, c.desc.MaxDecodedLen(len(data))/ac.BytesPerSample)

	c.lib.BitsReadFrom(&c.decBits[0], &data[0], int32(len(data)))
	if ret := c.lib.DecodeInt(c.dec, &c.decBits[0], &amp[0]); ret != 0 {
		return nil, ac.NewError(ac.CodeBackendFailure, "decode", "speex_decode_int returned %d", ret)
	}
	return audio.Bytes(amp), nil
}

// Close destroys the encoder, the decoder and the bit buffers.
func (c *Codec) Close() error {
	c.Lock()
	defer c.Unlock()
	if c.enc != 0 {
		c.lib.EncoderDestroy(c.enc)
		c.lib.BitsDestroy(&c.encBits[0])
		c.enc = 0
	}
	if c.dec != 0 {
		c.lib.DecoderDestroy(c.dec)
		c.lib.BitsDestroy(&c.decBits[0])
		c.dec = 0
	}
	return nil
}
