// Package codectest provides deterministic fake codec backends which honour
// the framing contract of the codec descriptors. They are used to test
// sessions and transports without the native codec libraries.
package codectest

import (
	"errors"
	"sync"

	"github.com/dh1tw/remoteCodec/audiocodec"
)

// ErrInit is returned by a fake backend which was told to fail.
var ErrInit = errors.New("fake backend init failure")

// Backends records every fake codec it creates.
type Backends struct {
	sync.Mutex
	codecs   map[audiocodec.Kind][]*Codec
	failInit map[audiocodec.Kind]error
	hook     func(op string)
}

// NewRegistry returns a registry with a fake backend for every codec kind
// and the Backends which tracks them.
func NewRegistry() (*audiocodec.Registry, *Backends) {
	b := &Backends{
		codecs:   make(map[audiocodec.Kind][]*Codec),
		failInit: make(map[audiocodec.Kind]error),
	}
	r := audiocodec.NewRegistry()
	for _, k := range audiocodec.Kinds() {
		r.Register(k, b.Factory(k))
	}
	return r, b
}

// Factory returns the codec factory for kind k.
func (b *Backends) Factory(k audiocodec.Kind) audiocodec.Factory {
	return func(opts ...audiocodec.Option) (audiocodec.Codec, error) {
		desc, err := audiocodec.Lookup(k)
		if err != nil {
			return nil, err
		}

		b.Lock()
		defer b.Unlock()
		if err := b.failInit[k]; err != nil {
			return nil, err
		}

		c := &Codec{
			desc: desc,
			hook: b.hook,
		}
		for _, o := range opts {
			o(&c.opts)
		}
		b.codecs[k] = append(b.codecs[k], c)
		return c, nil
	}
}

// FailInit makes the following inits of kind k fail with err. A nil err
// lets them succeed again.
func (b *Backends) FailInit(k audiocodec.Kind, err error) {
	b.Lock()
	defer b.Unlock()
	if err == nil {
		delete(b.failInit, k)
		return
	}
	b.failInit[k] = err
}

// SetHook installs a function which is called by all codecs created
// afterwards at the start of every Encode ("encode") and Decode ("decode").
func (b *Backends) SetHook(f func(op string)) {
	b.Lock()
	defer b.Unlock()
	b.hook = f
}

// Codecs returns the fake codecs created for kind k so far.
func (b *Backends) Codecs(k audiocodec.Kind) []*Codec {
	b.Lock()
	defer b.Unlock()
	res := make([]*Codec, len(b.codecs[k]))
	copy(res, b.codecs[k])
	return res
}

// Codec is a fake codec. Its output sizes follow the descriptor; the
// content is derived from the input.
type Codec struct {
	sync.Mutex
	desc    *audiocodec.Descriptor
	opts    audiocodec.Options
	hook    func(op string)
	closed  int
	encoded int
	decoded int
}

// Name returns the name of the emulated codec.
func (c *Codec) Name() string {
	return c.desc.Name
}

// Options returns the options the codec was created with.
func (c *Codec) Options() audiocodec.Options {
	return c.opts
}

// Closed returns how often Close has been called.
func (c *Codec) Closed() int {
	c.Lock()
	defer c.Unlock()
	return c.closed
}

// Calls returns the number of Encode and Decode calls.
func (c *Codec) Calls() (encodes, decodes int) {
	c.Lock()
	defer c.Unlock()
	return c.encoded, c.decoded
}

// Encode returns a frame of the length the descriptor predicts. Variable
// framing codecs return one byte per 16 bytes of PCM.
func (c *Codec) Encode(pcm []byte) ([]byte, error) {
	if c.hook != nil {
		c.hook("encode")
	}
	c.Lock()
	defer c.Unlock()
	if c.closed > 0 {
		return nil, audiocodec.NewError(audiocodec.CodeBackendFailure, "encode", "codec closed")
	}
	c.encoded++

	n, ok := c.desc.EncodedLen(len(pcm))
	if !ok {
		n = len(pcm) / 16
	}
	return fill(n, pcm), nil
}

// Decode returns the PCM length the descriptor predicts. Codecs without a
// deterministic decode size return one 20 ms frame.
func (c *Codec) Decode(data []byte) ([]byte, error) {
	if c.hook != nil {
		c.hook("decode")
	}
	c.Lock()
	defer c.Unlock()
	if c.closed > 0 {
		return nil, audiocodec.NewError(audiocodec.CodeBackendFailure, "decode", "codec closed")
	}
	c.decoded++

	n, ok := c.desc.DecodedLen(len(data))
	if !ok {
		n = 320
	}
	return fill(n, data), nil
}

// Close counts the calls.
func (c *Codec) Close() error {
	c.Lock()
	defer c.Unlock()
	c.closed++
	return nil
}

func fill(n int, src []byte) []byte {
	out := make([]byte, n)
	if len(src) == 0 {
		return out
	}
	for i := range out {
		out[i] = src[i%len(src)]
	}
	return out
}
