// Package audiocodec defines the uniform capability every speech codec
// backend offers to a session, together with the static descriptor table
// which contains the framing rules of each codec kind.
package audiocodec

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Encoder compresses 16 bit signed little endian PCM into codec frames.
type Encoder interface {
	Name() string
	Encode(pcm []byte) ([]byte, error)
}

// Decoder expands codec frames back into 16 bit signed little endian PCM.
type Decoder interface {
	Name() string
	Decode(data []byte) ([]byte, error)
}

// Codec owns one encoder and one decoder instance of a backend. Close
// releases the native state and must be safe to call more than once.
type Codec interface {
	Encoder
	Decoder
	Close() error
}

// VariableOutput is implemented by codecs whose configuration can make the
// encoder output deviate from the descriptor, e.g. G.729 with voice
// activity detection which emits short SID frames.
type VariableOutput interface {
	VariableOutput() bool
}

// Option is the type for a functional option of a codec backend.
type Option func(*Options)

// Options contains the parameters for initializing a codec backend. Each
// backend applies its own defaults before the options are evaluated;
// parameters which a backend does not support are ignored.
type Options struct {
	Samplerate      int
	Channels        int
	Bitrate         int
	Complexity      int
	Quality         int
	Enhancement     bool
	VAD             bool
	ErrorCorrection bool
}

// Samplerate is a functional option to set the sampling rate of the codec.
func Samplerate(s int) Option {
	return func(args *Options) {
		args.Samplerate = s
	}
}

// Channels is a functional option to set the amount of audio channels.
func Channels(chs int) Option {
	return func(args *Options) {
		args.Channels = chs
	}
}

// Bitrate is a functional option to set the bitrate in bit/s.
func Bitrate(b int) Option {
	return func(args *Options) {
		args.Bitrate = b
	}
}

// Complexity is a functional option to set the encoder complexity.
func Complexity(c int) Option {
	return func(args *Options) {
		args.Complexity = c
	}
}

// Quality is a functional option to set the encoder quality.
func Quality(q int) Option {
	return func(args *Options) {
		args.Quality = q
	}
}

// Enhancement is a functional option to enable the perceptual enhancement
// of the decoder.
func Enhancement(on bool) Option {
	return func(args *Options) {
		args.Enhancement = on
	}
}

// VAD is a functional option to enable voice activity detection in the
// encoder.
func VAD(on bool) Option {
	return func(args *Options) {
		args.VAD = on
	}
}

// ErrorCorrection is a functional option to enable the error correction
// of the codec bit stream.
func ErrorCorrection(on bool) Option {
	return func(args *Options) {
		args.ErrorCorrection = on
	}
}

// Kind identifies a codec backend.
type Kind int

// Supported codec kinds.
const (
	KindUnknown Kind = iota
	G726
	G729
	GSM0610
	ILBC
	LPC10
	Speex
	Opus
)

var kindNames = map[Kind]string{
	G726:    "g726",
	G729:    "g729",
	GSM0610: "gsm",
	ILBC:    "ilbc",
	LPC10:   "lpc10",
	Speex:   "speex",
	Opus:    "opus",
}

var kindAliases = map[string]Kind{
	"gsm0610":  GSM0610,
	"gsm06.10": GSM0610,
	"g.726":    G726,
	"g.729":    G729,
	"lpc-10":   LPC10,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind returns the codec kind for its (case insensitive) name.
func ParseKind(name string) (Kind, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for k, kn := range kindNames {
		if kn == n {
			return k, nil
		}
	}
	if k, ok := kindAliases[n]; ok {
		return k, nil
	}
	return KindUnknown, NewError(CodeUnknownKind, "parse", "unknown codec %q", name)
}

// Kinds returns all known codec kinds in ascending order.
func Kinds() []Kind {
	ks := make([]Kind, 0, len(kindNames))
	for k := range kindNames {
		ks = append(ks, k)
	}
	sort.Slice(ks, func(i, j int) bool { return ks[i] < ks[j] })
	return ks
}

// Factory creates a new codec instance with fresh encoder and decoder state.
type Factory func(opts ...Option) (Codec, error)

// Registry maps codec kinds to the factories of their backends.
type Registry struct {
	sync.RWMutex
	factories map[Kind]Factory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[Kind]Factory),
	}
}

// Register adds (or replaces) the factory for a codec kind.
func (r *Registry) Register(k Kind, f Factory) {
	r.Lock()
	defer r.Unlock()
	r.factories[k] = f
}

// Has reports if a backend is registered for the codec kind.
func (r *Registry) Has(k Kind) bool {
	r.RLock()
	defer r.RUnlock()
	_, ok := r.factories[k]
	return ok
}

// Kinds returns the registered codec kinds in ascending order.
func (r *Registry) Kinds() []Kind {
	r.RLock()
	defer r.RUnlock()
	ks := make([]Kind, 0, len(r.factories))
	for k := range r.factories {
		ks = append(ks, k)
	}
	sort.Slice(ks, func(i, j int) bool { return ks[i] < ks[j] })
	return ks
}

// New creates a codec of the given kind. Failures of the backend are
// reported as BackendFailure.
func (r *Registry) New(k Kind, opts ...Option) (Codec, error) {
	r.RLock()
	f, ok := r.factories[k]
	r.RUnlock()
	if !ok {
		return nil, NewError(CodeUnknownKind, "init", "no backend registered for %v", k)
	}

	c, err := f(opts...)
	if err != nil {
		var e *Error
		if errors.As(err, &e) && e.Code == CodeBackendFailure {
			return nil, err
		}
		return nil, &Error{Code: CodeBackendFailure, Op: "init", Err: err}
	}
	if c == nil {
		return nil, NewError(CodeBackendFailure, "init", "%v backend returned no codec", k)
	}
	return c, nil
}

// String returns a short summary, mostly useful for logging.
func (o Options) String() string {
	return fmt.Sprintf("samplerate=%d channels=%d bitrate=%d complexity=%d quality=%d enh=%v vad=%v ec=%v",
		o.Samplerate, o.Channels, o.Bitrate, o.Complexity, o.Quality,
		o.Enhancement, o.VAD, o.ErrorCorrection)
}
