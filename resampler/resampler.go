// Package resampler converts interleaved 16 bit PCM between the sample
// rates of the rate code table. It is stateless: every call creates and
// destroys its own conversion state.
package resampler

import (
	"fmt"
	"sort"

	"github.com/dh1tw/remoteCodec/audio"
	"github.com/dh1tw/remoteCodec/audiocodec"
)

// MaxRatio is the largest supported upsampling ratio. The output buffer of
// a conversion holds MaxRatio times the input samples.
const MaxRatio = 8

var rates = map[uint8]int{
	8:  8000,
	11: 11025,
	16: 16000,
	22: 22050,
	24: 24000,
	32: 32000,
	44: 44100,
	48: 48000,
	96: 96000,
}

// Rate returns the sample rate of a rate code, or 0 for an unknown code.
func Rate(code uint8) int {
	return rates[code]
}

// RateCode returns the rate code of a sample rate.
func RateCode(rate int) (uint8, bool) {
	for c, r := range rates {
		if r == rate {
			return c, true
		}
	}
	return 0, false
}

// Rates returns all supported sample rates in ascending order.
func Rates() []int {
	rs := make([]int, 0, len(rates))
	for _, r := range rates {
		rs = append(rs, r)
	}
	sort.Ints(rs)
	return rs
}

// Command holds the parameters of a resample call which are packed into
// the command id as from<<24 | channels<<16 | to<<8.
type Command struct {
	From     uint8
	Channels uint8
	To       uint8
}

// ParseCommand unpacks a command id. The lowest byte is ignored.
func ParseCommand(id uint32) Command {
	return Command{
		From:     uint8(id >> 24),
		Channels: uint8(id >> 16),
		To:       uint8(id >> 8),
	}
}

// ID packs the command into a command id.
func (c Command) ID() uint32 {
	return uint32(c.From)<<24 | uint32(c.Channels)<<16 | uint32(c.To)<<8
}

func (c Command) String() string {
	return fmt.Sprintf("%d Hz -> %d Hz, %d ch", Rate(c.From), Rate(c.To), c.Channels)
}

// Ratio returns to/from, or 0 if one of the codes is unknown.
func (c Command) Ratio() float64 {
	from, to := Rate(c.From), Rate(c.To)
	if from == 0 || to == 0 {
		return 0
	}
	return float64(to) / float64(from)
}

// Validate checks the command parameters.
func (c Command) Validate() error {
	from, to := Rate(c.From), Rate(c.To)
	if from == 0 {
		return audiocodec.NewError(audiocodec.CodeUnsupportedRate, "resample",
			"unknown source rate code %d", c.From)
	}
	if to == 0 {
		return audiocodec.NewError(audiocodec.CodeUnsupportedRate, "resample",
			"unknown target rate code %d", c.To)
	}
	if c.Channels == 0 {
		return audiocodec.NewError(audiocodec.CodeInvalidParameter, "resample",
			"channel count must be at least 1")
	}
	if c.Ratio() > MaxRatio {
		return audiocodec.NewError(audiocodec.CodeUnsupportedRate, "resample",
			"ratio %d:%d exceeds %d:1", to, from, MaxRatio)
	}
	return nil
}

// Engine is a sample rate conversion routine. in contains interleaved
// samples of the given channel count; the returned slice must contain
// whole frames and must not exceed capacity samples.
type Engine interface {
	Name() string
	Resample(in []float32, channels, fromRate, toRate, capacity int) ([]float32, error)
}

// Resampler converts PCM buffers with an Engine.
type Resampler struct {
	engine Engine
}

// New returns a Resampler which uses engine for the conversion.
func New(engine Engine) *Resampler {
	return &Resampler{engine: engine}
}

// Engine returns the name of the conversion engine.
func (r *Resampler) Engine() string {
	return r.engine.Name()
}

// Dispatch converts payload according to the packed command id.
func (r *Resampler) Dispatch(id uint32, payload []byte) ([]byte, error) {
	return r.Convert(ParseCommand(id), payload)
}

// Convert converts the interleaved PCM in payload. The channel count is
// not changed.
func (r *Resampler) Convert(c Command, payload []byte) ([]byte, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	chs := int(c.Channels)
	if len(payload)%(2*chs) != 0 {
		return nil, audiocodec.NewError(audiocodec.CodeInvalidLength, "resample",
			"%d bytes is not a whole number of %d channel frames", len(payload), chs)
	}
	if len(payload) == 0 {
		return []byte{}, nil
	}

	in := audio.Float32s(payload)
	capacity := len(in) * MaxRatio

	out, err := r.engine.Resample(in, chs, Rate(c.From), Rate(c.To), capacity)
	if err != nil {
		return nil, audiocodec.BackendError("resample", err)
	}

	// only whole frames which fit into the output buffer are returned
	frames := len(out) / chs
	if frames*chs > capacity {
		frames = capacity / chs
	}

	return audio.FromFloat32s(out[:frames*chs]), nil
}
