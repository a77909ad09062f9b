package opus

import (
	"fmt"

	opus "gopkg.in/hraban/opus.v2"
)

// Encoder holds the internal values of the opus encoder.
type Encoder struct {
	options Options
	encoder *opus.Encoder
	buf     []byte
}

// NewEncoder is the constructor method for an Opus encoder.
func NewEncoder(o Options) (*Encoder, error) {

	encoder, err := opus.NewEncoder(o.Samplerate, o.Channels, o.Application)
	if err != nil {
		return nil, err
	}

	if err := encoder.SetBitrate(o.Bitrate); err != nil {
		return nil, fmt.Errorf("set bitrate %d: %v", o.Bitrate, err)
	}

	if err := encoder.SetComplexity(o.Complexity); err != nil {
		return nil, fmt.Errorf("set complexity %d: %v", o.Complexity, err)
	}

	if err := encoder.SetMaxBandwidth(o.MaxBandwidth); err != nil {
		return nil, fmt.Errorf("set max bandwidth: %v", err)
	}

	return &Encoder{
		options: o,
		encoder: encoder,
		buf:     make([]byte, maxPacket),
	}, nil
}

// Encode one frame of interleaved samples. The returned slice is only
// valid until the next call.
func (e *Encoder) Encode(pcm []int16) ([]byte, error) {
	n, err := e.encoder.Encode(pcm, e.buf)
	if err != nil {
		return nil, err
	}
	return e.buf[:n], nil
}
