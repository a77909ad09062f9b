package opus

import (
	opus "gopkg.in/hraban/opus.v2"
)

// Decoder holds the internal values of the opus decoder.
type Decoder struct {
	options Options
	decoder *opus.Decoder
	buf     []int16
}

// NewDecoder is the constructor method for an Opus decoder.
func NewDecoder(o Options) (*Decoder, error) {

	decoder, err := opus.NewDecoder(o.Samplerate, o.Channels)
	if err != nil {
		return nil, err
	}

	return &Decoder{
		options: o,
		decoder: decoder,
		// 120 ms is the longest opus packet
		buf: make([]int16, o.Samplerate*120/1000*o.Channels),
	}, nil
}

// Decode one packet into interleaved samples. The returned slice is only
// valid until the next call.
func (d *Decoder) Decode(data []byte) ([]int16, error) {
	n, err := d.decoder.Decode(data, d.buf)
	if err != nil {
		return nil, err
	}
	return d.buf[:n*d.options.Channels], nil
}
