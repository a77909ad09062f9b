package opus

import (
	ac "github.com/dh1tw/remoteCodec/audiocodec"
	opus "gopkg.in/hraban/opus.v2"
)

// Default parameters of the Opus codec. The descriptor of the opus kind
// assumes 8 kHz mono.
const (
	DefaultSamplerate = 8000
	DefaultChannels   = 1
	DefaultBitrate    = 16000
	DefaultComplexity = 5
)

// Options contains the parameters of the Opus encoder and decoder.
type Options struct {
	Samplerate   int
	Channels     int
	Bitrate      int
	Complexity   int
	MaxBandwidth opus.Bandwidth
	Application  opus.Application
}

func defaultOptions() Options {
	return Options{
		Samplerate:   DefaultSamplerate,
		Channels:     DefaultChannels,
		Bitrate:      DefaultBitrate,
		Complexity:   DefaultComplexity,
		MaxBandwidth: opus.Narrowband,
		Application:  opus.AppVoIP,
	}
}

// applyOptions evaluates the generic codec options on top of the defaults.
func applyOptions(opts ...ac.Option) Options {
	o := defaultOptions()

	co := ac.Options{
		Samplerate: o.Samplerate,
		Channels:   o.Channels,
		Bitrate:    o.Bitrate,
		Complexity: o.Complexity,
	}
	for _, option := range opts {
		option(&co)
	}

	if co.Samplerate > 0 {
		o.Samplerate = co.Samplerate
	}
	if co.Channels > 0 {
		o.Channels = co.Channels
	}
	if co.Bitrate > 0 {
		o.Bitrate = co.Bitrate
	}
	if co.Complexity >= 0 && co.Complexity <= 10 {
		o.Complexity = co.Complexity
	}
	return o
}
