package cmd

import (
	"github.com/spf13/viper"

	ac "github.com/dh1tw/remoteCodec/audiocodec"
	"github.com/dh1tw/remoteCodec/audiocodec/g726"
	"github.com/dh1tw/remoteCodec/audiocodec/g729"
	"github.com/dh1tw/remoteCodec/audiocodec/gsm"
	"github.com/dh1tw/remoteCodec/audiocodec/ilbc"
	"github.com/dh1tw/remoteCodec/audiocodec/lpc10"
	"github.com/dh1tw/remoteCodec/audiocodec/opus"
	"github.com/dh1tw/remoteCodec/audiocodec/speex"
	"github.com/dh1tw/remoteCodec/native"
	"github.com/dh1tw/remoteCodec/resampler"
	"github.com/dh1tw/remoteCodec/resampler/samplerate"
	"github.com/dh1tw/remoteCodec/session"
)

// SpeexEngineName selects the pure Go resampler engine.
const SpeexEngineName = "speex"

// newRegistry returns a registry with the native backends of all codecs.
// The shared libraries are loaded when the first session of a kind is
// opened.
func newRegistry() *ac.Registry {
	if p := viper.GetString("native.library-path"); p != "" {
		native.SetSearchPath(p)
	}

	r := ac.NewRegistry()
	r.Register(ac.G726, g726.New)
	r.Register(ac.G729, g729.New)
	r.Register(ac.GSM0610, gsm.New)
	r.Register(ac.ILBC, ilbc.New)
	r.Register(ac.LPC10, lpc10.New)
	r.Register(ac.Speex, speex.New)
	r.Register(ac.Opus, opus.New)
	return r
}

// engineNames returns the accepted values of resampler.engine.
func engineNames() []string {
	return append([]string{SpeexEngineName}, samplerate.Names()...)
}

// newEngine returns the resampler engine selected by resampler.engine.
func newEngine() (resampler.Engine, error) {
	name := viper.GetString("resampler.engine")
	if name == SpeexEngineName {
		return resampler.NewSpeexEngine(viper.GetInt("resampler.quality")), nil
	}
	return samplerate.New(name)
}

// codecOptions returns the configured codec parameters as session options.
func codecOptions() []session.Option {
	return []session.Option{
		session.CodecOptions(ac.Speex,
			ac.Quality(viper.GetInt("speex.quality")),
			ac.Complexity(viper.GetInt("speex.complexity")),
			ac.Enhancement(viper.GetBool("speex.enhancement")),
		),
		session.CodecOptions(ac.G729,
			ac.VAD(viper.GetBool("g729.vad")),
		),
		session.CodecOptions(ac.LPC10,
			ac.ErrorCorrection(viper.GetBool("lpc10.error-correction")),
		),
		session.CodecOptions(ac.Opus,
			ac.Bitrate(viper.GetInt("opus.bitrate")),
			ac.Complexity(viper.GetInt("opus.complexity")),
		),
	}
}
