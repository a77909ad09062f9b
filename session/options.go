package session

import (
	"log/slog"
	"time"

	ac "github.com/dh1tw/remoteCodec/audiocodec"
	"github.com/dh1tw/remoteCodec/events"
	"github.com/dh1tw/remoteCodec/metrics"
	"github.com/dh1tw/remoteCodec/resampler"
)

// Option is the type for a function option
type Option func(*Options)

// Options contains the parameters of sessions and of the Manager which
// creates them.
type Options struct {
	MaxSessions  int
	IdleTimeout  time.Duration
	HistorySize  int
	CodecOptions map[ac.Kind][]ac.Option
	Engine       resampler.Engine
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
	OnEvent      func(events.Event)
}

// Defaults of the Manager.
const (
	DefaultMaxSessions = 256
	DefaultIdleTimeout = 5 * time.Minute
	DefaultHistorySize = 100
)

func defaultOptions() Options {
	return Options{
		MaxSessions:  DefaultMaxSessions,
		IdleTimeout:  DefaultIdleTimeout,
		HistorySize:  DefaultHistorySize,
		CodecOptions: make(map[ac.Kind][]ac.Option),
		Logger:       slog.Default(),
	}
}

// MaxSessions limits the number of concurrently open sessions. Zero or
// less disables the limit.
func MaxSessions(n int) Option {
	return func(args *Options) {
		args.MaxSessions = n
	}
}

// IdleTimeout is the time after which unused sessions are closed by the
// reaper. Zero or less disables reaping.
func IdleTimeout(d time.Duration) Option {
	return func(args *Options) {
		args.IdleTimeout = d
	}
}

// HistorySize is the number of lifecycle events kept by the Manager.
func HistorySize(n int) Option {
	return func(args *Options) {
		args.HistorySize = n
	}
}

// CodecOptions sets the options passed to the backend of kind k whenever
// codec state is created.
func CodecOptions(k ac.Kind, opts ...ac.Option) Option {
	return func(args *Options) {
		if args.CodecOptions == nil {
			args.CodecOptions = make(map[ac.Kind][]ac.Option)
		}
		args.CodecOptions[k] = opts
	}
}

// Engine sets the sample rate conversion engine of resampler sessions.
func Engine(e resampler.Engine) Option {
	return func(args *Options) {
		args.Engine = e
	}
}

// Metrics sets the collectors which record sessions and commands.
func Metrics(m *metrics.Metrics) Option {
	return func(args *Options) {
		args.Metrics = m
	}
}

// Logger sets the logger.
func Logger(l *slog.Logger) Option {
	return func(args *Options) {
		args.Logger = l
	}
}

// OnEvent registers a callback which is executed for every lifecycle
// event. The callback must not block.
func OnEvent(f func(events.Event)) Option {
	return func(args *Options) {
		args.OnEvent = f
	}
}

// engine returns the configured engine, or the pure Go speex engine when
// none is set. The serve commands always pass the configured engine.
func (o Options) engine() resampler.Engine {
	if o.Engine != nil {
		return o.Engine
	}
	return resampler.NewSpeexEngine(resampler.DefaultSpeexQuality)
}
