package proxy

import (
	"log/slog"
	"time"

	"github.com/dh1tw/remoteCodec/events"
)

// Option is the type for a function option
type Option func(*Options)

// Options contains the parameters of a CodecServer proxy.
type Options struct {
	PingInterval time.Duration
	Timeout      time.Duration
	NotifyCb     func(events.Event)
	Logger       *slog.Logger
}

// PingInterval is a functional option to set how often the remote
// codec server is pinged for measuring the latency. If a ping fails, the
// done channel of the proxy is closed. A zero interval disables pinging.
func PingInterval(d time.Duration) Option {
	return func(args *Options) {
		args.PingInterval = d
	}
}

// Timeout is a functional option to set the timeout of each request.
func Timeout(d time.Duration) Option {
	return func(args *Options) {
		args.Timeout = d
	}
}

// NotifyCb is a functional option to set a callback which is executed
// for every lifecycle event published by the remote codec server.
func NotifyCb(f func(events.Event)) Option {
	return func(args *Options) {
		args.NotifyCb = f
	}
}

// Logger sets the logger.
func Logger(l *slog.Logger) Option {
	return func(args *Options) {
		args.Logger = l
	}
}
