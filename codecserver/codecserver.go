// Package codecserver implements the CodecServer RPC handler which exposes
// the session manager as a go-micro service, typically over NATS.
package codecserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/asim/go-micro/v3/broker"

	ac "github.com/dh1tw/remoteCodec/audiocodec"
	"github.com/dh1tw/remoteCodec/events"
	"github.com/dh1tw/remoteCodec/resampler"
	"github.com/dh1tw/remoteCodec/session"
)

// Publisher is the part of a broker.Broker used to publish lifecycle
// events.
type Publisher interface {
	Publish(topic string, m *broker.Message, opts ...broker.PublishOption) error
}

// CodecServer is implementing the CodecServer RPC endpoints
// (Open, Control, Close, Codecs, Ping). Every exported method is
// registered as an endpoint.
type CodecServer struct {
	sync.RWMutex
	name        string
	manager     *session.Manager
	publisher   Publisher
	eventsTopic string
	logger      *slog.Logger
	lastPing    time.Time
}

// Option is the type for a function option
type Option func(*Options)

// Options contains the parameters of a CodecServer.
type Options struct {
	ServiceName string
	Manager     *session.Manager
	Publisher   Publisher
	Events      <-chan interface{}
	Logger      *slog.Logger
}

// ServiceName sets the fully qualified name of the service.
func ServiceName(name string) Option {
	return func(args *Options) {
		args.ServiceName = name
	}
}

// Manager sets the session manager. It is mandatory.
func Manager(m *session.Manager) Option {
	return func(args *Options) {
		args.Manager = m
	}
}

// Broker sets the publisher for the lifecycle events.
func Broker(p Publisher) Option {
	return func(args *Options) {
		args.Publisher = p
	}
}

// Events sets the channel (e.g. a pubsub subscription) from which the
// lifecycle events are read and published on the events topic. The
// forwarding stops when the channel is closed.
func Events(ch <-chan interface{}) Option {
	return func(args *Options) {
		args.Events = ch
	}
}

// Logger sets the logger.
func Logger(l *slog.Logger) Option {
	return func(args *Options) {
		args.Logger = l
	}
}

// EventsTopic returns the broker topic of the lifecycle events of a
// service.
func EventsTopic(serviceName string) string {
	return serviceName + ".events"
}

// NewCodecServer is the constructor method of a CodecServer.
func NewCodecServer(opts ...Option) (*CodecServer, error) {

	options := Options{
		Logger: slog.Default(),
	}
	for _, option := range opts {
		option(&options)
	}

	if options.Manager == nil {
		return nil, fmt.Errorf("codecserver: session manager missing")
	}
	if options.ServiceName == "" {
		return nil, fmt.Errorf("codecserver: service name missing")
	}

	cs := &CodecServer{
		name:        options.ServiceName,
		manager:     options.Manager,
		publisher:   options.Publisher,
		eventsTopic: EventsTopic(options.ServiceName),
		logger:      options.Logger.With("service", options.ServiceName),
		lastPing:    time.Now(),
	}

	if options.Events != nil {
		go cs.forwardEvents(options.Events)
	}

	return cs, nil
}

func (cs *CodecServer) forwardEvents(evCh <-chan interface{}) {
	for msg := range evCh {
		ev, ok := msg.(events.Event)
		if !ok {
			continue
		}
		if err := cs.publishEvent(ev); err != nil {
			cs.logger.Warn("unable to publish event", "type", ev.Type, "error", err)
		}
	}
}

func (cs *CodecServer) publishEvent(ev events.Event) error {
	if cs.publisher == nil {
		return fmt.Errorf("publishEvent: broker not set")
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	msg := &broker.Message{
		Header: map[string]string{
			"Content-Type": "application/json",
			"Event":        string(ev.Type),
		},
		Body: data,
	}

	return cs.publisher.Publish(cs.eventsTopic, msg)
}

// Open creates a new session.
func (cs *CodecServer) Open(ctx context.Context, in *OpenRequest, out *OpenResponse) error {
	s, err := cs.manager.Open(in.Kind)
	if err != nil {
		out.Code, out.Message = errorFields(err)
		return nil
	}
	out.Session = s.Info()
	return nil
}

// Control executes a single command on a session.
func (cs *CodecServer) Control(ctx context.Context, in *ControlRequest, out *ControlResponse) error {
	res, err := cs.manager.Dispatch(in.Session, in.Command, in.Payload)
	if err != nil {
		out.Code, out.Message = errorFields(err)
		return nil
	}
	out.Payload = res
	return nil
}

// Close closes a session.
func (cs *CodecServer) Close(ctx context.Context, in *CloseRequest, out *CloseResponse) error {
	out.Code, out.Message = errorFields(cs.manager.Close(in.Session))
	return nil
}

// Codecs returns the descriptors of the available codecs.
func (cs *CodecServer) Codecs(ctx context.Context, in *None, out *CodecsResponse) error {
	out.Codecs = []*ac.Descriptor{}
	for _, name := range cs.manager.Kinds() {
		k, err := ac.ParseKind(name)
		if err != nil {
			continue
		}
		d, err := ac.Lookup(k)
		if err != nil {
			continue
		}
		out.Codecs = append(out.Codecs, d)
	}
	out.Engine = cs.manager.Engine()
	out.Rates = resampler.Rates()
	out.Sessions = cs.manager.Count()
	out.MaxSessions = cs.manager.MaxSessions()
	return nil
}

// Ping echoes the timestamp of the request.
func (cs *CodecServer) Ping(ctx context.Context, in, out *PingPong) error {
	out.Ping = in.Ping
	cs.Lock()
	defer cs.Unlock()
	cs.lastPing = time.Now()
	return nil
}
