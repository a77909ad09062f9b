// Package proxy contains local proxy objects representing a remote codec
// server and its sessions. They take care of sending and receiving the
// messages through a go-micro client.
package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/asim/go-micro/v3/broker"
	"github.com/asim/go-micro/v3/client"

	ac "github.com/dh1tw/remoteCodec/audiocodec"
	"github.com/dh1tw/remoteCodec/codecserver"
	"github.com/dh1tw/remoteCodec/events"
	"github.com/dh1tw/remoteCodec/session"
)

const contentType = "application/json"

// CodecServer is a local proxy object representing a remote codec server.
type CodecServer struct {
	sync.RWMutex
	serviceName string
	client      client.Client
	options     Options
	eventsSub   broker.Subscriber
	codecs      codecserver.CodecsResponse
	latency     time.Duration
	closePing   chan struct{}
	doneCh      chan struct{}
	doneOnce    sync.Once
	logger      *slog.Logger
}

// NewCodecServer is the constructor for the CodecServer proxy. The
// capabilities of the remote server are retrieved immediately. In case the
// remote server disappears the doneCh will be closed.
func NewCodecServer(serviceName string, c client.Client, doneCh chan struct{}, opts ...Option) (*CodecServer, error) {

	options := Options{
		PingInterval: 3 * time.Second,
		Timeout:      5 * time.Second,
		Logger:       slog.Default(),
	}
	for _, option := range opts {
		option(&options)
	}

	cs := &CodecServer{
		serviceName: serviceName,
		client:      c,
		options:     options,
		closePing:   make(chan struct{}),
		doneCh:      doneCh,
		logger:      options.Logger.With("service", serviceName),
	}

	if err := cs.Refresh(context.Background()); err != nil {
		return nil, err
	}

	if b := c.Options().Broker; b != nil {
		sub, err := b.Subscribe(codecserver.EventsTopic(serviceName), cs.eventCb)
		if err != nil {
			return nil, fmt.Errorf("subscribe events: %w", err)
		}
		cs.eventsSub = sub
	}

	if options.PingInterval > 0 {
		go cs.pingLoop(options.PingInterval)
	}

	return cs, nil
}

func (cs *CodecServer) pingLoop(interval time.Duration) {
	for {
		select {
		case <-time.After(interval):
			latency, err := cs.Ping(context.Background())
			if err != nil {
				cs.logger.Warn("unable to ping service", "error", err)
				cs.closeDone()
				return
			}
			cs.Lock()
			cs.latency = latency
			cs.Unlock()
		case <-cs.closePing:
			return
		}
	}
}

// the doneCh must be closed through this function to avoid closing it
// multiple times.
func (cs *CodecServer) closeDone() {
	if cs.doneCh == nil {
		return
	}
	cs.doneOnce.Do(func() { close(cs.doneCh) })
}

// Close shuts down the proxy and all associated go routines. Remote
// sessions are not affected.
func (cs *CodecServer) Close() {
	cs.Lock()
	defer cs.Unlock()

	if cs.eventsSub != nil {
		cs.eventsSub.Unsubscribe()
		cs.eventsSub = nil
	}
	select {
	case <-cs.closePing:
	default:
		close(cs.closePing)
	}
	cs.closeDone()
}

func (cs *CodecServer) call(ctx context.Context, endpoint string, req, rsp interface{}) error {
	r := cs.client.NewRequest(cs.serviceName, "CodecServer."+endpoint, req,
		client.WithContentType(contentType))
	if err := cs.client.Call(ctx, r, rsp, client.WithRequestTimeout(cs.options.Timeout)); err != nil {
		return fmt.Errorf("%s.%s: %w", cs.serviceName, endpoint, err)
	}
	return nil
}

// Ping performs a ping request to the remote server and returns the
// round trip time.
func (cs *CodecServer) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	pong := &codecserver.PingPong{}
	if err := cs.call(ctx, "Ping", &codecserver.PingPong{Ping: start.UnixNano()}, pong); err != nil {
		return 0, err
	}
	if pong.Ping != start.UnixNano() {
		return 0, fmt.Errorf("ping: unexpected pong %d", pong.Ping)
	}
	return time.Since(start), nil
}

// Refresh queries the remote server for its codecs and session count.
func (cs *CodecServer) Refresh(ctx context.Context) error {
	rsp := codecserver.CodecsResponse{}
	if err := cs.call(ctx, "Codecs", &codecserver.None{}, &rsp); err != nil {
		return fmt.Errorf("getCodecs: %w", err)
	}
	cs.Lock()
	defer cs.Unlock()
	cs.codecs = rsp
	return nil
}

// ServiceName returns the fully qualified service name of the remote
// codec server.
func (cs *CodecServer) ServiceName() string {
	return cs.serviceName
}

// Codecs returns the codec descriptors retrieved during the last Refresh.
func (cs *CodecServer) Codecs() []*ac.Descriptor {
	cs.RLock()
	defer cs.RUnlock()
	return cs.codecs.Codecs
}

// Engine returns the name of the remote resampler engine.
func (cs *CodecServer) Engine() string {
	cs.RLock()
	defer cs.RUnlock()
	return cs.codecs.Engine
}

// Sessions returns the number of open sessions and the session limit of
// the remote server, as of the last Refresh.
func (cs *CodecServer) Sessions() (open, limit int) {
	cs.RLock()
	defer cs.RUnlock()
	return cs.codecs.Sessions, cs.codecs.MaxSessions
}

// Latency returns the round trip time of the last ping.
func (cs *CodecServer) Latency() time.Duration {
	cs.RLock()
	defer cs.RUnlock()
	return cs.latency
}

// eventCb decodes a lifecycle event coming from the micro broker and
// notifies the parent application through the callback.
func (cs *CodecServer) eventCb(e broker.Event) error {
	var ev events.Event
	if err := json.Unmarshal(e.Message().Body, &ev); err != nil {
		cs.logger.Warn("unable to decode event", "topic", e.Topic(), "error", err)
		return err
	}
	if cs.options.NotifyCb != nil {
		cs.options.NotifyCb(ev)
	}
	return nil
}

// Open opens a session of kind on the remote server.
func (cs *CodecServer) Open(ctx context.Context, kind string) (*Session, error) {
	rsp := codecserver.OpenResponse{}
	if err := cs.call(ctx, "Open", &codecserver.OpenRequest{Kind: kind}, &rsp); err != nil {
		return nil, err
	}
	if err := ac.FromCode(rsp.Code, rsp.Message); err != nil {
		return nil, err
	}
	return &Session{server: cs, info: rsp.Session}, nil
}

// Session is a local proxy object representing a session on a remote
// codec server. It implements session.Dispatcher.
type Session struct {
	server *CodecServer
	info   session.Info
}

var _ session.Dispatcher = (*Session)(nil)

// ID returns the id of the remote session.
func (s *Session) ID() string { return s.info.ID }

// Kind returns the codec name of the remote session.
func (s *Session) Kind() string { return s.info.Kind }

// Info returns the session info as returned by Open.
func (s *Session) Info() session.Info { return s.info }

// Dispatch executes a command on the remote session. Errors reported by
// the remote server are returned as *audiocodec.Error.
func (s *Session) Dispatch(cmd uint32, payload []byte) ([]byte, error) {
	return s.DispatchContext(context.Background(), cmd, payload)
}

// DispatchContext is like Dispatch but takes a context.
func (s *Session) DispatchContext(ctx context.Context, cmd uint32, payload []byte) ([]byte, error) {
	rsp := codecserver.ControlResponse{}
	req := &codecserver.ControlRequest{
		Session: s.info.ID,
		Command: cmd,
		Payload: payload,
	}
	if err := s.server.call(ctx, "Control", req, &rsp); err != nil {
		return nil, err
	}
	if err := ac.FromCode(rsp.Code, rsp.Message); err != nil {
		return nil, err
	}
	if rsp.Payload == nil {
		return []byte{}, nil
	}
	return rsp.Payload, nil
}

// Close closes the remote session.
func (s *Session) Close() error {
	rsp := codecserver.CloseResponse{}
	if err := s.server.call(context.Background(), "Close", &codecserver.CloseRequest{Session: s.info.ID}, &rsp); err != nil {
		return err
	}
	return ac.FromCode(rsp.Code, rsp.Message)
}
