package proxy

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/asim/go-micro/v3/broker"
	"github.com/asim/go-micro/v3/client"
	"github.com/cskr/pubsub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ac "github.com/dh1tw/remoteCodec/audiocodec"
	"github.com/dh1tw/remoteCodec/audiocodec/codectest"
	"github.com/dh1tw/remoteCodec/codecserver"
	"github.com/dh1tw/remoteCodec/events"
	"github.com/dh1tw/remoteCodec/session"
)

const testService = "shackbus.radio.test.codec"

// loopback is a client.Client which calls the endpoints of a
// codecserver.CodecServer directly.
type loopback struct {
	client.Client
	server *codecserver.CodecServer
	broker *memBroker
	down   bool
	mu     sync.Mutex
}

type request struct {
	client.Request
	service  string
	endpoint string
	body     interface{}
}

func (r *request) Service() string     { return r.service }
func (r *request) Endpoint() string    { return r.endpoint }
func (r *request) Method() string      { return r.endpoint }
func (r *request) Body() interface{}   { return r.body }
func (r *request) ContentType() string { return contentType }

func (l *loopback) Options() client.Options {
	return client.Options{Broker: l.broker}
}

func (l *loopback) NewRequest(service, endpoint string, req interface{}, opts ...client.RequestOption) client.Request {
	return &request{service: service, endpoint: endpoint, body: req}
}

func (l *loopback) setDown(down bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.down = down
}

func (l *loopback) Call(ctx context.Context, req client.Request, rsp interface{}, opts ...client.CallOption) error {
	l.mu.Lock()
	down := l.down
	l.mu.Unlock()
	if down {
		return errors.New("service not found")
	}
	if req.Service() != testService {
		return fmt.Errorf("unknown service %s", req.Service())
	}

	switch req.Endpoint() {
	case "CodecServer.Open":
		return l.server.Open(ctx, req.Body().(*codecserver.OpenRequest), rsp.(*codecserver.OpenResponse))
	case "CodecServer.Control":
		return l.server.Control(ctx, req.Body().(*codecserver.ControlRequest), rsp.(*codecserver.ControlResponse))
	case "CodecServer.Close":
		return l.server.Close(ctx, req.Body().(*codecserver.CloseRequest), rsp.(*codecserver.CloseResponse))
	case "CodecServer.Codecs":
		return l.server.Codecs(ctx, req.Body().(*codecserver.None), rsp.(*codecserver.CodecsResponse))
	case "CodecServer.Ping":
		return l.server.Ping(ctx, req.Body().(*codecserver.PingPong), rsp.(*codecserver.PingPong))
	}
	return fmt.Errorf("unknown endpoint %s", req.Endpoint())
}

// memBroker delivers published messages synchronously to its subscribers.
type memBroker struct {
	broker.Broker
	sync.Mutex
	handlers map[string][]broker.Handler
}

type memEvent struct {
	topic string
	msg   *broker.Message
}

func (e *memEvent) Topic() string            { return e.topic }
func (e *memEvent) Message() *broker.Message { return e.msg }
func (e *memEvent) Ack() error               { return nil }
func (e *memEvent) Error() error             { return nil }

type memSubscriber struct {
	topic string
	b     *memBroker
}

func (s *memSubscriber) Options() broker.SubscribeOptions { return broker.SubscribeOptions{} }
func (s *memSubscriber) Topic() string                    { return s.topic }
func (s *memSubscriber) Unsubscribe() error {
	s.b.Lock()
	defer s.b.Unlock()
	delete(s.b.handlers, s.topic)
	return nil
}

func (b *memBroker) Publish(topic string, m *broker.Message, opts ...broker.PublishOption) error {
	b.Lock()
	hs := append([]broker.Handler{}, b.handlers[topic]...)
	b.Unlock()
	for _, h := range hs {
		h(&memEvent{topic, m})
	}
	return nil
}

func (b *memBroker) Subscribe(topic string, h broker.Handler, opts ...broker.SubscribeOption) (broker.Subscriber, error) {
	b.Lock()
	defer b.Unlock()
	b.handlers[topic] = append(b.handlers[topic], h)
	return &memSubscriber{topic, b}, nil
}

func (b *memBroker) subscribers(topic string) int {
	b.Lock()
	defer b.Unlock()
	return len(b.handlers[topic])
}

type fixture struct {
	client  *loopback
	manager *session.Manager
	ps      *pubsub.PubSub
}

func newFixture(t *testing.T, opts ...session.Option) *fixture {
	ps := pubsub.New(32)
	t.Cleanup(ps.Shutdown)

	reg, _ := codectest.NewRegistry()
	opts = append(opts, session.OnEvent(func(ev events.Event) {
		ps.Pub(ev, events.Session)
	}))
	m := session.NewManager(reg, opts...)

	b := &memBroker{handlers: map[string][]broker.Handler{}}
	srv, err := codecserver.NewCodecServer(
		codecserver.ServiceName(testService),
		codecserver.Manager(m),
		codecserver.Broker(b),
		codecserver.Events(ps.Sub(events.Session)),
	)
	require.NoError(t, err)

	return &fixture{
		client:  &loopback{server: srv, broker: b},
		manager: m,
		ps:      ps,
	}
}

func TestNewCodecServer(t *testing.T) {
	f := newFixture(t, session.MaxSessions(4))

	cs, err := NewCodecServer(testService, f.client, nil, PingInterval(0))
	require.NoError(t, err)
	defer cs.Close()

	assert.Equal(t, testService, cs.ServiceName())
	assert.Len(t, cs.Codecs(), 7)
	assert.NotEmpty(t, cs.Engine())
	open, limit := cs.Sessions()
	assert.Equal(t, 0, open)
	assert.Equal(t, 4, limit)
	assert.Equal(t, 1, f.client.broker.subscribers(codecserver.EventsTopic(testService)))
}

func TestNewCodecServerUnknownService(t *testing.T) {
	f := newFixture(t)
	_, err := NewCodecServer("shackbus.radio.nobody.codec", f.client, nil, PingInterval(0))
	assert.Error(t, err)
}

func TestRemoteSession(t *testing.T) {
	f := newFixture(t)

	cs, err := NewCodecServer(testService, f.client, nil, PingInterval(0))
	require.NoError(t, err)
	defer cs.Close()

	var s session.Dispatcher
	s, err = cs.Open(context.Background(), "g726")
	require.NoError(t, err)
	assert.Equal(t, "g726", s.Kind())
	assert.Equal(t, 1, f.manager.Count())

	_, err = s.Dispatch(uint32(session.Encode), make([]byte, 320))
	assert.ErrorIs(t, err, ac.ErrUninitializedSession)

	res, err := s.Dispatch(uint32(session.Setup), []byte{32})
	require.NoError(t, err)
	assert.Empty(t, res)

	coded, err := s.Dispatch(uint32(session.Encode), make([]byte, 320))
	require.NoError(t, err)
	assert.Len(t, coded, 160)

	pcm, err := s.Dispatch(uint32(session.Decode), coded)
	require.NoError(t, err)
	assert.Len(t, pcm, 320)

	require.NoError(t, s.Close())
	assert.Equal(t, 0, f.manager.Count())

	_, err = s.Dispatch(uint32(session.Encode), make([]byte, 320))
	assert.ErrorIs(t, err, ac.ErrSessionNotFound)
	assert.ErrorIs(t, s.Close(), ac.ErrSessionNotFound)
}

func TestOpenErrors(t *testing.T) {
	f := newFixture(t, session.MaxSessions(1))

	cs, err := NewCodecServer(testService, f.client, nil, PingInterval(0))
	require.NoError(t, err)
	defer cs.Close()

	_, err = cs.Open(context.Background(), "mp3")
	assert.ErrorIs(t, err, ac.ErrUnknownKind)

	_, err = cs.Open(context.Background(), "resampler")
	require.NoError(t, err)

	_, err = cs.Open(context.Background(), "gsm")
	assert.ErrorIs(t, err, ac.ErrTooManySessions)
	assert.Equal(t, ac.CodeTooManySessions, ac.CodeOf(err))
}

func TestEventNotification(t *testing.T) {
	f := newFixture(t)

	evCh := make(chan events.Event, 16)
	cs, err := NewCodecServer(testService, f.client, nil,
		PingInterval(0),
		NotifyCb(func(ev events.Event) { evCh <- ev }),
	)
	require.NoError(t, err)
	defer cs.Close()

	s, err := cs.Open(context.Background(), "speex")
	require.NoError(t, err)

	select {
	case ev := <-evCh:
		assert.Equal(t, events.Opened, ev.Type)
		assert.Equal(t, s.ID(), ev.SessionID)
		assert.Equal(t, "speex", ev.Kind)
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}

	cs.Close()
	assert.Equal(t, 0, f.client.broker.subscribers(codecserver.EventsTopic(testService)))
}

func TestPingLatencyAndDone(t *testing.T) {
	f := newFixture(t)

	doneCh := make(chan struct{})
	cs, err := NewCodecServer(testService, f.client, doneCh, PingInterval(10*time.Millisecond))
	require.NoError(t, err)
	defer cs.Close()

	d, err := cs.Ping(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, d, time.Duration(0))

	f.client.setDown(true)

	select {
	case <-doneCh:
	case <-time.After(time.Second):
		t.Fatal("done channel not closed")
	}
}
