package codecserver

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/asim/go-micro/v3/broker"
	"github.com/cskr/pubsub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ac "github.com/dh1tw/remoteCodec/audiocodec"
	"github.com/dh1tw/remoteCodec/audiocodec/codectest"
	"github.com/dh1tw/remoteCodec/events"
	"github.com/dh1tw/remoteCodec/session"
)

type published struct {
	topic string
	msg   *broker.Message
}

type fakePublisher struct {
	sync.Mutex
	msgs []published
}

func (p *fakePublisher) Publish(topic string, m *broker.Message, opts ...broker.PublishOption) error {
	p.Lock()
	defer p.Unlock()
	p.msgs = append(p.msgs, published{topic, m})
	return nil
}

func (p *fakePublisher) messages() []published {
	p.Lock()
	defer p.Unlock()
	return append([]published{}, p.msgs...)
}

func newTestServer(t *testing.T, opts ...session.Option) (*CodecServer, *session.Manager) {
	reg, _ := codectest.NewRegistry()
	m := session.NewManager(reg, opts...)
	cs, err := NewCodecServer(ServiceName("shackbus.radio.mystation.codec"), Manager(m))
	require.NoError(t, err)
	return cs, m
}

func TestNewCodecServerMissingOptions(t *testing.T) {
	_, err := NewCodecServer(ServiceName("test"))
	assert.Error(t, err)

	reg, _ := codectest.NewRegistry()
	_, err = NewCodecServer(Manager(session.NewManager(reg)))
	assert.Error(t, err)
}

func TestOpenControlClose(t *testing.T) {
	cs, m := newTestServer(t)
	ctx := context.Background()

	open := &OpenResponse{}
	require.NoError(t, cs.Open(ctx, &OpenRequest{Kind: "gsm"}, open))
	require.Equal(t, ac.CodeOK, open.Code)
	assert.Equal(t, "gsm", open.Session.Kind)
	assert.Equal(t, session.StateReady, open.Session.State)
	assert.Equal(t, 1, m.Count())

	enc := &ControlResponse{}
	require.NoError(t, cs.Control(ctx, &ControlRequest{
		Session: open.Session.ID,
		Command: uint32(session.Encode),
		Payload: make([]byte, 320),
	}, enc))
	require.Equal(t, ac.CodeOK, enc.Code)
	assert.Len(t, enc.Payload, 33)

	dec := &ControlResponse{}
	require.NoError(t, cs.Control(ctx, &ControlRequest{
		Session: open.Session.ID,
		Command: uint32(session.Decode),
		Payload: enc.Payload,
	}, dec))
	require.Equal(t, ac.CodeOK, dec.Code)
	assert.Len(t, dec.Payload, 320)

	closeRsp := &CloseResponse{}
	require.NoError(t, cs.Close(ctx, &CloseRequest{Session: open.Session.ID}, closeRsp))
	assert.Equal(t, ac.CodeOK, closeRsp.Code)
	assert.Equal(t, 0, m.Count())
}

func TestErrorsInResponse(t *testing.T) {
	cs, _ := newTestServer(t, session.MaxSessions(1))
	ctx := context.Background()

	open := &OpenResponse{}
	require.NoError(t, cs.Open(ctx, &OpenRequest{Kind: "mp3"}, open))
	assert.Equal(t, ac.CodeUnknownKind, open.Code)
	assert.NotEmpty(t, open.Message)

	open = &OpenResponse{}
	require.NoError(t, cs.Open(ctx, &OpenRequest{Kind: "g726"}, open))
	require.Equal(t, ac.CodeOK, open.Code)

	full := &OpenResponse{}
	require.NoError(t, cs.Open(ctx, &OpenRequest{Kind: "gsm"}, full))
	assert.Equal(t, ac.CodeTooManySessions, full.Code)

	tests := []struct {
		name string
		req  *ControlRequest
		code ac.Code
	}{
		{"uninitialized", &ControlRequest{Session: open.Session.ID, Command: uint32(session.Encode), Payload: make([]byte, 320)}, ac.CodeUninitializedSession},
		{"unknown command", &ControlRequest{Session: open.Session.ID, Command: 42}, ac.CodeUnknownCommand},
		{"invalid bitrate", &ControlRequest{Session: open.Session.ID, Command: uint32(session.Setup), Payload: []byte{3}}, ac.CodeInvalidParameter},
		{"unknown session", &ControlRequest{Session: "nope", Command: uint32(session.Encode)}, ac.CodeSessionNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rsp := &ControlResponse{}
			require.NoError(t, cs.Control(ctx, tc.req, rsp))
			assert.Equal(t, tc.code, rsp.Code)
			assert.Empty(t, rsp.Payload)
		})
	}

	closeRsp := &CloseResponse{}
	require.NoError(t, cs.Close(ctx, &CloseRequest{Session: "nope"}, closeRsp))
	assert.Equal(t, ac.CodeSessionNotFound, closeRsp.Code)
}

func TestCodecs(t *testing.T) {
	cs, _ := newTestServer(t, session.MaxSessions(8))

	rsp := &CodecsResponse{}
	require.NoError(t, cs.Codecs(context.Background(), &None{}, rsp))

	names := []string{}
	for _, d := range rsp.Codecs {
		names = append(names, d.Name)
	}
	assert.ElementsMatch(t, []string{"g726", "g729", "gsm", "ilbc", "lpc10", "speex", "opus"}, names)
	assert.NotEmpty(t, rsp.Engine)
	assert.Contains(t, rsp.Rates, 8000)
	assert.Equal(t, 8, rsp.MaxSessions)
	assert.Equal(t, 0, rsp.Sessions)
}

func TestPing(t *testing.T) {
	cs, _ := newTestServer(t)

	before := time.Now()
	out := &PingPong{}
	require.NoError(t, cs.Ping(context.Background(), &PingPong{Ping: 12345}, out))
	assert.Equal(t, int64(12345), out.Ping)

	cs.RLock()
	defer cs.RUnlock()
	assert.False(t, cs.lastPing.Before(before))
}

func TestEventsArePublished(t *testing.T) {
	ps := pubsub.New(16)
	defer ps.Shutdown()

	reg, _ := codectest.NewRegistry()
	m := session.NewManager(reg, session.OnEvent(func(ev events.Event) {
		ps.Pub(ev, events.Session)
	}))

	pub := &fakePublisher{}
	cs, err := NewCodecServer(
		ServiceName("test.codec"),
		Manager(m),
		Broker(pub),
		Events(ps.Sub(events.Session)),
	)
	require.NoError(t, err)

	open := &OpenResponse{}
	require.NoError(t, cs.Open(context.Background(), &OpenRequest{Kind: "ilbc"}, open))
	require.Equal(t, ac.CodeOK, open.Code)

	require.Eventually(t, func() bool {
		return len(pub.messages()) > 0
	}, time.Second, 10*time.Millisecond)

	msg := pub.messages()[0]
	assert.Equal(t, "test.codec.events", msg.topic)
	assert.Equal(t, "application/json", msg.msg.Header["Content-Type"])
	assert.Equal(t, string(events.Opened), msg.msg.Header["Event"])

	var ev events.Event
	require.NoError(t, json.Unmarshal(msg.msg.Body, &ev))
	assert.Equal(t, events.Opened, ev.Type)
	assert.Equal(t, open.Session.ID, ev.SessionID)
	assert.Equal(t, "ilbc", ev.Kind)
}

func TestPublishWithoutBroker(t *testing.T) {
	cs, _ := newTestServer(t)
	assert.Error(t, cs.publishEvent(events.New(events.Opened, "id", "gsm", "")))
}
