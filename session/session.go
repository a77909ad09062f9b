// Package session implements isolated transcoding sessions. A session owns
// exactly one codec backend (encoder and decoder state) or one resampler
// and executes the binary commands of a single caller at a time.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/looplab/fsm"

	ac "github.com/dh1tw/remoteCodec/audiocodec"
	"github.com/dh1tw/remoteCodec/events"
	"github.com/dh1tw/remoteCodec/resampler"
)

// ResamplerKind is the name which selects a resampler session.
const ResamplerKind = "resampler"

// Session states.
const (
	StatePending = "pending"
	StateReady   = "ready"
	StateFailed  = "failed"
	StateClosed  = "closed"
)

// Dispatcher is the surface shared by local sessions and remote session
// proxies.
type Dispatcher interface {
	ID() string
	Kind() string
	Dispatch(cmd uint32, payload []byte) ([]byte, error)
	Close() error
}

// Session is a single transcoding context. It is safe for concurrent use,
// but only one command is executed at a time; a command issued while
// another one is in flight fails with SessionBusy.
type Session struct {
	mu        sync.Mutex
	id        string
	kind      string
	desc      *ac.Descriptor
	registry  *ac.Registry
	options   Options
	codec     ac.Codec
	resampler *resampler.Resampler
	bitrate   atomic.Int64
	state     *fsm.FSM
	created   time.Time
	lastUsed  atomic.Int64
	commands  atomic.Uint64
	failures  atomic.Uint64
	bytesIn   atomic.Uint64
	bytesOut  atomic.Uint64
	logger    *slog.Logger
}

// Info is a snapshot of a session.
type Info struct {
	ID       string    `json:"id"`
	Kind     string    `json:"kind"`
	State    string    `json:"state"`
	Bitrate  int       `json:"bitrate,omitempty"`
	Engine   string    `json:"engine,omitempty"`
	Created  time.Time `json:"created"`
	LastUsed time.Time `json:"last_used"`
	Commands uint64    `json:"commands"`
	Errors   uint64    `json:"errors"`
	BytesIn  uint64    `json:"bytes_in"`
	BytesOut uint64    `json:"bytes_out"`
}

// Open creates a session of the given kind, which is either a codec name
// or ResamplerKind. Codecs which do not require an explicit SETUP are
// initialized immediately; a backend failure fails the open.
func Open(registry *ac.Registry, kind string, opts ...Option) (*Session, error) {
	o := defaultOptions()
	for _, option := range opts {
		option(&o)
	}
	return open(registry, kind, o, nil)
}

func open(registry *ac.Registry, kind string, o Options, rs *resampler.Resampler) (*Session, error) {

	s := &Session{
		id:       uuid.New().String(),
		registry: registry,
		options:  o,
		created:  time.Now(),
	}
	s.lastUsed.Store(s.created.UnixNano())

	if kind == ResamplerKind {
		if rs == nil {
			rs = resampler.New(o.engine())
		}
		s.kind = ResamplerKind
		s.resampler = rs
	} else {
		k, err := ac.ParseKind(kind)
		if err != nil {
			return nil, err
		}
		desc, err := ac.Lookup(k)
		if err != nil {
			return nil, err
		}
		if registry == nil || !registry.Has(k) {
			return nil, ac.NewError(ac.CodeUnknownKind, "open", "no backend registered for %v", k)
		}
		s.kind = k.String()
		s.desc = desc
	}

	s.logger = o.Logger
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("session", s.id, "kind", s.kind)

	s.state = fsm.NewFSM(
		StatePending,
		fsm.Events{
			{Name: "ready", Src: []string{StatePending, StateReady, StateFailed}, Dst: StateReady},
			{Name: "fail", Src: []string{StatePending, StateReady, StateFailed}, Dst: StateFailed},
			{Name: "close", Src: []string{StatePending, StateReady, StateFailed}, Dst: StateClosed},
		},
		fsm.Callbacks{
			"after_event": func(ctx context.Context, e *fsm.Event) {
				s.logger.Debug("session state changed", "from", e.Src, "to", e.Dst)
			},
		},
	)

	switch {
	case s.resampler != nil:
		s.transition("ready")
	case !s.desc.RequiresSetup:
		c, err := s.newCodec()
		if err != nil {
			return nil, err
		}
		s.codec = c
		s.transition("ready")
	}

	o.Metrics.SessionOpened(s.kind)
	s.emit(events.Opened, "")
	s.logger.Info("session opened", "state", s.State())

	return s, nil
}

func (s *Session) newCodec(opts ...ac.Option) (ac.Codec, error) {
	all := append([]ac.Option{}, s.options.CodecOptions[s.desc.Kind]...)
	all = append(all, opts...)
	return s.registry.New(s.desc.Kind, all...)
}

// transition fires a state machine event. Self transitions are not an
// error.
func (s *Session) transition(event string) {
	err := s.state.Event(context.Background(), event)
	if err == nil {
		return
	}
	var nt fsm.NoTransitionError
	if errors.As(err, &nt) {
		return
	}
	s.logger.Error("invalid session state transition", "event", event, "error", err)
}

func (s *Session) emit(t events.Type, detail string) {
	if s.options.OnEvent != nil {
		s.options.OnEvent(events.New(t, s.id, s.kind, detail))
	}
}

// ID returns the unique id of the session.
func (s *Session) ID() string {
	return s.id
}

// Kind returns the codec name or ResamplerKind.
func (s *Session) Kind() string {
	return s.kind
}

// Descriptor returns the codec descriptor; nil for resampler sessions.
func (s *Session) Descriptor() *ac.Descriptor {
	return s.desc
}

// State returns the current lifecycle state.
func (s *Session) State() string {
	return s.state.Current()
}

// LastUsed returns the time of the last dispatched command, or the
// creation time if none has been dispatched yet.
func (s *Session) LastUsed() time.Time {
	return time.Unix(0, s.lastUsed.Load())
}

// Info returns a snapshot of the session's state and counters.
func (s *Session) Info() Info {
	info := Info{
		ID:       s.id,
		Kind:     s.kind,
		State:    s.State(),
		Created:  s.created,
		LastUsed: s.LastUsed(),
		Commands: s.commands.Load(),
		Errors:   s.failures.Load(),
		BytesIn:  s.bytesIn.Load(),
		BytesOut: s.bytesOut.Load(),
		Bitrate:  int(s.bitrate.Load()),
	}
	if s.resampler != nil {
		info.Engine = s.resampler.Engine()
	}
	return info
}

// Dispatch executes a single command. For codec sessions cmd is one of
// Setup, Encode and Decode; for resampler sessions it is a packed
// resampler.Command.
func (s *Session) Dispatch(cmd uint32, payload []byte) ([]byte, error) {
	if !s.mu.TryLock() {
		return nil, ac.NewError(ac.CodeSessionBusy, "dispatch", "session %s is busy", s.id)
	}
	defer s.mu.Unlock()

	if s.state.Is(StateClosed) {
		return nil, ac.NewError(ac.CodeSessionClosed, "dispatch", "session %s", s.id)
	}

	start := time.Now()
	s.lastUsed.Store(start.UnixNano())

	res, err := s.dispatch(cmd, payload)

	s.commands.Add(1)
	s.bytesIn.Add(uint64(len(payload)))
	s.bytesOut.Add(uint64(len(res)))
	if err != nil {
		s.failures.Add(1)
		s.logger.Debug("command failed", "command", s.commandName(cmd), "payload", len(payload), "error", err)
	}
	s.options.Metrics.Command(s.kind, s.commandName(cmd), ac.CodeOf(err).String(), time.Since(start))

	return res, err
}

func (s *Session) commandName(cmd uint32) string {
	if s.resampler != nil {
		return ResamplerKind
	}
	return Command(cmd).String()
}

// Close releases the codec state. It waits for an in-flight command and
// may be called more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Is(StateClosed) {
		return nil
	}

	var err error
	if s.codec != nil {
		err = s.codec.Close()
		s.codec = nil
	}
	s.transition("close")
	s.options.Metrics.SessionClosed(s.kind)
	s.emit(events.Closed, "")
	s.logger.Info("session closed", "commands", s.commands.Load())

	if err != nil {
		s.logger.Warn("closing codec failed", "error", err)
		return ac.BackendError("close", err)
	}
	return nil
}
