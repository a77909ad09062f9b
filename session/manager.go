package session

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	ring "github.com/dh1tw/golang-ring"

	ac "github.com/dh1tw/remoteCodec/audiocodec"
	"github.com/dh1tw/remoteCodec/events"
	"github.com/dh1tw/remoteCodec/resampler"
)

// Manager addresses sessions by their id. It enforces the session limit,
// closes idle sessions and keeps a bounded history of lifecycle events.
type Manager struct {
	sync.RWMutex
	options   Options
	registry  *ac.Registry
	resampler *resampler.Resampler
	sessions  map[string]*Session
	opening   int
	logger    *slog.Logger

	historyMu sync.Mutex
	history   ring.Ring
	onEvent   func(events.Event)
}

// NewManager returns a Manager which creates codec backends from registry.
func NewManager(registry *ac.Registry, opts ...Option) *Manager {
	o := defaultOptions()
	for _, option := range opts {
		option(&o)
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	m := &Manager{
		registry:  registry,
		resampler: resampler.New(o.engine()),
		sessions:  make(map[string]*Session),
		logger:    o.Logger,
		history:   ring.Ring{},
		onEvent:   o.OnEvent,
	}
	if o.HistorySize > 0 {
		m.history.SetCapacity(o.HistorySize)
	}

	// sessions report their events through the manager
	o.OnEvent = m.record
	m.options = o

	return m
}

func (m *Manager) record(ev events.Event) {
	if m.options.HistorySize > 0 {
		m.historyMu.Lock()
		m.history.Enqueue(ev)
		m.historyMu.Unlock()
	}
	if m.onEvent != nil {
		m.onEvent(ev)
	}
}

// Kinds returns the session kinds which can be opened.
func (m *Manager) Kinds() []string {
	kinds := []string{}
	for _, k := range m.registry.Kinds() {
		kinds = append(kinds, k.String())
	}
	return append(kinds, ResamplerKind)
}

// Engine returns the name of the resampler engine.
func (m *Manager) Engine() string {
	return m.resampler.Engine()
}

// Open creates a new session of kind.
func (m *Manager) Open(kind string) (*Session, error) {
	m.Lock()
	if m.options.MaxSessions > 0 && len(m.sessions)+m.opening >= m.options.MaxSessions {
		m.Unlock()
		return nil, ac.NewError(ac.CodeTooManySessions, "open", "limit of %d sessions reached", m.options.MaxSessions)
	}
	m.opening++
	m.Unlock()

	// codec initialisation happens without holding the lock
	s, err := open(m.registry, kind, m.options, m.resampler)

	m.Lock()
	defer m.Unlock()
	m.opening--
	if err != nil {
		m.logger.Warn("unable to open session", "kind", kind, "error", err)
		return nil, err
	}
	m.sessions[s.ID()] = s
	return s, nil
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Session, error) {
	m.RLock()
	defer m.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ac.NewError(ac.CodeSessionNotFound, "get", "session %q", id)
	}
	return s, nil
}

// Dispatch executes a command on the session with the given id.
func (m *Manager) Dispatch(id string, cmd uint32, payload []byte) ([]byte, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	return s.Dispatch(cmd, payload)
}

// Close closes and removes the session with the given id.
func (m *Manager) Close(id string) error {
	m.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.Unlock()

	if !ok {
		return ac.NewError(ac.CodeSessionNotFound, "close", "session %q", id)
	}
	return s.Close()
}

// CloseAll closes all sessions.
func (m *Manager) CloseAll() {
	m.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.Unlock()

	for _, s := range sessions {
		if err := s.Close(); err != nil {
			m.logger.Warn("closing session failed", "session", s.ID(), "error", err)
		}
	}
}

// MaxSessions returns the session limit; zero or less means unlimited.
func (m *Manager) MaxSessions() int {
	return m.options.MaxSessions
}

// Count returns the number of open sessions.
func (m *Manager) Count() int {
	m.RLock()
	defer m.RUnlock()
	return len(m.sessions)
}

// List returns a snapshot of all open sessions, oldest first.
func (m *Manager) List() []Info {
	m.RLock()
	infos := make([]Info, 0, len(m.sessions))
	for _, s := range m.sessions {
		infos = append(infos, s.Info())
	}
	m.RUnlock()

	sort.Slice(infos, func(i, j int) bool {
		return infos[i].Created.Before(infos[j].Created)
	})
	return infos
}

// History returns the recorded lifecycle events, oldest first.
func (m *Manager) History() []events.Event {
	m.historyMu.Lock()
	defer m.historyMu.Unlock()

	values := m.history.Values()
	evs := make([]events.Event, 0, len(values))
	for _, v := range values {
		if ev, ok := v.(events.Event); ok {
			evs = append(evs, ev)
		}
	}
	return evs
}

// Reap closes all sessions which have not been used since
// now - IdleTimeout and returns their number.
func (m *Manager) Reap(now time.Time) int {
	if m.options.IdleTimeout <= 0 {
		return 0
	}

	m.Lock()
	idle := []*Session{}
	for id, s := range m.sessions {
		if now.Sub(s.LastUsed()) > m.options.IdleTimeout {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.Unlock()

	for _, s := range idle {
		m.logger.Info("closing idle session", "session", s.ID(), "kind", s.Kind(),
			"idle", now.Sub(s.LastUsed()).Round(time.Second))
		m.record(events.New(events.Reaped, s.ID(), s.Kind(), now.Sub(s.LastUsed()).String()))
		m.options.Metrics.SessionReaped()
		if err := s.Close(); err != nil {
			m.logger.Warn("closing idle session failed", "session", s.ID(), "error", err)
		}
	}
	return len(idle)
}

// RunReaper checks for idle sessions every interval until ctx is done.
// All remaining sessions are closed on return.
func (m *Manager) RunReaper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.CloseAll()
			return
		case now := <-ticker.C:
			m.Reap(now)
		}
	}
}
