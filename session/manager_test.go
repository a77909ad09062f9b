package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ac "github.com/dh1tw/remoteCodec/audiocodec"
	"github.com/dh1tw/remoteCodec/audiocodec/codectest"
	"github.com/dh1tw/remoteCodec/events"
	"github.com/dh1tw/remoteCodec/resampler"
)

func TestManagerOpenGetClose(t *testing.T) {
	reg, backends := codectest.NewRegistry()
	m := NewManager(reg)

	s, err := m.Open("gsm")
	require.NoError(t, err)
	assert.Equal(t, 1, m.Count())

	got, err := m.Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)

	coded, err := m.Dispatch(s.ID(), uint32(Encode), make([]byte, 320))
	require.NoError(t, err)
	assert.Len(t, coded, 33)

	require.NoError(t, m.Close(s.ID()))
	assert.Equal(t, 0, m.Count())
	assert.Equal(t, 1, backends.Codecs(ac.GSM0610)[0].Closed())

	_, err = m.Get(s.ID())
	assert.ErrorIs(t, err, ac.ErrSessionNotFound)
	assert.ErrorIs(t, m.Close(s.ID()), ac.ErrSessionNotFound)
	_, err = m.Dispatch(s.ID(), uint32(Encode), make([]byte, 320))
	assert.ErrorIs(t, err, ac.ErrSessionNotFound)
}

func TestManagerMaxSessions(t *testing.T) {
	reg, _ := codectest.NewRegistry()
	m := NewManager(reg, MaxSessions(2))
	defer m.CloseAll()

	a, err := m.Open("gsm")
	require.NoError(t, err)
	_, err = m.Open(ResamplerKind)
	require.NoError(t, err)

	_, err = m.Open("g729")
	assert.ErrorIs(t, err, ac.ErrTooManySessions)

	require.NoError(t, m.Close(a.ID()))
	_, err = m.Open("g729")
	assert.NoError(t, err)
}

func TestManagerFailedOpenFreesSlot(t *testing.T) {
	reg, backends := codectest.NewRegistry()
	backends.FailInit(ac.ILBC, codectest.ErrInit)
	m := NewManager(reg, MaxSessions(1))
	defer m.CloseAll()

	_, err := m.Open("ilbc")
	assert.ErrorIs(t, err, ac.ErrBackendFailure)
	_, err = m.Open("nope")
	assert.ErrorIs(t, err, ac.ErrUnknownKind)

	_, err = m.Open("gsm")
	assert.NoError(t, err)
}

func TestManagerConcurrentSessions(t *testing.T) {
	reg, _ := codectest.NewRegistry()
	m := NewManager(reg)
	defer m.CloseAll()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := m.Open("ilbc")
			if !assert.NoError(t, err) {
				return
			}
			for j := 0; j < 50; j++ {
				pcm := make([]byte, 320+160*(j%2))
				coded, err := s.Dispatch(uint32(Encode), pcm)
				if !assert.NoError(t, err) {
					return
				}
				out, err := s.Dispatch(uint32(Decode), coded)
				assert.NoError(t, err)
				assert.Len(t, out, len(pcm))
			}
			assert.NoError(t, m.Close(s.ID()))
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, m.Count())
}

func TestManagerList(t *testing.T) {
	reg, _ := codectest.NewRegistry()
	m := NewManager(reg)
	defer m.CloseAll()

	_, err := m.Open("gsm")
	require.NoError(t, err)
	_, err = m.Open("g726")
	require.NoError(t, err)

	infos := m.List()
	require.Len(t, infos, 2)
	kinds := []string{infos[0].Kind, infos[1].Kind}
	assert.ElementsMatch(t, []string{"gsm", "g726"}, kinds)
	for _, info := range infos {
		if info.Kind == "g726" {
			assert.Equal(t, StatePending, info.State)
		}
	}

	assert.Contains(t, m.Kinds(), "speex")
	assert.Contains(t, m.Kinds(), ResamplerKind)
}

func TestManagerReap(t *testing.T) {
	reg, backends := codectest.NewRegistry()
	var mu sync.Mutex
	reaped := []string{}
	m := NewManager(reg, IdleTimeout(50*time.Millisecond), OnEvent(func(ev events.Event) {
		if ev.Type == events.Reaped {
			mu.Lock()
			reaped = append(reaped, ev.SessionID)
			mu.Unlock()
		}
	}))
	defer m.CloseAll()

	idle, err := m.Open("gsm")
	require.NoError(t, err)
	busy, err := m.Open("g729")
	require.NoError(t, err)

	assert.Equal(t, 0, m.Reap(time.Now()))

	time.Sleep(100 * time.Millisecond)
	_, err = busy.Dispatch(uint32(Encode), make([]byte, 160))
	require.NoError(t, err)

	assert.Equal(t, 1, m.Reap(time.Now()))
	assert.Equal(t, 1, m.Count())

	_, err = m.Get(idle.ID())
	assert.ErrorIs(t, err, ac.ErrSessionNotFound)
	assert.Equal(t, StateClosed, idle.State())
	assert.Equal(t, 1, backends.Codecs(ac.GSM0610)[0].Closed())

	mu.Lock()
	assert.Equal(t, []string{idle.ID()}, reaped)
	mu.Unlock()
}

func TestManagerReaperDisabled(t *testing.T) {
	reg, _ := codectest.NewRegistry()
	m := NewManager(reg, IdleTimeout(0))
	defer m.CloseAll()

	_, err := m.Open("gsm")
	require.NoError(t, err)
	assert.Equal(t, 0, m.Reap(time.Now().Add(24*time.Hour)))
	assert.Equal(t, 1, m.Count())
}

func TestManagerRunReaperClosesAll(t *testing.T) {
	reg, backends := codectest.NewRegistry()
	m := NewManager(reg)

	_, err := m.Open("gsm")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.RunReaper(ctx, 10*time.Millisecond)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop")
	}
	assert.Equal(t, 0, m.Count())
	assert.Equal(t, 1, backends.Codecs(ac.GSM0610)[0].Closed())
}

func TestManagerHistory(t *testing.T) {
	reg, _ := codectest.NewRegistry()
	m := NewManager(reg, HistorySize(3))

	s, err := m.Open("g726")
	require.NoError(t, err)
	_, err = s.Dispatch(uint32(Setup), []byte{16})
	require.NoError(t, err)
	require.NoError(t, m.Close(s.ID()))

	h := m.History()
	require.Len(t, h, 3)
	assert.Equal(t, events.Opened, h[0].Type)
	assert.Equal(t, events.Setup, h[1].Type)
	assert.Equal(t, events.Closed, h[2].Type)
	assert.Equal(t, s.ID(), h[2].SessionID)
	assert.Equal(t, "g726", h[2].Kind)

	_, err = m.Open("gsm")
	require.NoError(t, err)
	h = m.History()
	require.Len(t, h, 3)
	assert.Equal(t, events.Setup, h[0].Type)
	assert.Equal(t, events.Opened, h[2].Type)
	m.CloseAll()
}

func TestManagerEngine(t *testing.T) {
	reg, _ := codectest.NewRegistry()

	m := NewManager(reg)
	assert.Equal(t, "speex-4", m.Engine())

	m = NewManager(reg, Engine(resampler.NewSpeexEngine(3)))
	assert.Equal(t, "speex-3", m.Engine())
}
