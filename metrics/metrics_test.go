package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSessionGauges(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.SessionOpened("gsm")
	m.SessionOpened("gsm")
	m.SessionOpened("g729")
	m.SessionClosed("gsm")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionsActive.WithLabelValues("gsm")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.sessionsOpened.WithLabelValues("gsm")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionsActive.WithLabelValues("g729")))
}

func TestCommands(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Command("gsm", "encode", "OK", time.Millisecond)
	m.Command("gsm", "encode", "InvalidLength", time.Microsecond)
	m.Command("gsm", "encode", "OK", time.Millisecond)
	m.SessionReaped()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.commands.WithLabelValues("gsm", "encode", "OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commands.WithLabelValues("gsm", "encode", "InvalidLength")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessionsReaped))
	assert.Equal(t, 1, testutil.CollectAndCount(m.commandDuration))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.SessionOpened("gsm")
		m.SessionClosed("gsm")
		m.SessionReaped()
		m.Command("gsm", "encode", "OK", time.Millisecond)
	})
}
