package events

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cskr/pubsub"
)

// Event channel names used for event Pubsub

// internal
const (
	Shutdown = "shutdown" // bool
	OsExit   = "osExit"   // bool
)

// for session lifecycle handling
const (
	Session = "session" // Event
)

// Type is the kind of a session lifecycle event.
type Type string

// Session lifecycle event types.
const (
	Opened Type = "opened"
	Setup  Type = "setup"
	Failed Type = "failed"
	Closed Type = "closed"
	Reaped Type = "reaped"
)

// Event describes a change in the lifecycle of a session.
type Event struct {
	Type      Type      `json:"type"`
	SessionID string    `json:"session_id"`
	Kind      string    `json:"kind"`
	Time      time.Time `json:"time"`
	Detail    string    `json:"detail,omitempty"`
}

// New returns an Event of type t stamped with the current time.
func New(t Type, sessionID, kind, detail string) Event {
	return Event{
		Type:      t,
		SessionID: sessionID,
		Kind:      kind,
		Time:      time.Now(),
		Detail:    detail,
	}
}

// WatchSystemEvents blocks until the process receives SIGINT or SIGTERM
// and publishes true on the OsExit topic.
func WatchSystemEvents(evPS *pubsub.PubSub) {

	// Channel to handle OS signals
	osSignals := make(chan os.Signal, 1)

	signal.Notify(osSignals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(osSignals)

	<-osSignals
	evPS.Pub(true, OsExit)
}
