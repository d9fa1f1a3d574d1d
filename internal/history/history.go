package history

import (
	"context"
	"time"
)

// EventType defines the kind of lifecycle event.
type EventType string

const (
	// EventStart is recorded after a daemon process was spawned.
	EventStart EventType = "start"
	// EventStop is recorded when a stop signal was issued.
	EventStop EventType = "stop"
	// EventExit is recorded once per spawn when the supervisor first
	// observes that the process is gone.
	EventExit EventType = "exit"
)

// Event is one daemon lifecycle event, kept for post-run forensics.
type Event struct {
	RunID      string    `json:"run_id"` // stable for the lifetime of one supervisor
	Daemon     string    `json:"daemon"`
	Type       EventType `json:"type"`
	PID        int       `json:"pid"`
	Detail     string    `json:"detail,omitempty"` // e.g. exit status text
	OccurredAt time.Time `json:"occurred_at"`
}

// Sink is a destination for lifecycle events. Implementations must be safe
// for concurrent use.
type Sink interface {
	Send(ctx context.Context, e Event) error
}
