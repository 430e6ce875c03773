// Package notify carries display-facing echoes of operation outcomes.
//
// The recorder is a side channel for UIs and dashboards: the value an
// operation returns to its caller is always the authoritative result.
// Events are keyed by the per-call request ID, so concurrent operations
// never overwrite each other's outcome.
package notify

import (
	"context"
	"log"
	"time"
)

// Severity classifies an event for display purposes.
type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityError Severity = "error"
)

// Event is one operation outcome.
type Event struct {
	CallID   string    `json:"callId"` // request ID of the call that produced this event
	Op       string    `json:"op"`
	Message  string    `json:"message"` // human-readable text; error events carry the backend's message verbatim
	Severity Severity  `json:"severity"`
	OK       bool      `json:"ok"`
	Visible  bool      `json:"visible"` // whether a UI should surface this to the end user
	At       time.Time `json:"at"`
}

// Recorder receives operation-outcome events. Implementations must be safe
// for concurrent use; operations from parallel requests record concurrently.
type Recorder interface {
	Record(ctx context.Context, ev Event)
}

// LogRecorder writes events to the process log. It is the default recorder.
type LogRecorder struct{}

// Record logs the event.
func (LogRecorder) Record(_ context.Context, ev Event) {
	log.Printf("notify: call=%s op=%s ok=%t severity=%s %s", ev.CallID, ev.Op, ev.OK, ev.Severity, ev.Message)
}

// Success builds an info event for a completed operation.
func Success(callID, op, message string) Event {
	return Event{
		CallID:   callID,
		Op:       op,
		Message:  message,
		Severity: SeverityInfo,
		OK:       true,
		Visible:  true,
		At:       time.Now().UTC(),
	}
}

// Failure builds an error event carrying the failure text.
func Failure(callID, op, message string) Event {
	return Event{
		CallID:   callID,
		Op:       op,
		Message:  message,
		Severity: SeverityError,
		OK:       false,
		Visible:  true,
		At:       time.Now().UTC(),
	}
}
