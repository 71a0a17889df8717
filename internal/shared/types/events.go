package types

import "time"

// EventType identifies an engine lifecycle event.
type EventType string

const (
	EventSessionCreated   EventType = "session_created"
	EventSessionClosed    EventType = "session_closed"
	EventSessionActivated EventType = "session_activated"
)

// Event is pushed to the UI layer whenever the registry changes or the
// active session moves.
type Event struct {
	ID        string    `json:"event_id"`
	Type      EventType `json:"type"`
	Session   Summary   `json:"session"`
	Timestamp time.Time `json:"timestamp"`
}
