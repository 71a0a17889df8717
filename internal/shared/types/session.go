package types

import (
	"time"

	"github.com/windowhub/engine/internal/shared/id"
	"github.com/windowhub/engine/internal/winsys"
)

// State represents session lifecycle states.
type State string

const (
	StateFree        State = "free"
	StateEmbedding   State = "embedding"
	StateEmbedded    State = "embedded"
	StateReleasing   State = "releasing"
	StateReleased    State = "released"
	StateInvalidated State = "invalidated"
)

// StyleSnapshot captures a window's pre-embed chrome so the embedding
// can be reversed exactly. Owned by the embedding controller for the
// lifetime of the session.
type StyleSnapshot struct {
	Style   winsys.Style   `json:"-"`
	ExStyle winsys.ExStyle `json:"-"`
	Parent  winsys.Handle  `json:"-"`
	Bounds  winsys.Rect    `json:"-"`
}

// Session is the host's tracked record of one embedded window. The
// underlying handle is borrowed state: the owning process can
// invalidate it at any time, independent of this record.
type Session struct {
	ID        id.SessionID  `json:"id"`
	Handle    winsys.Handle `json:"handle"`
	ProcessID uint32        `json:"process_id"`
	Title     string        `json:"title"`
	Icon      string        `json:"icon,omitempty"` // owning executable path, resolved by the UI layer
	State     State         `json:"state"`
	Snapshot  StyleSnapshot `json:"-"`
	CreatedAt time.Time     `json:"created_at"`
}

// Summary is the session view carried on events and API responses.
type Summary struct {
	ID        id.SessionID  `json:"id"`
	Handle    winsys.Handle `json:"handle"`
	ProcessID uint32        `json:"process_id"`
	Title     string        `json:"title"`
	Icon      string        `json:"icon,omitempty"`
	State     State         `json:"state"`
}

// Summarize returns the public view of a session.
func (s *Session) Summarize() Summary {
	return Summary{
		ID:        s.ID,
		Handle:    s.Handle,
		ProcessID: s.ProcessID,
		Title:     s.Title,
		Icon:      s.Icon,
		State:     s.State,
	}
}

// Stats contains registry statistics.
type Stats struct {
	TotalSessions   int           `json:"total_sessions"`
	ActiveSession   *id.SessionID `json:"active_session,omitempty"`
	EmbeddedCount   int           `json:"embedded_count"`
	InvalidatedSeen int           `json:"invalidated_seen"`
}
