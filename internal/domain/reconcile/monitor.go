// Package reconcile detects windows that changed state without the
// engine's involvement. No universal cross-process notification exists
// for arbitrary foreign windows, so this is a deliberate poll-based
// reconciliation task, not a missing-events workaround.
package reconcile

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/windowhub/engine/internal/shared/id"
	"github.com/windowhub/engine/internal/shared/types"
	"github.com/windowhub/engine/internal/winsys"
)

// DefaultInterval is the reconciliation period.
const DefaultInterval = time.Second

// Sessions is the registry view the monitor reads.
type Sessions interface {
	List() []types.Session
}

// Sink receives reconciliation outcomes. Invalidate must funnel into
// the engine's single serialized removal path; the monitor itself only
// reads native state.
type Sink interface {
	InvalidateSession(sid id.SessionID, reason string)
	UpdateSessionTitle(sid id.SessionID, title string)
}

// Monitor periodically verifies every session's window is still alive
// and still parented under the host container.
type Monitor struct {
	sys       winsys.System
	sessions  Sessions
	sink      Sink
	container winsys.Handle
	interval  time.Duration
	logger    *zap.Logger
}

// NewMonitor creates an external-change monitor. A non-positive
// interval falls back to DefaultInterval.
func NewMonitor(sys winsys.System, sessions Sessions, sink Sink, container winsys.Handle, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		sys:       sys,
		sessions:  sessions,
		sink:      sink,
		container: container,
		interval:  interval,
		logger:    logger,
	}
}

// Run sweeps on the configured interval until the context is done.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Sweep reconciles the registry against ground truth once. Sessions
// whose window died or was detached from the container are handed to
// the sink for invalidation; title drift is synced in place.
func (m *Monitor) Sweep() {
	for _, s := range m.sessions.List() {
		if s.State != types.StateEmbedded {
			continue
		}
		if !m.sys.IsWindow(s.Handle) {
			m.sink.InvalidateSession(s.ID, "window destroyed")
			continue
		}
		if !m.sys.IsDescendant(m.container, s.Handle) {
			m.sink.InvalidateSession(s.ID, "window detached from container")
			continue
		}
		if title := m.sys.Title(s.Handle); title != "" && title != s.Title {
			m.sink.UpdateSessionTitle(s.ID, title)
		}
	}
}
