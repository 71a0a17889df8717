package session

import (
	"fmt"
	"sync"

	"github.com/windowhub/engine/internal/shared/id"
	"github.com/windowhub/engine/internal/shared/types"
	"github.com/windowhub/engine/internal/winsys"
)

// Registry is the ordered session collection.
//
// Invariants: at most one session per distinct native handle; at most
// one session is active at a time. Removal is funneled through Remove
// so the caller can pair it with the best-effort style restoration.
type Registry struct {
	mu          sync.RWMutex
	order       []*types.Session // Tab order, protected by mu
	byID        map[id.SessionID]*types.Session
	byHandle    map[winsys.Handle]*types.Session
	activeID    *id.SessionID
	invalidated int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:     make(map[id.SessionID]*types.Session),
		byHandle: make(map[winsys.Handle]*types.Session),
	}
}

// Add appends a session to the tab order. Fails with ErrAlreadyEmbedded
// when the handle is already tracked.
func (r *Registry) Add(s *types.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byHandle[s.Handle]; exists {
		return fmt.Errorf("handle %#x: %w", uintptr(s.Handle), types.ErrAlreadyEmbedded)
	}
	r.order = append(r.order, s)
	r.byID[s.ID] = s
	r.byHandle[s.Handle] = s
	return nil
}

// Get retrieves a session copy by id.
func (r *Registry) Get(sid id.SessionID) (types.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byID[sid]
	if !ok {
		return types.Session{}, false
	}
	return *s, true
}

// ByHandle retrieves a session copy by native handle.
func (r *Registry) ByHandle(h winsys.Handle) (types.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.byHandle[h]
	if !ok {
		return types.Session{}, false
	}
	return *s, true
}

// Has reports whether a handle is tracked.
func (r *Registry) Has(h winsys.Handle) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byHandle[h]
	return ok
}

// List returns session copies in tab order.
func (r *Registry) List() []types.Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]types.Session, 0, len(r.order))
	for _, s := range r.order {
		out = append(out, *s)
	}
	return out
}

// Len returns the number of tracked sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// SetState mutates a session's lifecycle state.
func (r *Registry) SetState(sid id.SessionID, st types.State) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[sid]
	if !ok {
		return false
	}
	s.State = st
	if st == types.StateInvalidated {
		r.invalidated++
	}
	return true
}

// SetTitle updates a session's display title after external
// reconciliation noticed a change.
func (r *Registry) SetTitle(sid id.SessionID, title string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[sid]
	if !ok {
		return false
	}
	s.Title = title
	return true
}

// SetIcon records the session's icon source path.
func (r *Registry) SetIcon(sid id.SessionID, icon string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[sid]
	if !ok {
		return false
	}
	s.Icon = icon
	return true
}

// Remove deletes a session, preserving the order of the rest. Returns
// the removed record so the caller can run restoration against its
// snapshot. The active marker moves to the neighboring tab, previous
// one when the last tab was removed.
func (r *Registry) Remove(sid id.SessionID) (types.Session, *id.SessionID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.byID[sid]
	if !ok {
		return types.Session{}, nil, false
	}

	idx := r.indexOf(sid)
	r.order = append(r.order[:idx], r.order[idx+1:]...)
	delete(r.byID, sid)
	delete(r.byHandle, s.Handle)

	var next *id.SessionID
	if r.activeID != nil && *r.activeID == sid {
		r.activeID = nil
		if len(r.order) > 0 {
			if idx >= len(r.order) {
				idx = len(r.order) - 1
			}
			nid := r.order[idx].ID
			next = &nid
		}
	}
	return *s, next, true
}

// SetActive marks a session active; any other session loses the marker.
func (r *Registry) SetActive(sid id.SessionID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[sid]; !ok {
		return false
	}
	r.activeID = &sid
	return true
}

// Active returns the active session copy, if any.
func (r *Registry) Active() (types.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.activeID == nil {
		return types.Session{}, false
	}
	s, ok := r.byID[*r.activeID]
	if !ok {
		return types.Session{}, false
	}
	return *s, true
}

// Neighbor returns the session delta tabs away from sid in tab order,
// wrapping around.
func (r *Registry) Neighbor(sid id.SessionID, delta int) (types.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := len(r.order)
	if n == 0 {
		return types.Session{}, false
	}
	idx := r.indexOf(sid)
	if idx < 0 {
		return types.Session{}, false
	}
	idx = ((idx+delta)%n + n) % n
	return *r.order[idx], true
}

// At returns the session at tab position i (zero-based).
func (r *Registry) At(i int) (types.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if i < 0 || i >= len(r.order) {
		return types.Session{}, false
	}
	return *r.order[i], true
}

// Stats returns registry statistics.
func (r *Registry) Stats() types.Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	embedded := 0
	for _, s := range r.order {
		if s.State == types.StateEmbedded {
			embedded++
		}
	}
	var active *id.SessionID
	if r.activeID != nil {
		a := *r.activeID
		active = &a
	}
	return types.Stats{
		TotalSessions:   len(r.order),
		ActiveSession:   active,
		EmbeddedCount:   embedded,
		InvalidatedSeen: r.invalidated,
	}
}

// indexOf must be called with the lock held.
func (r *Registry) indexOf(sid id.SessionID) int {
	for i, s := range r.order {
		if s.ID == sid {
			return i
		}
	}
	return -1
}
