// Package engine is the session lifecycle facade: it owns the registry,
// serializes state transitions, and funnels every removal through a
// single path that pairs deregistration with best-effort restoration.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/windowhub/engine/internal/domain/directory"
	"github.com/windowhub/engine/internal/domain/embed"
	"github.com/windowhub/engine/internal/domain/focus"
	"github.com/windowhub/engine/internal/domain/launch"
	"github.com/windowhub/engine/internal/domain/reconcile"
	"github.com/windowhub/engine/internal/domain/repaint"
	"github.com/windowhub/engine/internal/domain/session"
	"github.com/windowhub/engine/internal/infrastructure/monitoring"
	"github.com/windowhub/engine/internal/shared/id"
	"github.com/windowhub/engine/internal/shared/types"
	"github.com/windowhub/engine/internal/winsys"
)

// Options tunes engine construction. The zero value takes every
// default.
type Options struct {
	Policy          *embed.Policy
	DetachDelay     time.Duration
	LaunchTimeout   time.Duration
	LaunchPoll      time.Duration
	MonitorInterval time.Duration
	AppRoots        []string
	StartFunc       launch.StartFunc
}

// Engine coordinates embedding, focus, launching and reconciliation
// over one host container window.
type Engine struct {
	sys       winsys.System
	registry  *session.Registry
	ctrl      *embed.Controller
	focus     *focus.Coordinator
	watchdog  *repaint.Watchdog
	dir       *directory.Directory
	launcher  *launch.Launcher
	apps      *launch.AppIndex
	monitor   *reconcile.Monitor
	logger    *zap.Logger
	metrics   *monitoring.Metrics
	container winsys.Handle

	ops  chan func() // serializes all state transitions
	done chan struct{}

	pane winsys.Rect

	subs    map[int]chan types.Event
	nextSub int
}

// New creates an engine hosting sessions inside the given container
// window, laying embedded windows out over pane.
func New(sys winsys.System, container winsys.Handle, pane winsys.Rect, opts Options, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Policy == nil {
		opts.Policy = embed.DefaultPolicy()
	}

	watchdog := repaint.NewWatchdog(sys, logger)
	dir := directory.New(sys)
	e := &Engine{
		sys:       sys,
		registry:  session.NewRegistry(),
		ctrl:      embed.NewController(sys, watchdog, opts.Policy, logger),
		focus:     focus.NewCoordinator(sys, opts.DetachDelay, logger),
		watchdog:  watchdog,
		dir:       dir,
		launcher:  launch.NewLauncher(dir, opts.StartFunc, opts.LaunchTimeout, opts.LaunchPoll, logger),
		apps:      launch.NewAppIndex(opts.AppRoots, logger),
		logger:    logger,
		container: container,
		pane:      pane,
		ops:       make(chan func(), 64),
		done:      make(chan struct{}),
		subs:      make(map[int]chan types.Event),
	}
	e.monitor = reconcile.NewMonitor(sys, e.registry, e, container, opts.MonitorInterval, logger)
	return e
}

// WithMetrics attaches a metrics collector.
func (e *Engine) WithMetrics(m *monitoring.Metrics) *Engine {
	e.metrics = m
	return e
}

// Run serializes state transitions and drives reconciliation until the
// context is done. Every mutating operation blocks until Run picks it
// up, so Run must be started before the first call.
func (e *Engine) Run(ctx context.Context) {
	go e.monitor.Run(ctx)
	defer close(e.done)
	for {
		select {
		case <-ctx.Done():
			return
		case op := <-e.ops:
			op()
		}
	}
}

// do runs fn on the serialization loop and waits for it.
func (e *Engine) do(fn func()) {
	wait := make(chan struct{})
	select {
	case e.ops <- func() { fn(); close(wait) }:
	case <-e.done:
		return
	}
	select {
	case <-wait:
	case <-e.done:
	}
}

// Embed captures the window behind handle as a new session and makes it
// the active tab. Concurrent attempts against one handle collapse to a
// single winner; the rest fail with ErrAlreadyEmbedded.
func (e *Engine) Embed(h winsys.Handle) (types.Session, error) {
	var (
		out types.Session
		err error
	)
	e.do(func() { out, err = e.embedLocked(h) })
	return out, err
}

func (e *Engine) embedLocked(h winsys.Handle) (types.Session, error) {
	if e.registry.Has(h) {
		e.metrics.RecordEmbedError("already_embedded")
		return types.Session{}, fmt.Errorf("handle %#x: %w", uintptr(h), types.ErrAlreadyEmbedded)
	}

	snap, err := e.ctrl.Embed(h, e.container, e.pane)
	if err != nil {
		e.metrics.RecordEmbedError(reason(err))
		return types.Session{}, err
	}

	s := &types.Session{
		ID:        id.NewSessionID(),
		Handle:    h,
		ProcessID: e.sys.ProcessID(h),
		Title:     e.sys.Title(h),
		State:     types.StateEmbedded,
		Snapshot:  snap,
		CreatedAt: time.Now(),
	}
	if err := e.registry.Add(s); err != nil {
		// Unreachable while transitions are serialized; undo anyway.
		_ = e.ctrl.Release(h, snap)
		return types.Session{}, err
	}

	e.logger.Info("session created",
		zap.String("session_id", string(s.ID)),
		zap.String("title", s.Title),
		zap.Uint32("pid", s.ProcessID))
	e.metrics.RecordEmbed(e.registry.Len())
	e.publish(types.EventSessionCreated, s.Summarize())

	e.activateSession(*s)
	return *s, nil
}

// Release detaches the session's window and restores it to the desktop.
func (e *Engine) Release(sid id.SessionID) error {
	var err error
	e.do(func() { err = e.removeSession(sid, "") })
	return err
}

// CloseSession releases the session's window and then asks it to close
// itself. The owning process decides whether to honor the request.
func (e *Engine) CloseSession(sid id.SessionID) error {
	var err error
	e.do(func() {
		s, ok := e.registry.Get(sid)
		if !ok {
			err = fmt.Errorf("session %s: %w", sid, types.ErrSessionNotFound)
			return
		}
		if err = e.removeSession(sid, ""); err != nil {
			return
		}
		if perr := e.sys.PostClose(s.Handle); perr != nil {
			e.logger.Debug("close request not delivered", zap.String("session_id", string(sid)), zap.Error(perr))
		}
	})
	return err
}

// Activate makes the session the active tab: shows its window, hides
// the rest, and moves keyboard focus into it. A session whose window
// died is removed and reported gone.
func (e *Engine) Activate(sid id.SessionID) error {
	var err error
	e.do(func() { err = e.activateByID(sid) })
	return err
}

func (e *Engine) activateByID(sid id.SessionID) error {
	s, ok := e.registry.Get(sid)
	if !ok {
		return fmt.Errorf("session %s: %w", sid, types.ErrSessionNotFound)
	}
	if !e.sys.IsWindow(s.Handle) {
		_ = e.removeSession(sid, "window destroyed")
		return fmt.Errorf("session %s: %w", sid, types.ErrSessionGone)
	}
	return e.activateSession(s)
}

// activateSession runs on the serialization loop.
func (e *Engine) activateSession(s types.Session) error {
	prev, hadPrev := e.registry.Active()

	e.sys.Show(s.Handle)
	if err := e.sys.Place(s.Handle, e.pane); err != nil {
		e.logger.Debug("layout skipped", zap.String("session_id", string(s.ID)), zap.Error(err))
	}
	if err := e.focus.Activate(s.Handle); err != nil {
		if types.IsGone(err) {
			_ = e.removeSession(s.ID, "window destroyed")
		}
		return fmt.Errorf("session %s: %w", s.ID, err)
	}
	if hadPrev && prev.ID != s.ID {
		e.sys.Hide(prev.Handle)
	}
	e.registry.SetActive(s.ID)
	e.watchdog.ForceRepaint(s.Handle)
	e.metrics.RecordActivation()
	e.metrics.RecordRepaint()
	e.publish(types.EventSessionActivated, s.Summarize())
	return nil
}

// removeSession is the single removal path: every way a session ends,
// user release, close, or external invalidation, funnels through here
// exactly once and pairs deregistration with the restoration attempt.
// A window the monitor caught detached is still alive, stripped to a
// bare child pane; it gets its chrome back like any released window,
// and a dead handle downgrades the restoration to a no-op. Runs on the
// serialization loop. An empty invalidation reason means the user
// asked for the removal.
func (e *Engine) removeSession(sid id.SessionID, invalidReason string) error {
	s, ok := e.registry.Get(sid)
	if !ok {
		return fmt.Errorf("session %s: %w", sid, types.ErrSessionNotFound)
	}

	e.registry.SetState(sid, types.StateReleasing)
	e.focus.CancelPending()

	if err := e.ctrl.Release(s.Handle, s.Snapshot); err != nil {
		if !types.IsGone(err) {
			e.registry.SetState(sid, types.StateEmbedded)
			return err
		}
		// Window died under us; nothing to restore.
		invalidReason = "window destroyed"
	}

	if invalidReason != "" {
		e.registry.SetState(sid, types.StateInvalidated)
		e.metrics.RecordInvalidation(invalidReason)
	}

	removed, successor, ok := e.registry.Remove(sid)
	if !ok {
		return fmt.Errorf("session %s: %w", sid, types.ErrSessionNotFound)
	}
	removed.State = types.StateReleased
	if invalidReason != "" {
		removed.State = types.StateInvalidated
	}

	e.logger.Info("session closed",
		zap.String("session_id", string(sid)),
		zap.String("reason", closeReason(invalidReason)))
	e.metrics.RecordRelease(e.registry.Len())
	e.publish(types.EventSessionClosed, removed.Summarize())

	if successor != nil {
		if err := e.activateByID(*successor); err != nil {
			e.logger.Debug("successor activation failed",
				zap.String("session_id", string(*successor)), zap.Error(err))
		}
	}
	return nil
}

// LaunchAndEmbed starts an application and embeds the window it opens.
func (e *Engine) LaunchAndEmbed(ctx context.Context, path string, args []string) (types.Session, error) {
	started := time.Now()
	c, err := e.launcher.LaunchAndCapture(ctx, path, args)
	e.metrics.RecordLaunch(time.Since(started), err)
	if err != nil {
		return types.Session{}, err
	}

	var s types.Session
	e.do(func() {
		s, err = e.embedLocked(c.Handle)
		if err == nil && s.Icon == "" {
			// The launch path is the best icon source we have.
			e.registry.SetIcon(s.ID, path)
			s.Icon = path
		}
	})
	return s, err
}

// InvalidateSession drops a session that changed state outside the
// engine. Part of the reconciliation sink.
func (e *Engine) InvalidateSession(sid id.SessionID, reason string) {
	e.do(func() {
		if err := e.removeSession(sid, reason); err != nil {
			e.logger.Debug("invalidation skipped", zap.String("session_id", string(sid)), zap.Error(err))
		}
	})
}

// UpdateSessionTitle syncs a drifted window title. Part of the
// reconciliation sink.
func (e *Engine) UpdateSessionTitle(sid id.SessionID, title string) {
	e.do(func() { e.registry.SetTitle(sid, title) })
}

// SetPaneBounds moves the embedding area, relaying the new layout to
// the active window immediately. Sub-pixel resize chatter from the UI
// is dropped: a change within one pixel on every edge is a no-op.
func (e *Engine) SetPaneBounds(r winsys.Rect) {
	e.do(func() {
		if withinOnePixel(e.pane, r) {
			return
		}
		e.pane = r
		if s, ok := e.registry.Active(); ok {
			if err := e.sys.Place(s.Handle, r); err != nil {
				e.logger.Debug("layout skipped", zap.String("session_id", string(s.ID)), zap.Error(err))
			}
		}
	})
}

// HideActive hides the active session's window, used while a palette
// overlay covers the pane. Session state is untouched.
func (e *Engine) HideActive() error {
	var err error
	e.do(func() {
		s, ok := e.registry.Active()
		if !ok {
			err = types.ErrSessionNotFound
			return
		}
		e.sys.Hide(s.Handle)
	})
	return err
}

// ShowActive re-shows the active session's window after an overlay.
func (e *Engine) ShowActive() error {
	var err error
	e.do(func() {
		s, ok := e.registry.Active()
		if !ok {
			err = types.ErrSessionNotFound
			return
		}
		e.sys.Show(s.Handle)
		e.watchdog.ForceRepaint(s.Handle)
	})
	return err
}

// Foreground reports the OS foreground window and whether it belongs
// to the host or one of its sessions.
func (e *Engine) Foreground() (winsys.Handle, bool) {
	fg := e.sys.Foreground()
	if fg == e.container || e.sys.IsDescendant(e.container, fg) {
		return fg, true
	}
	if _, ok := e.registry.ByHandle(fg); ok {
		return fg, true
	}
	return fg, false
}

func withinOnePixel(a, b winsys.Rect) bool {
	return abs(a.X-b.X) <= 1 && abs(a.Y-b.Y) <= 1 &&
		abs(a.Width-b.Width) <= 1 && abs(a.Height-b.Height) <= 1
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// NextTab activates the tab after the active one, wrapping around.
func (e *Engine) NextTab() error { return e.step(1) }

// PrevTab activates the tab before the active one, wrapping around.
func (e *Engine) PrevTab() error { return e.step(-1) }

func (e *Engine) step(delta int) error {
	var err error
	e.do(func() {
		active, ok := e.registry.Active()
		if !ok {
			if active, ok = e.registry.At(0); !ok {
				err = types.ErrSessionNotFound
				return
			}
			err = e.activateByID(active.ID)
			return
		}
		next, ok := e.registry.Neighbor(active.ID, delta)
		if !ok {
			err = types.ErrSessionNotFound
			return
		}
		err = e.activateByID(next.ID)
	})
	return err
}

// ActivateIndex activates the tab at position i.
func (e *Engine) ActivateIndex(i int) error {
	var err error
	e.do(func() {
		s, ok := e.registry.At(i)
		if !ok {
			err = fmt.Errorf("tab %d: %w", i, types.ErrSessionNotFound)
			return
		}
		err = e.activateByID(s.ID)
	})
	return err
}

// Sessions returns all sessions in tab order.
func (e *Engine) Sessions() []types.Session { return e.registry.List() }

// Session returns one session by id.
func (e *Engine) Session(sid id.SessionID) (types.Session, error) {
	s, ok := e.registry.Get(sid)
	if !ok {
		return types.Session{}, fmt.Errorf("session %s: %w", sid, types.ErrSessionNotFound)
	}
	return s, nil
}

// Stats returns registry statistics.
func (e *Engine) Stats() types.Stats { return e.registry.Stats() }

// Windows lists embeddable windows on the desktop, excluding ones
// already captured as sessions.
func (e *Engine) Windows() []directory.Candidate {
	var out []directory.Candidate
	for _, c := range e.dir.ListCandidates() {
		if e.registry.Has(c.Handle) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Apps lists installed applications.
func (e *Engine) Apps(ctx context.Context) ([]launch.App, error) {
	return e.apps.List(ctx)
}

// Sweep runs one reconciliation pass out of schedule.
func (e *Engine) Sweep() {
	e.monitor.Sweep()
	e.metrics.RecordSweep()
}

// Subscribe registers an event listener. The returned cancel function
// must be called to release the channel. Slow listeners lose events
// rather than stall the engine.
func (e *Engine) Subscribe() (<-chan types.Event, func()) {
	ch := make(chan types.Event, 32)
	var key int
	e.do(func() {
		key = e.nextSub
		e.nextSub++
		e.subs[key] = ch
	})
	cancel := func() {
		e.do(func() {
			if _, ok := e.subs[key]; ok {
				delete(e.subs, key)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// publish runs on the serialization loop.
func (e *Engine) publish(t types.EventType, s types.Summary) {
	ev := types.Event{
		ID:        uuid.NewString(),
		Type:      t,
		Session:   s,
		Timestamp: time.Now(),
	}
	for _, ch := range e.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func reason(err error) string {
	switch {
	case types.IsGone(err):
		return "invalid_handle"
	default:
		return "denied"
	}
}

func closeReason(invalidReason string) string {
	if invalidReason == "" {
		return "released"
	}
	return invalidReason
}
