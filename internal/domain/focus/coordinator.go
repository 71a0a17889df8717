// Package focus transfers effective keyboard focus across the process
// boundary when a tab becomes active, and tears the linkage down again
// without leaving the host's input queue attached to a dead or
// backgrounded foreign thread.
package focus

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/windowhub/engine/internal/shared/types"
	"github.com/windowhub/engine/internal/winsys"
)

// DefaultDetachDelay is how long the thread-input linkage outlives the
// activation. Detaching immediately races input-method editors that
// still need the linkage to resolve a composition context, which drops
// keystrokes; ~200ms is the empirically safe window.
const DefaultDetachDelay = 200 * time.Millisecond

// Coordinator manages cross-thread input attachment and the activation
// message sequence. At most one detachment is pending at a time; a new
// activation supersedes it so the wrong thread is never detached late.
type Coordinator struct {
	sys    winsys.System
	logger *zap.Logger
	delay  time.Duration

	mu      sync.Mutex
	pending *pendingDetach
}

type pendingDetach struct {
	timer  *time.Timer
	target uint32
}

// NewCoordinator creates a focus coordinator. A non-positive delay
// falls back to DefaultDetachDelay.
func NewCoordinator(sys winsys.System, delay time.Duration, logger *zap.Logger) *Coordinator {
	if delay <= 0 {
		delay = DefaultDetachDelay
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Coordinator{sys: sys, logger: logger, delay: delay}
}

// Activate gives the window keyboard focus: resolve its owning thread,
// attach the host's input processing to it, send the activate and
// non-client-activate signals (some applications only highlight their
// title on the second one), set focus, and schedule the detachment.
//
// Fails with ErrSessionGone when the window's thread cannot be
// resolved; the caller is expected to drop the session.
func (c *Coordinator) Activate(h winsys.Handle) error {
	if !c.sys.IsWindow(h) {
		return fmt.Errorf("activate %#x: %w", uintptr(h), types.ErrSessionGone)
	}
	target := c.sys.ThreadID(h)
	if target == 0 {
		return fmt.Errorf("activate %#x: owning thread unresolvable: %w", uintptr(h), types.ErrSessionGone)
	}
	host := c.sys.CurrentThreadID()

	// Supersede any scheduled detachment before touching the new
	// thread, detaching the stale target right away.
	c.cancelPending()

	attached := false
	if host != target {
		if err := c.sys.AttachThreadInput(host, target, true); err != nil {
			c.logger.Debug("thread input attach refused", zap.Uint32("thread", target), zap.Error(err))
		} else {
			attached = true
		}
	}

	if err := c.sys.Raise(h); err != nil {
		c.detachNow(host, target, attached)
		return fmt.Errorf("activate %#x: %w", uintptr(h), types.ErrSessionGone)
	}
	if err := c.sys.SendActivate(h); err != nil {
		c.detachNow(host, target, attached)
		return fmt.Errorf("activate %#x: %w", uintptr(h), types.ErrSessionGone)
	}
	if err := c.sys.SetFocus(h); err != nil {
		c.detachNow(host, target, attached)
		return fmt.Errorf("activate %#x: %w", uintptr(h), types.ErrSessionGone)
	}

	if attached {
		c.schedule(host, target)
	}
	return nil
}

// CancelPending cancels and immediately performs any scheduled
// detachment. Harmless when nothing is pending or the thread is gone.
func (c *Coordinator) CancelPending() {
	c.cancelPending()
}

// HasPending reports whether a detachment is scheduled.
func (c *Coordinator) HasPending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

func (c *Coordinator) schedule(host, target uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p := &pendingDetach{target: target}
	p.timer = time.AfterFunc(c.delay, func() {
		c.mu.Lock()
		if c.pending == p {
			c.pending = nil
		}
		c.mu.Unlock()
		// No effect if the thread is already gone.
		if err := c.sys.AttachThreadInput(host, target, false); err != nil {
			c.logger.Debug("scheduled detach skipped", zap.Uint32("thread", target), zap.Error(err))
		}
	})
	c.pending = p
}

func (c *Coordinator) cancelPending() {
	c.mu.Lock()
	p := c.pending
	c.pending = nil
	c.mu.Unlock()

	if p == nil {
		return
	}
	if p.timer.Stop() {
		// Timer had not fired: detach the stale target eagerly so the
		// host never stays attached to it.
		host := c.sys.CurrentThreadID()
		if err := c.sys.AttachThreadInput(host, p.target, false); err != nil {
			c.logger.Debug("stale detach skipped", zap.Uint32("thread", p.target), zap.Error(err))
		}
	}
}

func (c *Coordinator) detachNow(host, target uint32, attached bool) {
	if !attached {
		return
	}
	if err := c.sys.AttachThreadInput(host, target, false); err != nil {
		c.logger.Debug("detach after failed activation skipped", zap.Uint32("thread", target), zap.Error(err))
	}
}
