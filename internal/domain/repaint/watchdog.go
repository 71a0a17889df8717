// Package repaint forces invalidate+redraw passes after structural
// window changes. Windows backed by a hardware swap-chain do not
// reliably repaint across a reparent boundary because the compositor
// does not always deliver the expected paint messages; forcing both
// invalidation and an immediate redraw is the blunt correctness
// measure that neutralizes black-pane artifacts.
package repaint

import (
	"go.uber.org/zap"

	"github.com/windowhub/engine/internal/winsys"
)

// Watchdog issues forced repaint passes. Fire-and-forget: a dead
// handle is a silent no-op, and the pass is idempotent, so callers
// invoke it unconditionally at every trigger point (embed, release,
// resize, activation).
type Watchdog struct {
	sys    winsys.System
	logger *zap.Logger
}

// NewWatchdog creates a repaint watchdog.
func NewWatchdog(sys winsys.System, logger *zap.Logger) *Watchdog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watchdog{sys: sys, logger: logger}
}

// ForceRepaint invalidates the entire client area and requests an
// immediate synchronous redraw including child windows, ignoring the
// window's own invalidation bookkeeping.
func (w *Watchdog) ForceRepaint(h winsys.Handle) {
	if !w.sys.IsWindow(h) {
		return
	}
	if err := w.sys.Invalidate(h); err != nil {
		return
	}
	if err := w.sys.RedrawNow(h); err != nil {
		w.logger.Debug("redraw pass skipped", zap.Uint64("handle", uint64(h)), zap.Error(err))
	}
}
