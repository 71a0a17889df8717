package embed

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/windowhub/engine/internal/domain/repaint"
	"github.com/windowhub/engine/internal/shared/types"
	"github.com/windowhub/engine/internal/winsys"
)

// Controller executes embed and release transitions against a single
// native handle. Serialization per handle is the caller's job; the
// window subsystem tolerates no concurrent structural mutation.
type Controller struct {
	sys      winsys.System
	watchdog *repaint.Watchdog
	policy   *Policy
	logger   *zap.Logger
}

// NewController creates an embedding controller.
func NewController(sys winsys.System, watchdog *repaint.Watchdog, policy *Policy, logger *zap.Logger) *Controller {
	if policy == nil {
		policy = DefaultPolicy()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{sys: sys, watchdog: watchdog, policy: policy, logger: logger}
}

// Embed transitions a free window into a hosted child pane: snapshot
// the original chrome, strip the independent top-level style bits,
// reparent under the container, fill the pane, force one repaint.
//
// On any failure the window is left exactly as found; no partial state
// escapes.
func (c *Controller) Embed(h, container winsys.Handle, pane winsys.Rect) (types.StyleSnapshot, error) {
	var snap types.StyleSnapshot

	if !c.sys.IsWindow(h) {
		return snap, fmt.Errorf("embed %#x: %w", uintptr(h), types.ErrInvalidHandle)
	}
	if c.sys.ProcessID(h) == c.sys.SelfProcessID() {
		return snap, fmt.Errorf("embed %#x: host's own window: %w", uintptr(h), types.ErrPermissionDenied)
	}
	if class := c.sys.ClassName(h); c.policy.Refuses(class) {
		return snap, fmt.Errorf("embed %#x: refused class %q: %w", uintptr(h), class, types.ErrPermissionDenied)
	}
	if c.sys.IsMinimized(h) {
		return snap, fmt.Errorf("embed %#x: target minimized, not embeddable: %w", uintptr(h), types.ErrInvalidHandle)
	}

	c.ensureClipChildren(container)

	style, ex, err := c.sys.Styles(h)
	if err != nil {
		return snap, fmt.Errorf("embed %#x: %w", uintptr(h), types.ErrInvalidHandle)
	}
	bounds, err := c.sys.Bounds(h)
	if err != nil {
		return snap, fmt.Errorf("embed %#x: %w", uintptr(h), types.ErrInvalidHandle)
	}
	snap = types.StyleSnapshot{
		Style:   style,
		ExStyle: ex,
		Parent:  c.sys.Parent(h),
		Bounds:  bounds,
	}

	hosted := style&^winsys.StripMask | winsys.StyleChild | winsys.StyleVisible
	hostedEx := ex &^ winsys.ExStyleTopmost
	if err := c.sys.SetStyles(h, hosted, hostedEx); err != nil {
		return snap, fmt.Errorf("embed %#x: %w", uintptr(h), types.ErrInvalidHandle)
	}

	// The target can minimize between restyle and reparent. Reparenting
	// a minimized window produces an unusable pane, so abort and put
	// the chrome back.
	if !c.sys.IsWindow(h) || c.sys.IsMinimized(h) {
		c.rollbackStyles(h, snap)
		return snap, fmt.Errorf("embed %#x: target no longer embeddable: %w", uintptr(h), types.ErrInvalidHandle)
	}

	if err := c.sys.SetParent(h, container); err != nil {
		c.rollbackStyles(h, snap)
		if err == winsys.ErrAccessDenied {
			return snap, fmt.Errorf("embed %#x: %w", uintptr(h), types.ErrPermissionDenied)
		}
		return snap, fmt.Errorf("embed %#x: %w", uintptr(h), types.ErrInvalidHandle)
	}

	if err := c.sys.Place(h, pane); err != nil {
		c.logger.Warn("pane placement failed after reparent", zap.Uint64("handle", uint64(h)), zap.Error(err))
	}
	c.watchdog.ForceRepaint(h)

	c.logger.Info("window embedded",
		zap.Uint64("handle", uint64(h)),
		zap.String("class", c.sys.ClassName(h)),
	)
	return snap, nil
}

// Release reverses an embedding from its style snapshot: original
// parent, original style bits, original bounds, restored and raised as
// an independent window, with one final repaint pass.
//
// A dead handle is reported as ErrSessionGone so the caller can
// classify it "already gone" instead of surfacing a failure; removal
// proceeds regardless.
func (c *Controller) Release(h winsys.Handle, snap types.StyleSnapshot) error {
	if !c.sys.IsWindow(h) {
		return fmt.Errorf("release %#x: %w", uintptr(h), types.ErrSessionGone)
	}

	if err := c.sys.SetParent(h, snap.Parent); err != nil {
		return fmt.Errorf("release %#x: %w", uintptr(h), types.ErrSessionGone)
	}
	if err := c.sys.SetStyles(h, snap.Style, snap.ExStyle); err != nil {
		return fmt.Errorf("release %#x: %w", uintptr(h), types.ErrSessionGone)
	}
	if err := c.sys.Place(h, snap.Bounds); err != nil {
		return fmt.Errorf("release %#x: %w", uintptr(h), types.ErrSessionGone)
	}
	c.sys.Restore(h)
	if err := c.sys.Raise(h); err == nil {
		c.watchdog.ForceRepaint(h)
	}

	c.logger.Info("window released", zap.Uint64("handle", uint64(h)))
	return nil
}

// rollbackStyles is best-effort: the window may already be gone.
func (c *Controller) rollbackStyles(h winsys.Handle, snap types.StyleSnapshot) {
	if err := c.sys.SetStyles(h, snap.Style, snap.ExStyle); err != nil {
		c.logger.Debug("style rollback skipped", zap.Uint64("handle", uint64(h)), zap.Error(err))
	}
}

// ensureClipChildren adds the clip-children bit to the host container
// before the first reparent so embedded panes do not paint over each
// other.
func (c *Controller) ensureClipChildren(container winsys.Handle) {
	style, ex, err := c.sys.Styles(container)
	if err != nil || style&winsys.StyleClipChildren != 0 {
		return
	}
	if err := c.sys.SetStyles(container, style|winsys.StyleClipChildren, ex); err != nil {
		c.logger.Warn("could not set clip-children on container", zap.Error(err))
	}
}
