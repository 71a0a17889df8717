package winsys

import "errors"

// Handle is an opaque, process-scoped window identifier owned by the
// OS. It is copyable and comparable, carries no destructor obligation,
// and its validity is never permanent: pre-validate liveness before
// every operation instead of trusting a prior check.
type Handle uintptr

// None is the zero handle ("no parent" / desktop).
const None Handle = 0

// Style holds window style bits controlling chrome and top-level
// behavior.
type Style uint32

// ExStyle holds extended style bits.
type ExStyle uint32

// Window style bits (user32 WS_*).
const (
	StyleBorder       Style = 0x00800000
	StyleCaption      Style = 0x00C00000
	StyleChild        Style = 0x40000000
	StyleClipChildren Style = 0x02000000
	StyleDlgFrame     Style = 0x00400000
	StyleMaximizeBox  Style = 0x00010000
	StyleMinimizeBox  Style = 0x00020000
	StylePopup        Style = 0x80000000
	StyleSysMenu      Style = 0x00080000
	StyleThickFrame   Style = 0x00040000
	StyleVisible      Style = 0x10000000
)

// Extended style bits (user32 WS_EX_*).
const (
	ExStyleTopmost    ExStyle = 0x00000008
	ExStyleToolWindow ExStyle = 0x00000080
)

// StripMask is the set of "independent top-level" style bits removed
// when a window becomes a hosted child pane.
const StripMask = StyleCaption | StyleThickFrame | StyleMinimizeBox |
	StyleMaximizeBox | StyleSysMenu | StylePopup | StyleBorder | StyleDlgFrame

// Rect is a window rectangle in parent-client or screen coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// WindowInfo is a momentary snapshot of one top-level window.
type WindowInfo struct {
	Handle    Handle `json:"handle"`
	Title     string `json:"title"`
	ClassName string `json:"class_name"`
	ProcessID uint32 `json:"process_id"`
	Visible   bool   `json:"visible"`
	Minimized bool   `json:"minimized"`
	Bounds    Rect   `json:"bounds"`
}

var (
	// ErrDeadHandle reports an operation on a window that no longer
	// exists.
	ErrDeadHandle = errors.New("winsys: dead window handle")

	// ErrAccessDenied reports an OS refusal, typically a structural
	// change against a higher-privilege process's window.
	ErrAccessDenied = errors.New("winsys: access denied")
)

// System is the native window subsystem. Structural mutations must be
// driven from a single logical owner goroutine per handle; the window
// subsystem tolerates no concurrent structural mutation of one window.
type System interface {
	// Liveness and hierarchy queries. All are bounded-cost snapshots.
	IsWindow(h Handle) bool
	IsMinimized(h Handle) bool
	IsDescendant(ancestor, h Handle) bool
	Title(h Handle) string
	ClassName(h Handle) string
	ProcessID(h Handle) uint32
	ThreadID(h Handle) uint32
	Styles(h Handle) (Style, ExStyle, error)
	Parent(h Handle) Handle
	Bounds(h Handle) (Rect, error)
	EnumTopLevel() []WindowInfo
	Foreground() Handle
	SelfProcessID() uint32
	CurrentThreadID() uint32

	// Structural mutations. All reversible, all borrowed state.
	SetStyles(h Handle, s Style, ex ExStyle) error
	SetParent(h, parent Handle) error
	Place(h Handle, r Rect) error
	Raise(h Handle) error
	Show(h Handle)
	Hide(h Handle)
	Restore(h Handle)

	// Input and activation across the process boundary.
	AttachThreadInput(host, target uint32, attach bool) error
	SetFocus(h Handle) error
	SendActivate(h Handle) error

	// Painting. Invalidate marks the whole client area dirty;
	// RedrawNow forces an immediate synchronous redraw including
	// children, ignoring the window's own invalidation bookkeeping.
	Invalidate(h Handle) error
	RedrawNow(h Handle) error

	// PostClose asks the window to close (asynchronous, cooperative).
	PostClose(h Handle) error
}
