//go:build windows

package winsys

import (
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procIsWindow                 = user32.NewProc("IsWindow")
	procIsWindowVisible          = user32.NewProc("IsWindowVisible")
	procIsIconic                 = user32.NewProc("IsIconic")
	procIsChild                  = user32.NewProc("IsChild")
	procGetWindowTextW           = user32.NewProc("GetWindowTextW")
	procGetWindowTextLengthW     = user32.NewProc("GetWindowTextLengthW")
	procGetClassNameW            = user32.NewProc("GetClassNameW")
	procGetWindowThreadProcessId = user32.NewProc("GetWindowThreadProcessId")
	procGetWindowLongW           = user32.NewProc("GetWindowLongW")
	procSetWindowLongW           = user32.NewProc("SetWindowLongW")
	procGetParent                = user32.NewProc("GetParent")
	procSetParent                = user32.NewProc("SetParent")
	procGetWindowRect            = user32.NewProc("GetWindowRect")
	procSetWindowPos             = user32.NewProc("SetWindowPos")
	procShowWindow               = user32.NewProc("ShowWindow")
	procEnumWindows              = user32.NewProc("EnumWindows")
	procGetForegroundWindow      = user32.NewProc("GetForegroundWindow")
	procAttachThreadInput        = user32.NewProc("AttachThreadInput")
	procSetFocus                 = user32.NewProc("SetFocus")
	procSendMessageW             = user32.NewProc("SendMessageW")
	procPostMessageW             = user32.NewProc("PostMessageW")
	procInvalidateRect           = user32.NewProc("InvalidateRect")
	procRedrawWindow             = user32.NewProc("RedrawWindow")
	procScreenToClient           = user32.NewProc("ScreenToClient")
)

const (
	gwlStyle   = ^uintptr(15) // -16
	gwlExStyle = ^uintptr(19) // -20

	swpNoSize       = 0x0001
	swpNoMove       = 0x0002
	swpNoZOrder     = 0x0004
	swpNoActivate   = 0x0010
	swpFrameChanged = 0x0020
	swpShowWindow   = 0x0040

	swHide    = 0
	swShow    = 5
	swRestore = 9

	wmClose      = 0x0010
	wmActivate   = 0x0006
	wmNCActivate = 0x0086
	waActive     = 1

	rdwInvalidate  = 0x0001
	rdwErase       = 0x0004
	rdwAllChildren = 0x0080
	rdwUpdateNow   = 0x0100
	rdwFrame       = 0x0400
)

type winRect struct {
	Left, Top, Right, Bottom int32
}

type winPoint struct {
	X, Y int32
}

// Native is the user32-backed System implementation.
type Native struct{}

// NewNative returns the real window subsystem.
func NewNative() *Native { return &Native{} }

var _ System = (*Native)(nil)

func (n *Native) IsWindow(h Handle) bool {
	r, _, _ := procIsWindow.Call(uintptr(h))
	return r != 0
}

func (n *Native) isVisible(h Handle) bool {
	r, _, _ := procIsWindowVisible.Call(uintptr(h))
	return r != 0
}

func (n *Native) IsMinimized(h Handle) bool {
	r, _, _ := procIsIconic.Call(uintptr(h))
	return r != 0
}

func (n *Native) IsDescendant(ancestor, h Handle) bool {
	r, _, _ := procIsChild.Call(uintptr(ancestor), uintptr(h))
	return r != 0
}

func (n *Native) Title(h Handle) string {
	length, _, _ := procGetWindowTextLengthW.Call(uintptr(h))
	if length == 0 {
		return ""
	}
	buf := make([]uint16, length+1)
	read, _, _ := procGetWindowTextW.Call(uintptr(h), uintptr(unsafe.Pointer(&buf[0])), length+1)
	return windows.UTF16ToString(buf[:read])
}

func (n *Native) ClassName(h Handle) string {
	var buf [256]uint16
	length, _, _ := procGetClassNameW.Call(uintptr(h), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	return windows.UTF16ToString(buf[:length])
}

func (n *Native) ProcessID(h Handle) uint32 {
	var pid uint32
	procGetWindowThreadProcessId.Call(uintptr(h), uintptr(unsafe.Pointer(&pid)))
	return pid
}

func (n *Native) ThreadID(h Handle) uint32 {
	tid, _, _ := procGetWindowThreadProcessId.Call(uintptr(h), 0)
	return uint32(tid)
}

func (n *Native) Styles(h Handle) (Style, ExStyle, error) {
	if !n.IsWindow(h) {
		return 0, 0, ErrDeadHandle
	}
	s, _, _ := procGetWindowLongW.Call(uintptr(h), gwlStyle)
	ex, _, _ := procGetWindowLongW.Call(uintptr(h), gwlExStyle)
	return Style(uint32(s)), ExStyle(uint32(ex)), nil
}

func (n *Native) Parent(h Handle) Handle {
	p, _, _ := procGetParent.Call(uintptr(h))
	return Handle(p)
}

func (n *Native) Bounds(h Handle) (Rect, error) {
	var r winRect
	ok, _, _ := procGetWindowRect.Call(uintptr(h), uintptr(unsafe.Pointer(&r)))
	if ok == 0 {
		return Rect{}, ErrDeadHandle
	}
	// Convert to parent-client coordinates when the window is hosted so
	// Place round-trips.
	x, y := int(r.Left), int(r.Top)
	if parent := n.Parent(h); parent != None {
		pt := winPoint{X: r.Left, Y: r.Top}
		procScreenToClient.Call(uintptr(parent), uintptr(unsafe.Pointer(&pt)))
		x, y = int(pt.X), int(pt.Y)
	}
	return Rect{X: x, Y: y, Width: int(r.Right - r.Left), Height: int(r.Bottom - r.Top)}, nil
}

type enumState struct {
	n     *Native
	infos []WindowInfo
}

// enumProc is created once; callback slots are a process-wide resource
// and are never released.
var enumProc = windows.NewCallback(func(h, lparam uintptr) uintptr {
	st := (*enumState)(unsafe.Pointer(lparam))
	handle := Handle(h)
	bounds, err := st.n.Bounds(handle)
	if err != nil {
		return 1
	}
	st.infos = append(st.infos, WindowInfo{
		Handle:    handle,
		Title:     st.n.Title(handle),
		ClassName: st.n.ClassName(handle),
		ProcessID: st.n.ProcessID(handle),
		Visible:   st.n.isVisible(handle),
		Minimized: st.n.IsMinimized(handle),
		Bounds:    bounds,
	})
	return 1
})

func (n *Native) EnumTopLevel() []WindowInfo {
	st := enumState{n: n}
	procEnumWindows.Call(enumProc, uintptr(unsafe.Pointer(&st)))
	return st.infos
}

func (n *Native) Foreground() Handle {
	h, _, _ := procGetForegroundWindow.Call()
	return Handle(h)
}

func (n *Native) SelfProcessID() uint32 {
	return windows.GetCurrentProcessId()
}

func (n *Native) CurrentThreadID() uint32 {
	return windows.GetCurrentThreadId()
}

func (n *Native) SetStyles(h Handle, s Style, ex ExStyle) error {
	if !n.IsWindow(h) {
		return ErrDeadHandle
	}
	procSetWindowLongW.Call(uintptr(h), gwlStyle, uintptr(s))
	procSetWindowLongW.Call(uintptr(h), gwlExStyle, uintptr(ex))
	// Style edits do not take effect on screen until the frame change is
	// announced.
	procSetWindowPos.Call(uintptr(h), 0, 0, 0, 0, 0,
		swpNoMove|swpNoSize|swpNoZOrder|swpNoActivate|swpFrameChanged)
	return nil
}

func (n *Native) SetParent(h, parent Handle) error {
	r, _, err := procSetParent.Call(uintptr(h), uintptr(parent))
	if r == 0 {
		if errno, ok := err.(syscall.Errno); ok && errno == windows.ERROR_ACCESS_DENIED {
			return ErrAccessDenied
		}
		if !n.IsWindow(h) {
			return ErrDeadHandle
		}
		return ErrAccessDenied
	}
	return nil
}

func (n *Native) Place(h Handle, r Rect) error {
	if !n.IsWindow(h) {
		return ErrDeadHandle
	}
	procSetWindowPos.Call(uintptr(h), 0,
		uintptr(r.X), uintptr(r.Y), uintptr(r.Width), uintptr(r.Height),
		swpNoZOrder|swpNoActivate|swpShowWindow)
	return nil
}

func (n *Native) Raise(h Handle) error {
	if !n.IsWindow(h) {
		return ErrDeadHandle
	}
	// hwndInsertAfter 0 is HWND_TOP.
	procSetWindowPos.Call(uintptr(h), 0, 0, 0, 0, 0,
		swpNoMove|swpNoSize|swpShowWindow)
	return nil
}

func (n *Native) Show(h Handle)    { procShowWindow.Call(uintptr(h), swShow) }
func (n *Native) Hide(h Handle)    { procShowWindow.Call(uintptr(h), swHide) }
func (n *Native) Restore(h Handle) { procShowWindow.Call(uintptr(h), swRestore) }

func (n *Native) AttachThreadInput(host, target uint32, attach bool) error {
	var b uintptr
	if attach {
		b = 1
	}
	r, _, _ := procAttachThreadInput.Call(uintptr(host), uintptr(target), b)
	if r == 0 && attach {
		return ErrAccessDenied
	}
	return nil
}

func (n *Native) SetFocus(h Handle) error {
	if !n.IsWindow(h) {
		return ErrDeadHandle
	}
	procSetFocus.Call(uintptr(h))
	return nil
}

func (n *Native) SendActivate(h Handle) error {
	if !n.IsWindow(h) {
		return ErrDeadHandle
	}
	// WM_ACTIVATE alone leaves some applications' title highlight
	// unsynced across the process boundary; WM_NCACTIVATE completes it.
	procSendMessageW.Call(uintptr(h), wmActivate, waActive, 0)
	procSendMessageW.Call(uintptr(h), wmNCActivate, 1, 0)
	return nil
}

func (n *Native) Invalidate(h Handle) error {
	if !n.IsWindow(h) {
		return ErrDeadHandle
	}
	procInvalidateRect.Call(uintptr(h), 0, 1)
	return nil
}

func (n *Native) RedrawNow(h Handle) error {
	if !n.IsWindow(h) {
		return ErrDeadHandle
	}
	procRedrawWindow.Call(uintptr(h), 0, 0,
		rdwInvalidate|rdwErase|rdwFrame|rdwAllChildren|rdwUpdateNow)
	return nil
}

func (n *Native) PostClose(h Handle) error {
	if !n.IsWindow(h) {
		return ErrDeadHandle
	}
	procPostMessageW.Call(uintptr(h), wmClose, 0, 0)
	return nil
}
