package winsys

import (
	"sync"
)

// FakeWindow is one scriptable window inside a Fake subsystem.
type FakeWindow struct {
	Handle    Handle
	Title     string
	ClassName string
	ProcessID uint32
	ThreadID  uint32
	Style     Style
	ExStyle   ExStyle
	Parent    Handle
	Bounds    Rect
	Visible   bool
	Minimized bool
	Alive     bool
}

// Fake is an in-memory System for tests: windows are plain records,
// liveness and minimization can be flipped mid-operation, and every
// input/paint call is recorded for assertions.
type Fake struct {
	mu      sync.Mutex
	windows map[Handle]*FakeWindow
	next    Handle

	selfPID    uint32
	hostThread uint32

	// DenyReparent simulates the OS refusing SetParent for a handle
	// (cross-privilege windows).
	DenyReparent map[Handle]bool

	// OnSetStyles, when set, runs after a successful SetStyles. Lets a
	// test mutate window state between embed steps.
	OnSetStyles func(Handle)

	attached map[uint32]bool // target thread -> currently attached

	AttachCalls     []uint32
	DetachCalls     []uint32
	FocusCalls      []Handle
	ActivateSignals map[Handle]int
	InvalidateCalls map[Handle]int
	RedrawCalls     map[Handle]int
	ClosedPosts     []Handle
	foreground      Handle
}

// NewFake creates an empty fake subsystem. The host process id is 1 and
// the host input thread id is 100.
func NewFake() *Fake {
	return &Fake{
		windows:         make(map[Handle]*FakeWindow),
		next:            Handle(0x1000),
		selfPID:         1,
		hostThread:      100,
		DenyReparent:    make(map[Handle]bool),
		attached:        make(map[uint32]bool),
		ActivateSignals: make(map[Handle]int),
		InvalidateCalls: make(map[Handle]int),
		RedrawCalls:     make(map[Handle]int),
	}
}

var _ System = (*Fake)(nil)

// AddWindow registers a window and returns its handle. Zero-value
// fields get usable defaults: alive, visible, popup-captioned chrome,
// a foreign process, a thread derived from the process.
func (f *Fake) AddWindow(w FakeWindow) Handle {
	f.mu.Lock()
	defer f.mu.Unlock()

	h := f.next
	f.next += 0x10
	w.Handle = h
	w.Alive = true
	if w.ProcessID == 0 {
		w.ProcessID = 5000 + uint32(h)%1000
	}
	if w.ThreadID == 0 {
		w.ThreadID = w.ProcessID + 1
	}
	if w.Style == 0 {
		w.Style = StylePopup | StyleCaption | StyleThickFrame | StyleVisible
	}
	if w.Bounds.Width == 0 && w.Bounds.Height == 0 {
		w.Bounds = Rect{X: 50, Y: 50, Width: 800, Height: 600}
	}
	if !w.Visible {
		w.Visible = w.Style&StyleVisible != 0
	}
	f.windows[h] = &w
	return h
}

// Kill invalidates a handle as the owning process would.
func (f *Fake) Kill(h Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.windows[h]; ok {
		w.Alive = false
	}
}

// SetMinimized flips the minimized state of a window.
func (f *Fake) SetMinimized(h Handle, min bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.windows[h]; ok {
		w.Minimized = min
	}
}

// Window returns a copy of the window record for assertions.
func (f *Fake) Window(h Handle) (FakeWindow, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[h]
	if !ok {
		return FakeWindow{}, false
	}
	return *w, true
}

// Attached reports whether the host input thread is currently attached
// to the given target thread.
func (f *Fake) Attached(target uint32) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attached[target]
}

func (f *Fake) live(h Handle) (*FakeWindow, bool) {
	w, ok := f.windows[h]
	if !ok || !w.Alive {
		return nil, false
	}
	return w, true
}

func (f *Fake) IsWindow(h Handle) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.live(h)
	return ok
}

func (f *Fake) IsMinimized(h Handle) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.live(h)
	return ok && w.Minimized
}

func (f *Fake) IsDescendant(ancestor, h Handle) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.live(h)
	for ok {
		if w.Parent == ancestor {
			return true
		}
		w, ok = f.live(w.Parent)
	}
	return false
}

func (f *Fake) Title(h Handle) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.live(h); ok {
		return w.Title
	}
	return ""
}

func (f *Fake) ClassName(h Handle) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.live(h); ok {
		return w.ClassName
	}
	return ""
}

func (f *Fake) ProcessID(h Handle) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.live(h); ok {
		return w.ProcessID
	}
	return 0
}

func (f *Fake) ThreadID(h Handle) uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.live(h); ok {
		return w.ThreadID
	}
	return 0
}

func (f *Fake) Styles(h Handle) (Style, ExStyle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.live(h)
	if !ok {
		return 0, 0, ErrDeadHandle
	}
	return w.Style, w.ExStyle, nil
}

func (f *Fake) Parent(h Handle) Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.live(h); ok {
		return w.Parent
	}
	return None
}

func (f *Fake) Bounds(h Handle) (Rect, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.live(h)
	if !ok {
		return Rect{}, ErrDeadHandle
	}
	return w.Bounds, nil
}

func (f *Fake) EnumTopLevel() []WindowInfo {
	f.mu.Lock()
	defer f.mu.Unlock()
	var infos []WindowInfo
	for _, w := range f.windows {
		if !w.Alive || w.Parent != None {
			continue
		}
		infos = append(infos, WindowInfo{
			Handle:    w.Handle,
			Title:     w.Title,
			ClassName: w.ClassName,
			ProcessID: w.ProcessID,
			Visible:   w.Visible,
			Minimized: w.Minimized,
			Bounds:    w.Bounds,
		})
	}
	return infos
}

func (f *Fake) Foreground() Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.foreground
}

// SetForeground scripts the OS foreground window.
func (f *Fake) SetForeground(h Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.foreground = h
}

func (f *Fake) SelfProcessID() uint32   { return f.selfPID }
func (f *Fake) CurrentThreadID() uint32 { return f.hostThread }

func (f *Fake) SetStyles(h Handle, s Style, ex ExStyle) error {
	f.mu.Lock()
	w, ok := f.live(h)
	if !ok {
		f.mu.Unlock()
		return ErrDeadHandle
	}
	w.Style = s
	w.ExStyle = ex
	hook := f.OnSetStyles
	f.mu.Unlock()
	if hook != nil {
		hook(h)
	}
	return nil
}

func (f *Fake) SetParent(h, parent Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.live(h)
	if !ok {
		return ErrDeadHandle
	}
	if f.DenyReparent[h] {
		return ErrAccessDenied
	}
	w.Parent = parent
	return nil
}

func (f *Fake) Place(h Handle, r Rect) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.live(h)
	if !ok {
		return ErrDeadHandle
	}
	w.Bounds = r
	return nil
}

func (f *Fake) Raise(h Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.live(h); !ok {
		return ErrDeadHandle
	}
	return nil
}

func (f *Fake) Show(h Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.live(h); ok {
		w.Visible = true
	}
}

func (f *Fake) Hide(h Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.live(h); ok {
		w.Visible = false
	}
}

func (f *Fake) Restore(h Handle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if w, ok := f.live(h); ok {
		w.Minimized = false
		w.Visible = true
	}
}

func (f *Fake) AttachThreadInput(host, target uint32, attach bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if attach {
		f.attached[target] = true
		f.AttachCalls = append(f.AttachCalls, target)
	} else {
		delete(f.attached, target)
		f.DetachCalls = append(f.DetachCalls, target)
	}
	return nil
}

func (f *Fake) SetFocus(h Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.live(h); !ok {
		return ErrDeadHandle
	}
	f.FocusCalls = append(f.FocusCalls, h)
	return nil
}

func (f *Fake) SendActivate(h Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.live(h); !ok {
		return ErrDeadHandle
	}
	f.ActivateSignals[h]++
	return nil
}

func (f *Fake) Invalidate(h Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.live(h); !ok {
		return ErrDeadHandle
	}
	f.InvalidateCalls[h]++
	return nil
}

func (f *Fake) RedrawNow(h Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.live(h); !ok {
		return ErrDeadHandle
	}
	f.RedrawCalls[h]++
	return nil
}

func (f *Fake) PostClose(h Handle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.live(h); !ok {
		return ErrDeadHandle
	}
	f.ClosedPosts = append(f.ClosedPosts, h)
	return nil
}
