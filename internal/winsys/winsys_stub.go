//go:build !windows

package winsys

// Native is inert on non-windows builds; the engine compiles and its
// tests run against Fake everywhere, but only windows hosts can embed.
type Native struct{}

// NewNative returns the stub window subsystem.
func NewNative() *Native { return &Native{} }

var _ System = (*Native)(nil)

func (n *Native) IsWindow(Handle) bool                         { return false }
func (n *Native) IsMinimized(Handle) bool                      { return false }
func (n *Native) IsDescendant(Handle, Handle) bool             { return false }
func (n *Native) Title(Handle) string                          { return "" }
func (n *Native) ClassName(Handle) string                      { return "" }
func (n *Native) ProcessID(Handle) uint32                      { return 0 }
func (n *Native) ThreadID(Handle) uint32                       { return 0 }
func (n *Native) Styles(Handle) (Style, ExStyle, error)        { return 0, 0, ErrDeadHandle }
func (n *Native) Parent(Handle) Handle                         { return None }
func (n *Native) Bounds(Handle) (Rect, error)                  { return Rect{}, ErrDeadHandle }
func (n *Native) EnumTopLevel() []WindowInfo                   { return nil }
func (n *Native) Foreground() Handle                           { return None }
func (n *Native) SelfProcessID() uint32                        { return 0 }
func (n *Native) CurrentThreadID() uint32                      { return 0 }
func (n *Native) SetStyles(Handle, Style, ExStyle) error       { return ErrDeadHandle }
func (n *Native) SetParent(Handle, Handle) error               { return ErrDeadHandle }
func (n *Native) Place(Handle, Rect) error                     { return ErrDeadHandle }
func (n *Native) Raise(Handle) error                           { return ErrDeadHandle }
func (n *Native) Show(Handle)                                  {}
func (n *Native) Hide(Handle)                                  {}
func (n *Native) Restore(Handle)                               {}
func (n *Native) AttachThreadInput(uint32, uint32, bool) error { return nil }
func (n *Native) SetFocus(Handle) error                        { return ErrDeadHandle }
func (n *Native) SendActivate(Handle) error                    { return ErrDeadHandle }
func (n *Native) Invalidate(Handle) error                      { return ErrDeadHandle }
func (n *Native) RedrawNow(Handle) error                       { return ErrDeadHandle }
func (n *Native) PostClose(Handle) error                       { return ErrDeadHandle }
