// Package directory enumerates candidate top-level windows system-wide.
// Pure query, no state: every result is a momentary snapshot and
// staleness is expected and tolerated by callers.
package directory

import (
	"strings"

	"github.com/windowhub/engine/internal/winsys"
)

// Candidate is one embeddable top-level window.
type Candidate struct {
	Handle    winsys.Handle `json:"handle"`
	Title     string        `json:"title"`
	ClassName string        `json:"class_name"`
	ProcessID uint32        `json:"process_id"`
	Minimized bool          `json:"is_minimized"`
}

// Shell and frame window classes that are never candidates: embedding
// them destabilizes the desktop itself.
var shellClasses = map[string]bool{
	"Progman":                    true,
	"WorkerW":                    true,
	"Shell_TrayWnd":              true,
	"Shell_SecondaryTrayWnd":     true,
	"TaskManagerWindow":          true,
	"Windows.UI.Core.CoreWindow": true,
	"ApplicationFrameWindow":     true,
}

// Windows smaller than this are transient popups, not applications.
const minCandidateSize = 100

// Directory lists embeddable windows.
type Directory struct {
	sys winsys.System
}

// New creates a window directory over the given subsystem.
func New(sys winsys.System) *Directory {
	return &Directory{sys: sys}
}

// ListCandidates returns a snapshot of embeddable top-level windows:
// visible, not a tool window, not the host's own, non-empty title, not
// a shell class, above minimum size. An empty result is not an error.
func (d *Directory) ListCandidates() []Candidate {
	self := d.sys.SelfProcessID()
	var out []Candidate
	for _, w := range d.sys.EnumTopLevel() {
		if !d.embeddable(w, self) {
			continue
		}
		out = append(out, Candidate{
			Handle:    w.Handle,
			Title:     w.Title,
			ClassName: w.ClassName,
			ProcessID: w.ProcessID,
			Minimized: w.Minimized,
		})
	}
	return out
}

// ListByProcess returns candidates owned by one process, used by
// launch-and-capture polling.
func (d *Directory) ListByProcess(pid uint32) []Candidate {
	var out []Candidate
	for _, c := range d.ListCandidates() {
		if c.ProcessID == pid {
			out = append(out, c)
		}
	}
	return out
}

func (d *Directory) embeddable(w winsys.WindowInfo, selfPID uint32) bool {
	if !w.Visible {
		return false
	}
	if w.ProcessID == selfPID {
		return false
	}
	if strings.TrimSpace(w.Title) == "" {
		return false
	}
	if shellClasses[w.ClassName] {
		return false
	}
	if _, ex, err := d.sys.Styles(w.Handle); err != nil || ex&winsys.ExStyleToolWindow != 0 {
		return false
	}
	if w.Bounds.Width <= minCandidateSize || w.Bounds.Height <= minCandidateSize {
		return false
	}
	return true
}
