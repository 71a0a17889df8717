package directory

import (
	"testing"

	"github.com/windowhub/engine/internal/winsys"
)

func TestListCandidatesFilters(t *testing.T) {
	fake := winsys.NewFake()

	good := fake.AddWindow(winsys.FakeWindow{Title: "Editor", ClassName: "EditorFrame"})
	fake.AddWindow(winsys.FakeWindow{Title: "", ClassName: "Untitled"})
	fake.AddWindow(winsys.FakeWindow{Title: "Tray", ClassName: "Shell_TrayWnd"})
	fake.AddWindow(winsys.FakeWindow{Title: "Mine", ClassName: "HostFrame", ProcessID: fake.SelfProcessID()})
	fake.AddWindow(winsys.FakeWindow{
		Title: "Hidden", ClassName: "X",
		Style: winsys.StylePopup | winsys.StyleCaption, // no visible bit
	})
	fake.AddWindow(winsys.FakeWindow{
		Title: "Palette", ClassName: "Tool",
		ExStyle: winsys.ExStyleToolWindow,
	})
	fake.AddWindow(winsys.FakeWindow{
		Title: "Tiny", ClassName: "Splash",
		Bounds: winsys.Rect{Width: 80, Height: 40},
	})

	got := New(fake).ListCandidates()
	if len(got) != 1 {
		t.Fatalf("expected exactly one candidate, got %d: %+v", len(got), got)
	}
	if got[0].Handle != good || got[0].Title != "Editor" {
		t.Errorf("wrong candidate survived filtering: %+v", got[0])
	}
}

func TestListCandidatesIncludesMinimizedFlag(t *testing.T) {
	fake := winsys.NewFake()
	h := fake.AddWindow(winsys.FakeWindow{Title: "App", ClassName: "Frame"})
	fake.SetMinimized(h, true)

	got := New(fake).ListCandidates()
	if len(got) != 1 || !got[0].Minimized {
		t.Fatalf("minimized windows stay listed but flagged: %+v", got)
	}
}

func TestListByProcess(t *testing.T) {
	fake := winsys.NewFake()
	fake.AddWindow(winsys.FakeWindow{Title: "A", ClassName: "F", ProcessID: 777})
	fake.AddWindow(winsys.FakeWindow{Title: "B", ClassName: "F", ProcessID: 888})

	got := New(fake).ListByProcess(777)
	if len(got) != 1 || got[0].ProcessID != 777 {
		t.Errorf("expected only pid 777 windows, got %+v", got)
	}
}

func TestEmptyDesktopReturnsEmpty(t *testing.T) {
	fake := winsys.NewFake()
	if got := New(fake).ListCandidates(); len(got) != 0 {
		t.Errorf("expected empty sequence, got %+v", got)
	}
}
