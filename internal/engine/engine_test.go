package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/windowhub/engine/internal/shared/types"
	"github.com/windowhub/engine/internal/winsys"
)

func newTestEngine(t *testing.T, fake *winsys.Fake) (*Engine, winsys.Handle) {
	t.Helper()
	host := fake.AddWindow(winsys.FakeWindow{
		Title: "WindowHub", ClassName: "HostFrame",
		ProcessID: fake.SelfProcessID(),
	})
	e := New(fake, host, winsys.Rect{Width: 1200, Height: 700}, Options{
		DetachDelay:     time.Millisecond,
		MonitorInterval: time.Hour, // sweeps only on demand
		LaunchTimeout:   time.Second,
		LaunchPoll:      time.Millisecond,
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go e.Run(ctx)
	return e, host
}

func addApp(fake *winsys.Fake, title string) winsys.Handle {
	return fake.AddWindow(winsys.FakeWindow{Title: title, ClassName: "AppFrame"})
}

func collect(ch <-chan types.Event, n int, timeout time.Duration) []types.Event {
	var out []types.Event
	deadline := time.After(timeout)
	for len(out) < n {
		select {
		case ev := <-ch:
			out = append(out, ev)
		case <-deadline:
			return out
		}
	}
	return out
}

func TestEmbedCreatesActiveSession(t *testing.T) {
	fake := winsys.NewFake()
	e, host := newTestEngine(t, fake)
	h := addApp(fake, "Notepad")

	events, cancel := e.Subscribe()
	defer cancel()

	s, err := e.Embed(h)
	if err != nil {
		t.Fatalf("embed: %v", err)
	}
	if s.State != types.StateEmbedded || s.Title != "Notepad" {
		t.Errorf("unexpected session: %+v", s)
	}

	win, _ := fake.Window(h)
	if win.Parent != host {
		t.Error("window not under the host container")
	}

	stats := e.Stats()
	if stats.TotalSessions != 1 || stats.ActiveSession == nil || *stats.ActiveSession != s.ID {
		t.Errorf("new session should be active: %+v", stats)
	}

	evs := collect(events, 2, time.Second)
	if len(evs) != 2 || evs[0].Type != types.EventSessionCreated || evs[1].Type != types.EventSessionActivated {
		t.Errorf("expected created+activated, got %+v", evs)
	}
	if evs[0].Session.ID != s.ID || evs[0].ID == "" {
		t.Errorf("event carries wrong session: %+v", evs[0])
	}
}

func TestEmbedSameHandleTwice(t *testing.T) {
	fake := winsys.NewFake()
	e, _ := newTestEngine(t, fake)
	h := addApp(fake, "App")

	if _, err := e.Embed(h); err != nil {
		t.Fatalf("first embed: %v", err)
	}
	if _, err := e.Embed(h); !errors.Is(err, types.ErrAlreadyEmbedded) {
		t.Fatalf("expected ErrAlreadyEmbedded, got %v", err)
	}
	if e.Stats().TotalSessions != 1 {
		t.Error("duplicate embed must not add a session")
	}
}

func TestConcurrentEmbedOneWinner(t *testing.T) {
	fake := winsys.NewFake()
	e, _ := newTestEngine(t, fake)
	h := addApp(fake, "App")

	const n = 8
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			_, err := e.Embed(h)
			errs <- err
		}()
	}

	wins, dups := 0, 0
	for i := 0; i < n; i++ {
		switch err := <-errs; {
		case err == nil:
			wins++
		case errors.Is(err, types.ErrAlreadyEmbedded):
			dups++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || dups != n-1 {
		t.Errorf("expected one winner, got %d winners %d duplicates", wins, dups)
	}
}

func TestReleaseRestoresAndActivatesNeighbor(t *testing.T) {
	fake := winsys.NewFake()
	e, _ := newTestEngine(t, fake)
	a := addApp(fake, "A")
	b := addApp(fake, "B")
	before, _ := fake.Window(a)

	sa, _ := e.Embed(a)
	sb, _ := e.Embed(b)
	if err := e.Activate(sa.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}

	events, cancel := e.Subscribe()
	defer cancel()

	if err := e.Release(sa.ID); err != nil {
		t.Fatalf("release: %v", err)
	}

	after, _ := fake.Window(a)
	if after.Style != before.Style || after.Parent != before.Parent {
		t.Error("released window must be restored to its pre-embed state")
	}

	stats := e.Stats()
	if stats.TotalSessions != 1 || stats.ActiveSession == nil || *stats.ActiveSession != sb.ID {
		t.Errorf("neighbor should take over as active: %+v", stats)
	}

	evs := collect(events, 2, time.Second)
	if len(evs) < 2 || evs[0].Type != types.EventSessionClosed || evs[1].Type != types.EventSessionActivated {
		t.Errorf("expected closed+activated, got %+v", evs)
	}
}

func TestReleaseUnknownSession(t *testing.T) {
	fake := winsys.NewFake()
	e, _ := newTestEngine(t, fake)

	err := e.Release("sess_01ARZ3NDEKTSV4RRFFQ69G5FAV")
	if !errors.Is(err, types.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestActivateDeadSessionRemovesIt(t *testing.T) {
	fake := winsys.NewFake()
	e, _ := newTestEngine(t, fake)
	h := addApp(fake, "App")
	s, _ := e.Embed(h)

	events, cancel := e.Subscribe()
	defer cancel()

	fake.Kill(h)
	err := e.Activate(s.ID)
	if !errors.Is(err, types.ErrSessionGone) {
		t.Fatalf("expected ErrSessionGone, got %v", err)
	}
	if e.Stats().TotalSessions != 0 {
		t.Error("dead session must be removed on failed activation")
	}

	evs := collect(events, 1, time.Second)
	if len(evs) != 1 || evs[0].Type != types.EventSessionClosed {
		t.Errorf("expected one session_closed, got %+v", evs)
	}
	if evs[0].Session.State != types.StateInvalidated {
		t.Errorf("externally dead session closes as invalidated: %+v", evs[0].Session)
	}
}

func TestSweepDropsDestroyedSession(t *testing.T) {
	fake := winsys.NewFake()
	e, _ := newTestEngine(t, fake)
	h := addApp(fake, "App")
	if _, err := e.Embed(h); err != nil {
		t.Fatalf("embed: %v", err)
	}

	fake.Kill(h)
	e.Sweep()

	// The sink hands removal to the serialization loop; wait for it.
	deadline := time.After(time.Second)
	for e.Stats().TotalSessions != 0 {
		select {
		case <-deadline:
			t.Fatal("sweep did not drop the destroyed session")
		default:
			time.Sleep(time.Millisecond)
		}
	}
}

func TestSweepRestoresDetachedWindowChrome(t *testing.T) {
	fake := winsys.NewFake()
	e, _ := newTestEngine(t, fake)
	h := fake.AddWindow(winsys.FakeWindow{
		Title: "App", ClassName: "AppFrame",
		Style: winsys.StylePopup | winsys.StyleCaption | winsys.StyleThickFrame | winsys.StyleVisible,
	})
	before, _ := fake.Window(h)
	if _, err := e.Embed(h); err != nil {
		t.Fatalf("embed: %v", err)
	}

	// Something outside the engine pulled the window back to the
	// desktop. It is alive but stripped to a bare child pane; removal
	// must give it its chrome back.
	fake.SetParent(h, winsys.None)
	e.Sweep()

	deadline := time.After(time.Second)
	for e.Stats().TotalSessions != 0 {
		select {
		case <-deadline:
			t.Fatal("detached session not removed")
		default:
			time.Sleep(time.Millisecond)
		}
	}

	after, _ := fake.Window(h)
	if after.Style != before.Style {
		t.Errorf("style snapshot not restored on external detach: %#x vs %#x", after.Style, before.Style)
	}
	if after.Parent != before.Parent {
		t.Errorf("parent not restored: %#x", uintptr(after.Parent))
	}
}

func TestTabStepping(t *testing.T) {
	fake := winsys.NewFake()
	e, _ := newTestEngine(t, fake)
	sa, _ := e.Embed(addApp(fake, "A"))
	sb, _ := e.Embed(addApp(fake, "B"))
	sc, _ := e.Embed(addApp(fake, "C"))

	// Embedding left C active.
	if err := e.NextTab(); err != nil {
		t.Fatalf("next: %v", err)
	}
	if active := e.Stats().ActiveSession; active == nil || *active != sa.ID {
		t.Error("next from last tab should wrap to the first")
	}
	if err := e.PrevTab(); err != nil {
		t.Fatalf("prev: %v", err)
	}
	if *e.Stats().ActiveSession != sc.ID {
		t.Error("prev should wrap back to the last tab")
	}

	if err := e.ActivateIndex(1); err != nil {
		t.Fatalf("activate index: %v", err)
	}
	if *e.Stats().ActiveSession != sb.ID {
		t.Error("index activation should pick the middle tab")
	}
	if err := e.ActivateIndex(9); !errors.Is(err, types.ErrSessionNotFound) {
		t.Errorf("out of range index, got %v", err)
	}
}

func TestActivateHidesPrevious(t *testing.T) {
	fake := winsys.NewFake()
	e, _ := newTestEngine(t, fake)
	a := addApp(fake, "A")
	b := addApp(fake, "B")
	sa, _ := e.Embed(a)
	if _, err := e.Embed(b); err != nil {
		t.Fatalf("embed: %v", err)
	}

	wa, _ := fake.Window(a)
	if wa.Visible {
		t.Error("previous tab's window should be hidden")
	}

	if err := e.Activate(sa.ID); err != nil {
		t.Fatalf("activate: %v", err)
	}
	wa, _ = fake.Window(a)
	wb, _ := fake.Window(b)
	if !wa.Visible || wb.Visible {
		t.Error("only the active tab's window may be visible")
	}
}

func TestSetPaneBoundsMovesActiveWindow(t *testing.T) {
	fake := winsys.NewFake()
	e, _ := newTestEngine(t, fake)
	h := addApp(fake, "App")
	if _, err := e.Embed(h); err != nil {
		t.Fatalf("embed: %v", err)
	}

	r := winsys.Rect{X: 0, Y: 40, Width: 900, Height: 500}
	e.SetPaneBounds(r)

	win, _ := fake.Window(h)
	if win.Bounds != r {
		t.Errorf("active window not laid out: %+v", win.Bounds)
	}

	// Sub-pixel chatter is dropped.
	e.SetPaneBounds(winsys.Rect{X: r.X, Y: r.Y + 1, Width: r.Width - 1, Height: r.Height})
	win, _ = fake.Window(h)
	if win.Bounds != r {
		t.Errorf("1px jitter must not relayout: %+v", win.Bounds)
	}
}

func TestHideAndShowActive(t *testing.T) {
	fake := winsys.NewFake()
	e, _ := newTestEngine(t, fake)
	h := addApp(fake, "App")
	if _, err := e.Embed(h); err != nil {
		t.Fatalf("embed: %v", err)
	}

	if err := e.HideActive(); err != nil {
		t.Fatalf("hide: %v", err)
	}
	if win, _ := fake.Window(h); win.Visible {
		t.Error("active window should be hidden for the overlay")
	}

	if err := e.ShowActive(); err != nil {
		t.Fatalf("show: %v", err)
	}
	if win, _ := fake.Window(h); !win.Visible {
		t.Error("active window should be visible again")
	}

	if e.Stats().TotalSessions != 1 {
		t.Error("overlay hide/show must not touch session state")
	}
}

func TestHideActiveWithoutSessions(t *testing.T) {
	fake := winsys.NewFake()
	e, _ := newTestEngine(t, fake)
	if err := e.HideActive(); !errors.Is(err, types.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestCloseSessionPostsClose(t *testing.T) {
	fake := winsys.NewFake()
	e, _ := newTestEngine(t, fake)
	h := addApp(fake, "App")
	s, _ := e.Embed(h)

	if err := e.CloseSession(s.ID); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(fake.ClosedPosts) != 1 || fake.ClosedPosts[0] != h {
		t.Errorf("close request not posted: %v", fake.ClosedPosts)
	}
	if e.Stats().TotalSessions != 0 {
		t.Error("closed session must leave the registry")
	}
}

func TestWindowsExcludesEmbedded(t *testing.T) {
	fake := winsys.NewFake()
	e, _ := newTestEngine(t, fake)
	a := addApp(fake, "A")
	addApp(fake, "B")

	if _, err := e.Embed(a); err != nil {
		t.Fatalf("embed: %v", err)
	}
	for _, c := range e.Windows() {
		if c.Handle == a {
			t.Error("embedded windows must not appear as candidates")
		}
	}
}

func TestLaunchAndEmbed(t *testing.T) {
	fake := winsys.NewFake()
	host := fake.AddWindow(winsys.FakeWindow{
		Title: "WindowHub", ClassName: "HostFrame",
		ProcessID: fake.SelfProcessID(),
	})
	start := func(ctx context.Context, path string, args []string) (uint32, error) {
		fake.AddWindow(winsys.FakeWindow{Title: "Editor", ClassName: "Edit", ProcessID: 6100})
		return 6100, nil
	}
	e := New(fake, host, winsys.Rect{Width: 800, Height: 600}, Options{
		MonitorInterval: time.Hour,
		LaunchTimeout:   time.Second,
		LaunchPoll:      time.Millisecond,
		StartFunc:       start,
	}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go e.Run(ctx)

	s, err := e.LaunchAndEmbed(context.Background(), `C:\tools\editor.exe`, nil)
	if err != nil {
		t.Fatalf("launch and embed: %v", err)
	}
	if s.Title != "Editor" || s.ProcessID != 6100 {
		t.Errorf("wrong session captured: %+v", s)
	}
	if s.Icon != `C:\tools\editor.exe` {
		t.Errorf("launch path should become the icon source: %q", s.Icon)
	}
}

func TestSubscribeCancelStopsDelivery(t *testing.T) {
	fake := winsys.NewFake()
	e, _ := newTestEngine(t, fake)

	events, cancel := e.Subscribe()
	cancel()
	if _, ok := <-events; ok {
		t.Error("cancelled subscription channel must be closed")
	}

	// Publishing after cancel must not panic or block.
	if _, err := e.Embed(addApp(fake, "App")); err != nil {
		t.Fatalf("embed: %v", err)
	}
}
