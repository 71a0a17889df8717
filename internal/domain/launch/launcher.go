// Package launch starts applications and captures the window they
// create. Process identity is unreliable for capture (many launchers
// hand off to a broker process), so capture prefers the launched pid
// but falls back to diffing the candidate set against a pre-launch
// snapshot.
package launch

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/windowhub/engine/internal/domain/directory"
	"github.com/windowhub/engine/internal/shared/types"
	"github.com/windowhub/engine/internal/winsys"
)

const (
	// DefaultCaptureTimeout bounds the wait for a launched application
	// to present a window. Slow-starting applications that miss it are
	// still running; only the capture gives up.
	DefaultCaptureTimeout = 10 * time.Second

	// DefaultPollInterval is the capture polling period.
	DefaultPollInterval = 250 * time.Millisecond
)

// Candidates is the directory view the launcher polls.
type Candidates interface {
	ListCandidates() []directory.Candidate
	ListByProcess(pid uint32) []directory.Candidate
}

// StartFunc starts a program and returns the child process id. Split
// out so tests can script process creation without spawning anything.
type StartFunc func(ctx context.Context, path string, args []string) (uint32, error)

// Launcher starts applications and waits for their first stable window.
type Launcher struct {
	dir     Candidates
	start   StartFunc
	timeout time.Duration
	poll    time.Duration
	logger  *zap.Logger
}

// NewLauncher creates a launcher. A nil start function uses the real
// process spawner; non-positive durations fall back to defaults.
func NewLauncher(dir Candidates, start StartFunc, timeout, poll time.Duration, logger *zap.Logger) *Launcher {
	if start == nil {
		start = startProcess
	}
	if timeout <= 0 {
		timeout = DefaultCaptureTimeout
	}
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Launcher{dir: dir, start: start, timeout: timeout, poll: poll, logger: logger}
}

// LaunchAndCapture starts the program at path and returns the first
// candidate window it can attribute to the launch. Attribution prefers
// windows owned by the child pid; when the child brokers the real
// process, any candidate absent from the pre-launch snapshot matches.
// A window counts only once it is stable: seen in two consecutive
// polls with the same handle.
//
// Start failure returns ErrLaunchFailed; a launch whose window never
// appears returns ErrTimeout.
func (l *Launcher) LaunchAndCapture(ctx context.Context, path string, args []string) (directory.Candidate, error) {
	before := make(map[winsys.Handle]bool)
	for _, c := range l.dir.ListCandidates() {
		before[c.Handle] = true
	}

	pid, err := l.start(ctx, path, args)
	if err != nil {
		return directory.Candidate{}, fmt.Errorf("start %q: %w: %v", path, types.ErrLaunchFailed, err)
	}
	l.logger.Info("application started",
		zap.String("path", path),
		zap.Uint32("pid", pid))

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	ticker := time.NewTicker(l.poll)
	defer ticker.Stop()

	var lastSeen winsys.Handle
	for {
		select {
		case <-ctx.Done():
			return directory.Candidate{}, fmt.Errorf("capture %q: no window within %s: %w", path, l.timeout, types.ErrTimeout)
		case <-ticker.C:
			c, ok := l.pick(pid, before)
			if !ok {
				lastSeen = winsys.None
				continue
			}
			if c.Handle == lastSeen {
				l.logger.Info("window captured",
					zap.String("title", c.Title),
					zap.Uint32("pid", c.ProcessID))
				return c, nil
			}
			lastSeen = c.Handle
		}
	}
}

func (l *Launcher) pick(pid uint32, before map[winsys.Handle]bool) (directory.Candidate, bool) {
	if owned := l.dir.ListByProcess(pid); len(owned) > 0 {
		return owned[0], true
	}
	for _, c := range l.dir.ListCandidates() {
		if !before[c.Handle] {
			return c, true
		}
	}
	return directory.Candidate{}, false
}

// startProcess spawns the program directly. Shortcut files cannot be
// executed; they go through the shell, which resolves the link target.
func startProcess(ctx context.Context, path string, args []string) (uint32, error) {
	var cmd *exec.Cmd
	if strings.EqualFold(filepath.Ext(path), ".lnk") {
		cmd = exec.CommandContext(ctx, "cmd", append([]string{"/C", "start", "", path}, args...)...)
	} else {
		cmd = exec.CommandContext(ctx, path, args...)
	}
	if err := cmd.Start(); err != nil {
		return 0, err
	}
	pid := uint32(cmd.Process.Pid)
	// Reap without blocking the capture.
	go func() { _ = cmd.Wait() }()
	return pid, nil
}
