package types

import "errors"

// Engine error taxonomy. Handle death at any stage is recovered locally
// by falling through to removal, never surfaced as a crash.
var (
	// ErrInvalidHandle means the target window no longer exists, never
	// existed, or is not currently embeddable (e.g. minimized).
	ErrInvalidHandle = errors.New("invalid window handle")

	// ErrAlreadyEmbedded means the handle is tracked by a session or an
	// embed for it is already in flight.
	ErrAlreadyEmbedded = errors.New("window already embedded")

	// ErrSessionNotFound means no session exists for the given id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionGone means the session's window died mid-operation.
	ErrSessionGone = errors.New("session window gone")

	// ErrPermissionDenied means the OS refused the structural change
	// (cross-privilege windows) or the target is on the refusal list.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrLaunchFailed means the external process could not be started.
	ErrLaunchFailed = errors.New("launch failed")

	// ErrTimeout means a bounded wait elapsed without the expected
	// window appearing.
	ErrTimeout = errors.New("timed out")
)

// IsGone reports whether err classifies as the internal "already gone"
// condition: the handle died and cleanup proceeded anyway.
func IsGone(err error) bool {
	return errors.Is(err, ErrSessionGone) || errors.Is(err, ErrInvalidHandle)
}
