// Package http exposes the engine over a REST surface for the host UI.
package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/windowhub/engine/internal/engine"
	"github.com/windowhub/engine/internal/shared/id"
	"github.com/windowhub/engine/internal/shared/types"
	"github.com/windowhub/engine/internal/winsys"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	engine *engine.Engine
}

// NewHandlers creates a new handler set
func NewHandlers(eng *engine.Engine) *Handlers {
	return &Handlers{engine: eng}
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "WindowHub Engine",
		"version": "0.3.0",
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"sessions": h.engine.Stats(),
	})
}

// ListWindows lists embeddable windows on the desktop
func (h *Handlers) ListWindows(c *gin.Context) {
	windows := h.engine.Windows()
	c.JSON(http.StatusOK, gin.H{
		"windows": windows,
		"count":   len(windows),
	})
}

// ListApps lists installed applications
func (h *Handlers) ListApps(c *gin.Context) {
	apps, err := h.engine.Apps(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"apps":  apps,
		"count": len(apps),
	})
}

// ListSessions lists all sessions in tab order
func (h *Handlers) ListSessions(c *gin.Context) {
	sessions := h.engine.Sessions()
	summaries := make([]types.Summary, 0, len(sessions))
	for i := range sessions {
		summaries = append(summaries, sessions[i].Summarize())
	}
	c.JSON(http.StatusOK, gin.H{
		"sessions": summaries,
		"stats":    h.engine.Stats(),
	})
}

// GetSession returns one session
func (h *Handlers) GetSession(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		return
	}
	s, err := h.engine.Session(sid)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, s.Summarize())
}

// CreateSession embeds an existing window as a new session
func (h *Handlers) CreateSession(c *gin.Context) {
	var req struct {
		Handle uint64 `json:"handle" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, err := h.engine.Embed(winsys.Handle(req.Handle))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s.Summarize())
}

// Launch starts an application and embeds its window
func (h *Handlers) Launch(c *gin.Context) {
	var req struct {
		Path string   `json:"path" binding:"required"`
		Args []string `json:"args"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s, err := h.engine.LaunchAndEmbed(c.Request.Context(), req.Path, req.Args)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, s.Summarize())
}

// ActivateSession makes a session the active tab
func (h *Handlers) ActivateSession(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		return
	}
	if err := h.engine.Activate(sid); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session_id": sid})
}

// CloseSession releases a session's window and asks it to close
func (h *Handlers) CloseSession(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		return
	}
	if err := h.engine.CloseSession(sid); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session_id": sid})
}

// ReleaseSession detaches a session's window back to the desktop
func (h *Handlers) ReleaseSession(c *gin.Context) {
	sid, ok := sessionID(c)
	if !ok {
		return
	}
	if err := h.engine.Release(sid); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "session_id": sid})
}

// SetBounds moves the embedding pane
func (h *Handlers) SetBounds(c *gin.Context) {
	var req struct {
		X      int `json:"x"`
		Y      int `json:"y"`
		Width  int `json:"width" binding:"required"`
		Height int `json:"height" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.engine.SetPaneBounds(winsys.Rect{X: req.X, Y: req.Y, Width: req.Width, Height: req.Height})
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// HideActive hides the active session's window for a palette overlay
func (h *Handlers) HideActive(c *gin.Context) {
	if err := h.engine.HideActive(); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ShowActive re-shows the active session's window
func (h *Handlers) ShowActive(c *gin.Context) {
	if err := h.engine.ShowActive(); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Foreground reports the OS foreground window
func (h *Handlers) Foreground(c *gin.Context) {
	fg, owned := h.engine.Foreground()
	c.JSON(http.StatusOK, gin.H{
		"handle": uint64(fg),
		"owned":  owned,
	})
}

// NextTab activates the next tab in order
func (h *Handlers) NextTab(c *gin.Context) {
	if err := h.engine.NextTab(); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// PrevTab activates the previous tab in order
func (h *Handlers) PrevTab(c *gin.Context) {
	if err := h.engine.PrevTab(); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ActivateTab activates the tab at a position
func (h *Handlers) ActivateTab(c *gin.Context) {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "index must be an integer"})
		return
	}
	if err := h.engine.ActivateIndex(i); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func sessionID(c *gin.Context) (id.SessionID, bool) {
	raw := c.Param("id")
	if !id.IsValid(raw, id.SessionPrefix) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return "", false
	}
	return id.SessionID(raw), true
}

// writeError maps engine errors to HTTP statuses.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, types.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, types.ErrSessionGone):
		status = http.StatusGone
	case errors.Is(err, types.ErrAlreadyEmbedded):
		status = http.StatusConflict
	case errors.Is(err, types.ErrPermissionDenied):
		status = http.StatusForbidden
	case errors.Is(err, types.ErrInvalidHandle):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, types.ErrTimeout):
		status = http.StatusGatewayTimeout
	case errors.Is(err, types.ErrLaunchFailed):
		status = http.StatusBadGateway
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
