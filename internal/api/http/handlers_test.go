package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windowhub/engine/internal/engine"
	"github.com/windowhub/engine/internal/winsys"
)

func setupRouter(t *testing.T) (*gin.Engine, *winsys.Fake) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	fake := winsys.NewFake()
	host := fake.AddWindow(winsys.FakeWindow{
		Title: "WindowHub", ClassName: "HostFrame",
		ProcessID: fake.SelfProcessID(),
	})
	eng := engine.New(fake, host, winsys.Rect{Width: 1200, Height: 700}, engine.Options{
		DetachDelay:     time.Millisecond,
		MonitorInterval: time.Hour,
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go eng.Run(ctx)

	h := NewHandlers(eng)
	router := gin.New()
	router.GET("/health", h.Health)
	router.GET("/windows", h.ListWindows)
	router.GET("/sessions", h.ListSessions)
	router.POST("/sessions", h.CreateSession)
	router.GET("/sessions/:id", h.GetSession)
	router.POST("/sessions/:id/activate", h.ActivateSession)
	router.POST("/sessions/:id/close", h.CloseSession)
	router.DELETE("/sessions/:id", h.ReleaseSession)
	router.PATCH("/pane", h.SetBounds)
	router.POST("/tabs/next", h.NextTab)
	return router, fake
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func embedWindow(t *testing.T, router *gin.Engine, h winsys.Handle) string {
	t.Helper()
	w := doJSON(router, http.MethodPost, "/sessions", gin.H{"handle": uint64(h)})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.ID)
	return resp.ID
}

func TestCreateAndListSessions(t *testing.T) {
	router, fake := setupRouter(t)
	h := fake.AddWindow(winsys.FakeWindow{Title: "Notepad", ClassName: "Notepad"})

	sid := embedWindow(t, router, h)

	w := doJSON(router, http.MethodGet, "/sessions", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Sessions []struct {
			ID    string `json:"id"`
			Title string `json:"title"`
			State string `json:"state"`
		} `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Sessions, 1)
	assert.Equal(t, sid, resp.Sessions[0].ID)
	assert.Equal(t, "Notepad", resp.Sessions[0].Title)
	assert.Equal(t, "embedded", resp.Sessions[0].State)
}

func TestCreateSessionConflict(t *testing.T) {
	router, fake := setupRouter(t)
	h := fake.AddWindow(winsys.FakeWindow{Title: "App", ClassName: "Frame"})

	embedWindow(t, router, h)
	w := doJSON(router, http.MethodPost, "/sessions", gin.H{"handle": uint64(h)})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateSessionBadRequest(t *testing.T) {
	router, _ := setupRouter(t)
	w := doJSON(router, http.MethodPost, "/sessions", gin.H{"not_handle": 1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateSessionRefusedClass(t *testing.T) {
	router, fake := setupRouter(t)
	h := fake.AddWindow(winsys.FakeWindow{Title: "Explorer", ClassName: "CabinetWClass"})

	w := doJSON(router, http.MethodPost, "/sessions", gin.H{"handle": uint64(h)})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGetSessionValidation(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(router, http.MethodGet, "/sessions/not-an-id", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodGet, "/sessions/sess_01ARZ3NDEKTSV4RRFFQ69G5FAV", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReleaseSession(t *testing.T) {
	router, fake := setupRouter(t)
	h := fake.AddWindow(winsys.FakeWindow{Title: "App", ClassName: "Frame"})
	sid := embedWindow(t, router, h)

	w := doJSON(router, http.MethodDelete, "/sessions/"+sid, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/sessions/"+sid, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestActivateGoneSession(t *testing.T) {
	router, fake := setupRouter(t)
	h := fake.AddWindow(winsys.FakeWindow{Title: "App", ClassName: "Frame"})
	sid := embedWindow(t, router, h)

	fake.Kill(h)
	w := doJSON(router, http.MethodPost, fmt.Sprintf("/sessions/%s/activate", sid), nil)
	assert.Equal(t, http.StatusGone, w.Code)
}

func TestCloseSessionPostsClose(t *testing.T) {
	router, fake := setupRouter(t)
	h := fake.AddWindow(winsys.FakeWindow{Title: "App", ClassName: "Frame"})
	sid := embedWindow(t, router, h)

	w := doJSON(router, http.MethodPost, fmt.Sprintf("/sessions/%s/close", sid), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, fake.ClosedPosts, 1)
}

func TestListWindowsExcludesEmbedded(t *testing.T) {
	router, fake := setupRouter(t)
	a := fake.AddWindow(winsys.FakeWindow{Title: "A", ClassName: "Frame"})
	fake.AddWindow(winsys.FakeWindow{Title: "B", ClassName: "Frame"})
	embedWindow(t, router, a)

	w := doJSON(router, http.MethodGet, "/windows", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Windows []struct {
			Title string `json:"title"`
		} `json:"windows"`
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
	assert.Equal(t, "B", resp.Windows[0].Title)
}

func TestSetBoundsAndHealth(t *testing.T) {
	router, _ := setupRouter(t)

	w := doJSON(router, http.MethodPatch, "/pane", gin.H{"x": 0, "y": 40, "width": 900, "height": 600})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestNextTabWithoutSessions(t *testing.T) {
	router, _ := setupRouter(t)
	w := doJSON(router, http.MethodPost, "/tabs/next", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
