package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/windowhub/engine/internal/engine"
	"github.com/windowhub/engine/internal/winsys"
)

func setupStream(t *testing.T) (*engine.Engine, *winsys.Fake, *websocket.Conn) {
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

	router := gin.New()
	router.GET("/stream", NewHandler(eng, nil, nil).HandleConnection)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/stream", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return eng, fake, conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &msg))
	return msg
}

func TestStreamGreetsOnConnect(t *testing.T) {
	_, _, conn := setupStream(t)

	msg := readMessage(t, conn)
	assert.Equal(t, "system", msg["type"])
	assert.Equal(t, "connected", msg["message"])
}

func TestStreamAnswersPing(t *testing.T) {
	_, _, conn := setupStream(t)
	readMessage(t, conn) // greeting

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	msg := readMessage(t, conn)
	assert.Equal(t, "pong", msg["type"])
}

func TestStreamPushesSessionLifecycle(t *testing.T) {
	eng, fake, conn := setupStream(t)
	// The greeting is sent after the subscription is registered, so
	// reading it first guarantees no event can be missed.
	readMessage(t, conn)

	h := fake.AddWindow(winsys.FakeWindow{Title: "Notepad", ClassName: "Notepad"})
	s, err := eng.Embed(h)
	require.NoError(t, err)

	created := readMessage(t, conn)
	assert.Equal(t, "session_created", created["type"])
	session, ok := created["session"].(map[string]interface{})
	require.True(t, ok, "event must carry a session payload: %v", created)
	assert.Equal(t, s.ID.String(), session["id"])
	assert.Equal(t, "Notepad", session["title"])

	activated := readMessage(t, conn)
	assert.Equal(t, "session_activated", activated["type"])

	require.NoError(t, eng.Release(s.ID))
	closed := readMessage(t, conn)
	assert.Equal(t, "session_closed", closed["type"])
}
