package chat

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evento-companion/internal/api"
	"evento-companion/internal/models"
	"evento-companion/internal/session"
)

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func TestWSChannelJoinAndReceive(t *testing.T) {
	joined := make(chan models.PushEvent, 1)
	seen := make(chan *http.Request, 1)
	upgrader := websocket.Upgrader{}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen <- r
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		var join models.PushEvent
		if err := conn.ReadJSON(&join); err != nil {
			return
		}
		joined <- join

		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"typing"}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"new_message","message":{"mensagemId":5,"texto":"hi","grupoId":7,"createdAt":"2025-01-01T10:00:00.000Z"}}`))
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	ch, err := NewWSDialer(wsURL(srv), nil).Dial(context.Background(), "tok")
	require.NoError(t, err)
	defer ch.Close()

	r := <-seen
	assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
	assert.Equal(t, "tok", r.URL.Query().Get("token"))

	require.NoError(t, ch.Join(context.Background(), "7"))
	join := <-joined
	assert.Equal(t, models.EventJoinGroup, join.Event)
	assert.Equal(t, models.ID("7"), join.GroupID)

	select {
	case msg := <-ch.Messages():
		assert.Equal(t, models.ID("5"), msg.ID)
		assert.Equal(t, models.ID("7"), msg.GroupID)
		assert.Equal(t, "hi", msg.Text)
	case <-time.After(2 * time.Second):
		t.Fatal("no message delivered")
	}

	require.NoError(t, ch.Close())
	require.NoError(t, ch.Close())
	_, open := <-ch.Messages()
	assert.False(t, open)
}

func TestWSDialerUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewWSDialer(wsURL(srv), nil).Dial(context.Background(), "tok")
	assert.ErrorIs(t, err, session.ErrSessionExpired)
}

func TestWSDialerUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := wsURL(srv)
	srv.Close()

	_, err := NewWSDialer(url, nil).Dial(context.Background(), "tok")
	assert.ErrorIs(t, err, api.ErrConnectivity)
}
