package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evento-companion/internal/chat"
	"evento-companion/internal/middleware"
	"evento-companion/internal/models"
	"evento-companion/internal/session"
)

const (
	testSecret = "s3cret"
	testOrigin = "http://localhost:8090"
)

func TestHubAddAndRemoveClient(t *testing.T) {
	hub := NewHub(nil)

	hub.AddClient("1", nil, ConnInfo{})
	assert.Equal(t, 1, hub.ClientCount("1"))

	hub.RemoveClient("1", nil)
	assert.Equal(t, 0, hub.ClientCount("1"))
	assert.Empty(t, hub.rooms)
}

func TestTimelineEventNeverNilMessages(t *testing.T) {
	event := TimelineEvent(chat.Snapshot{GroupID: "3", State: chat.StateIdle, Grew: true})

	assert.Equal(t, "timeline", event.Type)
	assert.Equal(t, "idle", event.State)
	assert.NotNil(t, event.Messages)
	assert.True(t, event.ScrollToEnd)
}

type stubBackend struct{}

func (stubBackend) ListMessages(context.Context, models.ID) ([]models.ChatMessage, error) {
	return []models.ChatMessage{{ID: "1", Text: "hello", GroupID: "7"}}, nil
}

func (stubBackend) PostMessage(context.Context, models.ID, string) error { return nil }

type stubChannel struct {
	msgs chan models.ChatMessage
	once sync.Once
}

func (*stubChannel) Join(context.Context, models.ID) error { return nil }
func (c *stubChannel) Messages() <-chan models.ChatMessage { return c.msgs }
func (c *stubChannel) Close() error {
	c.once.Do(func() { close(c.msgs) })
	return nil
}

type stubDialer struct{}

func (stubDialer) Dial(context.Context, string) (chat.PushChannel, error) {
	return &stubChannel{msgs: make(chan models.ChatMessage)}, nil
}

type stubIdentity struct{}

func (stubIdentity) Token(context.Context) (string, error) { return "tok", nil }
func (stubIdentity) Claims(context.Context) (*session.Claims, error) {
	return &session.Claims{UserID: "42"}, nil
}
func (stubIdentity) Check(_ context.Context, err error) error { return err }

func TestTimelineHandlerStreamsSnapshots(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(nil)
	manager := chat.NewManager(stubBackend{}, stubDialer{}, stubIdentity{}, nil, chat.WithListener(hub.Publish))
	_, err := manager.Open(context.Background(), "7")
	require.NoError(t, err)
	defer manager.CloseAll()

	router := gin.New()
	router.GET("/ws/chats/:group_id", middleware.LocalClient(testSecret, []string{testOrigin}), NewTimelineWebSocketHandler(hub, manager, nil, []string{testOrigin}).Handle)
	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chats/7"
	dialer := websocket.Dialer{Subprotocols: []string{middleware.LocalSubprotocol, middleware.SecretSubprotocolPrefix + testSecret}}
	conn, _, err := dialer.Dial(url, http.Header{"Origin": {testOrigin}})
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, middleware.LocalSubprotocol, conn.Subprotocol())

	var first models.TimelineEvent
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&first))
	assert.True(t, first.ScrollToEnd)
	require.Len(t, first.Messages, 1)
	assert.Equal(t, "hello", first.Messages[0].Text)

	require.Eventually(t, func() bool { return hub.ClientCount("7") == 1 }, time.Second, 5*time.Millisecond)
	sess, err := manager.Get("7")
	require.NoError(t, err)
	_, err = sess.Send(context.Background(), "hi")
	require.NoError(t, err)

	var raw json.RawMessage
	require.NoError(t, conn.ReadJSON(&raw))
	var pending models.TimelineEvent
	require.NoError(t, json.Unmarshal(raw, &pending))
	require.Len(t, pending.Messages, 2)
	assert.True(t, pending.Messages[1].Pending)
	assert.True(t, pending.ScrollToEnd)
}

func TestTimelineHandlerUnknownGroup(t *testing.T) {
	gin.SetMode(gin.TestMode)
	manager := chat.NewManager(stubBackend{}, stubDialer{}, stubIdentity{}, nil)
	router := gin.New()
	router.GET("/ws/chats/:group_id", NewTimelineWebSocketHandler(NewHub(nil), manager, nil, []string{testOrigin}).Handle)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ws/chats/9", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func serverConn(t *testing.T) *websocket.Conn {
	t.Helper()
	conns := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var upgrader websocket.Upgrader
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- conn
	}))
	t.Cleanup(srv.Close)

	peer, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { peer.Close() })

	select {
	case conn := <-conns:
		return conn
	case <-time.After(2 * time.Second):
		t.Fatal("no server connection")
		return nil
	}
}

func TestPublishNeverBlocksOnSlowClient(t *testing.T) {
	hub := NewHub(nil)
	conn := serverConn(t)
	stalled := &client{conn: conn, send: make(chan []byte, 1), done: make(chan struct{})}
	hub.rooms["7"] = map[*websocket.Conn]*client{conn: stalled}

	snap := chat.Snapshot{GroupID: "7", State: chat.StateIdle}
	started := time.Now()
	hub.Publish(snap)
	hub.Publish(snap)

	assert.Less(t, time.Since(started), writeWait)
	assert.Len(t, stalled.send, 1)
	assert.Equal(t, 0, hub.ClientCount("7"))
	select {
	case <-stalled.done:
	default:
		t.Fatal("dropped client was not stopped")
	}
}

func TestTimelineHandlerRejectsForeignOrigin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hub := NewHub(nil)
	manager := chat.NewManager(stubBackend{}, stubDialer{}, stubIdentity{}, nil, chat.WithListener(hub.Publish))
	_, err := manager.Open(context.Background(), "7")
	require.NoError(t, err)
	defer manager.CloseAll()

	handler := NewTimelineWebSocketHandler(hub, manager, nil, []string{testOrigin}).Handle
	guarded := gin.New()
	guarded.GET("/ws/chats/:group_id", middleware.LocalClient(testSecret, []string{testOrigin}), handler)
	bare := gin.New()
	bare.GET("/ws/chats/:group_id", handler)

	for name, router := range map[string]*gin.Engine{"guarded": guarded, "bare": bare} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(router)
			defer srv.Close()

			dialer := websocket.Dialer{Subprotocols: []string{middleware.LocalSubprotocol, middleware.SecretSubprotocolPrefix + testSecret}}
			conn, resp, err := dialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/chats/7", http.Header{"Origin": {"https://evil.example"}})
			if conn != nil {
				conn.Close()
			}
			require.ErrorIs(t, err, websocket.ErrBadHandshake)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
			assert.Equal(t, 0, hub.ClientCount("7"))
		})
	}
}

func TestTimelineHandlerRequiresSecret(t *testing.T) {
	gin.SetMode(gin.TestMode)
	manager := chat.NewManager(stubBackend{}, stubDialer{}, stubIdentity{}, nil)
	_, err := manager.Open(context.Background(), "7")
	require.NoError(t, err)
	defer manager.CloseAll()

	router := gin.New()
	router.GET("/ws/chats/:group_id", middleware.LocalClient(testSecret, []string{testOrigin}), NewTimelineWebSocketHandler(NewHub(nil), manager, nil, []string{testOrigin}).Handle)
	srv := httptest.NewServer(router)
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/chats/7", http.Header{"Origin": {testOrigin}})
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
