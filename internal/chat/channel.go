package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"evento-companion/internal/api"
	"evento-companion/internal/models"
	"evento-companion/internal/observability"
	"evento-companion/internal/session"
)

// PushChannel is a live server-to-client connection delivering chat messages.
type PushChannel interface {
	Join(ctx context.Context, groupID models.ID) error
	// Messages is closed when the connection drops or Close is called.
	Messages() <-chan models.ChatMessage
	Close() error
}

// Dialer opens an authenticated push channel.
type Dialer interface {
	Dial(ctx context.Context, token string) (PushChannel, error)
}

const writeWait = 10 * time.Second

// WSDialer connects to the backend push endpoint over websocket.
type WSDialer struct {
	url    string
	dialer *websocket.Dialer
	logger *zap.Logger
}

func NewWSDialer(pushURL string, logger *zap.Logger) *WSDialer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSDialer{
		url: pushURL,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 15 * time.Second,
		},
		logger: logger,
	}
}

func (d *WSDialer) Dial(ctx context.Context, token string) (PushChannel, error) {
	u, err := url.Parse(d.url)
	if err != nil {
		return nil, fmt.Errorf("parse push url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := d.dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusUnauthorized {
			return nil, session.ErrSessionExpired
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: push channel: %v", api.ErrConnectivity, err)
	}

	ch := &WSChannel{
		conn:     conn,
		messages: make(chan models.ChatMessage, 16),
		done:     make(chan struct{}),
		logger:   d.logger,
	}
	go ch.readLoop()
	return ch, nil
}

// WSChannel is a PushChannel over a gorilla websocket connection.
type WSChannel struct {
	conn      *websocket.Conn
	messages  chan models.ChatMessage
	done      chan struct{}
	writeMu   sync.Mutex
	closeOnce sync.Once
	logger    *zap.Logger
}

func (c *WSChannel) Join(ctx context.Context, groupID models.ID) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(writeWait)
	}
	_ = c.conn.SetWriteDeadline(deadline)
	if err := c.conn.WriteJSON(models.PushEvent{Event: models.EventJoinGroup, GroupID: groupID}); err != nil {
		return fmt.Errorf("%w: join group: %v", api.ErrConnectivity, err)
	}
	observability.IncWSEvent("push", models.EventJoinGroup)
	return nil
}

func (c *WSChannel) Messages() <-chan models.ChatMessage {
	return c.messages
}

func (c *WSChannel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.conn.Close()
	})
	return err
}

func (c *WSChannel) readLoop() {
	defer close(c.messages)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("push", "ws_error")
				}
				c.logger.Info("push channel closed", zap.Error(err))
			}
			return
		}

		var event models.PushEvent
		if err := json.Unmarshal(data, &event); err != nil {
			c.logger.Warn("push channel: malformed frame", zap.Error(err))
			continue
		}
		if event.Event != models.EventNewMessage || event.Message == nil {
			continue
		}
		observability.IncWSEvent("push", event.Event)

		select {
		case c.messages <- *event.Message:
		case <-c.done:
			return
		}
	}
}
