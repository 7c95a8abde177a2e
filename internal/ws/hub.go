package ws

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"evento-companion/internal/chat"
	"evento-companion/internal/models"
	"evento-companion/internal/observability"
)

const (
	kindTimeline       = "timeline"
	timelineRoutingKey = "ws_events.timelines"
	writeWait          = 5 * time.Second
	sendBuffer         = 16
)

// client owns one UI connection. Frames are queued on send and written by a
// single writer goroutine so publishers never block on the socket.
type client struct {
	conn *websocket.Conn
	info ConnInfo
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) stop() {
	c.once.Do(func() { close(c.done) })
}

// Hub maintains the local UI websocket rooms, one per chat group.
type Hub struct {
	rooms  map[models.ID]map[*websocket.Conn]*client
	mu     sync.RWMutex
	logger *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		rooms:  make(map[models.ID]map[*websocket.Conn]*client),
		logger: logger,
	}
}

// AddClient registers a websocket connection to a group room and starts its writer.
func (h *Hub) AddClient(groupID models.ID, conn *websocket.Conn, info ConnInfo) {
	c := &client{
		conn: conn,
		info: info,
		send: make(chan []byte, sendBuffer),
		done: make(chan struct{}),
	}
	h.mu.Lock()
	if _, ok := h.rooms[groupID]; !ok {
		h.rooms[groupID] = make(map[*websocket.Conn]*client)
	}
	h.rooms[groupID][conn] = c
	h.mu.Unlock()

	go h.writeLoop(groupID, c)
}

// RemoveClient removes a websocket connection and stops its writer.
func (h *Hub) RemoveClient(groupID models.ID, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.rooms[groupID]
	if !ok {
		return
	}
	if c, ok := conns[conn]; ok {
		c.stop()
		delete(conns, conn)
	}
	if len(conns) == 0 {
		delete(h.rooms, groupID)
	}
}

func (h *Hub) ClientCount(groupID models.ID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[groupID])
}

// Publish is a chat.Listener that fans a snapshot out to the group's room.
// It only enqueues, so it is safe to call with the session lock held.
func (h *Hub) Publish(snap chat.Snapshot) {
	h.BroadcastTimeline(snap.GroupID, TimelineEvent(snap))
}

// TimelineEvent converts a session snapshot into the UI frame.
func TimelineEvent(snap chat.Snapshot) models.TimelineEvent {
	msgs := snap.Messages
	if msgs == nil {
		msgs = []models.ChatMessage{}
	}
	return models.TimelineEvent{
		Type:        kindTimeline,
		GroupID:     snap.GroupID,
		State:       snap.State.String(),
		Messages:    msgs,
		ScrollToEnd: snap.Grew,
	}
}

// BroadcastTimeline queues event for all clients in a group room. A client
// whose queue is full is disconnected.
func (h *Hub) BroadcastTimeline(groupID models.ID, event models.TimelineEvent) {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.rooms[groupID]))
	for _, c := range h.rooms[groupID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	if len(clients) == 0 {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("timeline marshal failed", zap.Error(err))
		return
	}
	for _, c := range clients {
		if !c.enqueue(payload) {
			h.drop(groupID, c, "send buffer full")
		}
	}
}

func (c *client) enqueue(payload []byte) bool {
	select {
	case <-c.done:
		return true
	default:
	}
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

func (h *Hub) writeLoop(groupID models.ID, c *client) {
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.drop(groupID, c, err.Error())
				return
			}
		}
	}
}

func (h *Hub) drop(groupID models.ID, c *client, reason string) {
	h.logger.Warn("dropping timeline client", zap.String("conn_id", c.info.ConnID), zap.String("reason", reason))
	h.RemoveClient(groupID, c.conn)
	_ = c.conn.Close()
	h.publishWSEvent(groupID, c.info, "ws_error", reason)
}

// send queues event for a single registered connection.
func (h *Hub) send(groupID models.ID, conn *websocket.Conn, event models.TimelineEvent) error {
	h.mu.RLock()
	c, ok := h.rooms[groupID][conn]
	h.mu.RUnlock()
	if !ok {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if !c.enqueue(payload) {
		return errors.New("send buffer full")
	}
	return nil
}

func (h *Hub) publishWSEvent(groupID models.ID, info ConnInfo, event, reason string) {
	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        kindTimeline,
			"resource_id": groupID,
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"user_id": info.UserID,
			"ip":      info.IP,
		},
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), timelineRoutingKey, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: event,
		Payload:   payload,
	}, headers)
	observability.IncWSEvent(kindTimeline, event)
}
