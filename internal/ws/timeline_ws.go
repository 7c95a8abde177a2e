package ws

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"evento-companion/internal/chat"
	"evento-companion/internal/middleware"
	"evento-companion/internal/models"
	"evento-companion/internal/observability"
)

// Sessions resolves the open chat session for a group.
type Sessions interface {
	Get(groupID models.ID) (*chat.Session, error)
}

// TimelineWebSocketHandler streams a chat timeline to the local UI.
type TimelineWebSocketHandler struct {
	hub      *Hub
	sessions Sessions
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewTimelineWebSocketHandler constructs a TimelineWebSocketHandler that
// accepts browser handshakes only from allowedOrigins.
func NewTimelineWebSocketHandler(hub *Hub, sessions Sessions, logger *zap.Logger, allowedOrigins []string) *TimelineWebSocketHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimelineWebSocketHandler{
		hub:      hub,
		sessions: sessions,
		logger:   logger,
		upgrader: websocket.Upgrader{
			Subprotocols: []string{middleware.LocalSubprotocol},
			CheckOrigin: func(r *http.Request) bool {
				return middleware.OriginAllowed(r.Header.Get("Origin"), allowedOrigins)
			},
		},
	}
}

// Handle upgrades the connection, sends the current timeline and registers the client.
func (h *TimelineWebSocketHandler) Handle(c *gin.Context) {
	groupID := models.ID(c.Param("group_id"))
	if groupID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return
	}

	sess, err := h.sessions.Get(groupID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "chat is not open"})
		return
	}

	_, span := otel.Tracer("evento-companion/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("timeline upgrade rejected", zap.String("origin", c.GetHeader("Origin")), zap.Error(err))
		return
	}
	info := ConnInfo{
		ConnID:      newConnID(),
		UserID:      c.GetString("userID"),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   observability.RequestIDFromRequest(c.Request),
		TraceID:     span.SpanContext().TraceID().String(),
		ConnectedAt: time.Now(),
	}
	h.hub.AddClient(groupID, conn, info)
	observability.IncWSActive(kindTimeline)
	h.hub.publishWSEvent(groupID, info, "ws_connect", "")
	h.logger.Debug("timeline client connected", zap.String("group_id", groupID.String()), zap.String("conn_id", info.ConnID))

	snap := sess.Snapshot()
	snap.Grew = true
	if err := h.hub.send(groupID, conn, TimelineEvent(snap)); err != nil {
		h.logger.Warn("initial timeline write failed", zap.Error(err))
	}

	go func() {
		var closeReason string
		defer func() {
			h.hub.RemoveClient(groupID, conn)
			observability.DecWSActive(kindTimeline)
			h.hub.publishWSEvent(groupID, info, "ws_disconnect", closeReason)
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent(kindTimeline, "ws_error")
				}
				return
			}
		}
	}()
}
