package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"evento-companion/internal/chat"
	"evento-companion/internal/models"
	"evento-companion/internal/ws"
)

// ChatSessions manages open group chats.
type ChatSessions interface {
	Open(ctx context.Context, groupID models.ID) (*chat.Session, error)
	Get(groupID models.ID) (*chat.Session, error)
	Close(groupID models.ID) bool
}

// ChatHandler manages group chat endpoints.
type ChatHandler struct {
	sessions ChatSessions
	logger   *zap.Logger
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(sessions ChatSessions, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{sessions: sessions, logger: logger}
}

func groupIDParam(c *gin.Context) (models.ID, bool) {
	id := models.ID(c.Param("group_id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid group id"})
		return "", false
	}
	return id, true
}

// Open loads history and joins the live channel for a group.
func (h *ChatHandler) Open(c *gin.Context) {
	groupID, ok := groupIDParam(c)
	if !ok {
		return
	}
	sess, err := h.sessions.Open(c.Request.Context(), groupID)
	if err != nil {
		respondError(c, err, "Could not load messages.")
		return
	}
	snap := sess.Snapshot()
	snap.Grew = true
	c.JSON(http.StatusOK, ws.TimelineEvent(snap))
}

// Messages returns the current timeline of an open chat.
func (h *ChatHandler) Messages(c *gin.Context) {
	groupID, ok := groupIDParam(c)
	if !ok {
		return
	}
	sess, err := h.sessions.Get(groupID)
	if err != nil {
		respondError(c, err, "Could not load messages.")
		return
	}
	c.JSON(http.StatusOK, ws.TimelineEvent(sess.Snapshot()))
}

type sendRequest struct {
	Text string `json:"text"`
}

// Send posts a message. The optimistic entry is visible to timeline
// subscribers before the backend answers.
func (h *ChatHandler) Send(c *gin.Context) {
	groupID, ok := groupIDParam(c)
	if !ok {
		return
	}
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	sess, err := h.sessions.Get(groupID)
	if err != nil {
		respondError(c, err, "Could not send the message.")
		return
	}
	msg, err := sess.Send(c.Request.Context(), req.Text)
	if err != nil {
		respondError(c, err, "Could not send the message.")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": msg})
}

// Leave closes the chat. No reconciliation happens afterwards.
func (h *ChatHandler) Leave(c *gin.Context) {
	groupID, ok := groupIDParam(c)
	if !ok {
		return
	}
	if !h.sessions.Close(groupID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "chat is not open"})
		return
	}
	c.Status(http.StatusNoContent)
}
