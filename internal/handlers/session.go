package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"evento-companion/internal/session"
)

// Sessions is the local authentication guard.
type Sessions interface {
	Login(ctx context.Context, token string, profile json.RawMessage) error
	Claims(ctx context.Context) (*session.Claims, error)
	Profile(ctx context.Context) (json.RawMessage, error)
	Invalidate(ctx context.Context) error
}

// ChatCloser tears down every open chat.
type ChatCloser interface {
	CloseAll()
}

// SessionHandler exposes login state to the UI.
type SessionHandler struct {
	sessions Sessions
	chats    ChatCloser
	logger   *zap.Logger
}

func NewSessionHandler(sessions Sessions, chats ChatCloser, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, chats: chats, logger: logger}
}

type loginRequest struct {
	Token   string          `json:"token" binding:"required"`
	Profile json.RawMessage `json:"profile"`
}

// Login stores the token obtained by the UI from the backend login call.
func (h *SessionHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	if err := h.sessions.Login(c.Request.Context(), req.Token, req.Profile); err != nil {
		h.logger.Warn("login rejected", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid token"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "ok"})
}

// Logout clears the session and closes open chats. The draft survives.
func (h *SessionHandler) Logout(c *gin.Context) {
	if h.chats != nil {
		h.chats.CloseAll()
	}
	if err := h.sessions.Invalidate(c.Request.Context()); err != nil {
		h.logger.Error("logout failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear session"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Current reports who is logged in.
func (h *SessionHandler) Current(c *gin.Context) {
	ctx := c.Request.Context()
	claims, err := h.sessions.Claims(ctx)
	if err != nil {
		respondError(c, err, "failed to read session")
		return
	}

	profile, err := h.sessions.Profile(ctx)
	if err != nil {
		h.logger.Warn("cached profile unreadable", zap.Error(err))
	}

	resp := gin.H{"user_id": claims.UserID, "role": claims.Role}
	if len(profile) > 0 {
		resp["profile"] = profile
	}
	c.JSON(http.StatusOK, resp)
}
