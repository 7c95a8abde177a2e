package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"evento-companion/internal/api"
	"evento-companion/internal/models"
)

// Discovery is the read side of the backend shown outside the wizard.
type Discovery interface {
	ListEvents(ctx context.Context) ([]models.Event, error)
	GetEvent(ctx context.Context, id string) (models.Event, error)
	ListGroups(ctx context.Context) ([]models.Group, error)
	GetProfile(ctx context.Context, kind string) (json.RawMessage, error)
	UpdateProfileField(ctx context.Context, kind, field, value string) error
}

// ProfileCache keeps the last profile fetched from the backend.
type ProfileCache interface {
	SaveProfile(ctx context.Context, profile json.RawMessage) error
}

type DiscoveryHandler struct {
	backend Discovery
	cache   ProfileCache
	logger  *zap.Logger
}

func NewDiscoveryHandler(backend Discovery, cache ProfileCache, logger *zap.Logger) *DiscoveryHandler {
	return &DiscoveryHandler{backend: backend, cache: cache, logger: logger}
}

func (h *DiscoveryHandler) ListEvents(c *gin.Context) {
	events, err := h.backend.ListEvents(c.Request.Context())
	if err != nil {
		respondError(c, err, "Could not load events.")
		return
	}
	if events == nil {
		events = []models.Event{}
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (h *DiscoveryHandler) GetEvent(c *gin.Context) {
	event, err := h.backend.GetEvent(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Could not load the event.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"event": event})
}

func (h *DiscoveryHandler) ListGroups(c *gin.Context) {
	groups, err := h.backend.ListGroups(c.Request.Context())
	if err != nil {
		respondError(c, err, "Could not load groups.")
		return
	}
	if groups == nil {
		groups = []models.Group{}
	}
	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

func validProfileKind(kind string) bool {
	return kind == api.ProfileOrganizer || kind == api.ProfileGuest
}

// GetProfile fetches the profile and refreshes the local cache.
func (h *DiscoveryHandler) GetProfile(c *gin.Context) {
	kind := c.Param("type")
	if !validProfileKind(kind) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile type"})
		return
	}
	profile, err := h.backend.GetProfile(c.Request.Context(), kind)
	if err != nil {
		respondError(c, err, "Could not load the profile.")
		return
	}
	if h.cache != nil && len(profile) > 0 {
		if err := h.cache.SaveProfile(c.Request.Context(), profile); err != nil {
			h.logger.Warn("profile cache update failed", zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, gin.H{"profile": profile})
}

type profileFieldRequest struct {
	Value string `json:"value" binding:"required"`
}

func (h *DiscoveryHandler) UpdateProfileField(c *gin.Context) {
	kind := c.Param("type")
	if !validProfileKind(kind) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile type"})
		return
	}
	var req profileFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "value is required"})
		return
	}
	if err := h.backend.UpdateProfileField(c.Request.Context(), kind, c.Param("field"), req.Value); err != nil {
		respondError(c, err, "Could not update the profile.")
		return
	}
	c.Status(http.StatusNoContent)
}
