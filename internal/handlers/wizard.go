package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"evento-companion/internal/geocode"
	"evento-companion/internal/wizard"
)

// Geocoder resolves free-text addresses.
type Geocoder interface {
	Search(ctx context.Context, query string) ([]geocode.Place, error)
}

// WizardHandler drives the event creation wizard.
type WizardHandler struct {
	wizard   *wizard.Wizard
	geocoder Geocoder
	logger   *zap.Logger
}

func NewWizardHandler(w *wizard.Wizard, geocoder Geocoder, logger *zap.Logger) *WizardHandler {
	return &WizardHandler{wizard: w, geocoder: geocoder, logger: logger}
}

func stepResponse(step wizard.Step) gin.H {
	return gin.H{"step": int(step), "screen": step.String()}
}

// State returns the current wizard state. With ?step=N the wizard enters that step.
func (h *WizardHandler) State(c *gin.Context) {
	raw := c.Query("step")
	if raw == "" {
		c.JSON(http.StatusOK, h.wizard.Current())
		return
	}
	step, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid step"})
		return
	}
	state, err := h.wizard.Enter(c.Request.Context(), wizard.Step(step))
	if err != nil {
		respondError(c, err, "failed to load draft")
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *WizardHandler) SaveBasicInfo(c *gin.Context) {
	var in wizard.BasicInfoInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	step, err := h.wizard.SaveBasicInfo(c.Request.Context(), in)
	if err != nil {
		respondError(c, err, "failed to save the draft")
		return
	}
	c.JSON(http.StatusOK, stepResponse(step))
}

func (h *WizardHandler) SearchLocation(c *gin.Context) {
	places, err := h.geocoder.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err, "failed to search addresses")
		return
	}
	if places == nil {
		places = []geocode.Place{}
	}
	c.JSON(http.StatusOK, gin.H{"places": places})
}

func (h *WizardHandler) SaveLocation(c *gin.Context) {
	var place geocode.Place
	if err := c.ShouldBindJSON(&place); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	step, err := h.wizard.SaveLocation(c.Request.Context(), place)
	if err != nil {
		respondError(c, err, "failed to save the draft")
		return
	}
	c.JSON(http.StatusOK, stepResponse(step))
}

type mediaRequest struct {
	Path string `json:"path" binding:"required"`
}

func (h *WizardHandler) SetCover(c *gin.Context) {
	var req mediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}
	h.wizard.SetCover(req.Path)
	c.JSON(http.StatusOK, h.wizard.Current())
}

func (h *WizardHandler) AddGallery(c *gin.Context) {
	var req mediaRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "path is required"})
		return
	}
	if err := h.wizard.AddGallery(req.Path); err != nil {
		respondError(c, err, "failed to add photo")
		return
	}
	c.JSON(http.StatusOK, h.wizard.Current())
}

func (h *WizardHandler) RemoveGallery(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid index"})
		return
	}
	if err := h.wizard.RemoveGallery(index); err != nil {
		respondError(c, err, "failed to remove photo")
		return
	}
	c.JSON(http.StatusOK, h.wizard.Current())
}

func (h *WizardHandler) SaveMedia(c *gin.Context) {
	step, err := h.wizard.SaveMedia(c.Request.Context())
	if err != nil {
		respondError(c, err, "Could not upload the cover photo.")
		return
	}
	c.JSON(http.StatusOK, stepResponse(step))
}

func (h *WizardHandler) AddTicket(c *gin.Context) {
	var in wizard.TicketInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	tickets, err := h.wizard.AddTicket(in)
	if err != nil {
		respondError(c, err, "failed to add ticket")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}

func (h *WizardHandler) RemoveTicket(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid index"})
		return
	}
	tickets, err := h.wizard.RemoveTicket(index)
	if err != nil {
		respondError(c, err, "failed to remove ticket")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}

func (h *WizardHandler) SaveTickets(c *gin.Context) {
	step, err := h.wizard.SaveTickets(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to save the draft")
		return
	}
	c.JSON(http.StatusOK, stepResponse(step))
}

func (h *WizardHandler) Review(c *gin.Context) {
	d, payload, err := h.wizard.Review(c.Request.Context())
	if err != nil {
		respondError(c, err, "failed to load draft")
		return
	}
	c.JSON(http.StatusOK, gin.H{"draft": d, "payload": payload})
}

type chatGroupRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

func (h *WizardHandler) SetCreateChatGroup(c *gin.Context) {
	var req chatGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "enabled is required"})
		return
	}
	if err := h.wizard.SetCreateChatGroup(c.Request.Context(), *req.Enabled); err != nil {
		respondError(c, err, "failed to save the draft")
		return
	}
	c.JSON(http.StatusOK, gin.H{"create_chat_group": *req.Enabled})
}

// Submit sends the draft to the backend. The UI navigates home on 201.
func (h *WizardHandler) Submit(c *gin.Context) {
	conf, err := h.wizard.Submit(c.Request.Context())
	if err != nil {
		respondError(c, err, "Could not create the event.")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"confirmation": conf, "redirect": "home"})
}
