package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"evento-companion/internal/api"
	"evento-companion/internal/chat"
	"evento-companion/internal/geocode"
	"evento-companion/internal/middleware"
	"evento-companion/internal/wizard"
)

const redirectWizardStart = "wizard/basic-info"

// respondError writes err as a user-facing JSON error.
func respondError(c *gin.Context, err error, fallback string) {
	var (
		validationErr *wizard.ValidationError
		submissionErr *wizard.SubmissionError
		serverErr     *api.ServerError
	)

	switch {
	case errors.As(err, &submissionErr):
		body := gin.H{"error": submissionErr.Message, "class": submissionErr.Class}
		status := http.StatusBadGateway
		switch submissionErr.Class {
		case wizard.FailureConnectivity:
			status = http.StatusServiceUnavailable
		case wizard.FailureRejected:
			status = http.StatusUnprocessableEntity
		case wizard.FailureSession:
			status = http.StatusUnauthorized
			body["redirect"] = middleware.RedirectLogin
		}
		c.JSON(status, body)
	case api.IsSessionError(err):
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":    api.UserMessage(err, fallback),
			"redirect": middleware.RedirectLogin,
		})
	case errors.Is(err, wizard.ErrRestart):
		c.JSON(http.StatusConflict, gin.H{"error": "Draft not found. Start again.", "redirect": redirectWizardStart})
	case errors.As(err, &validationErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": validationErr.Message, "field": validationErr.Field})
	case errors.Is(err, wizard.ErrGalleryFull):
		c.JSON(http.StatusBadRequest, gin.H{"error": "You can add up to 10 gallery photos."})
	case errors.Is(err, wizard.ErrUnknownStep):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid step"})
	case errors.Is(err, wizard.ErrIndexOutOfRange):
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
	case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrMessageTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, chat.ErrSendInProgress), errors.Is(err, chat.ErrNotReady), errors.Is(err, chat.ErrClosed):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, chat.ErrNoSession):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, geocode.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Could not search addresses right now."})
	case errors.Is(err, api.ErrConnectivity):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": api.MsgConnectivity})
	case errors.As(err, &serverErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": api.UserMessage(err, fallback)})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
