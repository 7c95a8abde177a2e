package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"evento-companion/internal/api"
	"evento-companion/internal/session"
	"evento-companion/internal/telemetry"
)

// RedirectLogin is the navigation hint returned when a login is required.
const RedirectLogin = "login"

// ClaimsSource returns the claims of the stored session.
type ClaimsSource interface {
	Claims(ctx context.Context) (*session.Claims, error)
}

// AuthGuard rejects requests without a live local session.
func AuthGuard(sessions ClaimsSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := sessions.Claims(c.Request.Context())
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":    api.UserMessage(err, api.MsgNoSession),
				"redirect": RedirectLogin,
			})
			return
		}

		userID := claims.UserID.String()
		c.Set("userID", userID)
		c.Set("role", claims.Role)
		c.Request = c.Request.WithContext(telemetry.WithUserID(c.Request.Context(), userID))
		c.Next()
	}
}
