package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// LocalSecretHeader carries the per-process secret on HTTP requests.
	LocalSecretHeader = "X-Companion-Secret"
	// LocalSubprotocol is the websocket subprotocol the companion answers with.
	LocalSubprotocol = "evento.v1"
	// SecretSubprotocolPrefix marks the subprotocol entry that carries the
	// secret, since browsers cannot set headers on a websocket handshake.
	SecretSubprotocolPrefix = "evento.secret."
)

// NewLocalSecret returns a fresh random secret for one companion process.
func NewLocalSecret() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

// OriginAllowed reports whether a browser Origin may talk to the companion.
// Requests without an Origin do not come from a web page.
func OriginAllowed(origin string, allowed []string) bool {
	if origin == "" {
		return true
	}
	for _, a := range allowed {
		if strings.EqualFold(strings.TrimSuffix(a, "/"), origin) {
			return true
		}
	}
	return false
}

// LocalClient admits only the local UI: the Origin must be allow-listed, the
// request must present the process secret, and mutating bodies must be JSON.
func LocalClient(secret string, allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !OriginAllowed(c.GetHeader("Origin"), allowedOrigins) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "origin not allowed"})
			return
		}
		if !secretMatches(c.Request, secret) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "local client secret required"})
			return
		}
		if hasBody(c.Request) && c.ContentType() != gin.MIMEJSON {
			c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{"error": "request body must be application/json"})
			return
		}
		c.Next()
	}
}

func secretMatches(r *http.Request, secret string) bool {
	if secret == "" {
		return false
	}
	if presented := r.Header.Get(LocalSecretHeader); presented != "" {
		return subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) == 1
	}
	for _, proto := range websocket.Subprotocols(r) {
		if presented, ok := strings.CutPrefix(proto, SecretSubprotocolPrefix); ok {
			return subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) == 1
		}
	}
	return false
}

func hasBody(r *http.Request) bool {
	switch r.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return r.ContentLength != 0
	}
	return false
}
