package api

import (
	"errors"
	"fmt"

	"evento-companion/internal/session"
)

// ErrConnectivity wraps transport failures: timeouts, refused connections, DNS.
var ErrConnectivity = errors.New("backend unreachable")

// ServerError is a 4xx/5xx answer from the backend.
type ServerError struct {
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Message)
}

// User-facing messages.
const (
	MsgConnectivity   = "Connection error. Check your internet and try again."
	MsgSessionExpired = "Your session has expired. Please log in again."
	MsgNoSession      = "You need to be logged in."
)

// UserMessage converts an error into the text shown to the user.
func UserMessage(err error, fallback string) string {
	var serverErr *ServerError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, session.ErrSessionExpired):
		return MsgSessionExpired
	case errors.Is(err, session.ErrNoSession):
		return MsgNoSession
	case errors.Is(err, ErrConnectivity):
		return MsgConnectivity
	case errors.As(err, &serverErr):
		if serverErr.Message != "" {
			return serverErr.Message
		}
		return fallback
	default:
		return fallback
	}
}

// IsSessionError reports whether err requires a new login.
func IsSessionError(err error) bool {
	return errors.Is(err, session.ErrSessionExpired) || errors.Is(err, session.ErrNoSession)
}
