package chat

import "errors"

// MaxMessageLength is the longest message, in characters, that may be sent.
const MaxMessageLength = 500

var (
	ErrEmptyMessage   = errors.New("message is empty")
	ErrMessageTooLong = errors.New("message exceeds 500 characters")
	ErrSendInProgress = errors.New("a message is already being sent")
	ErrNotReady       = errors.New("chat is still connecting")
	ErrClosed         = errors.New("chat session is closed")
	ErrNoSession      = errors.New("chat is not open")
)
