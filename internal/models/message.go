package models

import "time"

// Push channel event names.
const (
	EventJoinGroup  = "join_group"
	EventNewMessage = "new_message"
)

// MessageAuthor is the display info attached to a message.
type MessageAuthor struct {
	Name string `json:"nome"`
}

// ChatMessage represents a group chat message, confirmed or pending.
type ChatMessage struct {
	ID         ID             `json:"mensagemId"`
	Text       string         `json:"texto"`
	AuthorID   ID             `json:"usuarioId"`
	AuthorRole string         `json:"tipoUsuario,omitempty"`
	GroupID    ID             `json:"grupoId"`
	CreatedAt  time.Time      `json:"createdAt"`
	Author     *MessageAuthor `json:"usuario,omitempty"`
	Pending    bool           `json:"temporaria,omitempty"`
}

// PushEvent is a frame exchanged on the push channel.
type PushEvent struct {
	Event   string       `json:"event"`
	GroupID ID           `json:"group_id,omitempty"`
	Message *ChatMessage `json:"message,omitempty"`
}

// TimelineEvent is emitted to local UI websocket clients.
type TimelineEvent struct {
	Type        string        `json:"type"`
	GroupID     ID            `json:"group_id"`
	State       string        `json:"state"`
	Messages    []ChatMessage `json:"messages"`
	ScrollToEnd bool          `json:"scroll_to_end"`
}
