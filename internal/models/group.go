package models

import "time"

// Group represents a chat group the user belongs to.
type Group struct {
	ID        ID        `json:"id"`
	Name      string    `json:"nome"`
	EventID   ID        `json:"eventoId,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}
