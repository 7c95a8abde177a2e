package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MediaRole tells the cover image apart from gallery images.
type MediaRole string

const (
	MediaCover   MediaRole = "cover"
	MediaGallery MediaRole = "gallery"
)

// BasicInfo is the slice edited by the first wizard step.
type BasicInfo struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Visibility  string    `json:"visibility"`
	StartAt     time.Time `json:"startAt"`
	EndAt       time.Time `json:"endAt"`
}

// Location is the slice edited by the location step.
type Location struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	FormattedAddress string  `json:"formattedAddress"`
	City             string  `json:"city,omitempty"`
	State            string  `json:"state,omitempty"`
	PostalCode       string  `json:"postalCode,omitempty"`
}

// MediaItem is an uploaded image referenced by the draft.
type MediaItem struct {
	URL  string    `json:"url"`
	Role MediaRole `json:"role"`
}

// Ticket is one ticket tier of the draft.
type Ticket struct {
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
	SaleDeadline *time.Time      `json:"saleDeadline"`
}

// EventDraft is the locally persisted in-progress event.
type EventDraft struct {
	BasicInfo       *BasicInfo  `json:"basicInfo,omitempty"`
	Location        *Location   `json:"location,omitempty"`
	Media           []MediaItem `json:"media,omitempty"`
	Tickets         []Ticket    `json:"tickets,omitempty"`
	CreateChatGroup *bool       `json:"createChatGroup,omitempty"`
}

// ChatGroupEnabled reports whether a chat group should be created; defaults to true.
func (d *EventDraft) ChatGroupEnabled() bool {
	if d == nil || d.CreateChatGroup == nil {
		return true
	}
	return *d.CreateChatGroup
}

// Event is an event as listed by the backend.
type Event struct {
	ID          ID               `json:"id"`
	Name        string           `json:"nome"`
	Description string           `json:"descricao"`
	Category    string           `json:"tipo"`
	Visibility  string           `json:"privacidade"`
	StartAt     string           `json:"dataInicio"`
	EndAt       string           `json:"dataFim"`
	Location    *LocationPayload `json:"localizacao,omitempty"`
	Photos      []PhotoPayload   `json:"fotos,omitempty"`
	Tickets     []TicketPayload  `json:"ingressos,omitempty"`
}
