package models

// EventPayload is the body of POST /eventos.
type EventPayload struct {
	Name            string           `json:"nome"`
	Description     string           `json:"descricao"`
	Category        string           `json:"tipo"`
	Visibility      string           `json:"privacidade"`
	StartAt         string           `json:"dataInicio"`
	EndAt           string           `json:"dataFim"`
	Location        *LocationPayload `json:"localizacao,omitempty"`
	Photos          []PhotoPayload   `json:"fotos"`
	Tickets         []TicketPayload  `json:"ingressos"`
	CreateChatGroup bool             `json:"criarChat"`
}

// LocationPayload is the backend shape of a location.
type LocationPayload struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	Address    string  `json:"endereco"`
	City       string  `json:"cidade,omitempty"`
	State      string  `json:"estado,omitempty"`
	PostalCode string  `json:"cep,omitempty"`
}

// PhotoPayload is the backend shape of an uploaded image.
type PhotoPayload struct {
	URL  string `json:"url"`
	Kind string `json:"tipo"`
}

// TicketPayload is the backend shape of a ticket tier.
type TicketPayload struct {
	Name         string  `json:"nome"`
	Quantity     int     `json:"quantidade"`
	Price        float64 `json:"preco"`
	Description  string  `json:"descricao"`
	SaleDeadline *string `json:"dataLimiteVenda"`
}

// CreateEventResponse is the backend acknowledgment of an event submission.
type CreateEventResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Event     *Event `json:"evento,omitempty"`
	ChatGroup *Group `json:"grupoChat,omitempty"`
}
