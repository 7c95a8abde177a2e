package api

import (
	"context"
	"net/http"
	"net/url"

	"evento-companion/internal/models"
)

// ListEvents returns the events visible to the user.
func (c *Client) ListEvents(ctx context.Context) ([]models.Event, error) {
	var resp struct {
		envelope
		Events []models.Event `json:"eventos"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/eventos", nil, &resp); err != nil {
		return nil, err
	}
	if err := resp.rejected(http.StatusOK); err != nil {
		return nil, err
	}
	if resp.Events == nil {
		resp.Events = []models.Event{}
	}
	return resp.Events, nil
}

// GetEvent returns a single event.
func (c *Client) GetEvent(ctx context.Context, id string) (models.Event, error) {
	var resp struct {
		envelope
		Event *models.Event `json:"evento"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/eventos/"+url.PathEscape(id), nil, &resp); err != nil {
		return models.Event{}, err
	}
	if err := resp.rejected(http.StatusOK); err != nil {
		return models.Event{}, err
	}
	if resp.Event == nil {
		return models.Event{}, &ServerError{Status: http.StatusNotFound, Message: resp.Message}
	}
	return *resp.Event, nil
}

// CreateEvent submits an event. The call is bounded by the submit timeout.
func (c *Client) CreateEvent(ctx context.Context, payload models.EventPayload) (models.CreateEventResponse, error) {
	if c.submitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.submitTimeout)
		defer cancel()
	}

	var resp models.CreateEventResponse
	if err := c.doJSON(ctx, http.MethodPost, "/eventos", payload, &resp); err != nil {
		return models.CreateEventResponse{}, err
	}
	return resp, nil
}
