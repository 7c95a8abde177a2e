package api

import (
	"context"
	"net/http"
	"net/url"
	"sort"

	"evento-companion/internal/models"
)

// ListGroups returns the chat groups the user belongs to.
func (c *Client) ListGroups(ctx context.Context) ([]models.Group, error) {
	var resp struct {
		envelope
		Groups []models.Group `json:"grupos"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/grupos", nil, &resp); err != nil {
		return nil, err
	}
	if err := resp.rejected(http.StatusOK); err != nil {
		return nil, err
	}
	if resp.Groups == nil {
		resp.Groups = []models.Group{}
	}
	return resp.Groups, nil
}

// ListMessages returns the history of a group ordered by creation time.
func (c *Client) ListMessages(ctx context.Context, groupID models.ID) ([]models.ChatMessage, error) {
	var resp struct {
		envelope
		Messages []models.ChatMessage `json:"mensagens"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/mensagens/"+url.PathEscape(groupID.String()), nil, &resp); err != nil {
		return nil, err
	}
	if err := resp.rejected(http.StatusOK); err != nil {
		return nil, err
	}
	msgs := resp.Messages
	if msgs == nil {
		msgs = []models.ChatMessage{}
	}
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
	return msgs, nil
}

// PostMessage creates a message carrying only its text.
func (c *Client) PostMessage(ctx context.Context, groupID models.ID, text string) error {
	req := struct {
		Text string `json:"texto"`
	}{Text: text}
	var resp envelope
	if err := c.doJSON(ctx, http.MethodPost, "/mensagens/"+url.PathEscape(groupID.String()), req, &resp); err != nil {
		return err
	}
	return resp.rejected(http.StatusOK)
}
