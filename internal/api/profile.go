package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
)

// Profile kinds served under /perfil.
const (
	ProfileOrganizer = "organizador"
	ProfileGuest     = "convidado"
)

// GetProfile returns the raw profile document for the given kind.
func (c *Client) GetProfile(ctx context.Context, kind string) (json.RawMessage, error) {
	var resp struct {
		envelope
		Profile json.RawMessage `json:"perfil"`
		Guest   json.RawMessage `json:"convidado"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/perfil/"+url.PathEscape(kind), nil, &resp); err != nil {
		return nil, err
	}
	if err := resp.rejected(http.StatusOK); err != nil {
		return nil, err
	}
	if len(resp.Profile) > 0 {
		return resp.Profile, nil
	}
	return resp.Guest, nil
}

// UpdateProfileField changes one profile field (nome, email or senha).
func (c *Client) UpdateProfileField(ctx context.Context, kind, field, value string) error {
	switch field {
	case "nome", "email", "senha":
	default:
		return fmt.Errorf("unsupported profile field %q", field)
	}
	body := map[string]string{field: value}
	var resp envelope
	path := fmt.Sprintf("/perfil/%s/%s", url.PathEscape(kind), field)
	if err := c.doJSON(ctx, http.MethodPut, path, body, &resp); err != nil {
		return err
	}
	return resp.rejected(http.StatusOK)
}

// ProfileKind picks the profile endpoint from the cached profile document.
func ProfileKind(cached json.RawMessage) string {
	var peek struct {
		OrganizerID any `json:"organizadorId"`
	}
	if len(cached) > 0 && json.Unmarshal(cached, &peek) == nil && peek.OrganizerID != nil {
		return ProfileOrganizer
	}
	return ProfileGuest
}
