package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// MinQueryLength is the shortest query sent to the geocoder.
const MinQueryLength = 3

// ErrUnavailable wraps failures reaching the geocoding service.
var ErrUnavailable = errors.New("geocoding service unavailable")

// Place is a candidate location for a free-text address.
type Place struct {
	Formatted  string  `json:"formatted"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	City       string  `json:"city,omitempty"`
	State      string  `json:"state,omitempty"`
	PostalCode string  `json:"postal_code,omitempty"`
}

// Client queries an OpenCage-compatible forward geocoding endpoint.
type Client struct {
	endpoint string
	apiKey   string
	http     *http.Client
	logger   *zap.Logger
}

// NewClient constructs a Client.
func NewClient(endpoint, apiKey string, logger *zap.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		apiKey:   apiKey,
		http:     &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		logger:   logger,
	}
}

type response struct {
	Results []struct {
		Formatted string `json:"formatted"`
		Geometry  struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"geometry"`
		Components struct {
			City     string `json:"city"`
			Town     string `json:"town"`
			State    string `json:"state"`
			Postcode string `json:"postcode"`
		} `json:"components"`
	} `json:"results"`
}

// Search returns candidate places. Queries under MinQueryLength runes return
// nothing without calling the service.
func (c *Client) Search(ctx context.Context, query string) ([]Place, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinQueryLength {
		return []Place{}, nil
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build geocode request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("geocode request failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var body response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode geocode response: %w", err)
	}

	places := make([]Place, 0, len(body.Results))
	for _, r := range body.Results {
		city := r.Components.City
		if city == "" {
			city = r.Components.Town
		}
		places = append(places, Place{
			Formatted:  r.Formatted,
			Latitude:   r.Geometry.Lat,
			Longitude:  r.Geometry.Lng,
			City:       city,
			State:      r.Components.State,
			PostalCode: r.Components.Postcode,
		})
	}
	return places, nil
}
