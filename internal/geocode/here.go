// Package geocode resolves a free-text place into country, state, city and
// coordinates using the HERE geocoding API.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"gaman_backend/internal/config"
	"gaman_backend/internal/model"
)

var (
	ErrNoMatch       = errors.New("geocode: no match for place")
	ErrNotConfigured = errors.New("geocode: API key not configured")
)

// Column widths on events; longer values from the API are cut to fit.
const (
	maxPlace       = 180
	maxCountry     = 70
	maxState       = 90
	maxCity        = 90
	maxGeolocation = 33
)

// hereResponse is the subset of the /v1/geocode response we read.
type hereResponse struct {
	Items []struct {
		Title   string `json:"title"`
		Address struct {
			CountryName string `json:"countryName"`
			County      string `json:"county"`
			State       string `json:"state"`
			City        string `json:"city"`
		} `json:"address"`
		Position struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"position"`
	} `json:"items"`
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(cfg config.GeocodingConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    cfg.URL,
		apiKey:     cfg.APIKey,
	}
}

// Lookup returns the first match for place. Geolocation is "lat lng".
func (c *Client) Lookup(ctx context.Context, place string) (model.Location, error) {
	if c.apiKey == "" {
		return model.Location{}, ErrNotConfigured
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return model.Location{}, fmt.Errorf("parse geocode url: %w", err)
	}
	q := u.Query()
	q.Set("q", place)
	q.Set("apiKey", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return model.Location{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.Location{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return model.Location{}, fmt.Errorf("geocode api error: status=%d body=%s", resp.StatusCode, string(body))
	}

	var parsed hereResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return model.Location{}, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Items) == 0 {
		return model.Location{}, ErrNoMatch
	}

	item := parsed.Items[0]
	state := item.Address.County
	if state == "" {
		state = item.Address.State
	}

	geo := strconv.FormatFloat(item.Position.Lat, 'f', -1, 64) + " " +
		strconv.FormatFloat(item.Position.Lng, 'f', -1, 64)

	return model.Location{
		Place:       truncate(item.Title, maxPlace),
		Country:     truncate(item.Address.CountryName, maxCountry),
		State:       truncate(state, maxState),
		City:        truncate(item.Address.City, maxCity),
		Geolocation: truncate(geo, maxGeolocation),
	}, nil
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
