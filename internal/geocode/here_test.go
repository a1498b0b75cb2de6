package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gaman_backend/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.GeocodingConfig{URL: srv.URL + "/v1/geocode", APIKey: "k", Timeout: time.Second})
}

func TestLookup_FirstItem(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Estadio Azteca", r.URL.Query().Get("q"))
		assert.Equal(t, "k", r.URL.Query().Get("apiKey"))
		_, _ = w.Write([]byte(`{"items":[
			{"title":"Estadio Azteca, Coyoacán",
			 "address":{"countryName":"México","county":"Ciudad de México","city":"Ciudad de México"},
			 "position":{"lat":19.30286,"lng":-99.15054}},
			{"title":"ignored"}]}`))
	})

	loc, err := c.Lookup(context.Background(), "Estadio Azteca")
	require.NoError(t, err)
	assert.Equal(t, "Estadio Azteca, Coyoacán", loc.Place)
	assert.Equal(t, "México", loc.Country)
	assert.Equal(t, "Ciudad de México", loc.State)
	assert.Equal(t, "Ciudad de México", loc.City)
	assert.Equal(t, "19.30286 -99.15054", loc.Geolocation)
}

func TestLookup_StateFallsBackWhenNoCounty(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"items":[{"title":"x","address":{"state":"Bavaria"},"position":{"lat":1,"lng":2}}]}`))
	})

	loc, err := c.Lookup(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "Bavaria", loc.State)
	assert.Equal(t, "1 2", loc.Geolocation)
}

func TestLookup_NoItems(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"items":[]}`))
	})

	_, err := c.Lookup(context.Background(), "nowhere")
	assert.ErrorIs(t, err, ErrNoMatch)
}

func TestLookup_APIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})

	_, err := c.Lookup(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status=403")
}

func TestLookup_NotConfigured(t *testing.T) {
	c := NewClient(config.GeocodingConfig{URL: "http://unused"})
	_, err := c.Lookup(context.Background(), "x")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abc", 2))
	assert.Equal(t, strings.Repeat("é", 3), truncate(strings.Repeat("é", 10), 3))
}
