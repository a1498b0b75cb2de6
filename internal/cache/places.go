package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"gaman_backend/internal/geocode"
	"gaman_backend/internal/logger"
	"gaman_backend/internal/model"
)

const (
	// PlaceCachePrefix is the key prefix for geocoded places
	PlaceCachePrefix = "geocode:place:"

	// PlaceCacheTTL is how long a resolved place is reused (30 days)
	PlaceCacheTTL = 30 * 24 * time.Hour

	// NoMatchTTL is how long a place the geocoder could not match is
	// remembered, so typos are not looked up on every event.
	NoMatchTTL = 24 * time.Hour
)

// noMatch marks a place the geocoder returned no items for.
const noMatch = "-"

// PlaceStore defines the interface for geocoding cache operations.
type PlaceStore interface {
	// Get returns the cached location for place. found=false on a cache miss;
	// a nil location with found=true is a remembered no-match.
	Get(ctx context.Context, place string) (loc *model.Location, found bool, err error)

	// Set stores loc for place. A nil loc records a no-match.
	Set(ctx context.Context, place string, loc *model.Location) error
}

// RedisPlaceStore implements PlaceStore with plain string keys and TTLs.
type RedisPlaceStore struct {
	client *redis.Client
}

func NewPlaceStore(client *redis.Client) PlaceStore {
	return &RedisPlaceStore{client: client}
}

// placeKey folds case and surrounding whitespace so "Madrid " and "madrid"
// share an entry.
func placeKey(place string) string {
	return PlaceCachePrefix + strings.ToLower(strings.TrimSpace(place))
}

func (s *RedisPlaceStore) Get(ctx context.Context, place string) (*model.Location, bool, error) {
	raw, err := s.client.Get(ctx, placeKey(place)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached place: %w", err)
	}
	if raw == noMatch {
		return nil, true, nil
	}

	var loc model.Location
	if err := json.Unmarshal([]byte(raw), &loc); err != nil {
		// an unreadable entry is treated as a miss and overwritten later
		return nil, false, nil
	}
	return &loc, true, nil
}

func (s *RedisPlaceStore) Set(ctx context.Context, place string, loc *model.Location) error {
	value, ttl := noMatch, NoMatchTTL
	if loc != nil {
		data, err := json.Marshal(loc)
		if err != nil {
			return fmt.Errorf("marshal place: %w", err)
		}
		value, ttl = string(data), PlaceCacheTTL
	}

	if err := s.client.Set(ctx, placeKey(place), value, ttl).Err(); err != nil {
		return fmt.Errorf("cache place: %w", err)
	}
	return nil
}

// Geocoder is the lookup being cached.
type Geocoder interface {
	Lookup(ctx context.Context, place string) (model.Location, error)
}

// CachingGeocoder answers repeated places from the store. Cache failures are
// logged and fall through to the wrapped geocoder.
type CachingGeocoder struct {
	next  Geocoder
	store PlaceStore
	log   zerolog.Logger
}

func NewCachingGeocoder(next Geocoder, store PlaceStore, log zerolog.Logger) *CachingGeocoder {
	return &CachingGeocoder{next: next, store: store, log: logger.Component(log, "place_cache")}
}

func (g *CachingGeocoder) Lookup(ctx context.Context, place string) (model.Location, error) {
	loc, found, err := g.store.Get(ctx, place)
	switch {
	case err != nil:
		g.log.Warn().Err(err).Str("place", place).Msg("place cache read failed")
	case found && loc == nil:
		return model.Location{}, geocode.ErrNoMatch
	case found:
		return *loc, nil
	}

	result, err := g.next.Lookup(ctx, place)
	switch {
	case errors.Is(err, geocode.ErrNoMatch):
		g.remember(ctx, place, nil)
		return model.Location{}, err
	case err != nil:
		return model.Location{}, err
	}

	g.remember(ctx, place, &result)
	return result, nil
}

func (g *CachingGeocoder) remember(ctx context.Context, place string, loc *model.Location) {
	if err := g.store.Set(ctx, place, loc); err != nil {
		g.log.Warn().Err(err).Str("place", place).Msg("place cache write failed")
	}
}
