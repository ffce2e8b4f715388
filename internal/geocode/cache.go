package geocode

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/roamerhq/roamer-api/pkg/helpers"
)

func cacheKey(address string) string {
	return "geo:addr:" + strings.ToLower(strings.Join(strings.Fields(address), " "))
}

// Cached wraps a Geocoder with a redis read-through cache. Negative results
// are cached too so repeated bad addresses don't hammer the provider.
// Redis failures fall through to the inner geocoder.
type Cached struct {
	Inner  Geocoder
	Redis  *redis.Client
	TTL    time.Duration
	Logger *logrus.Logger
}

func NewCached(inner Geocoder, rdb *redis.Client, ttl time.Duration, logger *logrus.Logger) *Cached {
	return &Cached{Inner: inner, Redis: rdb, TTL: ttl, Logger: logger}
}

type cachedEntry struct {
	Coordinates
	Miss bool `json:"miss,omitempty"`
}

func (c *Cached) Geocode(ctx context.Context, address string) (Coordinates, error) {
	key := cacheKey(address)
	if c.Redis != nil {
		var entry cachedEntry
		if hit, err := helpers.RedisGetJSON(ctx, c.Redis, key, &entry); err == nil && hit {
			if entry.Miss {
				return Coordinates{}, ErrNoResults
			}
			return entry.Coordinates, nil
		}
	}

	coords, err := c.Inner.Geocode(ctx, address)
	if err != nil {
		if errors.Is(err, ErrNoResults) && c.Redis != nil {
			if rErr := helpers.RedisSetJSON(ctx, c.Redis, key, cachedEntry{Miss: true}, c.TTL); rErr != nil && c.Logger != nil {
				c.Logger.WithError(rErr).WithField("key", key).Warn("geocode cache write failed")
			}
		}
		return Coordinates{}, err
	}

	if c.Redis != nil {
		if rErr := helpers.RedisSetJSON(ctx, c.Redis, key, cachedEntry{Coordinates: coords}, c.TTL); rErr != nil && c.Logger != nil {
			c.Logger.WithError(rErr).WithField("key", key).Warn("geocode cache write failed")
		}
	}
	return coords, nil
}
