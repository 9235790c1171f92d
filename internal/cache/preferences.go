// Package cache provides an optional Redis read-through cache in front of
// the candidate store. Only user preferences are cached: they are read on
// every outfit generation and change only when a user likes an outfit or
// edits them by hand.
//
// Redis is never authoritative. Any Redis error is logged and the call falls
// through to the underlying store; writes go to the store first and then
// drop the cached entry.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-closet-backend/internal/outfit"
	"github.com/tbourn/go-closet-backend/internal/services"
)

// DefaultTTL bounds how long a cached entry may outlive a missed invalidation.
const DefaultTTL = 10 * time.Minute

// Preferences wraps a CandidateStore, caching LoadPreferences in Redis. All
// other store methods pass through unchanged.
type Preferences struct {
	services.CandidateStore

	Client *redis.Client
	TTL    time.Duration
	Prefix string
}

// NewPreferences returns store wrapped with a preferences cache. A nil client
// disables caching.
func NewPreferences(store services.CandidateStore, client *redis.Client, ttl time.Duration) *Preferences {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Preferences{CandidateStore: store, Client: client, TTL: ttl, Prefix: "closet:prefs:"}
}

// entry is the cached form. Found distinguishes "nothing learned yet" from a
// cache miss.
type entry struct {
	Found  bool           `json:"found"`
	Colors []outfit.Color `json:"colors,omitempty"`
	Style  outfit.Style   `json:"style,omitempty"`
}

// LoadPreferences serves from Redis when possible and fills it on a miss.
func (p *Preferences) LoadPreferences(ctx context.Context, userID string) (*outfit.Preferences, error) {
	if p.Client == nil {
		return p.CandidateStore.LoadPreferences(ctx, userID)
	}

	key := p.key(userID)
	raw, err := p.Client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var e entry
		if jerr := json.Unmarshal(raw, &e); jerr == nil {
			cacheLookups.WithLabelValues("hit").Inc()
			if !e.Found {
				return nil, nil
			}
			return &outfit.Preferences{FavoriteColors: e.Colors, FavoriteStyle: e.Style}, nil
		}
		cacheLookups.WithLabelValues("corrupt").Inc()
	case errors.Is(err, redis.Nil):
		cacheLookups.WithLabelValues("miss").Inc()
	default:
		cacheLookups.WithLabelValues("error").Inc()
		logger(ctx).Warn().Err(err).Str("key", key).Msg("preference cache read failed")
	}

	prefs, err := p.CandidateStore.LoadPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	e := entry{Found: prefs != nil}
	if prefs != nil {
		e.Colors, e.Style = prefs.FavoriteColors, prefs.FavoriteStyle
	}
	if data, err := json.Marshal(e); err == nil {
		if err := p.Client.Set(ctx, key, data, p.TTL).Err(); err != nil {
			logger(ctx).Warn().Err(err).Str("key", key).Msg("preference cache write failed")
		}
	}
	return prefs, nil
}

// UpsertFavoriteColors writes through and invalidates the cached entry.
func (p *Preferences) UpsertFavoriteColors(ctx context.Context, userID string, colors []outfit.Color) error {
	if err := p.CandidateStore.UpsertFavoriteColors(ctx, userID, colors); err != nil {
		return err
	}
	p.invalidate(ctx, userID)
	return nil
}

// UpdatePreferences writes through and invalidates the cached entry.
func (p *Preferences) UpdatePreferences(ctx context.Context, userID string, colors *[]outfit.Color, style *outfit.Style) error {
	if err := p.CandidateStore.UpdatePreferences(ctx, userID, colors, style); err != nil {
		return err
	}
	p.invalidate(ctx, userID)
	return nil
}

func (p *Preferences) invalidate(ctx context.Context, userID string) {
	if p.Client == nil {
		return
	}
	if err := p.Client.Del(ctx, p.key(userID)).Err(); err != nil {
		logger(ctx).Error().Err(err).Str("user_id", userID).Msg("preference cache invalidation failed")
	}
}

func (p *Preferences) key(userID string) string { return p.Prefix + userID }

func logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
