// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements two limits:
//
//   - RateLimiter: an in-memory token bucket per caller (user ID, else client
//     IP) guarding every route against bursts. Process-local.
//   - GenerationQuota: a Redis fixed-window counter capping how many outfits a
//     user may generate per window across all replicas. Only installed on the
//     generate route, and only when Redis is configured.
//
// Idempotent replays (flagged by IdempotencyValidator) bypass both: serving a
// stored outfit costs nothing and must not count against the caller.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// KeyFunc maps a request to the identity whose bucket it draws from.
type KeyFunc func(*gin.Context) string

// KeyByUserOrIP keys by the caller's user ID when known, else by client IP.
// Prefixes keep the two namespaces apart ("user:abc" vs "ip:203.0.113.7").
func KeyByUserOrIP() KeyFunc {
	return func(c *gin.Context) string {
		if uid := userIDFromCtx(c); uid != "" {
			return "user:" + uid
		}
		return "ip:" + c.ClientIP()
	}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-key token-bucket limiter. Idle buckets are evicted
// after idleTTL during periodic sweeps. Safe for concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn KeyFunc

	mu      sync.Mutex
	buckets map[string]*bucket
	idleTTL time.Duration
	lookups uint64
}

// sweepEvery is how many lookups pass between idle-bucket sweeps.
const sweepEvery = 5000

// NewRateLimiter builds a limiter refilling rps tokens per second up to burst
// (coerced to at least 1).
func NewRateLimiter(rps float64, burst int, keyFn KeyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		keyFn:   keyFn,
		buckets: make(map[string]*bucket),
		idleTTL: 10 * time.Minute,
	}
}

// limiterFor returns the bucket for key, creating it on first use. The sweep
// runs before the lookup so a stale bucket for key itself is replaced.
func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	now := time.Now()
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= sweepEvery {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= rl.idleTTL {
				delete(rl.buckets, k)
			}
		}
		rl.lookups = 0
	}

	if b, ok := rl.buckets[key]; ok {
		b.lastSeen = now
		return b.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.buckets[key] = &bucket{limiter: lim, lastSeen: now}
	return lim
}

// IsRateBypass reports whether IdempotencyValidator marked this request as a
// replay that should not be limited.
func IsRateBypass(c *gin.Context) bool {
	return c.GetBool(ctxKeyRateBypass)
}

// Handler enforces the token bucket, answering 429 with Retry-After: 1 when
// the caller's bucket is empty.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) || rl.limiterFor(rl.keyFn(c)).Allow() {
			c.Next()
			return
		}
		c.Header("Retry-After", "1")
		tooManyRequests(c, "rate limit exceeded")
	}
}

// GenerationQuota caps outfit generations per user in fixed windows stored in
// Redis, so the cap holds across replicas.
type GenerationQuota struct {
	Client *redis.Client
	Limit  int
	Window time.Duration
	Prefix string

	now func() time.Time
}

// NewGenerationQuota returns a quota of limit generations per window.
func NewGenerationQuota(client *redis.Client, limit int, window time.Duration) *GenerationQuota {
	return &GenerationQuota{Client: client, Limit: limit, Window: window, Prefix: "closet:quota:generate", now: time.Now}
}

// Take counts one generation for userID and reports whether it is within the
// quota, how many remain, and when the window resets.
func (q *GenerationQuota) Take(ctx context.Context, userID string) (allowed bool, remaining int, reset time.Time, err error) {
	start := q.now().Truncate(q.Window)
	reset = start.Add(q.Window)
	key := fmt.Sprintf("%s:%s:%d", q.Prefix, userID, start.Unix())

	pipe := q.Client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, q.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, reset, err
	}
	used := int(incr.Val())
	return used <= q.Limit, max(q.Limit-used, 0), reset, nil
}

// Handler enforces the quota. Anonymous callers and replays pass through, and
// so does every request while Redis is unreachable; the token bucket still
// applies then.
func (q *GenerationQuota) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := userIDFromCtx(c)
		if q == nil || q.Client == nil || q.Limit <= 0 || uid == "" || IsRateBypass(c) {
			c.Next()
			return
		}

		allowed, remaining, reset, err := q.Take(c.Request.Context(), uid)
		if err != nil {
			LoggerFrom(c).Warn().Err(err).Msg("generation quota check failed")
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("X-RateLimit-Limit", strconv.Itoa(q.Limit))
		h.Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		h.Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))
		if allowed {
			c.Next()
			return
		}
		retry := int(time.Until(reset).Seconds()) + 1
		c.Header("Retry-After", strconv.Itoa(max(retry, 1)))
		tooManyRequests(c, "generation quota exceeded, try again after "+reset.UTC().Format(time.Kitchen))
	}
}

func tooManyRequests(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       "too_many_requests",
		"message":    strings.TrimSpace(msg),
	})
}
