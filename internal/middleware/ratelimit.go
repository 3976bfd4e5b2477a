package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimitConfig bounds requests per client IP.
type RateLimitConfig struct {
	PerMinute int
	Burst     int
	// IdleTTL is how long an idle client's limiter is kept. Defaults to 15m.
	IdleTTL time.Duration
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type limiterStore struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	now      func() time.Time
}

func newLimiterStore(cfg RateLimitConfig) *limiterStore {
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	idle := cfg.IdleTTL
	if idle <= 0 {
		idle = 15 * time.Minute
	}
	return &limiterStore{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Limit(float64(cfg.PerMinute) / 60),
		burst:    burst,
		idleTTL:  idle,
		now:      time.Now,
	}
}

func (s *limiterStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	// Drop idle clients once the table grows.
	if len(s.limiters) > 1024 {
		for k, e := range s.limiters {
			if now.Sub(e.lastSeen) > s.idleTTL {
				delete(s.limiters, k)
			}
		}
	}

	entry, ok := s.limiters[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.limiters[key] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

// RateLimitMiddleware rejects clients exceeding cfg with 429. A non-positive
// rate disables limiting.
func RateLimitMiddleware(cfg RateLimitConfig) gin.HandlerFunc {
	if cfg.PerMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	store := newLimiterStore(cfg)
	retryAfter := strconv.Itoa(max(1, 60/cfg.PerMinute))

	return func(c *gin.Context) {
		if !store.get(c.ClientIP()).Allow() {
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many submissions. Please wait a moment and try again."})
			return
		}
		c.Next()
	}
}
