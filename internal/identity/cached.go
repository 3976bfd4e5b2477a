package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const maxTokenCacheTTL = 30 * time.Minute

// CachedProvider checks Redis before asking the wrapped provider, so repeat
// requests with the same token skip remote verification.
type CachedProvider struct {
	next   Provider
	redis  *redis.Client
	logger *zap.SugaredLogger
	now    func() time.Time
}

// NewCachedProvider wraps next with a Redis token cache.
func NewCachedProvider(next Provider, redisClient *redis.Client, logger *zap.SugaredLogger) *CachedProvider {
	return &CachedProvider{next: next, redis: redisClient, logger: logger.Named("token_cache"), now: time.Now}
}

func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "token:" + hex.EncodeToString(sum[:])
}

func (p *CachedProvider) Verify(ctx context.Context, token string) (*Identity, error) {
	key := tokenKey(token)
	if cached, err := p.redis.Get(ctx, key).Result(); err == nil && cached != "" {
		var id Identity
		if err := json.Unmarshal([]byte(cached), &id); err == nil && p.now().Before(id.ExpiresAt) {
			return &id, nil
		}
	}

	id, err := p.next.Verify(ctx, token)
	if err != nil {
		return nil, err
	}

	ttl := maxTokenCacheTTL
	if !id.ExpiresAt.IsZero() {
		if remaining := id.ExpiresAt.Sub(p.now()); remaining < ttl {
			ttl = remaining
		}
	} else {
		id.ExpiresAt = p.now().Add(ttl)
	}
	if ttl <= 0 {
		return id, nil
	}
	if data, err := json.Marshal(id); err == nil {
		if err := p.redis.Set(ctx, key, data, ttl).Err(); err != nil {
			p.logger.Warnw("failed to cache verified token", "uid", id.UID, "error", err)
		}
	}
	return id, nil
}
