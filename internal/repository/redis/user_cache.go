package redis

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/NordCoder/Barberus/internal/domain/user"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "recipient_cache_lookups_total",
	Help: "Recipient cache lookups by result (hit/miss/error)",
}, []string{"result"})

type UserReader interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
}

// CachedUsers is a read-through cache in front of a UserReader. Any cache
// failure falls through to the underlying reader; only found users are stored.
// Preference changes made elsewhere show up after at most one TTL unless the
// writer deletes the key (see Invalidate and userKey).
type CachedUsers struct {
	rdb  *redis.Client
	next UserReader
	ttl  time.Duration
	log  *zap.Logger
}

func NewCachedUsers(rdb *redis.Client, next UserReader, ttl time.Duration, log *zap.Logger) *CachedUsers {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedUsers{rdb: rdb, next: next, ttl: ttl, log: log.Named("user_cache")}
}

func userKey(id int64) string { return "barberus:user:" + strconv.FormatInt(id, 10) }

func (c *CachedUsers) GetByID(ctx context.Context, id int64) (*user.User, error) {
	key := userKey(id)

	raw, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var u user.User
		if uerr := json.Unmarshal(raw, &u); uerr == nil {
			cacheLookups.WithLabelValues("hit").Inc()
			return &u, nil
		}
		c.log.Warn("corrupt cache entry", zap.String("key", key))
	case errors.Is(err, redis.Nil):
		cacheLookups.WithLabelValues("miss").Inc()
	default:
		cacheLookups.WithLabelValues("error").Inc()
		c.log.Debug("cache get", zap.String("key", key), zap.Error(err))
	}

	u, err := c.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if b, merr := json.Marshal(u); merr == nil {
		if serr := c.rdb.Set(ctx, key, b, c.ttl).Err(); serr != nil {
			c.log.Debug("cache set", zap.String("key", key), zap.Error(serr))
		}
	}
	return u, nil
}

// Invalidate drops a cached recipient, e.g. after preferences change.
func (c *CachedUsers) Invalidate(ctx context.Context, id int64) error {
	return c.rdb.Del(ctx, userKey(id)).Err()
}
