package revocation

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const defaultPrefix = "orgdesk:revoked"

// raiseWatermark stores ARGV[1] unless a later watermark is already present.
var raiseWatermark = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur and tonumber(cur) >= tonumber(ARGV[1]) then
  redis.call('PEXPIRE', KEYS[1], ARGV[2])
  return 0
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
return 1
`)

// Redis is a revocation list shared by every API replica.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// NewRedis wraps an existing client. An empty prefix selects the default namespace.
func NewRedis(client redis.UniversalClient, prefix string) *Redis {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Redis{client: client, prefix: prefix}
}

// Dial parses a redis:// URL, connects and verifies the connection.
func Dial(ctx context.Context, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolTimeout = 4 * time.Second

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return NewRedis(client, ""), nil
}

func (r *Redis) tokenKey(jti string) string { return r.prefix + ":jti:" + jti }
func (r *Redis) principalKey(id string) string { return r.prefix + ":sub:" + id }

func minTTL(ttl time.Duration) time.Duration {
	if ttl < time.Millisecond {
		return time.Millisecond
	}
	return ttl
}

func (r *Redis) MarkToken(ctx context.Context, jti string, ttl time.Duration) (bool, error) {
	ok, err := r.client.SetNX(ctx, r.tokenKey(jti), 1, minTTL(ttl)).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx failed: %w", err)
	}
	return ok, nil
}

func (r *Redis) TokenRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := r.client.Exists(ctx, r.tokenKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists failed: %w", err)
	}
	return n > 0, nil
}

func (r *Redis) RevokePrincipal(ctx context.Context, principalID string, at time.Time, ttl time.Duration) error {
	keys := []string{r.principalKey(principalID)}
	err := raiseWatermark.Run(ctx, r.client, keys, at.UnixMilli(), minTTL(ttl).Milliseconds()).Err()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("redis watermark failed: %w", err)
	}
	return nil
}

func (r *Redis) PrincipalRevokedAt(ctx context.Context, principalID string) (time.Time, bool, error) {
	raw, err := r.client.Get(ctx, r.principalKey(principalID)).Result()
	if err == redis.Nil {
		return time.Time{}, false, nil
	} else if err != nil {
		return time.Time{}, false, fmt.Errorf("redis get failed: %w", err)
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("corrupt watermark for %s: %w", principalID, err)
	}
	return time.UnixMilli(ms), true, nil
}

// Ping reports whether the backing server is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}
