package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Both scripts only touch KEYS[1] while it still holds ARGV[1], so a lock
// holder never releases or extends a lock that has passed to someone else.
var (
	deleteIfValueScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0`)
	expireIfValueScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)
)

func (c *Client) runGuarded(ctx context.Context, script *redis.Script, key string, args ...any) (bool, error) {
	if c == nil || c.raw == nil {
		return false, errNotInitialized
	}
	n, err := script.Run(ctx, c.raw, []string{key}, args...).Int64()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// DeleteIfValue removes key only while it still stores value.
func (c *Client) DeleteIfValue(ctx context.Context, key, value string) (bool, error) {
	return c.runGuarded(ctx, deleteIfValueScript, key, value)
}

// ExpireIfValue resets the TTL of key only while it still stores value.
func (c *Client) ExpireIfValue(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	return c.runGuarded(ctx, expireIfValueScript, key, value, ttl.Milliseconds())
}
