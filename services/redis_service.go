package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"vela_server/models"
)

// RedisService implements EphemeralStore on Redis. All mutations that must
// be race-free across service instances run as Lua scripts so the shared
// store, not process memory, is the authority.
type RedisService struct {
	Client *redis.Client
}

var _ EphemeralStore = (*RedisService)(nil)

// ConnectRedis initializes a Redis client from URL or host:port input.
func ConnectRedis(addr, password string) (*redis.Client, error) {
	if strings.HasPrefix(addr, "redis://") {
		opt, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: addr, Password: password}), nil
}

// casScript writes ARGV[1] only when the stored JSON document's version
// matches ARGV[2] (0 for an absent key). PX TTL from ARGV[3].
var casScript = redis.NewScript(`
local expected = tonumber(ARGV[2])
local cur = redis.call('GET', KEYS[1])
if cur then
  local ver = tonumber(cjson.decode(cur)['version']) or 0
  if ver ~= expected then
    return -1
  end
elseif expected ~= 0 then
  return -1
end
redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[3])
return 1
`)

// decrFloorScript decrements the counter at KEYS[1] with a floor of zero,
// seeding an absent key from ARGV[1]. Returns -1 when already exhausted.
var decrFloorScript = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur then
  cur = tonumber(cur)
else
  cur = tonumber(ARGV[1])
end
if cur <= 0 then
  return -1
end
cur = cur - 1
redis.call('SET', KEYS[1], cur, 'PX', ARGV[2])
return cur
`)

// incrIfExistsScript re-credits a live counter and leaves expired ones alone.
var incrIfExistsScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 1 then
  return redis.call('INCRBY', KEYS[1], ARGV[1])
end
return -1
`)

func (rs *RedisService) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := rs.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, models.NewExternalServiceError("ephemeral-store", err)
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return false, fmt.Errorf("unmarshal cached value at %q: %w", key, err)
	}
	return true, nil
}

func (rs *RedisService) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value for %q: %w", key, err)
	}
	if err := rs.Client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return models.NewExternalServiceError("ephemeral-store", err)
	}
	return nil
}

func (rs *RedisService) CompareAndSwapJSON(ctx context.Context, key string, value any, expectedVersion int64, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value for %q: %w", key, err)
	}
	res, err := casScript.Run(ctx, rs.Client, []string{key}, raw, expectedVersion, ttl.Milliseconds()).Int()
	if err != nil {
		return models.NewExternalServiceError("ephemeral-store", err)
	}
	if res < 0 {
		return models.ErrStateConflict
	}
	return nil
}

func (rs *RedisService) ReplaceList(ctx context.Context, key string, items []string, ttl time.Duration) error {
	_, err := rs.Client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		if len(items) > 0 {
			values := make([]interface{}, len(items))
			for i, item := range items {
				values[i] = item
			}
			p.RPush(ctx, key, values...)
			p.PExpire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		return models.NewExternalServiceError("ephemeral-store", err)
	}
	return nil
}

func (rs *RedisService) PopHead(ctx context.Context, key string) (string, bool, error) {
	raw, err := rs.Client.LPop(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, models.NewExternalServiceError("ephemeral-store", err)
	}
	return raw, true, nil
}

func (rs *RedisService) DecrementWithFloor(ctx context.Context, key string, initial int, ttl time.Duration) (int, bool, error) {
	res, err := decrFloorScript.Run(ctx, rs.Client, []string{key}, initial, ttl.Milliseconds()).Int()
	if err != nil {
		return 0, false, models.NewExternalServiceError("ephemeral-store", err)
	}
	if res < 0 {
		return 0, false, nil
	}
	return res, true, nil
}

func (rs *RedisService) IncrementIfExists(ctx context.Context, key string, delta int) error {
	if err := incrIfExistsScript.Run(ctx, rs.Client, []string{key}, delta).Err(); err != nil {
		return models.NewExternalServiceError("ephemeral-store", err)
	}
	return nil
}

func (rs *RedisService) Delete(ctx context.Context, key string) error {
	if err := rs.Client.Del(ctx, key).Err(); err != nil {
		return models.NewExternalServiceError("ephemeral-store", err)
	}
	return nil
}
