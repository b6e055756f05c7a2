package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
	"valentine_week_backend/internal/model"

	"github.com/go-redis/redis/v8"
)

// ProgressCache 进度快照缓存，未命中时返回 (nil, nil)
type ProgressCache interface {
	Get(ctx context.Context, userID string) (*model.UserProgress, error)
	// Set 只在快照不比缓存中的旧时写入，返回是否写入
	Set(ctx context.Context, p *model.UserProgress) (bool, error)
	Delete(ctx context.Context, userID string) error
}

type RedisProgressCache struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewRedisProgressCache(rdb *redis.Client, ttl time.Duration) *RedisProgressCache {
	return &RedisProgressCache{Redis: rdb, TTL: ttl}
}

func progressKey(userID string) string {
	return fmt.Sprintf("progress:%s", userID)
}

// 缓存值格式: "<updated_at 微秒>|<json>"
// 已有版本更新时拒绝覆盖，多个实例乱序回写也不会退回旧快照
var setIfNewer = redis.NewScript(`
local cur = redis.call('GET', KEYS[1])
if cur then
	local v = string.match(cur, '^(%d+)|')
	if v and tonumber(v) > tonumber(ARGV[1]) then
		return 0
	end
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[1] .. '|' .. ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[1] .. '|' .. ARGV[2])
end
return 1
`)

func (c *RedisProgressCache) Get(ctx context.Context, userID string) (*model.UserProgress, error) {
	raw, err := c.Redis.Get(ctx, progressKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var p model.UserProgress
	_, body, found := bytes.Cut(raw, []byte("|"))
	if !found || json.Unmarshal(body, &p) != nil {
		// 损坏的缓存直接丢弃
		c.Redis.Del(ctx, progressKey(userID))
		return nil, nil
	}
	return &p, nil
}

func (c *RedisProgressCache) Set(ctx context.Context, p *model.UserProgress) (bool, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return false, err
	}
	version := strconv.FormatInt(p.UpdatedAt.UnixMicro(), 10)
	ttl := strconv.FormatInt(c.TTL.Milliseconds(), 10)
	written, err := setIfNewer.Run(ctx, c.Redis, []string{progressKey(p.UserID)}, version, raw, ttl).Int()
	if err != nil {
		return false, err
	}
	return written == 1, nil
}

func (c *RedisProgressCache) Delete(ctx context.Context, userID string) error {
	return c.Redis.Del(ctx, progressKey(userID)).Err()
}
