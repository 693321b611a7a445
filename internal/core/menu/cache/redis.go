package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"dining-ranker/internal/infrastructure/config"
	"dining-ranker/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const redisKeyPrefix = "menu:cache:"

// RedisStore 以 Redis hash 儲存菜單快取：每個日期一個 hash，每間餐廳一個欄位
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore 創建 Redis 快取並測試連線
func NewRedisStore(ctx context.Context, cfg *config.CacheConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	// 測試連接
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	common.LogInfo("Redis 菜單快取已連線", zap.String("addr", cfg.RedisAddr))
	return NewRedisStoreWithClient(client, cfg.TTL), nil
}

// NewRedisStoreWithClient 使用既有的 client
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Load 讀取所有日期的快取，無法解析的欄位視為未命中
func (s *RedisStore) Load(ctx context.Context) (Snapshot, error) {
	snap := make(Snapshot)

	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		fields, err := s.client.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to read cache %s: %w", key, err)
		}

		date := strings.TrimPrefix(key, redisKeyPrefix)
		halls := make(map[string]Entry, len(fields))
		for hallID, raw := range fields {
			entry, err := decodeEntry(raw)
			if err != nil {
				common.LogDebug("略過損壞的快取條目",
					zap.String("date", date),
					zap.String("hall", hallID),
					zap.Error(err),
				)
				continue
			}
			halls[hallID] = entry
		}
		if len(halls) > 0 {
			snap[date] = halls
		}
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan cache keys: %w", err)
	}

	return snap, nil
}

// Get 讀取單一條目
func (s *RedisStore) Get(ctx context.Context, date, hallID string) (Entry, bool, error) {
	raw, err := s.client.HGet(ctx, redisKeyPrefix+date, hallID).Result()
	if err != nil {
		if err == redis.Nil {
			return Entry{}, false, nil
		}
		return Entry{}, false, fmt.Errorf("failed to get cache: %w", err)
	}

	entry, err := decodeEntry(raw)
	if err != nil {
		common.LogDebug("快取條目損壞，視為未命中",
			zap.String("date", date),
			zap.String("hall", hallID),
			zap.Error(err),
		)
		return Entry{}, false, nil
	}
	return entry, true, nil
}

// Save 寫入單一欄位並更新該日期的存活時間
func (s *RedisStore) Save(ctx context.Context, date, hallID string, entry Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal cache entry: %w", err)
	}

	key := redisKeyPrefix + date
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, hallID, data)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}
	return nil
}

// GetStats 回傳快取統計
func (s *RedisStore) GetStats() map[string]interface{} {
	stats := s.client.PoolStats()
	return map[string]interface{}{
		"backend":     "redis",
		"hits":        stats.Hits,
		"misses":      stats.Misses,
		"timeouts":    stats.Timeouts,
		"total_conns": stats.TotalConns,
		"idle_conns":  stats.IdleConns,
	}
}

// Close 關閉連線
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func decodeEntry(raw string) (Entry, error) {
	var entry Entry
	if err := common.ParseJSON(raw, &entry); err != nil {
		return Entry{}, err
	}
	if len(entry.Payload) == 0 {
		return Entry{}, fmt.Errorf("empty payload")
	}
	if !json.Valid(entry.Payload) {
		return Entry{}, fmt.Errorf("invalid payload")
	}
	return entry, nil
}
