package vault

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ZaguanLabs/trailcache"
)

// RedisVault stores each record as a hash under prefix+"rec:"+sha256(cacheKey)
// and tracks the hashed keys in an index set for Count and Clear.
type RedisVault struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds configuration for the Redis vault.
type RedisConfig struct {
	URL       string // Redis connection URL (e.g., "redis://localhost:6379")
	KeyPrefix string // Prefix for all keys (default: "trailcache:")
}

const defaultKeyPrefix = "trailcache:"

// NewRedisVault connects to Redis and verifies the connection.
func NewRedisVault(cfg RedisConfig) (*RedisVault, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return NewRedisVaultFromClient(client, cfg.KeyPrefix), nil
}

// NewRedisVaultFromClient creates a RedisVault from an existing Redis client.
func NewRedisVaultFromClient(client *redis.Client, keyPrefix string) *RedisVault {
	if keyPrefix == "" {
		keyPrefix = defaultKeyPrefix
	}
	return &RedisVault{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

func (v *RedisVault) indexKey() string {
	return v.keyPrefix + "index"
}

func (v *RedisVault) recordKey(hashed string) string {
	return v.keyPrefix + "rec:" + hashed
}

// Get retrieves a record by cache key.
func (v *RedisVault) Get(ctx context.Context, key string) (trailcache.TranslationRecord, bool, error) {
	fields, err := v.client.HGetAll(ctx, v.recordKey(trailcache.HashKey(key))).Result()
	if err != nil {
		return trailcache.TranslationRecord{}, false, storeErr("get", "hgetall", err)
	}
	if len(fields) == 0 {
		return trailcache.TranslationRecord{}, false, nil
	}
	rec, err := decodeRecord(fields)
	if err != nil {
		return trailcache.TranslationRecord{}, false, storeErr("get", "decode record", err)
	}
	return rec, true, nil
}

// Add writes the record hash and registers it in the index set.
func (v *RedisVault) Add(ctx context.Context, rec trailcache.TranslationRecord) error {
	hashed := trailcache.HashKey(rec.CacheKey)
	err := v.client.HSet(ctx, v.recordKey(hashed),
		"cache_key", rec.CacheKey,
		"original_text", rec.OriginalText,
		"translated_text", rec.TranslatedText,
		"from_lang", rec.FromLang,
		"to_lang", rec.ToLang,
		"timestamp", strconv.FormatInt(rec.Timestamp, 10),
	).Err()
	if err != nil {
		return storeErr("add", "hset", err)
	}
	if err := v.client.SAdd(ctx, v.indexKey(), hashed).Err(); err != nil {
		return storeErr("add", "sadd", err)
	}
	return nil
}

// Count returns the size of the index set.
func (v *RedisVault) Count(ctx context.Context) (int, error) {
	n, err := v.client.SCard(ctx, v.indexKey()).Result()
	if err != nil {
		return 0, storeErr("count", "scard", err)
	}
	return int(n), nil
}

// Clear deletes every indexed record and the index itself.
func (v *RedisVault) Clear(ctx context.Context) error {
	members, err := v.client.SMembers(ctx, v.indexKey()).Result()
	if err != nil {
		return storeErr("clear", "smembers", err)
	}
	keys := make([]string, 0, len(members)+1)
	for _, m := range members {
		keys = append(keys, v.recordKey(m))
	}
	keys = append(keys, v.indexKey())
	if err := v.client.Del(ctx, keys...).Err(); err != nil {
		return storeErr("clear", "del", err)
	}
	return nil
}

// Records returns every indexed record. Order is unspecified.
func (v *RedisVault) Records(ctx context.Context) ([]trailcache.TranslationRecord, error) {
	members, err := v.client.SMembers(ctx, v.indexKey()).Result()
	if err != nil {
		return nil, storeErr("list", "smembers", err)
	}
	out := make([]trailcache.TranslationRecord, 0, len(members))
	for _, m := range members {
		fields, err := v.client.HGetAll(ctx, v.recordKey(m)).Result()
		if err != nil {
			return nil, storeErr("list", "hgetall", err)
		}
		if len(fields) == 0 {
			continue
		}
		rec, err := decodeRecord(fields)
		if err != nil {
			return nil, storeErr("list", "decode record", err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// Ping tests the Redis connection.
func (v *RedisVault) Ping(ctx context.Context) error {
	return v.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (v *RedisVault) Close() error {
	return v.client.Close()
}

func decodeRecord(fields map[string]string) (trailcache.TranslationRecord, error) {
	ts, err := strconv.ParseInt(fields["timestamp"], 10, 64)
	if err != nil {
		return trailcache.TranslationRecord{}, err
	}
	return trailcache.TranslationRecord{
		CacheKey:       fields["cache_key"],
		OriginalText:   fields["original_text"],
		TranslatedText: fields["translated_text"],
		FromLang:       fields["from_lang"],
		ToLang:         fields["to_lang"],
		Timestamp:      ts,
	}, nil
}

var _ Store = (*RedisVault)(nil)
