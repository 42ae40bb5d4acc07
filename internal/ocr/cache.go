package ocr

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultCacheTTL is used when no TTL is configured.
const DefaultCacheTTL = 24 * time.Hour

const keyPrefix = "idcard:ocr:"

// ErrCacheMiss is returned by a Store when the key is absent.
var ErrCacheMiss = errors.New("ocr: cache miss")

// Store persists recognized text by key.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, text string, ttl time.Duration) error
	Close() error
}

// RedisStore is a Store backed by Redis.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects to the Redis server at url
// (redis://[user:pass@]host:port/db).
func NewRedisStore(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return &RedisStore{client: redis.NewClient(opts)}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	text, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	return text, err
}

func (s *RedisStore) Set(ctx context.Context, key, text string, ttl time.Duration) error {
	return s.client.Set(ctx, key, text, ttl).Err()
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// CachedEngine serves repeated images from a Store. Cache failures are
// logged and never fail recognition.
type CachedEngine struct {
	engine Engine
	store  Store
	ttl    time.Duration
}

// NewCachedEngine wraps engine with store. A non-positive ttl uses
// DefaultCacheTTL.
func NewCachedEngine(engine Engine, store Store, ttl time.Duration) *CachedEngine {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedEngine{engine: engine, store: store, ttl: ttl}
}

func (c *CachedEngine) Name() string { return c.engine.Name() }

func (c *CachedEngine) Recognize(ctx context.Context, in Input) (string, error) {
	if len(in.Image) == 0 {
		return "", ErrEmptyImage
	}
	key := cacheKey(c.engine.Name(), in)

	text, err := c.store.Get(ctx, key)
	switch {
	case err == nil:
		return text, nil
	case !errors.Is(err, ErrCacheMiss):
		log.Printf("ocr cache get failed: %v", err)
	}

	text, err = c.engine.Recognize(ctx, in)
	if err != nil {
		return "", err
	}
	if err := c.store.Set(ctx, key, text, c.ttl); err != nil {
		log.Printf("ocr cache set failed: %v", err)
	}
	return text, nil
}

// Close closes the store and the wrapped engine.
func (c *CachedEngine) Close() error {
	return errors.Join(c.store.Close(), Close(c.engine))
}

// cacheKey identifies a recognition by image content, engine and languages.
func cacheKey(engine string, in Input) string {
	sum := sha256.Sum256(in.Image)
	return keyPrefix + engine + ":" + strings.Join(in.Languages, "+") + ":" + hex.EncodeToString(sum[:])
}
