package accountcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"grain-arena/internal/store"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const defaultTTL = 5 * time.Minute

// Backend is the durable account/match store the cache sits in front of.
type Backend interface {
	Register(ctx context.Context, username, credential, email string) (*store.Account, error)
	Authenticate(ctx context.Context, username, credential string) (*store.Account, error)
	GetAccountByID(ctx context.Context, id string) (*store.Account, error)
	CreditRoundOutcome(ctx context.Context, accountID string, scoreDelta int, outcome string) error
	SaveMatchRecord(ctx context.Context, rec store.MatchRecord) (string, error)
	Leaderboard(ctx context.Context, limit int) ([]store.Account, error)
	MatchHistory(ctx context.Context, accountID string, limit int) ([]store.MatchRecord, error)
}

// Cache is a read-through redis cache over a Backend. Every write goes to the
// backend first and then drops the affected keys before returning.
// Redis failures on reads degrade to a backend call.
type Cache struct {
	backend Backend
	rdb     *redis.Client
	ttl     time.Duration
}

func New(backend Backend, rdb *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{backend: backend, rdb: rdb, ttl: ttl}
}

// Dial parses a redis URL and checks the server is reachable.
func Dial(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func keyAccount(id string) string { return "grain:account:" + strings.TrimSpace(id) }
func keyLeaderboard() string      { return "grain:leaderboard" }
func keyHistory(id string) string { return "grain:history:" + strings.TrimSpace(id) }

func (c *Cache) Register(ctx context.Context, username, credential, email string) (*store.Account, error) {
	a, err := c.backend.Register(ctx, username, credential, email)
	if err != nil {
		return nil, err
	}
	c.invalidate(ctx, keyLeaderboard())
	return a, nil
}

func (c *Cache) Authenticate(ctx context.Context, username, credential string) (*store.Account, error) {
	a, err := c.backend.Authenticate(ctx, username, credential)
	if err != nil {
		return nil, err
	}
	c.put(ctx, keyAccount(a.ID), a)
	return a, nil
}

func (c *Cache) GetAccountByID(ctx context.Context, id string) (*store.Account, error) {
	var cached store.Account
	if c.get(ctx, keyAccount(id), &cached) {
		return &cached, nil
	}
	a, err := c.backend.GetAccountByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.put(ctx, keyAccount(id), a)
	return a, nil
}

func (c *Cache) CreditRoundOutcome(ctx context.Context, accountID string, scoreDelta int, outcome string) error {
	if err := c.backend.CreditRoundOutcome(ctx, accountID, scoreDelta, outcome); err != nil {
		return err
	}
	c.invalidate(ctx, keyAccount(accountID), keyLeaderboard())
	return nil
}

func (c *Cache) SaveMatchRecord(ctx context.Context, rec store.MatchRecord) (string, error) {
	id, err := c.backend.SaveMatchRecord(ctx, rec)
	if err != nil {
		return "", err
	}
	c.invalidate(ctx, keyHistory(rec.HostID), keyHistory(rec.GuestID))
	return id, nil
}

func (c *Cache) Leaderboard(ctx context.Context, limit int) ([]store.Account, error) {
	field := strconv.Itoa(limit)
	var cached []store.Account
	if c.hget(ctx, keyLeaderboard(), field, &cached) {
		return cached, nil
	}
	items, err := c.backend.Leaderboard(ctx, limit)
	if err != nil {
		return nil, err
	}
	c.hput(ctx, keyLeaderboard(), field, items)
	return items, nil
}

func (c *Cache) MatchHistory(ctx context.Context, accountID string, limit int) ([]store.MatchRecord, error) {
	field := strconv.Itoa(limit)
	var cached []store.MatchRecord
	if c.hget(ctx, keyHistory(accountID), field, &cached) {
		return cached, nil
	}
	items, err := c.backend.MatchHistory(ctx, accountID, limit)
	if err != nil {
		return nil, err
	}
	c.hput(ctx, keyHistory(accountID), field, items)
	return items, nil
}

func (c *Cache) get(ctx context.Context, key string, dst any) bool {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	return c.decode(key, raw, err, dst)
}

func (c *Cache) hget(ctx context.Context, key, field string, dst any) bool {
	raw, err := c.rdb.HGet(ctx, key, field).Bytes()
	return c.decode(key, raw, err, dst)
}

func (c *Cache) decode(key string, raw []byte, err error, dst any) bool {
	if errors.Is(err, redis.Nil) {
		metricCacheMiss.Add(1)
		return false
	}
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("account cache read failed")
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("account cache entry corrupt")
		return false
	}
	metricCacheHit.Add(1)
	return true
}

func (c *Cache) put(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("account cache write failed")
	}
}

func (c *Cache) hput(ctx context.Context, key, field string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	pipe := c.rdb.TxPipeline()
	pipe.HSet(ctx, key, field, raw)
	pipe.Expire(ctx, key, c.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("account cache write failed")
	}
}

// invalidate runs before the mutating call returns. A failure is logged; the
// stale entry then lives until its TTL.
func (c *Cache) invalidate(ctx context.Context, keys ...string) {
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		metricInvalidateErrors.Add(1)
		log.Error().Err(err).Strs("keys", keys).Msg("account cache invalidation failed")
	}
}
