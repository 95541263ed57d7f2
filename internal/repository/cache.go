package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"quote-workers/internal/common/logger"
	"quote-workers/internal/models"
)

const companyKeyPrefix = "quote:company:"

// CachedReader serves single-company reads from Redis and falls back to the
// wrapped Reader. The candidate list feeds the hard filters and is always
// read from the wrapped Reader, as are requests and proposals. Redis failures
// are logged and treated as misses.
type CachedReader struct {
	Reader
	redis  *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedReader(next Reader, rdb *redis.Client, ttl time.Duration, log logger.Logger) *CachedReader {
	return &CachedReader{
		Reader: next,
		redis:  rdb,
		ttl:    ttl,
		logger: log.Named("company-cache"),
	}
}

func (c *CachedReader) GetCompany(ctx context.Context, id string) (*models.Company, error) {
	var company models.Company
	if c.get(ctx, companyKeyPrefix+id, &company) {
		return &company, nil
	}

	loaded, err := c.Reader.GetCompany(ctx, id)
	if err != nil {
		return nil, err
	}
	c.set(ctx, companyKeyPrefix+id, loaded)
	return loaded, nil
}

// Invalidate drops the cached entries for the given companies.
func (c *CachedReader) Invalidate(ctx context.Context, companyIDs ...string) error {
	if len(companyIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(companyIDs))
	for _, id := range companyIDs {
		keys = append(keys, companyKeyPrefix+id)
	}
	return c.redis.Del(ctx, keys...).Err()
}

func (c *CachedReader) get(ctx context.Context, key string, dest interface{}) bool {
	val, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
		}
		return false
	}
	if err := json.Unmarshal(val, dest); err != nil {
		c.logger.Warn("cache entry corrupt", map[string]interface{}{"key": key, "error": err.Error()})
		return false
	}
	return true
}

func (c *CachedReader) set(ctx context.Context, key string, value interface{}) {
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
}
