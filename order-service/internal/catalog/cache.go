package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const summaryOperation = "product-summary"

type SummaryCache interface {
	GetMany(ctx context.Context, ids []int64) (map[int64]ProductSummary, error)
	SetMany(ctx context.Context, summaries map[int64]ProductSummary) error
}

type redisSummaryCache struct {
	client      redis.UniversalClient
	serviceName string
	ttl         time.Duration
}

func NewRedisSummaryCache(client redis.UniversalClient, serviceName string, ttl time.Duration) SummaryCache {
	return &redisSummaryCache{client: client, serviceName: serviceName, ttl: ttl}
}

func (c *redisSummaryCache) GenerateKey(id int64) string {
	return fmt.Sprintf("%s:%s:%s", c.serviceName, summaryOperation, strconv.FormatInt(id, 10))
}

func (c *redisSummaryCache) GetMany(ctx context.Context, ids []int64) (map[int64]ProductSummary, error) {
	found := make(map[int64]ProductSummary, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = c.GenerateKey(id)
	}

	values, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("cache: failed to get product summaries: %w", err)
	}

	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			continue // промах
		}
		var s ProductSummary
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			log.Warn().Err(err).Str("key", keys[i]).Msg("cache: dropping malformed product summary")
			continue
		}
		found[ids[i]] = s
	}

	return found, nil
}

func (c *redisSummaryCache) SetMany(ctx context.Context, summaries map[int64]ProductSummary) error {
	if len(summaries) == 0 {
		return nil
	}

	pipe := c.client.Pipeline()
	for id, s := range summaries {
		payload, err := json.Marshal(s)
		if err != nil {
			return fmt.Errorf("cache: failed to marshal product summary %d: %w", id, err)
		}
		pipe.Set(ctx, c.GenerateKey(id), payload, c.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache: failed to store product summaries: %w", err)
	}
	return nil
}

// CachedSummaries reads product summaries through a cache. Cache failures are
// logged and the source is used instead.
type CachedSummaries struct {
	source SummaryReader
	cache  SummaryCache
}

func NewCachedSummaries(source SummaryReader, cache SummaryCache) *CachedSummaries {
	return &CachedSummaries{source: source, cache: cache}
}

func (c *CachedSummaries) GetSummaries(ctx context.Context, ids []int64) (map[int64]ProductSummary, error) {
	ids = uniqueIDs(ids)
	if c.cache == nil {
		return c.source.GetSummaries(ctx, ids)
	}

	result, err := c.cache.GetMany(ctx, ids)
	if err != nil {
		log.Warn().Err(err).Msg("cache: product summary lookup failed, reading from database")
		result = make(map[int64]ProductSummary, len(ids))
	}

	var missing []int64
	for _, id := range ids {
		if _, ok := result[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return result, nil
	}

	loaded, err := c.source.GetSummaries(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, s := range loaded {
		result[id] = s
	}

	if err := c.cache.SetMany(ctx, loaded); err != nil {
		log.Warn().Err(err).Int("count", len(loaded)).Msg("cache: failed to store product summaries")
	}

	return result, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
