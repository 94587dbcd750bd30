package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/medstock/backend-go/internal/config"
	"github.com/medstock/backend-go/internal/domain"
)

const (
	riskBatchKeyPrefix = "shortage:batch"
	riskScanBatchSize  = 100
)

// RiskCache holds batch prediction responses so repeated dashboard
// refreshes do not re-score every inventory. Any retrain must call
// InvalidateAll: a new artifact changes every score.
type RiskCache interface {
	GetBatch(ctx context.Context, filter domain.BatchFilter) (*domain.BatchPrediction, bool, error)
	SetBatch(ctx context.Context, filter domain.BatchFilter, batch *domain.BatchPrediction) error
	InvalidateAll(ctx context.Context) error
}

type redisRiskCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopRiskCache struct{}

func NewRiskCache(cfg config.CacheConfig) (RiskCache, error) {
	if !cfg.Enabled {
		return &noopRiskCache{}, nil
	}

	client, ttl, err := newRedisClient(cfg)
	if err != nil {
		return nil, err
	}

	return &redisRiskCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopRiskCache() RiskCache {
	return &noopRiskCache{}
}

func (c *redisRiskCache) GetBatch(ctx context.Context, filter domain.BatchFilter) (*domain.BatchPrediction, bool, error) {
	key := buildRiskBatchKey(filter)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var batch domain.BatchPrediction
	if err := json.Unmarshal(payload, &batch); err != nil {
		return nil, false, fmt.Errorf("decode batch prediction cache: %w", err)
	}

	return &batch, true, nil
}

func (c *redisRiskCache) SetBatch(ctx context.Context, filter domain.BatchFilter, batch *domain.BatchPrediction) error {
	key := buildRiskBatchKey(filter)
	payload, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("encode batch prediction cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisRiskCache) InvalidateAll(ctx context.Context) error {
	return deleteKeysWithPrefix(ctx, c.client, riskBatchKeyPrefix, riskScanBatchSize)
}

func (n *noopRiskCache) GetBatch(ctx context.Context, filter domain.BatchFilter) (*domain.BatchPrediction, bool, error) {
	return nil, false, nil
}

func (n *noopRiskCache) SetBatch(ctx context.Context, filter domain.BatchFilter, batch *domain.BatchPrediction) error {
	return nil
}

func (n *noopRiskCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildRiskBatchKey(filter domain.BatchFilter) string {
	raw := fmt.Sprintf("hospital=%d|limit=%d", filter.HospitalID, filter.Limit)
	sum := sha1.Sum([]byte(raw))
	return fmt.Sprintf("%s:%s", riskBatchKeyPrefix, hex.EncodeToString(sum[:]))
}
