package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medstock/backend-go/internal/config"
	"github.com/medstock/backend-go/internal/domain"
)

func setupRedisCache(t *testing.T) RiskCache {
	t.Helper()
	mr := miniredis.RunT(t)

	c, err := NewRiskCache(config.CacheConfig{
		Enabled:        true,
		RedisHost:      mr.Host(),
		RedisPort:      mr.Port(),
		RiskTTLSeconds: 60,
	})
	require.NoError(t, err)
	return c
}

func sampleBatch() *domain.BatchPrediction {
	return &domain.BatchPrediction{
		Total:        3,
		ModelVersion: "20240801T120000.000Z",
		Summary:      domain.RiskSummary{Critical: 1, Low: 2},
		Results: []domain.PredictionResult{
			{HospitalID: 10, MedicineID: 20, ShortagePredicted: true, ShortageProbability: 0.91, RiskTier: domain.RiskCritical},
		},
	}
}

func TestRiskCacheRoundTrip(t *testing.T) {
	c := setupRedisCache(t)
	ctx := context.Background()
	filter := domain.BatchFilter{HospitalID: 10, Limit: 50}

	_, ok, err := c.GetBatch(ctx, filter)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.SetBatch(ctx, filter, sampleBatch()))

	got, ok, err := c.GetBatch(ctx, filter)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, got.Total)
	assert.Equal(t, 1, got.Summary.Critical)
	require.Len(t, got.Results, 1)
	assert.Equal(t, domain.RiskCritical, got.Results[0].RiskTier)
}

func TestRiskCacheKeyedByFilter(t *testing.T) {
	c := setupRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetBatch(ctx, domain.BatchFilter{HospitalID: 10, Limit: 50}, sampleBatch()))

	_, ok, err := c.GetBatch(ctx, domain.BatchFilter{HospitalID: 11, Limit: 50})
	require.NoError(t, err)
	assert.False(t, ok, "a different hospital filter must miss")
}

func TestRiskCacheInvalidateAll(t *testing.T) {
	c := setupRedisCache(t)
	ctx := context.Background()

	require.NoError(t, c.SetBatch(ctx, domain.BatchFilter{Limit: 50}, sampleBatch()))
	require.NoError(t, c.SetBatch(ctx, domain.BatchFilter{HospitalID: 10, Limit: 50}, sampleBatch()))

	require.NoError(t, c.InvalidateAll(ctx))

	_, ok, err := c.GetBatch(ctx, domain.BatchFilter{Limit: 50})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNoopCache(t *testing.T) {
	c := NewNoopRiskCache()
	ctx := context.Background()

	require.NoError(t, c.SetBatch(ctx, domain.BatchFilter{}, sampleBatch()))
	_, ok, err := c.GetBatch(ctx, domain.BatchFilter{})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.InvalidateAll(ctx))
}

func TestDisabledCacheIsNoop(t *testing.T) {
	c, err := NewRiskCache(config.CacheConfig{Enabled: false})
	require.NoError(t, err)

	_, ok, err := c.GetBatch(context.Background(), domain.BatchFilter{})
	require.NoError(t, err)
	assert.False(t, ok)
}
