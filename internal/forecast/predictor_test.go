package forecast

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medstock/backend-go/internal/domain"
)

func TestRiskTierBoundaries(t *testing.T) {
	cases := []struct {
		p    float64
		tier domain.RiskTier
		rec  string
	}{
		{0.0, domain.RiskLow, "Normal monitoring"},
		{0.29, domain.RiskLow, "Normal monitoring"},
		{0.30, domain.RiskMedium, "Consider restocking"},
		{0.59, domain.RiskMedium, "Consider restocking"},
		{0.60, domain.RiskHigh, "Urgent restock needed"},
		{0.79, domain.RiskHigh, "Urgent restock needed"},
		{0.80, domain.RiskCritical, "EMERGENCY - Redistribute stock"},
		{1.0, domain.RiskCritical, "EMERGENCY - Redistribute stock"},
	}
	for _, tc := range cases {
		tier, rec := RiskTier(tc.p)
		assert.Equal(t, tc.tier, tier, "p=%v", tc.p)
		assert.Equal(t, tc.rec, rec, "p=%v", tc.p)
	}
}

func trainTestModel(t *testing.T) *ModelStore {
	t.Helper()
	store := NewModelStore(t.TempDir(), "shortage", nil)
	trainer := NewTrainer(TrainerOptions{SyntheticSamples: 400}, nil, store)
	_, err := trainer.Train(context.Background())
	require.NoError(t, err)
	return store
}

func TestPredictorWithoutModel(t *testing.T) {
	predictor := NewShortagePredictor(NewModelStore(t.TempDir(), "shortage", nil))

	_, err := predictor.Predict(domain.Observation{CurrentStock: 10, DailyConsumption: 1})
	assert.ErrorIs(t, err, ErrModelUnavailable)

	status := predictor.Status()
	assert.False(t, status.Loaded)
	assert.False(t, status.Exists)
	assert.Equal(t, "NOT_TRAINED", status.Status)
}

func TestPredictorScoresObservations(t *testing.T) {
	store := trainTestModel(t)
	predictor := NewShortagePredictor(store)

	status := predictor.Status()
	assert.True(t, status.Exists)
	assert.Equal(t, "NOT_LOADED", status.Status)

	observedAt := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	risky := domain.Observation{
		CurrentStock:     5,
		DailyConsumption: 40,
		ReorderLevel:     80,
		DrugCategory:     "Antibiotic",
		HospitalType:     "Rural",
		HospitalBedCount: 100,
		ObservedAt:       &observedAt,
	}
	safe := domain.Observation{
		CurrentStock:     480,
		DailyConsumption: 2,
		ReorderLevel:     30,
		DrugCategory:     "Analgesic",
		HospitalType:     "Private",
		HospitalBedCount: 500,
		ObservedAt:       &observedAt,
	}

	riskyRes, err := predictor.Predict(risky)
	require.NoError(t, err)
	safeRes, err := predictor.Predict(safe)
	require.NoError(t, err)

	assert.Greater(t, riskyRes.ShortageProbability, safeRes.ShortageProbability)
	assert.True(t, riskyRes.ShortagePredicted)
	assert.False(t, safeRes.ShortagePredicted)

	// Confidence reflects the predicted class.
	assert.InDelta(t, riskyRes.ShortageProbability, riskyRes.Confidence, 1e-12)
	assert.InDelta(t, 1-safeRes.ShortageProbability, safeRes.Confidence, 1e-12)

	assert.InDelta(t, 5.0/40.01, riskyRes.DaysOfSupply, 1e-9)
	assert.Equal(t, "READY", predictor.Status().Status)
	assert.NotEmpty(t, predictor.ModelVersion())
}

func TestBatchPredictSortedByRisk(t *testing.T) {
	store := trainTestModel(t)
	predictor := NewShortagePredictor(store)

	observedAt := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	observations := []domain.Observation{
		{CurrentStock: 480, DailyConsumption: 2, ReorderLevel: 30, DrugCategory: "Analgesic", HospitalType: "Private", HospitalBedCount: 500, ObservedAt: &observedAt},
		{CurrentStock: 5, DailyConsumption: 40, ReorderLevel: 80, DrugCategory: "Antibiotic", HospitalType: "Rural", HospitalBedCount: 100, ObservedAt: &observedAt},
		{CurrentStock: 100, DailyConsumption: 10, ReorderLevel: 50, DrugCategory: "Insulin", HospitalType: "Government", HospitalBedCount: 200, ObservedAt: &observedAt},
	}

	results, err := predictor.BatchPredict(observations)
	require.NoError(t, err)
	require.Len(t, results, 3)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].ShortageProbability, results[i].ShortageProbability)
	}
}

func TestBatchPredictSkipsBadObservations(t *testing.T) {
	store := trainTestModel(t)
	predictor := NewShortagePredictor(store)

	results, err := predictor.BatchPredict([]domain.Observation{
		{CurrentStock: -5, DailyConsumption: 1},
		{CurrentStock: 100, DailyConsumption: 10},
	})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestPredictorFeatureMismatch(t *testing.T) {
	store := NewModelStore(t.TempDir(), "shortage", nil)
	artifact := trainedArtifact(t)
	artifact.Manifest.FeatureNames = []string{"stale_feature"}
	require.NoError(t, store.Save(artifact))

	predictor := NewShortagePredictor(store)
	_, err := predictor.Predict(domain.Observation{CurrentStock: 10, DailyConsumption: 1})
	assert.ErrorIs(t, err, ErrFeatureMismatch)
}
