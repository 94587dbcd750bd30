package forecast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medstock/backend-go/internal/domain"
)

type stubSource struct {
	observations []domain.Observation
	err          error
}

func (s *stubSource) FetchObservations(ctx context.Context) ([]domain.Observation, error) {
	return s.observations, s.err
}

func TestLabelRule(t *testing.T) {
	trainer := NewTrainer(TrainerOptions{}, nil, nil)

	// required = 10 * 7 * 1.2 = 84
	obs := domain.Observation{DailyConsumption: 10}

	obs.CurrentStock = 83
	assert.Equal(t, 1, trainer.Label(obs))

	obs.CurrentStock = 84
	assert.Equal(t, 0, trainer.Label(obs))

	// Relabeling is idempotent.
	assert.Equal(t, 0, trainer.Label(obs))
}

func TestBuildDatasetPrefersRealData(t *testing.T) {
	real := GenerateSyntheticObservations(60, 99, time.Now())
	trainer := NewTrainer(TrainerOptions{}, &stubSource{observations: real}, nil)

	got, synthetic, err := trainer.BuildDataset(context.Background())
	require.NoError(t, err)
	assert.False(t, synthetic)
	assert.Len(t, got, 60)
}

func TestBuildDatasetFallsBackToSynthetic(t *testing.T) {
	trainer := NewTrainer(TrainerOptions{SyntheticSamples: 120}, &stubSource{}, nil)

	got, synthetic, err := trainer.BuildDataset(context.Background())
	require.NoError(t, err)
	assert.True(t, synthetic)
	assert.Len(t, got, 120)
}

func TestBuildDatasetSourceErrorFallsBack(t *testing.T) {
	trainer := NewTrainer(TrainerOptions{SyntheticSamples: 120},
		&stubSource{err: errors.New("db down")}, nil)

	_, synthetic, err := trainer.BuildDataset(context.Background())
	require.NoError(t, err)
	assert.True(t, synthetic)
}

func TestBuildDatasetDisableSynthetic(t *testing.T) {
	trainer := NewTrainer(TrainerOptions{DisableSynthetic: true}, &stubSource{}, nil)

	_, _, err := trainer.BuildDataset(context.Background())
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestGenerateSyntheticDeterministic(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	a := GenerateSyntheticObservations(100, 42, now)
	b := GenerateSyntheticObservations(100, 42, now)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].CurrentStock, b[i].CurrentStock)
		assert.Equal(t, a[i].DailyConsumption, b[i].DailyConsumption)
		assert.Equal(t, a[i].DrugCategory, b[i].DrugCategory)
	}
}

func TestStratifiedSplit(t *testing.T) {
	y := make([]int, 100)
	for i := 80; i < 100; i++ {
		y[i] = 1
	}

	train, test := stratifiedSplit(y, 0.2, 42)
	assert.Len(t, train, 80)
	assert.Len(t, test, 20)

	countPositives := func(idx []int) int {
		n := 0
		for _, i := range idx {
			n += y[i]
		}
		return n
	}
	assert.Equal(t, 16, countPositives(train), "class balance preserved in train")
	assert.Equal(t, 4, countPositives(test), "class balance preserved in test")

	seen := make(map[int]bool)
	for _, i := range append(append([]int(nil), train...), test...) {
		assert.False(t, seen[i], "index %d appears twice", i)
		seen[i] = true
	}

	train2, test2 := stratifiedSplit(y, 0.2, 42)
	assert.Equal(t, train, train2)
	assert.Equal(t, test, test2)
}

func TestTrainEndToEnd(t *testing.T) {
	store := NewModelStore(t.TempDir(), "shortage", nil)
	trainer := NewTrainer(TrainerOptions{SyntheticSamples: 400}, nil, store)

	report, err := trainer.Train(context.Background())
	require.NoError(t, err)

	assert.True(t, report.SyntheticData)
	assert.Equal(t, ClassifierGradientBoosting, report.Classifier)
	assert.Greater(t, report.Accuracy, 0.7, "labels follow a learnable rule")
	assert.NotEmpty(t, report.ModelVersion)
	assert.Greater(t, report.ShortageRate, 0.0)
	assert.Less(t, report.ShortageRate, 1.0)
	assert.Len(t, report.Importances, len(FeatureNames))
	assert.True(t, store.Exists())

	// Importances come back ranked.
	for i := 1; i < len(report.Importances); i++ {
		assert.GreaterOrEqual(t, report.Importances[i-1].Importance, report.Importances[i].Importance)
	}
}

func TestTrainRandomForest(t *testing.T) {
	store := NewModelStore(t.TempDir(), "shortage", nil)
	trainer := NewTrainer(TrainerOptions{
		SyntheticSamples: 300,
		Classifier:       ClassifierRandomForest,
	}, nil, store)

	report, err := trainer.Train(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ClassifierRandomForest, report.Classifier)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, ClassifierRandomForest, loaded.Classifier.Name())
}

func TestTrainRejectsSingleClassDataset(t *testing.T) {
	observations := make([]domain.Observation, 60)
	for i := range observations {
		// required = 1 * 7 * 1.2; everything comfortably stocked
		observations[i] = domain.Observation{
			CurrentStock:     1000,
			DailyConsumption: 1,
			ReorderLevel:     10,
			DrugCategory:     "Analgesic",
			HospitalType:     "Private",
			HospitalBedCount: 100,
		}
	}

	store := NewModelStore(t.TempDir(), "shortage", nil)
	trainer := NewTrainer(TrainerOptions{}, &stubSource{observations: observations}, store)

	_, err := trainer.Train(context.Background())
	assert.ErrorIs(t, err, ErrInsufficientData)
	assert.False(t, store.Exists(), "failed run must not write a bundle")
}

func TestTrainDeterministicProbabilities(t *testing.T) {
	probe := domain.Observation{
		CurrentStock:     50,
		DailyConsumption: 20,
		ReorderLevel:     60,
		DrugCategory:     "Antibiotic",
		HospitalType:     "Rural",
		HospitalBedCount: 200,
	}
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	probe.ObservedAt = &fixed

	score := func() float64 {
		store := NewModelStore(t.TempDir(), "shortage", nil)
		trainer := NewTrainer(TrainerOptions{SyntheticSamples: 300}, nil, store)
		trainer.now = func() time.Time { return fixed }
		_, err := trainer.Train(context.Background())
		require.NoError(t, err)

		res, err := NewShortagePredictor(store).Predict(probe)
		require.NoError(t, err)
		return res.ShortageProbability
	}

	assert.Equal(t, score(), score(), "same seed and clock give the same model")
}
