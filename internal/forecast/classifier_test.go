package forecast

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// separableDataset builds points whose label is the sign of the first
// feature, with a wide margin so both learners separate it easily.
func separableDataset(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	X := make([][]float64, n)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		label := i % 2
		offset := 2.0 + rng.Float64()
		if label == 0 {
			offset = -offset
		}
		X[i] = []float64{offset, rng.NormFloat64()}
		y[i] = label
	}
	return X, y
}

func TestGradientBoostingLearnsSeparableData(t *testing.T) {
	X, y := separableDataset(200, 1)
	g := NewGradientBoosting(7)
	require.NoError(t, g.Fit(X, y))

	assert.Greater(t, g.PredictProba([]float64{3, 0}), 0.7)
	assert.Less(t, g.PredictProba([]float64{-3, 0}), 0.3)

	importances := g.FeatureImportances()
	require.Len(t, importances, 2)
	assert.Greater(t, importances[0], importances[1], "split feature dominates importance")
}

func TestRandomForestLearnsSeparableData(t *testing.T) {
	X, y := separableDataset(200, 1)
	f := NewRandomForest(7)
	require.NoError(t, f.Fit(X, y))

	assert.Greater(t, f.PredictProba([]float64{3, 0}), 0.7)
	assert.Less(t, f.PredictProba([]float64{-3, 0}), 0.3)
}

func TestClassifierDeterministicWithSameSeed(t *testing.T) {
	X, y := separableDataset(150, 3)

	a := NewGradientBoosting(42)
	b := NewGradientBoosting(42)
	require.NoError(t, a.Fit(X, y))
	require.NoError(t, b.Fit(X, y))

	probe := []float64{0.4, -0.2}
	assert.Equal(t, a.PredictProba(probe), b.PredictProba(probe))
}

func TestClassifierEncodeDecodeRoundTrip(t *testing.T) {
	X, y := separableDataset(150, 5)

	for _, name := range []string{ClassifierGradientBoosting, ClassifierRandomForest} {
		c, err := NewClassifier(name, 11)
		require.NoError(t, err)
		require.NoError(t, c.Fit(X, y))

		data, err := encodeClassifier(c)
		require.NoError(t, err)

		decoded, err := decodeClassifier(data)
		require.NoError(t, err)
		assert.Equal(t, name, decoded.Name())

		probe := []float64{1.5, 0.5}
		assert.InDelta(t, c.PredictProba(probe), decoded.PredictProba(probe), 1e-12)
	}
}

func TestNewClassifierUnknownName(t *testing.T) {
	_, err := NewClassifier("svm", 1)
	assert.Error(t, err)
}

func TestFitRejectsEmptyData(t *testing.T) {
	g := NewGradientBoosting(1)
	assert.ErrorIs(t, g.Fit(nil, nil), ErrInsufficientData)

	f := NewRandomForest(1)
	assert.ErrorIs(t, f.Fit([][]float64{{1}}, []int{0, 1}), ErrInsufficientData)
}
