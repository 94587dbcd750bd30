package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitLabelsSortsAndDedupes(t *testing.T) {
	le := FitLabels([]string{"Rural", "Government", "Rural", "Private"})
	assert.Equal(t, []string{"Government", "Private", "Rural"}, le.Classes)
	assert.Equal(t, 0, le.Encode("Government"))
	assert.Equal(t, 2, le.Encode("Rural"))
}

func TestFitLabelsMapsEmptyToUnknown(t *testing.T) {
	le := FitLabels([]string{"", "Analgesic"})
	assert.Equal(t, []string{"Analgesic", "Unknown"}, le.Classes)
	assert.Equal(t, le.Encode("Unknown"), le.Encode(""))
}

func TestEncodeUnseenValue(t *testing.T) {
	le := FitLabels([]string{"A", "B"})
	assert.Equal(t, 2, le.Encode("C"), "unseen values get the reserved code")
}

func TestEncodeNilEncoder(t *testing.T) {
	var le *LabelEncoder
	assert.Equal(t, 0, le.Encode("anything"))
}

func TestFitScaler(t *testing.T) {
	X := [][]float64{
		{1, 5, 7},
		{3, 5, 9},
	}
	s := FitScaler(X)
	require.Len(t, s.Mean, 3)

	assert.InDelta(t, 2.0, s.Mean[0], 1e-9)
	assert.InDelta(t, 1.0, s.Std[0], 1e-9)
	assert.Equal(t, 1.0, s.Std[1], "constant column keeps std 1")

	out := s.Transform([]float64{3, 5, 8})
	assert.InDelta(t, 1.0, out[0], 1e-9)
	assert.InDelta(t, 0.0, out[1], 1e-9)
	assert.InDelta(t, 0.0, out[2], 1e-9)
}

func TestTransformEmptyScalerIsIdentity(t *testing.T) {
	s := &StandardScaler{}
	in := []float64{1, 2, 3}
	assert.Equal(t, in, s.Transform(in))
}

func TestTransformAll(t *testing.T) {
	s := FitScaler([][]float64{{0}, {2}})
	out := s.TransformAll([][]float64{{0}, {2}})
	require.Len(t, out, 2)
	assert.InDelta(t, -1.0, out[0][0], 1e-9)
	assert.InDelta(t, 1.0, out[1][0], 1e-9)
}
