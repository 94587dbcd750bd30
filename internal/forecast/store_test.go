package forecast

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trainedArtifact(t *testing.T) *Artifact {
	t.Helper()
	X, y := separableDataset(100, 9)
	c := NewGradientBoosting(9)
	require.NoError(t, c.Fit(X, y))

	return &Artifact{
		Manifest: Manifest{FeatureNames: append([]string(nil), FeatureNames...)},
		Classifier: c,
		Scaler:     FitScaler(X),
		Encoders: map[string]*LabelEncoder{
			EncoderDrugCategory: FitLabels([]string{"Antibiotic"}),
			EncoderHospitalType: FitLabels([]string{"Rural"}),
		},
	}
}

func TestModelStoreSaveLoadRoundTrip(t *testing.T) {
	store := NewModelStore(t.TempDir(), "shortage", nil)
	assert.False(t, store.Exists())

	artifact := trainedArtifact(t)
	require.NoError(t, store.Save(artifact))
	assert.True(t, store.Exists())
	assert.NotEmpty(t, artifact.Manifest.Version)
	assert.Equal(t, "shortage", artifact.Manifest.ModelName)

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, artifact.Manifest.Version, loaded.Manifest.Version)
	assert.Equal(t, FeatureNames, loaded.FeatureNames())
	assert.Equal(t, ClassifierGradientBoosting, loaded.Classifier.Name())

	probe := []float64{2, 0}
	assert.InDelta(t, artifact.Classifier.PredictProba(probe), loaded.Classifier.PredictProba(probe), 1e-12)
	assert.Equal(t, 0, loaded.Encoders[EncoderDrugCategory].Encode("Antibiotic"))
}

func TestModelStoreLoadMissing(t *testing.T) {
	store := NewModelStore(t.TempDir(), "shortage", nil)
	_, err := store.Load()
	assert.ErrorIs(t, err, ErrModelNotFound)
}

func TestModelStoreLoadCorruptManifest(t *testing.T) {
	dir := t.TempDir()
	bundle := filepath.Join(dir, "shortage")
	require.NoError(t, os.MkdirAll(bundle, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(bundle, "manifest.json"), []byte("not json"), 0o644))

	store := NewModelStore(dir, "shortage", nil)
	_, err := store.Load()
	assert.ErrorIs(t, err, ErrCorruptModel)
}

func TestModelStoreLoadMissingParts(t *testing.T) {
	dir := t.TempDir()
	store := NewModelStore(dir, "shortage", nil)
	require.NoError(t, store.Save(trainedArtifact(t)))

	require.NoError(t, os.Remove(filepath.Join(dir, "shortage", "classifier.json")))

	_, err := store.Load()
	assert.ErrorIs(t, err, ErrCorruptModel)
}

func TestModelStoreSaveReplacesPreviousBundle(t *testing.T) {
	store := NewModelStore(t.TempDir(), "shortage", nil)

	first := trainedArtifact(t)
	require.NoError(t, store.Save(first))

	second := trainedArtifact(t)
	require.NoError(t, store.Save(second))

	loaded, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, second.Manifest.Version, loaded.Manifest.Version)
}
