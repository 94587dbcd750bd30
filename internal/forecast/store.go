// internal/forecast/store.go
package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/medstock/backend-go/internal/storage"
)

// bundleSchemaVersion changes whenever the on-disk bundle layout does.
// A loaded bundle with a different version is treated as corrupt, not
// as missing.
const bundleSchemaVersion = 1

// Bundle file names, mirroring the four artifact pieces.
const (
	manifestFile   = "manifest.json"
	classifierFile = "classifier.json"
	scalerFile     = "scaler.json"
	encodersFile   = "encoders.json"
)

// Manifest identifies a bundle and pins its feature schema.
type Manifest struct {
	SchemaVersion int       `json:"schema_version"`
	ModelName     string    `json:"model_name"`
	Version       string    `json:"version"`
	Classifier    string    `json:"classifier"`
	CreatedAt     time.Time `json:"created_at"`
	FeatureNames  []string  `json:"feature_names"`
}

// Artifact is one trained model bundle: classifier, scaler, encoders
// and the feature-name list they were fit against. Immutable once
// loaded; a retrain produces a new artifact that replaces it whole.
type Artifact struct {
	Manifest   Manifest
	Classifier BinaryClassifier
	Scaler     *StandardScaler
	Encoders   map[string]*LabelEncoder
}

// FeatureNames returns the ordered feature list the artifact was
// trained with.
func (a *Artifact) FeatureNames() []string {
	return a.Manifest.FeatureNames
}

// ModelStore persists artifacts as named bundle directories under a
// base dir, one directory per model name. Saves are atomic
// (write-to-temp-then-rename) so a reader never sees a half-written
// bundle; concurrent saves are last-writer-wins.
type ModelStore struct {
	dir     string
	name    string
	archive storage.ObjectStorage
}

// NewModelStore creates a store for the named model under dir. archive
// may be nil; when set, saved bundles are mirrored to object storage.
func NewModelStore(dir, name string, archive storage.ObjectStorage) *ModelStore {
	return &ModelStore{dir: dir, name: name, archive: archive}
}

func (s *ModelStore) bundleDir() string {
	return filepath.Join(s.dir, s.name)
}

// Exists is a cheap existence check that does not load the bundle.
func (s *ModelStore) Exists() bool {
	_, err := os.Stat(filepath.Join(s.bundleDir(), manifestFile))
	return err == nil
}

// Save writes the artifact as one bundle. The manifest is stamped with
// a fresh version and created-at; the caller's artifact is updated to
// match.
func (s *ModelStore) Save(a *Artifact) error {
	now := time.Now().UTC()
	a.Manifest.SchemaVersion = bundleSchemaVersion
	a.Manifest.ModelName = s.name
	a.Manifest.Version = now.Format("20060102T150405.000Z0700")
	a.Manifest.Classifier = a.Classifier.Name()
	a.Manifest.CreatedAt = now

	files := make(map[string][]byte, 4)

	manifest, err := json.Marshal(a.Manifest)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	files[manifestFile] = manifest

	classifier, err := encodeClassifier(a.Classifier)
	if err != nil {
		return fmt.Errorf("marshal classifier: %w", err)
	}
	files[classifierFile] = classifier

	scaler, err := json.Marshal(a.Scaler)
	if err != nil {
		return fmt.Errorf("marshal scaler: %w", err)
	}
	files[scalerFile] = scaler

	encoders, err := json.Marshal(a.Encoders)
	if err != nil {
		return fmt.Errorf("marshal encoders: %w", err)
	}
	files[encodersFile] = encoders

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create model dir: %w", err)
	}
	tmp, err := os.MkdirTemp(s.dir, "."+s.name+"-")
	if err != nil {
		return fmt.Errorf("create temp bundle dir: %w", err)
	}
	defer os.RemoveAll(tmp)

	for name, data := range files {
		if err := os.WriteFile(filepath.Join(tmp, name), data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
	}

	// Swap the complete bundle into place. Retraining is offline and
	// infrequent, so the remove+rename window is acceptable.
	final := s.bundleDir()
	if err := os.RemoveAll(final); err != nil {
		return fmt.Errorf("remove previous bundle: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		return fmt.Errorf("install bundle: %w", err)
	}

	s.archiveBundle(a.Manifest.Version, files)
	return nil
}

// archiveBundle mirrors a saved bundle to object storage. Failures are
// logged and never fail the save.
func (s *ModelStore) archiveBundle(version string, files map[string][]byte) {
	if s.archive == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	for name, data := range files {
		key := filepath.ToSlash(filepath.Join("models", s.name, version, name))
		if err := s.archive.UploadObject(ctx, key, data); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("model store: bundle archive upload failed")
			return
		}
	}
	log.Info().Str("model", s.name).Str("version", version).Msg("model store: bundle archived")
}

// Load reads the bundle back. A missing bundle returns
// ErrModelNotFound; a partial or incompatible one returns
// ErrCorruptModel.
func (s *ModelStore) Load() (*Artifact, error) {
	dir := s.bundleDir()

	manifestData, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var manifest Manifest
	if err := json.Unmarshal(manifestData, &manifest); err != nil {
		return nil, fmt.Errorf("%w: bad manifest: %v", ErrCorruptModel, err)
	}
	if manifest.SchemaVersion != bundleSchemaVersion {
		return nil, fmt.Errorf("%w: schema version %d, want %d", ErrCorruptModel, manifest.SchemaVersion, bundleSchemaVersion)
	}
	if len(manifest.FeatureNames) == 0 {
		return nil, fmt.Errorf("%w: manifest has no feature list", ErrCorruptModel)
	}

	classifierData, err := os.ReadFile(filepath.Join(dir, classifierFile))
	if err != nil {
		return nil, fmt.Errorf("%w: classifier missing: %v", ErrCorruptModel, err)
	}
	classifier, err := decodeClassifier(classifierData)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptModel, err)
	}

	scalerData, err := os.ReadFile(filepath.Join(dir, scalerFile))
	if err != nil {
		return nil, fmt.Errorf("%w: scaler missing: %v", ErrCorruptModel, err)
	}
	var scaler StandardScaler
	if err := json.Unmarshal(scalerData, &scaler); err != nil {
		return nil, fmt.Errorf("%w: bad scaler: %v", ErrCorruptModel, err)
	}

	encodersData, err := os.ReadFile(filepath.Join(dir, encodersFile))
	if err != nil {
		return nil, fmt.Errorf("%w: encoders missing: %v", ErrCorruptModel, err)
	}
	encoders := make(map[string]*LabelEncoder)
	if err := json.Unmarshal(encodersData, &encoders); err != nil {
		return nil, fmt.Errorf("%w: bad encoders: %v", ErrCorruptModel, err)
	}

	return &Artifact{
		Manifest:   manifest,
		Classifier: classifier,
		Scaler:     &scaler,
		Encoders:   encoders,
	}, nil
}
