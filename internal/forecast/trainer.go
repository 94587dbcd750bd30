// internal/forecast/trainer.go
package forecast

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/medstock/backend-go/internal/domain"
)

// ObservationSource supplies real training observations from the
// external store. Implementations live in the repository layer; the
// trainer also accepts nil for synthetic-only training.
type ObservationSource interface {
	FetchObservations(ctx context.Context) ([]domain.Observation, error)
}

// TrainerOptions are the configurable training knobs. Zero values fall
// back to the documented defaults.
type TrainerOptions struct {
	MinRealSamples   int     // below this, fall back to synthetic data (default 50)
	SyntheticSamples int     // synthetic dataset size (default 2000)
	Seed             int64   // RNG seed for synthetic data, splits and trees (default 42)
	HorizonDays      int     // shortage label horizon (default 7)
	SafetyFactor     float64 // stock buffer over the horizon (default 1.2)
	Classifier       string  // gbt or rf (default gbt)
	DisableSynthetic bool    // fail with ErrInsufficientData instead of generating
}

func (o TrainerOptions) withDefaults() TrainerOptions {
	if o.MinRealSamples == 0 {
		o.MinRealSamples = 50
	}
	if o.SyntheticSamples == 0 {
		o.SyntheticSamples = 2000
	}
	if o.Seed == 0 {
		o.Seed = 42
	}
	if o.HorizonDays == 0 {
		o.HorizonDays = 7
	}
	if o.SafetyFactor == 0 {
		o.SafetyFactor = 1.2
	}
	if o.Classifier == "" {
		o.Classifier = ClassifierGradientBoosting
	}
	return o
}

// ClassMetrics is one row of the classification report.
type ClassMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// FeatureImportance pairs a feature with its share of split gain.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// Report summarizes a completed training run.
type Report struct {
	Accuracy      float64             `json:"accuracy"`
	NoShortage    ClassMetrics        `json:"no_shortage"`
	Shortage      ClassMetrics        `json:"shortage"`
	Importances   []FeatureImportance `json:"feature_importances"`
	TrainSamples  int                 `json:"train_samples"`
	TestSamples   int                 `json:"test_samples"`
	ShortageRate  float64             `json:"shortage_rate"`
	SyntheticData bool                `json:"synthetic_data"`
	Classifier    string              `json:"classifier"`
	ModelVersion  string              `json:"model_version"`
}

// Trainer builds a labeled dataset, fits classifier and scaler, and
// persists the bundle. A failed run leaves the previous bundle
// untouched; the store is only written after a full successful fit.
type Trainer struct {
	opts   TrainerOptions
	source ObservationSource
	store  *ModelStore
	now    func() time.Time
}

func NewTrainer(opts TrainerOptions, source ObservationSource, store *ModelStore) *Trainer {
	return &Trainer{
		opts:   opts.withDefaults(),
		source: source,
		store:  store,
		now:    time.Now,
	}
}

// Label applies the shortage ground-truth rule: shortage iff
// current_stock < daily_consumption * horizon * safety_factor. The
// rule is deterministic, so relabeling the same data is idempotent.
func (t *Trainer) Label(obs domain.Observation) int {
	required := obs.DailyConsumption * float64(t.opts.HorizonDays) * t.opts.SafetyFactor
	if float64(obs.CurrentStock) < required {
		return 1
	}
	return 0
}

// BuildDataset fetches real observations, falling back to a seeded
// synthetic set when there are too few. The bool reports whether the
// data is synthetic.
func (t *Trainer) BuildDataset(ctx context.Context) ([]domain.Observation, bool, error) {
	var real []domain.Observation
	if t.source != nil {
		var err error
		real, err = t.source.FetchObservations(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("trainer: fetching real observations failed, using synthetic data")
			real = nil
		}
	}

	if len(real) >= t.opts.MinRealSamples {
		return real, false, nil
	}

	if t.opts.DisableSynthetic {
		return nil, false, fmt.Errorf("%w: %d real samples, need %d", ErrInsufficientData, len(real), t.opts.MinRealSamples)
	}

	log.Info().
		Int("real_samples", len(real)).
		Int("min_required", t.opts.MinRealSamples).
		Int("synthetic_samples", t.opts.SyntheticSamples).
		Int64("seed", t.opts.Seed).
		Msg("trainer: not enough real data, generating synthetic dataset")
	return GenerateSyntheticObservations(t.opts.SyntheticSamples, t.opts.Seed, t.now()), true, nil
}

// Train runs the whole pipeline and saves the resulting bundle.
func (t *Trainer) Train(ctx context.Context) (*Report, error) {
	observations, synthetic, err := t.BuildDataset(ctx)
	if err != nil {
		return nil, err
	}
	if len(observations) < 10 {
		return nil, fmt.Errorf("%w: %d samples", ErrInsufficientData, len(observations))
	}

	labels := make([]int, len(observations))
	positives := 0
	for i, obs := range observations {
		labels[i] = t.Label(obs)
		positives += labels[i]
	}
	if positives == 0 || positives == len(labels) {
		return nil, fmt.Errorf("%w: single-class dataset (%d/%d positive)", ErrInsufficientData, positives, len(labels))
	}

	// Encoders are fit on the full dataset's categories; only the
	// scaler is restricted to the training split.
	encoders := fitEncoders(observations)
	builder := NewFeatureBuilder(encoders)

	X := make([][]float64, 0, len(observations))
	y := make([]int, 0, len(observations))
	for i, obs := range observations {
		vec, err := builder.Build(obs)
		if err != nil {
			log.Warn().Err(err).Int("index", i).Msg("trainer: dropping bad observation")
			continue
		}
		X = append(X, vec)
		y = append(y, labels[i])
	}

	trainIdx, testIdx := stratifiedSplit(y, 0.2, t.opts.Seed)

	trainX := pick(X, trainIdx)
	trainY := pickInts(y, trainIdx)

	scaler := FitScaler(trainX)
	scaledTrain := scaler.TransformAll(trainX)

	classifier, err := NewClassifier(t.opts.Classifier, t.opts.Seed)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("classifier", classifier.Name()).
		Int("train_samples", len(trainIdx)).
		Int("test_samples", len(testIdx)).
		Float64("shortage_rate", float64(positives)/float64(len(labels))).
		Bool("synthetic", synthetic).
		Msg("trainer: fitting")

	if err := classifier.Fit(scaledTrain, trainY); err != nil {
		return nil, fmt.Errorf("fit classifier: %w", err)
	}

	report := evaluate(classifier, scaler, X, y, testIdx)
	report.TrainSamples = len(trainIdx)
	report.TestSamples = len(testIdx)
	report.ShortageRate = float64(positives) / float64(len(labels))
	report.SyntheticData = synthetic
	report.Classifier = classifier.Name()
	report.Importances = rankImportances(classifier.FeatureImportances())

	artifact := &Artifact{
		Manifest:   Manifest{FeatureNames: append([]string(nil), FeatureNames...)},
		Classifier: classifier,
		Scaler:     scaler,
		Encoders:   encoders,
	}
	if err := t.store.Save(artifact); err != nil {
		return nil, fmt.Errorf("save bundle: %w", err)
	}
	report.ModelVersion = artifact.Manifest.Version

	log.Info().
		Float64("accuracy", report.Accuracy).
		Str("version", report.ModelVersion).
		Msg("trainer: model saved")
	return report, nil
}

func fitEncoders(observations []domain.Observation) map[string]*LabelEncoder {
	categories := make([]string, len(observations))
	hospitalTypes := make([]string, len(observations))
	for i, obs := range observations {
		categories[i] = obs.DrugCategory
		hospitalTypes[i] = obs.HospitalType
	}
	return map[string]*LabelEncoder{
		EncoderDrugCategory: FitLabels(categories),
		EncoderHospitalType: FitLabels(hospitalTypes),
	}
}

// stratifiedSplit returns train/test index sets preserving the class
// balance of y in both splits. Deterministic given the seed.
func stratifiedSplit(y []int, testFraction float64, seed int64) (train, test []int) {
	rng := rand.New(rand.NewSource(seed))

	var byClass [2][]int
	for i, label := range y {
		byClass[label] = append(byClass[label], i)
	}

	for _, indices := range byClass {
		rng.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
		nTest := int(float64(len(indices)) * testFraction)
		test = append(test, indices[:nTest]...)
		train = append(train, indices[nTest:]...)
	}
	return train, test
}

func evaluate(c BinaryClassifier, scaler *StandardScaler, X [][]float64, y []int, testIdx []int) *Report {
	// confusion[actual][predicted]
	var confusion [2][2]int
	correct := 0
	for _, i := range testIdx {
		prob := c.PredictProba(scaler.Transform(X[i]))
		pred := 0
		if prob > positiveThreshold {
			pred = 1
		}
		confusion[y[i]][pred]++
		if pred == y[i] {
			correct++
		}
	}

	report := &Report{}
	if len(testIdx) > 0 {
		report.Accuracy = float64(correct) / float64(len(testIdx))
	}
	report.NoShortage = classMetrics(confusion, 0)
	report.Shortage = classMetrics(confusion, 1)
	return report
}

func classMetrics(confusion [2][2]int, class int) ClassMetrics {
	tp := confusion[class][class]
	fp := confusion[1-class][class]
	fn := confusion[class][1-class]

	var m ClassMetrics
	m.Support = confusion[class][0] + confusion[class][1]
	if tp+fp > 0 {
		m.Precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		m.Recall = float64(tp) / float64(tp+fn)
	}
	if m.Precision+m.Recall > 0 {
		m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
	}
	return m
}

func rankImportances(importances []float64) []FeatureImportance {
	out := make([]FeatureImportance, 0, len(importances))
	for i, imp := range importances {
		if i >= len(FeatureNames) {
			break
		}
		out = append(out, FeatureImportance{Feature: FeatureNames[i], Importance: imp})
	}
	// Descending by importance, insertion sort over a short list.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].Importance > out[j-1].Importance; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func pick(X [][]float64, idx []int) [][]float64 {
	out := make([][]float64, len(idx))
	for i, j := range idx {
		out[i] = X[j]
	}
	return out
}

func pickInts(y []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = y[j]
	}
	return out
}
