// internal/forecast/predictor.go
package forecast

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/medstock/backend-go/internal/domain"
)

// Risk tier breakpoints on the shortage probability. The tiers are
// half-open: [0,0.30) LOW, [0.30,0.60) MEDIUM, [0.60,0.80) HIGH,
// [0.80,1] CRITICAL.
const (
	tierMediumFloor   = 0.30
	tierHighFloor     = 0.60
	tierCriticalFloor = 0.80
	positiveThreshold = 0.5
)

// RiskTier maps a shortage probability to its tier and recommendation.
func RiskTier(p float64) (domain.RiskTier, string) {
	switch {
	case p < tierMediumFloor:
		return domain.RiskLow, "Normal monitoring"
	case p < tierHighFloor:
		return domain.RiskMedium, "Consider restocking"
	case p < tierCriticalFloor:
		return domain.RiskHigh, "Urgent restock needed"
	default:
		return domain.RiskCritical, "EMERGENCY - Redistribute stock"
	}
}

// ShortagePredictor scores observations against the stored model. The
// artifact is loaded lazily on first use and then held read-only until
// Reload; concurrent Predict calls share it safely.
type ShortagePredictor struct {
	store *ModelStore

	mu       sync.RWMutex
	artifact *Artifact
}

func NewShortagePredictor(store *ModelStore) *ShortagePredictor {
	return &ShortagePredictor{store: store}
}

// Reload drops the cached artifact so the next predict call loads the
// newest bundle. Called after a training run.
func (p *ShortagePredictor) Reload() {
	p.mu.Lock()
	p.artifact = nil
	p.mu.Unlock()
}

func (p *ShortagePredictor) loaded() *Artifact {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.artifact
}

func (p *ShortagePredictor) ensureLoaded() (*Artifact, error) {
	if a := p.loaded(); a != nil {
		return a, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.artifact != nil {
		return p.artifact, nil
	}

	a, err := p.store.Load()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	if !sameFeatures(a.FeatureNames(), FeatureNames) {
		return nil, fmt.Errorf("%w: artifact has %v", ErrFeatureMismatch, a.FeatureNames())
	}
	p.artifact = a
	return a, nil
}

// Predict scores one observation.
func (p *ShortagePredictor) Predict(obs domain.Observation) (*domain.PredictionResult, error) {
	artifact, err := p.ensureLoaded()
	if err != nil {
		return nil, err
	}

	builder := NewFeatureBuilder(artifact.Encoders)
	vec, err := builder.Build(obs)
	if err != nil {
		return nil, err
	}

	prob := artifact.Classifier.PredictProba(artifact.Scaler.Transform(vec))
	predicted := prob > positiveThreshold
	tier, recommendation := RiskTier(prob)

	confidence := prob
	if !predicted {
		confidence = 1 - prob
	}

	return &domain.PredictionResult{
		HospitalID:          obs.HospitalID,
		MedicineID:          obs.MedicineID,
		ShortagePredicted:   predicted,
		ShortageProbability: prob,
		RiskTier:            tier,
		Recommendation:      recommendation,
		Confidence:          confidence,
		DaysOfSupply:        vec[idxDaysOfSupply],
	}, nil
}

// BatchPredict scores every observation independently and returns the
// results sorted by descending shortage probability. A failure on one
// item is logged and skipped, not fatal to the batch. An unusable
// model fails the whole batch up front.
func (p *ShortagePredictor) BatchPredict(observations []domain.Observation) ([]domain.PredictionResult, error) {
	if _, err := p.ensureLoaded(); err != nil {
		return nil, err
	}

	results := make([]domain.PredictionResult, 0, len(observations))
	for i, obs := range observations {
		res, err := p.Predict(obs)
		if err != nil {
			log.Warn().Err(err).
				Int("index", i).
				Int64("hospital_id", obs.HospitalID).
				Int64("medicine_id", obs.MedicineID).
				Msg("batch predict: skipping observation")
			continue
		}
		results = append(results, *res)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].ShortageProbability > results[j].ShortageProbability
	})
	return results, nil
}

// ModelVersion is the loaded artifact's version, empty when nothing
// is loaded.
func (p *ShortagePredictor) ModelVersion() string {
	if a := p.loaded(); a != nil {
		return a.Manifest.Version
	}
	return ""
}

// Status reports model readiness without forcing a load.
func (p *ShortagePredictor) Status() domain.ModelStatus {
	loaded := p.loaded() != nil
	exists := p.store.Exists()

	status := "NOT_TRAINED"
	if loaded {
		status = "READY"
	} else if exists {
		status = "NOT_LOADED"
	}

	featureCount := 0
	if a := p.loaded(); a != nil {
		featureCount = len(a.FeatureNames())
	}

	return domain.ModelStatus{
		Loaded:       loaded,
		Exists:       exists,
		FeatureCount: featureCount,
		Status:       status,
	}
}

func sameFeatures(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
