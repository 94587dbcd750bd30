// internal/forecast/classifier.go
package forecast

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
)

// BinaryClassifier is the trained-learner abstraction: fit once on a
// labeled matrix, then score the probability of the positive
// ("shortage") class. Implementations must be safe for concurrent
// PredictProba calls after Fit returns.
type BinaryClassifier interface {
	Fit(X [][]float64, y []int) error
	PredictProba(x []float64) float64
	FeatureImportances() []float64
	Name() string
}

// Classifier names accepted by NewClassifier and stored in bundles.
const (
	ClassifierGradientBoosting = "gbt"
	ClassifierRandomForest     = "rf"
)

// NewClassifier builds a classifier by name with its default
// hyperparameters and the given seed.
func NewClassifier(name string, seed int64) (BinaryClassifier, error) {
	switch name {
	case ClassifierGradientBoosting, "":
		return NewGradientBoosting(seed), nil
	case ClassifierRandomForest:
		return NewRandomForest(seed), nil
	}
	return nil, fmt.Errorf("unknown classifier %q", name)
}

// GradientBoosting is boosted regression trees on the logistic loss.
// Each round fits a tree to the gradient residuals and takes a Newton
// step in the leaves, scaled by the learning rate.
type GradientBoosting struct {
	NEstimators  int         `json:"n_estimators"`
	MaxDepth     int         `json:"max_depth"`
	LearningRate float64     `json:"learning_rate"`
	Subsample    float64     `json:"subsample"`
	Seed         int64       `json:"seed"`
	Bias         float64     `json:"bias"`
	Trees        []*treeNode `json:"trees"`
	Importances  []float64   `json:"importances"`
}

// NewGradientBoosting returns an unfit model with the defaults carried
// over from the reference training setup.
func NewGradientBoosting(seed int64) *GradientBoosting {
	return &GradientBoosting{
		NEstimators:  120,
		MaxDepth:     3,
		LearningRate: 0.1,
		Subsample:    0.8,
		Seed:         seed,
	}
}

func (g *GradientBoosting) Name() string { return ClassifierGradientBoosting }

func (g *GradientBoosting) Fit(X [][]float64, y []int) error {
	if err := checkTrainingData(X, y); err != nil {
		return err
	}
	n := len(X)
	rng := rand.New(rand.NewSource(g.Seed))

	// Prior log-odds.
	pos := 0
	for _, label := range y {
		pos += label
	}
	prior := float64(pos) / float64(n)
	prior = math.Min(math.Max(prior, 1e-6), 1-1e-6)
	g.Bias = math.Log(prior / (1 - prior))

	scores := make([]float64, n)
	for i := range scores {
		scores[i] = g.Bias
	}

	residual := make([]float64, n)
	gain := make([]float64, len(X[0]))
	params := treeParams{maxDepth: g.MaxDepth, minLeaf: 5, maxThresholds: 16}

	g.Trees = make([]*treeNode, 0, g.NEstimators)
	for round := 0; round < g.NEstimators; round++ {
		probs := make([]float64, n)
		for i, s := range scores {
			probs[i] = sigmoid(s)
			residual[i] = float64(y[i]) - probs[i]
		}

		indices := subsampleIndices(n, g.Subsample, rng)

		// Newton-step leaf: sum(residual) / sum(p(1-p)), scaled by the
		// learning rate so prediction is just bias + sum of leaves.
		leaf := func(rows []int) float64 {
			var num, den float64
			for _, i := range rows {
				num += residual[i]
				den += probs[i] * (1 - probs[i])
			}
			if den < 1e-9 {
				return 0
			}
			return g.LearningRate * num / den
		}

		tree := growTree(X, residual, indices, 0, params, leaf, gain)
		g.Trees = append(g.Trees, tree)
		for i := range scores {
			scores[i] += tree.predict(X[i])
		}
	}

	g.Importances = normalizeGain(gain)
	return nil
}

func (g *GradientBoosting) PredictProba(x []float64) float64 {
	score := g.Bias
	for _, t := range g.Trees {
		score += t.predict(x)
	}
	return sigmoid(score)
}

func (g *GradientBoosting) FeatureImportances() []float64 { return g.Importances }

// RandomForest is bagged regression trees on 0/1 targets; the averaged
// leaf means are the positive-class probability.
type RandomForest struct {
	NEstimators int         `json:"n_estimators"`
	MaxDepth    int         `json:"max_depth"`
	Seed        int64       `json:"seed"`
	Trees       []*treeNode `json:"trees"`
	Importances []float64   `json:"importances"`
}

func NewRandomForest(seed int64) *RandomForest {
	return &RandomForest{
		NEstimators: 100,
		MaxDepth:    8,
		Seed:        seed,
	}
}

func (f *RandomForest) Name() string { return ClassifierRandomForest }

func (f *RandomForest) Fit(X [][]float64, y []int) error {
	if err := checkTrainingData(X, y); err != nil {
		return err
	}
	n := len(X)
	nFeatures := len(X[0])
	rng := rand.New(rand.NewSource(f.Seed))

	target := make([]float64, n)
	for i, label := range y {
		target[i] = float64(label)
	}

	gain := make([]float64, nFeatures)
	featureSample := int(math.Ceil(math.Sqrt(float64(nFeatures))))

	f.Trees = make([]*treeNode, 0, f.NEstimators)
	for round := 0; round < f.NEstimators; round++ {
		// Bootstrap sample with replacement.
		indices := make([]int, n)
		for i := range indices {
			indices[i] = rng.Intn(n)
		}
		params := treeParams{
			maxDepth:      f.MaxDepth,
			minLeaf:       2,
			maxThresholds: 16,
			featureSample: featureSample,
			rng:           rng,
		}
		f.Trees = append(f.Trees, growTree(X, target, indices, 0, params, nil, gain))
	}

	f.Importances = normalizeGain(gain)
	return nil
}

func (f *RandomForest) PredictProba(x []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	var sum float64
	for _, t := range f.Trees {
		sum += t.predict(x)
	}
	p := sum / float64(len(f.Trees))
	return math.Min(math.Max(p, 0), 1)
}

func (f *RandomForest) FeatureImportances() []float64 { return f.Importances }

func checkTrainingData(X [][]float64, y []int) error {
	if len(X) == 0 || len(X) != len(y) {
		return fmt.Errorf("%w: %d rows, %d labels", ErrInsufficientData, len(X), len(y))
	}
	return nil
}

func subsampleIndices(n int, fraction float64, rng *rand.Rand) []int {
	if fraction >= 1 {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all
	}
	k := int(float64(n) * fraction)
	if k < 1 {
		k = 1
	}
	perm := rng.Perm(n)[:k]
	return perm
}

func normalizeGain(gain []float64) []float64 {
	var total float64
	for _, g := range gain {
		total += g
	}
	out := make([]float64, len(gain))
	if total == 0 {
		return out
	}
	for i, g := range gain {
		out[i] = g / total
	}
	return out
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// classifierEnvelope wraps a serialized classifier with its name so
// the store can round-trip the concrete type.
type classifierEnvelope struct {
	Name  string          `json:"name"`
	Model json.RawMessage `json:"model"`
}

func encodeClassifier(c BinaryClassifier) ([]byte, error) {
	model, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return json.Marshal(classifierEnvelope{Name: c.Name(), Model: model})
}

func decodeClassifier(data []byte) (BinaryClassifier, error) {
	var env classifierEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	switch env.Name {
	case ClassifierGradientBoosting:
		var g GradientBoosting
		if err := json.Unmarshal(env.Model, &g); err != nil {
			return nil, err
		}
		return &g, nil
	case ClassifierRandomForest:
		var f RandomForest
		if err := json.Unmarshal(env.Model, &f); err != nil {
			return nil, err
		}
		return &f, nil
	}
	return nil, fmt.Errorf("unknown classifier %q in bundle", env.Name)
}
