// internal/forecast/tree.go
package forecast

import (
	"math"
	"math/rand"
	"sort"
)

// treeNode is one node of a regression tree. Leaves carry Value; inner
// nodes split on Feature at Threshold (left: <=, right: >).
type treeNode struct {
	Feature   int       `json:"f,omitempty"`
	Threshold float64   `json:"t,omitempty"`
	Left      *treeNode `json:"l,omitempty"`
	Right     *treeNode `json:"r,omitempty"`
	Leaf      bool      `json:"leaf,omitempty"`
	Value     float64   `json:"v"`
}

func (n *treeNode) predict(x []float64) float64 {
	for !n.Leaf {
		if x[n.Feature] <= n.Threshold {
			n = n.Left
		} else {
			n = n.Right
		}
	}
	return n.Value
}

// treeParams controls tree growth. When featureSample > 0 each split
// considers only a random subset of that many features (random-forest
// style); rng must then be non-nil.
type treeParams struct {
	maxDepth      int
	minLeaf       int
	maxThresholds int
	featureSample int
	rng           *rand.Rand
}

// leafValue lets the boosting path replace the mean-target leaf with a
// Newton-step leaf; nil keeps the plain mean.
type leafValue func(indices []int) float64

// growTree builds a regression tree over the rows in indices. gain
// accumulates per-feature split gain for feature importances.
func growTree(X [][]float64, target []float64, indices []int, depth int, p treeParams, leaf leafValue, gain []float64) *treeNode {
	if depth >= p.maxDepth || len(indices) < 2*p.minLeaf || constantTarget(target, indices) {
		return makeLeaf(target, indices, leaf)
	}

	feature, threshold, bestGain, ok := bestSplit(X, target, indices, p)
	if !ok {
		return makeLeaf(target, indices, leaf)
	}
	if gain != nil {
		gain[feature] += bestGain
	}

	var left, right []int
	for _, i := range indices {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &treeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      growTree(X, target, left, depth+1, p, leaf, gain),
		Right:     growTree(X, target, right, depth+1, p, leaf, gain),
	}
}

func makeLeaf(target []float64, indices []int, leaf leafValue) *treeNode {
	if leaf != nil {
		return &treeNode{Leaf: true, Value: leaf(indices)}
	}
	var sum float64
	for _, i := range indices {
		sum += target[i]
	}
	return &treeNode{Leaf: true, Value: sum / float64(len(indices))}
}

func constantTarget(target []float64, indices []int) bool {
	first := target[indices[0]]
	for _, i := range indices[1:] {
		if target[i] != first {
			return false
		}
	}
	return true
}

// bestSplit scans candidate thresholds per feature and returns the
// split with the largest variance reduction. Candidates are quantile
// midpoints so wide numeric features stay cheap to scan.
func bestSplit(X [][]float64, target []float64, indices []int, p treeParams) (feature int, threshold, gain float64, ok bool) {
	nFeatures := len(X[0])
	features := make([]int, nFeatures)
	for i := range features {
		features[i] = i
	}
	if p.featureSample > 0 && p.featureSample < nFeatures {
		p.rng.Shuffle(nFeatures, func(i, j int) { features[i], features[j] = features[j], features[i] })
		features = features[:p.featureSample]
		// Deterministic scan order given the seed.
		sort.Ints(features)
	}

	total := sumAndSq(target, indices)
	bestGain := 0.0
	ok = false

	values := make([]float64, 0, len(indices))
	for _, f := range features {
		values = values[:0]
		for _, i := range indices {
			values = append(values, X[i][f])
		}
		candidates := thresholdCandidates(values, p.maxThresholds)
		for _, t := range candidates {
			var leftStats, rightStats stats
			for _, i := range indices {
				if X[i][f] <= t {
					leftStats.add(target[i])
				} else {
					rightStats.add(target[i])
				}
			}
			if leftStats.n < p.minLeaf || rightStats.n < p.minLeaf {
				continue
			}
			g := total.sse() - leftStats.sse() - rightStats.sse()
			if g > bestGain {
				bestGain, feature, threshold, ok = g, f, t, true
			}
		}
	}
	return feature, threshold, bestGain, ok
}

type stats struct {
	n   int
	sum float64
	sq  float64
}

func (s *stats) add(v float64) {
	s.n++
	s.sum += v
	s.sq += v * v
}

// sse is the sum of squared errors around the mean.
func (s stats) sse() float64 {
	if s.n == 0 {
		return 0
	}
	return s.sq - s.sum*s.sum/float64(s.n)
}

func sumAndSq(target []float64, indices []int) stats {
	var s stats
	for _, i := range indices {
		s.add(target[i])
	}
	return s
}

// thresholdCandidates returns up to max midpoints between sorted unique
// values.
func thresholdCandidates(values []float64, max int) []float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	unique := sorted[:0]
	for i, v := range sorted {
		if i == 0 || v != unique[len(unique)-1] {
			unique = append(unique, v)
		}
	}
	if len(unique) < 2 {
		return nil
	}

	if len(unique)-1 <= max {
		out := make([]float64, 0, len(unique)-1)
		for i := 1; i < len(unique); i++ {
			out = append(out, (unique[i-1]+unique[i])/2)
		}
		return out
	}

	out := make([]float64, 0, max)
	step := float64(len(unique)-1) / float64(max)
	for k := 0; k < max; k++ {
		i := int(math.Round(step*float64(k+1))) - 1
		if i < 0 {
			i = 0
		}
		if i >= len(unique)-1 {
			i = len(unique) - 2
		}
		c := (unique[i] + unique[i+1]) / 2
		if len(out) == 0 || c != out[len(out)-1] {
			out = append(out, c)
		}
	}
	return out
}
