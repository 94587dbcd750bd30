// internal/forecast/encode.go
package forecast

import (
	"math"
	"sort"
)

// LabelEncoder maps categorical values to stable integer codes. Codes
// are assigned by sorting the classes seen at fit time; values never
// seen before map to the reserved code len(Classes) instead of failing.
type LabelEncoder struct {
	Classes []string `json:"classes"`

	index map[string]int
}

// unknownCategory is substituted for empty categorical values, the way
// the training pipeline fills blanks before encoding.
const unknownCategory = "Unknown"

// FitLabels assigns codes to the sorted unique values.
func FitLabels(values []string) *LabelEncoder {
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == "" {
			v = unknownCategory
		}
		seen[v] = struct{}{}
	}
	classes := make([]string, 0, len(seen))
	for v := range seen {
		classes = append(classes, v)
	}
	sort.Strings(classes)

	le := &LabelEncoder{Classes: classes}
	le.buildIndex()
	return le
}

func (le *LabelEncoder) buildIndex() {
	le.index = make(map[string]int, len(le.Classes))
	for i, c := range le.Classes {
		le.index[c] = i
	}
}

// Encode returns the code for v, or the reserved unknown code when v
// was never seen at fit time. A nil encoder encodes everything to 0.
func (le *LabelEncoder) Encode(v string) int {
	if le == nil {
		return 0
	}
	if le.index == nil {
		le.buildIndex()
	}
	if v == "" {
		v = unknownCategory
	}
	if code, ok := le.index[v]; ok {
		return code
	}
	return len(le.Classes)
}

// StandardScaler standardizes features to zero mean and unit variance,
// using statistics fit on the training split only.
type StandardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// FitScaler computes per-column mean and standard deviation. Constant
// columns get std 1 so transforming them is a no-op shift.
func FitScaler(X [][]float64) *StandardScaler {
	if len(X) == 0 {
		return &StandardScaler{}
	}
	cols := len(X[0])
	mean := make([]float64, cols)
	std := make([]float64, cols)

	for _, row := range X {
		for j, v := range row {
			mean[j] += v
		}
	}
	n := float64(len(X))
	for j := range mean {
		mean[j] /= n
	}
	for _, row := range X {
		for j, v := range row {
			d := v - mean[j]
			std[j] += d * d
		}
	}
	for j := range std {
		std[j] = math.Sqrt(std[j] / n)
		if std[j] == 0 {
			std[j] = 1
		}
	}
	return &StandardScaler{Mean: mean, Std: std}
}

// Transform returns a standardized copy of x.
func (s *StandardScaler) Transform(x []float64) []float64 {
	if len(s.Mean) == 0 {
		out := make([]float64, len(x))
		copy(out, x)
		return out
	}
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.Mean[j]) / s.Std[j]
	}
	return out
}

// TransformAll standardizes every row.
func (s *StandardScaler) TransformAll(X [][]float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		out[i] = s.Transform(row)
	}
	return out
}
