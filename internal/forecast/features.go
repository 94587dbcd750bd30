// internal/forecast/features.go
package forecast

import (
	"fmt"
	"time"

	"github.com/medstock/backend-go/internal/domain"
)

// daysOfSupplyEpsilon guards the days-of-supply division when daily
// consumption is zero.
const daysOfSupplyEpsilon = 0.01

// FeatureNames is the fixed, ordered feature list. The same names and
// order are used at training and at inference; the model store keeps a
// copy so schema drift is detectable.
var FeatureNames = []string{
	"current_stock",
	"daily_consumption",
	"reorder_level",
	"stock_consumption_ratio",
	"days_of_supply",
	"below_reorder_level",
	"month",
	"day_of_week",
	"week_of_year",
	"is_monsoon",
	"is_flu_season",
	"drug_category_encoded",
	"hospital_type_encoded",
	"bed_count_scaled",
}

// Feature vector indices that other components read back.
const (
	idxDaysOfSupply = 4
)

// FeatureBuilder derives the numeric feature vector from a raw
// observation. It is a pure calculator; the encoders it holds are fit
// once at training time and read-only afterwards.
type FeatureBuilder struct {
	drugCategories *LabelEncoder
	hospitalTypes  *LabelEncoder
	now            func() time.Time
}

// NewFeatureBuilder creates a builder around fitted label encoders.
// Encoders may be nil during encoder fitting itself; Build then maps
// every categorical to code 0.
func NewFeatureBuilder(encoders map[string]*LabelEncoder) *FeatureBuilder {
	b := &FeatureBuilder{now: time.Now}
	if encoders != nil {
		b.drugCategories = encoders[EncoderDrugCategory]
		b.hospitalTypes = encoders[EncoderHospitalType]
	}
	return b
}

// Encoder map keys inside a model bundle.
const (
	EncoderDrugCategory = "drug_category"
	EncoderHospitalType = "hospital_type"
)

// Build turns one observation into the fixed-width feature vector.
// Missing source fields default deterministically; only fields that
// cannot be defaulted (negative stock or consumption) are rejected.
func (b *FeatureBuilder) Build(obs domain.Observation) ([]float64, error) {
	if obs.CurrentStock < 0 {
		return nil, fmt.Errorf("%w: current_stock %d is negative", ErrInvalidObservation, obs.CurrentStock)
	}
	if obs.DailyConsumption < 0 {
		return nil, fmt.Errorf("%w: daily_consumption %.2f is negative", ErrInvalidObservation, obs.DailyConsumption)
	}

	observedAt := b.now()
	if obs.ObservedAt != nil && !obs.ObservedAt.IsZero() {
		observedAt = *obs.ObservedAt
	}

	stock := float64(obs.CurrentStock)
	consumption := obs.DailyConsumption

	month := int(observedAt.Month())
	// Monday-indexed like the training data pipeline expects.
	dayOfWeek := (int(observedAt.Weekday()) + 6) % 7
	_, week := observedAt.ISOWeek()

	vec := make([]float64, len(FeatureNames))
	vec[0] = stock
	vec[1] = consumption
	vec[2] = float64(obs.ReorderLevel)
	vec[3] = stock / (consumption + 1)
	vec[4] = stock / (consumption + daysOfSupplyEpsilon)
	if obs.CurrentStock < obs.ReorderLevel {
		vec[5] = 1
	}
	vec[6] = float64(month)
	vec[7] = float64(dayOfWeek)
	vec[8] = float64(week)
	vec[9] = boolToFloat(isMonsoon(month))
	vec[10] = boolToFloat(isFluSeason(month))
	vec[11] = float64(b.drugCategories.Encode(obs.DrugCategory))
	vec[12] = float64(b.hospitalTypes.Encode(obs.HospitalType))
	if obs.HospitalBedCount > 0 {
		vec[13] = float64(obs.HospitalBedCount) / 1000
	}

	return vec, nil
}

// isMonsoon reports the June-September monsoon months.
func isMonsoon(month int) bool {
	return month >= 6 && month <= 9
}

// isFluSeason reports the October-February winter/flu months.
func isFluSeason(month int) bool {
	return month >= 10 || month <= 2
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
