// internal/forecast/synthetic.go
package forecast

import (
	"math"
	"math/rand"
	"time"

	"github.com/medstock/backend-go/internal/domain"
)

// Category and facility pools for synthetic observations. The skew
// rules below must stay consistent with the seasonal/category features
// the builder derives, or the trained model learns the wrong signal.
var (
	syntheticCategories    = []string{"Antibiotic", "Analgesic", "Antiviral", "Antihypertensive", "Insulin"}
	syntheticHospitalTypes = []string{"Government", "Private", "Medical College", "Rural"}
	syntheticBedCounts     = []int{50, 100, 200, 500, 1000}
)

// GenerateSyntheticObservations produces a reproducible training set
// for environments with too little real history. The same seed always
// yields the same observations.
func GenerateSyntheticObservations(n int, seed int64, now time.Time) []domain.Observation {
	rng := rand.New(rand.NewSource(seed))

	observations := make([]domain.Observation, 0, n)
	for i := 0; i < n; i++ {
		category := syntheticCategories[rng.Intn(len(syntheticCategories))]
		hospitalType := syntheticHospitalTypes[rng.Intn(len(syntheticHospitalTypes))]

		stock := rng.Intn(500)
		consumption := float64(1 + rng.Intn(49))
		observedAt := now.AddDate(0, 0, -rng.Intn(365))

		// Monsoon-driven demand: antibiotics run hotter year round in
		// the training distribution.
		if category == "Antibiotic" {
			consumption *= 1.5
		}
		// Rural facilities carry thinner baseline stock.
		if hospitalType == "Rural" {
			stock = int(math.Floor(float64(stock) * 0.7))
		}

		observations = append(observations, domain.Observation{
			HospitalID:       int64(1 + rng.Intn(20)),
			MedicineID:       int64(1 + rng.Intn(50)),
			CurrentStock:     stock,
			DailyConsumption: consumption,
			ReorderLevel:     20 + rng.Intn(80),
			DrugCategory:     category,
			HospitalType:     hospitalType,
			HospitalBedCount: syntheticBedCounts[rng.Intn(len(syntheticBedCounts))],
			ObservedAt:       &observedAt,
		})
	}
	return observations
}
