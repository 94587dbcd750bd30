// internal/domain/models.go
package domain

import "time"

// Hospital carries the metadata the engine uses as categorical and
// scale features. The full hospital record lives in the CRUD layer.
type Hospital struct {
	ID           int64  `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	HospitalType string `json:"hospital_type" db:"hospital_type"`
	BedCapacity  int    `json:"bed_capacity" db:"bed_capacity"`
}

// Inventory is one hospital/medicine stock record.
type Inventory struct {
	ID                int64      `json:"id" db:"id"`
	HospitalID        int64      `json:"hospital_id" db:"hospital_id"`
	HospitalName      string     `json:"hospital_name" db:"hospital_name"`
	MedicineID        int64      `json:"medicine_id" db:"medicine_id"`
	MedicineName      string     `json:"medicine_name" db:"medicine_name"`
	CurrentStock      int        `json:"current_stock" db:"current_stock"`
	ReorderLevel      int        `json:"reorder_level" db:"reorder_level"`
	MaxCapacity       int        `json:"max_capacity" db:"max_capacity"`
	AverageDailyUsage float64    `json:"average_daily_usage" db:"average_daily_usage"`
	LastRestockedDate *time.Time `json:"last_restocked_date" db:"last_restocked_date"`
	LastUpdated       time.Time  `json:"last_updated" db:"last_updated"`
}

// Transaction types as recorded by the inventory ledger.
const (
	TxPurchase    = "PURCHASE"
	TxConsumption = "CONSUMPTION"
	TxTransferIn  = "TRANSFER_IN"
	TxTransferOut = "TRANSFER_OUT"
	TxAdjustment  = "ADJUSTMENT"
	TxExpired     = "EXPIRED"
)

// InventoryTransaction is a single signed stock movement.
type InventoryTransaction struct {
	ID              int64     `json:"id" db:"id"`
	InventoryID     int64     `json:"inventory_id" db:"inventory_id"`
	TransactionType string    `json:"transaction_type" db:"transaction_type"`
	Quantity        int       `json:"quantity" db:"quantity"`
	TransactionDate time.Time `json:"transaction_date" db:"transaction_date"`
}

// Observation is one point-in-time inventory snapshot fed to the
// predictor. It is built per call and never persisted by the engine.
type Observation struct {
	HospitalID       int64      `json:"hospital_id"`
	MedicineID       int64      `json:"medicine_id"`
	CurrentStock     int        `json:"current_stock"`
	DailyConsumption float64    `json:"daily_consumption"`
	ReorderLevel     int        `json:"reorder_level"`
	DrugCategory     string     `json:"drug_category"`
	HospitalType     string     `json:"hospital_type"`
	HospitalBedCount int        `json:"hospital_bed_count"`
	ObservedAt       *time.Time `json:"observed_at,omitempty"`
}

// Risk tiers, ordered. Rank makes tier comparisons explicit.
type RiskTier string

const (
	RiskLow      RiskTier = "LOW"
	RiskMedium   RiskTier = "MEDIUM"
	RiskHigh     RiskTier = "HIGH"
	RiskCritical RiskTier = "CRITICAL"
)

// Rank returns the position of the tier in LOW < MEDIUM < HIGH < CRITICAL.
func (r RiskTier) Rank() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	case RiskCritical:
		return 3
	}
	return -1
}

// PredictionInput is a single prediction request. Optional fields
// degrade to documented defaults instead of failing the request.
type PredictionInput struct {
	HospitalID       int64   `json:"hospital_id" binding:"required"`
	MedicineID       int64   `json:"medicine_id" binding:"required"`
	CurrentStock     int     `json:"current_stock"`
	DailyConsumption float64 `json:"daily_consumption"`
	ReorderLevel     *int    `json:"reorder_level,omitempty"`
	DrugCategory     string  `json:"drug_category,omitempty"`
}

// PredictionResult is the ML path's output for one observation.
type PredictionResult struct {
	HospitalID          int64    `json:"hospital_id,omitempty"`
	MedicineID          int64    `json:"medicine_id,omitempty"`
	ShortagePredicted   bool     `json:"shortage_predicted"`
	ShortageProbability float64  `json:"shortage_probability"`
	RiskTier            RiskTier `json:"risk_level"`
	Recommendation      string   `json:"recommendation"`
	Confidence          float64  `json:"confidence"`
	DaysOfSupply        float64  `json:"days_of_supply"`
}

// ForecastResult is the heuristic path's output. Confidence is a
// trust score derived from sample size, not a statistical interval.
type ForecastResult struct {
	InventoryID      int64     `json:"inventory_id"`
	HospitalID       int64     `json:"hospital_id"`
	MedicineID       int64     `json:"medicine_id"`
	HospitalName     string    `json:"hospital_name"`
	MedicineName     string    `json:"medicine_name"`
	CurrentStock     int       `json:"current_stock"`
	EstimatedUsage   float64   `json:"estimated_daily_usage"`
	DaysRemaining    int       `json:"days_remaining"`
	StockoutDate     time.Time `json:"projected_stockout_date"`
	ShortageQuantity int       `json:"shortage_quantity"`
	Severity         RiskTier  `json:"severity"`
	ConfidenceScore  float64   `json:"confidence_score"`
	SampleSize       int       `json:"sample_size"`
}

// Alert statuses. Only one ACTIVE alert may exist per inventory.
const (
	AlertActive       = "ACTIVE"
	AlertAcknowledged = "ACKNOWLEDGED"
	AlertResolved     = "RESOLVED"
	AlertIgnored      = "IGNORED"
)

// Alert is a standing shortage warning for one inventory record.
type Alert struct {
	ID                string    `json:"id" db:"id"`
	HospitalID        int64     `json:"hospital_id" db:"hospital_id"`
	MedicineID        int64     `json:"medicine_id" db:"medicine_id"`
	InventoryID       int64     `json:"inventory_id" db:"inventory_id"`
	Severity          RiskTier  `json:"severity" db:"severity"`
	Status            string    `json:"status" db:"status"`
	CurrentStock      int       `json:"current_stock" db:"current_stock"`
	PredictedStockout time.Time `json:"predicted_stockout_date" db:"predicted_stockout_date"`
	ShortageQuantity  int       `json:"predicted_shortage_quantity" db:"predicted_shortage_quantity"`
	ConfidenceScore   float64   `json:"confidence_score" db:"confidence_score"`
	Message           string    `json:"message" db:"message"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" db:"updated_at"`
}

// ModelStatus reports whether the prediction path is usable.
type ModelStatus struct {
	Loaded       bool   `json:"model_loaded"`
	Exists       bool   `json:"models_exist"`
	FeatureCount int    `json:"feature_count"`
	Status       string `json:"status"`
}

// RiskSummary counts batch predictions per tier.
type RiskSummary struct {
	Low      int `json:"LOW"`
	Medium   int `json:"MEDIUM"`
	High     int `json:"HIGH"`
	Critical int `json:"CRITICAL"`
}

// BatchFilter scopes a batch prediction run. A zero HospitalID means
// all hospitals.
type BatchFilter struct {
	HospitalID int64 `json:"hospital_id,omitempty"`
	Limit      int   `json:"limit,omitempty"`
}

// BatchPrediction is a ranked batch run: every inventory evaluated,
// results capped and sorted by descending risk.
type BatchPrediction struct {
	Total        int                `json:"total_evaluated"`
	ModelVersion string             `json:"model_version"`
	Summary      RiskSummary        `json:"risk_summary"`
	Results      []PredictionResult `json:"results"`
	GeneratedAt  time.Time          `json:"generated_at"`
}
