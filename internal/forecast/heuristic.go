// internal/forecast/heuristic.go
package forecast

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/medstock/backend-go/internal/domain"
	"github.com/medstock/backend-go/internal/repository"
)

// maxConsumptionSamples caps how much transaction history feeds the
// usage estimate.
const maxConsumptionSamples = 90

// HeuristicForecaster is the model-free path: it estimates daily usage
// from recent consumption history and linearly projects the stockout
// date. It is also the component that owns the standing-alert
// lifecycle.
type HeuristicForecaster struct {
	inventories  repository.InventoryRepository
	transactions repository.TransactionRepository
	alerts       repository.AlertRepository
	horizonDays  int
	now          func() time.Time
}

func NewHeuristicForecaster(
	inventories repository.InventoryRepository,
	transactions repository.TransactionRepository,
	alerts repository.AlertRepository,
	horizonDays int,
) *HeuristicForecaster {
	if horizonDays <= 0 {
		horizonDays = 30
	}
	return &HeuristicForecaster{
		inventories:  inventories,
		transactions: transactions,
		alerts:       alerts,
		horizonDays:  horizonDays,
		now:          time.Now,
	}
}

// Forecast projects the stockout for one inventory within horizonDays
// (0 uses the configured default). A nil result with nil error means
// no actionable shortage: usage is zero or the stockout falls beyond
// the horizon.
func (f *HeuristicForecaster) Forecast(ctx context.Context, inventoryID int64, horizonDays int) (*domain.ForecastResult, error) {
	if horizonDays <= 0 {
		horizonDays = f.horizonDays
	}

	inv, err := f.inventories.GetByID(ctx, inventoryID)
	if err != nil {
		return nil, err
	}

	txns, err := f.transactions.RecentConsumption(ctx, inventoryID, maxConsumptionSamples)
	if err != nil {
		return nil, err
	}

	usage, samples := estimateDailyUsage(txns, inv.AverageDailyUsage)
	if usage <= 0 {
		// No consumption signal at all; nothing to project.
		return nil, nil
	}

	daysRemaining := int(math.Floor(float64(inv.CurrentStock) / usage))
	if daysRemaining > horizonDays {
		return nil, nil
	}

	now := f.now()
	shortage := int(math.Ceil(float64(horizonDays-daysRemaining) * usage))

	return &domain.ForecastResult{
		InventoryID:      inv.ID,
		HospitalID:       inv.HospitalID,
		MedicineID:       inv.MedicineID,
		HospitalName:     inv.HospitalName,
		MedicineName:     inv.MedicineName,
		CurrentStock:     inv.CurrentStock,
		EstimatedUsage:   usage,
		DaysRemaining:    daysRemaining,
		StockoutDate:     now.AddDate(0, 0, daysRemaining),
		ShortageQuantity: shortage,
		Severity:         SeverityForDays(daysRemaining),
		ConfidenceScore:  ConfidenceForSamples(samples),
		SampleSize:       samples,
	}, nil
}

// estimateDailyUsage averages the absolute quantities of recent
// consumption transactions, falling back to the stored average when
// there is no history. The sample count feeds the confidence score.
func estimateDailyUsage(txns []domain.InventoryTransaction, storedAverage float64) (usage float64, samples int) {
	if len(txns) == 0 {
		return storedAverage, 0
	}
	var total float64
	for _, tx := range txns {
		total += math.Abs(float64(tx.Quantity))
	}
	return total / float64(len(txns)), len(txns)
}

// SeverityForDays tiers a forecast by how close the stockout is.
func SeverityForDays(daysRemaining int) domain.RiskTier {
	switch {
	case daysRemaining <= 3:
		return domain.RiskCritical
	case daysRemaining <= 7:
		return domain.RiskHigh
	case daysRemaining <= 15:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

// ConfidenceForSamples is a heuristic trust score over the usage
// sample size, not a statistical confidence interval.
func ConfidenceForSamples(samples int) float64 {
	switch {
	case samples >= 60:
		return 95.0
	case samples >= 30:
		return 85.0
	case samples >= 15:
		return 75.0
	default:
		return 60.0
	}
}

// CreateOrUpdateAlert upserts the standing ACTIVE alert for the
// forecast's inventory and returns the alert id.
func (f *HeuristicForecaster) CreateOrUpdateAlert(ctx context.Context, fc *domain.ForecastResult) (string, error) {
	alert := &domain.Alert{
		HospitalID:        fc.HospitalID,
		MedicineID:        fc.MedicineID,
		InventoryID:       fc.InventoryID,
		Severity:          fc.Severity,
		Status:            domain.AlertActive,
		CurrentStock:      fc.CurrentStock,
		PredictedStockout: fc.StockoutDate,
		ShortageQuantity:  fc.ShortageQuantity,
		ConfidenceScore:   fc.ConfidenceScore,
		Message:           alertMessage(fc),
	}

	id, created, err := f.alerts.Upsert(ctx, alert)
	if err != nil {
		return "", fmt.Errorf("upsert alert for inventory %d: %w", fc.InventoryID, err)
	}

	log.Info().
		Str("alert_id", id).
		Bool("created", created).
		Int64("inventory_id", fc.InventoryID).
		Str("severity", string(fc.Severity)).
		Int("days_remaining", fc.DaysRemaining).
		Msg("heuristic forecast: alert upserted")
	return id, nil
}

func alertMessage(fc *domain.ForecastResult) string {
	return fmt.Sprintf("%s: %s at %s is projected to stock out in %d days (current stock %d, projected shortfall %d units)",
		fc.Severity, fc.MedicineName, fc.HospitalName,
		fc.DaysRemaining, fc.CurrentStock, fc.ShortageQuantity)
}

// RunForHospital forecasts every inventory of one hospital and upserts
// alerts for each actionable result. Per-inventory failures are logged
// and skipped so one bad record never aborts the run.
func (f *HeuristicForecaster) RunForHospital(ctx context.Context, hospitalID int64) ([]string, error) {
	inventories, err := f.inventories.ListByHospital(ctx, hospitalID)
	if err != nil {
		return nil, err
	}
	return f.run(ctx, inventories), nil
}

// RunForAllHospitals forecasts every inventory record in the system.
func (f *HeuristicForecaster) RunForAllHospitals(ctx context.Context) ([]string, error) {
	inventories, err := f.inventories.ListAll(ctx, 0)
	if err != nil {
		return nil, err
	}
	return f.run(ctx, inventories), nil
}

func (f *HeuristicForecaster) run(ctx context.Context, inventories []domain.Inventory) []string {
	alertIDs := make([]string, 0)
	for _, inv := range inventories {
		fc, err := f.Forecast(ctx, inv.ID, 0)
		if err != nil {
			log.Warn().Err(err).Int64("inventory_id", inv.ID).Msg("heuristic forecast: skipping inventory")
			continue
		}
		if fc == nil {
			continue
		}
		id, err := f.CreateOrUpdateAlert(ctx, fc)
		if err != nil {
			log.Warn().Err(err).Int64("inventory_id", inv.ID).Msg("heuristic forecast: alert upsert failed")
			continue
		}
		alertIDs = append(alertIDs, id)
	}
	return alertIDs
}
