// internal/service/prediction_service.go
package service

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/medstock/backend-go/internal/cache"
	"github.com/medstock/backend-go/internal/domain"
	"github.com/medstock/backend-go/internal/forecast"
	"github.com/medstock/backend-go/internal/repository"
)

const (
	defaultDrugCategory = "General"
	defaultHospitalType = "General"
	defaultBedCount     = 100
	reorderHorizonDays  = 7
	maxBatchResults     = 50
	alertProjectionDays = 30
)

// PredictionService fronts the trained-model path: single and batch
// scoring, training, and model status. Alert creation on high-risk
// predictions is best effort and never fails the prediction itself.
type PredictionService struct {
	predictor    *forecast.ShortagePredictor
	trainer      *forecast.Trainer
	observations repository.ObservationRepository
	inventories  repository.InventoryRepository
	hospitals    repository.HospitalRepository
	alerts       repository.AlertRepository
	cache        cache.RiskCache
	batchLimit   int
	now          func() time.Time
}

func NewPredictionService(
	predictor *forecast.ShortagePredictor,
	trainer *forecast.Trainer,
	observations repository.ObservationRepository,
	inventories repository.InventoryRepository,
	hospitals repository.HospitalRepository,
	alerts repository.AlertRepository,
	cacheImpl cache.RiskCache,
	batchLimit int,
) *PredictionService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopRiskCache()
	}
	if batchLimit <= 0 || batchLimit > maxBatchResults {
		batchLimit = maxBatchResults
	}
	return &PredictionService{
		predictor:    predictor,
		trainer:      trainer,
		observations: observations,
		inventories:  inventories,
		hospitals:    hospitals,
		alerts:       alerts,
		cache:        cacheImpl,
		batchLimit:   batchLimit,
		now:          time.Now,
	}
}

// Predict scores one request. Missing reorder level defaults to seven
// days of consumption, missing category to General, and unknown
// hospitals degrade to General/100-bed metadata rather than failing.
func (s *PredictionService) Predict(ctx context.Context, input domain.PredictionInput) (*domain.PredictionResult, error) {
	obs := s.buildObservation(ctx, input)

	result, err := s.predictor.Predict(obs)
	if err != nil {
		return nil, err
	}

	if result.RiskTier.Rank() >= domain.RiskHigh.Rank() {
		s.maybeCreateAlert(ctx, obs, result)
	}
	return result, nil
}

func (s *PredictionService) buildObservation(ctx context.Context, input domain.PredictionInput) domain.Observation {
	category := input.DrugCategory
	if category == "" {
		category = defaultDrugCategory
	}

	reorder := 0
	if input.ReorderLevel != nil {
		reorder = *input.ReorderLevel
	} else {
		reorder = int(input.DailyConsumption * reorderHorizonDays)
	}

	hospitalType := defaultHospitalType
	bedCount := defaultBedCount
	if hospital, err := s.hospitals.GetByID(ctx, input.HospitalID); err == nil {
		hospitalType = hospital.HospitalType
		bedCount = hospital.BedCapacity
	} else if !errors.Is(err, repository.ErrNotFound) {
		log.Warn().Err(err).Int64("hospital_id", input.HospitalID).Msg("predict: hospital lookup failed, using defaults")
	}

	return domain.Observation{
		HospitalID:       input.HospitalID,
		MedicineID:       input.MedicineID,
		CurrentStock:     input.CurrentStock,
		DailyConsumption: input.DailyConsumption,
		ReorderLevel:     reorder,
		DrugCategory:     category,
		HospitalType:     hospitalType,
		HospitalBedCount: bedCount,
	}
}

// maybeCreateAlert upserts a standing alert for HIGH and CRITICAL
// predictions when the hospital/medicine pair maps to a tracked
// inventory record. Failures are logged, never surfaced.
func (s *PredictionService) maybeCreateAlert(ctx context.Context, obs domain.Observation, result *domain.PredictionResult) {
	inv, err := s.inventories.GetByHospitalAndMedicine(ctx, obs.HospitalID, obs.MedicineID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			log.Warn().Err(err).
				Int64("hospital_id", obs.HospitalID).
				Int64("medicine_id", obs.MedicineID).
				Msg("predict: inventory lookup for alert failed")
		}
		return
	}

	days := result.DaysOfSupply
	shortage := 0
	if days < alertProjectionDays {
		shortage = int(math.Ceil((alertProjectionDays - days) * obs.DailyConsumption))
	}

	now := s.now()
	alert := &domain.Alert{
		HospitalID:        obs.HospitalID,
		MedicineID:        obs.MedicineID,
		InventoryID:       inv.ID,
		Severity:          result.RiskTier,
		Status:            domain.AlertActive,
		CurrentStock:      obs.CurrentStock,
		PredictedStockout: now.Add(time.Duration(days*24) * time.Hour),
		ShortageQuantity:  shortage,
		ConfidenceScore:   result.Confidence * 100,
		Message:           result.Recommendation,
	}

	id, created, err := s.alerts.Upsert(ctx, alert)
	if err != nil {
		log.Warn().Err(err).Int64("inventory_id", inv.ID).Msg("predict: alert upsert failed")
		return
	}
	log.Info().
		Str("alert_id", id).
		Bool("created", created).
		Str("risk_level", string(result.RiskTier)).
		Msg("predict: high-risk alert upserted")
}

// BatchPredict scores every tracked inventory (optionally one
// hospital's), ranked by descending shortage probability. Results are
// capped; the summary always covers the full evaluated set.
func (s *PredictionService) BatchPredict(ctx context.Context, filter domain.BatchFilter) (*domain.BatchPrediction, error) {
	if filter.Limit <= 0 || filter.Limit > s.batchLimit {
		filter.Limit = s.batchLimit
	}

	if batch, ok, err := s.cache.GetBatch(ctx, filter); err == nil && ok {
		return batch, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("batch predict: cache get failed")
	}

	var (
		observations []domain.Observation
		err          error
	)
	if filter.HospitalID > 0 {
		observations, err = s.observations.FetchByHospital(ctx, filter.HospitalID)
	} else {
		observations, err = s.observations.FetchObservations(ctx)
	}
	if err != nil {
		return nil, err
	}

	results, err := s.predictor.BatchPredict(observations)
	if err != nil {
		return nil, err
	}

	var summary domain.RiskSummary
	for _, r := range results {
		switch r.RiskTier {
		case domain.RiskCritical:
			summary.Critical++
		case domain.RiskHigh:
			summary.High++
		case domain.RiskMedium:
			summary.Medium++
		default:
			summary.Low++
		}
	}

	capped := results
	if len(capped) > filter.Limit {
		capped = capped[:filter.Limit]
	}

	batch := &domain.BatchPrediction{
		Total:        len(results),
		ModelVersion: s.predictor.ModelVersion(),
		Summary:      summary,
		Results:      capped,
		GeneratedAt:  s.now(),
	}

	if err := s.cache.SetBatch(ctx, filter, batch); err != nil {
		log.Warn().Err(err).Msg("batch predict: cache set failed")
	}
	return batch, nil
}

// Train runs a full training pass, reloads the predictor, and drops
// any cached batch scores produced by the previous artifact.
func (s *PredictionService) Train(ctx context.Context) (*forecast.Report, error) {
	report, err := s.trainer.Train(ctx)
	if err != nil {
		return nil, err
	}

	s.predictor.Reload()
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("train: cache invalidation failed")
	}

	log.Info().
		Float64("accuracy", report.Accuracy).
		Str("model_version", report.ModelVersion).
		Bool("synthetic_data", report.SyntheticData).
		Msg("training completed")
	return report, nil
}

// ModelStatus reports the predictor's readiness.
func (s *PredictionService) ModelStatus() domain.ModelStatus {
	return s.predictor.Status()
}
