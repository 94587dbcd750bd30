package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/medstock/backend-go/internal/domain"
	"github.com/medstock/backend-go/internal/forecast"
)

// ForecastService fronts the heuristic path. It needs no trained
// model and stays available when the predictor is not.
type ForecastService struct {
	forecaster *forecast.HeuristicForecaster
}

func NewForecastService(forecaster *forecast.HeuristicForecaster) *ForecastService {
	return &ForecastService{forecaster: forecaster}
}

// ForecastInventory projects one inventory's stockout and upserts the
// standing alert when a shortage is projected. A nil result means no
// shortage within the horizon.
func (s *ForecastService) ForecastInventory(ctx context.Context, inventoryID int64, horizonDays int) (*domain.ForecastResult, error) {
	result, err := s.forecaster.Forecast(ctx, inventoryID, horizonDays)
	if err != nil || result == nil {
		return result, err
	}

	if _, err := s.forecaster.CreateOrUpdateAlert(ctx, result); err != nil {
		log.Warn().Err(err).Int64("inventory_id", inventoryID).Msg("forecast: alert upsert failed")
	}
	return result, nil
}

// Run forecasts every inventory for one hospital, or for all
// hospitals when hospitalID is zero, and returns the upserted alert
// ids.
func (s *ForecastService) Run(ctx context.Context, hospitalID int64) ([]string, error) {
	if hospitalID > 0 {
		return s.forecaster.RunForHospital(ctx, hospitalID)
	}
	return s.forecaster.RunForAllHospitals(ctx)
}
