// internal/repository/postgres/observation_repository.go
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/medstock/backend-go/internal/domain"
	"github.com/medstock/backend-go/internal/repository"
)

type observationRepository struct {
	db *sqlx.DB
}

// NewObservationRepository builds the observation source: every
// inventory row joined with its medicine category and hospital
// metadata, shaped as one Observation per row.
func NewObservationRepository(db *sqlx.DB) repository.ObservationRepository {
	return &observationRepository{db: db}
}

type observationRow struct {
	HospitalID       int64     `db:"hospital_id"`
	MedicineID       int64     `db:"medicine_id"`
	CurrentStock     int       `db:"current_stock"`
	DailyConsumption float64   `db:"daily_consumption"`
	ReorderLevel     int       `db:"reorder_level"`
	DrugCategory     string    `db:"drug_category"`
	HospitalType     string    `db:"hospital_type"`
	BedCapacity      int       `db:"bed_capacity"`
	LastUpdated      time.Time `db:"last_updated"`
}

const observationSelect = `
	SELECT
		i.hospital_id, i.medicine_id,
		COALESCE(i.current_stock, 0) AS current_stock,
		COALESCE(i.average_daily_usage, 0) AS daily_consumption,
		COALESCE(i.reorder_level, 50) AS reorder_level,
		COALESCE(m.category, '') AS drug_category,
		COALESCE(h.hospital_type, '') AS hospital_type,
		COALESCE(h.bed_capacity, 100) AS bed_capacity,
		i.last_updated
	FROM inventory i
	JOIN medicines m ON m.id = i.medicine_id
	JOIN hospitals h ON h.id = i.hospital_id
`

func (r *observationRepository) FetchObservations(ctx context.Context) ([]domain.Observation, error) {
	var rows []observationRow
	if err := r.db.SelectContext(ctx, &rows, observationSelect); err != nil {
		return nil, fmt.Errorf("error fetching observations: %w", err)
	}
	return mapObservationRows(rows), nil
}

func (r *observationRepository) FetchByHospital(ctx context.Context, hospitalID int64) ([]domain.Observation, error) {
	var rows []observationRow
	err := r.db.SelectContext(ctx, &rows, observationSelect+" WHERE i.hospital_id = $1", hospitalID)
	if err != nil {
		return nil, fmt.Errorf("error fetching observations for hospital %d: %w", hospitalID, err)
	}
	return mapObservationRows(rows), nil
}

func mapObservationRows(rows []observationRow) []domain.Observation {
	observations := make([]domain.Observation, 0, len(rows))
	for _, row := range rows {
		observedAt := row.LastUpdated
		observations = append(observations, domain.Observation{
			HospitalID:       row.HospitalID,
			MedicineID:       row.MedicineID,
			CurrentStock:     row.CurrentStock,
			DailyConsumption: row.DailyConsumption,
			ReorderLevel:     row.ReorderLevel,
			DrugCategory:     row.DrugCategory,
			HospitalType:     row.HospitalType,
			HospitalBedCount: row.BedCapacity,
			ObservedAt:       &observedAt,
		})
	}
	return observations
}
