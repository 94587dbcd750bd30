// internal/repository/postgres/inventory_repository.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/medstock/backend-go/internal/domain"
	"github.com/medstock/backend-go/internal/repository"
)

const defaultInventoryLimit = 1000

const inventorySelect = `
	SELECT
		i.id, i.hospital_id, h.name AS hospital_name,
		i.medicine_id, m.name AS medicine_name,
		i.current_stock, i.reorder_level, i.max_capacity,
		i.average_daily_usage, i.last_restocked_date, i.last_updated
	FROM inventory i
	JOIN hospitals h ON h.id = i.hospital_id
	JOIN medicines m ON m.id = i.medicine_id
`

type inventoryRepository struct {
	db *sqlx.DB
}

func NewInventoryRepository(db *sqlx.DB) repository.InventoryRepository {
	return &inventoryRepository{db: db}
}

func (r *inventoryRepository) GetByID(ctx context.Context, id int64) (*domain.Inventory, error) {
	var inv domain.Inventory
	err := r.db.GetContext(ctx, &inv, inventorySelect+" WHERE i.id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("inventory %d: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error getting inventory %d: %w", id, err)
	}
	return &inv, nil
}

func (r *inventoryRepository) GetByHospitalAndMedicine(ctx context.Context, hospitalID, medicineID int64) (*domain.Inventory, error) {
	var inv domain.Inventory
	err := r.db.GetContext(ctx, &inv,
		inventorySelect+" WHERE i.hospital_id = $1 AND i.medicine_id = $2", hospitalID, medicineID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("inventory for hospital %d medicine %d: %w", hospitalID, medicineID, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error getting inventory for hospital %d medicine %d: %w", hospitalID, medicineID, err)
	}
	return &inv, nil
}

func (r *inventoryRepository) ListByHospital(ctx context.Context, hospitalID int64) ([]domain.Inventory, error) {
	var items []domain.Inventory
	err := r.db.SelectContext(ctx, &items,
		inventorySelect+" WHERE i.hospital_id = $1 ORDER BY i.id", hospitalID)
	if err != nil {
		return nil, fmt.Errorf("error listing inventory for hospital %d: %w", hospitalID, err)
	}
	return items, nil
}

func (r *inventoryRepository) ListAll(ctx context.Context, limit int) ([]domain.Inventory, error) {
	if limit <= 0 {
		limit = defaultInventoryLimit
	}
	var items []domain.Inventory
	err := r.db.SelectContext(ctx, &items,
		inventorySelect+" ORDER BY i.id LIMIT $1", limit)
	if err != nil {
		return nil, fmt.Errorf("error listing inventory: %w", err)
	}
	return items, nil
}
