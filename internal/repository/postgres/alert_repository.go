// internal/repository/postgres/alert_repository.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medstock/backend-go/internal/domain"
	"github.com/medstock/backend-go/internal/repository"
)

type alertRepository struct {
	db *DB
}

func NewAlertRepository(db *DB) repository.AlertRepository {
	return &alertRepository{db: db}
}

const activeAlertSelect = `
	SELECT id, hospital_id, medicine_id, inventory_id, severity, status,
	       current_stock, predicted_stockout_date, predicted_shortage_quantity,
	       confidence_score, message, created_at, updated_at
	FROM alerts
	WHERE inventory_id = $1 AND status = $2
`

func (r *alertRepository) GetActiveByInventory(ctx context.Context, inventoryID int64) (*domain.Alert, error) {
	var alert domain.Alert
	err := r.db.GetContext(ctx, &alert, activeAlertSelect, inventoryID, domain.AlertActive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("active alert for inventory %d: %w", inventoryID, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error getting active alert for inventory %d: %w", inventoryID, err)
	}
	return &alert, nil
}

// Upsert runs as a single read-modify-write transaction. The SELECT
// takes FOR UPDATE so two concurrent forecast runs for the same
// inventory serialize instead of both inserting an ACTIVE alert.
func (r *alertRepository) Upsert(ctx context.Context, alert *domain.Alert) (string, bool, error) {
	var (
		id      string
		created bool
	)

	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		var existingID string
		err := tx.GetContext(ctx, &existingID,
			`SELECT id FROM alerts WHERE inventory_id = $1 AND status = $2 FOR UPDATE`,
			alert.InventoryID, domain.AlertActive)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			id = uuid.NewString()
			created = true
			_, err = tx.ExecContext(ctx, `
				INSERT INTO alerts (
					id, hospital_id, medicine_id, inventory_id, severity, status,
					current_stock, predicted_stockout_date, predicted_shortage_quantity,
					confidence_score, message, created_at, updated_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)`,
				id, alert.HospitalID, alert.MedicineID, alert.InventoryID,
				alert.Severity, domain.AlertActive,
				alert.CurrentStock, alert.PredictedStockout, alert.ShortageQuantity,
				alert.ConfidenceScore, alert.Message, time.Now().UTC())
			if err != nil {
				return fmt.Errorf("error inserting alert: %w", err)
			}
			return nil

		case err != nil:
			return fmt.Errorf("error locking active alert: %w", err)
		}

		id = existingID
		_, err = tx.ExecContext(ctx, `
			UPDATE alerts SET
				severity = $1, current_stock = $2, predicted_stockout_date = $3,
				predicted_shortage_quantity = $4, confidence_score = $5,
				message = $6, updated_at = $7
			WHERE id = $8`,
			alert.Severity, alert.CurrentStock, alert.PredictedStockout,
			alert.ShortageQuantity, alert.ConfidenceScore, alert.Message,
			time.Now().UTC(), existingID)
		if err != nil {
			return fmt.Errorf("error updating alert %s: %w", existingID, err)
		}
		return nil
	})
	if err != nil {
		return "", false, err
	}

	alert.ID = id
	return id, created, nil
}
