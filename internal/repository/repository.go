// internal/repository/repository.go
package repository

import (
	"context"
	"errors"

	"github.com/medstock/backend-go/internal/domain"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// InventoryRepository reads inventory records owned by the CRUD layer.
type InventoryRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Inventory, error)
	GetByHospitalAndMedicine(ctx context.Context, hospitalID, medicineID int64) (*domain.Inventory, error)
	ListByHospital(ctx context.Context, hospitalID int64) ([]domain.Inventory, error)
	// ListAll is bounded; limit <= 0 applies the repository default.
	ListAll(ctx context.Context, limit int) ([]domain.Inventory, error)
}

// TransactionRepository reads the inventory movement ledger.
type TransactionRepository interface {
	// RecentConsumption returns the most recent consumption-type
	// transactions for an inventory, newest first, capped at limit.
	RecentConsumption(ctx context.Context, inventoryID int64, limit int) ([]domain.InventoryTransaction, error)
}

// HospitalRepository reads hospital metadata used as features.
type HospitalRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Hospital, error)
}

// AlertRepository owns the standing-alert lifecycle. Upsert must be
// atomic per inventory: at most one ACTIVE alert may exist, and the
// update-in-place path is preferred over creating duplicates.
type AlertRepository interface {
	GetActiveByInventory(ctx context.Context, inventoryID int64) (*domain.Alert, error)
	// Upsert creates a new ACTIVE alert or updates the existing one in
	// place. It returns the alert id and whether a row was created.
	Upsert(ctx context.Context, alert *domain.Alert) (id string, created bool, err error)
}

// ObservationRepository assembles training observations by joining
// inventory, medicine and hospital records.
type ObservationRepository interface {
	FetchObservations(ctx context.Context) ([]domain.Observation, error)
	// FetchByHospital scopes the same join to one hospital.
	FetchByHospital(ctx context.Context, hospitalID int64) ([]domain.Observation, error)
}
