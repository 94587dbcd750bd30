// internal/repository/postgres/transaction_repository.go
package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/medstock/backend-go/internal/domain"
	"github.com/medstock/backend-go/internal/repository"
)

type transactionRepository struct {
	db *sqlx.DB
}

func NewTransactionRepository(db *sqlx.DB) repository.TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) RecentConsumption(ctx context.Context, inventoryID int64, limit int) ([]domain.InventoryTransaction, error) {
	if limit <= 0 {
		limit = 90
	}

	query := `
		SELECT id, inventory_id, transaction_type, quantity, transaction_date
		FROM inventory_transactions
		WHERE inventory_id = $1 AND transaction_type = $2
		ORDER BY transaction_date DESC
		LIMIT $3
	`

	var txns []domain.InventoryTransaction
	err := r.db.SelectContext(ctx, &txns, query, inventoryID, domain.TxConsumption, limit)
	if err != nil {
		return nil, fmt.Errorf("error getting consumption transactions for inventory %d: %w", inventoryID, err)
	}
	return txns, nil
}
