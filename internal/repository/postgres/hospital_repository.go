// internal/repository/postgres/hospital_repository.go
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

type hospitalRepository struct {
	db *sqlx.DB
}

func NewHospitalRepository(db *sqlx.DB) repository.HospitalRepository {
	return &hospitalRepository{db: db}
}

func (r *hospitalRepository) GetByID(ctx context.Context, id int64) (*domain.Hospital, error) {
	query := `
		SELECT id, name, hospital_type, bed_capacity
		FROM hospitals
		WHERE id = $1
	`

	var h domain.Hospital
	err := r.db.GetContext(ctx, &h, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("hospital %d: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error getting hospital %d: %w", id, err)
	}
	return &h, nil
}
