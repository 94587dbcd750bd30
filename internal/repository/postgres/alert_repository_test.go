package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/semaphore"

	"github.com/medstock/backend-go/internal/domain"
	"github.com/medstock/backend-go/internal/repository"
)

func setupMockTxDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlxDB, mock := setupMockDB(t)
	return &DB{DB: sqlxDB, sem: semaphore.NewWeighted(1)}, mock
}

func testAlert() *domain.Alert {
	return &domain.Alert{
		HospitalID:        10,
		MedicineID:        20,
		InventoryID:       1,
		Severity:          domain.RiskCritical,
		CurrentStock:      25,
		PredictedStockout: time.Date(2024, 8, 3, 0, 0, 0, 0, time.UTC),
		ShortageQuantity:  280,
		ConfidenceScore:   85,
		Message:           "Amoxicillin projected to stock out in 2 days",
	}
}

func TestAlertUpsertCreates(t *testing.T) {
	db, mock := setupMockTxDB(t)
	repo := NewAlertRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM alerts WHERE inventory_id = \$1 AND status = \$2 FOR UPDATE`).
		WithArgs(int64(1), domain.AlertActive).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(`INSERT INTO alerts`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	alert := testAlert()
	id, created, err := repo.Upsert(context.Background(), alert)
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, alert.ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertUpsertUpdatesExisting(t *testing.T) {
	db, mock := setupMockTxDB(t)
	repo := NewAlertRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM alerts WHERE inventory_id = \$1 AND status = \$2 FOR UPDATE`).
		WithArgs(int64(1), domain.AlertActive).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("existing-alert"))
	mock.ExpectExec(`UPDATE alerts SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, created, err := repo.Upsert(context.Background(), testAlert())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "existing-alert", id)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertUpsertRollsBackOnUpdateError(t *testing.T) {
	db, mock := setupMockTxDB(t)
	repo := NewAlertRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM alerts`).
		WithArgs(int64(1), domain.AlertActive).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("existing-alert"))
	mock.ExpectExec(`UPDATE alerts SET`).
		WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	_, _, err := repo.Upsert(context.Background(), testAlert())
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetActiveByInventoryNotFound(t *testing.T) {
	db, mock := setupMockTxDB(t)
	repo := NewAlertRepository(db)

	mock.ExpectQuery(`SELECT(.|\n)*FROM alerts`).
		WithArgs(int64(7), domain.AlertActive).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetActiveByInventory(context.Background(), 7)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
