package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var observationColumns = []string{
	"hospital_id", "medicine_id", "current_stock", "daily_consumption",
	"reorder_level", "drug_category", "hospital_type", "bed_capacity",
	"last_updated",
}

func TestFetchObservations(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewObservationRepository(db)

	updated := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(observationColumns).
		AddRow(10, 20, 150, 12.5, 50, "Antibiotic", "Government", 500, updated).
		AddRow(10, 21, 0, 8.0, 30, "", "Government", 500, updated)

	mock.ExpectQuery(`SELECT(.|\n)*JOIN medicines m(.|\n)*JOIN hospitals h`).
		WillReturnRows(rows)

	observations, err := repo.FetchObservations(context.Background())
	require.NoError(t, err)
	require.Len(t, observations, 2)

	assert.Equal(t, int64(10), observations[0].HospitalID)
	assert.Equal(t, "Antibiotic", observations[0].DrugCategory)
	assert.Equal(t, 500, observations[0].HospitalBedCount)
	require.NotNil(t, observations[0].ObservedAt)
	assert.Equal(t, updated, *observations[0].ObservedAt)

	assert.Empty(t, observations[1].DrugCategory)
}

func TestFetchByHospital(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewObservationRepository(db)

	updated := time.Now()
	rows := sqlmock.NewRows(observationColumns).
		AddRow(10, 20, 150, 12.5, 50, "Antibiotic", "Government", 500, updated)

	mock.ExpectQuery(`SELECT(.|\n)*WHERE i\.hospital_id = \$1`).
		WithArgs(int64(10)).
		WillReturnRows(rows)

	observations, err := repo.FetchByHospital(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, observations, 1)

	assert.NoError(t, mock.ExpectationsWereMet())
}
