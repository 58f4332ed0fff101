package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/passpilot-api/internal/models"
)

var kioskRowColumns = []string{"id", "school_id", "room", "pin_hash", "token", "active", "created_at"}

func TestListActiveKiosksByRoom(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewKioskRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE school_id = $1 AND LOWER(room) = LOWER($2) AND active ORDER BY id ASC")).
		WithArgs(int64(10), "room 12").
		WillReturnRows(sqlmock.NewRows([]string{"id", "school_id", "room", "pin_hash", "token", "active"}).
			AddRow(3, 10, "Room 12", "hash-a", "tok-a", true).
			AddRow(5, 10, "ROOM 12", "hash-b", "tok-b", true))

	devices, err := repo.ListActiveByRoom(context.Background(), 10, "room 12")
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, int64(3), devices[0].ID)
	assert.Equal(t, "tok-b", devices[1].Token)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindKioskScopedToSchool(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewKioskRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM kiosk_devices WHERE id = $1 AND school_id = $2")).
		WithArgs(int64(3), int64(11)).
		WillReturnRows(sqlmock.NewRows(kioskRowColumns))

	_, err := repo.FindByID(context.Background(), 11, 3)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateKioskPersistsToken(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewKioskRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE kiosk_devices SET active = $3, pin_hash = $4, token = $5 WHERE id = $1 AND school_id = $2")).
		WithArgs(int64(3), int64(10), true, "new-hash", "new-token").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE kiosk_devices").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Update(context.Background(), &models.KioskDevice{ID: 3, SchoolID: 10, Active: true, PinHash: "new-hash", Token: "new-token"}))
	err := repo.Update(context.Background(), &models.KioskDevice{ID: 3, SchoolID: 11})
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}
