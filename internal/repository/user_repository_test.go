package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/passpilot-api/internal/models"
	appErrors "github.com/noah-isme/passpilot-api/pkg/errors"
)

var userRowColumns = []string{"id", "school_id", "email", "display_name", "password_hash", "role", "active", "last_login", "created_at", "updated_at"}

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestFindByEmailNormalizes(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(userRowColumns).
		AddRow(1, 10, "teacher@school.test", nil, "hash", "teacher", true, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE email = $1 LIMIT 1")).
		WithArgs("teacher@school.test").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "  Teacher@School.TEST ")
	require.NoError(t, err)
	assert.Equal(t, int64(10), user.SchoolID)
	assert.Equal(t, models.RoleTeacher, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsersScopedToSchool(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	listRows := sqlmock.NewRows(userRowColumns).
		AddRow(1, 10, "a@school.test", "A", "hash", "admin", true, now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE 1=1 AND school_id = $1 ORDER BY created_at DESC, id ASC LIMIT 20 OFFSET 0")).
		WithArgs(int64(10)).
		WillReturnRows(listRows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE 1=1 AND school_id = $1")).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	schoolID := int64(10)
	users, total, err := repo.List(context.Background(), models.UserFilter{SchoolID: &schoolID})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "A", users[0].Label())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserRejectsWhenSeatsExhausted(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM schools WHERE id = $1 FOR UPDATE")).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT s.seats_allowed")).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"seats_allowed", "used"}).AddRow(2, 2))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.User{SchoolID: 10, Email: "new@school.test", Role: models.RoleTeacher, Active: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrSeatsExhausted))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserMapsDuplicateEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM schools WHERE id = $1 FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT s.seats_allowed")).
		WillReturnRows(sqlmock.NewRows([]string{"seats_allowed", "used"}).AddRow(50, 3))
	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.User{SchoolID: 10, Email: "dup@school.test", Role: models.RoleTeacher, Active: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAccessRefusesLastAdmin(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM schools WHERE id = $1 FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1 AND school_id = $2 FOR UPDATE")).
		WithArgs(int64(3), int64(10)).
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(3, 10, "admin@school.test", nil, "hash", "admin", true, nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("role = 'admin' AND active ORDER BY id FOR UPDATE")).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
	mock.ExpectRollback()

	_, err := repo.UpdateAccess(context.Background(), 10, 3, func(u *models.User) error {
		u.Role = models.RoleTeacher
		return nil
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrLastAdmin))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAccessDeactivatesWhenAnotherAdminRemains(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM schools WHERE id = $1 FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1 AND school_id = $2 FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(3, 10, "admin@school.test", nil, "hash", "admin", true, nil, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("role = 'admin' AND active ORDER BY id FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3).AddRow(4))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET role = $2, active = $3")).
		WithArgs(int64(3), models.RoleAdmin, false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	user, err := repo.UpdateAccess(context.Background(), 10, 3, func(u *models.User) error {
		u.Active = false
		return nil
	})
	require.NoError(t, err)
	assert.False(t, user.Active)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateAccessNoopSkipsWrite(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM schools WHERE id = $1 FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(10))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1 AND school_id = $2 FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(3, 10, "admin@school.test", nil, "hash", "admin", true, nil, now, now))
	mock.ExpectCommit()

	user, err := repo.UpdateAccess(context.Background(), 10, 3, func(u *models.User) error {
		u.Role = models.RoleAdmin
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}
