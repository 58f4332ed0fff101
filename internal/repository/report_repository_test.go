package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/passpilot-api/internal/models"
)

func TestReportEachTreatsEmptyTypeAsGeneral(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	general := models.PassGeneral
	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.school_id = $1 AND (p.type = 'general' OR p.type = '') AND p.starts_at >= $2 ORDER BY p.starts_at DESC")).
		WithArgs(int64(10), from).
		WillReturnRows(sqlmock.NewRows([]string{"id", "type"}).AddRow(1, "").AddRow(2, "general"))

	var types []models.PassType
	err := repo.Each(context.Background(), models.ReportFilter{SchoolID: 10, Type: &general, From: &from}, func(row models.PassRecord) error {
		types = append(types, row.Type)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []models.PassType{"", models.PassGeneral}, types)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportEachFiltersGradeAndTeacher(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE p.school_id = $1 AND s.grade_id = $2 AND p.issued_by_user_id = $3 ORDER BY")).
		WithArgs(int64(10), int64(4), int64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err := repo.Each(context.Background(), models.ReportFilter{SchoolID: 10, GradeID: int64Ptr(4), TeacherID: int64Ptr(2)}, func(models.PassRecord) error { return nil })
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportEachIsUnbounded(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	rows := sqlmock.NewRows([]string{"id"})
	for i := 1; i <= 60000; i++ {
		rows.AddRow(i)
	}
	mock.ExpectQuery(`ORDER BY p\.starts_at DESC, p\.id DESC$`).
		WithArgs(int64(10)).
		WillReturnRows(rows)

	count := 0
	err := repo.Each(context.Background(), models.ReportFilter{SchoolID: 10}, func(models.PassRecord) error {
		count++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 60000, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportEachStopsOnCallbackError(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery("FROM passes p").
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2).AddRow(3))

	stop := errors.New("stop")
	seen := 0
	err := repo.Each(context.Background(), models.ReportFilter{SchoolID: 10}, func(models.PassRecord) error {
		seen++
		if seen == 2 {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 2, seen)
}

func TestReportEachWrapsQueryError(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewReportRepository(db)

	mock.ExpectQuery("FROM passes p").WillReturnError(errors.New("boom"))

	err := repo.Each(context.Background(), models.ReportFilter{SchoolID: 10}, func(models.PassRecord) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "report rows")
}
