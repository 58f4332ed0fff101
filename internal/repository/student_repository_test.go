package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/passpilot-api/internal/models"
)

func TestListStudentsFiltersAndSearch(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM students WHERE school_id = $1 AND is_active AND grade_id = $2 AND (LOWER(name) LIKE $3 OR LOWER(COALESCE(student_code, '')) LIKE $3) ORDER BY name ASC, id ASC LIMIT 2000")).
		WithArgs(int64(10), int64(4), "%ali%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "school_id", "grade_id", "name", "student_code", "is_active", "created_at"}).
			AddRow(1, 10, 4, "Alice", "S-1", true, now))

	gradeID := int64(4)
	students, err := repo.List(context.Background(), models.StudentFilter{SchoolID: 10, GradeID: &gradeID, Search: "ALI"})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "S-1", *students[0].StudentCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkCreateRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	gradeID := int64(4)
	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO students").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery("INSERT INTO students").
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.BulkCreate(context.Background(), []models.Student{
		{SchoolID: 10, GradeID: &gradeID, Name: "Alice", IsActive: true},
		{SchoolID: 10, GradeID: &gradeID, Name: "Bob", IsActive: true},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassBoardMarksStudentsOut(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE s.school_id = $1 AND s.is_active AND s.grade_id = ANY($2)")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "school_id", "grade_id", "name", "student_code", "is_active", "created_at", "active_pass_id", "since", "last_type"}).
			AddRow(1, 10, 4, "Alice", nil, true, now, 9, now, "nurse").
			AddRow(2, 10, 4, "Bob", nil, true, now, nil, nil, nil))

	board, err := repo.ClassBoard(context.Background(), 10, []int64{4})
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.True(t, board[0].IsOut)
	assert.Equal(t, models.PassNurse, *board[0].LastType)
	assert.False(t, board[1].IsOut)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassBoardWithoutGradesSkipsQuery(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	board, err := repo.ClassBoard(context.Background(), 10, nil)
	require.NoError(t, err)
	assert.Empty(t, board)
	assert.NoError(t, mock.ExpectationsWereMet())
}
