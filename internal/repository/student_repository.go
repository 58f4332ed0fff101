package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/passpilot-api/internal/models"
	"github.com/noah-isme/passpilot-api/pkg/database"
)

const studentColumns = `id, school_id, grade_id, name, student_code, is_active, created_at`

// StudentRepository handles persistence for students.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository returns a new StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students of a school matching the filter, ordered by name.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	conditions := []string{"school_id = $1"}
	args := []interface{}{filter.SchoolID}

	if !filter.IncludeInactive {
		conditions = append(conditions, "is_active")
	}
	if filter.GradeID != nil {
		args = append(args, *filter.GradeID)
		conditions = append(conditions, fmt.Sprintf("grade_id = $%d", len(args)))
	}
	if filter.GradeIDs != nil {
		args = append(args, pq.Array(filter.GradeIDs))
		conditions = append(conditions, fmt.Sprintf("grade_id = ANY($%d)", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(COALESCE(student_code, '')) LIKE $%d)", len(args), len(args)))
	}

	limit := filter.Limit
	if limit <= 0 || limit > 2000 {
		limit = 2000
	}

	query := fmt.Sprintf("SELECT %s FROM students WHERE %s ORDER BY name ASC, id ASC LIMIT %d", studentColumns, strings.Join(conditions, " AND "), limit)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// FindByID returns a student within a school.
func (r *StudentRepository) FindByID(ctx context.Context, schoolID, id int64) (*models.Student, error) {
	const query = `SELECT ` + studentColumns + ` FROM students WHERE id = $1 AND school_id = $2`
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id, schoolID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

// Create inserts a single student.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return insertStudent(ctx, tx, student)
	})
}

// BulkCreate inserts all students or none.
func (r *StudentRepository) BulkCreate(ctx context.Context, students []models.Student) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for i := range students {
			if err := insertStudent(ctx, tx, &students[i]); err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
		}
		return nil
	})
}

func insertStudent(ctx context.Context, tx *sqlx.Tx, student *models.Student) error {
	student.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO students (school_id, grade_id, name, student_code, is_active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := tx.QueryRowxContext(ctx, query, student.SchoolID, student.GradeID, student.Name, student.StudentCode, student.IsActive, student.CreatedAt).Scan(&student.ID); err != nil {
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

// Update persists grade, name, code and active flag.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	const query = `UPDATE students SET grade_id = $3, name = $4, student_code = $5, is_active = $6 WHERE id = $1 AND school_id = $2`
	res, err := r.db.ExecContext(ctx, query, student.ID, student.SchoolID, student.GradeID, student.Name, student.StudentCode, student.IsActive)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return expectAffected(res)
}

// ClassBoard lists active students of gradeIDs with their live pass state:
// the active pass id and start time, and the type of their latest pass.
func (r *StudentRepository) ClassBoard(ctx context.Context, schoolID int64, gradeIDs []int64) ([]models.ClassStudent, error) {
	if len(gradeIDs) == 0 {
		return []models.ClassStudent{}, nil
	}
	const query = `SELECT s.id, s.school_id, s.grade_id, s.name, s.student_code, s.is_active, s.created_at,
        ap.id AS active_pass_id, ap.starts_at AS since, lp.type AS last_type
        FROM students s
        LEFT JOIN passes ap ON ap.student_id = s.id AND ap.status = 'active'
        LEFT JOIN LATERAL (
            SELECT p.type FROM passes p WHERE p.student_id = s.id ORDER BY p.starts_at DESC, p.id DESC LIMIT 1
        ) lp ON TRUE
        WHERE s.school_id = $1 AND s.is_active AND s.grade_id = ANY($2)
        ORDER BY s.name ASC, s.id ASC`
	var board []models.ClassStudent
	if err := r.db.SelectContext(ctx, &board, query, schoolID, pq.Array(gradeIDs)); err != nil {
		return nil, fmt.Errorf("class board: %w", err)
	}
	for i := range board {
		board[i].IsOut = board[i].ActivePassID != nil
	}
	return board, nil
}
