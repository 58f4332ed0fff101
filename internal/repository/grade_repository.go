package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/passpilot-api/internal/models"
	"github.com/noah-isme/passpilot-api/pkg/database"
	appErrors "github.com/noah-isme/passpilot-api/pkg/errors"
)

const gradeColumns = `id, school_id, name, is_active, created_at`

// GradeRepository handles persistence for grades and teacher grade selections.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs a new repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// List returns grades of a school ordered by name.
func (r *GradeRepository) List(ctx context.Context, schoolID int64, includeInactive bool) ([]models.Grade, error) {
	query := `SELECT ` + gradeColumns + ` FROM grades WHERE school_id = $1`
	if !includeInactive {
		query += ` AND is_active`
	}
	query += ` ORDER BY name ASC, id ASC`
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, schoolID); err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	return grades, nil
}

// FindByID returns a grade within a school.
func (r *GradeRepository) FindByID(ctx context.Context, schoolID, id int64) (*models.Grade, error) {
	const query = `SELECT ` + gradeColumns + ` FROM grades WHERE id = $1 AND school_id = $2`
	var grade models.Grade
	if err := r.db.GetContext(ctx, &grade, query, id, schoolID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find grade: %w", err)
	}
	return &grade, nil
}

// FindByIDs returns the grades of a school matching ids.
func (r *GradeRepository) FindByIDs(ctx context.Context, schoolID int64, ids []int64) ([]models.Grade, error) {
	if len(ids) == 0 {
		return []models.Grade{}, nil
	}
	const query = `SELECT ` + gradeColumns + ` FROM grades WHERE school_id = $1 AND id = ANY($2) ORDER BY name ASC, id ASC`
	var grades []models.Grade
	if err := r.db.SelectContext(ctx, &grades, query, schoolID, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("find grades: %w", err)
	}
	return grades, nil
}

// Create inserts a grade; a duplicate name in the school is a conflict.
func (r *GradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	grade.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO grades (school_id, name, is_active, created_at) VALUES ($1, $2, $3, $4) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, grade.SchoolID, grade.Name, grade.IsActive, grade.CreatedAt).Scan(&grade.ID); err != nil {
		if database.IsUniqueViolation(err, "") {
			return appErrors.Clone(appErrors.ErrConflict, "grade name already exists")
		}
		return fmt.Errorf("create grade: %w", err)
	}
	return nil
}

// Update persists name and active flag.
func (r *GradeRepository) Update(ctx context.Context, grade *models.Grade) error {
	const query = `UPDATE grades SET name = $3, is_active = $4 WHERE id = $1 AND school_id = $2`
	res, err := r.db.ExecContext(ctx, query, grade.ID, grade.SchoolID, grade.Name, grade.IsActive)
	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return appErrors.Clone(appErrors.ErrConflict, "grade name already exists")
		}
		return fmt.Errorf("update grade: %w", err)
	}
	return expectAffected(res)
}

// SelectedGradeIDs returns the grades a teacher manages.
func (r *GradeRepository) SelectedGradeIDs(ctx context.Context, userID, schoolID int64) ([]int64, error) {
	const query = `SELECT grade_id FROM teacher_grade_map WHERE user_id = $1 AND school_id = $2 ORDER BY grade_id`
	ids := []int64{}
	if err := r.db.SelectContext(ctx, &ids, query, userID, schoolID); err != nil {
		return nil, fmt.Errorf("selected grades: %w", err)
	}
	return ids, nil
}

// ReplaceSelection deletes the teacher's mappings and inserts gradeIDs in one
// transaction. Every grade must belong to the school, else sql.ErrNoRows.
func (r *GradeRepository) ReplaceSelection(ctx context.Context, userID, schoolID int64, gradeIDs []int64) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if len(gradeIDs) > 0 {
			var found int
			const countQuery = `SELECT COUNT(*) FROM grades WHERE school_id = $1 AND id = ANY($2)`
			if err := tx.GetContext(ctx, &found, countQuery, schoolID, pq.Array(gradeIDs)); err != nil {
				return fmt.Errorf("verify grades: %w", err)
			}
			if found != len(gradeIDs) {
				return sql.ErrNoRows
			}
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM teacher_grade_map WHERE user_id = $1 AND school_id = $2`, userID, schoolID); err != nil {
			return fmt.Errorf("clear selection: %w", err)
		}
		if len(gradeIDs) == 0 {
			return nil
		}
		const insertQuery = `INSERT INTO teacher_grade_map (user_id, school_id, grade_id, created_at)
        SELECT $1, $2, g, $4 FROM UNNEST($3::bigint[]) AS g`
		if _, err := tx.ExecContext(ctx, insertQuery, userID, schoolID, pq.Array(gradeIDs), time.Now().UTC()); err != nil {
			return fmt.Errorf("insert selection: %w", err)
		}
		return nil
	})
}

// Select adds one grade to the teacher's selection; repeated calls are no-ops.
func (r *GradeRepository) Select(ctx context.Context, userID, schoolID, gradeID int64) error {
	const query = `INSERT INTO teacher_grade_map (user_id, school_id, grade_id, created_at)
        VALUES ($1, $2, $3, $4) ON CONFLICT (user_id, grade_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, userID, schoolID, gradeID, time.Now().UTC()); err != nil {
		return fmt.Errorf("select grade: %w", err)
	}
	return nil
}

// Deselect removes one grade from the teacher's selection.
func (r *GradeRepository) Deselect(ctx context.Context, userID, schoolID, gradeID int64) error {
	const query = `DELETE FROM teacher_grade_map WHERE user_id = $1 AND school_id = $2 AND grade_id = $3`
	if _, err := r.db.ExecContext(ctx, query, userID, schoolID, gradeID); err != nil {
		return fmt.Errorf("deselect grade: %w", err)
	}
	return nil
}
