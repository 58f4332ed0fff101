package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/passpilot-api/internal/models"
	"github.com/noah-isme/passpilot-api/pkg/database"
)

const schoolColumns = `id, name, seats_allowed, active, created_at, updated_at`

// SchoolRepository provides database access for tenants.
type SchoolRepository struct {
	db *sqlx.DB
}

// NewSchoolRepository creates a new instance of SchoolRepository.
func NewSchoolRepository(db *sqlx.DB) *SchoolRepository {
	return &SchoolRepository{db: db}
}

// List returns every school ordered by name.
func (r *SchoolRepository) List(ctx context.Context) ([]models.School, error) {
	const query = `SELECT ` + schoolColumns + ` FROM schools ORDER BY name ASC, id ASC`
	var schools []models.School
	if err := r.db.SelectContext(ctx, &schools, query); err != nil {
		return nil, fmt.Errorf("list schools: %w", err)
	}
	return schools, nil
}

// FindByID returns a school by identifier.
func (r *SchoolRepository) FindByID(ctx context.Context, id int64) (*models.School, error) {
	const query = `SELECT ` + schoolColumns + ` FROM schools WHERE id = $1`
	var school models.School
	if err := r.db.GetContext(ctx, &school, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find school: %w", err)
	}
	return &school, nil
}

// Create inserts a school. When admin is non-nil the first user is created in
// the same transaction.
func (r *SchoolRepository) Create(ctx context.Context, school *models.School, admin *models.User) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := insertSchool(ctx, tx, school); err != nil {
			return err
		}
		if admin == nil {
			return nil
		}
		admin.SchoolID = school.ID
		return insertUser(ctx, tx, admin)
	})
}

func insertSchool(ctx context.Context, tx *sqlx.Tx, school *models.School) error {
	now := time.Now().UTC()
	school.CreatedAt = now
	school.UpdatedAt = now
	const query = `INSERT INTO schools (name, seats_allowed, active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5) RETURNING id`
	if err := tx.QueryRowxContext(ctx, query, school.Name, school.SeatsAllowed, school.Active, now, now).Scan(&school.ID); err != nil {
		return fmt.Errorf("insert school: %w", err)
	}
	return nil
}

// Update persists name, seats and active flag.
func (r *SchoolRepository) Update(ctx context.Context, school *models.School) error {
	school.UpdatedAt = time.Now().UTC()
	const query = `UPDATE schools SET name = $2, seats_allowed = $3, active = $4, updated_at = $5 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, school.ID, school.Name, school.SeatsAllowed, school.Active, school.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update school: %w", err)
	}
	return expectAffected(res)
}

// Delete removes a school; dependent rows cascade through foreign keys.
func (r *SchoolRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM schools WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete school: %w", err)
	}
	return expectAffected(res)
}

// Overview aggregates user, student and pass counters for one school.
func (r *SchoolRepository) Overview(ctx context.Context, id int64) (*models.SchoolOverview, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM users WHERE school_id = $1) AS users,
        (SELECT COUNT(*) FROM users WHERE school_id = $1 AND active) AS active_users,
        (SELECT COUNT(*) FROM users WHERE school_id = $1 AND role = 'admin') AS admins,
        (SELECT COUNT(*) FROM users WHERE school_id = $1 AND role = 'teacher') AS teachers,
        (SELECT COUNT(*) FROM students WHERE school_id = $1 AND is_active) AS students,
        (SELECT COUNT(*) FROM passes WHERE school_id = $1 AND status = 'active') AS active_passes,
        s.seats_allowed
        FROM schools s WHERE s.id = $1`
	var overview models.SchoolOverview
	if err := r.db.GetContext(ctx, &overview, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("school overview: %w", err)
	}
	return &overview, nil
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
