package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/passpilot-api/internal/models"
	"github.com/noah-isme/passpilot-api/pkg/database"
	appErrors "github.com/noah-isme/passpilot-api/pkg/errors"
)

// ActivePassConstraint is the partial unique index allowing one active pass per student.
const ActivePassConstraint = "passes_one_active_per_student"

const passColumns = `id, school_id, student_id, student_name, reason, type, custom_reason, issued_by_user_id, kiosk_device_id, status, starts_at, ends_at, created_at`

const passRecordSelect = `SELECT p.id, p.school_id, p.student_id, p.student_name, p.reason, p.type, p.custom_reason,
        p.issued_by_user_id, p.kiosk_device_id, p.status, p.starts_at, p.ends_at, p.created_at,
        s.student_code, s.grade_id, g.name AS grade_name,
        u.display_name AS issuer_name, u.email AS issuer_email, k.room AS kiosk_room
        FROM passes p
        LEFT JOIN students s ON s.id = p.student_id
        LEFT JOIN grades g ON g.id = s.grade_id
        LEFT JOIN users u ON u.id = p.issued_by_user_id
        LEFT JOIN kiosk_devices k ON k.id = p.kiosk_device_id`

// PassRepository persists passes and enforces the one-active-pass rule.
type PassRepository struct {
	db *sqlx.DB
}

// NewPassRepository constructs a PassRepository.
func NewPassRepository(db *sqlx.DB) *PassRepository {
	return &PassRepository{db: db}
}

// Create inserts an active pass. When StudentID is set the student row is
// locked, its name copied onto the pass, and an existing active pass is
// reported as ErrActivePass with details.passId. The partial unique index
// backs the same rule for writers that race past the check. An unknown or
// inactive student yields sql.ErrNoRows.
func (r *PassRepository) Create(ctx context.Context, pass *models.Pass) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if pass.StudentID != nil {
			const studentQuery = `SELECT name FROM students WHERE id = $1 AND school_id = $2 AND is_active FOR UPDATE`
			var name string
			if err := tx.GetContext(ctx, &name, studentQuery, *pass.StudentID, pass.SchoolID); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return err
				}
				return fmt.Errorf("lock student: %w", err)
			}
			pass.StudentName = name

			const activeQuery = `SELECT id FROM passes WHERE student_id = $1 AND status = 'active' LIMIT 1`
			var activeID int64
			err := tx.GetContext(ctx, &activeID, activeQuery, *pass.StudentID)
			switch {
			case err == nil:
				return activePassError(activeID)
			case !errors.Is(err, sql.ErrNoRows):
				return fmt.Errorf("check active pass: %w", err)
			}
		}

		pass.Status = models.PassActive
		pass.EndsAt = nil
		const insertQuery = `INSERT INTO passes (school_id, student_id, student_name, reason, type, custom_reason, issued_by_user_id, kiosk_device_id, status, starts_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id, created_at`
		err := tx.QueryRowxContext(ctx, insertQuery,
			pass.SchoolID, pass.StudentID, pass.StudentName, pass.Reason, pass.Type, pass.CustomReason,
			pass.IssuedByUserID, pass.KioskDeviceID, pass.Status, pass.StartsAt,
		).Scan(&pass.ID, &pass.CreatedAt)
		if err != nil {
			if database.IsUniqueViolation(err, ActivePassConstraint) {
				return appErrors.ErrActivePass
			}
			return fmt.Errorf("insert pass: %w", err)
		}
		return nil
	})
}

func activePassError(passID int64) error {
	return appErrors.WithDetails(appErrors.ErrActivePass, map[string]interface{}{"passId": passID})
}

// Return transitions an active pass to returned. The boolean is false when
// the pass was already terminal; the stored row is then returned unchanged.
func (r *PassRepository) Return(ctx context.Context, schoolID, id int64, endsAt time.Time) (*models.Pass, bool, error) {
	const query = `UPDATE passes SET status = 'returned', ends_at = $3
        WHERE id = $1 AND school_id = $2 AND status = 'active'
        RETURNING ` + passColumns
	var pass models.Pass
	err := r.db.GetContext(ctx, &pass, query, id, schoolID, endsAt)
	if err == nil {
		return &pass, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("return pass: %w", err)
	}

	const findQuery = `SELECT ` + passColumns + ` FROM passes WHERE id = $1 AND school_id = $2`
	if err := r.db.GetContext(ctx, &pass, findQuery, id, schoolID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, err
		}
		return nil, false, fmt.Errorf("reload pass: %w", err)
	}
	return &pass, false, nil
}

// FindByID returns one pass with joined columns. scopeUserID, when set,
// applies the teacher visibility rule.
func (r *PassRepository) FindByID(ctx context.Context, schoolID, id int64, scopeUserID *int64) (*models.PassRecord, error) {
	query := passRecordSelect + ` WHERE p.id = $1 AND p.school_id = $2`
	args := []interface{}{id, schoolID}
	if scopeUserID != nil {
		args = append(args, *scopeUserID)
		query += " AND " + scopeCondition(len(args))
	}
	var record models.PassRecord
	if err := r.db.GetContext(ctx, &record, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find pass: %w", err)
	}
	return &record, nil
}

// List returns passes matching filter, newest first.
func (r *PassRepository) List(ctx context.Context, filter models.PassFilter) ([]models.PassRecord, error) {
	conditions := []string{"p.school_id = $1"}
	args := []interface{}{filter.SchoolID}

	if filter.ScopeUserID != nil {
		args = append(args, *filter.ScopeUserID)
		conditions = append(conditions, scopeCondition(len(args)))
	}
	if filter.StudentID != nil {
		args = append(args, *filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("p.student_id = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", len(args)))
	}
	conditions, args = appendRange(conditions, args, filter.From, filter.To)

	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	if limit > 1000 {
		limit = 1000
	}

	query := fmt.Sprintf("%s WHERE %s ORDER BY p.starts_at DESC, p.id DESC LIMIT %d", passRecordSelect, strings.Join(conditions, " AND "), limit)
	var records []models.PassRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("list passes: %w", err)
	}
	return records, nil
}

// ExpireStarted marks active passes started before cutoff as expired.
func (r *PassRepository) ExpireStarted(ctx context.Context, cutoff, now time.Time) (int64, error) {
	const query = `UPDATE passes SET status = 'expired', ends_at = $2 WHERE status = 'active' AND starts_at < $1`
	res, err := r.db.ExecContext(ctx, query, cutoff, now)
	if err != nil {
		return 0, fmt.Errorf("expire passes: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expire passes: %w", err)
	}
	return n, nil
}

// scopeCondition restricts to students in the teacher's grades, falling back
// to passes the teacher issued.
func scopeCondition(arg int) string {
	return fmt.Sprintf("(s.grade_id IN (SELECT grade_id FROM teacher_grade_map WHERE user_id = $%d) OR p.issued_by_user_id = $%d)", arg, arg)
}

func appendRange(conditions []string, args []interface{}, from, to *time.Time) ([]string, []interface{}) {
	if from != nil {
		args = append(args, *from)
		conditions = append(conditions, fmt.Sprintf("p.starts_at >= $%d", len(args)))
	}
	if to != nil {
		args = append(args, *to)
		conditions = append(conditions, fmt.Sprintf("p.starts_at <= $%d", len(args)))
	}
	return conditions, args
}
