package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/passpilot-api/internal/models"
)

// ReportRepository streams the pass rows behind summaries and exports.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository creates a new ReportRepository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Each streams every pass matching filter to fn, ordered like listings.
// Iteration stops at the first error fn returns; that error is returned as is.
func (r *ReportRepository) Each(ctx context.Context, filter models.ReportFilter, fn func(models.PassRecord) error) error {
	conditions := []string{"p.school_id = $1"}
	args := []interface{}{filter.SchoolID}

	if filter.ScopeUserID != nil {
		args = append(args, *filter.ScopeUserID)
		conditions = append(conditions, scopeCondition(len(args)))
	}
	if filter.GradeID != nil {
		args = append(args, *filter.GradeID)
		conditions = append(conditions, fmt.Sprintf("s.grade_id = $%d", len(args)))
	}
	if filter.TeacherID != nil {
		args = append(args, *filter.TeacherID)
		conditions = append(conditions, fmt.Sprintf("p.issued_by_user_id = $%d", len(args)))
	}
	if filter.Type != nil {
		if *filter.Type == models.PassGeneral {
			conditions = append(conditions, "(p.type = 'general' OR p.type = '')")
		} else {
			args = append(args, *filter.Type)
			conditions = append(conditions, fmt.Sprintf("p.type = $%d", len(args)))
		}
	}
	conditions, args = appendRange(conditions, args, filter.From, filter.To)

	query := fmt.Sprintf("%s WHERE %s ORDER BY p.starts_at DESC, p.id DESC", passRecordSelect, strings.Join(conditions, " AND "))
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("report rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var record models.PassRecord
		if err := rows.StructScan(&record); err != nil {
			return fmt.Errorf("scan report row: %w", err)
		}
		if err := fn(record); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("report rows: %w", err)
	}
	return nil
}
