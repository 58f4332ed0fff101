package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/noah-isme/passpilot-api/internal/models"
)

// AuditRepository appends and lists audit rows. Rows are never updated.
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository constructs an AuditRepository.
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Create appends an audit row.
func (r *AuditRepository) Create(ctx context.Context, audit *models.Audit) error {
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now().UTC()
	}
	if len(audit.Data) == 0 {
		audit.Data = types.JSONText(`{}`)
	}
	const query = `INSERT INTO audits (actor_user_id, school_id, action, target_type, target_id, data, created_at)
        VALUES (:actor_user_id, :school_id, :action, :target_type, :target_id, :data, :created_at) RETURNING id`
	rows, err := r.db.NamedQueryContext(ctx, query, audit)
	if err != nil {
		return fmt.Errorf("create audit: %w", err)
	}
	defer rows.Close()
	if rows.Next() {
		if err := rows.Scan(&audit.ID); err != nil {
			return fmt.Errorf("scan audit id: %w", err)
		}
	}
	return rows.Err()
}

// List returns audits newest first, optionally restricted to one school.
func (r *AuditRepository) List(ctx context.Context, filter models.AuditFilter) ([]models.Audit, error) {
	var conditions []string
	var args []interface{}
	if filter.SchoolID != nil {
		args = append(args, *filter.SchoolID)
		conditions = append(conditions, fmt.Sprintf("school_id = $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	if limit > 500 {
		limit = 500
	}

	query := `SELECT id, actor_user_id, school_id, action, target_type, target_id, data, created_at FROM audits`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT %d", limit)

	var audits []models.Audit
	if err := r.db.SelectContext(ctx, &audits, query, args...); err != nil {
		return nil, fmt.Errorf("list audits: %w", err)
	}
	return audits, nil
}
