package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/passpilot-api/internal/models"
	"github.com/noah-isme/passpilot-api/pkg/database"
	appErrors "github.com/noah-isme/passpilot-api/pkg/errors"
)

const inviteColumns = `id, school_id, email, role, code_hash, expires_at, used_at, created_by, created_at`

// InviteRepository persists registration tokens.
type InviteRepository struct {
	db *sqlx.DB
}

// NewInviteRepository creates a new InviteRepository.
func NewInviteRepository(db *sqlx.DB) *InviteRepository {
	return &InviteRepository{db: db}
}

// Create stores a hashed invite.
func (r *InviteRepository) Create(ctx context.Context, token *models.RegistrationToken) error {
	token.Email = models.NormalizeEmail(token.Email)
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO registration_tokens (school_id, email, role, code_hash, expires_at, created_by, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	err := r.db.QueryRowxContext(ctx, query, token.SchoolID, token.Email, token.Role, token.CodeHash, token.ExpiresAt, token.CreatedBy, token.CreatedAt).Scan(&token.ID)
	if err != nil {
		return fmt.Errorf("create invite: %w", err)
	}
	return nil
}

// ListPending returns unused, unexpired invites of a school, newest first.
func (r *InviteRepository) ListPending(ctx context.Context, schoolID int64, now time.Time) ([]models.RegistrationToken, error) {
	const query = `SELECT ` + inviteColumns + ` FROM registration_tokens
        WHERE school_id = $1 AND used_at IS NULL AND expires_at > $2
        ORDER BY created_at DESC, id DESC`
	var tokens []models.RegistrationToken
	if err := r.db.SelectContext(ctx, &tokens, query, schoolID, now); err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	return tokens, nil
}

// FindRedeemable returns candidate invites for (school, email), newest first.
func (r *InviteRepository) FindRedeemable(ctx context.Context, schoolID int64, email string, now time.Time) ([]models.RegistrationToken, error) {
	const query = `SELECT ` + inviteColumns + ` FROM registration_tokens
        WHERE school_id = $1 AND email = $2 AND used_at IS NULL AND expires_at > $3
        ORDER BY created_at DESC, id DESC LIMIT 10`
	var tokens []models.RegistrationToken
	if err := r.db.SelectContext(ctx, &tokens, query, schoolID, models.NormalizeEmail(email), now); err != nil {
		return nil, fmt.Errorf("find invites: %w", err)
	}
	return tokens, nil
}

// Redeem marks the invite used and creates the user atomically. An invite
// consumed concurrently yields appErrors.ErrNotFound.
func (r *InviteRepository) Redeem(ctx context.Context, tokenID int64, user *models.User, usedAt time.Time) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		const markQuery = `UPDATE registration_tokens SET used_at = $2 WHERE id = $1 AND used_at IS NULL AND expires_at > $2`
		res, err := tx.ExecContext(ctx, markQuery, tokenID, usedAt)
		if err != nil {
			return fmt.Errorf("mark invite used: %w", err)
		}
		if err := expectAffected(res); err != nil {
			return appErrors.Clone(appErrors.ErrNotFound, "invite not found")
		}
		if user.Active && user.Role != models.RoleSuperAdmin {
			if err := reserveSeat(ctx, tx, user.SchoolID); err != nil {
				return err
			}
		}
		return insertUser(ctx, tx, user)
	})
}
