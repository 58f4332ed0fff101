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

const userColumns = `id, school_id, email, display_name, password_hash, role, active, last_login, created_at, updated_at`

// UserRepository provides database access for user management.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, models.NormalizeEmail(email)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier regardless of school.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// FindInSchool returns a user only when it belongs to schoolID.
func (r *UserRepository) FindInSchool(ctx context.Context, schoolID, id int64) (*models.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND school_id = $2 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id, schoolID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user in school: %w", err)
	}
	return &user, nil
}

// HasSuperAdmin reports whether any superadmin account exists.
func (r *UserRepository) HasSuperAdmin(ctx context.Context) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE role = 'superadmin')`); err != nil {
		return false, fmt.Errorf("check superadmin: %w", err)
	}
	return exists, nil
}

// UpdateLastLogin updates the last_login timestamp for a user.
func (r *UserRepository) UpdateLastLogin(ctx context.Context, id int64, ts time.Time) error {
	const query = `UPDATE users SET last_login = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, ts, ts); err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// UpdatePassword updates the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, passwordHash, updatedAt)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return expectAffected(res)
}

// UpdateProfile persists email and display name. A duplicate email is
// reported as appErrors.ErrConflict.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	user.Email = models.NormalizeEmail(user.Email)
	user.UpdatedAt = time.Now().UTC()
	const query = `UPDATE users SET email = $2, display_name = $3, updated_at = $4 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, user.ID, user.Email, user.DisplayName, user.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
		return fmt.Errorf("update profile: %w", err)
	}
	return expectAffected(res)
}

// List returns users based on filters with total count.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	baseQuery := `FROM users WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.SchoolID != nil {
		conditions = append(conditions, fmt.Sprintf("school_id = $%d", len(args)+1))
		args = append(args, *filter.SchoolID)
	}
	if filter.Role != nil {
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)+1))
		args = append(args, *filter.Role)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(email LIKE $%d OR LOWER(COALESCE(display_name, '')) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{
		"email":        true,
		"created_at":   true,
		"last_login":   true,
		"display_name": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}

	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s, id ASC LIMIT %d OFFSET %d", userColumns, baseQuery, sortBy, sortOrder, pageSize, offset)

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	return users, total, nil
}

// Create inserts a new user. Non-superadmin accounts consume a seat of the
// school; the seat count is checked under a lock on the school row.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if user.Active && user.Role != models.RoleSuperAdmin {
			if err := reserveSeat(ctx, tx, user.SchoolID); err != nil {
				return err
			}
		} else if err := lockSchool(ctx, tx, user.SchoolID); err != nil {
			return err
		}
		return insertUser(ctx, tx, user)
	})
}

// UpdateAccess applies mutate to the user's role and active flag inside a
// transaction that holds the school lock. Removing the last active admin
// yields ErrLastAdmin; activating a user past the seat limit yields
// ErrSeatsExhausted. Errors returned by mutate abort the update unchanged.
func (r *UserRepository) UpdateAccess(ctx context.Context, schoolID, id int64, mutate func(user *models.User) error) (*models.User, error) {
	var updated models.User
	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := lockSchool(ctx, tx, schoolID); err != nil {
			return err
		}

		const findQuery = `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND school_id = $2 FOR UPDATE`
		var current models.User
		if err := tx.GetContext(ctx, &current, findQuery, id, schoolID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return err
			}
			return fmt.Errorf("lock user: %w", err)
		}

		next := current
		if err := mutate(&next); err != nil {
			return err
		}
		if next.Role == current.Role && next.Active == current.Active {
			updated = current
			return nil
		}

		wasAdmin := current.Active && current.Role == models.RoleAdmin
		staysAdmin := next.Active && next.Role == models.RoleAdmin
		if wasAdmin && !staysAdmin {
			admins, err := lockActiveAdmins(ctx, tx, schoolID)
			if err != nil {
				return err
			}
			if admins <= 1 {
				return appErrors.ErrLastAdmin
			}
		}

		if !current.Active && next.Active && next.Role != models.RoleSuperAdmin {
			if err := checkSeats(ctx, tx, schoolID); err != nil {
				return err
			}
		}

		next.UpdatedAt = time.Now().UTC()
		const updateQuery = `UPDATE users SET role = $2, active = $3, updated_at = $4 WHERE id = $1`
		if _, err := tx.ExecContext(ctx, updateQuery, next.ID, next.Role, next.Active, next.UpdatedAt); err != nil {
			return fmt.Errorf("update user access: %w", err)
		}
		updated = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// GetSettings returns per-user settings; sql.ErrNoRows when none were saved.
func (r *UserRepository) GetSettings(ctx context.Context, userID int64) (*models.UserSettings, error) {
	const query = `SELECT user_id, school_id, last_active_grade_id, updated_at FROM user_settings WHERE user_id = $1`
	var settings models.UserSettings
	if err := r.db.GetContext(ctx, &settings, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get user settings: %w", err)
	}
	return &settings, nil
}

// SaveCurrentGrade upserts the teacher's current "My Class" grade.
func (r *UserRepository) SaveCurrentGrade(ctx context.Context, userID, schoolID int64, gradeID *int64) error {
	const query = `INSERT INTO user_settings (user_id, school_id, last_active_grade_id, updated_at)
        VALUES ($1, $2, $3, $4)
        ON CONFLICT (user_id) DO UPDATE SET last_active_grade_id = EXCLUDED.last_active_grade_id, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.ExecContext(ctx, query, userID, schoolID, gradeID, time.Now().UTC()); err != nil {
		return fmt.Errorf("save current grade: %w", err)
	}
	return nil
}

func insertUser(ctx context.Context, tx *sqlx.Tx, user *models.User) error {
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	user.Email = models.NormalizeEmail(user.Email)

	const query = `INSERT INTO users (school_id, email, display_name, password_hash, role, active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	err := tx.QueryRowxContext(ctx, query, user.SchoolID, user.Email, user.DisplayName, user.PasswordHash, user.Role, user.Active, user.CreatedAt, user.UpdatedAt).Scan(&user.ID)
	if err != nil {
		if database.IsUniqueViolation(err, "") {
			return appErrors.Clone(appErrors.ErrConflict, "email already registered")
		}
		if database.IsForeignKeyViolation(err) {
			return sql.ErrNoRows
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// lockSchool serialises seat and admin bookkeeping for one school.
func lockSchool(ctx context.Context, tx *sqlx.Tx, schoolID int64) error {
	var id int64
	if err := tx.GetContext(ctx, &id, `SELECT id FROM schools WHERE id = $1 FOR UPDATE`, schoolID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("lock school: %w", err)
	}
	return nil
}

func reserveSeat(ctx context.Context, tx *sqlx.Tx, schoolID int64) error {
	if err := lockSchool(ctx, tx, schoolID); err != nil {
		return err
	}
	return checkSeats(ctx, tx, schoolID)
}

// checkSeats expects the school row to be locked by the caller.
func checkSeats(ctx context.Context, tx *sqlx.Tx, schoolID int64) error {
	const query = `SELECT s.seats_allowed,
        (SELECT COUNT(*) FROM users u WHERE u.school_id = s.id AND u.active AND u.role <> 'superadmin') AS used
        FROM schools s WHERE s.id = $1`
	var seats struct {
		Allowed int `db:"seats_allowed"`
		Used    int `db:"used"`
	}
	if err := tx.GetContext(ctx, &seats, query, schoolID); err != nil {
		return fmt.Errorf("count seats: %w", err)
	}
	if seats.Used >= seats.Allowed {
		return appErrors.WithDetails(appErrors.ErrSeatsExhausted, map[string]interface{}{
			"seatsAllowed": seats.Allowed,
			"seatsUsed":    seats.Used,
		})
	}
	return nil
}

func lockActiveAdmins(ctx context.Context, tx *sqlx.Tx, schoolID int64) (int, error) {
	const query = `SELECT id FROM users WHERE school_id = $1 AND role = 'admin' AND active ORDER BY id FOR UPDATE`
	var ids []int64
	if err := tx.SelectContext(ctx, &ids, query, schoolID); err != nil {
		return 0, fmt.Errorf("lock admins: %w", err)
	}
	return len(ids), nil
}
