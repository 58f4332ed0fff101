package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/passpilot-api/internal/models"
)

const kioskColumns = `id, school_id, room, pin_hash, token, active, created_at`

// KioskRepository persists kiosk devices.
type KioskRepository struct {
	db *sqlx.DB
}

// NewKioskRepository constructs a KioskRepository.
func NewKioskRepository(db *sqlx.DB) *KioskRepository {
	return &KioskRepository{db: db}
}

// List returns all devices of a school.
func (r *KioskRepository) List(ctx context.Context, schoolID int64) ([]models.KioskDevice, error) {
	const query = `SELECT ` + kioskColumns + ` FROM kiosk_devices WHERE school_id = $1 ORDER BY room ASC, id ASC`
	var devices []models.KioskDevice
	if err := r.db.SelectContext(ctx, &devices, query, schoolID); err != nil {
		return nil, fmt.Errorf("list kiosks: %w", err)
	}
	return devices, nil
}

// ListActiveByRoom returns active devices registered for a room.
func (r *KioskRepository) ListActiveByRoom(ctx context.Context, schoolID int64, room string) ([]models.KioskDevice, error) {
	const query = `SELECT ` + kioskColumns + ` FROM kiosk_devices WHERE school_id = $1 AND LOWER(room) = LOWER($2) AND active ORDER BY id ASC`
	var devices []models.KioskDevice
	if err := r.db.SelectContext(ctx, &devices, query, schoolID, room); err != nil {
		return nil, fmt.Errorf("list kiosks by room: %w", err)
	}
	return devices, nil
}

// FindByID returns a device within a school.
func (r *KioskRepository) FindByID(ctx context.Context, schoolID, id int64) (*models.KioskDevice, error) {
	const query = `SELECT ` + kioskColumns + ` FROM kiosk_devices WHERE id = $1 AND school_id = $2`
	var device models.KioskDevice
	if err := r.db.GetContext(ctx, &device, query, id, schoolID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find kiosk: %w", err)
	}
	return &device, nil
}

// Create inserts a device.
func (r *KioskRepository) Create(ctx context.Context, device *models.KioskDevice) error {
	device.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO kiosk_devices (school_id, room, pin_hash, token, active, created_at)
        VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := r.db.QueryRowxContext(ctx, query, device.SchoolID, device.Room, device.PinHash, device.Token, device.Active, device.CreatedAt).Scan(&device.ID); err != nil {
		return fmt.Errorf("create kiosk: %w", err)
	}
	return nil
}

// Update persists the active flag, PIN hash and device token.
func (r *KioskRepository) Update(ctx context.Context, device *models.KioskDevice) error {
	const query = `UPDATE kiosk_devices SET active = $3, pin_hash = $4, token = $5 WHERE id = $1 AND school_id = $2`
	res, err := r.db.ExecContext(ctx, query, device.ID, device.SchoolID, device.Active, device.PinHash, device.Token)
	if err != nil {
		return fmt.Errorf("update kiosk: %w", err)
	}
	return expectAffected(res)
}
