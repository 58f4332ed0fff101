package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/passpilot-api/internal/dto"
	"github.com/noah-isme/passpilot-api/internal/models"
	appErrors "github.com/noah-isme/passpilot-api/pkg/errors"
	"github.com/noah-isme/passpilot-api/pkg/session"
)

type kioskRepository interface {
	List(ctx context.Context, schoolID int64) ([]models.KioskDevice, error)
	ListActiveByRoom(ctx context.Context, schoolID int64, room string) ([]models.KioskDevice, error)
	FindByID(ctx context.Context, schoolID, id int64) (*models.KioskDevice, error)
	Create(ctx context.Context, device *models.KioskDevice) error
	Update(ctx context.Context, device *models.KioskDevice) error
}

type kioskSchoolLookup interface {
	FindByID(ctx context.Context, id int64) (*models.School, error)
}

// KioskService authenticates shared room devices and manages their registration.
type KioskService struct {
	repo      kioskRepository
	schools   kioskSchoolLookup
	sessions  *session.Codec
	audit     *AuditService
	validator *validator.Validate
	logger    *zap.Logger
	cost      int
}

// NewKioskService constructs a KioskService.
func NewKioskService(repo kioskRepository, schools kioskSchoolLookup, sessions *session.Codec, audit *AuditService, validate *validator.Validate, logger *zap.Logger) *KioskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &KioskService{
		repo:      repo,
		schools:   schools,
		sessions:  sessions,
		audit:     audit,
		validator: validate,
		logger:    logger,
		cost:      bcrypt.DefaultCost,
	}
}

// Login matches the PIN against active devices registered for the room.
func (s *KioskService) Login(ctx context.Context, req models.KioskLoginRequest) (*models.KioskSession, string, error) {
	req.Room = strings.TrimSpace(req.Room)
	if err := s.validator.Struct(req); err != nil {
		return nil, "", validationError(err, "invalid kiosk login payload")
	}

	school, err := s.schools.FindByID(ctx, req.SchoolID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid room or pin")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch school")
	}
	if !school.Active {
		return nil, "", appErrors.Clone(appErrors.ErrInactiveAccount, "school is inactive")
	}

	devices, err := s.repo.ListActiveByRoom(ctx, req.SchoolID, req.Room)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load kiosk devices")
	}
	for _, device := range devices {
		if bcrypt.CompareHashAndPassword([]byte(device.PinHash), []byte(req.Pin)) != nil {
			continue
		}
		claims := &models.KioskClaims{
			SchoolID:      device.SchoolID,
			Room:          device.Room,
			KioskDeviceID: device.ID,
			DeviceKey:     deviceKey(device.Token),
		}
		token, err := s.sessions.Encode(claims)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign kiosk session")
		}
		s.logger.Info("kiosk signed in", zap.Int64("school_id", device.SchoolID), zap.Int64("kiosk_device_id", device.ID))
		return &models.KioskSession{SchoolID: device.SchoolID, Room: device.Room, KioskDeviceID: device.ID}, token, nil
	}
	return nil, "", appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid room or pin")
}

// Verify confirms the device behind a kiosk cookie still exists, is active and
// still carries the token the cookie was issued against.
func (s *KioskService) Verify(ctx context.Context, claims models.KioskClaims) error {
	device, err := s.repo.FindByID(ctx, claims.SchoolID, claims.KioskDeviceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrUnauthorized, "kiosk device is no longer registered")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify kiosk device")
	}
	if !device.Active || device.SchoolID != claims.SchoolID {
		return appErrors.Clone(appErrors.ErrUnauthorized, "kiosk device is disabled")
	}
	if subtle.ConstantTimeCompare([]byte(claims.DeviceKey), []byte(deviceKey(device.Token))) != 1 {
		return appErrors.Clone(appErrors.ErrUnauthorized, "kiosk session was revoked")
	}
	return nil
}

// ListDevices returns the school's kiosk devices.
func (s *KioskService) ListDevices(ctx context.Context, schoolID int64) ([]models.KioskDevice, error) {
	devices, err := s.repo.List(ctx, schoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list kiosks")
	}
	if devices == nil {
		devices = []models.KioskDevice{}
	}
	return devices, nil
}

// CreateDevice registers a room device with a hashed PIN.
func (s *KioskService) CreateDevice(ctx context.Context, actor Actor, req dto.CreateKioskRequest) (*models.KioskDevice, error) {
	req.Room = strings.TrimSpace(req.Room)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid kiosk payload")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Pin), s.cost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash pin")
	}
	device := &models.KioskDevice{
		SchoolID: actor.SchoolID,
		Room:     req.Room,
		PinHash:  string(hash),
		Token:    uuid.NewString(),
		Active:   true,
	}
	if err := s.repo.Create(ctx, device); err != nil {
		return nil, mapRepoError(err, "school not found", "failed to create kiosk")
	}
	s.audit.Record(ctx, AuditEntry{
		ActorUserID: actor.userRef(),
		SchoolID:    actor.schoolRef(),
		Action:      models.AuditKioskCreate,
		TargetType:  "kiosk",
		TargetID:    idRef(device.ID),
		Data:        map[string]interface{}{"room": device.Room},
	})
	return device, nil
}

// UpdateDevice toggles a device or rotates its PIN. A new PIN also rotates
// the device token, revoking kiosk cookies issued under the old one.
func (s *KioskService) UpdateDevice(ctx context.Context, actor Actor, id int64, req dto.UpdateKioskRequest) (*models.KioskDevice, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid kiosk payload")
	}
	device, err := s.repo.FindByID(ctx, actor.SchoolID, id)
	if err != nil {
		return nil, mapRepoError(err, "kiosk not found", "failed to load kiosk")
	}
	data := map[string]interface{}{}
	if req.Active != nil {
		device.Active = *req.Active
		data["active"] = device.Active
	}
	if req.Pin != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Pin), s.cost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash pin")
		}
		device.PinHash = string(hash)
		device.Token = uuid.NewString()
		data["pinRotated"] = true
	}
	if err := s.repo.Update(ctx, device); err != nil {
		return nil, mapRepoError(err, "kiosk not found", "failed to update kiosk")
	}
	s.audit.Record(ctx, AuditEntry{
		ActorUserID: actor.userRef(),
		SchoolID:    actor.schoolRef(),
		Action:      models.AuditKioskUpdate,
		TargetType:  "kiosk",
		TargetID:    idRef(device.ID),
		Data:        data,
	})
	return device, nil
}

// deviceKey is the token fingerprint carried in kiosk cookies.
func deviceKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:16])
}
