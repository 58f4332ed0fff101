package service

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/passpilot-api/internal/models"
	appErrors "github.com/noah-isme/passpilot-api/pkg/errors"
	"github.com/noah-isme/passpilot-api/pkg/session"
)

// BootstrapSchoolName names the placeholder tenant holding the first superadmin.
const BootstrapSchoolName = "Super Admin (global)"

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	HasSuperAdmin(ctx context.Context) (bool, error)
	UpdateLastLogin(ctx context.Context, id int64, ts time.Time) error
}

type authSchoolRepository interface {
	FindByID(ctx context.Context, id int64) (*models.School, error)
	Create(ctx context.Context, school *models.School, admin *models.User) error
}

type inviteRedeemer interface {
	FindRedeemable(ctx context.Context, schoolID int64, email string, now time.Time) ([]models.RegistrationToken, error)
	Redeem(ctx context.Context, tokenID int64, user *models.User, usedAt time.Time) error
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	BootstrapSecret string
	PasswordCost    int
}

// AuthService signs users in and out and creates accounts from invites.
type AuthService struct {
	users     authUserRepository
	schools   authSchoolRepository
	invites   inviteRedeemer
	sessions  *session.Codec
	audit     *AuditService
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
	now       func() time.Time
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(users authUserRepository, schools authSchoolRepository, invites inviteRedeemer, sessions *session.Codec, audit *AuditService, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if config.PasswordCost == 0 {
		config.PasswordCost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:     users,
		schools:   schools,
		invites:   invites,
		sessions:  sessions,
		audit:     audit,
		validator: validate,
		logger:    logger,
		config:    config,
		now:       time.Now,
	}
}

// Login authenticates against the requested school and returns the user with a signed session token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.User, string, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, "", validationError(err, "invalid login payload")
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// keep timing close to the wrong-password path
			_ = bcrypt.CompareHashAndPassword(dummyHash(), []byte(req.Password))
			return nil, "", appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}
	if user.SchoolID != req.SchoolID || !user.Active {
		return nil, "", appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	school, err := s.schools.FindByID(ctx, user.SchoolID)
	if err != nil {
		return nil, "", mapRepoError(err, "school not found", "failed to load school")
	}
	if !school.Active {
		return nil, "", appErrors.Clone(appErrors.ErrInactiveAccount, "school is inactive")
	}

	token, err := s.issue(user)
	if err != nil {
		return nil, "", err
	}

	ts := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, ts); err != nil {
		s.logger.Warn("failed to update last login", zap.Int64("user_id", user.ID), zap.Error(err))
	} else {
		user.LastLogin = &ts
	}
	return user, token, nil
}

// Me loads the live user row behind a session; vanished or inactive users are unauthorized.
func (s *AuthService) Me(ctx context.Context, claims models.SessionClaims) (*models.User, error) {
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session user no longer exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if !user.Active || user.SchoolID != claims.SchoolID {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "session is no longer valid")
	}
	return user, nil
}

// Activate redeems an invite code, creates the account, and signs it in.
func (s *AuthService) Activate(ctx context.Context, req models.ActivateRequest) (*models.User, string, error) {
	req.Code = strings.ToUpper(strings.TrimSpace(req.Code))
	if err := s.validator.Struct(req); err != nil {
		return nil, "", validationError(err, "invalid activation payload")
	}
	email := models.NormalizeEmail(req.Email)

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, "", appErrors.Clone(appErrors.ErrConflict, "email already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	now := s.now().UTC()
	candidates, err := s.invites.FindRedeemable(ctx, req.SchoolID, email, now)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load invites")
	}
	var invite *models.RegistrationToken
	for i := range candidates {
		if bcrypt.CompareHashAndPassword([]byte(candidates[i].CodeHash), []byte(req.Code)) == nil {
			invite = &candidates[i]
			break
		}
	}
	if invite == nil {
		return nil, "", fieldError("code", "invalid or expired code")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.PasswordCost)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	user := &models.User{
		SchoolID:     req.SchoolID,
		Email:        email,
		PasswordHash: string(hash),
		Role:         invite.Role,
		Active:       true,
	}
	if err := s.invites.Redeem(ctx, invite.ID, user, now); err != nil {
		return nil, "", mapRepoError(err, "invite not found", "failed to redeem invite")
	}

	s.audit.Record(ctx, AuditEntry{
		ActorUserID: idRef(user.ID),
		SchoolID:    idRef(user.SchoolID),
		Action:      models.AuditInviteRedeem,
		TargetType:  "user",
		TargetID:    idRef(user.ID),
		Data:        map[string]interface{}{"inviteId": invite.ID, "role": user.Role},
	})

	token, err := s.issue(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Bootstrap creates the first superadmin. secret must equal the configured bootstrap secret.
func (s *AuthService) Bootstrap(ctx context.Context, secret string, req models.BootstrapRequest) (*models.User, string, error) {
	if s.config.BootstrapSecret == "" {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "bootstrap is disabled")
	}
	if subtle.ConstantTimeCompare([]byte(secret), []byte(s.config.BootstrapSecret)) != 1 {
		return nil, "", appErrors.Clone(appErrors.ErrForbidden, "invalid bootstrap secret")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, "", validationError(err, "invalid bootstrap payload")
	}

	exists, err := s.users.HasSuperAdmin(ctx)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check superadmins")
	}
	if exists {
		return nil, "", appErrors.Clone(appErrors.ErrConflict, "a superadmin already exists")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.PasswordCost)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	school := &models.School{Name: BootstrapSchoolName, SeatsAllowed: 0, Active: true}
	user := &models.User{
		Email:        models.NormalizeEmail(req.Email),
		PasswordHash: string(hash),
		Role:         models.RoleSuperAdmin,
		Active:       true,
	}
	if err := s.schools.Create(ctx, school, user); err != nil {
		return nil, "", mapRepoError(err, "school not found", "failed to bootstrap superadmin")
	}
	s.logger.Info("superadmin bootstrapped", zap.Int64("user_id", user.ID), zap.Int64("school_id", school.ID))

	token, err := s.issue(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

func (s *AuthService) issue(user *models.User) (string, error) {
	token, err := s.sessions.Encode(&models.SessionClaims{UserID: user.ID, SchoolID: user.SchoolID, Role: user.Role})
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign session")
	}
	return token, nil
}

var (
	dummyOnce sync.Once
	dummy     []byte
)

func dummyHash() []byte {
	dummyOnce.Do(func() {
		dummy, _ = bcrypt.GenerateFromPassword([]byte("passpilot-unknown-user"), bcrypt.DefaultCost)
	})
	return dummy
}
