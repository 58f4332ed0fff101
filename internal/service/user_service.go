package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/passpilot-api/internal/dto"
	"github.com/noah-isme/passpilot-api/internal/models"
	appErrors "github.com/noah-isme/passpilot-api/pkg/errors"
	"github.com/noah-isme/passpilot-api/pkg/mailer"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindInSchool(ctx context.Context, schoolID, id int64) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdateAccess(ctx context.Context, schoolID, id int64, mutate func(user *models.User) error) (*models.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string, updatedAt time.Time) error
}

type inviteRepository interface {
	Create(ctx context.Context, token *models.RegistrationToken) error
	ListPending(ctx context.Context, schoolID int64, now time.Time) ([]models.RegistrationToken, error)
}

// UserServiceConfig controls invite issuance.
type UserServiceConfig struct {
	InviteTTL     time.Duration
	InviteBaseURL string
	PasswordCost  int
}

// UserService handles account management inside one school.
type UserService struct {
	repo      userRepository
	invites   inviteRepository
	mail      mailer.Mailer
	audit     *AuditService
	validator *validator.Validate
	logger    *zap.Logger
	config    UserServiceConfig
	now       func() time.Time
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, invites inviteRepository, mail mailer.Mailer, audit *AuditService, validate *validator.Validate, logger *zap.Logger, config UserServiceConfig) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if config.InviteTTL <= 0 {
		config.InviteTTL = 24 * time.Hour
	}
	if config.PasswordCost == 0 {
		config.PasswordCost = bcrypt.DefaultCost
	}
	return &UserService{
		repo:      repo,
		invites:   invites,
		mail:      mail,
		audit:     audit,
		validator: validate,
		logger:    logger,
		config:    config,
		now:       time.Now,
	}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}
	filter.Search = strings.TrimSpace(filter.Search)

	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	if users == nil {
		users = []models.User{}
	}
	return users, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// Create adds an active user with a password, consuming a seat.
func (s *UserService) Create(ctx context.Context, actor Actor, schoolID int64, req dto.CreateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid create user payload")
	}
	if err := ensureEmailFree(ctx, s.repo, req.Email); err != nil {
		return nil, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.config.PasswordCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		SchoolID:     schoolID,
		Email:        models.NormalizeEmail(req.Email),
		DisplayName:  trimOptional(req.DisplayName),
		Role:         req.Role,
		Active:       true,
		PasswordHash: string(passwordHash),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, mapRepoError(err, "school not found", "failed to create user")
	}

	s.audit.Record(ctx, AuditEntry{
		ActorUserID: actor.userRef(),
		SchoolID:    idRef(schoolID),
		Action:      models.AuditUserCreate,
		TargetType:  "user",
		TargetID:    idRef(user.ID),
		Data:        map[string]interface{}{"email": user.Email, "role": user.Role},
	})
	return user, nil
}

// Invite issues a six character activation code, stores only its hash, and mails it.
func (s *UserService) Invite(ctx context.Context, actor Actor, schoolID int64, req dto.InviteRequest) (*dto.InviteResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid invite payload")
	}
	if err := ensureEmailFree(ctx, s.repo, req.Email); err != nil {
		return nil, err
	}

	code, err := newInviteCode()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate invite code")
	}
	codeHash, err := bcrypt.GenerateFromPassword([]byte(code), s.config.PasswordCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash invite code")
	}

	ttl := s.config.InviteTTL
	if req.ExpiresInMinutes != nil {
		ttl = time.Duration(*req.ExpiresInMinutes) * time.Minute
	}
	token := &models.RegistrationToken{
		SchoolID:  schoolID,
		Email:     models.NormalizeEmail(req.Email),
		Role:      req.Role,
		CodeHash:  string(codeHash),
		ExpiresAt: s.now().UTC().Add(ttl),
		CreatedBy: actor.userRef(),
	}
	if err := s.invites.Create(ctx, token); err != nil {
		return nil, mapRepoError(err, "school not found", "failed to create invite")
	}

	resp := &dto.InviteResponse{
		InviteID:      token.ID,
		Email:         token.Email,
		Role:          string(token.Role),
		Code:          code,
		ExpiresAt:     token.ExpiresAt,
		ActivationURL: s.activationURL(schoolID, token.Email, code),
	}

	if s.mail != nil {
		msg := mailer.Message{
			To:      token.Email,
			Subject: "You're invited to PassPilot",
			Text:    fmt.Sprintf("Your activation code is %s. It expires at %s.\n\nActivate your account: %s\n",
				code, token.ExpiresAt.Format(time.RFC1123), resp.ActivationURL),
		}
		if err := s.mail.Send(ctx, msg); err != nil {
			s.logger.Warn("failed to send invite email", zap.Int64("invite_id", token.ID), zap.Error(err))
		}
	}

	s.audit.Record(ctx, AuditEntry{
		ActorUserID: actor.userRef(),
		SchoolID:    idRef(schoolID),
		Action:      models.AuditInviteCreate,
		TargetType:  "invite",
		TargetID:    idRef(token.ID),
		Data:        map[string]interface{}{"email": token.Email, "role": token.Role},
	})
	return resp, nil
}

// PendingInvites lists unused, unexpired invites without their codes.
func (s *UserService) PendingInvites(ctx context.Context, schoolID int64) ([]models.RegistrationToken, error) {
	invites, err := s.invites.ListPending(ctx, schoolID, s.now().UTC())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list invites")
	}
	if invites == nil {
		invites = []models.RegistrationToken{}
	}
	return invites, nil
}

// SchoolOf returns the school a user belongs to; superadmin routes act there.
func (s *UserService) SchoolOf(ctx context.Context, id int64) (int64, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return 0, mapRepoError(err, "user not found", "failed to load user")
	}
	return user.SchoolID, nil
}

// SetActive activates or deactivates a user under the seat and last-admin rules.
func (s *UserService) SetActive(ctx context.Context, actor Actor, schoolID, id int64, req dto.SetActiveRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid active payload")
	}
	active := *req.Active
	action := models.AuditUserDeactivate
	if active {
		action = models.AuditUserActivate
	}
	return s.changeAccess(ctx, actor, schoolID, id, action, func(user *models.User) error {
		user.Active = active
		return nil
	})
}

// Promote makes a teacher an admin; promoting an admin is a no-op.
func (s *UserService) Promote(ctx context.Context, actor Actor, schoolID, id int64) (*models.User, error) {
	return s.changeAccess(ctx, actor, schoolID, id, models.AuditUserPromoteAdmin, func(user *models.User) error {
		if user.Role == models.RoleSuperAdmin {
			return fieldError("role", "superadmin role cannot be changed")
		}
		user.Role = models.RoleAdmin
		return nil
	})
}

// Demote turns an admin back into a teacher unless they are the last active admin.
func (s *UserService) Demote(ctx context.Context, actor Actor, schoolID, id int64) (*models.User, error) {
	return s.changeAccess(ctx, actor, schoolID, id, models.AuditUserDemoteTeacher, func(user *models.User) error {
		if user.Role != models.RoleAdmin {
			return fieldError("role", "user is not an admin")
		}
		user.Role = models.RoleTeacher
		return nil
	})
}

// ResetPassword sets a new password for a user of the school.
func (s *UserService) ResetPassword(ctx context.Context, actor Actor, schoolID, id int64, req dto.ResetPasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid reset password payload")
	}
	user, err := s.repo.FindInSchool(ctx, schoolID, id)
	if err != nil {
		return mapRepoError(err, "user not found", "failed to load user")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.config.PasswordCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, string(hash), s.now().UTC()); err != nil {
		return mapRepoError(err, "user not found", "failed to reset password")
	}
	s.audit.Record(ctx, AuditEntry{
		ActorUserID: actor.userRef(),
		SchoolID:    idRef(schoolID),
		Action:      models.AuditUserPasswordReset,
		TargetType:  "user",
		TargetID:    idRef(user.ID),
	})
	return nil
}

func (s *UserService) changeAccess(ctx context.Context, actor Actor, schoolID, id int64, action models.AuditAction, mutate func(*models.User) error) (*models.User, error) {
	var before models.User
	user, err := s.repo.UpdateAccess(ctx, schoolID, id, func(u *models.User) error {
		before = *u
		return mutate(u)
	})
	if err != nil {
		return nil, mapRepoError(err, "user not found", "failed to update user")
	}
	if before.Role == user.Role && before.Active == user.Active {
		return user, nil
	}
	s.audit.Record(ctx, AuditEntry{
		ActorUserID: actor.userRef(),
		SchoolID:    idRef(schoolID),
		Action:      action,
		TargetType:  "user",
		TargetID:    idRef(user.ID),
		Data: map[string]interface{}{
			"from": map[string]interface{}{"role": before.Role, "active": before.Active},
			"to":   map[string]interface{}{"role": user.Role, "active": user.Active},
		},
	})
	return user, nil
}

type emailLookup interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

func ensureEmailFree(ctx context.Context, users emailLookup, email string) error {
	if _, err := users.FindByEmail(ctx, email); err == nil {
		return appErrors.Clone(appErrors.ErrConflict, "email already registered")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email uniqueness")
	}
	return nil
}

func (s *UserService) activationURL(schoolID int64, email, code string) string {
	q := url.Values{}
	q.Set("schoolId", fmt.Sprintf("%d", schoolID))
	q.Set("email", email)
	q.Set("code", code)
	return strings.TrimRight(s.config.InviteBaseURL, "/") + "/activate?" + q.Encode()
}

// newInviteCode returns three random bytes as upper-case hex.
func newInviteCode() (string, error) {
	buf := make([]byte, 3)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(buf)), nil
}
