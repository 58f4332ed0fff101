package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/passpilot-api/internal/models"
	appErrors "github.com/noah-isme/passpilot-api/pkg/errors"
)

type profileRepository interface {
	FindInSchool(ctx context.Context, schoolID, id int64) (*models.User, error)
	UpdateProfile(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string, updatedAt time.Time) error
}

// ProfileService lets a signed-in user manage their own account.
type ProfileService struct {
	repo      profileRepository
	validator *validator.Validate
	logger    *zap.Logger
	cost      int
	now       func() time.Time
}

// NewProfileService constructs a ProfileService.
func NewProfileService(repo profileRepository, validate *validator.Validate, logger *zap.Logger) *ProfileService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &ProfileService{repo: repo, validator: validate, logger: logger, cost: bcrypt.DefaultCost, now: time.Now}
}

// Get returns the caller's profile.
func (s *ProfileService) Get(ctx context.Context, actor Actor) (*models.User, error) {
	user, err := s.repo.FindInSchool(ctx, actor.SchoolID, actor.UserID)
	if err != nil {
		return nil, mapRepoError(err, "user not found", "failed to load profile")
	}
	return user, nil
}

// Update changes email and/or display name. A blank display name clears it.
func (s *ProfileService) Update(ctx context.Context, actor Actor, req models.UpdateProfileRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid profile payload")
	}
	user, err := s.Get(ctx, actor)
	if err != nil {
		return nil, err
	}
	if req.Email != nil {
		user.Email = models.NormalizeEmail(*req.Email)
	}
	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if name == "" {
			user.DisplayName = nil
		} else {
			user.DisplayName = &name
		}
	}
	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		return nil, mapRepoError(err, "user not found", "failed to update profile")
	}
	return user, nil
}

// ChangePassword replaces the password after verifying the current one.
func (s *ProfileService) ChangePassword(ctx context.Context, actor Actor, req models.ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid change password payload")
	}
	user, err := s.Get(ctx, actor)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return fieldError("currentPassword", "does not match")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.cost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, string(hash), s.now().UTC()); err != nil {
		return mapRepoError(err, "user not found", "failed to update password")
	}
	s.logger.Info("password changed", zap.Int64("user_id", user.ID))
	return nil
}
