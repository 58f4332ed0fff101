package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/passpilot-api/internal/dto"
	"github.com/noah-isme/passpilot-api/internal/models"
	appErrors "github.com/noah-isme/passpilot-api/pkg/errors"
)

// DefaultSeatsAllowed is applied when a school is created without a seat count.
const DefaultSeatsAllowed = 50

type schoolRepository interface {
	List(ctx context.Context) ([]models.School, error)
	FindByID(ctx context.Context, id int64) (*models.School, error)
	Create(ctx context.Context, school *models.School, admin *models.User) error
	Update(ctx context.Context, school *models.School) error
	Delete(ctx context.Context, id int64) error
	Overview(ctx context.Context, id int64) (*models.SchoolOverview, error)
}

// SchoolService manages tenants.
type SchoolService struct {
	repo      schoolRepository
	users     emailLookup
	reports   reportInvalidator
	audit     *AuditService
	validator *validator.Validate
	logger    *zap.Logger
	cost      int
}

// NewSchoolService constructs a SchoolService. users is used to reject an
// admin email that is already registered before opening the transaction.
func NewSchoolService(repo schoolRepository, users emailLookup, reports reportInvalidator, audit *AuditService, validate *validator.Validate, logger *zap.Logger) *SchoolService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &SchoolService{
		repo:      repo,
		users:     users,
		reports:   reports,
		audit:     audit,
		validator: validate,
		logger:    logger,
		cost:      bcrypt.DefaultCost,
	}
}

// Get returns a school.
func (s *SchoolService) Get(ctx context.Context, id int64) (*models.School, error) {
	school, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "school not found", "failed to load school")
	}
	return school, nil
}

// Rename changes the caller's school name.
func (s *SchoolService) Rename(ctx context.Context, actor Actor, id int64, req dto.UpdateSchoolRequest) (*models.School, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid school payload")
	}
	name := req.Name
	return s.Update(ctx, actor, id, dto.SchoolUpdateRequest{Name: &name})
}

// Overview returns seat and activity counters.
func (s *SchoolService) Overview(ctx context.Context, id int64) (*models.SchoolOverview, error) {
	overview, err := s.repo.Overview(ctx, id)
	if err != nil {
		return nil, mapRepoError(err, "school not found", "failed to load overview")
	}
	return overview, nil
}

// List returns every school.
func (s *SchoolService) List(ctx context.Context) ([]models.School, error) {
	schools, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schools")
	}
	if schools == nil {
		schools = []models.School{}
	}
	return schools, nil
}

// Create adds a school and, when adminEmail is set, its first admin.
func (s *SchoolService) Create(ctx context.Context, actor Actor, req dto.SchoolCreateRequest) (*dto.SchoolCreateResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid school payload")
	}
	if req.Name == "" {
		return nil, fieldError("name", "is required")
	}

	school := &models.School{Name: req.Name, SeatsAllowed: DefaultSeatsAllowed, Active: true}
	if req.SeatsAllowed != nil {
		school.SeatsAllowed = *req.SeatsAllowed
	}
	if req.Active != nil {
		school.Active = *req.Active
	}

	var admin *models.User
	if req.AdminEmail != nil && strings.TrimSpace(*req.AdminEmail) != "" {
		if req.AdminPassword == nil {
			return nil, fieldError("adminPassword", "is required with adminEmail")
		}
		if err := ensureEmailFree(ctx, s.users, *req.AdminEmail); err != nil {
			return nil, err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.AdminPassword), s.cost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		admin = &models.User{
			Email:        models.NormalizeEmail(*req.AdminEmail),
			PasswordHash: string(hash),
			Role:         models.RoleAdmin,
			Active:       true,
		}
	}

	if err := s.repo.Create(ctx, school, admin); err != nil {
		return nil, mapRepoError(err, "school not found", "failed to create school")
	}

	data := map[string]interface{}{"name": school.Name, "seatsAllowed": school.SeatsAllowed}
	if admin != nil {
		data["adminEmail"] = admin.Email
	}
	s.audit.Record(ctx, AuditEntry{
		ActorUserID: actor.userRef(),
		SchoolID:    idRef(school.ID),
		Action:      models.AuditSchoolCreate,
		TargetType:  "school",
		TargetID:    idRef(school.ID),
		Data:        data,
	})
	return &dto.SchoolCreateResponse{School: school, Admin: admin}, nil
}

// Update patches name, seats and active flag.
func (s *SchoolService) Update(ctx context.Context, actor Actor, id int64, req dto.SchoolUpdateRequest) (*models.School, error) {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fieldError("name", "is required")
		}
		req.Name = &name
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid school payload")
	}
	school, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *school
	if req.Name != nil {
		school.Name = *req.Name
	}
	if req.SeatsAllowed != nil {
		school.SeatsAllowed = *req.SeatsAllowed
	}
	if req.Active != nil {
		school.Active = *req.Active
	}
	if err := s.repo.Update(ctx, school); err != nil {
		return nil, mapRepoError(err, "school not found", "failed to update school")
	}
	s.audit.Record(ctx, AuditEntry{
		ActorUserID: actor.userRef(),
		SchoolID:    idRef(school.ID),
		Action:      models.AuditSchoolUpdate,
		TargetType:  "school",
		TargetID:    idRef(school.ID),
		Data: map[string]interface{}{
			"from": map[string]interface{}{"name": before.Name, "seatsAllowed": before.SeatsAllowed, "active": before.Active},
			"to":   map[string]interface{}{"name": school.Name, "seatsAllowed": school.SeatsAllowed, "active": school.Active},
		},
	})
	return school, nil
}

// Delete removes a school and everything it owns. The caller's own school is protected.
func (s *SchoolService) Delete(ctx context.Context, actor Actor, id int64) error {
	if id == actor.SchoolID {
		return appErrors.Clone(appErrors.ErrConflict, "cannot delete your own school")
	}
	school, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err, "school not found", "failed to delete school")
	}
	if s.reports != nil {
		s.reports.InvalidateSchool(ctx, id)
	}
	// school_id is omitted: the audit row must outlive the cascade.
	s.audit.Record(ctx, AuditEntry{
		ActorUserID: actor.userRef(),
		Action:      models.AuditSchoolDelete,
		TargetType:  "school",
		TargetID:    idRef(id),
		Data:        map[string]interface{}{"name": school.Name},
	})
	s.logger.Info("school deleted", zap.Int64("school_id", id), zap.Int64("actor_id", actor.UserID))
	return nil
}
