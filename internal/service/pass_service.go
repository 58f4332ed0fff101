package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/passpilot-api/internal/dto"
	"github.com/noah-isme/passpilot-api/internal/models"
	appErrors "github.com/noah-isme/passpilot-api/pkg/errors"
)

type passRepository interface {
	Create(ctx context.Context, pass *models.Pass) error
	Return(ctx context.Context, schoolID, id int64, endsAt time.Time) (*models.Pass, bool, error)
	FindByID(ctx context.Context, schoolID, id int64, scopeUserID *int64) (*models.PassRecord, error)
	List(ctx context.Context, filter models.PassFilter) ([]models.PassRecord, error)
	ExpireStarted(ctx context.Context, cutoff, now time.Time) (int64, error)
}

type passUserLookup interface {
	FindInSchool(ctx context.Context, schoolID, id int64) (*models.User, error)
}

// reportInvalidator drops cached summaries after pass mutations.
type reportInvalidator interface {
	InvalidateSchool(ctx context.Context, schoolID int64)
	InvalidateAll(ctx context.Context)
}

// PassService implements the pass lifecycle: issue, return, list and expiry.
type PassService struct {
	repo      passRepository
	users     passUserLookup
	reports   reportInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	loc       *time.Location
	now       func() time.Time
}

// NewPassService constructs a PassService. loc interprets calendar dates in filters.
func NewPassService(repo passRepository, users passUserLookup, reports reportInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, loc *time.Location) *PassService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &PassService{
		repo:      repo,
		users:     users,
		reports:   reports,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		loc:       loc,
		now:       time.Now,
	}
}

// Create issues a pass on behalf of a teacher or admin.
func (s *PassService) Create(ctx context.Context, actor Actor, req dto.CreatePassRequest) (*dto.PassView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid pass payload")
	}
	req.StudentName = strings.TrimSpace(req.StudentName)
	if req.StudentID == nil && req.StudentName == "" {
		return nil, fieldError("studentId", "studentId or studentName is required")
	}

	passType, customReason, err := normalizePassType(req.Type, req.CustomReason)
	if err != nil {
		return nil, err
	}

	pass := &models.Pass{
		SchoolID:       actor.SchoolID,
		StudentID:      req.StudentID,
		StudentName:    req.StudentName,
		Reason:         strings.TrimSpace(req.Reason),
		Type:           passType,
		CustomReason:   customReason,
		IssuedByUserID: actor.userRef(),
	}
	return s.issue(ctx, pass, models.SourceTeacher)
}

// CreateFromKiosk issues a pass from a room device. An optional issuer must
// belong to the kiosk's school.
func (s *PassService) CreateFromKiosk(ctx context.Context, kiosk models.KioskClaims, req dto.KioskPassRequest) (*dto.PassView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid pass payload")
	}
	passType, customReason, err := normalizePassType(req.Type, req.CustomReason)
	if err != nil {
		return nil, err
	}
	if req.IssuedByUserID != nil {
		issuer, err := s.users.FindInSchool(ctx, kiosk.SchoolID, *req.IssuedByUserID)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, fieldError("issuedByUserId", "must be an active user of this school")
		case err != nil:
			return nil, mapRepoError(err, "", "failed to load issuer")
		case !issuer.Active:
			return nil, fieldError("issuedByUserId", "must be an active user of this school")
		}
	}

	studentID := req.StudentID
	deviceID := kiosk.KioskDeviceID
	pass := &models.Pass{
		SchoolID:       kiosk.SchoolID,
		StudentID:      &studentID,
		Reason:         strings.TrimSpace(req.Reason),
		Type:           passType,
		CustomReason:   customReason,
		IssuedByUserID: req.IssuedByUserID,
		KioskDeviceID:  &deviceID,
	}
	return s.issue(ctx, pass, models.SourceKiosk)
}

func (s *PassService) issue(ctx context.Context, pass *models.Pass, source models.PassSource) (*dto.PassView, error) {
	pass.StartsAt = s.now().UTC()
	if err := s.repo.Create(ctx, pass); err != nil {
		if errors.Is(err, appErrors.ErrActivePass) {
			s.metrics.RecordPassConflict()
		}
		return nil, mapRepoError(err, "student not found", "failed to create pass")
	}
	s.metrics.RecordPassCreated(source)
	s.invalidate(ctx, pass.SchoolID)
	s.logger.Info("pass issued",
		zap.Int64("pass_id", pass.ID),
		zap.Int64("school_id", pass.SchoolID),
		zap.String("source", string(source)),
	)
	return s.view(models.PassRecord{Pass: *pass}), nil
}

// Return closes an active pass. Already returned or expired passes are
// returned unchanged.
func (s *PassService) Return(ctx context.Context, schoolID, id int64) (*dto.PassView, error) {
	pass, changed, err := s.repo.Return(ctx, schoolID, id, s.now().UTC())
	if err != nil {
		return nil, mapRepoError(err, "pass not found", "failed to return pass")
	}
	if changed {
		s.metrics.RecordPassReturned()
		s.invalidate(ctx, schoolID)
	}
	return s.view(models.PassRecord{Pass: *pass}), nil
}

// Get returns one pass. Teachers only see passes inside their scope.
func (s *PassService) Get(ctx context.Context, actor Actor, id int64) (*dto.PassView, error) {
	var scope *int64
	if !actor.IsAdmin() {
		scope = actor.userRef()
	}
	record, err := s.repo.FindByID(ctx, actor.SchoolID, id, scope)
	if err != nil {
		return nil, mapRepoError(err, "pass not found", "failed to load pass")
	}
	return s.view(*record), nil
}

// List returns passes for the requested scope, newest first.
func (s *PassService) List(ctx context.Context, actor Actor, query dto.PassListQuery) ([]dto.PassView, error) {
	filter := models.PassFilter{SchoolID: actor.SchoolID, StudentID: query.StudentID, Limit: query.Limit}

	switch models.ReportScope(strings.ToLower(strings.TrimSpace(query.Scope))) {
	case "", models.ScopeMine:
		filter.ScopeUserID = actor.userRef()
	case models.ScopeSchool:
		if !actor.IsAdmin() {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "school scope requires an admin")
		}
	default:
		return nil, fieldError("scope", "must be one of: mine school")
	}

	if query.Status != "" {
		status := models.PassStatus(strings.ToLower(query.Status))
		switch status {
		case models.PassActive, models.PassReturned, models.PassExpired:
			filter.Status = &status
		default:
			return nil, fieldError("status", "must be one of: active returned expired")
		}
	}

	if query.Limit < 0 {
		return nil, fieldError("limit", "must be positive")
	}

	from, to, err := parseRange(query.From, query.To, s.loc)
	if err != nil {
		return nil, err
	}
	filter.From, filter.To = from, to

	records, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, mapRepoError(err, "", "failed to list passes")
	}
	return s.views(records), nil
}

// ListActive returns every active pass of a school; used by kiosks.
func (s *PassService) ListActive(ctx context.Context, schoolID int64) ([]dto.PassView, error) {
	status := models.PassActive
	records, err := s.repo.List(ctx, models.PassFilter{SchoolID: schoolID, Status: &status, Limit: 1000})
	if err != nil {
		return nil, mapRepoError(err, "", "failed to list active passes")
	}
	return s.views(records), nil
}

// ExpireOverdue expires active passes older than maxAge and returns how many changed.
func (s *PassService) ExpireOverdue(ctx context.Context, maxAge time.Duration) (int64, error) {
	if maxAge <= 0 {
		return 0, nil
	}
	now := s.now().UTC()
	n, err := s.repo.ExpireStarted(ctx, now.Add(-maxAge), now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.metrics.RecordPassesExpired(n)
		if s.reports != nil {
			s.reports.InvalidateAll(ctx)
		}
		s.logger.Info("expired overdue passes", zap.Int64("count", n), zap.Duration("max_age", maxAge))
	}
	return n, nil
}

func (s *PassService) invalidate(ctx context.Context, schoolID int64) {
	if s.reports != nil {
		s.reports.InvalidateSchool(ctx, schoolID)
	}
}

func (s *PassService) view(record models.PassRecord) *dto.PassView {
	record.Type = record.Type.Normalized()
	return &dto.PassView{PassRecord: record, DurationMinutes: record.DurationMinutes(s.now())}
}

func (s *PassService) views(records []models.PassRecord) []dto.PassView {
	views := make([]dto.PassView, 0, len(records))
	for _, record := range records {
		views = append(views, *s.view(record))
	}
	return views
}

// normalizePassType defaults the type to general and enforces that custom
// passes carry a reason. Non-custom passes drop any custom reason.
func normalizePassType(passType models.PassType, customReason *string) (models.PassType, *string, error) {
	passType = passType.Normalized()
	if passType != models.PassCustom {
		return passType, nil, nil
	}
	if customReason == nil || strings.TrimSpace(*customReason) == "" {
		return "", nil, fieldError("customReason", "is required for custom passes")
	}
	trimmed := strings.TrimSpace(*customReason)
	return passType, &trimmed, nil
}
