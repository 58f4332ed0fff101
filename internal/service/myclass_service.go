package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/passpilot-api/internal/dto"
	"github.com/noah-isme/passpilot-api/internal/models"
	appErrors "github.com/noah-isme/passpilot-api/pkg/errors"
)

type classBoardRepository interface {
	ClassBoard(ctx context.Context, schoolID int64, gradeIDs []int64) ([]models.ClassStudent, error)
}

type userSettingsRepository interface {
	GetSettings(ctx context.Context, userID int64) (*models.UserSettings, error)
	SaveCurrentGrade(ctx context.Context, userID, schoolID int64, gradeID *int64) error
}

// MyClassService builds the live board of a teacher's selected grades.
type MyClassService struct {
	grades   gradeRepository
	board    classBoardRepository
	settings userSettingsRepository
	logger   *zap.Logger
}

// NewMyClassService constructs a MyClassService.
func NewMyClassService(grades gradeRepository, board classBoardRepository, settings userSettingsRepository, logger *zap.Logger) *MyClassService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MyClassService{grades: grades, board: board, settings: settings, logger: logger}
}

// Board lists students of gradeID, or of every selected grade when gradeID is nil.
func (s *MyClassService) Board(ctx context.Context, actor Actor, gradeID *int64) (*dto.MyClassResponse, error) {
	selected, err := s.grades.SelectedGradeIDs(ctx, actor.UserID, actor.SchoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load selection")
	}
	resp := &dto.MyClassResponse{Grades: []models.Grade{}, Students: []models.ClassStudent{}}
	if len(selected) == 0 {
		return resp, nil
	}

	grades, err := s.grades.FindByIDs(ctx, actor.SchoolID, selected)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grades")
	}
	resp.Grades = grades

	ids := selected
	if gradeID != nil {
		if !containsID(selected, *gradeID) {
			return nil, fieldError("gradeId", "is not in your selected grades")
		}
		ids = []int64{*gradeID}
	}

	students, err := s.board.ClassBoard(ctx, actor.SchoolID, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class board")
	}
	resp.Students = students
	resp.Stats.Total = len(students)
	for _, student := range students {
		if student.IsOut {
			resp.Stats.Out++
		}
	}
	resp.Stats.Available = resp.Stats.Total - resp.Stats.Out

	current := selected[0]
	settings, err := s.settings.GetSettings(ctx, actor.UserID)
	switch {
	case err == nil:
		if settings.LastActiveGradeID != nil && containsID(selected, *settings.LastActiveGradeID) {
			current = *settings.LastActiveGradeID
		}
	case errors.Is(err, sql.ErrNoRows):
	default:
		s.logger.Warn("failed to load user settings", zap.Int64("user_id", actor.UserID), zap.Error(err))
	}
	resp.CurrentGradeID = &current
	return resp, nil
}

// SwitchGrade persists the teacher's current grade; it must be selected.
func (s *MyClassService) SwitchGrade(ctx context.Context, actor Actor, req dto.SwitchGradeRequest) error {
	if req.GradeID <= 0 {
		return fieldError("gradeId", "is required")
	}
	selected, err := s.grades.SelectedGradeIDs(ctx, actor.UserID, actor.SchoolID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load selection")
	}
	if !containsID(selected, req.GradeID) {
		return fieldError("gradeId", "is not in your selected grades")
	}
	gradeID := req.GradeID
	if err := s.settings.SaveCurrentGrade(ctx, actor.UserID, actor.SchoolID, &gradeID); err != nil {
		return mapRepoError(err, "grade not found", "failed to save current grade")
	}
	return nil
}

func containsID(ids []int64, id int64) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
