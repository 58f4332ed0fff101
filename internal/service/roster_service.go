package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/passpilot-api/internal/dto"
	"github.com/noah-isme/passpilot-api/internal/models"
	appErrors "github.com/noah-isme/passpilot-api/pkg/errors"
)

type gradeRepository interface {
	List(ctx context.Context, schoolID int64, includeInactive bool) ([]models.Grade, error)
	FindByID(ctx context.Context, schoolID, id int64) (*models.Grade, error)
	FindByIDs(ctx context.Context, schoolID int64, ids []int64) ([]models.Grade, error)
	Create(ctx context.Context, grade *models.Grade) error
	Update(ctx context.Context, grade *models.Grade) error
	SelectedGradeIDs(ctx context.Context, userID, schoolID int64) ([]int64, error)
	ReplaceSelection(ctx context.Context, userID, schoolID int64, gradeIDs []int64) error
	Select(ctx context.Context, userID, schoolID, gradeID int64) error
	Deselect(ctx context.Context, userID, schoolID, gradeID int64) error
}

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, error)
	FindByID(ctx context.Context, schoolID, id int64) (*models.Student, error)
	Create(ctx context.Context, student *models.Student) error
	BulkCreate(ctx context.Context, students []models.Student) error
	Update(ctx context.Context, student *models.Student) error
}

// RosterService manages grades, students and each teacher's grade selection.
type RosterService struct {
	grades    gradeRepository
	students  studentRepository
	reports   reportInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRosterService constructs a RosterService. reports is told about roster
// changes that alter teacher scopes or grade names in summaries.
func NewRosterService(grades gradeRepository, students studentRepository, reports reportInvalidator, validate *validator.Validate, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &RosterService{grades: grades, students: students, reports: reports, validator: validate, logger: logger}
}

// ListGrades returns the school's grades ordered by name.
func (s *RosterService) ListGrades(ctx context.Context, schoolID int64, includeInactive bool) ([]models.Grade, error) {
	grades, err := s.grades.List(ctx, schoolID, includeInactive)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	if grades == nil {
		grades = []models.Grade{}
	}
	return grades, nil
}

// CreateGrade adds a grade; names are unique per school.
func (s *RosterService) CreateGrade(ctx context.Context, schoolID int64, req dto.CreateGradeRequest) (*models.Grade, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid grade payload")
	}
	grade := &models.Grade{SchoolID: schoolID, Name: req.Name, IsActive: true}
	if err := s.grades.Create(ctx, grade); err != nil {
		return nil, mapRepoError(err, "grade not found", "failed to create grade")
	}
	return grade, nil
}

// UpdateGrade renames or (de)activates a grade.
func (s *RosterService) UpdateGrade(ctx context.Context, schoolID, id int64, req dto.UpdateGradeRequest) (*models.Grade, error) {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fieldError("name", "is required")
		}
		req.Name = &name
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid grade payload")
	}
	grade, err := s.grades.FindByID(ctx, schoolID, id)
	if err != nil {
		return nil, mapRepoError(err, "grade not found", "failed to load grade")
	}
	if req.Name != nil {
		grade.Name = *req.Name
	}
	if req.IsActive != nil {
		grade.IsActive = *req.IsActive
	}
	if err := s.grades.Update(ctx, grade); err != nil {
		return nil, mapRepoError(err, "grade not found", "failed to update grade")
	}
	s.invalidate(ctx, schoolID)
	return grade, nil
}

// DeactivateGrade soft-deletes a grade; students keep their assignment.
func (s *RosterService) DeactivateGrade(ctx context.Context, schoolID, id int64) error {
	inactive := false
	_, err := s.UpdateGrade(ctx, schoolID, id, dto.UpdateGradeRequest{IsActive: &inactive})
	return err
}

// ListStudents searches students inside the school set on filter.
func (s *RosterService) ListStudents(ctx context.Context, filter models.StudentFilter) ([]models.Student, error) {
	filter.Search = strings.TrimSpace(filter.Search)
	students, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	if students == nil {
		students = []models.Student{}
	}
	return students, nil
}

// CreateStudent adds one student to a grade of the same school.
func (s *RosterService) CreateStudent(ctx context.Context, schoolID int64, req dto.CreateStudentRequest) (*models.Student, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid student payload")
	}
	if err := s.ensureGrades(ctx, schoolID, []int64{req.GradeID}, "gradeId"); err != nil {
		return nil, err
	}
	gradeID := req.GradeID
	student := &models.Student{
		SchoolID:    schoolID,
		GradeID:     &gradeID,
		Name:        req.Name,
		StudentCode: trimOptional(req.StudentCode),
		IsActive:    true,
	}
	if err := s.students.Create(ctx, student); err != nil {
		return nil, mapRepoError(err, "student not found", "failed to create student")
	}
	return student, nil
}

// BulkCreateStudents imports all rows or none. A row without gradeId inherits
// the request gradeId; a row left without any grade rejects the import.
func (s *RosterService) BulkCreateStudents(ctx context.Context, schoolID int64, req dto.BulkStudentsRequest) ([]models.Student, error) {
	for i := range req.Students {
		req.Students[i].Name = strings.TrimSpace(req.Students[i].Name)
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid bulk student payload")
	}

	students := make([]models.Student, 0, len(req.Students))
	seen := make(map[int64]struct{})
	var gradeIDs []int64
	var missing []appErrors.FieldError
	for i, row := range req.Students {
		gradeID := row.GradeID
		if gradeID == nil {
			gradeID = req.GradeID
		}
		if gradeID == nil {
			missing = append(missing, appErrors.FieldError{Field: fmt.Sprintf("students[%d].gradeId", i), Message: "is required"})
			continue
		}
		if _, ok := seen[*gradeID]; !ok {
			seen[*gradeID] = struct{}{}
			gradeIDs = append(gradeIDs, *gradeID)
		}
		students = append(students, models.Student{
			SchoolID:    schoolID,
			GradeID:     gradeID,
			Name:        row.Name,
			StudentCode: trimOptional(row.StudentCode),
			IsActive:    true,
		})
	}
	if len(missing) > 0 {
		return nil, appErrors.Validation(nil, "every student needs a grade", missing)
	}
	if err := s.ensureGrades(ctx, schoolID, gradeIDs, "gradeId"); err != nil {
		return nil, err
	}
	if err := s.students.BulkCreate(ctx, students); err != nil {
		return nil, mapRepoError(err, "student not found", "failed to import students")
	}
	s.logger.Info("students imported", zap.Int64("school_id", schoolID), zap.Int("count", len(students)))
	return students, nil
}

// UpdateStudent patches name, grade or code.
func (s *RosterService) UpdateStudent(ctx context.Context, schoolID, id int64, req dto.UpdateStudentRequest) (*models.Student, error) {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fieldError("name", "is required")
		}
		req.Name = &name
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid student payload")
	}
	student, err := s.students.FindByID(ctx, schoolID, id)
	if err != nil {
		return nil, mapRepoError(err, "student not found", "failed to load student")
	}
	if req.GradeID != nil {
		if err := s.ensureGrades(ctx, schoolID, []int64{*req.GradeID}, "gradeId"); err != nil {
			return nil, err
		}
		gradeID := *req.GradeID
		student.GradeID = &gradeID
	}
	if req.Name != nil {
		student.Name = *req.Name
	}
	if req.StudentCode != nil {
		student.StudentCode = trimOptional(req.StudentCode)
	}
	if err := s.students.Update(ctx, student); err != nil {
		return nil, mapRepoError(err, "student not found", "failed to update student")
	}
	s.invalidate(ctx, schoolID)
	return student, nil
}

// DeactivateStudent soft-deletes a student; pass history is preserved.
func (s *RosterService) DeactivateStudent(ctx context.Context, schoolID, id int64) error {
	student, err := s.students.FindByID(ctx, schoolID, id)
	if err != nil {
		return mapRepoError(err, "student not found", "failed to load student")
	}
	if !student.IsActive {
		return nil
	}
	student.IsActive = false
	if err := s.students.Update(ctx, student); err != nil {
		return mapRepoError(err, "student not found", "failed to deactivate student")
	}
	return nil
}

// Roster returns active grades, active students and the caller's selection.
func (s *RosterService) Roster(ctx context.Context, actor Actor) (*dto.RosterResponse, error) {
	grades, err := s.ListGrades(ctx, actor.SchoolID, false)
	if err != nil {
		return nil, err
	}
	students, err := s.ListStudents(ctx, models.StudentFilter{SchoolID: actor.SchoolID})
	if err != nil {
		return nil, err
	}
	selected, err := s.selection(ctx, actor)
	if err != nil {
		return nil, err
	}
	return &dto.RosterResponse{Grades: grades, Students: students, SelectedGradeIDs: selected}, nil
}

// SetSelection replaces the caller's grade selection atomically.
func (s *RosterService) SetSelection(ctx context.Context, actor Actor, req dto.RosterSelectionRequest) ([]int64, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid selection payload")
	}
	ids := uniqueIDs(req.GradeIDs)
	if err := s.grades.ReplaceSelection(ctx, actor.UserID, actor.SchoolID, ids); err != nil {
		return nil, mapRepoError(err, "grade not found", "failed to save selection")
	}
	s.invalidate(ctx, actor.SchoolID)
	return ids, nil
}

// Toggle adds or removes one grade; repeating a toggle is a no-op.
func (s *RosterService) Toggle(ctx context.Context, actor Actor, req dto.RosterToggleRequest) ([]int64, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid toggle payload")
	}
	if req.Selected {
		if err := s.ensureGrades(ctx, actor.SchoolID, []int64{req.GradeID}, "gradeId"); err != nil {
			return nil, err
		}
		if err := s.grades.Select(ctx, actor.UserID, actor.SchoolID, req.GradeID); err != nil {
			return nil, mapRepoError(err, "grade not found", "failed to select grade")
		}
	} else if err := s.grades.Deselect(ctx, actor.UserID, actor.SchoolID, req.GradeID); err != nil {
		return nil, mapRepoError(err, "grade not found", "failed to deselect grade")
	}
	s.invalidate(ctx, actor.SchoolID)
	return s.selection(ctx, actor)
}

func (s *RosterService) selection(ctx context.Context, actor Actor) ([]int64, error) {
	ids, err := s.grades.SelectedGradeIDs(ctx, actor.UserID, actor.SchoolID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load selection")
	}
	if ids == nil {
		ids = []int64{}
	}
	return ids, nil
}

// ensureGrades rejects grade ids outside the school and soft-deleted grades.
func (s *RosterService) ensureGrades(ctx context.Context, schoolID int64, ids []int64, field string) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := s.grades.FindByIDs(ctx, schoolID, ids)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grades")
	}
	if len(found) != len(ids) {
		return appErrors.Clone(appErrors.ErrNotFound, "grade not found")
	}
	for _, grade := range found {
		if !grade.IsActive {
			return fieldError(field, "must be an active grade")
		}
	}
	return nil
}

func (s *RosterService) invalidate(ctx context.Context, schoolID int64) {
	if s.reports != nil {
		s.reports.InvalidateSchool(ctx, schoolID)
	}
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func uniqueIDs(ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
