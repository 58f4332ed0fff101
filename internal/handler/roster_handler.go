package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/passpilot-api/internal/dto"
	"github.com/noah-isme/passpilot-api/internal/middleware"
	"github.com/noah-isme/passpilot-api/internal/models"
	"github.com/noah-isme/passpilot-api/internal/service"
	appErrors "github.com/noah-isme/passpilot-api/pkg/errors"
	"github.com/noah-isme/passpilot-api/pkg/response"
)

type rosterService interface {
	ListGrades(ctx context.Context, schoolID int64, includeInactive bool) ([]models.Grade, error)
	CreateGrade(ctx context.Context, schoolID int64, req dto.CreateGradeRequest) (*models.Grade, error)
	UpdateGrade(ctx context.Context, schoolID, id int64, req dto.UpdateGradeRequest) (*models.Grade, error)
	DeactivateGrade(ctx context.Context, schoolID, id int64) error
	ListStudents(ctx context.Context, filter models.StudentFilter) ([]models.Student, error)
	CreateStudent(ctx context.Context, schoolID int64, req dto.CreateStudentRequest) (*models.Student, error)
	BulkCreateStudents(ctx context.Context, schoolID int64, req dto.BulkStudentsRequest) ([]models.Student, error)
	UpdateStudent(ctx context.Context, schoolID, id int64, req dto.UpdateStudentRequest) (*models.Student, error)
	DeactivateStudent(ctx context.Context, schoolID, id int64) error
	Roster(ctx context.Context, actor service.Actor) (*dto.RosterResponse, error)
	SetSelection(ctx context.Context, actor service.Actor, req dto.RosterSelectionRequest) ([]int64, error)
	Toggle(ctx context.Context, actor service.Actor, req dto.RosterToggleRequest) ([]int64, error)
}

// RosterHandler exposes grades, students and the teacher's grade selection.
type RosterHandler struct {
	service rosterService
}

// NewRosterHandler constructs a RosterHandler.
func NewRosterHandler(svc rosterService) *RosterHandler {
	return &RosterHandler{service: svc}
}

// ListGrades godoc
// @Summary List grades
// @Tags Roster
// @Produce json
// @Param includeInactive query bool false "Include inactive grades"
// @Success 200 {object} response.Envelope
// @Router /api/grades [get]
func (h *RosterHandler) ListGrades(c *gin.Context) {
	includeInactive, err := queryBool(c, "includeInactive")
	if err != nil {
		response.Error(c, err)
		return
	}
	grades, err := h.service.ListGrades(c.Request.Context(), middleware.SchoolIDFrom(c), includeInactive != nil && *includeInactive)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, grades)
}

// CreateGrade godoc
// @Summary Create grade
// @Tags Roster
// @Accept json
// @Produce json
// @Param payload body dto.CreateGradeRequest true "Grade"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /api/grades [post]
func (h *RosterHandler) CreateGrade(c *gin.Context) {
	var req dto.CreateGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid grade payload"))
		return
	}
	grade, err := h.service.CreateGrade(c.Request.Context(), middleware.SchoolIDFrom(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, grade)
}

// UpdateGrade godoc
// @Summary Update grade
// @Tags Roster
// @Accept json
// @Produce json
// @Param id path int true "Grade ID"
// @Param payload body dto.UpdateGradeRequest true "Grade fields"
// @Success 200 {object} response.Envelope
// @Router /api/grades/{id} [patch]
func (h *RosterHandler) UpdateGrade(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid grade payload"))
		return
	}
	grade, err := h.service.UpdateGrade(c.Request.Context(), middleware.SchoolIDFrom(c), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, grade)
}

// DeleteGrade godoc
// @Summary Deactivate grade
// @Tags Roster
// @Param id path int true "Grade ID"
// @Success 200 {object} response.Envelope
// @Router /api/grades/{id} [delete]
func (h *RosterHandler) DeleteGrade(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.DeactivateGrade(c.Request.Context(), middleware.SchoolIDFrom(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"id": id, "isActive": false})
}

// ListStudents godoc
// @Summary List students
// @Tags Roster
// @Produce json
// @Param gradeId query int false "Grade filter"
// @Param q query string false "Name or code search"
// @Param includeInactive query bool false "Include inactive students"
// @Success 200 {object} response.Envelope
// @Router /api/students [get]
func (h *RosterHandler) ListStudents(c *gin.Context) {
	filter, err := studentFilter(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	students, err := h.service.ListStudents(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, students)
}

func studentFilter(c *gin.Context) (models.StudentFilter, error) {
	filter := models.StudentFilter{SchoolID: middleware.SchoolIDFrom(c), Search: strings.TrimSpace(c.Query("q"))}
	gradeID, err := queryID(c, "gradeId")
	if err != nil {
		return filter, err
	}
	filter.GradeID = gradeID
	includeInactive, err := queryBool(c, "includeInactive")
	if err != nil {
		return filter, err
	}
	filter.IncludeInactive = includeInactive != nil && *includeInactive
	return filter, nil
}

// CreateStudent godoc
// @Summary Create student
// @Tags Roster
// @Accept json
// @Produce json
// @Param payload body dto.CreateStudentRequest true "Student"
// @Success 201 {object} response.Envelope
// @Router /api/students [post]
func (h *RosterHandler) CreateStudent(c *gin.Context) {
	var req dto.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid student payload"))
		return
	}
	student, err := h.service.CreateStudent(c.Request.Context(), middleware.SchoolIDFrom(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// BulkCreateStudents godoc
// @Summary Import students
// @Description Creates every row or none
// @Tags Roster
// @Accept json
// @Produce json
// @Param payload body dto.BulkStudentsRequest true "Students"
// @Success 201 {object} response.Envelope
// @Router /api/students/bulk [post]
func (h *RosterHandler) BulkCreateStudents(c *gin.Context) {
	var req dto.BulkStudentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid bulk student payload"))
		return
	}
	students, err := h.service.BulkCreateStudents(c.Request.Context(), middleware.SchoolIDFrom(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"created": len(students), "students": students})
}

// UpdateStudent godoc
// @Summary Update student
// @Tags Roster
// @Accept json
// @Produce json
// @Param id path int true "Student ID"
// @Param payload body dto.UpdateStudentRequest true "Student fields"
// @Success 200 {object} response.Envelope
// @Router /api/students/{id} [patch]
func (h *RosterHandler) UpdateStudent(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid student payload"))
		return
	}
	student, err := h.service.UpdateStudent(c.Request.Context(), middleware.SchoolIDFrom(c), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, student)
}

// DeleteStudent godoc
// @Summary Deactivate student
// @Tags Roster
// @Param id path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /api/students/{id} [delete]
func (h *RosterHandler) DeleteStudent(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.DeactivateStudent(c.Request.Context(), middleware.SchoolIDFrom(c), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"id": id, "isActive": false})
}

// Roster godoc
// @Summary Roster with the caller's selected grades
// @Tags Roster
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /api/roster [get]
func (h *RosterHandler) Roster(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	roster, err := h.service.Roster(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, roster)
}

// SetSelection godoc
// @Summary Replace selected grades
// @Tags Roster
// @Accept json
// @Produce json
// @Param payload body dto.RosterSelectionRequest true "Grade ids"
// @Success 200 {object} response.Envelope
// @Router /api/roster/selection [put]
func (h *RosterHandler) SetSelection(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.RosterSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid selection payload"))
		return
	}
	ids, err := h.service.SetSelection(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"selectedGradeIds": ids})
}

// Toggle godoc
// @Summary Select or deselect one grade
// @Tags Roster
// @Accept json
// @Produce json
// @Param payload body dto.RosterToggleRequest true "Toggle"
// @Success 200 {object} response.Envelope
// @Router /api/roster/toggle [post]
func (h *RosterHandler) Toggle(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.RosterToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid toggle payload"))
		return
	}
	ids, err := h.service.Toggle(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"selectedGradeIds": ids})
}
