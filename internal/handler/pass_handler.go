package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/passpilot-api/internal/dto"
	"github.com/noah-isme/passpilot-api/internal/middleware"
	"github.com/noah-isme/passpilot-api/internal/service"
	appErrors "github.com/noah-isme/passpilot-api/pkg/errors"
	"github.com/noah-isme/passpilot-api/pkg/response"
)

type passService interface {
	Create(ctx context.Context, actor service.Actor, req dto.CreatePassRequest) (*dto.PassView, error)
	Return(ctx context.Context, schoolID, id int64) (*dto.PassView, error)
	Get(ctx context.Context, actor service.Actor, id int64) (*dto.PassView, error)
	List(ctx context.Context, actor service.Actor, query dto.PassListQuery) ([]dto.PassView, error)
}

// PassHandler exposes the pass lifecycle to teachers and admins.
type PassHandler struct {
	service passService
}

// NewPassHandler constructs a PassHandler.
func NewPassHandler(svc passService) *PassHandler {
	return &PassHandler{service: svc}
}

// Create godoc
// @Summary Issue a pass
// @Description Fails with ACTIVE_PASS_EXISTS when the student is already out
// @Tags Passes
// @Accept json
// @Produce json
// @Param payload body dto.CreatePassRequest true "Pass"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /api/passes [post]
func (h *PassHandler) Create(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreatePassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid pass payload"))
		return
	}
	pass, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, pass)
}

// Return godoc
// @Summary Return a pass
// @Description Idempotent; returned and expired passes are echoed unchanged
// @Tags Passes
// @Produce json
// @Param id path int true "Pass ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /api/passes/{id}/return [patch]
func (h *PassHandler) Return(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	pass, err := h.service.Return(c.Request.Context(), middleware.SchoolIDFrom(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, pass)
}

// Get godoc
// @Summary Get a pass
// @Tags Passes
// @Produce json
// @Param id path int true "Pass ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /api/passes/{id} [get]
func (h *PassHandler) Get(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	pass, err := h.service.Get(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, pass)
}

// List godoc
// @Summary List passes
// @Tags Passes
// @Produce json
// @Param scope query string false "mine (default) or school"
// @Param status query string false "active, returned or expired"
// @Param from query string false "RFC3339 or YYYY-MM-DD"
// @Param to query string false "RFC3339 or YYYY-MM-DD (inclusive day)"
// @Param studentId query int false "Student filter"
// @Param limit query int false "Max rows (default 200, max 1000)"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /api/passes [get]
func (h *PassHandler) List(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	studentID, err := queryID(c, "studentId")
	if err != nil {
		response.Error(c, err)
		return
	}
	limit, err := queryInt(c, "limit", 0)
	if err != nil {
		response.Error(c, err)
		return
	}
	passes, err := h.service.List(c.Request.Context(), actor, dto.PassListQuery{
		Scope:     c.Query("scope"),
		Status:    c.Query("status"),
		From:      c.Query("from"),
		To:        c.Query("to"),
		StudentID: studentID,
		Limit:     limit,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, passes)
}
