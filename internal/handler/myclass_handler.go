package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/passpilot-api/internal/dto"
	"github.com/noah-isme/passpilot-api/internal/service"
	appErrors "github.com/noah-isme/passpilot-api/pkg/errors"
	"github.com/noah-isme/passpilot-api/pkg/response"
)

type myClassService interface {
	Board(ctx context.Context, actor service.Actor, gradeID *int64) (*dto.MyClassResponse, error)
	SwitchGrade(ctx context.Context, actor service.Actor, req dto.SwitchGradeRequest) error
}

// MyClassHandler serves the live class board.
type MyClassHandler struct {
	service myClassService
}

// NewMyClassHandler constructs a MyClassHandler.
func NewMyClassHandler(svc myClassService) *MyClassHandler {
	return &MyClassHandler{service: svc}
}

// Board godoc
// @Summary Class board
// @Description Students of the selected grades with their live pass state
// @Tags MyClass
// @Produce json
// @Param gradeId query int false "Restrict to one selected grade"
// @Success 200 {object} response.Envelope
// @Router /api/myclass [get]
func (h *MyClassHandler) Board(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	gradeID, err := queryID(c, "gradeId")
	if err != nil {
		response.Error(c, err)
		return
	}
	board, err := h.service.Board(c.Request.Context(), actor, gradeID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, board)
}

// Switch godoc
// @Summary Switch current grade
// @Tags MyClass
// @Accept json
// @Produce json
// @Param payload body dto.SwitchGradeRequest true "Grade"
// @Success 200 {object} response.Envelope
// @Router /api/myclass/switch [post]
func (h *MyClassHandler) Switch(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.SwitchGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid switch payload"))
		return
	}
	if err := h.service.SwitchGrade(c.Request.Context(), actor, req); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"currentGradeId": req.GradeID})
}
