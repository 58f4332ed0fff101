package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/passpilot-api/internal/dto"
	"github.com/noah-isme/passpilot-api/internal/middleware"
	"github.com/noah-isme/passpilot-api/internal/models"
	appErrors "github.com/noah-isme/passpilot-api/pkg/errors"
	"github.com/noah-isme/passpilot-api/pkg/response"
)

type kioskAuthService interface {
	Login(ctx context.Context, req models.KioskLoginRequest) (*models.KioskSession, string, error)
}

type kioskPassService interface {
	CreateFromKiosk(ctx context.Context, kiosk models.KioskClaims, req dto.KioskPassRequest) (*dto.PassView, error)
	Return(ctx context.Context, schoolID, id int64) (*dto.PassView, error)
	ListActive(ctx context.Context, schoolID int64) ([]dto.PassView, error)
}

type kioskStudentLister interface {
	ListStudents(ctx context.Context, filter models.StudentFilter) ([]models.Student, error)
}

// KioskHandler serves shared room devices.
type KioskHandler struct {
	auth     kioskAuthService
	passes   kioskPassService
	students kioskStudentLister
	cookies  CookieConfig
}

// NewKioskHandler constructs a KioskHandler.
func NewKioskHandler(auth kioskAuthService, passes kioskPassService, students kioskStudentLister, cookies CookieConfig) *KioskHandler {
	return &KioskHandler{auth: auth, passes: passes, students: students, cookies: cookies}
}

// Login godoc
// @Summary Sign a kiosk in
// @Tags Kiosk
// @Accept json
// @Produce json
// @Param payload body models.KioskLoginRequest true "School, room and PIN"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /kiosk/login [post]
func (h *KioskHandler) Login(c *gin.Context) {
	var req models.KioskLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid kiosk login payload"))
		return
	}
	kiosk, token, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.cookies.set(c, h.cookies.KioskName, token)
	response.OK(c, kiosk)
}

// Logout godoc
// @Summary Sign a kiosk out
// @Tags Kiosk
// @Success 200 {object} response.Envelope
// @Router /kiosk/logout [post]
func (h *KioskHandler) Logout(c *gin.Context) {
	h.cookies.clear(c, h.cookies.KioskName)
	response.OK(c, gin.H{"signedOut": true})
}

// Me godoc
// @Summary Current kiosk
// @Tags Kiosk
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /kiosk/me [get]
func (h *KioskHandler) Me(c *gin.Context) {
	claims := middleware.KioskFrom(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.OK(c, models.KioskSession{SchoolID: claims.SchoolID, Room: claims.Room, KioskDeviceID: claims.KioskDeviceID})
}

// Students godoc
// @Summary Active students of the kiosk's school
// @Tags Kiosk
// @Produce json
// @Param q query string false "Name or code search"
// @Success 200 {object} response.Envelope
// @Router /kiosk/students [get]
func (h *KioskHandler) Students(c *gin.Context) {
	students, err := h.students.ListStudents(c.Request.Context(), models.StudentFilter{
		SchoolID: middleware.SchoolIDFrom(c),
		Search:   strings.TrimSpace(c.Query("q")),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, students)
}

// ActivePasses godoc
// @Summary Active passes of the kiosk's school
// @Tags Kiosk
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /kiosk/passes/active [get]
func (h *KioskHandler) ActivePasses(c *gin.Context) {
	passes, err := h.passes.ListActive(c.Request.Context(), middleware.SchoolIDFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, passes)
}

// CreatePass godoc
// @Summary Issue a pass from a kiosk
// @Tags Kiosk
// @Accept json
// @Produce json
// @Param payload body dto.KioskPassRequest true "Pass"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /kiosk/passes [post]
func (h *KioskHandler) CreatePass(c *gin.Context) {
	claims := middleware.KioskFrom(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.KioskPassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid pass payload"))
		return
	}
	pass, err := h.passes.CreateFromKiosk(c.Request.Context(), *claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, pass)
}

// ReturnPass godoc
// @Summary Return a pass from a kiosk
// @Tags Kiosk
// @Produce json
// @Param id path int true "Pass ID"
// @Success 200 {object} response.Envelope
// @Router /kiosk/passes/{id}/return [patch]
func (h *KioskHandler) ReturnPass(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	pass, err := h.passes.Return(c.Request.Context(), middleware.SchoolIDFrom(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, pass)
}
