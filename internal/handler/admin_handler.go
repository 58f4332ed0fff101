package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/passpilot-api/internal/dto"
	"github.com/noah-isme/passpilot-api/internal/middleware"
	"github.com/noah-isme/passpilot-api/internal/models"
	"github.com/noah-isme/passpilot-api/internal/service"
	appErrors "github.com/noah-isme/passpilot-api/pkg/errors"
	"github.com/noah-isme/passpilot-api/pkg/response"
)

const (
	defaultAuditLimit = 100
	maxAuditLimit     = 500
)

type userAdminService interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error)
	Create(ctx context.Context, actor service.Actor, schoolID int64, req dto.CreateUserRequest) (*models.User, error)
	Invite(ctx context.Context, actor service.Actor, schoolID int64, req dto.InviteRequest) (*dto.InviteResponse, error)
	PendingInvites(ctx context.Context, schoolID int64) ([]models.RegistrationToken, error)
	SetActive(ctx context.Context, actor service.Actor, schoolID, id int64, req dto.SetActiveRequest) (*models.User, error)
	Promote(ctx context.Context, actor service.Actor, schoolID, id int64) (*models.User, error)
	Demote(ctx context.Context, actor service.Actor, schoolID, id int64) (*models.User, error)
	ResetPassword(ctx context.Context, actor service.Actor, schoolID, id int64, req dto.ResetPasswordRequest) error
}

type schoolAdminService interface {
	Get(ctx context.Context, id int64) (*models.School, error)
	Rename(ctx context.Context, actor service.Actor, id int64, req dto.UpdateSchoolRequest) (*models.School, error)
	Overview(ctx context.Context, id int64) (*models.SchoolOverview, error)
}

type auditLister interface {
	List(ctx context.Context, schoolID *int64, limit int) ([]models.Audit, error)
}

type kioskAdminService interface {
	ListDevices(ctx context.Context, schoolID int64) ([]models.KioskDevice, error)
	CreateDevice(ctx context.Context, actor service.Actor, req dto.CreateKioskRequest) (*models.KioskDevice, error)
	UpdateDevice(ctx context.Context, actor service.Actor, id int64, req dto.UpdateKioskRequest) (*models.KioskDevice, error)
}

// AdminHandler serves school administration inside the caller's tenant.
type AdminHandler struct {
	users   userAdminService
	schools schoolAdminService
	audits  auditLister
	kiosks  kioskAdminService
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(users userAdminService, schools schoolAdminService, audits auditLister, kiosks kioskAdminService) *AdminHandler {
	return &AdminHandler{users: users, schools: schools, audits: audits, kiosks: kiosks}
}

// ListUsers godoc
// @Summary List school users
// @Tags Admin
// @Produce json
// @Param role query string false "teacher or admin"
// @Param active query bool false "Active filter"
// @Param q query string false "Email or name search"
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /api/admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	schoolID := middleware.SchoolIDFrom(c)
	filter, err := userFilter(c, &schoolID)
	if err != nil {
		response.Error(c, err)
		return
	}
	users, pagination, err := h.users.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, pagination)
}

func userFilter(c *gin.Context, schoolID *int64) (models.UserFilter, error) {
	filter := models.UserFilter{SchoolID: schoolID, Search: strings.TrimSpace(c.Query("q"))}
	if role := c.Query("role"); role != "" {
		r := models.UserRole(role)
		if !r.Valid() {
			return filter, appErrors.Validation(nil, "invalid role", []appErrors.FieldError{{Field: "role", Message: "must be one of: teacher admin superadmin"}})
		}
		filter.Role = &r
	}
	active, err := queryBool(c, "active")
	if err != nil {
		return filter, err
	}
	filter.Active = active
	if filter.Page, err = queryInt(c, "page", 1); err != nil {
		return filter, err
	}
	if filter.PageSize, err = queryInt(c, "pageSize", 0); err != nil {
		return filter, err
	}
	return filter, nil
}

// CreateUser godoc
// @Summary Create a user with a password
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.CreateUserRequest true "User"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /api/admin/users [post]
func (h *AdminHandler) CreateUser(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid user payload"))
		return
	}
	user, err := h.users.Create(c.Request.Context(), actor, actor.SchoolID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, user)
}

// Invite godoc
// @Summary Invite a user
// @Description Returns the one-time activation code and link
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.InviteRequest true "Invite"
// @Success 201 {object} response.Envelope
// @Router /api/admin/users/invite [post]
func (h *AdminHandler) Invite(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid invite payload"))
		return
	}
	invite, err := h.users.Invite(c.Request.Context(), actor, actor.SchoolID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, invite)
}

// PendingInvites godoc
// @Summary Pending invites
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /api/admin/invites [get]
func (h *AdminHandler) PendingInvites(c *gin.Context) {
	invites, err := h.users.PendingInvites(c.Request.Context(), middleware.SchoolIDFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, invites)
}

// SetActive godoc
// @Summary Activate or deactivate a user
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param payload body dto.SetActiveRequest true "Active flag"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /api/admin/users/{id}/active [patch]
func (h *AdminHandler) SetActive(c *gin.Context) {
	setActive(c, h.users, ownSchool)
}

// Promote godoc
// @Summary Promote a teacher to admin
// @Tags Admin
// @Param id path int true "User ID"
// @Success 200 {object} response.Envelope
// @Router /api/admin/users/{id}/promote [post]
func (h *AdminHandler) Promote(c *gin.Context) {
	changeRole(c, h.users.Promote, ownSchool)
}

// Demote godoc
// @Summary Demote an admin to teacher
// @Tags Admin
// @Param id path int true "User ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /api/admin/users/{id}/demote [post]
func (h *AdminHandler) Demote(c *gin.Context) {
	changeRole(c, h.users.Demote, ownSchool)
}

type roleChange func(ctx context.Context, actor service.Actor, schoolID, id int64) (*models.User, error)

// schoolResolver picks the tenant a user mutation runs in.
type schoolResolver func(ctx context.Context, actor service.Actor, userID int64) (int64, error)

func ownSchool(ctx context.Context, actor service.Actor, userID int64) (int64, error) {
	return actor.SchoolID, nil
}

func changeRole(c *gin.Context, change roleChange, resolve schoolResolver) {
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
	schoolID, err := resolve(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	user, err := change(c.Request.Context(), actor, schoolID, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user)
}

func setActive(c *gin.Context, users userAdminService, resolve schoolResolver) {
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
	var req dto.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid active payload"))
		return
	}
	schoolID, err := resolve(c.Request.Context(), actor, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	user, err := users.SetActive(c.Request.Context(), actor, schoolID, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, user)
}

// ResetPassword godoc
// @Summary Reset a user's password
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param payload body dto.ResetPasswordRequest true "New password"
// @Success 200 {object} response.Envelope
// @Router /api/admin/users/{id}/reset-password [post]
func (h *AdminHandler) ResetPassword(c *gin.Context) {
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
	var req dto.ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid password payload"))
		return
	}
	if err := h.users.ResetPassword(c.Request.Context(), actor, actor.SchoolID, id, req); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"id": id, "passwordReset": true})
}

// School godoc
// @Summary Current school
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /api/admin/school [get]
func (h *AdminHandler) School(c *gin.Context) {
	school, err := h.schools.Get(c.Request.Context(), middleware.SchoolIDFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, school)
}

// RenameSchool godoc
// @Summary Rename the school
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.UpdateSchoolRequest true "Name"
// @Success 200 {object} response.Envelope
// @Router /api/admin/school [patch]
func (h *AdminHandler) RenameSchool(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.UpdateSchoolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid school payload"))
		return
	}
	school, err := h.schools.Rename(c.Request.Context(), actor, actor.SchoolID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, school)
}

// Overview godoc
// @Summary School counters
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /api/admin/overview [get]
func (h *AdminHandler) Overview(c *gin.Context) {
	overview, err := h.schools.Overview(c.Request.Context(), middleware.SchoolIDFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, overview)
}

// Audits godoc
// @Summary Tenant audit log
// @Tags Admin
// @Produce json
// @Param limit query int false "Max rows (default 100, max 500)"
// @Success 200 {object} response.Envelope
// @Router /api/admin/audits [get]
func (h *AdminHandler) Audits(c *gin.Context) {
	schoolID := middleware.SchoolIDFrom(c)
	listAudits(c, h.audits, &schoolID)
}

func listAudits(c *gin.Context, audits auditLister, schoolID *int64) {
	limit, err := queryInt(c, "limit", defaultAuditLimit)
	if err != nil {
		response.Error(c, err)
		return
	}
	if limit <= 0 {
		limit = defaultAuditLimit
	}
	if limit > maxAuditLimit {
		limit = maxAuditLimit
	}
	rows, err := audits.List(c.Request.Context(), schoolID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, rows)
}

// Kiosks godoc
// @Summary List kiosk devices
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /api/admin/kiosks [get]
func (h *AdminHandler) Kiosks(c *gin.Context) {
	devices, err := h.kiosks.ListDevices(c.Request.Context(), middleware.SchoolIDFrom(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, devices)
}

// CreateKiosk godoc
// @Summary Register a kiosk device
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body dto.CreateKioskRequest true "Room and PIN"
// @Success 201 {object} response.Envelope
// @Router /api/admin/kiosks [post]
func (h *AdminHandler) CreateKiosk(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.CreateKioskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid kiosk payload"))
		return
	}
	device, err := h.kiosks.CreateDevice(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, device)
}

// UpdateKiosk godoc
// @Summary Toggle a kiosk or rotate its PIN
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path int true "Kiosk ID"
// @Param payload body dto.UpdateKioskRequest true "Fields"
// @Success 200 {object} response.Envelope
// @Router /api/admin/kiosks/{id} [patch]
func (h *AdminHandler) UpdateKiosk(c *gin.Context) {
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
	var req dto.UpdateKioskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid kiosk payload"))
		return
	}
	device, err := h.kiosks.UpdateDevice(c.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, device)
}
