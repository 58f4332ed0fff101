package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/passpilot-api/internal/dto"
	"github.com/noah-isme/passpilot-api/internal/models"
	"github.com/noah-isme/passpilot-api/internal/service"
	appErrors "github.com/noah-isme/passpilot-api/pkg/errors"
	"github.com/noah-isme/passpilot-api/pkg/response"
)

type schoolManager interface {
	List(ctx context.Context) ([]models.School, error)
	Create(ctx context.Context, actor service.Actor, req dto.SchoolCreateRequest) (*dto.SchoolCreateResponse, error)
	Update(ctx context.Context, actor service.Actor, id int64, req dto.SchoolUpdateRequest) (*models.School, error)
	Delete(ctx context.Context, actor service.Actor, id int64) error
}

type crossTenantUsers interface {
	userAdminService
	SchoolOf(ctx context.Context, id int64) (int64, error)
}

type systemSnapshotter interface {
	Snapshot() models.SystemMetrics
}

// SuperAdminHandler serves cross-tenant management.
type SuperAdminHandler struct {
	schools schoolManager
	users   crossTenantUsers
	audits  auditLister
	metrics systemSnapshotter
}

// NewSuperAdminHandler constructs a SuperAdminHandler.
func NewSuperAdminHandler(schools schoolManager, users crossTenantUsers, audits auditLister, metrics systemSnapshotter) *SuperAdminHandler {
	return &SuperAdminHandler{schools: schools, users: users, audits: audits, metrics: metrics}
}

// ListSchools godoc
// @Summary List schools
// @Tags Superadmin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /api/sa/schools [get]
func (h *SuperAdminHandler) ListSchools(c *gin.Context) {
	schools, err := h.schools.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, schools)
}

// CreateSchool godoc
// @Summary Create a school
// @Description Optionally creates its first admin
// @Tags Superadmin
// @Accept json
// @Produce json
// @Param payload body dto.SchoolCreateRequest true "School"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /api/sa/schools [post]
func (h *SuperAdminHandler) CreateSchool(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.SchoolCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid school payload"))
		return
	}
	created, err := h.schools.Create(c.Request.Context(), actor, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// UpdateSchool godoc
// @Summary Update a school
// @Tags Superadmin
// @Accept json
// @Produce json
// @Param id path int true "School ID"
// @Param payload body dto.SchoolUpdateRequest true "Fields"
// @Success 200 {object} response.Envelope
// @Router /api/sa/schools/{id} [patch]
func (h *SuperAdminHandler) UpdateSchool(c *gin.Context) {
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
	var req dto.SchoolUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid school payload"))
		return
	}
	school, err := h.schools.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, school)
}

// DeleteSchool godoc
// @Summary Delete a school and everything it owns
// @Tags Superadmin
// @Param id path int true "School ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /api/sa/schools/{id} [delete]
func (h *SuperAdminHandler) DeleteSchool(c *gin.Context) {
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
	if err := h.schools.Delete(c.Request.Context(), actor, id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"id": id, "deleted": true})
}

// ListUsers godoc
// @Summary List users across schools
// @Tags Superadmin
// @Produce json
// @Param schoolId query int false "School filter"
// @Success 200 {object} response.Envelope
// @Router /api/sa/users [get]
func (h *SuperAdminHandler) ListUsers(c *gin.Context) {
	schoolID, err := queryID(c, "schoolId")
	if err != nil {
		response.Error(c, err)
		return
	}
	filter, err := userFilter(c, schoolID)
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

// CreateUser godoc
// @Summary Create or invite a user in any school
// @Description With a password the user is created; without one an invite is issued
// @Tags Superadmin
// @Accept json
// @Produce json
// @Param payload body dto.SACreateUserRequest true "User"
// @Success 201 {object} response.Envelope
// @Router /api/sa/users [post]
func (h *SuperAdminHandler) CreateUser(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.SACreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid user payload"))
		return
	}
	if req.SchoolID <= 0 {
		response.Error(c, appErrors.Validation(nil, "schoolId is required", []appErrors.FieldError{{Field: "schoolId", Message: "is required"}}))
		return
	}
	if req.Password != nil {
		user, err := h.users.Create(c.Request.Context(), actor, req.SchoolID, dto.CreateUserRequest{
			Email:       req.Email,
			Role:        req.Role,
			Password:    *req.Password,
			DisplayName: req.DisplayName,
		})
		if err != nil {
			response.Error(c, err)
			return
		}
		response.Created(c, dto.SACreateUserResponse{User: user})
		return
	}
	invite, err := h.users.Invite(c.Request.Context(), actor, req.SchoolID, dto.InviteRequest{Email: req.Email, Role: req.Role})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.SACreateUserResponse{Invite: invite})
}

func (h *SuperAdminHandler) userSchool(ctx context.Context, actor service.Actor, userID int64) (int64, error) {
	return h.users.SchoolOf(ctx, userID)
}

// Promote godoc
// @Summary Promote a user in any school
// @Tags Superadmin
// @Param id path int true "User ID"
// @Success 200 {object} response.Envelope
// @Router /api/sa/users/{id}/promote [post]
func (h *SuperAdminHandler) Promote(c *gin.Context) {
	changeRole(c, h.users.Promote, h.userSchool)
}

// Demote godoc
// @Summary Demote a user in any school
// @Tags Superadmin
// @Param id path int true "User ID"
// @Success 200 {object} response.Envelope
// @Router /api/sa/users/{id}/demote [post]
func (h *SuperAdminHandler) Demote(c *gin.Context) {
	changeRole(c, h.users.Demote, h.userSchool)
}

// SetActive godoc
// @Summary Activate or deactivate a user in any school
// @Tags Superadmin
// @Accept json
// @Param id path int true "User ID"
// @Param payload body dto.SetActiveRequest true "Active flag"
// @Success 200 {object} response.Envelope
// @Router /api/sa/users/{id}/active [patch]
func (h *SuperAdminHandler) SetActive(c *gin.Context) {
	setActive(c, h.users, h.userSchool)
}

// Audits godoc
// @Summary Audit log across schools
// @Tags Superadmin
// @Produce json
// @Param schoolId query int false "School filter"
// @Param limit query int false "Max rows (default 100, max 500)"
// @Success 200 {object} response.Envelope
// @Router /api/sa/audits [get]
func (h *SuperAdminHandler) Audits(c *gin.Context) {
	schoolID, err := queryID(c, "schoolId")
	if err != nil {
		response.Error(c, err)
		return
	}
	listAudits(c, h.audits, schoolID)
}

// System godoc
// @Summary Runtime metrics snapshot
// @Tags Superadmin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /api/sa/system [get]
func (h *SuperAdminHandler) System(c *gin.Context) {
	response.OK(c, h.metrics.Snapshot())
}
