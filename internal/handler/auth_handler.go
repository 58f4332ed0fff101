package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/passpilot-api/internal/middleware"
	"github.com/noah-isme/passpilot-api/internal/models"
	appErrors "github.com/noah-isme/passpilot-api/pkg/errors"
	"github.com/noah-isme/passpilot-api/pkg/response"
)

// BootstrapSecretHeader carries the one-time superadmin bootstrap secret.
const BootstrapSecretHeader = "X-Bootstrap-Secret"

type authService interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.User, string, error)
	Me(ctx context.Context, claims models.SessionClaims) (*models.User, error)
	Activate(ctx context.Context, req models.ActivateRequest) (*models.User, string, error)
	Bootstrap(ctx context.Context, secret string, req models.BootstrapRequest) (*models.User, string, error)
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
	cookies CookieConfig
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{service: svc, cookies: cookies}
}

// Login godoc
// @Summary Sign in
// @Description Authenticate with email, password and school; sets the session cookie
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid login payload"))
		return
	}
	user, token, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.cookies.set(c, h.cookies.SessionName, token)
	response.OK(c, gin.H{"user": user})
}

// Logout godoc
// @Summary Sign out
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /api/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	h.cookies.clear(c, h.cookies.SessionName)
	response.OK(c, gin.H{"signedOut": true})
}

// Me godoc
// @Summary Current user
// @Tags Authentication
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /api/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.SessionFrom(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	user, err := h.service.Me(c.Request.Context(), *claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"user": user})
}

// Activate godoc
// @Summary Redeem an invite
// @Description Creates the invited account and signs it in
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.ActivateRequest true "Activation payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /api/auth/activate [post]
func (h *AuthHandler) Activate(c *gin.Context) {
	var req models.ActivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid activation payload"))
		return
	}
	user, token, err := h.service.Activate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.cookies.set(c, h.cookies.SessionName, token)
	response.OK(c, gin.H{"user": user})
}

// Bootstrap godoc
// @Summary Create the first superadmin
// @Tags Superadmin
// @Accept json
// @Produce json
// @Param X-Bootstrap-Secret header string true "Bootstrap secret"
// @Param payload body models.BootstrapRequest true "Superadmin credentials"
// @Success 201 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /api/sa/bootstrap [post]
func (h *AuthHandler) Bootstrap(c *gin.Context) {
	var req models.BootstrapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid bootstrap payload"))
		return
	}
	user, token, err := h.service.Bootstrap(c.Request.Context(), c.GetHeader(BootstrapSecretHeader), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.cookies.set(c, h.cookies.SessionName, token)
	response.JSON(c, http.StatusCreated, gin.H{"user": user, "schoolId": user.SchoolID}, nil)
}
