package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/passpilot-api/internal/models"
	appErrors "github.com/noah-isme/passpilot-api/pkg/errors"
	"github.com/noah-isme/passpilot-api/pkg/logger"
	"github.com/noah-isme/passpilot-api/pkg/response"
	"github.com/noah-isme/passpilot-api/pkg/session"
)

const (
	// ContextSessionKey stores *models.SessionClaims for signed-in users.
	ContextSessionKey = "session"
	// ContextKioskKey stores *models.KioskClaims for verified kiosk devices.
	ContextKioskKey = "kiosk"
	// ContextSchoolIDKey stores the tenant resolved by Tenant.
	ContextSchoolIDKey = "school_id"
)

// Session requires a valid user cookie. The database is not consulted.
func Session(codec *session.Codec, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(cookieName)
		if err != nil || raw == "" {
			response.Abort(c, appErrors.ErrUnauthorized)
			return
		}
		claims := &models.SessionClaims{}
		if err := codec.Decode(raw, claims); err != nil {
			response.Abort(c, appErrors.Clone(appErrors.ErrUnauthorized, "session expired or invalid"))
			return
		}
		c.Set(ContextSessionKey, claims)
		c.Set(logger.ContextUserIDKey, claims.UserID)
		c.Set(logger.ContextSchoolIDKey, claims.SchoolID)
		c.Next()
	}
}

// SessionFrom returns the user claims placed by Session.
func SessionFrom(c *gin.Context) *models.SessionClaims {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.SessionClaims)
	if !ok {
		return nil
	}
	return claims
}

// KioskFrom returns the kiosk claims placed by Kiosk.
func KioskFrom(c *gin.Context) *models.KioskClaims {
	value, exists := c.Get(ContextKioskKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.KioskClaims)
	if !ok {
		return nil
	}
	return claims
}

// SchoolIDFrom returns the tenant resolved for the request, falling back to the
// caller's own school when Tenant did not run.
func SchoolIDFrom(c *gin.Context) int64 {
	if value, exists := c.Get(ContextSchoolIDKey); exists {
		if id, ok := value.(int64); ok {
			return id
		}
	}
	if claims := SessionFrom(c); claims != nil {
		return claims.SchoolID
	}
	if kiosk := KioskFrom(c); kiosk != nil {
		return kiosk.SchoolID
	}
	return 0
}
