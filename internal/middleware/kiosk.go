package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/passpilot-api/internal/models"
	appErrors "github.com/noah-isme/passpilot-api/pkg/errors"
	"github.com/noah-isme/passpilot-api/pkg/logger"
	"github.com/noah-isme/passpilot-api/pkg/response"
	"github.com/noah-isme/passpilot-api/pkg/session"
)

// KioskVerifier confirms the device behind a kiosk cookie is still registered.
type KioskVerifier interface {
	Verify(ctx context.Context, claims models.KioskClaims) error
}

// Kiosk requires a valid kiosk cookie whose device is still active.
func Kiosk(codec *session.Codec, cookieName string, verifier KioskVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := c.Cookie(cookieName)
		if err != nil || raw == "" {
			response.Abort(c, appErrors.Clone(appErrors.ErrUnauthorized, "kiosk is not signed in"))
			return
		}
		claims := &models.KioskClaims{}
		if err := codec.Decode(raw, claims); err != nil {
			response.Abort(c, appErrors.Clone(appErrors.ErrUnauthorized, "kiosk session expired or invalid"))
			return
		}
		if verifier != nil {
			if err := verifier.Verify(c.Request.Context(), *claims); err != nil {
				response.Abort(c, err)
				return
			}
		}
		c.Set(ContextKioskKey, claims)
		c.Set(logger.ContextSchoolIDKey, claims.SchoolID)
		c.Next()
	}
}
