package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/passpilot-api/internal/middleware"
	"github.com/noah-isme/passpilot-api/internal/service"
	appErrors "github.com/noah-isme/passpilot-api/pkg/errors"
)

// CookieConfig describes the session and kiosk cookies.
type CookieConfig struct {
	SessionName string
	KioskName   string
	MaxAge      time.Duration
	Domain      string
	Secure      bool
}

func (cfg CookieConfig) set(c *gin.Context, name, value string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   int(cfg.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (cfg CookieConfig) clear(c *gin.Context, name string) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// actorFrom builds the service actor from the session and the tenant resolved
// by the tenant guard.
func actorFrom(c *gin.Context) (service.Actor, bool) {
	claims := middleware.SessionFrom(c)
	if claims == nil {
		return service.Actor{}, false
	}
	return service.Actor{UserID: claims.UserID, SchoolID: middleware.SchoolIDFrom(c), Role: claims.Role}, true
}

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Validation(err, name+" must be a positive integer", []appErrors.FieldError{{Field: name, Message: "must be a positive integer"}})
	}
	return id, nil
}

func queryID(c *gin.Context, name string) (*int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, appErrors.Validation(err, name+" must be a positive integer", []appErrors.FieldError{{Field: name, Message: "must be a positive integer"}})
	}
	return &id, nil
}

func queryBool(c *gin.Context, name string) (*bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, appErrors.Validation(err, name+" must be a boolean", []appErrors.FieldError{{Field: name, Message: "must be a boolean"}})
	}
	return &val, nil
}

func queryInt(c *gin.Context, name string, fallback int) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, appErrors.Validation(err, name+" must be an integer", []appErrors.FieldError{{Field: name, Message: "must be an integer"}})
	}
	return val, nil
}

func bindError(err error, message string) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message)
}
