package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/passpilot-api/pkg/errors"
	"github.com/noah-isme/passpilot-api/pkg/response"
)

const maxTenantBody = 1 << 20

// Tenant pins the request to the caller's school. A schoolId supplied in the
// path, query or JSON body must equal the session's school.
func Tenant() gin.HandlerFunc {
	return func(c *gin.Context) {
		var own int64
		switch {
		case SessionFrom(c) != nil:
			own = SessionFrom(c).SchoolID
		case KioskFrom(c) != nil:
			own = KioskFrom(c).SchoolID
		default:
			response.Abort(c, appErrors.ErrUnauthorized)
			return
		}

		requested, err := requestedSchoolID(c)
		if err != nil {
			response.Abort(c, err)
			return
		}
		if requested != nil && *requested != own {
			response.Abort(c, appErrors.ErrTenantMismatch)
			return
		}

		c.Set(ContextSchoolIDKey, own)
		c.Next()
	}
}

// requestedSchoolID looks at path, then query, then body. Nil means none was sent.
func requestedSchoolID(c *gin.Context) (*int64, error) {
	if raw := c.Param("schoolId"); raw != "" {
		return parseSchoolID(raw)
	}
	if raw, ok := c.GetQuery("schoolId"); ok {
		return parseSchoolID(raw)
	}
	return bodySchoolID(c)
}

func parseSchoolID(raw string) (*int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return nil, appErrors.Validation(nil, "schoolId must be numeric", []appErrors.FieldError{{Field: "schoolId", Message: "must be numeric"}})
	}
	return &id, nil
}

// bodySchoolID peeks at a JSON body and restores it for the handler.
func bodySchoolID(c *gin.Context) (*int64, error) {
	if c.Request.Body == nil || c.Request.Method == http.MethodGet || c.Request.Method == http.MethodDelete {
		return nil, nil
	}
	if !strings.HasPrefix(c.ContentType(), "application/json") {
		return nil, nil
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxTenantBody))
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unable to read request body")
	}
	c.Request.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), c.Request.Body))

	var probe struct {
		SchoolID json.RawMessage `json:"schoolId"`
	}
	// malformed JSON is left for the handler's binding to report
	if err := json.Unmarshal(body, &probe); err != nil {
		return nil, nil
	}
	raw := strings.TrimSpace(string(probe.SchoolID))
	if raw == "" || raw == "null" {
		return nil, nil
	}
	return parseSchoolID(strings.Trim(raw, `"`))
}
