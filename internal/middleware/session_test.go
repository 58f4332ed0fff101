package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/passpilot-api/internal/models"
	appErrors "github.com/noah-isme/passpilot-api/pkg/errors"
	"github.com/noah-isme/passpilot-api/pkg/session"
)

const testCookie = "pp_sess"

func signed(t *testing.T, codec *session.Codec, claims session.Claims) string {
	t.Helper()
	token, err := codec.Encode(claims)
	require.NoError(t, err)
	return token
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestSessionMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	codec := session.NewCodec("secret", time.Hour)
	other := session.NewCodec("other-secret", time.Hour)

	router := gin.New()
	router.Use(Session(codec, testCookie))
	router.GET("/me", func(c *gin.Context) {
		claims := SessionFrom(c)
		c.JSON(http.StatusOK, gin.H{"userId": claims.UserID, "schoolId": SchoolIDFrom(c)})
	})

	cases := []struct {
		name   string
		cookie string
		status int
	}{
		{name: "missing", status: http.StatusUnauthorized},
		{name: "garbage", cookie: "not-a-token", status: http.StatusUnauthorized},
		{name: "forged", cookie: signed(t, other, &models.SessionClaims{UserID: 1, SchoolID: 1}), status: http.StatusUnauthorized},
		{name: "valid", cookie: signed(t, codec, &models.SessionClaims{UserID: 7, SchoolID: 3, Role: models.RoleTeacher}), status: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.cookie != "" {
				req.AddCookie(&http.Cookie{Name: testCookie, Value: tc.cookie})
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			body := decodeEnvelope(t, w)
			if tc.status == http.StatusOK {
				assert.Equal(t, float64(7), body["userId"])
				assert.Equal(t, float64(3), body["schoolId"])
			} else {
				assert.Equal(t, false, body["ok"])
				assert.Equal(t, appErrors.ErrUnauthorized.Code, body["code"])
			}
		})
	}
}

type stubVerifier struct{ err error }

func (s stubVerifier) Verify(ctx context.Context, claims models.KioskClaims) error {
	return s.err
}

func TestKioskMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	codec := session.NewCodec("secret", time.Hour)
	token := signed(t, codec, &models.KioskClaims{SchoolID: 2, Room: "101", KioskDeviceID: 5})

	serve := func(verifier KioskVerifier) *httptest.ResponseRecorder {
		router := gin.New()
		router.Use(Kiosk(codec, "pp_kiosk", verifier))
		router.GET("/kiosk/me", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"room": KioskFrom(c).Room, "schoolId": SchoolIDFrom(c)})
		})
		req := httptest.NewRequest(http.MethodGet, "/kiosk/me", nil)
		req.AddCookie(&http.Cookie{Name: "pp_kiosk", Value: token})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := serve(stubVerifier{})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "101", decodeEnvelope(t, w)["room"])

	w = serve(stubVerifier{err: appErrors.Clone(appErrors.ErrUnauthorized, "kiosk device is disabled")})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(stubVerifier{err: errors.New("db down")})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRequireRoles(t *testing.T) {
	gin.SetMode(gin.TestMode)
	codec := session.NewCodec("secret", time.Hour)

	router := gin.New()
	router.Use(Session(codec, testCookie))
	router.GET("/admin", RequireAdmin(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	router.GET("/sa", RequireSuperAdmin(), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	call := func(path string, role models.UserRole) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.AddCookie(&http.Cookie{Name: testCookie, Value: signed(t, codec, &models.SessionClaims{UserID: 1, SchoolID: 1, Role: role})})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusForbidden, call("/admin", models.RoleTeacher))
	assert.Equal(t, http.StatusNoContent, call("/admin", models.RoleAdmin))
	assert.Equal(t, http.StatusNoContent, call("/admin", models.RoleSuperAdmin))
	assert.Equal(t, http.StatusForbidden, call("/sa", models.RoleAdmin))
	assert.Equal(t, http.StatusNoContent, call("/sa", models.RoleSuperAdmin))
}
