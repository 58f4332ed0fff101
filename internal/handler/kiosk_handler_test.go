package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/passpilot-api/internal/dto"
	"github.com/noah-isme/passpilot-api/internal/middleware"
	"github.com/noah-isme/passpilot-api/internal/models"
	appErrors "github.com/noah-isme/passpilot-api/pkg/errors"
)

type fakeKioskAuth struct {
	err error
}

func (f *fakeKioskAuth) Login(_ context.Context, req models.KioskLoginRequest) (*models.KioskSession, string, error) {
	if f.err != nil {
		return nil, "", f.err
	}
	return &models.KioskSession{SchoolID: req.SchoolID, Room: req.Room, KioskDeviceID: 8}, "kiosk-token", nil
}

type fakeKioskPasses struct {
	lastKiosk models.KioskClaims
	lastReq   dto.KioskPassRequest
	active    []dto.PassView
}

func (f *fakeKioskPasses) CreateFromKiosk(_ context.Context, kiosk models.KioskClaims, req dto.KioskPassRequest) (*dto.PassView, error) {
	f.lastKiosk, f.lastReq = kiosk, req
	return activeView(21), nil
}

func (f *fakeKioskPasses) Return(_ context.Context, _ int64, id int64) (*dto.PassView, error) {
	return activeView(id), nil
}

func (f *fakeKioskPasses) ListActive(context.Context, int64) ([]dto.PassView, error) {
	return f.active, nil
}

type fakeStudentLister struct {
	filter models.StudentFilter
}

func (f *fakeStudentLister) ListStudents(_ context.Context, filter models.StudentFilter) ([]models.Student, error) {
	f.filter = filter
	return []models.Student{{ID: 1, SchoolID: filter.SchoolID, Name: "Ada"}}, nil
}

func kioskContext(c *gin.Context) {
	claims := &models.KioskClaims{SchoolID: 1, Room: "Room 12", KioskDeviceID: 8}
	c.Set(middleware.ContextKioskKey, claims)
	c.Set(middleware.ContextSchoolIDKey, claims.SchoolID)
}

func TestKioskHandlerLoginSetsKioskCookie(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewKioskHandler(&fakeKioskAuth{}, &fakeKioskPasses{}, &fakeStudentLister{}, testCookies)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(http.MethodPost, "/kiosk/login", map[string]interface{}{"schoolId": 1, "room": "Room 12", "pin": "4321"})

	handler.Login(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	cookie := rec.Header().Get("Set-Cookie")
	assert.Contains(t, cookie, "pp_kiosk=kiosk-token")
	assert.Contains(t, cookie, "HttpOnly")
	assert.Equal(t, "Room 12", decode(t, rec).Data["room"])
}

func TestKioskHandlerLoginFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewKioskHandler(&fakeKioskAuth{err: appErrors.ErrInvalidCredentials}, &fakeKioskPasses{}, &fakeStudentLister{}, testCookies)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(http.MethodPost, "/kiosk/login", map[string]interface{}{"schoolId": 1, "room": "Room 12", "pin": "0000"})

	handler.Login(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Header().Get("Set-Cookie"))
}

func TestKioskHandlerCreatePassUsesDeviceClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	passes := &fakeKioskPasses{}
	handler := NewKioskHandler(&fakeKioskAuth{}, passes, &fakeStudentLister{}, testCookies)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(http.MethodPost, "/kiosk/passes", map[string]interface{}{"studentId": 5, "type": "general"})
	kioskContext(c)

	handler.CreatePass(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(8), passes.lastKiosk.KioskDeviceID)
	assert.Equal(t, int64(1), passes.lastKiosk.SchoolID)
	assert.Equal(t, int64(5), passes.lastReq.StudentID)
}

func TestKioskHandlerStudentsScopedToSchool(t *testing.T) {
	gin.SetMode(gin.TestMode)
	students := &fakeStudentLister{}
	handler := NewKioskHandler(&fakeKioskAuth{}, &fakeKioskPasses{}, students, testCookies)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/kiosk/students?q=%20ad%20", nil)
	kioskContext(c)

	handler.Students(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), students.filter.SchoolID)
	assert.Equal(t, "ad", students.filter.Search)
	assert.False(t, students.filter.IncludeInactive)
}

func TestKioskHandlerMe(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewKioskHandler(&fakeKioskAuth{}, &fakeKioskPasses{}, &fakeStudentLister{}, testCookies)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/kiosk/me", nil)
	kioskContext(c)

	handler.Me(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(8), decode(t, rec).Data["kioskDeviceId"])
}
