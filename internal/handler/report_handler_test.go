package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/passpilot-api/internal/dto"
	"github.com/noah-isme/passpilot-api/internal/models"
	"github.com/noah-isme/passpilot-api/internal/service"
	appErrors "github.com/noah-isme/passpilot-api/pkg/errors"
)

type fakeReportService struct {
	summary   *models.ReportSummary
	hit       bool
	err       error
	rows      int
	lastActor service.Actor
	lastQuery dto.ReportQuery
}

func (f *fakeReportService) Summary(_ context.Context, actor service.Actor, query dto.ReportQuery) (*models.ReportSummary, bool, error) {
	f.lastActor, f.lastQuery = actor, query
	return f.summary, f.hit, f.err
}

func (f *fakeReportService) WriteCSV(_ context.Context, actor service.Actor, query dto.ReportQuery, out io.Writer) error {
	f.lastActor, f.lastQuery = actor, query
	if f.err != nil {
		return f.err
	}
	fmt.Fprintln(out, "id,student,type")
	for i := 1; i <= f.rows; i++ {
		fmt.Fprintf(out, "%d,Student %d,general\n", i, i)
	}
	return nil
}

func (f *fakeReportService) WritePDF(_ context.Context, _ service.Actor, _ dto.ReportQuery, out io.Writer) error {
	if f.err != nil {
		return f.err
	}
	_, err := out.Write([]byte("%PDF-1.3"))
	return err
}

func TestReportHandlerSummaryCacheMeta(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeReportService{summary: &models.ReportSummary{Totals: models.ReportTotals{Passes: 4, Students: 3}}, hit: true}
	handler := NewReportHandler(svc)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/reports/summary?from=2024-01-01&to=2024-01-31&scope=school&gradeId=4", nil)
	signedIn(c, 2, 1, models.RoleAdmin)

	handler.Summary(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	envelope := decode(t, rec)
	assert.Equal(t, true, envelope.Meta["cache_hit"])
	totals := envelope.Data["totals"].(map[string]interface{})
	assert.Equal(t, float64(4), totals["passes"])
	assert.Equal(t, "2024-01-01", svc.lastQuery.From)
	assert.Equal(t, "school", svc.lastQuery.Scope)
	if assert.NotNil(t, svc.lastQuery.GradeID) {
		assert.Equal(t, int64(4), *svc.lastQuery.GradeID)
	}
	assert.Equal(t, service.Actor{UserID: 2, SchoolID: 1, Role: models.RoleAdmin}, svc.lastActor)
}

func TestReportHandlerSummaryRejectsBadGrade(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(&fakeReportService{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/reports/summary?gradeId=abc", nil)
	signedIn(c, 2, 1, models.RoleAdmin)

	handler.Summary(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportHandlerExportCSV(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(&fakeReportService{rows: 3})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/reports/export.csv", nil)
	signedIn(c, 2, 1, models.RoleAdmin)

	handler.ExportCSV(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="passes_report.csv"`, rec.Header().Get("Content-Disposition"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, 4)
}

func TestReportHandlerExportErrorBeforeWrite(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(&fakeReportService{err: appErrors.Clone(appErrors.ErrForbidden, "school scope requires an admin")})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/reports/export.pdf?scope=school", nil)
	signedIn(c, 7, 1, models.RoleTeacher)

	handler.ExportPDF(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "FORBIDDEN", decode(t, rec).Code)
}

func TestReportHandlerExportPDF(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(&fakeReportService{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/reports/export.pdf", nil)
	signedIn(c, 2, 1, models.RoleAdmin)

	handler.ExportPDF(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
}

func TestReportHandlerRequiresActor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewReportHandler(&fakeReportService{err: errors.New("unreachable")})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/reports/export.csv", nil)

	handler.ExportCSV(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
