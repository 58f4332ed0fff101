package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/passpilot-api/internal/dto"
	"github.com/noah-isme/passpilot-api/internal/middleware"
	"github.com/noah-isme/passpilot-api/internal/models"
	"github.com/noah-isme/passpilot-api/internal/service"
	appErrors "github.com/noah-isme/passpilot-api/pkg/errors"
	"github.com/noah-isme/passpilot-api/pkg/response"
)

type reportService interface {
	Summary(ctx context.Context, actor service.Actor, query dto.ReportQuery) (*models.ReportSummary, bool, error)
	WriteCSV(ctx context.Context, actor service.Actor, query dto.ReportQuery, out io.Writer) error
	WritePDF(ctx context.Context, actor service.Actor, query dto.ReportQuery, out io.Writer) error
}

// ReportHandler exposes reporting endpoints.
type ReportHandler struct {
	service reportService
}

// NewReportHandler constructs handler.
func NewReportHandler(svc reportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

func reportQuery(c *gin.Context) (dto.ReportQuery, error) {
	query := dto.ReportQuery{
		From:  c.Query("from"),
		To:    c.Query("to"),
		Type:  c.Query("type"),
		Scope: c.Query("scope"),
	}
	gradeID, err := queryID(c, "gradeId")
	if err != nil {
		return query, err
	}
	teacherID, err := queryID(c, "teacherId")
	if err != nil {
		return query, err
	}
	query.GradeID, query.TeacherID = gradeID, teacherID
	return query, nil
}

// Summary godoc
// @Summary Pass report summary
// @Tags Reports
// @Produce json
// @Param from query string false "Start (RFC3339 or YYYY-MM-DD)"
// @Param to query string false "End (RFC3339 or YYYY-MM-DD)"
// @Param gradeId query int false "Grade filter"
// @Param teacherId query int false "Issuer filter"
// @Param type query string false "Pass type"
// @Param scope query string false "mine or school"
// @Success 200 {object} response.Envelope
// @Router /api/reports/summary [get]
func (h *ReportHandler) Summary(c *gin.Context) {
	actor, ok := actorFrom(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	query, err := reportQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	summary, hit, err := h.service.Summary(c.Request.Context(), actor, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, summary, nil, middleware.ExtractMeta(c))
}

// ExportCSV godoc
// @Summary Export passes as CSV
// @Tags Reports
// @Produce text/csv
// @Success 200 {file} file
// @Router /api/reports/export.csv [get]
func (h *ReportHandler) ExportCSV(c *gin.Context) {
	h.export(c, "text/csv; charset=utf-8", "passes_report.csv", h.service.WriteCSV)
}

// ExportPDF godoc
// @Summary Export passes as PDF
// @Tags Reports
// @Produce application/pdf
// @Success 200 {file} file
// @Router /api/reports/export.pdf [get]
func (h *ReportHandler) ExportPDF(c *gin.Context) {
	h.export(c, "application/pdf", "passes_report.pdf", h.service.WritePDF)
}

type reportWriter func(ctx context.Context, actor service.Actor, query dto.ReportQuery, out io.Writer) error

// export defers headers until the first byte is written so a failed load
// still produces the JSON error envelope.
func (h *ReportHandler) export(c *gin.Context, contentType, filename string, write reportWriter) {
	actor, ok := actorFrom(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	query, err := reportQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	out := &lazyWriter{c: c, contentType: contentType, filename: filename}
	if err := write(c.Request.Context(), actor, query, out); err != nil {
		if !out.started {
			response.Error(c, err)
			return
		}
		_ = c.Error(err)
		return
	}
	if !out.started {
		out.start()
	}
}

// lazyWriter sends headers on the first write.
type lazyWriter struct {
	c           *gin.Context
	contentType string
	filename    string
	started     bool
}

func (w *lazyWriter) start() {
	w.started = true
	w.c.Header("Content-Type", w.contentType)
	w.c.Header("Content-Disposition", `attachment; filename="`+w.filename+`"`)
	w.c.Header("Cache-Control", "no-store")
	w.c.Status(http.StatusOK)
}

func (w *lazyWriter) Write(p []byte) (int, error) {
	if !w.started {
		w.start()
	}
	return w.c.Writer.Write(p)
}
