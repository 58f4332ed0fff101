package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/passpilot-api/internal/dto"
	"github.com/noah-isme/passpilot-api/internal/models"
	appErrors "github.com/noah-isme/passpilot-api/pkg/errors"
	"github.com/noah-isme/passpilot-api/pkg/export"
)

// ReportHeaders is the column layout shared by CSV and PDF exports.
var ReportHeaders = []string{
	"ID", "Student Name", "Student Code", "Grade", "Pass Type", "Custom Reason",
	"Issued By", "Start Time", "End Time", "Duration (Minutes)", "Status",
}

// DefaultPDFRowLimit caps PDF exports; CSV exports are unbounded.
const DefaultPDFRowLimit = 5000

type reportRepository interface {
	Each(ctx context.Context, filter models.ReportFilter, fn func(models.PassRecord) error) error
}

// ReportService aggregates passes into summaries and exports.
type ReportService struct {
	repo     reportRepository
	cache    *CacheService
	metrics  *MetricsService
	pdf      *export.PDFExporter
	pdfLimit int
	logger   *zap.Logger
	loc      *time.Location
	now      func() time.Time
}

// NewReportService constructs a ReportService. loc buckets peak hours and
// interprets calendar-date filters.
func NewReportService(repo reportRepository, cache *CacheService, metrics *MetricsService, logger *zap.Logger, loc *time.Location) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}
	return &ReportService{
		repo:     repo,
		cache:    cache,
		metrics:  metrics,
		pdf:      export.NewPDFExporter(14, 40, 22, 18, 18, 32, 34, 24, 24, 16, 18),
		pdfLimit: DefaultPDFRowLimit,
		logger:   logger,
		loc:      loc,
		now:      time.Now,
	}
}

// Summary returns the aggregate for the filtered pass set and whether it was served from cache.
func (s *ReportService) Summary(ctx context.Context, actor Actor, query dto.ReportQuery) (*models.ReportSummary, bool, error) {
	filter, err := s.resolveFilter(actor, query)
	if err != nil {
		return nil, false, err
	}

	key := summaryCacheKey(filter)
	var cached models.ReportSummary
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	acc := newSummaryAccumulator(s.now(), s.loc)
	if err := s.each(ctx, filter, "report_summary", func(row models.PassRecord) error {
		acc.add(row)
		return nil
	}); err != nil {
		return nil, false, err
	}
	summary := acc.result()
	s.cache.Set(ctx, key, summary)
	return &summary, false, nil
}

// WriteCSV streams the filtered rows as CSV, one line per pass plus the header.
func (s *ReportService) WriteCSV(ctx context.Context, actor Actor, query dto.ReportQuery, out io.Writer) error {
	filter, err := s.resolveFilter(actor, query)
	if err != nil {
		return err
	}
	writer, err := export.NewCSVWriter(out, ReportHeaders)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write csv")
	}
	now := s.now()
	if err := s.each(ctx, filter, "report_export", func(row models.PassRecord) error {
		if err := writer.Write(s.exportRecord(row, now)); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write csv")
		}
		return nil
	}); err != nil {
		return err
	}
	if err := writer.Flush(); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to write csv")
	}
	return nil
}

// WritePDF renders the filtered rows as a landscape table. Result sets larger
// than the PDF limit are rejected before anything is written.
func (s *ReportService) WritePDF(ctx context.Context, actor Actor, query dto.ReportQuery, out io.Writer) error {
	filter, err := s.resolveFilter(actor, query)
	if err != nil {
		return err
	}
	now := s.now()
	data := export.Dataset{Headers: ReportHeaders}
	if err := s.each(ctx, filter, "report_export", func(row models.PassRecord) error {
		if len(data.Rows) >= s.pdfLimit {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("pdf export is limited to %d passes; narrow the filters or use the csv export", s.pdfLimit))
		}
		data.Rows = append(data.Rows, s.exportRecord(row, now))
		return nil
	}); err != nil {
		return err
	}
	title := fmt.Sprintf("Pass report (%d passes, generated %s)", len(data.Rows), now.In(s.loc).Format("2006-01-02 15:04 MST"))
	if err := s.pdf.Render(out, data, title); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
	}
	return nil
}

// InvalidateSchool drops cached summaries of one school.
func (s *ReportService) InvalidateSchool(ctx context.Context, schoolID int64) {
	s.cache.Invalidate(ctx, fmt.Sprintf("reports:%d:*", schoolID))
}

// InvalidateAll drops every cached summary.
func (s *ReportService) InvalidateAll(ctx context.Context) {
	s.cache.Invalidate(ctx, "reports:*")
}

// each streams rows to fn. Errors from fn are returned unchanged; cursor
// failures become internal errors.
func (s *ReportService) each(ctx context.Context, filter models.ReportFilter, label string, fn func(models.PassRecord) error) error {
	start := time.Now()
	var fnErr error
	err := s.repo.Each(ctx, filter, func(row models.PassRecord) error {
		fnErr = fn(row)
		return fnErr
	})
	s.metrics.ObserveDBQuery(label, time.Since(start))
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report rows")
	}
	return nil
}

// resolveFilter applies scope rules: teachers always see their own subset,
// admins default to the whole school.
func (s *ReportService) resolveFilter(actor Actor, query dto.ReportQuery) (models.ReportFilter, error) {
	filter := models.ReportFilter{SchoolID: actor.SchoolID, GradeID: query.GradeID, TeacherID: query.TeacherID}

	scope := models.ReportScope(strings.ToLower(strings.TrimSpace(query.Scope)))
	switch scope {
	case "", models.ScopeMine, models.ScopeSchool:
	default:
		return filter, fieldError("scope", "must be one of: mine school")
	}
	if !actor.IsAdmin() || scope == models.ScopeMine {
		filter.ScopeUserID = actor.userRef()
	}

	if raw := strings.TrimSpace(query.Type); raw != "" {
		passType := models.PassType(strings.ToLower(raw))
		if !passType.Valid() {
			return filter, fieldError("type", "must be one of: general nurse discipline custom")
		}
		filter.Type = &passType
	}

	from, to, err := parseRange(query.From, query.To, s.loc)
	if err != nil {
		return filter, err
	}
	filter.From, filter.To = from, to
	return filter, nil
}

func (s *ReportService) exportRecord(row models.PassRecord, now time.Time) []string {
	endsAt := ""
	if row.EndsAt != nil {
		endsAt = row.EndsAt.In(s.loc).Format(time.RFC3339)
	}
	issuedBy := row.IssuerLabel()
	if issuedBy == "" && row.KioskRoom != nil {
		issuedBy = "Kiosk " + *row.KioskRoom
	}
	return []string{
		strconv.FormatInt(row.ID, 10),
		row.StudentName,
		deref(row.StudentCode),
		deref(row.GradeName),
		string(row.Type.Normalized()),
		deref(row.CustomReason),
		issuedBy,
		row.StartsAt.In(s.loc).Format(time.RFC3339),
		endsAt,
		strconv.Itoa(row.DurationMinutes(now)),
		string(row.Status),
	}
}

// Summarize aggregates rows. Active passes are measured to now and peak
// hours are bucketed in loc with the lowest hour winning ties.
func Summarize(rows []models.PassRecord, now time.Time, loc *time.Location) models.ReportSummary {
	acc := newSummaryAccumulator(now, loc)
	for _, row := range rows {
		acc.add(row)
	}
	return acc.result()
}

type teacherTotals struct {
	name    string
	count   int
	minutes float64
}

// summaryAccumulator folds passes one at a time so a summary never holds the
// full row set in memory.
type summaryAccumulator struct {
	now          time.Time
	loc          *time.Location
	passes       int
	totalMinutes float64
	hours        [24]int
	byType       map[models.PassType]int
	students     map[int64]struct{}
	teachers     map[int64]*teacherTotals
	grades       map[int64]*models.GradeBreakdown
}

func newSummaryAccumulator(now time.Time, loc *time.Location) *summaryAccumulator {
	if loc == nil {
		loc = time.UTC
	}
	return &summaryAccumulator{
		now:      now,
		loc:      loc,
		byType:   map[models.PassType]int{},
		students: make(map[int64]struct{}),
		teachers: make(map[int64]*teacherTotals),
		grades:   make(map[int64]*models.GradeBreakdown),
	}
}

func (a *summaryAccumulator) add(row models.PassRecord) {
	minutes := row.Duration(a.now).Minutes()
	a.passes++
	a.totalMinutes += minutes
	a.byType[row.Type.Normalized()]++
	a.hours[row.StartsAt.In(a.loc).Hour()]++

	if row.StudentID != nil {
		a.students[*row.StudentID] = struct{}{}
	}
	if row.IssuedByUserID != nil {
		acc, ok := a.teachers[*row.IssuedByUserID]
		if !ok {
			acc = &teacherTotals{name: row.IssuerLabel()}
			a.teachers[*row.IssuedByUserID] = acc
		}
		acc.count++
		acc.minutes += minutes
	}
	if row.GradeID != nil {
		acc, ok := a.grades[*row.GradeID]
		if !ok {
			acc = &models.GradeBreakdown{GradeID: *row.GradeID, Name: deref(row.GradeName)}
			a.grades[*row.GradeID] = acc
		}
		acc.Count++
	}
}

func (a *summaryAccumulator) result() models.ReportSummary {
	summary := models.ReportSummary{
		ByType:    a.byType,
		ByTeacher: []models.TeacherBreakdown{},
		ByGrade:   []models.GradeBreakdown{},
	}
	summary.Totals.Passes = a.passes
	summary.Totals.Students = len(a.students)
	if a.passes > 0 {
		summary.Totals.AvgMinutes = roundTenth(a.totalMinutes / float64(a.passes))
		peak := 0
		for hour := 1; hour < len(a.hours); hour++ {
			if a.hours[hour] > a.hours[peak] {
				peak = hour
			}
		}
		label := fmt.Sprintf("%02d:00", peak)
		summary.Totals.PeakHour = &label
	}

	for id, acc := range a.teachers {
		summary.ByTeacher = append(summary.ByTeacher, models.TeacherBreakdown{
			TeacherID:  id,
			Name:       acc.name,
			Count:      acc.count,
			AvgMinutes: roundTenth(acc.minutes / float64(acc.count)),
		})
	}
	sort.Slice(summary.ByTeacher, func(i, j int) bool {
		x, y := summary.ByTeacher[i], summary.ByTeacher[j]
		if x.Count != y.Count {
			return x.Count > y.Count
		}
		return x.TeacherID < y.TeacherID
	})

	for _, acc := range a.grades {
		summary.ByGrade = append(summary.ByGrade, *acc)
	}
	sort.Slice(summary.ByGrade, func(i, j int) bool {
		x, y := summary.ByGrade[i], summary.ByGrade[j]
		if x.Count != y.Count {
			return x.Count > y.Count
		}
		return x.GradeID < y.GradeID
	})
	return summary
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

// summaryCacheKey is reports:{schoolId}:{digest of the resolved filter}.
func summaryCacheKey(filter models.ReportFilter) string {
	parts := []string{
		optionalInt(filter.ScopeUserID),
		optionalTime(filter.From),
		optionalTime(filter.To),
		optionalInt(filter.GradeID),
		optionalInt(filter.TeacherID),
	}
	if filter.Type != nil {
		parts = append(parts, string(*filter.Type))
	} else {
		parts = append(parts, "")
	}
	sum := sha256.Sum256([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("reports:%d:%s", filter.SchoolID, hex.EncodeToString(sum[:12]))
}

func optionalInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func optionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
