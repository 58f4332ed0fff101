package models

import "time"

// ReportScope selects whose passes a report covers.
type ReportScope string

const (
	ScopeMine   ReportScope = "mine"
	ScopeSchool ReportScope = "school"
)

// ReportFilter is the resolved filter passed to report repositories.
type ReportFilter struct {
	SchoolID    int64
	ScopeUserID *int64
	From        *time.Time
	To          *time.Time
	GradeID     *int64
	TeacherID   *int64
	Type        *PassType
}

// ReportTotals is the headline block of a summary.
type ReportTotals struct {
	Passes     int     `json:"passes"`
	Students   int     `json:"students"`
	AvgMinutes float64 `json:"avgMinutes"`
	PeakHour   *string `json:"peakHour"`
}

// TeacherBreakdown aggregates passes per issuing user.
type TeacherBreakdown struct {
	TeacherID  int64   `json:"teacherId"`
	Name       string  `json:"name"`
	Count      int     `json:"count"`
	AvgMinutes float64 `json:"avgMinutes"`
}

// GradeBreakdown aggregates passes per student grade.
type GradeBreakdown struct {
	GradeID int64  `json:"gradeId"`
	Name    string `json:"name"`
	Count   int    `json:"count"`
}

// ReportSummary is the aggregate returned by the summary endpoint.
type ReportSummary struct {
	Totals    ReportTotals       `json:"totals"`
	ByType    map[PassType]int   `json:"byType"`
	ByTeacher []TeacherBreakdown `json:"byTeacher"`
	ByGrade   []GradeBreakdown   `json:"byGrade"`
}
