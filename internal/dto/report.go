package dto

// ReportQuery carries raw query parameters shared by summary and exports.
type ReportQuery struct {
	From      string
	To        string
	GradeID   *int64
	TeacherID *int64
	Type      string
	Scope     string
}
