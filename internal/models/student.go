package models

import "time"

// Student belongs to one school and at most one grade at a time.
type Student struct {
	ID          int64     `db:"id" json:"id"`
	SchoolID    int64     `db:"school_id" json:"schoolId"`
	GradeID     *int64    `db:"grade_id" json:"gradeId"`
	Name        string    `db:"name" json:"name"`
	StudentCode *string   `db:"student_code" json:"studentCode,omitempty"`
	IsActive    bool      `db:"is_active" json:"isActive"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	SchoolID        int64
	GradeID         *int64
	GradeIDs        []int64
	Search          string
	IncludeInactive bool
	Limit           int
}

// ClassStudent is a student row enriched with live pass state for "My Class".
type ClassStudent struct {
	Student
	ActivePassID *int64     `db:"active_pass_id" json:"activePassId,omitempty"`
	Since        *time.Time `db:"since" json:"since,omitempty"`
	LastType     *PassType  `db:"last_type" json:"lastType,omitempty"`
	IsOut        bool       `db:"-" json:"isOut"`
}
