package models

import "time"

// Grade groups students inside a school.
type Grade struct {
	ID        int64     `db:"id" json:"id"`
	SchoolID  int64     `db:"school_id" json:"schoolId"`
	Name      string    `db:"name" json:"name"`
	IsActive  bool      `db:"is_active" json:"isActive"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// TeacherGradeMap records that a teacher manages a grade ("My Class").
type TeacherGradeMap struct {
	UserID    int64     `db:"user_id" json:"userId"`
	SchoolID  int64     `db:"school_id" json:"schoolId"`
	GradeID   int64     `db:"grade_id" json:"gradeId"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
