package dto

import "github.com/noah-isme/passpilot-api/internal/models"

// CreateGradeRequest creates a grade in the caller's school.
type CreateGradeRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

// UpdateGradeRequest patches a grade.
type UpdateGradeRequest struct {
	Name     *string `json:"name" validate:"omitempty,max=120"`
	IsActive *bool   `json:"isActive"`
}

// CreateStudentRequest creates a single student.
type CreateStudentRequest struct {
	Name        string  `json:"name" validate:"required,max=120"`
	GradeID     int64   `json:"gradeId" validate:"required,gt=0"`
	StudentCode *string `json:"studentCode" validate:"omitempty,max=60"`
}

// BulkStudent is one row of a bulk import.
type BulkStudent struct {
	Name        string  `json:"name" validate:"required,max=120"`
	GradeID     *int64  `json:"gradeId" validate:"omitempty,gt=0"`
	StudentCode *string `json:"studentCode" validate:"omitempty,max=60"`
}

// BulkStudentsRequest imports many students in one transaction.
type BulkStudentsRequest struct {
	GradeID  *int64        `json:"gradeId" validate:"omitempty,gt=0"`
	Students []BulkStudent `json:"students" validate:"required,min=1,max=500,dive"`
}

// UpdateStudentRequest patches a student.
type UpdateStudentRequest struct {
	Name        *string `json:"name" validate:"omitempty,max=120"`
	GradeID     *int64  `json:"gradeId" validate:"omitempty,gt=0"`
	StudentCode *string `json:"studentCode" validate:"omitempty,max=60"`
}

// RosterResponse is the caller's roster view.
type RosterResponse struct {
	Grades           []models.Grade   `json:"grades"`
	Students         []models.Student `json:"students"`
	SelectedGradeIDs []int64          `json:"selectedGradeIds"`
}

// RosterSelectionRequest replaces the teacher's grade selection.
type RosterSelectionRequest struct {
	GradeIDs []int64 `json:"gradeIds" validate:"max=200,dive,gt=0"`
}

// RosterToggleRequest adds or removes one grade from the selection.
type RosterToggleRequest struct {
	GradeID  int64 `json:"gradeId" validate:"required,gt=0"`
	Selected bool  `json:"selected"`
}

// MyClassStats counts students in and out of the room.
type MyClassStats struct {
	Total     int `json:"total"`
	Out       int `json:"out"`
	Available int `json:"available"`
}

// MyClassResponse is the live class board.
type MyClassResponse struct {
	CurrentGradeID *int64                `json:"currentGradeId"`
	Grades         []models.Grade        `json:"grades"`
	Students       []models.ClassStudent `json:"students"`
	Stats          MyClassStats          `json:"stats"`
}

// SwitchGradeRequest changes the teacher's current grade.
type SwitchGradeRequest struct {
	GradeID int64 `json:"gradeId" validate:"required,gt=0"`
}
