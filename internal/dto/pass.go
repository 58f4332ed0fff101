package dto

import "github.com/noah-isme/passpilot-api/internal/models"

// CreatePassRequest is the body of POST /api/passes.
type CreatePassRequest struct {
	StudentID    *int64          `json:"studentId" validate:"omitempty,gt=0"`
	StudentName  string          `json:"studentName" validate:"max=120"`
	Reason       string          `json:"reason" validate:"max=255"`
	Type         models.PassType `json:"type" validate:"omitempty,oneof=general nurse discipline custom"`
	CustomReason *string         `json:"customReason" validate:"omitempty,max=255"`
}

// KioskPassRequest is the body of POST /kiosk/passes.
type KioskPassRequest struct {
	StudentID      int64           `json:"studentId" validate:"required,gt=0"`
	Reason         string          `json:"reason" validate:"max=255"`
	Type           models.PassType `json:"type" validate:"omitempty,oneof=general nurse discipline custom"`
	CustomReason   *string         `json:"customReason" validate:"omitempty,max=255"`
	IssuedByUserID *int64          `json:"issuedByUserId" validate:"omitempty,gt=0"`
}

// PassListQuery carries raw query parameters of GET /api/passes.
type PassListQuery struct {
	Scope     string
	Status    string
	From      string
	To        string
	StudentID *int64
	Limit     int
}

// PassView is a pass enriched with joined columns and its computed duration.
type PassView struct {
	models.PassRecord
	DurationMinutes int `json:"durationMinutes"`
}
