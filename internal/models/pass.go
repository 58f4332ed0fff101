package models

import (
	"math"
	"time"
)

// PassStatus is the lifecycle state of a pass.
type PassStatus string

const (
	PassActive   PassStatus = "active"
	PassReturned PassStatus = "returned"
	PassExpired  PassStatus = "expired"
)

// PassType categorises why the student left the room.
type PassType string

const (
	PassGeneral    PassType = "general"
	PassNurse      PassType = "nurse"
	PassDiscipline PassType = "discipline"
	PassCustom     PassType = "custom"
)

// Valid reports whether t is a known pass type.
func (t PassType) Valid() bool {
	switch t {
	case PassGeneral, PassNurse, PassDiscipline, PassCustom:
		return true
	}
	return false
}

// Normalized maps legacy empty values to general.
func (t PassType) Normalized() PassType {
	if t == "" {
		return PassGeneral
	}
	return t
}

// PassSource identifies the channel that issued a pass.
type PassSource string

const (
	SourceTeacher PassSource = "teacher"
	SourceKiosk   PassSource = "kiosk"
)

// Pass is a time-bounded permission for a student to be out of the room.
type Pass struct {
	ID             int64      `db:"id" json:"id"`
	SchoolID       int64      `db:"school_id" json:"schoolId"`
	StudentID      *int64     `db:"student_id" json:"studentId"`
	StudentName    string     `db:"student_name" json:"studentName"`
	Reason         string     `db:"reason" json:"reason"`
	Type           PassType   `db:"type" json:"type"`
	CustomReason   *string    `db:"custom_reason" json:"customReason,omitempty"`
	IssuedByUserID *int64     `db:"issued_by_user_id" json:"issuedByUserId"`
	KioskDeviceID  *int64     `db:"kiosk_device_id" json:"kioskDeviceId,omitempty"`
	Status         PassStatus `db:"status" json:"status"`
	StartsAt       time.Time  `db:"starts_at" json:"startsAt"`
	EndsAt         *time.Time `db:"ends_at" json:"endsAt"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
}

// Duration is the elapsed time of the pass, measured to now while active.
func (p Pass) Duration(now time.Time) time.Duration {
	end := now
	if p.EndsAt != nil {
		end = *p.EndsAt
	}
	d := end.Sub(p.StartsAt)
	if d < 0 {
		return 0
	}
	return d
}

// DurationMinutes rounds Duration to whole minutes, half away from zero.
func (p Pass) DurationMinutes(now time.Time) int {
	return int(math.Round(p.Duration(now).Minutes()))
}

// PassFilter narrows pass listings. SchoolID is always applied. ScopeUserID
// limits rows to passes for students in that teacher's selected grades or
// issued by that teacher.
type PassFilter struct {
	SchoolID    int64
	ScopeUserID *int64
	StudentID   *int64
	Status      *PassStatus
	From        *time.Time
	To          *time.Time
	Limit       int
}

// PassRecord joins a pass with its student, grade and issuer columns for
// listings, reports and exports.
type PassRecord struct {
	Pass
	StudentCode *string `db:"student_code" json:"studentCode,omitempty"`
	GradeID     *int64  `db:"grade_id" json:"gradeId,omitempty"`
	GradeName   *string `db:"grade_name" json:"gradeName,omitempty"`
	IssuerName  *string `db:"issuer_name" json:"issuerName,omitempty"`
	IssuerEmail *string `db:"issuer_email" json:"issuerEmail,omitempty"`
	KioskRoom   *string `db:"kiosk_room" json:"kioskRoom,omitempty"`
}

// IssuerLabel mirrors User.Label for the joined issuer columns.
func (r PassRecord) IssuerLabel() string {
	if r.IssuerName != nil && *r.IssuerName != "" {
		return *r.IssuerName
	}
	if r.IssuerEmail != nil {
		return *r.IssuerEmail
	}
	return ""
}
