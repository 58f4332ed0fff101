package models

import "time"

// RegistrationToken is a single-use invite redeemed at account activation.
type RegistrationToken struct {
	ID        int64      `db:"id" json:"id"`
	SchoolID  int64      `db:"school_id" json:"schoolId"`
	Email     string     `db:"email" json:"email"`
	Role      UserRole   `db:"role" json:"role"`
	CodeHash  string     `db:"code_hash" json:"-"`
	ExpiresAt time.Time  `db:"expires_at" json:"expiresAt"`
	UsedAt    *time.Time `db:"used_at" json:"usedAt,omitempty"`
	CreatedBy *int64     `db:"created_by" json:"createdBy,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
}
