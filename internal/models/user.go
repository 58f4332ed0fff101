package models

import (
	"strings"
	"time"
)

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleTeacher    UserRole = "teacher"
	RoleAdmin      UserRole = "admin"
	RoleSuperAdmin UserRole = "superadmin"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RoleTeacher, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// IsAdmin is true for roles with school-wide visibility.
func (r UserRole) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// User represents an application user stored in the users table.
type User struct {
	ID           int64      `db:"id" json:"id"`
	SchoolID     int64      `db:"school_id" json:"schoolId"`
	Email        string     `db:"email" json:"email"`
	DisplayName  *string    `db:"display_name" json:"displayName,omitempty"`
	PasswordHash string     `db:"password_hash" json:"-"`
	Role         UserRole   `db:"role" json:"role"`
	Active       bool       `db:"active" json:"active"`
	LastLogin    *time.Time `db:"last_login" json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// Label is the human-facing name: display name when set, email otherwise.
func (u User) Label() string {
	if u.DisplayName != nil && strings.TrimSpace(*u.DisplayName) != "" {
		return *u.DisplayName
	}
	return u.Email
}

// NormalizeEmail lower-cases and trims an address before storage or lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	SchoolID  *int64
	Role      *UserRole
	Active    *bool
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
}

// UserSettings keeps per-user UI state such as the current "My Class" grade.
type UserSettings struct {
	UserID            int64     `db:"user_id" json:"userId"`
	SchoolID          int64     `db:"school_id" json:"schoolId"`
	LastActiveGradeID *int64    `db:"last_active_grade_id" json:"lastActiveGradeId,omitempty"`
	UpdatedAt         time.Time `db:"updated_at" json:"updatedAt"`
}
