package dto

import (
	"time"

	"github.com/noah-isme/passpilot-api/internal/models"
)

// CreateUserRequest creates a user with a password directly.
type CreateUserRequest struct {
	Email       string          `json:"email" validate:"required,email"`
	Role        models.UserRole `json:"role" validate:"required,oneof=teacher admin"`
	Password    string          `json:"password" validate:"required,min=8,max=128"`
	DisplayName *string         `json:"displayName" validate:"omitempty,max=120"`
}

// InviteRequest issues an activation code.
type InviteRequest struct {
	Email            string          `json:"email" validate:"required,email"`
	Role             models.UserRole `json:"role" validate:"required,oneof=teacher admin"`
	ExpiresInMinutes *int            `json:"expiresInMinutes" validate:"omitempty,min=5,max=43200"`
}

// InviteResponse is shown once to the inviting admin.
type InviteResponse struct {
	InviteID      int64     `json:"inviteId"`
	Email         string    `json:"email"`
	Role          string    `json:"role"`
	Code          string    `json:"code"`
	ExpiresAt     time.Time `json:"expiresAt"`
	ActivationURL string    `json:"activationUrl"`
}

// SetActiveRequest toggles a user's active flag.
type SetActiveRequest struct {
	Active *bool `json:"active" validate:"required"`
}

// ResetPasswordRequest sets a new password for another user.
type ResetPasswordRequest struct {
	NewPassword string `json:"newPassword" validate:"required,min=8,max=128"`
}

// UpdateSchoolRequest renames the caller's school.
type UpdateSchoolRequest struct {
	Name string `json:"name" validate:"required,max=120"`
}

// CreateKioskRequest registers a kiosk device for a room.
type CreateKioskRequest struct {
	Room string `json:"room" validate:"required,max=60"`
	Pin  string `json:"pin" validate:"required,numeric,min=4,max=8"`
}

// UpdateKioskRequest toggles a device or rotates its PIN.
type UpdateKioskRequest struct {
	Active *bool   `json:"active"`
	Pin    *string `json:"pin" validate:"omitempty,numeric,min=4,max=8"`
}

// SchoolCreateRequest creates a tenant, optionally with its first admin.
type SchoolCreateRequest struct {
	Name          string  `json:"name" validate:"required,max=120"`
	SeatsAllowed  *int    `json:"seatsAllowed" validate:"omitempty,min=0,max=100000"`
	Active        *bool   `json:"active"`
	AdminEmail    *string `json:"adminEmail" validate:"omitempty,email"`
	AdminPassword *string `json:"adminPassword" validate:"omitempty,min=8,max=128"`
}

// SchoolUpdateRequest patches a tenant.
type SchoolUpdateRequest struct {
	Name         *string `json:"name" validate:"omitempty,max=120"`
	SeatsAllowed *int    `json:"seatsAllowed" validate:"omitempty,min=0,max=100000"`
	Active       *bool   `json:"active"`
}

// SchoolCreateResponse echoes the new school and its optional admin.
type SchoolCreateResponse struct {
	School *models.School `json:"school"`
	Admin  *models.User   `json:"admin,omitempty"`
}

// SACreateUserRequest creates or invites a user in any school.
type SACreateUserRequest struct {
	SchoolID    int64           `json:"schoolId" validate:"required,gt=0"`
	Email       string          `json:"email" validate:"required,email"`
	Role        models.UserRole `json:"role" validate:"required,oneof=teacher admin"`
	Password    *string         `json:"password" validate:"omitempty,min=8,max=128"`
	DisplayName *string         `json:"displayName" validate:"omitempty,max=120"`
}

// SACreateUserResponse carries either the created user or the issued invite.
type SACreateUserResponse struct {
	User   *models.User    `json:"user,omitempty"`
	Invite *InviteResponse `json:"invite,omitempty"`
}
