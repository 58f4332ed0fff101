package models

// LoginRequest holds credentials for authenticating a user.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	SchoolID int64  `json:"schoolId" validate:"required,gt=0"`
}

// ActivateRequest redeems an invite code into a new account.
type ActivateRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Code     string `json:"code" validate:"required,len=6,hexadecimal"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	SchoolID int64  `json:"schoolId" validate:"required,gt=0"`
}

// BootstrapRequest creates the first superadmin.
type BootstrapRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// UpdateProfileRequest updates the caller's own profile.
type UpdateProfileRequest struct {
	Email       *string `json:"email" validate:"omitempty,email"`
	DisplayName *string `json:"displayName" validate:"omitempty,max=120"`
}

// ChangePasswordRequest payload for updating password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=128"`
}

// KioskLoginRequest authenticates a shared room device.
type KioskLoginRequest struct {
	SchoolID int64  `json:"schoolId" validate:"required,gt=0"`
	Room     string `json:"room" validate:"required,max=60"`
	Pin      string `json:"pin" validate:"required,numeric,min=4,max=8"`
}

// KioskSession is returned after kiosk login and by /kiosk/me.
type KioskSession struct {
	SchoolID      int64  `json:"schoolId"`
	Room          string `json:"room"`
	KioskDeviceID int64  `json:"kioskDeviceId"`
}
