package models

import "github.com/noah-isme/passpilot-api/pkg/session"

// SessionClaims is the payload of the user session cookie.
type SessionClaims struct {
	UserID   int64    `json:"userId"`
	SchoolID int64    `json:"schoolId"`
	Role     UserRole `json:"role"`
	session.Stamped
}

// KioskClaims is the payload of the kiosk device cookie.
type KioskClaims struct {
	SchoolID      int64  `json:"schoolId"`
	Room          string `json:"room"`
	KioskDeviceID int64  `json:"kioskDeviceId"`
	DeviceKey     string `json:"deviceKey"`
	session.Stamped
}
