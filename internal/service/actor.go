package service

import "github.com/noah-isme/passpilot-api/internal/models"

// Actor is the authenticated user acting inside the tenant resolved for the request.
type Actor struct {
	UserID   int64
	SchoolID int64
	Role     models.UserRole
}

// IsAdmin reports school-wide visibility.
func (a Actor) IsAdmin() bool {
	return a.Role.IsAdmin()
}

func (a Actor) userRef() *int64 {
	id := a.UserID
	return &id
}

func (a Actor) schoolRef() *int64 {
	id := a.SchoolID
	return &id
}
