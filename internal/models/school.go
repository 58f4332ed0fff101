package models

import "time"

// School is the tenant root. Every other tenant-scoped row references it.
type School struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	SeatsAllowed int       `db:"seats_allowed" json:"seatsAllowed"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// SchoolOverview aggregates tenant counters for the admin dashboard.
type SchoolOverview struct {
	Users        int `db:"users" json:"users"`
	ActiveUsers  int `db:"active_users" json:"activeUsers"`
	Admins       int `db:"admins" json:"admins"`
	Teachers     int `db:"teachers" json:"teachers"`
	Students     int `db:"students" json:"students"`
	ActivePasses int `db:"active_passes" json:"activePasses"`
	SeatsAllowed int `db:"seats_allowed" json:"seatsAllowed"`
}
