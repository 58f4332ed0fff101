package models

import "time"

// KioskDevice is a shared in-room terminal authenticated by room + PIN.
type KioskDevice struct {
	ID        int64     `db:"id" json:"id"`
	SchoolID  int64     `db:"school_id" json:"schoolId"`
	Room      string    `db:"room" json:"room"`
	PinHash   string    `db:"pin_hash" json:"-"`
	Token     string    `db:"token" json:"-"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
