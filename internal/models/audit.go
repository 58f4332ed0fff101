package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// AuditAction enumerates privileged mutations recorded in the audit log.
type AuditAction string

const (
	AuditUserActivate      AuditAction = "USER_ACTIVATE"
	AuditUserDeactivate    AuditAction = "USER_DEACTIVATE"
	AuditUserCreate        AuditAction = "USER_CREATE"
	AuditUserPromoteAdmin  AuditAction = "USER_PROMOTE_ADMIN"
	AuditUserDemoteTeacher AuditAction = "USER_DEMOTE_TEACHER"
	AuditUserPasswordReset AuditAction = "USER_PASSWORD_RESET"
	AuditInviteCreate      AuditAction = "INVITE_CREATE"
	AuditInviteRedeem      AuditAction = "INVITE_REDEEM"
	AuditSchoolCreate      AuditAction = "SCHOOL_CREATE"
	AuditSchoolUpdate      AuditAction = "SCHOOL_UPDATE"
	AuditSchoolDelete      AuditAction = "SCHOOL_DELETE"
	AuditKioskCreate       AuditAction = "KIOSK_CREATE"
	AuditKioskUpdate       AuditAction = "KIOSK_UPDATE"
)

// Audit is an append-only record of a privileged action.
type Audit struct {
	ID          int64          `db:"id" json:"id"`
	ActorUserID *int64         `db:"actor_user_id" json:"actorUserId"`
	SchoolID    *int64         `db:"school_id" json:"schoolId"`
	Action      AuditAction    `db:"action" json:"action"`
	TargetType  string         `db:"target_type" json:"targetType"`
	TargetID    *int64         `db:"target_id" json:"targetId"`
	Data        types.JSONText `db:"data" json:"data"`
	CreatedAt   time.Time      `db:"created_at" json:"createdAt"`
}

// AuditFilter narrows audit listings.
type AuditFilter struct {
	SchoolID *int64
	Limit    int
}
