package service

import (
	"context"
	"encoding/json"

	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/passpilot-api/internal/models"
	appErrors "github.com/noah-isme/passpilot-api/pkg/errors"
)

type auditRepository interface {
	Create(ctx context.Context, audit *models.Audit) error
	List(ctx context.Context, filter models.AuditFilter) ([]models.Audit, error)
}

// AuditService appends privileged actions to the audit log.
type AuditService struct {
	repo   auditRepository
	logger *zap.Logger
}

// NewAuditService constructs an AuditService.
func NewAuditService(repo auditRepository, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, logger: logger}
}

// AuditEntry describes one audit row to append.
type AuditEntry struct {
	ActorUserID *int64
	SchoolID    *int64
	Action      models.AuditAction
	TargetType  string
	TargetID    *int64
	Data        map[string]interface{}
}

// Record appends entry. Failures are logged and never surface to the caller.
func (s *AuditService) Record(ctx context.Context, entry AuditEntry) {
	if s == nil || s.repo == nil {
		return
	}
	payload := types.JSONText(`{}`)
	if len(entry.Data) > 0 {
		raw, err := json.Marshal(entry.Data)
		if err != nil {
			s.logger.Warn("failed to encode audit data", zap.String("action", string(entry.Action)), zap.Error(err))
		} else {
			payload = raw
		}
	}
	audit := &models.Audit{
		ActorUserID: entry.ActorUserID,
		SchoolID:    entry.SchoolID,
		Action:      entry.Action,
		TargetType:  entry.TargetType,
		TargetID:    entry.TargetID,
		Data:        payload,
	}
	if err := s.repo.Create(ctx, audit); err != nil {
		s.logger.Warn("failed to record audit", zap.String("action", string(entry.Action)), zap.Error(err))
	}
}

// List returns audits newest first; a nil schoolID lists every tenant.
func (s *AuditService) List(ctx context.Context, schoolID *int64, limit int) ([]models.Audit, error) {
	audits, err := s.repo.List(ctx, models.AuditFilter{SchoolID: schoolID, Limit: limit})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audits")
	}
	if audits == nil {
		audits = []models.Audit{}
	}
	return audits, nil
}

func idRef(id int64) *int64 {
	return &id
}
