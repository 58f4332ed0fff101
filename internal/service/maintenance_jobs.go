package service

import (
	"context"
	"fmt"
	"time"

	"github.com/noah-isme/passpilot-api/pkg/jobs"
)

// JobExpirePasses is the periodic sweep that expires overdue active passes.
const JobExpirePasses = "passes.expire"

type passExpirer interface {
	ExpireOverdue(ctx context.Context, maxAge time.Duration) (int64, error)
}

// NewMaintenanceHandler dispatches background maintenance jobs.
func NewMaintenanceHandler(passes passExpirer, expireAfter time.Duration) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		switch job.Type {
		case JobExpirePasses:
			_, err := passes.ExpireOverdue(ctx, expireAfter)
			return err
		default:
			return fmt.Errorf("unknown maintenance job %q", job.Type)
		}
	}
}
