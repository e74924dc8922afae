// Package worker holds long-running background jobs started beside the
// HTTP server.
package worker

import (
	"context"
	"time"

	"github.com/clinicore/clinic-api/internal/repository"
	"github.com/clinicore/clinic-api/pkg/logger"
)

// AuditCleanupWorker prunes audit entries past the retention horizon.
type AuditCleanupWorker struct {
	repo          repository.AuditRepository
	retentionDays int
	interval      time.Duration
	logger        *logger.Logger
}

func NewAuditCleanupWorker(repo repository.AuditRepository, retentionDays int, interval time.Duration, log *logger.Logger) *AuditCleanupWorker {
	return &AuditCleanupWorker{
		repo:          repo,
		retentionDays: retentionDays,
		interval:      interval,
		logger:        log,
	}
}

// Start blocks until ctx is cancelled, pruning once per interval.
func (w *AuditCleanupWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			cutoff := time.Now().AddDate(0, 0, -w.retentionDays)
			removed, err := w.repo.Cleanup(ctx, cutoff)
			if err != nil {
				w.logger.Error(err, "audit cleanup failed")
				continue
			}
			if removed > 0 {
				w.logger.Info("pruned audit logs", "removed", removed, "cutoff", cutoff)
			}
		}
	}
}
