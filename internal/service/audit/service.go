// Package audit records who changed what. Writes are synchronous so a
// mutation and its trail commit within the same request.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
	apperrors "github.com/clinicore/clinic-api/pkg/errors"
	"github.com/clinicore/clinic-api/pkg/logger"
)

type Service struct {
	repo   repository.AuditRepository
	logger *logger.Logger
}

func NewService(repo repository.AuditRepository, logger *logger.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Log writes one audit entry. Changes may be nil; any value is stored as
// its JSON encoding. A failed write is logged but never fails the
// caller's mutation.
func (s *Service) Log(ctx context.Context, actorID uuid.UUID, action, entityType string, entityID uuid.UUID, changes interface{}) {
	entry := &model.AuditLog{
		ID:         uuid.New(),
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		CreatedAt:  time.Now(),
	}
	if changes != nil {
		raw, err := json.Marshal(changes)
		if err != nil {
			s.logger.Error(err, "failed to encode audit changes", "action", action)
		} else {
			entry.Changes = raw
		}
	}

	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.Error(err, "failed to write audit log", "action", action, "entity_id", entityID)
	}
}

func (s *Service) List(ctx context.Context, actor *model.Actor, filters *model.AuditFilters) ([]*model.AuditLog, error) {
	if !actor.HasRole(model.RoleAdmin) {
		return nil, apperrors.Forbidden("audit log access requires admin role")
	}
	return s.repo.List(ctx, filters)
}
