package service

import (
	"context"
	"time"

	"club-scheduler/core/logger"
	"club-scheduler/modules/activity/entity"
	"club-scheduler/modules/activity/repository"

	"github.com/google/uuid"
)

// ActivityService writes audit entries for scheduled and applied changes.
type ActivityService struct {
	repo repository.ActivityRepositoryInterface
}

type ActivityServiceInterface interface {
	RecordScheduled(ctx context.Context, resourceType string, resourceID uuid.UUID, action string, scheduledAt time.Time, detail string) error
	Record(ctx context.Context, resourceType string, resourceID uuid.UUID, action string, detail string) error
}

func NewActivityService(repo repository.ActivityRepositoryInterface) ActivityServiceInterface {
	return &ActivityService{repo: repo}
}

// RecordScheduled writes a single audit entry for a scheduled change. It is
// idempotent on (resourceID, action, scheduledAt): if an entry already
// exists it is reused, so repeated arming attempts never duplicate rows.
func (s *ActivityService) RecordScheduled(ctx context.Context, resourceType string, resourceID uuid.UUID, action string, scheduledAt time.Time, detail string) error {
	existing, err := s.repo.GetScheduledEntry(ctx, resourceID, action, scheduledAt)
	if err != nil {
		return err
	}
	if existing != nil {
		logger.Debug("ActivityService:RecordScheduled:Exists", "resource_id", resourceID, "action", action)
		return nil
	}

	return s.repo.Create(ctx, &entity.ActivityLog{
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Action:       action,
		ScheduledAt:  &scheduledAt,
		Detail:       detail,
	})
}

// Record writes an immediate audit entry.
func (s *ActivityService) Record(ctx context.Context, resourceType string, resourceID uuid.UUID, action string, detail string) error {
	return s.repo.Create(ctx, &entity.ActivityLog{
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Action:       action,
		Detail:       detail,
	})
}
