package repository

import (
	"context"
	"database/sql"
	"time"

	"club-scheduler/core/database"
	"club-scheduler/core/logger"
	"club-scheduler/modules/activity/entity"

	"github.com/google/uuid"
)

type ActivityRepository struct {
	db database.IDatabase
}

func NewActivityRepository(db database.IDatabase) *ActivityRepository {
	return &ActivityRepository{db: db}
}

type ActivityRepositoryInterface interface {
	Create(ctx context.Context, log *entity.ActivityLog) error
	GetScheduledEntry(ctx context.Context, resourceID uuid.UUID, action string, scheduledAt time.Time) (*entity.ActivityLog, error)
}

func (r *ActivityRepository) Create(ctx context.Context, log *entity.ActivityLog) error {
	query := `
		INSERT INTO activity_logs (resource_type, resource_id, action, scheduled_at, detail)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		log.ResourceType, log.ResourceID, log.Action, log.ScheduledAt, log.Detail).
		Scan(&log.ID, &log.CreatedAt)
	if err != nil {
		logger.Error("ActivityRepository:Create", err)
		return err
	}
	return nil
}

func (r *ActivityRepository) GetScheduledEntry(ctx context.Context, resourceID uuid.UUID, action string, scheduledAt time.Time) (*entity.ActivityLog, error) {
	query := `
		SELECT id, resource_type, resource_id, action, scheduled_at, detail, created_at
		FROM activity_logs
		WHERE resource_id = $1 AND action = $2 AND scheduled_at = $3
	`

	var log entity.ActivityLog
	err := r.db.GetContext(ctx, &log, query, resourceID, action, scheduledAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("ActivityRepository:GetScheduledEntry", err)
		return nil, err
	}

	return &log, nil
}
