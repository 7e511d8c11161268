package repository

import (
	"context"
	"database/sql"

	"club-scheduler/core/database"
	"club-scheduler/core/logger"
	"club-scheduler/modules/series/entity"

	"github.com/google/uuid"
)

// SeriesRepository handles event series database operations.
type SeriesRepository struct {
	db database.IDatabase
}

func NewSeriesRepository(db database.IDatabase) *SeriesRepository {
	return &SeriesRepository{db: db}
}

type SeriesRepositoryInterface interface {
	Create(ctx context.Context, series *entity.EventSeries) (*entity.EventSeries, error)
	GetByID(ctx context.Context, id uuid.UUID) (*entity.EventSeries, error)
	GetByClubID(ctx context.Context, clubID uuid.UUID) ([]entity.EventSeries, error)
	ListActive(ctx context.Context) ([]entity.EventSeries, error)
	Update(ctx context.Context, series *entity.EventSeries) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	SetSeriesEndTask(ctx context.Context, id uuid.UUID, taskID *string) error
	SetNextBatchTask(ctx context.Context, id uuid.UUID, taskID *string) error
	ClearTaskRefs(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, id uuid.UUID) error
}

const seriesColumns = `id, club_id, name, slug, description, days_of_week, interval_weeks,
	       start_date, end_date, timezone, start_time, end_time, timeslot_template,
	       is_active, series_end_task_id, next_batch_task_id, created_at, updated_at`

func (r *SeriesRepository) Create(ctx context.Context, series *entity.EventSeries) (*entity.EventSeries, error) {
	query := `
		INSERT INTO event_series (club_id, name, slug, description, days_of_week, interval_weeks,
		                          start_date, end_date, timezone, start_time, end_time,
		                          timeslot_template, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING ` + seriesColumns

	var created entity.EventSeries
	err := r.db.GetContext(ctx, &created, query,
		series.ClubID, series.Name, series.Slug, series.Description,
		series.DaysOfWeek, series.IntervalWeeks,
		series.StartDate, series.EndDate, series.Timezone,
		series.StartTime, series.EndTime,
		series.TimeslotTemplateJSON, series.IsActive)
	if err != nil {
		logger.Error("SeriesRepository:Create", err)
		return nil, err
	}

	return &created, nil
}

func (r *SeriesRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.EventSeries, error) {
	query := `SELECT ` + seriesColumns + ` FROM event_series WHERE id = $1`

	var series entity.EventSeries
	err := r.db.GetContext(ctx, &series, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("SeriesRepository:GetByID", err)
		return nil, err
	}

	return &series, nil
}

func (r *SeriesRepository) GetByClubID(ctx context.Context, clubID uuid.UUID) ([]entity.EventSeries, error) {
	query := `SELECT ` + seriesColumns + ` FROM event_series WHERE club_id = $1 ORDER BY created_at DESC`

	var series []entity.EventSeries
	if err := r.db.SelectContext(ctx, &series, query, clubID); err != nil {
		logger.Error("SeriesRepository:GetByClubID", err)
		return nil, err
	}

	return series, nil
}

func (r *SeriesRepository) ListActive(ctx context.Context) ([]entity.EventSeries, error) {
	query := `SELECT ` + seriesColumns + ` FROM event_series WHERE is_active = true ORDER BY created_at`

	var series []entity.EventSeries
	if err := r.db.SelectContext(ctx, &series, query); err != nil {
		logger.Error("SeriesRepository:ListActive", err)
		return nil, err
	}

	return series, nil
}

func (r *SeriesRepository) Update(ctx context.Context, series *entity.EventSeries) error {
	query := `
		UPDATE event_series
		SET name = $2, slug = $3, description = $4, days_of_week = $5, interval_weeks = $6,
		    start_date = $7, end_date = $8, timezone = $9, start_time = $10, end_time = $11,
		    timeslot_template = $12, is_active = $13, updated_at = NOW()
		WHERE id = $1
	`
	err := r.db.ExecContext(ctx, query,
		series.ID, series.Name, series.Slug, series.Description,
		series.DaysOfWeek, series.IntervalWeeks,
		series.StartDate, series.EndDate, series.Timezone,
		series.StartTime, series.EndTime,
		series.TimeslotTemplateJSON, series.IsActive)
	if err != nil {
		logger.Error("SeriesRepository:Update", err)
		return err
	}

	return nil
}

func (r *SeriesRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	query := `UPDATE event_series SET is_active = $2, updated_at = NOW() WHERE id = $1`
	if err := r.db.ExecContext(ctx, query, id, active); err != nil {
		logger.Error("SeriesRepository:SetActive", err)
		return err
	}
	return nil
}

func (r *SeriesRepository) SetSeriesEndTask(ctx context.Context, id uuid.UUID, taskID *string) error {
	query := `UPDATE event_series SET series_end_task_id = $2, updated_at = NOW() WHERE id = $1`
	if err := r.db.ExecContext(ctx, query, id, taskID); err != nil {
		logger.Error("SeriesRepository:SetSeriesEndTask", err)
		return err
	}
	return nil
}

func (r *SeriesRepository) SetNextBatchTask(ctx context.Context, id uuid.UUID, taskID *string) error {
	query := `UPDATE event_series SET next_batch_task_id = $2, updated_at = NOW() WHERE id = $1`
	if err := r.db.ExecContext(ctx, query, id, taskID); err != nil {
		logger.Error("SeriesRepository:SetNextBatchTask", err)
		return err
	}
	return nil
}

// ClearTaskRefs drops both task back-references, used when the series is
// deactivated.
func (r *SeriesRepository) ClearTaskRefs(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE event_series
		SET series_end_task_id = NULL, next_batch_task_id = NULL, updated_at = NOW()
		WHERE id = $1`
	if err := r.db.ExecContext(ctx, query, id); err != nil {
		logger.Error("SeriesRepository:ClearTaskRefs", err)
		return err
	}
	return nil
}

// Delete removes the series row; events and participations cascade via
// foreign keys within the same transaction.
func (r *SeriesRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM event_series WHERE id = $1`
	if err := r.db.ExecContext(ctx, query, id); err != nil {
		logger.Error("SeriesRepository:Delete", err)
		return err
	}
	return nil
}
