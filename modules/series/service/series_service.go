package service

import (
	"context"
	"time"

	"club-scheduler/core/database"
	"club-scheduler/core/errors"
	"club-scheduler/core/logger"
	eventdto "club-scheduler/modules/event/dto"
	eventrepo "club-scheduler/modules/event/repository"
	schedulerservice "club-scheduler/modules/scheduler/service"
	"club-scheduler/modules/series/dto"
	"club-scheduler/modules/series/entity"
	"club-scheduler/modules/series/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/lib/pq"
)

// SeriesService handles event series business logic.
type SeriesService struct {
	db           database.IDatabase
	repo         repository.SeriesRepositoryInterface
	events       eventrepo.EventRepositoryInterface
	scheduler    schedulerservice.TransitionSchedulerInterface
	orchestrator GenerationOrchestratorInterface
}

type SeriesServiceInterface interface {
	CreateSeries(ctx context.Context, clubID uuid.UUID, req *dto.CreateSeriesRequest) (*dto.SeriesResponse, *errors.AppError)
	GetSeriesByID(ctx context.Context, id uuid.UUID) (*dto.SeriesResponse, *errors.AppError)
	GetClubSeries(ctx context.Context, clubID uuid.UUID) ([]dto.SeriesResponse, *errors.AppError)
	UpdateSeries(ctx context.Context, seriesID uuid.UUID, req *dto.UpdateSeriesRequest) (*dto.SeriesResponse, *errors.AppError)
	DeleteSeries(ctx context.Context, seriesID uuid.UUID) *errors.AppError
	GenerateForRange(ctx context.Context, seriesID uuid.UUID, req *dto.GenerateRangeRequest) ([]eventdto.EventResponse, *errors.AppError)
}

func NewSeriesService(
	db database.IDatabase,
	repo repository.SeriesRepositoryInterface,
	events eventrepo.EventRepositoryInterface,
	scheduler schedulerservice.TransitionSchedulerInterface,
	orchestrator GenerationOrchestratorInterface,
) SeriesServiceInterface {
	return &SeriesService{
		db:           db,
		repo:         repo,
		events:       events,
		scheduler:    scheduler,
		orchestrator: orchestrator,
	}
}

// validateSchedule checks the recurrence configuration before anything is
// written or generated. A series that fails here never arms a task.
func validateSchedule(series *entity.EventSeries) *errors.AppError {
	if _, err := series.Location(); err != nil {
		return errors.NewAppError(errors.ErrInvalidSchedule, "Unknown timezone", err)
	}
	if len(series.DaysOfWeek) == 0 {
		return errors.NewAppError(errors.ErrInvalidSchedule, "At least one weekday is required", nil)
	}
	for _, d := range series.DaysOfWeek {
		if d < 0 || d > 6 {
			return errors.NewAppError(errors.ErrInvalidSchedule, "Weekdays must be between 0 (Sunday) and 6 (Saturday)", nil)
		}
	}
	if series.IntervalWeeks < 1 {
		return errors.NewAppError(errors.ErrInvalidSchedule, "Interval must be a positive number of weeks", nil)
	}
	if series.StartDate.After(series.EndDate) {
		return errors.NewAppError(errors.ErrInvalidSchedule, "Series start date must not be after its end date", nil)
	}

	startHour, startMin, err := ParseTimeOfDay(series.StartTime)
	if err != nil {
		return errors.NewAppError(errors.ErrInvalidSchedule, "Invalid start time of day", err)
	}
	endHour, endMin, err := ParseTimeOfDay(series.EndTime)
	if err != nil {
		return errors.NewAppError(errors.ErrInvalidSchedule, "Invalid end time of day", err)
	}
	if startHour*60+startMin >= endHour*60+endMin {
		return errors.NewAppError(errors.ErrInvalidSchedule, "Start time must be before end time", nil)
	}

	templates, err := series.TimeslotTemplates()
	if err != nil {
		return errors.NewAppError(errors.ErrInvalidSchedule, "Invalid timeslot template", err)
	}
	if len(templates) == 0 {
		return errors.NewAppError(errors.ErrInvalidSchedule, "At least one timeslot is required", nil)
	}
	for _, tpl := range templates {
		if tpl.MaxParticipants < 1 {
			return errors.NewAppError(errors.ErrInvalidSchedule, "Timeslot capacity must be positive", nil)
		}
		if tpl.MaxWaitlist < 0 {
			return errors.NewAppError(errors.ErrInvalidSchedule, "Waitlist capacity must not be negative", nil)
		}
		if len(tpl.PermanentParticipants) > tpl.MaxParticipants {
			return errors.NewAppError(errors.ErrInvalidSchedule, "More permanent participants than timeslot capacity", nil)
		}
	}

	return nil
}

// CreateSeries validates and stores a new series; a series created active
// is activated immediately.
func (s *SeriesService) CreateSeries(ctx context.Context, clubID uuid.UUID, req *dto.CreateSeriesRequest) (*dto.SeriesResponse, *errors.AppError) {
	series, appErr := seriesFromCreateRequest(clubID, req)
	if appErr != nil {
		return nil, appErr
	}
	if appErr := validateSchedule(series); appErr != nil {
		return nil, appErr
	}

	created, err := s.repo.Create(ctx, series)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to create series", err)
	}

	if created.IsActive {
		if err := s.orchestrator.Activate(ctx, created); err != nil {
			return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to activate series", err)
		}
	}

	return dto.ToSeriesResponse(created), nil
}

func seriesFromCreateRequest(clubID uuid.UUID, req *dto.CreateSeriesRequest) (*entity.EventSeries, *errors.AppError) {
	startDate, err := time.Parse(time.RFC3339, req.StartDate)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidSchedule, "Invalid start date", err)
	}
	endDate, err := time.Parse(time.RFC3339, req.EndDate)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidSchedule, "Invalid end date", err)
	}

	series := &entity.EventSeries{
		ClubID:        clubID,
		Name:          req.Name,
		Slug:          slug.Make(req.Name),
		DaysOfWeek:    toInt64Array(req.DaysOfWeek),
		IntervalWeeks: req.IntervalWeeks,
		StartDate:     startDate,
		EndDate:       endDate,
		Timezone:      req.Timezone,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		IsActive:      req.IsActive,
	}
	if req.Description != "" {
		series.Description = &req.Description
	}

	templates, appErr := templatesFromSpecs(req.Timeslots)
	if appErr != nil {
		return nil, appErr
	}
	if err := series.SetTimeslotTemplates(templates); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to encode timeslot template", err)
	}

	return series, nil
}

func templatesFromSpecs(specs []dto.TimeslotTemplateSpec) ([]entity.TimeslotTemplate, *errors.AppError) {
	templates := make([]entity.TimeslotTemplate, 0, len(specs))
	for _, spec := range specs {
		tpl := entity.TimeslotTemplate{
			Name:            spec.Name,
			MaxParticipants: spec.MaxParticipants,
			MaxWaitlist:     spec.MaxWaitlist,
		}
		for _, raw := range spec.PermanentParticipants {
			userID, err := uuid.Parse(raw)
			if err != nil {
				return nil, errors.NewAppError(errors.ErrInvalidInput, "Invalid permanent participant id", err)
			}
			tpl.PermanentParticipants = append(tpl.PermanentParticipants, userID)
		}
		templates = append(templates, tpl)
	}
	return templates, nil
}

func toInt64Array(days []int) pq.Int64Array {
	out := make(pq.Int64Array, 0, len(days))
	for _, d := range days {
		out = append(out, int64(d))
	}
	return out
}

func (s *SeriesService) GetSeriesByID(ctx context.Context, id uuid.UUID) (*dto.SeriesResponse, *errors.AppError) {
	series, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to get series", err)
	}
	if series == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Series not found", nil)
	}
	return dto.ToSeriesResponse(series), nil
}

func (s *SeriesService) GetClubSeries(ctx context.Context, clubID uuid.UUID) ([]dto.SeriesResponse, *errors.AppError) {
	series, err := s.repo.GetByClubID(ctx, clubID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to list series", err)
	}

	result := make([]dto.SeriesResponse, 0, len(series))
	for i := range series {
		result = append(result, *dto.ToSeriesResponse(&series[i]))
	}
	return result, nil
}

// UpdateSeries applies a patch. Flipping is_active false→true activates
// the series; true→false cancels its pending tasks.
func (s *SeriesService) UpdateSeries(ctx context.Context, seriesID uuid.UUID, req *dto.UpdateSeriesRequest) (*dto.SeriesResponse, *errors.AppError) {
	series, err := s.repo.GetByID(ctx, seriesID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to get series", err)
	}
	if series == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Series not found", nil)
	}

	wasActive := series.IsActive

	if appErr := applySeriesPatch(series, req); appErr != nil {
		return nil, appErr
	}
	if appErr := validateSchedule(series); appErr != nil {
		return nil, appErr
	}

	if err := s.repo.Update(ctx, series); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to update series", err)
	}

	switch {
	case !wasActive && series.IsActive:
		if err := s.orchestrator.Activate(ctx, series); err != nil {
			return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to activate series", err)
		}
	case wasActive && !series.IsActive:
		if err := s.scheduler.CancelSeriesTasks(ctx, series); err != nil {
			return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to cancel series tasks", err)
		}
		if err := s.repo.ClearTaskRefs(ctx, seriesID); err != nil {
			return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to clear series tasks", err)
		}
	}

	return s.GetSeriesByID(ctx, seriesID)
}

func applySeriesPatch(series *entity.EventSeries, req *dto.UpdateSeriesRequest) *errors.AppError {
	if req.Name != nil {
		series.Name = *req.Name
		series.Slug = slug.Make(*req.Name)
	}
	if req.Description != nil {
		series.Description = req.Description
	}
	if req.DaysOfWeek != nil {
		series.DaysOfWeek = toInt64Array(req.DaysOfWeek)
	}
	if req.IntervalWeeks != nil {
		series.IntervalWeeks = *req.IntervalWeeks
	}
	if req.StartDate != nil {
		startDate, err := time.Parse(time.RFC3339, *req.StartDate)
		if err != nil {
			return errors.NewAppError(errors.ErrInvalidSchedule, "Invalid start date", err)
		}
		series.StartDate = startDate
	}
	if req.EndDate != nil {
		endDate, err := time.Parse(time.RFC3339, *req.EndDate)
		if err != nil {
			return errors.NewAppError(errors.ErrInvalidSchedule, "Invalid end date", err)
		}
		series.EndDate = endDate
	}
	if req.Timezone != nil {
		series.Timezone = *req.Timezone
	}
	if req.StartTime != nil {
		series.StartTime = *req.StartTime
	}
	if req.EndTime != nil {
		series.EndTime = *req.EndTime
	}
	if req.Timeslots != nil {
		templates, appErr := templatesFromSpecs(req.Timeslots)
		if appErr != nil {
			return appErr
		}
		if err := series.SetTimeslotTemplates(templates); err != nil {
			return errors.NewAppError(errors.ErrInternalServer, "Failed to encode timeslot template", err)
		}
	}
	if req.IsActive != nil {
		series.IsActive = *req.IsActive
	}
	return nil
}

// DeleteSeries removes the series, its events and their participations in
// one transaction, cancelling every task armed on their behalf so no
// orphaned task later mutates a deleted resource.
func (s *SeriesService) DeleteSeries(ctx context.Context, seriesID uuid.UUID) *errors.AppError {
	var appErr *errors.AppError

	err := s.db.WithinTransaction(ctx, func(txCtx context.Context) error {
		series, err := s.repo.GetByID(txCtx, seriesID)
		if err != nil {
			return err
		}
		if series == nil {
			appErr = errors.NewAppError(errors.ErrNotFound, "Series not found", nil)
			return appErr
		}

		if err := s.scheduler.CancelSeriesTasks(txCtx, series); err != nil {
			return err
		}

		events, err := s.events.GetEventsBySeriesID(txCtx, seriesID)
		if err != nil {
			return err
		}
		for i := range events {
			if err := s.scheduler.CancelEventTasks(txCtx, &events[i]); err != nil {
				return err
			}
		}

		// Events and participations cascade with the series row.
		return s.repo.Delete(txCtx, seriesID)
	})

	if appErr != nil {
		return appErr
	}
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to delete series", err)
	}

	logger.Info("SeriesService:DeleteSeries", "series_id", seriesID)
	return nil
}

// GenerateForRange lets a caller trigger generation manually. Inactive
// series are rejected rather than silently skipped, since this is a direct
// user action and not a task re-entry.
func (s *SeriesService) GenerateForRange(ctx context.Context, seriesID uuid.UUID, req *dto.GenerateRangeRequest) ([]eventdto.EventResponse, *errors.AppError) {
	from, err := time.Parse(time.RFC3339, req.From)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidSchedule, "Invalid range start", err)
	}
	to, err := time.Parse(time.RFC3339, req.To)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidSchedule, "Invalid range end", err)
	}
	if from.After(to) {
		return nil, errors.NewAppError(errors.ErrInvalidSchedule, "Range start must not be after its end", nil)
	}

	series, err := s.repo.GetByID(ctx, seriesID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to get series", err)
	}
	if series == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Series not found", nil)
	}
	if !series.IsActive {
		return nil, errors.NewAppError(errors.ErrSeriesInactive, "Series is not active", nil)
	}

	events, err := s.orchestrator.GenerateForRange(ctx, seriesID, from, to)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to generate events", err)
	}

	result := make([]eventdto.EventResponse, 0, len(events))
	for i := range events {
		result = append(result, *eventdto.ToEventResponse(&events[i], nil))
	}
	return result, nil
}
