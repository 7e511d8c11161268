package service

import (
	"context"
	"time"

	"club-scheduler/core/constants"
	"club-scheduler/core/logger"
	"club-scheduler/core/taskqueue"
	"club-scheduler/core/utils"
	evententity "club-scheduler/modules/event/entity"
	eventrepo "club-scheduler/modules/event/repository"
	eventservice "club-scheduler/modules/event/service"
	schedulerservice "club-scheduler/modules/scheduler/service"
	"club-scheduler/modules/series/entity"
	"club-scheduler/modules/series/repository"

	"github.com/google/uuid"
)

// GenerationOrchestrator materializes due events for active series in
// bounded batches and arranges its own re-invocation for the next batch.
// Every step is idempotent, so overlapping or duplicate invocations
// converge on the same events, tasks and audit rows.
type GenerationOrchestrator struct {
	tasks     taskqueue.Scheduler
	series    repository.SeriesRepositoryInterface
	events    eventrepo.EventRepositoryInterface
	eventSvc  eventservice.EventServiceInterface
	scheduler schedulerservice.TransitionSchedulerInterface
}

type GenerationOrchestratorInterface interface {
	Activate(ctx context.Context, series *entity.EventSeries) error
	GenerateForRange(ctx context.Context, seriesID uuid.UUID, from, to time.Time) ([]evententity.Event, error)

	// GenerateNextBatch is the task-queue re-entry point.
	GenerateNextBatch(ctx context.Context, seriesID uuid.UUID, from time.Time) error

	// GenerateDueBatches is the periodic sweep over all active series.
	GenerateDueBatches(ctx context.Context) error
}

func NewGenerationOrchestrator(
	tasks taskqueue.Scheduler,
	series repository.SeriesRepositoryInterface,
	events eventrepo.EventRepositoryInterface,
	eventSvc eventservice.EventServiceInterface,
	scheduler schedulerservice.TransitionSchedulerInterface,
) GenerationOrchestratorInterface {
	return &GenerationOrchestrator{
		tasks:     tasks,
		series:    series,
		events:    events,
		eventSvc:  eventSvc,
		scheduler: scheduler,
	}
}

// Activate arms the series' end-of-life deactivation and generates the
// first batch of events from now (or the series start, whichever is later)
// to its end date.
func (o *GenerationOrchestrator) Activate(ctx context.Context, series *entity.EventSeries) error {
	loc, err := series.Location()
	if err != nil {
		return err
	}

	deactivateAt := StartOfDay(series.EndDate, loc)
	if err := o.scheduler.ArmSeriesDeactivation(ctx, series, deactivateAt); err != nil {
		return err
	}

	from := time.Now().UTC()
	if series.StartDate.After(from) {
		from = series.StartDate
	}

	_, err = o.GenerateForRange(ctx, series.ID, from, series.EndDate)
	return err
}

// GenerateForRange generates every due event in [from, to] for the series.
// The range is clamped to the series end date and to the generation
// horizon; events are keyed on (series_id, date) so re-invocation with an
// overlapping range never duplicates them. Missing or inactive series are
// treated as a no-op since the invocation may arrive from a task armed
// before the series was removed or deactivated.
func (o *GenerationOrchestrator) GenerateForRange(ctx context.Context, seriesID uuid.UUID, from, to time.Time) ([]evententity.Event, error) {
	series, err := o.series.GetByID(ctx, seriesID)
	if err != nil {
		return nil, err
	}
	if series == nil {
		logger.Info("GenerationOrchestrator:GenerateForRange:SeriesGone", "series_id", seriesID)
		return nil, nil
	}
	if !series.IsActive {
		logger.Info("GenerationOrchestrator:GenerateForRange:SeriesInactive", "series_id", seriesID)
		return nil, nil
	}

	if from.Before(series.StartDate) {
		from = series.StartDate
	}
	if to.After(series.EndDate) {
		to = series.EndDate
	}

	dates, err := GenerateDates(series, from, to)
	if err != nil {
		return nil, err
	}

	// The horizon bounds each batch the same way GenerateDates does, so the
	// continuation task has to be armed from the actually covered end, not
	// the requested one.
	batchEnd := to
	if horizon := from.AddDate(0, 0, constants.MaxGenerationHorizonDays); batchEnd.After(horizon) {
		batchEnd = horizon
	}

	generated := make([]evententity.Event, 0, len(dates))
	for _, date := range dates {
		event, err := o.materializeEvent(ctx, series, date)
		if err != nil {
			return nil, err
		}
		generated = append(generated, *event)
	}

	logger.Info("GenerationOrchestrator:GenerateForRange",
		"series_id", seriesID, "from", from, "to", to, "events", len(generated))

	if err := o.armNextBatch(ctx, series, batchEnd); err != nil {
		return nil, err
	}

	return generated, nil
}

// materializeEvent runs steps 3-5 of the batch for one date: get-or-create
// the event, get-or-create its permanent participants, arm its lifecycle
// transitions.
func (o *GenerationOrchestrator) materializeEvent(ctx context.Context, series *entity.EventSeries, date time.Time) (*evententity.Event, error) {
	startAt, endAt, err := EventWindow(series, date)
	if err != nil {
		return nil, err
	}

	templates, err := series.TimeslotTemplates()
	if err != nil {
		return nil, err
	}
	slots := make([]evententity.Timeslot, 0, len(templates))
	for _, tpl := range templates {
		slots = append(slots, evententity.Timeslot{
			ID:                    utils.GenerateID(),
			Name:                  tpl.Name,
			MaxParticipants:       tpl.MaxParticipants,
			MaxWaitlist:           tpl.MaxWaitlist,
			PermanentParticipants: tpl.PermanentParticipants,
		})
	}

	event := &evententity.Event{
		SeriesID: &series.ID,
		ClubID:   series.ClubID,
		Name:     series.Name,
		Date:     date,
		StartAt:  startAt,
		EndAt:    endAt,
		Status:   evententity.EventStatusNotStarted,
	}
	if err := event.SetTimeslots(slots); err != nil {
		return nil, err
	}

	event, created, err := o.events.GetOrCreateEvent(ctx, event)
	if err != nil {
		return nil, err
	}
	if created {
		logger.Debug("GenerationOrchestrator:materializeEvent:Created",
			"series_id", series.ID, "date", date)
	}

	if err := o.eventSvc.EnsurePermanentParticipants(ctx, event); err != nil {
		return nil, err
	}
	if err := o.scheduler.ArmTransitions(ctx, event); err != nil {
		return nil, err
	}

	return event, nil
}

// armNextBatch schedules the next self-invocation when dates remain beyond
// the batch just generated. A pending next-batch handle on the series means
// a concurrent or duplicate trigger already armed it, so re-arming is
// skipped.
func (o *GenerationOrchestrator) armNextBatch(ctx context.Context, series *entity.EventSeries, batchEnd time.Time) error {
	if batchEnd.Equal(series.EndDate) || batchEnd.After(series.EndDate) {
		return nil
	}

	remaining, err := GenerateDates(series, batchEnd.AddDate(0, 0, 1), series.EndDate)
	if err != nil {
		return err
	}
	if len(remaining) == 0 {
		return nil
	}
	nextDate := remaining[0]

	if o.pendingTask(ctx, series.NextBatchTaskID) {
		logger.Debug("GenerationOrchestrator:armNextBatch:AlreadyArmed", "series_id", series.ID)
		return nil
	}

	runAt := nextDate.AddDate(0, 0, -constants.GenerationLeadDays)
	if now := time.Now().UTC(); runAt.Before(now) {
		runAt = now
	}

	handle, err := o.tasks.ScheduleAt(ctx, runAt, taskqueue.TypeSeriesNextBatch,
		taskqueue.SeriesNextBatchPayload{
			SeriesID: series.ID.String(),
			From:     nextDate.Unix(),
		})
	if err != nil {
		return err
	}
	if err := o.series.SetNextBatchTask(ctx, series.ID, &handle); err != nil {
		return err
	}
	series.NextBatchTaskID = &handle

	return nil
}

// GenerateNextBatch is invoked by the task queue when a scheduled next
// batch comes due. The spent handle is cleared before generating so the
// fresh batch can arm its own successor.
func (o *GenerationOrchestrator) GenerateNextBatch(ctx context.Context, seriesID uuid.UUID, from time.Time) error {
	series, err := o.series.GetByID(ctx, seriesID)
	if err != nil {
		return err
	}
	if series == nil {
		logger.Info("GenerationOrchestrator:GenerateNextBatch:SeriesGone", "series_id", seriesID)
		return nil
	}
	if !series.IsActive {
		logger.Info("GenerationOrchestrator:GenerateNextBatch:SeriesInactive", "series_id", seriesID)
		return nil
	}

	if err := o.series.SetNextBatchTask(ctx, seriesID, nil); err != nil {
		return err
	}
	series.NextBatchTaskID = nil

	_, err = o.GenerateForRange(ctx, seriesID, from, series.EndDate)
	return err
}

// GenerateDueBatches re-runs bounded generation for every active series.
// Generation is idempotent, so the sweep is safe to run at any cadence.
func (o *GenerationOrchestrator) GenerateDueBatches(ctx context.Context) error {
	active, err := o.series.ListActive(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	for i := range active {
		if _, err := o.GenerateForRange(ctx, active[i].ID, now, active[i].EndDate); err != nil {
			logger.Error("GenerationOrchestrator:GenerateDueBatches", err, "series_id", active[i].ID)
		}
	}

	return nil
}

func (o *GenerationOrchestrator) pendingTask(ctx context.Context, handle *string) bool {
	if handle == nil || *handle == "" {
		return false
	}
	state, err := o.tasks.State(ctx, *handle)
	if err != nil {
		logger.Error("GenerationOrchestrator:pendingTask", err, "handle", *handle)
		return false
	}
	return state == taskqueue.TaskStatePending
}
