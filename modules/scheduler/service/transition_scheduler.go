package service

import (
	"context"
	"fmt"
	"time"

	"club-scheduler/core/logger"
	"club-scheduler/core/taskqueue"
	activityentity "club-scheduler/modules/activity/entity"
	activityservice "club-scheduler/modules/activity/service"
	evententity "club-scheduler/modules/event/entity"
	eventrepo "club-scheduler/modules/event/repository"
	seriesentity "club-scheduler/modules/series/entity"
	seriesrepo "club-scheduler/modules/series/repository"

	"github.com/google/uuid"
)

// TransitionScheduler arms and executes the deferred lifecycle mutations:
// the not_started→in_progress and →completed flips for events and
// end-of-life deactivation for series. Every arm call is idempotent; every
// execution is defensive against resources that moved on or disappeared.
type TransitionScheduler struct {
	tasks      taskqueue.Scheduler
	events     eventrepo.EventRepositoryInterface
	series     seriesrepo.SeriesRepositoryInterface
	activities activityservice.ActivityServiceInterface
}

type TransitionSchedulerInterface interface {
	ArmTransitions(ctx context.Context, event *evententity.Event) error
	ArmSeriesDeactivation(ctx context.Context, series *seriesentity.EventSeries, deactivateAt time.Time) error
	CancelEventTasks(ctx context.Context, event *evententity.Event) error
	CancelSeriesTasks(ctx context.Context, series *seriesentity.EventSeries) error

	// Internal entry points, invoked only by the task worker.
	TransitionEvent(ctx context.Context, eventID uuid.UUID, target evententity.EventStatus) error
	DeactivateSeries(ctx context.Context, seriesID uuid.UUID) error
}

func NewTransitionScheduler(
	tasks taskqueue.Scheduler,
	events eventrepo.EventRepositoryInterface,
	series seriesrepo.SeriesRepositoryInterface,
	activities activityservice.ActivityServiceInterface,
) TransitionSchedulerInterface {
	return &TransitionScheduler{
		tasks:      tasks,
		events:     events,
		series:     series,
		activities: activities,
	}
}

// pending reports whether the stored handle still refers to a pending task.
// A nil handle, or one the queue reports executed or canceled, allows
// re-arming.
func (s *TransitionScheduler) pending(ctx context.Context, handle *string) bool {
	if handle == nil || *handle == "" {
		return false
	}
	state, err := s.tasks.State(ctx, *handle)
	if err != nil {
		logger.Error("TransitionScheduler:pending", err, "handle", *handle)
		return false
	}
	return state == taskqueue.TaskStatePending
}

// ArmTransitions schedules the start and end status flips for the event.
// Each arm is individually idempotent: an existing pending handle is left
// alone, and the audit entry is unique per (event, action, instant).
func (s *TransitionScheduler) ArmTransitions(ctx context.Context, event *evententity.Event) error {
	if !s.pending(ctx, event.StartTaskID) {
		handle, err := s.tasks.ScheduleAt(ctx, event.StartAt, taskqueue.TypeEventTransition,
			taskqueue.EventTransitionPayload{
				EventID: event.ID.String(),
				Target:  string(evententity.EventStatusInProgress),
			})
		if err != nil {
			return err
		}
		if err := s.events.SetStartTask(ctx, event.ID, &handle); err != nil {
			return err
		}
		event.StartTaskID = &handle

		if err := s.activities.RecordScheduled(ctx, activityentity.ResourceEvent, event.ID,
			activityentity.ActionTransitionScheduled, event.StartAt,
			fmt.Sprintf("event starts at %s", event.StartAt.Format(time.RFC3339))); err != nil {
			return err
		}
	}

	if !s.pending(ctx, event.EndTaskID) {
		handle, err := s.tasks.ScheduleAt(ctx, event.EndAt, taskqueue.TypeEventTransition,
			taskqueue.EventTransitionPayload{
				EventID: event.ID.String(),
				Target:  string(evententity.EventStatusCompleted),
			})
		if err != nil {
			return err
		}
		if err := s.events.SetEndTask(ctx, event.ID, &handle); err != nil {
			return err
		}
		event.EndTaskID = &handle

		if err := s.activities.RecordScheduled(ctx, activityentity.ResourceEvent, event.ID,
			activityentity.ActionTransitionScheduled, event.EndAt,
			fmt.Sprintf("event ends at %s", event.EndAt.Format(time.RFC3339))); err != nil {
			return err
		}
	}

	return nil
}

// ArmSeriesDeactivation schedules the series to flip inactive at its end
// date, unless a pending deactivation task is already armed.
func (s *TransitionScheduler) ArmSeriesDeactivation(ctx context.Context, series *seriesentity.EventSeries, deactivateAt time.Time) error {
	if s.pending(ctx, series.SeriesEndTaskID) {
		logger.Debug("TransitionScheduler:ArmSeriesDeactivation:AlreadyArmed", "series_id", series.ID)
		return nil
	}

	handle, err := s.tasks.ScheduleAt(ctx, deactivateAt, taskqueue.TypeSeriesDeactivate,
		taskqueue.SeriesDeactivatePayload{SeriesID: series.ID.String()})
	if err != nil {
		return err
	}
	if err := s.series.SetSeriesEndTask(ctx, series.ID, &handle); err != nil {
		return err
	}
	series.SeriesEndTaskID = &handle

	return s.activities.RecordScheduled(ctx, activityentity.ResourceSeries, series.ID,
		activityentity.ActionDeactivationScheduled, deactivateAt,
		fmt.Sprintf("series deactivates at %s", deactivateAt.Format(time.RFC3339)))
}

// CancelEventTasks cancels whatever start/end tasks are armed on the event.
// Called from the deletion transaction so no orphaned task later mutates a
// deleted event.
func (s *TransitionScheduler) CancelEventTasks(ctx context.Context, event *evententity.Event) error {
	if event.StartTaskID != nil {
		if err := s.tasks.Cancel(ctx, *event.StartTaskID); err != nil {
			return err
		}
	}
	if event.EndTaskID != nil {
		if err := s.tasks.Cancel(ctx, *event.EndTaskID); err != nil {
			return err
		}
	}
	return nil
}

// CancelSeriesTasks cancels the series' deactivation and next-batch tasks.
func (s *TransitionScheduler) CancelSeriesTasks(ctx context.Context, series *seriesentity.EventSeries) error {
	if series.SeriesEndTaskID != nil {
		if err := s.tasks.Cancel(ctx, *series.SeriesEndTaskID); err != nil {
			return err
		}
	}
	if series.NextBatchTaskID != nil {
		if err := s.tasks.Cancel(ctx, *series.NextBatchTaskID); err != nil {
			return err
		}
	}
	return nil
}

// TransitionEvent applies a scheduled status flip. Missing events and
// disallowed transitions are silent no-ops: the task may race a manual
// cancellation or a duplicate firing, and those are expected, not failures.
func (s *TransitionScheduler) TransitionEvent(ctx context.Context, eventID uuid.UUID, target evententity.EventStatus) error {
	event, err := s.events.GetEventByID(ctx, eventID)
	if err != nil {
		return err
	}
	if event == nil {
		logger.Info("TransitionScheduler:TransitionEvent:EventGone", "event_id", eventID)
		return nil
	}

	switch target {
	case evententity.EventStatusInProgress, evententity.EventStatusCompleted:
	default:
		logger.Warn("TransitionScheduler:TransitionEvent:UnknownTarget", "target", target)
		return nil
	}
	from := evententity.AllowedFrom(target)

	applied, err := s.events.UpdateStatus(ctx, eventID, from, target)
	if err != nil {
		return err
	}
	if !applied {
		logger.Info("TransitionScheduler:TransitionEvent:NoOp",
			"event_id", eventID, "current", event.Status, "target", target)
		return nil
	}

	logger.Info("TransitionScheduler:TransitionEvent:Applied", "event_id", eventID, "target", target)
	return s.activities.Record(ctx, activityentity.ResourceEvent, eventID,
		activityentity.ActionStatusChanged, fmt.Sprintf("status changed to %s", target))
}

// DeactivateSeries flips the series inactive and clears its task handles.
// A missing or already-inactive series is a no-op.
func (s *TransitionScheduler) DeactivateSeries(ctx context.Context, seriesID uuid.UUID) error {
	series, err := s.series.GetByID(ctx, seriesID)
	if err != nil {
		return err
	}
	if series == nil {
		logger.Info("TransitionScheduler:DeactivateSeries:SeriesGone", "series_id", seriesID)
		return nil
	}
	if !series.IsActive {
		logger.Info("TransitionScheduler:DeactivateSeries:AlreadyInactive", "series_id", seriesID)
		return nil
	}

	// Deactivation cancels any still-pending next batch: an inactive series
	// must not keep generating.
	if series.NextBatchTaskID != nil {
		if err := s.tasks.Cancel(ctx, *series.NextBatchTaskID); err != nil {
			return err
		}
	}

	if err := s.series.SetActive(ctx, seriesID, false); err != nil {
		return err
	}
	if err := s.series.ClearTaskRefs(ctx, seriesID); err != nil {
		return err
	}

	logger.Info("TransitionScheduler:DeactivateSeries:Applied", "series_id", seriesID)
	return s.activities.Record(ctx, activityentity.ResourceSeries, seriesID,
		activityentity.ActionSeriesDeactivated, "series reached its end date and was deactivated")
}
