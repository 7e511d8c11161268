package taskqueue

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"club-scheduler/core/constants"
	"club-scheduler/core/logger"
	"club-scheduler/core/utils"

	"github.com/hibiken/asynq"
)

// Task type names routed through the scheduler queue. These are internal
// entry points: they are only reachable via the worker, never over HTTP.
const (
	TypeEventTransition  = "event:transition"
	TypeSeriesDeactivate = "series:deactivate"
	TypeSeriesNextBatch  = "series:generate_batch"
)

// Payloads carried by scheduled tasks.
type (
	EventTransitionPayload struct {
		EventID string `json:"event_id"`
		Target  string `json:"target"`
	}

	SeriesDeactivatePayload struct {
		SeriesID string `json:"series_id"`
	}

	SeriesNextBatchPayload struct {
		SeriesID string `json:"series_id"`
		From     int64  `json:"from"` // unix seconds, start of the next window
	}
)

// TaskState is the observable state of a scheduled task handle.
type TaskState string

const (
	TaskStatePending  TaskState = "pending"
	TaskStateExecuted TaskState = "executed"
	TaskStateCanceled TaskState = "canceled"
)

// Scheduler is the durable scheduled-task facility: a named task fires
// at-or-after its target instant exactly once unless cancelled first.
type Scheduler interface {
	ScheduleAt(ctx context.Context, at time.Time, taskType string, payload any) (string, error)
	Cancel(ctx context.Context, handle string) error
	State(ctx context.Context, handle string) (TaskState, error)
}

// AsynqScheduler implements Scheduler on a Redis-backed asynq queue.
// Handles are caller-generated task IDs; executed tasks are retained for a
// few days so their state stays queryable, and a handle the queue no longer
// knows reads as canceled.
type AsynqScheduler struct {
	client    *asynq.Client
	inspector *asynq.Inspector
}

func NewAsynqScheduler(opt asynq.RedisClientOpt) *AsynqScheduler {
	return &AsynqScheduler{
		client:    asynq.NewClient(opt),
		inspector: asynq.NewInspector(opt),
	}
}

func (s *AsynqScheduler) Close() error {
	return s.client.Close()
}

func (s *AsynqScheduler) ScheduleAt(ctx context.Context, at time.Time, taskType string, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal %s payload: %w", taskType, err)
	}

	handle := utils.GenerateID()
	_, err = s.client.EnqueueContext(ctx, asynq.NewTask(taskType, data),
		asynq.TaskID(handle),
		asynq.Queue(constants.SchedulerQueue),
		asynq.ProcessAt(at),
		asynq.MaxRetry(0),
		asynq.Retention(constants.TaskRetentionDays*24*time.Hour),
	)
	if err != nil {
		logger.Error("AsynqScheduler:ScheduleAt", err, "type", taskType, "at", at)
		return "", fmt.Errorf("schedule %s: %w", taskType, err)
	}

	logger.Info("AsynqScheduler:ScheduleAt", "type", taskType, "handle", handle, "at", at)
	return handle, nil
}

// Cancel removes a scheduled task. Cancelling a handle the queue no longer
// knows is a no-op: the task either already ran or was already removed.
func (s *AsynqScheduler) Cancel(ctx context.Context, handle string) error {
	if handle == "" {
		return nil
	}
	err := s.inspector.DeleteTask(constants.SchedulerQueue, handle)
	if err != nil {
		if stderrors.Is(err, asynq.ErrTaskNotFound) || stderrors.Is(err, asynq.ErrQueueNotFound) {
			return nil
		}
		logger.Error("AsynqScheduler:Cancel", err, "handle", handle)
		return fmt.Errorf("cancel task %s: %w", handle, err)
	}
	logger.Info("AsynqScheduler:Cancel", "handle", handle)
	return nil
}

func (s *AsynqScheduler) State(ctx context.Context, handle string) (TaskState, error) {
	if handle == "" {
		return TaskStateCanceled, nil
	}
	info, err := s.inspector.GetTaskInfo(constants.SchedulerQueue, handle)
	if err != nil {
		if stderrors.Is(err, asynq.ErrTaskNotFound) || stderrors.Is(err, asynq.ErrQueueNotFound) {
			return TaskStateCanceled, nil
		}
		return "", fmt.Errorf("inspect task %s: %w", handle, err)
	}

	switch info.State {
	case asynq.TaskStateScheduled, asynq.TaskStatePending, asynq.TaskStateActive, asynq.TaskStateRetry:
		return TaskStatePending, nil
	case asynq.TaskStateCompleted:
		return TaskStateExecuted, nil
	default:
		// Archived tasks failed permanently; for the arming logic they are
		// spent, same as executed.
		return TaskStateExecuted, nil
	}
}
