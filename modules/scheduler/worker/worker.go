package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"club-scheduler/core/logger"
	"club-scheduler/core/taskqueue"
	evententity "club-scheduler/modules/event/entity"
	schedulerservice "club-scheduler/modules/scheduler/service"
	seriesservice "club-scheduler/modules/series/service"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Worker hosts the task-queue-only entry points. These bypass the public
// layer's authorization, so they are registered on the asynq mux and never
// routed over HTTP.
type Worker struct {
	scheduler    schedulerservice.TransitionSchedulerInterface
	orchestrator seriesservice.GenerationOrchestratorInterface
}

func NewWorker(
	scheduler schedulerservice.TransitionSchedulerInterface,
	orchestrator seriesservice.GenerationOrchestratorInterface,
) *Worker {
	return &Worker{scheduler: scheduler, orchestrator: orchestrator}
}

// Register wires the task handlers onto the mux.
func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(taskqueue.TypeEventTransition, w.HandleEventTransition)
	mux.HandleFunc(taskqueue.TypeSeriesDeactivate, w.HandleSeriesDeactivate)
	mux.HandleFunc(taskqueue.TypeSeriesNextBatch, w.HandleSeriesNextBatch)
}

func (w *Worker) HandleEventTransition(ctx context.Context, task *asynq.Task) error {
	var payload taskqueue.EventTransitionPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode %s payload: %v: %w", task.Type(), err, asynq.SkipRetry)
	}
	eventID, err := uuid.Parse(payload.EventID)
	if err != nil {
		return fmt.Errorf("parse event id %q: %v: %w", payload.EventID, err, asynq.SkipRetry)
	}

	logger.Info("Worker:HandleEventTransition", "event_id", eventID, "target", payload.Target)
	return w.scheduler.TransitionEvent(ctx, eventID, evententity.EventStatus(payload.Target))
}

func (w *Worker) HandleSeriesDeactivate(ctx context.Context, task *asynq.Task) error {
	var payload taskqueue.SeriesDeactivatePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode %s payload: %v: %w", task.Type(), err, asynq.SkipRetry)
	}
	seriesID, err := uuid.Parse(payload.SeriesID)
	if err != nil {
		return fmt.Errorf("parse series id %q: %v: %w", payload.SeriesID, err, asynq.SkipRetry)
	}

	logger.Info("Worker:HandleSeriesDeactivate", "series_id", seriesID)
	return w.scheduler.DeactivateSeries(ctx, seriesID)
}

func (w *Worker) HandleSeriesNextBatch(ctx context.Context, task *asynq.Task) error {
	var payload taskqueue.SeriesNextBatchPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("decode %s payload: %v: %w", task.Type(), err, asynq.SkipRetry)
	}
	seriesID, err := uuid.Parse(payload.SeriesID)
	if err != nil {
		return fmt.Errorf("parse series id %q: %v: %w", payload.SeriesID, err, asynq.SkipRetry)
	}

	from := time.Unix(payload.From, 0).UTC()
	logger.Info("Worker:HandleSeriesNextBatch", "series_id", seriesID, "from", from)
	return w.orchestrator.GenerateNextBatch(ctx, seriesID, from)
}
