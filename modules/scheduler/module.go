package scheduler

import (
	"club-scheduler/core/database"
	"club-scheduler/core/taskqueue"
	activityservice "club-scheduler/modules/activity/service"
	eventRepository "club-scheduler/modules/event/repository"
	"club-scheduler/modules/scheduler/service"
	seriesRepository "club-scheduler/modules/series/repository"
)

// Init wires the transition scheduler. It is consumed by the event and
// series modules and by the asynq worker, never over HTTP.
func Init(db database.IDatabase, tasks taskqueue.Scheduler, activities activityservice.ActivityServiceInterface) service.TransitionSchedulerInterface {
	eventRepo := eventRepository.NewEventRepository(db)
	seriesRepo := seriesRepository.NewSeriesRepository(db)
	return service.NewTransitionScheduler(tasks, eventRepo, seriesRepo, activities)
}
