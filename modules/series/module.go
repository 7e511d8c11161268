package series

import (
	"club-scheduler/core/database"
	"club-scheduler/core/middleware"
	"club-scheduler/core/taskqueue"
	eventRepository "club-scheduler/modules/event/repository"
	eventservice "club-scheduler/modules/event/service"
	schedulerservice "club-scheduler/modules/scheduler/service"
	"club-scheduler/modules/series/controller"
	"club-scheduler/modules/series/repository"
	"club-scheduler/modules/series/router"
	"club-scheduler/modules/series/service"

	"github.com/labstack/echo/v4"
)

// Init wires the series module and returns the generation orchestrator,
// which the server also hands to the asynq worker and the sweep job.
func Init(
	e *echo.Echo,
	db database.IDatabase,
	mw *middleware.Middleware,
	tasks taskqueue.Scheduler,
	sched schedulerservice.TransitionSchedulerInterface,
	eventSvc eventservice.EventServiceInterface,
) service.GenerationOrchestratorInterface {
	repo := repository.NewSeriesRepository(db)
	eventRepo := eventRepository.NewEventRepository(db)
	orchestrator := service.NewGenerationOrchestrator(tasks, repo, eventRepo, eventSvc, sched)
	svc := service.NewSeriesService(db, repo, eventRepo, sched, orchestrator)
	ctrl := controller.NewSeriesController(svc)

	router.NewSeriesRouter(ctrl).Setup(e, mw)

	return orchestrator
}
