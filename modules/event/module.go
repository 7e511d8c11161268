package event

import (
	"club-scheduler/core/database"
	"club-scheduler/core/middleware"
	activityservice "club-scheduler/modules/activity/service"
	"club-scheduler/modules/event/controller"
	"club-scheduler/modules/event/repository"
	"club-scheduler/modules/event/router"
	"club-scheduler/modules/event/service"
	schedulerservice "club-scheduler/modules/scheduler/service"

	"github.com/labstack/echo/v4"
)

func Init(
	e *echo.Echo,
	db database.IDatabase,
	mw *middleware.Middleware,
	sched schedulerservice.TransitionSchedulerInterface,
	activities activityservice.ActivityServiceInterface,
) service.EventServiceInterface {
	repo := repository.NewEventRepository(db)
	svc := service.NewEventService(db, repo, sched, activities)
	ctrl := controller.NewEventController(svc)

	router.NewEventRouter(ctrl).Setup(e, mw)

	return svc
}
