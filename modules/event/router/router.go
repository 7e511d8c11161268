package router

import (
	"club-scheduler/core/middleware"
	"club-scheduler/modules/event/controller"

	"github.com/labstack/echo/v4"
)

// EventRouter handles event routes
type EventRouter struct {
	EventController *controller.EventController
}

func NewEventRouter(eventController *controller.EventController) *EventRouter {
	return &EventRouter{EventController: eventController}
}

// Setup registers event routes
func (r *EventRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")
	privateRoutes := v1.Group("/private")

	eventRoutes := privateRoutes.Group("/events", mw.AuthMiddleware())

	eventRoutes.POST("", r.EventController.CreateEvent)
	eventRoutes.GET("", r.EventController.ListEvents)
	eventRoutes.GET("/:id", r.EventController.GetEvent)
	eventRoutes.DELETE("/:id", r.EventController.DeleteEvent)

	eventRoutes.POST("/:id/join", r.EventController.JoinEvent)
	eventRoutes.POST("/:id/leave", r.EventController.LeaveEvent)
	eventRoutes.POST("/:id/cancel", r.EventController.CancelEvent)
}
