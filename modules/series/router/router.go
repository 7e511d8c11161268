package router

import (
	"club-scheduler/core/middleware"
	"club-scheduler/modules/series/controller"

	"github.com/labstack/echo/v4"
)

// SeriesRouter handles event series routes
type SeriesRouter struct {
	SeriesController *controller.SeriesController
}

func NewSeriesRouter(seriesController *controller.SeriesController) *SeriesRouter {
	return &SeriesRouter{SeriesController: seriesController}
}

// Setup registers series routes
func (r *SeriesRouter) Setup(e *echo.Echo, mw *middleware.Middleware) {
	v1 := e.Group("/api/v1")
	privateRoutes := v1.Group("/private")

	seriesRoutes := privateRoutes.Group("/series", mw.AuthMiddleware())

	seriesRoutes.POST("", r.SeriesController.CreateSeries)
	seriesRoutes.GET("", r.SeriesController.GetClubSeries)
	seriesRoutes.GET("/:id", r.SeriesController.GetSeries)
	seriesRoutes.PUT("/:id", r.SeriesController.UpdateSeries)
	seriesRoutes.DELETE("/:id", r.SeriesController.DeleteSeries)

	seriesRoutes.POST("/:id/generate", r.SeriesController.GenerateForRange)
}
