package controller

import (
	"club-scheduler/core/constants"
	"club-scheduler/core/controller"
	"club-scheduler/core/errors"
	"club-scheduler/core/utils"
	"club-scheduler/modules/series/dto"
	"club-scheduler/modules/series/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// SeriesController handles event series HTTP requests
type SeriesController struct {
	controller.BaseController
	SeriesService service.SeriesServiceInterface
}

func NewSeriesController(svc service.SeriesServiceInterface) *SeriesController {
	return &SeriesController{
		BaseController: controller.NewBaseController(),
		SeriesService:  svc,
	}
}

func (c *SeriesController) claimsFromContext(ctx echo.Context) (*utils.TokenClaims, error) {
	tokenData := ctx.Get(constants.ContextTokenData)
	if tokenData == nil {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "User not authenticated", nil)
	}
	claims, ok := tokenData.(*utils.TokenClaims)
	if !ok {
		return nil, errors.NewAppError(errors.ErrUnauthorized, "Invalid token data", nil)
	}
	return claims, nil
}

// CreateSeries handles POST /series
// @Summary Create a recurring event series
// @Tags Series
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateSeriesRequest true "Series configuration"
// @Success 200 {object} dto.SeriesResponse
// @Failure 400 {object} errors.AppError
// @Router /private/series [post]
func (c *SeriesController) CreateSeries(ctx echo.Context) error {
	claims, err := c.claimsFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	var req dto.CreateSeriesRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}
	if err := ctx.Validate(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, err.Error())
	}

	result, appErr := c.SeriesService.CreateSeries(ctx.Request().Context(), claims.ClubID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Series created successfully")
}

// GetSeries handles GET /series/:id
// @Summary Get a series by id
// @Tags Series
// @Security BearerAuth
// @Produce json
// @Param id path string true "Series ID"
// @Success 200 {object} dto.SeriesResponse
// @Failure 404 {object} errors.AppError
// @Router /private/series/{id} [get]
func (c *SeriesController) GetSeries(ctx echo.Context) error {
	seriesID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid series ID")
	}

	result, appErr := c.SeriesService.GetSeriesByID(ctx.Request().Context(), seriesID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Success")
}

// GetClubSeries handles GET /series
// @Summary List the club's series
// @Tags Series
// @Security BearerAuth
// @Produce json
// @Success 200 {array} dto.SeriesResponse
// @Router /private/series [get]
func (c *SeriesController) GetClubSeries(ctx echo.Context) error {
	claims, err := c.claimsFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	result, appErr := c.SeriesService.GetClubSeries(ctx.Request().Context(), claims.ClubID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Success")
}

// UpdateSeries handles PUT /series/:id
// @Summary Update a series
// @Description Patch series fields; activating an inactive series starts event generation
// @Tags Series
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Series ID"
// @Param request body dto.UpdateSeriesRequest true "Fields to update"
// @Success 200 {object} dto.SeriesResponse
// @Failure 404 {object} errors.AppError
// @Router /private/series/{id} [put]
func (c *SeriesController) UpdateSeries(ctx echo.Context) error {
	seriesID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid series ID")
	}

	var req dto.UpdateSeriesRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}
	if err := ctx.Validate(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, err.Error())
	}

	result, appErr := c.SeriesService.UpdateSeries(ctx.Request().Context(), seriesID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Series updated successfully")
}

// DeleteSeries handles DELETE /series/:id
// @Summary Delete a series and its generated events
// @Tags Series
// @Security BearerAuth
// @Produce json
// @Param id path string true "Series ID"
// @Success 200 {object} controller.SuccessResponse
// @Failure 404 {object} errors.AppError
// @Router /private/series/{id} [delete]
func (c *SeriesController) DeleteSeries(ctx echo.Context) error {
	seriesID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid series ID")
	}

	if appErr := c.SeriesService.DeleteSeries(ctx.Request().Context(), seriesID); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, nil, "Series deleted successfully")
}

// GenerateForRange handles POST /series/:id/generate
// @Summary Generate events for a range
// @Description Manually trigger bounded event generation for an active series
// @Tags Series
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Series ID"
// @Param request body dto.GenerateRangeRequest true "Generation range"
// @Success 200 {array} eventdto.EventResponse
// @Failure 409 {object} errors.AppError
// @Router /private/series/{id}/generate [post]
func (c *SeriesController) GenerateForRange(ctx echo.Context) error {
	seriesID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid series ID")
	}

	var req dto.GenerateRangeRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}
	if err := ctx.Validate(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, err.Error())
	}

	result, appErr := c.SeriesService.GenerateForRange(ctx.Request().Context(), seriesID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Events generated successfully")
}
