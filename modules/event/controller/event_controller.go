package controller

import (
	"time"

	"club-scheduler/core/constants"
	"club-scheduler/core/controller"
	"club-scheduler/core/errors"
	"club-scheduler/core/utils"
	"club-scheduler/modules/event/dto"
	"club-scheduler/modules/event/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// EventController handles event HTTP requests
type EventController struct {
	controller.BaseController
	EventService service.EventServiceInterface
}

func NewEventController(svc service.EventServiceInterface) *EventController {
	return &EventController{
		BaseController: controller.NewBaseController(),
		EventService:   svc,
	}
}

func (c *EventController) claimsFromContext(ctx echo.Context) (*utils.TokenClaims, error) {
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

// CreateEvent handles POST /events
// @Summary Create a standalone event
// @Tags Event
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateEventRequest true "Event details"
// @Success 200 {object} dto.EventResponse
// @Failure 400 {object} errors.AppError
// @Router /private/events [post]
func (c *EventController) CreateEvent(ctx echo.Context) error {
	claims, err := c.claimsFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	var req dto.CreateEventRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}
	if err := ctx.Validate(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, err.Error())
	}

	result, appErr := c.EventService.CreateEvent(ctx.Request().Context(), claims.ClubID, &req)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Event created successfully")
}

// GetEvent handles GET /events/:id
// @Summary Get an event by id
// @Tags Event
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} dto.EventResponse
// @Failure 404 {object} errors.AppError
// @Router /private/events/{id} [get]
func (c *EventController) GetEvent(ctx echo.Context) error {
	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	result, appErr := c.EventService.GetEventByID(ctx.Request().Context(), eventID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Success")
}

// ListEvents handles GET /events?series_id=... and GET /events?from=...&to=...
// Without a series_id it lists the caller's club events inside the window,
// defaulting to the next 90 days.
// @Summary List events of a series or of the caller's club
// @Tags Event
// @Security BearerAuth
// @Produce json
// @Param series_id query string false "Series ID"
// @Param from query string false "Window start (RFC3339)"
// @Param to query string false "Window end (RFC3339)"
// @Success 200 {array} dto.EventResponse
// @Router /private/events [get]
func (c *EventController) ListEvents(ctx echo.Context) error {
	if raw := ctx.QueryParam("series_id"); raw != "" {
		seriesID, err := uuid.Parse(raw)
		if err != nil {
			return c.BadRequest(errors.ErrInvalidInput, "Invalid series_id")
		}

		result, appErr := c.EventService.ListSeriesEvents(ctx.Request().Context(), seriesID)
		if appErr != nil {
			return c.ErrorResponse(ctx, appErr)
		}
		return c.SuccessResponse(ctx, result, "Success")
	}

	claims, err := c.claimsFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "Missing token data")
	}

	from := time.Now()
	to := from.AddDate(0, 0, constants.MaxGenerationHorizonDays)
	if raw := ctx.QueryParam("from"); raw != "" {
		if from, err = time.Parse(time.RFC3339, raw); err != nil {
			return c.BadRequest(errors.ErrInvalidInput, "Invalid from timestamp")
		}
	}
	if raw := ctx.QueryParam("to"); raw != "" {
		if to, err = time.Parse(time.RFC3339, raw); err != nil {
			return c.BadRequest(errors.ErrInvalidInput, "Invalid to timestamp")
		}
	}

	result, appErr := c.EventService.ListClubEvents(ctx.Request().Context(), claims.ClubID, from, to)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Success")
}

// JoinEvent handles POST /events/:id/join
// @Summary Join a timeslot
// @Description Joins the authenticated user, waitlisting when the timeslot is full
// @Tags Event
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param request body dto.JoinEventRequest true "Timeslot to join"
// @Success 200 {object} dto.ParticipantResponse
// @Failure 409 {object} errors.AppError
// @Router /private/events/{id}/join [post]
func (c *EventController) JoinEvent(ctx echo.Context) error {
	claims, err := c.claimsFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	var req dto.JoinEventRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}
	if err := ctx.Validate(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, err.Error())
	}

	result, appErr := c.EventService.Join(ctx.Request().Context(), eventID, req.TimeslotID, claims.UserID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Joined event")
}

// LeaveEvent handles POST /events/:id/leave
// @Summary Leave a timeslot
// @Description Removes the authenticated user and promotes the earliest waitlisted participant
// @Tags Event
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param request body dto.LeaveEventRequest true "Timeslot to leave"
// @Success 200 {object} controller.SuccessResponse
// @Failure 409 {object} errors.AppError
// @Router /private/events/{id}/leave [post]
func (c *EventController) LeaveEvent(ctx echo.Context) error {
	claims, err := c.claimsFromContext(ctx)
	if err != nil {
		return c.Unauthorized(errors.ErrUnauthorized, "User not authenticated")
	}

	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	var req dto.LeaveEventRequest
	if err := ctx.Bind(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid request body")
	}
	if err := ctx.Validate(&req); err != nil {
		return c.BadRequest(errors.ErrInvalidRequestData, err.Error())
	}

	if appErr := c.EventService.Leave(ctx.Request().Context(), eventID, req.TimeslotID, claims.UserID); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, nil, "Left event")
}

// CancelEvent handles POST /events/:id/cancel
// @Summary Cancel an event
// @Tags Event
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} dto.EventResponse
// @Failure 409 {object} errors.AppError
// @Router /private/events/{id}/cancel [post]
func (c *EventController) CancelEvent(ctx echo.Context) error {
	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	result, appErr := c.EventService.CancelEvent(ctx.Request().Context(), eventID)
	if appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, result, "Event cancelled")
}

// DeleteEvent handles DELETE /events/:id
// @Summary Delete an event
// @Tags Event
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} controller.SuccessResponse
// @Failure 404 {object} errors.AppError
// @Router /private/events/{id} [delete]
func (c *EventController) DeleteEvent(ctx echo.Context) error {
	eventID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		return c.BadRequest(errors.ErrInvalidInput, "Invalid event ID")
	}

	if appErr := c.EventService.DeleteEvent(ctx.Request().Context(), eventID); appErr != nil {
		return c.ErrorResponse(ctx, appErr)
	}

	return c.SuccessResponse(ctx, nil, "Event deleted successfully")
}
