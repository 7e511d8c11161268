package service

import (
	"context"
	"time"

	"club-scheduler/core/database"
	"club-scheduler/core/errors"
	"club-scheduler/core/logger"
	"club-scheduler/core/utils"
	activityentity "club-scheduler/modules/activity/entity"
	activityservice "club-scheduler/modules/activity/service"
	"club-scheduler/modules/event/dto"
	"club-scheduler/modules/event/entity"
	"club-scheduler/modules/event/repository"
	schedulerservice "club-scheduler/modules/scheduler/service"

	"github.com/google/uuid"
)

// EventService handles event business logic: standalone creation, reads,
// cancellation and deletion, and timeslot join/leave with waitlist
// promotion.
type EventService struct {
	db         database.IDatabase
	repo       repository.EventRepositoryInterface
	scheduler  schedulerservice.TransitionSchedulerInterface
	activities activityservice.ActivityServiceInterface
}

type EventServiceInterface interface {
	CreateEvent(ctx context.Context, clubID uuid.UUID, req *dto.CreateEventRequest) (*dto.EventResponse, *errors.AppError)
	GetEventByID(ctx context.Context, id uuid.UUID) (*dto.EventResponse, *errors.AppError)
	ListSeriesEvents(ctx context.Context, seriesID uuid.UUID) ([]dto.EventResponse, *errors.AppError)
	ListClubEvents(ctx context.Context, clubID uuid.UUID, from, to time.Time) ([]dto.EventResponse, *errors.AppError)
	Join(ctx context.Context, eventID uuid.UUID, timeslotID string, userID uuid.UUID) (*dto.ParticipantResponse, *errors.AppError)
	Leave(ctx context.Context, eventID uuid.UUID, timeslotID string, userID uuid.UUID) *errors.AppError
	CancelEvent(ctx context.Context, eventID uuid.UUID) (*dto.EventResponse, *errors.AppError)
	DeleteEvent(ctx context.Context, eventID uuid.UUID) *errors.AppError

	// EnsurePermanentParticipants is called by the generation orchestrator
	// after get-or-create of a generated event.
	EnsurePermanentParticipants(ctx context.Context, event *entity.Event) error
}

func NewEventService(
	db database.IDatabase,
	repo repository.EventRepositoryInterface,
	scheduler schedulerservice.TransitionSchedulerInterface,
	activities activityservice.ActivityServiceInterface,
) EventServiceInterface {
	return &EventService{
		db:         db,
		repo:       repo,
		scheduler:  scheduler,
		activities: activities,
	}
}

// CreateEvent creates a standalone one-off event and arms its lifecycle
// transitions.
func (s *EventService) CreateEvent(ctx context.Context, clubID uuid.UUID, req *dto.CreateEventRequest) (*dto.EventResponse, *errors.AppError) {
	date, err := time.Parse(time.RFC3339, req.Date)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidSchedule, "Invalid event date", err)
	}
	startAt, err := time.Parse(time.RFC3339, req.StartAt)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidSchedule, "Invalid start time", err)
	}
	endAt, err := time.Parse(time.RFC3339, req.EndAt)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidSchedule, "Invalid end time", err)
	}
	if !startAt.Before(endAt) {
		return nil, errors.NewAppError(errors.ErrInvalidSchedule, "Event start must be before its end", nil)
	}

	slots := make([]entity.Timeslot, 0, len(req.Timeslots))
	for _, spec := range req.Timeslots {
		slot := entity.Timeslot{
			ID:              utils.GenerateID(),
			Name:            spec.Name,
			MaxParticipants: spec.MaxParticipants,
			MaxWaitlist:     spec.MaxWaitlist,
		}
		for _, raw := range spec.PermanentParticipants {
			userID, parseErr := uuid.Parse(raw)
			if parseErr != nil {
				return nil, errors.NewAppError(errors.ErrInvalidInput, "Invalid permanent participant id", parseErr)
			}
			slot.PermanentParticipants = append(slot.PermanentParticipants, userID)
		}
		if len(slot.PermanentParticipants) > slot.MaxParticipants {
			return nil, errors.NewAppError(errors.ErrInvalidSchedule, "More permanent participants than capacity", nil)
		}
		slots = append(slots, slot)
	}

	event := &entity.Event{
		ClubID:  clubID,
		Name:    req.Name,
		Date:    date,
		StartAt: startAt,
		EndAt:   endAt,
		Status:  entity.EventStatusNotStarted,
	}
	if err := event.SetTimeslots(slots); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to encode timeslots", err)
	}

	created, err := s.repo.CreateEvent(ctx, event)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to create event", err)
	}

	if err := s.EnsurePermanentParticipants(ctx, created); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to enroll permanent participants", err)
	}
	if err := s.scheduler.ArmTransitions(ctx, created); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to schedule event transitions", err)
	}

	return s.GetEventByID(ctx, created.ID)
}

func (s *EventService) GetEventByID(ctx context.Context, id uuid.UUID) (*dto.EventResponse, *errors.AppError) {
	event, err := s.repo.GetEventByID(ctx, id)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to get event", err)
	}
	if event == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
	}

	participants, _ := s.repo.GetParticipantsByEventID(ctx, id)
	return dto.ToEventResponse(event, participants), nil
}

func (s *EventService) ListSeriesEvents(ctx context.Context, seriesID uuid.UUID) ([]dto.EventResponse, *errors.AppError) {
	events, err := s.repo.GetEventsBySeriesID(ctx, seriesID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to list events", err)
	}

	result := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		result = append(result, *dto.ToEventResponse(&events[i], nil))
	}
	return result, nil
}

func (s *EventService) ListClubEvents(ctx context.Context, clubID uuid.UUID, from, to time.Time) ([]dto.EventResponse, *errors.AppError) {
	events, err := s.repo.GetEventsByClubID(ctx, clubID, from, to)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to list events", err)
	}

	result := make([]dto.EventResponse, 0, len(events))
	for i := range events {
		result = append(result, *dto.ToEventResponse(&events[i], nil))
	}
	return result, nil
}

// Join admits the user into the timeslot, or its waitlist, inside a single
// transaction with the event row locked. Joining a timeslot the user is
// already in returns the existing participation unchanged.
func (s *EventService) Join(ctx context.Context, eventID uuid.UUID, timeslotID string, userID uuid.UUID) (*dto.ParticipantResponse, *errors.AppError) {
	var result *entity.EventParticipant
	var appErr *errors.AppError

	err := s.db.WithinTransaction(ctx, func(txCtx context.Context) error {
		event, err := s.repo.GetEventByIDForUpdate(txCtx, eventID)
		if err != nil {
			return err
		}
		if event == nil {
			appErr = errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
			return appErr
		}

		existing, err := s.repo.GetParticipant(txCtx, eventID, timeslotID, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			result = existing
			return nil
		}

		if event.Status != entity.EventStatusNotStarted {
			appErr = errors.NewAppError(errors.ErrInvalidEventStatus, "Cannot join an event that has started or ended", nil)
			return appErr
		}

		slots, err := event.Timeslots()
		if err != nil {
			return err
		}
		idx := findTimeslot(slots, timeslotID)
		if idx < 0 {
			appErr = errors.NewAppError(errors.ErrNotFound, "Timeslot not found", nil)
			return appErr
		}

		participant := &entity.EventParticipant{
			EventID:    eventID,
			TimeslotID: timeslotID,
			UserID:     userID,
			JoinedAt:   time.Now().UTC(),
		}

		switch Admit(slots[idx]) {
		case AdmissionAccepted:
			participant.IsWaitlisted = false
			slots[idx].NumParticipants++
		case AdmissionWaitlisted:
			participant.IsWaitlisted = true
			slots[idx].NumWaitlisted++
		default:
			appErr = errors.NewAppError(errors.ErrTimeslotFull, "Timeslot and waitlist are full", nil)
			return appErr
		}

		if _, err := s.repo.InsertParticipant(txCtx, participant); err != nil {
			return err
		}
		if err := event.SetTimeslots(slots); err != nil {
			return err
		}
		if err := s.repo.UpdateTimeslots(txCtx, eventID, event.TimeslotsJSON); err != nil {
			return err
		}

		result = participant
		return nil
	})

	if appErr != nil {
		return nil, appErr
	}
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to join event", err)
	}

	return dto.ToParticipantResponse(result), nil
}

// Leave removes the user's participation and promotes the earliest-joined
// waitlisted participant when a full seat opens up. Leaving an event the
// user never joined is a no-op.
func (s *EventService) Leave(ctx context.Context, eventID uuid.UUID, timeslotID string, userID uuid.UUID) *errors.AppError {
	var appErr *errors.AppError

	err := s.db.WithinTransaction(ctx, func(txCtx context.Context) error {
		event, err := s.repo.GetEventByIDForUpdate(txCtx, eventID)
		if err != nil {
			return err
		}
		if event == nil {
			appErr = errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
			return appErr
		}
		if event.Status != entity.EventStatusNotStarted {
			appErr = errors.NewAppError(errors.ErrInvalidEventStatus, "Cannot leave an event that has started or ended", nil)
			return appErr
		}

		existing, err := s.repo.GetParticipant(txCtx, eventID, timeslotID, userID)
		if err != nil {
			return err
		}
		if existing == nil {
			return nil
		}

		if _, err := s.repo.DeleteParticipant(txCtx, eventID, timeslotID, userID); err != nil {
			return err
		}

		slots, err := event.Timeslots()
		if err != nil {
			return err
		}
		idx := findTimeslot(slots, timeslotID)
		if idx < 0 {
			logger.Warn("EventService:Leave:TimeslotMissing", "event_id", eventID, "timeslot_id", timeslotID)
			return nil
		}

		if existing.IsWaitlisted {
			if slots[idx].NumWaitlisted > 0 {
				slots[idx].NumWaitlisted--
			}
		} else {
			if slots[idx].NumParticipants > 0 {
				slots[idx].NumParticipants--
			}

			// Promote exactly one participant, the earliest joined, while a
			// seat is open. JoinedAt is re-stamped so later promotions keep
			// arrival order among the remaining waitlist.
			if slots[idx].NumParticipants < slots[idx].MaxParticipants {
				next, err := s.repo.EarliestWaitlisted(txCtx, eventID, timeslotID)
				if err != nil {
					return err
				}
				if next != nil {
					if err := s.repo.PromoteParticipant(txCtx, next.ID, time.Now().UTC()); err != nil {
						return err
					}
					slots[idx].NumParticipants++
					slots[idx].NumWaitlisted--
				}
			}
		}

		if err := event.SetTimeslots(slots); err != nil {
			return err
		}
		return s.repo.UpdateTimeslots(txCtx, eventID, event.TimeslotsJSON)
	})

	if appErr != nil {
		return appErr
	}
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to leave event", err)
	}

	return nil
}

// CancelEvent cancels an event manually. Cancellation is terminal and only
// possible before completion; its armed transition tasks are cancelled so a
// stale flip cannot overwrite it.
func (s *EventService) CancelEvent(ctx context.Context, eventID uuid.UUID) (*dto.EventResponse, *errors.AppError) {
	event, err := s.repo.GetEventByID(ctx, eventID)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to get event", err)
	}
	if event == nil {
		return nil, errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
	}

	applied, err := s.repo.UpdateStatus(ctx, eventID,
		entity.AllowedFrom(entity.EventStatusCancelled), entity.EventStatusCancelled)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to cancel event", err)
	}
	if !applied {
		return nil, errors.NewAppError(errors.ErrInvalidEventStatus, "Event is already completed or cancelled", nil)
	}

	if err := s.scheduler.CancelEventTasks(ctx, event); err != nil {
		return nil, errors.NewAppError(errors.ErrInternalServer, "Failed to cancel scheduled transitions", err)
	}

	_ = s.activities.Record(ctx, activityentity.ResourceEvent, eventID,
		activityentity.ActionStatusChanged, "event cancelled")

	return s.GetEventByID(ctx, eventID)
}

// DeleteEvent removes the event and its participations and cancels every
// task armed on its behalf, all in one transaction.
func (s *EventService) DeleteEvent(ctx context.Context, eventID uuid.UUID) *errors.AppError {
	var appErr *errors.AppError

	err := s.db.WithinTransaction(ctx, func(txCtx context.Context) error {
		event, err := s.repo.GetEventByIDForUpdate(txCtx, eventID)
		if err != nil {
			return err
		}
		if event == nil {
			appErr = errors.NewAppError(errors.ErrNotFound, "Event not found", nil)
			return appErr
		}

		if err := s.scheduler.CancelEventTasks(txCtx, event); err != nil {
			return err
		}
		return s.repo.DeleteEvent(txCtx, eventID)
	})

	if appErr != nil {
		return appErr
	}
	if err != nil {
		return errors.NewAppError(errors.ErrInternalServer, "Failed to delete event", err)
	}

	return nil
}

// EnsurePermanentParticipants inserts a non-waitlisted participation for
// every permanent participant of every timeslot, skipping any that already
// exist. Counters are only advanced for rows actually inserted, so repeated
// generation runs cannot inflate them. Runs in one transaction with the
// event row locked so a concurrent join cannot slip its counter update in
// between the read and the write.
func (s *EventService) EnsurePermanentParticipants(ctx context.Context, event *entity.Event) error {
	return s.db.WithinTransaction(ctx, func(txCtx context.Context) error {
		locked, err := s.repo.GetEventByIDForUpdate(txCtx, event.ID)
		if err != nil {
			return err
		}
		if locked == nil {
			return nil
		}

		slots, err := locked.Timeslots()
		if err != nil {
			return err
		}

		changed := false
		for i := range slots {
			for _, userID := range slots[i].PermanentParticipants {
				inserted, err := s.repo.InsertParticipant(txCtx, &entity.EventParticipant{
					EventID:      locked.ID,
					TimeslotID:   slots[i].ID,
					UserID:       userID,
					IsWaitlisted: false,
					JoinedAt:     time.Now().UTC(),
				})
				if err != nil {
					return err
				}
				if inserted {
					slots[i].NumParticipants++
					changed = true
				}
			}
		}

		if !changed {
			return nil
		}
		if err := locked.SetTimeslots(slots); err != nil {
			return err
		}
		return s.repo.UpdateTimeslots(txCtx, locked.ID, locked.TimeslotsJSON)
	})
}

func findTimeslot(slots []entity.Timeslot, id string) int {
	for i := range slots {
		if slots[i].ID == id {
			return i
		}
	}
	return -1
}
