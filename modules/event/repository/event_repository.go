package repository

import (
	"context"
	"database/sql"
	"time"

	"club-scheduler/core/database"
	"club-scheduler/core/logger"
	"club-scheduler/modules/event/entity"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// EventRepository handles event and participation database operations.
type EventRepository struct {
	db database.IDatabase
}

func NewEventRepository(db database.IDatabase) *EventRepository {
	return &EventRepository{db: db}
}

type EventRepositoryInterface interface {
	// Events
	CreateEvent(ctx context.Context, event *entity.Event) (*entity.Event, error)
	GetOrCreateEvent(ctx context.Context, event *entity.Event) (*entity.Event, bool, error)
	GetEventByID(ctx context.Context, id uuid.UUID) (*entity.Event, error)
	GetEventByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Event, error)
	GetEventsBySeriesID(ctx context.Context, seriesID uuid.UUID) ([]entity.Event, error)
	GetEventsByClubID(ctx context.Context, clubID uuid.UUID, from, to time.Time) ([]entity.Event, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from []entity.EventStatus, to entity.EventStatus) (bool, error)
	UpdateTimeslots(ctx context.Context, id uuid.UUID, timeslotsJSON string) error
	SetStartTask(ctx context.Context, id uuid.UUID, taskID *string) error
	SetEndTask(ctx context.Context, id uuid.UUID, taskID *string) error
	DeleteEvent(ctx context.Context, id uuid.UUID) error

	// Participants
	GetParticipant(ctx context.Context, eventID uuid.UUID, timeslotID string, userID uuid.UUID) (*entity.EventParticipant, error)
	GetParticipantsByEventID(ctx context.Context, eventID uuid.UUID) ([]entity.EventParticipant, error)
	InsertParticipant(ctx context.Context, p *entity.EventParticipant) (bool, error)
	DeleteParticipant(ctx context.Context, eventID uuid.UUID, timeslotID string, userID uuid.UUID) (bool, error)
	EarliestWaitlisted(ctx context.Context, eventID uuid.UUID, timeslotID string) (*entity.EventParticipant, error)
	PromoteParticipant(ctx context.Context, id uuid.UUID, promotedAt time.Time) error
}

const eventColumns = `id, series_id, club_id, name, date, start_at, end_at, status, timeslots,
	       start_task_id, end_task_id, created_at, updated_at`

// ===================== Events =====================

func (r *EventRepository) CreateEvent(ctx context.Context, event *entity.Event) (*entity.Event, error) {
	query := `
		INSERT INTO events (series_id, club_id, name, date, start_at, end_at, status, timeslots)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + eventColumns

	var created entity.Event
	err := r.db.GetContext(ctx, &created, query,
		event.SeriesID, event.ClubID, event.Name, event.Date,
		event.StartAt, event.EndAt, event.Status, event.TimeslotsJSON)
	if err != nil {
		logger.Error("EventRepository:CreateEvent", err)
		return nil, err
	}

	return &created, nil
}

// GetOrCreateEvent inserts the event unless one already exists for the same
// (series_id, date). The unique index makes overlapping generation runs
// converge on a single row; the bool reports whether a new row was created.
func (r *EventRepository) GetOrCreateEvent(ctx context.Context, event *entity.Event) (*entity.Event, bool, error) {
	insert := `
		INSERT INTO events (series_id, club_id, name, date, start_at, end_at, status, timeslots)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (series_id, date) DO NOTHING
		RETURNING ` + eventColumns

	var created entity.Event
	err := r.db.GetContext(ctx, &created, insert,
		event.SeriesID, event.ClubID, event.Name, event.Date,
		event.StartAt, event.EndAt, event.Status, event.TimeslotsJSON)
	if err == nil {
		return &created, true, nil
	}
	if err != sql.ErrNoRows {
		logger.Error("EventRepository:GetOrCreateEvent:Insert", err)
		return nil, false, err
	}

	query := `SELECT ` + eventColumns + ` FROM events WHERE series_id = $1 AND date = $2`
	var existing entity.Event
	if err := r.db.GetContext(ctx, &existing, query, event.SeriesID, event.Date); err != nil {
		logger.Error("EventRepository:GetOrCreateEvent:Select", err)
		return nil, false, err
	}

	return &existing, false, nil
}

func (r *EventRepository) GetEventByID(ctx context.Context, id uuid.UUID) (*entity.Event, error) {
	return r.getEvent(ctx, id, false)
}

// GetEventByIDForUpdate locks the event row for the remainder of the
// transaction so concurrent joins on the same event serialize.
func (r *EventRepository) GetEventByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Event, error) {
	return r.getEvent(ctx, id, true)
}

func (r *EventRepository) getEvent(ctx context.Context, id uuid.UUID, forUpdate bool) (*entity.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var event entity.Event
	err := r.db.GetContext(ctx, &event, query, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("EventRepository:GetEventByID", err)
		return nil, err
	}

	return &event, nil
}

func (r *EventRepository) GetEventsBySeriesID(ctx context.Context, seriesID uuid.UUID) ([]entity.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE series_id = $1 ORDER BY date ASC`

	var events []entity.Event
	if err := r.db.SelectContext(ctx, &events, query, seriesID); err != nil {
		logger.Error("EventRepository:GetEventsBySeriesID", err)
		return nil, err
	}

	return events, nil
}

func (r *EventRepository) GetEventsByClubID(ctx context.Context, clubID uuid.UUID, from, to time.Time) ([]entity.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events
		WHERE club_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC`

	var events []entity.Event
	if err := r.db.SelectContext(ctx, &events, query, clubID, from, to); err != nil {
		logger.Error("EventRepository:GetEventsByClubID", err)
		return nil, err
	}

	return events, nil
}

// UpdateStatus applies the transition only when the current status is one
// of the expected source states, and reports whether a row changed. A
// stale scheduled task therefore cannot overwrite a manual cancellation.
func (r *EventRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from []entity.EventStatus, to entity.EventStatus) (bool, error) {
	fromStrs := make([]string, 0, len(from))
	for _, s := range from {
		fromStrs = append(fromStrs, string(s))
	}

	query := `
		UPDATE events SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = ANY($3)
		RETURNING id
	`
	var updated uuid.UUID
	err := r.db.QueryRowContext(ctx, query, id, to, pq.Array(fromStrs)).Scan(&updated)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		logger.Error("EventRepository:UpdateStatus", err)
		return false, err
	}

	return true, nil
}

func (r *EventRepository) UpdateTimeslots(ctx context.Context, id uuid.UUID, timeslotsJSON string) error {
	query := `UPDATE events SET timeslots = $2, updated_at = NOW() WHERE id = $1`
	if err := r.db.ExecContext(ctx, query, id, timeslotsJSON); err != nil {
		logger.Error("EventRepository:UpdateTimeslots", err)
		return err
	}
	return nil
}

func (r *EventRepository) SetStartTask(ctx context.Context, id uuid.UUID, taskID *string) error {
	query := `UPDATE events SET start_task_id = $2, updated_at = NOW() WHERE id = $1`
	if err := r.db.ExecContext(ctx, query, id, taskID); err != nil {
		logger.Error("EventRepository:SetStartTask", err)
		return err
	}
	return nil
}

func (r *EventRepository) SetEndTask(ctx context.Context, id uuid.UUID, taskID *string) error {
	query := `UPDATE events SET end_task_id = $2, updated_at = NOW() WHERE id = $1`
	if err := r.db.ExecContext(ctx, query, id, taskID); err != nil {
		logger.Error("EventRepository:SetEndTask", err)
		return err
	}
	return nil
}

func (r *EventRepository) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM events WHERE id = $1`
	if err := r.db.ExecContext(ctx, query, id); err != nil {
		logger.Error("EventRepository:DeleteEvent", err)
		return err
	}
	return nil
}

// ===================== Participants =====================

const participantColumns = `id, event_id, timeslot_id, user_id, is_waitlisted, joined_at`

func (r *EventRepository) GetParticipant(ctx context.Context, eventID uuid.UUID, timeslotID string, userID uuid.UUID) (*entity.EventParticipant, error) {
	query := `SELECT ` + participantColumns + ` FROM event_participants
		WHERE event_id = $1 AND timeslot_id = $2 AND user_id = $3`

	var p entity.EventParticipant
	err := r.db.GetContext(ctx, &p, query, eventID, timeslotID, userID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("EventRepository:GetParticipant", err)
		return nil, err
	}

	return &p, nil
}

func (r *EventRepository) GetParticipantsByEventID(ctx context.Context, eventID uuid.UUID) ([]entity.EventParticipant, error) {
	query := `SELECT ` + participantColumns + ` FROM event_participants
		WHERE event_id = $1 ORDER BY joined_at ASC`

	var participants []entity.EventParticipant
	if err := r.db.SelectContext(ctx, &participants, query, eventID); err != nil {
		logger.Error("EventRepository:GetParticipantsByEventID", err)
		return nil, err
	}

	return participants, nil
}

// InsertParticipant inserts the participation unless one already exists for
// the same (event_id, timeslot_id, user_id). Reports whether a row was
// inserted.
func (r *EventRepository) InsertParticipant(ctx context.Context, p *entity.EventParticipant) (bool, error) {
	query := `
		INSERT INTO event_participants (event_id, timeslot_id, user_id, is_waitlisted, joined_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (event_id, timeslot_id, user_id) DO NOTHING
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		p.EventID, p.TimeslotID, p.UserID, p.IsWaitlisted, p.JoinedAt).Scan(&p.ID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		logger.Error("EventRepository:InsertParticipant", err)
		return false, err
	}

	return true, nil
}

func (r *EventRepository) DeleteParticipant(ctx context.Context, eventID uuid.UUID, timeslotID string, userID uuid.UUID) (bool, error) {
	query := `DELETE FROM event_participants
		WHERE event_id = $1 AND timeslot_id = $2 AND user_id = $3
		RETURNING id`

	var id uuid.UUID
	err := r.db.QueryRowContext(ctx, query, eventID, timeslotID, userID).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		logger.Error("EventRepository:DeleteParticipant", err)
		return false, err
	}

	return true, nil
}

// EarliestWaitlisted returns the waitlisted participant with the oldest
// joined_at for the timeslot, the next in line for promotion.
func (r *EventRepository) EarliestWaitlisted(ctx context.Context, eventID uuid.UUID, timeslotID string) (*entity.EventParticipant, error) {
	query := `SELECT ` + participantColumns + ` FROM event_participants
		WHERE event_id = $1 AND timeslot_id = $2 AND is_waitlisted = true
		ORDER BY joined_at ASC
		LIMIT 1`

	var p entity.EventParticipant
	err := r.db.GetContext(ctx, &p, query, eventID, timeslotID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		logger.Error("EventRepository:EarliestWaitlisted", err)
		return nil, err
	}

	return &p, nil
}

// PromoteParticipant clears the waitlist flag and re-stamps joined_at, which
// keeps promotion order fair among participants promoted at different times.
func (r *EventRepository) PromoteParticipant(ctx context.Context, id uuid.UUID, promotedAt time.Time) error {
	query := `UPDATE event_participants SET is_waitlisted = false, joined_at = $2 WHERE id = $1`
	if err := r.db.ExecContext(ctx, query, id, promotedAt); err != nil {
		logger.Error("EventRepository:PromoteParticipant", err)
		return err
	}
	return nil
}
