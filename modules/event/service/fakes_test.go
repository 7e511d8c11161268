package service

import (
	"context"
	"database/sql"
	"sort"
	"time"

	evententity "club-scheduler/modules/event/entity"
	seriesentity "club-scheduler/modules/series/entity"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// fakeDB satisfies database.IDatabase for service tests. Transactions just
// run the closure; the repositories under test are in-memory and never
// touch SQL.
type fakeDB struct{}

func (f *fakeDB) ExecContext(ctx context.Context, query string, args ...any) error { return nil }
func (f *fakeDB) GetContext(ctx context.Context, dest any, query string, args ...any) error {
	return sql.ErrNoRows
}
func (f *fakeDB) SelectContext(ctx context.Context, dest any, query string, args ...any) error {
	return nil
}
func (f *fakeDB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return nil
}
func (f *fakeDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, nil
}
func (f *fakeDB) NamedQueryContext(ctx context.Context, query string, arg any) (*sqlx.Rows, error) {
	return nil, nil
}
func (f *fakeDB) NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error) {
	return nil, nil
}
func (f *fakeDB) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
func (f *fakeDB) SQLx() *sqlx.DB { return nil }

type participantKey struct {
	eventID    uuid.UUID
	timeslotID string
	userID     uuid.UUID
}

// fakeEventRepo is an in-memory EventRepositoryInterface with the same
// uniqueness and conditional-update semantics as the SQL one.
type fakeEventRepo struct {
	events       map[uuid.UUID]*evententity.Event
	participants map[participantKey]*evententity.EventParticipant
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{
		events:       make(map[uuid.UUID]*evententity.Event),
		participants: make(map[participantKey]*evententity.EventParticipant),
	}
}

func (r *fakeEventRepo) CreateEvent(ctx context.Context, event *evententity.Event) (*evententity.Event, error) {
	clone := *event
	clone.ID = uuid.New()
	clone.CreatedAt = time.Now().UTC()
	clone.UpdatedAt = clone.CreatedAt
	r.events[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *fakeEventRepo) GetOrCreateEvent(ctx context.Context, event *evententity.Event) (*evententity.Event, bool, error) {
	for _, existing := range r.events {
		if existing.SeriesID != nil && event.SeriesID != nil &&
			*existing.SeriesID == *event.SeriesID && existing.Date.Equal(event.Date) {
			out := *existing
			return &out, false, nil
		}
	}
	created, err := r.CreateEvent(ctx, event)
	return created, true, err
}

func (r *fakeEventRepo) GetEventByID(ctx context.Context, id uuid.UUID) (*evententity.Event, error) {
	event, ok := r.events[id]
	if !ok {
		return nil, nil
	}
	out := *event
	return &out, nil
}

func (r *fakeEventRepo) GetEventByIDForUpdate(ctx context.Context, id uuid.UUID) (*evententity.Event, error) {
	return r.GetEventByID(ctx, id)
}

func (r *fakeEventRepo) GetEventsBySeriesID(ctx context.Context, seriesID uuid.UUID) ([]evententity.Event, error) {
	var out []evententity.Event
	for _, event := range r.events {
		if event.SeriesID != nil && *event.SeriesID == seriesID {
			out = append(out, *event)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *fakeEventRepo) GetEventsByClubID(ctx context.Context, clubID uuid.UUID, from, to time.Time) ([]evententity.Event, error) {
	var out []evententity.Event
	for _, event := range r.events {
		if event.ClubID == clubID && !event.Date.Before(from) && !event.Date.After(to) {
			out = append(out, *event)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *fakeEventRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from []evententity.EventStatus, to evententity.EventStatus) (bool, error) {
	event, ok := r.events[id]
	if !ok {
		return false, nil
	}
	for _, status := range from {
		if event.Status == status {
			event.Status = to
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeEventRepo) UpdateTimeslots(ctx context.Context, id uuid.UUID, timeslotsJSON string) error {
	if event, ok := r.events[id]; ok {
		event.TimeslotsJSON = timeslotsJSON
	}
	return nil
}

func (r *fakeEventRepo) SetStartTask(ctx context.Context, id uuid.UUID, taskID *string) error {
	if event, ok := r.events[id]; ok {
		event.StartTaskID = taskID
	}
	return nil
}

func (r *fakeEventRepo) SetEndTask(ctx context.Context, id uuid.UUID, taskID *string) error {
	if event, ok := r.events[id]; ok {
		event.EndTaskID = taskID
	}
	return nil
}

func (r *fakeEventRepo) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	delete(r.events, id)
	for key := range r.participants {
		if key.eventID == id {
			delete(r.participants, key)
		}
	}
	return nil
}

func (r *fakeEventRepo) GetParticipant(ctx context.Context, eventID uuid.UUID, timeslotID string, userID uuid.UUID) (*evententity.EventParticipant, error) {
	p, ok := r.participants[participantKey{eventID, timeslotID, userID}]
	if !ok {
		return nil, nil
	}
	out := *p
	return &out, nil
}

func (r *fakeEventRepo) GetParticipantsByEventID(ctx context.Context, eventID uuid.UUID) ([]evententity.EventParticipant, error) {
	var out []evententity.EventParticipant
	for key, p := range r.participants {
		if key.eventID == eventID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

func (r *fakeEventRepo) InsertParticipant(ctx context.Context, p *evententity.EventParticipant) (bool, error) {
	key := participantKey{p.EventID, p.TimeslotID, p.UserID}
	if _, exists := r.participants[key]; exists {
		return false, nil
	}
	clone := *p
	clone.ID = uuid.New()
	r.participants[key] = &clone
	p.ID = clone.ID
	return true, nil
}

func (r *fakeEventRepo) DeleteParticipant(ctx context.Context, eventID uuid.UUID, timeslotID string, userID uuid.UUID) (bool, error) {
	key := participantKey{eventID, timeslotID, userID}
	if _, exists := r.participants[key]; !exists {
		return false, nil
	}
	delete(r.participants, key)
	return true, nil
}

func (r *fakeEventRepo) EarliestWaitlisted(ctx context.Context, eventID uuid.UUID, timeslotID string) (*evententity.EventParticipant, error) {
	var earliest *evententity.EventParticipant
	for key, p := range r.participants {
		if key.eventID != eventID || key.timeslotID != timeslotID || !p.IsWaitlisted {
			continue
		}
		if earliest == nil || p.JoinedAt.Before(earliest.JoinedAt) {
			earliest = p
		}
	}
	if earliest == nil {
		return nil, nil
	}
	out := *earliest
	return &out, nil
}

func (r *fakeEventRepo) PromoteParticipant(ctx context.Context, id uuid.UUID, promotedAt time.Time) error {
	for _, p := range r.participants {
		if p.ID == id {
			p.IsWaitlisted = false
			p.JoinedAt = promotedAt
		}
	}
	return nil
}

// fakeTransitionScheduler records arming and cancellation calls.
type fakeTransitionScheduler struct {
	armedEvents     []uuid.UUID
	cancelledEvents []uuid.UUID
}

func (s *fakeTransitionScheduler) ArmTransitions(ctx context.Context, event *evententity.Event) error {
	s.armedEvents = append(s.armedEvents, event.ID)
	return nil
}

func (s *fakeTransitionScheduler) ArmSeriesDeactivation(ctx context.Context, series *seriesentity.EventSeries, deactivateAt time.Time) error {
	return nil
}

func (s *fakeTransitionScheduler) CancelEventTasks(ctx context.Context, event *evententity.Event) error {
	s.cancelledEvents = append(s.cancelledEvents, event.ID)
	return nil
}

func (s *fakeTransitionScheduler) CancelSeriesTasks(ctx context.Context, series *seriesentity.EventSeries) error {
	return nil
}

func (s *fakeTransitionScheduler) TransitionEvent(ctx context.Context, eventID uuid.UUID, target evententity.EventStatus) error {
	return nil
}

func (s *fakeTransitionScheduler) DeactivateSeries(ctx context.Context, seriesID uuid.UUID) error {
	return nil
}

// fakeActivities drops audit entries.
type fakeActivities struct {
	recorded int
}

func (a *fakeActivities) RecordScheduled(ctx context.Context, resourceType string, resourceID uuid.UUID, action string, scheduledAt time.Time, detail string) error {
	a.recorded++
	return nil
}

func (a *fakeActivities) Record(ctx context.Context, resourceType string, resourceID uuid.UUID, action string, detail string) error {
	a.recorded++
	return nil
}
