package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"club-scheduler/core/errors"
	"club-scheduler/core/taskqueue"
	eventdto "club-scheduler/modules/event/dto"
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

// fakeTasks is an in-memory taskqueue.Scheduler that records every
// scheduled task and supports cancellation and state queries.
type scheduledTask struct {
	At       time.Time
	TaskType string
	Payload  any
	State    taskqueue.TaskState
}

type fakeTasks struct {
	mu    sync.Mutex
	seq   int
	tasks map[string]*scheduledTask
}

func newFakeTasks() *fakeTasks {
	return &fakeTasks{tasks: make(map[string]*scheduledTask)}
}

func (f *fakeTasks) ScheduleAt(ctx context.Context, at time.Time, taskType string, payload any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	handle := fmt.Sprintf("task-%d", f.seq)
	f.tasks[handle] = &scheduledTask{At: at, TaskType: taskType, Payload: payload, State: taskqueue.TaskStatePending}
	return handle, nil
}

func (f *fakeTasks) Cancel(ctx context.Context, handle string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if task, ok := f.tasks[handle]; ok {
		task.State = taskqueue.TaskStateCanceled
	}
	return nil
}

func (f *fakeTasks) State(ctx context.Context, handle string) (taskqueue.TaskState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	task, ok := f.tasks[handle]
	if !ok {
		return taskqueue.TaskStateCanceled, nil
	}
	return task.State, nil
}

func (f *fakeTasks) markExecuted(handle string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if task, ok := f.tasks[handle]; ok {
		task.State = taskqueue.TaskStateExecuted
	}
}

func (f *fakeTasks) byType(taskType string) []scheduledTask {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []scheduledTask
	for _, task := range f.tasks {
		if task.TaskType == taskType {
			out = append(out, *task)
		}
	}
	return out
}

// fakeSeriesRepo is an in-memory SeriesRepositoryInterface.
type fakeSeriesRepo struct {
	series map[uuid.UUID]*seriesentity.EventSeries
}

func newFakeSeriesRepo() *fakeSeriesRepo {
	return &fakeSeriesRepo{series: make(map[uuid.UUID]*seriesentity.EventSeries)}
}

func (r *fakeSeriesRepo) Create(ctx context.Context, series *seriesentity.EventSeries) (*seriesentity.EventSeries, error) {
	clone := *series
	clone.ID = uuid.New()
	r.series[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *fakeSeriesRepo) GetByID(ctx context.Context, id uuid.UUID) (*seriesentity.EventSeries, error) {
	series, ok := r.series[id]
	if !ok {
		return nil, nil
	}
	out := *series
	return &out, nil
}

func (r *fakeSeriesRepo) GetByClubID(ctx context.Context, clubID uuid.UUID) ([]seriesentity.EventSeries, error) {
	var out []seriesentity.EventSeries
	for _, series := range r.series {
		if series.ClubID == clubID {
			out = append(out, *series)
		}
	}
	return out, nil
}

func (r *fakeSeriesRepo) ListActive(ctx context.Context) ([]seriesentity.EventSeries, error) {
	var out []seriesentity.EventSeries
	for _, series := range r.series {
		if series.IsActive {
			out = append(out, *series)
		}
	}
	return out, nil
}

func (r *fakeSeriesRepo) Update(ctx context.Context, series *seriesentity.EventSeries) error {
	if _, ok := r.series[series.ID]; ok {
		clone := *series
		r.series[series.ID] = &clone
	}
	return nil
}

func (r *fakeSeriesRepo) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	if series, ok := r.series[id]; ok {
		series.IsActive = active
	}
	return nil
}

func (r *fakeSeriesRepo) SetSeriesEndTask(ctx context.Context, id uuid.UUID, taskID *string) error {
	if series, ok := r.series[id]; ok {
		series.SeriesEndTaskID = taskID
	}
	return nil
}

func (r *fakeSeriesRepo) SetNextBatchTask(ctx context.Context, id uuid.UUID, taskID *string) error {
	if series, ok := r.series[id]; ok {
		series.NextBatchTaskID = taskID
	}
	return nil
}

func (r *fakeSeriesRepo) ClearTaskRefs(ctx context.Context, id uuid.UUID) error {
	if series, ok := r.series[id]; ok {
		series.SeriesEndTaskID = nil
		series.NextBatchTaskID = nil
	}
	return nil
}

func (r *fakeSeriesRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.series, id)
	return nil
}

// fakeEventStore implements the slice of EventRepositoryInterface the
// orchestrator touches, keyed on (series_id, date) like the SQL unique
// index.
type fakeEventStore struct {
	events map[uuid.UUID]*evententity.Event
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{events: make(map[uuid.UUID]*evententity.Event)}
}

func (r *fakeEventStore) CreateEvent(ctx context.Context, event *evententity.Event) (*evententity.Event, error) {
	clone := *event
	clone.ID = uuid.New()
	r.events[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *fakeEventStore) GetOrCreateEvent(ctx context.Context, event *evententity.Event) (*evententity.Event, bool, error) {
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

func (r *fakeEventStore) GetEventByID(ctx context.Context, id uuid.UUID) (*evententity.Event, error) {
	event, ok := r.events[id]
	if !ok {
		return nil, nil
	}
	out := *event
	return &out, nil
}

func (r *fakeEventStore) GetEventByIDForUpdate(ctx context.Context, id uuid.UUID) (*evententity.Event, error) {
	return r.GetEventByID(ctx, id)
}

func (r *fakeEventStore) GetEventsBySeriesID(ctx context.Context, seriesID uuid.UUID) ([]evententity.Event, error) {
	var out []evententity.Event
	for _, event := range r.events {
		if event.SeriesID != nil && *event.SeriesID == seriesID {
			out = append(out, *event)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *fakeEventStore) GetEventsByClubID(ctx context.Context, clubID uuid.UUID, from, to time.Time) ([]evententity.Event, error) {
	return nil, nil
}

func (r *fakeEventStore) UpdateStatus(ctx context.Context, id uuid.UUID, from []evententity.EventStatus, to evententity.EventStatus) (bool, error) {
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

func (r *fakeEventStore) UpdateTimeslots(ctx context.Context, id uuid.UUID, timeslotsJSON string) error {
	if event, ok := r.events[id]; ok {
		event.TimeslotsJSON = timeslotsJSON
	}
	return nil
}

func (r *fakeEventStore) SetStartTask(ctx context.Context, id uuid.UUID, taskID *string) error {
	if event, ok := r.events[id]; ok {
		event.StartTaskID = taskID
	}
	return nil
}

func (r *fakeEventStore) SetEndTask(ctx context.Context, id uuid.UUID, taskID *string) error {
	if event, ok := r.events[id]; ok {
		event.EndTaskID = taskID
	}
	return nil
}

func (r *fakeEventStore) DeleteEvent(ctx context.Context, id uuid.UUID) error {
	delete(r.events, id)
	return nil
}

func (r *fakeEventStore) GetParticipant(ctx context.Context, eventID uuid.UUID, timeslotID string, userID uuid.UUID) (*evententity.EventParticipant, error) {
	return nil, nil
}

func (r *fakeEventStore) GetParticipantsByEventID(ctx context.Context, eventID uuid.UUID) ([]evententity.EventParticipant, error) {
	return nil, nil
}

func (r *fakeEventStore) InsertParticipant(ctx context.Context, p *evententity.EventParticipant) (bool, error) {
	return true, nil
}

func (r *fakeEventStore) DeleteParticipant(ctx context.Context, eventID uuid.UUID, timeslotID string, userID uuid.UUID) (bool, error) {
	return false, nil
}

func (r *fakeEventStore) EarliestWaitlisted(ctx context.Context, eventID uuid.UUID, timeslotID string) (*evententity.EventParticipant, error) {
	return nil, nil
}

func (r *fakeEventStore) PromoteParticipant(ctx context.Context, id uuid.UUID, promotedAt time.Time) error {
	return nil
}

// fakeEnroller stands in for the event service; the orchestrator only
// calls EnsurePermanentParticipants, the rest is inert.
type fakeEnroller struct {
	ensured []uuid.UUID
}

func (f *fakeEnroller) EnsurePermanentParticipants(ctx context.Context, event *evententity.Event) error {
	f.ensured = append(f.ensured, event.ID)
	return nil
}

func (f *fakeEnroller) CreateEvent(ctx context.Context, clubID uuid.UUID, req *eventdto.CreateEventRequest) (*eventdto.EventResponse, *errors.AppError) {
	return nil, nil
}

func (f *fakeEnroller) GetEventByID(ctx context.Context, id uuid.UUID) (*eventdto.EventResponse, *errors.AppError) {
	return nil, nil
}

func (f *fakeEnroller) ListSeriesEvents(ctx context.Context, seriesID uuid.UUID) ([]eventdto.EventResponse, *errors.AppError) {
	return nil, nil
}

func (f *fakeEnroller) ListClubEvents(ctx context.Context, clubID uuid.UUID, from, to time.Time) ([]eventdto.EventResponse, *errors.AppError) {
	return nil, nil
}

func (f *fakeEnroller) Join(ctx context.Context, eventID uuid.UUID, timeslotID string, userID uuid.UUID) (*eventdto.ParticipantResponse, *errors.AppError) {
	return nil, nil
}

func (f *fakeEnroller) Leave(ctx context.Context, eventID uuid.UUID, timeslotID string, userID uuid.UUID) *errors.AppError {
	return nil
}

func (f *fakeEnroller) CancelEvent(ctx context.Context, eventID uuid.UUID) (*eventdto.EventResponse, *errors.AppError) {
	return nil, nil
}

func (f *fakeEnroller) DeleteEvent(ctx context.Context, eventID uuid.UUID) *errors.AppError {
	return nil
}

// fakeArmer records transition arming; used where the real transition
// scheduler would talk to the queue.
// fakeArmer records arming calls; when given a fakeTasks it also cancels
// the resource's task handles the way the real scheduler does.
type fakeArmer struct {
	tasks             *fakeTasks
	armedEvents       []uuid.UUID
	armedDeactivation []uuid.UUID
	cancelledSeries   []uuid.UUID
}

func (f *fakeArmer) cancel(ctx context.Context, handle *string) {
	if f.tasks == nil || handle == nil {
		return
	}
	_ = f.tasks.Cancel(ctx, *handle)
}

func (f *fakeArmer) ArmTransitions(ctx context.Context, event *evententity.Event) error {
	f.armedEvents = append(f.armedEvents, event.ID)
	return nil
}

func (f *fakeArmer) ArmSeriesDeactivation(ctx context.Context, series *seriesentity.EventSeries, deactivateAt time.Time) error {
	f.armedDeactivation = append(f.armedDeactivation, series.ID)
	return nil
}

func (f *fakeArmer) CancelEventTasks(ctx context.Context, event *evententity.Event) error {
	f.cancel(ctx, event.StartTaskID)
	f.cancel(ctx, event.EndTaskID)
	return nil
}

func (f *fakeArmer) CancelSeriesTasks(ctx context.Context, series *seriesentity.EventSeries) error {
	f.cancelledSeries = append(f.cancelledSeries, series.ID)
	f.cancel(ctx, series.SeriesEndTaskID)
	f.cancel(ctx, series.NextBatchTaskID)
	return nil
}

func (f *fakeArmer) TransitionEvent(ctx context.Context, eventID uuid.UUID, target evententity.EventStatus) error {
	return nil
}

func (f *fakeArmer) DeactivateSeries(ctx context.Context, seriesID uuid.UUID) error {
	return nil
}
