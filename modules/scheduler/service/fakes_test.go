package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"club-scheduler/core/taskqueue"
	evententity "club-scheduler/modules/event/entity"
	seriesentity "club-scheduler/modules/series/entity"

	"github.com/google/uuid"
)

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

func (f *fakeTasks) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tasks)
}

func (f *fakeTasks) stateOf(handle string) taskqueue.TaskState {
	f.mu.Lock()
	defer f.mu.Unlock()
	if task, ok := f.tasks[handle]; ok {
		return task.State
	}
	return taskqueue.TaskStateCanceled
}

// fakeEventRepo covers the event repository surface the transition
// scheduler uses; the rest returns zero values.
type fakeEventRepo struct {
	events map[uuid.UUID]*evententity.Event
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[uuid.UUID]*evententity.Event)}
}

func (r *fakeEventRepo) put(event *evententity.Event) *evententity.Event {
	clone := *event
	if clone.ID == uuid.Nil {
		clone.ID = uuid.New()
	}
	r.events[clone.ID] = &clone
	out := clone
	return &out
}

func (r *fakeEventRepo) CreateEvent(ctx context.Context, event *evententity.Event) (*evententity.Event, error) {
	return r.put(event), nil
}

func (r *fakeEventRepo) GetOrCreateEvent(ctx context.Context, event *evententity.Event) (*evententity.Event, bool, error) {
	return r.put(event), true, nil
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
	return nil, nil
}

func (r *fakeEventRepo) GetEventsByClubID(ctx context.Context, clubID uuid.UUID, from, to time.Time) ([]evententity.Event, error) {
	return nil, nil
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
	return nil
}

func (r *fakeEventRepo) GetParticipant(ctx context.Context, eventID uuid.UUID, timeslotID string, userID uuid.UUID) (*evententity.EventParticipant, error) {
	return nil, nil
}

func (r *fakeEventRepo) GetParticipantsByEventID(ctx context.Context, eventID uuid.UUID) ([]evententity.EventParticipant, error) {
	return nil, nil
}

func (r *fakeEventRepo) InsertParticipant(ctx context.Context, p *evententity.EventParticipant) (bool, error) {
	return true, nil
}

func (r *fakeEventRepo) DeleteParticipant(ctx context.Context, eventID uuid.UUID, timeslotID string, userID uuid.UUID) (bool, error) {
	return false, nil
}

func (r *fakeEventRepo) EarliestWaitlisted(ctx context.Context, eventID uuid.UUID, timeslotID string) (*evententity.EventParticipant, error) {
	return nil, nil
}

func (r *fakeEventRepo) PromoteParticipant(ctx context.Context, id uuid.UUID, promotedAt time.Time) error {
	return nil
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
	if clone.ID == uuid.Nil {
		clone.ID = uuid.New()
	}
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
	return nil, nil
}

func (r *fakeSeriesRepo) ListActive(ctx context.Context) ([]seriesentity.EventSeries, error) {
	return nil, nil
}

func (r *fakeSeriesRepo) Update(ctx context.Context, series *seriesentity.EventSeries) error {
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

// fakeActivities counts audit writes.
type fakeActivities struct {
	scheduled int
	recorded  int
}

func (a *fakeActivities) RecordScheduled(ctx context.Context, resourceType string, resourceID uuid.UUID, action string, scheduledAt time.Time, detail string) error {
	a.scheduled++
	return nil
}

func (a *fakeActivities) Record(ctx context.Context, resourceType string, resourceID uuid.UUID, action string, detail string) error {
	a.recorded++
	return nil
}
