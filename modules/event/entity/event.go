package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// EventStatus represents the lifecycle state of an event.
type EventStatus string

const (
	EventStatusNotStarted EventStatus = "not_started"
	EventStatusInProgress EventStatus = "in_progress"
	EventStatusCompleted  EventStatus = "completed"
	EventStatusCancelled  EventStatus = "cancelled"
)

// CanTransitionTo reports whether the status machine allows moving from s
// to target. Statuses only move forward; cancelled is terminal and only
// reachable before completion.
func (s EventStatus) CanTransitionTo(target EventStatus) bool {
	switch target {
	case EventStatusInProgress:
		return s == EventStatusNotStarted
	case EventStatusCompleted:
		return s == EventStatusNotStarted || s == EventStatusInProgress
	case EventStatusCancelled:
		return s == EventStatusNotStarted || s == EventStatusInProgress
	default:
		return false
	}
}

// AllowedFrom lists every status the machine may leave when moving to
// target. Derived from CanTransitionTo so the conditional status updates in
// the store share one authority with it.
func AllowedFrom(target EventStatus) []EventStatus {
	all := []EventStatus{EventStatusNotStarted, EventStatusInProgress, EventStatusCompleted, EventStatusCancelled}

	var from []EventStatus
	for _, s := range all {
		if s.CanTransitionTo(target) {
			from = append(from, s)
		}
	}
	return from
}

// Event is one concrete dated occurrence, generated from a series or
// created standalone. Timeslots are embedded as JSONB; the unique index on
// (series_id, date) is the generation idempotency anchor.
type Event struct {
	ID            uuid.UUID   `db:"id" json:"id"`
	SeriesID      *uuid.UUID  `db:"series_id" json:"series_id,omitempty"`
	ClubID        uuid.UUID   `db:"club_id" json:"club_id"`
	Name          string      `db:"name" json:"name"`
	Date          time.Time   `db:"date" json:"date"`
	StartAt       time.Time   `db:"start_at" json:"start_at"`
	EndAt         time.Time   `db:"end_at" json:"end_at"`
	Status        EventStatus `db:"status" json:"status"`
	TimeslotsJSON string      `db:"timeslots" json:"-"`
	StartTaskID   *string     `db:"start_task_id" json:"start_task_id,omitempty"`
	EndTaskID     *string     `db:"end_task_id" json:"end_task_id,omitempty"`
	CreatedAt     time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at" json:"updated_at"`
}

// Timeslot is a bookable capacity bucket within an event. Template fields
// are copied from the series at generation time; the counters are mutated
// by join/leave.
type Timeslot struct {
	ID                    string      `json:"id"`
	Name                  string      `json:"name,omitempty"`
	MaxParticipants       int         `json:"max_participants"`
	MaxWaitlist           int         `json:"max_waitlist"`
	PermanentParticipants []uuid.UUID `json:"permanent_participants,omitempty"`
	NumParticipants       int         `json:"num_participants"`
	NumWaitlisted         int         `json:"num_waitlisted"`
}

// Timeslots decodes the embedded timeslot list.
func (e *Event) Timeslots() ([]Timeslot, error) {
	if e.TimeslotsJSON == "" {
		return nil, nil
	}
	var slots []Timeslot
	if err := json.Unmarshal([]byte(e.TimeslotsJSON), &slots); err != nil {
		return nil, err
	}
	return slots, nil
}

// SetTimeslots encodes the timeslot list back onto the event.
func (e *Event) SetTimeslots(slots []Timeslot) error {
	data, err := json.Marshal(slots)
	if err != nil {
		return err
	}
	e.TimeslotsJSON = string(data)
	return nil
}
