package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// EventSeries is a recurring-activity template: a weekly recurrence rule,
// a date range, and a timeslot template that generated events materialize.
// SeriesEndTaskID and NextBatchTaskID are the back-references to the at
// most one pending deactivation task and one pending next-batch task.
type EventSeries struct {
	ID          uuid.UUID `db:"id" json:"id"`
	ClubID      uuid.UUID `db:"club_id" json:"club_id"`
	Name        string    `db:"name" json:"name"`
	Slug        string    `db:"slug" json:"slug"`
	Description *string   `db:"description" json:"description,omitempty"`

	DaysOfWeek    pq.Int64Array `db:"days_of_week" json:"days_of_week"` // 0 = Sunday .. 6 = Saturday
	IntervalWeeks int           `db:"interval_weeks" json:"interval_weeks"`
	StartDate     time.Time     `db:"start_date" json:"start_date"`
	EndDate       time.Time     `db:"end_date" json:"end_date"`
	Timezone      string        `db:"timezone" json:"timezone"`
	StartTime     string        `db:"start_time" json:"start_time"` // local "HH:MM"
	EndTime       string        `db:"end_time" json:"end_time"`     // local "HH:MM"

	TimeslotTemplateJSON string `db:"timeslot_template" json:"-"`

	IsActive        bool    `db:"is_active" json:"is_active"`
	SeriesEndTaskID *string `db:"series_end_task_id" json:"series_end_task_id,omitempty"`
	NextBatchTaskID *string `db:"next_batch_task_id" json:"next_batch_task_id,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TimeslotTemplate describes one bookable bucket to materialize on every
// generated event.
type TimeslotTemplate struct {
	Name                  string      `json:"name,omitempty"`
	MaxParticipants       int         `json:"max_participants"`
	MaxWaitlist           int         `json:"max_waitlist"`
	PermanentParticipants []uuid.UUID `json:"permanent_participants,omitempty"`
}

// TimeslotTemplates decodes the embedded template list.
func (s *EventSeries) TimeslotTemplates() ([]TimeslotTemplate, error) {
	if s.TimeslotTemplateJSON == "" {
		return nil, nil
	}
	var templates []TimeslotTemplate
	if err := json.Unmarshal([]byte(s.TimeslotTemplateJSON), &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

// SetTimeslotTemplates encodes the template list onto the series.
func (s *EventSeries) SetTimeslotTemplates(templates []TimeslotTemplate) error {
	data, err := json.Marshal(templates)
	if err != nil {
		return err
	}
	s.TimeslotTemplateJSON = string(data)
	return nil
}

// Location resolves the series' IANA timezone.
func (s *EventSeries) Location() (*time.Location, error) {
	return time.LoadLocation(s.Timezone)
}
