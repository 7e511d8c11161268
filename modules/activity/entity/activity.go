package entity

import (
	"time"

	"github.com/google/uuid"
)

// Resource types referenced by activity entries.
const (
	ResourceEvent  = "event"
	ResourceSeries = "event_series"
)

// Actions recorded in the activity log.
const (
	ActionTransitionScheduled   = "transition_scheduled"
	ActionDeactivationScheduled = "deactivation_scheduled"
	ActionStatusChanged         = "status_changed"
	ActionSeriesDeactivated     = "series_deactivated"
)

// ActivityLog is one audit entry. Scheduled-change entries are unique per
// (resource_id, action, scheduled_at) so repeated arming attempts never
// duplicate them.
type ActivityLog struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	ResourceType string     `db:"resource_type" json:"resource_type"`
	ResourceID   uuid.UUID  `db:"resource_id" json:"resource_id"`
	Action       string     `db:"action" json:"action"`
	ScheduledAt  *time.Time `db:"scheduled_at" json:"scheduled_at,omitempty"`
	Detail       string     `db:"detail" json:"detail"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}
