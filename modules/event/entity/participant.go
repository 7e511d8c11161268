package entity

import (
	"time"

	"github.com/google/uuid"
)

// EventParticipant is one user's participation in one timeslot of one
// event, unique per (event_id, timeslot_id, user_id). JoinedAt doubles as
// the FIFO ordering key for waitlist promotion and is re-stamped when a
// waitlisted participant is promoted.
type EventParticipant struct {
	ID           uuid.UUID `db:"id" json:"id"`
	EventID      uuid.UUID `db:"event_id" json:"event_id"`
	TimeslotID   string    `db:"timeslot_id" json:"timeslot_id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	IsWaitlisted bool      `db:"is_waitlisted" json:"is_waitlisted"`
	JoinedAt     time.Time `db:"joined_at" json:"joined_at"`
}
