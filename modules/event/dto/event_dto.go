package dto

import (
	"time"

	"club-scheduler/modules/event/entity"
)

// ===================== Request DTOs =====================

// TimeslotSpec describes one capacity bucket for a standalone event.
type TimeslotSpec struct {
	Name                  string   `json:"name"`
	MaxParticipants       int      `json:"max_participants" validate:"required,min=1"`
	MaxWaitlist           int      `json:"max_waitlist" validate:"min=0"`
	PermanentParticipants []string `json:"permanent_participants"` // user ids
}

// CreateEventRequest creates a one-off event outside any series.
type CreateEventRequest struct {
	Name      string         `json:"name" validate:"required"`
	Date      string         `json:"date" validate:"required"`     // RFC3339
	StartAt   string         `json:"start_at" validate:"required"` // RFC3339
	EndAt     string         `json:"end_at" validate:"required"`   // RFC3339
	Timeslots []TimeslotSpec `json:"timeslots" validate:"required,min=1,dive"`
}

// JoinEventRequest joins the authenticated user into a timeslot.
type JoinEventRequest struct {
	TimeslotID string `json:"timeslot_id" validate:"required"`
}

// LeaveEventRequest removes the authenticated user from a timeslot.
type LeaveEventRequest struct {
	TimeslotID string `json:"timeslot_id" validate:"required"`
}

// ===================== Response DTOs =====================

type TimeslotResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name,omitempty"`
	MaxParticipants int    `json:"max_participants"`
	MaxWaitlist     int    `json:"max_waitlist"`
	NumParticipants int    `json:"num_participants"`
	NumWaitlisted   int    `json:"num_waitlisted"`
}

type ParticipantResponse struct {
	ID           string    `json:"id"`
	EventID      string    `json:"event_id"`
	TimeslotID   string    `json:"timeslot_id"`
	UserID       string    `json:"user_id"`
	IsWaitlisted bool      `json:"is_waitlisted"`
	JoinedAt     time.Time `json:"joined_at"`
}

type EventResponse struct {
	ID           string                `json:"id"`
	SeriesID     string                `json:"series_id,omitempty"`
	ClubID       string                `json:"club_id"`
	Name         string                `json:"name"`
	Date         time.Time             `json:"date"`
	StartAt      time.Time             `json:"start_at"`
	EndAt        time.Time             `json:"end_at"`
	Status       string                `json:"status"`
	Timeslots    []TimeslotResponse    `json:"timeslots"`
	Participants []ParticipantResponse `json:"participants,omitempty"`
}

func ToParticipantResponse(p *entity.EventParticipant) *ParticipantResponse {
	return &ParticipantResponse{
		ID:           p.ID.String(),
		EventID:      p.EventID.String(),
		TimeslotID:   p.TimeslotID,
		UserID:       p.UserID.String(),
		IsWaitlisted: p.IsWaitlisted,
		JoinedAt:     p.JoinedAt,
	}
}

func ToEventResponse(event *entity.Event, participants []entity.EventParticipant) *EventResponse {
	resp := &EventResponse{
		ID:      event.ID.String(),
		ClubID:  event.ClubID.String(),
		Name:    event.Name,
		Date:    event.Date,
		StartAt: event.StartAt,
		EndAt:   event.EndAt,
		Status:  string(event.Status),
	}
	if event.SeriesID != nil {
		resp.SeriesID = event.SeriesID.String()
	}

	slots, err := event.Timeslots()
	if err == nil {
		for _, slot := range slots {
			resp.Timeslots = append(resp.Timeslots, TimeslotResponse{
				ID:              slot.ID,
				Name:            slot.Name,
				MaxParticipants: slot.MaxParticipants,
				MaxWaitlist:     slot.MaxWaitlist,
				NumParticipants: slot.NumParticipants,
				NumWaitlisted:   slot.NumWaitlisted,
			})
		}
	}

	for i := range participants {
		resp.Participants = append(resp.Participants, *ToParticipantResponse(&participants[i]))
	}

	return resp
}
