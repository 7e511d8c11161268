package dto

import (
	"time"

	"club-scheduler/modules/series/entity"
)

// ===================== Request DTOs =====================

// TimeslotTemplateSpec describes one capacity bucket to materialize on
// every generated event.
type TimeslotTemplateSpec struct {
	Name                  string   `json:"name"`
	MaxParticipants       int      `json:"max_participants" validate:"required,min=1"`
	MaxWaitlist           int      `json:"max_waitlist" validate:"min=0"`
	PermanentParticipants []string `json:"permanent_participants"` // user ids
}

// CreateSeriesRequest creates a recurring event series.
type CreateSeriesRequest struct {
	Name          string                 `json:"name" validate:"required"`
	Description   string                 `json:"description"`
	DaysOfWeek    []int                  `json:"days_of_week" validate:"required,min=1,dive,min=0,max=6"`
	IntervalWeeks int                    `json:"interval_weeks" validate:"required,min=1"`
	StartDate     string                 `json:"start_date" validate:"required"` // RFC3339
	EndDate       string                 `json:"end_date" validate:"required"`   // RFC3339
	Timezone      string                 `json:"timezone" validate:"required"`   // IANA zone id
	StartTime     string                 `json:"start_time" validate:"required"` // local "HH:MM"
	EndTime       string                 `json:"end_time" validate:"required"`   // local "HH:MM"
	Timeslots     []TimeslotTemplateSpec `json:"timeslots" validate:"required,min=1,dive"`
	IsActive      bool                   `json:"is_active"`
}

// UpdateSeriesRequest patches series fields; nil fields are left unchanged.
// Flipping IsActive false→true triggers activation.
type UpdateSeriesRequest struct {
	Name          *string                `json:"name"`
	Description   *string                `json:"description"`
	DaysOfWeek    []int                  `json:"days_of_week" validate:"omitempty,min=1,dive,min=0,max=6"`
	IntervalWeeks *int                   `json:"interval_weeks" validate:"omitempty,min=1"`
	StartDate     *string                `json:"start_date"`
	EndDate       *string                `json:"end_date"`
	Timezone      *string                `json:"timezone"`
	StartTime     *string                `json:"start_time"`
	EndTime       *string                `json:"end_time"`
	Timeslots     []TimeslotTemplateSpec `json:"timeslots" validate:"omitempty,min=1,dive"`
	IsActive      *bool                  `json:"is_active"`
}

// GenerateRangeRequest triggers manual generation over a range.
type GenerateRangeRequest struct {
	From string `json:"from" validate:"required"` // RFC3339
	To   string `json:"to" validate:"required"`   // RFC3339
}

// ===================== Response DTOs =====================

type TimeslotTemplateResponse struct {
	Name                  string   `json:"name,omitempty"`
	MaxParticipants       int      `json:"max_participants"`
	MaxWaitlist           int      `json:"max_waitlist"`
	PermanentParticipants []string `json:"permanent_participants,omitempty"`
}

type SeriesResponse struct {
	ID            string                     `json:"id"`
	ClubID        string                     `json:"club_id"`
	Name          string                     `json:"name"`
	Slug          string                     `json:"slug"`
	Description   string                     `json:"description,omitempty"`
	DaysOfWeek    []int                      `json:"days_of_week"`
	IntervalWeeks int                        `json:"interval_weeks"`
	StartDate     time.Time                  `json:"start_date"`
	EndDate       time.Time                  `json:"end_date"`
	Timezone      string                     `json:"timezone"`
	StartTime     string                     `json:"start_time"`
	EndTime       string                     `json:"end_time"`
	Timeslots     []TimeslotTemplateResponse `json:"timeslots"`
	IsActive      bool                       `json:"is_active"`
	CreatedAt     time.Time                  `json:"created_at"`
	UpdatedAt     time.Time                  `json:"updated_at"`
}

func ToSeriesResponse(series *entity.EventSeries) *SeriesResponse {
	resp := &SeriesResponse{
		ID:            series.ID.String(),
		ClubID:        series.ClubID.String(),
		Name:          series.Name,
		Slug:          series.Slug,
		IntervalWeeks: series.IntervalWeeks,
		StartDate:     series.StartDate,
		EndDate:       series.EndDate,
		Timezone:      series.Timezone,
		StartTime:     series.StartTime,
		EndTime:       series.EndTime,
		IsActive:      series.IsActive,
		CreatedAt:     series.CreatedAt,
		UpdatedAt:     series.UpdatedAt,
	}
	if series.Description != nil {
		resp.Description = *series.Description
	}
	for _, d := range series.DaysOfWeek {
		resp.DaysOfWeek = append(resp.DaysOfWeek, int(d))
	}

	templates, err := series.TimeslotTemplates()
	if err == nil {
		for _, tpl := range templates {
			t := TimeslotTemplateResponse{
				Name:            tpl.Name,
				MaxParticipants: tpl.MaxParticipants,
				MaxWaitlist:     tpl.MaxWaitlist,
			}
			for _, id := range tpl.PermanentParticipants {
				t.PermanentParticipants = append(t.PermanentParticipants, id.String())
			}
			resp.Timeslots = append(resp.Timeslots, t)
		}
	}

	return resp
}
