package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventStatusCanTransitionTo(t *testing.T) {
	cases := []struct {
		name    string
		from    EventStatus
		to      EventStatus
		allowed bool
	}{
		{"not started can start", EventStatusNotStarted, EventStatusInProgress, true},
		{"not started can complete", EventStatusNotStarted, EventStatusCompleted, true},
		{"not started can cancel", EventStatusNotStarted, EventStatusCancelled, true},
		{"in progress cannot restart", EventStatusInProgress, EventStatusInProgress, false},
		{"in progress can complete", EventStatusInProgress, EventStatusCompleted, true},
		{"in progress can cancel", EventStatusInProgress, EventStatusCancelled, true},
		{"completed is terminal", EventStatusCompleted, EventStatusCancelled, false},
		{"completed cannot restart", EventStatusCompleted, EventStatusInProgress, false},
		{"cancelled is terminal", EventStatusCancelled, EventStatusInProgress, false},
		{"cancelled cannot complete", EventStatusCancelled, EventStatusCompleted, false},
		{"no transition to not started", EventStatusInProgress, EventStatusNotStarted, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestAllowedFrom(t *testing.T) {
	assert.Equal(t,
		[]EventStatus{EventStatusNotStarted},
		AllowedFrom(EventStatusInProgress))
	assert.Equal(t,
		[]EventStatus{EventStatusNotStarted, EventStatusInProgress},
		AllowedFrom(EventStatusCompleted))
	assert.Equal(t,
		[]EventStatus{EventStatusNotStarted, EventStatusInProgress},
		AllowedFrom(EventStatusCancelled))
	assert.Empty(t, AllowedFrom(EventStatusNotStarted), "nothing moves back to not started")
}
