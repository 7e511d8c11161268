package service

import (
	"club-scheduler/modules/event/entity"
)

// AdmissionResult is the outcome of attempting to admit one more
// participant into a timeslot.
type AdmissionResult int

const (
	AdmissionAccepted AdmissionResult = iota
	AdmissionWaitlisted
	AdmissionRejected
)

// Admit decides whether one more participant fits in the timeslot: a free
// participant seat accepts, a free waitlist seat waitlists, otherwise the
// timeslot is full.
func Admit(slot entity.Timeslot) AdmissionResult {
	if slot.NumParticipants < slot.MaxParticipants {
		return AdmissionAccepted
	}
	if slot.NumWaitlisted < slot.MaxWaitlist {
		return AdmissionWaitlisted
	}
	return AdmissionRejected
}
