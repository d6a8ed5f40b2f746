package domain

import "time"

// AppointmentStatus enumerates lifecycle states for appointments.
type AppointmentStatus string

const (
	AppointmentStatusScheduled   AppointmentStatus = "SCHEDULED"
	AppointmentStatusConfirmed   AppointmentStatus = "CONFIRMED"
	AppointmentStatusInProgress  AppointmentStatus = "IN_PROGRESS"
	AppointmentStatusCompleted   AppointmentStatus = "COMPLETED"
	AppointmentStatusCanceled    AppointmentStatus = "CANCELED"
	AppointmentStatusNoShow      AppointmentStatus = "NO_SHOW"
	AppointmentStatusRescheduled AppointmentStatus = "RESCHEDULED"
)

// AppointmentType enumerates consultation modes.
type AppointmentType string

const (
	AppointmentTypeInPerson   AppointmentType = "IN_PERSON"
	AppointmentTypeRemote     AppointmentType = "REMOTE"
	AppointmentTypeFollowUp   AppointmentType = "FOLLOW_UP"
	AppointmentTypeFirstVisit AppointmentType = "FIRST_VISIT"
	AppointmentTypeUrgent     AppointmentType = "URGENT"
)

// ValidAppointmentType reports whether t is an accepted value.
func ValidAppointmentType(t AppointmentType) bool {
	switch t {
	case AppointmentTypeInPerson, AppointmentTypeRemote, AppointmentTypeFollowUp,
		AppointmentTypeFirstVisit, AppointmentTypeUrgent:
		return true
	}
	return false
}

// CanceledBy identifies the actor behind a cancellation.
type CanceledBy string

const (
	CanceledByPatient      CanceledBy = "PATIENT"
	CanceledByProfessional CanceledBy = "PROFESSIONAL"
	CanceledBySystem       CanceledBy = "SYSTEM"
)

// transitions encodes the allowed status graph. Terminal states have no entry.
var transitions = map[AppointmentStatus][]AppointmentStatus{
	AppointmentStatusScheduled: {
		AppointmentStatusConfirmed,
		AppointmentStatusCanceled,
		AppointmentStatusRescheduled,
	},
	AppointmentStatusConfirmed: {
		AppointmentStatusInProgress,
		AppointmentStatusCanceled,
		AppointmentStatusNoShow,
		AppointmentStatusRescheduled,
	},
	AppointmentStatusInProgress: {
		AppointmentStatusCompleted,
	},
}

// CanTransition reports whether moving from one status to another is allowed.
func CanTransition(from, to AppointmentStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Appointment is the aggregate for a booked consultation.
type Appointment struct {
	ID                string
	ProfessionalID    string
	ScheduledAt       time.Time
	DurationMinutes   int
	EndsAt            *time.Time
	Type              AppointmentType
	Status            AppointmentStatus
	PatientName       string
	PatientPhone      string
	PatientEmail      string
	Reason            string
	Notes             string
	InternalNotes     string
	Fee               *float64
	CancelReason      string
	CanceledBy        CanceledBy
	CanceledAt        *time.Time
	RescheduledFromID *string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Canceled reports whether the appointment reached a terminal canceled state.
func (a *Appointment) Canceled() bool {
	return a.Status == AppointmentStatusCanceled
}
