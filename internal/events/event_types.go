package events

import "time"

// EventType names an appointment lifecycle event.
type EventType string

const (
	AppointmentScheduled   EventType = "appointment.scheduled"
	AppointmentConfirmed   EventType = "appointment.confirmed"
	AppointmentCompleted   EventType = "appointment.completed"
	AppointmentCanceled    EventType = "appointment.canceled"
	AppointmentRescheduled EventType = "appointment.rescheduled"
)

// Event carries lifecycle facts to subscribers.
type Event struct {
	Type           EventType
	AppointmentID  string
	ProfessionalID string
	PatientName    string
	ScheduledAt    time.Time
	OccurredAt     time.Time
}
