package dto

import (
	"time"

	"github.com/spec-kit/care-scheduling-service/internal/domain"
)

// CreateAppointmentRequest payload.
type CreateAppointmentRequest struct {
	ProfessionalID  string                 `json:"professional_id"`
	ScheduledAt     time.Time              `json:"scheduled_at"`
	DurationMinutes int                    `json:"duration_minutes,omitempty"`
	Type            domain.AppointmentType `json:"type,omitempty"`
	PatientName     string                 `json:"patient_name"`
	PatientPhone    string                 `json:"patient_phone"`
	PatientEmail    string                 `json:"patient_email,omitempty"`
	Reason          string                 `json:"reason,omitempty"`
	Notes           string                 `json:"notes,omitempty"`
	InternalNotes   string                 `json:"internal_notes,omitempty"`
	Fee             *float64               `json:"fee,omitempty"`
}

// UpdateAppointmentRequest uses pointers for PATCH semantics. Status is not
// editable here; lifecycle endpoints own status changes.
type UpdateAppointmentRequest struct {
	ScheduledAt     *time.Time              `json:"scheduled_at"`
	DurationMinutes *int                    `json:"duration_minutes"`
	Type            *domain.AppointmentType `json:"type"`
	PatientName     *string                 `json:"patient_name"`
	PatientPhone    *string                 `json:"patient_phone"`
	PatientEmail    *string                 `json:"patient_email"`
	Reason          *string                 `json:"reason"`
	Notes           *string                 `json:"notes"`
	InternalNotes   *string                 `json:"internal_notes"`
	Fee             *float64                `json:"fee"`
}

// CancelAppointmentRequest payload.
type CancelAppointmentRequest struct {
	Reason     string            `json:"reason"`
	CanceledBy domain.CanceledBy `json:"canceled_by,omitempty"`
}

// RescheduleAppointmentRequest payload.
type RescheduleAppointmentRequest struct {
	ScheduledAt time.Time `json:"scheduled_at"`
}

// AppointmentResponse is the public view. Internal notes never leave the
// service boundary.
type AppointmentResponse struct {
	ID                string                   `json:"id"`
	ProfessionalID    string                   `json:"professional_id"`
	ScheduledAt       time.Time                `json:"scheduled_at"`
	DurationMinutes   int                      `json:"duration_minutes"`
	EndsAt            *time.Time               `json:"ends_at,omitempty"`
	Type              domain.AppointmentType   `json:"type"`
	Status            domain.AppointmentStatus `json:"status"`
	PatientName       string                   `json:"patient_name"`
	PatientPhone      string                   `json:"patient_phone"`
	PatientEmail      string                   `json:"patient_email,omitempty"`
	Reason            string                   `json:"reason,omitempty"`
	Notes             string                   `json:"notes,omitempty"`
	Fee               *float64                 `json:"fee,omitempty"`
	CancelReason      string                   `json:"cancel_reason,omitempty"`
	CanceledBy        domain.CanceledBy        `json:"canceled_by,omitempty"`
	CanceledAt        *time.Time               `json:"canceled_at,omitempty"`
	RescheduledFromID *string                  `json:"rescheduled_from_id,omitempty"`
	CreatedAt         time.Time                `json:"created_at"`
	UpdatedAt         time.Time                `json:"updated_at"`
}
