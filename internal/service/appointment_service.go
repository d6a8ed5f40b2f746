package service

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/care-scheduling-service/internal/domain"
	"github.com/spec-kit/care-scheduling-service/internal/events"
	"github.com/spec-kit/care-scheduling-service/internal/repository"
	"github.com/spec-kit/care-scheduling-service/internal/validation"
	apperrors "github.com/spec-kit/care-scheduling-service/pkg/util"
)

// AppointmentCreateInput carries validated creation fields.
type AppointmentCreateInput struct {
	ProfessionalID  string
	ScheduledAt     time.Time
	DurationMinutes int
	Type            domain.AppointmentType
	PatientName     string
	PatientPhone    string
	PatientEmail    string
	Reason          string
	Notes           string
	InternalNotes   string
	Fee             *float64
}

// AppointmentUpdateInput uses pointers so partial updates only touch
// provided fields. Status changes go through the lifecycle actions, not here.
type AppointmentUpdateInput struct {
	ScheduledAt     *time.Time
	DurationMinutes *int
	Type            *domain.AppointmentType
	PatientName     *string
	PatientPhone    *string
	PatientEmail    *string
	Reason          *string
	Notes           *string
	InternalNotes   *string
	Fee             *float64
}

// AppointmentService owns appointment business rules and lifecycle.
type AppointmentService struct {
	appointments  repository.AppointmentRepository
	professionals repository.ProfessionalRepository
	dispatcher    events.Dispatcher
}

// NewAppointmentService builds the service.
func NewAppointmentService(appointments repository.AppointmentRepository, professionals repository.ProfessionalRepository, dispatcher events.Dispatcher) *AppointmentService {
	return &AppointmentService{
		appointments:  appointments,
		professionals: professionals,
		dispatcher:    dispatcher,
	}
}

// Create validates the payload and the referenced professional's existence.
func (s *AppointmentService) Create(ctx context.Context, input AppointmentCreateInput) (*domain.Appointment, error) {
	fieldErrs := validateAppointmentFields(input)
	if !fieldErrs.Empty() {
		return nil, apperrors.NewValidationError("invalid appointment payload", fieldErrs.Details())
	}

	if _, err := s.professionals.GetByID(ctx, input.ProfessionalID); err != nil {
		if err == pgx.ErrNoRows {
			fieldErrs.Add("professional_id", "professional does not exist")
			return nil, apperrors.NewValidationError("invalid appointment payload", fieldErrs.Details())
		}
		return nil, err
	}

	duration := input.DurationMinutes
	if duration == 0 {
		duration = 60
	}
	endsAt := input.ScheduledAt.Add(time.Duration(duration) * time.Minute)

	apptType := input.Type
	if apptType == "" {
		apptType = domain.AppointmentTypeFirstVisit
	}

	appt := &domain.Appointment{
		ProfessionalID:  input.ProfessionalID,
		ScheduledAt:     input.ScheduledAt,
		DurationMinutes: duration,
		EndsAt:          &endsAt,
		Type:            apptType,
		Status:          domain.AppointmentStatusScheduled,
		PatientName:     validation.CollapseSpaces(input.PatientName),
		PatientPhone:    validation.NormalizePhone(input.PatientPhone),
		PatientEmail:    validation.NormalizeEmail(input.PatientEmail),
		Reason:          strings.TrimSpace(input.Reason),
		Notes:           strings.TrimSpace(input.Notes),
		InternalNotes:   strings.TrimSpace(input.InternalNotes),
		Fee:             input.Fee,
	}
	if err := s.appointments.Create(ctx, appt); err != nil {
		return nil, err
	}

	s.publish(ctx, events.AppointmentScheduled, appt)
	return appt, nil
}

// Get fetches an appointment by id.
func (s *AppointmentService) Get(ctx context.Context, id string) (*domain.Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("appointment", map[string]any{"id": id})
		}
		return nil, err
	}
	return appt, nil
}

// List returns appointments matching the filter. A professional with no
// appointments yields an empty list, not an error.
func (s *AppointmentService) List(ctx context.Context, filter repository.AppointmentFilter) ([]domain.Appointment, error) {
	return s.appointments.List(ctx, filter)
}

// Update applies a full or partial update to a non-terminal appointment.
func (s *AppointmentService) Update(ctx context.Context, id string, input AppointmentUpdateInput) (*domain.Appointment, error) {
	appt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if appt.Status != domain.AppointmentStatusScheduled && appt.Status != domain.AppointmentStatusConfirmed {
		return nil, apperrors.NewValidationError("only scheduled or confirmed appointments can be edited",
			map[string]any{"status": appt.Status})
	}

	applyAppointmentUpdate(appt, input)

	fieldErrs := validation.FieldErrors{}
	if appt.ScheduledAt.IsZero() {
		fieldErrs.Add("scheduled_at", "required")
	}
	if appt.DurationMinutes <= 0 {
		fieldErrs.Add("duration_minutes", "must be positive")
	}
	if !domain.ValidAppointmentType(appt.Type) {
		fieldErrs.Add("type", "unknown appointment type")
	}
	if !validation.ValidName(appt.PatientName) {
		fieldErrs.Add("patient_name", "must be 2-150 letters")
	}
	if !validation.ValidPhone(appt.PatientPhone) {
		fieldErrs.Add("patient_phone", "must be a valid phone with area code")
	}
	if appt.PatientEmail != "" && !validation.ValidEmail(appt.PatientEmail) {
		fieldErrs.Add("patient_email", "invalid email format")
	}
	if !fieldErrs.Empty() {
		return nil, apperrors.NewValidationError("invalid appointment payload", fieldErrs.Details())
	}

	endsAt := appt.ScheduledAt.Add(time.Duration(appt.DurationMinutes) * time.Minute)
	appt.EndsAt = &endsAt
	appt.PatientPhone = validation.NormalizePhone(appt.PatientPhone)

	if err := s.appointments.Update(ctx, appt); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("appointment", map[string]any{"id": id})
		}
		return nil, err
	}
	return appt, nil
}

// Delete removes an appointment. Deleting an absent id reports NotFound.
func (s *AppointmentService) Delete(ctx context.Context, id string) error {
	if err := s.appointments.Delete(ctx, id); err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("appointment", map[string]any{"id": id})
		}
		return err
	}
	return nil
}

// Confirm moves SCHEDULED → CONFIRMED.
func (s *AppointmentService) Confirm(ctx context.Context, id string) (*domain.Appointment, error) {
	appt, err := s.transition(ctx, id, domain.AppointmentStatusConfirmed)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events.AppointmentConfirmed, appt)
	return appt, nil
}

// Start moves CONFIRMED → IN_PROGRESS.
func (s *AppointmentService) Start(ctx context.Context, id string) (*domain.Appointment, error) {
	return s.transition(ctx, id, domain.AppointmentStatusInProgress)
}

// MarkNoShow records that a confirmed patient never arrived.
func (s *AppointmentService) MarkNoShow(ctx context.Context, id string) (*domain.Appointment, error) {
	return s.transition(ctx, id, domain.AppointmentStatusNoShow)
}

// Complete moves IN_PROGRESS → COMPLETED and records the real end time.
func (s *AppointmentService) Complete(ctx context.Context, id string) (*domain.Appointment, error) {
	appt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(appt.Status, domain.AppointmentStatusCompleted) {
		return nil, invalidTransition(appt.Status, domain.AppointmentStatusCompleted)
	}

	now := time.Now()
	appt.Status = domain.AppointmentStatusCompleted
	appt.EndsAt = &now
	if err := s.appointments.Update(ctx, appt); err != nil {
		return nil, err
	}
	s.publish(ctx, events.AppointmentCompleted, appt)
	return appt, nil
}

// Cancel moves to CANCELED; a reason and actor are mandatory.
func (s *AppointmentService) Cancel(ctx context.Context, id, reason string, by domain.CanceledBy) (*domain.Appointment, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, apperrors.NewValidationError("cancel reason is required",
			map[string]any{"reason": []string{"required"}})
	}
	if by == "" {
		by = domain.CanceledBySystem
	}

	appt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(appt.Status, domain.AppointmentStatusCanceled) {
		return nil, invalidTransition(appt.Status, domain.AppointmentStatusCanceled)
	}

	now := time.Now()
	appt.Status = domain.AppointmentStatusCanceled
	appt.CancelReason = strings.TrimSpace(reason)
	appt.CanceledBy = by
	appt.CanceledAt = &now
	if err := s.appointments.Update(ctx, appt); err != nil {
		return nil, err
	}
	s.publish(ctx, events.AppointmentCanceled, appt)
	return appt, nil
}

// Reschedule marks the original RESCHEDULED and books a linked replacement.
func (s *AppointmentService) Reschedule(ctx context.Context, id string, newScheduledAt time.Time) (*domain.Appointment, error) {
	if !newScheduledAt.After(time.Now()) {
		return nil, apperrors.NewValidationError("new date must be in the future",
			map[string]any{"scheduled_at": []string{"must be in the future"}})
	}

	appt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(appt.Status, domain.AppointmentStatusRescheduled) {
		return nil, invalidTransition(appt.Status, domain.AppointmentStatusRescheduled)
	}

	prevStatus := appt.Status
	appt.Status = domain.AppointmentStatusRescheduled
	if err := s.appointments.Update(ctx, appt); err != nil {
		return nil, err
	}

	endsAt := newScheduledAt.Add(time.Duration(appt.DurationMinutes) * time.Minute)
	replacement := &domain.Appointment{
		ProfessionalID:    appt.ProfessionalID,
		ScheduledAt:       newScheduledAt,
		DurationMinutes:   appt.DurationMinutes,
		EndsAt:            &endsAt,
		Type:              appt.Type,
		Status:            domain.AppointmentStatusScheduled,
		PatientName:       appt.PatientName,
		PatientPhone:      appt.PatientPhone,
		PatientEmail:      appt.PatientEmail,
		Reason:            appt.Reason,
		Notes:             appt.Notes,
		InternalNotes:     appt.InternalNotes,
		Fee:               appt.Fee,
		RescheduledFromID: &appt.ID,
	}
	if err := s.appointments.Create(ctx, replacement); err != nil {
		// Booking failed; put the original back so it stays actionable.
		appt.Status = prevStatus
		_ = s.appointments.Update(ctx, appt)
		return nil, err
	}

	s.publish(ctx, events.AppointmentRescheduled, replacement)
	return replacement, nil
}

func (s *AppointmentService) transition(ctx context.Context, id string, to domain.AppointmentStatus) (*domain.Appointment, error) {
	appt, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanTransition(appt.Status, to) {
		return nil, invalidTransition(appt.Status, to)
	}

	appt.Status = to
	if err := s.appointments.Update(ctx, appt); err != nil {
		return nil, err
	}
	return appt, nil
}

func (s *AppointmentService) publish(ctx context.Context, eventType events.EventType, appt *domain.Appointment) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		Type:           eventType,
		AppointmentID:  appt.ID,
		ProfessionalID: appt.ProfessionalID,
		PatientName:    appt.PatientName,
		ScheduledAt:    appt.ScheduledAt,
		OccurredAt:     time.Now(),
	})
}

func invalidTransition(from, to domain.AppointmentStatus) error {
	return apperrors.NewValidationError("invalid status transition",
		map[string]any{"from": from, "to": to})
}

func validateAppointmentFields(input AppointmentCreateInput) validation.FieldErrors {
	fieldErrs := validation.FieldErrors{}

	if strings.TrimSpace(input.ProfessionalID) == "" {
		fieldErrs.Add("professional_id", "required")
	}
	if input.ScheduledAt.IsZero() {
		fieldErrs.Add("scheduled_at", "required")
	} else if !input.ScheduledAt.After(time.Now()) {
		fieldErrs.Add("scheduled_at", "must be in the future")
	}
	if input.DurationMinutes < 0 {
		fieldErrs.Add("duration_minutes", "must be positive")
	}
	if input.Type != "" && !domain.ValidAppointmentType(input.Type) {
		fieldErrs.Add("type", "unknown appointment type")
	}
	if !validation.ValidName(input.PatientName) {
		fieldErrs.Add("patient_name", "must be 2-150 letters")
	}
	if !validation.ValidPhone(input.PatientPhone) {
		fieldErrs.Add("patient_phone", "must be a valid phone with area code")
	}
	if input.PatientEmail != "" && !validation.ValidEmail(input.PatientEmail) {
		fieldErrs.Add("patient_email", "invalid email format")
	}
	if len(input.Reason) > 500 {
		fieldErrs.Add("reason", "must have at most 500 characters")
	}
	if len(input.Notes) > 1000 {
		fieldErrs.Add("notes", "must have at most 1000 characters")
	}
	if input.Fee != nil && *input.Fee < 0 {
		fieldErrs.Add("fee", "must not be negative")
	}

	return fieldErrs
}

func applyAppointmentUpdate(appt *domain.Appointment, input AppointmentUpdateInput) {
	if input.ScheduledAt != nil {
		appt.ScheduledAt = *input.ScheduledAt
	}
	if input.DurationMinutes != nil {
		appt.DurationMinutes = *input.DurationMinutes
	}
	if input.Type != nil {
		appt.Type = *input.Type
	}
	if input.PatientName != nil {
		appt.PatientName = *input.PatientName
	}
	if input.PatientPhone != nil {
		appt.PatientPhone = *input.PatientPhone
	}
	if input.PatientEmail != nil {
		appt.PatientEmail = *input.PatientEmail
	}
	if input.Reason != nil {
		appt.Reason = *input.Reason
	}
	if input.Notes != nil {
		appt.Notes = *input.Notes
	}
	if input.InternalNotes != nil {
		appt.InternalNotes = *input.InternalNotes
	}
	if input.Fee != nil {
		appt.Fee = input.Fee
	}
}
