package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/care-scheduling-service/internal/api/dto"
	"github.com/spec-kit/care-scheduling-service/internal/domain"
	"github.com/spec-kit/care-scheduling-service/internal/repository"
	"github.com/spec-kit/care-scheduling-service/internal/service"
	apperrors "github.com/spec-kit/care-scheduling-service/pkg/util"
)

// AppointmentsHandler manages appointment endpoints, including the lifecycle
// actions that move an appointment through its status graph.
type AppointmentsHandler struct {
	service *service.AppointmentService
}

// NewAppointmentsHandler constructs handler.
func NewAppointmentsHandler(appointmentService *service.AppointmentService) *AppointmentsHandler {
	return &AppointmentsHandler{service: appointmentService}
}

// Create POST /appointments.
func (h *AppointmentsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	appt, err := h.service.Create(c.UserContext(), service.AppointmentCreateInput{
		ProfessionalID:  req.ProfessionalID,
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		Type:            req.Type,
		PatientName:     req.PatientName,
		PatientPhone:    req.PatientPhone,
		PatientEmail:    req.PatientEmail,
		Reason:          req.Reason,
		Notes:           req.Notes,
		InternalNotes:   req.InternalNotes,
		Fee:             req.Fee,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": appointmentResponse(appt)})
}

// List GET /appointments.
func (h *AppointmentsHandler) List(c *fiber.Ctx) error {
	filter := parseAppointmentQuery(c)
	appointments, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.AppointmentResponse, 0, len(appointments))
	for i := range appointments {
		items = append(items, appointmentResponse(&appointments[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /appointments/:id.
func (h *AppointmentsHandler) Get(c *fiber.Ctx) error {
	appt, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentResponse(appt)})
}

// Update PUT/PATCH /appointments/:id.
func (h *AppointmentsHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	appt, err := h.service.Update(c.UserContext(), c.Params("id"), service.AppointmentUpdateInput{
		ScheduledAt:     req.ScheduledAt,
		DurationMinutes: req.DurationMinutes,
		Type:            req.Type,
		PatientName:     req.PatientName,
		PatientPhone:    req.PatientPhone,
		PatientEmail:    req.PatientEmail,
		Reason:          req.Reason,
		Notes:           req.Notes,
		InternalNotes:   req.InternalNotes,
		Fee:             req.Fee,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentResponse(appt)})
}

// Delete DELETE /appointments/:id.
func (h *AppointmentsHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Confirm POST /appointments/:id/confirm.
func (h *AppointmentsHandler) Confirm(c *fiber.Ctx) error {
	appt, err := h.service.Confirm(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentResponse(appt)})
}

// Start POST /appointments/:id/start.
func (h *AppointmentsHandler) Start(c *fiber.Ctx) error {
	appt, err := h.service.Start(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentResponse(appt)})
}

// NoShow POST /appointments/:id/no-show.
func (h *AppointmentsHandler) NoShow(c *fiber.Ctx) error {
	appt, err := h.service.MarkNoShow(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentResponse(appt)})
}

// Complete POST /appointments/:id/complete.
func (h *AppointmentsHandler) Complete(c *fiber.Ctx) error {
	appt, err := h.service.Complete(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentResponse(appt)})
}

// Cancel POST /appointments/:id/cancel.
func (h *AppointmentsHandler) Cancel(c *fiber.Ctx) error {
	var req dto.CancelAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	appt, err := h.service.Cancel(c.UserContext(), c.Params("id"), req.Reason, req.CanceledBy)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": appointmentResponse(appt)})
}

// Reschedule POST /appointments/:id/reschedule.
func (h *AppointmentsHandler) Reschedule(c *fiber.Ctx) error {
	var req dto.RescheduleAppointmentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	appt, err := h.service.Reschedule(c.UserContext(), c.Params("id"), req.ScheduledAt)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": appointmentResponse(appt)})
}

func parseAppointmentQuery(c *fiber.Ctx) repository.AppointmentFilter {
	filter := repository.AppointmentFilter{}
	if id := strings.TrimSpace(c.Query("professional_id")); id != "" {
		filter.ProfessionalID = &id
	}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.AppointmentStatus(strings.ToUpper(strings.TrimSpace(part))))
		}
	}
	if from := parseTime(c.Query("scheduled_from")); from != nil {
		filter.ScheduledFrom = from
	}
	if to := parseTime(c.Query("scheduled_to")); to != nil {
		filter.ScheduledTo = to
	}
	filter.OrderBy, filter.Descending = parseOrderBy(c.Query("order_by"))
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func appointmentResponse(appt *domain.Appointment) dto.AppointmentResponse {
	return dto.AppointmentResponse{
		ID:                appt.ID,
		ProfessionalID:    appt.ProfessionalID,
		ScheduledAt:       appt.ScheduledAt,
		DurationMinutes:   appt.DurationMinutes,
		EndsAt:            appt.EndsAt,
		Type:              appt.Type,
		Status:            appt.Status,
		PatientName:       appt.PatientName,
		PatientPhone:      appt.PatientPhone,
		PatientEmail:      appt.PatientEmail,
		Reason:            appt.Reason,
		Notes:             appt.Notes,
		Fee:               appt.Fee,
		CancelReason:      appt.CancelReason,
		CanceledBy:        appt.CanceledBy,
		CanceledAt:        appt.CanceledAt,
		RescheduledFromID: appt.RescheduledFromID,
		CreatedAt:         appt.CreatedAt,
		UpdatedAt:         appt.UpdatedAt,
	}
}
