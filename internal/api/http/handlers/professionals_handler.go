package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/care-scheduling-service/internal/api/dto"
	"github.com/spec-kit/care-scheduling-service/internal/domain"
	"github.com/spec-kit/care-scheduling-service/internal/repository"
	"github.com/spec-kit/care-scheduling-service/internal/service"
	apperrors "github.com/spec-kit/care-scheduling-service/pkg/util"
)

// ProfessionalsHandler manages professional endpoints.
type ProfessionalsHandler struct {
	service *service.ProfessionalService
}

// NewProfessionalsHandler constructs handler.
func NewProfessionalsHandler(professionalService *service.ProfessionalService) *ProfessionalsHandler {
	return &ProfessionalsHandler{service: professionalService}
}

// Create POST /professionals.
func (h *ProfessionalsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateProfessionalRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	prof, err := h.service.Create(c.UserContext(), service.ProfessionalCreateInput{
		SocialName:       req.SocialName,
		RegisteredName:   req.RegisteredName,
		Profession:       req.Profession,
		RegistrationNum:  req.RegistrationNum,
		Specialty:        req.Specialty,
		Email:            req.Email,
		Phone:            req.Phone,
		Whatsapp:         req.Whatsapp,
		Address:          req.Address.ToAddress(),
		Bio:              req.Bio,
		AcceptsInsurance: req.AcceptsInsurance,
		ConsultationFee:  req.ConsultationFee,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": professionalResponse(prof)})
}

// List GET /professionals.
func (h *ProfessionalsHandler) List(c *fiber.Ctx) error {
	filter := parseProfessionalQuery(c)
	professionals, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.ProfessionalResponse, 0, len(professionals))
	for i := range professionals {
		items = append(items, professionalResponse(&professionals[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /professionals/:id.
func (h *ProfessionalsHandler) Get(c *fiber.Ctx) error {
	prof, err := h.service.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": professionalResponse(prof)})
}

// Update PUT/PATCH /professionals/:id.
func (h *ProfessionalsHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateProfessionalRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.ProfessionalUpdateInput{
		SocialName:       req.SocialName,
		RegisteredName:   req.RegisteredName,
		Profession:       req.Profession,
		RegistrationNum:  req.RegistrationNum,
		Specialty:        req.Specialty,
		Email:            req.Email,
		Phone:            req.Phone,
		Whatsapp:         req.Whatsapp,
		Bio:              req.Bio,
		AcceptsInsurance: req.AcceptsInsurance,
		ConsultationFee:  req.ConsultationFee,
	}
	if req.Address != nil {
		addr := req.Address.ToAddress()
		input.Address = &addr
	}

	prof, err := h.service.Update(c.UserContext(), c.Params("id"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": professionalResponse(prof)})
}

// Delete DELETE /professionals/:id.
func (h *ProfessionalsHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func parseProfessionalQuery(c *fiber.Ctx) repository.ProfessionalFilter {
	filter := repository.ProfessionalFilter{}
	if name := strings.TrimSpace(c.Query("name")); name != "" {
		filter.NameContains = &name
	}
	if prof := strings.TrimSpace(c.Query("profession")); prof != "" {
		p := domain.Profession(strings.ToUpper(prof))
		filter.Profession = &p
	}
	filter.OrderBy, filter.Descending = parseOrderBy(c.Query("order_by"))
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

// parseOrderBy accepts "field" or "-field" for descending order.
func parseOrderBy(val string) (string, bool) {
	val = strings.TrimSpace(val)
	if val == "" {
		return "", false
	}
	if strings.HasPrefix(val, "-") {
		return strings.TrimPrefix(val, "-"), true
	}
	return val, false
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func professionalResponse(prof *domain.Professional) dto.ProfessionalResponse {
	return dto.ProfessionalResponse{
		ID:               prof.ID,
		SocialName:       prof.SocialName,
		RegisteredName:   prof.RegisteredName,
		Profession:       prof.Profession,
		RegistrationNum:  prof.RegistrationNum,
		Specialty:        prof.Specialty,
		Email:            prof.Email,
		Phone:            prof.Phone,
		Whatsapp:         prof.Whatsapp,
		Address:          dto.FromAddress(prof.Address),
		Bio:              prof.Bio,
		AcceptsInsurance: prof.AcceptsInsurance,
		ConsultationFee:  prof.ConsultationFee,
		CreatedAt:        prof.CreatedAt,
		UpdatedAt:        prof.UpdatedAt,
	}
}
