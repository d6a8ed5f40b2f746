package service

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/care-scheduling-service/internal/domain"
	"github.com/spec-kit/care-scheduling-service/internal/repository"
	"github.com/spec-kit/care-scheduling-service/internal/validation"
	apperrors "github.com/spec-kit/care-scheduling-service/pkg/util"
)

// ProfessionalCreateInput carries validated creation fields.
type ProfessionalCreateInput struct {
	SocialName       string
	RegisteredName   string
	Profession       domain.Profession
	RegistrationNum  string
	Specialty        string
	Email            string
	Phone            string
	Whatsapp         string
	Address          domain.Address
	Bio              string
	AcceptsInsurance bool
	ConsultationFee  *float64
}

// ProfessionalUpdateInput uses pointers so partial updates only touch
// provided fields.
type ProfessionalUpdateInput struct {
	SocialName       *string
	RegisteredName   *string
	Profession       *domain.Profession
	RegistrationNum  *string
	Specialty        *string
	Email            *string
	Phone            *string
	Whatsapp         *string
	Address          *domain.Address
	Bio              *string
	AcceptsInsurance *bool
	ConsultationFee  *float64
}

// ProfessionalService owns professional business rules.
type ProfessionalService struct {
	professionals repository.ProfessionalRepository
}

// NewProfessionalService builds the service.
func NewProfessionalService(professionals repository.ProfessionalRepository) *ProfessionalService {
	return &ProfessionalService{professionals: professionals}
}

// Create validates every field, aggregating all errors into one response.
func (s *ProfessionalService) Create(ctx context.Context, input ProfessionalCreateInput) (*domain.Professional, error) {
	fieldErrs := validateProfessionalFields(input)
	if !fieldErrs.Empty() {
		return nil, apperrors.NewValidationError("invalid professional payload", fieldErrs.Details())
	}

	email := validation.NormalizeEmail(input.Email)
	if _, err := s.professionals.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already in use", map[string]any{"email": email})
	} else if err != pgx.ErrNoRows {
		return nil, err
	}

	prof := &domain.Professional{
		SocialName:       validation.CollapseSpaces(input.SocialName),
		RegisteredName:   validation.CollapseSpaces(input.RegisteredName),
		Profession:       input.Profession,
		RegistrationNum:  strings.TrimSpace(input.RegistrationNum),
		Specialty:        strings.TrimSpace(input.Specialty),
		Email:            email,
		Phone:            validation.NormalizePhone(input.Phone),
		Whatsapp:         normalizeOptionalPhone(input.Whatsapp),
		Address:          normalizeAddress(input.Address),
		Bio:              strings.TrimSpace(input.Bio),
		AcceptsInsurance: input.AcceptsInsurance,
		ConsultationFee:  input.ConsultationFee,
	}
	if err := s.professionals.Create(ctx, prof); err != nil {
		return nil, err
	}
	return prof, nil
}

// Get fetches a professional by id.
func (s *ProfessionalService) Get(ctx context.Context, id string) (*domain.Professional, error) {
	prof, err := s.professionals.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("professional", map[string]any{"id": id})
		}
		return nil, err
	}
	return prof, nil
}

// List returns professionals matching the filter.
func (s *ProfessionalService) List(ctx context.Context, filter repository.ProfessionalFilter) ([]domain.Professional, error) {
	return s.professionals.List(ctx, filter)
}

// Update applies a full or partial update through the same validation path.
func (s *ProfessionalService) Update(ctx context.Context, id string, input ProfessionalUpdateInput) (*domain.Professional, error) {
	prof, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	prevEmail := prof.Email

	applyProfessionalUpdate(prof, input)

	fieldErrs := validateProfessionalFields(ProfessionalCreateInput{
		SocialName:      prof.SocialName,
		Profession:      prof.Profession,
		RegistrationNum: prof.RegistrationNum,
		Email:           prof.Email,
		Phone:           prof.Phone,
		Whatsapp:        prof.Whatsapp,
		Address:         prof.Address,
		Bio:             prof.Bio,
		ConsultationFee: prof.ConsultationFee,
	})
	if !fieldErrs.Empty() {
		return nil, apperrors.NewValidationError("invalid professional payload", fieldErrs.Details())
	}

	prof.SocialName = validation.CollapseSpaces(prof.SocialName)
	prof.RegisteredName = validation.CollapseSpaces(prof.RegisteredName)
	prof.RegistrationNum = strings.TrimSpace(prof.RegistrationNum)
	prof.Specialty = strings.TrimSpace(prof.Specialty)
	prof.Bio = strings.TrimSpace(prof.Bio)
	prof.Email = validation.NormalizeEmail(prof.Email)
	prof.Phone = validation.NormalizePhone(prof.Phone)
	prof.Whatsapp = normalizeOptionalPhone(prof.Whatsapp)
	prof.Address = normalizeAddress(prof.Address)

	if prof.Email != prevEmail {
		if _, err := s.professionals.GetByEmail(ctx, prof.Email); err == nil {
			return nil, apperrors.NewConflict("email already in use", map[string]any{"email": prof.Email})
		} else if err != pgx.ErrNoRows {
			return nil, err
		}
	}

	if err := s.professionals.Update(ctx, prof); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("professional", map[string]any{"id": id})
		}
		return nil, err
	}
	return prof, nil
}

// Delete removes a professional. A professional still referenced by
// appointments is protected: callers get a validation error rather than a
// cascade (restrict policy).
func (s *ProfessionalService) Delete(ctx context.Context, id string) error {
	count, err := s.professionals.CountAppointments(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperrors.NewValidationError("professional has appointments and cannot be deleted",
			map[string]any{"appointment_count": count})
	}

	if err := s.professionals.Delete(ctx, id); err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("professional", map[string]any{"id": id})
		}
		return err
	}
	return nil
}

func validateProfessionalFields(input ProfessionalCreateInput) validation.FieldErrors {
	fieldErrs := validation.FieldErrors{}

	if !validation.ValidName(input.SocialName) {
		fieldErrs.Add("social_name", "must be 2-150 letters, spaces, hyphens or apostrophes")
	}
	if !domain.ValidProfession(input.Profession) {
		fieldErrs.Add("profession", "unknown profession")
	}
	if input.RegistrationNum != "" && len(strings.TrimSpace(input.RegistrationNum)) < 3 {
		fieldErrs.Add("registration_num", "too short")
	}
	if !validation.ValidEmail(input.Email) {
		fieldErrs.Add("email", "invalid email format")
	}
	if !validation.ValidPhone(input.Phone) {
		fieldErrs.Add("phone", "must be a valid phone with area code")
	}
	if input.Whatsapp != "" && !validation.ValidPhone(input.Whatsapp) {
		fieldErrs.Add("whatsapp", "must be a valid phone with area code")
	}
	if strings.TrimSpace(input.Address.Street) == "" {
		fieldErrs.Add("address.street", "required")
	}
	if strings.TrimSpace(input.Address.Number) == "" {
		fieldErrs.Add("address.number", "required")
	}
	if strings.TrimSpace(input.Address.District) == "" {
		fieldErrs.Add("address.district", "required")
	}
	if strings.TrimSpace(input.Address.City) == "" {
		fieldErrs.Add("address.city", "required")
	}
	if !validation.ValidState(input.Address.State) {
		fieldErrs.Add("address.state", "must be a two-letter state code")
	}
	if !validation.ValidPostalCode(input.Address.PostalCode) {
		fieldErrs.Add("address.postal_code", "must match 00000-000")
	}
	if len(input.Bio) > 1000 {
		fieldErrs.Add("bio", "must have at most 1000 characters")
	}
	if input.ConsultationFee != nil {
		if *input.ConsultationFee < 0 {
			fieldErrs.Add("consultation_fee", "must not be negative")
		}
		if *input.ConsultationFee > 999999.99 {
			fieldErrs.Add("consultation_fee", "too high")
		}
	}

	return fieldErrs
}

func applyProfessionalUpdate(prof *domain.Professional, input ProfessionalUpdateInput) {
	if input.SocialName != nil {
		prof.SocialName = *input.SocialName
	}
	if input.RegisteredName != nil {
		prof.RegisteredName = *input.RegisteredName
	}
	if input.Profession != nil {
		prof.Profession = *input.Profession
	}
	if input.RegistrationNum != nil {
		prof.RegistrationNum = *input.RegistrationNum
	}
	if input.Specialty != nil {
		prof.Specialty = *input.Specialty
	}
	if input.Email != nil {
		prof.Email = *input.Email
	}
	if input.Phone != nil {
		prof.Phone = *input.Phone
	}
	if input.Whatsapp != nil {
		prof.Whatsapp = *input.Whatsapp
	}
	if input.Address != nil {
		prof.Address = *input.Address
	}
	if input.Bio != nil {
		prof.Bio = *input.Bio
	}
	if input.AcceptsInsurance != nil {
		prof.AcceptsInsurance = *input.AcceptsInsurance
	}
	if input.ConsultationFee != nil {
		prof.ConsultationFee = input.ConsultationFee
	}
}

func normalizeOptionalPhone(phone string) string {
	if strings.TrimSpace(phone) == "" {
		return ""
	}
	return validation.NormalizePhone(phone)
}

func normalizeAddress(addr domain.Address) domain.Address {
	addr.Street = validation.CollapseSpaces(addr.Street)
	addr.Number = strings.TrimSpace(addr.Number)
	addr.Complement = validation.CollapseSpaces(addr.Complement)
	addr.District = validation.CollapseSpaces(addr.District)
	addr.City = validation.CollapseSpaces(addr.City)
	addr.State = strings.ToUpper(strings.TrimSpace(addr.State))
	addr.PostalCode = validation.NormalizePostalCode(addr.PostalCode)
	return addr
}
