package dto

import (
	"time"

	"github.com/spec-kit/care-scheduling-service/internal/domain"
)

// AddressPayload mirrors the embedded address on requests and responses.
type AddressPayload struct {
	Street     string `json:"street"`
	Number     string `json:"number"`
	Complement string `json:"complement,omitempty"`
	District   string `json:"district"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
}

// CreateProfessionalRequest payload.
type CreateProfessionalRequest struct {
	SocialName       string            `json:"social_name"`
	RegisteredName   string            `json:"registered_name,omitempty"`
	Profession       domain.Profession `json:"profession"`
	RegistrationNum  string            `json:"registration_num,omitempty"`
	Specialty        string            `json:"specialty,omitempty"`
	Email            string            `json:"email"`
	Phone            string            `json:"phone"`
	Whatsapp         string            `json:"whatsapp,omitempty"`
	Address          AddressPayload    `json:"address"`
	Bio              string            `json:"bio,omitempty"`
	AcceptsInsurance bool              `json:"accepts_insurance"`
	ConsultationFee  *float64          `json:"consultation_fee,omitempty"`
}

// UpdateProfessionalRequest uses pointers so PATCH semantics work: only the
// fields present in the body are applied.
type UpdateProfessionalRequest struct {
	SocialName       *string            `json:"social_name"`
	RegisteredName   *string            `json:"registered_name"`
	Profession       *domain.Profession `json:"profession"`
	RegistrationNum  *string            `json:"registration_num"`
	Specialty        *string            `json:"specialty"`
	Email            *string            `json:"email"`
	Phone            *string            `json:"phone"`
	Whatsapp         *string            `json:"whatsapp"`
	Address          *AddressPayload    `json:"address"`
	Bio              *string            `json:"bio"`
	AcceptsInsurance *bool              `json:"accepts_insurance"`
	ConsultationFee  *float64           `json:"consultation_fee"`
}

// ProfessionalResponse is the public view of a professional.
type ProfessionalResponse struct {
	ID               string            `json:"id"`
	SocialName       string            `json:"social_name"`
	RegisteredName   string            `json:"registered_name,omitempty"`
	Profession       domain.Profession `json:"profession"`
	RegistrationNum  string            `json:"registration_num,omitempty"`
	Specialty        string            `json:"specialty,omitempty"`
	Email            string            `json:"email"`
	Phone            string            `json:"phone"`
	Whatsapp         string            `json:"whatsapp,omitempty"`
	Address          AddressPayload    `json:"address"`
	Bio              string            `json:"bio,omitempty"`
	AcceptsInsurance bool              `json:"accepts_insurance"`
	ConsultationFee  *float64          `json:"consultation_fee,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// ToAddress converts the payload into the domain value.
func (p AddressPayload) ToAddress() domain.Address {
	return domain.Address{
		Street:     p.Street,
		Number:     p.Number,
		Complement: p.Complement,
		District:   p.District,
		City:       p.City,
		State:      p.State,
		PostalCode: p.PostalCode,
	}
}

// FromAddress converts the domain value into the payload form.
func FromAddress(a domain.Address) AddressPayload {
	return AddressPayload{
		Street:     a.Street,
		Number:     a.Number,
		Complement: a.Complement,
		District:   a.District,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
	}
}
