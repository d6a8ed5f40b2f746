package domain

import "time"

// Profession enumerates recognized practice areas.
type Profession string

const (
	ProfessionMedic                 Profession = "MEDIC"
	ProfessionNurse                 Profession = "NURSE"
	ProfessionPsychologist          Profession = "PSYCHOLOGIST"
	ProfessionPhysiotherapist       Profession = "PHYSIOTHERAPIST"
	ProfessionNutritionist          Profession = "NUTRITIONIST"
	ProfessionDentist               Profession = "DENTIST"
	ProfessionSpeechTherapist       Profession = "SPEECH_THERAPIST"
	ProfessionOccupationalTherapist Profession = "OCCUPATIONAL_THERAPIST"
	ProfessionPharmacist            Profession = "PHARMACIST"
	ProfessionSocialWorker          Profession = "SOCIAL_WORKER"
	ProfessionOther                 Profession = "OTHER"
)

// KnownProfessions lists every accepted profession value.
var KnownProfessions = []Profession{
	ProfessionMedic,
	ProfessionNurse,
	ProfessionPsychologist,
	ProfessionPhysiotherapist,
	ProfessionNutritionist,
	ProfessionDentist,
	ProfessionSpeechTherapist,
	ProfessionOccupationalTherapist,
	ProfessionPharmacist,
	ProfessionSocialWorker,
	ProfessionOther,
}

// ValidProfession reports whether p is an accepted value.
func ValidProfession(p Profession) bool {
	for _, known := range KnownProfessions {
		if p == known {
			return true
		}
	}
	return false
}

// Address is the practice address embedded in a professional record.
type Address struct {
	Street     string
	Number     string
	Complement string
	District   string
	City       string
	State      string
	PostalCode string
}

// Professional is the aggregate for care providers.
type Professional struct {
	ID               string
	SocialName       string
	RegisteredName   string
	Profession       Profession
	RegistrationNum  string
	Specialty        string
	Email            string
	Phone            string
	Whatsapp         string
	Address          Address
	Bio              string
	AcceptsInsurance bool
	ConsultationFee  *float64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
