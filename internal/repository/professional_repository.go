package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/care-scheduling-service/internal/domain"
)

// ProfessionalFilter captures list query parameters.
type ProfessionalFilter struct {
	NameContains *string
	Profession   *domain.Profession
	OrderBy      string
	Descending   bool
	Limit        int
	Offset       int
}

// professionalOrderColumns whitelists caller-specified ordering fields.
var professionalOrderColumns = map[string]string{
	"social_name": "social_name",
	"profession":  "profession",
	"created_at":  "created_at",
	"updated_at":  "updated_at",
}

// ProfessionalRepository encapsulates professional persistence.
type ProfessionalRepository interface {
	Create(ctx context.Context, prof *domain.Professional) error
	Update(ctx context.Context, prof *domain.Professional) error
	GetByID(ctx context.Context, id string) (*domain.Professional, error)
	GetByEmail(ctx context.Context, email string) (*domain.Professional, error)
	List(ctx context.Context, filter ProfessionalFilter) ([]domain.Professional, error)
	Delete(ctx context.Context, id string) error
	CountAppointments(ctx context.Context, id string) (int64, error)
}

type professionalRepository struct {
	pool *pgxpool.Pool
}

// NewProfessionalRepository instantiates repository.
func NewProfessionalRepository(pool *pgxpool.Pool) ProfessionalRepository {
	return &professionalRepository{pool: pool}
}

const professionalColumns = `id, social_name, registered_name, profession, registration_num, specialty,
               email, phone, whatsapp, street, number, complement, district, city, state, postal_code,
               bio, accepts_insurance, consultation_fee, created_at, updated_at`

func (r *professionalRepository) Create(ctx context.Context, prof *domain.Professional) error {
	const query = `
        INSERT INTO professionals (social_name, registered_name, profession, registration_num, specialty,
            email, phone, whatsapp, street, number, complement, district, city, state, postal_code,
            bio, accepts_insurance, consultation_fee)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		prof.SocialName,
		prof.RegisteredName,
		prof.Profession,
		prof.RegistrationNum,
		prof.Specialty,
		prof.Email,
		prof.Phone,
		prof.Whatsapp,
		prof.Address.Street,
		prof.Address.Number,
		prof.Address.Complement,
		prof.Address.District,
		prof.Address.City,
		prof.Address.State,
		prof.Address.PostalCode,
		prof.Bio,
		prof.AcceptsInsurance,
		prof.ConsultationFee,
	).Scan(&prof.ID, &prof.CreatedAt, &prof.UpdatedAt)
}

func (r *professionalRepository) Update(ctx context.Context, prof *domain.Professional) error {
	const query = `
        UPDATE professionals SET social_name=$1, registered_name=$2, profession=$3, registration_num=$4,
            specialty=$5, email=$6, phone=$7, whatsapp=$8, street=$9, number=$10, complement=$11,
            district=$12, city=$13, state=$14, postal_code=$15, bio=$16, accepts_insurance=$17,
            consultation_fee=$18, updated_at=NOW()
        WHERE id=$19`
	cmd, err := r.pool.Exec(ctx, query,
		prof.SocialName,
		prof.RegisteredName,
		prof.Profession,
		prof.RegistrationNum,
		prof.Specialty,
		prof.Email,
		prof.Phone,
		prof.Whatsapp,
		prof.Address.Street,
		prof.Address.Number,
		prof.Address.Complement,
		prof.Address.District,
		prof.Address.City,
		prof.Address.State,
		prof.Address.PostalCode,
		prof.Bio,
		prof.AcceptsInsurance,
		prof.ConsultationFee,
		prof.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *professionalRepository) GetByID(ctx context.Context, id string) (*domain.Professional, error) {
	query := fmt.Sprintf(`SELECT %s FROM professionals WHERE id=$1`, professionalColumns)
	return r.fetchSingle(ctx, query, id)
}

func (r *professionalRepository) GetByEmail(ctx context.Context, email string) (*domain.Professional, error) {
	query := fmt.Sprintf(`SELECT %s FROM professionals WHERE email=$1`, professionalColumns)
	return r.fetchSingle(ctx, query, email)
}

func (r *professionalRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Professional, error) {
	var prof domain.Professional
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&prof.ID,
		&prof.SocialName,
		&prof.RegisteredName,
		&prof.Profession,
		&prof.RegistrationNum,
		&prof.Specialty,
		&prof.Email,
		&prof.Phone,
		&prof.Whatsapp,
		&prof.Address.Street,
		&prof.Address.Number,
		&prof.Address.Complement,
		&prof.Address.District,
		&prof.Address.City,
		&prof.Address.State,
		&prof.Address.PostalCode,
		&prof.Bio,
		&prof.AcceptsInsurance,
		&prof.ConsultationFee,
		&prof.CreatedAt,
		&prof.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &prof, nil
}

func (r *professionalRepository) List(ctx context.Context, filter ProfessionalFilter) ([]domain.Professional, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.NameContains != nil && strings.TrimSpace(*filter.NameContains) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.NameContains)) + "%"
		args = append(args, search)
		clauses = append(clauses, fmt.Sprintf("LOWER(social_name) LIKE $%d", len(args)))
	}
	if filter.Profession != nil {
		args = append(args, *filter.Profession)
		clauses = append(clauses, fmt.Sprintf("profession=$%d", len(args)))
	}

	orderCol, ok := professionalOrderColumns[filter.OrderBy]
	if !ok {
		orderCol = "social_name"
	}
	direction := "ASC"
	if filter.Descending {
		direction = "DESC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM professionals WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		professionalColumns, strings.Join(clauses, " AND "), orderCol, direction, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProfessionals(rows)
}

func (r *professionalRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM professionals WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *professionalRepository) CountAppointments(ctx context.Context, id string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM appointments WHERE professional_id=$1`, id).Scan(&count)
	return count, err
}

func scanProfessionals(rows pgx.Rows) ([]domain.Professional, error) {
	var result []domain.Professional
	for rows.Next() {
		var prof domain.Professional
		if err := rows.Scan(
			&prof.ID,
			&prof.SocialName,
			&prof.RegisteredName,
			&prof.Profession,
			&prof.RegistrationNum,
			&prof.Specialty,
			&prof.Email,
			&prof.Phone,
			&prof.Whatsapp,
			&prof.Address.Street,
			&prof.Address.Number,
			&prof.Address.Complement,
			&prof.Address.District,
			&prof.Address.City,
			&prof.Address.State,
			&prof.Address.PostalCode,
			&prof.Bio,
			&prof.AcceptsInsurance,
			&prof.ConsultationFee,
			&prof.CreatedAt,
			&prof.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, prof)
	}
	return result, rows.Err()
}
