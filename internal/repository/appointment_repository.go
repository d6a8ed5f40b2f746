package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/care-scheduling-service/internal/domain"
)

// AppointmentFilter captures list query parameters.
type AppointmentFilter struct {
	ProfessionalID *string
	Statuses       []domain.AppointmentStatus
	ScheduledFrom  *time.Time
	ScheduledTo    *time.Time
	OrderBy        string
	Descending     bool
	Limit          int
	Offset         int
}

// appointmentOrderColumns whitelists caller-specified ordering fields.
var appointmentOrderColumns = map[string]string{
	"scheduled_at": "scheduled_at",
	"status":       "status",
	"created_at":   "created_at",
	"updated_at":   "updated_at",
}

// AppointmentRepository encapsulates appointment persistence.
type AppointmentRepository interface {
	Create(ctx context.Context, appt *domain.Appointment) error
	Update(ctx context.Context, appt *domain.Appointment) error
	GetByID(ctx context.Context, id string) (*domain.Appointment, error)
	List(ctx context.Context, filter AppointmentFilter) ([]domain.Appointment, error)
	Delete(ctx context.Context, id string) error
}

type appointmentRepository struct {
	pool *pgxpool.Pool
}

// NewAppointmentRepository instantiates repository.
func NewAppointmentRepository(pool *pgxpool.Pool) AppointmentRepository {
	return &appointmentRepository{pool: pool}
}

const appointmentColumns = `id, professional_id, scheduled_at, duration_minutes, ends_at, type, status,
               patient_name, patient_phone, patient_email, reason, notes, internal_notes, fee,
               cancel_reason, canceled_by, canceled_at, rescheduled_from_id, created_at, updated_at`

func (r *appointmentRepository) Create(ctx context.Context, appt *domain.Appointment) error {
	const query = `
        INSERT INTO appointments (professional_id, scheduled_at, duration_minutes, ends_at, type, status,
            patient_name, patient_phone, patient_email, reason, notes, internal_notes, fee, rescheduled_from_id)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		appt.ProfessionalID,
		appt.ScheduledAt,
		appt.DurationMinutes,
		appt.EndsAt,
		appt.Type,
		appt.Status,
		appt.PatientName,
		appt.PatientPhone,
		appt.PatientEmail,
		appt.Reason,
		appt.Notes,
		appt.InternalNotes,
		appt.Fee,
		appt.RescheduledFromID,
	).Scan(&appt.ID, &appt.CreatedAt, &appt.UpdatedAt)
}

func (r *appointmentRepository) Update(ctx context.Context, appt *domain.Appointment) error {
	const query = `
        UPDATE appointments SET scheduled_at=$1, duration_minutes=$2, ends_at=$3, type=$4, status=$5,
            patient_name=$6, patient_phone=$7, patient_email=$8, reason=$9, notes=$10, internal_notes=$11,
            fee=$12, cancel_reason=$13, canceled_by=$14, canceled_at=$15, updated_at=NOW()
        WHERE id=$16`
	cmd, err := r.pool.Exec(ctx, query,
		appt.ScheduledAt,
		appt.DurationMinutes,
		appt.EndsAt,
		appt.Type,
		appt.Status,
		appt.PatientName,
		appt.PatientPhone,
		appt.PatientEmail,
		appt.Reason,
		appt.Notes,
		appt.InternalNotes,
		appt.Fee,
		appt.CancelReason,
		appt.CanceledBy,
		appt.CanceledAt,
		appt.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *appointmentRepository) GetByID(ctx context.Context, id string) (*domain.Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE id=$1`, appointmentColumns)
	var appt domain.Appointment
	if err := r.pool.QueryRow(ctx, query, id).Scan(scanTargets(&appt)...); err != nil {
		return nil, err
	}
	return &appt, nil
}

func (r *appointmentRepository) List(ctx context.Context, filter AppointmentFilter) ([]domain.Appointment, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ProfessionalID != nil {
		args = append(args, *filter.ProfessionalID)
		clauses = append(clauses, fmt.Sprintf("professional_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.ScheduledFrom != nil {
		args = append(args, *filter.ScheduledFrom)
		clauses = append(clauses, fmt.Sprintf("scheduled_at >= $%d", len(args)))
	}
	if filter.ScheduledTo != nil {
		args = append(args, *filter.ScheduledTo)
		clauses = append(clauses, fmt.Sprintf("scheduled_at <= $%d", len(args)))
	}

	orderCol, ok := appointmentOrderColumns[filter.OrderBy]
	if !ok {
		orderCol = "scheduled_at"
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

	query := fmt.Sprintf(`SELECT %s FROM appointments WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		appointmentColumns, strings.Join(clauses, " AND "), orderCol, direction, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAppointments(rows)
}

func (r *appointmentRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanTargets(appt *domain.Appointment) []any {
	return []any{
		&appt.ID,
		&appt.ProfessionalID,
		&appt.ScheduledAt,
		&appt.DurationMinutes,
		&appt.EndsAt,
		&appt.Type,
		&appt.Status,
		&appt.PatientName,
		&appt.PatientPhone,
		&appt.PatientEmail,
		&appt.Reason,
		&appt.Notes,
		&appt.InternalNotes,
		&appt.Fee,
		&appt.CancelReason,
		&appt.CanceledBy,
		&appt.CanceledAt,
		&appt.RescheduledFromID,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	}
}

func scanAppointments(rows pgx.Rows) ([]domain.Appointment, error) {
	var result []domain.Appointment
	for rows.Next() {
		var appt domain.Appointment
		if err := rows.Scan(scanTargets(&appt)...); err != nil {
			return nil, err
		}
		result = append(result, appt)
	}
	return result, rows.Err()
}
