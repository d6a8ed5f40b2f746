package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/care-scheduling-service/internal/domain"
)

// LoginAttemptRepository records credential presentations for auditing.
type LoginAttemptRepository interface {
	Record(ctx context.Context, attempt *domain.LoginAttempt) error
	CountRecentFailures(ctx context.Context, email string, windowMinutes int) (int64, error)
}

type loginAttemptRepository struct {
	pool *pgxpool.Pool
}

// NewLoginAttemptRepository instantiates repository.
func NewLoginAttemptRepository(pool *pgxpool.Pool) LoginAttemptRepository {
	return &loginAttemptRepository{pool: pool}
}

func (r *loginAttemptRepository) Record(ctx context.Context, attempt *domain.LoginAttempt) error {
	const query = `
        INSERT INTO login_attempts (email, source_ip, user_agent, success, failure_reason)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		attempt.Email,
		attempt.SourceIP,
		attempt.UserAgent,
		attempt.Success,
		attempt.FailureReason,
	).Scan(&attempt.ID, &attempt.CreatedAt)
}

func (r *loginAttemptRepository) CountRecentFailures(ctx context.Context, email string, windowMinutes int) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM login_attempts
         WHERE email=$1 AND success=false AND created_at > NOW() - make_interval(mins => $2)`,
		email, windowMinutes,
	).Scan(&count)
	return count, err
}
