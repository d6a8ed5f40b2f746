package domain

import "time"

// RefreshToken stores the hashed form of an issued refresh token.
// The raw token never touches the database.
type RefreshToken struct {
	ID         string
	UserID     string
	TokenHash  string
	ExpiresAt  time.Time
	Revoked    bool
	ReplacedBy *string
	CreatedAt  time.Time
}

// LoginAttempt records every credential presentation for auditing.
type LoginAttempt struct {
	ID            string
	Email         string
	SourceIP      string
	UserAgent     string
	Success       bool
	FailureReason string
	CreatedAt     time.Time
}
