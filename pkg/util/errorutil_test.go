package util

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestToDomainErrorPassesThroughDomainErrors(t *testing.T) {
	original := NewConflict("email already in use", nil)

	mapped := ToDomainError(fmt.Errorf("update professional: %w", original))
	if mapped.Code != "CONFLICT" || mapped.HTTPStatus != http.StatusConflict {
		t.Fatalf("wrapped domain errors must survive mapping, got %s/%d", mapped.Code, mapped.HTTPStatus)
	}
}

func TestToDomainErrorMapsUniqueViolationToConflict(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "professionals_email_key"}

	mapped := ToDomainError(fmt.Errorf("exec update: %w", pgErr))
	if mapped.Code != "CONFLICT" {
		t.Fatalf("unique violations must map to CONFLICT, got %s", mapped.Code)
	}
	if mapped.HTTPStatus != http.StatusConflict {
		t.Fatalf("expected 409, got %d", mapped.HTTPStatus)
	}
	if mapped.Details["constraint"] != "professionals_email_key" {
		t.Errorf("details must name the violated constraint, got %v", mapped.Details)
	}
}

func TestToDomainErrorDefaultsToInternal(t *testing.T) {
	mapped := ToDomainError(errors.New("connection reset"))
	if mapped.Code != "INTERNAL_ERROR" || mapped.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unknown errors must map to INTERNAL_ERROR 500, got %s/%d", mapped.Code, mapped.HTTPStatus)
	}
	if mapped.Message != "internal server error" {
		t.Errorf("internal errors must not leak causes, got %q", mapped.Message)
	}
}
