package db

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound means no row is visible to the caller. Rows owned by other
	// users are indistinguishable from rows that do not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned on unique violations.
	ErrConflict = errors.New("conflict")
	// ErrConstraint is returned when a CHECK, NOT NULL or foreign key
	// constraint rejects a write.
	ErrConstraint = errors.New("constraint violation")
)

// ConstraintError carries the name of the violated constraint.
type ConstraintError struct {
	Kind       error
	Constraint string
	Detail     string
}

func (e *ConstraintError) Error() string {
	if e.Constraint == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Constraint)
}

func (e *ConstraintError) Unwrap() error {
	return e.Kind
}

// mapError translates driver errors into package errors.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505": // unique_violation
		return &ConstraintError{Kind: ErrConflict, Constraint: pgErr.ConstraintName, Detail: pgErr.Detail}
	case "23514", "23503", "23502", "22007", "22008", "22003": // check, foreign key, not null, bad date, numeric range
		return &ConstraintError{Kind: ErrConstraint, Constraint: pgErr.ConstraintName, Detail: pgErr.Message}
	case "42501": // insufficient_privilege, raised by RLS WITH CHECK failures
		return ErrNotFound
	}
	return err
}

// IsConstraint reports whether err is a constraint violation.
func IsConstraint(err error) bool {
	return errors.Is(err, ErrConstraint)
}
