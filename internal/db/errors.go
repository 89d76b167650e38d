package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorClass groups Postgres errors by how a writer should react.
type ErrorClass int

const (
	// ClassOther is anything not attributable to the record itself.
	ClassOther ErrorClass = iota
	// ClassDuplicate is a unique constraint violation (23505).
	ClassDuplicate
	// ClassValidation covers data exceptions (22xxx) and other integrity
	// violations (23xxx).
	ClassValidation
)

func (c ErrorClass) String() string {
	switch c {
	case ClassDuplicate:
		return "duplicate"
	case ClassValidation:
		return "validation"
	default:
		return "other"
	}
}

// Classify inspects err for a Postgres error code.
func Classify(err error) ErrorClass {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return ClassOther
	}
	if pgErr.Code == "23505" {
		return ClassDuplicate
	}
	if len(pgErr.Code) == 5 && (pgErr.Code[:2] == "22" || pgErr.Code[:2] == "23") {
		return ClassValidation
	}
	return ClassOther
}

// Constraint returns the violated constraint name, if any.
func Constraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}
