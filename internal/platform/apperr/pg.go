package apperr

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE classes translated into the taxonomy.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
	pgSerializationFail   = "40001"
	pgDeadlockDetected    = "40P01"
	pgLockNotAvailable    = "55P03"
)

// FromPG translates a pgx error into the taxonomy. entity names the row
// the operation was addressing and is used for pgx.ErrNoRows. Errors
// that are not recognized pass through unchanged.
func FromPG(err error, entity string, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return NotFound(entity, id)
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		return Conflict("duplicate %s: %s", constraintField(pgErr.ConstraintName), pgErr.Detail)
	case pgForeignKeyViolation:
		return foreignKeyError(pgErr)
	case pgCheckViolation:
		return Validation("constraint %s violated", pgErr.ConstraintName)
	case pgSerializationFail, pgDeadlockDetected, pgLockNotAvailable:
		return Transient(err)
	}
	return err
}

// foreignKeyError distinguishes the two FK failure directions: a write
// referencing a missing parent row (not found) and a delete blocked by
// dependent rows (conflict).
func foreignKeyError(pgErr *pgconn.PgError) error {
	// "update or delete on table X violates foreign key constraint on table Y"
	if strings.Contains(pgErr.Message, "update or delete") {
		return Conflict("%s still referenced by %s", pgErr.TableName, constraintField(pgErr.ConstraintName))
	}
	return NotFound(referencedEntity(pgErr.ConstraintName), "")
}

// referencedEntity derives the missing parent entity from an FK
// constraint name of the shape <table>_<column>_fkey, e.g.
// appointments_patient_id_fkey -> patient.
func referencedEntity(constraint string) string {
	name := strings.TrimSuffix(constraint, "_fkey")
	if i := strings.Index(name, "_"); i >= 0 {
		return strings.TrimSuffix(name[i+1:], "_id")
	}
	return "referenced row"
}

// constraintField trims the table prefix and _key/_fkey suffix from a
// constraint name so the message names the offending column.
func constraintField(constraint string) string {
	name := strings.TrimSuffix(constraint, "_key")
	name = strings.TrimSuffix(name, "_fkey")
	if i := strings.Index(name, "_"); i >= 0 {
		return name[i+1:]
	}
	return name
}
