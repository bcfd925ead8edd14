package resolve

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
)

// IsConflict reports whether err is a uniqueness or serialization conflict
// from a concurrent writer. Conflicts are per-pair failures; the caller can
// retry the pair or skip it without aborting the run.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation || pgErr.Code == pgSerializationFailure
	}
	return false
}
