package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"blog-api/apperror"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// dbError wraps a driver error as a DatabaseOperation failure, naming the
// constraint for the violations callers can hit under races.
func dbError(op string, err error) error {
	if err == nil {
		return nil
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return apperror.Database(op+" (duplicate "+pgErr.ConstraintName+")", err)
		case pgForeignKeyViolation:
			return apperror.Database(op+" (still referenced by "+pgErr.ConstraintName+")", err)
		}
	}
	return apperror.Database(op, err)
}
