package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"dscatalog/internal/model"
)

const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
)

// classifyWriteError maps constraint violations to model errors and marks
// everything else as a store failure.
func classifyWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation, pgUniqueViolation:
			return fmt.Errorf("%s: %w: %s", op, model.ErrIntegrityViolation, pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("%s: %w: %w", op, model.ErrStoreUnavailable, err)
}

// readError marks a failure while streaming query results as a store failure,
// the same as a failure of the query itself.
func readError(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, model.ErrStoreUnavailable, err)
}

// orderColumn resolves a client-supplied sort key against a whitelist.
func orderColumn(columns map[string]string, key string, fallback string) string {
	if column, ok := columns[key]; ok {
		return column
	}
	return fallback
}
