package postgres

import (
	"errors"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"

	"mams/internal/core/apperror"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// translate maps constraint violations to AppErrors; other errors pass through.
func translate(err error, entity string) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		field := "id"
		for _, f := range []string{"name", "code"} {
			if strings.Contains(pgErr.ConstraintName, f) {
				field = f
			}
		}
		return apperror.NewDuplicate(entity, field, pgErr.Detail).WithCause(err)
	case pgForeignKeyViolation:
		return apperror.NewNotFound("base", pgErr.Detail).WithCause(err)
	case pgCheckViolation:
		return apperror.NewValidation("value violates " + pgErr.ConstraintName).
			WithDetail("entity", entity).
			WithCause(err)
	}
	return err
}
