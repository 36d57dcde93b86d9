package postgres

import (
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// SQLSTATE class 23 codes, integrity constraint violations.
const (
	pgCodeNotNullViolation = "23502"
	pgCodeUniqueViolation  = "23505"
)

// isUniqueConstraintViolation recognizes a duplicate-key insert. The pgLib
// connection opens gorm without error translation, so the raw driver error
// must be matched alongside gorm's translated sentinel.
func isUniqueConstraintViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == pgCodeUniqueViolation
}

func isNotNullConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == pgCodeNotNullViolation
}
