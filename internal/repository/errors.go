package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrDuplicateReview = errors.New("review already exists for this author and title")
	ErrDuplicateSlug   = errors.New("slug already in use")
)

// IsUniqueViolation reports whether err is a postgres unique-constraint
// violation (SQLSTATE 23505). The application checks first, but a concurrent
// insert can still lose the race and the constraint is the final authority.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
