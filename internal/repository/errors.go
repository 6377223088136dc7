package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Phantawat/car-parking/internal/models"
)

// storeError maps driver errors onto the model error kinds. notFound is
// returned as-is for sql.ErrNoRows when non-nil.
func storeError(op string, err error, notFound error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows) && notFound != nil:
		return notFound
	case isUniqueViolation(err):
		return fmt.Errorf("%s: %w: %v", op, models.ErrDuplicate, err)
	case isUnavailable(err):
		return fmt.Errorf("%s: %w", op, models.Unavailable(err))
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgerrcode.UniqueViolation
	}
	// sqlite drivers only expose the message
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, sql.ErrConnDone) {
		return true
	}
	if pgconn.Timeout(err) {
		return true
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
