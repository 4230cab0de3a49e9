package database

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/BradenHooton/supportportal/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres constraint names that map to specific conflicts
const (
	usernameConstraint = "users_username_lower_key"
	emailConstraint    = "users_email_lower_key"
)

// MapPostgresError translates driver errors into model sentinels. Anything
// that means the database could not answer (cancelled or timed-out context,
// network failure, server shutdown) becomes ErrStoreUnavailable.
func MapPostgresError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			switch pgErr.ConstraintName {
			case usernameConstraint:
				return models.ErrUsernameExists
			case emailConstraint:
				return models.ErrEmailExists
			}
			return fmt.Errorf("%w: %s", models.ErrBadRequest, pgErr.Message)
		case "23502", "23503", "22001": // not_null, foreign_key, string_data_right_truncation
			return fmt.Errorf("%w: %s", models.ErrBadRequest, pgErr.Message)
		case "57P01", "57P02", "57P03", "53300": // admin_shutdown, crash_shutdown, cannot_connect_now, too_many_connections
			return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
		}
		if len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08" { // connection_exception class
			return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
		}
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) || pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return fmt.Errorf("%w: %v", models.ErrStoreUnavailable, err)
	}

	return err
}
