package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/BradenHooton/supportportal/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestMapPostgresError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", pgx.ErrNoRows, models.ErrNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", pgx.ErrNoRows), models.ErrNotFound},
		{"username taken", &pgconn.PgError{Code: "23505", ConstraintName: "users_username_lower_key"}, models.ErrUsernameExists},
		{"email taken", &pgconn.PgError{Code: "23505", ConstraintName: "users_email_lower_key"}, models.ErrEmailExists},
		{"other unique", &pgconn.PgError{Code: "23505", ConstraintName: "users_user_id_key"}, models.ErrBadRequest},
		{"not null", &pgconn.PgError{Code: "23502"}, models.ErrBadRequest},
		{"shutdown", &pgconn.PgError{Code: "57P01"}, models.ErrStoreUnavailable},
		{"connection exception", &pgconn.PgError{Code: "08006"}, models.ErrStoreUnavailable},
		{"deadline", context.DeadlineExceeded, models.ErrStoreUnavailable},
		{"cancelled", fmt.Errorf("query: %w", context.Canceled), models.ErrStoreUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, MapPostgresError(tt.err), tt.want)
		})
	}
}

func TestMapPostgresError_PassThrough(t *testing.T) {
	assert.NoError(t, MapPostgresError(nil))

	syntax := &pgconn.PgError{Code: "42601"}
	assert.Equal(t, syntax, MapPostgresError(syntax))

	other := errors.New("boom")
	assert.Equal(t, other, MapPostgresError(other))
}
