package pgstore

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/halcyondev/authgate"
)

func TestMapErrorUniqueViolation(t *testing.T) {
	uniq := &pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "accounts_username_key"}

	assert.ErrorIs(t, mapError(uniq), authgate.ErrConflict)
	assert.ErrorIs(t, mapError(fmt.Errorf("exec: %w", uniq)), authgate.ErrConflict)
}

func TestMapErrorWrapsOtherErrors(t *testing.T) {
	cause := errors.New("connection reset")
	got := mapError(cause)

	assert.ErrorIs(t, got, cause)
	assert.NotErrorIs(t, got, authgate.ErrConflict)
	assert.Contains(t, got.Error(), "pgstore:")

	other := &pgconn.PgError{Code: pgerrcode.SerializationFailure}
	assert.NotErrorIs(t, mapError(other), authgate.ErrConflict)
}

func TestSchemaEnforcesCaseInsensitiveUniqueness(t *testing.T) {
	assert.Contains(t, Schema, "ON accounts (lower(email))")
	assert.Contains(t, Schema, "ON accounts (lower(username)) WHERE username IS NOT NULL")
	assert.Equal(t, 2, strings.Count(Schema, "CREATE UNIQUE INDEX"))
}
