package invitations

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"
)

func TestIsCodeCollision(t *testing.T) {
	codeDup := &pgconn.PgError{Code: "23505", ConstraintName: "invitations_code_key"}
	require.True(t, isCodeCollision(codeDup))
	require.True(t, isCodeCollision(fmt.Errorf("failed to create invitation: %w", codeDup)))

	otherConstraint := &pgconn.PgError{Code: "23505", ConstraintName: "invitations_pkey"}
	require.False(t, isCodeCollision(otherConstraint))

	foreignKey := &pgconn.PgError{Code: "23503", ConstraintName: "invitations_code_key"}
	require.False(t, isCodeCollision(foreignKey))

	require.False(t, isCodeCollision(errors.New("connection reset")))
	require.False(t, isCodeCollision(nil))
}
