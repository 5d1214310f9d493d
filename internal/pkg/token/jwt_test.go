package token_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gofulfill/internal/pkg/token"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := token.NewService("segredo-de-teste", time.Hour)

	signed, err := svc.GenerateToken("ops@example.com", "admin")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", claims.Subject)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, token.Issuer, claims.Issuer)
}

func TestValidate_RejectsWrongSecret(t *testing.T) {
	signed, err := token.NewService("a", time.Hour).GenerateToken("ops", "admin")
	require.NoError(t, err)

	_, err = token.NewService("b", time.Hour).ValidateToken(signed)
	assert.Error(t, err)
}

func TestValidate_RejectsExpired(t *testing.T) {
	svc := token.NewService("segredo", -time.Minute)
	signed, err := svc.GenerateToken("ops", "admin")
	require.NoError(t, err)

	_, err = svc.ValidateToken(signed)
	assert.Error(t, err)
}

func TestValidate_RejectsGarbage(t *testing.T) {
	_, err := token.NewService("segredo", time.Hour).ValidateToken("não-é-um-jwt")
	assert.Error(t, err)
}
