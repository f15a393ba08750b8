package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndValidate(t *testing.T) {
	svc := NewJWTService("test-secret")

	token, err := svc.Issue("cli", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	assert.Equal(t, "cli", claims.Name)
	assert.Equal(t, "cli", claims.Subject)
	assert.Equal(t, "liveleaper", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestValidateExpiredToken(t *testing.T) {
	svc := NewJWTService("test-secret")

	token, err := svc.Issue("cli", -time.Minute)
	require.NoError(t, err)

	_, err = svc.Validate(token)
	assert.Error(t, err)
}

func TestValidateWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a").Issue("cli", time.Hour)
	require.NoError(t, err)

	_, err = NewJWTService("secret-b").Validate(token)
	assert.Error(t, err)
}

func TestValidateGarbage(t *testing.T) {
	_, err := NewJWTService("test-secret").Validate("not.a.token")
	assert.Error(t, err)
}
