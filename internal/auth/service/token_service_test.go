package service_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tekriders/auth-service/internal/auth/service"
	"github.com/tekriders/auth-service/pkg/constant"
)

func TestTokenService_GenerateAndVerify(t *testing.T) {
	ts := service.NewTokenService("secret", 168)

	token, expiresAt, err := ts.Generate("cred-id", "a@x.com", "250788123456", constant.RoleStudent)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), expiresAt, 5*time.Second)

	claims, err := ts.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "cred-id", claims.UserID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.Equal(t, "250788123456", claims.Phone)
	assert.Equal(t, constant.RoleStudent, claims.Role)
	assert.WithinDuration(t, expiresAt, claims.ExpiresAt.Time, time.Second)
}

func TestTokenService_Verify_WrongSecret(t *testing.T) {
	ts := service.NewTokenService("secret", 168)
	other := service.NewTokenService("other-secret", 168)

	token, _, err := ts.Generate("cred-id", "a@x.com", "", constant.RoleStudent)
	require.NoError(t, err)

	_, err = other.Verify(token)
	assert.Error(t, err)
}

func TestTokenService_Verify_Expired(t *testing.T) {
	ts := &service.TokenService{Secret: "secret", SessionExpiry: -time.Hour}

	token, _, err := ts.Generate("cred-id", "a@x.com", "", constant.RoleStudent)
	require.NoError(t, err)

	_, err = ts.Verify(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenService_Verify_WrongSigningMethod(t *testing.T) {
	ts := service.NewTokenService("secret", 168)

	// alg=none tokens must be rejected outright.
	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"user_id": "cred-id"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = ts.Verify(unsigned)
	assert.Error(t, err)
}

func TestNewResetToken(t *testing.T) {
	first, err := service.NewResetToken()
	require.NoError(t, err)
	second, err := service.NewResetToken()
	require.NoError(t, err)

	assert.Len(t, first, 64)
	assert.NotEqual(t, first, second)
}
