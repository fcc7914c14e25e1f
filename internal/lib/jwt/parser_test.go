package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test_secret_key_1234567890"

func signToken(t *testing.T, secret, userID, role string, ttl time.Duration) string {
	t.Helper()
	now := time.Now()
	claims := CustomClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestJWTParser_ParseToken_ValidCases(t *testing.T) {
	parser := NewJWTParser(testSecret)

	tests := []struct {
		name   string
		userID string
		role   string
	}{
		{
			name:   "admin user",
			userID: "6a1c7d3e-0000-4000-8000-000000000001",
			role:   "admin",
		},
		{
			name:   "regular user",
			userID: "6a1c7d3e-0000-4000-8000-000000000002",
			role:   "user",
		},
		{
			name:   "user with email id",
			userID: "user@domain.com",
			role:   "user",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := signToken(t, testSecret, tt.userID, tt.role, 15*time.Minute)

			claims, err := parser.ParseToken(token)
			require.NoError(t, err)

			assert.Equal(t, tt.userID, claims.UserID())
			assert.Equal(t, tt.role, claims.Role)
			assert.WithinDuration(t, time.Now().Add(15*time.Minute), claims.ExpiresAt.Time, time.Second)
		})
	}
}

func TestJWTParser_ParseToken_InvalidTokens(t *testing.T) {
	parser := NewJWTParser(testSecret)
	validToken := signToken(t, testSecret, "user-1", "user", 15*time.Minute)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "malformed token", token: "invalid.token.here"},
		{name: "expired token", token: signToken(t, testSecret, "user-1", "user", -time.Hour)},
		{name: "wrong secret key", token: signToken(t, "wrong_secret_key", "user-1", "user", time.Hour)},
		{name: "tampered token", token: validToken + "tampered"},
		{name: "missing subject", token: signToken(t, testSecret, "", "user", time.Hour)},
		{name: "none algorithm", token: createUnsignedToken(t)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := parser.ParseToken(tt.token)
			assert.Error(t, err)
			assert.Nil(t, claims)
		})
	}
}

func TestJWTParser_DifferentSecretKeys(t *testing.T) {
	token := signToken(t, "first_secret_key", "user-1", "admin", 15*time.Minute)

	claims, err := NewJWTParser("different_secret_key").ParseToken(token)
	assert.Error(t, err)
	assert.Nil(t, claims)

	claims, err = NewJWTParser("first_secret_key").ParseToken(token)
	assert.NoError(t, err)
	assert.NotNil(t, claims)
}

func createUnsignedToken(t *testing.T) string {
	claims := CustomClaims{
		Role: "admin",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	return token
}
