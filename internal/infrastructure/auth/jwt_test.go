package auth

import (
	"testing"
	"time"

	"github.com/erp/backoffice/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-at-least-32-chars"

func newTestVerifier() *Verifier {
	return NewVerifier(config.JWTConfig{Enabled: true, Secret: testSecret, Issuer: "identity"})
}

func TestVerifier_IssueAndVerify(t *testing.T) {
	v := newTestVerifier()
	userID := uuid.New()

	token, err := v.Issue(userID, "cashier", time.Hour)
	require.NoError(t, err)

	claims, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "cashier", claims.Username)
	got, err := claims.UserUUID()
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestVerifier_Rejects(t *testing.T) {
	v := newTestVerifier()
	userID := uuid.New()

	sign := func(claims *Claims, method jwt.SigningMethod, key interface{}) string {
		s, err := jwt.NewWithClaims(method, claims).SignedString(key)
		require.NoError(t, err)
		return s
	}
	valid := func() *Claims {
		return &Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    "identity",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
			UserID:    userID.String(),
			TokenType: TokenTypeAccess,
		}
	}

	tests := []struct {
		name  string
		token func() string
		want  error
	}{
		{"garbage", func() string { return "not-a-jwt" }, ErrInvalidToken},
		{"wrong secret", func() string {
			return sign(valid(), jwt.SigningMethodHS256, []byte("another-secret-another-secret-xx"))
		}, ErrInvalidToken},
		{"wrong algorithm", func() string {
			return sign(valid(), jwt.SigningMethodHS512, []byte(testSecret))
		}, ErrInvalidToken},
		{"expired", func() string {
			c := valid()
			c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
			return sign(c, jwt.SigningMethodHS256, []byte(testSecret))
		}, ErrExpiredToken},
		{"not yet valid", func() string {
			c := valid()
			c.NotBefore = jwt.NewNumericDate(time.Now().Add(time.Hour))
			return sign(c, jwt.SigningMethodHS256, []byte(testSecret))
		}, ErrTokenNotYetValid},
		{"foreign issuer", func() string {
			c := valid()
			c.Issuer = "someone-else"
			return sign(c, jwt.SigningMethodHS256, []byte(testSecret))
		}, ErrInvalidToken},
		{"refresh token", func() string {
			c := valid()
			c.TokenType = "refresh"
			return sign(c, jwt.SigningMethodHS256, []byte(testSecret))
		}, ErrInvalidTokenType},
		{"missing user id", func() string {
			c := valid()
			c.UserID = ""
			return sign(c, jwt.SigningMethodHS256, []byte(testSecret))
		}, ErrMissingUserID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestVerifier_NoIssuerConfigured(t *testing.T) {
	v := NewVerifier(config.JWTConfig{Secret: testSecret})
	issuer := NewVerifier(config.JWTConfig{Secret: testSecret, Issuer: "anyone"})

	token, err := issuer.Issue(uuid.New(), "", time.Minute)
	require.NoError(t, err)
	_, err = v.Verify(token)
	assert.NoError(t, err)
}
