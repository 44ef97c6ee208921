// Package auth verifies the bearer tokens issued by the identity provider.
// The ledger never logs users in; it only needs the caller's user id to
// stamp created_by.
package auth

import (
	"errors"
	"time"

	"github.com/erp/backoffice/internal/infrastructure/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenTypeAccess is the only token type accepted by the API
const TokenTypeAccess = "access"

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrMissingUserID    = errors.New("missing user_id in claims")
)

// Claims are the JWT claims the ledger reads
type Claims struct {
	jwt.RegisteredClaims
	UserID    string `json:"user_id"`
	Username  string `json:"username,omitempty"`
	TokenType string `json:"token_type"`
}

// UserUUID parses the user id claim
func (c *Claims) UserUUID() (uuid.UUID, error) {
	return uuid.Parse(c.UserID)
}

// Verifier validates HS256 access tokens
type Verifier struct {
	secret []byte
	issuer string
	leeway time.Duration
}

// NewVerifier creates a Verifier from the jwt config section
func NewVerifier(cfg config.JWTConfig) *Verifier {
	return &Verifier{secret: []byte(cfg.Secret), issuer: cfg.Issuer, leeway: 30 * time.Second}
}

// Verify parses tokenString and returns its claims. The issuer is checked
// only when one is configured.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(v.leeway),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			return nil, ErrTokenNotYetValid
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != TokenTypeAccess {
		return nil, ErrInvalidTokenType
	}
	if _, err := claims.UserUUID(); err != nil {
		return nil, ErrMissingUserID
	}
	return claims, nil
}

// Issue signs an access token for userID. The identity provider issues real
// tokens; this is used by local tooling and tests.
func (v *Verifier) Issue(userID uuid.UUID, username string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    v.issuer,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:    userID.String(),
		Username:  username,
		TokenType: TokenTypeAccess,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
