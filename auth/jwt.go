// Package auth verifies HS256 bearer tokens.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/servicekit/go-service-template/config"
	"github.com/servicekit/go-service-template/errors"
)

// Claims is the authenticated identity extracted from a token
type Claims struct {
	Subject string
	Email   string
}

// tokenClaims is the wire form of Claims
type tokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// JWTManager validates (and, for tooling, issues) tokens
type JWTManager struct {
	secret   []byte
	issuer   string
	audience string
}

// NewJWTManager creates a manager from the auth configuration.
// The secret must be at least config.MinJWTSecretLength bytes.
func NewJWTManager(cfg config.AuthConfig) (*JWTManager, error) {
	if len(cfg.JWTSecret) < config.MinJWTSecretLength {
		return nil, errors.Newf("jwt secret must be at least %d characters", config.MinJWTSecretLength)
	}
	return &JWTManager{
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.Issuer,
		audience: cfg.Audience,
	}, nil
}

// ValidateToken parses and validates a token, returning its claims.
// Issuer and audience are enforced only when configured.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}
	if m.audience != "" {
		opts = append(opts, jwt.WithAudience(m.audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Newf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, errors.Wrap(errors.Wrap(errors.ErrUnauthorized, err.Error()), "invalid token")
	}

	claims, ok := token.Claims.(*tokenClaims)
	if !ok || !token.Valid {
		return nil, errors.Wrap(errors.ErrUnauthorized, "invalid token claims")
	}
	return &Claims{Subject: claims.Subject, Email: claims.Email}, nil
}

// GenerateToken issues a token for subject valid for ttl. Used by the
// token command for local development and by tests.
func (m *JWTManager) GenerateToken(subject, email string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    m.issuer,
		},
		Email: email,
	}
	if m.audience != "" {
		claims.Audience = jwt.ClaimStrings{m.audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token")
	}
	return signed, nil
}
