// Package auth verifies bearer tokens issued by the external identity
// service. The API never issues tokens itself.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/phrazzld/curriculum-api/internal/config"
	"github.com/phrazzld/curriculum-api/internal/platform/logger"
)

// minSecretLength matches the config validation rule for auth.jwt_secret.
const minSecretLength = 32

// TokenVerifier checks a bearer token and returns its claims.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims are the verified claims of a token.
type Claims struct {
	Subject   string
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}

type hmacVerifier struct {
	signingKey []byte
	issuer     string
	timeFunc   func() time.Time
	clockSkew  time.Duration
}

var _ TokenVerifier = (*hmacVerifier)(nil)

// NewTokenVerifier creates a verifier for HS256 tokens signed with
// cfg.JWTSecret. A non-empty cfg.Issuer is required to match the iss claim.
func NewTokenVerifier(cfg config.AuthConfig) (TokenVerifier, error) {
	if len(cfg.JWTSecret) < minSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d characters", minSecretLength)
	}
	return newHMACVerifier([]byte(cfg.JWTSecret), cfg.Issuer, time.Now), nil
}

func newHMACVerifier(key []byte, issuer string, now func() time.Time) *hmacVerifier {
	return &hmacVerifier{
		signingKey: key,
		issuer:     issuer,
		timeFunc:   now,
		clockSkew:  2 * time.Minute,
	}
}

// VerifyToken implements TokenVerifier.
func (v *hmacVerifier) VerifyToken(ctx context.Context, tokenString string) (*Claims, error) {
	log := logger.FromContext(ctx)

	if tokenString == "" {
		return nil, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithLeeway(v.clockSkew),
		jwt.WithTimeFunc(v.timeFunc),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	var registered jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &registered, func(*jwt.Token) (interface{}, error) {
		return v.signingKey, nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			log.Debug("token rejected: expired")
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenNotValidYet):
			log.Debug("token rejected: not yet valid")
			return nil, ErrTokenNotYetValid
		default:
			log.Debug("token rejected", "reason", err.Error())
			return nil, ErrInvalidToken
		}
	}
	if !token.Valid || registered.Subject == "" {
		log.Debug("token rejected: no subject")
		return nil, ErrInvalidToken
	}

	claims := &Claims{
		Subject: registered.Subject,
		Issuer:  registered.Issuer,
		ID:      registered.ID,
	}
	if registered.IssuedAt != nil {
		claims.IssuedAt = registered.IssuedAt.Time
	}
	if registered.ExpiresAt != nil {
		claims.ExpiresAt = registered.ExpiresAt.Time
	}
	return claims, nil
}
