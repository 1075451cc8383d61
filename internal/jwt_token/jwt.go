// Package jwttoken signs and validates the HS256 access tokens handed to
// account holders. A token only references a session; the session store stays
// the source of truth for whether it is still live.
package jwttoken

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	id "cashwallet/pkg/domain"
	dErrors "cashwallet/pkg/domain-errors"
	"cashwallet/pkg/requestcontext"
)

const audience = "cashwallet-app"

// AccessTokenClaims represents the JWT claims for our access tokens
type AccessTokenClaims struct {
	AccountID string `json:"account_id"`
	SessionID string `json:"session_id"`
	Env       string `json:"env,omitempty"`
	jwt.RegisteredClaims
}

// JWTService handles JWT creation and validation
type JWTService struct {
	signingKey []byte
	issuer     string
	tokenTTL   time.Duration
	env        string
}

func NewJWTService(signingKey, issuer string, tokenTTL time.Duration) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		tokenTTL:   tokenTTL,
	}
}

// TTL is the lifetime of issued tokens.
func (s *JWTService) TTL() time.Duration {
	return s.tokenTTL
}

// GenerateAccessToken signs a token for sessionID and returns it with its expiry.
func (s *JWTService) GenerateAccessToken(ctx context.Context, accountID id.AccountID, sessionID id.SessionID) (string, time.Time, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", time.Time{}, err
	}
	now := requestcontext.Now(ctx)
	expiresAt := now.Add(s.tokenTTL)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessTokenClaims{
		AccountID: accountID.String(),
		SessionID: sessionID.String(),
		Env:       s.env,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{audience},
			ID:        hex.EncodeToString(b),
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// SetEnv annotates issued tokens with an environment string (e.g., "development").
func (s *JWTService) SetEnv(env string) {
	s.env = env
}

// ValidateToken checks signature, algorithm, expiry, issuer and audience.
// Every failure is reported as CodeUnauthorized.
func (s *JWTService) ValidateToken(tokenString string) (*AccessTokenClaims, error) {
	if tokenString == "" {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "missing token")
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &AccessTokenClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(audience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*AccessTokenClaims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}
