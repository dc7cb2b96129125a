package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v4"

	apperrors "medintake/internal/errors"
	"medintake/internal/model"
	"medintake/internal/repository"
)

// DefaultTokenExpiry is used when no expiry is configured.
const DefaultTokenExpiry = time.Hour

// Claims represents JWT claims carried by an intake bearer token.
type Claims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Payload is the verified identity attached to a request. SessionID keys
// the wizard state for the lifetime of the login.
type Payload struct {
	UserID    uint
	Role      string
	SessionID uint
}

// TokenService issues, verifies and revokes bearer tokens. Every issued
// token is shadowed by a Session row keyed by a one-way hash of the token,
// so revocation works even though the tokens are self-contained.
type TokenService struct {
	secret   []byte
	expiry   time.Duration
	sessions repository.SessionRepository
}

// NewTokenService creates a token service with the given signing secret and
// token lifetime.
func NewTokenService(secret string, expiry time.Duration, sessions repository.SessionRepository) *TokenService {
	if expiry <= 0 {
		expiry = DefaultTokenExpiry
	}
	return &TokenService{
		secret:   []byte(secret),
		expiry:   expiry,
		sessions: sessions,
	}
}

// Issue signs a token for the user and records its session shadow row.
func (s *TokenService) Issue(ctx context.Context, userID uint, role string) (string, error) {
	now := time.Now()
	expiresAt := now.Add(s.expiry)

	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", err
	}

	session := &model.Session{
		UserID:    userID,
		TokenHash: hashToken(token),
		ExpiresAt: expiresAt,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", err
	}

	return token, nil
}

// Verify checks the token signature and expiry, then requires a matching
// non-revoked session row. Every failure mode collapses to ErrInvalidToken
// so callers learn nothing about which check failed.
func (s *TokenService) Verify(ctx context.Context, tokenString string) (*Payload, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, apperrors.ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperrors.ErrInvalidToken
	}

	session, err := s.sessions.FindActiveByTokenHash(ctx, hashToken(tokenString), time.Now())
	if err != nil {
		return nil, apperrors.ErrInvalidToken
	}

	return &Payload{
		UserID:    claims.UserID,
		Role:      claims.Role,
		SessionID: session.ID,
	}, nil
}

// Revoke marks the token's session revoked. Returns false when no session
// row ever matched the token.
func (s *TokenService) Revoke(ctx context.Context, tokenString string) (bool, error) {
	return s.sessions.RevokeByTokenHash(ctx, hashToken(tokenString))
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
