package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/cardpoint/onboarding-service/internal/utils"
)

// TokenIssuer is the "iss" claim of session tokens.
const TokenIssuer = utils.OrganizationName

// ---------------------------------------------------------------------
// SessionTokenService interface
// ---------------------------------------------------------------------

// SessionTokenService signs and checks the token that carries a session id.
type SessionTokenService interface {
	Issue(sessionID string) (string, error)
	// Parse returns the session id. Expired tokens fail with
	// utils.ErrTokenExpired, anything else with utils.ErrInvalidSession.
	Parse(token string) (string, error)
	TTL() time.Duration
}

// ---------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------

type sessionTokenService struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewSessionTokenService(key []byte, ttl time.Duration, now func() time.Time) SessionTokenService {
	if now == nil {
		now = time.Now
	}
	return &sessionTokenService{key: key, ttl: ttl, now: now}
}

func (s *sessionTokenService) TTL() time.Duration { return s.ttl }

func (s *sessionTokenService) Issue(sessionID string) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"iss": TokenIssuer,
		"sub": sessionID,
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
		"jti": uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.key)
}

func (s *sessionTokenService) Parse(tokenStr string) (string, error) {
	tok, err := jwt.Parse(tokenStr,
		func(t *jwt.Token) (any, error) { return s.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("%w: %v", utils.ErrTokenExpired, err)
		}
		return "", fmt.Errorf("%w: %v", utils.ErrInvalidSession, err)
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("%w: invalid claims", utils.ErrInvalidSession)
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("%w: missing subject", utils.ErrInvalidSession)
	}
	if _, err := uuid.Parse(sub); err != nil {
		return "", fmt.Errorf("%w: malformed subject", utils.ErrInvalidSession)
	}
	return sub, nil
}
