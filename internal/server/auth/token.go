package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/cityfix/internal/common"
	"github.com/dmitrijs2005/cityfix/internal/logging"
	"github.com/dmitrijs2005/cityfix/internal/server/models"
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the session token payload: sub, role, iat and exp.
type Claims struct {
	jwt.RegisteredClaims
	Role models.Role `json:"role"`
}

// TokenService issues and verifies HS256 session tokens. The secret and TTL
// are fixed at construction.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	logger logging.Logger
}

type TokenOption func(*TokenService)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

func WithTokenLogger(l logging.Logger) TokenOption {
	return func(s *TokenService) { s.logger = l.With("module", "tokens") }
}

func NewTokenService(secret []byte, ttl time.Duration, opts ...TokenOption) *TokenService {
	s := &TokenService{
		secret: secret,
		ttl:    ttl,
		now:    time.Now,
		logger: logging.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Issue signs a token for subjectID valid for the configured TTL.
func (s *TokenService) Issue(subjectID string, role models.Role) (string, error) {
	now := s.now().Truncate(time.Second)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		Role: role,
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature with HS256 only, requires an unexpired exp and
// returns the claims. iat is not checked against the local clock, so tokens
// issued by an instance running slightly ahead remain valid. Every failure is reported as common.ErrUnauthenticated;
// the underlying reason is logged at debug level.
func (s *TokenService) Verify(ctx context.Context, tokenString string) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		s.logger.Debug(ctx, "token rejected", "reason", reason(err))
		return nil, common.ErrUnauthenticated
	}
	if claims.Subject == "" {
		s.logger.Debug(ctx, "token rejected", "reason", "missing subject")
		return nil, common.ErrUnauthenticated
	}

	return claims, nil
}

func reason(err error) string {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return "malformed"
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return "bad signature"
	case errors.Is(err, jwt.ErrTokenExpired):
		return "expired"
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return "missing claim"
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return "unverifiable"
	default:
		return err.Error()
	}
}
