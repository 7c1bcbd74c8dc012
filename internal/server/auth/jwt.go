// Package auth issues and verifies the signed access tokens handed out on
// login. Tokens are stateless: they carry sub, iat and exp and stay valid
// until they expire.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dmitrijs2005/parametrik/internal/common"
)

const (
	DefaultValidity = 90 * 24 * time.Hour
	DefaultLeeway   = 60 * time.Second
)

// Claims is the token payload.
type Claims struct {
	jwt.RegisteredClaims
}

// TokenErrorKind classifies a rejected token.
type TokenErrorKind int

const (
	Malformed TokenErrorKind = iota + 1
	SignatureInvalid
	Expired
)

func (k TokenErrorKind) String() string {
	switch k {
	case Malformed:
		return "malformed"
	case SignatureInvalid:
		return "signature invalid"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// TokenError is returned by Verify for every rejected token.
type TokenError struct {
	Kind TokenErrorKind
	Err  error
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("token %s: %v", e.Kind, e.Err)
}

func (e *TokenError) Unwrap() error { return e.Err }

// Is lets callers match the coarse common token errors.
func (e *TokenError) Is(target error) bool {
	switch target {
	case common.ErrInvalidToken:
		return true
	case common.ErrTokenExpired:
		return e.Kind == Expired
	}
	return false
}

// TokenService signs and checks access tokens.
type TokenService struct {
	validity time.Duration
	leeway   time.Duration
	now      func() time.Time
}

type Option func(*TokenService)

func WithValidity(d time.Duration) Option { return func(s *TokenService) { s.validity = d } }

func WithLeeway(d time.Duration) Option { return func(s *TokenService) { s.leeway = d } }

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option { return func(s *TokenService) { s.now = now } }

func NewTokenService(opts ...Option) *TokenService {
	s := &TokenService{validity: DefaultValidity, leeway: DefaultLeeway, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Issue signs a token for subject valid from now for the configured validity.
func (s *TokenService) Issue(secret Secret, subject string) (string, error) {
	if secret.method == nil {
		return "", ErrEmptySecret
	}
	if s.validity <= 0 {
		return "", fmt.Errorf("token validity must be positive, got %s", s.validity)
	}

	now := s.now()
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.validity)),
	}}

	token, err := jwt.NewWithClaims(secret.method, claims).SignedString(secret.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Verify checks the signature and expiry (with leeway) of token and returns
// its subject. Any failure is a *TokenError and the subject is empty.
func (s *TokenService) Verify(secret Secret, token string) (string, error) {
	if secret.method == nil {
		return "", &TokenError{Kind: SignatureInvalid, Err: ErrEmptySecret}
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return secret.verifyKey, nil },
		jwt.WithValidMethods([]string{secret.method.Alg()}),
		// jwt rejects at exactly exp+leeway; the inclusive bound is checked below.
		jwt.WithLeeway(s.leeway+time.Second),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return "", classify(err)
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", &TokenError{Kind: Malformed, Err: common.ErrInvalidToken}
	}
	if s.now().After(claims.ExpiresAt.Add(s.leeway)) {
		return "", &TokenError{Kind: Expired, Err: jwt.ErrTokenExpired}
	}

	return claims.Subject, nil
}

func classify(err error) *TokenError {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return &TokenError{Kind: Expired, Err: err}
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return &TokenError{Kind: SignatureInvalid, Err: err}
	default:
		return &TokenError{Kind: Malformed, Err: err}
	}
}
