// Package services contains server-side business logic. This file implements
// UserService, which registers users, exchanges credentials for access tokens
// and authenticates bearer tokens.
package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/parametrik/internal/common"
	"github.com/dmitrijs2005/parametrik/internal/logging"
	"github.com/dmitrijs2005/parametrik/internal/server/auth"
	"github.com/dmitrijs2005/parametrik/internal/server/credentials"
	"github.com/dmitrijs2005/parametrik/internal/server/hasher"
	"github.com/dmitrijs2005/parametrik/internal/server/models"
	"github.com/dmitrijs2005/parametrik/internal/workerpool"
)

// CredentialStore is the persistence the service needs; *credentials.Store
// satisfies it.
type CredentialStore interface {
	RegisterOrUpdate(ctx context.Context, name, email, passwordHash string) (*models.User, error)
	Find(ctx context.Context, email, password string) (*models.User, error)
}

// UserService coordinates the hasher, the credential store and the token
// service. Hashing and storage calls run on the worker pool; the signing
// secret is immutable and shared by all requests.
//
// Every error it returns is one of common.ErrorUnauthorized,
// common.ErrorInvalidArgument or common.ErrorInternal (possibly wrapping a
// token error). Causes are logged, never returned to transports.
type UserService struct {
	store  CredentialStore
	hasher hasher.Hasher
	tokens *auth.TokenService
	secret auth.Secret
	pool   *workerpool.Pool
	log    logging.Logger
}

func NewUserService(store CredentialStore, h hasher.Hasher, tokens *auth.TokenService, secret auth.Secret,
	pool *workerpool.Pool, log logging.Logger) *UserService {
	return &UserService{
		store:  store,
		hasher: h,
		tokens: tokens,
		secret: secret,
		pool:   pool,
		log:    log.With("module", "users"),
	}
}

// Register hashes password and stores it for email. An existing account with
// that email is overwritten in place and keeps its id.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, common.ErrorInvalidArgument
	}

	user, err := workerpool.Do(ctx, s.pool, func(ctx context.Context) (*models.User, error) {
		hash, err := s.hasher.Hash(password)
		if err != nil {
			return nil, &credentials.HashingError{Err: err}
		}
		return s.store.RegisterOrUpdate(ctx, name, email, hash)
	})
	if err != nil {
		s.log.Error(ctx, "registration failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login checks email and password and returns a signed access token whose
// subject is the email. Unknown emails and wrong passwords both yield
// common.ErrorUnauthorized.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	token, err := workerpool.Do(ctx, s.pool, func(ctx context.Context) (string, error) {
		user, err := s.store.Find(ctx, email, password)
		if err != nil {
			return "", err
		}
		token, err := s.tokens.Issue(s.secret, user.Email)
		if err != nil {
			return "", fmt.Errorf("issue token: %w", err)
		}
		return token, nil
	})

	switch {
	case err == nil:
		return token, nil
	case errors.Is(err, credentials.ErrUserNotFound), errors.Is(err, credentials.ErrIncorrectPassword):
		s.log.Info(ctx, "login rejected")
		return "", common.ErrorUnauthorized
	default:
		s.log.Error(ctx, "login failed", "error", err)
		return "", common.ErrorInternal
	}
}

// Authenticate returns the subject of a valid access token. The error wraps
// both common.ErrorUnauthorized and the underlying *auth.TokenError.
func (s *UserService) Authenticate(ctx context.Context, token string) (string, error) {
	subject, err := s.tokens.Verify(s.secret, token)
	if err != nil {
		s.log.Debug(ctx, "token rejected", "reason", tokenErrorKind(err))
		return "", fmt.Errorf("%w: %w", common.ErrorUnauthorized, err)
	}
	return subject, nil
}

func tokenErrorKind(err error) string {
	var te *auth.TokenError
	if errors.As(err, &te) {
		return te.Kind.String()
	}
	return "unknown"
}
