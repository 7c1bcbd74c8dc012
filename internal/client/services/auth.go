// Package services holds the CLI use cases: registering an account, logging
// in and keeping the resulting access token in the local credential cache.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/parametrik/internal/client/client"
	"github.com/dmitrijs2005/parametrik/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/parametrik/internal/common"
	"github.com/dmitrijs2005/parametrik/internal/dbx"
)

// EmailCacheKey stores the email the cached token was issued for.
const EmailCacheKey = "email"

var ErrMissingCredentials = errors.New("email and password are required")

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (*client.User, error)
	// Login returns the issued token and whether it was written to the cache.
	Login(ctx context.Context, email, password string) (token string, cached bool, err error)
	Logout(ctx context.Context) error
}

type authService struct {
	client client.Client
	db     *sql.DB
}

// NewAuthService binds the API client to the credential cache. A nil db
// disables caching.
func NewAuthService(c client.Client, db *sql.DB) AuthService {
	return &authService{client: c, db: db}
}

func (a *authService) Register(ctx context.Context, name, email, password string) (*client.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	return a.client.Register(ctx, strings.TrimSpace(name), email, password)
}

func (a *authService) Login(ctx context.Context, email, password string) (string, bool, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", false, ErrMissingCredentials
	}

	token, err := a.client.Login(ctx, email, password)
	if err != nil {
		return "", false, err
	}

	if a.db == nil {
		return token, false, nil
	}

	err = dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, common.AccessTokenCacheKey, []byte(token)); err != nil {
			return err
		}
		return repo.Set(ctx, EmailCacheKey, []byte(email))
	})
	if err != nil {
		return token, false, fmt.Errorf("save credentials: %w", err)
	}
	return token, true, nil
}

// Logout forgets the cached token. It is a no-op without a cache.
func (a *authService) Logout(ctx context.Context) error {
	if a.db == nil {
		return nil
	}
	return dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Delete(ctx, common.AccessTokenCacheKey); err != nil {
			return err
		}
		return repo.Delete(ctx, EmailCacheKey)
	})
}
