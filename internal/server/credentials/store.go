// Package credentials owns the users table: it writes password hashes with
// create-or-update semantics and checks plaintext passwords against them.
package credentials

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/parametrik/internal/common"
	"github.com/dmitrijs2005/parametrik/internal/dbx"
	"github.com/dmitrijs2005/parametrik/internal/server/hasher"
	"github.com/dmitrijs2005/parametrik/internal/server/models"
	"github.com/dmitrijs2005/parametrik/internal/server/repositories/repomanager"
)

// dummyPassword feeds the hash verified for unknown emails.
const dummyPassword = "parametrik-dummy-password"

type Store struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      hasher.Hasher
	dummyHash   string
}

// NewStore hashes a throwaway password once so that lookups for unknown
// emails can run a full verification too.
func NewStore(db *sql.DB, m repomanager.RepositoryManager, h hasher.Hasher) (*Store, error) {
	dummy, err := h.Hash(dummyPassword)
	if err != nil {
		return nil, &HashingError{Err: err}
	}
	return &Store{db: db, repomanager: m, hasher: h, dummyHash: dummy}, nil
}

// RegisterOrUpdate stores passwordHash for email, creating the user if needed.
// Concurrent calls for one email leave exactly one row holding the hash of
// whichever write committed last.
func (s *Store) RegisterOrUpdate(ctx context.Context, name, email, passwordHash string) (*models.User, error) {
	var user *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		u, err := s.repomanager.Users(tx).Upsert(ctx, name, email, passwordHash)
		if err != nil {
			return err
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, &StorageError{Conflict: errors.Is(err, common.ErrConflict), Err: err}
	}
	return user, nil
}

// Find returns the user owning email if password matches its stored hash.
func (s *Store) Find(ctx context.Context, email, password string) (*models.User, error) {
	creds, err := s.repomanager.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_, _ = s.hasher.Verify(password, s.dummyHash)
			return nil, ErrUserNotFound
		}
		return nil, &StorageError{Err: err}
	}

	ok, err := s.hasher.Verify(password, creds.PasswordHash)
	if err != nil {
		return nil, &HashingError{Err: fmt.Errorf("user %d: %w", creds.ID, err)}
	}
	if !ok {
		return nil, ErrIncorrectPassword
	}

	u := creds.User
	return &u, nil
}
