package users

import (
	"context"

	"github.com/dmitrijs2005/parametrik/internal/server/models"
)

type Repository interface {
	// Upsert inserts a user or, when the email is taken, replaces its name
	// and password hash. The id of an existing row never changes.
	Upsert(ctx context.Context, name, email, passwordHash string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.UserCredentials, error)
}
