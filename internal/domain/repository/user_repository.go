package repository

import (
	"context"
	"errors"

	"github.com/roamerhq/roamer-api/internal/domain/entity"
)

// ErrNotFound is returned by all repositories when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicateEmail is returned by Create when the normalized email is
// already taken. Creation must fail, never dedupe silently.
var ErrDuplicateEmail = errors.New("email already registered")

// UserRepository defines the interface for user-related database operations.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// List returns all users with their place ids; password hashes are not
	// part of the projection.
	List(ctx context.Context) ([]*entity.User, error)
}
