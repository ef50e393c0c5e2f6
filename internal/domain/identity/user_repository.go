package identity

import (
	"context"

	"github.com/google/uuid"

	"github.com/fleetrent/backend/internal/domain/shared"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// Save creates or updates a user
	Save(ctx context.Context, user *User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)

	// FindByUsername finds a user by username
	FindByUsername(ctx context.Context, username string) (*User, error)

	// FindByIDs loads users for a set of IDs
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*User, error)

	// List lists users with pagination
	List(ctx context.Context, filter shared.Filter) ([]*User, int64, error)

	// ExistsByUsername checks if a username is taken
	ExistsByUsername(ctx context.Context, username string) (bool, error)
}
