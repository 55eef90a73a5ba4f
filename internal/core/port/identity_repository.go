package port

import (
	"context"

	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/domain"
)

// IdentityRepository exposes the identity lookups the auth pipeline needs.
// Implementations return repository.ErrNotFound for unknown or deleted identities.
type IdentityRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.Identity, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Create persists the identity, assigns the generated ID back onto it and
	// attaches the existing, non-deleted roles among roleIDs.
	Create(ctx context.Context, identity *domain.Identity, roleIDs []int64) error
}
