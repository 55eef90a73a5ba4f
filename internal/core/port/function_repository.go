package port

import (
	"context"

	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/domain"
)

// FunctionRepository reads protected-resource descriptors and their grants.
type FunctionRepository interface {
	// ListActive returns every non-deleted function ordered by display order.
	ListActive(ctx context.Context) ([]domain.Function, error)
	// ListByRoleIDs returns the non-deleted functions granted to any of the roles.
	ListByRoleIDs(ctx context.Context, roleIDs []int64) ([]domain.Function, error)
}
