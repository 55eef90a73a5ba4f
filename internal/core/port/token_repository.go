package port

import (
	"context"
	"time"

	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/domain"
)

// TokenRepository persists issued session tokens.
type TokenRepository interface {
	Create(ctx context.Context, token *domain.IssuedToken) error
	// GetWithOwner loads the row by token string joined with its owner's email.
	GetWithOwner(ctx context.Context, token string) (*domain.IssuedToken, error)
	DeleteByID(ctx context.Context, id int64) error
	DeleteByToken(ctx context.Context, token string) (int64, error)
	DeleteByIdentity(ctx context.Context, identityID int64) (int64, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}
