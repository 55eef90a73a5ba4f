package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/domain"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/port"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/repository"
)

// TokenRepository implements port.TokenRepository over the usertoken table.
type TokenRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewTokenRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewTokenRepository(exec pgExecutor) *TokenRepository {
	return &TokenRepository{
		exec:    exec,
		builder: newBuilder(),
	}
}

// Create inserts a new session row and assigns the generated ID.
func (r *TokenRepository) Create(ctx context.Context, token *domain.IssuedToken) error {
	if token == nil {
		return fmt.Errorf("token is required")
	}

	stmt, args, err := r.builder.Insert("usertoken").
		Columns("token", "user_id", "expired_date", "is_remember_password", "created_at").
		Values(token.Token, token.IdentityID, token.ExpiresAt, token.RememberMe, token.CreatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert token sql: %w", err)
	}

	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&token.ID); err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	return nil
}

// GetWithOwner loads a session row together with its owner's email in one read.
func (r *TokenRepository) GetWithOwner(ctx context.Context, token string) (*domain.IssuedToken, error) {
	stmt, args, err := r.builder.
		Select(
			"t.id",
			"t.token",
			"t.user_id",
			"u.email",
			"t.expired_date",
			"t.is_remember_password",
			"t.created_at",
		).
		From("usertoken t").
		Join("users u ON u.id = t.user_id").
		Where(squirrel.Eq{"t.token": token}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select token sql: %w", err)
	}

	var issued domain.IssuedToken
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&issued.ID,
		&issued.Token,
		&issued.IdentityID,
		&issued.OwnerEmail,
		&issued.ExpiresAt,
		&issued.RememberMe,
		&issued.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan token: %w", err)
	}
	return &issued, nil
}

// DeleteByID removes a single row. Deleting a missing row is not an error.
func (r *TokenRepository) DeleteByID(ctx context.Context, id int64) error {
	_, err := r.delete(ctx, squirrel.Eq{"id": id}, "token by id")
	return err
}

// DeleteByToken removes the row matching the token string and reports how many rows went away.
func (r *TokenRepository) DeleteByToken(ctx context.Context, token string) (int64, error) {
	return r.delete(ctx, squirrel.Eq{"token": token}, "token")
}

// DeleteByIdentity removes every row owned by the identity.
func (r *TokenRepository) DeleteByIdentity(ctx context.Context, identityID int64) (int64, error) {
	return r.delete(ctx, squirrel.Eq{"user_id": identityID}, "tokens by identity")
}

// DeleteExpired removes every row whose expiration lies before the reference time.
func (r *TokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	return r.delete(ctx, squirrel.Lt{"expired_date": before}, "expired tokens")
}

func (r *TokenRepository) delete(ctx context.Context, where squirrel.Sqlizer, what string) (int64, error) {
	stmt, args, err := r.builder.Delete("usertoken").Where(where).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete %s sql: %w", what, err)
	}

	tag, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", what, err)
	}
	return tag.RowsAffected(), nil
}

var _ port.TokenRepository = (*TokenRepository)(nil)
