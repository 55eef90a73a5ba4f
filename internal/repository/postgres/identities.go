package postgres

import (
	"context"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/domain"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/port"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/repository"
)

var identityColumns = []string{
	"id",
	"email",
	"password",
	"full_name",
	"COALESCE(is_active, false)",
	"COALESCE(is_verified, false)",
	"COALESCE(is_deleted, false)",
}

const uniqueViolation = "23505"

type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// IdentityRepository implements port.IdentityRepository over the users, role and user_role tables.
type IdentityRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewIdentityRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewIdentityRepository(exec pgExecutor) *IdentityRepository {
	return &IdentityRepository{
		exec:    exec,
		builder: newBuilder(),
	}
}

// WithTx returns a repository instance operating within the supplied transaction.
func (r *IdentityRepository) WithTx(tx pgx.Tx) *IdentityRepository {
	if tx == nil {
		return r
	}
	return &IdentityRepository{
		exec:    tx,
		builder: r.builder,
	}
}

// GetByEmail loads a non-deleted identity and its non-deleted roles.
func (r *IdentityRepository) GetByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	return r.getOne(ctx, squirrel.Eq{"email": email})
}

func (r *IdentityRepository) getOne(ctx context.Context, where squirrel.Sqlizer) (*domain.Identity, error) {
	stmt, args, err := r.builder.
		Select(identityColumns...).
		From("users").
		Where(where).
		Where("COALESCE(is_deleted, false) = false").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select identity sql: %w", err)
	}

	var identity domain.Identity
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(
		&identity.ID,
		&identity.Email,
		&identity.PasswordHash,
		&identity.FullName,
		&identity.Active,
		&identity.Verified,
		&identity.Deleted,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan identity: %w", err)
	}

	roles, err := r.loadRoles(ctx, identity.ID)
	if err != nil {
		return nil, err
	}
	identity.Roles = roles

	return &identity, nil
}

func (r *IdentityRepository) loadRoles(ctx context.Context, identityID int64) ([]domain.Role, error) {
	stmt, args, err := r.builder.
		Select("r.id", "r.role_name", "r.role_type", "COALESCE(r.is_deleted, false)").
		From("role r").
		Join("user_role ur ON ur.role_id = r.id").
		Where(squirrel.Eq{"ur.user_id": identityID}).
		Where("COALESCE(r.is_deleted, false) = false").
		OrderBy("r.id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select identity roles sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query identity roles: %w", err)
	}
	defer rows.Close()

	var roles []domain.Role
	for rows.Next() {
		var role domain.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Type, &role.Deleted); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate identity roles: %w", err)
	}

	return roles, nil
}

// ExistsByEmail reports whether any account, deleted or not, already uses the email.
func (r *IdentityRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	stmt, args, err := r.builder.
		Select("1").
		Prefix("SELECT EXISTS (").
		From("users").
		Where(squirrel.Eq{"email": email}).
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build identity exists sql: %w", err)
	}

	var exists bool
	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("scan identity exists: %w", err)
	}
	return exists, nil
}

// Create inserts the identity and its role assignments. When the executor can
// open transactions and roles are requested, both statements share one.
func (r *IdentityRepository) Create(ctx context.Context, identity *domain.Identity, roleIDs []int64) error {
	if identity == nil {
		return fmt.Errorf("identity is required")
	}
	if beginner, ok := r.exec.(txBeginner); ok && len(roleIDs) > 0 {
		return pgx.BeginFunc(ctx, beginner, func(tx pgx.Tx) error {
			return r.WithTx(tx).create(ctx, identity, roleIDs)
		})
	}
	return r.create(ctx, identity, roleIDs)
}

func (r *IdentityRepository) create(ctx context.Context, identity *domain.Identity, roleIDs []int64) error {
	stmt, args, err := r.builder.Insert("users").
		Columns("email", "password", "full_name", "is_active", "is_verified", "is_deleted", "created_at").
		Values(identity.Email, identity.PasswordHash, identity.FullName, identity.Active, identity.Verified, false, squirrel.Expr("NOW()")).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert identity sql: %w", err)
	}

	if err := r.exec.QueryRow(ctx, stmt, args...).Scan(&identity.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrConflict
		}
		return fmt.Errorf("insert identity: %w", err)
	}

	if len(roleIDs) == 0 {
		identity.Roles = nil
		return nil
	}

	assign, assignArgs, err := r.builder.Insert("user_role").
		Columns("user_id", "role_id").
		Select(r.builder.
			Select().
			Column(squirrel.Expr("?", identity.ID)).
			Column("id").
			From("role").
			Where("id = ANY(?)", roleIDs).
			Where("COALESCE(is_deleted, false) = false")).
		ToSql()
	if err != nil {
		return fmt.Errorf("build assign roles sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, assign, assignArgs...); err != nil {
		return fmt.Errorf("assign roles: %w", err)
	}

	roles, err := r.loadRoles(ctx, identity.ID)
	if err != nil {
		return err
	}
	identity.Roles = roles
	return nil
}

var _ port.IdentityRepository = (*IdentityRepository)(nil)
