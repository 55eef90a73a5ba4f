package postgres

import (
	"context"
	"errors"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/domain"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/port"
)

// ErrFunctionWithoutURL is returned when a function row has a NULL api_url.
var ErrFunctionWithoutURL = errors.New("function has no api url")

// FunctionRepository implements port.FunctionRepository over the function and role_function tables.
type FunctionRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewFunctionRepository constructs a repository backed by any executor that satisfies pgExecutor.
func NewFunctionRepository(exec pgExecutor) *FunctionRepository {
	return &FunctionRepository{
		exec:    exec,
		builder: newBuilder(),
	}
}

// ListActive returns all non-deleted functions in display order.
func (r *FunctionRepository) ListActive(ctx context.Context) ([]domain.Function, error) {
	stmt, args, err := r.builder.
		Select(
			"f.function_id",
			"COALESCE(f.api_url, '')",
			"COALESCE(f.description, '')",
			"COALESCE(f.is_delete, false)",
			"COALESCE(f.display_order, 0)",
			"f.api_url IS NULL",
		).
		From("function f").
		Where("COALESCE(f.is_delete, false) = false").
		OrderBy("f.display_order", "f.function_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select functions sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query functions: %w", err)
	}
	return collectFunctions(rows)
}

// ListByRoleIDs returns the non-deleted functions granted to any of roleIDs.
// A function granted to several of the roles appears once per grant; callers
// de-duplicate.
func (r *FunctionRepository) ListByRoleIDs(ctx context.Context, roleIDs []int64) ([]domain.Function, error) {
	if len(roleIDs) == 0 {
		return nil, nil
	}

	stmt, args, err := r.builder.
		Select(
			"f.function_id",
			"COALESCE(f.api_url, '')",
			"COALESCE(f.description, '')",
			"COALESCE(f.is_delete, false)",
			"COALESCE(f.display_order, 0)",
			"f.api_url IS NULL",
		).
		From("role_function rf").
		Join("function f ON f.function_id = rf.function_id").
		Where("rf.role_id = ANY(?)", roleIDs).
		Where("COALESCE(f.is_delete, false) = false").
		OrderBy("rf.role_id", "f.display_order", "f.function_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select granted functions sql: %w", err)
	}

	rows, err := r.exec.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query granted functions: %w", err)
	}
	return collectFunctions(rows)
}

func collectFunctions(rows pgx.Rows) ([]domain.Function, error) {
	defer rows.Close()

	var functions []domain.Function
	for rows.Next() {
		var (
			fn     domain.Function
			noPath bool
		)
		if err := rows.Scan(&fn.ID, &fn.APIURLPrefix, &fn.Description, &fn.Deleted, &fn.DisplayOrder, &noPath); err != nil {
			return nil, fmt.Errorf("scan function: %w", err)
		}
		// A function without an api_url cannot be matched against a path.
		if noPath {
			return nil, fmt.Errorf("function %d: %w", fn.ID, ErrFunctionWithoutURL)
		}
		functions = append(functions, fn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate functions: %w", err)
	}
	return functions, nil
}

var _ port.FunctionRepository = (*FunctionRepository)(nil)
