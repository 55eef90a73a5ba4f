package usecase

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/domain"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/core/port"
	"github.com/toanftraanf/cdyt-clone-in-springboot/internal/infra/logger"
)

const tracerName = "github.com/toanftraanf/cdyt-clone-in-springboot/internal/usecase"

// Decision is the outcome of a path permission check.
type Decision int

const (
	Deny Decision = iota
	Allow
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// GrantSource returns the merged, de-duplicated functions granted to roles.
type GrantSource interface {
	GetByRoles(ctx context.Context, roleIDs []int64) ([]domain.Function, error)
}

// PermissionResolver decides whether an identity may reach a request path.
//
// A path is protected when any active function's prefix matches it. Protected
// paths are allowed only if one of the identity's roles is granted a function
// whose prefix matches. Any single match authorizes; overlapping prefixes are
// not ranked. Every failure is logged and denied.
type PermissionResolver struct {
	functions port.FunctionRepository
	grants    GrantSource
	logger    *zap.Logger
	tracer    trace.Tracer
}

// NewPermissionResolver constructs a resolver.
func NewPermissionResolver(functions port.FunctionRepository, grants GrantSource, logger *zap.Logger) *PermissionResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PermissionResolver{
		functions: functions,
		grants:    grants,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
	}
}

// Check returns Allow or Deny for identity requesting path.
func (r *PermissionResolver) Check(ctx context.Context, identity *domain.Identity, path string) Decision {
	ctx, span := r.tracer.Start(ctx, "permission.check", trace.WithAttributes(attribute.String("http.route", path)))
	defer span.End()

	decision, reason, err := r.evaluate(ctx, identity, path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "permission evaluation failed")
		logger.WithContext(ctx).Error("permission evaluation failed, denying",
			zap.String("path", path),
			zap.Error(err),
		)
		return Deny
	}

	span.SetAttributes(
		attribute.String("auth.decision", decision.String()),
		attribute.String("auth.reason", reason),
	)
	if decision == Deny {
		r.logger.Debug("permission denied", zap.String("path", path), zap.String("reason", reason))
	}
	return decision
}

func (r *PermissionResolver) evaluate(ctx context.Context, identity *domain.Identity, path string) (decision Decision, reason string, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			decision, reason, err = Deny, "panic", fmt.Errorf("permission check panicked: %v", recovered)
		}
	}()

	if r.functions == nil || r.grants == nil {
		return Deny, "unconfigured", errors.New("permission resolver not configured")
	}

	functions, err := r.functions.ListActive(ctx)
	if err != nil {
		return Deny, "store", fmt.Errorf("list functions: %w", err)
	}
	if !anyGuards(functions, path) {
		return Allow, "unprotected", nil
	}

	if !identity.HasRoles() {
		return Deny, "no_roles", nil
	}

	granted, err := r.grants.GetByRoles(ctx, identity.RoleIDs())
	if err != nil {
		return Deny, "store", fmt.Errorf("load grants: %w", err)
	}
	if len(granted) == 0 {
		return Deny, "no_grants", nil
	}
	if anyGuards(granted, path) {
		return Allow, "granted", nil
	}
	return Deny, "not_granted", nil
}

func anyGuards(functions []domain.Function, path string) bool {
	for _, fn := range functions {
		if !fn.Deleted && fn.Guards(path) {
			return true
		}
	}
	return false
}
