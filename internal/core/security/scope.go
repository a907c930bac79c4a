// Package security provides authorization and access control.
package security

import (
	"context"
	"fmt"

	"mams/internal/core/apperror"
	appctx "mams/internal/core/context"
)

// Permission defines available permissions in the system.
type Permission string

const (
	PermissionRead   Permission = "read"
	PermissionCreate Permission = "create"
	PermissionUpdate Permission = "update"
	PermissionDelete Permission = "delete"
)

// Role defines a set of permissions.
type Role string

const (
	RoleAdmin         Role = "admin"
	RoleBaseCommander Role = "base_commander"
	RoleLogistics     Role = "logistics"
)

var rolePermissions = map[Role][]Permission{
	RoleAdmin:         {PermissionRead, PermissionCreate, PermissionUpdate, PermissionDelete},
	RoleBaseCommander: {PermissionRead, PermissionCreate, PermissionUpdate},
	RoleLogistics:     {PermissionRead},
}

// IsKnownRole reports whether r is one of the configured roles.
func IsKnownRole(r string) bool {
	_, ok := rolePermissions[Role(r)]
	return ok
}

// AccessScope defines the boundaries of data visibility for current request.
// Only admin is privileged; every other role is pinned to its home base.
type AccessScope struct {
	UserID     string
	Role       Role
	HomeBaseID *int64
}

// NewAccessScope creates AccessScope from context.
func NewAccessScope(ctx context.Context) *AccessScope {
	user := appctx.GetUser(ctx)
	if user == nil {
		return &AccessScope{}
	}

	return &AccessScope{
		UserID:     user.UserID,
		Role:       Role(user.Role),
		HomeBaseID: user.BaseID,
	}
}

// IsPrivileged reports whether the caller may target any base.
func (s *AccessScope) IsPrivileged() bool {
	return s.Role == RoleAdmin
}

// HasPermission checks if the role grants perm.
func (s *AccessScope) HasPermission(perm Permission) bool {
	for _, p := range rolePermissions[s.Role] {
		if p == perm {
			return true
		}
	}
	return false
}

// RequirePermission returns error if permission is missing.
func (s *AccessScope) RequirePermission(entity string, perm Permission) error {
	if !s.HasPermission(perm) {
		return apperror.NewForbidden(
			fmt.Sprintf("permission %s on %s required", perm, entity),
		).WithDetail("entity", entity).WithDetail("permission", perm)
	}
	return nil
}

// TargetBase resolves the base a mutation is allowed to touch.
// Privileged callers must name the base. Scoped callers get their home base
// when nothing is requested and ForbiddenScope for any other base.
func (s *AccessScope) TargetBase(requested *int64, field string) (int64, error) {
	if s.IsPrivileged() {
		if requested == nil {
			return 0, apperror.NewValidation(field + " is required").WithDetail("field", field)
		}
		return *requested, nil
	}
	if s.HomeBaseID == nil {
		return 0, apperror.NewForbiddenScope("no base assigned to this account")
	}
	if requested != nil && *requested != *s.HomeBaseID {
		return 0, s.forbidden(*requested)
	}
	return *s.HomeBaseID, nil
}

// CanAccessBase checks whether the caller may act on baseID.
func (s *AccessScope) CanAccessBase(baseID int64) bool {
	if s.IsPrivileged() {
		return true
	}
	return s.HomeBaseID != nil && *s.HomeBaseID == baseID
}

// RequireBase returns ForbiddenScope when baseID is outside the caller's scope.
func (s *AccessScope) RequireBase(baseID int64) error {
	if !s.CanAccessBase(baseID) {
		return s.forbidden(baseID)
	}
	return nil
}

// ReadBase narrows a read filter. Privileged callers keep what they asked for
// (nil means every base); scoped callers always read their home base.
func (s *AccessScope) ReadBase(requested *int64) (*int64, error) {
	if s.IsPrivileged() {
		return requested, nil
	}
	if s.HomeBaseID == nil {
		return nil, apperror.NewForbiddenScope("no base assigned to this account")
	}
	if requested != nil && *requested != *s.HomeBaseID {
		return nil, s.forbidden(*requested)
	}
	home := *s.HomeBaseID
	return &home, nil
}

func (s *AccessScope) forbidden(baseID int64) *apperror.AppError {
	return apperror.NewForbiddenScope("operation outside of your base is not allowed").
		WithDetail("baseId", baseID).
		WithDetail("role", string(s.Role))
}

// --- Context-based scope access ---

type scopeKey struct{}

// WithScope adds AccessScope to context.
func WithScope(ctx context.Context, scope *AccessScope) context.Context {
	return context.WithValue(ctx, scopeKey{}, scope)
}

// GetScope returns AccessScope from context.
func GetScope(ctx context.Context) *AccessScope {
	if v, ok := ctx.Value(scopeKey{}).(*AccessScope); ok {
		return v
	}
	return NewAccessScope(ctx)
}
