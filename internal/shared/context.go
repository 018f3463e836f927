package shared

import (
	"context"
	"slices"
)

// Role names the caller's function in the service network.
type Role string

const (
	RoleRSM        Role = "rsm"
	RoleASC        Role = "asc"
	RoleTechnician Role = "technician"
	RoleAdmin      Role = "admin"
)

// Principal is the authenticated caller as supplied by the auth gateway.
type Principal struct {
	UserID    int64   `json:"user_id"`
	Role      Role    `json:"role"`
	RegionIDs []int64 `json:"region_ids"`
}

// InRegion reports whether regionID is assigned to the principal.
func (p Principal) InRegion(regionID int64) bool {
	return slices.Contains(p.RegionIDs, regionID)
}

type principalContextKey struct{}

// ContextWithPrincipal stores the principal in context.
func ContextWithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFromContext extracts the principal from context.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey{}).(*Principal)
	return p
}
