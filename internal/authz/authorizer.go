package authz

import (
	"context"
	"fmt"

	"github.com/servicehub/sparecrm/internal/location"
	"github.com/servicehub/sparecrm/internal/shared"
)

// Authorizer checks approval authority.
type Authorizer struct {
	directory Directory
}

// NewAuthorizer builds an Authorizer.
func NewAuthorizer(directory Directory) *Authorizer {
	return &Authorizer{directory: directory}
}

// Principal resolves a user id.
func (a *Authorizer) Principal(ctx context.Context, userID int64) (shared.Principal, error) {
	if userID <= 0 {
		return shared.Principal{}, shared.ErrUnauthenticated
	}
	return a.directory.LookupPrincipal(ctx, userID)
}

// AuthorizeApproval requires the RSM role and a region assignment covering
// target, the request's requested-to location.
func (a *Authorizer) AuthorizeApproval(ctx context.Context, p shared.Principal, target location.Location) error {
	if p.Role != shared.RoleRSM {
		return fmt.Errorf("%w: role %q cannot approve spare requests", shared.ErrForbidden, p.Role)
	}
	region, err := a.directory.RegionOf(ctx, target)
	if err != nil {
		return err
	}
	if !p.InRegion(region) {
		return fmt.Errorf("%w: user %d has no authority over %s", shared.ErrForbidden, p.UserID, target)
	}
	return nil
}
