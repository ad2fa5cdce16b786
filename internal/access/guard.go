package access

import (
	"context"

	"github.com/google/uuid"
)

// CanManageMembers reports whether a role may invite or edit members.
func CanManageMembers(acting Role) bool {
	return IsManagerOrHigher(acting)
}

// CanAssignRole reports whether acting may move a member from current to
// desired. Owners may assign any role, including to other owners. Everyone
// else must be a manager who strictly outranks both the member's current
// role and the role being granted, so only owners may grant Owner.
func CanAssignRole(acting, current, desired Role) bool {
	if !desired.Valid() {
		return false
	}
	if IsOwner(acting) {
		return true
	}
	return IsManagerOrHigher(acting) &&
		IsStrictlyHigher(acting, current) &&
		IsStrictlyHigher(acting, desired)
}

// CanRemoveMember reports whether acting may remove the target. Members may
// always remove themselves.
func CanRemoveMember(acting, target Role, actingUserID, targetUserID uuid.UUID) bool {
	if actingUserID == targetUserID {
		return true
	}
	return IsManagerOrHigher(acting) && IsStrictlyHigher(acting, target)
}

// Guard combines membership and entitlement resolution for request handlers.
type Guard struct {
	members      *Resolver
	entitlements *EntitlementResolver
}

func NewGuard(members *Resolver, entitlements *EntitlementResolver) *Guard {
	return &Guard{members: members, entitlements: entitlements}
}

// ProjectAccess is the outcome of a successful project membership check.
type ProjectAccess struct {
	Project    Project
	Membership EffectiveMembership
}

// RequireProjectMember loads the project and the user's effective role on
// it. Missing projects and non-members both yield ErrNotAMember.
func (g *Guard) RequireProjectMember(ctx context.Context, userID, projectID uuid.UUID) (*ProjectAccess, error) {
	project, err := g.members.Project(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrNotAMember
	}

	m, err := g.members.ResolveForProject(ctx, userID, *project)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotAMember
	}
	return &ProjectAccess{Project: *project, Membership: *m}, nil
}

// RequireProjectRole is RequireProjectMember plus a minimum role.
func (g *Guard) RequireProjectRole(ctx context.Context, userID, projectID uuid.UUID, min Role) (*ProjectAccess, error) {
	pa, err := g.RequireProjectMember(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	if !IsHigherOrEqual(pa.Membership.Role, min) {
		return nil, ErrPermissionDenied
	}
	return pa, nil
}

// RequireOrganizationRole checks the user's direct role in an organization.
func (g *Guard) RequireOrganizationRole(ctx context.Context, userID, organizationID uuid.UUID, min Role) (*EffectiveMembership, error) {
	m, err := g.members.ResolveOrganization(ctx, userID, organizationID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotAMember
	}
	if !IsHigherOrEqual(m.Role, min) {
		return nil, ErrPermissionDenied
	}
	return m, nil
}

func (g *Guard) RequireFeature(ctx context.Context, project Project, feature Feature) error {
	return g.entitlements.Require(ctx, project, feature)
}

func (g *Guard) Features(ctx context.Context, project Project) (map[Feature]bool, error) {
	return g.entitlements.EnabledFeatures(ctx, project)
}
