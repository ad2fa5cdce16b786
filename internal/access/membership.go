package access

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Source records where an effective role came from.
type Source string

const (
	SourceProject      Source = "project"
	SourceOrganization Source = "organization"
)

// EffectiveMembership is the role a user holds on a project after
// organization fallback has been applied.
type EffectiveMembership struct {
	Role   Role
	Source Source
}

// AssignmentFinder returns the assignment for a user in a scope, or nil
// when the user holds none there.
type AssignmentFinder interface {
	FindRoleAssignment(ctx context.Context, userID uuid.UUID, scope Scope) (*Assignment, error)
}

// ProjectFinder returns a project by ID, or nil when it does not exist.
type ProjectFinder interface {
	FindProject(ctx context.Context, projectID uuid.UUID) (*Project, error)
}

// ResolveMembership applies the resolution rule against a finder: the
// project assignment wins, otherwise the owning organization's assignment
// is used. A nil result means the user is not a member.
func ResolveMembership(ctx context.Context, finder AssignmentFinder, userID uuid.UUID, project Project) (*EffectiveMembership, error) {
	a, err := finder.FindRoleAssignment(ctx, userID, ProjectScope(project.ID))
	if err != nil {
		return nil, err
	}
	if a != nil {
		return &EffectiveMembership{Role: a.Role, Source: SourceProject}, nil
	}

	if project.OrganizationID == nil {
		return nil, nil
	}

	a, err = finder.FindRoleAssignment(ctx, userID, OrganizationScope(*project.OrganizationID))
	if err != nil {
		return nil, err
	}
	if a != nil {
		return &EffectiveMembership{Role: a.Role, Source: SourceOrganization}, nil
	}
	return nil, nil
}

// ResolveInScope returns the membership a user holds for the given scope.
// Organization scopes have no fallback.
func ResolveInScope(ctx context.Context, finder AssignmentFinder, userID uuid.UUID, scope Scope, project *Project) (*EffectiveMembership, error) {
	if scope.Type == ScopeProject && project != nil {
		return ResolveMembership(ctx, finder, userID, *project)
	}
	a, err := finder.FindRoleAssignment(ctx, userID, scope)
	if err != nil || a == nil {
		return nil, err
	}
	source := SourceProject
	if scope.Type == ScopeOrganization {
		source = SourceOrganization
	}
	return &EffectiveMembership{Role: a.Role, Source: source}, nil
}

// Resolver answers "what role does this user have on this project".
type Resolver struct {
	assignments AssignmentFinder
	projects    ProjectFinder
	timeout     time.Duration
}

func NewResolver(assignments AssignmentFinder, projects ProjectFinder, timeout time.Duration) *Resolver {
	return &Resolver{
		assignments: assignments,
		projects:    projects,
		timeout:     timeout,
	}
}

// Resolve returns the user's effective membership on the project, nil if the
// user is not a member or the project does not exist.
func (r *Resolver) Resolve(ctx context.Context, userID, projectID uuid.UUID) (*EffectiveMembership, error) {
	project, err := r.Project(ctx, projectID)
	if err != nil || project == nil {
		return nil, err
	}
	return r.ResolveForProject(ctx, userID, *project)
}

// ResolveForProject is Resolve for a project the caller has already loaded.
func (r *Resolver) ResolveForProject(ctx context.Context, userID uuid.UUID, project Project) (*EffectiveMembership, error) {
	return callWithTimeout(ctx, r.timeout, "resolve membership", func(ctx context.Context) (*EffectiveMembership, error) {
		return ResolveMembership(ctx, r.assignments, userID, project)
	})
}

// ResolveOrganization returns the user's role in an organization, nil if none.
func (r *Resolver) ResolveOrganization(ctx context.Context, userID, organizationID uuid.UUID) (*EffectiveMembership, error) {
	return callWithTimeout(ctx, r.timeout, "resolve organization membership", func(ctx context.Context) (*EffectiveMembership, error) {
		return ResolveInScope(ctx, r.assignments, userID, OrganizationScope(organizationID), nil)
	})
}

// Project loads a project through the resolver's finder.
func (r *Resolver) Project(ctx context.Context, projectID uuid.UUID) (*Project, error) {
	return callWithTimeout(ctx, r.timeout, "find project", func(ctx context.Context) (*Project, error) {
		return r.projects.FindProject(ctx, projectID)
	})
}
