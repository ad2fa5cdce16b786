package access

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ScopeTx is the view of one scope's memberships held while that scope is
// locked. Reads through it observe every write committed before the lock
// was taken.
type ScopeTx interface {
	AssignmentFinder
	ListRoleAssignments(ctx context.Context, scope Scope) ([]Assignment, error)
	SaveRoleAssignment(ctx context.Context, a Assignment) error
	DeleteRoleAssignment(ctx context.Context, userID uuid.UUID, scope Scope) error
}

// MembershipStore serializes mutations per scope. WithinScope must not run
// two functions for the same scope concurrently and must discard fn's
// writes when it returns an error.
type MembershipStore interface {
	ProjectFinder
	AssignmentFinder
	WithinScope(ctx context.Context, scope Scope, fn func(ctx context.Context, tx ScopeTx) error) error
}

// Protocol performs invite, role change and removal. Each operation checks
// permission and the owner invariant and applies its write under the same
// scope lock, so concurrent operations cannot leave a scope without an owner.
type Protocol struct {
	store        MembershipStore
	entitlements *EntitlementResolver
	timeout      time.Duration
	logger       *slog.Logger
}

func NewProtocol(store MembershipStore, entitlements *EntitlementResolver, timeout time.Duration, logger *slog.Logger) *Protocol {
	if logger == nil {
		logger = slog.Default()
	}
	return &Protocol{
		store:        store,
		entitlements: entitlements,
		timeout:      timeout,
		logger:       logger,
	}
}

// Invite adds target to the scope as a Translator.
func (p *Protocol) Invite(ctx context.Context, actorID uuid.UUID, scope Scope, targetUserID uuid.UUID) (*Assignment, error) {
	project, err := p.loadScope(ctx, scope)
	if err != nil {
		return nil, err
	}
	if project != nil {
		actor, err := p.resolveActor(ctx, actorID, scope, project)
		if err != nil {
			return nil, err
		}
		if !CanManageMembers(actor.Role) {
			return nil, ErrPermissionDenied
		}
		if err := p.entitlements.Require(ctx, *project, FeatureBasicPermissionSystem); err != nil {
			return nil, err
		}
	}

	created := Assignment{UserID: targetUserID, Scope: scope, Role: RoleTranslator}
	err = p.within(ctx, "invite member", scope, func(ctx context.Context, tx ScopeTx) error {
		actor, err := p.actor(ctx, tx, actorID, scope, project)
		if err != nil {
			return err
		}
		if !CanManageMembers(actor.Role) {
			return ErrPermissionDenied
		}

		// Organization members already belong to its projects.
		existing, err := ResolveInScope(ctx, tx, targetUserID, scope, project)
		if err != nil {
			return fmt.Errorf("resolve invitee: %w", err)
		}
		if existing != nil {
			return ErrAlreadyMember
		}

		if err := tx.SaveRoleAssignment(ctx, created); err != nil {
			return fmt.Errorf("save assignment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.logger.Info("member invited",
		"scope", scope.String(),
		"actor_id", actorID,
		"user_id", targetUserID,
		"role", created.Role,
	)
	return &created, nil
}

// ChangeRole moves an existing member of the scope to desired.
func (p *Protocol) ChangeRole(ctx context.Context, actorID uuid.UUID, scope Scope, targetUserID uuid.UUID, desired Role) (*Assignment, error) {
	if !desired.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, desired)
	}

	project, err := p.loadScope(ctx, scope)
	if err != nil {
		return nil, err
	}
	if project != nil && desired != RoleTranslator {
		if err := p.authorizeRoleChange(ctx, actorID, scope, project, targetUserID, desired); err != nil {
			return nil, err
		}
		if err := p.entitlements.Require(ctx, *project, FeatureBasicPermissionSystem); err != nil {
			return nil, err
		}
	}

	var previous Role
	updated := Assignment{UserID: targetUserID, Scope: scope, Role: desired}
	err = p.within(ctx, "change member role", scope, func(ctx context.Context, tx ScopeTx) error {
		actor, err := p.actor(ctx, tx, actorID, scope, project)
		if err != nil {
			return err
		}

		target, err := tx.FindRoleAssignment(ctx, targetUserID, scope)
		if err != nil {
			return fmt.Errorf("find target assignment: %w", err)
		}
		if target == nil {
			return ErrNotAMember
		}
		previous = target.Role

		if !CanAssignRole(actor.Role, target.Role, desired) {
			return ErrPermissionDenied
		}
		if target.Role == desired {
			return nil
		}
		if IsOwner(target.Role) {
			if err := p.requireAnotherOwner(ctx, tx, scope); err != nil {
				return err
			}
		}

		if err := tx.SaveRoleAssignment(ctx, updated); err != nil {
			return fmt.Errorf("save assignment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if previous != desired {
		p.logger.Info("member role changed",
			"scope", scope.String(),
			"actor_id", actorID,
			"user_id", targetUserID,
			"from", previous,
			"to", desired,
		)
	}
	return &updated, nil
}

// Remove deletes target's assignment in the scope. Removing an inherited
// organization member from a project is not possible; they have no
// assignment there.
func (p *Protocol) Remove(ctx context.Context, actorID uuid.UUID, scope Scope, targetUserID uuid.UUID) error {
	project, err := p.loadScope(ctx, scope)
	if err != nil {
		return err
	}

	var removed Role
	err = p.within(ctx, "remove member", scope, func(ctx context.Context, tx ScopeTx) error {
		actor, err := p.actor(ctx, tx, actorID, scope, project)
		if err != nil {
			return err
		}

		target, err := tx.FindRoleAssignment(ctx, targetUserID, scope)
		if err != nil {
			return fmt.Errorf("find target assignment: %w", err)
		}
		if target == nil {
			return ErrNotAMember
		}
		removed = target.Role

		if !CanRemoveMember(actor.Role, target.Role, actorID, targetUserID) {
			return ErrPermissionDenied
		}
		if IsOwner(target.Role) {
			if err := p.requireAnotherOwner(ctx, tx, scope); err != nil {
				return err
			}
		}

		if err := tx.DeleteRoleAssignment(ctx, targetUserID, scope); err != nil {
			return fmt.Errorf("delete assignment: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	p.logger.Info("member removed",
		"scope", scope.String(),
		"actor_id", actorID,
		"user_id", targetUserID,
		"role", removed,
	)
	return nil
}

// loadScope returns the project for project scopes and nil for organizations.
func (p *Protocol) loadScope(ctx context.Context, scope Scope) (*Project, error) {
	if scope.Type != ScopeProject {
		return nil, nil
	}
	project, err := callWithTimeout(ctx, p.timeout, "find project", func(ctx context.Context) (*Project, error) {
		return p.store.FindProject(ctx, scope.ID)
	})
	if err != nil {
		return nil, err
	}
	if project == nil {
		return nil, ErrNotAMember
	}
	return project, nil
}

// resolveActor is actor without the scope lock. It runs ahead of the feature
// gate so that only members allowed to act learn the scope's entitlements;
// the decision is made again under the lock.
func (p *Protocol) resolveActor(ctx context.Context, actorID uuid.UUID, scope Scope, project *Project) (*EffectiveMembership, error) {
	m, err := callWithTimeout(ctx, p.timeout, "resolve actor", func(ctx context.Context) (*EffectiveMembership, error) {
		return ResolveInScope(ctx, p.store, actorID, scope, project)
	})
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrNotAMember
	}
	return m, nil
}

func (p *Protocol) authorizeRoleChange(ctx context.Context, actorID uuid.UUID, scope Scope, project *Project, targetUserID uuid.UUID, desired Role) error {
	actor, err := p.resolveActor(ctx, actorID, scope, project)
	if err != nil {
		return err
	}
	target, err := callWithTimeout(ctx, p.timeout, "find target assignment", func(ctx context.Context) (*Assignment, error) {
		return p.store.FindRoleAssignment(ctx, targetUserID, scope)
	})
	if err != nil {
		return err
	}
	if target == nil {
		return ErrNotAMember
	}
	if !CanAssignRole(actor.Role, target.Role, desired) {
		return ErrPermissionDenied
	}
	return nil
}

func (p *Protocol) actor(ctx context.Context, tx ScopeTx, actorID uuid.UUID, scope Scope, project *Project) (*EffectiveMembership, error) {
	m, err := ResolveInScope(ctx, tx, actorID, scope, project)
	if err != nil {
		return nil, fmt.Errorf("resolve actor: %w", err)
	}
	if m == nil {
		return nil, ErrNotAMember
	}
	return m, nil
}

func (p *Protocol) requireAnotherOwner(ctx context.Context, tx ScopeTx, scope Scope) error {
	assignments, err := tx.ListRoleAssignments(ctx, scope)
	if err != nil {
		return fmt.Errorf("list assignments: %w", err)
	}
	owners := 0
	for _, a := range assignments {
		if IsOwner(a.Role) {
			owners++
		}
	}
	if owners <= 1 {
		return ErrLastOwnerProtected
	}
	return nil
}

// within runs fn under the scope lock. Decisions pass through unchanged and
// every other failure is reported as ErrCollaboratorUnavailable.
func (p *Protocol) within(ctx context.Context, op string, scope Scope, fn func(ctx context.Context, tx ScopeTx) error) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	err := p.store.WithinScope(ctx, scope, fn)
	if err == nil || IsDecision(err) {
		return err
	}
	return Unavailable(op, err)
}
