package access

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ScopeType names the kind of resource a role assignment is attached to.
type ScopeType string

const (
	ScopeProject      ScopeType = "project"
	ScopeOrganization ScopeType = "organization"
)

// Scope identifies a single project or organization.
type Scope struct {
	Type ScopeType
	ID   uuid.UUID
}

func ProjectScope(id uuid.UUID) Scope {
	return Scope{Type: ScopeProject, ID: id}
}

func OrganizationScope(id uuid.UUID) Scope {
	return Scope{Type: ScopeOrganization, ID: id}
}

func (s Scope) String() string {
	return string(s.Type) + ":" + s.ID.String()
}

// Assignment is a stored role for one user in one scope.
type Assignment struct {
	UserID uuid.UUID
	Scope  Scope
	Role   Role
}

// Project is the part of a project that access decisions depend on.
type Project struct {
	ID             uuid.UUID
	OrganizationID *uuid.UUID
}

// IsPrivate reports whether the project has no owning organization.
func (p Project) IsPrivate() bool {
	return p.OrganizationID == nil
}

// callWithTimeout runs fn against a collaborator, bounding it by timeout
// even if fn ignores its context. Every failure, including the deadline
// and a panic in fn, is reported as ErrCollaboratorUnavailable.
func callWithTimeout[T any](ctx context.Context, timeout time.Duration, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				ch <- result{err: fmt.Errorf("panic: %v", rec)}
			}
		}()
		v, err := fn(ctx)
		ch <- result{v: v, err: err}
	}()

	select {
	case r := <-ch:
		if r.err != nil {
			return zero, Unavailable(op, r.err)
		}
		return r.v, nil
	case <-ctx.Done():
		return zero, Unavailable(op, ctx.Err())
	}
}
