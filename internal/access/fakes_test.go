package access_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/langhub/internal/access"
)

var errStoreDown = errors.New("store down")

// memoryStore is an in-process MembershipStore. Writes inside WithinScope
// are staged and only applied when fn succeeds.
type memoryStore struct {
	mu          sync.Mutex
	scopeLocks  map[access.Scope]*sync.Mutex
	assignments map[assignmentKey]access.Role
	projects    map[uuid.UUID]access.Project
	failFind    bool
	// pause widens the window between reads and writes in WithinScope.
	pause time.Duration
}

type assignmentKey struct {
	user  uuid.UUID
	scope access.Scope
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		scopeLocks:  make(map[access.Scope]*sync.Mutex),
		assignments: make(map[assignmentKey]access.Role),
		projects:    make(map[uuid.UUID]access.Project),
	}
}

func (s *memoryStore) addProject(orgID *uuid.UUID) access.Project {
	p := access.Project{ID: uuid.New(), OrganizationID: orgID}
	s.projects[p.ID] = p
	return p
}

func (s *memoryStore) assign(user uuid.UUID, scope access.Scope, role access.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.assignments[assignmentKey{user: user, scope: scope}] = role
}

func (s *memoryStore) roleOf(user uuid.UUID, scope access.Scope) (access.Role, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.assignments[assignmentKey{user: user, scope: scope}]
	return r, ok
}

func (s *memoryStore) owners(scope access.Scope) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for k, r := range s.assignments {
		if k.scope == scope && r == access.RoleOwner {
			n++
		}
	}
	return n
}

func (s *memoryStore) FindProject(_ context.Context, id uuid.UUID) (*access.Project, error) {
	p, ok := s.projects[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *memoryStore) FindRoleAssignment(_ context.Context, user uuid.UUID, scope access.Scope) (*access.Assignment, error) {
	if s.failFind {
		return nil, errStoreDown
	}
	r, ok := s.roleOf(user, scope)
	if !ok {
		return nil, nil
	}
	return &access.Assignment{UserID: user, Scope: scope, Role: r}, nil
}

func (s *memoryStore) WithinScope(ctx context.Context, scope access.Scope, fn func(context.Context, access.ScopeTx) error) error {
	s.mu.Lock()
	l, ok := s.scopeLocks[scope]
	if !ok {
		l = &sync.Mutex{}
		s.scopeLocks[scope] = l
	}
	s.mu.Unlock()

	l.Lock()
	defer l.Unlock()

	tx := &memoryTx{store: s, writes: make(map[assignmentKey]*access.Role)}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	if s.pause > 0 {
		time.Sleep(s.pause)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, r := range tx.writes {
		if r == nil {
			delete(s.assignments, k)
			continue
		}
		s.assignments[k] = *r
	}
	return nil
}

type memoryTx struct {
	store  *memoryStore
	writes map[assignmentKey]*access.Role
}

func (tx *memoryTx) FindRoleAssignment(ctx context.Context, user uuid.UUID, scope access.Scope) (*access.Assignment, error) {
	if r, ok := tx.writes[assignmentKey{user: user, scope: scope}]; ok {
		if r == nil {
			return nil, nil
		}
		return &access.Assignment{UserID: user, Scope: scope, Role: *r}, nil
	}
	return tx.store.FindRoleAssignment(ctx, user, scope)
}

func (tx *memoryTx) ListRoleAssignments(_ context.Context, scope access.Scope) ([]access.Assignment, error) {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	var out []access.Assignment
	for k, r := range tx.store.assignments {
		if k.scope == scope {
			out = append(out, access.Assignment{UserID: k.user, Scope: k.scope, Role: r})
		}
	}
	return out, nil
}

func (tx *memoryTx) SaveRoleAssignment(_ context.Context, a access.Assignment) error {
	r := a.Role
	tx.writes[assignmentKey{user: a.UserID, scope: a.Scope}] = &r
	return nil
}

func (tx *memoryTx) DeleteRoleAssignment(_ context.Context, user uuid.UUID, scope access.Scope) error {
	tx.writes[assignmentKey{user: user, scope: scope}] = nil
	return nil
}

type fakeBilling struct {
	enabled map[uuid.UUID]map[access.Feature]bool
	err     error
	block   bool
}

func (b *fakeBilling) OrganizationFeatureEnabled(ctx context.Context, orgID uuid.UUID, f access.Feature) (bool, error) {
	if b.block {
		<-make(chan struct{})
	}
	if b.err != nil {
		return false, b.err
	}
	return b.enabled[orgID][f], nil
}

type fakeLicenses struct {
	license *access.License
	err     error
}

func (l *fakeLicenses) CurrentActiveLicense(context.Context) (*access.License, error) {
	return l.license, l.err
}

func licenseFor(plan access.Plan) *fakeLicenses {
	return &fakeLicenses{license: &access.License{
		ID:           uuid.New(),
		Restrictions: access.LicenseRestrictions{Plan: plan},
		StartsAt:     time.Now().Add(-time.Hour),
		ExpiresAt:    time.Now().Add(time.Hour),
	}}
}
