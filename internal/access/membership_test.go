package access_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hugh/langhub/internal/access"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_Resolve(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	orgID := uuid.New()
	orgProject := store.addProject(&orgID)
	privateProject := store.addProject(nil)
	resolver := access.NewResolver(store, store, time.Second)

	t.Run("project assignment wins over organization", func(t *testing.T) {
		user := uuid.New()
		store.assign(user, access.OrganizationScope(orgID), access.RoleOwner)
		store.assign(user, access.ProjectScope(orgProject.ID), access.RoleTranslator)

		m, err := resolver.Resolve(ctx, user, orgProject.ID)
		require.NoError(t, err)
		require.NotNil(t, m)
		assert.Equal(t, access.RoleTranslator, m.Role)
		assert.Equal(t, access.SourceProject, m.Source)
	})

	t.Run("falls back to organization role", func(t *testing.T) {
		user := uuid.New()
		store.assign(user, access.OrganizationScope(orgID), access.RoleManager)

		m, err := resolver.Resolve(ctx, user, orgProject.ID)
		require.NoError(t, err)
		require.NotNil(t, m)
		assert.Equal(t, access.RoleManager, m.Role)
		assert.Equal(t, access.SourceOrganization, m.Source)
	})

	t.Run("private project has no fallback", func(t *testing.T) {
		user := uuid.New()
		store.assign(user, access.OrganizationScope(orgID), access.RoleOwner)

		m, err := resolver.Resolve(ctx, user, privateProject.ID)
		require.NoError(t, err)
		assert.Nil(t, m)
	})

	t.Run("no assignment at all", func(t *testing.T) {
		m, err := resolver.Resolve(ctx, uuid.New(), orgProject.ID)
		require.NoError(t, err)
		assert.Nil(t, m)
	})

	t.Run("unknown project", func(t *testing.T) {
		m, err := resolver.Resolve(ctx, uuid.New(), uuid.New())
		require.NoError(t, err)
		assert.Nil(t, m)
	})
}

func TestResolver_StoreFailure(t *testing.T) {
	store := newMemoryStore()
	project := store.addProject(nil)
	store.failFind = true

	resolver := access.NewResolver(store, store, time.Second)
	m, err := resolver.Resolve(context.Background(), uuid.New(), project.ID)
	assert.Nil(t, m)
	require.ErrorIs(t, err, access.ErrCollaboratorUnavailable)
	assert.ErrorIs(t, err, errStoreDown)
}

type panickingFinder struct{}

func (panickingFinder) FindRoleAssignment(context.Context, uuid.UUID, access.Scope) (*access.Assignment, error) {
	panic("driver bug")
}

func TestResolver_CollaboratorPanic(t *testing.T) {
	store := newMemoryStore()
	project := store.addProject(nil)

	resolver := access.NewResolver(panickingFinder{}, store, time.Second)
	m, err := resolver.Resolve(context.Background(), uuid.New(), project.ID)
	assert.Nil(t, m)
	require.ErrorIs(t, err, access.ErrCollaboratorUnavailable)
	assert.Contains(t, err.Error(), "driver bug")
}

func TestGuard_RequireProjectRole(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	project := store.addProject(nil)
	guard := access.NewGuard(
		access.NewResolver(store, store, time.Second),
		access.NewEntitlementResolver(&fakeBilling{}, &fakeLicenses{}, time.Second),
	)

	developer := uuid.New()
	store.assign(developer, access.ProjectScope(project.ID), access.RoleDeveloper)

	pa, err := guard.RequireProjectRole(ctx, developer, project.ID, access.RoleDeveloper)
	require.NoError(t, err)
	assert.Equal(t, project.ID, pa.Project.ID)

	_, err = guard.RequireProjectRole(ctx, developer, project.ID, access.RoleManager)
	assert.ErrorIs(t, err, access.ErrPermissionDenied)

	_, err = guard.RequireProjectMember(ctx, uuid.New(), project.ID)
	assert.ErrorIs(t, err, access.ErrNotAMember)

	_, err = guard.RequireProjectMember(ctx, developer, uuid.New())
	assert.ErrorIs(t, err, access.ErrNotAMember)
}
