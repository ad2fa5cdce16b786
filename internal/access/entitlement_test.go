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

func TestFeatureAllowed(t *testing.T) {
	assert.False(t, access.FeatureAllowed(access.FeatureBasicPermissionSystem, access.PlanFree))
	assert.True(t, access.FeatureAllowed(access.FeatureBasicPermissionSystem, access.PlanBasic))
	assert.False(t, access.FeatureAllowed(access.FeatureHTMLEditor, access.PlanBasic))
	assert.True(t, access.FeatureAllowed(access.FeatureHTMLEditor, access.PlanTeam))
	assert.False(t, access.FeatureAllowed(access.FeatureTemplates, access.PlanTeam))
	assert.True(t, access.FeatureAllowed(access.FeatureTemplates, access.PlanBusiness))
	assert.False(t, access.FeatureAllowed(access.Feature("UNKNOWN"), access.PlanBusiness))

	for _, f := range access.Features {
		assert.NotEmpty(t, access.FeaturePlans[f], "feature %s has no plans", f)
	}
}

func TestEntitlementResolver_PrivateProject(t *testing.T) {
	ctx := context.Background()
	private := access.Project{ID: uuid.New()}

	t.Run("no license", func(t *testing.T) {
		r := access.NewEntitlementResolver(&fakeBilling{}, &fakeLicenses{}, time.Second)
		enabled, err := r.IsFeatureEnabled(ctx, private, access.FeatureHTMLEditor)
		require.NoError(t, err)
		assert.False(t, enabled)
	})

	t.Run("license plan includes feature", func(t *testing.T) {
		licenses := licenseFor(access.PlanTeam)
		r := access.NewEntitlementResolver(&fakeBilling{}, licenses, time.Second)

		enabled, err := r.IsFeatureEnabled(ctx, private, access.FeatureHTMLEditor)
		require.NoError(t, err)
		assert.True(t, enabled)

		// Removing the license is seen on the next call.
		licenses.license = nil
		enabled, err = r.IsFeatureEnabled(ctx, private, access.FeatureHTMLEditor)
		require.NoError(t, err)
		assert.False(t, enabled)
	})

	t.Run("license plan excludes feature", func(t *testing.T) {
		r := access.NewEntitlementResolver(&fakeBilling{}, licenseFor(access.PlanBasic), time.Second)
		enabled, err := r.IsFeatureEnabled(ctx, private, access.FeatureHTMLEditor)
		require.NoError(t, err)
		assert.False(t, enabled)
	})

	t.Run("license lookup fails closed", func(t *testing.T) {
		r := access.NewEntitlementResolver(&fakeBilling{}, &fakeLicenses{err: assert.AnError}, time.Second)
		enabled, err := r.IsFeatureEnabled(ctx, private, access.FeatureBasicPermissionSystem)
		assert.False(t, enabled)
		assert.ErrorIs(t, err, access.ErrCollaboratorUnavailable)
	})
}

func TestEntitlementResolver_OrganizationProject(t *testing.T) {
	ctx := context.Background()
	orgID := uuid.New()
	project := access.Project{ID: uuid.New(), OrganizationID: &orgID}

	t.Run("billing decides", func(t *testing.T) {
		billing := &fakeBilling{enabled: map[uuid.UUID]map[access.Feature]bool{
			orgID: {access.FeatureBasicPermissionSystem: true},
		}}
		// A license must not leak into organization projects.
		r := access.NewEntitlementResolver(billing, licenseFor(access.PlanBusiness), time.Second)

		enabled, err := r.IsFeatureEnabled(ctx, project, access.FeatureBasicPermissionSystem)
		require.NoError(t, err)
		assert.True(t, enabled)

		enabled, err = r.IsFeatureEnabled(ctx, project, access.FeatureTemplates)
		require.NoError(t, err)
		assert.False(t, enabled)
	})

	t.Run("billing error fails closed", func(t *testing.T) {
		r := access.NewEntitlementResolver(&fakeBilling{err: assert.AnError}, &fakeLicenses{}, time.Second)
		err := r.Require(ctx, project, access.FeatureBasicPermissionSystem)
		assert.ErrorIs(t, err, access.ErrCollaboratorUnavailable)
		assert.NotErrorIs(t, err, access.ErrFeatureNotAvailable)
	})

	t.Run("hung billing call times out", func(t *testing.T) {
		r := access.NewEntitlementResolver(&fakeBilling{block: true}, &fakeLicenses{}, 20*time.Millisecond)
		enabled, err := r.IsFeatureEnabled(ctx, project, access.FeatureBasicPermissionSystem)
		assert.False(t, enabled)
		assert.ErrorIs(t, err, access.ErrCollaboratorUnavailable)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("require reports missing feature", func(t *testing.T) {
		r := access.NewEntitlementResolver(&fakeBilling{}, &fakeLicenses{}, time.Second)
		err := r.Require(ctx, project, access.FeatureBasicPermissionSystem)
		assert.ErrorIs(t, err, access.ErrFeatureNotAvailable)

		var fe *access.FeatureError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, access.FeatureBasicPermissionSystem, fe.Feature)
		assert.Equal(t, access.EntitlementOrganization, fe.Kind)

		reason, ok := access.ReasonOf(err)
		assert.True(t, ok)
		assert.Equal(t, access.ReasonFeatureNotAvailable, reason)
	})
}

func TestEntitlementResolver_EnabledFeatures(t *testing.T) {
	r := access.NewEntitlementResolver(&fakeBilling{}, licenseFor(access.PlanBasic), time.Second)
	features, err := r.EnabledFeatures(context.Background(), access.Project{ID: uuid.New()})
	require.NoError(t, err)
	assert.Len(t, features, len(access.Features))
	assert.True(t, features[access.FeatureBasicPermissionSystem])
	assert.False(t, features[access.FeatureOTA])
}
