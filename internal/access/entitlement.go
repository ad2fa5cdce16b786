package access

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Feature is a named plan-gated capability.
type Feature string

const (
	FeatureBasicPermissionSystem    Feature = "BASIC_PERMISSION_SYSTEM"
	FeatureValidations              Feature = "VALIDATIONS"
	FeatureKeyHistory               Feature = "KEY_HISTORY"
	FeatureExportHierarchy          Feature = "EXPORT_HIERARCHY"
	FeaturePostProcessing           Feature = "POST_PROCESSING"
	FeatureProjectActivity          Feature = "PROJECT_ACTIVITY"
	FeatureTagManagement            Feature = "TAG_MANAGEMENT"
	FeatureAdvancedPermissionSystem Feature = "ADVANCED_PERMISSION_SYSTEM"
	FeatureOTA                      Feature = "OTA"
	FeatureHTMLEditor               Feature = "HTML_EDITOR"
	FeatureMachineTranslation       Feature = "MACHINE_TRANSLATION"
	FeatureTemplates                Feature = "TEMPLATES"
	FeatureProjectGroups            Feature = "PROJECT_GROUPS"
)

// Plan is a subscription or license tier.
type Plan string

const (
	PlanFree     Plan = "free"
	PlanBasic    Plan = "basic"
	PlanTeam     Plan = "team"
	PlanBusiness Plan = "business"
)

var (
	basicAndUp = []Plan{PlanBasic, PlanTeam, PlanBusiness}
	teamAndUp  = []Plan{PlanTeam, PlanBusiness}
)

// FeaturePlans lists, per feature, the plans that include it.
var FeaturePlans = map[Feature][]Plan{
	FeatureBasicPermissionSystem:    basicAndUp,
	FeatureValidations:              basicAndUp,
	FeatureKeyHistory:               basicAndUp,
	FeatureExportHierarchy:          basicAndUp,
	FeaturePostProcessing:           basicAndUp,
	FeatureProjectActivity:          teamAndUp,
	FeatureTagManagement:            teamAndUp,
	FeatureAdvancedPermissionSystem: teamAndUp,
	FeatureOTA:                      teamAndUp,
	FeatureHTMLEditor:               teamAndUp,
	FeatureMachineTranslation:       teamAndUp,
	FeatureTemplates:                {PlanBusiness},
	FeatureProjectGroups:            {PlanBusiness},
}

// Features lists every known feature in a stable order.
var Features = []Feature{
	FeatureBasicPermissionSystem,
	FeatureValidations,
	FeatureKeyHistory,
	FeatureExportHierarchy,
	FeaturePostProcessing,
	FeatureProjectActivity,
	FeatureTagManagement,
	FeatureAdvancedPermissionSystem,
	FeatureOTA,
	FeatureHTMLEditor,
	FeatureMachineTranslation,
	FeatureTemplates,
	FeatureProjectGroups,
}

func ParsePlan(s string) (Plan, bool) {
	p := Plan(s)
	switch p {
	case PlanFree, PlanBasic, PlanTeam, PlanBusiness:
		return p, true
	}
	return "", false
}

// FeatureAllowed reports whether plan includes feature. Unknown features
// and unknown plans are never allowed.
func FeatureAllowed(feature Feature, plan Plan) bool {
	return slices.Contains(FeaturePlans[feature], plan)
}

// LicenseRestrictions carries the terms a license grants.
type LicenseRestrictions struct {
	Plan             Plan `json:"plan"`
	ActiveUsersCount int  `json:"active_users_count,omitempty"`
}

// License is a decrypted, currently valid instance license.
type License struct {
	ID           uuid.UUID
	Licensee     string
	Restrictions LicenseRestrictions
	StartsAt     time.Time
	ExpiresAt    time.Time
}

// BillingChecker decides feature availability for an organization.
type BillingChecker interface {
	OrganizationFeatureEnabled(ctx context.Context, organizationID uuid.UUID, feature Feature) (bool, error)
}

// LicenseProvider returns the active instance license, or nil when none is.
type LicenseProvider interface {
	CurrentActiveLicense(ctx context.Context) (*License, error)
}

// EntitlementKind says which authority decides features for a project.
type EntitlementKind int

const (
	EntitlementOrganization EntitlementKind = iota + 1
	EntitlementLicense
)

// EntitlementScope is derived from a project: organization projects are
// decided by billing, private projects by the instance license.
type EntitlementScope struct {
	Kind           EntitlementKind
	OrganizationID uuid.UUID
}

func EntitlementScopeOf(p Project) EntitlementScope {
	if p.OrganizationID != nil {
		return EntitlementScope{Kind: EntitlementOrganization, OrganizationID: *p.OrganizationID}
	}
	return EntitlementScope{Kind: EntitlementLicense}
}

// EntitlementResolver answers "is this feature enabled for this project".
type EntitlementResolver struct {
	billing  BillingChecker
	licenses LicenseProvider
	timeout  time.Duration
}

func NewEntitlementResolver(billing BillingChecker, licenses LicenseProvider, timeout time.Duration) *EntitlementResolver {
	return &EntitlementResolver{
		billing:  billing,
		licenses: licenses,
		timeout:  timeout,
	}
}

// IsFeatureEnabled fails closed: a collaborator fault is returned as an
// error wrapping ErrCollaboratorUnavailable, never as true.
func (r *EntitlementResolver) IsFeatureEnabled(ctx context.Context, project Project, feature Feature) (bool, error) {
	scope := EntitlementScopeOf(project)
	switch scope.Kind {
	case EntitlementOrganization:
		return callWithTimeout(ctx, r.timeout, "check organization feature", func(ctx context.Context) (bool, error) {
			return r.billing.OrganizationFeatureEnabled(ctx, scope.OrganizationID, feature)
		})
	case EntitlementLicense:
		license, err := r.currentLicense(ctx)
		if err != nil {
			return false, err
		}
		return license != nil && FeatureAllowed(feature, license.Restrictions.Plan), nil
	default:
		return false, fmt.Errorf("unsupported entitlement scope %d", scope.Kind)
	}
}

// EnabledFeatures evaluates every known feature for the project.
func (r *EntitlementResolver) EnabledFeatures(ctx context.Context, project Project) (map[Feature]bool, error) {
	out := make(map[Feature]bool, len(Features))
	scope := EntitlementScopeOf(project)

	if scope.Kind == EntitlementLicense {
		license, err := r.currentLicense(ctx)
		if err != nil {
			return nil, err
		}
		for _, f := range Features {
			out[f] = license != nil && FeatureAllowed(f, license.Restrictions.Plan)
		}
		return out, nil
	}

	for _, f := range Features {
		enabled, err := r.IsFeatureEnabled(ctx, project, f)
		if err != nil {
			return nil, err
		}
		out[f] = enabled
	}
	return out, nil
}

// Require returns ErrFeatureNotAvailable when the feature is disabled.
func (r *EntitlementResolver) Require(ctx context.Context, project Project, feature Feature) error {
	enabled, err := r.IsFeatureEnabled(ctx, project, feature)
	if err != nil {
		return err
	}
	if !enabled {
		return &FeatureError{Feature: feature, Kind: EntitlementScopeOf(project).Kind}
	}
	return nil
}

func (r *EntitlementResolver) currentLicense(ctx context.Context) (*License, error) {
	return callWithTimeout(ctx, r.timeout, "load current license", func(ctx context.Context) (*License, error) {
		return r.licenses.CurrentActiveLicense(ctx)
	})
}
