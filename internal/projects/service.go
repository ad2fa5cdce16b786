package projects

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/hugh/langhub/internal/access"
	"github.com/hugh/langhub/internal/database/models"
	"gorm.io/gorm"
)

var ErrNameRequired = errors.New("name is required")

// Service manages organizations and projects. Reads and writes go through
// the access guard; creators become owners of what they create.
type Service struct {
	db    *gorm.DB
	guard *access.Guard
}

func NewService(db *gorm.DB, guard *access.Guard) *Service {
	return &Service{db: db, guard: guard}
}

type OrganizationView struct {
	Organization models.Organization
	Role         access.Role
}

type ProjectView struct {
	Project    models.Project
	Role       access.Role
	RoleSource access.Source
}

func (s *Service) CreateOrganization(ctx context.Context, userID uuid.UUID, name string) (*OrganizationView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	org := models.Organization{
		Name: name,
		Slug: generateSlug(name),
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&org).Error; err != nil {
			return err
		}
		return tx.Create(&models.RoleAssignment{
			UserID:    userID,
			ScopeType: models.ScopeTypeOrganization,
			ScopeID:   org.ID,
			Role:      string(access.RoleOwner),
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return &OrganizationView{Organization: org, Role: access.RoleOwner}, nil
}

// ListOrganizations returns the organizations the user has a role in.
func (s *Service) ListOrganizations(ctx context.Context, userID uuid.UUID) ([]OrganizationView, error) {
	assignments, err := s.assignmentsOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	roles := make(map[uuid.UUID]access.Role)
	for _, a := range assignments {
		if a.Scope.Type == access.ScopeOrganization {
			roles[a.Scope.ID] = a.Role
		}
	}
	if len(roles) == 0 {
		return []OrganizationView{}, nil
	}

	var orgs []models.Organization
	if err := s.db.WithContext(ctx).
		Where("id IN ?", keys(roles)).
		Order("name ASC").
		Find(&orgs).Error; err != nil {
		return nil, err
	}

	out := make([]OrganizationView, 0, len(orgs))
	for _, org := range orgs {
		out = append(out, OrganizationView{Organization: org, Role: roles[org.ID]})
	}
	return out, nil
}

func (s *Service) GetOrganization(ctx context.Context, userID, organizationID uuid.UUID) (*OrganizationView, error) {
	m, err := s.guard.RequireOrganizationRole(ctx, userID, organizationID, access.RoleTranslator)
	if err != nil {
		return nil, err
	}

	var org models.Organization
	if err := s.db.WithContext(ctx).First(&org, "id = ?", organizationID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, access.ErrNotAMember
		}
		return nil, err
	}
	return &OrganizationView{Organization: org, Role: m.Role}, nil
}

// CreateProject creates a private project, or an organization project when
// organizationID is set. Organization projects need an organization Manager.
func (s *Service) CreateProject(ctx context.Context, userID uuid.UUID, name, description string, organizationID *uuid.UUID) (*ProjectView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameRequired
	}

	if organizationID != nil {
		if _, err := s.guard.RequireOrganizationRole(ctx, userID, *organizationID, access.RoleManager); err != nil {
			return nil, err
		}
	}

	project := models.Project{
		Name:           name,
		Description:    strings.TrimSpace(description),
		OrganizationID: organizationID,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&project).Error; err != nil {
			return err
		}
		return tx.Create(&models.RoleAssignment{
			UserID:    userID,
			ScopeType: models.ScopeTypeProject,
			ScopeID:   project.ID,
			Role:      string(access.RoleOwner),
		}).Error
	})
	if err != nil {
		return nil, err
	}

	return &ProjectView{Project: project, Role: access.RoleOwner, RoleSource: access.SourceProject}, nil
}

// ListProjects returns every project the user can see, directly or through
// an organization, with the effective role on each.
func (s *Service) ListProjects(ctx context.Context, userID uuid.UUID) ([]ProjectView, error) {
	assignments, err := s.assignmentsOf(ctx, userID)
	if err != nil {
		return nil, err
	}

	finder := make(assignmentMap, len(assignments))
	var projectIDs, orgIDs []uuid.UUID
	for _, a := range assignments {
		finder[a.Scope] = a
		switch a.Scope.Type {
		case access.ScopeProject:
			projectIDs = append(projectIDs, a.Scope.ID)
		case access.ScopeOrganization:
			orgIDs = append(orgIDs, a.Scope.ID)
		}
	}
	if len(projectIDs) == 0 && len(orgIDs) == 0 {
		return []ProjectView{}, nil
	}

	q := s.db.WithContext(ctx).Model(&models.Project{})
	switch {
	case len(projectIDs) > 0 && len(orgIDs) > 0:
		q = q.Where("(id IN ? OR organization_id IN ?)", projectIDs, orgIDs)
	case len(projectIDs) > 0:
		q = q.Where("id IN ?", projectIDs)
	default:
		q = q.Where("organization_id IN ?", orgIDs)
	}

	var projects []models.Project
	if err := q.Order("name ASC").Find(&projects).Error; err != nil {
		return nil, err
	}

	out := make([]ProjectView, 0, len(projects))
	for _, p := range projects {
		m, err := access.ResolveMembership(ctx, finder, userID, access.Project{ID: p.ID, OrganizationID: p.OrganizationID})
		if err != nil {
			return nil, err
		}
		if m == nil {
			continue
		}
		out = append(out, ProjectView{Project: p, Role: m.Role, RoleSource: m.Source})
	}
	return out, nil
}

func (s *Service) GetProject(ctx context.Context, userID, projectID uuid.UUID) (*ProjectView, error) {
	pa, err := s.guard.RequireProjectMember(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}

	var project models.Project
	if err := s.db.WithContext(ctx).First(&project, "id = ?", projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, access.ErrNotAMember
		}
		return nil, err
	}
	return &ProjectView{Project: project, Role: pa.Membership.Role, RoleSource: pa.Membership.Source}, nil
}

// Features reports every feature's state for a project the user belongs to.
func (s *Service) Features(ctx context.Context, userID, projectID uuid.UUID) (map[access.Feature]bool, error) {
	pa, err := s.guard.RequireProjectMember(ctx, userID, projectID)
	if err != nil {
		return nil, err
	}
	return s.guard.Features(ctx, pa.Project)
}

// assignmentsOf loads every assignment held by the user. Rows with unknown
// roles are skipped so they never grant anything.
func (s *Service) assignmentsOf(ctx context.Context, userID uuid.UUID) ([]access.Assignment, error) {
	var rows []models.RoleAssignment
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]access.Assignment, 0, len(rows))
	for _, row := range rows {
		role, err := access.ParseRole(row.Role)
		if err != nil {
			continue
		}
		out = append(out, access.Assignment{
			UserID: row.UserID,
			Scope:  access.Scope{Type: access.ScopeType(row.ScopeType), ID: row.ScopeID},
			Role:   role,
		})
	}
	return out, nil
}

// assignmentMap answers lookups for a single user from preloaded rows.
type assignmentMap map[access.Scope]access.Assignment

func (m assignmentMap) FindRoleAssignment(_ context.Context, userID uuid.UUID, scope access.Scope) (*access.Assignment, error) {
	a, ok := m[scope]
	if !ok || a.UserID != userID {
		return nil, nil
	}
	return &a, nil
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

func generateSlug(name string) string {
	slug := strings.Trim(slugInvalid.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if slug == "" {
		slug = "org"
	}
	// Suffix keeps slugs unique across organizations with the same name
	return slug + "-" + uuid.NewString()[:8]
}

func keys[K comparable, V any](m map[K]V) []K {
	out := make([]K, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
