package membership

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hugh/langhub/internal/access"
	"github.com/hugh/langhub/internal/database/models"
	"github.com/hugh/langhub/internal/membership/lock"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Compile-time interface satisfaction checks
var (
	_ access.MembershipStore  = (*Store)(nil)
	_ access.AssignmentFinder = (*Store)(nil)
	_ access.ScopeTx          = (*scopeTx)(nil)
)

// Store persists role assignments in the role_assignments table.
type Store struct {
	db     *gorm.DB
	locker lock.Locker
}

func NewStore(db *gorm.DB, locker lock.Locker) *Store {
	return &Store{db: db, locker: locker}
}

func (s *Store) FindProject(ctx context.Context, projectID uuid.UUID) (*access.Project, error) {
	var p models.Project
	err := s.db.WithContext(ctx).
		Select("id", "organization_id").
		First(&p, "id = ?", projectID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &access.Project{ID: p.ID, OrganizationID: p.OrganizationID}, nil
}

func (s *Store) FindRoleAssignment(ctx context.Context, userID uuid.UUID, scope access.Scope) (*access.Assignment, error) {
	return findAssignment(s.db.WithContext(ctx), userID, scope)
}

// WithinScope holds the scope lock and a transaction that has row-locked the
// project or organization for the duration of fn.
func (s *Store) WithinScope(ctx context.Context, scope access.Scope, fn func(context.Context, access.ScopeTx) error) error {
	release, err := s.locker.Lock(ctx, scope.String())
	if err != nil {
		return fmt.Errorf("locking %s: %w", scope, err)
	}
	defer release()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockScopeRow(tx, scope); err != nil {
			return err
		}
		return fn(ctx, &scopeTx{db: tx})
	})
}

func lockScopeRow(tx *gorm.DB, scope access.Scope) error {
	var row any
	switch scope.Type {
	case access.ScopeProject:
		row = &models.Project{}
	case access.ScopeOrganization:
		row = &models.Organization{}
	default:
		return fmt.Errorf("unknown scope type %q", scope.Type)
	}

	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(row, "id = ?", scope.ID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return access.ErrNotAMember
	}
	return err
}

type scopeTx struct {
	db *gorm.DB
}

func (t *scopeTx) FindRoleAssignment(ctx context.Context, userID uuid.UUID, scope access.Scope) (*access.Assignment, error) {
	return findAssignment(t.db.WithContext(ctx), userID, scope)
}

func (t *scopeTx) ListRoleAssignments(ctx context.Context, scope access.Scope) ([]access.Assignment, error) {
	var rows []models.RoleAssignment
	if err := t.db.WithContext(ctx).
		Where("scope_type = ? AND scope_id = ?", string(scope.Type), scope.ID).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]access.Assignment, 0, len(rows))
	for i := range rows {
		a, err := toAssignment(&rows[i])
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, nil
}

func (t *scopeTx) SaveRoleAssignment(ctx context.Context, a access.Assignment) error {
	row := models.RoleAssignment{
		UserID:    a.UserID,
		ScopeType: string(a.Scope.Type),
		ScopeID:   a.Scope.ID,
		Role:      string(a.Role),
	}
	return t.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "scope_type"}, {Name: "scope_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"role", "updated_at"}),
		}).
		Create(&row).Error
}

func (t *scopeTx) DeleteRoleAssignment(ctx context.Context, userID uuid.UUID, scope access.Scope) error {
	return t.db.WithContext(ctx).
		Where("user_id = ? AND scope_type = ? AND scope_id = ?", userID, string(scope.Type), scope.ID).
		Delete(&models.RoleAssignment{}).Error
}

func findAssignment(db *gorm.DB, userID uuid.UUID, scope access.Scope) (*access.Assignment, error) {
	var row models.RoleAssignment
	err := db.
		Where("user_id = ? AND scope_type = ? AND scope_id = ?", userID, string(scope.Type), scope.ID).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toAssignment(&row)
}

// toAssignment rejects rows with roles outside the hierarchy instead of
// guessing a privilege level for them.
func toAssignment(row *models.RoleAssignment) (*access.Assignment, error) {
	role, err := access.ParseRole(row.Role)
	if err != nil {
		return nil, fmt.Errorf("role assignment %s: %w", row.ID, err)
	}
	return &access.Assignment{
		UserID: row.UserID,
		Scope:  access.Scope{Type: access.ScopeType(row.ScopeType), ID: row.ScopeID},
		Role:   role,
	}, nil
}

// Member is one row of a member listing.
type Member struct {
	UserID uuid.UUID
	Name   string
	Email  string
	Role   access.Role
	Source access.Source
}

// ListProjectMembers returns the project's own members followed by
// organization members who have no project assignment. search filters on
// name or email, case-insensitively.
func (s *Store) ListProjectMembers(ctx context.Context, project access.Project, search string) ([]Member, error) {
	scope := access.ProjectScope(project.ID)
	members, err := s.listScope(ctx, scope, search, nil)
	if err != nil {
		return nil, err
	}
	if project.OrganizationID == nil {
		return members, nil
	}

	direct := s.db.Model(&models.RoleAssignment{}).
		Select("user_id").
		Where("scope_type = ? AND scope_id = ?", string(scope.Type), scope.ID)
	inherited, err := s.listScope(ctx, access.OrganizationScope(*project.OrganizationID), search, direct)
	if err != nil {
		return nil, err
	}
	return append(members, inherited...), nil
}

func (s *Store) ListOrganizationMembers(ctx context.Context, organizationID uuid.UUID, search string) ([]Member, error) {
	return s.listScope(ctx, access.OrganizationScope(organizationID), search, nil)
}

func (s *Store) listScope(ctx context.Context, scope access.Scope, search string, exclude *gorm.DB) ([]Member, error) {
	q := s.db.WithContext(ctx).
		Preload("User").
		Joins("JOIN users ON users.id = role_assignments.user_id AND users.deleted_at IS NULL").
		Where("role_assignments.scope_type = ? AND role_assignments.scope_id = ?", string(scope.Type), scope.ID)

	if exclude != nil {
		q = q.Where("role_assignments.user_id NOT IN (?)", exclude)
	}
	if search = strings.ToLower(strings.TrimSpace(search)); search != "" {
		pattern := "%" + search + "%"
		q = q.Where("(LOWER(users.name) LIKE ? OR LOWER(users.email) LIKE ?)", pattern, pattern)
	}

	var rows []models.RoleAssignment
	if err := q.Order("users.name ASC, users.email ASC").Find(&rows).Error; err != nil {
		return nil, err
	}

	source := access.SourceProject
	if scope.Type == access.ScopeOrganization {
		source = access.SourceOrganization
	}

	out := make([]Member, 0, len(rows))
	for i := range rows {
		a, err := toAssignment(&rows[i])
		if err != nil {
			return nil, err
		}
		m := Member{UserID: a.UserID, Role: a.Role, Source: source}
		if rows[i].User != nil {
			m.Name = rows[i].User.Name
			m.Email = rows[i].User.Email
		}
		out = append(out, m)
	}
	return out, nil
}
