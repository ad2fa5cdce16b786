package membership

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/hugh/langhub/internal/access"
	"github.com/hugh/langhub/internal/database/models"
	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("no user with that email")

// Service exposes member listing and the mutation protocol to the API.
type Service struct {
	db       *gorm.DB
	store    *Store
	guard    *access.Guard
	protocol *access.Protocol
}

func NewService(db *gorm.DB, store *Store, guard *access.Guard, protocol *access.Protocol) *Service {
	return &Service{
		db:       db,
		store:    store,
		guard:    guard,
		protocol: protocol,
	}
}

// ListProjectMembers requires the actor to be a member of the project.
func (s *Service) ListProjectMembers(ctx context.Context, actorID, projectID uuid.UUID, search string) ([]Member, error) {
	pa, err := s.guard.RequireProjectMember(ctx, actorID, projectID)
	if err != nil {
		return nil, err
	}

	members, err := s.store.ListProjectMembers(ctx, pa.Project, search)
	if err != nil {
		return nil, access.Unavailable("list project members", err)
	}
	return members, nil
}

// ListOrganizationMembers requires the actor to be a member of the organization.
func (s *Service) ListOrganizationMembers(ctx context.Context, actorID, organizationID uuid.UUID, search string) ([]Member, error) {
	if _, err := s.guard.RequireOrganizationRole(ctx, actorID, organizationID, access.RoleTranslator); err != nil {
		return nil, err
	}

	members, err := s.store.ListOrganizationMembers(ctx, organizationID, search)
	if err != nil {
		return nil, access.Unavailable("list organization members", err)
	}
	return members, nil
}

// Invite adds the user registered under email to the scope.
func (s *Service) Invite(ctx context.Context, actorID uuid.UUID, scope access.Scope, email string) (*Member, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, access.Unavailable("find invitee", err)
	}

	a, err := s.protocol.Invite(ctx, actorID, scope, user.ID)
	if err != nil {
		return nil, err
	}
	return memberFrom(a, &user), nil
}

func (s *Service) ChangeRole(ctx context.Context, actorID uuid.UUID, scope access.Scope, userID uuid.UUID, role string) (*access.Assignment, error) {
	desired, err := access.ParseRole(role)
	if err != nil {
		return nil, err
	}
	return s.protocol.ChangeRole(ctx, actorID, scope, userID, desired)
}

// Remove deletes a member. Actors remove themselves to leave a scope.
func (s *Service) Remove(ctx context.Context, actorID uuid.UUID, scope access.Scope, userID uuid.UUID) error {
	return s.protocol.Remove(ctx, actorID, scope, userID)
}

func memberFrom(a *access.Assignment, user *models.User) *Member {
	source := access.SourceProject
	if a.Scope.Type == access.ScopeOrganization {
		source = access.SourceOrganization
	}
	return &Member{
		UserID: a.UserID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   a.Role,
		Source: source,
	}
}
