package dto

import (
	"strings"

	"github.com/hugh/langhub/internal/access"
	"github.com/hugh/langhub/internal/api/validation"
	"github.com/hugh/langhub/internal/membership"
)

type InviteMemberRequest struct {
	Email string `json:"email"`
}

func (r InviteMemberRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if strings.TrimSpace(r.Email) == "" {
		errors["email"] = "Email is required"
	} else if !validation.IsValidEmail(strings.TrimSpace(r.Email)) {
		errors["email"] = "Email is invalid"
	}

	return errors
}

type ChangeRoleRequest struct {
	Role string `json:"role"`
}

func (r ChangeRoleRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if strings.TrimSpace(r.Role) == "" {
		errors["role"] = "Role is required"
	} else if _, err := access.ParseRole(r.Role); err != nil {
		errors["role"] = "Role must be one of translator, developer, manager, owner"
	}

	return errors
}

type MemberDTO struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	RoleSource string `json:"role_source"`
}

func NewMemberDTO(m membership.Member) MemberDTO {
	return MemberDTO{
		ID:         m.UserID.String(),
		Username:   m.Name,
		Email:      m.Email,
		Role:       m.Role.String(),
		RoleSource: string(m.Source),
	}
}

func NewMemberDTOs(members []membership.Member) []MemberDTO {
	out := make([]MemberDTO, 0, len(members))
	for _, m := range members {
		out = append(out, NewMemberDTO(m))
	}
	return out
}

// AssignmentDTO is returned after a role change.
type AssignmentDTO struct {
	UserID    string `json:"user_id"`
	ScopeType string `json:"scope_type"`
	ScopeID   string `json:"scope_id"`
	Role      string `json:"role"`
}

func NewAssignmentDTO(a *access.Assignment) AssignmentDTO {
	return AssignmentDTO{
		UserID:    a.UserID.String(),
		ScopeType: string(a.Scope.Type),
		ScopeID:   a.Scope.ID.String(),
		Role:      a.Role.String(),
	}
}
