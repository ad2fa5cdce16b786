package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hugh/langhub/internal/access"
	"github.com/hugh/langhub/internal/api/dto"
	"github.com/hugh/langhub/internal/api/middleware"
	"github.com/hugh/langhub/internal/membership"
)

// ScopeFunc reads the membership scope from the route.
type ScopeFunc func(w http.ResponseWriter, r *http.Request) (access.Scope, bool)

// ProjectScope reads {projectID}.
func ProjectScope(w http.ResponseWriter, r *http.Request) (access.Scope, bool) {
	id, ok := uuidParam(w, r, "projectID", "project")
	return access.ProjectScope(id), ok
}

// OrganizationScope reads {orgID}.
func OrganizationScope(w http.ResponseWriter, r *http.Request) (access.Scope, bool) {
	id, ok := uuidParam(w, r, "orgID", "organization")
	return access.OrganizationScope(id), ok
}

// MemberHandler serves the member endpoints of projects and organizations.
type MemberHandler struct {
	members *membership.Service
	scope   ScopeFunc
	logger  *slog.Logger
}

func NewMemberHandler(members *membership.Service, scope ScopeFunc, logger *slog.Logger) *MemberHandler {
	return &MemberHandler{members: members, scope: scope, logger: logger}
}

// List handles GET .../members?search=
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}

	actorID := middleware.GetUserID(r.Context())
	search := r.URL.Query().Get("search")

	var (
		members []membership.Member
		err     error
	)
	switch scope.Type {
	case access.ScopeProject:
		members, err = h.members.ListProjectMembers(r.Context(), actorID, scope.ID, search)
	default:
		members, err = h.members.ListOrganizationMembers(r.Context(), actorID, scope.ID, search)
	}
	if err != nil {
		writeAccessError(w, h.logger, err, "Failed to list members")
		return
	}

	writeJSON(w, http.StatusOK, dto.NewList(dto.NewMemberDTOs(members)))
}

// Invite handles POST .../members
func (h *MemberHandler) Invite(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}

	var req dto.InviteMemberRequest
	if !decodeBody(w, r, &req) || !validate(w, req.Validate()) {
		return
	}

	member, err := h.members.Invite(r.Context(), middleware.GetUserID(r.Context()), scope, req.Email)
	if err != nil {
		if errors.Is(err, membership.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "No user with that email", Code: "USER_NOT_FOUND"})
			return
		}
		writeAccessError(w, h.logger, err, "Failed to invite member")
		return
	}

	writeJSON(w, http.StatusCreated, dto.NewMemberDTO(*member))
}

// ChangeRole handles PUT .../members/{userID}
func (h *MemberHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	userID, ok := uuidParam(w, r, "userID", "user")
	if !ok {
		return
	}

	var req dto.ChangeRoleRequest
	if !decodeBody(w, r, &req) || !validate(w, req.Validate()) {
		return
	}

	assignment, err := h.members.ChangeRole(r.Context(), middleware.GetUserID(r.Context()), scope, userID, req.Role)
	if err != nil {
		writeAccessError(w, h.logger, err, "Failed to change role")
		return
	}

	writeJSON(w, http.StatusOK, dto.NewAssignmentDTO(assignment))
}

// Remove handles DELETE .../members/{userID}. Members leave by removing
// themselves.
func (h *MemberHandler) Remove(w http.ResponseWriter, r *http.Request) {
	scope, ok := h.scope(w, r)
	if !ok {
		return
	}
	userID, ok := uuidParam(w, r, "userID", "user")
	if !ok {
		return
	}

	if err := h.members.Remove(r.Context(), middleware.GetUserID(r.Context()), scope, userID); err != nil {
		writeAccessError(w, h.logger, err, "Failed to remove member")
		return
	}

	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "Member removed"})
}
