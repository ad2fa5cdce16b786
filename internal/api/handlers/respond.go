package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/hugh/langhub/internal/access"
	"github.com/hugh/langhub/internal/api/dto"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, dto.ErrorResponse{Error: msg})
}

// decodeBody decodes a JSON request body and writes a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func validate(w http.ResponseWriter, errs map[string]string) bool {
	if len(errs) > 0 {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
		return false
	}
	return true
}

// uuidParam parses a UUID route parameter and writes a 400 when it is invalid.
func uuidParam(w http.ResponseWriter, r *http.Request, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid "+label+" ID")
		return uuid.Nil, false
	}
	return id, true
}

type accessResponse struct {
	status  int
	message string
}

var accessResponses = map[access.Reason]accessResponse{
	access.ReasonNotAMember:              {http.StatusNotFound, "Not found"},
	access.ReasonAlreadyMember:           {http.StatusNotFound, "User is already a member"},
	access.ReasonPermissionDenied:        {http.StatusForbidden, "You don't have permission to do that"},
	access.ReasonFeatureNotAvailable:     {http.StatusForbidden, "This feature is not available"},
	access.ReasonLastOwnerProtected:      {http.StatusForbidden, "The last owner can't be removed or demoted"},
	access.ReasonCollaboratorUnavailable: {http.StatusServiceUnavailable, "Service temporarily unavailable, please retry later"},
	access.ReasonUnknownRole:             {http.StatusBadRequest, "Unknown role"},
}

// writeAccessError maps err to a response. Access decisions get their
// reason code; collaborator faults and unknown errors are logged.
func writeAccessError(w http.ResponseWriter, logger *slog.Logger, err error, fallback string) {
	reason, ok := access.ReasonOf(err)
	if !ok {
		logger.Error(fallback, "error", err)
		writeError(w, http.StatusInternalServerError, fallback)
		return
	}

	resp := accessResponses[reason]
	if reason == access.ReasonCollaboratorUnavailable {
		logger.Error("access check unavailable", "error", err)
	} else {
		logger.Debug("access denied", "reason", reason, "error", err)
	}

	body := dto.ErrorResponse{Error: resp.message, Code: string(reason)}
	var fe *access.FeatureError
	if errors.As(err, &fe) {
		body.Details = map[string]string{"feature": string(fe.Feature)}
		if fe.Kind == access.EntitlementLicense {
			body.Error = "This feature is not included in the instance license"
		} else {
			body.Error = "This feature is not included in the organization's plan"
		}
	}
	writeJSON(w, resp.status, body)
}
