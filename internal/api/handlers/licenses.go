package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/hugh/langhub/internal/access"
	"github.com/hugh/langhub/internal/api/dto"
	"github.com/hugh/langhub/internal/license"
	"github.com/hugh/langhub/internal/tasks"
	"github.com/hugh/langhub/pkg/queue"
)

// LicenseHandler manages instance licenses. Routes are superadmin only.
type LicenseHandler struct {
	licenses    *license.Service
	asynqClient *asynq.Client
	logger      *slog.Logger
}

func NewLicenseHandler(licenses *license.Service, asynqClient *asynq.Client, logger *slog.Logger) *LicenseHandler {
	return &LicenseHandler{licenses: licenses, asynqClient: asynqClient, logger: logger}
}

// List handles GET /api/v1/licenses
func (h *LicenseHandler) List(w http.ResponseWriter, r *http.Request) {
	licenses, err := h.licenses.List(r.Context())
	if err != nil {
		h.logger.Error("listing licenses", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list licenses")
		return
	}

	out := make([]dto.LicenseDTO, 0, len(licenses))
	for i := range licenses {
		out = append(out, dto.NewLicenseDTO(&licenses[i]))
	}
	writeJSON(w, http.StatusOK, dto.NewList(out))
}

// Import handles POST /api/v1/licenses
func (h *LicenseHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req dto.ImportLicenseRequest
	if !decodeBody(w, r, &req) || !validate(w, req.Validate()) {
		return
	}

	lic, err := h.licenses.Import(r.Context(), req.License)
	if err != nil {
		if errors.Is(err, license.ErrInvalidLicense) {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid license", Details: map[string]string{"license": err.Error()}})
			return
		}
		h.logger.Error("importing license", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to import license")
		return
	}

	h.enqueueCheck()
	writeJSON(w, http.StatusCreated, dto.NewLicenseDTO(lic))
}

// Current handles GET /api/v1/licenses/current
func (h *LicenseHandler) Current(w http.ResponseWriter, r *http.Request) {
	lic, err := h.licenses.CurrentActiveLicense(r.Context())
	if err != nil {
		writeAccessError(w, h.logger, access.Unavailable("current license", err), "Failed to load license")
		return
	}
	writeJSON(w, http.StatusOK, dto.NewCurrentLicenseResponse(lic, h.licenses.Recipient()))
}

// Delete handles DELETE /api/v1/licenses/{licenseID}
func (h *LicenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "licenseID", "license")
	if !ok {
		return
	}

	if err := h.licenses.Delete(r.Context(), id); err != nil {
		if errors.Is(err, license.ErrLicenseNotFound) {
			writeError(w, http.StatusNotFound, "License not found")
			return
		}
		h.logger.Error("deleting license", "license_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to delete license")
		return
	}

	h.enqueueCheck()
	writeJSON(w, http.StatusOK, dto.SuccessResponse{Message: "License deleted"})
}

// enqueueCheck asks the worker to log the new license state. The request
// has already succeeded, so failures are only logged.
func (h *LicenseHandler) enqueueCheck() {
	if h.asynqClient == nil {
		return
	}
	task, err := tasks.NewLicenseCheckTask(tasks.LicenseCheckPayload{Trigger: tasks.TriggerImport})
	if err != nil {
		h.logger.Error("building license check task", "error", err)
		return
	}
	if _, err := h.asynqClient.Enqueue(task, asynq.Queue(queue.QueueDefault)); err != nil {
		h.logger.Warn("enqueueing license check", "error", err)
	}
}
