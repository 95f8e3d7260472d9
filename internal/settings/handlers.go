package settings

import (
	"net/http"

	"github.com/saharat-dev/backend-merchant/internal/common"
)

// Handler exposes store settings over HTTP.
type Handler struct {
	Svc *Service
}

// Get returns the effective settings.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "settings service not configured", nil)
		return
	}
	common.JSONData(w, http.StatusOK, h.Svc.Get(r.Context()))
}

// Update replaces the store settings.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "settings service not configured", nil)
		return
	}
	var in Settings
	if err := common.DecodeValid(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	updated, err := h.Svc.Update(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, updated)
}
