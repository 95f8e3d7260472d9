package order

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/saharat-dev/backend-merchant/internal/common"
)

// AdminHandler provides administrative order management endpoints.
type AdminHandler struct {
	Svc *Service
}

type patchStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=SAVED CANCELED"`
}

// PatchStatus forces a lifecycle transition. Only strictly forward moves are
// accepted; CANCELED is terminal.
func (h *AdminHandler) PatchStatus(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	var req patchStatusRequest
	if err := common.DecodeValid(r, &req); err != nil {
		common.WriteError(w, err)
		return
	}
	o, err := h.Svc.SetStatus(r.Context(), chi.URLParam(r, "id"), Status(req.Status))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, o)
}
