package coupon

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/saharat-dev/backend-merchant/internal/common"
)

// Handler wires coupon administration to HTTP.
type Handler struct {
	Store *Store
	Svc   *Service
}

// Create registers a new coupon.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon store not configured", nil)
		return
	}
	var in Input
	if err := common.DecodeValid(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	rec, err := h.Store.Create(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, rec)
}

// Update rewrites an existing coupon identified by code.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon store not configured", nil)
		return
	}
	code := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "code")))
	var in Input
	if err := common.DecodeValid(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	in.Code = code
	rec, err := h.Store.Update(r.Context(), code, in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, rec)
}

// Preview evaluates a coupon against a hypothetical subtotal without
// consuming usage.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "coupon service not configured", nil)
		return
	}
	var payload struct {
		Code     string  `json:"code" validate:"required"`
		Subtotal float64 `json:"subtotal" validate:"gte=0"`
	}
	if err := common.DecodeValid(r, &payload); err != nil {
		common.WriteError(w, err)
		return
	}
	applied, err := h.Svc.Preview(r.Context(), strings.ToUpper(strings.TrimSpace(payload.Code)), payload.Subtotal)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, applied)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "coupon not found", nil)
	case errors.Is(err, ErrInactive), errors.Is(err, ErrExpired),
		errors.Is(err, ErrUsageLimitReached), errors.Is(err, ErrMinimumSpendUnmet):
		common.JSONError(w, http.StatusUnprocessableEntity, "COUPON_REJECTED", err.Error(), nil)
	default:
		common.WriteError(w, err)
	}
}
