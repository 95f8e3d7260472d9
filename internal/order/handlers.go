package order

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/saharat-dev/backend-merchant/internal/catalog"
	"github.com/saharat-dev/backend-merchant/internal/common"
	"github.com/saharat-dev/backend-merchant/internal/coupon"
)

// Handler wires the order lifecycle to HTTP.
type Handler struct {
	Svc          *Service
	DefaultLimit int
	MaxLimit     int
}

// Create drafts a new order.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "order service not configured", nil)
		return
	}
	var in CreateInput
	if err := common.DecodeValid(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	o, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, o)
}

// Get returns one order with its full summary.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, o)
}

// List returns orders newest first. Supports status, page, and limit query
// parameters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := common.ParsePagination(r, h.DefaultLimit, h.MaxLimit)
	f := ListFilter{
		Status: Status(r.URL.Query().Get("status")),
		Offset: (page - 1) * limit,
		Limit:  limit,
	}
	orders, total, err := h.Svc.List(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	if orders == nil {
		orders = []Order{}
	}
	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	common.JSON(w, http.StatusOK, map[string]any{
		"data": orders,
		"pagination": common.Pagination{
			Page:       page,
			PerPage:    limit,
			TotalItems: total,
		},
	})
}

// ReplaceItems swaps the full line set of a draft.
func (h *Handler) ReplaceItems(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Items []LineInput `json:"items" validate:"required,dive"`
	}
	if err := common.DecodeValid(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	o, err := h.Svc.ReplaceItems(r.Context(), chi.URLParam(r, "id"), in.Items)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, o)
}

// PatchPricing updates discount, tax, shipping, or loyalty points usage.
func (h *Handler) PatchPricing(w http.ResponseWriter, r *http.Request) {
	var patch PricingPatch
	if err := common.DecodeValid(r, &patch); err != nil {
		common.WriteError(w, err)
		return
	}
	o, err := h.Svc.UpdatePricing(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, o)
}

// ApplyCoupon redeems a coupon code against the draft.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Code string `json:"code" validate:"required"`
	}
	if err := common.DecodeValid(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	o, err := h.Svc.ApplyCoupon(r.Context(), chi.URLParam(r, "id"), in.Code)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, o)
}

// RemoveCoupon drops an applied coupon.
func (h *Handler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	o, err := h.Svc.RemoveCoupon(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, o)
}

// Save finalizes a draft. Warnings are echoed in the summary but never block.
func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	var in SaveInput
	if r.ContentLength > 0 {
		if err := common.DecodeValid(r, &in); err != nil {
			common.WriteError(w, err)
			return
		}
	}
	o, err := h.Svc.Save(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, o)
}

// Cancel terminates a draft or saved order.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	o, err := h.Svc.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, o)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "order not found", nil)
	case errors.Is(err, ErrNotDraft), errors.Is(err, ErrInvalidState):
		common.JSONError(w, http.StatusConflict, "INVALID_STATE", err.Error(), nil)
	case errors.Is(err, ErrCouponApplied):
		common.JSONError(w, http.StatusConflict, "COUPON_APPLIED", err.Error(), nil)
	case errors.Is(err, ErrTotalMismatch):
		common.JSONError(w, http.StatusUnprocessableEntity, "TOTAL_MISMATCH", err.Error(), nil)
	case errors.Is(err, catalog.ErrNotFound):
		common.JSONError(w, http.StatusUnprocessableEntity, "PRODUCT_NOT_FOUND", err.Error(), nil)
	case errors.Is(err, coupon.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "coupon not found", nil)
	case errors.Is(err, coupon.ErrInactive), errors.Is(err, coupon.ErrExpired),
		errors.Is(err, coupon.ErrUsageLimitReached), errors.Is(err, coupon.ErrMinimumSpendUnmet):
		common.JSONError(w, http.StatusUnprocessableEntity, "COUPON_REJECTED", err.Error(), nil)
	default:
		common.WriteError(w, err)
	}
}
