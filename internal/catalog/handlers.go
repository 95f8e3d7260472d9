package catalog

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/saharat-dev/backend-merchant/internal/common"
)

// Handler wires the product catalog to HTTP.
type Handler struct {
	Svc          *Service
	DefaultLimit int
	MaxLimit     int
}

// List returns a page of products. Supports q, active, page, and limit query
// parameters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	page, limit := common.ParsePagination(r, h.DefaultLimit, h.MaxLimit)
	f := ListFilter{
		Query:      strings.TrimSpace(r.URL.Query().Get("q")),
		ActiveOnly: r.URL.Query().Get("active") == "true",
		Limit:      limit,
	}
	result, err := h.Svc.List(r.Context(), f, page)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, result)
}

// Get returns one product by id.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	p, err := h.Svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, p)
}

// Create registers a new product.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	var in Input
	if err := common.DecodeValid(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	p, err := h.Svc.Create(r.Context(), in)
	if err != nil {
		common.WriteError(w, err)
		return
	}
	common.JSONData(w, http.StatusCreated, p)
}

// Update rewrites an existing product.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "catalog service not configured", nil)
		return
	}
	var in Input
	if err := common.DecodeValid(r, &in); err != nil {
		common.WriteError(w, err)
		return
	}
	p, err := h.Svc.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONData(w, http.StatusOK, p)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
		return
	}
	common.WriteError(w, err)
}
