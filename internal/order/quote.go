package order

import (
	"encoding/json"
	"net/http"

	"github.com/saharat-dev/backend-merchant/internal/common"
	"github.com/saharat-dev/backend-merchant/internal/pricing"
)

// QuoteHandler computes a financial summary for arbitrary input without
// touching any order. Clients use it to preview totals and to verify their
// own computation against the server's.
type QuoteHandler struct {
	Settings SettingsSource
}

// Quote runs the summary computation over the posted input. When the payload
// omits the loyalty rate the store settings value is used.
func (h *QuoteHandler) Quote(w http.ResponseWriter, r *http.Request) {
	var in pricing.Input
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if in.PointsRate <= 0 && h.Settings != nil {
		in.PointsRate = h.Settings.Get(r.Context()).LoyaltyPointsRate
	}
	common.JSONData(w, http.StatusOK, pricing.Compute(in))
}
