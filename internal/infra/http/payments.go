package http

import (
	"net/http"
	"strings"

	"github.com/Spok95/stock-ledger/internal/domain/purchases"
)

// setPayment PUT /purchases/{id}/payment {"payment_status":"paid"}.
// Количество и цена не меняются, остаток материала тоже.
func (a *API) setPayment(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, a.log, r, err)
		return
	}
	var req paymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, a.log, r, err)
		return
	}
	status := purchases.PaymentStatus(strings.ToLower(strings.TrimSpace(req.PaymentStatus)))

	p, err := a.engine.SetPaymentStatus(r.Context(), id, status)
	if err != nil {
		a.log.Warn("failed to set payment status", "purchase_id", id, "status", status, "err", err)
		writeError(w, a.log, r, err)
		return
	}
	a.log.Info("payment status changed", "purchase_id", id, "status", p.PaymentStatus)
	writeJSON(w, http.StatusOK, toPurchase(p))
}
