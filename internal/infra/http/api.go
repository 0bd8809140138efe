package http

import (
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"github.com/Spok95/stock-ledger/internal/domain/errs"
	"github.com/Spok95/stock-ledger/internal/domain/materials"
	"github.com/Spok95/stock-ledger/internal/domain/purchases"
	"github.com/Spok95/stock-ledger/internal/domain/suppliers"
	"github.com/Spok95/stock-ledger/internal/reconcile"
)

// API JSON-ручки над движком сверки. Все записи закупок идут только через engine.
type API struct {
	log       *slog.Logger
	engine    *reconcile.Engine
	ledger    *purchases.Ledger
	materials *materials.Registry
	suppliers *suppliers.Directory
}

func NewAPI(log *slog.Logger, engine *reconcile.Engine, ledger *purchases.Ledger,
	reg *materials.Registry, dir *suppliers.Directory) *API {
	return &API{log: log, engine: engine, ledger: ledger, materials: reg, suppliers: dir}
}

func (a *API) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /purchases", a.listPurchases)
	mux.HandleFunc("POST /purchases", a.createPurchase)
	mux.HandleFunc("PUT /purchases/{id}", a.updatePurchase)
	mux.HandleFunc("DELETE /purchases/{id}", a.deletePurchase)
	mux.HandleFunc("PUT /purchases/{id}/payment", a.setPayment)
	mux.HandleFunc("GET /purchases/orphaned", a.orphaned)
	mux.HandleFunc("POST /purchases/import", a.importPurchases)
	mux.HandleFunc("GET /purchases/import/template", a.importTemplate)

	mux.HandleFunc("GET /materials", a.listMaterials)
	mux.HandleFunc("POST /materials", a.createMaterial)
	mux.HandleFunc("PUT /materials/{id}", a.updateMaterial)
	mux.HandleFunc("DELETE /materials/{id}", a.deleteMaterial)
	mux.HandleFunc("GET /materials/{id}/status", a.materialStatus)

	mux.HandleFunc("GET /suppliers", a.listSuppliers)
	mux.HandleFunc("POST /suppliers", a.createSupplier)

	mux.HandleFunc("GET /totals", a.totals)
	mux.HandleFunc("GET /alerts/low-stock", a.lowStock)
	mux.HandleFunc("GET /reports/stock.xlsx", a.stockReport)
	mux.HandleFunc("GET /reports/drift", a.drift)
}

/* Закупки */

func (a *API) listPurchases(w http.ResponseWriter, r *http.Request) {
	ps, err := a.ledger.List(r.Context())
	if err != nil {
		writeError(w, a.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPurchases(ps))
}

func (a *API) createPurchase(w http.ResponseWriter, r *http.Request) {
	var req purchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, a.log, r, err)
		return
	}
	d, err := req.draft()
	if err != nil {
		writeError(w, a.log, r, err)
		return
	}
	p, err := a.engine.CreatePurchase(r.Context(), d)
	if err != nil {
		writeError(w, a.log, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPurchase(p))
}

func (a *API) updatePurchase(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, a.log, r, err)
		return
	}
	var req purchaseRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, a.log, r, err)
		return
	}
	d, err := req.draft()
	if err != nil {
		writeError(w, a.log, r, err)
		return
	}
	p, err := a.engine.UpdatePurchase(r.Context(), id, d)
	if err != nil {
		writeError(w, a.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPurchase(p))
}

func (a *API) deletePurchase(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, a.log, r, err)
		return
	}
	if err := a.engine.DeletePurchase(r.Context(), id); err != nil {
		writeError(w, a.log, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) orphaned(w http.ResponseWriter, r *http.Request) {
	ps, err := a.engine.Orphans(r.Context())
	if err != nil {
		writeError(w, a.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPurchases(ps))
}

/* Материалы */

func (a *API) listMaterials(w http.ResponseWriter, r *http.Request) {
	list, err := a.materials.List(r.Context())
	if err != nil {
		writeError(w, a.log, r, err)
		return
	}
	out := make([]materialResponse, 0, len(list))
	for _, m := range list {
		out = append(out, toMaterial(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) createMaterial(w http.ResponseWriter, r *http.Request) {
	var req materialRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, a.log, r, err)
		return
	}
	m, err := a.materials.Create(r.Context(), req.material())
	if err != nil {
		writeError(w, a.log, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMaterial(*m))
}

// updateMaterial прямая правка карточки, мимо журнала закупок.
func (a *API) updateMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, a.log, r, err)
		return
	}
	var req materialRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, a.log, r, err)
		return
	}
	m := req.material()
	m.ID = id
	updated, err := a.materials.Update(r.Context(), m)
	if err != nil {
		writeError(w, a.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMaterial(*updated))
}

func (a *API) deleteMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, a.log, r, err)
		return
	}
	if err := a.materials.Delete(r.Context(), id); err != nil {
		writeError(w, a.log, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) materialStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, a.log, r, err)
		return
	}
	m, err := a.materials.Get(r.Context(), id)
	if err != nil {
		writeError(w, a.log, r, err)
		return
	}
	if m == nil {
		writeError(w, a.log, r, errs.Dangling("material", id))
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{
		MaterialID: m.ID,
		Quantity:   m.Quantity,
		Threshold:  m.Threshold(),
		Status:     a.engine.ClassifyMaterial(*m),
	})
}

/* Поставщики */

func (a *API) listSuppliers(w http.ResponseWriter, r *http.Request) {
	list, err := a.suppliers.List(r.Context())
	if err != nil {
		writeError(w, a.log, r, err)
		return
	}
	out := make([]supplierResponse, 0, len(list))
	for _, s := range list {
		out = append(out, toSupplier(s))
	}
	writeJSON(w, http.StatusOK, out)
}

func (a *API) createSupplier(w http.ResponseWriter, r *http.Request) {
	var req supplierRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, a.log, r, err)
		return
	}
	s, err := a.suppliers.Create(r.Context(), suppliers.Supplier{
		Name:    req.Name,
		Contact: req.Contact,
		Phone:   req.Phone,
		Email:   req.Email,
		Address: req.Address,
	})
	if err != nil {
		writeError(w, a.log, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSupplier(*s))
}

/* Сводки */

func (a *API) totals(w http.ResponseWriter, r *http.Request) {
	t, err := a.engine.ComputeTotals(r.Context())
	if err != nil {
		writeError(w, a.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (a *API) lowStock(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			writeError(w, a.log, r, errs.Invalid("low stock", errs.Violations{"limit": "invalid"}))
			return
		}
		limit = n
	}
	list, err := a.engine.LowStockAlerts(r.Context(), limit)
	if err != nil {
		writeError(w, a.log, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAlerts(list))
}

func (a *API) drift(w http.ResponseWriter, r *http.Request) {
	diffs, err := a.engine.Drift(r.Context())
	if err != nil {
		writeError(w, a.log, r, err)
		return
	}
	list, err := a.materials.List(r.Context())
	if err != nil {
		writeError(w, a.log, r, err)
		return
	}
	out := make([]driftRow, 0, len(diffs))
	for _, m := range list {
		d, ok := diffs[m.ID]
		if !ok {
			continue
		}
		out = append(out, driftRow{MaterialID: m.ID, Name: m.Name, Quantity: m.Quantity, Drift: d})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MaterialID < out[j].MaterialID })
	writeJSON(w, http.StatusOK, out)
}
