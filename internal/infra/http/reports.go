package http

import (
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/Spok95/stock-ledger/internal/domain/errs"
	"github.com/Spok95/stock-ledger/internal/report"
)

const (
	xlsxType       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	maxImportBytes = 10 << 20
)

func writeXLSX(w http.ResponseWriter, name string, data []byte) {
	w.Header().Set("Content-Type", xlsxType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (a *API) stockReport(w http.ResponseWriter, r *http.Request) {
	mats, err := a.materials.List(r.Context())
	if err != nil {
		writeError(w, a.log, r, err)
		return
	}
	totals, err := a.engine.ComputeTotals(r.Context())
	if err != nil {
		writeError(w, a.log, r, err)
		return
	}
	data, err := report.StockWorkbook(mats, totals)
	if err != nil {
		writeError(w, a.log, r, err)
		return
	}
	writeXLSX(w, report.StockFileName(time.Now()), data)
}

func (a *API) importTemplate(w http.ResponseWriter, r *http.Request) {
	data, err := report.PurchaseTemplate()
	if err != nil {
		writeError(w, a.log, r, err)
		return
	}
	writeXLSX(w, "purchases_template.xlsx", data)
}

// importPurchases тело запроса: xlsx. Каждая строка проходит через движок
// отдельно: ошибка строки не останавливает остальные.
func (a *API) importPurchases(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxImportBytes)
	drafts, rowErrs, err := report.ParsePurchases(body)
	if err != nil {
		code := "unreadable_xlsx"
		if errors.Is(err, report.ErrEmptyWorkbook) {
			code = "no_rows"
		}
		writeError(w, a.log, r, errs.Invalid("import purchases", errs.Violations{"file": code}))
		return
	}

	resp := importResponse{Rows: []importRow{}}
	for _, re := range rowErrs {
		resp.Rows = append(resp.Rows, importRow{Row: re.Row, Error: re.Err.Error()})
		resp.Failed++
	}
	for _, d := range drafts {
		p, err := a.engine.CreatePurchase(r.Context(), d.Draft)
		if err != nil {
			if !errs.IsValidation(err) && !errs.IsReference(err) {
				a.log.Error("import row failed", "row", d.Row, "err", err)
			}
			resp.Rows = append(resp.Rows, importRow{Row: d.Row, Error: err.Error()})
			resp.Failed++
			continue
		}
		resp.Rows = append(resp.Rows, importRow{Row: d.Row, PurchaseID: p.ID})
		resp.Created++
	}
	sort.Slice(resp.Rows, func(i, j int) bool { return resp.Rows[i].Row < resp.Rows[j].Row })

	a.log.Info("purchases imported", "created", resp.Created, "failed", resp.Failed)
	writeJSON(w, http.StatusOK, resp)
}
