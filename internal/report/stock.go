package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/stock-ledger/internal/domain/materials"
	"github.com/Spok95/stock-ledger/internal/domain/stock"
	"github.com/Spok95/stock-ledger/internal/domain/valuation"
)

const (
	StockSheet  = "Остатки"
	TotalsSheet = "Итоги"
)

var stockHeader = []interface{}{
	"material_id",
	"material_name",
	"category",
	"unit",
	"quantity",
	"min_stock",
	"unit_price",
	"value",
	"status",
}

// StockFileName имя файла выгрузки на момент now.
func StockFileName(now time.Time) string {
	return fmt.Sprintf("stock_%s.xlsx", now.Format("20060102_150405"))
}

// StockWorkbook выгрузка остатков: лист с материалами и лист с итогами.
func StockWorkbook(mats []materials.Material, totals valuation.Totals) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	first := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetName(first, StockSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetSheetRow(StockSheet, "A1", &stockHeader); err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	for i, m := range mats {
		minStock := ""
		if m.MinStock.Valid {
			minStock = m.MinStock.Decimal.String()
		}
		row := []interface{}{
			m.ID,
			m.Name,
			m.Category,
			string(m.Unit),
			m.Quantity.String(),
			minStock,
			m.UnitPrice.String(),
			m.Value().StringFixed(2),
			stock.Of(m).String(),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(StockSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
	}

	if _, err := f.NewSheet(TotalsSheet); err != nil {
		return nil, fmt.Errorf("totals sheet: %w", err)
	}
	lines := [][]interface{}{
		{"total_material_value", totals.TotalMaterialValue.StringFixed(2)},
		{"total_purchase_value", totals.TotalPurchaseValue.StringFixed(2)},
		{"pending_payments_count", totals.PendingPaymentsCount},
		{"material_count", totals.MaterialCount},
		{"purchase_count", totals.PurchaseCount},
		{"low_stock_count", totals.LowStockCount},
		{"out_of_stock_count", totals.OutOfStockCount},
	}
	for i, l := range lines {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(TotalsSheet, cell, &l); err != nil {
			return nil, fmt.Errorf("totals row %d: %w", i+1, err)
		}
	}

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("write xlsx: %w", err)
	}
	return buf.Bytes(), nil
}
