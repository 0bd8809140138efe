package valuation

import (
	"github.com/Spok95/stock-ledger/internal/domain/materials"
	"github.com/Spok95/stock-ledger/internal/domain/purchases"
	"github.com/Spok95/stock-ledger/internal/domain/stock"
	"github.com/shopspring/decimal"
)

// Totals сводка по складу и закупкам. Считается заново на каждый запрос.
type Totals struct {
	TotalMaterialValue   decimal.Decimal `json:"total_material_value"`
	TotalPurchaseValue   decimal.Decimal `json:"total_purchase_value"`
	PendingPaymentsCount int             `json:"pending_payments_count"`
	MaterialCount        int             `json:"material_count"`
	PurchaseCount        int             `json:"purchase_count"`
	LowStockCount        int             `json:"low_stock_count"`
	OutOfStockCount      int             `json:"out_of_stock_count"`
}

func Compute(mats []materials.Material, ps []purchases.Purchase) Totals {
	t := Totals{
		TotalMaterialValue: decimal.Zero,
		TotalPurchaseValue: decimal.Zero,
		MaterialCount:      len(mats),
		PurchaseCount:      len(ps),
	}
	for _, m := range mats {
		t.TotalMaterialValue = t.TotalMaterialValue.Add(m.Value())
		switch stock.Of(m) {
		case stock.LowStock:
			t.LowStockCount++
		case stock.OutOfStock:
			t.OutOfStockCount++
		}
	}
	for _, p := range ps {
		t.TotalPurchaseValue = t.TotalPurchaseValue.Add(p.TotalAmount)
		if p.PaymentStatus.Pending() {
			t.PendingPaymentsCount++
		}
	}
	return t
}
