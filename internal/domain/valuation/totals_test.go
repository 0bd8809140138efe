package valuation

import (
	"testing"

	"github.com/Spok95/stock-ledger/internal/domain/materials"
	"github.com/Spok95/stock-ledger/internal/domain/purchases"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestCompute(t *testing.T) {
	mats := []materials.Material{
		{Name: "Teak Wood", Quantity: dec("100"), UnitPrice: dec("850")},
		{Name: "Glue", Quantity: dec("2.5"), UnitPrice: dec("120.40")},
		{Name: "Nails", Quantity: dec("0"), UnitPrice: dec("3")},
	}
	ps := []purchases.Purchase{
		{TotalAmount: dec("80000"), PaymentStatus: purchases.StatusPaid},
		{TotalAmount: dec("42500"), PaymentStatus: purchases.StatusUnpaid},
		{TotalAmount: dec("301"), PaymentStatus: purchases.StatusPartial},
	}

	got := Compute(mats, ps)

	assert.True(t, dec("85301").Equal(got.TotalMaterialValue), got.TotalMaterialValue.String())
	assert.True(t, dec("122801").Equal(got.TotalPurchaseValue), got.TotalPurchaseValue.String())
	assert.Equal(t, 2, got.PendingPaymentsCount)
	assert.Equal(t, 3, got.MaterialCount)
	assert.Equal(t, 3, got.PurchaseCount)
	assert.Equal(t, 1, got.LowStockCount)
	assert.Equal(t, 1, got.OutOfStockCount)
}

func TestComputeEmpty(t *testing.T) {
	got := Compute(nil, nil)
	assert.True(t, got.TotalMaterialValue.IsZero())
	assert.True(t, got.TotalPurchaseValue.IsZero())
	assert.Zero(t, got.PendingPaymentsCount)
}
