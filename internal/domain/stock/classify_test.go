package stock

import (
	"testing"

	"github.com/Spok95/stock-ledger/internal/domain/materials"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func minStock(s string) decimal.NullDecimal { return decimal.NewNullDecimal(dec(s)) }

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		qty      decimal.Decimal
		minStock decimal.NullDecimal
		want     Status
	}{
		{"zero is out", dec("0"), minStock("10"), OutOfStock},
		{"zero with zero threshold", dec("0"), minStock("0"), OutOfStock},
		{"negative is out", dec("-3"), minStock("10"), OutOfStock},
		{"below threshold", dec("5"), minStock("10"), LowStock},
		{"at threshold", dec("10"), minStock("10"), LowStock},
		{"above threshold", dec("15"), minStock("10"), InStock},
		{"fraction above zero", dec("0.001"), minStock("10"), LowStock},
		{"missing threshold defaults to 10", dec("10"), decimal.NullDecimal{}, LowStock},
		{"missing threshold above default", dec("10.5"), decimal.NullDecimal{}, InStock},
		{"custom threshold", dec("15"), minStock("20"), LowStock},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.qty, tt.minStock))
		})
	}
}

func TestClassifyNonNumericThreshold(t *testing.T) {
	assert.Equal(t, LowStock, Classify(dec("8"), materials.ParseMinStock("abc")))
	assert.Equal(t, InStock, Classify(dec("11"), materials.ParseMinStock("")))
}

func TestLowStockFeed(t *testing.T) {
	list := []materials.Material{
		{ID: 1, Name: "Teak", Quantity: dec("100"), MinStock: minStock("10")},
		{ID: 2, Name: "Glue", Quantity: dec("0"), MinStock: minStock("10")},
		{ID: 3, Name: "Nails", Quantity: dec("4"), MinStock: minStock("10")},
		{ID: 4, Name: "Varnish", Quantity: dec("2")},
		{ID: 5, Name: "Oak", Quantity: dec("50")},
	}

	all := LowStockFeed(list, 0)
	require.Len(t, all, 3)
	assert.Equal(t, int64(2), all[0].Material.ID)
	assert.Equal(t, OutOfStock, all[0].Status)
	assert.Equal(t, int64(3), all[1].Material.ID)
	assert.Equal(t, LowStock, all[1].Status)
	assert.Equal(t, int64(4), all[2].Material.ID)

	first := LowStockFeed(list, 2)
	require.Len(t, first, 2)
	assert.Equal(t, int64(3), first[1].Material.ID)

	assert.Empty(t, LowStockFeed(list[:1], 5))
}

func TestStatusText(t *testing.T) {
	b, err := LowStock.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "low_stock", string(b))
	assert.Equal(t, "out_of_stock", OutOfStock.String())
	assert.False(t, InStock.Alerting())
}

func TestStatusUnmarshalText(t *testing.T) {
	var s Status
	require.NoError(t, s.UnmarshalText([]byte("out_of_stock")))
	assert.Equal(t, OutOfStock, s)
	assert.Error(t, s.UnmarshalText([]byte("plenty")))
}
