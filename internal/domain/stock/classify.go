package stock

import (
	"fmt"

	"github.com/Spok95/stock-ledger/internal/domain/materials"
	"github.com/shopspring/decimal"
)

type Status int

const (
	InStock Status = iota
	LowStock
	OutOfStock
)

func (s Status) String() string {
	switch s {
	case OutOfStock:
		return "out_of_stock"
	case LowStock:
		return "low_stock"
	default:
		return "in_stock"
	}
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Status) UnmarshalText(b []byte) error {
	switch string(b) {
	case "in_stock":
		*s = InStock
	case "low_stock":
		*s = LowStock
	case "out_of_stock":
		*s = OutOfStock
	default:
		return fmt.Errorf("stock: unknown status %q", b)
	}
	return nil
}

// Alerting статус, по которому надо предупреждать.
func (s Status) Alerting() bool { return s != InStock }

// Classify статус остатка: <= 0 закончился, <= порога мало, иначе в наличии.
// Незаданный порог = materials.DefaultMinStock.
func Classify(qty decimal.Decimal, minStock decimal.NullDecimal) Status {
	if !qty.IsPositive() {
		return OutOfStock
	}
	if qty.LessThanOrEqual(materials.ThresholdOf(minStock)) {
		return LowStock
	}
	return InStock
}

func Of(m materials.Material) Status {
	return Classify(m.Quantity, m.MinStock)
}

type Alert struct {
	Material materials.Material
	Status   Status
}

// LowStockFeed первые limit материалов со статусом «мало»/«закончился»
// в порядке исходной коллекции. limit <= 0: без ограничения.
func LowStockFeed(list []materials.Material, limit int) []Alert {
	var out []Alert
	for _, m := range list {
		st := Of(m)
		if !st.Alerting() {
			continue
		}
		out = append(out, Alert{Material: m, Status: st})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
