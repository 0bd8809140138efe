package materials

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Unit string

const (
	UnitPcs Unit = "pcs"
	UnitKg  Unit = "kg"
	UnitG   Unit = "g"
	UnitM   Unit = "m"
	UnitL   Unit = "l"
)

// DefaultMinStock порог «мало», если min_stock не задан или не число.
var DefaultMinStock = decimal.NewFromInt(10)

type Material struct {
	ID         int64
	Name       string
	NameKey    string // NormalizeName(Name), индекс для поиска по имени
	Category   string
	Quantity   decimal.Decimal
	Unit       Unit
	UnitPrice  decimal.Decimal
	MinStock   decimal.NullDecimal
	SupplierID *int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Threshold возвращает порог остатка с учётом значения по умолчанию.
func (m Material) Threshold() decimal.Decimal {
	return ThresholdOf(m.MinStock)
}

// Value стоимость остатка: quantity × unit_price.
func (m Material) Value() decimal.Decimal {
	return m.Quantity.Mul(m.UnitPrice)
}

func ThresholdOf(minStock decimal.NullDecimal) decimal.Decimal {
	if !minStock.Valid {
		return DefaultMinStock
	}
	return minStock.Decimal
}

// NormalizeName приводит имя к ключу сравнения: без пробелов по краям, в нижнем регистре.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ParseMinStock разбирает порог из текста; пустое или нечисловое значение -> не задан.
func ParseMinStock(s string) decimal.NullDecimal {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}
