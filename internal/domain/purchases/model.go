package purchases

import (
	"strings"
	"time"

	"github.com/Spok95/stock-ledger/internal/domain/errs"
	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	StatusPaid    PaymentStatus = "paid"
	StatusPartial PaymentStatus = "partial"
	StatusUnpaid  PaymentStatus = "unpaid"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case StatusPaid, StatusPartial, StatusUnpaid:
		return true
	}
	return false
}

// Pending оплата не закрыта полностью.
func (s PaymentStatus) Pending() bool {
	return s == StatusUnpaid || s == StatusPartial
}

// DateLayout формат даты закупки (ISO-8601).
const DateLayout = "2006-01-02"

type Purchase struct {
	ID            int64
	Date          time.Time
	SupplierID    int64
	MaterialName  string // мягкая ссылка на материал по имени, не FK
	Quantity      decimal.Decimal
	PricePerUnit  decimal.Decimal
	TotalAmount   decimal.Decimal
	PaymentStatus PaymentStatus
	InvoiceRef    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Draft ввод пользователя для создания/редактирования закупки.
type Draft struct {
	Date          time.Time
	SupplierID    int64
	MaterialName  string
	Quantity      decimal.Decimal
	PricePerUnit  decimal.Decimal
	PaymentStatus PaymentStatus
	InvoiceRef    string
	Unit          string // единица для нового материала, если он создаётся автоматически
}

// TotalAmount сумма закупки, округлённая до копеек.
func TotalAmount(qty, price decimal.Decimal) decimal.Decimal {
	return qty.Mul(price).Round(2)
}

// Validate проверяет черновик; пустой результат: всё в порядке.
func (d Draft) Validate() errs.Violations {
	v := errs.Violations{}
	if d.SupplierID <= 0 {
		v.Add("supplier_id", "required")
	}
	if strings.TrimSpace(d.MaterialName) == "" {
		v.Add("material_name", "required")
	}
	if !d.Quantity.IsPositive() {
		v.Add("quantity", "must_be_positive")
	}
	if !d.PricePerUnit.IsPositive() {
		v.Add("price_per_unit", "must_be_positive")
	}
	if d.PaymentStatus != "" && !d.PaymentStatus.Valid() {
		v.Add("payment_status", "unknown")
	}
	return v
}

// ParseDate разбирает дату закупки; пустая строка -> нулевая дата.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

// SameMaterial сравнивает имена материала без учёта регистра.
func SameMaterial(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
