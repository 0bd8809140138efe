package http

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Spok95/stock-ledger/internal/domain/errs"
	"github.com/Spok95/stock-ledger/internal/domain/materials"
	"github.com/Spok95/stock-ledger/internal/domain/purchases"
	"github.com/Spok95/stock-ledger/internal/domain/stock"
	"github.com/Spok95/stock-ledger/internal/domain/suppliers"
)

/* Закупки */

type purchaseRequest struct {
	Date          string          `json:"date"`
	SupplierID    int64           `json:"supplier_id"`
	MaterialName  string          `json:"material_name"`
	Quantity      decimal.Decimal `json:"quantity"`
	PricePerUnit  decimal.Decimal `json:"price_per_unit"`
	PaymentStatus string          `json:"payment_status"`
	InvoiceRef    string          `json:"invoice_ref"`
	Unit          string          `json:"unit"`
}

func (r purchaseRequest) draft() (purchases.Draft, error) {
	date, err := purchases.ParseDate(r.Date)
	if err != nil {
		return purchases.Draft{}, errs.Invalid("parse purchase", errs.Violations{"date": "invalid"})
	}
	return purchases.Draft{
		Date:          date,
		SupplierID:    r.SupplierID,
		MaterialName:  r.MaterialName,
		Quantity:      r.Quantity,
		PricePerUnit:  r.PricePerUnit,
		PaymentStatus: purchases.PaymentStatus(r.PaymentStatus),
		InvoiceRef:    r.InvoiceRef,
		Unit:          r.Unit,
	}, nil
}

type purchaseResponse struct {
	ID            int64           `json:"id"`
	Date          string          `json:"date"`
	SupplierID    int64           `json:"supplier_id"`
	MaterialName  string          `json:"material_name"`
	Quantity      decimal.Decimal `json:"quantity"`
	PricePerUnit  decimal.Decimal `json:"price_per_unit"`
	TotalAmount   string          `json:"total_amount"`
	PaymentStatus string          `json:"payment_status"`
	InvoiceRef    string          `json:"invoice_ref,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func toPurchase(p purchases.Purchase) purchaseResponse {
	return purchaseResponse{
		ID:            p.ID,
		Date:          p.Date.Format(purchases.DateLayout),
		SupplierID:    p.SupplierID,
		MaterialName:  p.MaterialName,
		Quantity:      p.Quantity,
		PricePerUnit:  p.PricePerUnit,
		TotalAmount:   p.TotalAmount.StringFixed(2),
		PaymentStatus: string(p.PaymentStatus),
		InvoiceRef:    p.InvoiceRef,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toPurchases(ps []purchases.Purchase) []purchaseResponse {
	out := make([]purchaseResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPurchase(p))
	}
	return out
}

type paymentRequest struct {
	PaymentStatus string `json:"payment_status"`
}

/* Материалы */

type materialRequest struct {
	Name       string              `json:"name"`
	Category   string              `json:"category"`
	Quantity   decimal.Decimal     `json:"quantity"`
	Unit       string              `json:"unit"`
	UnitPrice  decimal.Decimal     `json:"unit_price"`
	MinStock   decimal.NullDecimal `json:"min_stock"`
	SupplierID *int64              `json:"supplier_id"`
}

func (r materialRequest) material() materials.Material {
	return materials.Material{
		Name:       r.Name,
		Category:   r.Category,
		Quantity:   r.Quantity,
		Unit:       materials.Unit(r.Unit),
		UnitPrice:  r.UnitPrice,
		MinStock:   r.MinStock,
		SupplierID: r.SupplierID,
	}
}

type materialResponse struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	Category   string          `json:"category,omitempty"`
	Quantity   decimal.Decimal `json:"quantity"`
	Unit       string          `json:"unit"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	MinStock   decimal.Decimal `json:"min_stock"`
	SupplierID *int64          `json:"supplier_id,omitempty"`
	Status     stock.Status    `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func toMaterial(m materials.Material) materialResponse {
	return materialResponse{
		ID:         m.ID,
		Name:       m.Name,
		Category:   m.Category,
		Quantity:   m.Quantity,
		Unit:       string(m.Unit),
		UnitPrice:  m.UnitPrice,
		MinStock:   m.Threshold(),
		SupplierID: m.SupplierID,
		Status:     stock.Of(m),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

type statusResponse struct {
	MaterialID int64           `json:"material_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	Threshold  decimal.Decimal `json:"threshold"`
	Status     stock.Status    `json:"status"`
}

type alertResponse struct {
	MaterialID int64           `json:"material_id"`
	Name       string          `json:"name"`
	Quantity   decimal.Decimal `json:"quantity"`
	Unit       string          `json:"unit"`
	Threshold  decimal.Decimal `json:"threshold"`
	Status     stock.Status    `json:"status"`
}

func toAlerts(list []stock.Alert) []alertResponse {
	out := make([]alertResponse, 0, len(list))
	for _, a := range list {
		out = append(out, alertResponse{
			MaterialID: a.Material.ID,
			Name:       a.Material.Name,
			Quantity:   a.Material.Quantity,
			Unit:       string(a.Material.Unit),
			Threshold:  a.Material.Threshold(),
			Status:     a.Status,
		})
	}
	return out
}

/* Поставщики */

type supplierRequest struct {
	Name    string `json:"name"`
	Contact string `json:"contact"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

type supplierResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Contact   string    `json:"contact,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toSupplier(s suppliers.Supplier) supplierResponse {
	return supplierResponse{
		ID:        s.ID,
		Name:      s.Name,
		Contact:   s.Contact,
		Phone:     s.Phone,
		Email:     s.Email,
		Address:   s.Address,
		CreatedAt: s.CreatedAt,
	}
}

/* Импорт */

type importRow struct {
	Row        int    `json:"row"`
	PurchaseID int64  `json:"purchase_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

type importResponse struct {
	Created int         `json:"created"`
	Failed  int         `json:"failed"`
	Rows    []importRow `json:"rows"`
}

type driftRow struct {
	MaterialID int64           `json:"material_id"`
	Name       string          `json:"name"`
	Quantity   decimal.Decimal `json:"quantity"`
	Drift      decimal.Decimal `json:"drift"`
}
