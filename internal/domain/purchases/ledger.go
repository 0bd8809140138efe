package purchases

import (
	"context"
	"strings"
	"time"

	"github.com/Spok95/stock-ledger/internal/domain/errs"
)

// Ledger журнал закупок. Остатки материалов не трогает, это делает reconcile.Engine.
type Ledger struct {
	store Store
	now   func() time.Time
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

func (l *Ledger) Get(ctx context.Context, id int64) (*Purchase, error) {
	p, err := l.store.GetPurchase(ctx, id)
	if err != nil {
		return nil, errs.Storage("get purchase", err)
	}
	return p, nil
}

func (l *Ledger) List(ctx context.Context) ([]Purchase, error) {
	out, err := l.store.ListPurchases(ctx)
	if err != nil {
		return nil, errs.Storage("list purchases", err)
	}
	return out, nil
}

// apply переносит поля черновика в запись и пересчитывает сумму.
func (l *Ledger) apply(p *Purchase, d Draft) {
	p.Date = d.Date
	if p.Date.IsZero() {
		now := l.now()
		p.Date = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}
	p.SupplierID = d.SupplierID
	p.MaterialName = strings.TrimSpace(d.MaterialName)
	p.Quantity = d.Quantity
	p.PricePerUnit = d.PricePerUnit
	p.TotalAmount = TotalAmount(d.Quantity, d.PricePerUnit)
	p.PaymentStatus = d.PaymentStatus
	if p.PaymentStatus == "" {
		p.PaymentStatus = StatusUnpaid
	}
	p.InvoiceRef = strings.TrimSpace(d.InvoiceRef)
}

// Record сохраняет новую закупку.
func (l *Ledger) Record(ctx context.Context, d Draft) (Purchase, error) {
	if v := d.Validate(); !v.Empty() {
		return Purchase{}, errs.Invalid("record purchase", v)
	}
	var p Purchase
	l.apply(&p, d)
	now := l.now()
	p.CreatedAt, p.UpdatedAt = now, now

	saved, err := l.store.AddPurchase(ctx, p)
	if err != nil {
		return Purchase{}, errs.Storage("add purchase", err)
	}
	return saved, nil
}

// Revise перезаписывает закупку original данными черновика.
func (l *Ledger) Revise(ctx context.Context, original Purchase, d Draft) (Purchase, error) {
	if v := d.Validate(); !v.Empty() {
		return Purchase{}, errs.Invalid("revise purchase", v)
	}
	p := original
	l.apply(&p, d)
	p.UpdatedAt = l.now()

	saved, err := l.store.UpdatePurchase(ctx, p)
	if err != nil {
		return Purchase{}, errs.Storage("update purchase", err)
	}
	return saved, nil
}

// Restore возвращает закупку к ранее снятому состоянию.
func (l *Ledger) Restore(ctx context.Context, p Purchase) error {
	if _, err := l.store.UpdatePurchase(ctx, p); err != nil {
		return errs.Storage("restore purchase", err)
	}
	return nil
}

func (l *Ledger) Remove(ctx context.Context, id int64) error {
	if err := l.store.DeletePurchase(ctx, id); err != nil {
		return errs.Storage("delete purchase", err)
	}
	return nil
}

// DraftOf собирает черновик из существующей записи (для частичных правок).
func DraftOf(p Purchase) Draft {
	return Draft{
		Date:          p.Date,
		SupplierID:    p.SupplierID,
		MaterialName:  p.MaterialName,
		Quantity:      p.Quantity,
		PricePerUnit:  p.PricePerUnit,
		PaymentStatus: p.PaymentStatus,
		InvoiceRef:    p.InvoiceRef,
	}
}
