package suppliers

import (
	"context"
	"strings"
	"time"

	"github.com/Spok95/stock-ledger/internal/domain/errs"
)

// Store хранилище поставщиков. GetSupplier возвращает nil, nil, если записи нет.
type Store interface {
	AddSupplier(ctx context.Context, s Supplier) (Supplier, error)
	GetSupplier(ctx context.Context, id int64) (*Supplier, error)
	ListSuppliers(ctx context.Context) ([]Supplier, error)
}

type Directory struct {
	store Store
	now   func() time.Time
}

func NewDirectory(store Store) *Directory {
	return &Directory{store: store, now: time.Now}
}

func (d *Directory) Create(ctx context.Context, s Supplier) (*Supplier, error) {
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		return nil, errs.Invalid("create supplier", errs.Violations{"name": "required"})
	}
	s.CreatedAt = d.now()
	created, err := d.store.AddSupplier(ctx, s)
	if err != nil {
		return nil, errs.Storage("add supplier", err)
	}
	return &created, nil
}

func (d *Directory) List(ctx context.Context) ([]Supplier, error) {
	out, err := d.store.ListSuppliers(ctx)
	if err != nil {
		return nil, errs.Storage("list suppliers", err)
	}
	return out, nil
}

// Resolve возвращает поставщика или ReferenceError, если id никуда не ведёт.
func (d *Directory) Resolve(ctx context.Context, id int64) (*Supplier, error) {
	s, err := d.store.GetSupplier(ctx, id)
	if err != nil {
		return nil, errs.Storage("get supplier", err)
	}
	if s == nil {
		return nil, errs.Dangling("supplier", id)
	}
	return s, nil
}
