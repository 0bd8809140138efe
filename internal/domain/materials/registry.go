package materials

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Spok95/stock-ledger/internal/domain/errs"
	"github.com/shopspring/decimal"
)

// Registry реестр сырья поверх Store. Состояния не держит: всё читается из хранилища.
type Registry struct {
	store Store
	now   func() time.Time
}

func NewRegistry(store Store) *Registry {
	return &Registry{store: store, now: time.Now}
}

// WithClock подменяет часы (для тестов).
func (r *Registry) WithClock(now func() time.Time) *Registry {
	r.now = now
	return r
}

func (r *Registry) Get(ctx context.Context, id int64) (*Material, error) {
	m, err := r.store.GetMaterial(ctx, id)
	if err != nil {
		return nil, errs.Storage("get material", err)
	}
	return m, nil
}

func (r *Registry) List(ctx context.Context) ([]Material, error) {
	out, err := r.store.ListMaterials(ctx)
	if err != nil {
		return nil, errs.Storage("list materials", err)
	}
	return out, nil
}

// FindByName ищет материал по имени без учёта регистра. nil, nil: не найден.
func (r *Registry) FindByName(ctx context.Context, name string) (*Material, error) {
	key := NormalizeName(name)
	if key == "" {
		return nil, nil
	}
	m, err := r.store.FindMaterialByKey(ctx, key)
	if err != nil {
		return nil, errs.Storage("find material", err)
	}
	return m, nil
}

// validate проверяет карточку при прямом создании и правке.
// ApplyDelta её не вызывает: остаток после сверки может уйти в минус.
func validate(m Material) errs.Violations {
	v := errs.Violations{}
	if strings.TrimSpace(m.Name) == "" {
		v.Add("name", "required")
	}
	if m.Quantity.IsNegative() {
		v.Add("quantity", "must_not_be_negative")
	}
	if m.UnitPrice.IsNegative() {
		v.Add("unit_price", "must_not_be_negative")
	}
	if m.MinStock.Valid && m.MinStock.Decimal.IsNegative() {
		v.Add("min_stock", "must_not_be_negative")
	}
	return v
}

// Create добавляет материал; min_stock по умолчанию 10, имя должно быть уникальным без учёта регистра.
func (r *Registry) Create(ctx context.Context, m Material) (*Material, error) {
	if v := validate(m); !v.Empty() {
		return nil, errs.Invalid("create material", v)
	}
	m.Name = strings.TrimSpace(m.Name)
	m.NameKey = NormalizeName(m.Name)
	if !m.MinStock.Valid {
		m.MinStock = decimal.NewNullDecimal(DefaultMinStock)
	}

	existing, err := r.store.FindMaterialByKey(ctx, m.NameKey)
	if err != nil {
		return nil, errs.Storage("find material", err)
	}
	if existing != nil {
		return nil, errs.Invalid("create material", errs.Violations{"name": "duplicate"})
	}

	now := r.now()
	m.CreatedAt, m.UpdatedAt = now, now
	created, err := r.store.AddMaterial(ctx, m)
	if err != nil {
		return nil, errs.Storage("add material", err)
	}
	return &created, nil
}

// Update прямое редактирование карточки. Остаток можно поменять мимо журнала закупок,
// тогда он разойдётся с суммой закупок.
func (r *Registry) Update(ctx context.Context, m Material) (*Material, error) {
	if v := validate(m); !v.Empty() {
		return nil, errs.Invalid("update material", v)
	}
	cur, err := r.store.GetMaterial(ctx, m.ID)
	if err != nil {
		return nil, errs.Storage("get material", err)
	}
	if cur == nil {
		return nil, errs.Dangling("material", m.ID)
	}

	m.Name = strings.TrimSpace(m.Name)
	m.NameKey = NormalizeName(m.Name)
	if m.NameKey != cur.NameKey {
		other, err := r.store.FindMaterialByKey(ctx, m.NameKey)
		if err != nil {
			return nil, errs.Storage("find material", err)
		}
		if other != nil && other.ID != m.ID {
			return nil, errs.Invalid("update material", errs.Violations{"name": "duplicate"})
		}
	}
	m.CreatedAt = cur.CreatedAt
	m.UpdatedAt = r.now()

	updated, err := r.store.UpdateMaterial(ctx, m)
	if err != nil {
		return nil, errs.Storage("update material", err)
	}
	return &updated, nil
}

// Delete удаляет материал. Закупки с этим именем не трогаем.
func (r *Registry) Delete(ctx context.Context, id int64) error {
	if err := r.store.DeleteMaterial(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return errs.Dangling("material", id)
		}
		return errs.Storage("delete material", err)
	}
	return nil
}

// ApplyDelta прибавляет delta к остатку и перезаписывает цену (последняя закупка побеждает).
// Остаток не ограничивается снизу: решение за вызывающим.
func (r *Registry) ApplyDelta(ctx context.Context, name string, delta, unitPrice decimal.Decimal) (*Material, error) {
	m, err := r.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("apply delta to %q: %w", name, ErrNotFound)
	}
	m.Quantity = m.Quantity.Add(delta)
	m.UnitPrice = unitPrice
	m.UpdatedAt = r.now()

	updated, err := r.store.UpdateMaterial(ctx, *m)
	if err != nil {
		return nil, errs.Storage("update material", err)
	}
	return &updated, nil
}

// Withdraw списывает qty с остатка, не опуская его ниже нуля. Цена не меняется.
func (r *Registry) Withdraw(ctx context.Context, name string, qty decimal.Decimal) (*Material, error) {
	m, err := r.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("withdraw from %q: %w", name, ErrNotFound)
	}
	m.Quantity = decimal.Max(decimal.Zero, m.Quantity.Sub(qty))
	m.UpdatedAt = r.now()

	updated, err := r.store.UpdateMaterial(ctx, *m)
	if err != nil {
		return nil, errs.Storage("update material", err)
	}
	return &updated, nil
}

// Restore записывает ранее снятый снимок материала обратно как есть.
func (r *Registry) Restore(ctx context.Context, snapshot Material) error {
	if _, err := r.store.UpdateMaterial(ctx, snapshot); err != nil {
		return errs.Storage("restore material", err)
	}
	return nil
}
