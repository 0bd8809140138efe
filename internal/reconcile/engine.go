package reconcile

import (
	"context"
	"log/slog"
	"strings"

	"github.com/Spok95/stock-ledger/internal/domain/errs"
	"github.com/Spok95/stock-ledger/internal/domain/materials"
	"github.com/Spok95/stock-ledger/internal/domain/purchases"
	"github.com/Spok95/stock-ledger/internal/domain/stock"
	"github.com/Spok95/stock-ledger/internal/domain/suppliers"
	"github.com/Spok95/stock-ledger/internal/domain/valuation"
	"github.com/Spok95/stock-ledger/internal/infra/metrics"
	"github.com/shopspring/decimal"
)

// Notifier получает предупреждение, когда материал после сверки стал «мало»/«закончился».
type Notifier interface {
	LowStock(ctx context.Context, alert stock.Alert) error
}

type Config struct {
	// Compensate откатывать первую запись, если вторая не удалась.
	Compensate bool
	// AlertLimit размер ленты LowStockAlerts по умолчанию.
	AlertLimit int
}

func DefaultConfig() Config {
	return Config{Compensate: true, AlertLimit: 20}
}

type Option func(*Engine)

func WithNotifier(n Notifier) Option { return func(e *Engine) { e.notifier = n } }

func WithMetrics(m *metrics.Reconcile) Option { return func(e *Engine) { e.metrics = m } }

// Engine единственное место, где закупка и остаток материала меняются вместе.
type Engine struct {
	log       *slog.Logger
	materials *materials.Registry
	ledger    *purchases.Ledger
	suppliers *suppliers.Directory
	notifier  Notifier
	metrics   *metrics.Reconcile
	cfg       Config
}

func New(log *slog.Logger, reg *materials.Registry, ledger *purchases.Ledger, dir *suppliers.Directory, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		log:       log,
		materials: reg,
		ledger:    ledger,
		suppliers: dir,
		cfg:       cfg,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Engine) begin(op string) *unitOfWork {
	return &unitOfWork{op: op, compensate: e.cfg.Compensate, log: e.log, metrics: e.metrics}
}

// precheck валидация черновика и поставщика: до любой записи.
func (e *Engine) precheck(ctx context.Context, op string, d purchases.Draft) error {
	if v := d.Validate(); !v.Empty() {
		return errs.Invalid(op, v)
	}
	if _, err := e.suppliers.Resolve(ctx, d.SupplierID); err != nil {
		return err
	}
	return nil
}

// CreatePurchase пишет закупку в журнал и приходует количество на материал.
// Если материала с таким именем нет, он создаётся с порогом по умолчанию.
func (e *Engine) CreatePurchase(ctx context.Context, d purchases.Draft) (p purchases.Purchase, err error) {
	defer func() { e.metrics.Observe("create", err) }()

	if err := e.precheck(ctx, "create purchase", d); err != nil {
		return purchases.Purchase{}, err
	}
	before, err := e.materials.FindByName(ctx, d.MaterialName)
	if err != nil {
		return purchases.Purchase{}, err
	}

	uow := e.begin("create")
	p, err = e.ledger.Record(ctx, d)
	if err != nil {
		return purchases.Purchase{}, err
	}
	id := p.ID
	uow.onRollback("remove purchase", func(ctx context.Context) error { return e.ledger.Remove(ctx, id) })

	var after *materials.Material
	if before != nil {
		after, err = e.materials.ApplyDelta(ctx, d.MaterialName, p.Quantity, p.PricePerUnit)
	} else {
		supplierID := p.SupplierID
		after, err = e.materials.Create(ctx, materials.Material{
			Name:       p.MaterialName,
			Quantity:   p.Quantity,
			Unit:       materials.Unit(strings.TrimSpace(d.Unit)),
			UnitPrice:  p.PricePerUnit,
			SupplierID: &supplierID,
		})
		if err == nil {
			e.log.Info("material provisioned", "material", after.Name, "material_id", after.ID, "purchase_id", p.ID)
		}
	}
	if err != nil {
		return purchases.Purchase{}, uow.fail(ctx, errs.Storage("reconcile create", err))
	}

	e.afterReconcile(ctx, before, after)
	return p, nil
}

// UpdatePurchase переписывает закупку и применяет разницу количества к материалу
// с НОВЫМ именем. Остаток здесь не ограничивается нулём (в отличие от удаления).
// Если имя поменялось, старый материал не уменьшается.
func (e *Engine) UpdatePurchase(ctx context.Context, id int64, d purchases.Draft) (p purchases.Purchase, err error) {
	defer func() { e.metrics.Observe("update", err) }()

	if err := e.precheck(ctx, "update purchase", d); err != nil {
		return purchases.Purchase{}, err
	}
	orig, err := e.ledger.Get(ctx, id)
	if err != nil {
		return purchases.Purchase{}, err
	}
	if orig == nil {
		return purchases.Purchase{}, errs.Dangling("purchase", id)
	}
	if !purchases.SameMaterial(orig.MaterialName, d.MaterialName) {
		e.metrics.Renamed()
		e.log.Warn("purchase material renamed on edit, old material not adjusted",
			"purchase_id", id, "from", orig.MaterialName, "to", d.MaterialName)
	}

	diff := d.Quantity.Sub(orig.Quantity)
	before, err := e.materials.FindByName(ctx, d.MaterialName)
	if err != nil {
		return purchases.Purchase{}, err
	}

	uow := e.begin("update")
	p, err = e.ledger.Revise(ctx, *orig, d)
	if err != nil {
		return purchases.Purchase{}, err
	}
	snapshot := *orig
	uow.onRollback("restore purchase", func(ctx context.Context) error { return e.ledger.Restore(ctx, snapshot) })

	if before == nil {
		e.orphan(ctx, "update", p)
		return p, nil
	}
	after, err := e.materials.ApplyDelta(ctx, d.MaterialName, diff, d.PricePerUnit)
	if err != nil {
		return purchases.Purchase{}, uow.fail(ctx, errs.Storage("reconcile update", err))
	}

	e.afterReconcile(ctx, before, after)
	return p, nil
}

// SetPaymentStatus меняет только статус оплаты. Пишется одна закупка, материал не трогаем:
// иначе цена материала откатилась бы к цене этой закупки.
func (e *Engine) SetPaymentStatus(ctx context.Context, id int64, status purchases.PaymentStatus) (p purchases.Purchase, err error) {
	defer func() { e.metrics.Observe("pay", err) }()

	orig, err := e.ledger.Get(ctx, id)
	if err != nil {
		return purchases.Purchase{}, err
	}
	if orig == nil {
		return purchases.Purchase{}, errs.Dangling("purchase", id)
	}
	d := purchases.DraftOf(*orig)
	d.PaymentStatus = status
	if !status.Valid() {
		return purchases.Purchase{}, errs.Invalid("set payment status", errs.Violations{"payment_status": "unknown"})
	}
	return e.ledger.Revise(ctx, *orig, d)
}

// DeletePurchase списывает количество закупки с материала (не ниже нуля) и удаляет закупку.
func (e *Engine) DeletePurchase(ctx context.Context, id int64) (err error) {
	defer func() { e.metrics.Observe("delete", err) }()

	p, err := e.ledger.Get(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return errs.Dangling("purchase", id)
	}
	before, err := e.materials.FindByName(ctx, p.MaterialName)
	if err != nil {
		return err
	}

	uow := e.begin("delete")
	var after *materials.Material
	if before != nil {
		after, err = e.materials.Withdraw(ctx, p.MaterialName, p.Quantity)
		if err != nil {
			return err
		}
		snapshot := *before
		uow.onRollback("restore material", func(ctx context.Context) error { return e.materials.Restore(ctx, snapshot) })
	} else {
		e.orphan(ctx, "delete", *p)
	}

	if err := e.ledger.Remove(ctx, id); err != nil {
		return uow.fail(ctx, errs.Storage("reconcile delete", err))
	}

	if after != nil {
		e.afterReconcile(ctx, before, after)
	}
	return nil
}

func (e *Engine) orphan(_ context.Context, op string, p purchases.Purchase) {
	e.metrics.Orphan(op)
	e.log.Warn("orphaned purchase: no material with this name",
		"op", op, "purchase_id", p.ID, "material", p.MaterialName)
}

// afterReconcile шлёт предупреждение, если материал только что перешёл в «мало»/«закончился».
func (e *Engine) afterReconcile(ctx context.Context, before, after *materials.Material) {
	if after == nil {
		return
	}
	now := stock.Of(*after)
	if !now.Alerting() {
		return
	}
	if before != nil && stock.Of(*before) == now {
		return
	}
	e.metrics.Alert(now.String())
	if e.notifier == nil {
		return
	}
	if err := e.notifier.LowStock(ctx, stock.Alert{Material: *after, Status: now}); err != nil {
		e.log.Error("stock notification failed", "material", after.Name, "err", err)
	}
}

/* Чтение */

func (e *Engine) ClassifyMaterial(m materials.Material) stock.Status {
	return stock.Of(m)
}

func (e *Engine) ComputeTotals(ctx context.Context) (valuation.Totals, error) {
	mats, err := e.materials.List(ctx)
	if err != nil {
		return valuation.Totals{}, err
	}
	ps, err := e.ledger.List(ctx)
	if err != nil {
		return valuation.Totals{}, err
	}
	return valuation.Compute(mats, ps), nil
}

// LowStockAlerts лента «мало»/«закончился»; limit <= 0: значение из конфига.
func (e *Engine) LowStockAlerts(ctx context.Context, limit int) ([]stock.Alert, error) {
	if limit <= 0 {
		limit = e.cfg.AlertLimit
	}
	mats, err := e.materials.List(ctx)
	if err != nil {
		return nil, err
	}
	return stock.LowStockFeed(mats, limit), nil
}

// Orphans закупки, имя материала которых не совпадает ни с одним материалом.
func (e *Engine) Orphans(ctx context.Context) ([]purchases.Purchase, error) {
	mats, err := e.materials.List(ctx)
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(mats))
	for _, m := range mats {
		known[materials.NormalizeName(m.Name)] = struct{}{}
	}
	ps, err := e.ledger.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []purchases.Purchase
	for _, p := range ps {
		if _, ok := known[materials.NormalizeName(p.MaterialName)]; !ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// Drift разница между остатком материала и суммой закупок с его именем.
// Ненулевая разница: результат прямых правок остатка или переименований.
func (e *Engine) Drift(ctx context.Context) (map[int64]decimal.Decimal, error) {
	mats, err := e.materials.List(ctx)
	if err != nil {
		return nil, err
	}
	ps, err := e.ledger.List(ctx)
	if err != nil {
		return nil, err
	}
	sums := map[string]decimal.Decimal{}
	for _, p := range ps {
		k := materials.NormalizeName(p.MaterialName)
		sums[k] = sums[k].Add(p.Quantity)
	}
	out := map[int64]decimal.Decimal{}
	for _, m := range mats {
		if d := m.Quantity.Sub(sums[m.NameKey]); !d.IsZero() {
			out[m.ID] = d
		}
	}
	return out, nil
}
