package reconcile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/Spok95/stock-ledger/internal/domain/errs"
	"github.com/Spok95/stock-ledger/internal/domain/materials"
	"github.com/Spok95/stock-ledger/internal/domain/purchases"
	"github.com/Spok95/stock-ledger/internal/domain/stock"
	"github.com/Spok95/stock-ledger/internal/domain/suppliers"
	"github.com/Spok95/stock-ledger/internal/infra/metrics"
	"github.com/Spok95/stock-ledger/internal/storage/memory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errDisk = errors.New("disk unavailable")

// faultyStore память + возможность уронить конкретный метод.
type faultyStore struct {
	*memory.Store
	mu   sync.Mutex
	fail map[string]error
}

func newFaultyStore() *faultyStore {
	return &faultyStore{Store: memory.New(), fail: map[string]error{}}
}

func (s *faultyStore) failOn(method string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail[method] = err
}

func (s *faultyStore) check(method string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fail[method]
}

func (s *faultyStore) AddMaterial(ctx context.Context, m materials.Material) (materials.Material, error) {
	if err := s.check("AddMaterial"); err != nil {
		return materials.Material{}, err
	}
	return s.Store.AddMaterial(ctx, m)
}

func (s *faultyStore) UpdateMaterial(ctx context.Context, m materials.Material) (materials.Material, error) {
	if err := s.check("UpdateMaterial"); err != nil {
		return materials.Material{}, err
	}
	return s.Store.UpdateMaterial(ctx, m)
}

func (s *faultyStore) AddPurchase(ctx context.Context, p purchases.Purchase) (purchases.Purchase, error) {
	if err := s.check("AddPurchase"); err != nil {
		return purchases.Purchase{}, err
	}
	return s.Store.AddPurchase(ctx, p)
}

func (s *faultyStore) UpdatePurchase(ctx context.Context, p purchases.Purchase) (purchases.Purchase, error) {
	if err := s.check("UpdatePurchase"); err != nil {
		return purchases.Purchase{}, err
	}
	return s.Store.UpdatePurchase(ctx, p)
}

func (s *faultyStore) DeletePurchase(ctx context.Context, id int64) error {
	if err := s.check("DeletePurchase"); err != nil {
		return err
	}
	return s.Store.DeletePurchase(ctx, id)
}

type recordingNotifier struct {
	alerts []stock.Alert
	err    error
}

func (n *recordingNotifier) LowStock(_ context.Context, a stock.Alert) error {
	n.alerts = append(n.alerts, a)
	return n.err
}

type fixture struct {
	ctx      context.Context
	store    *faultyStore
	engine   *Engine
	registry *materials.Registry
	ledger   *purchases.Ledger
	metrics  *metrics.Reconcile
	notifier *recordingNotifier
	supplier int64
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	ctx := context.Background()
	store := newFaultyStore()
	reg := materials.NewRegistry(store)
	ledger := purchases.NewLedger(store)
	dir := suppliers.NewDirectory(store)
	m := metrics.NewReconcile(prometheus.NewRegistry())
	n := &recordingNotifier{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	sup, err := dir.Create(ctx, suppliers.Supplier{Name: "Timber Co"})
	require.NoError(t, err)

	return &fixture{
		ctx:      ctx,
		store:    store,
		engine:   New(log, reg, ledger, dir, cfg, WithMetrics(m), WithNotifier(n)),
		registry: reg,
		ledger:   ledger,
		metrics:  m,
		notifier: n,
		supplier: sup.ID,
	}
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func (f *fixture) draft(name, qty, price string) purchases.Draft {
	return purchases.Draft{SupplierID: f.supplier, MaterialName: name, Quantity: dec(qty), PricePerUnit: dec(price)}
}

func (f *fixture) create(t *testing.T, name, qty, price string) purchases.Purchase {
	t.Helper()
	p, err := f.engine.CreatePurchase(f.ctx, f.draft(name, qty, price))
	require.NoError(t, err)
	return p
}

func (f *fixture) material(t *testing.T, name string) *materials.Material {
	t.Helper()
	m, err := f.registry.FindByName(f.ctx, name)
	require.NoError(t, err)
	return m
}

func (f *fixture) purchaseCount(t *testing.T) int {
	t.Helper()
	ps, err := f.ledger.List(f.ctx)
	require.NoError(t, err)
	return len(ps)
}

func (f *fixture) materialCount(t *testing.T) int {
	t.Helper()
	ms, err := f.registry.List(f.ctx)
	require.NoError(t, err)
	return len(ms)
}

func assertQty(t *testing.T, want string, m *materials.Material) {
	t.Helper()
	require.NotNil(t, m)
	assert.True(t, dec(want).Equal(m.Quantity), "quantity: want %s, got %s", want, m.Quantity)
}

// Сценарии 1–5: создание, повторная закупка, удаление, классификация, правка.
func TestPurchaseLifecycleScenario(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	p1 := f.create(t, "Teak Wood", "100", "800")
	assert.True(t, dec("80000").Equal(p1.TotalAmount))
	teak := f.material(t, "Teak Wood")
	assertQty(t, "100", teak)
	assert.Equal(t, "Teak Wood", teak.Name)
	assert.True(t, dec("800").Equal(teak.UnitPrice))
	assert.True(t, dec("10").Equal(teak.MinStock.Decimal))
	require.NotNil(t, teak.SupplierID)
	assert.Equal(t, f.supplier, *teak.SupplierID)

	p2 := f.create(t, "teak wood", "50", "850")
	teak = f.material(t, "TEAK WOOD")
	assertQty(t, "150", teak)
	assert.True(t, dec("850").Equal(teak.UnitPrice))
	assert.Equal(t, 1, f.materialCount(t))

	require.NoError(t, f.engine.DeletePurchase(f.ctx, p2.ID))
	assertQty(t, "100", f.material(t, "Teak Wood"))

	assert.Equal(t, stock.OutOfStock, f.engine.ClassifyMaterial(materials.Material{
		Quantity: decimal.Zero, MinStock: decimal.NewNullDecimal(dec("10")),
	}))

	d := f.draft("Teak Wood", "80", "800")
	_, err := f.engine.UpdatePurchase(f.ctx, p1.ID, d)
	require.NoError(t, err)
	assertQty(t, "80", f.material(t, "Teak Wood"))

	assert.Equal(t, 2.0, testutil.ToFloat64(f.metrics.Operations.WithLabelValues("create", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Operations.WithLabelValues("update", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Operations.WithLabelValues("delete", "ok")))
}

func TestTotalAmountIsRoundedProduct(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	cases := [][2]string{{"3", "0.333"}, {"1.5", "2.335"}, {"12", "19.99"}, {"0.25", "4"}}
	for _, c := range cases {
		p := f.create(t, "Glue", c[0], c[1])
		want := dec(c[0]).Mul(dec(c[1])).Round(2)
		assert.True(t, want.Equal(p.TotalAmount), "%s x %s", c[0], c[1])
	}
}

func TestNewMaterialAnyCaseCreatesExactlyOne(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	f.create(t, "OAK planks", "7", "12.5")

	assert.Equal(t, 1, f.materialCount(t))
	oak := f.material(t, "oak planks")
	assertQty(t, "7", oak)
	assert.True(t, dec("12.5").Equal(oak.UnitPrice))
}

func TestEditQuantityIncreasesByDiff(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	p := f.create(t, "Nails", "10", "1")

	_, err := f.engine.UpdatePurchase(f.ctx, p.ID, f.draft("Nails", "15", "1"))
	require.NoError(t, err)
	assertQty(t, "15", f.material(t, "Nails"))
}

func TestValidationRejectsBeforeAnyWrite(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	bad := []purchases.Draft{
		f.draft("", "1", "1"),
		f.draft("Teak", "0", "1"),
		f.draft("Teak", "1", "-2"),
		{MaterialName: "Teak", Quantity: dec("1"), PricePerUnit: dec("1")},
	}
	for _, d := range bad {
		_, err := f.engine.CreatePurchase(f.ctx, d)
		assert.True(t, errs.IsValidation(err), "%+v", d)
	}

	d := f.draft("Teak", "1", "1")
	d.SupplierID = 999
	_, err := f.engine.CreatePurchase(f.ctx, d)
	assert.True(t, errs.IsReference(err))

	assert.Zero(t, f.purchaseCount(t))
	assert.Zero(t, f.materialCount(t))
	assert.Equal(t, 5.0, testutil.ToFloat64(f.metrics.Operations.WithLabelValues("create", "error")))
}

func TestUpdateAndDeleteUnknownPurchase(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	_, err := f.engine.UpdatePurchase(f.ctx, 42, f.draft("Teak", "1", "1"))
	assert.True(t, errs.IsReference(err))

	err = f.engine.DeletePurchase(f.ctx, 42)
	assert.True(t, errs.IsReference(err))

	p := f.create(t, "Teak", "1", "1")
	bad := f.draft("Teak", "1", "1")
	bad.SupplierID = 777
	_, err = f.engine.UpdatePurchase(f.ctx, p.ID, bad)
	assert.True(t, errs.IsReference(err))
}

// Правка не ограничивает остаток нулём, удаление ограничивает.
func TestClampAsymmetryBetweenUpdateAndDelete(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	p := f.create(t, "Glue", "10", "3")

	m := f.material(t, "Glue")
	m.Quantity = dec("2")
	_, err := f.registry.Update(f.ctx, *m)
	require.NoError(t, err)

	_, err = f.engine.UpdatePurchase(f.ctx, p.ID, f.draft("Glue", "1", "3"))
	require.NoError(t, err)
	assertQty(t, "-7", f.material(t, "Glue"))

	m = f.material(t, "Glue")
	m.Quantity = dec("0.5")
	_, err = f.registry.Update(f.ctx, *m)
	require.NoError(t, err)

	require.NoError(t, f.engine.DeletePurchase(f.ctx, p.ID))
	assertQty(t, "0", f.material(t, "Glue"))
}

// При смене имени разница уходит на новый материал, старый не уменьшается.
func TestRenameOnEditAppliesDiffToNewNameOnly(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	p := f.create(t, "Teak", "10", "5")
	f.create(t, "Oak", "20", "7")

	_, err := f.engine.UpdatePurchase(f.ctx, p.ID, f.draft("oak", "12", "6"))
	require.NoError(t, err)

	assertQty(t, "10", f.material(t, "Teak"))
	oak := f.material(t, "Oak")
	assertQty(t, "22", oak)
	assert.True(t, dec("6").Equal(oak.UnitPrice))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.RenameEdits))

	drift, err := f.engine.Drift(f.ctx)
	require.NoError(t, err)
	teak := f.material(t, "Teak")
	assert.True(t, dec("10").Equal(drift[teak.ID]))
	assert.True(t, dec("-10").Equal(drift[oak.ID]))
}

func TestUpdateToUnknownNameIsOrphaned(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	p := f.create(t, "Teak", "10", "5")

	updated, err := f.engine.UpdatePurchase(f.ctx, p.ID, f.draft("Walnut", "10", "5"))
	require.NoError(t, err)
	assert.Equal(t, "Walnut", updated.MaterialName)
	assert.Nil(t, f.material(t, "Walnut"))
	assert.Equal(t, 1, f.materialCount(t))

	orphans, err := f.engine.Orphans(f.ctx)
	require.NoError(t, err)
	require.Len(t, orphans, 1)
	assert.Equal(t, p.ID, orphans[0].ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Orphaned.WithLabelValues("update")))
}

func TestDeleteOrphanedPurchaseSucceeds(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	p := f.create(t, "Teak", "10", "5")
	require.NoError(t, f.registry.Delete(f.ctx, f.material(t, "Teak").ID))

	require.NoError(t, f.engine.DeletePurchase(f.ctx, p.ID))
	assert.Zero(t, f.purchaseCount(t))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Orphaned.WithLabelValues("delete")))
}

// Сценарий 6 без компенсации: закупка записана, материал не тронут, ошибка дошла до вызывающего.
func TestCreateStorageFailureWithoutCompensation(t *testing.T) {
	f := newFixture(t, Config{Compensate: false})

	t.Run("new material", func(t *testing.T) {
		f.store.failOn("AddMaterial", errDisk)
		defer f.store.failOn("AddMaterial", nil)

		_, err := f.engine.CreatePurchase(f.ctx, f.draft("Teak Wood", "100", "800"))
		require.Error(t, err)
		assert.True(t, errs.IsStorage(err))
		assert.ErrorIs(t, err, errDisk)
		assert.NotErrorIs(t, err, ErrInconsistent)

		assert.Equal(t, 1, f.purchaseCount(t))
		assert.Nil(t, f.material(t, "Teak Wood"))
	})

	t.Run("existing material", func(t *testing.T) {
		f.create(t, "Glue", "5", "2")
		f.store.failOn("UpdateMaterial", errDisk)
		defer f.store.failOn("UpdateMaterial", nil)

		_, err := f.engine.CreatePurchase(f.ctx, f.draft("glue", "5", "3"))
		assert.ErrorIs(t, err, errDisk)

		assert.Equal(t, 3, f.purchaseCount(t))
		glue := f.material(t, "Glue")
		assertQty(t, "5", glue)
		assert.True(t, dec("2").Equal(glue.UnitPrice))
	})
}

func TestCreateStorageFailureCompensated(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.store.failOn("AddMaterial", errDisk)

	_, err := f.engine.CreatePurchase(f.ctx, f.draft("Teak Wood", "100", "800"))
	assert.True(t, errs.IsStorage(err))
	assert.ErrorIs(t, err, errDisk)

	assert.Zero(t, f.purchaseCount(t))
	assert.Zero(t, f.materialCount(t))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Compensations.WithLabelValues("create", "ok")))
}

func TestLedgerWriteFailureLeavesNothing(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.store.failOn("AddPurchase", errDisk)

	_, err := f.engine.CreatePurchase(f.ctx, f.draft("Teak", "1", "1"))
	assert.True(t, errs.IsStorage(err))
	assert.Zero(t, f.purchaseCount(t))
	assert.Zero(t, f.materialCount(t))
}

func TestUpdateStorageFailureRestoresPurchase(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	p := f.create(t, "Teak", "10", "5")
	f.store.failOn("UpdateMaterial", errDisk)

	_, err := f.engine.UpdatePurchase(f.ctx, p.ID, f.draft("Teak", "25", "6"))
	assert.ErrorIs(t, err, errDisk)

	got, err := f.ledger.Get(f.ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, dec("10").Equal(got.Quantity))
	assert.True(t, dec("50").Equal(got.TotalAmount))
	assertQty(t, "10", f.material(t, "Teak"))
}

func TestDeleteStorageFailureRestoresMaterial(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	p := f.create(t, "Teak", "10", "5")
	f.store.failOn("DeletePurchase", errDisk)

	err := f.engine.DeletePurchase(f.ctx, p.ID)
	assert.ErrorIs(t, err, errDisk)

	assert.Equal(t, 1, f.purchaseCount(t))
	assertQty(t, "10", f.material(t, "Teak"))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Compensations.WithLabelValues("delete", "ok")))
}

func TestDeleteStorageFailureWithoutCompensation(t *testing.T) {
	f := newFixture(t, Config{Compensate: false})
	p := f.create(t, "Teak", "10", "5")
	f.store.failOn("DeletePurchase", errDisk)

	err := f.engine.DeletePurchase(f.ctx, p.ID)
	assert.ErrorIs(t, err, errDisk)

	assert.Equal(t, 1, f.purchaseCount(t))
	assertQty(t, "0", f.material(t, "Teak"))
}

func TestFailedRollbackReportsInconsistency(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	p := f.create(t, "Teak", "10", "5")
	f.store.failOn("UpdateMaterial", errDisk)

	// вторая запись (материал) падает, откат журнала тоже падает
	rollbackErr := errors.New("ledger offline")
	f.engine.ledger = purchases.NewLedger(&failOnRestore{faultyStore: f.store, err: rollbackErr})

	_, err := f.engine.UpdatePurchase(f.ctx, p.ID, f.draft("Teak", "25", "5"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errDisk)
	assert.ErrorIs(t, err, ErrInconsistent)
	assert.ErrorIs(t, err, rollbackErr)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Compensations.WithLabelValues("update", "error")))
}

// failOnRestore пропускает первую правку закупки и роняет все последующие.
type failOnRestore struct {
	*faultyStore
	err   error
	calls int
}

func (s *failOnRestore) UpdatePurchase(ctx context.Context, p purchases.Purchase) (purchases.Purchase, error) {
	s.calls++
	if s.calls > 1 {
		return purchases.Purchase{}, s.err
	}
	return s.faultyStore.UpdatePurchase(ctx, p)
}

func TestNotifiesOnTransitionToLowOrOut(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	p1 := f.create(t, "Teak", "30", "5")
	p2 := f.create(t, "Teak", "5", "5")
	assert.Empty(t, f.notifier.alerts)

	require.NoError(t, f.engine.DeletePurchase(f.ctx, p1.ID))
	require.Len(t, f.notifier.alerts, 1)
	assert.Equal(t, stock.LowStock, f.notifier.alerts[0].Status)
	assert.Equal(t, "Teak", f.notifier.alerts[0].Material.Name)

	// остаётся «мало», повторно не шлём
	_, err := f.engine.UpdatePurchase(f.ctx, p2.ID, f.draft("Teak", "3", "5"))
	require.NoError(t, err)
	assert.Len(t, f.notifier.alerts, 1)

	require.NoError(t, f.engine.DeletePurchase(f.ctx, p2.ID))
	require.Len(t, f.notifier.alerts, 2)
	assert.Equal(t, stock.OutOfStock, f.notifier.alerts[1].Status)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Alerts.WithLabelValues("out_of_stock")))
}

func TestNotifierFailureDoesNotFailReconciliation(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	f.notifier.err = errors.New("telegram down")

	_, err := f.engine.CreatePurchase(f.ctx, f.draft("Varnish", "2", "40"))
	require.NoError(t, err)
	assert.Len(t, f.notifier.alerts, 1)
}

func TestComputeTotalsAndAlerts(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	f.create(t, "Teak Wood", "100", "800")
	p := f.create(t, "Glue", "4", "25")
	f.create(t, "Nails", "8", "0.5")
	_, err := f.engine.SetPaymentStatus(f.ctx, p.ID, purchases.StatusPaid)
	require.NoError(t, err)

	totals, err := f.engine.ComputeTotals(f.ctx)
	require.NoError(t, err)
	assert.True(t, dec("80104").Equal(totals.TotalMaterialValue), totals.TotalMaterialValue.String())
	assert.True(t, dec("80104").Equal(totals.TotalPurchaseValue), totals.TotalPurchaseValue.String())
	assert.Equal(t, 2, totals.PendingPaymentsCount)
	assert.Equal(t, 2, totals.LowStockCount)

	alerts, err := f.engine.LowStockAlerts(f.ctx, 1)
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, "Glue", alerts[0].Material.Name)

	alerts, err = f.engine.LowStockAlerts(f.ctx, 0)
	require.NoError(t, err)
	assert.Len(t, alerts, 2)

	_, err = f.engine.SetPaymentStatus(f.ctx, p.ID, "someday")
	assert.True(t, errs.IsValidation(err))
	assertQty(t, "4", f.material(t, "Glue"))
}

func TestSetPaymentStatusKeepsLatestUnitPrice(t *testing.T) {
	f := newFixture(t, DefaultConfig())

	p1 := f.create(t, "Teak Wood", "100", "800")
	f.create(t, "teak wood", "50", "850")

	paid, err := f.engine.SetPaymentStatus(f.ctx, p1.ID, purchases.StatusPaid)
	require.NoError(t, err)
	assert.Equal(t, purchases.StatusPaid, paid.PaymentStatus)
	assert.True(t, dec("100").Equal(paid.Quantity))

	teak := f.material(t, "Teak Wood")
	assertQty(t, "150", teak)
	assert.True(t, dec("850").Equal(teak.UnitPrice), teak.UnitPrice.String())
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.Operations.WithLabelValues("update", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Operations.WithLabelValues("pay", "ok")))
}

func TestSetPaymentStatusOnOrphanedPurchase(t *testing.T) {
	f := newFixture(t, DefaultConfig())
	p := f.create(t, "Teak", "10", "5")
	require.NoError(t, f.registry.Delete(f.ctx, f.material(t, "Teak").ID))

	paid, err := f.engine.SetPaymentStatus(f.ctx, p.ID, purchases.StatusPartial)
	require.NoError(t, err)
	assert.Equal(t, purchases.StatusPartial, paid.PaymentStatus)
	assert.Equal(t, 0, f.materialCount(t))
	assert.Equal(t, 0.0, testutil.ToFloat64(f.metrics.Orphaned.WithLabelValues("update")))
}
