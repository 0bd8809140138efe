// Package memory хранилище в памяти процесса: материалы, закупки, поставщики.
// Порядок выдачи списков: порядок добавления (по id).
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Spok95/stock-ledger/internal/domain/materials"
	"github.com/Spok95/stock-ledger/internal/domain/purchases"
	"github.com/Spok95/stock-ledger/internal/domain/suppliers"
)

var (
	_ materials.Store = (*Store)(nil)
	_ purchases.Store = (*Store)(nil)
	_ suppliers.Store = (*Store)(nil)
)

type Store struct {
	mu        sync.Mutex
	seq       map[string]int64 // последовательность id на таблицу
	materials map[int64]materials.Material
	purchases map[int64]purchases.Purchase
	suppliers map[int64]suppliers.Supplier
}

func New() *Store {
	return &Store{
		seq:       map[string]int64{},
		materials: map[int64]materials.Material{},
		purchases: map[int64]purchases.Purchase{},
		suppliers: map[int64]suppliers.Supplier{},
	}
}

func (s *Store) nextID(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

func sortedIDs[T any](m map[int64]T) []int64 {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func copyMaterial(m materials.Material) materials.Material {
	if m.SupplierID != nil {
		id := *m.SupplierID
		m.SupplierID = &id
	}
	return m
}

/* Materials */

func (s *Store) AddMaterial(_ context.Context, m materials.Material) (materials.Material, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.nextID("materials")
	m = copyMaterial(m)
	s.materials[m.ID] = m
	return copyMaterial(m), nil
}

func (s *Store) UpdateMaterial(_ context.Context, m materials.Material) (materials.Material, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.materials[m.ID]; !ok {
		return materials.Material{}, fmt.Errorf("material %d: %w", m.ID, materials.ErrNotFound)
	}
	m = copyMaterial(m)
	s.materials[m.ID] = m
	return copyMaterial(m), nil
}

func (s *Store) DeleteMaterial(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.materials[id]; !ok {
		return fmt.Errorf("material %d: %w", id, materials.ErrNotFound)
	}
	delete(s.materials, id)
	return nil
}

func (s *Store) GetMaterial(_ context.Context, id int64) (*materials.Material, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.materials[id]
	if !ok {
		return nil, nil
	}
	m = copyMaterial(m)
	return &m, nil
}

// FindMaterialByKey первый (по id) материал с таким ключом имени.
func (s *Store) FindMaterialByKey(_ context.Context, key string) (*materials.Material, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range sortedIDs(s.materials) {
		if m := s.materials[id]; m.NameKey == key {
			m = copyMaterial(m)
			return &m, nil
		}
	}
	return nil, nil
}

func (s *Store) ListMaterials(_ context.Context) ([]materials.Material, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]materials.Material, 0, len(s.materials))
	for _, id := range sortedIDs(s.materials) {
		out = append(out, copyMaterial(s.materials[id]))
	}
	return out, nil
}

/* Purchases */

func (s *Store) AddPurchase(_ context.Context, p purchases.Purchase) (purchases.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.nextID("purchases")
	s.purchases[p.ID] = p
	return p, nil
}

func (s *Store) UpdatePurchase(_ context.Context, p purchases.Purchase) (purchases.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.purchases[p.ID]; !ok {
		return purchases.Purchase{}, fmt.Errorf("purchase %d: %w", p.ID, purchases.ErrNotFound)
	}
	s.purchases[p.ID] = p
	return p, nil
}

func (s *Store) DeletePurchase(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.purchases[id]; !ok {
		return fmt.Errorf("purchase %d: %w", id, purchases.ErrNotFound)
	}
	delete(s.purchases, id)
	return nil
}

func (s *Store) GetPurchase(_ context.Context, id int64) (*purchases.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.purchases[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (s *Store) ListPurchases(_ context.Context) ([]purchases.Purchase, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]purchases.Purchase, 0, len(s.purchases))
	for _, id := range sortedIDs(s.purchases) {
		out = append(out, s.purchases[id])
	}
	return out, nil
}

/* Suppliers */

func (s *Store) AddSupplier(_ context.Context, sp suppliers.Supplier) (suppliers.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp.ID = s.nextID("suppliers")
	s.suppliers[sp.ID] = sp
	return sp, nil
}

func (s *Store) GetSupplier(_ context.Context, id int64) (*suppliers.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sp, ok := s.suppliers[id]
	if !ok {
		return nil, nil
	}
	return &sp, nil
}

func (s *Store) ListSuppliers(_ context.Context) ([]suppliers.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]suppliers.Supplier, 0, len(s.suppliers))
	for _, id := range sortedIDs(s.suppliers) {
		out = append(out, s.suppliers[id])
	}
	return out, nil
}
