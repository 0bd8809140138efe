// Package sqlite локальное хранилище на gorm + SQLite: один файл, схема через AutoMigrate.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Spok95/stock-ledger/internal/domain/materials"
	"github.com/Spok95/stock-ledger/internal/domain/purchases"
	"github.com/Spok95/stock-ledger/internal/domain/suppliers"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	_ materials.Store = (*Store)(nil)
	_ purchases.Store = (*Store)(nil)
	_ suppliers.Store = (*Store)(nil)
)

type Store struct{ db *gorm.DB }

// slogWriter пропускает сообщения gorm через общий логгер.
type slogWriter struct{ log *slog.Logger }

func (w slogWriter) Printf(format string, args ...any) {
	w.log.Warn(fmt.Sprintf(format, args...), "component", "gorm")
}

// Open открывает базу по пути (или DSN вида file:x?mode=memory) и создаёт таблицы.
func Open(path string, log *slog.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.New(slogWriter{log: log}, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.AutoMigrate(&supplierRow{}, &materialRow{}, &purchaseRow{}); err != nil {
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

/* Строки таблиц */

type materialRow struct {
	ID         int64  `gorm:"primaryKey"`
	Name       string `gorm:"not null"`
	NameKey    string `gorm:"index;not null"`
	Category   string
	Quantity   decimal.Decimal     `gorm:"type:text;not null"`
	Unit       string              `gorm:"not null"`
	UnitPrice  decimal.Decimal     `gorm:"type:text;not null"`
	MinStock   decimal.NullDecimal `gorm:"type:text"`
	SupplierID *int64
	CreatedAt  time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime:false"`
}

func (materialRow) TableName() string { return "raw_materials" }

func materialFrom(m materials.Material) materialRow {
	return materialRow{
		ID:         m.ID,
		Name:       m.Name,
		NameKey:    m.NameKey,
		Category:   m.Category,
		Quantity:   m.Quantity,
		Unit:       string(m.Unit),
		UnitPrice:  m.UnitPrice,
		MinStock:   m.MinStock,
		SupplierID: m.SupplierID,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func (r materialRow) domain() materials.Material {
	return materials.Material{
		ID:         r.ID,
		Name:       r.Name,
		NameKey:    r.NameKey,
		Category:   r.Category,
		Quantity:   r.Quantity,
		Unit:       materials.Unit(r.Unit),
		UnitPrice:  r.UnitPrice,
		MinStock:   r.MinStock,
		SupplierID: r.SupplierID,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

type purchaseRow struct {
	ID            int64           `gorm:"primaryKey"`
	Date          time.Time       `gorm:"not null"`
	SupplierID    int64           `gorm:"not null"`
	MaterialName  string          `gorm:"index;not null"`
	Quantity      decimal.Decimal `gorm:"type:text;not null"`
	PricePerUnit  decimal.Decimal `gorm:"type:text;not null"`
	TotalAmount   decimal.Decimal `gorm:"type:text;not null"`
	PaymentStatus string          `gorm:"not null"`
	InvoiceRef    string
	CreatedAt     time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime:false"`
}

func (purchaseRow) TableName() string { return "purchases" }

func purchaseFrom(p purchases.Purchase) purchaseRow {
	return purchaseRow{
		ID:            p.ID,
		Date:          p.Date,
		SupplierID:    p.SupplierID,
		MaterialName:  p.MaterialName,
		Quantity:      p.Quantity,
		PricePerUnit:  p.PricePerUnit,
		TotalAmount:   p.TotalAmount,
		PaymentStatus: string(p.PaymentStatus),
		InvoiceRef:    p.InvoiceRef,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func (r purchaseRow) domain() purchases.Purchase {
	return purchases.Purchase{
		ID:            r.ID,
		Date:          r.Date.UTC(),
		SupplierID:    r.SupplierID,
		MaterialName:  r.MaterialName,
		Quantity:      r.Quantity,
		PricePerUnit:  r.PricePerUnit,
		TotalAmount:   r.TotalAmount,
		PaymentStatus: purchases.PaymentStatus(r.PaymentStatus),
		InvoiceRef:    r.InvoiceRef,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

type supplierRow struct {
	ID        int64  `gorm:"primaryKey"`
	Name      string `gorm:"not null"`
	Contact   string
	Phone     string
	Email     string
	Address   string
	CreatedAt time.Time `gorm:"autoCreateTime:false"`
}

func (supplierRow) TableName() string { return "suppliers" }

func (r supplierRow) domain() suppliers.Supplier {
	return suppliers.Supplier{
		ID:        r.ID,
		Name:      r.Name,
		Contact:   r.Contact,
		Phone:     r.Phone,
		Email:     r.Email,
		Address:   r.Address,
		CreatedAt: r.CreatedAt,
	}
}

/* Materials */

func (s *Store) AddMaterial(ctx context.Context, m materials.Material) (materials.Material, error) {
	row := materialFrom(m)
	row.ID = 0
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return materials.Material{}, err
	}
	return row.domain(), nil
}

func (s *Store) UpdateMaterial(ctx context.Context, m materials.Material) (materials.Material, error) {
	row := materialFrom(m)
	res := s.db.WithContext(ctx).Model(&materialRow{ID: m.ID}).Select("*").Updates(&row)
	if res.Error != nil {
		return materials.Material{}, res.Error
	}
	if res.RowsAffected == 0 {
		return materials.Material{}, fmt.Errorf("material %d: %w", m.ID, materials.ErrNotFound)
	}
	return row.domain(), nil
}

func (s *Store) DeleteMaterial(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&materialRow{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("material %d: %w", id, materials.ErrNotFound)
	}
	return nil
}

func (s *Store) GetMaterial(ctx context.Context, id int64) (*materials.Material, error) {
	var row materialRow
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	m := row.domain()
	return &m, nil
}

func (s *Store) FindMaterialByKey(ctx context.Context, key string) (*materials.Material, error) {
	var rows []materialRow
	if err := s.db.WithContext(ctx).Where("name_key = ?", key).Order("id").Limit(1).Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	m := rows[0].domain()
	return &m, nil
}

func (s *Store) ListMaterials(ctx context.Context) ([]materials.Material, error) {
	var rows []materialRow
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]materials.Material, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}

/* Purchases */

func (s *Store) AddPurchase(ctx context.Context, p purchases.Purchase) (purchases.Purchase, error) {
	row := purchaseFrom(p)
	row.ID = 0
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return purchases.Purchase{}, err
	}
	return row.domain(), nil
}

func (s *Store) UpdatePurchase(ctx context.Context, p purchases.Purchase) (purchases.Purchase, error) {
	row := purchaseFrom(p)
	res := s.db.WithContext(ctx).Model(&purchaseRow{ID: p.ID}).Select("*").Updates(&row)
	if res.Error != nil {
		return purchases.Purchase{}, res.Error
	}
	if res.RowsAffected == 0 {
		return purchases.Purchase{}, fmt.Errorf("purchase %d: %w", p.ID, purchases.ErrNotFound)
	}
	return row.domain(), nil
}

func (s *Store) DeletePurchase(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&purchaseRow{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("purchase %d: %w", id, purchases.ErrNotFound)
	}
	return nil
}

func (s *Store) GetPurchase(ctx context.Context, id int64) (*purchases.Purchase, error) {
	var row purchaseRow
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	p := row.domain()
	return &p, nil
}

func (s *Store) ListPurchases(ctx context.Context) ([]purchases.Purchase, error) {
	var rows []purchaseRow
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]purchases.Purchase, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}

/* Suppliers */

func (s *Store) AddSupplier(ctx context.Context, sp suppliers.Supplier) (suppliers.Supplier, error) {
	row := supplierRow{
		Name:      sp.Name,
		Contact:   sp.Contact,
		Phone:     sp.Phone,
		Email:     sp.Email,
		Address:   sp.Address,
		CreatedAt: sp.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return suppliers.Supplier{}, err
	}
	return row.domain(), nil
}

func (s *Store) GetSupplier(ctx context.Context, id int64) (*suppliers.Supplier, error) {
	var row supplierRow
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	sp := row.domain()
	return &sp, nil
}

func (s *Store) ListSuppliers(ctx context.Context) ([]suppliers.Supplier, error) {
	var rows []supplierRow
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]suppliers.Supplier, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.domain())
	}
	return out, nil
}
