package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Spok95/stock-ledger/internal/domain/materials"
	"github.com/Spok95/stock-ledger/internal/domain/purchases"
	"github.com/Spok95/stock-ledger/internal/domain/suppliers"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	_ materials.Store = (*Store)(nil)
	_ purchases.Store = (*Store)(nil)
	_ suppliers.Store = (*Store)(nil)
)

type Store struct{ pool *pgxpool.Pool }

func New(pool *pgxpool.Pool) *Store { return &Store{pool: pool} }

/* Materials */

const materialCols = `id, name, name_key, category, quantity, unit, unit_price, min_stock, supplier_id, created_at, updated_at`

func scanMaterial(row pgx.Row) (*materials.Material, error) {
	var m materials.Material
	if err := row.Scan(
		&m.ID,
		&m.Name,
		&m.NameKey,
		&m.Category,
		&m.Quantity,
		&m.Unit,
		&m.UnitPrice,
		&m.MinStock,
		&m.SupplierID,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) AddMaterial(ctx context.Context, m materials.Material) (materials.Material, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO raw_materials (name, name_key, category, quantity, unit, unit_price, min_stock, supplier_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING `+materialCols,
		m.Name, m.NameKey, m.Category, m.Quantity, string(m.Unit), m.UnitPrice, m.MinStock, m.SupplierID, m.CreatedAt, m.UpdatedAt)
	out, err := scanMaterial(row)
	if err != nil {
		return materials.Material{}, err
	}
	return *out, nil
}

func (s *Store) UpdateMaterial(ctx context.Context, m materials.Material) (materials.Material, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE raw_materials
		SET name=$2, name_key=$3, category=$4, quantity=$5, unit=$6, unit_price=$7,
		    min_stock=$8, supplier_id=$9, created_at=$10, updated_at=$11
		WHERE id=$1
		RETURNING `+materialCols,
		m.ID, m.Name, m.NameKey, m.Category, m.Quantity, string(m.Unit), m.UnitPrice, m.MinStock, m.SupplierID, m.CreatedAt, m.UpdatedAt)
	out, err := scanMaterial(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return materials.Material{}, fmt.Errorf("material %d: %w", m.ID, materials.ErrNotFound)
	}
	if err != nil {
		return materials.Material{}, err
	}
	return *out, nil
}

func (s *Store) DeleteMaterial(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM raw_materials WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("material %d: %w", id, materials.ErrNotFound)
	}
	return nil
}

func (s *Store) GetMaterial(ctx context.Context, id int64) (*materials.Material, error) {
	m, err := scanMaterial(s.pool.QueryRow(ctx, `SELECT `+materialCols+` FROM raw_materials WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

func (s *Store) FindMaterialByKey(ctx context.Context, key string) (*materials.Material, error) {
	m, err := scanMaterial(s.pool.QueryRow(ctx, `
		SELECT `+materialCols+`
		FROM raw_materials
		WHERE name_key=$1
		ORDER BY id
		LIMIT 1
	`, key))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

func (s *Store) ListMaterials(ctx context.Context) ([]materials.Material, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+materialCols+` FROM raw_materials ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []materials.Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

/* Purchases */

const purchaseCols = `id, date, supplier_id, material_name, quantity, price_per_unit, total_amount, payment_status, invoice_ref, created_at, updated_at`

func scanPurchase(row pgx.Row) (*purchases.Purchase, error) {
	var p purchases.Purchase
	if err := row.Scan(
		&p.ID,
		&p.Date,
		&p.SupplierID,
		&p.MaterialName,
		&p.Quantity,
		&p.PricePerUnit,
		&p.TotalAmount,
		&p.PaymentStatus,
		&p.InvoiceRef,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) AddPurchase(ctx context.Context, p purchases.Purchase) (purchases.Purchase, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO purchases (date, supplier_id, material_name, quantity, price_per_unit, total_amount, payment_status, invoice_ref, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING `+purchaseCols,
		p.Date, p.SupplierID, p.MaterialName, p.Quantity, p.PricePerUnit, p.TotalAmount, string(p.PaymentStatus), p.InvoiceRef, p.CreatedAt, p.UpdatedAt)
	out, err := scanPurchase(row)
	if err != nil {
		return purchases.Purchase{}, err
	}
	return *out, nil
}

func (s *Store) UpdatePurchase(ctx context.Context, p purchases.Purchase) (purchases.Purchase, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE purchases
		SET date=$2, supplier_id=$3, material_name=$4, quantity=$5, price_per_unit=$6,
		    total_amount=$7, payment_status=$8, invoice_ref=$9, created_at=$10, updated_at=$11
		WHERE id=$1
		RETURNING `+purchaseCols,
		p.ID, p.Date, p.SupplierID, p.MaterialName, p.Quantity, p.PricePerUnit, p.TotalAmount, string(p.PaymentStatus), p.InvoiceRef, p.CreatedAt, p.UpdatedAt)
	out, err := scanPurchase(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return purchases.Purchase{}, fmt.Errorf("purchase %d: %w", p.ID, purchases.ErrNotFound)
	}
	if err != nil {
		return purchases.Purchase{}, err
	}
	return *out, nil
}

func (s *Store) DeletePurchase(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM purchases WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("purchase %d: %w", id, purchases.ErrNotFound)
	}
	return nil
}

func (s *Store) GetPurchase(ctx context.Context, id int64) (*purchases.Purchase, error) {
	p, err := scanPurchase(s.pool.QueryRow(ctx, `SELECT `+purchaseCols+` FROM purchases WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (s *Store) ListPurchases(ctx context.Context) ([]purchases.Purchase, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+purchaseCols+` FROM purchases ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []purchases.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

/* Suppliers */

func (s *Store) AddSupplier(ctx context.Context, sp suppliers.Supplier) (suppliers.Supplier, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO suppliers (name, contact, phone, email, address, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, name, contact, phone, email, address, created_at
	`, sp.Name, sp.Contact, sp.Phone, sp.Email, sp.Address, sp.CreatedAt)
	var out suppliers.Supplier
	if err := row.Scan(&out.ID, &out.Name, &out.Contact, &out.Phone, &out.Email, &out.Address, &out.CreatedAt); err != nil {
		return suppliers.Supplier{}, err
	}
	return out, nil
}

func (s *Store) GetSupplier(ctx context.Context, id int64) (*suppliers.Supplier, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, contact, phone, email, address, created_at
		FROM suppliers WHERE id=$1
	`, id)
	var sp suppliers.Supplier
	if err := row.Scan(&sp.ID, &sp.Name, &sp.Contact, &sp.Phone, &sp.Email, &sp.Address, &sp.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &sp, nil
}

func (s *Store) ListSuppliers(ctx context.Context) ([]suppliers.Supplier, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, contact, phone, email, address, created_at
		FROM suppliers
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []suppliers.Supplier
	for rows.Next() {
		var sp suppliers.Supplier
		if err := rows.Scan(&sp.ID, &sp.Name, &sp.Contact, &sp.Phone, &sp.Email, &sp.Address, &sp.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}
