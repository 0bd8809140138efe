package report

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/stock-ledger/internal/domain/purchases"
)

// Колонки листа закупок (первая строка: заголовок, её не читаем).
var PurchaseHeader = []interface{}{
	"date",
	"supplier_id",
	"material_name",
	"quantity",
	"price_per_unit",
	"payment_status",
	"invoice_ref",
	"unit",
}

const minPurchaseCols = 5

var ErrEmptyWorkbook = errors.New("report: no data rows")

// RowError ошибка разбора одной строки; Row: номер строки в Excel (с 1).
type RowError struct {
	Row int
	Err error
}

func (e RowError) Error() string { return fmt.Sprintf("row %d: %v", e.Row, e.Err) }
func (e RowError) Unwrap() error { return e.Err }

// DraftRow черновик закупки с номером строки-источника.
type DraftRow struct {
	Row   int
	Draft purchases.Draft
}

// ParsePurchases читает активный лист. Пустые строки пропускаются,
// битые попадают в rowErrs, остальные в drafts.
func ParsePurchases(r io.Reader) (drafts []DraftRow, rowErrs []RowError, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, err
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("read rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, ErrEmptyWorkbook
	}

	for i := 1; i < len(rows); i++ {
		row := rows[i]
		n := i + 1
		if blank(row) {
			continue
		}
		if len(row) < minPurchaseCols {
			rowErrs = append(rowErrs, RowError{Row: n, Err: fmt.Errorf("expected at least %d columns, got %d", minPurchaseCols, len(row))})
			continue
		}
		d, err := parseDraft(row)
		if err != nil {
			rowErrs = append(rowErrs, RowError{Row: n, Err: err})
			continue
		}
		drafts = append(drafts, DraftRow{Row: n, Draft: d})
	}
	return drafts, rowErrs, nil
}

func parseDraft(row []string) (purchases.Draft, error) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	var d purchases.Draft
	date, err := purchases.ParseDate(cell(0))
	if err != nil {
		return d, fmt.Errorf("date: %w", err)
	}
	d.Date = date

	if d.SupplierID, err = strconv.ParseInt(cell(1), 10, 64); err != nil {
		return d, fmt.Errorf("supplier_id: %w", err)
	}
	d.MaterialName = cell(2)
	if d.Quantity, err = parseNumber(cell(3)); err != nil {
		return d, fmt.Errorf("quantity: %w", err)
	}
	if d.PricePerUnit, err = parseNumber(cell(4)); err != nil {
		return d, fmt.Errorf("price_per_unit: %w", err)
	}
	d.PaymentStatus = purchases.PaymentStatus(strings.ToLower(cell(5)))
	d.InvoiceRef = cell(6)
	d.Unit = cell(7)
	return d, nil
}

// parseNumber принимает и запятую, и точку как разделитель.
func parseNumber(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.ReplaceAll(s, " ", ""), ",", ".")
	return decimal.NewFromString(s)
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// PurchaseTemplate пустой шаблон для загрузки закупок.
func PurchaseTemplate() ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	if err := f.SetSheetRow(sheet, "A1", &PurchaseHeader); err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
