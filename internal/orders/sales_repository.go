package orders

import (
	"fmt"
	"time"

	"github.com/Abdullah02020/back/internal/repository"
	"github.com/Abdullah02020/back/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

// SalesRepository persists immutable sale lines. Rows are written once at
// order capture; the only later update is stamping the invoice number.
type SalesRepository struct {
	r *repository.Repository
}

func NewSalesRepository(r *repository.Repository) *SalesRepository {
	return &SalesRepository{r: r}
}

func (s *SalesRepository) InsertSale(tx *goqu.TxDatabase, sale models.Sale) (int, error) {
	now := time.Now().Unix()

	var saleID int
	query := tx.Insert("sales").
		Rows(goqu.Record{
			"tenant":                 sale.Tenant,
			"branch":                 sale.BranchID,
			"product":                sale.ProductID,
			"unit_sold":              sale.UnitSold,
			"unit_price_snapshot":    sale.UnitPriceSnapshot,
			"discount_value_applied": sale.DiscountApplied,
			"tax_value_applied":      sale.TaxApplied,
			"line_total":             sale.LineTotal,
			"currency":               sale.Currency,
			"order_id":               sale.OrderID,
			"product_sku_snapshot":   sale.ProductSKUSnapshot,
			"product_name_snapshot":  sale.ProductNameSnapshot,
			"branch_name_snapshot":   sale.BranchNameSnapshot,
			"created_by":             sale.CreatedBy,
			"modified_by":            sale.CreatedBy,
			"date_created":           now,
			"last_modified":          now,
		}).
		Returning("id")
	if _, err := query.Executor().ScanVal(&saleID); err != nil {
		return 0, fmt.Errorf("failed to insert sale line: %w", err)
	}

	return saleID, nil
}

// LockSalesForOrder loads and locks every sale row of an order, in insertion
// order. Used by invoice creation.
func (s *SalesRepository) LockSalesForOrder(tx *goqu.TxDatabase, tenant string, branchID int, orderID string) ([]models.Sale, error) {
	var sales []models.Sale
	err := tx.
		Select("id", "tenant", "branch", "product", "unit_sold", "unit_price_snapshot",
			"discount_value_applied", "tax_value_applied", "line_total", "currency",
			"order_id", "receipt_no", "product_sku_snapshot", "product_name_snapshot",
			"branch_name_snapshot", "created_by", "date_created").
		From("sales").
		Where(goqu.Ex{"tenant": tenant, "branch": branchID, "order_id": orderID}).
		Order(goqu.I("id").Asc()).
		ForUpdate(exp.Wait).
		Executor().ScanStructs(&sales)
	if err != nil {
		return nil, fmt.Errorf("failed to lock sales for order %s: %w", orderID, err)
	}
	return sales, nil
}

// StampReceiptNo attaches a later-issued invoice number to the order's sale
// rows.
func (s *SalesRepository) StampReceiptNo(tx *goqu.TxDatabase, tenant string, branchID int, orderID, receiptNo string) error {
	_, err := tx.Update("sales").
		Set(goqu.Record{"receipt_no": receiptNo, "last_modified": time.Now().Unix()}).
		Where(goqu.Ex{"tenant": tenant, "branch": branchID, "order_id": orderID}).
		Executor().Exec()
	if err != nil {
		return fmt.Errorf("failed to stamp receipt no on order %s: %w", orderID, err)
	}
	return nil
}
