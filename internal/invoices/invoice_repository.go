package invoices

import (
	"fmt"
	"time"

	"github.com/Abdullah02020/back/internal/repository"
	"github.com/Abdullah02020/back/pkg/models"

	"github.com/doug-martin/goqu/v9"
)

type Repository struct {
	r *repository.Repository
}

func NewRepository(r *repository.Repository) *Repository {
	return &Repository{r: r}
}

// GetByOrder returns the invoice already issued for the order, or nil. This
// is what makes CreateForOrder idempotent.
func (i *Repository) GetByOrder(tx *goqu.TxDatabase, tenant string, branchID int, orderID string) (*models.Invoice, error) {
	var invoice models.Invoice
	found, err := tx.
		Select("id", "tenant", "branch", "invoice_no", "order_id", "currency",
			"payment_method", "subtotal", "tax", "total", "tax_rate",
			"created_by", "date_created").
		From("invoice").
		Where(goqu.Ex{"tenant": tenant, "branch": branchID, "order_id": orderID}).
		Executor().ScanStruct(&invoice)
	if err != nil {
		return nil, fmt.Errorf("failed to look up invoice for order %s: %w", orderID, err)
	}
	if !found {
		return nil, nil
	}
	return &invoice, nil
}

// MaxInvoiceNo returns the highest invoice number with the given prefix, or
// "" when the branch has no invoices today.
func (i *Repository) MaxInvoiceNo(tx *goqu.TxDatabase, branchID int, prefix string) (string, error) {
	var maxNo *string
	_, err := tx.
		Select(goqu.MAX("invoice_no")).
		From("invoice").
		Where(goqu.Ex{"branch": branchID}).
		Where(goqu.C("invoice_no").Like(prefix + "%")).
		Executor().ScanVal(&maxNo)
	if err != nil {
		return "", fmt.Errorf("failed to find last invoice no for branch %d: %w", branchID, err)
	}
	if maxNo == nil {
		return "", nil
	}
	return *maxNo, nil
}

func (i *Repository) InsertInvoice(tx *goqu.TxDatabase, invoice models.Invoice) (int, error) {
	now := time.Now().Unix()

	var id int
	query := tx.Insert("invoice").
		Rows(goqu.Record{
			"tenant":         invoice.Tenant,
			"branch":         invoice.BranchID,
			"invoice_no":     invoice.InvoiceNo,
			"order_id":       invoice.OrderID,
			"currency":       invoice.Currency,
			"payment_method": invoice.PaymentMethod,
			"subtotal":       invoice.Subtotal,
			"tax":            invoice.Tax,
			"total":          invoice.Total,
			"tax_rate":       invoice.TaxRate,
			"created_by":     invoice.CreatedBy,
			"modified_by":    invoice.CreatedBy,
			"date_created":   now,
			"last_modified":  now,
		}).
		Returning("id")
	if _, err := query.Executor().ScanVal(&id); err != nil {
		return 0, fmt.Errorf("failed to insert invoice %s: %w", invoice.InvoiceNo, err)
	}

	return id, nil
}

func (i *Repository) InsertLines(tx *goqu.TxDatabase, lines []models.InvoiceLine) error {
	rows := make([]goqu.Record, len(lines))
	for idx, line := range lines {
		rows[idx] = goqu.Record{
			"invoice":    line.InvoiceID,
			"product":    line.ProductID,
			"name":       line.Name,
			"sku":        line.SKU,
			"qty":        line.Qty,
			"unit_price": line.UnitPrice,
			"tax":        line.Tax,
			"line_total": line.LineTotal,
		}
	}

	if _, err := tx.Insert("invoice_line").Rows(rows).Executor().Exec(); err != nil {
		return fmt.Errorf("failed to insert invoice lines: %w", err)
	}
	return nil
}
