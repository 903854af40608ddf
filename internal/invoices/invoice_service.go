package invoices

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Abdullah02020/back/internal/repository"
	"github.com/Abdullah02020/back/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SalesStore is the slice of the sales repository invoicing needs.
type SalesStore interface {
	LockSalesForOrder(tx *goqu.TxDatabase, tenant string, branchID int, orderID string) ([]models.Sale, error)
	StampReceiptNo(tx *goqu.TxDatabase, tenant string, branchID int, orderID, receiptNo string) error
}

// InvoiceStore persists invoices and their lines.
type InvoiceStore interface {
	GetByOrder(tx *goqu.TxDatabase, tenant string, branchID int, orderID string) (*models.Invoice, error)
	MaxInvoiceNo(tx *goqu.TxDatabase, branchID int, prefix string) (string, error)
	InsertInvoice(tx *goqu.TxDatabase, invoice models.Invoice) (int, error)
	InsertLines(tx *goqu.TxDatabase, lines []models.InvoiceLine) error
}

// Service issues one invoice per captured order, summing the immutable sale
// snapshots. Re-invoking for the same order returns the existing invoice.
type Service struct {
	r        *repository.Repository
	sales    SalesStore
	invoices InvoiceStore
	log      *zap.Logger
	runTx    func(fn func(tx *goqu.TxDatabase) error) error
}

func NewService(r *repository.Repository, sales SalesStore, invoices InvoiceStore, log *zap.Logger) *Service {
	return &Service{
		r:        r,
		sales:    sales,
		invoices: invoices,
		log:      log,
		runTx: func(fn func(tx *goqu.TxDatabase) error) error {
			return repository.WithTransaction(r.GoquDBWrapper, fn)
		},
	}
}

type CreateForOrderInput struct {
	Tenant        string
	BranchID      int
	OrderID       string
	PaymentMethod string
	TaxRate       *decimal.Decimal
	AgentID       *int
}

// NextInvoiceNo builds the next per-branch sequential number for the day,
// formatted INV-{branch}-{YYYYMMDD}-{seq:04d}.
func NextInvoiceNo(branchID int, now time.Time, lastNo string) string {
	prefix := fmt.Sprintf("INV-%d-%s-", branchID, now.UTC().Format("20060102"))
	if lastNo == "" {
		return prefix + "0001"
	}

	seq := 0
	if idx := strings.LastIndex(lastNo, "-"); idx >= 0 {
		if parsed, err := strconv.Atoi(lastNo[idx+1:]); err == nil {
			seq = parsed
		}
	}
	return fmt.Sprintf("%s%04d", prefix, seq+1)
}

// InvoicePrefix is the per-branch per-day prefix used to scope the sequence
// lookup.
func InvoicePrefix(branchID int, now time.Time) string {
	return fmt.Sprintf("INV-%d-%s-", branchID, now.UTC().Format("20060102"))
}

func (s *Service) CreateForOrder(in CreateForOrderInput) (*models.Invoice, error) {
	if in.OrderID == "" {
		return nil, fmt.Errorf("order_id is required")
	}

	paymentMethod := strings.ToLower(in.PaymentMethod)
	if paymentMethod == "" {
		paymentMethod = "cash"
	}

	taxRate := decimal.RequireFromString("0.10")
	if in.TaxRate != nil {
		taxRate = *in.TaxRate
	}

	now := time.Now()

	var invoice *models.Invoice
	err := s.runTx(func(tx *goqu.TxDatabase) error {
		existing, err := s.invoices.GetByOrder(tx, in.Tenant, in.BranchID, in.OrderID)
		if err != nil {
			return err
		}
		if existing != nil {
			invoice = existing
			return nil
		}

		sales, err := s.sales.LockSalesForOrder(tx, in.Tenant, in.BranchID, in.OrderID)
		if err != nil {
			return err
		}
		if len(sales) == 0 {
			return fmt.Errorf("no sales rows for order_id=%s", in.OrderID)
		}

		subtotal := decimal.Zero
		tax := decimal.Zero
		total := decimal.Zero
		for _, sale := range sales {
			subtotal = subtotal.Add(sale.UnitPriceSnapshot.Mul(decimal.NewFromInt(int64(sale.UnitSold))))
			tax = tax.Add(sale.TaxApplied)
			total = total.Add(sale.LineTotal)
		}

		lastNo, err := s.invoices.MaxInvoiceNo(tx, in.BranchID, InvoicePrefix(in.BranchID, now))
		if err != nil {
			return err
		}

		record := models.Invoice{
			Tenant:        in.Tenant,
			BranchID:      in.BranchID,
			InvoiceNo:     NextInvoiceNo(in.BranchID, now, lastNo),
			OrderID:       in.OrderID,
			Currency:      sales[0].Currency,
			PaymentMethod: paymentMethod,
			Subtotal:      subtotal.Round(2),
			Tax:           tax.Round(2),
			Total:         total.Round(2),
			TaxRate:       taxRate,
			CreatedBy:     in.AgentID,
			DateCreated:   now.Unix(),
		}
		record.ID, err = s.invoices.InsertInvoice(tx, record)
		if err != nil {
			return err
		}

		lines := make([]models.InvoiceLine, len(sales))
		for idx, sale := range sales {
			lines[idx] = models.InvoiceLine{
				InvoiceID: record.ID,
				ProductID: sale.ProductID,
				Name:      sale.ProductNameSnapshot,
				SKU:       sale.ProductSKUSnapshot,
				Qty:       sale.UnitSold,
				UnitPrice: sale.UnitPriceSnapshot,
				Tax:       sale.TaxApplied,
				LineTotal: sale.LineTotal,
			}
		}
		if err := s.invoices.InsertLines(tx, lines); err != nil {
			return err
		}

		if err := s.sales.StampReceiptNo(tx, in.Tenant, in.BranchID, in.OrderID, record.InvoiceNo); err != nil {
			return err
		}

		invoice = &record
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("invoice ready",
		zap.String("invoice_no", invoice.InvoiceNo),
		zap.String("order_id", in.OrderID))

	return invoice, nil
}
