package orders

import (
	"fmt"
	"strings"
	"time"

	"github.com/Abdullah02020/back/internal/balance"
	"github.com/Abdullah02020/back/internal/repository"
	custom_error "github.com/Abdullah02020/back/pkg/errors"
	"github.com/Abdullah02020/back/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductDirectory locks and loads the ordered products.
type ProductDirectory interface {
	LockActiveProducts(tx *goqu.TxDatabase, tenant string, ids []int) (map[int]models.Product, error)
}

// BalanceStore is the slice of the balance store order capture consumes.
type BalanceStore interface {
	LockLots(tx *goqu.TxDatabase, tenant string, productID int, loc models.LocationRef) ([]models.BalanceLot, error)
	AddQty(tx *goqu.TxDatabase, lot models.BalanceLot, delta int) (int, error)
	TotalOnHand(tx *goqu.TxDatabase, tenant string, productID int, loc models.LocationRef) (int, error)
	TotalsAtLocation(tx *goqu.TxDatabase, tenant string, productIDs []int, loc models.LocationRef) (map[int]int, error)
}

// SalesStore persists the immutable sale lines.
type SalesStore interface {
	InsertSale(tx *goqu.TxDatabase, sale models.Sale) (int, error)
}

// Service captures multi-line orders against one branch: verify stock,
// drain lots FIFO, snapshot sale lines. Everything happens in a single
// transaction; any failure aborts the whole order.
type Service struct {
	r        *repository.Repository
	products ProductDirectory
	balances BalanceStore
	sales    SalesStore
	log      *zap.Logger
	runTx    func(fn func(tx *goqu.TxDatabase) error) error
}

func NewService(r *repository.Repository, products ProductDirectory, balances BalanceStore, sales SalesStore, log *zap.Logger) *Service {
	return &Service{
		r:        r,
		products: products,
		balances: balances,
		sales:    sales,
		log:      log,
		runTx: func(fn func(tx *goqu.TxDatabase) error) error {
			return repository.WithTransaction(r.GoquDBWrapper, fn)
		},
	}
}

type OrderLine struct {
	ProductID int
	Qty       int
}

type CaptureOrderInput struct {
	Tenant   string
	Branch   models.Branch
	Lines    []OrderLine
	TaxRate  decimal.Decimal
	Currency string
	AgentID  *int
}

type CapturedLine struct {
	ProductID int             `json:"product_id"`
	Name      string          `json:"name"`
	Qty       int             `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Tax       decimal.Decimal `json:"tax"`
	LineTotal decimal.Decimal `json:"line_total"`
	NewStock  int             `json:"new_stock"`
	SaleID    int             `json:"sale_id"`
}

type OrderResult struct {
	OrderID   string          `json:"order_id"`
	Currency  string          `json:"currency"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt int64           `json:"created_at"`
	Lines     []CapturedLine  `json:"lines"`
}

// NormalizeTaxRate interprets values above 1 as whole percentages.
func NormalizeTaxRate(rate decimal.Decimal) decimal.Decimal {
	if rate.GreaterThan(decimal.NewFromInt(1)) {
		return rate.Div(decimal.NewFromInt(100))
	}
	return rate
}

// NewOrderID builds an order id like POS-1724830000-3FA2B1.
func NewOrderID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("POS-%d-%s", now.Unix(), suffix)
}

// CaptureOrder atomically verifies and consumes branch stock for every line,
// producing one sale record per line. No partial fulfillment: a missing
// product or a short balance anywhere aborts the entire order.
func (s *Service) CaptureOrder(in CaptureOrderInput) (*OrderResult, error) {
	if len(in.Lines) == 0 {
		return nil, fmt.Errorf("order has no lines")
	}
	for _, line := range in.Lines {
		if line.Qty <= 0 {
			return nil, &custom_error.InvalidQuantityError{Qty: line.Qty}
		}
	}

	taxRate := NormalizeTaxRate(in.TaxRate)
	branchRef := models.BranchRef(in.Branch.ID)
	now := time.Now()
	orderID := NewOrderID(now)

	productIDs := make([]int, len(in.Lines))
	for i, line := range in.Lines {
		productIDs[i] = line.ProductID
	}

	var result *OrderResult
	err := s.runTx(func(tx *goqu.TxDatabase) error {
		products, err := s.products.LockActiveProducts(tx, in.Tenant, productIDs)
		if err != nil {
			return err
		}

		// Side-effect-free rejection before any lot is touched. The per-lot
		// drain below re-checks under lock and stays authoritative.
		totals, err := s.balances.TotalsAtLocation(tx, in.Tenant, productIDs, branchRef)
		if err != nil {
			return err
		}
		for _, line := range in.Lines {
			if available := totals[line.ProductID]; available < line.Qty {
				product := products[line.ProductID]
				return &custom_error.InsufficientStockError{
					ProductID:   product.ID,
					ProductName: product.Name,
					Location:    branchRef.String(),
					Available:   available,
					Wanted:      line.Qty,
				}
			}
		}

		subtotal := decimal.Zero
		lines := make([]CapturedLine, 0, len(in.Lines))

		for _, line := range in.Lines {
			product := products[line.ProductID]

			newStock, err := s.consumeLine(tx, in.Tenant, product, branchRef, line.Qty)
			if err != nil {
				return err
			}

			unitPrice := product.Price
			lineSubtotal := unitPrice.Mul(decimal.NewFromInt(int64(line.Qty)))
			lineTax := lineSubtotal.Mul(taxRate).Round(2)
			lineTotal := lineSubtotal.Add(lineTax).Round(2)

			saleID, err := s.sales.InsertSale(tx, models.Sale{
				Tenant:              in.Tenant,
				BranchID:            in.Branch.ID,
				ProductID:           product.ID,
				UnitSold:            line.Qty,
				UnitPriceSnapshot:   unitPrice,
				DiscountApplied:     decimal.Zero,
				TaxApplied:          lineTax,
				LineTotal:           lineTotal,
				Currency:            in.Currency,
				OrderID:             orderID,
				ProductSKUSnapshot:  product.SKU,
				ProductNameSnapshot: product.Name,
				BranchNameSnapshot:  in.Branch.Name,
				CreatedBy:           in.AgentID,
			})
			if err != nil {
				return err
			}

			lines = append(lines, CapturedLine{
				ProductID: product.ID,
				Name:      product.Name,
				Qty:       line.Qty,
				UnitPrice: unitPrice,
				Tax:       lineTax,
				LineTotal: lineTotal,
				NewStock:  newStock,
				SaleID:    saleID,
			})
			subtotal = subtotal.Add(lineSubtotal)
		}

		tax := subtotal.Mul(taxRate).Round(2)
		total := subtotal.Add(tax).Round(2)

		result = &OrderResult{
			OrderID:   orderID,
			Currency:  in.Currency,
			Subtotal:  subtotal.Round(2),
			Tax:       tax,
			Total:     total,
			CreatedAt: now.Unix(),
			Lines:     lines,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order captured",
		zap.String("order_id", orderID),
		zap.String("tenant", in.Tenant),
		zap.Int("branch_id", in.Branch.ID),
		zap.Int("lines", len(result.Lines)))

	return result, nil
}

// consumeLine drains the branch's lots for one product in creation order and
// returns the branch total after the drain.
func (s *Service) consumeLine(tx *goqu.TxDatabase, tenant string, product models.Product, branchRef models.LocationRef, qty int) (int, error) {
	lots, err := s.balances.LockLots(tx, tenant, product.ID, branchRef)
	if err != nil {
		return 0, err
	}

	takes, remaining := balance.PlanDrain(lots, qty)
	if remaining > 0 {
		return 0, &custom_error.InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Location:    branchRef.String(),
			Available:   balance.TotalQty(lots),
			Wanted:      qty,
		}
	}

	for _, take := range takes {
		if _, err := s.balances.AddQty(tx, take.Lot, -take.Qty); err != nil {
			return 0, err
		}
	}

	newStock, err := s.balances.TotalOnHand(tx, tenant, product.ID, branchRef)
	if err != nil {
		return 0, err
	}
	return newStock, nil
}
