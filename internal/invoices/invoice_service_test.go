package invoices

import (
	"testing"
	"time"

	"github.com/Abdullah02020/back/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockSalesStore struct {
	mock.Mock
}

func (m *MockSalesStore) LockSalesForOrder(tx *goqu.TxDatabase, tenant string, branchID int, orderID string) ([]models.Sale, error) {
	args := m.Called(tx, tenant, branchID, orderID)
	if sales := args.Get(0); sales != nil {
		return sales.([]models.Sale), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockSalesStore) StampReceiptNo(tx *goqu.TxDatabase, tenant string, branchID int, orderID, receiptNo string) error {
	args := m.Called(tx, tenant, branchID, orderID, receiptNo)
	return args.Error(0)
}

type MockInvoiceStore struct {
	mock.Mock
}

func (m *MockInvoiceStore) GetByOrder(tx *goqu.TxDatabase, tenant string, branchID int, orderID string) (*models.Invoice, error) {
	args := m.Called(tx, tenant, branchID, orderID)
	if invoice := args.Get(0); invoice != nil {
		return invoice.(*models.Invoice), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockInvoiceStore) MaxInvoiceNo(tx *goqu.TxDatabase, branchID int, prefix string) (string, error) {
	args := m.Called(tx, branchID, prefix)
	return args.String(0), args.Error(1)
}

func (m *MockInvoiceStore) InsertInvoice(tx *goqu.TxDatabase, invoice models.Invoice) (int, error) {
	args := m.Called(tx, invoice)
	return args.Int(0), args.Error(1)
}

func (m *MockInvoiceStore) InsertLines(tx *goqu.TxDatabase, lines []models.InvoiceLine) error {
	args := m.Called(tx, lines)
	return args.Error(0)
}

func newTestService(sales *MockSalesStore, invoices *MockInvoiceStore) *Service {
	return &Service{
		sales:    sales,
		invoices: invoices,
		log:      zap.NewNop(),
		runTx: func(fn func(tx *goqu.TxDatabase) error) error {
			return fn(nil)
		},
	}
}

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNextInvoiceNo(t *testing.T) {
	day := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, "INV-1-20260828-0001", NextInvoiceNo(1, day, ""))
	assert.Equal(t, "INV-1-20260828-0002", NextInvoiceNo(1, day, "INV-1-20260828-0001"))
	assert.Equal(t, "INV-1-20260828-0100", NextInvoiceNo(1, day, "INV-1-20260828-0099"))
	assert.Equal(t, "INV-7-20260828-0001", NextInvoiceNo(7, day, ""))
}

func TestCreateForOrderSumsSnapshots(t *testing.T) {
	sales := new(MockSalesStore)
	invoices := new(MockInvoiceStore)
	service := newTestService(sales, invoices)

	rows := []models.Sale{
		{
			ProductID:           42,
			UnitSold:            3,
			UnitPriceSnapshot:   money("9.99"),
			TaxApplied:          money("3.00"),
			LineTotal:           money("32.97"),
			Currency:            "USD",
			ProductNameSnapshot: "Sourdough Loaf",
			ProductSKUSnapshot:  "BRD-001",
		},
		{
			ProductID:           43,
			UnitSold:            1,
			UnitPriceSnapshot:   money("19.99"),
			TaxApplied:          money("2.00"),
			LineTotal:           money("21.99"),
			Currency:            "USD",
			ProductNameSnapshot: "Carrot Cake",
			ProductSKUSnapshot:  "CKE-002",
		},
	}

	invoices.On("GetByOrder", mock.Anything, "Z0", 1, "POS-1-ABCDEF").Return(nil, nil).Once()
	sales.On("LockSalesForOrder", mock.Anything, "Z0", 1, "POS-1-ABCDEF").Return(rows, nil).Once()
	invoices.On("MaxInvoiceNo", mock.Anything, 1, mock.Anything).Return("", nil).Once()
	invoices.On("InsertInvoice", mock.Anything, mock.MatchedBy(func(invoice models.Invoice) bool {
		return invoice.Subtotal.Equal(money("49.96")) &&
			invoice.Tax.Equal(money("5.00")) &&
			invoice.Total.Equal(money("54.96")) &&
			invoice.Currency == "USD" &&
			invoice.PaymentMethod == "cash"
	})).Return(5, nil).Once()
	invoices.On("InsertLines", mock.Anything, mock.MatchedBy(func(lines []models.InvoiceLine) bool {
		return len(lines) == 2 && lines[0].InvoiceID == 5 && lines[0].SKU == "BRD-001"
	})).Return(nil).Once()
	sales.On("StampReceiptNo", mock.Anything, "Z0", 1, "POS-1-ABCDEF", mock.Anything).Return(nil).Once()

	invoice, err := service.CreateForOrder(CreateForOrderInput{
		Tenant:   "Z0",
		BranchID: 1,
		OrderID:  "POS-1-ABCDEF",
	})

	assert.NoError(t, err)
	assert.Equal(t, 5, invoice.ID)
	assert.Regexp(t, `^INV-1-\d{8}-0001$`, invoice.InvoiceNo)

	sales.AssertExpectations(t)
	invoices.AssertExpectations(t)
}

func TestCreateForOrderIdempotent(t *testing.T) {
	sales := new(MockSalesStore)
	invoices := new(MockInvoiceStore)
	service := newTestService(sales, invoices)

	existing := &models.Invoice{ID: 5, InvoiceNo: "INV-1-20260828-0001", OrderID: "POS-1-ABCDEF"}
	invoices.On("GetByOrder", mock.Anything, "Z0", 1, "POS-1-ABCDEF").Return(existing, nil).Once()

	invoice, err := service.CreateForOrder(CreateForOrderInput{
		Tenant:   "Z0",
		BranchID: 1,
		OrderID:  "POS-1-ABCDEF",
	})

	assert.NoError(t, err)
	assert.Equal(t, existing.InvoiceNo, invoice.InvoiceNo)

	invoices.AssertNotCalled(t, "InsertInvoice", mock.Anything, mock.Anything)
	sales.AssertNotCalled(t, "StampReceiptNo", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCreateForOrderNoSales(t *testing.T) {
	sales := new(MockSalesStore)
	invoices := new(MockInvoiceStore)
	service := newTestService(sales, invoices)

	invoices.On("GetByOrder", mock.Anything, "Z0", 1, "POS-MISSING").Return(nil, nil).Once()
	sales.On("LockSalesForOrder", mock.Anything, "Z0", 1, "POS-MISSING").Return([]models.Sale{}, nil).Once()

	_, err := service.CreateForOrder(CreateForOrderInput{
		Tenant:   "Z0",
		BranchID: 1,
		OrderID:  "POS-MISSING",
	})

	assert.Error(t, err)
	invoices.AssertNotCalled(t, "InsertInvoice", mock.Anything, mock.Anything)
}
