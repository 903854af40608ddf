package orders

import (
	"testing"
	"time"

	custom_error "github.com/Abdullah02020/back/pkg/errors"
	"github.com/Abdullah02020/back/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockProductDirectory struct {
	mock.Mock
}

func (m *MockProductDirectory) LockActiveProducts(tx *goqu.TxDatabase, tenant string, ids []int) (map[int]models.Product, error) {
	args := m.Called(tx, tenant, ids)
	if products := args.Get(0); products != nil {
		return products.(map[int]models.Product), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockBalanceStore struct {
	mock.Mock
}

func (m *MockBalanceStore) LockLots(tx *goqu.TxDatabase, tenant string, productID int, loc models.LocationRef) ([]models.BalanceLot, error) {
	args := m.Called(tx, tenant, productID, loc)
	if lots := args.Get(0); lots != nil {
		return lots.([]models.BalanceLot), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBalanceStore) AddQty(tx *goqu.TxDatabase, lot models.BalanceLot, delta int) (int, error) {
	args := m.Called(tx, lot, delta)
	return args.Int(0), args.Error(1)
}

func (m *MockBalanceStore) TotalOnHand(tx *goqu.TxDatabase, tenant string, productID int, loc models.LocationRef) (int, error) {
	args := m.Called(tx, tenant, productID, loc)
	return args.Int(0), args.Error(1)
}

func (m *MockBalanceStore) TotalsAtLocation(tx *goqu.TxDatabase, tenant string, productIDs []int, loc models.LocationRef) (map[int]int, error) {
	args := m.Called(tx, tenant, productIDs, loc)
	if totals := args.Get(0); totals != nil {
		return totals.(map[int]int), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockSalesStore struct {
	mock.Mock
}

func (m *MockSalesStore) InsertSale(tx *goqu.TxDatabase, sale models.Sale) (int, error) {
	args := m.Called(tx, sale)
	return args.Int(0), args.Error(1)
}

func newTestService(products *MockProductDirectory, balances *MockBalanceStore, sales *MockSalesStore) *Service {
	return &Service{
		products: products,
		balances: balances,
		sales:    sales,
		log:      zap.NewNop(),
		runTx: func(fn func(tx *goqu.TxDatabase) error) error {
			return fn(nil)
		},
	}
}

func testBranch() models.Branch {
	return models.Branch{ID: 1, Name: "Downtown"}
}

func branchLot(id, productID, qty int) models.BalanceLot {
	return models.BalanceLot{ID: id, Tenant: "Z0", ProductID: productID, LocationKind: models.KindBranch, LocationID: 1, Qty: qty}
}

func price(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func TestNormalizeTaxRate(t *testing.T) {
	assert.True(t, NormalizeTaxRate(price("0.10")).Equal(price("0.10")))
	assert.True(t, NormalizeTaxRate(price("10")).Equal(price("0.10")))
	assert.True(t, NormalizeTaxRate(price("1")).Equal(price("1")))
	assert.True(t, NormalizeTaxRate(decimal.Zero).Equal(decimal.Zero))
}

func TestCaptureOrderTaxRounding(t *testing.T) {
	products := new(MockProductDirectory)
	balances := new(MockBalanceStore)
	sales := new(MockSalesStore)
	service := newTestService(products, balances, sales)

	branchRef := models.BranchRef(1)
	product := models.Product{ID: 42, Tenant: "Z0", Name: "Sourdough Loaf", SKU: "BRD-001", Price: price("9.99"), Status: true}

	products.On("LockActiveProducts", mock.Anything, "Z0", []int{42}).
		Return(map[int]models.Product{42: product}, nil).Once()
	balances.On("TotalsAtLocation", mock.Anything, "Z0", []int{42}, branchRef).
		Return(map[int]int{42: 10}, nil).Once()
	balances.On("LockLots", mock.Anything, "Z0", 42, branchRef).
		Return([]models.BalanceLot{branchLot(1, 42, 10)}, nil).Once()
	balances.On("AddQty", mock.Anything, branchLot(1, 42, 10), -3).Return(7, nil).Once()
	balances.On("TotalOnHand", mock.Anything, "Z0", 42, branchRef).Return(7, nil).Once()
	sales.On("InsertSale", mock.Anything, mock.MatchedBy(func(sale models.Sale) bool {
		return sale.UnitSold == 3 &&
			sale.UnitPriceSnapshot.Equal(price("9.99")) &&
			sale.TaxApplied.Equal(price("3.00")) &&
			sale.LineTotal.Equal(price("32.97")) &&
			sale.ProductSKUSnapshot == "BRD-001" &&
			sale.BranchNameSnapshot == "Downtown"
	})).Return(101, nil).Once()

	result, err := service.CaptureOrder(CaptureOrderInput{
		Tenant:   "Z0",
		Branch:   testBranch(),
		Lines:    []OrderLine{{ProductID: 42, Qty: 3}},
		TaxRate:  price("0.10"),
		Currency: "USD",
	})

	assert.NoError(t, err)
	assert.True(t, result.Subtotal.Equal(price("29.97")), "subtotal %s", result.Subtotal)
	assert.True(t, result.Tax.Equal(price("3.00")), "tax %s", result.Tax)
	assert.True(t, result.Total.Equal(price("32.97")), "total %s", result.Total)
	assert.Len(t, result.Lines, 1)
	assert.Equal(t, 7, result.Lines[0].NewStock)
	assert.Equal(t, 101, result.Lines[0].SaleID)

	sales.AssertExpectations(t)
}

func TestCaptureOrderWholePercentTaxRate(t *testing.T) {
	products := new(MockProductDirectory)
	balances := new(MockBalanceStore)
	sales := new(MockSalesStore)
	service := newTestService(products, balances, sales)

	branchRef := models.BranchRef(1)
	product := models.Product{ID: 42, Tenant: "Z0", Name: "Sourdough Loaf", SKU: "BRD-001", Price: price("5.00"), Status: true}

	products.On("LockActiveProducts", mock.Anything, "Z0", []int{42}).
		Return(map[int]models.Product{42: product}, nil).Once()
	balances.On("TotalsAtLocation", mock.Anything, "Z0", []int{42}, branchRef).
		Return(map[int]int{42: 5}, nil).Once()
	balances.On("LockLots", mock.Anything, "Z0", 42, branchRef).
		Return([]models.BalanceLot{branchLot(1, 42, 5)}, nil).Once()
	balances.On("AddQty", mock.Anything, branchLot(1, 42, 5), -2).Return(3, nil).Once()
	balances.On("TotalOnHand", mock.Anything, "Z0", 42, branchRef).Return(3, nil).Once()
	sales.On("InsertSale", mock.Anything, mock.Anything).Return(102, nil).Once()

	// 15 means 15%, normalized to 0.15.
	result, err := service.CaptureOrder(CaptureOrderInput{
		Tenant:   "Z0",
		Branch:   testBranch(),
		Lines:    []OrderLine{{ProductID: 42, Qty: 2}},
		TaxRate:  price("15"),
		Currency: "USD",
	})

	assert.NoError(t, err)
	assert.True(t, result.Tax.Equal(price("1.50")), "tax %s", result.Tax)
	assert.True(t, result.Total.Equal(price("11.50")), "total %s", result.Total)
}

func TestCaptureOrderFIFOAcrossLots(t *testing.T) {
	products := new(MockProductDirectory)
	balances := new(MockBalanceStore)
	sales := new(MockSalesStore)
	service := newTestService(products, balances, sales)

	branchRef := models.BranchRef(1)
	product := models.Product{ID: 42, Tenant: "Z0", Name: "Sourdough Loaf", SKU: "BRD-001", Price: price("2.00"), Status: true}
	first := branchLot(1, 42, 10)
	second := branchLot(2, 42, 5)

	products.On("LockActiveProducts", mock.Anything, "Z0", []int{42}).
		Return(map[int]models.Product{42: product}, nil).Once()
	balances.On("TotalsAtLocation", mock.Anything, "Z0", []int{42}, branchRef).
		Return(map[int]int{42: 15}, nil).Once()
	balances.On("LockLots", mock.Anything, "Z0", 42, branchRef).
		Return([]models.BalanceLot{first, second}, nil).Once()
	balances.On("AddQty", mock.Anything, first, -10).Return(0, nil).Once()
	balances.On("AddQty", mock.Anything, second, -2).Return(3, nil).Once()
	balances.On("TotalOnHand", mock.Anything, "Z0", 42, branchRef).Return(3, nil).Once()
	sales.On("InsertSale", mock.Anything, mock.Anything).Return(103, nil).Once()

	result, err := service.CaptureOrder(CaptureOrderInput{
		Tenant:   "Z0",
		Branch:   testBranch(),
		Lines:    []OrderLine{{ProductID: 42, Qty: 12}},
		TaxRate:  decimal.Zero,
		Currency: "USD",
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, result.Lines[0].NewStock)
	balances.AssertExpectations(t)
}

func TestCaptureOrderInsufficientStockPreCheck(t *testing.T) {
	products := new(MockProductDirectory)
	balances := new(MockBalanceStore)
	sales := new(MockSalesStore)
	service := newTestService(products, balances, sales)

	branchRef := models.BranchRef(1)
	bread := models.Product{ID: 42, Tenant: "Z0", Name: "Sourdough Loaf", SKU: "BRD-001", Price: price("9.99"), Status: true}
	cake := models.Product{ID: 43, Tenant: "Z0", Name: "Carrot Cake", SKU: "CKE-002", Price: price("19.99"), Status: true}

	products.On("LockActiveProducts", mock.Anything, "Z0", []int{42, 43}).
		Return(map[int]models.Product{42: bread, 43: cake}, nil).Once()
	balances.On("TotalsAtLocation", mock.Anything, "Z0", []int{42, 43}, branchRef).
		Return(map[int]int{42: 10, 43: 1}, nil).Once()

	_, err := service.CaptureOrder(CaptureOrderInput{
		Tenant:   "Z0",
		Branch:   testBranch(),
		Lines:    []OrderLine{{ProductID: 42, Qty: 2}, {ProductID: 43, Qty: 5}},
		TaxRate:  decimal.Zero,
		Currency: "USD",
	})

	var insufficient *custom_error.InsufficientStockError
	assert.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 43, insufficient.ProductID)
	assert.Equal(t, "Carrot Cake", insufficient.ProductName)
	assert.Equal(t, 1, insufficient.Available)
	assert.Equal(t, 5, insufficient.Wanted)

	// The short second line rejects the whole order before any drain: no lot
	// is locked, no delta applied, no sale persisted for either line.
	balances.AssertNotCalled(t, "LockLots", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	balances.AssertNotCalled(t, "AddQty", mock.Anything, mock.Anything, mock.Anything)
	sales.AssertNotCalled(t, "InsertSale", mock.Anything, mock.Anything)
}

func TestCaptureOrderMissingProducts(t *testing.T) {
	products := new(MockProductDirectory)
	balances := new(MockBalanceStore)
	sales := new(MockSalesStore)
	service := newTestService(products, balances, sales)

	products.On("LockActiveProducts", mock.Anything, "Z0", []int{42, 99}).
		Return(nil, &custom_error.ProductNotFoundError{IDs: []int{99}}).Once()

	_, err := service.CaptureOrder(CaptureOrderInput{
		Tenant:   "Z0",
		Branch:   testBranch(),
		Lines:    []OrderLine{{ProductID: 42, Qty: 1}, {ProductID: 99, Qty: 1}},
		TaxRate:  decimal.Zero,
		Currency: "USD",
	})

	var notFound *custom_error.ProductNotFoundError
	assert.ErrorAs(t, err, &notFound)
	assert.Equal(t, []int{99}, notFound.IDs)
	sales.AssertNotCalled(t, "InsertSale", mock.Anything, mock.Anything)
}

func TestCaptureOrderRejectsNonPositiveQty(t *testing.T) {
	service := newTestService(new(MockProductDirectory), new(MockBalanceStore), new(MockSalesStore))

	_, err := service.CaptureOrder(CaptureOrderInput{
		Tenant:  "Z0",
		Branch:  testBranch(),
		Lines:   []OrderLine{{ProductID: 42, Qty: 0}},
		TaxRate: decimal.Zero,
	})

	var invalid *custom_error.InvalidQuantityError
	assert.ErrorAs(t, err, &invalid)
}

func TestNewOrderIDFormat(t *testing.T) {
	id := NewOrderID(time.Unix(1724830000, 0))

	assert.Regexp(t, `^POS-1724830000-[0-9A-F]{6}$`, id)
}
