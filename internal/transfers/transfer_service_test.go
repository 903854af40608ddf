package transfers

import (
	"testing"

	"github.com/Abdullah02020/back/internal/stock"
	custom_error "github.com/Abdullah02020/back/pkg/errors"
	"github.com/Abdullah02020/back/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type MockStockOperations struct {
	mock.Mock
}

func (m *MockStockOperations) DispatchToBranchTx(tx *goqu.TxDatabase, in stock.DispatchToBranchInput) (*stock.MoveResult, error) {
	args := m.Called(tx, in)
	if result := args.Get(0); result != nil {
		return result.(*stock.MoveResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockStockOperations) ReceiveFromWarehouseTx(tx *goqu.TxDatabase, in stock.ReceiveFromWarehouseInput) (*stock.MoveResult, error) {
	args := m.Called(tx, in)
	if result := args.Get(0); result != nil {
		return result.(*stock.MoveResult), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockTransferRecords struct {
	mock.Mock
}

func (m *MockTransferRecords) InsertTransferRecord(tx *goqu.TxDatabase, transfer models.Transfer) (int, error) {
	args := m.Called(tx, transfer)
	return args.Int(0), args.Error(1)
}

func (m *MockTransferRecords) GetTransferRow(transferID string) (*models.TransferView, error) {
	args := m.Called(transferID)
	if view := args.Get(0); view != nil {
		return view.(*models.TransferView), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockTransferRecords) ListTransfers(filter ListFilter) ([]models.TransferView, int64, error) {
	args := m.Called(filter)
	if views := args.Get(0); views != nil {
		return views.([]models.TransferView), args.Get(1).(int64), args.Error(2)
	}
	return nil, args.Get(1).(int64), args.Error(2)
}

func newTestService(stockOps *MockStockOperations, records *MockTransferRecords) *Service {
	return &Service{
		stock:   stockOps,
		records: records,
		log:     zap.NewNop(),
		runTx: func(fn func(tx *goqu.TxDatabase) error) error {
			return fn(nil)
		},
	}
}

func testProduct() models.Product {
	return models.Product{ID: 42, Tenant: "Z0", Name: "Sourdough Loaf", SKU: "BRD-001"}
}

func TestMovementKeysDeterministicAndDistinct(t *testing.T) {
	transferID := uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2")

	out1, in1 := MovementKeys(transferID)
	out2, in2 := MovementKeys(transferID)

	assert.Equal(t, out1, out2)
	assert.Equal(t, in1, in2)
	assert.NotEqual(t, out1, in1)

	otherOut, _ := MovementKeys(uuid.New())
	assert.NotEqual(t, out1, otherOut)
}

func TestCreateTransferComposesBothMovements(t *testing.T) {
	stockOps := new(MockStockOperations)
	records := new(MockTransferRecords)
	service := newTestService(stockOps, records)

	stockOps.On("DispatchToBranchTx", mock.Anything, mock.MatchedBy(func(in stock.DispatchToBranchInput) bool {
		return in.Qty == 5 && in.IdempotencyKey != "" && in.RefType == "transfer"
	})).Return(&stock.MoveResult{MovementID: 10, OnHandAfter: 95}, nil).Once()
	stockOps.On("ReceiveFromWarehouseTx", mock.Anything, mock.MatchedBy(func(in stock.ReceiveFromWarehouseInput) bool {
		return in.Qty == 5 && in.IdempotencyKey != "" && in.RefType == "transfer"
	})).Return(&stock.MoveResult{MovementID: 11, OnHandAfter: 5}, nil).Once()
	records.On("InsertTransferRecord", mock.Anything, mock.MatchedBy(func(transfer models.Transfer) bool {
		return transfer.DispatchMovementID == 10 &&
			transfer.ReceiveMovementID == 11 &&
			transfer.Status == "POSTED" &&
			transfer.TransferID != ""
	})).Return(1, nil).Once()

	result, err := service.CreateTransfer(CreateTransferInput{
		Tenant:      "Z0",
		Product:     testProduct(),
		WarehouseID: 1,
		BranchID:    2,
		Qty:         5,
	})

	assert.NoError(t, err)
	assert.NotEmpty(t, result.TransferID)
	assert.Equal(t, 95, result.WarehouseOnHand)
	assert.Equal(t, 5, result.BranchOnHand)

	stockOps.AssertExpectations(t)
	records.AssertExpectations(t)
}

func TestCreateTransferDerivesDistinctMovementKeys(t *testing.T) {
	stockOps := new(MockStockOperations)
	records := new(MockTransferRecords)
	service := newTestService(stockOps, records)

	var outKey, inKey string
	stockOps.On("DispatchToBranchTx", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			outKey = args.Get(1).(stock.DispatchToBranchInput).IdempotencyKey
		}).
		Return(&stock.MoveResult{MovementID: 10, OnHandAfter: 95}, nil).Once()
	stockOps.On("ReceiveFromWarehouseTx", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			inKey = args.Get(1).(stock.ReceiveFromWarehouseInput).IdempotencyKey
		}).
		Return(&stock.MoveResult{MovementID: 11, OnHandAfter: 5}, nil).Once()
	records.On("InsertTransferRecord", mock.Anything, mock.Anything).Return(1, nil).Once()

	result, err := service.CreateTransfer(CreateTransferInput{
		Tenant:      "Z0",
		Product:     testProduct(),
		WarehouseID: 1,
		BranchID:    2,
		Qty:         5,
	})

	assert.NoError(t, err)

	wantOut, wantIn := MovementKeys(uuid.MustParse(result.TransferID))
	assert.Equal(t, wantOut, outKey)
	assert.Equal(t, wantIn, inKey)
	assert.NotEqual(t, outKey, inKey)
}

func TestCreateTransferAbortsOnInsufficientStock(t *testing.T) {
	stockOps := new(MockStockOperations)
	records := new(MockTransferRecords)
	service := newTestService(stockOps, records)

	stockOps.On("DispatchToBranchTx", mock.Anything, mock.Anything).
		Return(nil, &custom_error.InsufficientStockError{ProductID: 42, Available: 2, Wanted: 5}).Once()

	_, err := service.CreateTransfer(CreateTransferInput{
		Tenant:      "Z0",
		Product:     testProduct(),
		WarehouseID: 1,
		BranchID:    2,
		Qty:         5,
	})

	var insufficient *custom_error.InsufficientStockError
	assert.ErrorAs(t, err, &insufficient)

	// A failed dispatch must leave no receive movement and no transfer record.
	stockOps.AssertNotCalled(t, "ReceiveFromWarehouseTx", mock.Anything, mock.Anything)
	records.AssertNotCalled(t, "InsertTransferRecord", mock.Anything, mock.Anything)
}

func TestCreateTransferAbortsWhenRecordInsertFails(t *testing.T) {
	stockOps := new(MockStockOperations)
	records := new(MockTransferRecords)
	service := newTestService(stockOps, records)

	stockOps.On("DispatchToBranchTx", mock.Anything, mock.Anything).
		Return(&stock.MoveResult{MovementID: 10, OnHandAfter: 95}, nil).Once()
	stockOps.On("ReceiveFromWarehouseTx", mock.Anything, mock.Anything).
		Return(&stock.MoveResult{MovementID: 11, OnHandAfter: 5}, nil).Once()
	records.On("InsertTransferRecord", mock.Anything, mock.Anything).
		Return(0, assert.AnError).Once()

	_, err := service.CreateTransfer(CreateTransferInput{
		Tenant:      "Z0",
		Product:     testProduct(),
		WarehouseID: 1,
		BranchID:    2,
		Qty:         5,
	})

	assert.Error(t, err)
}
