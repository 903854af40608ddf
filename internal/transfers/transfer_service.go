package transfers

import (
	"fmt"
	"time"

	"github.com/Abdullah02020/back/internal/repository"
	"github.com/Abdullah02020/back/internal/stock"
	"github.com/Abdullah02020/back/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StockOperations are the tx-scoped movement operations the orchestrator
// composes. Both run inside the orchestrator's transaction so a failure in
// either rolls back everything.
type StockOperations interface {
	DispatchToBranchTx(tx *goqu.TxDatabase, in stock.DispatchToBranchInput) (*stock.MoveResult, error)
	ReceiveFromWarehouseTx(tx *goqu.TxDatabase, in stock.ReceiveFromWarehouseInput) (*stock.MoveResult, error)
}

// TransferRecords persists the correlation record.
type TransferRecords interface {
	InsertTransferRecord(tx *goqu.TxDatabase, transfer models.Transfer) (int, error)
	GetTransferRow(transferID string) (*models.TransferView, error)
	ListTransfers(filter ListFilter) ([]models.TransferView, int64, error)
}

// Service composes dispatch + branch-receive into one logical transfer under
// a shared correlation id. Transfers are never partially applied: either
// both movements and the record exist, or none do.
type Service struct {
	r       *repository.Repository
	stock   StockOperations
	records TransferRecords
	log     *zap.Logger
	runTx   func(fn func(tx *goqu.TxDatabase) error) error
}

func NewService(r *repository.Repository, stockOps StockOperations, records TransferRecords, log *zap.Logger) *Service {
	return &Service{
		r:       r,
		stock:   stockOps,
		records: records,
		log:     log,
		runTx: func(fn func(tx *goqu.TxDatabase) error) error {
			return repository.WithTransaction(r.GoquDBWrapper, fn)
		},
	}
}

type CreateTransferInput struct {
	Tenant      string
	Product     models.Product
	WarehouseID int
	BranchID    int
	Qty         int
	AgentID     *int
}

type TransferResult struct {
	TransferID      string `json:"transfer_id"`
	ProductID       int    `json:"product_id"`
	WarehouseID     int    `json:"warehouse_id"`
	BranchID        int    `json:"branch_id"`
	Qty             int    `json:"qty"`
	WarehouseOnHand int    `json:"warehouse_onhand"`
	BranchOnHand    int    `json:"branch_onhand"`
	CreatedAt       int64  `json:"created_at"`
}

// MovementKeys derives the two movement idempotency keys from the transfer
// id, so retrying a whole transfer replays both movements instead of
// double-applying them.
func MovementKeys(transferID uuid.UUID) (outbound, inbound string) {
	return uuid.NewSHA1(transferID, []byte("OUT")).String(),
		uuid.NewSHA1(transferID, []byte("IN")).String()
}

func (s *Service) CreateTransfer(in CreateTransferInput) (*TransferResult, error) {
	transferID := uuid.New()
	keyOut, keyIn := MovementKeys(transferID)
	now := time.Now().Unix()

	var result *TransferResult
	err := s.runTx(func(tx *goqu.TxDatabase) error {
		dispatch, err := s.stock.DispatchToBranchTx(tx, stock.DispatchToBranchInput{
			Tenant:         in.Tenant,
			Product:        in.Product,
			WarehouseID:    in.WarehouseID,
			BranchID:       in.BranchID,
			Qty:            in.Qty,
			AgentID:        in.AgentID,
			IdempotencyKey: keyOut,
			RefType:        "transfer",
			RefID:          transferID.String(),
		})
		if err != nil {
			return err
		}

		receive, err := s.stock.ReceiveFromWarehouseTx(tx, stock.ReceiveFromWarehouseInput{
			Tenant:         in.Tenant,
			Product:        in.Product,
			BranchID:       in.BranchID,
			Qty:            in.Qty,
			AgentID:        in.AgentID,
			IdempotencyKey: keyIn,
			RefType:        "transfer",
			RefID:          transferID.String(),
		})
		if err != nil {
			return err
		}

		if _, err := s.records.InsertTransferRecord(tx, models.Transfer{
			TransferID:         transferID.String(),
			Tenant:             in.Tenant,
			ProductID:          in.Product.ID,
			WarehouseID:        in.WarehouseID,
			BranchID:           in.BranchID,
			Qty:                in.Qty,
			Status:             "POSTED",
			DispatchMovementID: dispatch.MovementID,
			ReceiveMovementID:  receive.MovementID,
			CreatedBy:          in.AgentID,
			DateCreated:        now,
		}); err != nil {
			return fmt.Errorf("failed to record transfer %s: %w", transferID, err)
		}

		result = &TransferResult{
			TransferID:      transferID.String(),
			ProductID:       in.Product.ID,
			WarehouseID:     in.WarehouseID,
			BranchID:        in.BranchID,
			Qty:             in.Qty,
			WarehouseOnHand: dispatch.OnHandAfter,
			BranchOnHand:    receive.OnHandAfter,
			CreatedAt:       now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("transfer created",
		zap.String("transfer_id", result.TransferID),
		zap.Int("product_id", in.Product.ID),
		zap.Int("qty", in.Qty))

	return result, nil
}

func (s *Service) GetTransfer(transferID string) (*models.TransferView, error) {
	return s.records.GetTransferRow(transferID)
}

func (s *Service) ListTransfers(filter ListFilter) ([]models.TransferView, int64, error) {
	return s.records.ListTransfers(filter)
}
