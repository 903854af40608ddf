package stock

import (
	"fmt"

	"github.com/Abdullah02020/back/internal/balance"
	"github.com/Abdullah02020/back/internal/ledger"
	"github.com/Abdullah02020/back/internal/repository"
	custom_error "github.com/Abdullah02020/back/pkg/errors"
	"github.com/Abdullah02020/back/pkg/models"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LedgerStore is the append-only movement log the poster writes to.
type LedgerStore interface {
	InsertMovement(tx *goqu.TxDatabase, p ledger.InsertMovementParams) (int, error)
	GetByIdempotencyKey(tx *goqu.TxDatabase, key string) (*models.Movement, error)
	FindByIdempotencyKey(key string) (*models.Movement, error)
}

// BalanceStore locks and adjusts on-hand lots.
type BalanceStore interface {
	LockLots(tx *goqu.TxDatabase, tenant string, productID int, loc models.LocationRef) ([]models.BalanceLot, error)
	CreateLot(tx *goqu.TxDatabase, tenant string, productID int, loc models.LocationRef) (models.BalanceLot, error)
	AddQty(tx *goqu.TxDatabase, lot models.BalanceLot, delta int) (int, error)
	TotalOnHand(tx *goqu.TxDatabase, tenant string, productID int, loc models.LocationRef) (int, error)
}

// Service implements the three stock operations. Each public operation is a
// single transaction ordered as: idempotency check, lock balance lot(s),
// validate sufficiency, apply delta, append ledger row, commit.
type Service struct {
	r        *repository.Repository
	ledger   LedgerStore
	balances BalanceStore
	log      *zap.Logger
	runTx    func(fn func(tx *goqu.TxDatabase) error) error
}

func NewService(r *repository.Repository, ledgerStore LedgerStore, balances BalanceStore, log *zap.Logger) *Service {
	return &Service{
		r:        r,
		ledger:   ledgerStore,
		balances: balances,
		log:      log,
		runTx: func(fn func(tx *goqu.TxDatabase) error) error {
			return repository.WithTransaction(r.GoquDBWrapper, fn)
		},
	}
}

type MoveResult struct {
	MovementID      int    `json:"movement_id"`
	IdempotencyKey  string `json:"idempotency_key"`
	OnHandAfter     int    `json:"onhand_after"`
	WarehouseOnHand *int   `json:"warehouse_onhand,omitempty"`
	BranchOnHand    *int   `json:"branch_onhand,omitempty"`
	Replayed        bool   `json:"replayed,omitempty"`
}

type ReceiveToWarehouseInput struct {
	Tenant         string
	Product        models.Product
	WarehouseID    int
	Qty            int
	AgentID        *int
	IdempotencyKey string
	Notes          string
}

type DispatchToBranchInput struct {
	Tenant         string
	Product        models.Product
	WarehouseID    int
	BranchID       int
	Qty            int
	AgentID        *int
	IdempotencyKey string
	RefType        string
	RefID          string
	Notes          string
}

type ReceiveFromWarehouseInput struct {
	Tenant         string
	Product        models.Product
	BranchID       int
	Qty            int
	AgentID        *int
	IdempotencyKey string
	RefType        string
	RefID          string
	Notes          string
}

// ReceiveToWarehouse increments the warehouse balance and posts an
// INBOUND_RECEIPT. Increase-only, so it never fails on insufficiency.
func (s *Service) ReceiveToWarehouse(in ReceiveToWarehouseInput) (*MoveResult, error) {
	var result *MoveResult
	err := s.runTx(func(tx *goqu.TxDatabase) error {
		var err error
		result, err = s.ReceiveToWarehouseTx(tx, in)
		return err
	})
	if err != nil {
		return s.resolveDuplicate(err, in.IdempotencyKey, in.Tenant, in.Product.ID, models.WarehouseRef(in.WarehouseID))
	}
	return result, nil
}

func (s *Service) ReceiveToWarehouseTx(tx *goqu.TxDatabase, in ReceiveToWarehouseInput) (*MoveResult, error) {
	warehouse := models.WarehouseRef(in.WarehouseID)

	if err := s.validate(in.Tenant, in.Product, in.Qty, nil, &warehouse); err != nil {
		return nil, err
	}

	if replay, err := s.replayed(tx, in.IdempotencyKey, in.Tenant, in.Product.ID, warehouse); err != nil || replay != nil {
		return s.asWarehouseResult(replay), err
	}

	onHand, err := s.increase(tx, in.Tenant, in.Product.ID, warehouse, in.Qty)
	if err != nil {
		return nil, err
	}

	movementID, key, err := s.post(tx, postParams{
		tenant:  in.Tenant,
		product: in.Product,
		typ:     models.MovementInboundReceipt,
		qty:     in.Qty,
		to:      &warehouse,
		key:     in.IdempotencyKey,
		notes:   in.Notes,
		agentID: in.AgentID,
	})
	if err != nil {
		return nil, err
	}

	result := &MoveResult{MovementID: movementID, IdempotencyKey: key, OnHandAfter: onHand}
	result.WarehouseOnHand = &onHand
	return result, nil
}

// DispatchToBranch drains the warehouse balance FIFO and posts a
// DISPATCH_TO_BRANCH. Fails with InsufficientStockError when the warehouse
// total on-hand is short; nothing is applied in that case.
func (s *Service) DispatchToBranch(in DispatchToBranchInput) (*MoveResult, error) {
	var result *MoveResult
	err := s.runTx(func(tx *goqu.TxDatabase) error {
		var err error
		result, err = s.DispatchToBranchTx(tx, in)
		return err
	})
	if err != nil {
		return s.resolveDuplicate(err, in.IdempotencyKey, in.Tenant, in.Product.ID, models.WarehouseRef(in.WarehouseID))
	}
	return result, nil
}

func (s *Service) DispatchToBranchTx(tx *goqu.TxDatabase, in DispatchToBranchInput) (*MoveResult, error) {
	warehouse := models.WarehouseRef(in.WarehouseID)
	branch := models.BranchRef(in.BranchID)

	if err := s.validate(in.Tenant, in.Product, in.Qty, &warehouse, &branch); err != nil {
		return nil, err
	}

	if replay, err := s.replayed(tx, in.IdempotencyKey, in.Tenant, in.Product.ID, warehouse); err != nil || replay != nil {
		return s.asWarehouseResult(replay), err
	}

	onHand, err := s.drain(tx, in.Tenant, in.Product, warehouse, in.Qty)
	if err != nil {
		return nil, err
	}

	movementID, key, err := s.post(tx, postParams{
		tenant:  in.Tenant,
		product: in.Product,
		typ:     models.MovementDispatchToBranch,
		qty:     in.Qty,
		from:    &warehouse,
		to:      &branch,
		key:     in.IdempotencyKey,
		refType: in.RefType,
		refID:   in.RefID,
		notes:   in.Notes,
		agentID: in.AgentID,
	})
	if err != nil {
		return nil, err
	}

	result := &MoveResult{MovementID: movementID, IdempotencyKey: key, OnHandAfter: onHand}
	result.WarehouseOnHand = &onHand
	return result, nil
}

// ReceiveFromWarehouse increments the branch balance and posts a
// RECEIVE_FROM_WAREHOUSE with to=branch.
func (s *Service) ReceiveFromWarehouse(in ReceiveFromWarehouseInput) (*MoveResult, error) {
	var result *MoveResult
	err := s.runTx(func(tx *goqu.TxDatabase) error {
		var err error
		result, err = s.ReceiveFromWarehouseTx(tx, in)
		return err
	})
	if err != nil {
		return s.resolveDuplicate(err, in.IdempotencyKey, in.Tenant, in.Product.ID, models.BranchRef(in.BranchID))
	}
	return result, nil
}

func (s *Service) ReceiveFromWarehouseTx(tx *goqu.TxDatabase, in ReceiveFromWarehouseInput) (*MoveResult, error) {
	branch := models.BranchRef(in.BranchID)

	if err := s.validate(in.Tenant, in.Product, in.Qty, nil, &branch); err != nil {
		return nil, err
	}

	if replay, err := s.replayed(tx, in.IdempotencyKey, in.Tenant, in.Product.ID, branch); err != nil || replay != nil {
		return s.asBranchResult(replay), err
	}

	onHand, err := s.increase(tx, in.Tenant, in.Product.ID, branch, in.Qty)
	if err != nil {
		return nil, err
	}

	movementID, key, err := s.post(tx, postParams{
		tenant:  in.Tenant,
		product: in.Product,
		typ:     models.MovementReceiveFromWarehouse,
		qty:     in.Qty,
		to:      &branch,
		key:     in.IdempotencyKey,
		refType: in.RefType,
		refID:   in.RefID,
		notes:   in.Notes,
		agentID: in.AgentID,
	})
	if err != nil {
		return nil, err
	}

	result := &MoveResult{MovementID: movementID, IdempotencyKey: key, OnHandAfter: onHand}
	result.BranchOnHand = &onHand
	return result, nil
}

type postParams struct {
	tenant  string
	product models.Product
	typ     models.MovementType
	qty     int
	from    *models.LocationRef
	to      *models.LocationRef
	key     string
	refType string
	refID   string
	notes   string
	agentID *int
}

// post appends exactly one POSTED ledger row. The caller has already applied
// the balance effects inside the same transaction.
func (s *Service) post(tx *goqu.TxDatabase, p postParams) (int, string, error) {
	key := p.key
	if key == "" {
		key = uuid.NewString()
	}

	movementID, err := s.ledger.InsertMovement(tx, ledger.InsertMovementParams{
		Tenant:         p.tenant,
		ProductID:      p.product.ID,
		Type:           p.typ,
		Status:         models.MovementPosted,
		From:           p.from,
		To:             p.to,
		Qty:            p.qty,
		IdempotencyKey: key,
		RefType:        p.refType,
		RefID:          p.refID,
		Notes:          p.notes,
		AgentID:        p.agentID,
	})
	if err != nil {
		return 0, "", err
	}

	return movementID, key, nil
}

func (s *Service) validate(tenant string, product models.Product, qty int, from, to *models.LocationRef) error {
	if qty <= 0 {
		return &custom_error.InvalidQuantityError{Qty: qty}
	}
	if from == nil && to == nil {
		return &custom_error.MissingLocationError{}
	}
	if product.Tenant != "" && product.Tenant != tenant {
		return &custom_error.TenantMismatchError{Want: tenant, Got: product.Tenant}
	}
	if from != nil {
		if err := from.Validate(); err != nil {
			return err
		}
	}
	if to != nil {
		if err := to.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// replayed returns the prior movement when the idempotency key was already
// posted. This check runs before any balance mutation, so a retried request
// never applies its delta twice.
func (s *Service) replayed(tx *goqu.TxDatabase, key, tenant string, productID int, loc models.LocationRef) (*MoveResult, error) {
	if key == "" {
		return nil, nil
	}

	movement, err := s.ledger.GetByIdempotencyKey(tx, key)
	if err != nil {
		return nil, err
	}
	if movement == nil {
		return nil, nil
	}

	onHand, err := s.balances.TotalOnHand(tx, tenant, productID, loc)
	if err != nil {
		return nil, err
	}

	s.log.Info("idempotent replay of stock movement",
		zap.String("idempotency_key", key),
		zap.Int("movement_id", movement.ID))

	return &MoveResult{
		MovementID:     movement.ID,
		IdempotencyKey: movement.IdempotencyKey,
		OnHandAfter:    onHand,
		Replayed:       true,
	}, nil
}

// increase tops up the oldest lot for the tuple, creating one lazily when
// the location has never held this product. Returns the location's total
// on-hand after the delta.
func (s *Service) increase(tx *goqu.TxDatabase, tenant string, productID int, loc models.LocationRef, qty int) (int, error) {
	lots, err := s.balances.LockLots(tx, tenant, productID, loc)
	if err != nil {
		return 0, err
	}

	target := models.BalanceLot{}
	if len(lots) == 0 {
		target, err = s.balances.CreateLot(tx, tenant, productID, loc)
		if err != nil {
			return 0, err
		}
	} else {
		target = lots[0]
	}

	if _, err := s.balances.AddQty(tx, target, qty); err != nil {
		return 0, err
	}

	total := qty
	for _, lot := range lots {
		total += lot.Qty
	}
	return total, nil
}

// drain consumes qty from the location's lots in creation order. The total
// sufficiency check runs under the row locks, so it is authoritative.
func (s *Service) drain(tx *goqu.TxDatabase, tenant string, product models.Product, loc models.LocationRef, qty int) (int, error) {
	lots, err := s.balances.LockLots(tx, tenant, product.ID, loc)
	if err != nil {
		return 0, err
	}

	takes, remaining := balance.PlanDrain(lots, qty)
	if remaining > 0 {
		return 0, &custom_error.InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Location:    loc.String(),
			Available:   balance.TotalQty(lots),
			Wanted:      qty,
		}
	}

	for _, take := range takes {
		if _, err := s.balances.AddQty(tx, take.Lot, -take.Qty); err != nil {
			return 0, err
		}
	}

	total := -qty
	for _, lot := range lots {
		total += lot.Qty
	}
	return total, nil
}

// resolveDuplicate turns a lost idempotency-key insert race into the
// winner's result. Two concurrent posts with the same key: exactly one
// creates the row, the other's transaction rolls back on the unique
// violation and re-reads the committed movement here.
func (s *Service) resolveDuplicate(err error, key, tenant string, productID int, loc models.LocationRef) (*MoveResult, error) {
	if key == "" || !custom_error.IsUniqueViolation(err) {
		return nil, err
	}

	movement, findErr := s.ledger.FindByIdempotencyKey(key)
	if findErr != nil || movement == nil {
		return nil, err
	}

	var result *MoveResult
	txErr := s.runTx(func(tx *goqu.TxDatabase) error {
		onHand, totalErr := s.balances.TotalOnHand(tx, tenant, productID, loc)
		if totalErr != nil {
			return totalErr
		}
		result = &MoveResult{
			MovementID:     movement.ID,
			IdempotencyKey: movement.IdempotencyKey,
			OnHandAfter:    onHand,
			Replayed:       true,
		}
		return nil
	})
	if txErr != nil {
		return nil, fmt.Errorf("failed to resolve duplicate idempotency key %s: %w", key, txErr)
	}

	s.log.Info("resolved concurrent duplicate stock movement",
		zap.String("idempotency_key", key),
		zap.Int("movement_id", movement.ID))
	return result, nil
}

func (s *Service) asWarehouseResult(r *MoveResult) *MoveResult {
	if r != nil {
		r.WarehouseOnHand = &r.OnHandAfter
	}
	return r
}

func (s *Service) asBranchResult(r *MoveResult) *MoveResult {
	if r != nil {
		r.BranchOnHand = &r.OnHandAfter
	}
	return r
}
