package models

// MovementType enumerates every inventory-affecting event the ledger can
// record. Quantity is always positive; the type carries the direction.
type MovementType string

const (
	MovementInboundReceipt       MovementType = "INBOUND_RECEIPT"
	MovementDispatchToBranch     MovementType = "DISPATCH_TO_BRANCH"
	MovementReceiveFromWarehouse MovementType = "RECEIVE_FROM_WAREHOUSE"
	MovementReserve              MovementType = "RESERVE"
	MovementUnreserve            MovementType = "UNRESERVE"
	MovementConsumeReservation   MovementType = "CONSUME_RESERVATION"
	MovementAdjustmentIn         MovementType = "ADJUSTMENT_IN"
	MovementAdjustmentOut        MovementType = "ADJUSTMENT_OUT"
	MovementReturnToWarehouse    MovementType = "RETURN_TO_WAREHOUSE"
	MovementReturnToSupplier     MovementType = "RETURN_TO_SUPPLIER"
)

type MovementStatus string

// PENDING and CANCELED are reserved; every operation in this codebase posts
// directly.
const (
	MovementPending  MovementStatus = "PENDING"
	MovementPosted   MovementStatus = "POSTED"
	MovementCanceled MovementStatus = "CANCELED"
)

// Movement is one immutable ledger entry. Once posted it is never mutated.
type Movement struct {
	ID             int            `json:"id" db:"id"`
	Tenant         string         `json:"tenant" db:"tenant"`
	ProductID      int            `json:"product_id" db:"product"`
	Type           MovementType   `json:"movement_type" db:"movement_type"`
	Status         MovementStatus `json:"status" db:"status"`
	FromKind       *LocationKind  `json:"from_kind" db:"from_kind"`
	FromID         *int           `json:"from_id" db:"from_id"`
	ToKind         *LocationKind  `json:"to_kind" db:"to_kind"`
	ToID           *int           `json:"to_id" db:"to_id"`
	Qty            int            `json:"qty" db:"qty"`
	RefType        *string        `json:"ref_type" db:"ref_type"`
	RefID          *string        `json:"ref_id" db:"ref_id"`
	IdempotencyKey string         `json:"idempotency_key" db:"idempotency_key"`
	Notes          *string        `json:"notes" db:"notes"`
	CreatedBy      *int           `json:"created_by" db:"created_by"`
	DateCreated    int64          `json:"date_created" db:"date_created"`
	LastModified   int64          `json:"last_modified" db:"last_modified"`
}

// From returns the source location when the movement has one.
func (m *Movement) From() (LocationRef, bool) {
	if m.FromKind == nil || m.FromID == nil {
		return LocationRef{}, false
	}
	return LocationRef{Kind: *m.FromKind, ID: *m.FromID}, true
}

// To returns the destination location when the movement has one.
func (m *Movement) To() (LocationRef, bool) {
	if m.ToKind == nil || m.ToID == nil {
		return LocationRef{}, false
	}
	return LocationRef{Kind: *m.ToKind, ID: *m.ToID}, true
}
