package models

// Transfer correlates one dispatch movement and one receive movement as a
// single logical warehouse-to-branch action. The record exists only when
// both constituent movements succeeded in the same transaction.
type Transfer struct {
	ID                 int    `json:"-" db:"id"`
	TransferID         string `json:"transfer_id" db:"transfer_id"`
	Tenant             string `json:"tenant" db:"tenant"`
	ProductID          int    `json:"product_id" db:"product"`
	WarehouseID        int    `json:"warehouse_id" db:"warehouse"`
	BranchID           int    `json:"branch_id" db:"branch"`
	Qty                int    `json:"qty" db:"qty"`
	Status             string `json:"status" db:"status"`
	DispatchMovementID int    `json:"dispatch_movement_id" db:"dispatch_movement_id"`
	ReceiveMovementID  int    `json:"receive_movement_id" db:"receive_movement_id"`
	CreatedBy          *int   `json:"created_by" db:"created_by"`
	DateCreated        int64  `json:"created_at" db:"date_created"`
}

// TransferView is the listing shape with resolved display names.
type TransferView struct {
	TransferID    string `json:"transfer_id" db:"transfer_id"`
	ProductID     int    `json:"product_id" db:"product_id"`
	ProductName   string `json:"product_name" db:"product_name"`
	WarehouseID   int    `json:"warehouse_id" db:"warehouse_id"`
	WarehouseName string `json:"warehouse_name" db:"warehouse_name"`
	BranchID      int    `json:"branch_id" db:"branch_id"`
	BranchName    string `json:"branch_name" db:"branch_name"`
	Qty           int    `json:"qty" db:"qty"`
	Status        string `json:"status" db:"status"`
	CreatedBy     *string `json:"created_by" db:"created_by"`
	CreatedAt     int64  `json:"created_at" db:"created_at"`
}
