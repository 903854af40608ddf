package stock

type ReceiveToWarehouseRequest struct {
	Tenant         string `json:"tenant"`
	ProductID      int    `json:"product_id" binding:"required"`
	WarehouseID    int    `json:"warehouse_id"`
	Qty            int    `json:"qty" binding:"required,gte=1"`
	IdempotencyKey string `json:"idempotency_key"`
	Notes          string `json:"notes"`
}

type DispatchToBranchRequest struct {
	Tenant         string `json:"tenant"`
	ProductID      int    `json:"product_id" binding:"required"`
	WarehouseID    int    `json:"warehouse_id"`
	BranchID       int    `json:"branch_id"`
	Qty            int    `json:"qty" binding:"required,gte=1"`
	IdempotencyKey string `json:"idempotency_key"`
	Notes          string `json:"notes"`
}

type ReceiveFromWarehouseRequest struct {
	Tenant         string `json:"tenant"`
	ProductID      int    `json:"product_id" binding:"required"`
	BranchID       int    `json:"branch_id"`
	Qty            int    `json:"qty" binding:"required,gte=1"`
	IdempotencyKey string `json:"idempotency_key"`
	Notes          string `json:"notes"`
}
