package stock

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Abdullah02020/back/internal/config"
	"github.com/Abdullah02020/back/internal/directory"
	"github.com/Abdullah02020/back/internal/ledger"
	custom_error "github.com/Abdullah02020/back/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service   *Service
	directory *directory.Repository
	ledger    *ledger.Repository
	defaults  config.Defaults
	log       *zap.Logger
}

func RegisterRoutes(router *gin.Engine, service *Service, dir *directory.Repository, ledgerRepo *ledger.Repository, defaults config.Defaults, log *zap.Logger) {
	handler := Handler{
		service:   service,
		directory: dir,
		ledger:    ledgerRepo,
		defaults:  defaults,
		log:       log,
	}

	router.POST("/api/stock/receive-warehouse", handler.ReceiveToWarehouse)
	router.POST("/api/stock/dispatch-branch", handler.DispatchToBranch)
	router.POST("/api/stock/receive-from-warehouse", handler.ReceiveFromWarehouse)
	router.GET("/api/stock/movements", handler.ListMovements)
}

func (h *Handler) ReceiveToWarehouse(c *gin.Context) {
	var req ReceiveToWarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	tenant := h.tenantOrDefault(req.Tenant)
	product, err := h.directory.GetActiveProduct(tenant, req.ProductID)
	if err != nil {
		h.renderError(c, err)
		return
	}

	warehouseID := req.WarehouseID
	if warehouseID == 0 {
		warehouse, err := h.directory.FirstWarehouse()
		if err != nil {
			h.renderError(c, err)
			return
		}
		warehouseID = warehouse.ID
	}

	result, err := h.service.ReceiveToWarehouse(ReceiveToWarehouseInput{
		Tenant:         tenant,
		Product:        *product,
		WarehouseID:    warehouseID,
		Qty:            req.Qty,
		AgentID:        h.agentID(c),
		IdempotencyKey: req.IdempotencyKey,
		Notes:          req.Notes,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *Handler) DispatchToBranch(c *gin.Context) {
	var req DispatchToBranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	tenant := h.tenantOrDefault(req.Tenant)
	product, err := h.directory.GetActiveProduct(tenant, req.ProductID)
	if err != nil {
		h.renderError(c, err)
		return
	}

	branchID := req.BranchID
	if branchID == 0 {
		branchID = h.defaults.BranchID
	}
	if _, err := h.directory.GetBranch(branchID); err != nil {
		h.renderError(c, err)
		return
	}

	warehouseID := req.WarehouseID
	if warehouseID == 0 {
		warehouse, err := h.directory.FirstWarehouse()
		if err != nil {
			h.renderError(c, err)
			return
		}
		warehouseID = warehouse.ID
	}

	result, err := h.service.DispatchToBranch(DispatchToBranchInput{
		Tenant:         tenant,
		Product:        *product,
		WarehouseID:    warehouseID,
		BranchID:       branchID,
		Qty:            req.Qty,
		AgentID:        h.agentID(c),
		IdempotencyKey: req.IdempotencyKey,
		Notes:          req.Notes,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *Handler) ReceiveFromWarehouse(c *gin.Context) {
	var req ReceiveFromWarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	tenant := h.tenantOrDefault(req.Tenant)
	product, err := h.directory.GetActiveProduct(tenant, req.ProductID)
	if err != nil {
		h.renderError(c, err)
		return
	}

	branchID := req.BranchID
	if branchID == 0 {
		branchID = h.defaults.BranchID
	}
	if _, err := h.directory.GetBranch(branchID); err != nil {
		h.renderError(c, err)
		return
	}

	result, err := h.service.ReceiveFromWarehouse(ReceiveFromWarehouseInput{
		Tenant:         tenant,
		Product:        *product,
		BranchID:       branchID,
		Qty:            req.Qty,
		AgentID:        h.agentID(c),
		IdempotencyKey: req.IdempotencyKey,
		Notes:          req.Notes,
	})
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// ListMovements returns the tenant's most recent ledger rows.
// GET /api/stock/movements?tenant=Z0&product_id=42&limit=50
func (h *Handler) ListMovements(c *gin.Context) {
	tenant := h.tenantOrDefault(c.Query("tenant"))

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	productID := 0
	if raw := c.Query("product_id"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "product_id must be an integer"})
			return
		}
		productID = parsed
	}

	movements, err := h.ledger.ListMovements(tenant, productID, uint(limit))
	if err != nil {
		h.log.Error("failed to list stock movements", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unable to list movements"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"rows": movements})
}

func (h *Handler) tenantOrDefault(tenant string) string {
	if tenant == "" {
		return h.defaults.TenantID
	}
	return tenant
}

func (h *Handler) agentID(c *gin.Context) *int {
	if v, exists := c.Get("agentID"); exists {
		if id, ok := v.(int); ok {
			return &id
		}
	}
	if h.defaults.AgentID != 0 {
		id := h.defaults.AgentID
		return &id
	}
	return nil
}

func (h *Handler) renderError(c *gin.Context, err error) {
	var insufficient *custom_error.InsufficientStockError
	if errors.As(err, &insufficient) {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"detail":       "insufficient_stock",
			"product_id":   insufficient.ProductID,
			"product_name": insufficient.ProductName,
			"available":    insufficient.Available,
			"wanted":       insufficient.Wanted,
		})
		return
	}

	var invalidQty *custom_error.InvalidQuantityError
	var missingLoc *custom_error.MissingLocationError
	var mismatch *custom_error.TenantMismatchError
	var notFound *custom_error.ProductNotFoundError
	var noLocation *custom_error.LocationNotFoundError
	switch {
	case errors.As(err, &invalidQty), errors.As(err, &missingLoc), errors.As(err, &mismatch):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
	case errors.As(err, &notFound), errors.As(err, &noLocation):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
	default:
		h.log.Error("stock operation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Stock operation failed"})
	}
}
