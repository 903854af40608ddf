package transfers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Abdullah02020/back/internal/config"
	"github.com/Abdullah02020/back/internal/directory"
	custom_error "github.com/Abdullah02020/back/pkg/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service   *Service
	directory *directory.Repository
	defaults  config.Defaults
	log       *zap.Logger
}

func RegisterRoutes(router *gin.Engine, service *Service, dir *directory.Repository, defaults config.Defaults, log *zap.Logger) {
	handler := Handler{
		service:   service,
		directory: dir,
		defaults:  defaults,
		log:       log,
	}

	router.POST("/api/transfers", handler.CreateTransfer)
	router.GET("/api/transfers", handler.ListTransfers)
	router.GET("/api/transfers/:id", handler.GetTransfer)
}

type createTransferRequest struct {
	Tenant      string `json:"tenant"`
	ProductID   int    `json:"product_id" binding:"required"`
	WarehouseID int    `json:"warehouse_id"`
	BranchID    int    `json:"branch_id"`
	Qty         int    `json:"qty" binding:"required,gte=1"`
}

func (h *Handler) CreateTransfer(c *gin.Context) {
	var req createTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "product_id, branch_id, qty are required"})
		return
	}

	tenant := req.Tenant
	if tenant == "" {
		tenant = h.defaults.TenantID
	}
	if _, err := h.directory.GetTenant(tenant); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	product, err := h.directory.GetActiveProduct(tenant, req.ProductID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	branchID := req.BranchID
	if branchID == 0 {
		branchID = h.defaults.BranchID
	}
	if _, err := h.directory.GetBranch(branchID); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	warehouseID := req.WarehouseID
	if warehouseID == 0 {
		warehouseID = h.defaults.WarehouseID
	}
	if warehouseID == 0 {
		warehouse, err := h.directory.FirstWarehouse()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "No warehouse found"})
			return
		}
		warehouseID = warehouse.ID
	} else if _, err := h.directory.GetWarehouse(warehouseID); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	result, err := h.service.CreateTransfer(CreateTransferInput{
		Tenant:      tenant,
		Product:     *product,
		WarehouseID: warehouseID,
		BranchID:    branchID,
		Qty:         req.Qty,
		AgentID:     h.agentID(c),
	})
	if err != nil {
		var insufficient *custom_error.InsufficientStockError
		if errors.As(err, &insufficient) {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"detail": "insufficient_stock"})
			return
		}
		h.log.Error("transfer creation failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unable to create transfer"})
		return
	}

	c.JSON(http.StatusCreated, result)
}

func (h *Handler) GetTransfer(c *gin.Context) {
	transferID := c.Param("id")
	if transferID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Transfer ID is required"})
		return
	}

	transfer, err := h.service.GetTransfer(transferID)
	if err != nil {
		h.log.Error("failed to get transfer", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unable to get transfer"})
		return
	}
	if transfer == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"detail": "transfer not found"})
		return
	}

	c.JSON(http.StatusOK, transfer)
}

// ListTransfers returns a page of the tenant's transfers, newest first.
// GET /api/transfers?tenant=Z0&product=42&branch=1&from=0&to=0&page=1&limit=20
func (h *Handler) ListTransfers(c *gin.Context) {
	tenant := c.Query("tenant")
	if tenant == "" {
		tenant = h.defaults.TenantID
	}

	filter := ListFilter{
		Tenant:    tenant,
		ProductID: queryInt(c, "product"),
		BranchID:  queryInt(c, "branch"),
		FromTS:    int64(queryInt(c, "from")),
		ToTS:      int64(queryInt(c, "to")),
		Page:      queryInt(c, "page"),
		Limit:     queryInt(c, "limit"),
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}

	views, count, err := h.service.ListTransfers(filter)
	if err != nil {
		h.log.Error("failed to list transfers", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unable to list transfers"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"page":  filter.Page,
		"limit": filter.Limit,
		"count": count,
		"items": views,
	})
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

func queryInt(c *gin.Context, key string) int {
	raw := c.Query(key)
	if raw == "" {
		return 0
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0
	}
	return value
}
