package orders

import (
	"errors"
	"net/http"

	"github.com/Abdullah02020/back/internal/config"
	"github.com/Abdullah02020/back/internal/directory"
	custom_error "github.com/Abdullah02020/back/pkg/errors"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
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

	router.POST("/api/orders", handler.CaptureOrder)
}

type orderLineRequest struct {
	ProductID int `json:"product_id" binding:"required"`
	Qty       int `json:"qty" binding:"required,gte=1"`
}

type captureOrderRequest struct {
	Tenant   string             `json:"tenant"`
	BranchID int                `json:"branch_id"`
	TaxRate  *decimal.Decimal   `json:"tax_rate"`
	Lines    []orderLineRequest `json:"lines" binding:"required,min=1,dive"`
}

func (h *Handler) CaptureOrder(c *gin.Context) {
	var req captureOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "lines is required"})
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

	branchID := req.BranchID
	if branchID == 0 {
		branchID = h.defaults.BranchID
	}
	branch, err := h.directory.GetBranch(branchID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	taxRate := h.defaults.TaxRate
	if req.TaxRate != nil {
		taxRate = *req.TaxRate
	}

	lines := make([]OrderLine, len(req.Lines))
	for i, line := range req.Lines {
		lines[i] = OrderLine{ProductID: line.ProductID, Qty: line.Qty}
	}

	result, err := h.service.CaptureOrder(CaptureOrderInput{
		Tenant:   tenant,
		Branch:   *branch,
		Lines:    lines,
		TaxRate:  taxRate,
		Currency: h.defaults.Currency,
		AgentID:  h.agentID(c),
	})
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.JSON(http.StatusCreated, result)
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

	var notFound *custom_error.ProductNotFoundError
	var invalidQty *custom_error.InvalidQuantityError
	switch {
	case errors.As(err, &notFound), errors.As(err, &invalidQty):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
	default:
		h.log.Error("order capture failed", zap.Error(err))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Unable to capture order"})
	}
}
