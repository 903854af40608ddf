package invoices

import (
	"net/http"

	"github.com/Abdullah02020/back/internal/config"
	"github.com/Abdullah02020/back/internal/directory"

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

	router.POST("/api/invoices", handler.CreateInvoice)
}

type createInvoiceRequest struct {
	Tenant        string           `json:"tenant"`
	BranchID      int              `json:"branch_id"`
	OrderID       string           `json:"order_id" binding:"required"`
	PaymentMethod string           `json:"payment_method"`
	TaxRate       *decimal.Decimal `json:"tax_rate"`
}

func (h *Handler) CreateInvoice(c *gin.Context) {
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "order_id is required"})
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
	if _, err := h.directory.GetBranch(branchID); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	invoice, err := h.service.CreateForOrder(CreateForOrderInput{
		Tenant:        tenant,
		BranchID:      branchID,
		OrderID:       req.OrderID,
		PaymentMethod: req.PaymentMethod,
		TaxRate:       req.TaxRate,
		AgentID:       h.agentID(c),
	})
	if err != nil {
		h.log.Error("invoice creation failed", zap.String("order_id", req.OrderID), zap.Error(err))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, invoice)
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
