package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/citypaints/erp-sync/internal/domain/erp"
	"github.com/citypaints/erp-sync/internal/domain/order"
	"github.com/citypaints/erp-sync/internal/interfaces/http/dto"
)

// OrderSyncer submits one order to the ERP
type OrderSyncer interface {
	SyncOrder(ctx context.Context, id uuid.UUID) error
}

// OrderHandler exposes order sync endpoints
type OrderHandler struct {
	BaseHandler
	syncer OrderSyncer
	orders order.Repository
	logger *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(syncer OrderSyncer, orders order.Repository, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{
		syncer: syncer,
		orders: orders,
		logger: logger.Named("order-handler"),
	}
}

// RegisterRoutes registers order routes on the given router group
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	orders := rg.Group("/orders")
	{
		orders.POST("/:id/sync", h.SyncOrder)
		orders.GET("/:id/sync", h.GetSyncStatus)
	}
}

// OrderSyncStatusResponse reports an order's sync progress
type OrderSyncStatusResponse struct {
	OrderID   string `json:"order_id"`
	Number    int64  `json:"number"`
	State     string `json:"state"`
	Reference string `json:"reference,omitempty"`
}

// SyncOrder submits the order to the ERP. Orders already pending or synced
// get 409; a previously failed order is retried.
func (h *OrderHandler) SyncOrder(c *gin.Context) {
	id, ok := h.orderID(c)
	if !ok {
		return
	}

	if err := h.syncer.SyncOrder(c.Request.Context(), id); err != nil {
		var apiErr *erp.APIError
		if errors.As(err, &apiErr) {
			h.logger.Error("Order submission failed upstream",
				zap.String("order_id", id.String()),
				zap.Error(err))
			h.Error(c, http.StatusBadGateway, dto.ErrCodeUpstream, apiErr.Message)
			return
		}
		h.HandleError(c, err)
		return
	}

	h.respondStatus(c, id)
}

// GetSyncStatus returns the order's current sync state and ERP reference.
func (h *OrderHandler) GetSyncStatus(c *gin.Context) {
	id, ok := h.orderID(c)
	if !ok {
		return
	}
	h.respondStatus(c, id)
}

func (h *OrderHandler) orderID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, "Invalid order ID")
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.BadRequest(c, "Invalid order ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *OrderHandler) respondStatus(c *gin.Context, id uuid.UUID) {
	o, err := h.orders.FindByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, OrderSyncStatusResponse{
		OrderID:   o.ID.String(),
		Number:    o.Number,
		State:     string(o.SyncState),
		Reference: o.SyncReference,
	})
}
