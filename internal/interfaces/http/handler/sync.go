package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	syncapp "github.com/citypaints/erp-sync/internal/application/sync"
	"github.com/citypaints/erp-sync/internal/domain/erp"
	"github.com/citypaints/erp-sync/internal/interfaces/http/dto"
)

// ProductSyncer runs one full catalog sync
type ProductSyncer interface {
	SyncAll(ctx context.Context) (*syncapp.Result, error)
}

// SyncHandler exposes the catalog sync trigger
type SyncHandler struct {
	BaseHandler
	syncer ProductSyncer
	logger *zap.Logger
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(syncer ProductSyncer, logger *zap.Logger) *SyncHandler {
	return &SyncHandler{
		syncer: syncer,
		logger: logger.Named("sync-handler"),
	}
}

// RegisterRoutes registers sync routes on the given router group
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	{
		sync.POST("/products", h.TriggerProductSync)
	}
}

// TriggerProductSync runs a full catalog sync and reports the per-product
// outcome. A concurrent trigger while a run is active gets 409.
func (h *SyncHandler) TriggerProductSync(c *gin.Context) {
	result, err := h.syncer.SyncAll(c.Request.Context())
	if err != nil {
		var apiErr *erp.APIError
		if errors.As(err, &apiErr) {
			h.logger.Error("Catalog fetch failed", zap.Error(err))
			h.Error(c, http.StatusBadGateway, dto.ErrCodeUpstream, apiErr.Message)
			return
		}
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}
