package order

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/citypaints/erp-sync/internal/domain/erp"
	"github.com/citypaints/erp-sync/internal/domain/order"
)

// SyncService submits storefront orders to the ERP. Each order moves through
// a sync state machine: a submission marks it pending, then synced or failed
// depending on the ERP's answer. The payload, the raw response and the ERP
// document reference are all persisted as order metadata for audit.
type SyncService struct {
	orders  order.Repository
	builder *PayloadBuilder
	gateway erp.OrderGateway
	logger  *zap.Logger
}

// NewSyncService creates a new SyncService
func NewSyncService(
	orders order.Repository,
	builder *PayloadBuilder,
	gateway erp.OrderGateway,
	logger *zap.Logger,
) *SyncService {
	return &SyncService{
		orders:  orders,
		builder: builder,
		gateway: gateway,
		logger:  logger.Named("order-sync"),
	}
}

// SyncOrder builds and submits one order. Synced and failed orders are
// rejected; a pending order may be resubmitted after an interrupted attempt.
func (s *SyncService) SyncOrder(ctx context.Context, id uuid.UUID) error {
	o, err := s.orders.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := o.MarkSyncPending(); err != nil {
		s.logger.Warn("Order sync rejected",
			zap.Int64("order", o.Number),
			zap.String("state", string(o.SyncState)))
		return err
	}
	if err := s.orders.UpdateSyncState(ctx, o.ID, order.SyncStatePending, ""); err != nil {
		return err
	}

	payload, err := s.builder.Build(ctx, o)
	if err != nil {
		s.fail(ctx, o, "Failed to build order payload", err)
		return err
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		s.fail(ctx, o, "Failed to encode order payload", err)
		return err
	}
	if err := s.orders.SetMetadata(ctx, o.ID, order.MetaKeyPayload, string(payloadJSON)); err != nil {
		s.logger.Warn("Failed to store order payload", zap.Error(err))
	}

	response, err := s.gateway.CreateOrder(ctx, payload)
	if err != nil {
		s.fail(ctx, o, "ERP rejected order submission", err)
		return err
	}

	if responseJSON, err := json.Marshal(response); err == nil {
		if err := s.orders.SetMetadata(ctx, o.ID, order.MetaKeyResponse, string(responseJSON)); err != nil {
			s.logger.Warn("Failed to store order response", zap.Error(err))
		}
	}

	result, ok := response.First()
	if !ok || result.ErrorMsg != "" {
		err := fmt.Errorf("order rejected by ERP: %s", resultError(result, ok))
		s.fail(ctx, o, "ERP reported order error", err)
		return err
	}

	reference := result.ProfileDocumentReference
	if err := s.orders.SetMetadata(ctx, o.ID, order.MetaKeyReference, reference); err != nil {
		s.logger.Warn("Failed to store order reference", zap.Error(err))
	}
	if err := s.orders.UpdateSyncState(ctx, o.ID, order.SyncStateSynced, reference); err != nil {
		return err
	}

	s.logger.Info("Order synced",
		zap.Int64("order", o.Number),
		zap.String("reference", reference))
	return nil
}

// fail records a failed attempt. The order is not resubmitted until its
// state is reset.
func (s *SyncService) fail(ctx context.Context, o *order.Order, msg string, cause error) {
	s.logger.Error(msg,
		zap.Int64("order", o.Number),
		zap.Error(cause))
	if err := s.orders.UpdateSyncState(ctx, o.ID, order.SyncStateFailed, ""); err != nil {
		s.logger.Error("Failed to record failed sync state", zap.Error(err))
	}
}

func resultError(result erp.OrderResult, ok bool) string {
	if !ok {
		return "empty response"
	}
	return result.ErrorMsg
}
