package erp

import (
	"context"

	"github.com/citypaints/erp-sync/internal/domain/erp"
)

// Ensure OrderAPI implements the order gateway
var _ erp.OrderGateway = (*OrderAPI)(nil)

// OrderAPI submits orders to the ERP on top of Client.
type OrderAPI struct {
	client *Client
}

// NewOrderAPI creates an order gateway backed by the given client
func NewOrderAPI(client *Client) *OrderAPI {
	return &OrderAPI{client: client}
}

// CreateOrder posts the payload and returns the ERP's per-order results.
func (a *OrderAPI) CreateOrder(ctx context.Context, payload *erp.OrderPayload) (*erp.OrderResponse, error) {
	var resp erp.OrderResponse
	if err := a.client.Post(ctx, "orders", payload, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
