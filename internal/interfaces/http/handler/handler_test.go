package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	syncapp "github.com/citypaints/erp-sync/internal/application/sync"
	"github.com/citypaints/erp-sync/internal/domain/order"
	"github.com/citypaints/erp-sync/internal/domain/shared"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeProductSyncer struct {
	result *syncapp.Result
	err    error
	calls  int
}

var _ ProductSyncer = (*fakeProductSyncer)(nil)

func (f *fakeProductSyncer) SyncAll(_ context.Context) (*syncapp.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeOrderSyncer struct {
	err   error
	calls int
}

var _ OrderSyncer = (*fakeOrderSyncer)(nil)

func (f *fakeOrderSyncer) SyncOrder(_ context.Context, _ uuid.UUID) error {
	f.calls++
	return f.err
}

type fakeOrderRepo struct {
	orders map[uuid.UUID]*order.Order
}

var _ order.Repository = (*fakeOrderRepo)(nil)

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*order.Order)}
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return o, nil
}

func (r *fakeOrderRepo) FindByNumber(_ context.Context, number int64) (*order.Order, error) {
	for _, o := range r.orders {
		if o.Number == number {
			return o, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeOrderRepo) Save(_ context.Context, o *order.Order) error {
	r.orders[o.ID] = o
	return nil
}

func (r *fakeOrderRepo) UpdateSyncState(_ context.Context, id uuid.UUID, state order.SyncState, reference string) error {
	o, ok := r.orders[id]
	if !ok {
		return shared.ErrNotFound
	}
	o.SyncState = state
	if reference != "" {
		o.SyncReference = reference
	}
	return nil
}

func (r *fakeOrderRepo) SetMetadata(_ context.Context, _ uuid.UUID, _, _ string) error {
	return nil
}

func (r *fakeOrderRepo) GetMetadata(_ context.Context, _ uuid.UUID, _ string) (string, error) {
	return "", nil
}

func perform(t *testing.T, engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequest(method, path, nil)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func storedOrder(repo *fakeOrderRepo, state order.SyncState, reference string) *order.Order {
	o := &order.Order{
		Number:        4711,
		Status:        "processing",
		Currency:      "EUR",
		Total:         99.50,
		PlacedAt:      time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC),
		SyncState:     state,
		SyncReference: reference,
	}
	o.BaseEntity = shared.NewBaseEntity()
	repo.orders[o.ID] = o
	return o
}
