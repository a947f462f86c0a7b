package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/citypaints/erp-sync/internal/domain/order"
	"github.com/citypaints/erp-sync/internal/domain/shared"
)

func setupOrderTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&order.Order{}, &order.Item{}, &order.Metadata{})
	require.NoError(t, err)

	return db
}

func newTestOrder(number int64) *order.Order {
	o := &order.Order{
		BaseEntity:    shared.NewBaseEntity(),
		Number:        number,
		Status:        "processing",
		Currency:      "EUR",
		Total:         61.50,
		PaymentMethod: "stripe",
		PlacedAt:      time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC),
		Billing: order.Address{
			FirstName: "Maria",
			LastName:  "Schmidt",
			Address1:  "Hauptstr. 1",
			City:      "Berlin",
			Postcode:  "10115",
			Country:   "DE",
		},
	}
	o.Items = []order.Item{
		{
			BaseEntity:  shared.NewBaseEntity(),
			OrderID:     o.ID,
			SKU:         "PNT-001",
			Name:        "Wall Paint 1L",
			Quantity:    2,
			Subtotal:    50.00,
			SubtotalTax: 9.50,
			Total:       50.00,
			TotalTax:    9.50,
		},
	}
	return o
}

func TestGormOrderRepository_SaveAndFind(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	o := newTestOrder(1001)
	require.NoError(t, repo.Save(ctx, o))

	t.Run("finds by ID with items", func(t *testing.T) {
		found, err := repo.FindByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(1001), found.Number)
		require.Len(t, found.Items, 1)
		assert.Equal(t, "PNT-001", found.Items[0].SKU)
		assert.Equal(t, "Berlin", found.Billing.City)
	})

	t.Run("finds by number", func(t *testing.T) {
		found, err := repo.FindByNumber(ctx, 1001)
		require.NoError(t, err)
		assert.Equal(t, o.ID, found.ID)
	})

	t.Run("returns ErrNotFound for unknown number", func(t *testing.T) {
		_, err := repo.FindByNumber(ctx, 9999)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormOrderRepository_UpdateSyncState(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	o := newTestOrder(1002)
	require.NoError(t, repo.Save(ctx, o))

	require.NoError(t, repo.UpdateSyncState(ctx, o.ID, order.SyncStateSynced, "SO-77"))

	found, err := repo.FindByID(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.SyncStateSynced, found.SyncState)
	assert.Equal(t, "SO-77", found.SyncReference)

	t.Run("unknown order returns ErrNotFound", func(t *testing.T) {
		missing := newTestOrder(9999)
		err := repo.UpdateSyncState(ctx, missing.ID, order.SyncStateFailed, "")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormOrderRepository_Metadata(t *testing.T) {
	db := setupOrderTestDB(t)
	repo := NewGormOrderRepository(db)
	ctx := context.Background()

	o := newTestOrder(1003)
	require.NoError(t, repo.Save(ctx, o))

	value, err := repo.GetMetadata(ctx, o.ID, order.MetaKeyPayload)
	require.NoError(t, err)
	assert.Empty(t, value, "absent key reads back empty")

	require.NoError(t, repo.SetMetadata(ctx, o.ID, order.MetaKeyPayload, `{"Order":[]}`))
	require.NoError(t, repo.SetMetadata(ctx, o.ID, order.MetaKeyPayload, `{"Order":[{"Id":1}]}`))

	value, err = repo.GetMetadata(ctx, o.ID, order.MetaKeyPayload)
	require.NoError(t, err)
	assert.Equal(t, `{"Order":[{"Id":1}]}`, value)
}
