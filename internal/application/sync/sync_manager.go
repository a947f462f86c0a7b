package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/citypaints/erp-sync/internal/domain/catalog"
	"github.com/citypaints/erp-sync/internal/domain/shared"
)

// ProductSyncLockName keys the advisory lock guarding catalog sync runs.
const ProductSyncLockName = "products"

// ResultStatus summarizes a finished sync run.
type ResultStatus string

const (
	ResultSuccess ResultStatus = "success"
	ResultPartial ResultStatus = "partial"
)

// Result reports the outcome of one catalog sync run. Errors holds one
// message per failed product; a run is a success only when it is empty.
// Mutations applied before a failure are not rolled back.
type Result struct {
	Status  ResultStatus `json:"status"`
	Total   int          `json:"total"`
	Created int          `json:"created"`
	Updated int          `json:"updated"`
	Errors  []string     `json:"errors,omitempty"`
}

// SyncManager drives the full catalog sync: fetch and normalize everything,
// then materialize each product through the shape-appropriate handler. A
// hard fetch failure aborts the run; per-product failures are accumulated
// and the run continues.
type SyncManager struct {
	mapper   *ProductMapper
	products catalog.ProductRepository
	simple   *SimpleProductHandler
	variable *VariableProductHandler
	lock     shared.SyncLock
	lockTTL  time.Duration
	logger   *zap.Logger
}

// NewSyncManager creates a new SyncManager
func NewSyncManager(
	mapper *ProductMapper,
	products catalog.ProductRepository,
	simple *SimpleProductHandler,
	variable *VariableProductHandler,
	lock shared.SyncLock,
	lockTTL time.Duration,
	logger *zap.Logger,
) *SyncManager {
	return &SyncManager{
		mapper:   mapper,
		products: products,
		simple:   simple,
		variable: variable,
		lock:     lock,
		lockTTL:  lockTTL,
		logger:   logger.Named("sync-manager"),
	}
}

// SyncAll runs one full catalog sync. A second trigger while a run is active
// fails fast with ErrSyncInProgress.
func (m *SyncManager) SyncAll(ctx context.Context) (*Result, error) {
	if err := m.lock.Acquire(ctx, ProductSyncLockName, m.lockTTL); err != nil {
		if errors.Is(err, shared.ErrSyncInProgress) {
			m.logger.Warn("Sync already in progress")
		}
		return nil, err
	}
	defer func() {
		if err := m.lock.Release(context.WithoutCancel(ctx), ProductSyncLockName); err != nil {
			m.logger.Warn("Failed to release sync lock", zap.Error(err))
		}
	}()

	m.logger.Info("Starting product sync")

	mapped, err := m.mapper.FetchAll(ctx)
	if err != nil {
		m.logger.Error("Failed to fetch products", zap.Error(err))
		return nil, err
	}

	result := &Result{Total: len(mapped)}
	for _, product := range mapped {
		created, err := m.syncOne(ctx, product)
		if err != nil {
			sku := product.Normalized.SKU
			if sku == "" {
				sku = "NO-SKU"
			}
			m.logger.Error("Product sync failed",
				zap.String("sku", sku),
				zap.Error(err))
			result.Errors = append(result.Errors, fmt.Sprintf("Product SKU %s failed: %v", sku, err))
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	if len(result.Errors) > 0 {
		result.Status = ResultPartial
		m.logger.Warn("Some products failed to sync", zap.Int("failed", len(result.Errors)))
	} else {
		result.Status = ResultSuccess
		m.logger.Info("All products synced",
			zap.Int("created", result.Created),
			zap.Int("updated", result.Updated))
	}
	return result, nil
}

// syncOne materializes one mapped product. Returns true when a new catalog
// entity was created.
func (m *SyncManager) syncOne(ctx context.Context, mapped MappedProduct) (bool, error) {
	normalized := mapped.Normalized
	m.logger.Debug("Processing product",
		zap.String("sku", normalized.SKU),
		zap.Int("units", normalized.UnitCount()))

	existing, err := m.findExisting(ctx, normalized.SKU)
	if err != nil {
		return false, err
	}

	if existing != nil {
		return false, m.update(ctx, existing, mapped)
	}
	return true, m.create(ctx, mapped)
}

// findExisting resolves the catalog product by SKU. A missing SKU or no match
// means the create path.
func (m *SyncManager) findExisting(ctx context.Context, sku string) (*catalog.Product, error) {
	if sku == "" {
		return nil, nil
	}
	product, err := m.products.FindBySKU(ctx, sku)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return product, nil
}

// create delegates by unit count: one unit is a simple product, two or more a
// variable one.
func (m *SyncManager) create(ctx context.Context, mapped MappedProduct) error {
	if mapped.Normalized.UnitCount() == 1 {
		unit, _ := mapped.Normalized.FirstUnit()
		_, err := m.simple.Create(ctx, mapped, unit)
		return err
	}
	_, err := m.variable.Create(ctx, mapped)
	return err
}

// update delegates by unit count; the handlers convert the stored type when
// it disagrees with the new unit count.
func (m *SyncManager) update(ctx context.Context, existing *catalog.Product, mapped MappedProduct) error {
	if mapped.Normalized.UnitCount() == 1 {
		unit, _ := mapped.Normalized.FirstUnit()
		return m.simple.Update(ctx, existing, mapped, unit)
	}
	return m.variable.Update(ctx, existing, mapped)
}
