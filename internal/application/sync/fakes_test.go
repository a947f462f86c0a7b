package sync

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/citypaints/erp-sync/internal/domain/catalog"
	"github.com/citypaints/erp-sync/internal/domain/erp"
	"github.com/citypaints/erp-sync/internal/domain/shared"
)

// fakeGateway serves canned catalog data keyed by product id. Per-endpoint
// errors simulate partial ERP outages.
type fakeGateway struct {
	products    []erp.RawProduct
	prices      map[int64][]erp.RawPriceGroup
	quantities  map[int64][]erp.RawQuantity
	images      map[int64][]erp.RawImageGroup
	listErr     error
	priceErr    map[int64]error
	quantityErr map[int64]error
	imageErr    map[int64]error
	listCalls   int
}

var _ erp.ProductGateway = (*fakeGateway)(nil)

func newFakeGateway(products ...erp.RawProduct) *fakeGateway {
	return &fakeGateway{
		products:    products,
		prices:      make(map[int64][]erp.RawPriceGroup),
		quantities:  make(map[int64][]erp.RawQuantity),
		images:      make(map[int64][]erp.RawImageGroup),
		priceErr:    make(map[int64]error),
		quantityErr: make(map[int64]error),
		imageErr:    make(map[int64]error),
	}
}

func (g *fakeGateway) ListProducts(_ context.Context) ([]erp.RawProduct, error) {
	g.listCalls++
	if g.listErr != nil {
		return nil, g.listErr
	}
	out := make([]erp.RawProduct, len(g.products))
	copy(out, g.products)
	return out, nil
}

func (g *fakeGateway) ListPrices(_ context.Context, productID int64) ([]erp.RawPriceGroup, error) {
	if err := g.priceErr[productID]; err != nil {
		return nil, err
	}
	return g.prices[productID], nil
}

func (g *fakeGateway) ListQuantities(_ context.Context, productID int64) ([]erp.RawQuantity, error) {
	if err := g.quantityErr[productID]; err != nil {
		return nil, err
	}
	return g.quantities[productID], nil
}

func (g *fakeGateway) ListImages(_ context.Context, productID int64) ([]erp.RawImageGroup, error) {
	if err := g.imageErr[productID]; err != nil {
		return nil, err
	}
	return g.images[productID], nil
}

func (g *fakeGateway) GetBySKU(_ context.Context, sku string) (*erp.RawProduct, error) {
	for i := range g.products {
		if g.products[i].SKU == sku {
			return &g.products[i], nil
		}
	}
	return nil, erp.ErrProductNotFound
}

// memProductRepo is an in-memory catalog.ProductRepository. failSaveSKU makes
// Save fail for one SKU to exercise per-product error accumulation.
type memProductRepo struct {
	products    map[uuid.UUID]*catalog.Product
	variants    map[uuid.UUID]*catalog.Variant
	failSaveSKU string
}

var _ catalog.ProductRepository = (*memProductRepo)(nil)

func newMemProductRepo() *memProductRepo {
	return &memProductRepo{
		products: make(map[uuid.UUID]*catalog.Product),
		variants: make(map[uuid.UUID]*catalog.Variant),
	}
}

func (r *memProductRepo) FindByID(_ context.Context, id uuid.UUID) (*catalog.Product, error) {
	if p, ok := r.products[id]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, shared.ErrNotFound
}

func (r *memProductRepo) FindBySKU(_ context.Context, sku string) (*catalog.Product, error) {
	for _, p := range r.products {
		if p.SKU == sku {
			clone := *p
			return &clone, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memProductRepo) FindIDBySKU(ctx context.Context, sku string) (uuid.UUID, error) {
	p, err := r.FindBySKU(ctx, sku)
	if err != nil {
		return uuid.Nil, err
	}
	return p.ID, nil
}

func (r *memProductRepo) FindByERPProductID(_ context.Context, erpProductID int64) (*catalog.Product, error) {
	for _, p := range r.products {
		if p.ERPProductID == erpProductID {
			clone := *p
			return &clone, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memProductRepo) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	if _, err := r.FindBySKU(ctx, sku); err == nil {
		return true, nil
	}
	if _, err := r.FindVariantBySKU(ctx, sku); err == nil {
		return true, nil
	}
	return false, nil
}

func (r *memProductRepo) Save(_ context.Context, product *catalog.Product) error {
	if r.failSaveSKU != "" && product.SKU == r.failSaveSKU {
		return shared.NewDomainError("SAVE_FAILED", "Injected save failure")
	}
	clone := *product
	r.products[product.ID] = &clone
	return nil
}

func (r *memProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.products[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.products, id)
	for vid, v := range r.variants {
		if v.ProductID == id {
			delete(r.variants, vid)
		}
	}
	return nil
}

func (r *memProductRepo) FindVariantBySKU(_ context.Context, sku string) (*catalog.Variant, error) {
	for _, v := range r.variants {
		if v.SKU == sku {
			clone := *v
			return &clone, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memProductRepo) FindVariantsByProduct(_ context.Context, productID uuid.UUID) ([]catalog.Variant, error) {
	var out []catalog.Variant
	for _, v := range r.variants {
		if v.ProductID == productID {
			out = append(out, *v)
		}
	}
	// Insertion order is lost in the map; order by position like the real
	// repository does.
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Position < out[i].Position {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (r *memProductRepo) SaveVariant(_ context.Context, variant *catalog.Variant) error {
	clone := *variant
	r.variants[variant.ID] = &clone
	return nil
}

func (r *memProductRepo) DeleteVariant(_ context.Context, id uuid.UUID) error {
	delete(r.variants, id)
	return nil
}

func (r *memProductRepo) DeleteVariantsByProduct(_ context.Context, productID uuid.UUID) error {
	for id, v := range r.variants {
		if v.ProductID == productID {
			delete(r.variants, id)
		}
	}
	return nil
}

// memMetadataRepo is an in-memory catalog.MetadataRepository.
type memMetadataRepo struct {
	entries map[string]string
}

var _ catalog.MetadataRepository = (*memMetadataRepo)(nil)

func newMemMetadataRepo() *memMetadataRepo {
	return &memMetadataRepo{entries: make(map[string]string)}
}

func (r *memMetadataRepo) Get(_ context.Context, ownerID uuid.UUID, key string) (string, error) {
	return r.entries[ownerID.String()+"/"+key], nil
}

func (r *memMetadataRepo) Set(_ context.Context, ownerID uuid.UUID, key, value string) error {
	r.entries[ownerID.String()+"/"+key] = value
	return nil
}

func (r *memMetadataRepo) Delete(_ context.Context, ownerID uuid.UUID, key string) error {
	delete(r.entries, ownerID.String()+"/"+key)
	return nil
}

// memAttributeRepo is an in-memory catalog.AttributeRepository.
type memAttributeRepo struct {
	attributes  map[string]*catalog.Attribute
	terms       map[uuid.UUID][]catalog.AttributeTerm
	assignments map[string][]string
	variations  map[string]bool
}

var _ catalog.AttributeRepository = (*memAttributeRepo)(nil)

func newMemAttributeRepo() *memAttributeRepo {
	return &memAttributeRepo{
		attributes:  make(map[string]*catalog.Attribute),
		terms:       make(map[uuid.UUID][]catalog.AttributeTerm),
		assignments: make(map[string][]string),
		variations:  make(map[string]bool),
	}
}

func (r *memAttributeRepo) EnsureAttribute(_ context.Context, slug, name string) (*catalog.Attribute, error) {
	if a, ok := r.attributes[slug]; ok {
		return a, nil
	}
	a, err := catalog.NewAttribute(slug, name)
	if err != nil {
		return nil, err
	}
	r.attributes[slug] = a
	return a, nil
}

func (r *memAttributeRepo) EnsureTerms(_ context.Context, attributeID uuid.UUID, names []string) ([]catalog.AttributeTerm, error) {
	out := make([]catalog.AttributeTerm, 0, len(names))
	for _, name := range names {
		slug := catalog.TermSlug(name)
		found := false
		for _, t := range r.terms[attributeID] {
			if t.Slug == slug {
				out = append(out, t)
				found = true
				break
			}
		}
		if found {
			continue
		}
		term, err := catalog.NewAttributeTerm(attributeID, name)
		if err != nil {
			return nil, err
		}
		r.terms[attributeID] = append(r.terms[attributeID], *term)
		out = append(out, *term)
	}
	return out, nil
}

func (r *memAttributeRepo) SetProductAttribute(_ context.Context, productID, attributeID uuid.UUID, termSlugs []string, isVariation bool) error {
	key := productID.String() + "/" + attributeID.String()
	r.assignments[key] = append([]string(nil), termSlugs...)
	r.variations[key] = isVariation
	return nil
}

func (r *memAttributeRepo) ClearProductAttribute(_ context.Context, productID, attributeID uuid.UUID) error {
	key := productID.String() + "/" + attributeID.String()
	delete(r.assignments, key)
	delete(r.variations, key)
	return nil
}

// memAttachmentRepo is an in-memory catalog.AttachmentRepository.
type memAttachmentRepo struct {
	attachments map[uuid.UUID]*catalog.Attachment
}

var _ catalog.AttachmentRepository = (*memAttachmentRepo)(nil)

func newMemAttachmentRepo() *memAttachmentRepo {
	return &memAttachmentRepo{attachments: make(map[uuid.UUID]*catalog.Attachment)}
}

func (r *memAttachmentRepo) FindByProduct(_ context.Context, productID uuid.UUID) ([]catalog.Attachment, error) {
	var out []catalog.Attachment
	for _, a := range r.attachments {
		if a.ProductID == productID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *memAttachmentRepo) FindBySourceURL(_ context.Context, sourceURL string) (*catalog.Attachment, error) {
	for _, a := range r.attachments {
		if a.SourceURL == sourceURL {
			clone := *a
			return &clone, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memAttachmentRepo) Save(_ context.Context, attachment *catalog.Attachment) error {
	clone := *attachment
	r.attachments[attachment.ID] = &clone
	return nil
}

func (r *memAttachmentRepo) DeleteByProduct(_ context.Context, productID uuid.UUID) error {
	for id, a := range r.attachments {
		if a.ProductID == productID {
			delete(r.attachments, id)
		}
	}
	return nil
}

// memObjectStorage records uploaded objects in memory.
type memObjectStorage struct {
	objects map[string][]byte
	types   map[string]string
	fail    bool
}

var _ ObjectStorage = (*memObjectStorage)(nil)

func newMemObjectStorage() *memObjectStorage {
	return &memObjectStorage{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (s *memObjectStorage) Upload(_ context.Context, storageKey string, data []byte, contentType string) error {
	if s.fail {
		return shared.NewDomainError("UPLOAD_FAILED", "Injected upload failure")
	}
	s.objects[storageKey] = data
	s.types[storageKey] = contentType
	return nil
}

func (s *memObjectStorage) ObjectExists(_ context.Context, storageKey string) (bool, error) {
	_, ok := s.objects[storageKey]
	return ok, nil
}

// fakeSyncLock is a shared.SyncLock with a controllable busy state.
type fakeSyncLock struct {
	held     map[string]bool
	acquired int
	released int
}

var _ shared.SyncLock = (*fakeSyncLock)(nil)

func newFakeSyncLock() *fakeSyncLock {
	return &fakeSyncLock{held: make(map[string]bool)}
}

func (l *fakeSyncLock) Acquire(_ context.Context, name string, _ time.Duration) error {
	if l.held[name] {
		return shared.ErrSyncInProgress
	}
	l.held[name] = true
	l.acquired++
	return nil
}

func (l *fakeSyncLock) Release(_ context.Context, name string) error {
	delete(l.held, name)
	l.released++
	return nil
}
