package sync

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/citypaints/erp-sync/internal/domain/catalog"
	"github.com/citypaints/erp-sync/internal/domain/shared"
)

// maxImageSize caps a single downloaded product image.
const maxImageSize = 16 << 20

// ObjectStorage defines the interface for storing downloaded product images.
// This interface is implemented by the infrastructure layer (S3-compatible).
type ObjectStorage interface {
	// Upload stores the object under the key, overwriting any existing one
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error

	// ObjectExists checks if an object exists under the key
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}

// ImageAttacher mirrors ERP product images into object storage and records
// them as attachments. Attachments are deduplicated by source URL, so an
// image already mirrored in an earlier run is reused instead of
// re-downloaded. Every failure is best-effort: the caller gets nil and the
// product saves without an image.
type ImageAttacher struct {
	attachments catalog.AttachmentRepository
	storage     ObjectStorage
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewImageAttacher creates an image attacher. httpClient may be nil, in which
// case a client with a 30s timeout is used.
func NewImageAttacher(
	attachments catalog.AttachmentRepository,
	storage ObjectStorage,
	httpClient *http.Client,
	logger *zap.Logger,
) *ImageAttacher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &ImageAttacher{
		attachments: attachments,
		storage:     storage,
		httpClient:  httpClient,
		logger:      logger.Named("image-attacher"),
	}
}

// Attach mirrors the image at sourceURL for the product (and variant, when
// given) and returns the attachment, or nil when anything failed. Failures
// are logged and never abort the caller's save.
func (a *ImageAttacher) Attach(ctx context.Context, product *catalog.Product, variantID *uuid.UUID, sourceURL string, featured bool) *catalog.Attachment {
	if sourceURL == "" {
		return nil
	}

	existing, err := a.attachments.FindBySourceURL(ctx, sourceURL)
	if err == nil {
		return existing
	}
	if !errors.Is(err, shared.ErrNotFound) {
		a.logger.Warn("Attachment lookup failed", zap.String("url", sourceURL), zap.Error(err))
		return nil
	}

	data, contentType, err := a.download(ctx, sourceURL)
	if err != nil {
		a.logger.Warn("Image download failed", zap.String("url", sourceURL), zap.Error(err))
		return nil
	}

	fileName := imageFileName(sourceURL)
	storageKey := fmt.Sprintf("products/%s/%s", product.SKU, fileName)

	attachment, err := catalog.NewAttachment(product.ID, sourceURL, fileName, contentType, storageKey)
	if err != nil {
		a.logger.Warn("Invalid attachment", zap.String("url", sourceURL), zap.Error(err))
		return nil
	}
	if variantID != nil {
		attachment.AssignVariant(*variantID)
	}
	if featured {
		attachment.MarkFeatured()
	}

	if err := a.storage.Upload(ctx, storageKey, data, contentType); err != nil {
		a.logger.Warn("Image upload failed", zap.String("key", storageKey), zap.Error(err))
		return nil
	}
	attachment.Confirm()

	if err := a.attachments.Save(ctx, attachment); err != nil {
		a.logger.Warn("Attachment save failed", zap.String("key", storageKey), zap.Error(err))
		return nil
	}

	a.logger.Debug("Image attached",
		zap.String("url", sourceURL),
		zap.String("key", storageKey))
	return attachment
}

func (a *ImageAttacher) download(ctx context.Context, sourceURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageSize))
	if err != nil {
		return nil, "", err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return data, contentType, nil
}

// imageFileName derives a safe file name from the image URL's last path
// segment, falling back to a generated name.
func imageFileName(sourceURL string) string {
	parsed, err := url.Parse(sourceURL)
	if err != nil {
		return uuid.NewString()
	}
	name := path.Base(parsed.Path)
	if name == "" || name == "." || name == "/" || strings.ContainsAny(name, "\\") {
		return uuid.NewString()
	}
	return name
}
