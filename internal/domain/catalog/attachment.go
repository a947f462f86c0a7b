package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/citypaints/erp-sync/internal/domain/shared"
)

// AttachmentStatus represents the upload state of a product image
type AttachmentStatus string

const (
	AttachmentStatusPending AttachmentStatus = "pending"
	AttachmentStatusActive  AttachmentStatus = "active"
)

// Attachment is a product image mirrored from the ERP into object storage.
// SourceURL identifies the ERP-side image; the image attacher uses it to skip
// re-uploading images that are already present.
type Attachment struct {
	shared.BaseEntity
	ProductID   uuid.UUID        `gorm:"type:uuid;not null;index"`
	VariantID   *uuid.UUID       `gorm:"type:uuid;index"`
	SourceURL   string           `gorm:"type:varchar(500);not null;index"`
	FileName    string           `gorm:"type:varchar(255);not null"`
	ContentType string           `gorm:"type:varchar(100);not null"`
	StorageKey  string           `gorm:"type:varchar(500);not null"`
	Status      AttachmentStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	IsFeatured  bool             `gorm:"not null;default:false"`
	Position    int              `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (Attachment) TableName() string {
	return "product_attachments"
}

// NewAttachment creates a pending attachment for the given product
func NewAttachment(productID uuid.UUID, sourceURL, fileName, contentType, storageKey string) (*Attachment, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PRODUCT_ID", "Product ID cannot be empty")
	}
	if sourceURL == "" {
		return nil, shared.NewDomainError("INVALID_SOURCE_URL", "Source URL cannot be empty")
	}
	if err := validateAttachmentFileName(fileName); err != nil {
		return nil, err
	}
	if err := validateStorageKey(storageKey); err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return &Attachment{
		BaseEntity:  shared.NewBaseEntity(),
		ProductID:   productID,
		SourceURL:   sourceURL,
		FileName:    fileName,
		ContentType: contentType,
		StorageKey:  storageKey,
		Status:      AttachmentStatusPending,
	}, nil
}

// Confirm marks the attachment active once the object upload succeeded
func (a *Attachment) Confirm() {
	a.Status = AttachmentStatusActive
	a.UpdatedAt = time.Now()
}

// AssignVariant links the attachment to a specific variant
func (a *Attachment) AssignVariant(variantID uuid.UUID) {
	a.VariantID = &variantID
	a.UpdatedAt = time.Now()
}

// MarkFeatured makes this attachment the product's featured image
func (a *Attachment) MarkFeatured() {
	a.IsFeatured = true
	a.UpdatedAt = time.Now()
}

func validateAttachmentFileName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_FILE_NAME", "File name cannot be empty")
	}
	if len(name) > 255 {
		return shared.NewDomainError("INVALID_FILE_NAME", "File name cannot exceed 255 characters")
	}
	if strings.Contains(name, "/") || strings.Contains(name, "\\") {
		return shared.NewDomainError("INVALID_FILE_NAME", "File name cannot contain path separators")
	}
	return nil
}

func validateStorageKey(key string) error {
	if key == "" {
		return shared.NewDomainError("INVALID_STORAGE_KEY", "Storage key cannot be empty")
	}
	if len(key) > 500 {
		return shared.NewDomainError("INVALID_STORAGE_KEY", "Storage key cannot exceed 500 characters")
	}
	if strings.Contains(key, "..") {
		return shared.NewDomainError("INVALID_STORAGE_KEY", "Storage key cannot contain path traversal sequences")
	}
	if strings.HasPrefix(key, "/") {
		return shared.NewDomainError("INVALID_STORAGE_KEY", "Storage key must be a relative path")
	}
	return nil
}
