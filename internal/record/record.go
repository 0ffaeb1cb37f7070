// Package record defines the upload records whose files the pipeline finalizes.
package record

import (
	"context"
	"path"
	"time"

	"github.com/flourishbhp/truecopy/internal/storage"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = storage.ErrNotFound

// Upload is a participant document stored under the media root.
type Upload struct {
	ID                int64
	SubjectIdentifier string

	// Name is the file name relative to the media root. Empty means no file.
	Name string

	// UploadTo is the upload subdirectory of the file field.
	UploadTo string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasFile reports whether the record references a file.
func (u Upload) HasFile() bool {
	return u.Name != ""
}

// Encrypted reports whether the record already points at an archive.
func (u Upload) Encrypted() bool {
	return path.Ext(u.Name) == ".zip"
}

// Store persists upload records.
type Store interface {
	CreateUpload(ctx context.Context, upload Upload) (Upload, error)
	GetUpload(ctx context.Context, id int64) (Upload, error)
	ListUploads(ctx context.Context, subject string) ([]Upload, error)
	// SaveUpload persists the file reference of an existing record.
	SaveUpload(ctx context.Context, upload Upload) error
}
