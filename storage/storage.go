// Package storage moves uploaded files in and out of blob storage.
package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"heritage-api/logger"
	"heritage-api/models"
)

// Object is a file about to be stored.
type Object struct {
	Folder      string
	Filename    string
	ContentType string
	Body        io.Reader
}

// StoredObject is what the store hands back after a successful upload.
type StoredObject struct {
	URL      string
	PublicID string
}

// BlobStore is implemented by every storage backend.
type BlobStore interface {
	Upload(ctx context.Context, obj Object) (StoredObject, error)
	Delete(ctx context.Context, publicID string) error
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// PublicID derives the storage name of an upload: the upload time in
// milliseconds, eight random hex digits, then the part of the filename
// before its first dot with every non-alphanumeric character replaced by
// an underscore. The random part keeps same-named files uploaded in the
// same millisecond apart.
func PublicID(now time.Time, filename string) string {
	base := filepath.Base(filename)
	if i := strings.Index(base, "."); i >= 0 {
		base = base[:i]
	}
	return fmt.Sprintf("%d-%s-%s", now.UnixMilli(), uuid.NewString()[:8], unsafeChars.ReplaceAllString(base, "_"))
}

// ClassifyFileType maps a MIME type onto the coarse file classes.
func ClassifyFileType(contentType string) models.FileType {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = contentType
	}
	major, _, _ := strings.Cut(mediaType, "/")
	switch strings.ToLower(major) {
	case "image":
		return models.FileImage
	case "video":
		return models.FileVideo
	case "audio":
		return models.FileAudio
	}
	return models.FileDocument
}

// Folder returns the storage folder for a pillar under root.
func Folder(root string, pillar models.Pillar) string {
	name := strings.ToLower(string(pillar))
	if name == "" {
		name = "general"
	}
	return root + "/" + name
}

// Batch tracks the uploads of one request so they can be undone when
// the request fails part way.
type Batch struct {
	store  BlobStore
	stored []StoredObject
}

func NewBatch(store BlobStore) *Batch {
	return &Batch{store: store}
}

// Upload stores obj and remembers it for Rollback.
func (b *Batch) Upload(ctx context.Context, obj Object) (StoredObject, error) {
	so, err := b.store.Upload(ctx, obj)
	if err != nil {
		return StoredObject{}, err
	}
	b.stored = append(b.stored, so)
	return so, nil
}

// Rollback deletes every object uploaded through the batch. Failures are
// logged and otherwise ignored.
func (b *Batch) Rollback(ctx context.Context) {
	for _, so := range b.stored {
		if err := b.store.Delete(ctx, so.PublicID); err != nil {
			logger.L().Warn("failed to remove orphaned upload",
				zap.String("public_id", so.PublicID), zap.Error(err))
		}
	}
	b.stored = nil
}
