// Package services holds the business operations behind the HTTP handlers.
package services

import (
	"errors"
	"io"

	"gorm.io/gorm"

	"heritage-api/apperr"
)

// MaxFilesPerRequest caps the number of files a single create or edit may attach.
const MaxFilesPerRequest = 10

// FileUpload is one incoming file with its optional caption and description.
type FileUpload struct {
	Filename    string
	ContentType string
	Body        io.Reader
	Caption     string
	Description string
}

// dbError maps persistence failures onto the error taxonomy.
func dbError(err error, notFound, fallback string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.NotFound(notFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Wrap(err, apperr.CodeConflict, "Record already exists")
	}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperr.Internal(err, fallback)
}
