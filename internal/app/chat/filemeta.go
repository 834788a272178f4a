package chat

import (
	"path/filepath"
	"strings"

	"quickdrop/internal/pkg/errs"
)

const (
	// MaxFileSizeMB is the maximum declared file size in megabytes.
	MaxFileSizeMB = 20

	// MaxFileSize is the maximum declared file size in bytes.
	MaxFileSize = MaxFileSizeMB * 1024 * 1024
)

// AllowedFileMIMETypes defines the set of permitted MIME types for file messages.
var AllowedFileMIMETypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/webp":      {},
	"image/gif":       {},
	"application/pdf": {},
	"text/plain":      {},
}

// extToMIME maps file extensions to their expected MIME types.
var extToMIME = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
	".gif":  "image/gif",
	".pdf":  "application/pdf",
	".txt":  "text/plain",
}

// ValidateFileMeta checks that declared file metadata is self-consistent:
// positive bounded size, an allowed MIME type, and an extension matching it.
// The relay never sees the file bytes, so this is a plausibility check on the
// declaration, not content inspection.
func ValidateFileMeta(meta *FileMeta) *errs.CustomError {
	if meta == nil {
		return errs.NewError(errs.ErrFileMetadataInvalid)
	}

	if meta.Size <= 0 || meta.Size > MaxFileSize {
		return errs.NewError(errs.ErrFileMetadataInvalid)
	}

	lowerMIME := strings.ToLower(meta.MimeType)
	if _, ok := AllowedFileMIMETypes[lowerMIME]; !ok {
		return errs.NewError(errs.ErrFileMetadataInvalid)
	}

	ext := strings.ToLower(filepath.Ext(meta.Name))
	if len(ext) < 2 {
		return errs.NewError(errs.ErrFileMetadataInvalid)
	}

	if expected, ok := extToMIME[ext]; !ok || expected != lowerMIME {
		return errs.NewError(errs.ErrFileMetadataInvalid)
	}

	return nil
}
